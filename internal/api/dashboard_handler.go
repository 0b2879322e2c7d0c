package api

import (
	"github.com/gin-gonic/gin"

	"alcyxob/fitness-content/internal/service"
)

// DashboardHandler serves the admin dashboard.
type DashboardHandler struct {
	dashboard service.DashboardService
}

func NewDashboardHandler(dashboard service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Counts returns entity totals.
func (h *DashboardHandler) Counts(c *gin.Context) {
	counts, err := h.dashboard.Counts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Dashboard data fetched successfully.", counts)
}

// UserStats returns the number of users created per month.
func (h *DashboardHandler) UserStats(c *gin.Context) {
	var q service.UserStatsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, invalidField("year", "year, start_month and end_month must be integers"))
		return
	}
	stats, err := h.dashboard.UserCreationStats(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "User creation statistics fetched successfully.", stats)
}
