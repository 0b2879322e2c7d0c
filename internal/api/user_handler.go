package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"alcyxob/fitness-content/internal/service"
)

// UserHandler serves the endpoints of the mobile app user.
type UserHandler struct {
	details service.UserDetailService
	home    service.HomeService
}

func NewUserHandler(details service.UserDetailService, home service.HomeService) *UserHandler {
	return &UserHandler{details: details, home: home}
}

// Home returns focus areas and categories with their newest workouts.
func (h *UserHandler) Home(c *gin.Context) {
	feed, err := h.home.Feed(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Home data fetched successfully.", feed)
}

// StoreDetail saves the onboarding answers of the current user.
func (h *UserHandler) StoreDetail(c *gin.Context) {
	userID, in, ok := h.bindDetail(c)
	if !ok {
		return
	}
	res, err := h.details.Store(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, "User detail added successfully.", res)
}

// UpdateDetail replaces the onboarding answers of the current user.
func (h *UserHandler) UpdateDetail(c *gin.Context) {
	userID, in, ok := h.bindDetail(c)
	if !ok {
		return
	}
	res, err := h.details.Update(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "User detail updated successfully.", res)
}

// Profile returns the user with details, goals and focus areas.
func (h *UserHandler) Profile(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, service.ErrInvalidToken.Error())
		return
	}
	profile, err := h.details.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Profile fetched successfully.", profile)
}

func (h *UserHandler) bindDetail(c *gin.Context) (int64, service.UserDetailInput, bool) {
	var in service.UserDetailInput
	claims, ok := claimsFromContext(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, service.ErrInvalidToken.Error())
		return 0, in, false
	}
	err := bindInput(c, &in)
	if err == nil {
		err = formIDs(c, "goal_ids", &in.GoalIDs)
	}
	if err == nil {
		err = formIDs(c, "focus_area_ids", &in.FocusAreaIDs)
	}
	if err != nil {
		respondError(c, err)
		return 0, in, false
	}
	return claims.UserID, in, true
}
