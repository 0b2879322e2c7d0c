package api

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/service"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
	Token   string `json:"token,omitempty"`
}

// pageBody is the data of a paged list response.
type pageBody struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
	Data        any   `json:"data"`
}

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, envelope{Success: true, Message: message, Data: data})
}

// respondPage writes the rows directly for page=0 and the pagination block
// otherwise.
func respondPage[T any](c *gin.Context, message string, p service.Page[T]) {
	if !p.Paged {
		respondOK(c, message, p.Items)
		return
	}
	respondOK(c, message, pageBody{
		CurrentPage: p.Page,
		PerPage:     p.Limit,
		Total:       p.Total,
		LastPage:    p.LastPage(),
		Data:        p.Items,
	})
}

// abortWithError writes a failure envelope and stops the handler chain.
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, envelope{Success: false, Message: message})
}

// respondError maps service and storage errors to HTTP responses.
func respondError(c *gin.Context, err error) {
	var (
		ve *domain.ValidationError
		nf domain.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		fields := ve.FieldErrors()
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, envelope{
			Success: false,
			Message: firstMessage(fields, ve.Error()),
			Errors:  fields,
		})
	case errors.As(err, &nf):
		message := nf.Message
		if message == "" {
			message = service.ErrNoData.Message
		}
		abortWithError(c, http.StatusNotFound, message)
	case errors.Is(err, domain.ErrAlreadyExists):
		abortWithError(c, http.StatusConflict, strings.TrimSuffix(err.Error(), ": "+domain.ErrAlreadyExists.Error()))
	case errors.Is(err, domain.ErrConflict):
		abortWithError(c, http.StatusConflict, domain.ErrConflict.Error())
	case errors.Is(err, service.ErrAuthenticationFailed), errors.Is(err, service.ErrInvalidToken):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		slog.ErrorContext(c.Request.Context(), "store unavailable", "path", c.FullPath(), "error", err)
		abortWithError(c, http.StatusServiceUnavailable, "Service temporarily unavailable.")
	default:
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		abortWithError(c, http.StatusInternalServerError, "Something went wrong.")
	}
}

// firstMessage picks the message of the alphabetically first field.
func firstMessage(fields map[string][]string, fallback string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(fields[k]) > 0 {
			return fields[k][0]
		}
	}
	return fallback
}
