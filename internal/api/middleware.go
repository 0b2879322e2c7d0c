package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"alcyxob/fitness-content/internal/service"
)

// Context keys set by AuthMiddleware.
const (
	ContextClaimsKey = "claims"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, service.ErrInvalidToken.Error())
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortWithError(c, http.StatusUnauthorized, service.ErrInvalidToken.Error())
			return
		}

		// Signature, expiry and revocation are checked by the service.
		claims, err := auth.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, service.ErrInvalidToken.Error())
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// AdminMiddleware lets only administrators through.
// Must run AFTER AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFromContext(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, service.ErrInvalidToken.Error())
			return
		}
		if !claims.IsAdmin {
			abortWithError(c, http.StatusForbidden, "Access denied.")
			return
		}
		c.Next()
	}
}

// claimsFromContext returns the claims stored by AuthMiddleware.
func claimsFromContext(c *gin.Context) (*service.Claims, bool) {
	raw, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := raw.(*service.Claims)
	return claims, ok
}

// RequestLogger logs one line per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// LimitBody caps request bodies at maxBytes.
func LimitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
