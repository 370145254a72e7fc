// Package auth exposes the bearer token middleware used by the API
// routes.
package auth

import (
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/types"
	authService "github.com/killallgit/blog-api/internal/services/auth"
	apperrors "github.com/killallgit/blog-api/pkg/errors"
)

// Handler wraps a token validator into gin middleware
type Handler struct {
	validator types.TokenValidator
}

// NewHandler creates a new auth handler
func NewHandler(validator types.TokenValidator) *Handler {
	return &Handler{validator: validator}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func setClaims(c *gin.Context, claims *authService.Claims) {
	c.Set(types.ContextClaims, claims)
	c.Set(types.ContextUserID, claims.Sub)
}

// AuthMiddleware rejects requests without a valid bearer token
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			types.SendUnauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			types.SendUnauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := h.validator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			log.Debug("rejected bearer token", "path", c.Request.URL.Path, "error", err)
			switch {
			case errors.Is(err, authService.ErrTokenExpired):
				types.SendUnauthorized(c, "Token expired")
			case apperrors.Is(err, apperrors.ErrCodeExternalService):
				types.SendAppError(c, err)
			default:
				types.SendUnauthorized(c, "Invalid or expired token")
			}
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware validates JWT if present but doesn't require it
func (h *Handler) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := h.validator.ValidateToken(c.Request.Context(), token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by the middleware, nil when the
// request is anonymous
func ClaimsFrom(c *gin.Context) *authService.Claims {
	v, ok := c.Get(types.ContextClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*authService.Claims)
	return claims
}
