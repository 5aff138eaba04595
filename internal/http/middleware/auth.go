package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aslanbek/gigpay/internal/auth"
	"github.com/aslanbek/gigpay/internal/model"
)

const profileKey = "gigpay.profile"

// ProfileLoader resolves a verified principal to a stored profile.
type ProfileLoader interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
}

// Auth verifies the bearer token and loads the profile it identifies into
// the request context. Handlers behind this middleware always see a
// resolved profile.
func Auth(parser *auth.Parser, profiles ProfileLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		principal, err := parser.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		profile, err := profiles.GetProfile(c.Request.Context(), principal.ProfileID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown profile"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Set(profileKey, profile)
		c.Next()
	}
}

// MustProfile returns the profile resolved by Auth.
func MustProfile(c *gin.Context) (*model.Profile, bool) {
	value, exists := c.Get(profileKey)
	if !exists {
		return nil, false
	}
	profile, ok := value.(*model.Profile)
	return profile, ok
}

// RequireClient rejects callers whose profile role is not client.
func RequireClient() gin.HandlerFunc {
	return requireRole(model.RoleClient)
}

// RequireAdmin rejects callers whose profile role is not admin.
func RequireAdmin() gin.HandlerFunc {
	return requireRole(model.RoleAdmin)
}

func requireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := MustProfile(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing profile"})
			return
		}
		if profile.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}
