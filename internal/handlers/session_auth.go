package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/services"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/utils"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// SessionAuthMiddleware resolves the session cookie to a user.
type SessionAuthMiddleware struct {
	auth   services.AuthService
	cookie CookieConfig
	logger utils.Logger
}

func NewSessionAuthMiddleware(auth services.AuthService, cookie CookieConfig, logger utils.Logger) *SessionAuthMiddleware {
	if cookie.Name == "" {
		cookie.Name = "tm_session"
	}
	return &SessionAuthMiddleware{auth: auth, cookie: cookie, logger: logger}
}

// sessionToken reads the cookie, falling back to a bearer Authorization header
// for non-browser clients.
func (m *SessionAuthMiddleware) sessionToken(c *gin.Context) string {
	if token, err := c.Cookie(m.cookie.Name); err == nil && token != "" {
		return token
	}
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// AuthMiddleware rejects requests without a live session.
func (m *SessionAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.sessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Authentication required",
			})
			return
		}

		user, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			var banned *services.BannedError
			switch {
			case errors.As(err, &banned):
				m.clearCookie(c)
				c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
					Message: "Account is banned",
					Details: map[string]interface{}{"ban_reason": banned.Reason},
				})
			case errors.Is(err, services.ErrUnauthenticated):
				m.clearCookie(c)
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
					Message: "Authentication required",
				})
			default:
				utils.LoggerFromContext(c, m.logger).Error("Failed to authenticate session", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal server error",
				})
			}
			return
		}

		c.Set(ctxUserID, user.ID)
		c.Set(ctxUser, user)
		c.Set(ctxUserRole, user.Role)
		c.Next()
	}
}

// RequireRoleMiddleware lets through only the listed roles. Admin is not an
// implicit match.
func (m *SessionAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(ctxUserRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Authentication required",
			})
			return
		}
		role, _ := v.(models.UserRole)
		for _, required := range requiredRoles {
			if role == required {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles),
		})
	}
}

func (m *SessionAuthMiddleware) setCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.Name, token, maxAge, "/", "", m.cookie.Secure, true)
}

func (m *SessionAuthMiddleware) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.Name, "", -1, "/", "", m.cookie.Secure, true)
}
