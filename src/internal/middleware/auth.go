package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"sikep-admin-svc/src/internal/models"
	"sikep-admin-svc/src/internal/session"
	"sikep-admin-svc/src/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type TokenParser interface {
	Parse(tokenString string) (*token.Claims, error)
}

// SessionLookup resolves a live session, resuming it if needed.
type SessionLookup interface {
	Current(ctx context.Context, sessionID string) (*session.Session, error)
}

// AuthMiddleware handles authentication and authorization
type AuthMiddleware struct {
	tokens   TokenParser
	sessions SessionLookup
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens TokenParser, sessions SessionLookup) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:   tokens,
		sessions: sessions,
	}
}

// RequireToken validates the access token only. Routes behind it stay
// reachable after the session timed out.
func (m *AuthMiddleware) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := m.authenticate(c)
		if !ok {
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// RequireAuth validates the access token and the session behind it.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := m.authenticate(c)
		if !ok {
			return
		}

		sess, err := m.sessions.Current(c.Request.Context(), claims.SessionID)
		if err != nil {
			if errors.Is(err, models.ErrSessionNotFound) || errors.Is(err, models.ErrSessionExpired) {
				logrus.WithField("session_id", claims.SessionID).Warn("Session is invalid or expired")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":    "Session expired - please login again",
					"logout":   true,
					"redirect": session.LoginPath,
				})
				return
			}

			logrus.WithError(err).Error("Session validation failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Session validation error",
			})
			return
		}

		setClaims(c, claims)
		c.Set("user_name", sess.User.Name)
		c.Set("backend_token", sess.BackendToken)

		logrus.WithFields(logrus.Fields{
			"user_id":    claims.UserID,
			"session_id": claims.SessionID,
			"user_role":  claims.Role,
		}).Debug("User authenticated successfully")

		c.Next()
	}
}

// RequireAdminRights checks if user has admin privileges
func (m *AuthMiddleware) RequireAdminRights() gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			logrus.Error("User role not found in context - ensure RequireAuth middleware runs first")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		if role, _ := userRole.(string); role != models.RoleAdmin {
			logrus.WithFields(logrus.Fields{
				"user_id":   c.GetString("user_id"),
				"user_role": userRole,
			}).Warn("User attempted to access admin endpoint without admin privileges")

			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Access forbidden - admin privileges required",
			})
			return
		}

		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context) (*token.Claims, bool) {
	raw := extractToken(c)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Authorization token is required",
		})
		return nil, false
	}

	claims, err := m.tokens.Parse(raw)
	if err != nil {
		logrus.WithError(err).Warn("JWT token validation failed")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid or expired token",
		})
		return nil, false
	}
	return claims, true
}

func setClaims(c *gin.Context, claims *token.Claims) {
	c.Set("user_id", claims.UserID)
	c.Set("session_id", claims.SessionID)
	c.Set("user_role", claims.Role)
}

// extractToken extracts JWT token from Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		logrus.Debug("Authorization header missing")
		return ""
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		logrus.Warn("Invalid authorization header format")
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}
