package middleware

import (
	"context"
	"errors"
	"net/http"

	"sikep-admin-svc/src/internal/models"
	"sikep-admin-svc/src/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ForceLogouter ends a session the backend no longer accepts.
type ForceLogouter interface {
	ForceLogout(ctx context.Context, sessionID, reason string)
}

// HandleErrors renders the last error a handler pushed with c.Error.
func HandleErrors(sessions ForceLogouter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		fields := logrus.Fields{
			"route":  c.GetString("route_name"),
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}

		var backendErr *models.BackendError
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			if sessionID := c.GetString("session_id"); sessionID != "" {
				sessions.ForceLogout(c.Request.Context(), sessionID, session.EndReasonUnauthorized)
			}
			logrus.WithFields(fields).Warn("Backend rejected the session token")
			c.JSON(http.StatusUnauthorized, gin.H{
				"logout":   true,
				"redirect": session.LoginPath,
			})

		case errors.Is(err, models.ErrBackendUnreachable):
			logrus.WithError(err).WithFields(fields).Error("Backend unreachable")
			c.JSON(http.StatusBadGateway, gin.H{
				"error": models.ErrBackendUnreachable.Error(),
			})

		case errors.As(err, &backendErr):
			status := backendErr.Status
			if !backendErr.IsClientError() {
				status = http.StatusBadGateway
			}
			logrus.WithFields(fields).WithField("status", backendErr.Status).Warn("Backend returned an error")
			c.JSON(status, gin.H{
				"error": backendErr.Message,
			})

		case errors.Is(err, models.ErrSessionNotFound), errors.Is(err, models.ErrSessionExpired):
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":    "Session expired - please login again",
				"logout":   true,
				"redirect": session.LoginPath,
			})

		case errors.Is(err, models.ErrInvalidParams), errors.Is(err, models.ErrInvalidRank):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})

		case errors.Is(err, models.ErrOfficialNotFound), errors.Is(err, models.ErrEmployeeNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": err.Error(),
			})

		case errors.Is(err, context.DeadlineExceeded):
			logrus.WithFields(fields).Error("Request timed out")
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timed out",
			})

		default:
			logrus.WithError(err).WithFields(fields).Error("Request failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": err.Error(),
			})
		}
	}
}
