package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"sikep-admin-svc/src/internal/config"
	"sikep-admin-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	Login(c *gin.Context)
	Logout(c *gin.Context)
	Me(c *gin.Context)
	Activity(c *gin.Context)
	State(c *gin.Context)
}

type handler struct {
	config  *config.Configuration
	service Service
}

func NewHandler(cfg *config.Configuration, service Service) Handler {
	return &handler{
		config:  cfg,
		service: service,
	}
}

func (h *handler) timeout() time.Duration {
	return time.Duration(h.config.App.Timeout) * time.Second
}

func (h *handler) Login(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout())
	defer cancel()

	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		logrus.WithError(err).Warn("Invalid login request")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	resp, err := h.service.Login(ctx, creds)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    resp,
		"message": "Login successful",
	})
}

func (h *handler) Logout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout())
	defer cancel()

	sessionID := c.GetString("session_id")
	if err := h.service.Logout(ctx, sessionID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"redirect": LoginPath,
		"message":  "Logged out",
	})
}

func (h *handler) Me(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout())
	defer cancel()

	user, err := h.service.Me(ctx, c.GetString("session_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// Activity reports browser interaction events for the caller's session.
func (h *handler) Activity(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout())
	defer cancel()

	var req ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	sessionID := c.GetString("session_id")
	snap, err := h.service.Touch(ctx, sessionID, req.Events)
	if err != nil {
		if errors.Is(err, models.ErrSessionExpired) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Session expired - please login again",
				"data":  snap,
			})
			return
		}
		_ = c.Error(err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"events":     len(req.Events),
	}).Debug("Session activity recorded")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    snap,
	})
}

// State returns the tracker snapshot. A timed-out session still answers with
// its blocking overlay until the tombstone is pruned.
func (h *handler) State(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout())
	defer cancel()

	snap, err := h.service.State(ctx, c.GetString("session_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    snap,
	})
}
