package hierarchy

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"sikep-admin-svc/src/internal/config"
	"sikep-admin-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	ListOfficials(c *gin.Context)
	CreateOfficial(c *gin.Context)
	UpdateOfficial(c *gin.Context)
	DeleteOfficial(c *gin.Context)
	ListAvailable(c *gin.Context)
	ListSubordinates(c *gin.Context)
	GetStats(c *gin.Context)
	ListReassignments(c *gin.Context)
}

type handler struct {
	config  *config.Configuration
	service Service
	backend func(token string) Backend
}

func NewHandler(cfg *config.Configuration, service Service, backend func(token string) Backend) Handler {
	return &handler{
		config:  cfg,
		service: service,
		backend: backend,
	}
}

func (h *handler) scope(c *gin.Context) (context.Context, context.CancelFunc, Backend) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	return ctx, cancel, h.backend(c.GetString("backend_token"))
}

func (h *handler) ListOfficials(c *gin.Context) {
	ctx, cancel, api := h.scope(c)
	defer cancel()

	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		_ = c.Error(models.ErrInvalidParams)
		return
	}

	logrus.WithFields(logrus.Fields{
		"page":   req.Page,
		"limit":  req.Limit,
		"search": req.Search,
		"bidang": req.Division,
		"level":  req.Level,
	}).Info("ListOfficials request received")

	response, err := h.service.List(ctx, api, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    response,
		"message": "Officials retrieved successfully",
	})
}

func (h *handler) CreateOfficial(c *gin.Context) {
	ctx, cancel, api := h.scope(c)
	defer cancel()

	var req models.OfficialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	official, err := h.service.Create(ctx, api, c.GetString("user_id"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    official,
		"message": "Official created successfully",
	})
}

// UpdateOfficial answers 200 once the update itself succeeded, listing any
// re-linking failures in the result. The workflow is detached from the
// request and has no overall deadline; only the client timeout bounds each
// backend call.
func (h *handler) UpdateOfficial(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	api := h.backend(c.GetString("backend_token"))

	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.OfficialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	result, err := h.service.Update(ctx, api, c.GetString("user_id"), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
		"message": "Official updated successfully",
	})
}

func (h *handler) DeleteOfficial(c *gin.Context) {
	ctx, cancel, api := h.scope(c)
	defer cancel()

	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, api, c.GetString("user_id"), id); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Official deleted successfully",
	})
}

func (h *handler) ListAvailable(c *gin.Context) {
	ctx, cancel, api := h.scope(c)
	defer cancel()

	employees, err := h.service.Available(ctx, api)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    employees,
	})
}

func (h *handler) ListSubordinates(c *gin.Context) {
	ctx, cancel, api := h.scope(c)
	defer cancel()

	id, ok := parseID(c)
	if !ok {
		return
	}

	subordinates, err := h.service.Subordinates(ctx, api, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    subordinates,
	})
}

func (h *handler) GetStats(c *gin.Context) {
	ctx, cancel, api := h.scope(c)
	defer cancel()

	stats, err := h.service.Stats(ctx, api)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
		"message": "Official statistics retrieved successfully",
	})
}

func (h *handler) ListReassignments(c *gin.Context) {
	ctx, cancel, _ := h.scope(c)
	defer cancel()

	id, ok := parseID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	runs, err := h.service.History(ctx, id, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    runs,
	})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		logrus.WithField("id", c.Param("id")).Warn("Invalid id parameter")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid id",
		})
		return 0, false
	}
	return id, true
}
