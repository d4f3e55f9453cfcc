package employee

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
	GetAllEmployees(c *gin.Context)
	AssignSupervisor(c *gin.Context)
	AssignActing(c *gin.Context)
	RemoveActing(c *gin.Context)
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

func (h *handler) GetAllEmployees(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	req := &ListRequest{
		Page:        parseIntParam(c, "page", 1),
		Limit:       parseIntParam(c, "limit", 0),
		Search:      c.Query("search"),
		Division:    c.Query("bidang"),
		Supervision: c.Query("supervision"),
	}

	logrus.WithFields(logrus.Fields{
		"page":        req.Page,
		"limit":       req.Limit,
		"search":      req.Search,
		"bidang":      req.Division,
		"supervision": req.Supervision,
	}).Info("GetAllEmployees request received")

	response, err := h.service.List(ctx, h.backend(c.GetString("backend_token")), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    response,
		"message": "Employees retrieved successfully",
	})
}

func (h *handler) AssignSupervisor(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	employeeID, ok := parseID(c)
	if !ok {
		return
	}

	var req models.SupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	api := h.backend(c.GetString("backend_token"))
	if err := h.service.AssignSupervisor(ctx, api, c.GetString("user_id"), employeeID, req.SupervisorID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Supervisor assigned successfully",
	})
}

func (h *handler) AssignActing(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	employeeID, ok := parseID(c)
	if !ok {
		return
	}

	var req models.ActingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	api := h.backend(c.GetString("backend_token"))
	if err := h.service.AssignActing(ctx, api, c.GetString("user_id"), employeeID, req); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Acting appointment assigned successfully",
	})
}

func (h *handler) RemoveActing(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	employeeID, ok := parseID(c)
	if !ok {
		return
	}

	api := h.backend(c.GetString("backend_token"))
	if err := h.service.RemoveActing(ctx, api, c.GetString("user_id"), employeeID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Acting appointment removed successfully",
	})
}

func parseIntParam(c *gin.Context, param string, defaultValue int) int {
	value := c.Query(param)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"param": param,
			"value": value,
			"error": err,
		}).Warn("Invalid integer parameter, using default")

		return defaultValue
	}
	return parsed
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid employee id",
		})
		return 0, false
	}
	return id, true
}
