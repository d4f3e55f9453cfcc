package server

import (
	"time"

	"sikep-admin-svc/src/clients"
	"sikep-admin-svc/src/internal/dependency"
	"sikep-admin-svc/src/internal/metrics"
	"sikep-admin-svc/src/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func SetupRoutes(deps *dependency.Manager) {
	router := deps.Router
	router.Use(enableCORS)
	router.Use(middleware.HandleErrors(deps.SessionService))

	setupHealthEndpoint(deps)
	setupPublicRoutes(router, deps)
	setupSessionRoutes(router, deps)
	setupAdminRoutes(router, deps)
}

func setupHealthEndpoint(deps *dependency.Manager) {
	router := deps.Router
	mongodb := deps.Mongodb
	redisClient := deps.Redis
	cfg := deps.Config

	router.GET("/health", func(c *gin.Context) {
		log.Debug("Health check endpoint requested")

		mongoStatus := "ok"
		if err := mongodb.Client.Ping(c.Request.Context(), nil); err != nil {
			mongoStatus = "error: " + err.Error()
		}

		redisStatus := "ok"
		if err := redisClient.Client.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "error: " + err.Error()
		}

		c.JSON(200, gin.H{
			"status":    "ok",
			"service":   cfg.App.Name,
			"version":   cfg.App.Version,
			"mongodb":   mongoStatus,
			"redis":     redisStatus,
			"trackers":  deps.Registry.Len(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	router.GET("/health/detailed", func(c *gin.Context) {
		log.Debug("Detailed health check endpoint requested")

		c.JSON(200, gin.H{
			"status":  "operational",
			"service": cfg.App.Name,
			"version": cfg.App.Version,
			"components": gin.H{
				"database": gin.H{
					"mongodb": getStatus(isMongoConnected(mongodb, c)),
					"redis":   getStatus(isRedisConnected(redisClient.Client, c)),
				},
				"queue": gin.H{
					"rabbitmq": getStatus(deps.RabbitMQ.Conn != nil && !deps.RabbitMQ.Conn.IsClosed()),
				},
			},
		})
	})

	router.GET("/metrics", gin.WrapH(metrics.Handler(deps.Metrics)))
}

func setupPublicRoutes(router *gin.Engine, deps *dependency.Manager) {
	router.GET("/api/v1/status", func(c *gin.Context) {
		log.Debug("API status requested")
		c.JSON(200, gin.H{
			"api_version": "v1",
			"status":      "operational",
			"service":     deps.Config.App.Name,
		})
	})

	router.POST("/api/v1/auth/login",
		setRouteName("login"),
		deps.SessionHandler.Login)
}

func setupSessionRoutes(router *gin.Engine, deps *dependency.Manager) {
	auth := deps.AuthMiddleware
	handler := deps.SessionHandler

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/logout",
			setRouteName("logout"),
			auth.RequireAuth(),
			handler.Logout)

		v1.GET("/auth/me",
			setRouteName("me"),
			auth.RequireAuth(),
			handler.Me)

		// Token only: the blocking state stays readable after a timeout.
		v1.POST("/session/activity",
			setRouteName("sessionActivity"),
			auth.RequireToken(),
			handler.Activity)

		v1.GET("/session/state",
			setRouteName("sessionState"),
			auth.RequireToken(),
			handler.State)
	}
}

func setupAdminRoutes(router *gin.Engine, deps *dependency.Manager) {
	auth := deps.AuthMiddleware
	officials := deps.HierarchyHandler
	employees := deps.EmployeeHandler

	admin := router.Group("/api/v1/admin", auth.RequireAuth(), auth.RequireAdminRights())
	{
		admin.GET("/pejabat-struktural", setRouteName("listOfficials"), officials.ListOfficials)
		admin.POST("/pejabat-struktural", setRouteName("createOfficial"), officials.CreateOfficial)
		admin.GET("/pejabat-struktural/available", setRouteName("listAvailable"), officials.ListAvailable)
		admin.GET("/pejabat-struktural/stats", setRouteName("officialStats"), officials.GetStats)
		admin.PUT("/pejabat-struktural/:id", setRouteName("updateOfficial"), officials.UpdateOfficial)
		admin.DELETE("/pejabat-struktural/:id", setRouteName("deleteOfficial"), officials.DeleteOfficial)
		admin.GET("/pejabat-struktural/:id/bawahan", setRouteName("listSubordinates"), officials.ListSubordinates)
		admin.GET("/pejabat-struktural/:id/reassignments", setRouteName("listReassignments"), officials.ListReassignments)

		admin.GET("/employees", setRouteName("listEmployees"), employees.GetAllEmployees)
		admin.PUT("/employees/:id/atasan", setRouteName("assignSupervisor"), employees.AssignSupervisor)
		admin.PUT("/employees/:id/plt", setRouteName("assignActing"), employees.AssignActing)
		admin.DELETE("/employees/:id/plt", setRouteName("removeActing"), employees.RemoveActing)
	}
}

func setRouteName(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("route_name", name)
		c.Next()
	}
}

func isMongoConnected(mongodb *clients.MongoDB, c *gin.Context) bool {
	if err := mongodb.Client.Ping(c.Request.Context(), nil); err != nil {
		return false
	}
	return true
}

func isRedisConnected(redisClient *redis.Client, c *gin.Context) bool {
	if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
		return false
	}
	return true
}

func enableCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(204)
		return
	}

	c.Next()
}

func getStatus(b bool) string {
	if b {
		return "connected"
	}
	return "disconnected"
}
