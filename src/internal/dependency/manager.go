package dependency

import (
	"fmt"
	"time"

	"sikep-admin-svc/src/clients"
	"sikep-admin-svc/src/internal/cache"
	"sikep-admin-svc/src/internal/config"
	"sikep-admin-svc/src/internal/employee"
	"sikep-admin-svc/src/internal/hierarchy"
	"sikep-admin-svc/src/internal/metrics"
	"sikep-admin-svc/src/internal/middleware"
	"sikep-admin-svc/src/internal/session"
	"sikep-admin-svc/src/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
)

type Manager struct {
	Router           *gin.Engine
	Config           *config.Configuration
	Mongodb          *clients.MongoDB
	Redis            *clients.RedisClient
	RabbitMQ         *clients.RabbitMQ
	Metrics          *prometheus.Registry
	CacheService     cache.Service
	SikepClient      *clients.SikepClient
	Publisher        *clients.ActivityPublisher
	Registry         *session.Registry
	SessionService   session.Service
	SessionHandler   session.Handler
	HierarchyService hierarchy.Service
	HierarchyHandler hierarchy.Handler
	EmployeeService  employee.Service
	EmployeeHandler  employee.Handler
	AuthMiddleware   *middleware.AuthMiddleware
}

func NewDependencyManager(router *gin.Engine,
	mongodb *clients.MongoDB,
	redisClient *clients.RedisClient,
	rabbitMQ *clients.RabbitMQ,
	cfg *config.Configuration) (*Manager, error) {
	clock := clockwork.NewRealClock()
	registry := metrics.NewRegistry()

	cacheService := cache.NewCacheService(redisClient.Client, cfg)
	sikepClient := clients.NewSikepClient(cfg)
	publisher := clients.NewActivityPublisher(cfg, rabbitMQ.Channel)
	issuer := token.NewIssuer(cfg.Security.JwtKey, time.Duration(cfg.Security.TokenTTLMinutes)*time.Minute, clock)
	trackers := session.NewRegistry(clock, cfg.Session.TombstoneRetention())

	sessionService, err := session.NewSessionService(session.Dependencies{
		Auth: sikepClient,
		Backend: func(t string) session.TokenBackend {
			return sikepClient.WithToken(t)
		},
		Store:     cacheService,
		History:   session.NewSessionRepository(mongodb, cfg.Database.SessionCollection),
		Issuer:    issuer,
		Publisher: publisher,
		Registry:  trackers,
		Metrics:   metrics.NewSessionMetrics(registry),
		Clock:     clock,
		Policy:    sessionPolicy(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("session service: %w", err)
	}

	reassigner := hierarchy.NewReassigner(metrics.NewHierarchyMetrics(registry), clock)
	runRepo := hierarchy.NewRunRepository(mongodb, cfg.Database.ReassignmentCollection)
	hierarchyService := hierarchy.NewHierarchyService(cfg, reassigner, runRepo, cacheService, publisher)
	hierarchyHandler := hierarchy.NewHandler(cfg, hierarchyService, func(t string) hierarchy.Backend {
		return sikepClient.WithToken(t)
	})

	employeeService := employee.NewEmployeeService(cfg, cacheService, publisher)
	employeeHandler := employee.NewHandler(cfg, employeeService, func(t string) employee.Backend {
		return sikepClient.WithToken(t)
	})

	return &Manager{
		Router:           router,
		Config:           cfg,
		Mongodb:          mongodb,
		Redis:            redisClient,
		RabbitMQ:         rabbitMQ,
		Metrics:          registry,
		CacheService:     cacheService,
		SikepClient:      sikepClient,
		Publisher:        publisher,
		Registry:         trackers,
		SessionService:   sessionService,
		SessionHandler:   session.NewHandler(cfg, sessionService),
		HierarchyService: hierarchyService,
		HierarchyHandler: hierarchyHandler,
		EmployeeService:  employeeService,
		EmployeeHandler:  employeeHandler,
		AuthMiddleware:   middleware.NewAuthMiddleware(issuer, sessionService),
	}, nil
}

func sessionPolicy(cfg *config.Configuration) session.Policy {
	return session.Policy{
		Timeout:      cfg.Session.Timeout(),
		WarningLead:  cfg.Session.WarningLead(),
		WarningGrace: cfg.Session.WarningGrace(),
		PollInterval: cfg.Session.PollInterval(),
	}
}
