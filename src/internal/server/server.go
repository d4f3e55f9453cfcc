package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sikep-admin-svc/src/clients"
	"sikep-admin-svc/src/internal/config"
	"sikep-admin-svc/src/internal/dependency"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

var log = logrus.StandardLogger()

type Server struct {
	cfg *config.Configuration
}

func New(cfg *config.Configuration) *Server {
	return &Server{cfg: cfg}
}

// Start connects the backing stores, serves HTTP and blocks until SIGINT or
// SIGTERM, then shuts everything down.
func (s *Server) Start() error {
	cfg := s.cfg

	mongodb, err := clients.NewMongoDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongodb.Close(ctx)
	}()

	redisClient, err := clients.NewRedisClient(&cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	rabbitMQ, err := clients.NewRabbitMQ(&cfg.Queue)
	if err != nil {
		return fmt.Errorf("rabbitmq: %w", err)
	}
	defer func() { _ = rabbitMQ.Close() }()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())

	deps, err := dependency.NewDependencyManager(router, mongodb, redisClient, rabbitMQ, cfg)
	if err != nil {
		return err
	}
	SetupRoutes(deps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		deps.Registry.Run(ctx)
	}()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Server listening on port %s", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		<-janitorDone
		return err
	case <-ctx.Done():
		log.Info("Shutdown signal received, cleaning up...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown error")
	}

	<-janitorDone
	log.Info("Server stopped")
	return nil
}
