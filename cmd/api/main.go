package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/placement-api/api/swagger"
	"github.com/noah-isme/placement-api/internal/handler"
	"github.com/noah-isme/placement-api/internal/middleware"
	"github.com/noah-isme/placement-api/internal/repository"
	"github.com/noah-isme/placement-api/internal/service"
	"github.com/noah-isme/placement-api/pkg/config"
	"github.com/noah-isme/placement-api/pkg/keylock"
	"github.com/noah-isme/placement-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/placement-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/placement-api/pkg/middleware/requestid"
)

// @title Internship Placement API
// @version 1.0.0
// @description Internship posting, application and placement lifecycle for students, company representatives and career center staff
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx := context.Background()
	metrics := service.NewMetricsService()
	store := repository.NewMemoryStore()

	backend, err := openBackends(ctx, cfg, logr, store, metrics)
	if err != nil {
		return err
	}
	defer backend.Close()

	deps := service.Dependencies{
		Store:     store,
		Persister: backend.persister,
		Recorder:  backend.recorder(),
		Locker:    keylock.New(),
		Cache:     backend.cache,
		Metrics:   metrics,
		Logger:    logr,
		Options: service.LifecycleOptions{
			SiblingPolicy:          cfg.Lifecycle.SiblingCancelPolicy,
			AutoPublishOnApproval:  cfg.Lifecycle.AutoPublishOnApproval,
			MaxStudentApplications: cfg.Lifecycle.MaxStudentApplications,
			MaxRepInternships:      cfg.Lifecycle.MaxRepInternships,
		},
	}

	authService := service.NewAuthService(deps, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	if err := loadSeed(ctx, cfg.Seed.File, store, backend.persister, authService, logr); err != nil {
		return err
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, store.Counts)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:           handler.NewAuthHandler(authService),
		Student:        handler.NewStudentHandler(service.NewApplicationService(deps)),
		Representative: handler.NewRepresentativeHandler(service.NewRepresentativeService(deps)),
		Staff:          handler.NewStaffHandler(service.NewStaffService(deps, backend.activityReader)),
		Metrics:        metricsHandler,
	}, authService)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env, "persistence", cfg.Persistence.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logr.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
