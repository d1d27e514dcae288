package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tunecraft/tunecraft-api/internal/handler"
	"github.com/tunecraft/tunecraft-api/internal/middleware"
	"github.com/tunecraft/tunecraft-api/internal/repository"
	"github.com/tunecraft/tunecraft-api/internal/service"
	"github.com/tunecraft/tunecraft-api/pkg/cache"
	"github.com/tunecraft/tunecraft-api/pkg/config"
	"github.com/tunecraft/tunecraft-api/pkg/database"
	"github.com/tunecraft/tunecraft-api/pkg/export"
	"github.com/tunecraft/tunecraft-api/pkg/logger"
	corsmiddleware "github.com/tunecraft/tunecraft-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tunecraft/tunecraft-api/pkg/middleware/requestid"
	"github.com/tunecraft/tunecraft-api/pkg/payment"
)

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

	if cfg.Env == config.EnvProduction && cfg.JWT.Secret == "dev_secret" {
		logr.Fatal("JWT_SECRET must be set in production")
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The role cache is an optimisation; the directory remains the
		// source of truth, so a missing Redis only costs lookups.
		logr.Warn("redis unavailable, role caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	roleCache := repository.NewRoleCache(redisClient, cfg.JWT.RoleTTL, logr)
	defer roleCache.Close()

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     "tunecraft-api",
	})
	userSvc := service.NewUserService(userRepo, roleCache, validate, logr)
	classSvc := service.NewClassService(classRepo, validate, logr)
	reservationSvc := service.NewReservationService(reservationRepo, classRepo, metricsSvc, validate, logr)
	gateway := payment.NewRestGateway(cfg.Gateway)
	paymentSvc := service.NewPaymentService(paymentRepo, reservationRepo, classRepo, gateway, export.NewReceiptRenderer(), validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	handler.Register(r, cfg.APIPrefix, handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Users:        handler.NewUserHandler(userSvc),
		Classes:      handler.NewClassHandler(classSvc),
		Reservations: handler.NewReservationHandler(reservationSvc),
		Payments:     handler.NewPaymentHandler(paymentSvc),
		Metrics:      handler.NewMetricsHandler(metricsSvc),
	}, authSvc, userSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
