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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timify-bridge/api/swagger"
	"github.com/noah-isme/timify-bridge/internal/handler"
	"github.com/noah-isme/timify-bridge/internal/middleware"
	"github.com/noah-isme/timify-bridge/internal/repository"
	"github.com/noah-isme/timify-bridge/internal/service"
	"github.com/noah-isme/timify-bridge/pkg/cache"
	"github.com/noah-isme/timify-bridge/pkg/config"
	"github.com/noah-isme/timify-bridge/pkg/database"
	"github.com/noah-isme/timify-bridge/pkg/logger"
	corsmiddleware "github.com/noah-isme/timify-bridge/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timify-bridge/pkg/middleware/requestid"
	"github.com/noah-isme/timify-bridge/pkg/timify"
)

// @title Timify Bridge API
// @version 1.0.0
// @description Links course blocks to timed assessments on timify.me
// @BasePath /api/v1
// @schemes http https

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if _, err := database.Migrate(ctx, db.DB, logr); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	probes := map[string]handler.ReadinessProbe{"postgres": db}

	metricsSvc := service.NewMetricsService()
	client := timify.NewClient(timify.Options{
		BaseURL:  cfg.Timify.BaseURL,
		Timeout:  cfg.Timify.HTTPTimeout,
		Observer: metricsSvc,
		Logger:   logr.Named("timify"),
	})

	credentialCfg := service.CredentialServiceConfig{
		Username: cfg.Timify.Username,
		Password: cfg.Timify.Password,
		TTL:      cfg.Timify.CredentialTTL,
	}
	var credentialSvc *service.CredentialService
	if cfg.Timify.CredentialStore == config.CredentialStoreRedis {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		redisRepo := repository.NewCredentialCacheRepository(redisClient, logr)
		defer redisRepo.Close() //nolint:errcheck
		probes["redis"] = handler.ProbeFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		credentialSvc = service.NewCredentialService(redisRepo, client, metricsSvc, credentialCfg, logr)
	} else {
		credentialSvc = service.NewCredentialService(repository.NewMemoryCredentialRepository(), client, metricsSvc, credentialCfg, logr)
	}
	if !cfg.Timify.HasServiceAccount() {
		logr.Warn("timify service account not configured; block views will be degraded")
	}

	blockRepo := repository.NewBlockRepository(db)
	linkStateRepo := repository.NewLinkStateRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	policy := service.NewDueDatePolicy(time.Now)
	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.Auth.Secret, Issuer: cfg.Auth.Issuer})
	blockSvc := service.NewBlockService(blockRepo, auditRepo, credentialSvc, client, validator.New(), logr)
	linkSvc := service.NewLinkService(blockRepo, linkStateRepo, credentialSvc, client, policy, metricsSvc, service.LinkServiceConfig{LinkBaseURL: cfg.Timify.LinkBaseURL}, logr)
	rosterSvc := service.NewRosterService(blockRepo, linkStateRepo, enrollmentRepo, credentialSvc, client, policy, metricsSvc, logr)
	exportSvc := service.NewExportService(rosterSvc, nil, nil, logr)

	blockHandler := handler.NewBlockHandler(linkSvc, blockSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, probes)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	api.Use(middleware.JWT(tokenSvc))

	courses := api.Group("/courses/:courseId")
	courses.GET("/forms", middleware.RequireStaff(), blockHandler.Forms)

	blocks := courses.Group("/blocks/:blockId")
	blocks.GET("/view", blockHandler.View)

	staff := blocks.Group("")
	staff.Use(middleware.RequireStaff())
	staff.GET("/settings", blockHandler.Settings)
	staff.POST("/studio_submit", blockHandler.StudioSubmit)
	staff.POST("/show_score", rosterHandler.ShowScore)
	staff.GET("/roster/export", rosterHandler.Export)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
