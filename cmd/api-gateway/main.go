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
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/impact-track/impact-api/api/swagger"
	"github.com/impact-track/impact-api/internal/handler"
	appMiddleware "github.com/impact-track/impact-api/internal/middleware"
	"github.com/impact-track/impact-api/internal/repository"
	"github.com/impact-track/impact-api/internal/service"
	"github.com/impact-track/impact-api/pkg/cache"
	"github.com/impact-track/impact-api/pkg/config"
	"github.com/impact-track/impact-api/pkg/database"
	"github.com/impact-track/impact-api/pkg/export"
	"github.com/impact-track/impact-api/pkg/jobs"
	"github.com/impact-track/impact-api/pkg/logger"
	corsmiddleware "github.com/impact-track/impact-api/pkg/middleware/cors"
	reqidmiddleware "github.com/impact-track/impact-api/pkg/middleware/requestid"
)

// @title Impact Track API
// @version 1.0.0
// @description Impact report ingestion with asynchronous bulk imports
// @BasePath /api/v1
// @schemes http

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

	registerPeriodValidation(logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reportRepo, jobRepo, repoCloser := setupRepositories(cfg, logr)
	defer repoCloser()

	metricsSvc := service.NewMetricsService()

	cacheSvc := setupCache(cfg, metricsSvc, logr)

	reportSvc := service.NewReportService(reportRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)

	worker := service.NewImportWorker(jobRepo, reportRepo, cacheSvc, metricsSvc, service.ImportWorkerConfig{
		BatchSize:  cfg.Imports.BatchSize,
		ChunkDelay: cfg.Imports.ChunkDelay,
		MaxRetries: cfg.Imports.WorkerRetries,
	}, logr)

	queue := jobs.NewQueue("imports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Imports.WorkerConcurrency,
		BufferSize: cfg.Imports.QueueBuffer,
		MaxRetries: cfg.Imports.WorkerRetries,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()
	metricsSvc.RegisterQueueDepth("imports", queue.Depth)

	importSvc := service.NewImportService(jobRepo, queue, logr)
	importSvc.RecoverUnfinished(ctx)

	exportSvc := service.NewExportService(reportSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(appMiddleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	reportHandler := handler.NewReportHandler(reportSvc)
	importHandler := handler.NewImportHandler(importSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/reports", reportHandler.SubmitReport)
		api.GET("/dashboard/stats", reportHandler.DashboardStats)
		api.POST("/imports", importHandler.CreateImport)
		api.GET("/imports", importHandler.ListImports)
		api.GET("/imports/:id", importHandler.ImportStatus)
		if cfg.Exports.Enabled {
			api.GET("/exports/monthly", exportHandler.MonthlyExport)
		}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env)
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logr.Sugar().Infow("shutdown signal received")
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}

func setupRepositories(cfg *config.Config, logr *zap.Logger) (repository.ReportRepository, repository.ImportJobRepository, func()) {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Warnw("postgres unavailable, using in-memory repositories", "error", err)
		return repository.NewMemoryReportRepository(), repository.NewMemoryImportJobRepository(), func() {}
	}
	logr.Sugar().Infow("postgres repositories initialized")
	return repository.NewPostgresReportRepository(db), repository.NewPostgresImportJobRepository(db), func() {
		_ = db.Close()
	}
}

func setupCache(cfg *config.Config, metricsSvc *service.MetricsService, logr *zap.Logger) *service.CacheService {
	if !cfg.Dashboard.CacheEnabled || cfg.Redis.Host == "" {
		logr.Sugar().Infow("stats cache disabled")
		return service.NewCacheService(nil, metricsSvc, cfg.Dashboard.CacheTTL, logr, false)
	}
	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, stats cache disabled", "error", err)
		return service.NewCacheService(nil, metricsSvc, cfg.Dashboard.CacheTTL, logr, false)
	}
	repo := repository.NewCacheRepository(client, logr)
	return service.NewCacheService(repo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
}

func registerPeriodValidation(logr *zap.Logger) {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		logr.Sugar().Warnw("binding engine is not validator/v10, period validation skipped")
		return
	}
	if err := v.RegisterValidation("period", func(fl validator.FieldLevel) bool {
		return service.PeriodPattern.MatchString(fl.Field().String())
	}); err != nil {
		logr.Sugar().Warnw("failed to register period validation", "error", err)
	}
}
