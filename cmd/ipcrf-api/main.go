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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-ipcrf-api/api/swagger"
	"github.com/noah-isme/sma-ipcrf-api/internal/handler"
	"github.com/noah-isme/sma-ipcrf-api/internal/repository"
	"github.com/noah-isme/sma-ipcrf-api/internal/service"
	"github.com/noah-isme/sma-ipcrf-api/pkg/cache"
	"github.com/noah-isme/sma-ipcrf-api/pkg/config"
	"github.com/noah-isme/sma-ipcrf-api/pkg/database"
	"github.com/noah-isme/sma-ipcrf-api/pkg/export"
	"github.com/noah-isme/sma-ipcrf-api/pkg/jobs"
	"github.com/noah-isme/sma-ipcrf-api/pkg/logger"
	"github.com/noah-isme/sma-ipcrf-api/pkg/storage"
)

// @title School IPCRF API
// @version 1.0.0
// @description Teacher performance ratings (IPCRF) with KRA configuration, evidence uploads and exports.
// @BasePath /api/v1
// @schemes http https
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db.DB, "up"); err != nil {
		logr.Fatal("failed to apply migrations", zap.Error(err))
	}

	metrics := service.NewMetricsService()

	var redisClient *redis.Client
	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, summary cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer redisClient.Close()
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cacheRepo != nil)

	users := repository.NewUserRepository(db)
	teachers := repository.NewTeacherRepository(db)
	kras := repository.NewKRARepository(db)
	submissions := repository.NewIPCRFRepository(db)
	movs := repository.NewMOVRepository(db)
	promotions := repository.NewPromotionRepository(db)
	reportJobs := repository.NewReportRepository(db)

	validate := service.NewValidator()

	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	}).WithTeacherLookup(teachers)
	teacherSvc := service.NewTeacherService(teachers, validate, logr)
	kraSvc := service.NewKRAService(kras, validate, logr)
	ipcrfSvc := service.NewIPCRFService(service.IPCRFServiceDeps{
		Repo:      submissions,
		Teachers:  teachers,
		KRAs:      kras,
		Users:     users,
		Audit:     users,
		Cache:     cacheSvc,
		Metrics:   metrics,
		Renderer:  export.NewFormRenderer(),
		Validator: validate,
		Logger:    logr,
		Config: service.IPCRFConfig{
			SchoolName:      cfg.IPCRF.SchoolName,
			RequireComplete: cfg.IPCRF.RequireComplete,
		},
	})
	promotionSvc := service.NewPromotionService(promotions, teachers, users, validate, logr)
	auditSvc := service.NewAuditService(users, logr)

	movStore, err := storage.NewLocalStorage(cfg.MOV.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare mov storage", zap.Error(err))
	}
	movSvc := service.NewMOVService(movs, submissions, movStore,
		storage.NewSignedURLSigner(cfg.MOV.SignedURLSecret, cfg.MOV.SignedURLTTL),
		users, logr, service.MOVConfig{
			APIPrefix:    cfg.APIPrefix,
			MaxFileSize:  cfg.MOV.MaxFileSizeBytes,
			AllowedMIMEs: cfg.MOV.AllowedMIMEs,
		})

	var reportSvc *service.ReportService
	var queue *jobs.Queue
	if cfg.Reports.Enabled {
		exportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare export storage", zap.Error(err))
		}
		exporter := service.NewExportService(service.ExportSources{
			Teachers:   teachers,
			Ratings:    submissions,
			Promotions: promotions,
		}, exportStore, storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL),
			service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Reports.SignedURLTTL}, logr, nil, nil)

		worker := service.NewReportWorker(reportJobs, exporter, metrics, logr)
		queue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			RetryDelay: 2 * time.Second,
			OnFailure:  worker.Fail,
			Logger:     logr,
		})
		queue.Start(ctx)

		reportSvc = service.NewReportService(reportJobs, queue, exporter, validate, metrics, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
		})
		go reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
	}

	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	router := newRouter(cfg, logr, routerDeps{
		Auth:       authSvc,
		Teachers:   teacherSvc,
		KRAs:       kraSvc,
		IPCRF:      ipcrfSvc,
		MOVs:       movSvc,
		Promotions: promotionSvc,
		Audit:      auditSvc,
		Reports:    reportSvc,
		Metrics:    metrics,
		Checks:     checks,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	if queue != nil {
		queue.Stop()
	}
}
