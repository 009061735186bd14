package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-ipcrf-api/internal/handler"
	"github.com/noah-isme/sma-ipcrf-api/internal/middleware"
	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	"github.com/noah-isme/sma-ipcrf-api/internal/service"
	"github.com/noah-isme/sma-ipcrf-api/pkg/config"
	"github.com/noah-isme/sma-ipcrf-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-ipcrf-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-ipcrf-api/pkg/middleware/requestid"
)

type routerDeps struct {
	Auth       *service.AuthService
	Teachers   *service.TeacherService
	KRAs       *service.KRAService
	IPCRF      *service.IPCRFService
	MOVs       *service.MOVService
	Promotions *service.PromotionService
	Audit      *service.AuditService
	Reports    *service.ReportService // nil when exports are disabled
	Metrics    *service.MetricsService
	Checks     map[string]handler.ReadinessCheck
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics, "/metrics"))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(deps.Metrics, deps.Checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(deps.Auth)
	teacherHandler := handler.NewTeacherHandler(deps.Teachers, deps.IPCRF)
	kraHandler := handler.NewKRAHandler(deps.KRAs)
	ipcrfHandler := handler.NewIPCRFHandler(deps.IPCRF)
	movHandler := handler.NewMOVHandler(deps.MOVs)
	promotionHandler := handler.NewPromotionHandler(deps.Promotions)
	auditHandler := handler.NewAuditHandler(deps.Audit)

	api := r.Group(cfg.APIPrefix)

	loginLimiter := middleware.NewIPRateLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst)
	api.POST("/auth/login", middleware.RateLimit(loginLimiter), authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.GET("/files/:token", movHandler.File)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Auth))

	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/auth/me", authHandler.Me)
	secured.POST("/auth/change-password", authHandler.ChangePassword)

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleRater)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, action, resource)
	}

	teachers := secured.Group("/teachers")
	{
		teachers.GET("", staff, teacherHandler.List)
		teachers.POST("", admin, audit(models.AuditActionCreate, "teacher"), teacherHandler.Create)
		teachers.GET("/:id", admin, teacherHandler.Get)
		teachers.PUT("/:id", admin, audit(models.AuditActionUpdate, "teacher"), teacherHandler.Update)
		teachers.DELETE("/:id", admin, audit(models.AuditActionDelete, "teacher"), teacherHandler.Delete)
		teachers.GET("/:id/ipcrf",
			middleware.RBAC(deps.Teachers, string(models.RoleAdmin), string(models.RoleRater), middleware.RoleSelf),
			teacherHandler.History)
	}

	kras := secured.Group("/kras")
	{
		kras.GET("", kraHandler.List)
		kras.POST("", admin, audit(models.AuditActionCreate, "kra"), kraHandler.Create)
		kras.GET("/:id", kraHandler.Get)
		kras.PUT("/:id", admin, audit(models.AuditActionUpdate, "kra"), kraHandler.Update)
		kras.DELETE("/:id", admin, audit(models.AuditActionDelete, "kra"), kraHandler.Delete)
		kras.POST("/:id/objectives", admin, audit(models.AuditActionCreate, "objective"), kraHandler.AddObjective)
	}
	secured.PUT("/objectives/:id", admin, audit(models.AuditActionUpdate, "objective"), kraHandler.UpdateObjective)
	secured.DELETE("/objectives/:id", admin, audit(models.AuditActionDelete, "objective"), kraHandler.DeleteObjective)

	ipcrf := secured.Group("/ipcrf", staff)
	{
		ipcrf.POST("/evaluate", ipcrfHandler.Evaluate)
		ipcrf.GET("/summary", ipcrfHandler.Summary)
		ipcrf.GET("", ipcrfHandler.List)
		ipcrf.POST("", audit(models.AuditActionCreate, "ipcrf"), ipcrfHandler.Create)
		ipcrf.GET("/:id", ipcrfHandler.Get)
		ipcrf.PUT("/:id", ipcrfHandler.Update)
		ipcrf.DELETE("/:id", ipcrfHandler.Delete)
		ipcrf.POST("/:id/submit", ipcrfHandler.Submit)
		ipcrf.POST("/:id/approve", admin, ipcrfHandler.Approve)
		ipcrf.GET("/:id/pdf", ipcrfHandler.PDF)
		ipcrf.POST("/:id/movs", movHandler.Upload)
		ipcrf.GET("/:id/movs", movHandler.List)
	}

	movs := secured.Group("/movs", staff)
	{
		movs.GET("/:id/download", movHandler.Download)
		movs.DELETE("/:id", audit(models.AuditActionDelete, "mov"), movHandler.Delete)
	}

	promotions := secured.Group("/promotions", admin)
	{
		promotions.GET("", promotionHandler.List)
		promotions.POST("", audit(models.AuditActionCreate, "promotion"), promotionHandler.Create)
		promotions.GET("/:id", promotionHandler.Get)
		promotions.POST("/:id/approve", promotionHandler.Approve)
		promotions.POST("/:id/reject", promotionHandler.Reject)
	}

	secured.GET("/audit-logs", admin, auditHandler.List)

	if deps.Reports != nil {
		reportHandler := handler.NewReportHandler(deps.Reports)
		api.GET("/export/:token", reportHandler.Download)
		reports := secured.Group("/reports", staff)
		reports.POST("/generate", reportHandler.GenerateReport)
		reports.GET("/status/:id", reportHandler.ReportStatus)
	}

	return r
}
