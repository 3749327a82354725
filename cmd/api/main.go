package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/classreg-api/api/swagger"
	"github.com/noah-isme/classreg-api/internal/handler"
	"github.com/noah-isme/classreg-api/internal/middleware"
	"github.com/noah-isme/classreg-api/internal/models"
	"github.com/noah-isme/classreg-api/internal/repository"
	"github.com/noah-isme/classreg-api/internal/service"
	"github.com/noah-isme/classreg-api/pkg/cache"
	"github.com/noah-isme/classreg-api/pkg/config"
	"github.com/noah-isme/classreg-api/pkg/database"
	"github.com/noah-isme/classreg-api/pkg/jobs"
	"github.com/noah-isme/classreg-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/classreg-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/classreg-api/pkg/middleware/requestid"
)

// @title Class Registration API
// @version 1.0.0
// @description Enrollment, waitlist and suspension engine for recurring class sessions
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, suspension gate cache disabled", "error", err)
		redisClient = nil
	}

	sessions := repository.NewSessionRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	suspensions := repository.NewSuspensionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	runner := repository.NewAtomicRunner(db, cfg.Rules)

	clock := service.SystemClock()
	policy := service.NewPenaltyPolicy(cfg.Rules)
	metrics := service.NewMetricsService()

	notifier := service.NewQueueNotifier(service.LogSink{Logger: logr}, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	notifier.Start(context.Background())
	defer notifier.Stop()

	suspensionSvc := service.NewSuspensionService(suspensions, cacheRepo, policy, clock, cfg.SuspensionTTL, logr)
	promoter := service.NewWaitlistPromoter(enrollments, sessions, logr)
	engine := service.NewEngineService(runner, enrollments, sessions, suspensionSvc, promoter, policy, notifier, metrics, clock, nil, logr)

	authSvc := service.NewAuthService(cfg.JWT.Secret)

	enrollmentHandler := handler.NewEnrollmentHandler(engine)
	attendanceHandler := handler.NewAttendanceHandler(engine)
	suspensionHandler := handler.NewSuspensionHandler(suspensionSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))

	staff := middleware.RequireRoles(models.RoleStaff)

	api.POST("/classes/:classId/enrollments", enrollmentHandler.Create)
	api.GET("/classes/:classId/enrollments", staff, enrollmentHandler.Roster)
	api.DELETE("/enrollments/:id", enrollmentHandler.Cancel)
	api.POST("/enrollments/:id/review-cancel", staff, enrollmentHandler.ReviewCancel)
	api.POST("/enrollments/:id/attendance", staff, attendanceHandler.Mark)
	api.GET("/students/:studentId/suspensions", staff, suspensionHandler.History)
	api.POST("/suspensions/:id/revoke", staff, suspensionHandler.Revoke)
	api.PUT("/suspensions/:id/period", staff, suspensionHandler.EditPeriod)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
