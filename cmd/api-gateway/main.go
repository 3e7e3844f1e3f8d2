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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/scolendar-api/api/swagger"
	"github.com/noah-isme/scolendar-api/internal/handler"
	internalmiddleware "github.com/noah-isme/scolendar-api/internal/middleware"
	"github.com/noah-isme/scolendar-api/internal/models"
	"github.com/noah-isme/scolendar-api/internal/repository"
	"github.com/noah-isme/scolendar-api/internal/scheduling"
	"github.com/noah-isme/scolendar-api/internal/service"
	"github.com/noah-isme/scolendar-api/pkg/cache"
	"github.com/noah-isme/scolendar-api/pkg/config"
	"github.com/noah-isme/scolendar-api/pkg/database"
	"github.com/noah-isme/scolendar-api/pkg/export"
	"github.com/noah-isme/scolendar-api/pkg/jobs"
	"github.com/noah-isme/scolendar-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/scolendar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/scolendar-api/pkg/middleware/requestid"
)

// @title Scolendar API
// @version 1.0.0
// @description Academic calendar occupancy scheduling
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}

	location, err := time.LoadLocation(cfg.Scheduling.TimeZone)
	if err != nil {
		logr.Fatal("invalid TIME_ZONE", zap.String("time_zone", cfg.Scheduling.TimeZone), zap.Error(err))
	}

	types, err := models.NewOccupancyTypeTable(cfg.Scheduling.OccupancyTypes, cfg.Scheduling.GroupOccupancyTypes)
	if err != nil {
		logr.Fatal("invalid occupancy type table", zap.Error(err))
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	occupancyRepo := repository.NewOccupancyRepository(db, metricsSvc)
	classroomRepo := repository.NewClassroomRepository(db)
	classRepo := repository.NewClassRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	subjectTeacherRepo := repository.NewSubjectTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Listing.CacheTTL, logr, cfg.Listing.CacheEnabled)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	})

	auditSvc := service.NewAuditService(auditRepo, metricsSvc, logr)
	auditQueue := jobs.NewQueue("audit", auditSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		Logger:     logr,
	})
	auditQueue.Start(context.Background())
	auditSvc.AttachQueue(auditQueue)

	occupancySvc := service.NewOccupancyService(service.OccupancyDeps{
		Store:       occupancyRepo,
		Classrooms:  classroomRepo,
		Subjects:    subjectRepo,
		Teachers:    teacherRepo,
		Assignments: subjectTeacherRepo,
		Checker:     scheduling.NewChecker(occupancyRepo, metricsSvc),
		Types:       types,
		Cache:       cacheSvc,
		Metrics:     metricsSvc,
	}, validate, logr)
	querySvc := service.NewOccupancyQueryService(service.OccupancyQueryDeps{
		Occupancies: occupancyRepo,
		Classrooms:  classroomRepo,
		Subjects:    subjectRepo,
		Classes:     classRepo,
		Teachers:    teacherRepo,
		Students:    studentRepo,
		Assignments: subjectTeacherRepo,
		Cache:       cacheSvc,
		CacheTTL:    cfg.Listing.CacheTTL,
		Location:    location,
	}, logr)
	exportSvc := service.NewExportService(querySvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	classroomSvc := service.NewClassroomService(classroomRepo, cacheSvc, validate, logr)
	classSvc := service.NewClassService(classRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, subjectTeacherRepo, occupancyRepo, classRepo, teacherRepo, cacheSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, classRepo, cacheSvc, validate, logr)

	health := handler.NewHealthHandler(metricsSvc.Handler(), map[string]handler.Pinger{
		"postgres": db,
		"redis":    handler.PingFunc(cacheRepo.Ping),
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/metrics", health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.Timeout(cfg.RequestTimeout))
	handler.Register(api, handler.Handlers{
		Occupancies: handler.NewOccupancyHandler(occupancySvc, querySvc, exportSvc),
		Classrooms:  handler.NewClassroomHandler(classroomSvc),
		Classes:     handler.NewClassHandler(classSvc),
		Teachers:    handler.NewTeacherHandler(teacherSvc),
		Subjects:    handler.NewSubjectHandler(subjectSvc),
		Students:    handler.NewStudentHandler(studentSvc),
	}, handler.RouteDeps{Auth: authSvc, Audit: auditSvc})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	auditQueue.Stop(shutdownCtx)
}
