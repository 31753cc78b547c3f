package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/skilltrack/learning-service/internal/authz"
	"github.com/skilltrack/learning-service/internal/config"
	"github.com/skilltrack/learning-service/internal/handlers"
	"github.com/skilltrack/learning-service/internal/repositories/postgres"
	"github.com/skilltrack/learning-service/internal/scheduler"
	"github.com/skilltrack/learning-service/internal/services"
	"github.com/skilltrack/learning-service/internal/session"
	"github.com/skilltrack/learning-service/internal/utils"
	"github.com/skilltrack/learning-service/pkg"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "learning-service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	// Database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if err := pkg.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	repo := postgres.NewRepository(db)
	defer repo.Close()

	// Redis-backed sessions
	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	sessions := session.NewStore(redisClient, cfg.SessionTTL)

	// Role hierarchy
	hierarchy := authz.ThreeTier
	if cfg.RoleScheme == "four-tier" {
		hierarchy = authz.FourTier
	}
	access := authz.NewEvaluator(hierarchy)

	// Events
	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}
	defer publisher.Close()

	// Services
	validator := utils.NewValidator()
	svcs := handlers.HandlerServices{
		Auth:       services.NewAuthService(repo, slogger, validator),
		User:       services.NewUserService(repo, access, slogger, validator),
		Team:       services.NewTeamService(repo, access, slogger, validator),
		Course:     services.NewCourseService(repo, access, publisher, slogger, validator),
		Enrollment: services.NewEnrollmentService(repo, access, publisher, slogger),
		Metrics:    services.NewMetricsService(repo, access, slogger),
		Export:     services.NewReportExportService(repo, access, slogger),
		Kpi:        services.NewKpiService(repo, access, slogger),
	}

	// KPI snapshot scheduler
	sched := scheduler.New(svcs.Kpi, slogger)
	if err := sched.Start(cfg.KpiSchedule); err != nil {
		return err
	}
	defer sched.Stop()

	// Router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), utils.LoggerMiddleware(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", handlers.CSRFHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	hm := handlers.NewHandlerManager(svcs, sessions, cfg.SessionTTL, cfg.Environment == "production", logger)
	hm.SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("Shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
