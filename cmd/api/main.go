package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/knowmymeds/api/internal/config"
	v1 "github.com/knowmymeds/api/internal/handler/v1"
	"github.com/knowmymeds/api/internal/notify"
	"github.com/knowmymeds/api/internal/repository/postgres"
	"github.com/knowmymeds/api/internal/service"
	"github.com/knowmymeds/api/pkg/auth"
	"github.com/knowmymeds/api/pkg/database"
	"github.com/knowmymeds/api/pkg/logger"
	"github.com/knowmymeds/api/pkg/metrics"
	"github.com/knowmymeds/api/pkg/tracer"
)

func main() {
	// Missing .env is fine; containers inject config directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	m := metrics.NewCollector("knowmymeds")

	if sqlDB, err := db.DB(); err == nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				m.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
			}
		}()
	}

	rxRepo := postgres.NewPrescriptionRepository(db)
	logRepo := postgres.NewIntakeLogRepository(db)
	userRepo := postgres.NewUserRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	notifier := notify.NewLocalNotifier(cfg.Notify.Enabled, nil, log.Named("notify"))
	defer notifier.Close()

	jwtManager := auth.NewJWTManager(cfg.JWT)

	auditSvc := service.NewAuditService(auditRepo, m, log.Named("audit"))
	defer auditSvc.Shutdown()

	reminderSvc := service.NewReminderService(notifier, cfg.Notify.DropThreshold, m, log.Named("reminder"))
	rxSvc := service.NewPrescriptionService(rxRepo, logRepo, reminderSvc, auditSvc, m, log.Named("prescription"))
	authSvc := service.NewAuthService(userRepo, jwtManager, log.Named("auth"))

	router := v1.NewRouter(v1.RouterDeps{
		Config:          cfg,
		JWTManager:      jwtManager,
		Metrics:         m,
		AuthService:     authSvc,
		MedicationSvc:   rxSvc,
		ReminderService: reminderSvc,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("http server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}

	log.Info("stopped")
}
