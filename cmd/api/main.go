package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/meetup-planner/app/internal/api"
	"github.com/meetup-planner/app/internal/api/views"
	"github.com/meetup-planner/app/internal/migrations"
	"github.com/meetup-planner/app/internal/queue"
	"github.com/meetup-planner/app/internal/repository"
	"github.com/meetup-planner/app/internal/services"
	"github.com/meetup-planner/app/internal/session"
	"github.com/meetup-planner/app/pkg/config"
	"github.com/meetup-planner/app/pkg/database"
	"github.com/meetup-planner/app/pkg/logger"
	"github.com/meetup-planner/app/pkg/metrics"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	// Initialize logger
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("Starting Meetup Planner",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
	)

	// Connect to database
	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DatabaseURL, database.OptionsFor(cfg.AppEnv))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}
	defer sqlDB.Close()
	log.Info("Database connected successfully")

	if cfg.AutoMigrate {
		n, err := migrations.Run(db)
		if err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
		log.Info("migrations applied", zap.Int("count", n))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	notifications := services.NewNotificationService(db, m)

	// Sessions and notifications go through Redis when it is configured.
	var (
		store    session.Store
		notifier services.Notifier
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: 0})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("redis connection failed", zap.Error(err))
		}
		defer rdb.Close()
		store = session.NewRedisStore(rdb)

		client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: 0})
		defer client.Close()
		notifier = queue.NewEnqueuer(client)
		log.Info("using redis for sessions and notification tasks", zap.String("redis", cfg.RedisAddr))
	} else {
		store = session.NewMemoryStore()
		notifier = services.InlineNotifier(notifications)
		log.Warn("REDIS_ADDR not set, sessions are kept in memory and notifications run inline")
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		log.Warn("SESSION_SECRET not set, using default (INSECURE for production)")
		secret = []byte("change-me-in-production-please")
	}

	renderer, err := views.New()
	if err != nil {
		log.Fatal("failed to parse templates", zap.Error(err))
	}

	// Create router with dependencies
	router := api.NewRouter(api.Dependencies{
		Views: renderer,
		Sessions: session.NewManager(store, session.Options{
			Secret: secret,
			TTL:    cfg.SessionTTL,
			Secure: cfg.AppEnv == "production",
		}),
		Auth:          services.NewAuthService(repository.NewUserRepository(db), 0),
		Proposals:     services.NewProposalService(db, notifier, m),
		Meetups:       services.NewMeetupService(db, m),
		Notifications: notifications,
		Metrics:       m,
		Gatherer:      reg,
		DB:            sqlDB,
		TrustProxy:    cfg.TrustProxy,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}
