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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/shiplist-backend/api/routes"
	"github.com/angelmondragon/shiplist-backend/internal/activity"
	"github.com/angelmondragon/shiplist-backend/internal/sessions"
	"github.com/angelmondragon/shiplist-backend/internal/shipments"
	"github.com/angelmondragon/shiplist-backend/pkg/config"
	"github.com/angelmondragon/shiplist-backend/pkg/db"
	"github.com/angelmondragon/shiplist-backend/pkg/instance"
	"github.com/angelmondragon/shiplist-backend/pkg/logger"
	"github.com/angelmondragon/shiplist-backend/pkg/metrics"
	"github.com/angelmondragon/shiplist-backend/pkg/migrate"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox"
	"github.com/angelmondragon/shiplist-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var (
		redisClient   *redis.Client
		sessionStore  sessions.Store
		sessionLocker sessions.Locker
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		sessionStore, err = sessions.NewRedisStore(redisClient, cfg.Session.TTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create session store", err)
			os.Exit(1)
		}
		sessionLocker, err = sessions.NewRedisLocker(redisClient, cfg.Session.LockTTL, cfg.Session.LockWait)
		if err != nil {
			logg.Error(context.Background(), "failed to create session locker", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured, sessions are kept in memory")
		sessionStore = sessions.NewMemoryStore()
		sessionLocker = sessions.NewLocalLocker(cfg.Session.LockWait)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	shipmentsService, err := shipments.NewService(shipments.NewRepository(dbClient.DB()), dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipments service", err)
		os.Exit(1)
	}

	sessionService, err := sessions.NewService(sessionStore, shipmentsService, logg, metrics.NewSessionMetrics(reg), sessions.Options{
		TouchThreshold: cfg.Session.TouchDragThresholdPx,
		Locker:         sessionLocker,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create session service", err)
		os.Exit(1)
	}

	activityService, err := activity.NewService(activity.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create activity service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID("api"),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, reg, shipmentsService, sessionService, activityService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}
