package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/limerc/rooms-bot/internal/bot"
	"github.com/limerc/rooms-bot/internal/database"
	"github.com/limerc/rooms-bot/internal/game"
	"github.com/limerc/rooms-bot/internal/health"
	"github.com/limerc/rooms-bot/internal/jobs"
	jobhandlers "github.com/limerc/rooms-bot/internal/jobs/handlers"
	"github.com/limerc/rooms-bot/internal/lifecycle"
	"github.com/limerc/rooms-bot/internal/store"
	"github.com/limerc/rooms-bot/pkg/config"
	"github.com/limerc/rooms-bot/pkg/graceful"
	"github.com/limerc/rooms-bot/pkg/logger"
	"github.com/limerc/rooms-bot/pkg/redis"

	_ "github.com/lib/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)
	config.Watch(v, log)

	log.Info("starting rooms bot",
		slog.String("env", cfg.AppEnv),
		slog.String("http_port", cfg.Server.Port),
		slog.String("log_level", cfg.Logger.Level),
	)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			log.Error("sentry init failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping database", slog.Any("error", err))
		os.Exit(1)
	}

	migrator := database.NewMigrator(db, log)
	if err := migrator.ApplyDir(ctx, "migrations"); err != nil {
		log.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, redis.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		PoolTimeout:  cfg.Redis.PoolTimeout,
		IdleTimeout:  cfg.Redis.IdleTimeout,
	})
	if err != nil {
		log.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	st := store.NewPostgres(db, log)
	queue := jobs.NewManager(redisOpt, log)

	tgBot, err := bot.New(*cfg, log, st, queue)
	if err != nil {
		log.Error("failed to build telegram bot", slog.Any("error", err))
		os.Exit(1)
	}

	notifier := game.NewQueueNotifier(queue, log)
	joinCoordinator := game.NewJoinCoordinator(st, notifier, log)
	settlementProcessor := game.NewSettlementProcessor(st, notifier, nil, log)
	publisher := game.NewRoomPublisher(st, queue, game.PublisherConfig{
		PublishInterval:   cfg.Game.PublishInterval,
		ReconcileInterval: cfg.Game.ReconcileInterval,
		ProcessingTimeout: cfg.Game.ProcessingTimeout,
	}, log)

	worker := jobs.NewWorker(redisOpt, map[string]int{
		jobs.QueueDefault:       weightOrDefault(cfg.Worker.DefaultQueueWeight, 6),
		jobs.QueueNotifications: weightOrDefault(cfg.Worker.NotifyQueueWeight, 3),
	}, cfg.Worker.Concurrency, log)

	worker.RegisterHandler(jobs.TaskTypeJoinRoom, jobhandlers.NewJoinHandler(joinCoordinator, log))
	worker.RegisterHandler(jobs.TaskTypeSettleRoom, jobhandlers.NewSettlementHandler(settlementProcessor, log))
	worker.RegisterHandler(jobs.TaskTypeTelegramMessage, jobhandlers.NewNotificationHandler(tgBot, cfg.Worker.NotifyRatePerSecond, log))

	checker := health.NewChecker(log)
	checker.AddCheck("postgres", health.NewDBChecker(db))
	checker.AddCheck("redis", health.NewRedisChecker(redisClient))
	checker.AddCheck("telegram", tgBot)

	mux := http.NewServeMux()
	mux.Handle("/healthz", checker.HTTPHandler())
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           logger.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	gracefulServer := graceful.NewServer(log, httpServer, shutdownTimeout)

	go func() {
		if err := worker.Run(); err != nil {
			log.Error("jobs worker stopped", slog.Any("error", err))
			stop()
		}
	}()
	go publisher.Run(ctx)
	go tgBot.Start()
	go func() {
		if err := gracefulServer.ListenAndServe(ctx); err != nil {
			log.Error("http server stopped", slog.Any("error", err))
		}
	}()

	<-ctx.Done()
	log.Info("rooms bot shutting down")

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("telegram_bot", func(context.Context) error {
		tgBot.Stop()
		return nil
	})
	shutdown.Register("jobs_worker", func(context.Context) error {
		worker.Shutdown()
		return nil
	})
	shutdown.Register("queue_client", func(context.Context) error {
		return queue.Close()
	})
	shutdown.Register("redis", func(context.Context) error {
		return redisClient.Close()
	})
	shutdown.Register("postgres", func(context.Context) error {
		return db.Close()
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
		os.Exit(1)
	}
}

func weightOrDefault(w, def int) int {
	if w > 0 {
		return w
	}

	return def
}
