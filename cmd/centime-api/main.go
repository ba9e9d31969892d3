package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"centime/internal/auth/session"
	"centime/internal/auth/token"
	"centime/internal/config"
	"centime/internal/events"
	apphttp "centime/internal/http"
	"centime/internal/kv"
	"centime/internal/log"
	"centime/internal/services"
	"centime/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: slog.LevelInfo})
	slog.SetDefault(logger.Logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", log.FieldError, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *log.Logger) error {
	repo, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	// Single-node development can run without Redis; the in-process
	// store loses the cross-instance invalidation guarantees.
	var store kv.Store
	if os.Getenv("KV_BACKEND") == "memory" {
		store = kv.NewMemory()
		logger.Info("using in-memory key-value store")
	} else {
		store = kv.NewRedis(kv.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			return err
		}
	}
	defer store.Close()

	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()
	} else {
		logger.Info("AMQP URL not set, change events disabled")
	}

	tokens := token.New(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	sessions := session.New(store, tokens, repo, cfg.RefreshTTL, logger)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:       services.NewAuthService(repo, sessions, logger),
		Categories: services.NewCategoryService(repo, store, publisher, cfg.CacheTTL, logger),
		Expenses:   services.NewExpenseService(repo, store, publisher, cfg.CacheTTL, logger),
		Tokens:     tokens,
		Repo:       repo,
		KV:         store,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
