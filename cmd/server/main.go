package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"partyrooms/internal/cache"
	"partyrooms/internal/config"
	"partyrooms/internal/repository"
	"partyrooms/internal/service"
	"partyrooms/internal/storage"
	"partyrooms/internal/transport/rest"
	"partyrooms/internal/transport/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, cfg.Level())
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore.Close()
	logger.Info("state store ready", "backend", cfg.StoreBackend)

	deps := service.Deps{
		Store:          service.Bounded(store, cfg.StoreTimeout),
		Clock:          service.SystemClock{},
		Logger:         logger,
		QuizStartDelay: cfg.QuizStartDelay,
	}

	hub := ws.NewHub(deps)
	wsHandler := ws.NewHandler(hub, ws.Options{
		MaxMessageSize: cfg.WSMaxMessageSize,
		SendBuffer:     cfg.WSSendBuffer,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, logger)

	router := rest.NewRouter(&rest.Container{
		RoomService:    service.NewRoomService(hub, deps),
		WSHandler:      wsHandler,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := hub.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("rooms did not stop: %w", err)
	}

	logger.Info("server exited")
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openStore connects the configured state backend
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.StateStore, io.Closer, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	switch cfg.StoreBackend {
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURI)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid REDIS_URI: %w", err)
		}
		rdb := redis.NewClient(opts)
		states := cache.NewStateCache(rdb, cfg.RedisTTL)
		if err := states.Ping(pingCtx); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("failed to ping Redis: %w", err)
		}
		return states, rdb, nil

	case config.BackendMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		disconnect := closerFunc(func() error { return client.Disconnect(context.Background()) })
		if err := client.Ping(pingCtx, nil); err != nil {
			disconnect.Close()
			return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
		}
		repo := repository.NewStateRepo(client.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(pingCtx); err != nil {
			logger.Warn("failed to create room_state indexes", "error", err)
		}
		return repo, disconnect, nil

	case config.BackendBadger:
		store, err := storage.OpenBadger(cfg.BadgerPath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}

	return storage.NewMemoryStore(), closerFunc(func() error { return nil }), nil
}
