// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/memorymatch/internal/assets"
	"github.com/jason-s-yu/memorymatch/internal/auth"
	"github.com/jason-s-yu/memorymatch/internal/cache"
	"github.com/jason-s-yu/memorymatch/internal/config"
	"github.com/jason-s-yu/memorymatch/internal/database"
	"github.com/jason-s-yu/memorymatch/internal/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	if cfg.AuthPrivateKeyPath != "" && cfg.AuthPublicKeyPath != "" {
		err = auth.InitFromPath(cfg.AuthPrivateKeyPath, cfg.AuthPublicKeyPath, cfg.TokenExpiry)
	} else {
		err = auth.Init(cfg.TokenExpiry)
	}
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := handlers.NewSessionServer(assets.DefaultCatalog(), cfg.Timing, logger)

	if cfg.RedisAddr != "" {
		cache.QueueName = cfg.QueueName
		if err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisDB); err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer cache.Rdb.Close()
		srv.PublishAction = cache.PublishRoundAction
		logger.Infof("Publishing actions to Redis list %q", cache.QueueName)
	} else {
		logger.Warn("REDIS_ADDR not set, action log disabled")
	}

	if cfg.PGHost != "" {
		if err := database.ConnectDB(ctx, cfg.PostgresURL()); err != nil {
			logger.Fatalf("database: %v", err)
		}
		defer database.Close()
		srv.RecordResult = database.RecordRoundResult
		srv.Leaderboard = database.TopRoundResults
	} else {
		logger.Warn("PG_HOST not set, round results and leaderboard disabled")
	}

	go srv.RunSinks(ctx)
	go srv.RunEviction(ctx, time.Minute, cfg.SessionIdleTimeout)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handlers.NewRouter(logger, srv),
	}
	go func() {
		logger.Infof("Running on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	srv.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("http shutdown: %v", err)
	}
}
