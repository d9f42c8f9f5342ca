// cmd/historian/main.go is an asynchronous historian service that pops session
// actions from a Redis queue and persists them to a PostgreSQL database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/memorymatch/internal/cache"
	"github.com/jason-s-yu/memorymatch/internal/config"
	"github.com/jason-s-yu/memorymatch/internal/database"
	"github.com/jason-s-yu/memorymatch/internal/historian"
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

	if cfg.RedisAddr == "" || cfg.PGHost == "" {
		logger.Fatal("historian needs both REDIS_ADDR and PG_HOST")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisDB); err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer cache.Rdb.Close()

	if err := database.ConnectDB(ctx, cfg.PostgresURL()); err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer database.Close()

	svc := historian.NewService(cache.Rdb, database.ActionStore{}, historian.Options{
		Queue:      cfg.QueueName,
		BatchSize:  cfg.HistorianBatchSize,
		FlushDelay: cfg.HistorianFlushDelay,
		Inactivity: cfg.RoundInactivity,
		SweepEvery: time.Minute,
	}, logger)
	svc.Run(ctx)
	logger.Info("Historian shutdown complete.")
}
