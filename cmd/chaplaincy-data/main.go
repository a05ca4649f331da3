package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"chaplaincy-data/internal/config"
	"chaplaincy-data/internal/database"
	"chaplaincy-data/internal/logger"
	"chaplaincy-data/internal/repository"
	"chaplaincy-data/internal/schema"
	syncengine "chaplaincy-data/internal/sync"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "chaplaincy-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	store := repository.NewPostgresStore(db, log)
	registry := schema.NewRegistry(store.SingletonID)
	cache := syncengine.NewCache()
	publisher := syncengine.NewRedisPublisher(redisClient, cfg.ChangeFeed.Channel, "chaplaincy-data", log)
	engine := syncengine.NewEngine(store, registry, cache, publisher, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := engine.FullSync(ctx); err != nil {
		log.Fatal("Initial sync failed", zap.Error(err))
	}
	log.Info("Initial sync complete")

	listener := syncengine.NewListener(redisClient, cfg.ChangeFeed.Channel, cfg.ChangeFeed.Debounce,
		func(ctx context.Context) {
			if _, err := engine.FullSync(ctx); err != nil {
				log.Warn("Change feed resync failed", zap.Error(err))
			}
		}, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- listener.Start(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("Shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error("Change feed listener stopped", zap.Error(err))
		}
	}
	cancel()
}
