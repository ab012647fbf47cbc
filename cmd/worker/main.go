package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/promoter-dashboard/backend/internal/config"
	"github.com/promoter-dashboard/backend/internal/db"
	"github.com/promoter-dashboard/backend/internal/events"
	"github.com/promoter-dashboard/backend/internal/repositories"
	"github.com/promoter-dashboard/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	campaignRepo := repositories.NewCampaignRepo(pool)
	publisher := events.NewRedisPublisher(rdb, log)
	watcher := services.NewStatusWatcher(campaignRepo, publisher, cfg.StatusSweepInterval, cfg.Now, log)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down worker")
		cancel()
	}()

	log.Info("worker started")
	watcher.Run(ctx)
}
