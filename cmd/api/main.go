package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/promoter-dashboard/backend/internal/config"
	"github.com/promoter-dashboard/backend/internal/db"
	"github.com/promoter-dashboard/backend/internal/events"
	apphttp "github.com/promoter-dashboard/backend/internal/http"
	"github.com/promoter-dashboard/backend/internal/http/handlers"
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

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	promoterRepo := repositories.NewPromoterRepo(pool)
	campaignRepo := repositories.NewCampaignRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)
	otpSessionRepo := repositories.NewOTPSessionRepo(rdb, cfg.OTPSessionTTL)
	careRepo := repositories.NewCareRepo(rdb)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	otpClient := services.NewTwoFactorClient(
		cfg.TwoFactorBaseURL, cfg.TwoFactorAPIKey, cfg.OTPCountryCode,
		time.Duration(cfg.OTPTimeoutMS)*time.Millisecond, log,
	)
	authService := services.NewAuthService(userRepo, promoterRepo, otpSessionRepo, otpClient, cfg.JWTSecret, cfg.JWTExpiration, log)
	dashboardService := services.NewDashboardService(campaignRepo, promoterRepo, cfg.Now, log)
	campaignService := services.NewCampaignService(campaignRepo, promoterRepo, auditRepo, publisher, cfg.Location, cfg.Now, log)
	careService := services.NewCareService(careRepo, cfg.Now, log)

	// Handlers
	wsHub := handlers.NewWSHub(cfg, subscriber, log)
	h := apphttp.Handlers{
		Auth:      handlers.NewAuthHandler(authService, cfg, log),
		User:      handlers.NewUserHandler(userRepo, cfg, log),
		Dashboard: handlers.NewDashboardHandler(dashboardService, log),
		Campaign:  handlers.NewCampaignHandler(campaignService, log),
		Care:      handlers.NewCareHandler(careService, log),
		Payment:   handlers.NewPaymentHandler(log),
		WS:        wsHub,
	}

	// Start WS hub
	if err := wsHub.Start(ctx); err != nil {
		log.Error("websocket hub could not subscribe, live updates disabled", zap.Error(err))
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, h)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
