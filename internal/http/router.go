package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/promoter-dashboard/backend/internal/config"
	"github.com/promoter-dashboard/backend/internal/http/handlers"
	"github.com/promoter-dashboard/backend/internal/middleware"
	"github.com/promoter-dashboard/backend/internal/rbac"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Dashboard *handlers.DashboardHandler
	Campaign  *handlers.CampaignHandler
	Care      *handlers.CareHandler
	Payment   *handlers.PaymentHandler
	WS        *handlers.WSHub
}

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	h Handlers,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowCredentials: cfg.CORSOrigins != "*",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, middleware.RateLimit{
		Name:   "api",
		Limit:  cfg.RateLimitPerMinute,
		Window: time.Minute,
	}, log))

	// Auth (public). Every send costs an SMS, so it gets its own hourly budget.
	api.Post("/auth/otp/send", middleware.RateLimitMiddleware(rdb, middleware.RateLimit{
		Name:   "otp",
		Limit:  cfg.OTPSendPerHour,
		Window: time.Hour,
	}, log), h.Auth.SendOTP)
	api.Post("/auth/otp/verify", h.Auth.VerifyOTP)
	api.Post("/auth/logout", h.Auth.Logout)

	// Meta (public, no auth required)
	metaHandler := handlers.NewMetaHandler()
	api.Get("/meta/categories", metaHandler.GetCategories)
	api.Get("/meta/formats", metaHandler.GetFormats)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// User
	protected.Get("/me", h.User.GetMe)
	protected.Post("/me/ping", h.User.Ping)

	// Admin
	admin := protected.Group("/admin", middleware.AdminMiddleware(cfg))
	admin.Get("/campaigns", h.Campaign.ListCampaigns)
	admin.Post("/campaigns", h.Campaign.CreateCampaign)
	admin.Post("/campaigns/import", middleware.RequirePermission(cfg, rbac.PermImportCampaigns), h.Campaign.ImportCampaigns)
	admin.Get("/campaigns/:id", h.Campaign.GetCampaign)
	admin.Put("/campaigns/:id", h.Campaign.UpdateCampaign)
	admin.Delete("/campaigns/:id", h.Campaign.DeleteCampaign)
	admin.Get("/campaigns/:id/audit", middleware.RequirePermission(cfg, rbac.PermViewAudit), h.Campaign.GetAudit)
	admin.Post("/campaigns/:id/promoters", h.Campaign.AssignPromoter)
	admin.Delete("/campaigns/:id/promoters/:promoterId", h.Campaign.UnassignPromoter)
	promoters := admin.Group("/promoters", middleware.RequirePermission(cfg, rbac.PermManagePromoters))
	promoters.Get("", h.Campaign.ListPromoters)
	promoters.Post("", h.Campaign.CreatePromoter)

	// Family care board
	protected.Get("/care", h.Care.GetBoard)
	protected.Put("/care/family-name", h.Care.SetFamilyName)
	protected.Put("/care/senior", h.Care.SetSenior)
	protected.Post("/care/bills/:id/toggle", h.Care.ToggleBill)
	protected.Post("/care/:list", h.Care.PushItem)
	protected.Put("/care/:list", h.Care.ReplaceList)
	protected.Delete("/care/:list/:id", h.Care.RemoveItem)

	// Payments
	protected.Post("/payments/resolve", h.Payment.Resolve)

	// Promoter dashboard
	promoter := protected.Group("", middleware.RequirePromoter())
	promoter.Get("/dashboard", h.Dashboard.GetDashboard)
	promoter.Get("/me/profile", h.Dashboard.GetProfile)
	promoter.Get("/campaigns", h.Dashboard.ListCampaigns)
	promoter.Get("/campaigns/:id", h.Dashboard.GetCampaign)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(h.WS.HandleWS))
}
