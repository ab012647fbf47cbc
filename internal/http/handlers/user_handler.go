package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/promoter-dashboard/backend/internal/config"
	"github.com/promoter-dashboard/backend/internal/http/dto"
	"github.com/promoter-dashboard/backend/internal/middleware"
	"github.com/promoter-dashboard/backend/internal/repositories"
	"go.uber.org/zap"
)

type UserHandler struct {
	userRepo *repositories.UserRepo
	cfg      *config.Config
	log      *zap.Logger
}

func NewUserHandler(userRepo *repositories.UserRepo, cfg *config.Config, log *zap.Logger) *UserHandler {
	return &UserHandler{userRepo: userRepo, cfg: cfg, log: log}
}

func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	user, err := h.userRepo.GetByID(c.UserContext(), userID)
	if err != nil {
		return respondError(c, fiber.StatusNotFound, "user not found", dto.CodeNoSession)
	}

	_, isPromoter := middleware.GetPromoterID(c)
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.MeResponse{
		User:     user,
		Roles:    middleware.SessionRoles(c, h.cfg),
		Promoter: isPromoter,
	}})
}

func (h *UserHandler) Ping(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if err := h.userRepo.UpdateLastActive(c.UserContext(), userID); err != nil {
		h.log.Error("failed to update last_active", zap.Error(err))
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
