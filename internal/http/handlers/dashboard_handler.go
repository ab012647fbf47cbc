package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/promoter-dashboard/backend/internal/http/dto"
	"github.com/promoter-dashboard/backend/internal/middleware"
	"github.com/promoter-dashboard/backend/internal/models"
	"github.com/promoter-dashboard/backend/internal/services"
	"go.uber.org/zap"
)

// DashboardHandler serves promoter-facing routes. They sit behind
// RequirePromoter, so a promoter id is always present.
type DashboardHandler struct {
	dashboardService *services.DashboardService
	log              *zap.Logger
}

func NewDashboardHandler(dashboardService *services.DashboardService, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, log: log}
}

func (h *DashboardHandler) promoterError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrPromoterNotFound) {
		return respondError(c, fiber.StatusNotFound, "promoter not found", dto.CodeNoPromoter)
	}
	return serverError(c, h.log, "dashboard load failed", err)
}

func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	promoterID, _ := middleware.GetPromoterID(c)
	d, err := h.dashboardService.Dashboard(c.UserContext(), promoterID)
	if err != nil {
		return h.promoterError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: d})
}

func (h *DashboardHandler) GetProfile(c *fiber.Ctx) error {
	promoterID, _ := middleware.GetPromoterID(c)
	p, err := h.dashboardService.Profile(c.UserContext(), promoterID)
	if err != nil {
		return h.promoterError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: p})
}

func (h *DashboardHandler) ListCampaigns(c *fiber.Ctx) error {
	promoterID, _ := middleware.GetPromoterID(c)

	var status *models.CampaignStatus
	if v := c.Query("status"); v != "" {
		st, ok := models.ParseCampaignStatus(v)
		if !ok {
			return badRequest(c, "status must be one of ACTIVE, COMPLETED, UPCOMING, UNKNOWN")
		}
		status = &st
	}

	campaigns, err := h.dashboardService.ListCampaigns(c.UserContext(), promoterID, status)
	if err != nil {
		return serverError(c, h.log, "list campaigns failed", err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaigns})
}

func (h *DashboardHandler) GetCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, fiber.StatusNotFound, "campaign not found", dto.CodeCampaignNotFound)
	}

	promoterID, _ := middleware.GetPromoterID(c)
	details, err := h.dashboardService.Campaign(c.UserContext(), promoterID, id)
	if errors.Is(err, services.ErrCampaignNotFound) {
		return respondError(c, fiber.StatusNotFound, "campaign not found", dto.CodeCampaignNotFound)
	}
	if err != nil {
		return serverError(c, h.log, "get campaign failed", err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: details})
}
