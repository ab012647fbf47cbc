package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/promoter-dashboard/backend/internal/http/dto"
	"github.com/promoter-dashboard/backend/internal/middleware"
	"github.com/promoter-dashboard/backend/internal/models"
	"github.com/promoter-dashboard/backend/internal/repositories"
	"github.com/promoter-dashboard/backend/internal/services"
	"go.uber.org/zap"
)

const maxImportBatch = 500

// CampaignHandler serves the admin campaign routes.
type CampaignHandler struct {
	campaignService *services.CampaignService
	log             *zap.Logger
}

func NewCampaignHandler(campaignService *services.CampaignService, log *zap.Logger) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService, log: log}
}

func (h *CampaignHandler) mapError(c *fiber.Ctx, err error, op string) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return badRequest(c, err.Error())
	case errors.Is(err, services.ErrCampaignNotFound):
		return respondError(c, fiber.StatusNotFound, "campaign not found", dto.CodeCampaignNotFound)
	case errors.Is(err, services.ErrPromoterNotFound):
		return respondError(c, fiber.StatusNotFound, "promoter not found", dto.CodeNoPromoter)
	case errors.Is(err, services.ErrNotFound):
		return respondError(c, fiber.StatusNotFound, "not found", "")
	}
	return serverError(c, h.log, op+" failed", err)
}

func campaignFromRequest(req dto.CampaignRequest) *models.Campaign {
	return &models.Campaign{
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		Format:          req.Format,
		Objective:       req.Objective,
		Reward:          req.Reward,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Budget:          req.Budget,
		TargetSamplings: req.TargetSamplings,
		TargetScans:     req.TargetScans,
	}
}

func pageParams(c *fiber.Ctx, defLimit int) (limit, offset int) {
	limit = defLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	var req dto.CampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	campaign := campaignFromRequest(req)
	if err := h.campaignService.Create(c.UserContext(), middleware.GetUserID(c), campaign); err != nil {
		return h.mapError(c, err, "create campaign")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}
	details, err := h.campaignService.Get(c.UserContext(), id)
	if err != nil {
		return h.mapError(c, err, "get campaign")
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: details})
}

func (h *CampaignHandler) ListCampaigns(c *fiber.Ctx) error {
	filter := repositories.CampaignFilter{}
	filter.Limit, filter.Offset = pageParams(c, 20)
	if v := c.Query("q"); v != "" {
		filter.Search = &v
	}
	if v := c.Query("promoter_id"); v != "" {
		pid, err := uuid.Parse(v)
		if err != nil {
			return badRequest(c, "invalid promoter_id")
		}
		filter.PromoterID = &pid
	}

	var status *models.CampaignStatus
	if v := c.Query("status"); v != "" {
		st, ok := models.ParseCampaignStatus(v)
		if !ok {
			return badRequest(c, "invalid status")
		}
		status = &st
	}

	campaigns, err := h.campaignService.List(c.UserContext(), filter, status)
	if err != nil {
		return h.mapError(c, err, "list campaigns")
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaigns})
}

func (h *CampaignHandler) UpdateCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}

	var req dto.CampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	if err := h.campaignService.Update(c.UserContext(), middleware.GetUserID(c), id, campaignFromRequest(req)); err != nil {
		return h.mapError(c, err, "update campaign")
	}

	updated, err := h.campaignService.Get(c.UserContext(), id)
	if err != nil {
		return h.mapError(c, err, "get campaign")
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: updated})
}

func (h *CampaignHandler) DeleteCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}
	if err := h.campaignService.Delete(c.UserContext(), middleware.GetUserID(c), id); err != nil {
		return h.mapError(c, err, "delete campaign")
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *CampaignHandler) ImportCampaigns(c *fiber.Ctx) error {
	var req dto.ImportCampaignsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if len(req.Campaigns) == 0 {
		return badRequest(c, "campaigns must not be empty")
	}
	if len(req.Campaigns) > maxImportBatch {
		return badRequest(c, "too many campaigns in one batch")
	}

	res, err := h.campaignService.Import(c.UserContext(), middleware.GetUserID(c), req.Campaigns)
	if err != nil {
		return h.mapError(c, err, "import campaigns")
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: res})
}

func (h *CampaignHandler) GetAudit(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}
	limit, offset := pageParams(c, 50)
	logs, err := h.campaignService.AuditTrail(c.UserContext(), id, c.Query("action"), limit, offset)
	if err != nil {
		return h.mapError(c, err, "audit trail")
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: logs})
}

// Promoters

func (h *CampaignHandler) CreatePromoter(c *fiber.Ctx) error {
	var req dto.CreatePromoterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	p := &models.Promoter{
		ExternalID: req.ExternalID,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		ImageURL:   req.ImageURL,
	}
	if err := h.campaignService.CreatePromoter(c.UserContext(), middleware.GetUserID(c), p); err != nil {
		return h.mapError(c, err, "create promoter")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: p})
}

func (h *CampaignHandler) ListPromoters(c *fiber.Ctx) error {
	limit, offset := pageParams(c, 50)
	promoters, err := h.campaignService.ListPromoters(c.UserContext(), limit, offset)
	if err != nil {
		return h.mapError(c, err, "list promoters")
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: promoters})
}

func (h *CampaignHandler) AssignPromoter(c *fiber.Ctx) error {
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}

	var req dto.AssignPromoterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	promoterID, err := uuid.Parse(req.PromoterID)
	if err != nil {
		return badRequest(c, "invalid promoter_id")
	}

	if err := h.campaignService.Assign(c.UserContext(), middleware.GetUserID(c), campaignID, promoterID); err != nil {
		return h.mapError(c, err, "assign promoter")
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *CampaignHandler) UnassignPromoter(c *fiber.Ctx) error {
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}
	promoterID, err := uuid.Parse(c.Params("promoterId"))
	if err != nil {
		return badRequest(c, "invalid promoter id")
	}

	if err := h.campaignService.Unassign(c.UserContext(), middleware.GetUserID(c), campaignID, promoterID); err != nil {
		return h.mapError(c, err, "unassign promoter")
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
