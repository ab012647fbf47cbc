package handlers

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/promoter-dashboard/backend/internal/http/dto"
	"github.com/promoter-dashboard/backend/internal/middleware"
	"github.com/promoter-dashboard/backend/internal/models"
	"github.com/promoter-dashboard/backend/internal/services"
	"go.uber.org/zap"
)

type CareHandler struct {
	careService *services.CareService
	log         *zap.Logger
}

func NewCareHandler(careService *services.CareService, log *zap.Logger) *CareHandler {
	return &CareHandler{careService: careService, log: log}
}

func (h *CareHandler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrUnknownCareList):
		return badRequest(c, "unknown list")
	case errors.Is(err, models.ErrCareItemInvalid), errors.Is(err, services.ErrInvalidInput):
		return badRequest(c, err.Error())
	case errors.Is(err, models.ErrCareItemMissing):
		return respondError(c, fiber.StatusNotFound, "item not found", "")
	case errors.Is(err, models.ErrCareConflict):
		return respondError(c, fiber.StatusConflict, "care board was updated elsewhere, please retry", dto.CodeConflict)
	}
	return serverError(c, h.log, "care board update failed", err)
}

func (h *CareHandler) GetBoard(c *fiber.Ctx) error {
	board, err := h.careService.Board(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: board})
}

func (h *CareHandler) SetFamilyName(c *fiber.Ctx) error {
	var req dto.FamilyNameRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	board, err := h.careService.SetFamilyName(c.UserContext(), middleware.GetUserID(c), req.FamilyName)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: board})
}

func (h *CareHandler) SetSenior(c *fiber.Ctx) error {
	var req dto.SeniorRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	board, err := h.careService.SetSenior(c.UserContext(), middleware.GetUserID(c), models.Senior{
		Name:       req.Name,
		Relation:   req.Relation,
		Phone:      req.Phone,
		LivingType: req.LivingType,
	})
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: board})
}

func (h *CareHandler) PushItem(c *fiber.Ctx) error {
	body := c.Body()
	if !json.Valid(body) {
		return badRequest(c, "invalid request")
	}
	item, err := h.careService.Push(c.UserContext(), middleware.GetUserID(c), c.Params("list"), json.RawMessage(body))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: item})
}

func (h *CareHandler) ReplaceList(c *fiber.Ctx) error {
	body := c.Body()
	if !json.Valid(body) {
		return badRequest(c, "invalid request")
	}
	board, err := h.careService.Replace(c.UserContext(), middleware.GetUserID(c), c.Params("list"), json.RawMessage(body))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: board})
}

func (h *CareHandler) RemoveItem(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid item id")
	}
	board, err := h.careService.Remove(c.UserContext(), middleware.GetUserID(c), c.Params("list"), id)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: board})
}

func (h *CareHandler) ToggleBill(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid bill id")
	}
	bill, err := h.careService.ToggleBill(c.UserContext(), middleware.GetUserID(c), id)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: bill})
}
