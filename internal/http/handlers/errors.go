package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/promoter-dashboard/backend/internal/http/dto"
	"github.com/promoter-dashboard/backend/internal/middleware"
	"go.uber.org/zap"
)

func respondError(c *fiber.Ctx, status int, msg, code string) error {
	reqID := middleware.GetRequestID(c)
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg, Code: code, RequestID: reqID})
}

// serverError logs err and hides it from the client.
func serverError(c *fiber.Ctx, log *zap.Logger, msg string, err error) error {
	reqID := middleware.GetRequestID(c)
	log.Error(msg, zap.String("request_id", reqID), zap.Error(err))
	return respondError(c, fiber.StatusInternalServerError, "internal server error", dto.CodeServerError)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return respondError(c, fiber.StatusBadRequest, msg, dto.CodeInvalidRequest)
}
