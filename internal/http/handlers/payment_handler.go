package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/promoter-dashboard/backend/internal/http/dto"
	"github.com/promoter-dashboard/backend/internal/middleware"
	"github.com/promoter-dashboard/backend/internal/payment"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	log *zap.Logger
}

func NewPaymentHandler(log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{log: log}
}

// Resolve turns a scanned QR payload into a link the device can open.
func (h *PaymentHandler) Resolve(c *fiber.Ctx) error {
	var req dto.ResolvePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	target, err := payment.Resolve(req.QRData)
	if err != nil {
		return badRequest(c, "qr_data is required")
	}

	h.log.Debug("payment target resolved",
		zap.String("user_id", middleware.GetUserID(c).String()),
		zap.String("scheme", target.Scheme),
	)
	return c.JSON(dto.SuccessResponse{OK: true, Data: target})
}
