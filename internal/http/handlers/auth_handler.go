package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/promoter-dashboard/backend/internal/config"
	"github.com/promoter-dashboard/backend/internal/http/dto"
	"github.com/promoter-dashboard/backend/internal/services"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
	log         *zap.Logger
}

func NewAuthHandler(authService *services.AuthService, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg, log: log}
}

func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req dto.SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Phone == "" {
		return badRequest(c, "phone is required")
	}

	ch, err := h.authService.SendOTP(c.UserContext(), req.Phone)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrInvalidInput):
		return badRequest(c, "phone number must be 10 digits")
	case errors.Is(err, services.ErrOTPNotConfigured):
		h.log.Error("otp provider key missing")
		return respondError(c, fiber.StatusInternalServerError, "OTP service not configured", dto.CodeServerError)
	case errors.Is(err, services.ErrOTPUnavailable):
		return respondError(c, fiber.StatusServiceUnavailable, "OTP service is temporarily unavailable", dto.CodeServerError)
	case errors.Is(err, services.ErrOTPRejected):
		return badRequest(c, providerDetail(err))
	default:
		return serverError(c, h.log, "send otp failed", err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.OTPSentResponse{
		SessionID: ch.SessionID,
		IsNewUser: ch.IsNewUser,
		Message:   "OTP sent to " + h.cfg.OTPCountryCode + strings.TrimSpace(req.Phone),
	}})
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	sess, err := h.authService.VerifyOTP(c.UserContext(), strings.TrimSpace(req.SessionID), strings.TrimSpace(req.OTP))
	switch {
	case err == nil:
	case errors.Is(err, services.ErrInvalidInput):
		return badRequest(c, "session_id and otp are required")
	case errors.Is(err, services.ErrSessionExpired):
		return badRequest(c, "OTP session expired. Please request a new code.")
	case errors.Is(err, services.ErrInvalidOTP):
		return badRequest(c, "Invalid OTP. Please try again.")
	case errors.Is(err, services.ErrOTPNotConfigured):
		return respondError(c, fiber.StatusInternalServerError, "OTP service not configured", dto.CodeServerError)
	case errors.Is(err, services.ErrOTPUnavailable):
		return respondError(c, fiber.StatusServiceUnavailable, "OTP service is temporarily unavailable", dto.CodeServerError)
	default:
		return serverError(c, h.log, "verify otp failed", err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.JWTExpiration),
		HTTPOnly: true,
		Secure:   h.cfg.SessionCookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	resp := dto.AuthResponse{Token: sess.Token, User: sess.User}
	if sess.Promoter != nil {
		resp.Promoter = sess.Promoter
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.cfg.SessionCookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(dto.SuccessResponse{OK: true})
}

// providerDetail strips our sentinel prefix from a provider rejection.
func providerDetail(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, services.ErrOTPRejected.Error()+": "); i >= 0 {
		return msg[i+len(services.ErrOTPRejected.Error())+2:]
	}
	return msg
}
