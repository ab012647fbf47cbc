package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/promoter-dashboard/backend/internal/auth"
	"github.com/promoter-dashboard/backend/internal/config"
	"github.com/promoter-dashboard/backend/internal/http/dto"
	"github.com/promoter-dashboard/backend/internal/rbac"
	"go.uber.org/zap"
)

const (
	CtxUserID     = "user_id"
	CtxPhone      = "phone"
	CtxPromoterID = "promoter_id"
)

func deny(c *fiber.Ctx, status int, msg, code string) error {
	reqID := GetRequestID(c)
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg, Code: code, RequestID: reqID})
}

// sessionToken reads the JWT from the Authorization header, falling back to
// the session cookie set at login.
func sessionToken(c *fiber.Ctx, cookieName string) (string, bool) {
	if h := c.Get("Authorization"); h != "" {
		tok := strings.TrimPrefix(h, "Bearer ")
		if tok == h {
			return "", false
		}
		return tok, true
	}
	if tok := c.Cookies(cookieName); tok != "" {
		return tok, true
	}
	return "", false
}

func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr, ok := sessionToken(c, cfg.SessionCookieName)
		if !ok {
			return deny(c, fiber.StatusUnauthorized, "missing or malformed session", dto.CodeNoSession)
		}

		claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return deny(c, fiber.StatusUnauthorized, "invalid or expired session", dto.CodeNoSession)
		}

		c.Locals(CtxUserID, claims.UserID)
		c.Locals(CtxPhone, claims.Phone)
		if claims.PromoterID != nil {
			c.Locals(CtxPromoterID, *claims.PromoterID)
		}

		return c.Next()
	}
}

func GetUserID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(CtxUserID).(uuid.UUID)
	return id
}

func GetPhone(c *fiber.Ctx) string {
	p, _ := c.Locals(CtxPhone).(string)
	return p
}

// GetPromoterID reports the promoter bound to the session, if any.
func GetPromoterID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(CtxPromoterID).(uuid.UUID)
	return id, ok
}

// RequirePromoter rejects sessions of users without a promoter record.
func RequirePromoter() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := GetPromoterID(c); !ok {
			return deny(c, fiber.StatusForbidden, "no promoter profile for this account", dto.CodeNoPromoter)
		}
		return c.Next()
	}
}

// SessionRoles derives the caller's roles. Admin comes from ADMIN_PHONES,
// promoter from the promoter id in the token.
func SessionRoles(c *fiber.Ctx, cfg *config.Config) []string {
	_, hasPromoter := GetPromoterID(c)
	return rbac.RolesFor(cfg.IsAdmin(GetPhone(c)), hasPromoter)
}

func RequirePermission(cfg *config.Config, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rbac.AnyHasPermission(SessionRoles(c, cfg), permission) {
			return deny(c, fiber.StatusForbidden, "admin access required", dto.CodeForbidden)
		}
		return c.Next()
	}
}

// AdminMiddleware requires a phone listed in ADMIN_PHONES
func AdminMiddleware(cfg *config.Config) fiber.Handler {
	return RequirePermission(cfg, rbac.PermManageCampaigns)
}
