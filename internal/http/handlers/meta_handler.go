package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/promoter-dashboard/backend/internal/http/dto"
)

type MetaHandler struct{}

func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

type MetaOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var predefinedCategories = []MetaOption{
	{ID: "fmcg", Label: "FMCG"},
	{ID: "beverages", Label: "Beverages"},
	{ID: "food", Label: "Food & Snacks"},
	{ID: "personal_care", Label: "Personal Care"},
	{ID: "beauty", Label: "Beauty & Cosmetics"},
	{ID: "health", Label: "Health & Wellness"},
	{ID: "home_care", Label: "Home Care"},
	{ID: "baby_care", Label: "Baby Care"},
	{ID: "electronics", Label: "Electronics"},
	{ID: "fintech", Label: "Fintech & Payments"},
	{ID: "telecom", Label: "Telecom"},
	{ID: "automotive", Label: "Automotive"},
	{ID: "education", Label: "Education"},
	{ID: "retail", Label: "Retail"},
	{ID: "other", Label: "Other"},
}

var predefinedFormats = []MetaOption{
	{ID: "sampling", Label: "Product Sampling"},
	{ID: "qr_scan", Label: "QR Scan"},
	{ID: "demo", Label: "In-store Demo"},
	{ID: "survey", Label: "Survey"},
	{ID: "app_install", Label: "App Install"},
	{ID: "door_to_door", Label: "Door to Door"},
	{ID: "event", Label: "Event Activation"},
	{ID: "other", Label: "Other"},
}

func (h *MetaHandler) GetCategories(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: predefinedCategories})
}

func (h *MetaHandler) GetFormats(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: predefinedFormats})
}
