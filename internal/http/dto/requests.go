package dto

import (
	"encoding/json"
	"time"
)

type SendOTPRequest struct {
	Phone string `json:"phone"`
}

type VerifyOTPRequest struct {
	SessionID string `json:"session_id"`
	OTP       string `json:"otp"`
}

// Campaigns

type CampaignRequest struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	Format          string     `json:"format"`
	Objective       string     `json:"objective"`
	Reward          string     `json:"reward"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	Budget          float64    `json:"budget"`
	TargetSamplings int64      `json:"target_samplings"`
	TargetScans     int64      `json:"target_scans"`
}

// ImportCampaignsRequest carries documents exported from the legacy store.
type ImportCampaignsRequest struct {
	Campaigns []json.RawMessage `json:"campaigns"`
}

type CreatePromoterRequest struct {
	ExternalID *string `json:"external_id,omitempty"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	ImageURL   string  `json:"image_url"`
}

type AssignPromoterRequest struct {
	PromoterID string `json:"promoter_id"`
}

// Care board

type FamilyNameRequest struct {
	FamilyName string `json:"family_name"`
}

type SeniorRequest struct {
	Name       string `json:"name"`
	Relation   string `json:"relation"`
	Phone      string `json:"phone"`
	LivingType string `json:"living_type"`
}

// Payments

type ResolvePaymentRequest struct {
	QRData string `json:"qr_data"`
}
