package dto

// Error codes understood by the dashboard client.
const (
	CodeNoSession        = "NO_SESSION"
	CodeNoPromoter       = "NO_PROMOTER_FOUND"
	CodeCampaignNotFound = "CAMPAIGN_NOT_FOUND"
	CodeServerError      = "SERVER_ERROR"
	CodeForbidden        = "FORBIDDEN"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeConflict         = "CONFLICT"
)

type AuthResponse struct {
	Token    string `json:"token"`
	User     any    `json:"user"`
	Promoter any    `json:"promoter,omitempty"`
}

type OTPSentResponse struct {
	SessionID string `json:"session_id"`
	IsNewUser bool   `json:"is_new_user"`
	Message   string `json:"message"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type MeResponse struct {
	User     any      `json:"user"`
	Roles    []string `json:"roles"`
	Promoter bool     `json:"is_promoter"`
}
