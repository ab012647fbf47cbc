package services

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrPromoterNotFound = errors.New("promoter not found")
	ErrInvalidInput     = errors.New("invalid input")

	ErrOTPNotConfigured = errors.New("otp service not configured")
	ErrOTPUnavailable   = errors.New("otp service unavailable")
	ErrOTPRejected      = errors.New("otp request rejected")
	ErrInvalidOTP       = errors.New("invalid otp")
	ErrSessionExpired   = errors.New("otp session expired")
)
