package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TwoFactorClient talks to the 2Factor SMS OTP API.
type TwoFactorClient struct {
	baseURL     string
	apiKey      string
	countryCode string
	httpClient  *http.Client
	log         *zap.Logger
}

func NewTwoFactorClient(baseURL, apiKey, countryCode string, timeout time.Duration, log *zap.Logger) *TwoFactorClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TwoFactorClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		countryCode: countryCode,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type twoFactorResponse struct {
	Status  string `json:"Status"`
	Details string `json:"Details"`
}

// SendOTP asks the provider to generate and deliver a code. Returns the
// provider session id needed for verification.
func (c *TwoFactorClient) SendOTP(ctx context.Context, phone string) (string, error) {
	url := fmt.Sprintf("%s/%s/SMS/%s%s/AUTOGEN", c.baseURL, c.apiKey, c.countryCode, phone)
	resp, err := c.call(ctx, url)
	if err != nil {
		return "", err
	}
	if resp.Details == "" {
		return "", fmt.Errorf("%w: empty session id", ErrOTPRejected)
	}
	return resp.Details, nil
}

// VerifyOTP checks otp against a session. A mismatch is ErrInvalidOTP.
func (c *TwoFactorClient) VerifyOTP(ctx context.Context, sessionID, otp string) error {
	url := fmt.Sprintf("%s/%s/SMS/VERIFY/%s/%s", c.baseURL, c.apiKey, sessionID, otp)
	_, err := c.call(ctx, url)
	if err != nil {
		if errors.Is(err, ErrOTPRejected) {
			c.log.Debug("otp verification rejected", zap.Error(err))
			return ErrInvalidOTP
		}
		return err
	}
	return nil
}

func (c *TwoFactorClient) call(ctx context.Context, url string) (*twoFactorResponse, error) {
	if c.apiKey == "" {
		return nil, ErrOTPNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("otp provider unreachable", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrOTPUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOTPUnavailable, err)
	}

	var out twoFactorResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: provider returned %d", ErrOTPUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", ErrOTPRejected, strings.TrimSpace(string(body)))
	}

	if out.Status != "Success" {
		detail := out.Details
		if detail == "" {
			detail = fmt.Sprintf("provider returned %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", ErrOTPRejected, detail)
	}
	return &out, nil
}
