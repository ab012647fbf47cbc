package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTwoFactorSendOTP(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"Status":"Success","Details":"sess-123"}`))
	}))
	defer srv.Close()

	c := NewTwoFactorClient(srv.URL+"/API/V1/", "key", "+91", time.Second, zap.NewNop())
	sessionID, err := c.SendOTP(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "sess-123", sessionID)
	assert.Equal(t, "/API/V1/key/SMS/+919876543210/AUTOGEN", gotPath)
}

func TestTwoFactorSendOTPRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"Status":"Error","Details":"Invalid Phone Number"}`))
	}))
	defer srv.Close()

	c := NewTwoFactorClient(srv.URL, "key", "+91", time.Second, zap.NewNop())
	_, err := c.SendOTP(context.Background(), "9876543210")
	require.ErrorIs(t, err, ErrOTPRejected)
	assert.Contains(t, err.Error(), "Invalid Phone Number")
}

func TestTwoFactorUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewTwoFactorClient(url, "key", "+91", time.Second, zap.NewNop())
	_, err := c.SendOTP(context.Background(), "9876543210")
	assert.ErrorIs(t, err, ErrOTPUnavailable)
}

func TestTwoFactorNotConfigured(t *testing.T) {
	c := NewTwoFactorClient("http://127.0.0.1:1", "", "+91", time.Second, zap.NewNop())
	_, err := c.SendOTP(context.Background(), "9876543210")
	assert.ErrorIs(t, err, ErrOTPNotConfigured)
}

func TestTwoFactorVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/key/SMS/VERIFY/sess-1/123456":
			_, _ = w.Write([]byte(`{"Status":"Success","Details":"OTP Matched"}`))
		default:
			_, _ = w.Write([]byte(`{"Status":"Error","Details":"OTP Mismatch"}`))
		}
	}))
	defer srv.Close()

	c := NewTwoFactorClient(srv.URL, "key", "+91", time.Second, zap.NewNop())
	require.NoError(t, c.VerifyOTP(context.Background(), "sess-1", "123456"))

	err := c.VerifyOTP(context.Background(), "sess-1", "000000")
	if !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("err = %v, want ErrInvalidOTP", err)
	}
}
