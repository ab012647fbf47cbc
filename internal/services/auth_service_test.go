package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/promoter-dashboard/backend/internal/auth"
	"github.com/promoter-dashboard/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func newTestAuth(promoters ...*models.Promoter) (*AuthService, *fakeUsers, *fakeSessions, *fakeOTP) {
	users := newFakeUsers()
	sessions := &fakeSessions{m: map[string]uuid.UUID{}}
	otp := &fakeOTP{sessionID: "sess-1", code: "123456"}
	svc := NewAuthService(users, newFakePromoters(promoters...), sessions, otp, testSecret, time.Hour, zap.NewNop())
	return svc, users, sessions, otp
}

func TestSendOTPRejectsBadPhone(t *testing.T) {
	svc, _, _, otp := newTestAuth()

	for _, phone := range []string{"", "12345", "98765432101", "98765abcde"} {
		_, err := svc.SendOTP(context.Background(), phone)
		assert.ErrorIs(t, err, ErrInvalidInput, phone)
	}
	assert.Empty(t, otp.sent, "provider must not be called for invalid phones")
}

func TestSendOTPStoresSession(t *testing.T) {
	svc, _, sessions, otp := newTestAuth()
	ctx := context.Background()

	ch, err := svc.SendOTP(ctx, "98765 43210")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", ch.SessionID)
	assert.True(t, ch.IsNewUser)
	assert.Equal(t, []string{"9876543210"}, otp.sent)
	assert.Contains(t, sessions.m, "sess-1")

	ch, err = svc.SendOTP(ctx, "9876543210")
	require.NoError(t, err)
	assert.False(t, ch.IsNewUser)
}

func TestSendOTPProviderFailure(t *testing.T) {
	svc, _, sessions, otp := newTestAuth()
	otp.sendErr = ErrOTPUnavailable

	_, err := svc.SendOTP(context.Background(), "9876543210")
	assert.ErrorIs(t, err, ErrOTPUnavailable)
	assert.Empty(t, sessions.m)
}

func TestVerifyOTPIssuesPromoterToken(t *testing.T) {
	promoter := &models.Promoter{ID: uuid.New(), Name: "Asha", Phone: "9876543210"}
	svc, users, sessions, _ := newTestAuth(promoter)
	ctx := context.Background()

	_, err := svc.SendOTP(ctx, "9876543210")
	require.NoError(t, err)

	sess, err := svc.VerifyOTP(ctx, "sess-1", "123456")
	require.NoError(t, err)
	require.NotNil(t, sess.Promoter)
	assert.Equal(t, promoter.ID, sess.Promoter.ID)
	assert.True(t, users.lastLogin[sess.User.ID])
	assert.NotContains(t, sessions.m, "sess-1", "session is single use")

	claims, err := auth.ParseJWT(testSecret, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, claims.UserID)
	require.NotNil(t, claims.PromoterID)
	assert.Equal(t, promoter.ID, *claims.PromoterID)
}

func TestVerifyOTPWithoutPromoter(t *testing.T) {
	svc, _, _, _ := newTestAuth()
	ctx := context.Background()

	_, err := svc.SendOTP(ctx, "9123456789")
	require.NoError(t, err)

	sess, err := svc.VerifyOTP(ctx, "sess-1", "123456")
	require.NoError(t, err)
	assert.Nil(t, sess.Promoter)

	claims, err := auth.ParseJWT(testSecret, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, claims.PromoterID)
}

func TestVerifyOTPFailures(t *testing.T) {
	svc, _, sessions, _ := newTestAuth()
	ctx := context.Background()

	_, err := svc.VerifyOTP(ctx, "missing", "123456")
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = svc.VerifyOTP(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SendOTP(ctx, "9876543210")
	require.NoError(t, err)
	_, err = svc.VerifyOTP(ctx, "sess-1", "000000")
	assert.ErrorIs(t, err, ErrInvalidOTP)
	assert.Contains(t, sessions.m, "sess-1", "a wrong code keeps the session for retry")
}
