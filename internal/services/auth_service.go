package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/promoter-dashboard/backend/internal/auth"
	"github.com/promoter-dashboard/backend/internal/models"
	"github.com/promoter-dashboard/backend/internal/repositories"
	"go.uber.org/zap"
)

type userStore interface {
	UpsertByPhone(ctx context.Context, phone string) (*models.User, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

type promoterByPhone interface {
	GetByPhone(ctx context.Context, phone string) (*models.Promoter, error)
}

type otpSessionStore interface {
	Save(ctx context.Context, sessionID string, userID uuid.UUID) error
	Get(ctx context.Context, sessionID string) (uuid.UUID, error)
	Delete(ctx context.Context, sessionID string) error
}

type otpProvider interface {
	SendOTP(ctx context.Context, phone string) (string, error)
	VerifyOTP(ctx context.Context, sessionID, otp string) error
}

type AuthService struct {
	users      userStore
	promoters  promoterByPhone
	sessions   otpSessionStore
	otp        otpProvider
	jwtSecret  string
	jwtExpires time.Duration
	log        *zap.Logger
}

func NewAuthService(
	users userStore,
	promoters promoterByPhone,
	sessions otpSessionStore,
	otp otpProvider,
	jwtSecret string,
	jwtExpires time.Duration,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		promoters:  promoters,
		sessions:   sessions,
		otp:        otp,
		jwtSecret:  jwtSecret,
		jwtExpires: jwtExpires,
		log:        log,
	}
}

type OTPChallenge struct {
	SessionID string `json:"session_id"`
	IsNewUser bool   `json:"is_new_user"`
}

type Session struct {
	Token    string           `json:"token"`
	User     *models.User     `json:"user"`
	Promoter *models.Promoter `json:"promoter,omitempty"`
}

// SendOTP registers the phone if needed and starts a provider OTP session.
func (s *AuthService) SendOTP(ctx context.Context, rawPhone string) (*OTPChallenge, error) {
	phone, err := auth.NormalizePhone(rawPhone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	user, created, err := s.users.UpsertByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	sessionID, err := s.otp.SendOTP(ctx, phone)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, sessionID, user.ID); err != nil {
		return nil, fmt.Errorf("save otp session: %w", err)
	}

	s.log.Info("otp sent",
		zap.String("phone", auth.MaskPhone(phone)),
		zap.String("user_id", user.ID.String()),
		zap.Bool("new_user", created),
	)
	return &OTPChallenge{SessionID: sessionID, IsNewUser: created}, nil
}

// VerifyOTP completes login. The promoter is resolved by phone and may be nil
// for family members who are not promoters.
func (s *AuthService) VerifyOTP(ctx context.Context, sessionID, otp string) (*Session, error) {
	if sessionID == "" || otp == "" {
		return nil, fmt.Errorf("%w: session_id and otp are required", ErrInvalidInput)
	}

	userID, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, repositories.ErrSessionNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("load otp session: %w", err)
	}

	if err := s.otp.VerifyOTP(ctx, sessionID, otp); err != nil {
		return nil, err
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.log.Warn("failed to delete otp session", zap.Error(err))
	}
	if err := s.users.UpdateLastLogin(ctx, userID); err != nil {
		s.log.Warn("failed to update last_login", zap.Error(err))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	promoter, err := s.promoters.GetByPhone(ctx, user.Phone)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load promoter: %w", err)
	}

	var promoterID *uuid.UUID
	if promoter != nil {
		promoterID = &promoter.ID
	}

	token, err := auth.GenerateJWT(s.jwtSecret, user.ID, user.Phone, promoterID, s.jwtExpires)
	if err != nil {
		return nil, fmt.Errorf("generate jwt: %w", err)
	}

	s.log.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.Bool("promoter", promoter != nil),
	)
	return &Session{Token: token, User: user, Promoter: promoter}, nil
}
