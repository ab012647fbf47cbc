package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when an OTP session expired or never existed.
var ErrSessionNotFound = errors.New("otp session not found")

// OTPSessionRepo remembers which user requested an OTP session until it is
// verified or expires.
type OTPSessionRepo struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewOTPSessionRepo(rdb *redis.Client, ttl time.Duration) *OTPSessionRepo {
	return &OTPSessionRepo{rdb: rdb, ttl: ttl}
}

func otpSessionKey(sessionID string) string {
	return "otp:session:" + sessionID
}

func (r *OTPSessionRepo) Save(ctx context.Context, sessionID string, userID uuid.UUID) error {
	return r.rdb.Set(ctx, otpSessionKey(sessionID), userID.String(), r.ttl).Err()
}

func (r *OTPSessionRepo) Get(ctx context.Context, sessionID string) (uuid.UUID, error) {
	v, err := r.rdb.Get(ctx, otpSessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(v)
}

func (r *OTPSessionRepo) Delete(ctx context.Context, sessionID string) error {
	return r.rdb.Del(ctx, otpSessionKey(sessionID)).Err()
}
