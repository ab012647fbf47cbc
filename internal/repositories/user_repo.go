package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/promoter-dashboard/backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// UpsertByPhone returns the user for phone, creating it when missing.
func (r *UserRepo) UpsertByPhone(ctx context.Context, phone string) (*models.User, bool, error) {
	var u models.User
	var created bool
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (phone)
		VALUES ($1)
		ON CONFLICT (phone) DO UPDATE SET last_active_at = now()
		RETURNING id, phone, created_at, last_login_at, last_active_at, (xmax = 0) AS created
	`, phone).Scan(&u.ID, &u.Phone, &u.CreatedAt, &u.LastLoginAt, &u.LastActiveAt, &created)
	if err != nil {
		return nil, false, err
	}
	return &u, created, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, phone, created_at, last_login_at, last_active_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Phone, &u.CreatedAt, &u.LastLoginAt, &u.LastActiveAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = now(), last_active_at = now() WHERE id = $1`, id)
	return err
}

func (r *UserRepo) UpdateLastActive(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_active_at = $1 WHERE id = $2`, time.Now(), id)
	return err
}
