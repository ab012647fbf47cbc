package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/promoter-dashboard/backend/internal/models"
)

const promoterColumns = `id, external_id, name, email, phone, image_url, created_at`

type PromoterRepo struct {
	pool *pgxpool.Pool
}

func NewPromoterRepo(pool *pgxpool.Pool) *PromoterRepo {
	return &PromoterRepo{pool: pool}
}

func scanPromoter(row pgx.Row) (*models.Promoter, error) {
	var p models.Promoter
	if err := row.Scan(&p.ID, &p.ExternalID, &p.Name, &p.Email, &p.Phone, &p.ImageURL, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PromoterRepo) Create(ctx context.Context, p *models.Promoter) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO promoters (external_id, name, email, phone, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, p.ExternalID, p.Name, p.Email, p.Phone, p.ImageURL).Scan(&p.ID, &p.CreatedAt)
}

func (r *PromoterRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Promoter, error) {
	return scanPromoter(r.pool.QueryRow(ctx, `SELECT `+promoterColumns+` FROM promoters WHERE id = $1`, id))
}

func (r *PromoterRepo) GetByPhone(ctx context.Context, phone string) (*models.Promoter, error) {
	return scanPromoter(r.pool.QueryRow(ctx, `SELECT `+promoterColumns+` FROM promoters WHERE phone = $1`, phone))
}

func (r *PromoterRepo) GetByExternalID(ctx context.Context, externalID string) (*models.Promoter, error) {
	return scanPromoter(r.pool.QueryRow(ctx, `SELECT `+promoterColumns+` FROM promoters WHERE external_id = $1`, externalID))
}

func (r *PromoterRepo) List(ctx context.Context, limit, offset int) ([]models.Promoter, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+promoterColumns+` FROM promoters
		ORDER BY name, created_at LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Promoter
	for rows.Next() {
		p, err := scanPromoter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UserID returns the signed-in user sharing the promoter's phone.
func (r *PromoterRepo) UserID(ctx context.Context, promoterID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT u.id FROM promoters p JOIN users u ON u.phone = p.phone WHERE p.id = $1
	`, promoterID).Scan(&id)
	return id, err
}
