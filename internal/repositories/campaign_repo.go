package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/promoter-dashboard/backend/internal/models"
)

const campaignColumns = `c.id, c.external_id, c.name, c.description, c.category, c.format, c.objective, c.reward,
	c.start_date, c.end_date, c.budget, c.target_samplings, c.target_scans, c.full_data,
	c.created_at, c.updated_at`

type CampaignRepo struct {
	pool *pgxpool.Pool
}

func NewCampaignRepo(pool *pgxpool.Pool) *CampaignRepo {
	return &CampaignRepo{pool: pool}
}

func scanCampaign(row pgx.Row) (*models.Campaign, error) {
	var c models.Campaign
	err := row.Scan(&c.ID, &c.ExternalID, &c.Name, &c.Description, &c.Category, &c.Format,
		&c.Objective, &c.Reward, &c.StartDate, &c.EndDate, &c.Budget, &c.TargetSamplings,
		&c.TargetScans, &c.FullData, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCampaigns(rows pgx.Rows) ([]models.Campaign, error) {
	defer rows.Close()

	campaigns := make([]models.Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (external_id, name, description, category, format, objective, reward,
		                       start_date, end_date, budget, target_samplings, target_scans, full_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`, c.ExternalID, c.Name, c.Description, c.Category, c.Format, c.Objective, c.Reward,
		c.StartDate, c.EndDate, c.Budget, c.TargetSamplings, c.TargetScans, c.FullData,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// UpsertByExternalID inserts or refreshes a campaign keyed by its upstream
// document id. created reports whether a new row was inserted.
func (r *CampaignRepo) UpsertByExternalID(ctx context.Context, c *models.Campaign) (created bool, err error) {
	if c.ExternalID == nil {
		return false, fmt.Errorf("external id is required for upsert")
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (external_id, name, description, category, format, objective, reward,
		                       start_date, end_date, budget, target_samplings, target_scans, full_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (external_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			format = EXCLUDED.format,
			objective = EXCLUDED.objective,
			reward = EXCLUDED.reward,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			budget = EXCLUDED.budget,
			target_samplings = EXCLUDED.target_samplings,
			target_scans = EXCLUDED.target_scans,
			full_data = EXCLUDED.full_data,
			updated_at = now()
		RETURNING id, created_at, updated_at, (xmax = 0) AS created
	`, c.ExternalID, c.Name, c.Description, c.Category, c.Format, c.Objective, c.Reward,
		c.StartDate, c.EndDate, c.Budget, c.TargetSamplings, c.TargetScans, c.FullData,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &created)
	return created, err
}

func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return scanCampaign(r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns c WHERE c.id = $1`, id))
}

// GetForPromoter returns the campaign only when it is assigned to promoterID.
func (r *CampaignRepo) GetForPromoter(ctx context.Context, id, promoterID uuid.UUID) (*models.Campaign, error) {
	return scanCampaign(r.pool.QueryRow(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns c
		JOIN campaign_promoters cp ON cp.campaign_id = c.id
		WHERE c.id = $1 AND cp.promoter_id = $2
	`, id, promoterID))
}

func (r *CampaignRepo) Update(ctx context.Context, c *models.Campaign) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET name = $1, description = $2, category = $3, format = $4, objective = $5,
		       reward = $6, start_date = $7, end_date = $8, budget = $9, target_samplings = $10,
		       target_scans = $11, updated_at = now()
		WHERE id = $12
	`, c.Name, c.Description, c.Category, c.Format, c.Objective, c.Reward,
		c.StartDate, c.EndDate, c.Budget, c.TargetSamplings, c.TargetScans, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CampaignRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type CampaignFilter struct {
	PromoterID *uuid.UUID
	Search     *string
	Limit      int
	Offset     int
}

// List pages through campaigns for administration. A zero Limit with a
// PromoterID set returns every assigned campaign.
func (r *CampaignRepo) List(ctx context.Context, f CampaignFilter) ([]models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns c`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.PromoterID != nil {
		query += ` JOIN campaign_promoters cp ON cp.campaign_id = c.id`
		where = append(where, fmt.Sprintf("cp.promoter_id = $%d", argIdx))
		args = append(args, *f.PromoterID)
		argIdx++
	}
	if f.Search != nil && *f.Search != "" {
		where = append(where, fmt.Sprintf("c.name ILIKE $%d", argIdx))
		args = append(args, "%"+*f.Search+"%")
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	if f.PromoterID != nil {
		query += " ORDER BY cp.assigned_at, c.id"
	} else {
		query += " ORDER BY c.created_at DESC, c.id"
	}

	if f.Limit > 0 || f.PromoterID == nil {
		limit := f.Limit
		if limit <= 0 || limit > 100 {
			limit = 20
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		args = append(args, limit, f.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectCampaigns(rows)
}

// ListByPromoter returns every campaign assigned to promoterID in assignment
// order.
func (r *CampaignRepo) ListByPromoter(ctx context.Context, promoterID uuid.UUID) ([]models.Campaign, error) {
	return r.List(ctx, CampaignFilter{PromoterID: &promoterID})
}

// ListDated returns campaigns that have both dates set; the status watcher
// only cares about those.
func (r *CampaignRepo) ListDated(ctx context.Context) ([]models.Campaign, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+campaignColumns+` FROM campaigns c
		WHERE c.start_date IS NOT NULL AND c.end_date IS NOT NULL
		ORDER BY c.id
	`)
	if err != nil {
		return nil, err
	}
	return collectCampaigns(rows)
}

// Assign links a promoter to a campaign. created is false when the link
// already existed.
func (r *CampaignRepo) Assign(ctx context.Context, campaignID, promoterID uuid.UUID) (created bool, err error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO campaign_promoters (campaign_id, promoter_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, campaignID, promoterID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *CampaignRepo) Unassign(ctx context.Context, campaignID, promoterID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM campaign_promoters WHERE campaign_id = $1 AND promoter_id = $2
	`, campaignID, promoterID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AssignedPromoterIDs lists the promoters linked to a campaign.
func (r *CampaignRepo) AssignedPromoterIDs(ctx context.Context, campaignID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT promoter_id FROM campaign_promoters WHERE campaign_id = $1
	`, campaignID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

// AssigneeUserIDs resolves the signed-in users behind the promoters assigned
// to a campaign. Promoters who never logged in have no user row and are
// skipped.
func (r *CampaignRepo) AssigneeUserIDs(ctx context.Context, campaignID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id
		FROM campaign_promoters cp
		JOIN promoters p ON p.id = cp.promoter_id
		JOIN users u ON u.phone = p.phone
		WHERE cp.campaign_id = $1
	`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
