package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/promoter-dashboard/backend/internal/models"
	"go.uber.org/zap"
)

type assignedCampaigns interface {
	ListByPromoter(ctx context.Context, promoterID uuid.UUID) ([]models.Campaign, error)
	GetForPromoter(ctx context.Context, id, promoterID uuid.UUID) (*models.Campaign, error)
}

type promoterByID interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Promoter, error)
}

// DashboardService serves the promoter-facing views. Status is computed on
// every read against now().
type DashboardService struct {
	campaigns assignedCampaigns
	promoters promoterByID
	now       func() time.Time
	log       *zap.Logger
}

func NewDashboardService(campaigns assignedCampaigns, promoters promoterByID, now func() time.Time, log *zap.Logger) *DashboardService {
	if now == nil {
		now = time.Now
	}
	return &DashboardService{campaigns: campaigns, promoters: promoters, now: now, log: log}
}

type Dashboard struct {
	Promoter *models.Promoter `json:"promoter_info"`
	models.CampaignAggregate
}

type Profile struct {
	Promoter *models.Promoter     `json:"promoter_info"`
	Stats    models.CampaignCounts `json:"stats"`
}

func (s *DashboardService) promoter(ctx context.Context, promoterID uuid.UUID) (*models.Promoter, error) {
	p, err := s.promoters.GetByID(ctx, promoterID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPromoterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load promoter: %w", err)
	}
	return p, nil
}

// Dashboard returns the promoter with their assigned campaigns bucketed by
// status.
func (s *DashboardService) Dashboard(ctx context.Context, promoterID uuid.UUID) (*Dashboard, error) {
	p, err := s.promoter(ctx, promoterID)
	if err != nil {
		return nil, err
	}

	campaigns, err := s.campaigns.ListByPromoter(ctx, promoterID)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}

	agg := models.AggregateCampaigns(campaigns, s.now())
	s.log.Debug("dashboard computed",
		zap.String("promoter_id", promoterID.String()),
		zap.Int("assigned", agg.Stats.Assigned),
		zap.Int("active", agg.Stats.Active),
		zap.Int("completed", agg.Stats.Completed),
		zap.Int("upcoming", agg.Stats.Upcoming),
		zap.Int("unknown", agg.Stats.Unknown),
	)
	return &Dashboard{Promoter: p, CampaignAggregate: agg}, nil
}

func (s *DashboardService) Profile(ctx context.Context, promoterID uuid.UUID) (*Profile, error) {
	d, err := s.Dashboard(ctx, promoterID)
	if err != nil {
		return nil, err
	}
	return &Profile{Promoter: d.Promoter, Stats: d.Stats}, nil
}

// ListCampaigns returns assigned campaigns with status, optionally only those
// in status.
func (s *DashboardService) ListCampaigns(ctx context.Context, promoterID uuid.UUID, status *models.CampaignStatus) ([]models.Campaign, error) {
	campaigns, err := s.campaigns.ListByPromoter(ctx, promoterID)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}

	now := s.now()
	if status != nil {
		return models.FilterByStatus(campaigns, *status, now), nil
	}

	out := make([]models.Campaign, len(campaigns))
	for i, c := range campaigns {
		out[i] = c.WithStatus(now)
	}
	return out, nil
}

// Campaign returns one assigned campaign with its distribution progress.
func (s *DashboardService) Campaign(ctx context.Context, promoterID, campaignID uuid.UUID) (*models.CampaignDetails, error) {
	c, err := s.campaigns.GetForPromoter(ctx, campaignID, promoterID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load campaign: %w", err)
	}
	return campaignDetails(*c, s.now(), s.log), nil
}

func campaignDetails(c models.Campaign, now time.Time, log *zap.Logger) *models.CampaignDetails {
	progress, overdrawn := models.ComputeProgress(c.TargetSamplings, c.TargetScans)
	if overdrawn {
		log.Warn("campaign scans exceed samplings",
			zap.String("campaign_id", c.ID.String()),
			zap.Int64("target_samplings", c.TargetSamplings),
			zap.Int64("target_scans", c.TargetScans),
		)
	}
	return &models.CampaignDetails{Campaign: c.WithStatus(now), Progress: progress}
}
