package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/promoter-dashboard/backend/internal/events"
	"github.com/promoter-dashboard/backend/internal/models"
	"go.uber.org/zap"
)

type datedCampaigns interface {
	ListDated(ctx context.Context) ([]models.Campaign, error)
	AssigneeUserIDs(ctx context.Context, campaignID uuid.UUID) ([]uuid.UUID, error)
}

// StatusWatcher notices campaigns crossing a day boundary and tells their
// promoters. It remembers only the instant of the previous sweep.
type StatusWatcher struct {
	campaigns datedCampaigns
	publisher events.Publisher
	interval  time.Duration
	now       func() time.Time
	log       *zap.Logger

	last time.Time
}

func NewStatusWatcher(campaigns datedCampaigns, publisher events.Publisher, interval time.Duration, now func() time.Time, log *zap.Logger) *StatusWatcher {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &StatusWatcher{
		campaigns: campaigns,
		publisher: publisher,
		interval:  interval,
		now:       now,
		log:       log,
	}
}

// Run sweeps on every tick until ctx is cancelled.
func (w *StatusWatcher) Run(ctx context.Context) {
	w.last = w.now()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("status watcher started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.log.Info("status watcher stopped")
			return
		case <-ticker.C:
			now := w.now()
			if _, err := w.Sweep(ctx, w.last, now); err != nil {
				w.log.Error("status sweep failed", zap.Error(err))
				continue
			}
			w.last = now
		}
	}
}

// StatusChange is one campaign whose status differs between two sweeps.
type StatusChange struct {
	CampaignID uuid.UUID             `json:"campaign_id"`
	Name       string                `json:"name"`
	From       models.CampaignStatus `json:"from"`
	To         models.CampaignStatus `json:"to"`
}

// Sweep classifies every dated campaign at prev and at now and publishes a
// campaign_status_changed event per assignee for each campaign that moved.
func (w *StatusWatcher) Sweep(ctx context.Context, prev, now time.Time) ([]StatusChange, error) {
	campaigns, err := w.campaigns.ListDated(ctx)
	if err != nil {
		return nil, err
	}

	var changes []StatusChange
	for _, c := range campaigns {
		from := models.ClassifyCampaign(c.StartDate, c.EndDate, prev)
		to := models.ClassifyCampaign(c.StartDate, c.EndDate, now)
		if from == to {
			continue
		}
		change := StatusChange{CampaignID: c.ID, Name: c.Name, From: from, To: to}
		changes = append(changes, change)

		userIDs, err := w.campaigns.AssigneeUserIDs(ctx, c.ID)
		if err != nil {
			w.log.Warn("failed to resolve assignees", zap.String("campaign_id", c.ID.String()), zap.Error(err))
			continue
		}
		event := events.Event{
			Type: events.EventCampaignStatusChanged,
			Payload: map[string]any{
				"campaign_id": c.ID.String(),
				"name":        c.Name,
				"from":        string(from),
				"to":          string(to),
			},
			OccurredAt: now,
		}
		if err := events.Fanout(ctx, w.publisher, events.StreamCampaign, event, userIDs); err != nil {
			w.log.Warn("status change publish failed", zap.String("campaign_id", c.ID.String()), zap.Error(err))
		}
	}

	if len(changes) > 0 {
		w.log.Info("campaign statuses changed", zap.Int("count", len(changes)))
	}
	return changes, nil
}
