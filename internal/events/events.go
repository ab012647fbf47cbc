package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Streams
const (
	StreamCampaign = "events:campaign"
)

// Event types
const (
	EventCampaignAssigned      = "campaign_assigned"
	EventCampaignUnassigned    = "campaign_unassigned"
	EventCampaignStatusChanged = "campaign_status_changed"
	EventCampaignUpdated       = "campaign_updated"
)

type Event struct {
	Type       string         `json:"type"`
	UserID     string         `json:"user_id,omitempty"` // recipient; empty means broadcast
	Payload    map[string]any `json:"payload"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type BatchPublisher interface {
	Publisher
	PublishBatch(ctx context.Context, stream string, batch []Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}

// Fanout addresses a copy of event to each user. Publishers that support
// batching get a single call.
func Fanout(ctx context.Context, pub Publisher, stream string, event Event, userIDs []uuid.UUID) error {
	if pub == nil || len(userIDs) == 0 {
		return nil
	}
	batch := make([]Event, 0, len(userIDs))
	for _, uid := range userIDs {
		e := event
		e.UserID = uid.String()
		batch = append(batch, e)
	}

	if bp, ok := pub.(BatchPublisher); ok {
		return bp.PublishBatch(ctx, stream, batch)
	}
	var firstErr error
	for _, e := range batch {
		if err := pub.Publish(ctx, stream, e); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
