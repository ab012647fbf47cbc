package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions
const (
	AuditCampaignCreated    = "campaign_created"
	AuditCampaignUpdated    = "campaign_updated"
	AuditCampaignDeleted    = "campaign_deleted"
	AuditCampaignImported   = "campaign_imported"
	AuditPromoterAssigned   = "promoter_assigned"
	AuditPromoterUnassigned = "promoter_unassigned"
	AuditPromoterCreated    = "promoter_created"
)

// Audited entities
const (
	AuditEntityCampaign = "campaign"
	AuditEntityPromoter = "promoter"
)

const (
	AuditActorAdmin  = "admin"
	AuditActorSystem = "system"
)

type AuditLog struct {
	ID          uuid.UUID  `json:"id"`
	ActorUserID *uuid.UUID `json:"actor_user_id,omitempty"`
	ActorType   string     `json:"actor_type"`
	Action      string     `json:"action"`
	EntityType  string     `json:"entity_type"`
	EntityID    *uuid.UUID `json:"entity_id,omitempty"`
	Meta        any        `json:"meta,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// AuditFilter narrows an audit trail query. Zero fields match everything.
type AuditFilter struct {
	EntityType string
	EntityID   *uuid.UUID
	Action     string
	Limit      int
	Offset     int
}
