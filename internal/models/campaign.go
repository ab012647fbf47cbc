package models

import (
	"time"

	"github.com/google/uuid"
)

// NotAvailable is the display value for campaign text fields missing upstream.
const NotAvailable = "N/A"

type Campaign struct {
	ID              uuid.UUID      `json:"id"`
	ExternalID      *string        `json:"external_id,omitempty"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Category        string         `json:"category"`
	Format          string         `json:"format"`
	Objective       string         `json:"objective"`
	Reward          string         `json:"reward"`
	StartDate       *time.Time     `json:"start_date"`
	EndDate         *time.Time     `json:"end_date"`
	Budget          float64        `json:"budget"`
	TargetSamplings int64          `json:"target_samplings"`
	TargetScans     int64          `json:"target_scans"`
	FullData        map[string]any `json:"full_data,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	// Status is derived from the dates on every read and never stored.
	Status CampaignStatus `json:"status"`
}

// ApplyDefaults fills display fields that arrived empty and clears negative
// counters.
func (c *Campaign) ApplyDefaults() {
	if c.Name == "" {
		c.Name = NotAvailable
	}
	if c.Category == "" {
		c.Category = NotAvailable
	}
	if c.Format == "" {
		c.Format = NotAvailable
	}
	if c.Objective == "" {
		c.Objective = NotAvailable
	}
	if c.Reward == "" {
		c.Reward = NotAvailable
	}
	if c.Budget < 0 {
		c.Budget = 0
	}
	if c.TargetSamplings < 0 {
		c.TargetSamplings = 0
	}
	if c.TargetScans < 0 {
		c.TargetScans = 0
	}
}

// WithStatus returns a copy of the campaign with Status computed for now.
func (c Campaign) WithStatus(now time.Time) Campaign {
	c.Status = ClassifyCampaign(c.StartDate, c.EndDate, now)
	return c
}

// CampaignDetails is a single campaign as rendered on its detail screen.
type CampaignDetails struct {
	Campaign
	Progress CampaignProgress `json:"progress"`
}
