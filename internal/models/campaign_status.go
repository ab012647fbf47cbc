package models

import (
	"strings"
	"time"
)

type CampaignStatus string

// Campaign statuses
const (
	CampaignStatusActive    CampaignStatus = "ACTIVE"
	CampaignStatusCompleted CampaignStatus = "COMPLETED"
	CampaignStatusUpcoming  CampaignStatus = "UPCOMING"
	CampaignStatusUnknown   CampaignStatus = "UNKNOWN"
)

var AllCampaignStatuses = []CampaignStatus{
	CampaignStatusActive,
	CampaignStatusCompleted,
	CampaignStatusUpcoming,
	CampaignStatusUnknown,
}

// ParseCampaignStatus is case-insensitive.
func ParseCampaignStatus(s string) (CampaignStatus, bool) {
	st := CampaignStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllCampaignStatuses {
		if st == known {
			return st, true
		}
	}
	return "", false
}

// ClassifyCampaign places a campaign on its lifecycle relative to now using
// calendar days in now's location. Missing dates yield UNKNOWN.
func ClassifyCampaign(start, end *time.Time, now time.Time) CampaignStatus {
	if start == nil || end == nil || start.IsZero() || end.IsZero() {
		return CampaignStatusUnknown
	}

	loc := now.Location()
	today := startOfDay(now, loc)
	from := startOfDay(*start, loc)
	to := startOfDay(*end, loc)

	switch {
	case today.Before(from):
		return CampaignStatusUpcoming
	case !today.Before(from) && !today.After(to):
		return CampaignStatusActive
	case today.After(to):
		return CampaignStatusCompleted
	}
	return CampaignStatusUnknown
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

type CampaignCounts struct {
	Assigned  int `json:"assigned"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Upcoming  int `json:"upcoming"`
	Unknown   int `json:"unknown"`
}

type CampaignBuckets struct {
	Active    []Campaign `json:"active"`
	Completed []Campaign `json:"completed"`
	Upcoming  []Campaign `json:"upcoming"`
	Unknown   []Campaign `json:"unknown"`
}

type CampaignAggregate struct {
	Campaigns CampaignBuckets `json:"campaigns"`
	Stats     CampaignCounts  `json:"stats"`
}

// AggregateCampaigns classifies every campaign and partitions them by status.
// Input order is preserved inside each bucket and every campaign lands in
// exactly one bucket, so Stats.Assigned always equals the sum of the buckets.
func AggregateCampaigns(campaigns []Campaign, now time.Time) CampaignAggregate {
	agg := CampaignAggregate{
		Campaigns: CampaignBuckets{
			Active:    make([]Campaign, 0),
			Completed: make([]Campaign, 0),
			Upcoming:  make([]Campaign, 0),
			Unknown:   make([]Campaign, 0),
		},
	}

	for _, c := range campaigns {
		c = c.WithStatus(now)
		switch c.Status {
		case CampaignStatusActive:
			agg.Campaigns.Active = append(agg.Campaigns.Active, c)
		case CampaignStatusCompleted:
			agg.Campaigns.Completed = append(agg.Campaigns.Completed, c)
		case CampaignStatusUpcoming:
			agg.Campaigns.Upcoming = append(agg.Campaigns.Upcoming, c)
		default:
			agg.Campaigns.Unknown = append(agg.Campaigns.Unknown, c)
		}
	}

	agg.Stats = CampaignCounts{
		Assigned:  len(campaigns),
		Active:    len(agg.Campaigns.Active),
		Completed: len(agg.Campaigns.Completed),
		Upcoming:  len(agg.Campaigns.Upcoming),
		Unknown:   len(agg.Campaigns.Unknown),
	}
	return agg
}

// FilterByStatus returns the campaigns (with Status computed) matching status.
func FilterByStatus(campaigns []Campaign, status CampaignStatus, now time.Time) []Campaign {
	out := make([]Campaign, 0, len(campaigns))
	for _, c := range campaigns {
		c = c.WithStatus(now)
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out
}
