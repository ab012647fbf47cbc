package models

import "math"

type CampaignProgress struct {
	TotalProducts  int64 `json:"total_products"`
	Distributed    int64 `json:"distributed"`
	Remaining      int64 `json:"remaining"`
	CompletionRate int   `json:"completion_rate"` // percent
}

// ComputeProgress derives distribution progress from the campaign targets.
// Remaining never goes below zero; overdrawn reports that scans exceeded
// samplings so the caller can flag the record.
func ComputeProgress(targetSamplings, targetScans int64) (p CampaignProgress, overdrawn bool) {
	if targetSamplings < 0 {
		targetSamplings = 0
		overdrawn = true
	}
	if targetScans < 0 {
		targetScans = 0
		overdrawn = true
	}

	p.TotalProducts = targetSamplings
	p.Distributed = targetScans
	p.Remaining = targetSamplings - targetScans
	if p.Remaining < 0 {
		p.Remaining = 0
		overdrawn = true
	}
	if targetSamplings > 0 {
		p.CompletionRate = int(math.Round(float64(targetScans) / float64(targetSamplings) * 100))
	}
	return p, overdrawn
}
