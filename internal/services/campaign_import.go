package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/promoter-dashboard/backend/internal/models"
	"github.com/promoter-dashboard/backend/internal/richtext"
)

// campaignDocument is a campaign as exported from the legacy document store.
// Field names follow that store, typos included.
type campaignDocument struct {
	ID                string          `json:"id"`
	DocID             string          `json:"docId"`
	CampaignName      string          `json:"campaignName"`
	Description       string          `json:"description"`
	CampaignCategries []string        `json:"campaignCategries"`
	CampaignFormat    string          `json:"campaignFormat"`
	CampaignObjective string          `json:"campaignObjective"`
	Reward            json.RawMessage `json:"reward"`
	CampaignBudget    json.RawMessage `json:"campaignBudget"`
	TargetSamplings   json.RawMessage `json:"targetSamplings"`
	TargetScans       json.RawMessage `json:"targetScans"`
	StartDate         json.RawMessage `json:"startDate"`
	EndDate           json.RawMessage `json:"endDate"`
	// Nil when the document has no promoters field.
	Promoters *[]struct {
		PromoterID string `json:"promoterId"`
	} `json:"promoters"`
}

func (d *campaignDocument) externalID() string {
	if d.ID != "" {
		return d.ID
	}
	return d.DocID
}

// decodeCampaignDocument normalizes one exported document into a Campaign
// plus the upstream promoter ids it was assigned to.
func decodeCampaignDocument(raw json.RawMessage, loc *time.Location) (*models.Campaign, []string, error) {
	var doc campaignDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	extID := doc.externalID()
	if extID == "" {
		return nil, nil, fmt.Errorf("%w: document has no id", ErrInvalidInput)
	}

	var full map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&full); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	c := &models.Campaign{
		ExternalID:      &extID,
		Name:            strings.TrimSpace(doc.CampaignName),
		Description:     richtext.PlainText(doc.Description),
		Format:          strings.TrimSpace(doc.CampaignFormat),
		Objective:       strings.TrimSpace(doc.CampaignObjective),
		Reward:          flexString(doc.Reward),
		Budget:          flexFloat(doc.CampaignBudget),
		TargetSamplings: flexCount(doc.TargetSamplings),
		TargetScans:     flexCount(doc.TargetScans),
		StartDate:       models.ParseCampaignDate(doc.StartDate, loc),
		EndDate:         models.ParseCampaignDate(doc.EndDate, loc),
		FullData:        full,
	}
	if len(doc.CampaignCategries) > 0 {
		c.Category = strings.TrimSpace(doc.CampaignCategries[0])
	}
	c.ApplyDefaults()

	if doc.Promoters == nil {
		return c, nil, nil
	}
	promoterIDs := make([]string, 0, len(*doc.Promoters))
	for _, p := range *doc.Promoters {
		if id := strings.TrimSpace(p.PromoterID); id != "" {
			promoterIDs = append(promoterIDs, id)
		}
	}
	return c, promoterIDs, nil
}

func rawString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func rawNumber(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

// flexString renders a string or number field as display text.
func flexString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	if s, ok := rawString(raw); ok {
		return s
	}
	if f, ok := rawNumber(raw); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

// flexFloat returns 0 for anything that is not a finite number.
func flexFloat(raw json.RawMessage) float64 {
	if f, ok := rawNumber(raw); ok {
		return f
	}
	if s, ok := rawString(raw); ok {
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}
	return 0
}

// flexCount accepts numbers and human counters like "1,200" or "1.5K".
func flexCount(raw json.RawMessage) int64 {
	if f, ok := rawNumber(raw); ok {
		if math.Abs(f) > richtext.MaxCount {
			return 0
		}
		return int64(f)
	}
	if s, ok := rawString(raw); ok {
		return richtext.ParseCount(s)
	}
	return 0
}
