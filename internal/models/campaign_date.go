package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Layouts tried for string dates without a zone, interpreted in the caller's
// location.
var localDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// maxSafeMillis is the largest integer a float64 holds exactly.
const maxSafeMillis = 1 << 53

type structuralTimestamp struct {
	Seconds      *int64 `json:"seconds"`
	Nanoseconds  int64  `json:"nanoseconds"`
	USeconds     *int64 `json:"_seconds"`
	UNanoseconds int64  `json:"_nanoseconds"`
}

// ParseCampaignDate normalizes a raw upstream date value into an instant.
// Accepted shapes: {"seconds": N} (or "_seconds"), a number of milliseconds
// since epoch, or a date string. Anything else yields nil.
func ParseCampaignDate(raw json.RawMessage, loc *time.Location) *time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	switch raw[0] {
	case '{':
		var ts structuralTimestamp
		if err := json.Unmarshal(raw, &ts); err != nil {
			return nil
		}
		switch {
		case ts.Seconds != nil:
			return inDateRange(time.Unix(*ts.Seconds, ts.Nanoseconds))
		case ts.USeconds != nil:
			return inDateRange(time.Unix(*ts.USeconds, ts.UNanoseconds))
		}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return parseDateString(s, loc)
	default:
		var ms float64
		if err := json.Unmarshal(raw, &ms); err != nil {
			return nil
		}
		if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxSafeMillis {
			return nil
		}
		return inDateRange(time.UnixMilli(int64(ms)))
	}
}

func parseDateString(s string, loc *time.Location) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return inDateRange(t)
	}
	for _, layout := range localDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return inDateRange(t)
		}
	}
	return nil
}

// DateInRange reports whether t falls in years 0..9999 UTC, the span that
// encodes as JSON and fits timestamptz.
func DateInRange(t time.Time) bool {
	y := t.UTC().Year()
	return y >= 0 && y <= 9999
}

// inDateRange treats unrepresentable instants as absent.
func inDateRange(t time.Time) *time.Time {
	if !DateInRange(t) {
		return nil
	}
	return &t
}
