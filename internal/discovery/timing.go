package discovery

import (
	"time"

	"github.com/rickgao/kalshi-tennis/internal/model"
)

// StartTime is a resolved match start.
type StartTime struct {
	Time      time.Time
	Field     string // Timing field it came from
	Estimated bool   // Derived from an expiration-style field
}

type timingField struct {
	name string
	get  func(model.Timing) *time.Time
}

// Explicit start fields, highest priority first.
var explicitFields = []timingField{
	{"match_start_time", func(t model.Timing) *time.Time { return t.MatchStart }},
	{"start_time", func(t model.Timing) *time.Time { return t.Start }},
	{"scheduled_time", func(t model.Timing) *time.Time { return t.Scheduled }},
	{"expected_start_time", func(t model.Timing) *time.Time { return t.ExpectedStart }},
}

// Last-resort fields; the expiration offset is subtracted from these.
var estimatedFields = []timingField{
	{"expected_expiration_time", func(t model.Timing) *time.Time { return t.ExpectedExpiration }},
	{"expiration_time", func(t model.Timing) *time.Time { return t.Expiration }},
	{"close_time", func(t model.Timing) *time.Time { return t.Close }},
	{"event_close_time", func(t model.Timing) *time.Time { return t.EventClose }},
}

// ResolveStart picks the best available start time for an event. It returns
// false when no timing field is set.
func ResolveStart(ev model.EventTiming, cfg Config) (StartTime, bool) {
	for _, f := range explicitFields {
		if t := f.get(ev.Timing); t != nil {
			return StartTime{Time: t.UTC(), Field: f.name}, true
		}
	}
	for _, f := range estimatedFields {
		if t := f.get(ev.Timing); t != nil {
			return StartTime{Time: t.UTC().Add(-cfg.ExpirationOffset), Field: f.name, Estimated: true}, true
		}
	}
	return StartTime{}, false
}

// NormalizeVolume converts a raw volume to major units. Values above 1000
// are taken as minor units.
func NormalizeVolume(raw float64) float64 {
	if raw > 1000 {
		return raw / 100
	}
	return raw
}
