// Package grouper keeps at most one trade per match.
//
// Listings of one event are the same match asked from either player's side,
// so buying YES on one and NO on the other is a single position taken twice.
// For multi-listing events the listing asked about the player the raw model
// favors is kept, and only when no other tradable listing of that event
// offers a higher expected value.
package grouper

import (
	"sort"

	"github.com/rickgao/kalshi-tennis/internal/model"
)

// Decision reasons.
const (
	ReasonSingle        = "single"
	ReasonFavored       = "favored"
	ReasonFallback      = "fallback_best_ev"
	ReasonNoTradable    = "no_tradable"
	ReasonFavoredAbsent = "favored_not_tradable"
	ReasonConflict      = "better_ev_elsewhere"
	ReasonAmbiguous     = "ambiguous_favorite"
)

// EventDecision is the outcome for one event.
type EventDecision struct {
	EventTicker string
	Listings    int
	Selected    *model.Analysis // nil when the event is skipped
	Reason      string
}

// Group returns the selected analysis of every event, in order of first
// appearance. minEdge is the minimum trade value.
func Group(analyses []model.Analysis, minEdge float64) []model.Analysis {
	var out []model.Analysis
	for _, d := range Explain(analyses, minEdge) {
		if d.Selected != nil {
			out = append(out, *d.Selected)
		}
	}
	return out
}

// Explain returns one decision per event.
func Explain(analyses []model.Analysis, minEdge float64) []EventDecision {
	var (
		order  []string
		events = make(map[string][]model.Analysis)
	)
	for _, a := range analyses {
		key := a.EventTicker
		if key == "" {
			key = a.Ticker
		}
		if _, seen := events[key]; !seen {
			order = append(order, key)
		}
		events[key] = append(events[key], a)
	}

	decisions := make([]EventDecision, 0, len(order))
	for _, key := range order {
		d := decide(events[key], minEdge)
		d.EventTicker = key
		decisions = append(decisions, d)
	}
	return decisions
}

func decide(group []model.Analysis, minEdge float64) EventDecision {
	d := EventDecision{Listings: len(group)}

	var candidates []model.Analysis
	for _, a := range group {
		if a.Tradable && a.TradeValue >= minEdge {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		d.Reason = ReasonNoTradable
		return d
	}

	// Highest expected value first, ticker for a stable order.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].ExpectedValue != candidates[j].ExpectedValue {
			return candidates[i].ExpectedValue > candidates[j].ExpectedValue
		}
		return candidates[i].Ticker < candidates[j].Ticker
	})

	if len(group) == 1 {
		d.Selected, d.Reason = &candidates[0], ReasonSingle
		return d
	}

	favored, ok, consistent := favoredPlayer(group)
	switch {
	case !consistent:
		d.Reason = ReasonAmbiguous
		return d
	case !ok:
		d.Selected, d.Reason = &candidates[0], ReasonFallback
		return d
	}

	for i := range candidates {
		if candidates[i].AskedPlayer != favored {
			continue
		}
		if candidates[i].ExpectedValue < candidates[0].ExpectedValue {
			d.Reason = ReasonConflict
			return d
		}
		d.Selected, d.Reason = &candidates[i], ReasonFavored
		return d
	}
	d.Reason = ReasonFavoredAbsent
	return d
}

// favoredPlayer reads the raw model favorite from every analysis that ran
// the predictor. consistent is false when they disagree.
func favoredPlayer(group []model.Analysis) (name string, ok, consistent bool) {
	for _, a := range group {
		f, has := a.FavoredPlayer()
		if !has {
			continue
		}
		if ok && f != name {
			return "", false, false
		}
		name, ok = f, true
	}
	return name, ok, true
}
