package discovery

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/rickgao/kalshi-tennis/internal/model"
)

// Layer names, in evaluation order.
const (
	LayerSeriesCategory   = "series_category"
	LayerTennisKeywords   = "tennis_keywords"
	LayerMatchStructure   = "match_structure"
	LayerMarketStructure  = "market_structure"
	LayerExpirationWindow = "expiration_window"
	LayerLiquidity        = "liquidity"
)

// Decision is the outcome of Classify.
type Decision struct {
	Accepted bool
	Reason   string // "layer:detail" when rejected

	Start  *StartTime // Resolved start, nil when the listing has no timing
	Volume float64    // Normalized volume
}

func reject(layer, detail string) Decision {
	return Decision{Reason: layer + ":" + detail}
}

// Pair is one listing with the timing of its event.
type Pair struct {
	Event   model.EventTiming
	Listing model.Listing
}

// Accepted is a listing that passed every layer.
type Accepted struct {
	Listing model.Listing
	Start   *StartTime
	Volume  float64
}

// Rejected is a listing with its rejection reason.
type Rejected struct {
	Listing model.Listing
	Reason  string
}

// PairsFromSnapshot pairs every listing with its event timing.
func PairsFromSnapshot(snap *model.Snapshot) []Pair {
	if snap == nil {
		return nil
	}
	pairs := make([]Pair, 0, len(snap.Listings))
	for _, l := range snap.Listings {
		ev, ok := snap.EventTiming[l.EventTicker]
		if !ok {
			ev = model.EventTiming{EventTicker: l.EventTicker}
		}
		pairs = append(pairs, Pair{Event: ev, Listing: l})
	}
	return pairs
}

// Classify runs the six layers against one listing.
func Classify(ev model.EventTiming, l model.Listing, cfg Config, now time.Time) Decision {
	ev.Timing = ev.Timing.Merge(l.Timing)

	hinted := seriesHint(l, cfg)

	if reason, ok := checkKeywords(l, cfg, hinted); !ok {
		return reject(LayerTennisKeywords, reason)
	}
	if reason, ok := checkMatchStructure(l, cfg); !ok {
		return reject(LayerMatchStructure, reason)
	}
	if reason, ok := checkMarketStructure(l); !ok {
		return reject(LayerMarketStructure, reason)
	}

	var start *StartTime
	if st, ok := ResolveStart(ev, cfg); ok {
		if reason, ok := checkWindow(st, cfg, now); !ok {
			return reject(LayerExpirationWindow, reason)
		}
		start = &st
	}

	volume := NormalizeVolume(float64(l.Volume))
	if volume < cfg.MinVolume {
		return reject(LayerLiquidity, fmt.Sprintf("too_low_%.0f", volume))
	}

	return Decision{Accepted: true, Start: start, Volume: volume}
}

// Partition classifies every pair. Accepted listings come back soonest start
// first, then highest volume; listings without timing sort last.
func Partition(pairs []Pair, cfg Config, now time.Time) ([]Accepted, []Rejected) {
	var (
		accepted []Accepted
		rejected []Rejected
	)
	for _, p := range pairs {
		d := Classify(p.Event, p.Listing, cfg, now)
		if !d.Accepted {
			rejected = append(rejected, Rejected{Listing: p.Listing, Reason: d.Reason})
			continue
		}
		accepted = append(accepted, Accepted{Listing: p.Listing, Start: d.Start, Volume: d.Volume})
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		a, b := accepted[i], accepted[j]
		switch {
		case a.Start != nil && b.Start == nil:
			return true
		case a.Start == nil && b.Start != nil:
			return false
		case a.Start != nil && !a.Start.Time.Equal(b.Start.Time):
			return a.Start.Time.Before(b.Start.Time)
		case a.Volume != b.Volume:
			return a.Volume > b.Volume
		default:
			return a.Listing.Ticker < b.Listing.Ticker
		}
	})
	return accepted, rejected
}

// FilterAll returns only the accepted listings, ordered as in Partition.
func FilterAll(pairs []Pair, cfg Config, now time.Time) []Accepted {
	accepted, _ := Partition(pairs, cfg, now)
	return accepted
}

// Layer 1. A hit waives the keyword requirement of layer 2, never its
// exclusion list.
func seriesHint(l model.Listing, cfg Config) bool {
	series := strings.ToLower(l.SeriesTicker)
	tickerPrefix, _, _ := strings.Cut(strings.ToLower(l.Ticker), "-")
	for _, p := range cfg.SeriesPrefixes {
		p = strings.ToLower(p)
		if p == "" {
			continue
		}
		if (series != "" && strings.Contains(series, p)) || (tickerPrefix != "" && strings.Contains(tickerPrefix, p)) {
			return true
		}
	}

	category := strings.ToLower(l.Category)
	if strings.Contains(category, "tennis") {
		return true
	}
	return strings.Contains(category, "sports") && strings.Contains(strings.ToLower(l.SeriesTitle), "tennis")
}

// Layer 2.
func checkKeywords(l model.Listing, cfg Config, hinted bool) (string, bool) {
	text := strings.ToLower(strings.Join([]string{
		l.SeriesTitle, l.Title, l.Subtitle, l.YesSubtitle, l.SeriesTicker, l.Ticker,
	}, " "))

	for _, kw := range cfg.ExcludedKeywords {
		if containsWord(text, strings.ToLower(kw)) {
			return "excluded_" + slug(kw), false
		}
	}
	if hinted {
		return "", true
	}
	for _, kw := range cfg.Keywords {
		if containsWord(text, strings.ToLower(kw)) {
			return "", true
		}
	}
	for _, p := range cfg.SeriesPrefixes {
		if p != "" && strings.Contains(text, strings.ToLower(p)) {
			return "", true
		}
	}
	return "no_keyword", false
}

var matchSeparators = []string{" vs ", " vs. ", " v. ", " v "}

// Layer 3. Only the title is inspected.
func checkMatchStructure(l model.Listing, cfg Config) (string, bool) {
	title := " " + strings.ToLower(strings.Join(strings.Fields(l.Title), " ")) + " "

	found := false
	for _, sep := range matchSeparators {
		if strings.Contains(title, sep) {
			found = true
			break
		}
	}
	if !found {
		return "no_vs", false
	}

	for _, ex := range cfg.ExcludedTournaments {
		if ex != "" && strings.Contains(title, strings.ToLower(ex)) {
			return "excluded_" + slug(ex), false
		}
	}
	return "", true
}

// Layer 4.
func checkMarketStructure(l model.Listing) (string, bool) {
	status := strings.ToLower(l.Status)
	if status != "open" && status != "active" {
		if status == "" {
			status = "unknown"
		}
		return "status_" + status, false
	}
	if l.YesBid <= 0 && l.YesAsk <= 0 && l.LastPrice <= 0 {
		return "no_yes_price", false
	}
	if l.NoBid <= 0 && l.NoAsk <= 0 && (l.LastPrice <= 0 || l.LastPrice >= 100) {
		return "no_no_price", false
	}
	return "", true
}

// Layer 5.
func checkWindow(st StartTime, cfg Config, now time.Time) (string, bool) {
	d := st.Time.Sub(now)
	switch {
	case d > cfg.ImplausibleAfter:
		return "implausible", false
	case d < -cfg.PastGrace:
		return "past", false
	case !st.Estimated && d < cfg.MinStartBuffer:
		return "too_soon", false
	case d > cfg.Horizon:
		return fmt.Sprintf("too_far_%.1fh", math.Round(d.Hours()*10)/10), false
	}
	return "", true
}

// containsWord reports whether word occurs in text bounded by non
// alphanumeric characters.
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for i := 0; ; {
		j := strings.Index(text[i:], word)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(word)
		if isBoundary(text, start-1) && isBoundary(text, end) {
			return true
		}
		i = start + 1
	}
}

func isBoundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	r := rune(text[i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}
