package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestTimingMerge(t *testing.T) {
	a := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	b := time.Date(2026, 1, 3, 15, 0, 0, 0, time.UTC)

	base := Timing{Close: &a}
	merged := base.Merge(Timing{Close: &b, MatchStart: &b})

	if merged.Close != &a {
		t.Errorf("Close = %v, want existing value %v", merged.Close, a)
	}
	if merged.MatchStart == nil || !merged.MatchStart.Equal(b) {
		t.Errorf("MatchStart = %v, want %v", merged.MatchStart, b)
	}
	if merged.IsZero() {
		t.Error("IsZero() = true for merged timing")
	}
	if !(Timing{}).IsZero() {
		t.Error("IsZero() = false for empty timing")
	}
}

func TestOrderbookAsks(t *testing.T) {
	t.Run("derived from opposite bids", func(t *testing.T) {
		ob := &Orderbook{
			Yes: [][2]int{{60, 10}, {59, 5}},
			No:  [][2]int{{36, 20}},
		}
		if ask, ok := ob.BestYesAsk(); !ok || ask != 64 {
			t.Errorf("BestYesAsk() = %d, %v, want 64, true", ask, ok)
		}
		if ask, ok := ob.BestNoAsk(); !ok || ask != 40 {
			t.Errorf("BestNoAsk() = %d, %v, want 40, true", ask, ok)
		}
	})

	t.Run("empty and nil books", func(t *testing.T) {
		var nilBook *Orderbook
		if _, ok := nilBook.BestYesAsk(); ok {
			t.Error("BestYesAsk() on nil book should report false")
		}
		if _, ok := (&Orderbook{}).BestNoAsk(); ok {
			t.Error("BestNoAsk() on empty book should report false")
		}
	})
}

func TestAnalysisFavoredPlayer(t *testing.T) {
	p := func(v float64) *float64 { return &v }

	tests := []struct {
		name   string
		raw    *float64
		want   string
		wantOK bool
	}{
		{"no raw probability", nil, "", false},
		{"player one favored", p(0.64), "Novak Djokovic", true},
		{"even money goes to player one", p(0.5), "Novak Djokovic", true},
		{"player two favored", p(0.31), "Rafael Nadal", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Analysis{Player1: "Novak Djokovic", Player2: "Rafael Nadal", RawP1Wins: tt.raw}
			got, ok := a.FavoredPlayer()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("FavoredPlayer() = %q, %v, want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestEventTimingJSONIsFlat(t *testing.T) {
	start := time.Date(2026, 1, 3, 18, 0, 0, 0, time.UTC)
	et := EventTiming{EventTicker: "KXATPMATCH-26JAN03NAVTHO", Timing: Timing{MatchStart: &start}}

	data, err := json.Marshal(et)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"match_start_time":"2026-01-03T18:00:00Z"`) {
		t.Errorf("json = %s, want flat match_start_time field", s)
	}
	if strings.Contains(s, `"close_time"`) {
		t.Errorf("json = %s, unset fields should be omitted", s)
	}
}
