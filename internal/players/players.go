// Package players provides the player directory and win-probability
// predictor consumed by the analyzer.
package players

import (
	"context"
	"strings"
)

// Surface is a court surface.
type Surface string

const (
	Hard  Surface = "hard"
	Clay  Surface = "clay"
	Grass Surface = "grass"
)

// Stats is the per-player input to the predictor.
type Stats struct {
	Elo           float64             `json:"elo" yaml:"elo"`
	SurfaceElo    map[Surface]float64 `json:"surface_elo" yaml:"surface_elo"`
	Age           float64             `json:"age" yaml:"age"`
	Height        float64             `json:"height" yaml:"height"` // cm
	RecentWinRate float64             `json:"recent_win_rate" yaml:"recent_win_rate"`
}

// SurfaceRating returns the surface Elo, falling back to overall Elo.
func (s Stats) SurfaceRating(surface Surface) float64 {
	if v, ok := s.SurfaceElo[surface]; ok {
		return v
	}
	return s.Elo
}

// Directory looks up players by canonical name.
type Directory interface {
	// FindPlayer returns the id for a canonical name.
	FindPlayer(name string) (string, bool)
	GetStats(id string) (Stats, bool)
	// GetH2H returns a's head-to-head win rate minus b's, in [-1, 1].
	GetH2H(a, b string) float64
	// Names lists every canonical name.
	Names() []string
}

// Features is the model input for one match, framed from player one's
// side. Differences are player one minus player two.
type Features struct {
	EloDiff           float64
	SurfaceEloDiff    float64
	AgeDiff           float64
	HeightDiff        float64
	RecentWinRateDiff float64
	H2HWinRateDiff    float64

	IsClay   bool
	IsGrass  bool
	IsHard   bool
	IsIndoor bool
	BestOf5  bool

	RoundCode    int // 1 first round .. 7 final
	TourneyLevel int // 2 tour, 3 masters, 4 grand slam
}

// Map returns the features keyed by model column name.
func (f Features) Map() map[string]float64 {
	b := func(v bool) float64 {
		if v {
			return 1
		}
		return 0
	}
	return map[string]float64{
		"elo_diff":             f.EloDiff,
		"surface_elo_diff":     f.SurfaceEloDiff,
		"age_diff":             f.AgeDiff,
		"height_diff":          f.HeightDiff,
		"recent_win_rate_diff": f.RecentWinRateDiff,
		"h2h_winrate_diff":     f.H2HWinRateDiff,
		"is_clay":              b(f.IsClay),
		"is_grass":             b(f.IsGrass),
		"is_hard":              b(f.IsHard),
		"is_indoor":            b(f.IsIndoor),
		"best_of_5":            b(f.BestOf5),
		"round_code":           float64(f.RoundCode),
		"tourney_level_code":   float64(f.TourneyLevel),
	}
}

// Predictor returns P(player one wins) in [0, 1].
type Predictor interface {
	Predict(ctx context.Context, f Features) (float64, error)
}

func key(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
