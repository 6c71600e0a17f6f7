package analyzer

import (
	"strings"

	"github.com/rickgao/kalshi-tennis/internal/model"
	"github.com/rickgao/kalshi-tennis/internal/players"
)

// Round codes.
const (
	RoundFirst   = 1
	Round64      = 2
	Round32      = 3
	Round16      = 4
	RoundQuarter = 5
	RoundSemi    = 6
	RoundFinal   = 7
)

// Tournament level codes.
const (
	LevelTour    = 2
	LevelMasters = 3
	LevelSlam    = 4
)

// MatchContext is what the listing text says about the match.
type MatchContext struct {
	Surface players.Surface
	Indoor  bool
	BestOf5 bool
	Round   int
	Level   int
}

var slamWords = []string{"grand slam", "australian open", "french open", "roland garros", "wimbledon", "us open"}

// ordered so that "quarterfinal" and "semifinal" win over "final"
var roundWords = []struct {
	word string
	code int
}{
	{"quarterfinal", RoundQuarter},
	{"quarter-final", RoundQuarter},
	{"semifinal", RoundSemi},
	{"semi-final", RoundSemi},
	{"round of 128", RoundFirst},
	{"first round", RoundFirst},
	{"1st round", RoundFirst},
	{"round of 64", Round64},
	{"round of 32", Round32},
	{"round of 16", Round16},
	{"final", RoundFinal},
}

// InferContext reads surface, round and tournament tier from listing text.
// Defaults are hard court, tour level and final round.
func InferContext(l model.Listing) MatchContext {
	text := strings.ToLower(strings.Join([]string{
		l.SeriesTitle, l.Title, l.Subtitle, l.YesSubtitle, l.SeriesTicker, l.Ticker,
	}, " "))

	c := MatchContext{Surface: players.Hard, Round: RoundFinal, Level: LevelTour}

	switch {
	case containsAny(text, "clay", "roland garros", "french open"):
		c.Surface = players.Clay
	case containsAny(text, "grass", "wimbledon"):
		c.Surface = players.Grass
	}
	c.Indoor = strings.Contains(text, "indoor")

	for _, r := range roundWords {
		if strings.Contains(text, r.word) {
			c.Round = r.code
			break
		}
	}

	switch {
	case containsAny(text, slamWords...):
		c.Level = LevelSlam
	case containsAny(text, "masters", "1000"):
		c.Level = LevelMasters
	}

	c.BestOf5 = c.Level == LevelSlam && strings.Contains(text, "atp") && !strings.Contains(text, "wta")
	return c
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
