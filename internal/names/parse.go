package names

import (
	"regexp"
	"strings"
	"unicode"
)

// Pattern names reported in ParsedMatch.Pattern.
const (
	PatternWillWinThe = "will_win_the"
	PatternWillWin    = "will_win"
	PatternTournament = "tournament"
	PatternVersus     = "versus"
	PatternWinAgainst = "win_against"
)

// ParsedMatch is the raw name text extracted from a listing.
type ParsedMatch struct {
	PlayerA string
	PlayerB string
	Asked   string // Player the YES outcome is about
	Pattern string
}

// AskedIsB reports whether the asked player is PlayerB rather than PlayerA.
func (p ParsedMatch) AskedIsB() bool {
	na, nb, nk := Normalize(p.PlayerA), Normalize(p.PlayerB), Normalize(p.Asked)
	switch {
	case nk == nb:
		return true
	case nk == na:
		return false
	}
	lk := lastName(nk)
	switch {
	case lk == lastName(na):
		return false
	case lk == lastName(nb):
		return true
	}
	return Ratio(nk, nb) > Ratio(nk, na)
}

var (
	reWillWinThe = regexp.MustCompile(`(?i)^will\s+(.+?)\s+win\s+the\s+(.+)$`)
	reWillWin    = regexp.MustCompile(`(?i)^will\s+(.+?)\s+win\b`)
	reWinAgainst = regexp.MustCompile(`(?i)^(.+?)\s+to\s+win\s+against\s+(.+?)\s*[?.]?$`)
	reSeparator  = regexp.MustCompile(`(?i)\s(?:vs|v)\.?\s`)
	reTrailer    = regexp.MustCompile(`(?i)(?:\?|:|,|\s+match\b|\s+in\s+the\s|\s+at\s|\s+to\s+win\b)`)
	reEventTag   = regexp.MustCompile(`(?i)^(?:united\s+cup|davis\s+cup|atp|wta)\s+`)
)

var tournamentWords = map[string]bool{
	"cup": true, "open": true, "atp": true, "wta": true, "championship": true,
	"championships": true, "masters": true, "grand": true, "slam": true, "finals": true,
}

// Parse extracts both players and the asked player from a title and
// subtitle. The subtitle may be a "vs" fragment or the asked player's name.
func Parse(title, subtitle string) (ParsedMatch, bool) {
	title = strings.Join(strings.Fields(title), " ")
	subtitle = strings.Join(strings.Fields(subtitle), " ")

	if m := reWillWinThe.FindStringSubmatch(title); m != nil {
		if a, b, ok := splitVersus(m[2]); ok {
			if pm, ok := build(a, b, m[1], PatternWillWinThe); ok {
				return pm, true
			}
		}
	}

	if m := reWillWin.FindStringSubmatch(title); m != nil {
		asked := strings.TrimSpace(m[1])
		for _, frag := range []string{subtitle, title} {
			a, b, ok := splitVersus(frag)
			if !ok {
				continue
			}
			if a == "" {
				a = asked
			}
			if pm, ok := build(a, b, asked, PatternWillWin); ok {
				return pm, true
			}
		}
	}

	if left, right, ok := splitVersus(title); ok {
		words := strings.Fields(left)
		cut := -1
		for i := 0; i < len(words) && i < 3; i++ {
			if tournamentWords[strings.ToLower(strings.Trim(words[i], ":,"))] {
				cut = i
			}
		}
		pattern := PatternVersus
		if cut >= 0 {
			left = strings.Join(words[cut+1:], " ")
			pattern = PatternTournament
		}
		if pm, ok := build(left, right, "", pattern); ok {
			pm.Asked = askedFromSubtitle(subtitle, pm.PlayerA, pm.PlayerB)
			return pm, true
		}
	}

	if m := reWinAgainst.FindStringSubmatch(title); m != nil {
		if pm, ok := build(m[1], m[2], m[1], PatternWinAgainst); ok {
			return pm, true
		}
	}

	return ParsedMatch{}, false
}

// splitVersus splits s at its first "vs"-style separator. The left side may
// be empty, e.g. for a "vs Alcaraz" subtitle.
func splitVersus(s string) (string, string, bool) {
	padded := " " + s + " "
	loc := reSeparator.FindStringIndex(padded)
	if loc == nil {
		return "", "", false
	}
	return strings.TrimSpace(padded[:loc[0]]), strings.TrimSpace(padded[loc[1]:]), true
}

func build(a, b, asked, pattern string) (ParsedMatch, bool) {
	a = cleanLeft(a)
	b = cleanRight(b)
	asked = cleanLeft(asked)
	if !validName(a) || !validName(b) {
		return ParsedMatch{}, false
	}
	if asked == "" {
		asked = a
	}
	return ParsedMatch{PlayerA: a, PlayerB: b, Asked: asked, Pattern: pattern}, true
}

// cleanLeft keeps the text after the last "?" or ":" and drops an event tag
// prefix.
func cleanLeft(s string) string {
	if i := strings.LastIndexAny(s, "?:"); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(reEventTag.ReplaceAllString(strings.TrimSpace(s), ""))
}

// cleanRight cuts trailing match details such as ": Group E match?".
func cleanRight(s string) string {
	if loc := reTrailer.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return strings.TrimSpace(reEventTag.ReplaceAllString(strings.TrimSpace(s), ""))
}

func askedFromSubtitle(subtitle, a, b string) string {
	ns := Normalize(subtitle)
	if ns == "" {
		return a
	}
	last := lastName(ns)
	switch last {
	case lastName(Normalize(b)):
		return b
	case lastName(Normalize(a)):
		return a
	}
	return a
}

// validName accepts up to four words of letters, hyphens, apostrophes and
// periods.
func validName(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 || len(words) > 4 {
		return false
	}
	letters := 0
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letters++
		case r == '-' || r == '\'' || r == '.' || r == ' ':
		default:
			return false
		}
	}
	return letters > 0
}
