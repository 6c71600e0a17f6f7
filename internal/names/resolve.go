package names

import (
	"sort"
	"strings"
)

// Thresholds for the fuzzy passes.
const (
	LastNameThreshold = 0.90
	FullNameThreshold = 0.60

	minLastNameLen = 3
	lastNameWeight = 0.95
	substringScore = 0.85
)

type entry struct {
	canonical string
	norm      string
	last      string
}

// Resolver maps free-text player names to canonical directory names. It is
// immutable and safe for concurrent use.
type Resolver struct {
	entries []entry
	exact   map[string]string
}

// NewResolver indexes the given canonical names.
func NewResolver(canonical []string) *Resolver {
	r := &Resolver{exact: make(map[string]string, len(canonical))}
	for _, name := range canonical {
		n := Normalize(name)
		if n == "" {
			continue
		}
		if _, dup := r.exact[n]; !dup {
			r.exact[n] = name
		}
		r.entries = append(r.entries, entry{canonical: name, norm: n, last: lastName(n)})
	}
	sort.SliceStable(r.entries, func(i, j int) bool { return r.entries[i].norm < r.entries[j].norm })
	return r
}

// Len returns the number of indexed names.
func (r *Resolver) Len() int { return len(r.entries) }

// Resolve returns the canonical name for text, or false when no candidate
// is close enough or the candidate's last name disagrees with text.
func (r *Resolver) Resolve(text string) (string, bool) {
	n := Normalize(text)
	if n == "" {
		return "", false
	}
	last := lastName(n)

	e, ok := r.lookup(n, last)
	if !ok {
		return "", false
	}
	if e.last != last && Ratio(e.last, last) < LastNameThreshold {
		return "", false
	}
	return e.canonical, true
}

func (r *Resolver) lookup(n, last string) (entry, bool) {
	if name, ok := r.exact[n]; ok {
		return entry{canonical: name, norm: n, last: last}, true
	}

	if len(last) >= minLastNameLen {
		if e, ok := r.byLastName(n, last); ok {
			return e, true
		}

		var (
			best      entry
			bestScore float64
		)
		for _, e := range r.entries {
			if s := Ratio(last, e.last); s > bestScore {
				best, bestScore = e, s
			}
		}
		if bestScore >= LastNameThreshold {
			return best, true
		}
	}

	var (
		best      entry
		bestScore float64
	)
	for _, e := range r.entries {
		score := Ratio(n, e.norm)
		if s := Ratio(last, e.last) * lastNameWeight; s > score {
			score = s
		}
		if (strings.Contains(e.norm, n) || strings.Contains(n, e.norm)) && substringScore > score {
			score = substringScore
		}
		if score > bestScore {
			best, bestScore = e, score
		}
	}
	if bestScore >= FullNameThreshold {
		return best, true
	}
	return entry{}, false
}

// byLastName returns an exact last-name hit, preferring a matching first
// initial when text carries one.
func (r *Resolver) byLastName(n, last string) (entry, bool) {
	var hits []entry
	for _, e := range r.entries {
		if e.last == last {
			hits = append(hits, e)
		}
	}
	if len(hits) == 0 {
		return entry{}, false
	}
	if initial, ok := firstInitial(n); ok {
		for _, e := range hits {
			if e.norm[0] == initial {
				return e, true
			}
		}
	}
	return hits[0], true
}
