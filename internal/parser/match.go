package parser

import (
	"cmp"
	"strings"

	"github.com/agnivade/levenshtein"
)

// MatchKind tells how a word was resolved.
type MatchKind uint8

const (
	MatchNone MatchKind = iota
	MatchExact
	MatchPrefix
	MatchFuzzy
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchPrefix:
		return "prefix"
	case MatchFuzzy:
		return "fuzzy"
	}
	return "none"
}

// Match is a resolved candidate.
type Match struct {
	Name string
	Kind MatchKind
	// Ambiguous is set when several candidates matched equally well
	// and the tie-break picked one.
	Ambiguous bool
	Distance  int
}

// Match resolves word against candidates: exact, then prefix, then fuzzy.
// Ties go to the shortest candidate, then the lexicographically smallest.
func (p *Parser) Match(word string, candidates []string) (Match, bool) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return Match{}, false
	}

	for _, c := range candidates {
		if strings.ToLower(c) == word {
			return Match{Name: c, Kind: MatchExact}, true
		}
	}

	if len(word) >= p.cfg.MinAbbrev {
		var best string
		n := 0
		for _, c := range candidates {
			if strings.HasPrefix(strings.ToLower(c), word) {
				n++
				if n == 1 || preferred(c, best) {
					best = c
				}
			}
		}
		if n > 0 {
			return Match{Name: best, Kind: MatchPrefix, Ambiguous: n > 1}, true
		}
	}

	if p.cfg.MaxEditDistance <= 0 {
		return Match{}, false
	}
	var (
		best     string
		bestDist = p.cfg.MaxEditDistance + 1
		n        int
	)
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(word, strings.ToLower(c))
		// A distance equal to the word length would match anything that short.
		if d > p.cfg.MaxEditDistance || d >= len(word) {
			continue
		}
		switch {
		case d < bestDist:
			best, bestDist, n = c, d, 1
		case d == bestDist:
			n++
			if preferred(c, best) {
				best = c
			}
		}
	}
	if n == 0 {
		return Match{}, false
	}
	return Match{Name: best, Kind: MatchFuzzy, Ambiguous: n > 1, Distance: bestDist}, true
}

// preferred reports whether a beats b under the tie-break policy.
func preferred(a, b string) bool {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c < 0
	}
	return a < b
}
