// Package match provides approximate name matching used to reconcile
// student identities across subject sheets. The similarity strategy is
// injectable so alternative algorithms can be swapped without touching
// the consolidator.
package match

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the minimum similarity score for two spellings to
// be treated as the same student.
const DefaultThreshold = 0.80

// Scorer computes a normalized similarity score in [0, 1] between two
// names. 1 means identical after normalization.
type Scorer interface {
	Similarity(a, b string) float64
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(a, b string) float64

// Similarity implements Scorer.
func (f ScorerFunc) Similarity(a, b string) float64 {
	return f(a, b)
}

// NameScorer is the default scorer: case-insensitive, whitespace
// collapsed, and the better of an edit-distance ratio over the whole
// string and a token-set ratio. The token-set component keeps swapped
// name orders ("Omar Ali" vs "Ali Omar") from scoring as strangers.
type NameScorer struct{}

// NewNameScorer creates the default scorer.
func NewNameScorer() *NameScorer {
	return &NameScorer{}
}

// Similarity implements Scorer.
func (s *NameScorer) Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		if na == nb {
			return 1
		}
		return 0
	}
	if na == nb {
		return 1
	}

	edit := editRatio(na, nb)
	tokens := tokenSetRatio(na, nb)
	if tokens > edit {
		return tokens
	}
	return edit
}

// Normalize lowercases a name and collapses internal whitespace so that
// spacing and casing differences never count against similarity.
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// editRatio converts Levenshtein distance to a similarity in [0, 1].
func editRatio(a, b string) float64 {
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// tokenSetRatio scores the overlap of the two names' word sets, with
// non-shared tokens compared pairwise by edit ratio. Tokens are matched
// greedily in order, which keeps the result deterministic.
func tokenSetRatio(a, b string) float64 {
	ta, tb := strings.Fields(a), strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	used := make([]bool, len(tb))
	var sum float64
	for _, tok := range ta {
		best, bestIdx := 0.0, -1
		for j, other := range tb {
			if used[j] {
				continue
			}
			if r := editRatio(tok, other); r > best {
				best, bestIdx = r, j
			}
		}
		if bestIdx >= 0 {
			used[bestIdx] = true
			sum += best
		}
	}

	pairs := len(ta)
	if len(tb) > pairs {
		pairs = len(tb)
	}
	return sum / float64(pairs)
}

// Matcher finds the best approximate match for a candidate name inside
// a pool of known canonical spellings.
type Matcher struct {
	scorer    Scorer
	threshold float64
}

// NewMatcher creates a matcher with the given scorer and threshold.
// A nil scorer falls back to the default NameScorer; a non-positive
// threshold falls back to DefaultThreshold.
func NewMatcher(scorer Scorer, threshold float64) *Matcher {
	if scorer == nil {
		scorer = NewNameScorer()
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{scorer: scorer, threshold: threshold}
}

// Threshold returns the matcher's acceptance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match returns the pool member with the highest similarity to the
// candidate, provided the score reaches the threshold. The pool is
// scanned in slice order and only a strictly greater score replaces the
// current best, so ties resolve to the first-encountered member rather
// than map iteration order. The boolean is false when no member
// qualifies, meaning the candidate is a genuinely new identity.
func (m *Matcher) Match(candidate string, pool []string) (string, float64, bool) {
	bestScore := -1.0
	bestName := ""
	for _, name := range pool {
		score := m.scorer.Similarity(candidate, name)
		if score > bestScore {
			bestScore = score
			bestName = name
		}
	}
	if bestScore >= m.threshold && bestName != "" {
		return bestName, bestScore, true
	}
	return "", bestScore, false
}
