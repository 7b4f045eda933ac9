package match

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice", "alice"},
		{"  Alice   Smith ", "alice smith"},
		{"ALICE\tSMITH", "alice smith"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestNameScorerSimilarity(t *testing.T) {
	scorer := NewNameScorer()

	t.Run("identical strings score one", func(t *testing.T) {
		for _, name := range []string{"Alice", "alice smith", "O'Brien", ""} {
			assert.Equal(t, 1.0, scorer.Similarity(name, name))
		}
	})

	t.Run("case and whitespace are ignored", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.Similarity("Alice  Smith", "alice smith"))
	})

	t.Run("close spellings score high", func(t *testing.T) {
		score := scorer.Similarity("Alice", "Alise")
		assert.GreaterOrEqual(t, score, 0.80)
		assert.Less(t, score, 1.0)
	})

	t.Run("swapped token order scores high", func(t *testing.T) {
		score := scorer.Similarity("Omar Ali", "Ali Omar")
		assert.GreaterOrEqual(t, score, 0.9)
	})

	t.Run("unrelated names score low", func(t *testing.T) {
		assert.Less(t, scorer.Similarity("Alice", "Zimmerman"), 0.5)
	})

	t.Run("symmetric", func(t *testing.T) {
		a, b := "Catherine Jones", "Katherine Jons"
		assert.InDelta(t, scorer.Similarity(a, b), scorer.Similarity(b, a), 1e-9)
	})
}

func TestMatch(t *testing.T) {
	pool := []string{"Alice", "Bob", "Charlie"}

	t.Run("exact match succeeds at any threshold", func(t *testing.T) {
		for _, threshold := range []float64{0.1, 0.5, 0.8, 1.0} {
			m := NewMatcher(nil, threshold)
			name, score, ok := m.Match("Alice", pool)
			require.True(t, ok, "threshold %.2f", threshold)
			assert.Equal(t, "Alice", name)
			assert.Equal(t, 1.0, score)
		}
	})

	t.Run("near match above threshold", func(t *testing.T) {
		m := NewMatcher(nil, 0.80)
		name, score, ok := m.Match("Alise", pool)
		require.True(t, ok)
		assert.Equal(t, "Alice", name)
		assert.GreaterOrEqual(t, score, 0.80)
	})

	t.Run("no match below threshold", func(t *testing.T) {
		m := NewMatcher(nil, 0.80)
		_, _, ok := m.Match("Zebediah", pool)
		assert.False(t, ok)
	})

	t.Run("empty pool never matches", func(t *testing.T) {
		m := NewMatcher(nil, 0.5)
		_, _, ok := m.Match("Alice", nil)
		assert.False(t, ok)
	})

	t.Run("acceptance is monotone in threshold", func(t *testing.T) {
		candidates := []string{"Alise", "Bobb", "Charly", "Dana"}
		thresholds := []float64{0.95, 0.9, 0.85, 0.8, 0.7, 0.6, 0.5}

		for _, candidate := range candidates {
			matchedAt := make([]bool, len(thresholds))
			for i, th := range thresholds {
				_, _, matchedAt[i] = NewMatcher(nil, th).Match(candidate, pool)
			}
			// once a candidate matches at some threshold, it must also
			// match at every lower threshold
			for i := 1; i < len(matchedAt); i++ {
				if matchedAt[i-1] {
					assert.True(t, matchedAt[i],
						"candidate %q matched at %.2f but not at %.2f", candidate, thresholds[i-1], thresholds[i])
				}
			}
		}
	})

	t.Run("ties resolve to first pool member", func(t *testing.T) {
		// both pool members are equidistant from the candidate
		m := NewMatcher(ScorerFunc(func(a, b string) float64 { return 0.9 }), 0.8)
		name, _, ok := m.Match("anything", []string{"first", "second"})
		require.True(t, ok)
		assert.Equal(t, "first", name)
	})

	t.Run("deterministic across repeated calls", func(t *testing.T) {
		m := NewMatcher(nil, 0.6)
		bigPool := make([]string, 0, 50)
		for i := 0; i < 50; i++ {
			bigPool = append(bigPool, fmt.Sprintf("student %02d", i))
		}
		first, _, _ := m.Match("student 25", bigPool)
		for i := 0; i < 20; i++ {
			name, _, _ := m.Match("student 25", bigPool)
			assert.Equal(t, first, name)
		}
	})
}
