// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ranking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		query string
		want  int
	}{
		{"near-exact prefix", "numpy", "num", 2495},
		{"exact", "num", "num", 2497},
		{"long prefix", "numexpr", "num", 1993},
		{"case insensitive", "NumPy", "nUM", 2495},
		{"substring", "pynum", "num", 1000 - 2 - 5},
		{"substring in long key", "xxnum" + strings.Repeat("a", 1000), "num", 1},
		{"expanding fold counts original runes", "straße", "SSE", 1000 - 4 - 6},
		{"no match", "pandas", "num", 0},
		{"empty query", "numpy", "", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Score(tc.key, tc.query); got != tc.want {
				t.Errorf("Score(%q, %q) = %d, want %d", tc.key, tc.query, got, tc.want)
			}
		})
	}
}

func TestRank_PrefixTiesKeepInputOrder(t *testing.T) {
	got := Rank([]string{"numpy", "numba", "pandas", "numexpr"}, "num")

	require.Equal(t, []Match{
		{Key: "numpy", Score: 2495},
		{Key: "numba", Score: 2495},
		{Key: "numexpr", Score: 1993},
		{Key: "pandas", Score: 0},
	}, got)

	// Swapping the tied inputs swaps the output.
	got = Rank([]string{"numba", "numpy", "pandas", "numexpr"}, "num")
	require.Equal(t, []string{"numba", "numpy", "numexpr", "pandas"}, Keys(got))
}

func TestRank_NonMatchesStayInInputOrder(t *testing.T) {
	got := Rank([]string{"zeta", "alpha", "torch", "beta"}, "torch")
	require.Equal(t, []string{"torch", "zeta", "alpha", "beta"}, Keys(got))
	require.True(t, got[0].Matched())
	require.False(t, got[1].Matched())
}

func TestRank_Deterministic(t *testing.T) {
	keys := []string{"scipy", "scikit-learn", "sip", "pyscipopt", "six", "scs"}
	first := Rank(keys, "sci")
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Rank(keys, "sci"))
	}
	require.Equal(t, "scipy", first[0].Key)
}

func TestHighlightRange(t *testing.T) {
	start, end := HighlightRange("PyNum", "num")
	require.Equal(t, 2, start)
	require.Equal(t, 5, end)

	start, end = HighlightRange("pandas", "num")
	require.Equal(t, -1, start)
	require.Equal(t, -1, end)
}

func TestRank_LongSubstringBeatsNonMatch(t *testing.T) {
	long := "xxnum" + strings.Repeat("a", 1000)
	got := Rank([]string{"pandas", long}, "num")
	require.Equal(t, []string{long, "pandas"}, Keys(got))
	require.True(t, got[0].Matched())
}

func TestHighlightRange_ExpandingFold(t *testing.T) {
	// "ß" folds to "ss"; the range covers the original runes.
	start, end := HighlightRange("straße", "sse")
	require.Equal(t, 4, start)
	require.Equal(t, 6, end)

	start, end = HighlightRange("Größe", "grö")
	require.Equal(t, 0, start)
	require.Equal(t, 3, end)
}
