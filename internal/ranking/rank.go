// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ranking orders package keys against a search query.
package ranking

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// =============================================================================
// SCORING
// =============================================================================

const (
	// prefixBase is the base score for a key that starts with the query
	prefixBase = 2000

	// nearExactBonus is added to a prefix match when the key is at most
	// nearExactSlack runes longer than the query
	nearExactBonus = 500
	nearExactSlack = 3

	// substringBase is the base score for a key that contains the query
	substringBase = 1000
)

// folder performs Unicode case folding. cases.Caser is not safe for
// concurrent use, so Score builds a fresh one per call.
func folder() cases.Caser {
	return cases.Fold()
}

// foldKey folds key one rune at a time. pos maps each byte of the folded
// string to the index of the key rune it came from, so positions found in
// the folded form can be reported against the original key.
func foldKey(c cases.Caser, key string) (folded string, pos []int) {
	var b strings.Builder
	pos = make([]int, 0, len(key))
	i := 0
	for _, r := range key {
		f := c.String(string(r))
		b.WriteString(f)
		for range len(f) {
			pos = append(pos, i)
		}
		i++
	}
	return b.String(), pos
}

// Score rates key against query. Higher is better; 0 means no match.
//
// Scoring rules (case-insensitive, lengths and positions in runes of the
// original key):
//   - prefix match: 2000 - len(key), plus 500 if len(key)-len(query) < 3
//   - substring match: 1000 - index(query) - len(key), never below 1
//   - no match: 0
//
// Examples:
//   - Score("numpy", "num") = 2495 (prefix, near-exact)
//   - Score("numexpr", "num") = 1993 (prefix)
//   - Score("pynum", "num") = 993 (substring at 2)
func Score(key, query string) int {
	if query == "" {
		return 0
	}
	c := folder()
	k, pos := foldKey(c, key)
	q := c.String(query)

	keyLen := utf8.RuneCountInString(key)
	queryLen := utf8.RuneCountInString(query)

	if strings.HasPrefix(k, q) {
		score := prefixBase - keyLen
		if keyLen-queryLen < nearExactSlack {
			score += nearExactBonus
		}
		return score
	}

	if i := strings.Index(k, q); i >= 0 {
		// A long key must still rank above every non-match.
		return max(substringBase-pos[i]-keyLen, 1)
	}

	return 0
}

// =============================================================================
// SCORED MATCH
// =============================================================================

// Match is one ranked key.
type Match struct {
	Key   string
	Score int
}

// Matched reports whether the key matched the query at all.
func (m Match) Matched() bool {
	return m.Score > 0
}

// Rank scores every key and returns all of them ordered by descending
// score. Keys that do not match are kept and placed after every match.
// Ties keep their input order, so the same query over the same input
// always yields the same ordering.
func Rank(keys []string, query string) []Match {
	matches := make([]Match, len(keys))
	for i, key := range keys {
		matches[i] = Match{Key: key, Score: Score(key, query)}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}

// Keys extracts the ordered keys from a ranking.
func Keys(matches []Match) []string {
	keys := make([]string, len(matches))
	for i, m := range matches {
		keys[i] = m.Key
	}
	return keys
}

// =============================================================================
// HIGHLIGHTING
// =============================================================================

// HighlightRange returns the rune range [start, end) of key that matched
// query, or (-1, -1) if it did not match.
func HighlightRange(key, query string) (start, end int) {
	if query == "" {
		return -1, -1
	}
	c := folder()
	k, pos := foldKey(c, key)
	q := c.String(query)

	i := strings.Index(k, q)
	if i < 0 || q == "" {
		return -1, -1
	}
	return pos[i], pos[i+len(q)-1] + 1
}
