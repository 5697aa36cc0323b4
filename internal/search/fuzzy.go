// Package search implements typo-tolerant keyword matching over catalog
// text fields.
package search

import (
	"strings"
	"unicode/utf16"

	"github.com/hbollon/go-edlib"

	"github.com/erazemk/reunite/internal/model"
)

// longToken is the length above which a token tolerates two edits instead of one.
const longToken = 5

// Levenshtein returns the case-insensitive edit distance between a and b,
// counted in UTF-16 code units. A character outside the Basic Multilingual
// Plane counts as two units.
func Levenshtein(a, b string) int {
	return distance(strings.ToLower(a), strings.ToLower(b))
}

func distance(a, b string) int {
	return edlib.LevenshteinDistance(codeUnits(a), codeUnits(b))
}

// codeUnits re-spells s with one rune per UTF-16 code unit. Surrogate
// halves are moved into the supplementary private use area, which cannot
// otherwise occur once s has been split into units.
func codeUnits(s string) string {
	var b strings.Builder
	for _, u := range utf16.Encode([]rune(s)) {
		r := rune(u)
		if utf16.IsSurrogate(r) {
			r += 0xF0000
		}
		b.WriteRune(r)
	}
	return b.String()
}

func unitLen(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// IsFuzzyMatch reports whether token occurs in text, either as a
// case-insensitive substring or as a word within a small edit distance.
// Empty text or an empty token never matches.
func IsFuzzyMatch(text, token string) bool {
	if text == "" || token == "" {
		return false
	}
	lower := strings.ToLower(text)
	token = strings.ToLower(token)
	if strings.Contains(lower, token) {
		return true
	}

	tn := unitLen(token)
	allowed := 1
	if tn > longToken {
		allowed = 2
	}

	for _, word := range strings.Fields(lower) {
		wn := unitLen(word)
		if abs(wn-tn) > 2 {
			continue
		}
		if distance(word, token) <= allowed {
			return true
		}
	}
	return false
}

// Tokenize splits a free-text query into lower-cased whitespace tokens.
func Tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// MatchesAll reports whether every token fuzzy-matches text. An empty token
// list matches everything.
func MatchesAll(text string, tokens []string) bool {
	for _, tok := range tokens {
		if !IsFuzzyMatch(text, tok) {
			return false
		}
	}
	return true
}

// MatchesItem reports whether the item's title, description or category
// matches all tokens on its own. Tokens are not spread across fields.
func MatchesItem(it *model.Item, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	return MatchesAll(it.Title, tokens) ||
		MatchesAll(it.Description, tokens) ||
		MatchesAll(it.Category, tokens)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
