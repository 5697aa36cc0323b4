package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erazemk/reunite/internal/model"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"", "abc", 3},
		{"abc", "", 3},
		{"", "", 0},
		{"Wallet", "wallet", 0},
		{"blue", "black", 3},
		{"bags", "black", 3},
		{"café", "cafe", 1},
		// Characters outside the BMP are two UTF-16 code units.
		{"🔑", "", 2},
		{"key🔑", "key", 2},
		{"🔑", "🗝", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Levenshtein(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
		assert.Equal(t, tt.want, Levenshtein(tt.b, tt.a), "%q vs %q", tt.b, tt.a)
	}
	for _, s := range []string{"keys", "umbrella", "ključ"} {
		assert.Zero(t, Levenshtein(s, s))
	}
}

func TestIsFuzzyMatch(t *testing.T) {
	tests := []struct {
		name        string
		text, token string
		want        bool
	}{
		{"substring", "Black leather wallet", "leather", true},
		{"substring case-insensitive", "Black Leather Wallet", "LEATH", true},
		{"one typo short token", "black wallet", "walet", true},
		{"two typos short token", "black wallet", "wlet", false},
		{"two typos long token", "blue umbrella", "umbrela", true},
		{"long token two substitutions", "blue umbrella", "umbrxlxa", true},
		{"long token three edits", "blue umbrella", "unbrxlxa", false},
		{"length gap too big", "keys", "keychain", false},
		{"unrelated", "blue umbrella", "laptop", false},
		{"empty token", "anything", "", false},
		{"empty text", "", "keys", false},
		{"black vs blue", "Blue backpack", "black", false},
		{"black vs bags", "Bags", "black", false},
		{"astral token counts as long", "spare keys", "keys🔑", true},
		{"astral token length gap", "key", "key🔑🔑", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFuzzyMatch(tt.text, tt.token))
		})
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"black", "backpack"}, Tokenize("  Black\tBACKPACK \n"))
	assert.Empty(t, Tokenize("   "))
	assert.Empty(t, Tokenize(""))
}

func TestMatchesItem(t *testing.T) {
	it := &model.Item{
		Title:       "Blue backpack",
		Description: "Found near the library, black zipper",
		Category:    "Bags",
	}

	assert.True(t, MatchesItem(it, nil))
	assert.True(t, MatchesItem(it, Tokenize("blue backpak")))
	assert.True(t, MatchesItem(it, Tokenize("black zipper")))
	assert.True(t, MatchesItem(it, Tokenize("bag")))

	// Tokens must all match within one field.
	assert.False(t, MatchesItem(it, Tokenize("blue zipper")))
	assert.False(t, MatchesItem(it, Tokenize("black backpack")))
}
