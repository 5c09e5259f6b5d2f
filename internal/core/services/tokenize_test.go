package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"whitespace only", "   \t\n", nil},
		{"single word", "Team", []string{"team"}},
		{"two words", "Team Sync", []string{"team", "sync"}},
		{"punctuation separates", "budget,review;q3", []string{"budget", "review", "q3"}},
		{"email splits at at-sign", "anna@example.com", []string{"anna", "example", "com"}},
		{"apostrophes trimmed at edges", "'quoted' don't", []string{"quoted", "don't"}},
		{"lone apostrophe dropped", "a ' b", []string{"a", "b"}},
		{"unicode lowercased", "ÜBERSICHT Café", []string{"übersicht", "café"}},
		{"hyphen splits", "follow-up", []string{"follow", "up"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenize(tt.input))
		})
	}
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, " Budget  review", stripHTML("<p>Budget</p> review"))
	assert.Equal(t, "a  b", stripHTML(`a <br class="x"> b`))
	assert.Equal(t, "no tags", stripHTML("no tags"))
}

func TestLowercase(t *testing.T) {
	assert.Equal(t, "straße", lowercase("STRAßE"))
}
