package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/tgienger/seotrack/internal/models"
)

func TestScoreBar(t *testing.T) {
	tests := []struct {
		score, width, filled int
	}{
		{0, 10, 0},
		{50, 10, 5},
		{100, 10, 10},
		{130, 10, 10},
		{-5, 10, 0},
		{33, 20, 6},
	}
	for _, tc := range tests {
		bar := ScoreBar(tc.score, tc.width)
		assert.Equal(t, tc.width, lipgloss.Width(bar), "score %d", tc.score)
		assert.Equal(t, tc.filled, strings.Count(bar, "█"), "score %d", tc.score)
	}
	assert.Empty(t, ScoreBar(50, 0))
}

func TestScoreColor(t *testing.T) {
	assert.Equal(t, Current.Success, ScoreColor(75))
	assert.Equal(t, Current.Warning, ScoreColor(40))
	assert.Equal(t, Current.Error, ScoreColor(39))
}

func TestStatusGlyph(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range models.Statuses() {
		g := StatusGlyph(s)
		assert.Equal(t, 1, lipgloss.Width(g), string(s))
		assert.False(t, seen[g], "glyph %q reused", g)
		seen[g] = true
	}
}

func TestContentWidth(t *testing.T) {
	assert.Equal(t, MaxWidth, ContentWidth(200))
	assert.Equal(t, 40, ContentWidth(40))
}
