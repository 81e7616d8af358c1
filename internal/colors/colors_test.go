package colors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserColorDeterminism(t *testing.T) {
	ids := []string{"u1", "u2", "alice", "bob", "0af3c2", ""}

	for _, id := range ids {
		first := UserColor(id)
		second := UserColor(id)

		assert.Equal(t, first, second, "color for %q must be stable", id)
	}
}

func TestUserColorKnownValues(t *testing.T) {
	tests := []struct {
		userID string
		color  string
	}{
		{userID: "", color: "#FF6B6B"},
		{userID: "u1", color: "#4ECDC4"},
		{userID: "u2", color: "#45B7D1"},
	}

	for _, tt := range tests {
		t.Run(tt.userID, func(t *testing.T) {
			assert.Equal(t, tt.color, UserColor(tt.userID))
		})
	}
}

func TestUserColorStaysInPalette(t *testing.T) {
	inPalette := func(c string) bool {
		for _, p := range palette {
			if p == c {
				return true
			}
		}
		return false
	}

	ids := []string{"a", "zz", "user-123", "日本語", "🎨", "very-long-user-identifier-with-many-characters"}

	for _, id := range ids {
		assert.True(t, inPalette(UserColor(id)), "color for %q must come from the palette", id)
	}
}

func TestPaletteSize(t *testing.T) {
	assert.Equal(t, 15, PaletteSize())
}
