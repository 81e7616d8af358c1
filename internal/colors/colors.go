// Package colors assigns each user a stable presentation color for
// cursors and presence indicators.
package colors

import "unicode/utf16"

// fixed palette, indexed by user ID hash; order matters for stability
var palette = [...]string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FECA57",
	"#FF9FF3", "#54A0FF", "#5F27CD", "#00D2D3", "#FF9F43",
	"#6C5CE7", "#A29BFE", "#FD79A8", "#E17055", "#00B894",
}

// UserColor returns the palette color for a user ID. The same ID always
// maps to the same color. The hash wraps at 32 bits over the UTF-16
// code units of the ID so colors agree with the web client's scheme.
func UserColor(userID string) string {
	var hash int32

	for _, unit := range utf16.Encode([]rune(userID)) {
		hash = int32(unit) + ((hash << 5) - hash)
	}

	idx := int64(hash)
	if idx < 0 {
		idx = -idx
	}

	return palette[idx%int64(len(palette))]
}

// PaletteSize reports how many distinct colors are available.
func PaletteSize() int {
	return len(palette)
}
