package walker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyToken(t *testing.T) {
	tests := []struct {
		name           string
		token          string
		expectedMode   TokenMode
		expectedOffset int
	}{
		{"empty token is first fragment page", "", ModeFragment, 0},
		{"opaque token", "AbC123xyz", ModeFragment, 0},
		{"offset pair", "25#25", ModeOffset, 25},
		{"zero offset", "0#25", ModeOffset, 0},
		{"large offset", "1475#25", ModeOffset, 1475},
		{"non-numeric prefix stays opaque", "abc#25", ModeFragment, 0},
		{"mixed prefix stays opaque", "12ab#25", ModeFragment, 0},
		{"delimiter with empty prefix stays opaque", "#25", ModeFragment, 0},
		{"no delimiter with digits stays opaque", "12345", ModeFragment, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, offset := ClassifyToken(tt.token)
			assert.Equal(t, tt.expectedMode, mode)
			assert.Equal(t, tt.expectedOffset, offset)
		})
	}
}
