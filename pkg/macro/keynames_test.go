package macro

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyName(t *testing.T) {
	tests := []struct {
		name string
		code uint32
		want string
	}{
		{"left ctrl", 37, "Ctrl"},
		{"right ctrl", 105, "Ctrl"},
		{"left shift", 50, "Shift"},
		{"letter", 38, "A"},
		{"digit", 10, "1"},
		{"function key", 67, "F1"},
		{"space", 65, "Space"},
		{"unknown falls back to the keycode", 251, "Key251"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyName(tt.code))
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ctrl + Shift + R", DisplayName([]uint32{37, 50, 27}))
	assert.Equal(t, "F5", DisplayName([]uint32{71}))
	assert.Equal(t, "None", DisplayName(nil))
}
