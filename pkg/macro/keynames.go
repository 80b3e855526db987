package macro

import (
	"fmt"
	"strings"
)

// Human-readable labels for X11 (evdev) keycodes. Left/right modifier
// variants collapse to one name so a combo reads "Ctrl + Shift + R"
// regardless of which side was pressed. Unknown keycodes fall back to a
// numeric label.
var keyNames = map[uint32]string{
	37: "Ctrl", 105: "Ctrl",
	50: "Shift", 62: "Shift",
	64: "Alt", 108: "Alt",
	133: "Super", 134: "Super",

	9:  "Esc",
	10: "1", 11: "2", 12: "3", 13: "4", 14: "5",
	15: "6", 16: "7", 17: "8", 18: "9", 19: "0",
	20: "-", 21: "=",
	22: "Backspace",
	23: "Tab",
	24: "Q", 25: "W", 26: "E", 27: "R", 28: "T",
	29: "Y", 30: "U", 31: "I", 32: "O", 33: "P",
	34: "[", 35: "]",
	36: "Enter",
	38: "A", 39: "S", 40: "D", 41: "F", 42: "G",
	43: "H", 44: "J", 45: "K", 46: "L",
	47: ";", 48: "'", 49: "`",
	51: "\\",
	52: "Z", 53: "X", 54: "C", 55: "V",
	56: "B", 57: "N", 58: "M",
	59: ",", 60: ".", 61: "/",
	65: "Space",
	66: "CapsLock",
	67: "F1", 68: "F2", 69: "F3", 70: "F4", 71: "F5",
	72: "F6", 73: "F7", 74: "F8", 75: "F9", 76: "F10",
	95: "F11", 96: "F12",
	107: "PrintScreen",
	110: "Home", 111: "Up", 112: "PageUp",
	113: "Left", 114: "Right",
	115: "End", 116: "Down", 117: "PageDown",
	118: "Insert", 119: "Delete",
	127: "Pause",
	135: "Menu",
}

// KeyName returns the display label for a keycode.
func KeyName(keycode uint32) string {
	if name, ok := keyNames[keycode]; ok {
		return name
	}
	return fmt.Sprintf("Key%d", keycode)
}

// DisplayName derives the display form of a combo from its keycodes in
// capture order. An empty combo displays as "None".
func DisplayName(keys []uint32) string {
	if len(keys) == 0 {
		return "None"
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, KeyName(k))
	}
	return strings.Join(names, " + ")
}
