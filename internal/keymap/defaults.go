package keymap

// DefaultBoard returns the 68-key s68k board: nine registers, the Fn key
// as layer modifier, and the factory layer tables.
func DefaultBoard() *Board {
	return &Board{
		Registers: 9,
		Modifier:  "Fn",
		Keys: map[string]int{
			"A": 45, "B": 30, "C": 38, "D": 37, "E": 36, "F": 32, "G": 29,
			"H": 24, "I": 16, "J": 21, "K": 17, "L": 13, "M": 22, "N": 23,
			"O": 12, "P": 9, "Q": 44, "R": 33, "S": 40, "T": 28, "U": 20,
			"V": 31, "W": 41, "X": 39, "Y": 25, "Z": 46,

			"UP_ARROW":    66,
			"RIGHT_ARROW": 65,
			"DOWN_ARROW":  64,
			"LEFT_ARROW":  63,

			"RIGHT_CONTROL": 70,
			"Fn":            69,
			"RIGHT_ALT":     68,
			"SPACEBAR":      50,
			"LEFT_ALT":      49,
			"LEFT_GUI":      48,
			"LEFT_CONTROL":  47,
			"LEFT_SHIFT":    54,
			"RIGHT_SHIFT":   67,

			"COMMA":         18,
			"PERIOD":        14,
			"FORWARD_SLASH": 7,
			"ENTER":         55,
			"QUOTE":         62,
			"SEMICOLON":     8,
			"CAPS_LOCK":     53,
			"TAB":           52,
			"LEFT_BRACKET":  61,
			"RIGHT_BRACKET": 58,
			"BACKSLASH":     56,
			"ESCAPE":        51,

			"ONE": 43, "TWO": 42, "THREE": 35, "FOUR": 34, "FIVE": 27,
			"SIX": 26, "SEVEN": 19, "EIGHT": 15, "NINE": 11, "ZERO": 10,

			"MINUS":     60,
			"EQUALS":    59,
			"BACKSPACE": 57,
			"INSERT":    6,
			"PAGE_UP":   5,
			"PAGE_DOWN": 4,
			"DELETE":    3,
		},
		Pixels: []int{
			66, 65, 64, 63, 70, 69, 68, 50, 49, 48, 47, 54, 46, 39, 38, 31, 30,
			23, 22, 18, 14, 7, 67, 55, 62, 8, 13, 17, 21, 24, 29, 32, 37, 40,
			45, 53, 52, 44, 41, 36, 33, 28, 25, 20, 16, 12, 9, 61, 58, 56, 51,
			43, 42, 35, 34, 27, 26, 19, 15, 11, 10, 60, 59, 57, 6, 5, 4, 3,
		},
		Base: map[string]string{
			"PAGE_UP":   "HOME",
			"PAGE_DOWN": "END",
			"ESCAPE":    "GRAVE_ACCENT",
			"INSERT":    "ESCAPE",
		},
		Fn: map[string]string{
			"ONE":           "F1",
			"TWO":           "F2",
			"THREE":         "F3",
			"FOUR":          "F4",
			"FIVE":          "F5",
			"SIX":           "F6",
			"SEVEN":         "F7",
			"EIGHT":         "F8",
			"NINE":          "F9",
			"ZERO":          "F10",
			"MINUS":         "F11",
			"EQUALS":        "F12",
			"INSERT":        "PRINT_SCREEN",
			"RIGHT_CONTROL": "APPLICATION",
			"PAGE_UP":       "PAGE_UP",
			"PAGE_DOWN":     "PAGE_DOWN",
			"ESCAPE":        "ESCAPE",
		},
		Commands: map[string]string{
			"Q":          "mode:usb_hid",
			"W":          "mode:serial_bridge",
			"E":          "mode:bluetooth",
			"R":          "mode:dummy",
			"BACKSPACE":  "erase_bonds",
			"UP_ARROW":   "light:up",
			"DOWN_ARROW": "light:down",
			"SPACEBAR":   "light:mode",
		},
	}
}
