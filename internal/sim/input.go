// Package sim drives the firmware from a terminal: keystrokes are turned
// into physical key holds on a virtual shift register chain.
package sim

import "unicode"

// Event is one decoded keystroke.
type Event struct {
	// Keys are physical key names held together for this stroke.
	Keys []string
	Quit bool
}

var plain = map[byte]string{
	' ': "SPACEBAR", '\r': "ENTER", '\n': "ENTER", '\t': "TAB", 0x7f: "BACKSPACE", 0x08: "BACKSPACE",
	'-': "MINUS", '=': "EQUALS", '[': "LEFT_BRACKET", ']': "RIGHT_BRACKET", '\\': "BACKSLASH",
	';': "SEMICOLON", '\'': "QUOTE", ',': "COMMA", '.': "PERIOD", '/': "FORWARD_SLASH", '`': "ESCAPE",
	'1': "ONE", '2': "TWO", '3': "THREE", '4': "FOUR", '5': "FIVE",
	'6': "SIX", '7': "SEVEN", '8': "EIGHT", '9': "NINE", '0': "ZERO",
}

var shifted = map[byte]string{
	'!': "ONE", '@': "TWO", '#': "THREE", '$': "FOUR", '%': "FIVE",
	'^': "SIX", '&': "SEVEN", '*': "EIGHT", '(': "NINE", ')': "ZERO",
	'_': "MINUS", '+': "EQUALS", '{': "LEFT_BRACKET", '}': "RIGHT_BRACKET", '|': "BACKSLASH",
	':': "SEMICOLON", '"': "QUOTE", '<': "COMMA", '>': "PERIOD", '?': "FORWARD_SLASH", '~': "ESCAPE",
}

// CSI sequences after ESC [.
var csi = map[string]string{
	"A": "UP_ARROW", "B": "DOWN_ARROW", "C": "RIGHT_ARROW", "D": "LEFT_ARROW",
	"H": "PAGE_UP", "F": "PAGE_DOWN",
	"2~": "INSERT", "3~": "DELETE", "5~": "PAGE_UP", "6~": "PAGE_DOWN",
}

const (
	ctrlC = 0x03
	esc   = 0x1b
)

// Parse decodes a chunk of raw terminal input. Ctrl+letter is sent as the
// Fn layer modifier plus that letter; Ctrl-C quits. Bytes with no key on
// the board are skipped.
func Parse(in []byte) []Event {
	var out []Event
	for i := 0; i < len(in); i++ {
		c := in[i]
		switch {
		case c == ctrlC:
			out = append(out, Event{Quit: true})
		case c == esc:
			if i+1 < len(in) && in[i+1] == '[' {
				j := i + 2
				for j < len(in) && !isFinal(in[j]) {
					j++
				}
				if j < len(in) {
					if name, ok := csi[string(in[i+2:j+1])]; ok {
						out = append(out, Event{Keys: []string{name}})
					}
					i = j
					continue
				}
			}
			out = append(out, Event{Keys: []string{"INSERT"}})
		case c >= 'a' && c <= 'z':
			out = append(out, Event{Keys: []string{string(unicode.ToUpper(rune(c)))}})
		case c >= 'A' && c <= 'Z':
			out = append(out, Event{Keys: []string{"LEFT_SHIFT", string(rune(c))}})
		case plain[c] != "":
			out = append(out, Event{Keys: []string{plain[c]}})
		case shifted[c] != "":
			out = append(out, Event{Keys: []string{"LEFT_SHIFT", shifted[c]}})
		case c >= 0x01 && c <= 0x1a:
			out = append(out, Event{Keys: []string{"Fn", string(rune('A' + c - 1))}})
		}
	}
	return out
}

// isFinal reports whether c ends a CSI sequence.
func isFinal(c byte) bool { return c >= 0x40 && c <= 0x7e }
