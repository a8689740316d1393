package hid

import "strings"

// canonicalNames maps the symbolic names used in keymap files to usages.
// Names follow the upper snake case convention of common keyboard
// firmware keycode tables ("PAGE_UP", "GRAVE_ACCENT", "LEFT_SHIFT").
var canonicalNames = map[string]Keycode{
	"A": KeyA, "B": KeyB, "C": KeyC, "D": KeyD, "E": KeyE, "F": KeyF, "G": KeyG,
	"H": KeyH, "I": KeyI, "J": KeyJ, "K": KeyK, "L": KeyL, "M": KeyM, "N": KeyN,
	"O": KeyO, "P": KeyP, "Q": KeyQ, "R": KeyR, "S": KeyS, "T": KeyT, "U": KeyU,
	"V": KeyV, "W": KeyW, "X": KeyX, "Y": KeyY, "Z": KeyZ,

	"ONE": Key1, "TWO": Key2, "THREE": Key3, "FOUR": Key4, "FIVE": Key5,
	"SIX": Key6, "SEVEN": Key7, "EIGHT": Key8, "NINE": Key9, "ZERO": Key0,

	"ENTER":         KeyEnter,
	"ESCAPE":        KeyEscape,
	"BACKSPACE":     KeyBackspace,
	"TAB":           KeyTab,
	"SPACEBAR":      KeySpace,
	"MINUS":         KeyMinus,
	"EQUALS":        KeyEqual,
	"LEFT_BRACKET":  KeyLeftBrace,
	"RIGHT_BRACKET": KeyRightBrace,
	"BACKSLASH":     KeyBackslash,
	"POUND":         KeyNonUSHash,
	"SEMICOLON":     KeySemicolon,
	"QUOTE":         KeyApostrophe,
	"GRAVE_ACCENT":  KeyGrave,
	"COMMA":         KeyComma,
	"PERIOD":        KeyPeriod,
	"FORWARD_SLASH": KeySlash,
	"CAPS_LOCK":     KeyCapsLock,

	"F1": KeyF1, "F2": KeyF2, "F3": KeyF3, "F4": KeyF4, "F5": KeyF5, "F6": KeyF6,
	"F7": KeyF7, "F8": KeyF8, "F9": KeyF9, "F10": KeyF10, "F11": KeyF11, "F12": KeyF12,
	"F13": KeyF13, "F14": KeyF14, "F15": KeyF15, "F16": KeyF16, "F17": KeyF17, "F18": KeyF18,
	"F19": KeyF19, "F20": KeyF20, "F21": KeyF21, "F22": KeyF22, "F23": KeyF23, "F24": KeyF24,

	"PRINT_SCREEN": KeyPrintScreen,
	"SCROLL_LOCK":  KeyScrollLock,
	"PAUSE":        KeyPause,
	"INSERT":       KeyInsert,
	"HOME":         KeyHome,
	"PAGE_UP":      KeyPageUp,
	"DELETE":       KeyDelete,
	"END":          KeyEnd,
	"PAGE_DOWN":    KeyPageDown,

	"RIGHT_ARROW": KeyRight,
	"LEFT_ARROW":  KeyLeft,
	"DOWN_ARROW":  KeyDown,
	"UP_ARROW":    KeyUp,

	"KEYPAD_NUMLOCK":   KeyNumLock,
	"KEYPAD_BACKSLASH": KeyNonUSBackslash,
	"APPLICATION":      KeyApplication,
	"POWER":            KeyPower,

	"LEFT_CONTROL":  KeyLeftCtrl,
	"LEFT_SHIFT":    KeyLeftShift,
	"LEFT_ALT":      KeyLeftAlt,
	"LEFT_GUI":      KeyLeftGUI,
	"RIGHT_CONTROL": KeyRightCtrl,
	"RIGHT_SHIFT":   KeyRightShift,
	"RIGHT_ALT":     KeyRightAlt,
	"RIGHT_GUI":     KeyRightGUI,
}

// aliasNames are accepted on input but never produced by String.
var aliasNames = map[string]Keycode{
	"RETURN":  KeyEnter,
	"SPACE":   KeySpace,
	"CONTROL": KeyLeftCtrl,
	"SHIFT":   KeyLeftShift,
	"ALT":     KeyLeftAlt,
	"OPTION":  KeyLeftAlt,
	"GUI":     KeyLeftGUI,
	"WINDOWS": KeyLeftGUI,
	"COMMAND": KeyLeftGUI,
}

var keycodeName = func() map[Keycode]string {
	m := make(map[Keycode]string, len(canonicalNames))
	for name, code := range canonicalNames {
		m[code] = name
	}
	return m
}()

// Lookup resolves a keymap name to its usage. Lookup is case-insensitive.
func Lookup(name string) (Keycode, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if k, ok := canonicalNames[name]; ok {
		return k, true
	}
	k, ok := aliasNames[name]
	return k, ok
}

// Names returns every canonical keycode name.
func Names() []string {
	out := make([]string, 0, len(canonicalNames))
	for name := range canonicalNames {
		out = append(out, name)
	}
	return out
}
