// Package hid provides USB HID keyboard usage codes, the keycode name table
// used by keymaps, and the 8-byte boot protocol report shared by every
// output transport.
package hid

import "fmt"

// Keycode is a HID usage ID on the Keyboard/Keypad usage page (0x07).
type Keycode uint8

// Modifier key bitmasks, as laid out in byte 0 of a boot report.
const (
	ModLeftCtrl   = 0x01
	ModLeftShift  = 0x02
	ModLeftAlt    = 0x04
	ModLeftGUI    = 0x08 // Windows/Command key
	ModRightCtrl  = 0x10
	ModRightShift = 0x20
	ModRightAlt   = 0x40
	ModRightGUI   = 0x80
)

// HID Usage codes for keyboard keys (USB HID Keyboard/Keypad usage page)
const (
	KeyNone Keycode = 0x00

	// Letters A-Z
	KeyA Keycode = 0x04
	KeyB Keycode = 0x05
	KeyC Keycode = 0x06
	KeyD Keycode = 0x07
	KeyE Keycode = 0x08
	KeyF Keycode = 0x09
	KeyG Keycode = 0x0A
	KeyH Keycode = 0x0B
	KeyI Keycode = 0x0C
	KeyJ Keycode = 0x0D
	KeyK Keycode = 0x0E
	KeyL Keycode = 0x0F
	KeyM Keycode = 0x10
	KeyN Keycode = 0x11
	KeyO Keycode = 0x12
	KeyP Keycode = 0x13
	KeyQ Keycode = 0x14
	KeyR Keycode = 0x15
	KeyS Keycode = 0x16
	KeyT Keycode = 0x17
	KeyU Keycode = 0x18
	KeyV Keycode = 0x19
	KeyW Keycode = 0x1A
	KeyX Keycode = 0x1B
	KeyY Keycode = 0x1C
	KeyZ Keycode = 0x1D

	// Numbers 1-0 (top row)
	Key1 Keycode = 0x1E
	Key2 Keycode = 0x1F
	Key3 Keycode = 0x20
	Key4 Keycode = 0x21
	Key5 Keycode = 0x22
	Key6 Keycode = 0x23
	Key7 Keycode = 0x24
	Key8 Keycode = 0x25
	Key9 Keycode = 0x26
	Key0 Keycode = 0x27

	KeyEnter      Keycode = 0x28
	KeyEscape     Keycode = 0x29
	KeyBackspace  Keycode = 0x2A
	KeyTab        Keycode = 0x2B
	KeySpace      Keycode = 0x2C
	KeyMinus      Keycode = 0x2D // - and _
	KeyEqual      Keycode = 0x2E // = and +
	KeyLeftBrace  Keycode = 0x2F // [ and {
	KeyRightBrace Keycode = 0x30 // ] and }
	KeyBackslash  Keycode = 0x31 // \ and |
	KeyNonUSHash  Keycode = 0x32 // Non-US # and ~
	KeySemicolon  Keycode = 0x33 // ; and :
	KeyApostrophe Keycode = 0x34 // ' and "
	KeyGrave      Keycode = 0x35 // ` and ~
	KeyComma      Keycode = 0x36 // , and <
	KeyPeriod     Keycode = 0x37 // . and >
	KeySlash      Keycode = 0x38 // / and ?
	KeyCapsLock   Keycode = 0x39

	KeyF1  Keycode = 0x3A
	KeyF2  Keycode = 0x3B
	KeyF3  Keycode = 0x3C
	KeyF4  Keycode = 0x3D
	KeyF5  Keycode = 0x3E
	KeyF6  Keycode = 0x3F
	KeyF7  Keycode = 0x40
	KeyF8  Keycode = 0x41
	KeyF9  Keycode = 0x42
	KeyF10 Keycode = 0x43
	KeyF11 Keycode = 0x44
	KeyF12 Keycode = 0x45

	KeyPrintScreen Keycode = 0x46
	KeyScrollLock  Keycode = 0x47
	KeyPause       Keycode = 0x48
	KeyInsert      Keycode = 0x49
	KeyHome        Keycode = 0x4A
	KeyPageUp      Keycode = 0x4B
	KeyDelete      Keycode = 0x4C
	KeyEnd         Keycode = 0x4D
	KeyPageDown    Keycode = 0x4E

	KeyRight Keycode = 0x4F
	KeyLeft  Keycode = 0x50
	KeyDown  Keycode = 0x51
	KeyUp    Keycode = 0x52

	KeyNumLock        Keycode = 0x53
	KeyNonUSBackslash Keycode = 0x64
	KeyApplication    Keycode = 0x65 // Application (Windows Menu key)
	KeyPower          Keycode = 0x66

	KeyF13 Keycode = 0x68
	KeyF14 Keycode = 0x69
	KeyF15 Keycode = 0x6A
	KeyF16 Keycode = 0x6B
	KeyF17 Keycode = 0x6C
	KeyF18 Keycode = 0x6D
	KeyF19 Keycode = 0x6E
	KeyF20 Keycode = 0x6F
	KeyF21 Keycode = 0x70
	KeyF22 Keycode = 0x71
	KeyF23 Keycode = 0x72
	KeyF24 Keycode = 0x73

	// Modifiers. Reports carry these as bits in byte 0, not in the key array.
	KeyLeftCtrl   Keycode = 0xE0
	KeyLeftShift  Keycode = 0xE1
	KeyLeftAlt    Keycode = 0xE2
	KeyLeftGUI    Keycode = 0xE3
	KeyRightCtrl  Keycode = 0xE4
	KeyRightShift Keycode = 0xE5
	KeyRightAlt   Keycode = 0xE6
	KeyRightGUI   Keycode = 0xE7
)

// IsModifier reports whether k is one of the eight modifier usages.
func (k Keycode) IsModifier() bool {
	return k >= KeyLeftCtrl && k <= KeyRightGUI
}

// ModifierBit returns the byte-0 bitmask for a modifier usage, or 0.
func (k Keycode) ModifierBit() uint8 {
	if !k.IsModifier() {
		return 0
	}
	return 1 << (k - KeyLeftCtrl)
}

func (k Keycode) String() string {
	if name, ok := keycodeName[k]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", uint8(k))
}
