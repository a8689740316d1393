package hid

import "io"

// ReportSize is the length of a boot protocol keyboard input report.
const ReportSize = 8

// MaxKeys is the number of non-modifier key slots in a boot report.
const MaxKeys = 6

// Report is the keyboard state used to build a boot protocol report.
//
// Non-modifier keys occupy the first free slot in press order; a press that
// finds no free slot is dropped.
type Report struct {
	Modifiers uint8 // bit 0-7: LCtrl, LShift, LAlt, LGui, RCtrl, RShift, RAlt, RGui
	Keys      [MaxKeys]Keycode
}

// Press adds codes to the report. It returns the number of codes that did
// not fit into the six key slots.
func (r *Report) Press(codes ...Keycode) (dropped int) {
	for _, c := range codes {
		if c == KeyNone {
			continue
		}
		if c.IsModifier() {
			r.Modifiers |= c.ModifierBit()
			continue
		}
		if r.slot(c) >= 0 {
			continue
		}
		free := r.slot(KeyNone)
		if free < 0 {
			dropped++
			continue
		}
		r.Keys[free] = c
	}
	return dropped
}

// Release removes codes from the report. Codes that are not held are ignored.
func (r *Report) Release(codes ...Keycode) {
	for _, c := range codes {
		if c.IsModifier() {
			r.Modifiers &^= c.ModifierBit()
			continue
		}
		if i := r.slot(c); i >= 0 && c != KeyNone {
			r.Keys[i] = KeyNone
		}
	}
}

// ReleaseAll clears every key and modifier.
func (r *Report) ReleaseAll() {
	*r = Report{}
}

// Held returns the non-modifier keys currently held, in slot order.
func (r *Report) Held() []Keycode {
	var out []Keycode
	for _, k := range r.Keys {
		if k != KeyNone {
			out = append(out, k)
		}
	}
	return out
}

func (r *Report) slot(c Keycode) int {
	for i, k := range r.Keys {
		if k == c {
			return i
		}
	}
	return -1
}

// BuildReport encodes the report into the 8-byte boot protocol layout.
//
//	Byte 0: Modifiers (8 bits)
//	Byte 1: Reserved (0x00)
//	Bytes 2-7: Key array
func (r Report) BuildReport() []byte {
	b := make([]byte, ReportSize)
	b[0] = r.Modifiers
	for i, k := range r.Keys {
		b[2+i] = byte(k)
	}
	return b
}

// UnmarshalBinary decodes an 8-byte boot report.
func (r *Report) UnmarshalBinary(data []byte) error {
	if len(data) < ReportSize {
		return io.ErrUnexpectedEOF
	}
	r.Modifiers = data[0]
	for i := range r.Keys {
		r.Keys[i] = Keycode(data[2+i])
	}
	return nil
}
