package scanner

import (
	"strings"
	"sync"
	"unicode"
)

// Key identifies the non-printable keys the decoder cares about. Hardware
// barcode scanners in keyboard-wedge mode emit the code as a burst of
// printable characters terminated by Enter.
type Key int

const (
	KeyRune Key = iota
	KeyEnter
	KeyBackspace
	KeyEscape
	KeyOther
)

// KeyEvent is one keydown as seen by the terminal's input layer. TargetField
// names the focused input field, or is empty when no field has focus.
type KeyEvent struct {
	Key         Key
	Rune        rune
	TargetField string
}

// Decoder reconstructs discrete barcode strings from a scanner's keystroke
// stream. It only consumes events while scanning mode is active, and it
// never swallows keystrokes aimed at an unrelated text field, so the
// operator can keep typing in the payment inputs while scanning mode is on.
type Decoder struct {
	mu           sync.Mutex
	captureField string
	active       bool
	buffer       []rune
	emit         func(code string)
}

// NewDecoder builds a decoder that calls emit once per completed scan.
// captureField names the dedicated scan-capture field; events targeting any
// other field pass through untouched.
func NewDecoder(captureField string, emit func(code string)) *Decoder {
	return &Decoder{captureField: captureField, emit: emit}
}

// Activate enters scanning mode with a fresh buffer.
func (d *Decoder) Activate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = true
	d.buffer = d.buffer[:0]
}

// Deactivate leaves scanning mode and discards any pending partial scan.
func (d *Decoder) Deactivate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = false
	d.buffer = d.buffer[:0]
}

func (d *Decoder) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Pending returns the current buffer contents, for operator feedback only.
func (d *Decoder) Pending() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return string(d.buffer)
}

// HandleKey feeds one key event through the decoder. It returns true when
// the event was consumed and must not reach other input handling, false when
// the event should be handled normally.
func (d *Decoder) HandleKey(ev KeyEvent) bool {
	d.mu.Lock()

	if !d.active {
		d.mu.Unlock()
		return false
	}
	// Keystrokes aimed at another text field are not ours to intercept.
	if ev.TargetField != "" && ev.TargetField != d.captureField {
		d.mu.Unlock()
		return false
	}

	switch ev.Key {
	case KeyRune:
		if !isPrintable(ev.Rune) {
			d.mu.Unlock()
			return false
		}
		d.buffer = append(d.buffer, ev.Rune)
		d.mu.Unlock()
		return true
	case KeyBackspace:
		if n := len(d.buffer); n > 0 {
			d.buffer = d.buffer[:n-1]
		}
		d.mu.Unlock()
		return true
	case KeyEnter:
		if len(d.buffer) == 0 {
			d.mu.Unlock()
			return true
		}
		code := strings.TrimSpace(string(d.buffer))
		d.buffer = d.buffer[:0]
		emit := d.emit
		d.mu.Unlock()
		if code != "" && emit != nil {
			emit(code)
		}
		return true
	case KeyEscape:
		d.active = false
		d.buffer = d.buffer[:0]
		d.mu.Unlock()
		return true
	}

	d.mu.Unlock()
	return false
}

func isPrintable(r rune) bool {
	return r != 0 && unicode.IsPrint(r) && !unicode.IsSpace(r)
}
