package entity

import "strings"

// CodeLength is the number of digits in a one-time code.
const CodeLength = 6

// FocusTarget tells the presentation layer which slot should receive input
// focus after an edit. The zero value means "leave focus where it is".
type FocusTarget struct {
	index int
	set   bool
}

// FocusAt returns a target pointing at slot index.
func FocusAt(index int) FocusTarget {
	return FocusTarget{index: index, set: true}
}

// Index returns the slot to focus and whether focus should move at all.
func (f FocusTarget) Index() (int, bool) {
	return f.index, f.set
}

// CodeBuffer holds the digits of a one-time code across CodeLength slots.
// Each slot is empty or a single ASCII digit. CodeBuffer is a value type:
// every edit returns a new buffer and leaves the receiver unchanged.
type CodeBuffer struct {
	slots [CodeLength]string
}

// digitsOnly strips everything except ASCII 0-9.
func digitsOnly(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func validSlot(index int) bool {
	return index >= 0 && index < CodeLength
}

// SetSlot applies raw input typed into slot index.
//
// Input with no digits at all is rejected unless it is empty, which clears
// the slot. Otherwise the last digit wins and focus advances to the next
// slot, except from the final one.
func (b CodeBuffer) SetSlot(index int, raw string) (CodeBuffer, FocusTarget) {
	if !validSlot(index) {
		return b, FocusTarget{}
	}

	clean := digitsOnly(raw)
	if clean == "" {
		if raw != "" {
			return b, FocusTarget{}
		}
		b.slots[index] = ""
		return b, FocusTarget{}
	}

	b.slots[index] = clean[len(clean)-1:]
	if index < CodeLength-1 {
		return b, FocusAt(index + 1)
	}
	return b, FocusTarget{}
}

// Backspace reports where focus goes when backspace is pressed in slot
// index: to the previous slot when the current one is already empty. It
// never changes the buffer; clearing a filled slot is SetSlot(index, "").
func (b CodeBuffer) Backspace(index int) FocusTarget {
	if !validSlot(index) || index == 0 || b.slots[index] != "" {
		return FocusTarget{}
	}
	return FocusAt(index - 1)
}

// Paste distributes the digits of text over the slots starting at slot 0.
// Extra digits are dropped and slots past the pasted digits keep their
// previous values. Focus lands on the slot after the last pasted digit,
// clamped to the final slot.
func (b CodeBuffer) Paste(text string) (CodeBuffer, FocusTarget) {
	digits := digitsOnly(text)
	if len(digits) > CodeLength {
		digits = digits[:CodeLength]
	}

	for i := 0; i < len(digits); i++ {
		b.slots[i] = digits[i : i+1]
	}

	return b, FocusAt(min(len(digits), CodeLength-1))
}

// Code concatenates the slots. The result is only a candidate code when
// Complete reports true.
func (b CodeBuffer) Code() string {
	return strings.Join(b.slots[:], "")
}

// Complete reports whether every slot holds a digit.
func (b CodeBuffer) Complete() bool {
	return len(b.Code()) == CodeLength
}

// Slots returns a copy of the slot values.
func (b CodeBuffer) Slots() [CodeLength]string {
	return b.slots
}
