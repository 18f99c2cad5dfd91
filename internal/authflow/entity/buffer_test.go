package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func bufferOf(slots ...string) CodeBuffer {
	var b CodeBuffer
	copy(b.slots[:], slots)
	return b
}

func assertFocus(t *testing.T, want int, got FocusTarget) {
	t.Helper()
	idx, ok := got.Index()
	if want < 0 {
		assert.False(t, ok, "focus should not move")
		return
	}
	assert.True(t, ok, "focus should move")
	assert.Equal(t, want, idx)
}

func TestCodeBuffer_SetSlot(t *testing.T) {
	tests := []struct {
		name      string
		buf       CodeBuffer
		index     int
		raw       string
		wantSlots [CodeLength]string
		wantFocus int
	}{
		{
			name:      "digit advances focus",
			index:     0,
			raw:       "7",
			wantSlots: [CodeLength]string{"7"},
			wantFocus: 1,
		},
		{
			name:      "last digit wins",
			index:     2,
			raw:       "12a9",
			wantSlots: [CodeLength]string{"", "", "9"},
			wantFocus: 3,
		},
		{
			name:      "non digit rejected",
			buf:       bufferOf("1"),
			index:     0,
			raw:       "x",
			wantSlots: [CodeLength]string{"1"},
			wantFocus: -1,
		},
		{
			name:      "empty clears without moving focus",
			buf:       bufferOf("1", "2"),
			index:     1,
			raw:       "",
			wantSlots: [CodeLength]string{"1"},
			wantFocus: -1,
		},
		{
			name:      "final slot keeps focus",
			index:     5,
			raw:       "4",
			wantSlots: [CodeLength]string{"", "", "", "", "", "4"},
			wantFocus: -1,
		},
		{
			name:      "unicode digits are not ASCII digits",
			index:     0,
			raw:       "٣",
			wantSlots: [CodeLength]string{},
			wantFocus: -1,
		},
		{
			name:      "out of range ignored",
			buf:       bufferOf("1"),
			index:     6,
			raw:       "2",
			wantSlots: [CodeLength]string{"1"},
			wantFocus: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, focus := tt.buf.SetSlot(tt.index, tt.raw)
			assert.Equal(t, tt.wantSlots, got.Slots())
			assertFocus(t, tt.wantFocus, focus)
		})
	}
}

func TestCodeBuffer_SetSlot_DoesNotMutateReceiver(t *testing.T) {
	b := bufferOf("1")
	_, _ = b.SetSlot(0, "9")
	assert.Equal(t, "1", b.Slots()[0])
}

func TestCodeBuffer_Backspace(t *testing.T) {
	b := bufferOf("1", "", "3")

	assertFocus(t, 0, b.Backspace(1))
	assertFocus(t, -1, b.Backspace(2))
	assertFocus(t, -1, CodeBuffer{}.Backspace(0))
	assertFocus(t, -1, b.Backspace(-1))
}

func TestCodeBuffer_Paste(t *testing.T) {
	tests := []struct {
		name      string
		buf       CodeBuffer
		text      string
		wantCode  string
		wantSlots [CodeLength]string
		wantFocus int
	}{
		{
			name:      "full code with separators",
			text:      "12-34 56",
			wantCode:  "123456",
			wantSlots: [CodeLength]string{"1", "2", "3", "4", "5", "6"},
			wantFocus: 5,
		},
		{
			name:      "extra digits truncated",
			text:      "123456789",
			wantCode:  "123456",
			wantSlots: [CodeLength]string{"1", "2", "3", "4", "5", "6"},
			wantFocus: 5,
		},
		{
			name:      "short paste keeps later slots",
			buf:       bufferOf("", "", "", "7", "8", "9"),
			text:      "12",
			wantCode:  "12789",
			wantSlots: [CodeLength]string{"1", "2", "", "7", "8", "9"},
			wantFocus: 2,
		},
		{
			name:      "no digits",
			buf:       bufferOf("5"),
			text:      "abc",
			wantCode:  "5",
			wantSlots: [CodeLength]string{"5"},
			wantFocus: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, focus := tt.buf.Paste(tt.text)
			assert.Equal(t, tt.wantSlots, got.Slots())
			assert.Equal(t, tt.wantCode, got.Code())
			assertFocus(t, tt.wantFocus, focus)
		})
	}
}

func TestCodeBuffer_Complete(t *testing.T) {
	assert.False(t, CodeBuffer{}.Complete())
	assert.False(t, bufferOf("1", "2", "3", "", "5", "6").Complete())
	assert.True(t, bufferOf("1", "2", "3", "4", "5", "6").Complete())
}

func TestCodeBuffer_OnlyDigitsEverStored(t *testing.T) {
	inputs := []string{"a", "1b", "!!", "٣4", " 9 ", "\x00", "12345678901234"}

	var b CodeBuffer
	for i, in := range inputs {
		b, _ = b.SetSlot(i%CodeLength, in)
		b, _ = b.Paste(in)
		for _, s := range b.Slots() {
			if s == "" {
				continue
			}
			assert.Len(t, s, 1)
			assert.True(t, s[0] >= '0' && s[0] <= '9', "slot %q", s)
		}
	}
}
