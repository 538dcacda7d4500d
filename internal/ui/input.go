package ui

import (
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
)

// lineInput is a single-line text field.
type lineInput struct {
	value []rune
	pos   int
}

func (in *lineInput) Value() string {
	return string(in.value)
}

func (in *lineInput) SetValue(s string) {
	in.value = []rune(s)
	in.pos = len(in.value)
}

func (in *lineInput) Reset() {
	in.value = nil
	in.pos = 0
}

func (in *lineInput) insert(runes []rune) {
	tail := append([]rune{}, in.value[in.pos:]...)
	in.value = append(append(in.value[:in.pos], runes...), tail...)
	in.pos += len(runes)
}

// deleteWordBackward removes the word before the cursor, plus any
// spaces between it and the cursor.
func (in *lineInput) deleteWordBackward() {
	start := in.pos
	for start > 0 && unicode.IsSpace(in.value[start-1]) {
		start--
	}
	for start > 0 && !unicode.IsSpace(in.value[start-1]) {
		start--
	}
	in.value = append(in.value[:start], in.value[in.pos:]...)
	in.pos = start
}

// Update applies an editing key. It reports whether the key was consumed.
func (in *lineInput) Update(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyRunes:
		runes := make([]rune, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			// Pasted newlines become spaces so the field stays one line.
			if r == '\n' || r == '\r' || r == '\t' {
				r = ' '
			}
			if unicode.IsPrint(r) || r == ' ' {
				runes = append(runes, r)
			}
		}
		in.insert(runes)
	case tea.KeySpace:
		in.insert([]rune{' '})
	case tea.KeyBackspace:
		if in.pos > 0 {
			in.value = append(in.value[:in.pos-1], in.value[in.pos:]...)
			in.pos--
		}
	case tea.KeyDelete, tea.KeyCtrlD:
		if in.pos < len(in.value) {
			in.value = append(in.value[:in.pos], in.value[in.pos+1:]...)
		}
	case tea.KeyLeft, tea.KeyCtrlB:
		if in.pos > 0 {
			in.pos--
		}
	case tea.KeyRight, tea.KeyCtrlF:
		if in.pos < len(in.value) {
			in.pos++
		}
	case tea.KeyHome, tea.KeyCtrlA:
		in.pos = 0
	case tea.KeyEnd, tea.KeyCtrlE:
		in.pos = len(in.value)
	case tea.KeyCtrlU:
		in.value = append([]rune{}, in.value[in.pos:]...)
		in.pos = 0
	case tea.KeyCtrlK:
		in.value = in.value[:in.pos]
	case tea.KeyCtrlW:
		in.deleteWordBackward()
	default:
		return false
	}
	return true
}
