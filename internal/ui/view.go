package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/todo-go/internal/todo"
)

const (
	// chromeHeight counts the lines around the task list: title, input
	// box, spacing and the two footer lines.
	chromeHeight = 9
	helpHeight   = len(helpLines) + 1

	defaultWidth = 48
	minBoxWidth  = 20
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F23657"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	focusedBoxStyle = boxStyle.
			BorderForeground(lipgloss.Color("#F23657"))
	placeholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	cursorStyle      = lipgloss.NewStyle().Reverse(true)
	activeTextStyle  = lipgloss.NewStyle()
	doneTextStyle    = lipgloss.NewStyle().
				Strikethrough(true).
				Faint(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F23657"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

var helpLines = [...][2]string{
	{"enter", "add the typed task"},
	{"tab, down", "move from the input to the list"},
	{"up/down, j/k", "select a task"},
	{"space, x", "mark complete / incomplete"},
	{"e, enter", "edit the selected task"},
	{"d, delete", "delete the selected task"},
	{"esc, tab", "back to the input"},
	{"q, ctrl+c", "quit"},
	{"?", "toggle this help"},
}

func (m *model) View() string {
	var b strings.Builder
	m.writeTitle(&b)

	if m.mode == modeLoading {
		b.WriteString(dimStyle.Render("Loading...") + "\n")
		return b.String()
	}

	m.writeInput(&b)
	m.writeTasks(&b)
	if m.showHelp {
		writeHelp(&b)
	}
	m.writeFooter(&b)
	return b.String()
}

func (m *model) boxWidth() int {
	w := m.width
	if w == 0 {
		w = defaultWidth
	}
	w -= 2
	if w < minBoxWidth {
		w = minBoxWidth
	}
	return w
}

func (m *model) writeTitle(b *strings.Builder) {
	b.WriteString(titleStyle.Render(m.cfg.title) + "\n\n")
}

func (m *model) writeInput(b *strings.Builder) {
	focused := m.mode == modeInput
	style := boxStyle
	if focused {
		style = focusedBoxStyle
	}
	content := renderField(&m.input, m.cfg.placeholder, focused)
	b.WriteString(style.Width(m.boxWidth()).Render(content) + "\n\n")
}

func (m *model) writeTasks(b *strings.Builder) {
	if len(m.tasks) == 0 {
		b.WriteString("  " + dimStyle.Render("Nothing to do.") + "\n")
		return
	}

	start, end := 0, len(m.tasks)
	if h := m.listHeight(); h > 0 {
		start = m.offset
		end = min(len(m.tasks), m.offset+h)
	}

	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(i) + "\n")
	}
}

func (m *model) renderRow(i int) string {
	task := m.tasks[i]
	selected := m.mode != modeInput && i == m.cursor

	marker := "  "
	if selected {
		marker = selectedStyle.Render("›") + " "
	}

	check := "○"
	if task.IsCompleted {
		check = "●"
	}

	if m.mode == modeEdit && task.ID == m.editID {
		return marker + check + " " + renderField(&m.edit, "", true)
	}

	width := m.boxWidth() - 4
	text := todo.Preview(task.Text, width)
	style := activeTextStyle
	if task.IsCompleted {
		style = doneTextStyle
	}
	if selected {
		check = selectedStyle.Render(check)
	}
	return marker + check + " " + style.Render(text)
}

// renderField draws a text field with its cursor when focused.
func renderField(in *lineInput, placeholder string, focused bool) string {
	if len(in.value) == 0 {
		if !focused {
			return placeholderStyle.Render(placeholder)
		}
		if placeholder == "" {
			return cursorStyle.Render(" ")
		}
		runes := []rune(placeholder)
		return cursorStyle.Render(string(runes[0])) + placeholderStyle.Render(string(runes[1:]))
	}
	if !focused {
		return string(in.value)
	}
	before := string(in.value[:in.pos])
	if in.pos >= len(in.value) {
		return before + cursorStyle.Render(" ")
	}
	at := string(in.value[in.pos])
	after := string(in.value[in.pos+1:])
	return before + cursorStyle.Render(at) + after
}

func writeHelp(b *strings.Builder) {
	b.WriteString("\n")
	for _, line := range helpLines {
		b.WriteString(fmt.Sprintf("  %-14s %s\n", line[0], dimStyle.Render(line[1])))
	}
}

func (m *model) writeFooter(b *strings.Builder) {
	active, completed := countTasks(m.tasks)
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d active · %d done", active, completed)) + "\n")

	var keys string
	switch m.mode {
	case modeInput:
		keys = "enter add · tab list · ctrl+c quit"
	case modeList:
		keys = "space toggle · e edit · d delete · ? help · q quit"
	case modeEdit:
		keys = "enter save · esc cancel"
	}
	b.WriteString(dimStyle.Render(keys))
}

func countTasks(tasks []todo.Task) (active, completed int) {
	for _, t := range tasks {
		if t.IsCompleted {
			completed++
		} else {
			active++
		}
	}
	return active, completed
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
