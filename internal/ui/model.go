package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/todo-go/internal/store"
	"github.com/nibzard/todo-go/internal/todo"
)

type mode int

const (
	modeLoading mode = iota
	modeInput
	modeList
	modeEdit
)

func (m mode) String() string {
	switch m {
	case modeLoading:
		return "loading"
	case modeInput:
		return "input"
	case modeList:
		return "list"
	case modeEdit:
		return "edit"
	}
	return "unknown"
}

// loadedMsg reports that the store finished loading.
type loadedMsg struct{}

type model struct {
	ctx   context.Context
	store *store.Store
	cfg   tuiConfig

	mode     mode
	input    lineInput
	edit     lineInput
	editID   string
	tasks    []todo.Task
	cursor   int
	offset   int
	showHelp bool

	width  int
	height int
}

func newModel(ctx context.Context, st *store.Store, cfg tuiConfig) *model {
	m := &model{
		ctx:   ctx,
		store: st,
		cfg:   cfg,
		mode:  modeLoading,
	}
	if st.Ready() {
		m.mode = modeInput
		m.refresh()
	}
	return m
}

func (m *model) Init() tea.Cmd {
	if m.mode != modeLoading {
		return nil
	}
	return loadCmd(m.ctx, m.store)
}

func loadCmd(ctx context.Context, st *store.Store) tea.Cmd {
	return func() tea.Msg {
		st.Load(ctx)
		return loadedMsg{}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.mode = modeInput
		m.refresh()
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampOffset()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeLoading:
			if msg.String() == "q" {
				return m, tea.Quit
			}
		case modeInput:
			return m.updateInput(msg)
		case modeList:
			return m.updateList(msg)
		case modeEdit:
			return m.updateEdit(msg)
		}
	}
	return m, nil
}

func (m *model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if _, ok := m.store.Add(m.input.Value()); ok {
			m.input.Reset()
			m.refresh()
			m.cursor = len(m.tasks) - 1
			m.clampOffset()
		}
		return m, nil
	case "esc":
		m.input.Reset()
		return m, nil
	case "tab", "down":
		if len(m.tasks) > 0 {
			m.mode = modeList
			m.clampCursor()
		}
		return m, nil
	}
	m.input.Update(msg)
	return m, nil
}

func (m *model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
	case "up", "k":
		if m.cursor == 0 {
			m.mode = modeInput
		} else {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.tasks) - 1
	case "tab", "shift+tab", "esc", "i":
		m.mode = modeInput
	case " ", "x":
		if task, ok := m.selected(); ok {
			m.store.SetCompleted(task.ID, !task.IsCompleted)
			m.refresh()
		}
	case "e", "enter":
		if task, ok := m.selected(); ok {
			m.editID = task.ID
			m.edit.SetValue(task.Text)
			m.mode = modeEdit
		}
	case "d", "delete", "backspace":
		if task, ok := m.selected(); ok {
			m.store.Delete(task.ID)
			m.refresh()
			if len(m.tasks) == 0 {
				m.mode = modeInput
			}
		}
	}
	m.clampCursor()
	m.clampOffset()
	return m, nil
}

func (m *model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		// A blank edit would leave an empty row; treat it as cancel.
		if text := m.edit.Value(); !isBlank(text) {
			m.store.SetText(m.editID, text)
		}
		m.finishEdit()
		return m, nil
	case "esc":
		m.finishEdit()
		return m, nil
	}
	m.edit.Update(msg)
	return m, nil
}

func (m *model) finishEdit() {
	m.editID = ""
	m.edit.Reset()
	m.mode = modeList
	m.refresh()
	if len(m.tasks) == 0 {
		m.mode = modeInput
	}
	m.clampCursor()
}

func (m *model) selected() (todo.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return todo.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func (m *model) refresh() {
	m.tasks = m.store.Tasks()
	m.clampCursor()
}

func (m *model) clampCursor() {
	if m.cursor >= len(m.tasks) {
		m.cursor = len(m.tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// listHeight is the number of task rows that fit on screen, or 0 when
// the screen size is unknown.
func (m *model) listHeight() int {
	if m.height == 0 {
		return 0
	}
	h := m.height - chromeHeight
	if m.showHelp {
		h -= helpHeight
	}
	if h < 1 {
		h = 1
	}
	return h
}

func (m *model) clampOffset() {
	h := m.listHeight()
	if h == 0 {
		m.offset = 0
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if last := len(m.tasks) - h; m.offset > last {
		m.offset = last
	}
	if m.offset < 0 {
		m.offset = 0
	}
}
