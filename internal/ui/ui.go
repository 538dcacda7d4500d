// Package ui provides the interactive to-do screen.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/todo-go/internal/store"
)

// DefaultPlaceholder is shown in the empty input field.
const DefaultPlaceholder = "New to-do"

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

// tuiConfig holds TUI configuration.
type tuiConfig struct {
	title       string
	placeholder string
	altScreen   bool
}

// WithTitle sets the title line.
func WithTitle(title string) TUIOption {
	return func(c *tuiConfig) {
		if title != "" {
			c.title = title
		}
	}
}

// WithAltScreen controls whether the screen uses the terminal's alternate buffer.
func WithAltScreen(enabled bool) TUIOption {
	return func(c *tuiConfig) {
		c.altScreen = enabled
	}
}

func newTUIConfig(opts []TUIOption) tuiConfig {
	c := tuiConfig{
		title:       "To Do",
		placeholder: DefaultPlaceholder,
		altScreen:   true,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// RunTUI shows the to-do screen until the user quits or ctx ends.
// The store is loaded by the screen; the caller flushes and closes it.
func RunTUI(ctx context.Context, st *store.Store, opts ...TUIOption) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	c := newTUIConfig(opts)
	model := newModel(ctx, st, c)

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if c.altScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(model, programOpts...)
	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
