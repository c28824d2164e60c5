package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DaanHessen/undercity/internal/engine"
)

// Run boots the TUI program around g and blocks until it exits.
func Run(ctx context.Context, g *engine.Game, opts Options) error {
	m := newModel(ctx, g, opts)
	program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
