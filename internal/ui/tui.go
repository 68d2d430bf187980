package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// RunConsole runs the console until the user quits
func RunConsole(opts Options) error {
	app, err := NewApp(opts)
	if err != nil {
		return err
	}
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console error: %w", err)
	}
	return nil
}
