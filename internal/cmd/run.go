package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/voxdash/voxdash/internal/logging"
	"github.com/voxdash/voxdash/internal/ui"
)

// RunCmd starts the interactive dashboard
type RunCmd struct{}

// Run executes the TUI
func (r *RunCmd) Run(cli *CLI) error {
	logging.Logger.Info("Starting voxdash dashboard")

	// Restore a persisted session so a restart lands on the dashboard
	session := cli.Container.SessionService.CheckAuthStatus(context.Background())
	logging.Logger.Debug("Session restore complete", "logged_in", session.IsLoggedIn)

	model := ui.NewModel(
		cli.SocketURL,
		cli.Container.SessionService,
		cli.Container.Channel,
		cli.Container.QueryService,
	)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())

	logging.Logger.Info("Starting TUI program")
	if _, err := p.Run(); err != nil {
		logging.Logger.Error("TUI program error", "error", err)
		return fmt.Errorf("error running program: %w", err)
	}

	logging.Logger.Info("TUI program exited normally")
	return nil
}
