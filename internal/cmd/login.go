package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/voxdash/voxdash/internal/logging"
)

// LoginCmd authenticates against the gateway and stores credentials
type LoginCmd struct {
	Username  string `help:"Backend username" short:"u"`
	Password  string `help:"Backend password (prompted when omitted)" short:"p"`
	ServerURL string `arg:"" help:"Business backend URL (e.g. https://erp.example.com)"`
}

// Run performs the login
func (l *LoginCmd) Run(cli *CLI) error {
	username := l.Username
	password := l.Password

	var fields []huh.Field
	if username == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Value(&username))
	}
	if password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&password))
	}
	if len(fields) > 0 {
		if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
			return fmt.Errorf("login aborted: %w", err)
		}
	}

	serverURL := strings.TrimRight(strings.TrimSpace(l.ServerURL), "/")

	session, err := cli.Container.SessionService.Login(context.Background(), username, password, serverURL)
	if err != nil {
		return err
	}

	logging.Logger.Info("CLI login complete", "username", session.Username)
	if session.User != nil && session.User.Name != "" {
		fmt.Printf("Logged in as %s (%s)\n", session.User.Name, session.Username)
	} else {
		fmt.Printf("Logged in as %s\n", session.Username)
	}
	return nil
}
