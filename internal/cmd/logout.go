package cmd

import (
	"context"
	"fmt"
)

// LogoutCmd ends the session and clears stored credentials
type LogoutCmd struct{}

// Run performs the logout
func (l *LogoutCmd) Run(cli *CLI) error {
	cli.Container.SessionService.CheckAuthStatus(context.Background())
	cli.Container.SessionService.Logout(context.Background())
	fmt.Println("Logged out")
	return nil
}
