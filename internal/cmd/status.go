package cmd

import (
	"context"
	"fmt"

	"github.com/voxdash/voxdash/internal/config"
)

// StatusCmd shows the stored session and effective configuration
type StatusCmd struct{}

// Run prints the status
func (s *StatusCmd) Run(cli *CLI) error {
	session := cli.Container.SessionService.CheckAuthStatus(context.Background())

	if session.IsLoggedIn {
		fmt.Printf("Logged in as:  %s\n", session.Username)
		if session.User != nil && session.User.Name != "" {
			fmt.Printf("Display name:  %s\n", session.User.Name)
		}
		fmt.Printf("Backend:       %s\n", session.ServerURL)
	} else {
		fmt.Println("Not logged in")
	}

	opts := cli.settings.ConnectionOptions()
	fmt.Printf("Gateway:       %s\n", cli.APIURL)
	fmt.Printf("Realtime:      %s\n", cli.SocketURL)
	fmt.Printf("Timeout:       %s\n", opts.Timeout)
	fmt.Printf("Reconnects:    %d (starting at %s)\n", opts.ReconnectAttempts, opts.ReconnectInterval)
	fmt.Printf("Data dir:      %s\n", config.GetVoxdashHome())
	return nil
}
