package cmd

import (
	"github.com/voxdash/voxdash/internal/server"
)

// ServeCmd exposes the dashboard over SSH
type ServeCmd struct {
	Host string `help:"Host to bind the SSH server to" default:"localhost"`
	Port string `help:"Port for the SSH server" default:"2222"`
}

// Run starts the SSH server and blocks until shutdown
func (s *ServeCmd) Run(cli *CLI) error {
	srv, err := server.NewServer(
		s.Host,
		s.Port,
		cli.APIURL,
		cli.SocketURL,
		cli.settings.ConnectionOptions(),
		cli.Container.Device,
	)
	if err != nil {
		return err
	}
	return srv.Start()
}
