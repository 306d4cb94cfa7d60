package cmd

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/voxdash/voxdash/internal/config"
	"github.com/voxdash/voxdash/internal/logging"
)

// CLI represents the command-line interface structure
type CLI struct {
	Version     kong.VersionFlag `help:"Show version information"`
	Debug       bool             `help:"Enable debug logging to file" short:"d"`
	DebugFile   string           `help:"Custom path for debug log file (disables automatic cleanup)"`
	MaxLogFiles int              `help:"Maximum number of log files to keep (0 = unlimited)" default:"1000"`

	APIURL    string `help:"Gateway REST endpoint" name:"api-url"`
	SocketURL string `help:"Gateway realtime endpoint" name:"socket-url"`

	Run    RunCmd    `cmd:"" help:"Start the voxdash dashboard (default)" default:"1"`
	Login  LoginCmd  `cmd:"login" help:"Log in to the gateway and store credentials"`
	Logout LogoutCmd `cmd:"logout" help:"End the session and clear stored credentials"`
	Query  QueryCmd  `cmd:"query" help:"Run a single query and print the result"`
	Serve  ServeCmd  `cmd:"serve" help:"Expose the dashboard over SSH"`
	Status StatusCmd `cmd:"status" help:"Show session and connection configuration"`

	// Internal fields (not flags)
	Container  *Container       `kong:"-"`
	appVersion string           `kong:"-"`
	settings   *config.Settings `kong:"-"`
}

// SetSettings sets the settings on the CLI struct
func (c *CLI) SetSettings(settings *config.Settings) {
	c.settings = settings
}

// SetAppVersion records the build version for device registration
func (c *CLI) SetAppVersion(version string) {
	c.appVersion = version
}

// AfterApply initializes logging after CLI parsing and applies settings
func (c *CLI) AfterApply() error {
	// Apply settings with precedence: CLI flags > env vars > settings.json > defaults
	if c.settings != nil {
		if c.MaxLogFiles == 1000 {
			if _, hasEnv := os.LookupEnv("VOXDASH_MAX_LOG_FILES"); !hasEnv {
				if c.settings.MaxLogFiles != nil {
					c.MaxLogFiles = *c.settings.MaxLogFiles
				}
			}
		}

		if !c.Debug {
			if _, hasEnv := os.LookupEnv("VOXDASH_DEBUG"); !hasEnv {
				if c.settings.Debug != nil && *c.settings.Debug {
					c.Debug = true
				}
			}
		}
	}

	if c.APIURL == "" {
		c.APIURL = c.settings.EffectiveAPIURL()
	}
	if c.SocketURL == "" {
		c.SocketURL = c.settings.EffectiveSocketURL()
	}

	// Initialize logging first and get the log file path
	logFilePath, err := logging.Initialize(c.Debug, c.DebugFile, c.MaxLogFiles)
	if err != nil {
		return err
	}

	// Set environment variables AFTER initialization so child processes
	// inherit debug settings and append to the same log file
	if c.Debug || c.DebugFile != "" {
		os.Setenv("VOXDASH_DEBUG", "1")
		if logFilePath != "" {
			os.Setenv("VOXDASH_DEBUG_FILE", logFilePath)
		}
	}
	if c.MaxLogFiles != 1000 {
		os.Setenv("VOXDASH_MAX_LOG_FILES", fmt.Sprintf("%d", c.MaxLogFiles))
	}

	// Create container AFTER logging is initialized so the GORM logger
	// bridge never sees a nil logger
	container, err := NewContainer(c.APIURL, c.settings.ConnectionOptions(), c.appVersion)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	c.Container = container

	return nil
}

// Close closes all resources held by the CLI
func (c *CLI) Close() error {
	if c.Container != nil {
		return c.Container.Close()
	}
	return nil
}
