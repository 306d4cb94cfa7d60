package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Default connection parameters. These mirror the gateway's recommended
// client settings and can be overridden per installation via settings.json.
const (
	DefaultAPIURL    = "https://gateway.voxdash.io"
	DefaultSocketURL = "wss://gateway.voxdash.io/ws"

	DefaultTimeoutMs           = 10000
	DefaultReconnectAttempts   = 5
	DefaultReconnectIntervalMs = 1000
	// Backoff between reconnection attempts never grows past this value
	MaxReconnectDelayMs = 5000
)

// Settings represents the structure of ~/.voxdash/settings.json.
// Pointer fields distinguish "not configured" from explicit zero values so
// CLI flags and env vars keep precedence over the file.
type Settings struct {
	APIURL              string `json:"api_url,omitempty"`
	Debug               *bool  `json:"debug,omitempty"`
	MaxLogFiles         *int   `json:"max_log_files,omitempty"`
	ReconnectAttempts   *int   `json:"reconnect_attempts,omitempty"`
	ReconnectIntervalMs *int   `json:"reconnect_interval_ms,omitempty"`
	SocketURL           string `json:"socket_url,omitempty"`
	TimeoutMs           *int   `json:"timeout_ms,omitempty"`
}

// ConnectionOptions are the effective transport parameters after applying
// configuration precedence.
type ConnectionOptions struct {
	ReconnectAttempts int
	ReconnectInterval time.Duration
	Timeout           time.Duration
}

// DefaultConnectionOptions returns the built-in connection parameters
func DefaultConnectionOptions() ConnectionOptions {
	return ConnectionOptions{
		ReconnectAttempts: DefaultReconnectAttempts,
		ReconnectInterval: time.Duration(DefaultReconnectIntervalMs) * time.Millisecond,
		Timeout:           time.Duration(DefaultTimeoutMs) * time.Millisecond,
	}
}

// ConnectionOptions derives transport parameters from the settings file,
// falling back to defaults for anything not configured.
func (s *Settings) ConnectionOptions() ConnectionOptions {
	opts := DefaultConnectionOptions()
	if s == nil {
		return opts
	}
	if s.ReconnectAttempts != nil {
		opts.ReconnectAttempts = *s.ReconnectAttempts
	}
	if s.ReconnectIntervalMs != nil {
		opts.ReconnectInterval = time.Duration(*s.ReconnectIntervalMs) * time.Millisecond
	}
	if s.TimeoutMs != nil {
		opts.Timeout = time.Duration(*s.TimeoutMs) * time.Millisecond
	}
	return opts
}

// EffectiveAPIURL returns the configured gateway URL or the default
func (s *Settings) EffectiveAPIURL() string {
	if s != nil && s.APIURL != "" {
		return s.APIURL
	}
	return DefaultAPIURL
}

// EffectiveSocketURL returns the configured realtime URL or the default
func (s *Settings) EffectiveSocketURL() string {
	if s != nil && s.SocketURL != "" {
		return s.SocketURL
	}
	return DefaultSocketURL
}

// LoadSettings loads settings from $VOXDASH_HOME/settings.json.
// Returns empty Settings if the file doesn't exist (not an error).
func LoadSettings() (*Settings, error) {
	path := GetSettingsPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil // Not an error, use defaults
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("invalid settings.json: %w", err)
	}

	return &settings, nil
}

// SaveSettings saves settings to $VOXDASH_HOME/settings.json
func SaveSettings(settings *Settings) error {
	if err := os.MkdirAll(GetVoxdashHome(), 0755); err != nil {
		return fmt.Errorf("failed to create voxdash home: %w", err)
	}

	path := GetSettingsPath()
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}
