package config

import (
	"os"
	"path/filepath"
)

// GetVoxdashHome returns VOXDASH_HOME or ~/.voxdash default
func GetVoxdashHome() string {
	home := os.Getenv("VOXDASH_HOME")
	if home == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ".voxdash"
		}
		return filepath.Join(homeDir, ".voxdash")
	}
	return ExpandPath(home)
}

// GetDBPath returns $VOXDASH_HOME/credentials.db
func GetDBPath() string {
	return filepath.Join(GetVoxdashHome(), "credentials.db")
}

// GetDevicePath returns $VOXDASH_HOME/device.json
func GetDevicePath() string {
	return filepath.Join(GetVoxdashHome(), "device.json")
}

// GetSettingsPath returns $VOXDASH_HOME/settings.json
func GetSettingsPath() string {
	return filepath.Join(GetVoxdashHome(), "settings.json")
}

// GetSSHDir returns $VOXDASH_HOME/ssh, home of the serve host key
func GetSSHDir() string {
	return filepath.Join(GetVoxdashHome(), "ssh")
}

// ExpandPath expands ~ to home directory
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			if len(path) == 1 {
				return homeDir
			}
			return filepath.Join(homeDir, path[1:])
		}
	}
	return path
}
