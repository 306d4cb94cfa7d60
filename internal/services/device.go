package services

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/voxdash/voxdash/internal/config"
	"github.com/voxdash/voxdash/internal/domain"
	"github.com/voxdash/voxdash/internal/logging"
)

// deviceRecord is the persisted device identity at $VOXDASH_HOME/device.json
type deviceRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// LoadDeviceInfo returns the device descriptor submitted to the auth
// endpoints. The device ID is minted once and persisted under an
// exclusive file lock so concurrent voxdash processes (CLI plus a serve
// instance) agree on the same identity.
func LoadDeviceInfo(appVersion string) domain.DeviceInfo {
	info := domain.DeviceInfo{
		Name:       hostName(),
		Type:       "terminal",
		OS:         runtime.GOOS,
		OSVersion:  osVersion(),
		AppVersion: appVersion,
	}

	record, err := loadOrCreateDeviceRecord(config.GetDevicePath())
	if err != nil {
		// Identity persistence is best-effort; a fresh ID per process is
		// acceptable when the home directory is unusable
		logging.Logger.Warn("Failed to persist device identity", "error", err)
		record = deviceRecord{ID: uuid.New().String()}
	}

	info.Name = record.ID[:8] + "@" + info.Name
	return info
}

// loadOrCreateDeviceRecord reads the device file, minting and writing a
// new record when none exists yet.
func loadOrCreateDeviceRecord(path string) (deviceRecord, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return deviceRecord{}, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return deviceRecord{}, err
	}
	defer file.Close()

	if err := lockFile(file); err != nil {
		return deviceRecord{}, err
	}
	defer unlockFile(file)

	data, err := io.ReadAll(file)
	if err != nil {
		return deviceRecord{}, err
	}

	var record deviceRecord
	if len(data) > 0 {
		if err := json.Unmarshal(data, &record); err != nil {
			logging.Logger.Warn("Corrupt device file, recreating", "path", path, "error", err)
		}
	}
	if record.ID != "" {
		return record, nil
	}

	record = deviceRecord{ID: uuid.New().String(), CreatedAt: time.Now().UTC()}
	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return deviceRecord{}, err
	}
	if err := file.Truncate(0); err != nil {
		return deviceRecord{}, err
	}
	if _, err := file.WriteAt(out, 0); err != nil {
		return deviceRecord{}, err
	}

	logging.Logger.Info("Minted device identity", "device_id", record.ID)
	return record, nil
}

func hostName() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "unknown-host"
	}
	return name
}
