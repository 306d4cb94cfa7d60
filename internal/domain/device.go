package domain

// DeviceInfo describes the client installation to the authentication
// endpoints. The gateway uses it to scope refresh tokens per device.
type DeviceInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	OS         string `json:"os"`
	OSVersion  string `json:"osVersion"`
	AppVersion string `json:"appVersion"`
}
