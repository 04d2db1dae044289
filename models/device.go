package models

import (
	"time"

	"github.com/google/uuid"
)

// Device kinds accepted at registration and login. Unknown values are
// normalised to DeviceDesktop.
const (
	DeviceDesktop = "desktop"
	DeviceAndroid = "android"
	DeviceIOS     = "ios"
	DeviceBrowser = "browser"
)

// NormalizeDeviceType maps a free-form device type string to one of the
// known device kinds, defaulting to desktop.
func NormalizeDeviceType(s string) string {
	switch s {
	case DeviceDesktop, DeviceAndroid, DeviceIOS, DeviceBrowser:
		return s
	default:
		return DeviceDesktop
	}
}

// Device is one enrolled endpoint of a user. A fresh row is created on
// every successful register or login.
type Device struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	DeviceName string    `json:"device_name"`
	DeviceType string    `json:"device_type"`

	// PublicKey is optional and used for device-to-device auth challenges.
	PublicKey *string `json:"public_key,omitempty"`

	// PushToken is an opaque mobile push endpoint, if registered.
	PushToken *string `json:"push_token,omitempty"`

	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the Device model.
func (d Device) TableName() string {
	return "devices"
}
