// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

package models

import (
	"github.com/google/uuid"
)

// Sync notification kinds.
const (
	NotifyChangesAvailable         = "changes_available"
	NotifyDeviceAdded              = "device_added"
	NotifyDeviceRemoved            = "device_removed"
	NotifyAuthRequestPending       = "auth_request_pending"
	NotifyAuthRequestResponded     = "auth_request_responded"
	NotifyEmergencyContactAccepted = "emergency_contact_accepted"
	NotifyEmergencyAccessRequested = "emergency_access_requested"
	NotifyEmergencyAccessApproved  = "emergency_access_approved"
	NotifyEmergencyAccessDenied    = "emergency_access_denied"
)

// SyncNotification is one broadcast event telling a user's other devices
// that something changed. SourceDeviceID identifies the originator so
// subscribers can skip their own echoes; Version is set only for
// changes_available events.
type SyncNotification struct {
	Kind           string    `json:"kind"`
	UserID         uuid.UUID `json:"user_id"`
	SourceDeviceID uuid.UUID `json:"source_device_id"`
	Version        int64     `json:"version,omitempty"`
}
