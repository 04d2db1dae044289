// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

package models

import (
	"time"

	"github.com/google/uuid"
)

// Auth request statuses.
const (
	AuthRequestPendingStatus  = "pending"
	AuthRequestApprovedStatus = "approved"
	AuthRequestRejectedStatus = "rejected"
)

// AuthRequestTTL is how long a device-approval challenge stays open.
const AuthRequestTTL = 5 * time.Minute

// AuthRequest is an inter-device approval challenge: a requesting
// device asks another device of the same user to vouch for it by
// signing a random challenge. Unanswered requests expire after
// AuthRequestTTL.
type AuthRequest struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	RequesterDeviceID uuid.UUID  `json:"requester_device_id"`
	TargetDeviceID    uuid.UUID  `json:"target_device_id"`
	Challenge         string     `json:"challenge"`
	Response          *string    `json:"response,omitempty"`
	Status            string     `json:"status"`
	ExpiresAt         time.Time  `json:"expires_at"`
	CreatedAt         time.Time  `json:"created_at"`
	RespondedAt       *time.Time `json:"responded_at,omitempty"`
}

// TableName returns the name of the database table
// associated with the AuthRequest model.
func (a AuthRequest) TableName() string {
	return "auth_requests"
}

// IsExpired reports whether the challenge deadline has passed at the
// given instant.
func (a AuthRequest) IsExpired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}
