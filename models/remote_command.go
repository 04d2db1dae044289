package models

import (
	"time"

	"github.com/google/uuid"
)

// Remote command kinds.
const (
	CommandLock = "lock"
	CommandWipe = "wipe"
)

// Remote command statuses.
const (
	CommandPending   = "pending"
	CommandDelivered = "delivered"
	CommandExecuted  = "executed"
	CommandFailed    = "failed"
)

// RemoteCommand is a queued instruction for one of the user's devices,
// issued from another device: lock the local vault or wipe local data.
// Commands are fetched by the target on its next poll and acknowledged
// after execution.
type RemoteCommand struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	TargetDeviceID uuid.UUID  `json:"target_device_id"`
	IssuedByDevice uuid.UUID  `json:"issued_by_device"`
	Command        string     `json:"command"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	ExecutedAt     *time.Time `json:"executed_at,omitempty"`
}

// TableName returns the name of the database table
// associated with the RemoteCommand model.
func (r RemoteCommand) TableName() string {
	return "remote_commands"
}

// ValidCommand reports whether kind names a supported remote command.
func ValidCommand(kind string) bool {
	return kind == CommandLock || kind == CommandWipe
}
