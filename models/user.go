package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. The server never holds the user's
// secret or any derived key: AuthKeyHash is a memory-hard hash of the
// client-derived auth-key, and KdfSalt is an opaque value the client needs
// to redrive its keys on a new device.
type User struct {
	// ID is the internal unique identifier of the user.
	ID uuid.UUID `json:"id"`

	// Email is the unique login identifier, stored lower-cased.
	Email string `json:"email"`

	// AuthKeyHash is the Argon2id hash (PHC string) of the client's
	// auth-key. Never exposed via JSON.
	AuthKeyHash string `json:"-"`

	// KdfSalt is the base64 salt the client used for its key derivation.
	// Returned on login so new devices can redrive the same keys.
	KdfSalt string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}
