package models

import (
	"time"

	"github.com/google/uuid"
)

// VaultItemSync is the server-side metadata row for one vault item.
// The server never sees plaintext: EncryptedBlobID references an opaque
// ciphertext blob in the blob store.
type VaultItemSync struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Version         int64     `json:"version"`
	EncryptedBlobID string    `json:"encrypted_blob_id"`
	ModifiedAt      time.Time `json:"modified_at"`
	IsDeleted       bool      `json:"is_deleted"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the VaultItemSync model.
func (v VaultItemSync) TableName() string {
	return "vault_items_sync"
}

// SyncVersion is the per-user monotonic change counter. It starts absent
// (treated as 0) and every accepted mutation advances it by exactly one.
type SyncVersion struct {
	UserID         uuid.UUID `json:"user_id"`
	CurrentVersion int64     `json:"current_version"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SyncItem is the wire form of one item change. EncryptedData is the
// base64 ciphertext; tombstones carry an empty string.
type SyncItem struct {
	ID            uuid.UUID `json:"id"`
	EncryptedData string    `json:"encrypted_data"`
	Version       int64     `json:"version"`
	IsDeleted     bool      `json:"is_deleted"`

	// ModifiedAt is a Unix timestamp in seconds, used for
	// last-write-wins conflict resolution.
	ModifiedAt int64 `json:"modified_at"`
}

// SyncPushRequest is the body of POST /api/v1/sync/push.
type SyncPushRequest struct {
	BaseVersion int64      `json:"base_version"`
	Items       []SyncItem `json:"items"`
}

// SyncPushResponse reports the counter after the push and any items the
// server kept over the client's copy.
type SyncPushResponse struct {
	NewVersion   int64      `json:"new_version"`
	HadConflicts bool       `json:"had_conflicts"`
	Conflicts    []SyncItem `json:"conflicts"`
}

// SyncPullResponse is the body of GET /api/v1/sync/pull.
type SyncPullResponse struct {
	CurrentVersion int64      `json:"current_version"`
	Items          []SyncItem `json:"items"`
	HasMore        bool       `json:"has_more"`
}
