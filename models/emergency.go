package models

import (
	"time"

	"github.com/google/uuid"
)

// Emergency contact statuses.
const (
	EmergencyContactPending  = "pending"
	EmergencyContactAccepted = "accepted"
	EmergencyContactRevoked  = "revoked"
)

// Emergency access request statuses.
const (
	EmergencyAccessPending  = "pending"
	EmergencyAccessApproved = "approved"
	EmergencyAccessDenied   = "denied"
	EmergencyAccessExpired  = "expired"
)

// Emergency access log actions.
const (
	EmergencyLogContactAdded       = "contact_added"
	EmergencyLogContactRemoved     = "contact_removed"
	EmergencyLogInvitationAccepted = "invitation_accepted"
	EmergencyLogAccessRequested    = "access_requested"
	EmergencyLogAccessDenied       = "access_denied"
	EmergencyLogAccessAutoApproved = "access_auto_approved"
)

// Emergency access defaults.
const (
	// DefaultInvitationTTL is how long a contact invitation token stays
	// claimable.
	DefaultInvitationTTL = 7 * 24 * time.Hour

	// DefaultWaitingPeriodHours is applied when the owner does not pick
	// a waiting period for a new contact.
	DefaultWaitingPeriodHours = 48
)

// EmergencyContact links a vault owner to a trusted person who may
// request access after a waiting period. The contact is identified by
// email until they claim the invitation token, after which
// ContactUserID is linked.
type EmergencyContact struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	ContactEmail       string     `json:"contact_email"`
	ContactName        *string    `json:"contact_name,omitempty"`
	ContactUserID      *uuid.UUID `json:"contact_user_id,omitempty"`
	Status             string     `json:"status"`
	WaitingPeriodHours int        `json:"waiting_period_hours"`
	InvitationToken    string     `json:"-"`
	InvitationExpires  time.Time  `json:"invitation_expires_at"`
	AcceptedAt         *time.Time `json:"accepted_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the EmergencyContact model.
func (e EmergencyContact) TableName() string {
	return "emergency_contacts"
}

// InvitationExpired reports whether the invitation window has closed
// without being claimed.
func (e EmergencyContact) InvitationExpired(now time.Time) bool {
	return e.Status == EmergencyContactPending && now.After(e.InvitationExpires)
}

// EmergencyAccessRequest is one attempt by an accepted contact to open
// the grantor's vault. While pending the owner may deny it; once the
// waiting period elapses it is approved automatically.
type EmergencyAccessRequest struct {
	ID                  uuid.UUID  `json:"id"`
	ContactID           uuid.UUID  `json:"emergency_contact_id"`
	Reason              *string    `json:"reason,omitempty"`
	Status              string     `json:"status"`
	WaitingPeriodEndsAt time.Time  `json:"waiting_period_ends_at"`
	ApprovedAt          *time.Time `json:"approved_at,omitempty"`
	DeniedAt            *time.Time `json:"denied_at,omitempty"`
	VaultKeyEncrypted   string     `json:"vault_key_encrypted,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the EmergencyAccessRequest model.
func (e EmergencyAccessRequest) TableName() string {
	return "emergency_access_requests"
}

// AutoApprovable reports whether the waiting period has run out on a
// still-pending request.
func (e EmergencyAccessRequest) AutoApprovable(now time.Time) bool {
	return e.Status == EmergencyAccessPending && !now.Before(e.WaitingPeriodEndsAt)
}

// EmergencyAccessLog is one append-only audit record, keyed to the vault
// owner. Log rows are never updated or deleted.
type EmergencyAccessLog struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	ContactID *uuid.UUID `json:"emergency_contact_id,omitempty"`
	Action    string     `json:"action"`
	Details   string     `json:"details"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the EmergencyAccessLog model.
func (e EmergencyAccessLog) TableName() string {
	return "emergency_access_logs"
}
