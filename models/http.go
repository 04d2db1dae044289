package models

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest is the body of POST /api/v1/auth/register. AuthKey
// and Salt are base64; the auth key is a client-derived verifier, never
// the user's secret.
type RegisterRequest struct {
	Email      string `json:"email"`
	AuthKey    string `json:"auth_key"`
	Salt       string `json:"salt"`
	DeviceName string `json:"device_name"`
	DeviceType string `json:"device_type"`
}

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	Email      string `json:"email"`
	AuthKey    string `json:"auth_key"`
	DeviceName string `json:"device_name"`
	DeviceType string `json:"device_type"`
}

// RefreshRequest is the body of POST /api/v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse is returned by register and login. Salt is present only
// on login, so a new device can rederive its local keys.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	DeviceID     uuid.UUID `json:"device_id"`
	Salt         string    `json:"salt,omitempty"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
}

// SuccessResponse is the generic `{success}` body.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is the public error body for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DeviceResponse is one entry in the device list, annotated with
// whether it is the caller's own device.
type DeviceResponse struct {
	ID         uuid.UUID `json:"id"`
	DeviceName string    `json:"device_name"`
	DeviceType string    `json:"device_type"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
	IsCurrent  bool      `json:"is_current"`
}

// PushTokenRequest is the body of POST /api/v1/devices/{id}/push-token.
type PushTokenRequest struct {
	PushToken string `json:"push_token"`
}

// AuthRequestResponse is returned when a device opens an approval
// challenge against another device.
type AuthRequestResponse struct {
	RequestID uuid.UUID `json:"request_id"`
	Challenge string    `json:"challenge"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthRespondRequest is the body of POST /api/v1/devices/{id}/auth-response.
type AuthRespondRequest struct {
	RequestID uuid.UUID `json:"request_id"`
	Response  string    `json:"response"`
	Approved  bool      `json:"approved"`
}

// PendingAuthRequest is one entry in the pending-challenge list shown
// to a target device.
type PendingAuthRequest struct {
	RequestID           uuid.UUID `json:"request_id"`
	RequesterDeviceID   uuid.UUID `json:"requester_device_id"`
	RequesterDeviceName string    `json:"requester_device_name"`
	Challenge           string    `json:"challenge"`
	ExpiresAt           time.Time `json:"expires_at"`
	CreatedAt           time.Time `json:"created_at"`
}

// AddContactRequest is the body of POST /api/v1/emergency/contacts.
type AddContactRequest struct {
	Email              string  `json:"email"`
	Name               *string `json:"name,omitempty"`
	WaitingPeriodHours *int    `json:"waiting_period_hours,omitempty"`
}

// AcceptInvitationRequest is the body of
// POST /api/v1/emergency/contacts/{id}/accept.
type AcceptInvitationRequest struct {
	Token string `json:"token"`
}

// EmergencyRequestRequest is the body of POST /api/v1/emergency/request.
type EmergencyRequestRequest struct {
	EmergencyContactID uuid.UUID `json:"emergency_contact_id"`
	Reason             *string   `json:"reason,omitempty"`
}

// EmergencyRequestResponse is the summary returned when an access
// request is opened.
type EmergencyRequestResponse struct {
	RequestID           uuid.UUID `json:"request_id"`
	Status              string    `json:"status"`
	WaitingPeriodEndsAt time.Time `json:"waiting_period_ends_at"`
	CreatedAt           time.Time `json:"created_at"`
}

// GrantedAccess is one entry in the granted-access list: an approved
// request plus enough contact context to act on it.
type GrantedAccess struct {
	RequestID         uuid.UUID  `json:"request_id"`
	ContactID         uuid.UUID  `json:"emergency_contact_id"`
	OwnerUserID       uuid.UUID  `json:"owner_user_id"`
	OwnerEmail        string     `json:"owner_email"`
	Status            string     `json:"status"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
	VaultKeyEncrypted string     `json:"vault_key_encrypted,omitempty"`
}

// LockDeviceResponse is returned when a remote command is enqueued.
type LockDeviceResponse struct {
	Success   bool      `json:"success"`
	CommandID uuid.UUID `json:"command_id"`
}

// AckCommandRequest is the body of
// POST /api/v1/devices/commands/{id}/ack.
type AckCommandRequest struct {
	Success bool `json:"success"`
}
