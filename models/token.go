package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the token_type claim. Access tokens are stateless;
// refresh tokens are additionally tracked server-side by hash.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the JWT claim set used for both access and refresh tokens.
// Subject carries the user id, DeviceID the issuing device, TokenType
// distinguishes the two token kinds.
type Claims struct {
	jwt.RegisteredClaims

	DeviceID  string `json:"device_id"`
	TokenType string `json:"token_type"`
}

// UserID parses the subject claim as a UUID.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Device parses the device_id claim as a UUID.
func (c *Claims) Device() (uuid.UUID, error) {
	return uuid.Parse(c.DeviceID)
}

// TokenPair is the result of registration, login, and refresh:
// a short-lived access token plus a long-lived, rotating refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
}

// RefreshToken is the persisted record of one issued refresh token.
// TokenHash is the SHA-256 of the raw token; the raw value is never stored.
type RefreshToken struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	DeviceID  uuid.UUID `json:"device_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the RefreshToken model.
func (t RefreshToken) TableName() string {
	return "refresh_tokens"
}
