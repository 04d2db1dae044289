package service

import "errors"

var (
	ErrInvalidDataProvided = errors.New("invalid data provided")

	// ErrInvalidCredentials covers both unknown email and auth-key mismatch,
	// so a caller cannot probe which of the two failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenIsExpired = errors.New("token is expired")

	// ErrOwnDeviceTarget is returned when a device-scoped operation
	// (delete, auth request, remote command) targets the caller's own device.
	ErrOwnDeviceTarget = errors.New("operation must target another device")

	// ErrRequestNotPending is returned when a response or denial targets a
	// request that already reached a final status or has expired.
	ErrRequestNotPending = errors.New("request is no longer pending")

	// ErrContactNotAccepted is returned when an emergency access request is
	// made against a contact entry that is not in the accepted state.
	ErrContactNotAccepted = errors.New("emergency contact is not accepted")

	// ErrPendingRequestExists is returned when a contact already has an open
	// access request; only one may exist at a time.
	ErrPendingRequestExists = errors.New("a pending access request already exists")

	// ErrUnknownCommand is returned for command kinds other than lock and wipe.
	ErrUnknownCommand = errors.New("unknown remote command")
)
