package config

import "errors"

// Validation errors returned when required configuration groups are
// incomplete or invalid.
var (
	// ErrMissingDSN indicates the server was started without a database
	// connection string.
	ErrMissingDSN = errors.New("database DSN is required")
	// ErrMissingJWTSecret indicates the server was started without a
	// token signing secret.
	ErrMissingJWTSecret = errors.New("JWT signing secret is required")
	// ErrInvalidTokenTTL indicates a non-positive token lifetime.
	ErrInvalidTokenTTL = errors.New("token lifetimes must be positive")
	// ErrInvalidAdapterConfigs indicates invalid client adapter settings
	// (for example, missing server URL or request timeout).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidStorageConfigs indicates invalid client storage settings
	// (for example, empty vault file path).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidWorkerConfigs indicates invalid background worker settings
	// (for example, zero sweep interval).
	ErrInvalidWorkerConfigs = errors.New("invalid worker configuration")
)
