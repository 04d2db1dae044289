package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrEmailAlreadyExists is returned when an attempt to register a new user
	// fails because a user with the same email already exists in the database.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrUserNotFound is returned when a query expected to match at least one
	// user record produces an empty result set.
	ErrUserNotFound = errors.New("user was not found")

	// ErrDeviceNotFound is returned when a query or update targets a device
	// that does not exist in the database.
	ErrDeviceNotFound = errors.New("device was not found")

	// ErrRefreshTokenNotFound is returned when no live refresh token matches
	// the supplied hash. Expired tokens are treated as absent.
	ErrRefreshTokenNotFound = errors.New("refresh token was not found")

	// ErrVaultItemNotFound is returned when a sync metadata row (identified
	// by item id and user_id) does not exist in the database.
	ErrVaultItemNotFound = errors.New("vault item was not found")

	// ErrAuthRequestNotFound is returned when a device-approval request does
	// not exist in the database.
	ErrAuthRequestNotFound = errors.New("auth request was not found")

	// ErrContactNotFound is returned when an emergency contact lookup
	// (by id or by invitation token) produces no row. Expired invitation
	// tokens are treated as absent.
	ErrContactNotFound = errors.New("emergency contact was not found")

	// ErrAccessRequestNotFound is returned when an emergency access request
	// does not exist in the database.
	ErrAccessRequestNotFound = errors.New("emergency access request was not found")

	// ErrCommandNotFound is returned when a remote command does not exist in
	// the database.
	ErrCommandNotFound = errors.New("remote command was not found")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")
)
