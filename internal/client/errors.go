package client

import "errors"

var (
	// ErrVaultLocked indicates an operation that needs key material was
	// called before Unlock, Login or Register.
	ErrVaultLocked = errors.New("vault is locked")

	// ErrVaultExists indicates Register was asked to create a vault
	// file that is already present on disk.
	ErrVaultExists = errors.New("vault file already exists")

	// ErrNoVaultFile indicates no vault file exists at the configured
	// path.
	ErrNoVaultFile = errors.New("vault file not found")

	// ErrSaltRequired indicates a login on a device with no local vault
	// file and no explicitly supplied KDF salt.
	ErrSaltRequired = errors.New("kdf salt required for first login on this device")

	// ErrWrongPassword indicates the derived vault key failed to open
	// the local vault blob.
	ErrWrongPassword = errors.New("wrong master password")
)
