package crypto

import "errors"

// Sentinel errors returned by the cryptographic primitives. Decryption
// failures deliberately carry no detail: wrong key, corrupted
// ciphertext, and truncation are indistinguishable to the caller.
var (
	// ErrInvalidInput indicates an empty secret or a salt of the wrong
	// length was passed to key derivation.
	ErrInvalidInput = errors.New("invalid key derivation input")
	// ErrDecryptionFailed indicates AEAD decryption did not authenticate.
	ErrDecryptionFailed = errors.New("decryption failed")
	// ErrInvalidOptions indicates password generator options that leave
	// an empty character pool or an out-of-range length.
	ErrInvalidOptions = errors.New("invalid generator options")
	// ErrInvalidHash indicates a stored auth-key hash that cannot be
	// parsed back into its parameters.
	ErrInvalidHash = errors.New("invalid auth key hash")
)
