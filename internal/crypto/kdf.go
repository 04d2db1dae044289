// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// Argon2id tuning parameters (OWASP-recommended defaults). The same
// parameters must be used on every device or derived keys will not
// match.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // 64 MiB
	argonThreads = 4
	argonKeyLen  = 32 // 256 bits

	// SaltSize is the length of the per-user KDF salt.
	SaltSize = 16

	// KeySize is the length of every derived key.
	KeySize = 32
)

// HKDF expansion labels. Non-secret; they domain-separate the three
// derived keys from one master key.
const (
	labelVaultKey   = "keydrop-vault-key"
	labelAuthKey    = "keydrop-auth-key"
	labelSharingKey = "keydrop-sharing-key"
)

// MasterKey is the Argon2id output for one (secret, salt) pair. It
// exists only in client memory while the vault is unlocked and must be
// zeroized when no longer needed.
type MasterKey struct {
	key [KeySize]byte
}

// Bytes returns the raw key material. The returned slice aliases the
// key; callers must not retain it past the key's lifetime.
func (m *MasterKey) Bytes() []byte {
	return m.key[:]
}

// Zeroize overwrites the key material in place.
func (m *MasterKey) Zeroize() {
	Zeroize(m.key[:])
}

// KeySet holds the three keys expanded from one master key. The vault
// key encrypts items locally, the auth key is the credential presented
// to the server, and the sharing key is reserved for peer-to-peer
// credential exchange.
type KeySet struct {
	VaultKey   [KeySize]byte
	AuthKey    [KeySize]byte
	SharingKey [KeySize]byte
}

// Zeroize overwrites all three keys in place.
func (k *KeySet) Zeroize() {
	Zeroize(k.VaultKey[:])
	Zeroize(k.AuthKey[:])
	Zeroize(k.SharingKey[:])
}

// GenerateSalt reads SaltSize random bytes from the OS CSPRNG. Returns
// an error if the random read fails.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// DeriveMasterKey runs Argon2id over the user secret and salt. The
// derivation is deterministic: the same secret and salt always produce
// the same master key. Fails with [ErrInvalidInput] on an empty secret
// or a salt that is not SaltSize bytes.
//
// This call is deliberately slow (memory-hard); keep it off latency-
// sensitive goroutines.
func DeriveMasterKey(secret string, salt []byte) (*MasterKey, error) {
	if secret == "" || len(salt) != SaltSize {
		return nil, ErrInvalidInput
	}

	raw := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	mk := &MasterKey{}
	copy(mk.key[:], raw)
	Zeroize(raw)
	return mk, nil
}

// DeriveKeys expands the master key into the vault, auth, and sharing
// keys with HKDF-SHA256. Expansion is deterministic and cheap compared
// to [DeriveMasterKey].
func DeriveKeys(mk *MasterKey) (*KeySet, error) {
	if mk == nil {
		return nil, ErrInvalidInput
	}

	ks := &KeySet{}
	for _, d := range []struct {
		label string
		out   []byte
	}{
		{labelVaultKey, ks.VaultKey[:]},
		{labelAuthKey, ks.AuthKey[:]},
		{labelSharingKey, ks.SharingKey[:]},
	} {
		r := hkdf.New(sha256.New, mk.Bytes(), nil, []byte(d.label))
		if _, err := io.ReadFull(r, d.out); err != nil {
			ks.Zeroize()
			return nil, fmt.Errorf("hkdf expand %q: %w", d.label, err)
		}
	}

	return ks, nil
}
