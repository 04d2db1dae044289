// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
)

// NonceSize is the AES-GCM nonce length in bytes.
const NonceSize = 12

// EncryptedBlob is the wire form of one AEAD encryption: a fresh random
// nonce plus the ciphertext with its 16-byte authentication tag. Field
// order is fixed so two clients serializing the same blob produce
// byte-identical JSON.
type EncryptedBlob struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Encrypt seals plaintext under key with AES-256-GCM, drawing a fresh
// nonce from the OS CSPRNG for every call. Returns [ErrInvalidInput] if
// the key is not KeySize bytes.
func Encrypt(plaintext, key []byte) (*EncryptedBlob, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return &EncryptedBlob{
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, plaintext, nil),
	}, nil
}

// Decrypt opens the blob under key and returns the exact plaintext.
// Any failure — wrong key, corrupted ciphertext, wrong nonce length,
// truncation — surfaces as [ErrDecryptionFailed] with no further
// detail.
func Decrypt(blob *EncryptedBlob, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if blob == nil || len(blob.Nonce) != NonceSize {
		return nil, ErrDecryptionFailed
	}

	plaintext, err := gcm.Open(nil, blob.Nonce, blob.Ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}

// ToBase64 serializes the blob as JSON and base64-encodes it for
// transport.
func (b *EncryptedBlob) ToBase64() (string, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// BlobFromBase64 reverses [EncryptedBlob.ToBase64]. Malformed input
// surfaces as [ErrDecryptionFailed] so callers cannot distinguish a
// mangled envelope from a mangled ciphertext.
func BlobFromBase64(s string) (*EncryptedBlob, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	var blob EncryptedBlob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, ErrDecryptionFailed
	}

	return &blob, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidInput
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}
