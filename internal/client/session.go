// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/keydrop/keydrop/internal/adapter"
	"github.com/keydrop/keydrop/internal/crypto"
	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/vault"
	"github.com/keydrop/keydrop/models"
)

// Session is the headless client runtime. It owns the local encrypted
// vault file, the derived key material while unlocked, and the sync
// conversation with the server.
//
// All methods are safe for concurrent use; the vault and keys live
// behind one mutex.
type Session struct {
	server adapter.ServerAdapter
	logger *logger.Logger
	path   string

	mu          sync.Mutex
	keys        *crypto.KeySet
	vault       *vault.Vault
	salt        []byte
	syncVersion int64
	tombstones  []tombstone
	tokens      models.TokenPair
}

// RegisterParams carries everything needed to create a new account and
// its first vault.
type RegisterParams struct {
	Email      string
	Password   string
	DeviceName string
	DeviceType string
}

// LoginParams carries login credentials. Salt is base64 and only needed
// on a device with no local vault file yet; when the file exists its
// stored salt wins.
type LoginParams struct {
	Email      string
	Password   string
	Salt       string
	DeviceName string
	DeviceType string
}

// NewSession creates a session over the vault file at path. The vault
// starts locked; call Register, Login or Unlock before touching items.
func NewSession(server adapter.ServerAdapter, path string, logger *logger.Logger) *Session {
	return &Session{server: server, logger: logger, path: path}
}

// Register creates a new account: fresh salt, key derivation, server
// registration, and an empty vault persisted to disk. The session is
// left unlocked. Fails with [ErrVaultExists] if a vault file is already
// present.
func (s *Session) Register(ctx context.Context, p RegisterParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vaultFileExists(s.path) {
		return ErrVaultExists
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	keys, err := deriveKeys(p.Password, salt)
	if err != nil {
		return err
	}

	auth, err := s.server.Register(ctx, registerRequest(p, keys, salt))
	if err != nil {
		keys.Zeroize()
		return fmt.Errorf("register: %w", err)
	}

	s.keys = keys
	s.salt = salt
	s.vault = vault.New()
	s.syncVersion = 0
	s.tombstones = nil
	s.tokens = tokenPair(auth)

	if err = s.saveLocked(); err != nil {
		return err
	}

	s.logger.Info().Str("email", p.Email).Msg("registered new account")
	return nil
}

// Login authenticates against the server and unlocks the vault. On a
// device with an existing vault file the stored salt is used and the
// local vault is opened; on a fresh device p.Salt is required and an
// empty vault is created, to be filled by the next Sync.
func (s *Session) Login(ctx context.Context, p LoginParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var file *vaultFile
	if vaultFileExists(s.path) {
		f, err := loadVaultFile(s.path)
		if err != nil {
			return err
		}
		file = f
	}

	salt, err := resolveSalt(file, p.Salt)
	if err != nil {
		return err
	}

	keys, err := deriveKeys(p.Password, salt)
	if err != nil {
		return err
	}

	auth, err := s.server.Login(ctx, loginRequest(p, keys))
	if err != nil {
		keys.Zeroize()
		return fmt.Errorf("login: %w", err)
	}

	// The server returns the canonical salt; on a fresh device trust
	// it over whatever the caller supplied.
	if auth.Salt != "" {
		canonical, decodeErr := base64.StdEncoding.DecodeString(auth.Salt)
		if decodeErr == nil && len(canonical) == crypto.SaltSize {
			salt = canonical
		}
	}

	if file != nil {
		v, openErr := openVault(file, keys)
		if openErr != nil {
			keys.Zeroize()
			return openErr
		}
		s.vault = v
		s.syncVersion = file.SyncVersion
		s.tombstones = file.Tombstones
	} else {
		s.vault = vault.New()
		s.syncVersion = 0
		s.tombstones = nil
	}

	s.keys = keys
	s.salt = salt
	s.tokens = tokenPair(auth)

	if err = s.saveLocked(); err != nil {
		return err
	}

	s.logger.Info().Str("email", p.Email).Msg("logged in")
	return nil
}

// Unlock opens the local vault file offline. No server round-trip; the
// password is verified by the AEAD tag on the vault blob.
func (s *Session) Unlock(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := loadVaultFile(s.path)
	if err != nil {
		return err
	}

	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return fmt.Errorf("decode stored salt: %w", err)
	}

	keys, err := deriveKeys(password, salt)
	if err != nil {
		return err
	}

	v, err := openVault(file, keys)
	if err != nil {
		keys.Zeroize()
		return err
	}

	s.keys = keys
	s.salt = salt
	s.vault = v
	s.syncVersion = file.SyncVersion
	s.tombstones = file.Tombstones

	// Stored tokens are best-effort: a vault written before the first
	// login simply has none.
	if tokens, openErr := openTokens(file, keys); openErr == nil {
		s.tokens = tokens
		s.server.SetTokens(tokens)
	}
	return nil
}

// RefreshTokens exchanges the stored refresh token for a fresh pair and
// persists it. Call before Sync when the session was restored with
// Unlock rather than Login.
func (s *Session) RefreshTokens(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys == nil {
		return ErrVaultLocked
	}

	pair, err := s.server.Refresh(ctx, s.tokens.RefreshToken)
	if err != nil {
		return fmt.Errorf("refresh tokens: %w", err)
	}

	s.tokens = pair
	return s.saveLocked()
}

// Lock persists the vault and zeroizes all key material. A locked
// session can be reopened with Unlock.
func (s *Session) Lock() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys == nil {
		return nil
	}

	err := s.saveLocked()

	s.keys.Zeroize()
	s.keys = nil
	s.vault = nil
	crypto.Zeroize(s.salt)
	s.salt = nil
	return err
}

// Unlocked reports whether key material is currently held in memory.
func (s *Session) Unlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys != nil
}

// AddItem stores a new credential and persists the vault.
func (s *Session) AddItem(item vault.Item) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys == nil {
		return "", ErrVaultLocked
	}

	id := s.vault.AddItem(item)
	return id, s.saveLocked()
}

// GetItem returns one credential by id.
func (s *Session) GetItem(id string) (*vault.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys == nil {
		return nil, ErrVaultLocked
	}

	return s.vault.GetItem(id)
}

// UpdateItem replaces a credential in place and persists the vault.
func (s *Session) UpdateItem(id string, item vault.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys == nil {
		return ErrVaultLocked
	}

	if err := s.vault.UpdateItem(id, item); err != nil {
		return err
	}
	return s.saveLocked()
}

// RemoveItem deletes a credential locally and records a tombstone so
// the deletion propagates on the next Sync.
func (s *Session) RemoveItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys == nil {
		return ErrVaultLocked
	}

	if _, err := s.vault.RemoveItem(id); err != nil {
		return err
	}

	s.tombstones = append(s.tombstones, tombstone{ID: id, DeletedAt: time.Now().Unix()})
	return s.saveLocked()
}

// Search returns items matching the query by name, username or URL.
func (s *Session) Search(query string) ([]*vault.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys == nil {
		return nil, ErrVaultLocked
	}

	return s.vault.Search(query), nil
}

// Items returns every credential in the vault.
func (s *Session) Items() ([]vault.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys == nil {
		return nil, ErrVaultLocked
	}

	items := make([]vault.Item, len(s.vault.Items))
	copy(items, s.vault.Items)
	return items, nil
}

// SyncVersion returns the last server version this client has applied.
func (s *Session) SyncVersion() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncVersion
}

// saveLocked writes the current vault state to disk. Caller holds s.mu.
func (s *Session) saveLocked() error {
	blob, err := s.vault.Export(s.keys.VaultKey[:])
	if err != nil {
		return fmt.Errorf("export vault: %w", err)
	}

	encoded, err := blob.ToBase64()
	if err != nil {
		return fmt.Errorf("encode vault blob: %w", err)
	}

	sealed, err := sealTokens(s.tokens, s.keys)
	if err != nil {
		return err
	}

	return saveVaultFile(s.path, &vaultFile{
		Salt:        base64.StdEncoding.EncodeToString(s.salt),
		Blob:        encoded,
		SyncVersion: s.syncVersion,
		Tombstones:  s.tombstones,
		Tokens:      sealed,
	})
}

func deriveKeys(password string, salt []byte) (*crypto.KeySet, error) {
	mk, err := crypto.DeriveMasterKey(password, salt)
	if err != nil {
		return nil, fmt.Errorf("derive master key: %w", err)
	}
	defer mk.Zeroize()

	keys, err := crypto.DeriveKeys(mk)
	if err != nil {
		return nil, fmt.Errorf("derive key set: %w", err)
	}

	return keys, nil
}

func openVault(file *vaultFile, keys *crypto.KeySet) (*vault.Vault, error) {
	blob, err := crypto.BlobFromBase64(file.Blob)
	if err != nil {
		return nil, fmt.Errorf("decode vault blob: %w", err)
	}

	v, err := vault.Import(blob, keys.VaultKey[:])
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return nil, ErrWrongPassword
		}
		return nil, err
	}

	return v, nil
}

func tokenPair(auth models.AuthResponse) models.TokenPair {
	return models.TokenPair{
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
		ExpiresIn:    auth.ExpiresIn,
	}
}

func sealTokens(tokens models.TokenPair, keys *crypto.KeySet) (string, error) {
	if tokens.RefreshToken == "" {
		return "", nil
	}

	raw, err := json.Marshal(tokens)
	if err != nil {
		return "", fmt.Errorf("marshal tokens: %w", err)
	}
	defer crypto.Zeroize(raw)

	blob, err := crypto.Encrypt(raw, keys.VaultKey[:])
	if err != nil {
		return "", fmt.Errorf("seal tokens: %w", err)
	}

	return blob.ToBase64()
}

func openTokens(file *vaultFile, keys *crypto.KeySet) (models.TokenPair, error) {
	if file.Tokens == "" {
		return models.TokenPair{}, errors.New("no stored tokens")
	}

	blob, err := crypto.BlobFromBase64(file.Tokens)
	if err != nil {
		return models.TokenPair{}, err
	}

	raw, err := crypto.Decrypt(blob, keys.VaultKey[:])
	if err != nil {
		return models.TokenPair{}, err
	}
	defer crypto.Zeroize(raw)

	var tokens models.TokenPair
	if err = json.Unmarshal(raw, &tokens); err != nil {
		return models.TokenPair{}, err
	}

	return tokens, nil
}

func resolveSalt(file *vaultFile, supplied string) ([]byte, error) {
	encoded := supplied
	if file != nil {
		encoded = file.Salt
	}
	if encoded == "" {
		return nil, ErrSaltRequired
	}

	salt, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	if len(salt) != crypto.SaltSize {
		return nil, crypto.ErrInvalidInput
	}

	return salt, nil
}
