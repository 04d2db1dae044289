// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// vaultFile is the on-disk envelope around the encrypted vault. Only
// Blob is sensitive; Salt and the sync bookkeeping are plaintext so a
// locked client can still derive keys and resume an interrupted sync.
type vaultFile struct {
	Salt        string      `json:"salt"`
	Blob        string      `json:"blob"`
	SyncVersion int64       `json:"sync_version"`
	Tombstones  []tombstone `json:"tombstones,omitempty"`

	// Tokens is the server token pair, AEAD-sealed under the vault key
	// so a stolen vault file leaks no usable credentials.
	Tokens string `json:"tokens,omitempty"`
}

// tombstone records a local deletion not yet pushed to the server.
type tombstone struct {
	ID        string `json:"id"`
	DeletedAt int64  `json:"deleted_at"`
}

func loadVaultFile(path string) (*vaultFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoVaultFile
		}
		return nil, fmt.Errorf("read vault file: %w", err)
	}

	var f vaultFile
	if err = json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse vault file: %w", err)
	}

	return &f, nil
}

// saveVaultFile writes atomically: a rename over the old file, so a
// crash mid-write never leaves a truncated vault behind.
func saveVaultFile(path string, f *vaultFile) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal vault file: %w", err)
	}

	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create vault directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".keydrop-vault-*")
	if err != nil {
		return fmt.Errorf("create temp vault file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write vault file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close vault file: %w", err)
	}
	if err = os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod vault file: %w", err)
	}

	if err = os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace vault file: %w", err)
	}

	return nil
}

func vaultFileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
