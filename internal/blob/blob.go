// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

// Package blob stores opaque encrypted vault payloads keyed by
// "{user-id}/{uuid}". Keys are never overwritten: every accepted item
// version gets a fresh blob.
package blob

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ErrBlobStorage wraps every backend failure, including a missing key
// on Retrieve. Callers cannot tell a transport error from a not-found;
// both mean the ciphertext is unavailable.
type ErrBlobStorage struct {
	Op  string
	Key string
	Err error
}

func (e *ErrBlobStorage) Error() string {
	return fmt.Sprintf("blob storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *ErrBlobStorage) Unwrap() error {
	return e.Err
}

// Store is the capability over ciphertext blobs. Implementations:
// [S3Store] for production, [MemoryStore] for tests.
type Store interface {
	Store(ctx context.Context, key string, data []byte) error
	Retrieve(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// NewBlobKey generates a fresh key in the user's namespace.
func NewBlobKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s/%s", userID, uuid.New())
}
