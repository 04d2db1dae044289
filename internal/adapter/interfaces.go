// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

// Package adapter provides transport-layer abstractions for communicating
// with the keydrop server.
//
// The primary abstraction is [ServerAdapter], which decouples the client
// application from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPServerAdapter]).
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrConflict] for 409, [ErrUnauthorized] for 401).
package adapter

import (
	"context"

	"github.com/keydrop/keydrop/models"
)

// ServerAdapter defines transport-agnostic communication with the keydrop
// server. Implementations are responsible for serialisation, bearer token
// management, and mapping transport-level errors to the sentinel values
// defined in this package.
type ServerAdapter interface {
	// SetTokens stores the token pair that will back all subsequent
	// authenticated requests. It should be called immediately after a
	// successful Register, Login, or Refresh.
	SetTokens(pair models.TokenPair)

	// AccessToken returns the bearer token currently stored in the
	// adapter, or an empty string if no token has been set yet.
	AccessToken() string

	// Register creates an account plus its first device record. On
	// success the returned token pair is stored via SetTokens.
	Register(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error)

	// Login authenticates with the server using the client-derived auth
	// key and registers a new device. The response carries the KDF salt
	// so the device can rederive its local keys. On success the returned
	// token pair is stored via SetTokens.
	Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error)

	// Refresh rotates the refresh token. The old token is single-use;
	// on success the new pair replaces the stored one.
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)

	// Pull fetches vault item changes with version greater than
	// sinceVersion, limited per page. Returns [ErrUnauthorized] when the
	// access token is missing, invalid, or expired.
	Pull(ctx context.Context, sinceVersion int64, limit int) (models.SyncPullResponse, error)

	// Push submits local item changes against the given base version and
	// returns the server's conflict report.
	Push(ctx context.Context, req models.SyncPushRequest) (models.SyncPushResponse, error)

	// ListDevices returns every device registered to the account.
	ListDevices(ctx context.Context) ([]models.DeviceResponse, error)

	// RevokeDevice removes another of the account's devices. Revoking
	// the calling device is rejected by the server.
	RevokeDevice(ctx context.Context, deviceID string) error
}
