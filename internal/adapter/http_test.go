// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/keydrop/keydrop/internal/config"
	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, server *httptest.Server) ServerAdapter {
	t.Helper()

	a, err := NewHTTPServerAdapter(config.Adapter{
		HTTPAddress:    server.URL,
		RequestTimeout: 5 * time.Second,
	}, logger.Nop())
	require.NoError(t, err)

	return a
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// ─────────────────────────────────────────────── NewHTTPServerAdapter ───────

func TestNewHTTPServerAdapter_EmptyAddress(t *testing.T) {
	_, err := NewHTTPServerAdapter(config.Adapter{}, logger.Nop())

	assert.Error(t, err)
}

func TestNewHTTPServerAdapter_BareHostPort(t *testing.T) {
	a, err := NewHTTPServerAdapter(config.Adapter{HTTPAddress: "localhost:8080"}, logger.Nop())

	require.NoError(t, err)
	assert.NotNil(t, a)
}

// ─────────────────────────────────────────────────────────────── auth ───────

func TestRegister_StoresIssuedTokens(t *testing.T) {
	userID, deviceID := uuid.New(), uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/auth/register", r.URL.Path)

		var req models.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user@example.com", req.Email)

		writeJSON(t, w, http.StatusOK, models.AuthResponse{
			UserID:       userID,
			DeviceID:     deviceID,
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresIn:    900,
		})
	}))
	defer server.Close()

	a := newTestAdapter(t, server)
	auth, err := a.Register(context.Background(), models.RegisterRequest{Email: "user@example.com"})

	require.NoError(t, err)
	assert.Equal(t, userID, auth.UserID)
	assert.Equal(t, "access-1", a.AccessToken())
}

func TestLogin_ConflictMapsToSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, models.ErrorResponse{Error: "invalid email or auth key"})
	}))
	defer server.Close()

	a := newTestAdapter(t, server)
	_, err := a.Login(context.Background(), models.LoginRequest{Email: "user@example.com"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "invalid email or auth key")
	assert.Empty(t, a.AccessToken())
}

func TestRefresh_UsesStoredTokenWhenEmpty(t *testing.T) {
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotToken = req.RefreshToken

		writeJSON(t, w, http.StatusOK, models.TokenPair{
			AccessToken:  "access-2",
			RefreshToken: "refresh-2",
			ExpiresIn:    900,
		})
	}))
	defer server.Close()

	a := newTestAdapter(t, server)
	a.SetTokens(models.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"})

	pair, err := a.Refresh(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, "refresh-1", gotToken)
	assert.Equal(t, "access-2", pair.AccessToken)
	assert.Equal(t, "access-2", a.AccessToken())
}

// ─────────────────────────────────────────────────────────────── sync ───────

func TestPull_SendsBearerAndQueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		assert.Equal(t, "42", r.URL.Query().Get("since_version"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))

		writeJSON(t, w, http.StatusOK, models.SyncPullResponse{CurrentVersion: 43})
	}))
	defer server.Close()

	a := newTestAdapter(t, server)
	a.SetTokens(models.TokenPair{AccessToken: "access-1"})

	pull, err := a.Pull(context.Background(), 42, 100)

	require.NoError(t, err)
	assert.Equal(t, int64(43), pull.CurrentVersion)
}

func TestPush_ReportsConflicts(t *testing.T) {
	itemID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.SyncPushRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(7), req.BaseVersion)

		writeJSON(t, w, http.StatusOK, models.SyncPushResponse{
			NewVersion:   8,
			HadConflicts: true,
			Conflicts:    []models.SyncItem{{ID: itemID}},
		})
	}))
	defer server.Close()

	a := newTestAdapter(t, server)
	push, err := a.Push(context.Background(), models.SyncPushRequest{BaseVersion: 7})

	require.NoError(t, err)
	assert.True(t, push.HadConflicts)
	require.Len(t, push.Conflicts, 1)
	assert.Equal(t, itemID, push.Conflicts[0].ID)
}

func TestPull_ServerErrorMapsToSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal Server Error"})
	}))
	defer server.Close()

	a := newTestAdapter(t, server)
	_, err := a.Pull(context.Background(), 0, 0)

	assert.ErrorIs(t, err, ErrInternalServerError)
}

// ──────────────────────────────────────────────────────────── devices ───────

func TestListDevices_Success(t *testing.T) {
	deviceID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/devices", r.URL.Path)
		writeJSON(t, w, http.StatusOK, []models.DeviceResponse{
			{ID: deviceID, DeviceName: "laptop", DeviceType: "desktop", IsCurrent: true},
		})
	}))
	defer server.Close()

	a := newTestAdapter(t, server)
	a.SetTokens(models.TokenPair{AccessToken: "access-1"})

	devices, err := a.ListDevices(context.Background())

	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, deviceID, devices[0].ID)
	assert.True(t, devices[0].IsCurrent)
}

func TestRevokeDevice_NotFound(t *testing.T) {
	deviceID := uuid.New().String()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/v1/devices/"+deviceID, r.URL.Path)
		writeJSON(t, w, http.StatusNotFound, models.ErrorResponse{Error: "device not found"})
	}))
	defer server.Close()

	a := newTestAdapter(t, server)
	err := a.RevokeDevice(context.Background(), deviceID)

	assert.ErrorIs(t, err, ErrNotFound)
}
