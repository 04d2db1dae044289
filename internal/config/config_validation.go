// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

package config

// validate checks the final merged [StructuredConfig] before it is
// returned from the builder. Requirements that depend on the process
// role are deferred: the server entrypoint calls
// [StructuredConfig.ValidateServer] and the client view is checked by
// [ClientConfig.validate].
func (cfg *StructuredConfig) validate() error {
	return nil
}

// ValidateServer checks the settings the sync server cannot run without.
// It is called once from the server entrypoint after loading.
func (cfg *StructuredConfig) ValidateServer() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrMissingDSN
	}

	if cfg.App.JWTSecret == "" {
		return ErrMissingJWTSecret
	}

	// An empty blob bucket is allowed: the server falls back to the
	// in-memory blob store for local runs.

	if cfg.App.AccessTokenTTL <= 0 || cfg.App.RefreshTokenTTL <= 0 {
		return ErrInvalidTokenTTL
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.VaultFilePath == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout == 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Workers.SyncInterval == 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}
