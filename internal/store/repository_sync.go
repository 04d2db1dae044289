// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/models"
)

// syncRepository is the PostgreSQL-backed implementation of [SyncRepository].
// It owns the per-user monotonic version counter ("sync_versions") and the
// ciphertext metadata rows ("vault_items_sync").
//
// IncrementSyncVersion is a single atomic upsert, so two devices pushing
// concurrently always observe distinct versions with no extra locking.
type syncRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewSyncRepository constructs a [SyncRepository] backed by the provided
// database connection and logger.
func NewSyncRepository(db *DB, logger *logger.Logger) SyncRepository {
	logger.Debug().Msg("creating sync repository")
	return &syncRepository{
		db:     db,
		logger: logger,
	}
}

// GetSyncVersion reports the user's current version counter. A user with no
// counter row yet is at version 0.
func (r *syncRepository) GetSyncVersion(ctx context.Context, userID uuid.UUID) (int64, error) {
	log := logger.FromContext(ctx)

	var version int64
	row := r.db.QueryRowContext(ctx, getSyncVersion, userID)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*syncRepository.GetSyncVersion").Msg("error: row is nil")
		return 0, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := row.Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		log.Err(err).Str("func", "*syncRepository.GetSyncVersion").Msg("error: scanning error")
		return 0, err
	}

	return version, nil
}

// IncrementSyncVersion advances the user's counter by exactly one and returns
// the new value. The first call for a user creates the row at version 1.
func (r *syncRepository) IncrementSyncVersion(ctx context.Context, userID uuid.UUID) (int64, error) {
	log := logger.FromContext(ctx)

	var version int64
	row := r.db.QueryRowContext(ctx, incrementSyncVersion, userID)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*syncRepository.IncrementSyncVersion").Msg("error: row is nil")
		return 0, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := row.Scan(&version); err != nil {
		log.Err(err).Str("func", "*syncRepository.IncrementSyncVersion").Msg("error: scanning error")
		return 0, err
	}

	return version, nil
}

// FindItemsSinceVersion returns the user's metadata rows with version
// strictly greater than sinceVersion, oldest version first, capped at limit.
func (r *syncRepository) FindItemsSinceVersion(ctx context.Context, userID uuid.UUID, sinceVersion int64, limit int) ([]models.VaultItemSync, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, findVaultItemsSinceVersion, userID, sinceVersion, limit)
	if err != nil {
		log.Err(err).Str("func", "*syncRepository.FindItemsSinceVersion").Msg("error executing query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var items []models.VaultItemSync
	for rows.Next() {
		var item models.VaultItemSync
		if err := scanVaultItem(rows, &item); err != nil {
			log.Err(err).Str("func", "*syncRepository.FindItemsSinceVersion").Msg("error scanning row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		log.Err(err).Str("func", "*syncRepository.FindItemsSinceVersion").Msg("error iterating rows")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return items, nil
}

// UpsertVaultItem inserts the metadata row for a new item or replaces the
// version, blob reference, modification time and tombstone flag of an
// existing one. The caller assigns the version before calling.
func (r *syncRepository) UpsertVaultItem(ctx context.Context, item models.VaultItemSync) (models.VaultItemSync, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, upsertVaultItem, item.ID, item.UserID, item.Version, item.EncryptedBlobID, item.ModifiedAt, item.IsDeleted)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*syncRepository.UpsertVaultItem").Msg("error: row is nil")
		return models.VaultItemSync{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := scanVaultItem(row, &item); err != nil {
		log.Err(err).Str("func", "*syncRepository.UpsertVaultItem").Msg("error: scanning error")
		return models.VaultItemSync{}, err
	}

	return item, nil
}

// FindVaultItemByID retrieves one metadata row scoped to its owner.
// An empty result set maps to [ErrVaultItemNotFound].
func (r *syncRepository) FindVaultItemByID(ctx context.Context, itemID uuid.UUID, userID uuid.UUID) (models.VaultItemSync, error) {
	log := logger.FromContext(ctx)

	var found models.VaultItemSync
	row := r.db.QueryRowContext(ctx, findVaultItemByID, itemID, userID)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*syncRepository.FindVaultItemByID").Msg("error: row is nil")
		return models.VaultItemSync{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := scanVaultItem(row, &found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.VaultItemSync{}, ErrVaultItemNotFound
		}
		log.Err(err).Str("func", "*syncRepository.FindVaultItemByID").Msg("error: scanning error")
		return models.VaultItemSync{}, err
	}

	return found, nil
}

func scanVaultItem(s scanner, item *models.VaultItemSync) error {
	return s.Scan(
		&item.ID,
		&item.UserID,
		&item.Version,
		&item.EncryptedBlobID,
		&item.ModifiedAt,
		&item.IsDeleted,
		&item.CreatedAt,
	)
}
