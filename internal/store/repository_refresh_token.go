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

// refreshTokenRepository is the PostgreSQL-backed implementation of
// [RefreshTokenRepository]. Only SHA-256 hashes of refresh tokens are stored;
// the raw token never reaches the database. Lookups exclude expired rows, so
// an expired token behaves exactly like one that never existed.
type refreshTokenRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewRefreshTokenRepository constructs a [RefreshTokenRepository] backed by
// the provided database connection and logger.
func NewRefreshTokenRepository(db *DB, logger *logger.Logger) RefreshTokenRepository {
	logger.Debug().Msg("creating refresh token repository")
	return &refreshTokenRepository{
		db:     db,
		logger: logger,
	}
}

func (r *refreshTokenRepository) CreateRefreshToken(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error) {
	log := logger.FromContext(ctx)

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	row := r.db.QueryRowContext(ctx, createRefreshToken, token.ID, token.UserID, token.DeviceID, token.TokenHash, token.ExpiresAt)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*refreshTokenRepository.CreateRefreshToken").Msg("error: row is nil")
		return models.RefreshToken{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := row.Scan(&token.ID, &token.UserID, &token.DeviceID, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt); err != nil {
		log.Err(err).Str("func", "*refreshTokenRepository.CreateRefreshToken").Msg("error: scanning error")
		return models.RefreshToken{}, err
	}

	return token, nil
}

// FindRefreshTokenByHash retrieves a live (unexpired) refresh token record by
// its SHA-256 hash. An empty result set maps to [ErrRefreshTokenNotFound].
func (r *refreshTokenRepository) FindRefreshTokenByHash(ctx context.Context, tokenHash string) (models.RefreshToken, error) {
	log := logger.FromContext(ctx)

	var found models.RefreshToken
	row := r.db.QueryRowContext(ctx, findRefreshTokenByHash, tokenHash)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*refreshTokenRepository.FindRefreshTokenByHash").Msg("error: row is nil")
		return models.RefreshToken{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := row.Scan(&found.ID, &found.UserID, &found.DeviceID, &found.TokenHash, &found.ExpiresAt, &found.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RefreshToken{}, ErrRefreshTokenNotFound
		}
		log.Err(err).Str("func", "*refreshTokenRepository.FindRefreshTokenByHash").Msg("error: scanning error")
		return models.RefreshToken{}, err
	}

	return found, nil
}

// DeleteRefreshToken removes one token record, used when rotating a refresh
// token on use and when revoking a device's session.
func (r *refreshTokenRepository) DeleteRefreshToken(ctx context.Context, tokenID uuid.UUID) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, deleteRefreshToken, tokenID)
	if err != nil {
		log.Err(err).Str("func", "*refreshTokenRepository.DeleteRefreshToken").Msg("error executing statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrRefreshTokenNotFound
	}

	return nil
}

// DeleteExpiredRefreshTokens removes every expired token row and reports how
// many were swept. Called periodically by the cleanup worker.
func (r *refreshTokenRepository) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, deleteExpiredRefreshTokens)
	if err != nil {
		log.Err(err).Str("func", "*refreshTokenRepository.DeleteExpiredRefreshTokens").Msg("error executing statement")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return affected, nil
}
