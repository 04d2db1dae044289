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

// authRequestRepository is the PostgreSQL-backed implementation of
// [AuthRequestRepository] against the "auth_requests" table. Pending lookups
// exclude expired challenges, and the cleanup worker sweeps them out of the
// table entirely.
type authRequestRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewAuthRequestRepository constructs an [AuthRequestRepository] backed by
// the provided database connection and logger.
func NewAuthRequestRepository(db *DB, logger *logger.Logger) AuthRequestRepository {
	logger.Debug().Msg("creating auth request repository")
	return &authRequestRepository{
		db:     db,
		logger: logger,
	}
}

func (r *authRequestRepository) CreateAuthRequest(ctx context.Context, request models.AuthRequest) (models.AuthRequest, error) {
	log := logger.FromContext(ctx)

	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}

	row := r.db.QueryRowContext(ctx, createAuthRequest, request.ID, request.UserID, request.RequesterDeviceID, request.TargetDeviceID, request.Challenge, request.ExpiresAt)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*authRequestRepository.CreateAuthRequest").Msg("error: row is nil")
		return models.AuthRequest{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := scanAuthRequest(row, &request); err != nil {
		log.Err(err).Str("func", "*authRequestRepository.CreateAuthRequest").Msg("error: scanning error")
		return models.AuthRequest{}, err
	}

	return request, nil
}

func (r *authRequestRepository) FindAuthRequestByID(ctx context.Context, requestID uuid.UUID) (models.AuthRequest, error) {
	log := logger.FromContext(ctx)

	var found models.AuthRequest
	row := r.db.QueryRowContext(ctx, findAuthRequestByID, requestID)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*authRequestRepository.FindAuthRequestByID").Msg("error: row is nil")
		return models.AuthRequest{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := scanAuthRequest(row, &found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AuthRequest{}, ErrAuthRequestNotFound
		}
		log.Err(err).Str("func", "*authRequestRepository.FindAuthRequestByID").Msg("error: scanning error")
		return models.AuthRequest{}, err
	}

	return found, nil
}

// FindPendingAuthRequestsForDevice lists still-open, unexpired challenges
// addressed to the device, newest first.
func (r *authRequestRepository) FindPendingAuthRequestsForDevice(ctx context.Context, deviceID uuid.UUID) ([]models.AuthRequest, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, findPendingAuthRequestsForDevice, deviceID)
	if err != nil {
		log.Err(err).Str("func", "*authRequestRepository.FindPendingAuthRequestsForDevice").Msg("error executing query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var requests []models.AuthRequest
	for rows.Next() {
		var request models.AuthRequest
		if err := scanAuthRequest(rows, &request); err != nil {
			log.Err(err).Str("func", "*authRequestRepository.FindPendingAuthRequestsForDevice").Msg("error scanning row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		log.Err(err).Str("func", "*authRequestRepository.FindPendingAuthRequestsForDevice").Msg("error iterating rows")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return requests, nil
}

// RespondAuthRequest records the target device's answer and moves the
// challenge to its final status.
func (r *authRequestRepository) RespondAuthRequest(ctx context.Context, requestID uuid.UUID, response string, status string) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, respondAuthRequest, requestID, response, status)
	if err != nil {
		log.Err(err).Str("func", "*authRequestRepository.RespondAuthRequest").Msg("error executing statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrAuthRequestNotFound
	}

	return nil
}

// DeleteExpiredAuthRequests removes pending challenges whose deadline has
// passed and reports how many were swept.
func (r *authRequestRepository) DeleteExpiredAuthRequests(ctx context.Context) (int64, error) {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, deleteExpiredAuthRequests)
	if err != nil {
		log.Err(err).Str("func", "*authRequestRepository.DeleteExpiredAuthRequests").Msg("error executing statement")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return affected, nil
}

func scanAuthRequest(s scanner, request *models.AuthRequest) error {
	return s.Scan(
		&request.ID,
		&request.UserID,
		&request.RequesterDeviceID,
		&request.TargetDeviceID,
		&request.Challenge,
		&request.Response,
		&request.Status,
		&request.ExpiresAt,
		&request.CreatedAt,
		&request.RespondedAt,
	)
}
