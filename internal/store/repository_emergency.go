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

// emergencyRepository is the PostgreSQL-backed implementation of
// [EmergencyRepository]. It spans three tables: "emergency_contacts",
// "emergency_access_requests" and the append-only "emergency_access_logs".
//
// Invitation tokens are nulled out on acceptance so a claimed token can never
// be replayed; token lookups additionally exclude expired invitations.
type emergencyRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewEmergencyRepository constructs an [EmergencyRepository] backed by the
// provided database connection and logger.
func NewEmergencyRepository(db *DB, logger *logger.Logger) EmergencyRepository {
	logger.Debug().Msg("creating emergency repository")
	return &emergencyRepository{
		db:     db,
		logger: logger,
	}
}

func (r *emergencyRepository) CreateContact(ctx context.Context, contact models.EmergencyContact) (models.EmergencyContact, error) {
	log := logger.FromContext(ctx)

	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}
	if contact.WaitingPeriodHours <= 0 {
		contact.WaitingPeriodHours = models.DefaultWaitingPeriodHours
	}

	row := r.db.QueryRowContext(ctx, createEmergencyContact, contact.ID, contact.UserID, contact.ContactEmail, contact.ContactName, contact.WaitingPeriodHours, contact.InvitationToken, contact.InvitationExpires)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*emergencyRepository.CreateContact").Msg("error: row is nil")
		return models.EmergencyContact{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := scanContact(row, &contact); err != nil {
		log.Err(err).Str("func", "*emergencyRepository.CreateContact").Msg("error: scanning error")
		return models.EmergencyContact{}, err
	}

	return contact, nil
}

func (r *emergencyRepository) FindContactByID(ctx context.Context, contactID uuid.UUID) (models.EmergencyContact, error) {
	return r.findContact(ctx, findEmergencyContactByID, contactID, "*emergencyRepository.FindContactByID")
}

// FindContactByToken retrieves a contact by its live invitation token.
// Expired invitations are treated as absent.
func (r *emergencyRepository) FindContactByToken(ctx context.Context, invitationToken string) (models.EmergencyContact, error) {
	return r.findContact(ctx, findEmergencyContactByToken, invitationToken, "*emergencyRepository.FindContactByToken")
}

func (r *emergencyRepository) findContact(ctx context.Context, query string, arg any, fn string) (models.EmergencyContact, error) {
	log := logger.FromContext(ctx)

	var found models.EmergencyContact
	row := r.db.QueryRowContext(ctx, query, arg)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", fn).Msg("error: row is nil")
		return models.EmergencyContact{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := scanContact(row, &found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.EmergencyContact{}, ErrContactNotFound
		}
		log.Err(err).Str("func", fn).Msg("error: scanning error")
		return models.EmergencyContact{}, err
	}

	return found, nil
}

func (r *emergencyRepository) FindContactsByUser(ctx context.Context, userID uuid.UUID) ([]models.EmergencyContact, error) {
	return r.findContacts(ctx, findEmergencyContactsByUser, userID, "*emergencyRepository.FindContactsByUser")
}

func (r *emergencyRepository) FindContactsForContactUser(ctx context.Context, contactUserID uuid.UUID) ([]models.EmergencyContact, error) {
	return r.findContacts(ctx, findEmergencyContactsForContactUser, contactUserID, "*emergencyRepository.FindContactsForContactUser")
}

func (r *emergencyRepository) findContacts(ctx context.Context, query string, arg any, fn string) ([]models.EmergencyContact, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		log.Err(err).Str("func", fn).Msg("error executing query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var contacts []models.EmergencyContact
	for rows.Next() {
		var contact models.EmergencyContact
		if err := scanContact(rows, &contact); err != nil {
			log.Err(err).Str("func", fn).Msg("error scanning row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		log.Err(err).Str("func", fn).Msg("error iterating rows")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return contacts, nil
}

// AcceptInvitation links the claiming user to the contact entry, stamps the
// acceptance time and burns the invitation token.
func (r *emergencyRepository) AcceptInvitation(ctx context.Context, contactID uuid.UUID, contactUserID uuid.UUID) error {
	return r.execContact(ctx, acceptEmergencyContactInvitation, "*emergencyRepository.AcceptInvitation", contactID, contactUserID)
}

func (r *emergencyRepository) RevokeContact(ctx context.Context, contactID uuid.UUID) error {
	return r.execContact(ctx, revokeEmergencyContact, "*emergencyRepository.RevokeContact", contactID)
}

func (r *emergencyRepository) DeleteContact(ctx context.Context, contactID uuid.UUID) error {
	return r.execContact(ctx, deleteEmergencyContact, "*emergencyRepository.DeleteContact", contactID)
}

func (r *emergencyRepository) execContact(ctx context.Context, query string, fn string, args ...any) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", fn).Msg("error executing statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrContactNotFound
	}

	return nil
}

func (r *emergencyRepository) CreateAccessRequest(ctx context.Context, request models.EmergencyAccessRequest) (models.EmergencyAccessRequest, error) {
	log := logger.FromContext(ctx)

	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}

	row := r.db.QueryRowContext(ctx, createAccessRequest, request.ID, request.ContactID, request.Reason, request.WaitingPeriodEndsAt)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*emergencyRepository.CreateAccessRequest").Msg("error: row is nil")
		return models.EmergencyAccessRequest{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := scanAccessRequest(row, &request); err != nil {
		log.Err(err).Str("func", "*emergencyRepository.CreateAccessRequest").Msg("error: scanning error")
		return models.EmergencyAccessRequest{}, err
	}

	return request, nil
}

func (r *emergencyRepository) FindAccessRequestByID(ctx context.Context, requestID uuid.UUID) (models.EmergencyAccessRequest, error) {
	log := logger.FromContext(ctx)

	var found models.EmergencyAccessRequest
	row := r.db.QueryRowContext(ctx, findAccessRequestByID, requestID)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*emergencyRepository.FindAccessRequestByID").Msg("error: row is nil")
		return models.EmergencyAccessRequest{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := scanAccessRequest(row, &found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.EmergencyAccessRequest{}, ErrAccessRequestNotFound
		}
		log.Err(err).Str("func", "*emergencyRepository.FindAccessRequestByID").Msg("error: scanning error")
		return models.EmergencyAccessRequest{}, err
	}

	return found, nil
}

// FindPendingAccessRequestsForUser lists the open requests against the given
// vault owner, joined through the owner's contact entries, newest first.
func (r *emergencyRepository) FindPendingAccessRequestsForUser(ctx context.Context, userID uuid.UUID) ([]models.EmergencyAccessRequest, error) {
	return r.findAccessRequests(ctx, findPendingAccessRequestsForUser, userID, "*emergencyRepository.FindPendingAccessRequestsForUser")
}

func (r *emergencyRepository) FindAccessRequestsByContact(ctx context.Context, contactID uuid.UUID) ([]models.EmergencyAccessRequest, error) {
	return r.findAccessRequests(ctx, findAccessRequestsByContact, contactID, "*emergencyRepository.FindAccessRequestsByContact")
}

func (r *emergencyRepository) findAccessRequests(ctx context.Context, query string, arg any, fn string) ([]models.EmergencyAccessRequest, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		log.Err(err).Str("func", fn).Msg("error executing query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var requests []models.EmergencyAccessRequest
	for rows.Next() {
		var request models.EmergencyAccessRequest
		if err := scanAccessRequest(rows, &request); err != nil {
			log.Err(err).Str("func", fn).Msg("error scanning row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		log.Err(err).Str("func", fn).Msg("error iterating rows")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return requests, nil
}

func (r *emergencyRepository) DenyAccessRequest(ctx context.Context, requestID uuid.UUID) error {
	return r.execAccessRequest(ctx, denyAccessRequest, "*emergencyRepository.DenyAccessRequest", requestID)
}

// ApproveAccessRequest finalises a request and stores the vault key wrapped
// for the contact. The server only ever sees this key in its wrapped form.
func (r *emergencyRepository) ApproveAccessRequest(ctx context.Context, requestID uuid.UUID, vaultKeyEncrypted string) error {
	return r.execAccessRequest(ctx, approveAccessRequest, "*emergencyRepository.ApproveAccessRequest", requestID, vaultKeyEncrypted)
}

func (r *emergencyRepository) execAccessRequest(ctx context.Context, query string, fn string, args ...any) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", fn).Msg("error executing statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrAccessRequestNotFound
	}

	return nil
}

// ExpireAbandonedAccessRequests marks pending requests the contact left
// unclaimed for a month past their waiting period as expired and reports
// how many were affected. Requests inside that window stay pending so a
// poll can still auto-approve them. Called periodically by the cleanup
// worker.
func (r *emergencyRepository) ExpireAbandonedAccessRequests(ctx context.Context) (int64, error) {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, expireAbandonedAccessRequests)
	if err != nil {
		log.Err(err).Str("func", "*emergencyRepository.ExpireAbandonedAccessRequests").Msg("error executing statement")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return affected, nil
}

// CreateAccessLog appends one audit record. Log rows are insert-only; there
// is no update or delete path.
func (r *emergencyRepository) CreateAccessLog(ctx context.Context, entry models.EmergencyAccessLog) (models.EmergencyAccessLog, error) {
	log := logger.FromContext(ctx)

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	row := r.db.QueryRowContext(ctx, createAccessLog, entry.ID, entry.UserID, entry.ContactID, entry.Action, entry.Details)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*emergencyRepository.CreateAccessLog").Msg("error: row is nil")
		return models.EmergencyAccessLog{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := scanAccessLog(row, &entry); err != nil {
		log.Err(err).Str("func", "*emergencyRepository.CreateAccessLog").Msg("error: scanning error")
		return models.EmergencyAccessLog{}, err
	}

	return entry, nil
}

func (r *emergencyRepository) FindAccessLogsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.EmergencyAccessLog, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, findAccessLogsForUser, userID, limit)
	if err != nil {
		log.Err(err).Str("func", "*emergencyRepository.FindAccessLogsForUser").Msg("error executing query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var entries []models.EmergencyAccessLog
	for rows.Next() {
		var entry models.EmergencyAccessLog
		if err := scanAccessLog(rows, &entry); err != nil {
			log.Err(err).Str("func", "*emergencyRepository.FindAccessLogsForUser").Msg("error scanning row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		log.Err(err).Str("func", "*emergencyRepository.FindAccessLogsForUser").Msg("error iterating rows")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return entries, nil
}

func scanContact(s scanner, contact *models.EmergencyContact) error {
	var token sql.NullString
	err := s.Scan(
		&contact.ID,
		&contact.UserID,
		&contact.ContactEmail,
		&contact.ContactName,
		&contact.ContactUserID,
		&contact.Status,
		&contact.WaitingPeriodHours,
		&token,
		&contact.InvitationExpires,
		&contact.AcceptedAt,
		&contact.CreatedAt,
	)
	if err != nil {
		return err
	}
	contact.InvitationToken = token.String
	return nil
}

func scanAccessRequest(s scanner, request *models.EmergencyAccessRequest) error {
	var vaultKey sql.NullString
	err := s.Scan(
		&request.ID,
		&request.ContactID,
		&request.Reason,
		&request.Status,
		&request.WaitingPeriodEndsAt,
		&request.ApprovedAt,
		&request.DeniedAt,
		&vaultKey,
		&request.CreatedAt,
	)
	if err != nil {
		return err
	}
	request.VaultKeyEncrypted = vaultKey.String
	return nil
}

func scanAccessLog(s scanner, entry *models.EmergencyAccessLog) error {
	var details sql.NullString
	err := s.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.ContactID,
		&entry.Action,
		&details,
		&entry.CreatedAt,
	)
	if err != nil {
		return err
	}
	entry.Details = details.String
	return nil
}
