package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/models"
)

// commandRepository is the PostgreSQL-backed implementation of
// [CommandRepository] against the "remote_commands" table. Commands move
// pending → delivered when the target device polls them, then to executed or
// failed when the device acknowledges.
type commandRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewCommandRepository constructs a [CommandRepository] backed by the
// provided database connection and logger.
func NewCommandRepository(db *DB, logger *logger.Logger) CommandRepository {
	logger.Debug().Msg("creating command repository")
	return &commandRepository{
		db:     db,
		logger: logger,
	}
}

func (r *commandRepository) CreateCommand(ctx context.Context, command models.RemoteCommand) (models.RemoteCommand, error) {
	log := logger.FromContext(ctx)

	if command.ID == uuid.Nil {
		command.ID = uuid.New()
	}

	row := r.db.QueryRowContext(ctx, createRemoteCommand, command.ID, command.UserID, command.TargetDeviceID, command.IssuedByDevice, command.Command)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*commandRepository.CreateCommand").Msg("error: row is nil")
		return models.RemoteCommand{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := scanCommand(row, &command); err != nil {
		log.Err(err).Str("func", "*commandRepository.CreateCommand").Msg("error: scanning error")
		return models.RemoteCommand{}, err
	}

	return command, nil
}

// FindCommandByID returns one command regardless of status.
func (r *commandRepository) FindCommandByID(ctx context.Context, commandID uuid.UUID) (models.RemoteCommand, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, findCommandByID, commandID)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*commandRepository.FindCommandByID").Msg("error: row is nil")
		return models.RemoteCommand{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	var command models.RemoteCommand
	if err := scanCommand(row, &command); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RemoteCommand{}, ErrCommandNotFound
		}
		log.Err(err).Str("func", "*commandRepository.FindCommandByID").Msg("error: scanning error")
		return models.RemoteCommand{}, err
	}

	return command, nil
}

// FindPendingCommandsForDevice lists undelivered commands for the device,
// oldest first so they are executed in issue order.
func (r *commandRepository) FindPendingCommandsForDevice(ctx context.Context, deviceID uuid.UUID) ([]models.RemoteCommand, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, findPendingCommandsForDevice, deviceID)
	if err != nil {
		log.Err(err).Str("func", "*commandRepository.FindPendingCommandsForDevice").Msg("error executing query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var commands []models.RemoteCommand
	for rows.Next() {
		var command models.RemoteCommand
		if err := scanCommand(rows, &command); err != nil {
			log.Err(err).Str("func", "*commandRepository.FindPendingCommandsForDevice").Msg("error scanning row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		commands = append(commands, command)
	}
	if err := rows.Err(); err != nil {
		log.Err(err).Str("func", "*commandRepository.FindPendingCommandsForDevice").Msg("error iterating rows")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return commands, nil
}

// MarkCommandsDelivered stamps every pending command for the device as
// delivered. Affecting zero rows is fine: the device simply had no queue.
func (r *commandRepository) MarkCommandsDelivered(ctx context.Context, deviceID uuid.UUID) error {
	log := logger.FromContext(ctx)

	if _, err := r.db.ExecContext(ctx, markCommandsDelivered, deviceID); err != nil {
		log.Err(err).Str("func", "*commandRepository.MarkCommandsDelivered").Msg("error executing statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// UpdateCommandStatus moves a command to its final status. The execution
// timestamp is only stamped on a successful acknowledgement.
func (r *commandRepository) UpdateCommandStatus(ctx context.Context, commandID uuid.UUID, status string) error {
	log := logger.FromContext(ctx)

	var executedAt *time.Time
	if status == models.CommandExecuted {
		now := time.Now().UTC()
		executedAt = &now
	}

	result, err := r.db.ExecContext(ctx, updateCommandStatus, commandID, status, executedAt)
	if err != nil {
		log.Err(err).Str("func", "*commandRepository.UpdateCommandStatus").Msg("error executing statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrCommandNotFound
	}

	return nil
}

func (r *commandRepository) FindCommandsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.RemoteCommand, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, findCommandsForUser, userID, limit)
	if err != nil {
		log.Err(err).Str("func", "*commandRepository.FindCommandsForUser").Msg("error executing query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var commands []models.RemoteCommand
	for rows.Next() {
		var command models.RemoteCommand
		if err := scanCommand(rows, &command); err != nil {
			log.Err(err).Str("func", "*commandRepository.FindCommandsForUser").Msg("error scanning row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		commands = append(commands, command)
	}
	if err := rows.Err(); err != nil {
		log.Err(err).Str("func", "*commandRepository.FindCommandsForUser").Msg("error iterating rows")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return commands, nil
}

func scanCommand(s scanner, command *models.RemoteCommand) error {
	return s.Scan(
		&command.ID,
		&command.UserID,
		&command.TargetDeviceID,
		&command.IssuedByDevice,
		&command.Command,
		&command.Status,
		&command.CreatedAt,
		&command.DeliveredAt,
		&command.ExecutedAt,
	)
}
