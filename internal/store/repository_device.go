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

// deviceRepository is the PostgreSQL-backed implementation of
// [DeviceRepository] against the "devices" table. Every register and login
// enrolls a fresh device row; DeleteDevice checks user ownership so one user
// can never detach another user's device.
type deviceRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewDeviceRepository constructs a [DeviceRepository] backed by the provided
// database connection and logger.
func NewDeviceRepository(db *DB, logger *logger.Logger) DeviceRepository {
	logger.Debug().Msg("creating device repository")
	return &deviceRepository{
		db:     db,
		logger: logger,
	}
}

func (r *deviceRepository) CreateDevice(ctx context.Context, device models.Device) (models.Device, error) {
	log := logger.FromContext(ctx)

	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}
	device.DeviceType = models.NormalizeDeviceType(device.DeviceType)

	row := r.db.QueryRowContext(ctx, createDevice, device.ID, device.UserID, device.DeviceName, device.DeviceType, device.PublicKey)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*deviceRepository.CreateDevice").Msg("error: row is nil")
		return models.Device{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := scanDevice(row, &device); err != nil {
		log.Err(err).Str("func", "*deviceRepository.CreateDevice").Msg("error: scanning error")
		return models.Device{}, err
	}

	return device, nil
}

func (r *deviceRepository) FindDeviceByID(ctx context.Context, deviceID uuid.UUID) (models.Device, error) {
	log := logger.FromContext(ctx)

	var found models.Device
	row := r.db.QueryRowContext(ctx, findDeviceByID, deviceID)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*deviceRepository.FindDeviceByID").Msg("error: row is nil")
		return models.Device{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := scanDevice(row, &found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Device{}, ErrDeviceNotFound
		}
		log.Err(err).Str("func", "*deviceRepository.FindDeviceByID").Msg("error: scanning error")
		return models.Device{}, err
	}

	return found, nil
}

func (r *deviceRepository) FindDevicesByUser(ctx context.Context, userID uuid.UUID) ([]models.Device, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, findDevicesByUser, userID)
	if err != nil {
		log.Err(err).Str("func", "*deviceRepository.FindDevicesByUser").Msg("error executing query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		var device models.Device
		if err := scanDevice(rows, &device); err != nil {
			log.Err(err).Str("func", "*deviceRepository.FindDevicesByUser").Msg("error scanning row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		devices = append(devices, device)
	}
	if err := rows.Err(); err != nil {
		log.Err(err).Str("func", "*deviceRepository.FindDevicesByUser").Msg("error iterating rows")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return devices, nil
}

// TouchDevice bumps the device's last_seen_at to the current server time.
func (r *deviceRepository) TouchDevice(ctx context.Context, deviceID uuid.UUID) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, touchDevice, deviceID)
	if err != nil {
		log.Err(err).Str("func", "*deviceRepository.TouchDevice").Msg("error executing statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return checkDeviceAffected(result)
}

func (r *deviceRepository) SetPushToken(ctx context.Context, deviceID uuid.UUID, pushToken string) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, setDevicePushToken, deviceID, pushToken)
	if err != nil {
		log.Err(err).Str("func", "*deviceRepository.SetPushToken").Msg("error executing statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return checkDeviceAffected(result)
}

// DeleteDevice removes a device row. The user id is part of the WHERE clause,
// so deleting a device that belongs to somebody else reports
// [ErrDeviceNotFound] rather than leaking its existence.
func (r *deviceRepository) DeleteDevice(ctx context.Context, deviceID uuid.UUID, userID uuid.UUID) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, deleteDevice, deviceID, userID)
	if err != nil {
		log.Err(err).Str("func", "*deviceRepository.DeleteDevice").Msg("error executing statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return checkDeviceAffected(result)
}

// scanner is the subset of *sql.Row and *sql.Rows needed by the shared scan
// helpers in this package.
type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(s scanner, device *models.Device) error {
	return s.Scan(
		&device.ID,
		&device.UserID,
		&device.DeviceName,
		&device.DeviceType,
		&device.PublicKey,
		&device.PushToken,
		&device.LastSeenAt,
		&device.CreatedAt,
	)
}

func checkDeviceAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}
