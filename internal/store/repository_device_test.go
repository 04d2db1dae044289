package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/keydrop/keydrop/models"
)

func newTestDeviceRepo(t *testing.T) (*deviceRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock := newTestDB(t)
	repo := &deviceRepository{db: db, logger: db.logger}
	return repo, mock
}

func deviceColumns() []string {
	return []string{"id", "user_id", "device_name", "device_type", "public_key", "push_token", "last_seen_at", "created_at"}
}

func TestCreateDevice_NormalizesType(t *testing.T) {
	repo, mock := newTestDeviceRepo(t)

	userID := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows(deviceColumns()).
		AddRow(uuid.New(), userID, "workstation", "desktop", nil, nil, now, now)

	// Unknown device types fall back to desktop before the INSERT.
	mock.ExpectQuery("INSERT INTO devices").
		WithArgs(sqlmock.AnyArg(), userID, "workstation", "desktop", nil).
		WillReturnRows(rows)

	created, err := repo.CreateDevice(context.Background(), models.Device{
		UserID:     userID,
		DeviceName: "workstation",
		DeviceType: "toaster",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.DeviceType != models.DeviceDesktop {
		t.Errorf("expected device type desktop, got %s", created.DeviceType)
	}
	if created.PushToken != nil {
		t.Error("expected no push token on a fresh device")
	}
}

func TestFindDevicesByUser(t *testing.T) {
	repo, mock := newTestDeviceRepo(t)

	userID := uuid.New()
	now := time.Now()
	pushToken := "apns-token"

	rows := sqlmock.NewRows(deviceColumns()).
		AddRow(uuid.New(), userID, "phone", "android", nil, pushToken, now, now).
		AddRow(uuid.New(), userID, "laptop", "desktop", nil, nil, now.Add(-time.Hour), now)

	mock.ExpectQuery("SELECT (.+) FROM devices").
		WithArgs(userID).
		WillReturnRows(rows)

	devices, err := repo.FindDevicesByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}
	if devices[0].PushToken == nil || *devices[0].PushToken != pushToken {
		t.Errorf("expected push token %q on newest device", pushToken)
	}
}

func TestDeleteDevice_WrongOwner(t *testing.T) {
	repo, mock := newTestDeviceRepo(t)

	deviceID, userID := uuid.New(), uuid.New()

	// The WHERE clause includes user_id, so a foreign device matches no rows.
	mock.ExpectExec("DELETE FROM devices").
		WithArgs(deviceID, userID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteDevice(context.Background(), deviceID, userID)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestTouchDevice(t *testing.T) {
	repo, mock := newTestDeviceRepo(t)

	deviceID := uuid.New()
	mock.ExpectExec("UPDATE devices SET last_seen_at").
		WithArgs(deviceID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.TouchDevice(context.Background(), deviceID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetPushToken_UnknownDevice(t *testing.T) {
	repo, mock := newTestDeviceRepo(t)

	deviceID := uuid.New()
	mock.ExpectExec("UPDATE devices SET push_token").
		WithArgs(deviceID, "fcm-token").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetPushToken(context.Background(), deviceID, "fcm-token")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}
