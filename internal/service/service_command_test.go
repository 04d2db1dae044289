package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keydrop/keydrop/internal/store"
	"github.com/keydrop/keydrop/models"
)

type commandFixture struct {
	commands *fakeCommandRepo
	devices  *fakeDeviceRepo
	svc      CommandService
}

func newCommandFixture(t *testing.T) *commandFixture {
	t.Helper()

	f := &commandFixture{
		commands: &fakeCommandRepo{},
		devices:  &fakeDeviceRepo{},
	}
	f.svc = NewCommandService(testRepos(nil, f.devices, nil, nil, nil, nil, f.commands), testBus(), nopLogger())
	return f
}

func TestCommandService_SendCommand(t *testing.T) {
	f := newCommandFixture(t)

	userID := uuid.New()
	issuer := uuid.New()
	target := uuid.New()

	f.devices.FindDeviceByIDFn = func(_ context.Context, deviceID uuid.UUID) (models.Device, error) {
		return models.Device{ID: deviceID, UserID: userID}, nil
	}
	f.commands.CreateCommandFn = func(_ context.Context, command models.RemoteCommand) (models.RemoteCommand, error) {
		command.ID = uuid.New()
		command.Status = models.CommandPending
		return command, nil
	}

	command, err := f.svc.SendCommand(context.Background(), userID, issuer, target, models.CommandLock)
	require.NoError(t, err)

	assert.Equal(t, models.CommandLock, command.Command)
	assert.Equal(t, models.CommandPending, command.Status)
	assert.Equal(t, target, command.TargetDeviceID)
	assert.Equal(t, issuer, command.IssuedByDevice)
}

func TestCommandService_SendCommand_Guards(t *testing.T) {
	userID := uuid.New()
	issuer := uuid.New()

	t.Run("unknown kind", func(t *testing.T) {
		f := newCommandFixture(t)
		_, err := f.svc.SendCommand(context.Background(), userID, issuer, uuid.New(), "reboot")
		assert.ErrorIs(t, err, ErrUnknownCommand)
	})

	t.Run("self target", func(t *testing.T) {
		f := newCommandFixture(t)
		_, err := f.svc.SendCommand(context.Background(), userID, issuer, issuer, models.CommandWipe)
		assert.ErrorIs(t, err, ErrOwnDeviceTarget)
	})

	t.Run("foreign target reads as not found", func(t *testing.T) {
		f := newCommandFixture(t)
		f.devices.FindDeviceByIDFn = func(_ context.Context, deviceID uuid.UUID) (models.Device, error) {
			return models.Device{ID: deviceID, UserID: uuid.New()}, nil
		}
		_, err := f.svc.SendCommand(context.Background(), userID, issuer, uuid.New(), models.CommandLock)
		assert.ErrorIs(t, err, store.ErrDeviceNotFound)
	})
}

func TestCommandService_PollCommands_MarksDelivered(t *testing.T) {
	f := newCommandFixture(t)

	userID := uuid.New()
	deviceID := uuid.New()

	f.devices.FindDeviceByIDFn = func(_ context.Context, _ uuid.UUID) (models.Device, error) {
		return models.Device{ID: deviceID, UserID: userID}, nil
	}
	f.commands.FindPendingCommandsForDeviceFn = func(_ context.Context, _ uuid.UUID) ([]models.RemoteCommand, error) {
		return []models.RemoteCommand{{ID: uuid.New(), Command: models.CommandLock, Status: models.CommandPending}}, nil
	}

	marked := false
	f.commands.MarkCommandsDeliveredFn = func(_ context.Context, id uuid.UUID) error {
		assert.Equal(t, deviceID, id)
		marked = true
		return nil
	}

	commands, err := f.svc.PollCommands(context.Background(), userID, deviceID)
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.True(t, marked, "fetched commands move to delivered")
}

func TestCommandService_PollCommands_EmptyQueueSkipsDeliveryMark(t *testing.T) {
	f := newCommandFixture(t)

	userID := uuid.New()
	deviceID := uuid.New()

	f.devices.FindDeviceByIDFn = func(_ context.Context, _ uuid.UUID) (models.Device, error) {
		return models.Device{ID: deviceID, UserID: userID}, nil
	}
	f.commands.FindPendingCommandsForDeviceFn = func(_ context.Context, _ uuid.UUID) ([]models.RemoteCommand, error) {
		return nil, nil
	}
	// MarkCommandsDeliveredFn stays nil: calling it would panic

	commands, err := f.svc.PollCommands(context.Background(), userID, deviceID)
	require.NoError(t, err)
	assert.Empty(t, commands)
}

func TestCommandService_AckCommand(t *testing.T) {
	userID := uuid.New()
	deviceID := uuid.New()
	commandID := uuid.New()

	delivered := models.RemoteCommand{
		ID:             commandID,
		UserID:         userID,
		TargetDeviceID: deviceID,
		Command:        models.CommandWipe,
		Status:         models.CommandDelivered,
	}

	tests := []struct {
		name       string
		success    bool
		wantStatus string
	}{
		{"success acks as executed", true, models.CommandExecuted},
		{"failure acks as failed", false, models.CommandFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCommandFixture(t)
			f.commands.FindCommandByIDFn = func(_ context.Context, _ uuid.UUID) (models.RemoteCommand, error) {
				return delivered, nil
			}

			var gotStatus string
			f.commands.UpdateCommandStatusFn = func(_ context.Context, _ uuid.UUID, status string) error {
				gotStatus = status
				return nil
			}

			require.NoError(t, f.svc.AckCommand(context.Background(), userID, deviceID, commandID, tt.success))
			assert.Equal(t, tt.wantStatus, gotStatus)
		})
	}
}

func TestCommandService_AckCommand_Guards(t *testing.T) {
	userID := uuid.New()
	deviceID := uuid.New()
	commandID := uuid.New()

	t.Run("wrong device", func(t *testing.T) {
		f := newCommandFixture(t)
		f.commands.FindCommandByIDFn = func(_ context.Context, _ uuid.UUID) (models.RemoteCommand, error) {
			return models.RemoteCommand{ID: commandID, UserID: userID, TargetDeviceID: uuid.New(), Status: models.CommandDelivered}, nil
		}

		err := f.svc.AckCommand(context.Background(), userID, deviceID, commandID, true)
		assert.ErrorIs(t, err, store.ErrCommandNotFound)
	})

	t.Run("failure ack after execution", func(t *testing.T) {
		f := newCommandFixture(t)
		now := time.Now()
		f.commands.FindCommandByIDFn = func(_ context.Context, _ uuid.UUID) (models.RemoteCommand, error) {
			return models.RemoteCommand{
				ID: commandID, UserID: userID, TargetDeviceID: deviceID,
				Status: models.CommandExecuted, ExecutedAt: &now,
			}, nil
		}

		err := f.svc.AckCommand(context.Background(), userID, deviceID, commandID, false)
		assert.ErrorIs(t, err, ErrRequestNotPending)
	})
}

// A wipe can be re-delivered while its first ack is in flight, so the
// repeated success ack must be accepted instead of erroring out.
func TestCommandService_AckCommand_ExecutedReackAccepted(t *testing.T) {
	userID := uuid.New()
	deviceID := uuid.New()
	commandID := uuid.New()

	f := newCommandFixture(t)
	now := time.Now()
	f.commands.FindCommandByIDFn = func(_ context.Context, _ uuid.UUID) (models.RemoteCommand, error) {
		return models.RemoteCommand{
			ID: commandID, UserID: userID, TargetDeviceID: deviceID,
			Command: models.CommandWipe,
			Status:  models.CommandExecuted, ExecutedAt: &now,
		}, nil
	}
	// UpdateCommandStatusFn stays nil: recording the outcome again would panic

	require.NoError(t, f.svc.AckCommand(context.Background(), userID, deviceID, commandID, true))
}

func TestCommandService_CommandHistory(t *testing.T) {
	f := newCommandFixture(t)

	userID := uuid.New()
	f.commands.FindCommandsForUserFn = func(_ context.Context, id uuid.UUID, limit int) ([]models.RemoteCommand, error) {
		assert.Equal(t, userID, id)
		assert.Equal(t, commandHistoryPageSize, limit)
		return []models.RemoteCommand{{Command: models.CommandLock}}, nil
	}

	history, err := f.svc.CommandHistory(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, history, 1)
}
