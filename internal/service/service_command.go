package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/notify"
	"github.com/keydrop/keydrop/internal/store"
	"github.com/keydrop/keydrop/models"
)

// commandService is the concrete implementation of CommandService. It
// queues lock/wipe instructions for a user's devices: the issuer
// enqueues, the target picks commands up on its next poll and reports
// the outcome afterwards.
type commandService struct {
	commands store.CommandRepository
	devices  store.DeviceRepository
	bus      *notify.Bus
	logger   *logger.Logger
}

// NewCommandService constructs a CommandService over the given
// repositories.
func NewCommandService(repos *store.Repositories, bus *notify.Bus, logger *logger.Logger) CommandService {
	return &commandService{
		commands: repos.CommandRepository,
		devices:  repos.DeviceRepository,
		bus:      bus,
		logger:   logger,
	}
}

// SendCommand queues a lock or wipe for another device of the same
// user. A device cannot command itself, and unknown kinds are rejected
// before any lookup.
func (c *commandService) SendCommand(ctx context.Context, userID, issuerDeviceID, targetDeviceID uuid.UUID, kind string) (models.RemoteCommand, error) {
	log := logger.FromContext(ctx)

	if !models.ValidCommand(kind) {
		log.Warn().Str("command", kind).Msg("unknown remote command kind")
		return models.RemoteCommand{}, ErrUnknownCommand
	}

	if targetDeviceID == issuerDeviceID {
		log.Warn().Str("device_id", issuerDeviceID.String()).Msg("device tried to command itself")
		return models.RemoteCommand{}, ErrOwnDeviceTarget
	}

	target, err := c.devices.FindDeviceByID(ctx, targetDeviceID)
	if err != nil {
		log.Err(err).Str("device_id", targetDeviceID.String()).Msg("target device lookup failed")
		return models.RemoteCommand{}, fmt.Errorf("target device lookup failed: %w", err)
	}
	if target.UserID != userID {
		log.Warn().Str("device_id", targetDeviceID.String()).Msg("target device belongs to another user")
		return models.RemoteCommand{}, fmt.Errorf("target device lookup failed: %w", store.ErrDeviceNotFound)
	}

	command, err := c.commands.CreateCommand(ctx, models.RemoteCommand{
		UserID:         userID,
		TargetDeviceID: targetDeviceID,
		IssuedByDevice: issuerDeviceID,
		Command:        kind,
		Status:         models.CommandPending,
	})
	if err != nil {
		log.Err(err).Str("device_id", targetDeviceID.String()).Msg("queueing remote command failed")
		return models.RemoteCommand{}, fmt.Errorf("queueing remote command failed: %w", err)
	}

	log.Info().
		Str("command_id", command.ID.String()).
		Str("command", kind).
		Str("target_device_id", targetDeviceID.String()).
		Msg("remote command queued")

	return command, nil
}

// PollCommands returns the commands pending for the calling device,
// oldest first, and marks them delivered. A command is handed out once;
// the target acknowledges the outcome via AckCommand.
func (c *commandService) PollCommands(ctx context.Context, userID, deviceID uuid.UUID) ([]models.RemoteCommand, error) {
	log := logger.FromContext(ctx)

	device, err := c.devices.FindDeviceByID(ctx, deviceID)
	if err != nil {
		log.Err(err).Str("device_id", deviceID.String()).Msg("device lookup failed")
		return nil, fmt.Errorf("device lookup failed: %w", err)
	}
	if device.UserID != userID {
		return nil, fmt.Errorf("device lookup failed: %w", store.ErrDeviceNotFound)
	}

	pending, err := c.commands.FindPendingCommandsForDevice(ctx, deviceID)
	if err != nil {
		log.Err(err).Str("device_id", deviceID.String()).Msg("listing pending commands failed")
		return nil, fmt.Errorf("listing pending commands failed: %w", err)
	}

	if len(pending) > 0 {
		if err := c.commands.MarkCommandsDelivered(ctx, deviceID); err != nil {
			log.Err(err).Str("device_id", deviceID.String()).Msg("marking commands delivered failed")
			return nil, fmt.Errorf("marking commands delivered failed: %w", err)
		}
	}

	return pending, nil
}

// AckCommand records the outcome of a delivered command: executed on
// success, failed otherwise. Only the targeted device may acknowledge.
// Re-acking an already-executed command with success is a no-op.
func (c *commandService) AckCommand(ctx context.Context, userID, deviceID, commandID uuid.UUID, success bool) error {
	log := logger.FromContext(ctx)

	command, err := c.commands.FindCommandByID(ctx, commandID)
	if err != nil {
		log.Err(err).Str("command_id", commandID.String()).Msg("command lookup failed")
		return fmt.Errorf("command lookup failed: %w", err)
	}

	if command.UserID != userID || command.TargetDeviceID != deviceID {
		log.Warn().Str("command_id", commandID.String()).Msg("acknowledgement from wrong device")
		return fmt.Errorf("command lookup failed: %w", store.ErrCommandNotFound)
	}

	// A wipe may be re-delivered before its first ack lands, so a repeat
	// success ack for an already-executed command is accepted as-is.
	if command.Status == models.CommandExecuted && success {
		log.Debug().Str("command_id", commandID.String()).Msg("command already executed, ack accepted")
		return nil
	}

	if command.Status != models.CommandPending && command.Status != models.CommandDelivered {
		return ErrRequestNotPending
	}

	status := models.CommandFailed
	if success {
		status = models.CommandExecuted
	}

	if err := c.commands.UpdateCommandStatus(ctx, commandID, status); err != nil {
		log.Err(err).Str("command_id", commandID.String()).Msg("recording command outcome failed")
		return fmt.Errorf("recording command outcome failed: %w", err)
	}

	log.Info().Str("command_id", commandID.String()).Str("status", status).Msg("remote command acknowledged")
	return nil
}

// commandHistoryPageSize caps the per-user command history page.
const commandHistoryPageSize = 50

// CommandHistory returns the user's recently issued commands across all
// devices, newest first.
func (c *commandService) CommandHistory(ctx context.Context, userID uuid.UUID) ([]models.RemoteCommand, error) {
	log := logger.FromContext(ctx)

	commands, err := c.commands.FindCommandsForUser(ctx, userID, commandHistoryPageSize)
	if err != nil {
		log.Err(err).Str("user_id", userID.String()).Msg("listing command history failed")
		return nil, fmt.Errorf("listing command history failed: %w", err)
	}
	return commands, nil
}
