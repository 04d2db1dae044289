// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/notify"
	"github.com/keydrop/keydrop/internal/store"
	"github.com/keydrop/keydrop/models"
)

// challengeSize is the entropy of a device-approval challenge in bytes.
const challengeSize = 32

// deviceService is the concrete implementation of DeviceService. It
// manages the user's enrolled devices and the approval challenges they
// exchange. Ownership is checked on every device-scoped operation, and
// missing rows are indistinguishable from foreign ones.
type deviceService struct {
	devices      store.DeviceRepository
	authRequests store.AuthRequestRepository
	bus          *notify.Bus
	logger       *logger.Logger
}

// NewDeviceService constructs a DeviceService over the given repositories.
func NewDeviceService(repos *store.Repositories, bus *notify.Bus, logger *logger.Logger) DeviceService {
	return &deviceService{
		devices:      repos.DeviceRepository,
		authRequests: repos.AuthRequestRepository,
		bus:          bus,
		logger:       logger,
	}
}

// ListDevices returns the user's devices ordered by last contact,
// newest first, each annotated with whether it is the caller's own.
func (d *deviceService) ListDevices(ctx context.Context, userID, currentDeviceID uuid.UUID) ([]models.DeviceResponse, error) {
	log := logger.FromContext(ctx)

	devices, err := d.devices.FindDevicesByUser(ctx, userID)
	if err != nil {
		log.Err(err).Str("user_id", userID.String()).Msg("listing devices failed")
		return nil, fmt.Errorf("listing devices failed: %w", err)
	}

	out := make([]models.DeviceResponse, 0, len(devices))
	for _, device := range devices {
		out = append(out, deviceResponse(device, currentDeviceID))
	}
	return out, nil
}

// GetDevice returns one of the caller's devices. A device that exists
// but belongs to another user reads as not found.
func (d *deviceService) GetDevice(ctx context.Context, userID, deviceID, currentDeviceID uuid.UUID) (models.DeviceResponse, error) {
	device, err := d.ownedDevice(ctx, userID, deviceID)
	if err != nil {
		return models.DeviceResponse{}, err
	}
	return deviceResponse(device, currentDeviceID), nil
}

// DeleteDevice removes one of the user's other devices; its refresh
// tokens go with it, so the device cannot mint new access tokens.
// Deleting the calling device is rejected with ErrOwnDeviceTarget.
func (d *deviceService) DeleteDevice(ctx context.Context, userID, deviceID, currentDeviceID uuid.UUID) error {
	log := logger.FromContext(ctx)

	if deviceID == currentDeviceID {
		log.Warn().Str("device_id", deviceID.String()).Msg("device tried to delete itself")
		return ErrOwnDeviceTarget
	}

	if err := d.devices.DeleteDevice(ctx, deviceID, userID); err != nil {
		log.Err(err).Str("device_id", deviceID.String()).Msg("device deletion failed")
		return fmt.Errorf("device deletion failed: %w", err)
	}

	d.bus.Publish(models.SyncNotification{
		Kind:           models.NotifyDeviceRemoved,
		UserID:         userID,
		SourceDeviceID: currentDeviceID,
	})

	log.Info().Str("user_id", userID.String()).Str("device_id", deviceID.String()).Msg("device removed")
	return nil
}

// SetPushToken attaches a mobile push endpoint to one of the user's
// devices.
func (d *deviceService) SetPushToken(ctx context.Context, userID, deviceID uuid.UUID, pushToken string) error {
	log := logger.FromContext(ctx)

	if pushToken == "" {
		return ErrInvalidDataProvided
	}

	if _, err := d.ownedDevice(ctx, userID, deviceID); err != nil {
		return err
	}

	if err := d.devices.SetPushToken(ctx, deviceID, pushToken); err != nil {
		log.Err(err).Str("device_id", deviceID.String()).Msg("setting push token failed")
		return fmt.Errorf("setting push token failed: %w", err)
	}
	return nil
}

// CreateAuthRequest opens an approval challenge from the requesting
// device against another device of the same user. The target gets the
// challenge on its next poll (and a bus notification immediately) and
// has five minutes to respond.
func (d *deviceService) CreateAuthRequest(ctx context.Context, userID, requesterDeviceID, targetDeviceID uuid.UUID) (models.AuthRequestResponse, error) {
	log := logger.FromContext(ctx)

	if targetDeviceID == requesterDeviceID {
		log.Warn().Str("device_id", requesterDeviceID.String()).Msg("device tried to challenge itself")
		return models.AuthRequestResponse{}, ErrOwnDeviceTarget
	}

	if _, err := d.ownedDevice(ctx, userID, targetDeviceID); err != nil {
		return models.AuthRequestResponse{}, err
	}

	challenge, err := newChallenge()
	if err != nil {
		log.Err(err).Msg("generating challenge failed")
		return models.AuthRequestResponse{}, fmt.Errorf("generating challenge failed: %w", err)
	}

	request, err := d.authRequests.CreateAuthRequest(ctx, models.AuthRequest{
		UserID:            userID,
		RequesterDeviceID: requesterDeviceID,
		TargetDeviceID:    targetDeviceID,
		Challenge:         challenge,
		ExpiresAt:         time.Now().Add(models.AuthRequestTTL),
	})
	if err != nil {
		log.Err(err).Str("target_device_id", targetDeviceID.String()).Msg("creating auth request failed")
		return models.AuthRequestResponse{}, fmt.Errorf("creating auth request failed: %w", err)
	}

	d.bus.Publish(models.SyncNotification{
		Kind:           models.NotifyAuthRequestPending,
		UserID:         userID,
		SourceDeviceID: requesterDeviceID,
	})

	return models.AuthRequestResponse{
		RequestID: request.ID,
		Challenge: request.Challenge,
		ExpiresAt: request.ExpiresAt,
	}, nil
}

// RespondAuthRequest records the target device's verdict on a pending
// challenge. Only the challenged device may respond, and only while the
// request is pending and unexpired.
func (d *deviceService) RespondAuthRequest(ctx context.Context, userID, deviceID uuid.UUID, req models.AuthRespondRequest) error {
	log := logger.FromContext(ctx)

	request, err := d.authRequests.FindAuthRequestByID(ctx, req.RequestID)
	if err != nil {
		log.Err(err).Str("request_id", req.RequestID.String()).Msg("auth request lookup failed")
		return fmt.Errorf("auth request lookup failed: %w", err)
	}

	if request.UserID != userID || request.TargetDeviceID != deviceID {
		log.Warn().Str("request_id", req.RequestID.String()).Msg("auth request response from wrong device")
		return fmt.Errorf("auth request response rejected: %w", store.ErrAuthRequestNotFound)
	}

	if request.Status != models.AuthRequestPendingStatus || request.IsExpired(time.Now()) {
		return ErrRequestNotPending
	}

	status := models.AuthRequestRejectedStatus
	if req.Approved {
		status = models.AuthRequestApprovedStatus
	}

	if err := d.authRequests.RespondAuthRequest(ctx, req.RequestID, req.Response, status); err != nil {
		log.Err(err).Str("request_id", req.RequestID.String()).Msg("recording auth response failed")
		return fmt.Errorf("recording auth response failed: %w", err)
	}

	d.bus.Publish(models.SyncNotification{
		Kind:           models.NotifyAuthRequestResponded,
		UserID:         userID,
		SourceDeviceID: deviceID,
	})

	log.Info().Str("request_id", req.RequestID.String()).Str("status", status).Msg("auth request answered")
	return nil
}

// PendingAuthRequests lists the open, unexpired challenges waiting on
// the calling device, newest first.
func (d *deviceService) PendingAuthRequests(ctx context.Context, userID, deviceID uuid.UUID) ([]models.PendingAuthRequest, error) {
	log := logger.FromContext(ctx)

	if _, err := d.ownedDevice(ctx, userID, deviceID); err != nil {
		return nil, err
	}

	requests, err := d.authRequests.FindPendingAuthRequestsForDevice(ctx, deviceID)
	if err != nil {
		log.Err(err).Str("device_id", deviceID.String()).Msg("listing pending auth requests failed")
		return nil, fmt.Errorf("listing pending auth requests failed: %w", err)
	}

	out := make([]models.PendingAuthRequest, 0, len(requests))
	for _, request := range requests {
		pending := models.PendingAuthRequest{
			RequestID:         request.ID,
			RequesterDeviceID: request.RequesterDeviceID,
			Challenge:         request.Challenge,
			ExpiresAt:         request.ExpiresAt,
			CreatedAt:         request.CreatedAt,
		}
		if requester, err := d.devices.FindDeviceByID(ctx, request.RequesterDeviceID); err == nil {
			pending.RequesterDeviceName = requester.DeviceName
		}
		out = append(out, pending)
	}
	return out, nil
}

// ownedDevice loads a device and checks it belongs to the user. Foreign
// devices read as store.ErrDeviceNotFound.
func (d *deviceService) ownedDevice(ctx context.Context, userID, deviceID uuid.UUID) (models.Device, error) {
	log := logger.FromContext(ctx)

	device, err := d.devices.FindDeviceByID(ctx, deviceID)
	if err != nil {
		log.Err(err).Str("device_id", deviceID.String()).Msg("device lookup failed")
		return models.Device{}, fmt.Errorf("device lookup failed: %w", err)
	}
	if device.UserID != userID {
		log.Warn().Str("device_id", deviceID.String()).Msg("device belongs to another user")
		return models.Device{}, fmt.Errorf("device lookup failed: %w", store.ErrDeviceNotFound)
	}
	return device, nil
}

func deviceResponse(device models.Device, currentDeviceID uuid.UUID) models.DeviceResponse {
	return models.DeviceResponse{
		ID:         device.ID,
		DeviceName: device.DeviceName,
		DeviceType: device.DeviceType,
		LastSeenAt: device.LastSeenAt,
		CreatedAt:  device.CreatedAt,
		IsCurrent:  device.ID == currentDeviceID,
	}
}

func newChallenge() (string, error) {
	buf := make([]byte, challengeSize)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
