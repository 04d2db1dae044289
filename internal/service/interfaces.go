package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/keydrop/keydrop/models"
)

type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
	ParseAccessToken(ctx context.Context, tokenString string) (*models.Claims, error)
}

type SyncService interface {
	Pull(ctx context.Context, userID, deviceID uuid.UUID, sinceVersion int64, limit int) (models.SyncPullResponse, error)
	Push(ctx context.Context, userID, deviceID uuid.UUID, req models.SyncPushRequest) (models.SyncPushResponse, error)
}

type DeviceService interface {
	ListDevices(ctx context.Context, userID, currentDeviceID uuid.UUID) ([]models.DeviceResponse, error)
	GetDevice(ctx context.Context, userID, deviceID, currentDeviceID uuid.UUID) (models.DeviceResponse, error)
	DeleteDevice(ctx context.Context, userID, deviceID, currentDeviceID uuid.UUID) error
	SetPushToken(ctx context.Context, userID, deviceID uuid.UUID, pushToken string) error

	CreateAuthRequest(ctx context.Context, userID, requesterDeviceID, targetDeviceID uuid.UUID) (models.AuthRequestResponse, error)
	RespondAuthRequest(ctx context.Context, userID, deviceID uuid.UUID, req models.AuthRespondRequest) error
	PendingAuthRequests(ctx context.Context, userID, deviceID uuid.UUID) ([]models.PendingAuthRequest, error)
}

type EmergencyService interface {
	AddContact(ctx context.Context, userID uuid.UUID, req models.AddContactRequest) (models.EmergencyContact, error)
	ListContacts(ctx context.Context, userID uuid.UUID) ([]models.EmergencyContact, error)
	RemoveContact(ctx context.Context, userID, contactID uuid.UUID) error
	AcceptInvitation(ctx context.Context, userID, contactID uuid.UUID, token string) error

	RequestAccess(ctx context.Context, userID uuid.UUID, req models.EmergencyRequestRequest) (models.EmergencyRequestResponse, error)
	PendingRequests(ctx context.Context, userID uuid.UUID) ([]models.EmergencyAccessRequest, error)
	DenyRequest(ctx context.Context, userID, requestID uuid.UUID) error
	VaultAccess(ctx context.Context, userID uuid.UUID) ([]models.GrantedAccess, error)
	GrantedAccesses(ctx context.Context, userID uuid.UUID) ([]models.GrantedAccess, error)
	AccessLogs(ctx context.Context, userID uuid.UUID) ([]models.EmergencyAccessLog, error)
}

type CommandService interface {
	SendCommand(ctx context.Context, userID, issuerDeviceID, targetDeviceID uuid.UUID, kind string) (models.RemoteCommand, error)
	PollCommands(ctx context.Context, userID, deviceID uuid.UUID) ([]models.RemoteCommand, error)
	AckCommand(ctx context.Context, userID, deviceID, commandID uuid.UUID, success bool) error
	CommandHistory(ctx context.Context, userID uuid.UUID) ([]models.RemoteCommand, error)
}
