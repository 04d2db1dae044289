package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/keydrop/keydrop/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type DeviceRepository interface {
	CreateDevice(ctx context.Context, device models.Device) (models.Device, error)
	FindDeviceByID(ctx context.Context, deviceID uuid.UUID) (models.Device, error)
	FindDevicesByUser(ctx context.Context, userID uuid.UUID) ([]models.Device, error)
	TouchDevice(ctx context.Context, deviceID uuid.UUID) error
	SetPushToken(ctx context.Context, deviceID uuid.UUID, pushToken string) error
	DeleteDevice(ctx context.Context, deviceID uuid.UUID, userID uuid.UUID) error
}

type RefreshTokenRepository interface {
	CreateRefreshToken(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)
	FindRefreshTokenByHash(ctx context.Context, tokenHash string) (models.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, tokenID uuid.UUID) error
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)
}

type SyncRepository interface {
	GetSyncVersion(ctx context.Context, userID uuid.UUID) (int64, error)
	IncrementSyncVersion(ctx context.Context, userID uuid.UUID) (int64, error)
	FindItemsSinceVersion(ctx context.Context, userID uuid.UUID, sinceVersion int64, limit int) ([]models.VaultItemSync, error)
	UpsertVaultItem(ctx context.Context, item models.VaultItemSync) (models.VaultItemSync, error)
	FindVaultItemByID(ctx context.Context, itemID uuid.UUID, userID uuid.UUID) (models.VaultItemSync, error)
}

type AuthRequestRepository interface {
	CreateAuthRequest(ctx context.Context, request models.AuthRequest) (models.AuthRequest, error)
	FindAuthRequestByID(ctx context.Context, requestID uuid.UUID) (models.AuthRequest, error)
	FindPendingAuthRequestsForDevice(ctx context.Context, deviceID uuid.UUID) ([]models.AuthRequest, error)
	RespondAuthRequest(ctx context.Context, requestID uuid.UUID, response string, status string) error
	DeleteExpiredAuthRequests(ctx context.Context) (int64, error)
}

type EmergencyRepository interface {
	CreateContact(ctx context.Context, contact models.EmergencyContact) (models.EmergencyContact, error)
	FindContactByID(ctx context.Context, contactID uuid.UUID) (models.EmergencyContact, error)
	FindContactsByUser(ctx context.Context, userID uuid.UUID) ([]models.EmergencyContact, error)
	FindContactsForContactUser(ctx context.Context, contactUserID uuid.UUID) ([]models.EmergencyContact, error)
	FindContactByToken(ctx context.Context, invitationToken string) (models.EmergencyContact, error)
	AcceptInvitation(ctx context.Context, contactID uuid.UUID, contactUserID uuid.UUID) error
	RevokeContact(ctx context.Context, contactID uuid.UUID) error
	DeleteContact(ctx context.Context, contactID uuid.UUID) error

	CreateAccessRequest(ctx context.Context, request models.EmergencyAccessRequest) (models.EmergencyAccessRequest, error)
	FindAccessRequestByID(ctx context.Context, requestID uuid.UUID) (models.EmergencyAccessRequest, error)
	FindPendingAccessRequestsForUser(ctx context.Context, userID uuid.UUID) ([]models.EmergencyAccessRequest, error)
	FindAccessRequestsByContact(ctx context.Context, contactID uuid.UUID) ([]models.EmergencyAccessRequest, error)
	DenyAccessRequest(ctx context.Context, requestID uuid.UUID) error
	ApproveAccessRequest(ctx context.Context, requestID uuid.UUID, vaultKeyEncrypted string) error
	ExpireAbandonedAccessRequests(ctx context.Context) (int64, error)

	CreateAccessLog(ctx context.Context, entry models.EmergencyAccessLog) (models.EmergencyAccessLog, error)
	FindAccessLogsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.EmergencyAccessLog, error)
}

type CommandRepository interface {
	CreateCommand(ctx context.Context, command models.RemoteCommand) (models.RemoteCommand, error)
	FindCommandByID(ctx context.Context, commandID uuid.UUID) (models.RemoteCommand, error)
	FindPendingCommandsForDevice(ctx context.Context, deviceID uuid.UUID) ([]models.RemoteCommand, error)
	MarkCommandsDelivered(ctx context.Context, deviceID uuid.UUID) error
	UpdateCommandStatus(ctx context.Context, commandID uuid.UUID, status string) error
	FindCommandsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.RemoteCommand, error)
}
