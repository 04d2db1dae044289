package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/notify"
	"github.com/keydrop/keydrop/internal/store"
	"github.com/keydrop/keydrop/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// Repository fakes
//
// Each fake is a struct of function fields: a test sets only the calls it
// expects, and any unset call panics with a nil dereference, which surfaces
// unexpected repository traffic immediately.
// ─────────────────────────────────────────────────────────────────────────────

type fakeUserRepo struct {
	CreateUserFn      func(ctx context.Context, user models.User) (models.User, error)
	FindUserByEmailFn func(ctx context.Context, email string) (models.User, error)
	FindUserByIDFn    func(ctx context.Context, userID uuid.UUID) (models.User, error)
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	return f.CreateUserFn(ctx, user)
}

func (f *fakeUserRepo) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	return f.FindUserByEmailFn(ctx, email)
}

func (f *fakeUserRepo) FindUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return f.FindUserByIDFn(ctx, userID)
}

type fakeDeviceRepo struct {
	CreateDeviceFn      func(ctx context.Context, device models.Device) (models.Device, error)
	FindDeviceByIDFn    func(ctx context.Context, deviceID uuid.UUID) (models.Device, error)
	FindDevicesByUserFn func(ctx context.Context, userID uuid.UUID) ([]models.Device, error)
	TouchDeviceFn       func(ctx context.Context, deviceID uuid.UUID) error
	SetPushTokenFn      func(ctx context.Context, deviceID uuid.UUID, pushToken string) error
	DeleteDeviceFn      func(ctx context.Context, deviceID, userID uuid.UUID) error
}

func (f *fakeDeviceRepo) CreateDevice(ctx context.Context, device models.Device) (models.Device, error) {
	return f.CreateDeviceFn(ctx, device)
}

func (f *fakeDeviceRepo) FindDeviceByID(ctx context.Context, deviceID uuid.UUID) (models.Device, error) {
	return f.FindDeviceByIDFn(ctx, deviceID)
}

func (f *fakeDeviceRepo) FindDevicesByUser(ctx context.Context, userID uuid.UUID) ([]models.Device, error) {
	return f.FindDevicesByUserFn(ctx, userID)
}

func (f *fakeDeviceRepo) TouchDevice(ctx context.Context, deviceID uuid.UUID) error {
	return f.TouchDeviceFn(ctx, deviceID)
}

func (f *fakeDeviceRepo) SetPushToken(ctx context.Context, deviceID uuid.UUID, pushToken string) error {
	return f.SetPushTokenFn(ctx, deviceID, pushToken)
}

func (f *fakeDeviceRepo) DeleteDevice(ctx context.Context, deviceID, userID uuid.UUID) error {
	return f.DeleteDeviceFn(ctx, deviceID, userID)
}

type fakeTokenRepo struct {
	CreateRefreshTokenFn         func(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)
	FindRefreshTokenByHashFn     func(ctx context.Context, tokenHash string) (models.RefreshToken, error)
	DeleteRefreshTokenFn         func(ctx context.Context, tokenID uuid.UUID) error
	DeleteExpiredRefreshTokensFn func(ctx context.Context) (int64, error)
}

func (f *fakeTokenRepo) CreateRefreshToken(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error) {
	return f.CreateRefreshTokenFn(ctx, token)
}

func (f *fakeTokenRepo) FindRefreshTokenByHash(ctx context.Context, tokenHash string) (models.RefreshToken, error) {
	return f.FindRefreshTokenByHashFn(ctx, tokenHash)
}

func (f *fakeTokenRepo) DeleteRefreshToken(ctx context.Context, tokenID uuid.UUID) error {
	return f.DeleteRefreshTokenFn(ctx, tokenID)
}

func (f *fakeTokenRepo) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	return f.DeleteExpiredRefreshTokensFn(ctx)
}

type fakeSyncRepo struct {
	GetSyncVersionFn        func(ctx context.Context, userID uuid.UUID) (int64, error)
	IncrementSyncVersionFn  func(ctx context.Context, userID uuid.UUID) (int64, error)
	FindItemsSinceVersionFn func(ctx context.Context, userID uuid.UUID, sinceVersion int64, limit int) ([]models.VaultItemSync, error)
	UpsertVaultItemFn       func(ctx context.Context, item models.VaultItemSync) (models.VaultItemSync, error)
	FindVaultItemByIDFn     func(ctx context.Context, itemID, userID uuid.UUID) (models.VaultItemSync, error)
}

func (f *fakeSyncRepo) GetSyncVersion(ctx context.Context, userID uuid.UUID) (int64, error) {
	return f.GetSyncVersionFn(ctx, userID)
}

func (f *fakeSyncRepo) IncrementSyncVersion(ctx context.Context, userID uuid.UUID) (int64, error) {
	return f.IncrementSyncVersionFn(ctx, userID)
}

func (f *fakeSyncRepo) FindItemsSinceVersion(ctx context.Context, userID uuid.UUID, sinceVersion int64, limit int) ([]models.VaultItemSync, error) {
	return f.FindItemsSinceVersionFn(ctx, userID, sinceVersion, limit)
}

func (f *fakeSyncRepo) UpsertVaultItem(ctx context.Context, item models.VaultItemSync) (models.VaultItemSync, error) {
	return f.UpsertVaultItemFn(ctx, item)
}

func (f *fakeSyncRepo) FindVaultItemByID(ctx context.Context, itemID, userID uuid.UUID) (models.VaultItemSync, error) {
	return f.FindVaultItemByIDFn(ctx, itemID, userID)
}

type fakeAuthRequestRepo struct {
	CreateAuthRequestFn                func(ctx context.Context, request models.AuthRequest) (models.AuthRequest, error)
	FindAuthRequestByIDFn              func(ctx context.Context, requestID uuid.UUID) (models.AuthRequest, error)
	FindPendingAuthRequestsForDeviceFn func(ctx context.Context, deviceID uuid.UUID) ([]models.AuthRequest, error)
	RespondAuthRequestFn               func(ctx context.Context, requestID uuid.UUID, response, status string) error
	DeleteExpiredAuthRequestsFn        func(ctx context.Context) (int64, error)
}

func (f *fakeAuthRequestRepo) CreateAuthRequest(ctx context.Context, request models.AuthRequest) (models.AuthRequest, error) {
	return f.CreateAuthRequestFn(ctx, request)
}

func (f *fakeAuthRequestRepo) FindAuthRequestByID(ctx context.Context, requestID uuid.UUID) (models.AuthRequest, error) {
	return f.FindAuthRequestByIDFn(ctx, requestID)
}

func (f *fakeAuthRequestRepo) FindPendingAuthRequestsForDevice(ctx context.Context, deviceID uuid.UUID) ([]models.AuthRequest, error) {
	return f.FindPendingAuthRequestsForDeviceFn(ctx, deviceID)
}

func (f *fakeAuthRequestRepo) RespondAuthRequest(ctx context.Context, requestID uuid.UUID, response, status string) error {
	return f.RespondAuthRequestFn(ctx, requestID, response, status)
}

func (f *fakeAuthRequestRepo) DeleteExpiredAuthRequests(ctx context.Context) (int64, error) {
	return f.DeleteExpiredAuthRequestsFn(ctx)
}

type fakeEmergencyRepo struct {
	CreateContactFn              func(ctx context.Context, contact models.EmergencyContact) (models.EmergencyContact, error)
	FindContactByIDFn            func(ctx context.Context, contactID uuid.UUID) (models.EmergencyContact, error)
	FindContactsByUserFn         func(ctx context.Context, userID uuid.UUID) ([]models.EmergencyContact, error)
	FindContactsForContactUserFn func(ctx context.Context, contactUserID uuid.UUID) ([]models.EmergencyContact, error)
	FindContactByTokenFn         func(ctx context.Context, invitationToken string) (models.EmergencyContact, error)
	AcceptInvitationFn           func(ctx context.Context, contactID, contactUserID uuid.UUID) error
	RevokeContactFn              func(ctx context.Context, contactID uuid.UUID) error
	DeleteContactFn              func(ctx context.Context, contactID uuid.UUID) error

	CreateAccessRequestFn              func(ctx context.Context, request models.EmergencyAccessRequest) (models.EmergencyAccessRequest, error)
	FindAccessRequestByIDFn            func(ctx context.Context, requestID uuid.UUID) (models.EmergencyAccessRequest, error)
	FindPendingAccessRequestsForUserFn func(ctx context.Context, userID uuid.UUID) ([]models.EmergencyAccessRequest, error)
	FindAccessRequestsByContactFn      func(ctx context.Context, contactID uuid.UUID) ([]models.EmergencyAccessRequest, error)
	DenyAccessRequestFn                func(ctx context.Context, requestID uuid.UUID) error
	ApproveAccessRequestFn             func(ctx context.Context, requestID uuid.UUID, vaultKeyEncrypted string) error
	ExpireAbandonedAccessRequestsFn      func(ctx context.Context) (int64, error)

	CreateAccessLogFn       func(ctx context.Context, entry models.EmergencyAccessLog) (models.EmergencyAccessLog, error)
	FindAccessLogsForUserFn func(ctx context.Context, userID uuid.UUID, limit int) ([]models.EmergencyAccessLog, error)
}

func (f *fakeEmergencyRepo) CreateContact(ctx context.Context, contact models.EmergencyContact) (models.EmergencyContact, error) {
	return f.CreateContactFn(ctx, contact)
}

func (f *fakeEmergencyRepo) FindContactByID(ctx context.Context, contactID uuid.UUID) (models.EmergencyContact, error) {
	return f.FindContactByIDFn(ctx, contactID)
}

func (f *fakeEmergencyRepo) FindContactsByUser(ctx context.Context, userID uuid.UUID) ([]models.EmergencyContact, error) {
	return f.FindContactsByUserFn(ctx, userID)
}

func (f *fakeEmergencyRepo) FindContactsForContactUser(ctx context.Context, contactUserID uuid.UUID) ([]models.EmergencyContact, error) {
	return f.FindContactsForContactUserFn(ctx, contactUserID)
}

func (f *fakeEmergencyRepo) FindContactByToken(ctx context.Context, invitationToken string) (models.EmergencyContact, error) {
	return f.FindContactByTokenFn(ctx, invitationToken)
}

func (f *fakeEmergencyRepo) AcceptInvitation(ctx context.Context, contactID, contactUserID uuid.UUID) error {
	return f.AcceptInvitationFn(ctx, contactID, contactUserID)
}

func (f *fakeEmergencyRepo) RevokeContact(ctx context.Context, contactID uuid.UUID) error {
	return f.RevokeContactFn(ctx, contactID)
}

func (f *fakeEmergencyRepo) DeleteContact(ctx context.Context, contactID uuid.UUID) error {
	return f.DeleteContactFn(ctx, contactID)
}

func (f *fakeEmergencyRepo) CreateAccessRequest(ctx context.Context, request models.EmergencyAccessRequest) (models.EmergencyAccessRequest, error) {
	return f.CreateAccessRequestFn(ctx, request)
}

func (f *fakeEmergencyRepo) FindAccessRequestByID(ctx context.Context, requestID uuid.UUID) (models.EmergencyAccessRequest, error) {
	return f.FindAccessRequestByIDFn(ctx, requestID)
}

func (f *fakeEmergencyRepo) FindPendingAccessRequestsForUser(ctx context.Context, userID uuid.UUID) ([]models.EmergencyAccessRequest, error) {
	return f.FindPendingAccessRequestsForUserFn(ctx, userID)
}

func (f *fakeEmergencyRepo) FindAccessRequestsByContact(ctx context.Context, contactID uuid.UUID) ([]models.EmergencyAccessRequest, error) {
	return f.FindAccessRequestsByContactFn(ctx, contactID)
}

func (f *fakeEmergencyRepo) DenyAccessRequest(ctx context.Context, requestID uuid.UUID) error {
	return f.DenyAccessRequestFn(ctx, requestID)
}

func (f *fakeEmergencyRepo) ApproveAccessRequest(ctx context.Context, requestID uuid.UUID, vaultKeyEncrypted string) error {
	return f.ApproveAccessRequestFn(ctx, requestID, vaultKeyEncrypted)
}

func (f *fakeEmergencyRepo) ExpireAbandonedAccessRequests(ctx context.Context) (int64, error) {
	return f.ExpireAbandonedAccessRequestsFn(ctx)
}

func (f *fakeEmergencyRepo) CreateAccessLog(ctx context.Context, entry models.EmergencyAccessLog) (models.EmergencyAccessLog, error) {
	return f.CreateAccessLogFn(ctx, entry)
}

func (f *fakeEmergencyRepo) FindAccessLogsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.EmergencyAccessLog, error) {
	return f.FindAccessLogsForUserFn(ctx, userID, limit)
}

type fakeCommandRepo struct {
	CreateCommandFn                func(ctx context.Context, command models.RemoteCommand) (models.RemoteCommand, error)
	FindCommandByIDFn              func(ctx context.Context, commandID uuid.UUID) (models.RemoteCommand, error)
	FindPendingCommandsForDeviceFn func(ctx context.Context, deviceID uuid.UUID) ([]models.RemoteCommand, error)
	MarkCommandsDeliveredFn        func(ctx context.Context, deviceID uuid.UUID) error
	UpdateCommandStatusFn          func(ctx context.Context, commandID uuid.UUID, status string) error
	FindCommandsForUserFn          func(ctx context.Context, userID uuid.UUID, limit int) ([]models.RemoteCommand, error)
}

func (f *fakeCommandRepo) CreateCommand(ctx context.Context, command models.RemoteCommand) (models.RemoteCommand, error) {
	return f.CreateCommandFn(ctx, command)
}

func (f *fakeCommandRepo) FindCommandByID(ctx context.Context, commandID uuid.UUID) (models.RemoteCommand, error) {
	return f.FindCommandByIDFn(ctx, commandID)
}

func (f *fakeCommandRepo) FindPendingCommandsForDevice(ctx context.Context, deviceID uuid.UUID) ([]models.RemoteCommand, error) {
	return f.FindPendingCommandsForDeviceFn(ctx, deviceID)
}

func (f *fakeCommandRepo) MarkCommandsDelivered(ctx context.Context, deviceID uuid.UUID) error {
	return f.MarkCommandsDeliveredFn(ctx, deviceID)
}

func (f *fakeCommandRepo) UpdateCommandStatus(ctx context.Context, commandID uuid.UUID, status string) error {
	return f.UpdateCommandStatusFn(ctx, commandID, status)
}

func (f *fakeCommandRepo) FindCommandsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.RemoteCommand, error) {
	return f.FindCommandsForUserFn(ctx, userID, limit)
}

// testRepos bundles the fakes into the store.Repositories shape the
// constructors take. Unused repositories stay nil.
func testRepos(
	users *fakeUserRepo,
	devices *fakeDeviceRepo,
	tokens *fakeTokenRepo,
	sync *fakeSyncRepo,
	authRequests *fakeAuthRequestRepo,
	emergency *fakeEmergencyRepo,
	commands *fakeCommandRepo,
) *store.Repositories {
	repos := &store.Repositories{}
	if users != nil {
		repos.UserRepository = users
	}
	if devices != nil {
		repos.DeviceRepository = devices
	}
	if tokens != nil {
		repos.RefreshTokenRepository = tokens
	}
	if sync != nil {
		repos.SyncRepository = sync
	}
	if authRequests != nil {
		repos.AuthRequestRepository = authRequests
	}
	if emergency != nil {
		repos.EmergencyRepository = emergency
	}
	if commands != nil {
		repos.CommandRepository = commands
	}
	return repos
}

func testBus() *notify.Bus {
	return notify.NewBus(notify.DefaultBufferSize)
}

func nopLogger() *logger.Logger {
	return logger.Nop()
}
