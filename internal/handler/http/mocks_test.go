package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/notify"
	"github.com/keydrop/keydrop/internal/service"
	"github.com/keydrop/keydrop/internal/utils"
	"github.com/keydrop/keydrop/models"
)

// Func-field mocks for the service interfaces. Each method delegates to
// its field; an unset field panics, surfacing calls a test did not
// expect.

type mockAuthService struct {
	registerFn         func(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error)
	loginFn            func(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error)
	refreshFn          func(ctx context.Context, refreshToken string) (models.TokenPair, error)
	parseAccessTokenFn func(ctx context.Context, tokenString string) (*models.Claims, error)
}

func (m *mockAuthService) Register(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error) {
	return m.registerFn(ctx, req)
}

func (m *mockAuthService) Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error) {
	return m.loginFn(ctx, req)
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	return m.refreshFn(ctx, refreshToken)
}

func (m *mockAuthService) ParseAccessToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	return m.parseAccessTokenFn(ctx, tokenString)
}

type mockSyncService struct {
	pullFn func(ctx context.Context, userID, deviceID uuid.UUID, sinceVersion int64, limit int) (models.SyncPullResponse, error)
	pushFn func(ctx context.Context, userID, deviceID uuid.UUID, req models.SyncPushRequest) (models.SyncPushResponse, error)
}

func (m *mockSyncService) Pull(ctx context.Context, userID, deviceID uuid.UUID, sinceVersion int64, limit int) (models.SyncPullResponse, error) {
	return m.pullFn(ctx, userID, deviceID, sinceVersion, limit)
}

func (m *mockSyncService) Push(ctx context.Context, userID, deviceID uuid.UUID, req models.SyncPushRequest) (models.SyncPushResponse, error) {
	return m.pushFn(ctx, userID, deviceID, req)
}

type mockDeviceService struct {
	listDevicesFn         func(ctx context.Context, userID, currentDeviceID uuid.UUID) ([]models.DeviceResponse, error)
	getDeviceFn           func(ctx context.Context, userID, deviceID, currentDeviceID uuid.UUID) (models.DeviceResponse, error)
	deleteDeviceFn        func(ctx context.Context, userID, deviceID, currentDeviceID uuid.UUID) error
	setPushTokenFn        func(ctx context.Context, userID, deviceID uuid.UUID, pushToken string) error
	createAuthRequestFn   func(ctx context.Context, userID, requesterDeviceID, targetDeviceID uuid.UUID) (models.AuthRequestResponse, error)
	respondAuthRequestFn  func(ctx context.Context, userID, deviceID uuid.UUID, req models.AuthRespondRequest) error
	pendingAuthRequestsFn func(ctx context.Context, userID, deviceID uuid.UUID) ([]models.PendingAuthRequest, error)
}

func (m *mockDeviceService) ListDevices(ctx context.Context, userID, currentDeviceID uuid.UUID) ([]models.DeviceResponse, error) {
	return m.listDevicesFn(ctx, userID, currentDeviceID)
}

func (m *mockDeviceService) GetDevice(ctx context.Context, userID, deviceID, currentDeviceID uuid.UUID) (models.DeviceResponse, error) {
	return m.getDeviceFn(ctx, userID, deviceID, currentDeviceID)
}

func (m *mockDeviceService) DeleteDevice(ctx context.Context, userID, deviceID, currentDeviceID uuid.UUID) error {
	return m.deleteDeviceFn(ctx, userID, deviceID, currentDeviceID)
}

func (m *mockDeviceService) SetPushToken(ctx context.Context, userID, deviceID uuid.UUID, pushToken string) error {
	return m.setPushTokenFn(ctx, userID, deviceID, pushToken)
}

func (m *mockDeviceService) CreateAuthRequest(ctx context.Context, userID, requesterDeviceID, targetDeviceID uuid.UUID) (models.AuthRequestResponse, error) {
	return m.createAuthRequestFn(ctx, userID, requesterDeviceID, targetDeviceID)
}

func (m *mockDeviceService) RespondAuthRequest(ctx context.Context, userID, deviceID uuid.UUID, req models.AuthRespondRequest) error {
	return m.respondAuthRequestFn(ctx, userID, deviceID, req)
}

func (m *mockDeviceService) PendingAuthRequests(ctx context.Context, userID, deviceID uuid.UUID) ([]models.PendingAuthRequest, error) {
	return m.pendingAuthRequestsFn(ctx, userID, deviceID)
}

type mockEmergencyService struct {
	addContactFn       func(ctx context.Context, userID uuid.UUID, req models.AddContactRequest) (models.EmergencyContact, error)
	listContactsFn     func(ctx context.Context, userID uuid.UUID) ([]models.EmergencyContact, error)
	removeContactFn    func(ctx context.Context, userID, contactID uuid.UUID) error
	acceptInvitationFn func(ctx context.Context, userID, contactID uuid.UUID, token string) error
	requestAccessFn    func(ctx context.Context, userID uuid.UUID, req models.EmergencyRequestRequest) (models.EmergencyRequestResponse, error)
	pendingRequestsFn  func(ctx context.Context, userID uuid.UUID) ([]models.EmergencyAccessRequest, error)
	denyRequestFn      func(ctx context.Context, userID, requestID uuid.UUID) error
	vaultAccessFn      func(ctx context.Context, userID uuid.UUID) ([]models.GrantedAccess, error)
	grantedAccessesFn  func(ctx context.Context, userID uuid.UUID) ([]models.GrantedAccess, error)
	accessLogsFn       func(ctx context.Context, userID uuid.UUID) ([]models.EmergencyAccessLog, error)
}

func (m *mockEmergencyService) AddContact(ctx context.Context, userID uuid.UUID, req models.AddContactRequest) (models.EmergencyContact, error) {
	return m.addContactFn(ctx, userID, req)
}

func (m *mockEmergencyService) ListContacts(ctx context.Context, userID uuid.UUID) ([]models.EmergencyContact, error) {
	return m.listContactsFn(ctx, userID)
}

func (m *mockEmergencyService) RemoveContact(ctx context.Context, userID, contactID uuid.UUID) error {
	return m.removeContactFn(ctx, userID, contactID)
}

func (m *mockEmergencyService) AcceptInvitation(ctx context.Context, userID, contactID uuid.UUID, token string) error {
	return m.acceptInvitationFn(ctx, userID, contactID, token)
}

func (m *mockEmergencyService) RequestAccess(ctx context.Context, userID uuid.UUID, req models.EmergencyRequestRequest) (models.EmergencyRequestResponse, error) {
	return m.requestAccessFn(ctx, userID, req)
}

func (m *mockEmergencyService) PendingRequests(ctx context.Context, userID uuid.UUID) ([]models.EmergencyAccessRequest, error) {
	return m.pendingRequestsFn(ctx, userID)
}

func (m *mockEmergencyService) DenyRequest(ctx context.Context, userID, requestID uuid.UUID) error {
	return m.denyRequestFn(ctx, userID, requestID)
}

func (m *mockEmergencyService) VaultAccess(ctx context.Context, userID uuid.UUID) ([]models.GrantedAccess, error) {
	return m.vaultAccessFn(ctx, userID)
}

func (m *mockEmergencyService) GrantedAccesses(ctx context.Context, userID uuid.UUID) ([]models.GrantedAccess, error) {
	return m.grantedAccessesFn(ctx, userID)
}

func (m *mockEmergencyService) AccessLogs(ctx context.Context, userID uuid.UUID) ([]models.EmergencyAccessLog, error) {
	return m.accessLogsFn(ctx, userID)
}

type mockCommandService struct {
	sendCommandFn    func(ctx context.Context, userID, issuerDeviceID, targetDeviceID uuid.UUID, kind string) (models.RemoteCommand, error)
	pollCommandsFn   func(ctx context.Context, userID, deviceID uuid.UUID) ([]models.RemoteCommand, error)
	ackCommandFn     func(ctx context.Context, userID, deviceID, commandID uuid.UUID, success bool) error
	commandHistoryFn func(ctx context.Context, userID uuid.UUID) ([]models.RemoteCommand, error)
}

func (m *mockCommandService) SendCommand(ctx context.Context, userID, issuerDeviceID, targetDeviceID uuid.UUID, kind string) (models.RemoteCommand, error) {
	return m.sendCommandFn(ctx, userID, issuerDeviceID, targetDeviceID, kind)
}

func (m *mockCommandService) PollCommands(ctx context.Context, userID, deviceID uuid.UUID) ([]models.RemoteCommand, error) {
	return m.pollCommandsFn(ctx, userID, deviceID)
}

func (m *mockCommandService) AckCommand(ctx context.Context, userID, deviceID, commandID uuid.UUID, success bool) error {
	return m.ackCommandFn(ctx, userID, deviceID, commandID, success)
}

func (m *mockCommandService) CommandHistory(ctx context.Context, userID uuid.UUID) ([]models.RemoteCommand, error) {
	return m.commandHistoryFn(ctx, userID)
}

// ─────────────────────────────────────────────
// Shared helpers
// ─────────────────────────────────────────────

// newTestHandler builds a Handler around the given services with a live
// bus and a silent logger.
func newTestHandler(t *testing.T, svcs *service.Services) *Handler {
	t.Helper()
	if svcs == nil {
		svcs = &service.Services{}
	}
	return NewHandler(svcs, notify.NewBus(notify.DefaultBufferSize), "test-version", logger.Nop())
}

// testClaims builds verified claims for the given identity, the way the
// auth middleware stores them.
func testClaims(userID, deviceID uuid.UUID) *models.Claims {
	return &models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
		DeviceID:         deviceID.String(),
		TokenType:        models.TokenTypeAccess,
	}
}

// authedRequest builds a request whose context carries verified claims,
// bypassing the auth middleware for direct handler calls.
func authedRequest(t *testing.T, req *http.Request, userID, deviceID uuid.UUID) *http.Request {
	t.Helper()
	ctx := context.WithValue(req.Context(), utils.ClaimsCtxKey, testClaims(userID, deviceID))
	return req.WithContext(ctx)
}

// withPathID attaches a chi route context carrying {id}, so handlers
// reading the path parameter can be called without a router.
func withPathID(t *testing.T, req *http.Request, id string) *http.Request {
	t.Helper()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
