package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/notify"
	"github.com/keydrop/keydrop/internal/service"
	"github.com/keydrop/keydrop/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─────────────────────────────────────────────
// NewHandler
// ─────────────────────────────────────────────

func TestNewHandler_ReturnsNonNil(t *testing.T) {
	h := NewHandler(&service.Services{}, notify.NewBus(0), "v1", logger.Nop())

	require.NotNil(t, h)
}

func TestNewHandler_StoresServices(t *testing.T) {
	svc := &service.Services{}
	h := NewHandler(svc, notify.NewBus(0), "v1", logger.Nop())

	assert.Equal(t, svc, h.services)
}

func TestNewHandler_StoresVersion(t *testing.T) {
	h := NewHandler(&service.Services{}, notify.NewBus(0), "1.2.3", logger.Nop())

	assert.Equal(t, "1.2.3", h.version)
}

func TestNewHandler_IndependentInstances(t *testing.T) {
	h1 := NewHandler(&service.Services{}, notify.NewBus(0), "v1", logger.Nop())
	h2 := NewHandler(&service.Services{}, notify.NewBus(0), "v1", logger.Nop())

	assert.NotSame(t, h1, h2)
}

// ─────────────────────────────────────────────
// Init — route registration
// ─────────────────────────────────────────────

// newRoutingHandler builds a Handler whose auth middleware rejects every
// token, so protected routes answer 401 instead of panicking on nil
// services.
func newRoutingHandler(t *testing.T) *Handler {
	t.Helper()

	svcs := &service.Services{
		AuthService: &mockAuthService{
			parseAccessTokenFn: func(_ context.Context, _ string) (*models.Claims, error) {
				return nil, service.ErrInvalidToken
			},
		},
	}

	return newTestHandler(t, svcs)
}

func TestInit_ReturnsRouter(t *testing.T) {
	router := newRoutingHandler(t).Init()

	require.NotNil(t, router)
}

// routeCase describes a single expected route.
type routeCase struct {
	method string
	path   string
}

// expectedRoutes lists every route that Init() must register.
var expectedRoutes = []routeCase{
	// public
	{http.MethodGet, "/api/v1/health"},
	{http.MethodPost, "/api/v1/auth/register"},
	{http.MethodPost, "/api/v1/auth/login"},
	{http.MethodPost, "/api/v1/auth/refresh"},
	// sync (auth middleware will return 401, not 404/405)
	{http.MethodGet, "/api/v1/sync/pull"},
	{http.MethodPost, "/api/v1/sync/push"},
	// devices
	{http.MethodGet, "/api/v1/devices"},
	{http.MethodGet, "/api/v1/devices/auth-requests/pending"},
	{http.MethodGet, "/api/v1/devices/commands"},
	{http.MethodGet, "/api/v1/devices/commands/history"},
	{http.MethodPost, "/api/v1/devices/commands/00000000-0000-0000-0000-000000000001/ack"},
	{http.MethodGet, "/api/v1/devices/00000000-0000-0000-0000-000000000001"},
	{http.MethodDelete, "/api/v1/devices/00000000-0000-0000-0000-000000000001"},
	{http.MethodPost, "/api/v1/devices/00000000-0000-0000-0000-000000000001/push-token"},
	{http.MethodPost, "/api/v1/devices/00000000-0000-0000-0000-000000000001/auth-request"},
	{http.MethodPost, "/api/v1/devices/00000000-0000-0000-0000-000000000001/auth-response"},
	{http.MethodPost, "/api/v1/devices/00000000-0000-0000-0000-000000000001/lock"},
	{http.MethodPost, "/api/v1/devices/00000000-0000-0000-0000-000000000001/wipe"},
	// emergency access
	{http.MethodPost, "/api/v1/emergency/contacts"},
	{http.MethodGet, "/api/v1/emergency/contacts"},
	{http.MethodDelete, "/api/v1/emergency/contacts/00000000-0000-0000-0000-000000000001"},
	{http.MethodPost, "/api/v1/emergency/contacts/00000000-0000-0000-0000-000000000001/accept"},
	{http.MethodPost, "/api/v1/emergency/request"},
	{http.MethodGet, "/api/v1/emergency/requests"},
	{http.MethodPost, "/api/v1/emergency/requests/00000000-0000-0000-0000-000000000001/deny"},
	{http.MethodGet, "/api/v1/emergency/vault"},
	{http.MethodGet, "/api/v1/emergency/granted"},
	{http.MethodGet, "/api/v1/emergency/logs"},
	// notification transport — plain GET fails the upgrade but proves routing
	{http.MethodGet, "/api/v1/sync/notify"},
}

func TestInit_RegistersAllRoutes(t *testing.T) {
	router := newRoutingHandler(t).Init()

	for _, tc := range expectedRoutes {
		tc := tc
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			// A registered route returns anything except 404 (not found) or
			// 405 (method not allowed). Auth-protected routes return 401 —
			// that still proves the route exists.
			assert.NotEqual(t, http.StatusNotFound, rec.Code,
				"route not found: %s %s", tc.method, tc.path)
			assert.NotEqual(t, http.StatusMethodNotAllowed, rec.Code,
				"method not allowed: %s %s", tc.method, tc.path)
		})
	}
}

func TestInit_UnknownRouteReturns404(t *testing.T) {
	router := newRoutingHandler(t).Init()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nonexistent", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInit_WrongMethodReturns404(t *testing.T) {
	router := newRoutingHandler(t).Init()

	// POST /api/v1/health is not registered — only GET is. Wrong methods
	// are masked as 404 rather than 405.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInit_ProtectedRouteRequiresToken(t *testing.T) {
	router := newRoutingHandler(t).Init()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInit_HealthReportsVersion(t *testing.T) {
	router := newRoutingHandler(t).Init()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test-version")
}
