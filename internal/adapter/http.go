package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/keydrop/keydrop/internal/config"
	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/utils"
	"github.com/keydrop/keydrop/models"
)

const defaultRequestTimeout = 15 * time.Second

type httpServerAdapter struct {
	client *utils.HTTPClient
	logger *logger.Logger

	mu     sync.RWMutex
	tokens models.TokenPair
}

// NewHTTPServerAdapter constructs an HTTP/REST implementation of
// [ServerAdapter]. It normalises and validates the base URL from
// cfg.HTTPAddress and configures the underlying client with the resolved
// base URL and request timeout.
//
// Returns an error if cfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPServerAdapter(cfg config.Adapter, logger *logger.Logger) (ServerAdapter, error) {
	baseURL, err := normalizeBaseURL(cfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	client := utils.NewHTTPClient()
	client.SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &httpServerAdapter{client: client, logger: logger}, nil
}

func (h *httpServerAdapter) SetTokens(pair models.TokenPair) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tokens = pair
}

func (h *httpServerAdapter) AccessToken() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.tokens.AccessToken
}

func (h *httpServerAdapter) refreshTokenValue() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.tokens.RefreshToken
}

func (h *httpServerAdapter) Register(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/api/v1/auth/register")
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf("register request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.AuthResponse{}, err
	}

	var auth models.AuthResponse
	if err = json.Unmarshal(resp.Body(), &auth); err != nil {
		return models.AuthResponse{}, fmt.Errorf("decode register response: %w", err)
	}

	h.SetTokens(models.TokenPair{
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
		ExpiresIn:    auth.ExpiresIn,
	})

	return auth, nil
}

func (h *httpServerAdapter) Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/api/v1/auth/login")
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf("login request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.AuthResponse{}, err
	}

	var auth models.AuthResponse
	if err = json.Unmarshal(resp.Body(), &auth); err != nil {
		return models.AuthResponse{}, fmt.Errorf("decode login response: %w", err)
	}

	h.SetTokens(models.TokenPair{
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
		ExpiresIn:    auth.ExpiresIn,
	})

	return auth, nil
}

func (h *httpServerAdapter) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	if refreshToken == "" {
		refreshToken = h.refreshTokenValue()
	}

	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(models.RefreshRequest{RefreshToken: refreshToken}).
		Post("/api/v1/auth/refresh")
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("refresh request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.TokenPair{}, err
	}

	var pair models.TokenPair
	if err = json.Unmarshal(resp.Body(), &pair); err != nil {
		return models.TokenPair{}, fmt.Errorf("decode refresh response: %w", err)
	}

	h.SetTokens(pair)
	return pair, nil
}

func (h *httpServerAdapter) Pull(ctx context.Context, sinceVersion int64, limit int) (models.SyncPullResponse, error) {
	resp, err := h.authedRequest(ctx).
		SetQueryParam("since_version", fmt.Sprintf("%d", sinceVersion)).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		Get("/api/v1/sync/pull")
	if err != nil {
		return models.SyncPullResponse{}, fmt.Errorf("pull request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.SyncPullResponse{}, err
	}

	var pull models.SyncPullResponse
	if err = json.Unmarshal(resp.Body(), &pull); err != nil {
		return models.SyncPullResponse{}, fmt.Errorf("decode pull response: %w", err)
	}

	return pull, nil
}

func (h *httpServerAdapter) Push(ctx context.Context, req models.SyncPushRequest) (models.SyncPushResponse, error) {
	resp, err := h.authedRequest(ctx).
		SetBody(req).
		Post("/api/v1/sync/push")
	if err != nil {
		return models.SyncPushResponse{}, fmt.Errorf("push request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.SyncPushResponse{}, err
	}

	var push models.SyncPushResponse
	if err = json.Unmarshal(resp.Body(), &push); err != nil {
		return models.SyncPushResponse{}, fmt.Errorf("decode push response: %w", err)
	}

	return push, nil
}

func (h *httpServerAdapter) ListDevices(ctx context.Context) ([]models.DeviceResponse, error) {
	resp, err := h.authedRequest(ctx).Get("/api/v1/devices")
	if err != nil {
		return nil, fmt.Errorf("list devices request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var devices []models.DeviceResponse
	if err = json.Unmarshal(resp.Body(), &devices); err != nil {
		return nil, fmt.Errorf("decode device list: %w", err)
	}

	return devices, nil
}

func (h *httpServerAdapter) RevokeDevice(ctx context.Context, deviceID string) error {
	resp, err := h.authedRequest(ctx).Delete("/api/v1/devices/" + url.PathEscape(deviceID))
	if err != nil {
		return fmt.Errorf("revoke device request: %w", err)
	}

	return mapHTTPError(resp)
}

func (h *httpServerAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.AccessToken(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

func normalizeBaseURL(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("empty address")
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}

	parsed, err := url.Parse(address)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("address %q has no host", address)
	}

	return strings.TrimRight(parsed.String(), "/"), nil
}
