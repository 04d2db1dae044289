package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/keydrop/keydrop/internal/config"
	"github.com/keydrop/keydrop/internal/crypto"
	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/store"
	"github.com/keydrop/keydrop/internal/utils"
	"github.com/keydrop/keydrop/models"
)

// authService is the concrete implementation of AuthService.
// It handles account registration, credential verification, and the JWT
// token lifecycle. The server never sees the user's secret: clients send
// a derived auth-key, and the service applies a second memory-hard hash
// before storage.
type authService struct {
	users   store.UserRepository
	devices store.DeviceRepository
	tokens  store.RefreshTokenRepository
	sync    store.SyncRepository

	// tokenSignKey is the HMAC secret used to sign and verify tokens.
	tokenSignKey string

	// tokenIssuer is the "iss" claim embedded in every issued token.
	// Tokens whose issuer does not match this value are rejected.
	tokenIssuer string

	accessTTL  time.Duration
	refreshTTL time.Duration

	// kdfGate caps concurrent Argon2id work so a burst of logins cannot
	// occupy every scheduler thread with memory-hard hashing.
	kdfGate chan struct{}

	logger *logger.Logger
}

// NewAuthService constructs an AuthService wired to the given repositories
// and populated with token parameters from cfg.
//
// The returned service is safe for concurrent use; all state is read-only
// after construction.
func NewAuthService(repos *store.Repositories, cfg config.App, logger *logger.Logger) AuthService {
	gateSize := runtime.GOMAXPROCS(0)
	if gateSize < 1 {
		gateSize = 1
	}

	return &authService{
		users:        repos.UserRepository,
		devices:      repos.DeviceRepository,
		tokens:       repos.RefreshTokenRepository,
		sync:         repos.SyncRepository,
		tokenSignKey: cfg.JWTSecret,
		tokenIssuer:  cfg.TokenIssuer,
		accessTTL:    cfg.AccessTokenTTL,
		refreshTTL:   cfg.RefreshTokenTTL,
		kdfGate:      make(chan struct{}, gateSize),
		logger:       logger,
	}
}

// Register creates a new account plus its first device.
//
// The client-derived auth-key is hashed with Argon2id before storage, the
// user's sync counter is advanced to 1 so the first push produces a
// version greater than any the client has seen, and a fresh token pair
// is issued for the new device.
//
// Returns:
//   - ErrInvalidDataProvided if email, auth_key, or salt is missing or
//     the auth_key is not valid base64.
//   - store.ErrEmailAlreadyExists if the email is taken.
func (a *authService) Register(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error) {
	log := logger.FromContext(ctx)

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.AuthKey == "" || req.Salt == "" {
		log.Error().Str("email", email).Msg("invalid registration data provided")
		return models.AuthResponse{}, ErrInvalidDataProvided
	}

	authKey, err := base64.StdEncoding.DecodeString(req.AuthKey)
	if err != nil || len(authKey) == 0 {
		log.Error().Str("email", email).Msg("auth key is not valid base64")
		return models.AuthResponse{}, ErrInvalidDataProvided
	}
	defer crypto.Zeroize(authKey)

	authKeyHash, err := a.hashAuthKey(ctx, authKey)
	if err != nil {
		log.Err(err).Msg("hashing auth key failed")
		return models.AuthResponse{}, fmt.Errorf("hashing auth key failed: %w", err)
	}

	user, err := a.users.CreateUser(ctx, models.User{
		Email:       email,
		AuthKeyHash: authKeyHash,
		KdfSalt:     req.Salt,
	})
	if err != nil {
		log.Err(err).Str("email", email).Msg("user creation ended with error")
		return models.AuthResponse{}, fmt.Errorf("user creation ended with error: %w", err)
	}

	device, err := a.devices.CreateDevice(ctx, models.Device{
		UserID:     user.ID,
		DeviceName: req.DeviceName,
		DeviceType: req.DeviceType,
	})
	if err != nil {
		log.Err(err).Str("user_id", user.ID.String()).Msg("device creation ended with error")
		return models.AuthResponse{}, fmt.Errorf("device creation ended with error: %w", err)
	}

	// seed the sync counter at 1: the first push lands at version 2 or
	// higher, strictly above any since_version a fresh client could hold
	if _, err := a.sync.IncrementSyncVersion(ctx, user.ID); err != nil {
		log.Err(err).Str("user_id", user.ID.String()).Msg("seeding sync version failed")
		return models.AuthResponse{}, fmt.Errorf("seeding sync version failed: %w", err)
	}

	pair, err := a.issueAndStorePair(ctx, user.ID, device.ID)
	if err != nil {
		return models.AuthResponse{}, err
	}

	log.Info().Str("user_id", user.ID.String()).Str("device_id", device.ID.String()).Msg("user registered")

	return models.AuthResponse{
		UserID:       user.ID,
		DeviceID:     device.ID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// Login authenticates an existing account and enrolls the calling device.
//
// Every successful login creates a fresh device row; the response carries
// the stored KDF salt so a new device can rederive the same local keys.
//
// Returns:
//   - ErrInvalidDataProvided if email or auth_key is missing or malformed.
//   - ErrInvalidCredentials on unknown email or auth-key mismatch; the two
//     cases are indistinguishable to the caller.
func (a *authService) Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error) {
	log := logger.FromContext(ctx)

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.AuthKey == "" {
		log.Error().Str("email", email).Msg("invalid login data provided")
		return models.AuthResponse{}, ErrInvalidDataProvided
	}

	authKey, err := base64.StdEncoding.DecodeString(req.AuthKey)
	if err != nil || len(authKey) == 0 {
		log.Error().Str("email", email).Msg("auth key is not valid base64")
		return models.AuthResponse{}, ErrInvalidDataProvided
	}
	defer crypto.Zeroize(authKey)

	user, err := a.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Warn().Str("email", email).Msg("login attempt for unknown email")
			return models.AuthResponse{}, ErrInvalidCredentials
		}
		log.Err(err).Str("email", email).Msg("user search by email failed")
		return models.AuthResponse{}, fmt.Errorf("user search by email failed: %w", err)
	}

	ok, err := a.verifyAuthKey(ctx, authKey, user.AuthKeyHash)
	if err != nil {
		log.Err(err).Str("user_id", user.ID.String()).Msg("verifying auth key failed")
		return models.AuthResponse{}, fmt.Errorf("verifying auth key failed: %w", err)
	}
	if !ok {
		log.Warn().Str("user_id", user.ID.String()).Msg("auth key mismatch")
		return models.AuthResponse{}, ErrInvalidCredentials
	}

	device, err := a.devices.CreateDevice(ctx, models.Device{
		UserID:     user.ID,
		DeviceName: req.DeviceName,
		DeviceType: req.DeviceType,
	})
	if err != nil {
		log.Err(err).Str("user_id", user.ID.String()).Msg("device creation ended with error")
		return models.AuthResponse{}, fmt.Errorf("device creation ended with error: %w", err)
	}

	pair, err := a.issueAndStorePair(ctx, user.ID, device.ID)
	if err != nil {
		return models.AuthResponse{}, err
	}

	log.Info().Str("user_id", user.ID.String()).Str("device_id", device.ID.String()).Msg("user logged in")

	return models.AuthResponse{
		UserID:       user.ID,
		DeviceID:     device.ID,
		Salt:         user.KdfSalt,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// Refresh rotates a refresh token: the presented token must carry a valid
// refresh-type signature and still exist server-side by hash. The old
// record is deleted before the new pair is issued, so each refresh token
// works exactly once.
//
// Returns:
//   - ErrTokenIsExpired if the token's exp claim has passed.
//   - ErrInvalidToken on any other validation failure, including a token
//     that was already used or revoked.
func (a *authService) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	log := logger.FromContext(ctx)

	if refreshToken == "" {
		return models.TokenPair{}, ErrInvalidToken
	}

	claims, err := utils.ValidateAndParseJWTToken(refreshToken, a.tokenSignKey, a.tokenIssuer, models.TokenTypeRefresh)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Warn().Msg("refresh token is expired")
			return models.TokenPair{}, ErrTokenIsExpired
		}
		log.Err(err).Msg("refresh token validation failed")
		return models.TokenPair{}, ErrInvalidToken
	}

	record, err := a.tokens.FindRefreshTokenByHash(ctx, utils.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, store.ErrRefreshTokenNotFound) {
			log.Warn().Str("sub", claims.Subject).Msg("refresh token is unknown or already used")
			return models.TokenPair{}, ErrInvalidToken
		}
		log.Err(err).Msg("refresh token lookup failed")
		return models.TokenPair{}, fmt.Errorf("refresh token lookup failed: %w", err)
	}

	// one-time use: the old record goes away even if issuing below fails
	if err := a.tokens.DeleteRefreshToken(ctx, record.ID); err != nil && !errors.Is(err, store.ErrRefreshTokenNotFound) {
		log.Err(err).Str("token_id", record.ID.String()).Msg("deleting rotated refresh token failed")
		return models.TokenPair{}, fmt.Errorf("deleting rotated refresh token failed: %w", err)
	}

	pair, err := a.issueAndStorePair(ctx, record.UserID, record.DeviceID)
	if err != nil {
		return models.TokenPair{}, err
	}

	log.Debug().Str("user_id", record.UserID.String()).Str("device_id", record.DeviceID.String()).Msg("token pair rotated")

	return pair, nil
}

// ParseAccessToken validates a bearer token and returns its claims.
//
// Returns ErrTokenIsExpired or ErrInvalidToken; never a wrapped internal
// error, so transports can map the result to a 401 directly.
func (a *authService) ParseAccessToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	log := logger.FromContext(ctx)

	claims, err := utils.ValidateAndParseJWTToken(tokenString, a.tokenSignKey, a.tokenIssuer, models.TokenTypeAccess)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenIsExpired
		}
		log.Debug().Err(err).Msg("access token validation failed")
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// issueAndStorePair issues an access/refresh pair and persists the hash
// of the refresh token for the one-time-use check on rotation.
func (a *authService) issueAndStorePair(ctx context.Context, userID, deviceID uuid.UUID) (models.TokenPair, error) {
	log := logger.FromContext(ctx)

	pair, err := utils.IssueTokenPair(a.tokenIssuer, userID, deviceID, a.accessTTL, a.refreshTTL, a.tokenSignKey)
	if err != nil {
		log.Err(err).Str("user_id", userID.String()).Msg("issuing token pair failed")
		return models.TokenPair{}, fmt.Errorf("issuing token pair failed: %w", err)
	}

	_, err = a.tokens.CreateRefreshToken(ctx, models.RefreshToken{
		UserID:    userID,
		DeviceID:  deviceID,
		TokenHash: utils.HashToken(pair.RefreshToken),
		ExpiresAt: time.Now().Add(a.refreshTTL),
	})
	if err != nil {
		log.Err(err).Str("user_id", userID.String()).Msg("storing refresh token failed")
		return models.TokenPair{}, fmt.Errorf("storing refresh token failed: %w", err)
	}

	return pair, nil
}

// hashAuthKey runs Argon2id behind the gate so concurrent registrations
// queue instead of exhausting CPU.
func (a *authService) hashAuthKey(ctx context.Context, authKey []byte) (string, error) {
	select {
	case a.kdfGate <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-a.kdfGate }()

	return crypto.HashAuthKey(authKey)
}

// verifyAuthKey runs the constant-time Argon2id comparison behind the gate.
func (a *authService) verifyAuthKey(ctx context.Context, authKey []byte, encoded string) (bool, error) {
	select {
	case a.kdfGate <- struct{}{}:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	defer func() { <-a.kdfGate }()

	return crypto.VerifyAuthKey(authKey, encoded)
}
