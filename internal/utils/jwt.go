package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/keydrop/keydrop/models"
)

// GenerateJWTToken creates a signed HMAC-SHA256 JWT token with the given parameters.
//
// The token includes the following claims:
//   - Issuer     (iss): identifies the service that issued the token
//   - Subject    (sub): the user ID encoded as a string
//   - IssuedAt   (iat): the current time
//   - ExpiresAt  (exp): the current time plus tokenDuration
//   - device_id:  the device the token was issued to
//   - token_type: "access" or "refresh"
//
// All parameters are required. Returns an error if any of them are empty or zero.
func GenerateJWTToken(issuer string, userID, deviceID uuid.UUID, tokenType string, tokenDuration time.Duration, signKey string) (string, error) {
	if issuer == "" || tokenDuration == 0 || signKey == "" || userID == uuid.Nil || deviceID == uuid.Nil {
		return "", errors.New("invalid params for generating JWT Token")
	}
	if tokenType != models.TokenTypeAccess && tokenType != models.TokenTypeRefresh {
		return "", errors.New("invalid token type for generating JWT Token")
	}

	now := time.Now()
	claims := &models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		DeviceID:  deviceID.String(),
		TokenType: tokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(signKey))
	if err != nil {
		return "", fmt.Errorf("error occurred during singing JWT token: %w", err)
	}

	return tokenString, nil
}

// IssueTokenPair produces a fresh access/refresh token pair for the given
// user and device. ExpiresIn reports the access token lifetime in seconds.
func IssueTokenPair(issuer string, userID, deviceID uuid.UUID, accessTTL, refreshTTL time.Duration, signKey string) (models.TokenPair, error) {
	accessToken, err := GenerateJWTToken(issuer, userID, deviceID, models.TokenTypeAccess, accessTTL, signKey)
	if err != nil {
		return models.TokenPair{}, err
	}

	refreshToken, err := GenerateJWTToken(issuer, userID, deviceID, models.TokenTypeRefresh, refreshTTL, signKey)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(accessTTL.Seconds()),
	}, nil
}

// ValidateAndParseJWTToken validates the given JWT token string and extracts its claims.
//
// Validation includes:
//   - Signature verification using the provided sign key (HMAC-SHA256 only)
//   - Issuer (iss) claim check against the provided tokenIssuer
//   - Expiration (exp) claim check
//   - token_type claim check against wantTokenType, so a refresh token can
//     never be replayed as an access token or vice versa
//   - Subject (sub) and device_id claim presence as parseable UUIDs
func ValidateAndParseJWTToken(tokenString, tokenSignKey, tokenIssuer, wantTokenType string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(tokenSignKey), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("error occurred validating and parsing token: %w", err)
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok {
		return nil, errors.New("unexpected claims type in token")
	}

	if claims.TokenType != wantTokenType {
		return nil, fmt.Errorf("unexpected token type: want %q, got %q", wantTokenType, claims.TokenType)
	}

	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("error occurred during getting subject from token: %w", err)
	}
	if _, err := claims.Device(); err != nil {
		return nil, fmt.Errorf("error occurred during getting device from token: %w", err)
	}

	return claims, nil
}
