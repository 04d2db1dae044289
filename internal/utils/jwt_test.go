package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/keydrop/keydrop/models"
)

func TestGenerateJWTToken_Success(t *testing.T) {
	issuer := "keydrop"
	userID := uuid.New()
	deviceID := uuid.New()
	key := "secret-key"

	tokenString, err := GenerateJWTToken(issuer, userID, deviceID, models.TokenTypeAccess, time.Hour, key)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if tokenString == "" {
		t.Fatal("expected non-empty token string")
	}

	// Verify claims round-trip through validation.
	claims, err := ValidateAndParseJWTToken(tokenString, key, issuer, models.TokenTypeAccess)
	if err != nil {
		t.Fatalf("expected token to validate, got: %v", err)
	}
	if claims.Subject != userID.String() {
		t.Errorf("expected subject %s, got %s", userID, claims.Subject)
	}
	if claims.DeviceID != deviceID.String() {
		t.Errorf("expected device_id %s, got %s", deviceID, claims.DeviceID)
	}
	if claims.TokenType != models.TokenTypeAccess {
		t.Errorf("expected token_type access, got %s", claims.TokenType)
	}
}

func TestGenerateJWTToken_InvalidParams(t *testing.T) {
	userID := uuid.New()
	deviceID := uuid.New()

	tests := []struct {
		name      string
		issuer    string
		userID    uuid.UUID
		deviceID  uuid.UUID
		tokenType string
		duration  time.Duration
		key       string
	}{
		{"empty issuer", "", userID, deviceID, models.TokenTypeAccess, time.Hour, "key"},
		{"zero duration", "iss", userID, deviceID, models.TokenTypeAccess, 0, "key"},
		{"empty key", "iss", userID, deviceID, models.TokenTypeAccess, time.Hour, ""},
		{"nil user", "iss", uuid.Nil, deviceID, models.TokenTypeAccess, time.Hour, "key"},
		{"nil device", "iss", userID, uuid.Nil, models.TokenTypeAccess, time.Hour, "key"},
		{"unknown token type", "iss", userID, deviceID, "session", time.Hour, "key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateJWTToken(tt.issuer, tt.userID, tt.deviceID, tt.tokenType, tt.duration, tt.key)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestIssueTokenPair(t *testing.T) {
	userID := uuid.New()
	deviceID := uuid.New()

	pair, err := IssueTokenPair("keydrop", userID, deviceID, 15*time.Minute, 30*24*time.Hour, "secret")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be populated")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Error("expected distinct access and refresh tokens")
	}
	if pair.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Errorf("expected expires_in 900, got %d", pair.ExpiresIn)
	}

	// The refresh token carries its own type claim.
	if _, err := ValidateAndParseJWTToken(pair.RefreshToken, "secret", "keydrop", models.TokenTypeRefresh); err != nil {
		t.Errorf("expected refresh token to validate as refresh, got: %v", err)
	}
}

func TestValidateAndParseJWTToken_WrongType(t *testing.T) {
	pair, err := IssueTokenPair("keydrop", uuid.New(), uuid.New(), time.Hour, 2*time.Hour, "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A refresh token must not pass as an access token.
	_, err = ValidateAndParseJWTToken(pair.RefreshToken, "secret", "keydrop", models.TokenTypeAccess)
	if err == nil {
		t.Fatal("expected error for wrong token type, got nil")
	}
	if !strings.Contains(err.Error(), "token type") {
		t.Errorf("expected token type error, got: %v", err)
	}
}

func TestValidateAndParseJWTToken_WrongKey(t *testing.T) {
	tokenString, err := GenerateJWTToken("keydrop", uuid.New(), uuid.New(), models.TokenTypeAccess, time.Hour, "right-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := ValidateAndParseJWTToken(tokenString, "wrong-key", "keydrop", models.TokenTypeAccess); err == nil {
		t.Fatal("expected signature error, got nil")
	}
}

func TestValidateAndParseJWTToken_WrongIssuer(t *testing.T) {
	tokenString, err := GenerateJWTToken("keydrop", uuid.New(), uuid.New(), models.TokenTypeAccess, time.Hour, "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := ValidateAndParseJWTToken(tokenString, "secret", "other-service", models.TokenTypeAccess); err == nil {
		t.Fatal("expected issuer error, got nil")
	}
}

func TestValidateAndParseJWTToken_Expired(t *testing.T) {
	tokenString, err := GenerateJWTToken("keydrop", uuid.New(), uuid.New(), models.TokenTypeAccess, -time.Minute, "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := ValidateAndParseJWTToken(tokenString, "secret", "keydrop", models.TokenTypeAccess); err == nil {
		t.Fatal("expected expiry error, got nil")
	}
}
