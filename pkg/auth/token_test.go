package auth

import (
	"testing"
	"time"

	"github.com/crebai/crebmatch-backend/pkg/config"
	"github.com/google/uuid"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "crebmatch-test",
	ExpirationMinutes: 15,
}

func TestMintAndParseRoundTrip(t *testing.T) {
	principal := uuid.New()
	token, err := MintAccessToken(testJWTConfig, time.Now(), AccessTokenPayload{PrincipalID: principal})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := ParseAccessToken(testJWTConfig, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.PrincipalID != principal {
		t.Fatalf("expected principal %s, got %s", principal, claims.PrincipalID)
	}
	if claims.ID == "" {
		t.Fatal("expected a jti to be assigned")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := MintAccessToken(testJWTConfig, time.Now().Add(-time.Hour), AccessTokenPayload{PrincipalID: uuid.New()})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testJWTConfig, token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	other := testJWTConfig
	other.Issuer = "someone-else"
	token, err := MintAccessToken(other, time.Now(), AccessTokenPayload{PrincipalID: uuid.New()})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testJWTConfig, token); err == nil {
		t.Fatal("expected issuer mismatch to be rejected")
	}
}

func TestMintValidatesInputs(t *testing.T) {
	if _, err := MintAccessToken(config.JWTConfig{}, time.Now(), AccessTokenPayload{PrincipalID: uuid.New()}); err == nil {
		t.Fatal("expected missing secret error")
	}
	if _, err := MintAccessToken(testJWTConfig, time.Now(), AccessTokenPayload{}); err == nil {
		t.Fatal("expected missing principal error")
	}
}
