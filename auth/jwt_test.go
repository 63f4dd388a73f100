package auth

import (
	"testing"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("test-secret", 42, "user@example.com")
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	claims, err := ValidateJWT("test-secret", token)
	if err != nil {
		t.Fatalf("ValidateJWT() error = %v", err)
	}
	if claims.UserID != 42 || claims.Email != "user@example.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT("test-secret", 42, "user@example.com")
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}
	if _, err := ValidateJWT("other-secret", token); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}

func TestValidateJWTGarbage(t *testing.T) {
	if _, err := ValidateJWT("test-secret", "not.a.jwt"); err == nil {
		t.Fatal("malformed token accepted")
	}
}
