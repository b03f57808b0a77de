package auth

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// createTestToken builds an unsigned (alg "none") JWT for dev-mode parsing.
func createTestToken(claims *Claims) string {
	headerJSON, _ := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	claimsJSON, _ := json.Marshal(claims)
	return base64.RawURLEncoding.EncodeToString(headerJSON) + "." +
		base64.RawURLEncoding.EncodeToString(claimsJSON) + "."
}

func newDevClient(t *testing.T) *JWKSClient {
	t.Helper()
	client, err := NewJWKSClient(&JWKSConfig{EnableVerification: false})
	if err != nil {
		t.Fatalf("NewJWKSClient failed: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestJWKSClient_ValidateToken_DevMode(t *testing.T) {
	client := newDevClient(t)

	token := createTestToken(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "550e8400-e29b-41d4-a716-446655440000",
			Issuer:    "https://auth.example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "user@example.com",
	})

	claims, err := client.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.Subject != "550e8400-e29b-41d4-a716-446655440000" {
		t.Errorf("Subject mismatch: got %q", claims.Subject)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("expected Email 'user@example.com', got %q", claims.Email)
	}
}

func TestJWKSClient_ValidateToken_Malformed(t *testing.T) {
	client := newDevClient(t)

	tests := []struct {
		name  string
		token string
	}{
		{"not a JWT", "not-a-valid-token"},
		{"empty", ""},
		{"bad base64 claims", "eyJhbGciOiJub25lIn0.!!!invalid!!!."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := client.ValidateToken(tt.token); err == nil {
				t.Errorf("ValidateToken(%q): expected error", tt.token)
			}
		})
	}
}

func TestNewJWKSClient_InvalidEndpoint(t *testing.T) {
	// keyfunc may tolerate unreachable URLs (background refresh), but a
	// malformed URL should not panic. Either outcome of err is acceptable.
	_, err := NewJWKSClient(&JWKSConfig{
		EnableVerification: true,
		JWKSEndpoints: map[string]string{
			"https://invalid.example.com": "not-a-valid-url",
		},
	})
	_ = err
}
