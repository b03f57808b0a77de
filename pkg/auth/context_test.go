package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lemma-social/lemma-engine/pkg/apperrors"
)

func claimsContext(subject string) context.Context {
	return context.WithValue(context.Background(), ClaimsKey, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
		},
	})
}

func TestGetUserIDFromContext(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		expected string
	}{
		{
			name:     "valid user ID in context",
			ctx:      claimsContext("user-123"),
			expected: "user-123",
		},
		{
			name:     "no claims in context",
			ctx:      context.Background(),
			expected: "",
		},
		{
			name:     "nil claims in context",
			ctx:      context.WithValue(context.Background(), ClaimsKey, (*Claims)(nil)),
			expected: "",
		},
		{
			name:     "empty user ID in claims",
			ctx:      claimsContext(""),
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetUserIDFromContext(tt.ctx)
			if got != tt.expected {
				t.Errorf("GetUserIDFromContext() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGetUserUUIDFromContext(t *testing.T) {
	validUserID := uuid.New()
	tests := []struct {
		name     string
		ctx      context.Context
		wantUUID uuid.UUID
		wantOK   bool
	}{
		{
			name:     "valid UUID user ID in context",
			ctx:      claimsContext(validUserID.String()),
			wantUUID: validUserID,
			wantOK:   true,
		},
		{
			name:     "no claims in context",
			ctx:      context.Background(),
			wantUUID: uuid.Nil,
			wantOK:   false,
		},
		{
			name:     "empty user ID in claims",
			ctx:      claimsContext(""),
			wantUUID: uuid.Nil,
			wantOK:   false,
		},
		{
			name:     "non-UUID user ID in claims",
			ctx:      claimsContext("not-a-valid-uuid"),
			wantUUID: uuid.Nil,
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUUID, gotOK := GetUserUUIDFromContext(tt.ctx)
			if gotOK != tt.wantOK {
				t.Errorf("GetUserUUIDFromContext() ok = %v, want %v", gotOK, tt.wantOK)
			}
			if gotUUID != tt.wantUUID {
				t.Errorf("GetUserUUIDFromContext() uuid = %v, want %v", gotUUID, tt.wantUUID)
			}
		})
	}
}

func TestRequireUserUUIDFromContext(t *testing.T) {
	validUserID := uuid.New()
	tests := []struct {
		name      string
		ctx       context.Context
		wantValue uuid.UUID
		wantErr   bool
	}{
		{
			name:      "valid UUID user ID in context",
			ctx:       claimsContext(validUserID.String()),
			wantValue: validUserID,
			wantErr:   false,
		},
		{
			name:      "no claims in context",
			ctx:       context.Background(),
			wantValue: uuid.Nil,
			wantErr:   true,
		},
		{
			name:      "empty user ID in claims",
			ctx:       claimsContext(""),
			wantValue: uuid.Nil,
			wantErr:   true,
		},
		{
			name:      "non-UUID user ID in claims",
			ctx:       claimsContext("not-a-valid-uuid"),
			wantValue: uuid.Nil,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RequireUserUUIDFromContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("RequireUserUUIDFromContext() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil && !errors.Is(err, apperrors.ErrUnauthenticated) {
				t.Errorf("error %v should wrap ErrUnauthenticated", err)
			}
			if got != tt.wantValue {
				t.Errorf("RequireUserUUIDFromContext() = %v, want %v", got, tt.wantValue)
			}
		})
	}
}
