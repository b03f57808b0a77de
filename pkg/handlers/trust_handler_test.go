package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lemma-social/lemma-engine/pkg/apperrors"
	"github.com/lemma-social/lemma-engine/pkg/auth"
	"github.com/lemma-social/lemma-engine/pkg/models"
	"github.com/lemma-social/lemma-engine/pkg/services"
)

func newTrustHandler(moderation *mockModerationService, gate *mockAccessGate) *TrustHandler {
	return NewTrustHandler(moderation, gate, zap.NewNop())
}

func TestTrustHandler_GetTrust(t *testing.T) {
	t.Run("returns stored standing", func(t *testing.T) {
		userID := uuid.New()
		gate := &mockAccessGate{trust: &models.UserTrust{
			UserID: userID, Tier: models.TierTwo, Role: models.RoleMember, WarningsCount: 2,
		}}
		handler := newTrustHandler(&mockModerationService{}, gate)

		r := authedRequest(http.MethodGet, "/api/users/x/trust", nil, uuid.New())
		r.SetPathValue("uid", userID.String())
		w := httptest.NewRecorder()
		handler.GetTrust(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, services.ActionViewTrust, gate.lastAction)

		var trust models.UserTrust
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trust))
		assert.Equal(t, 2, trust.WarningsCount)
		assert.Equal(t, models.TierTwo, trust.Tier)
	})

	t.Run("self-read skips the moderator check", func(t *testing.T) {
		userID := uuid.New()
		gate := &mockAccessGate{authorizeErr: apperrors.ErrForbidden}
		handler := newTrustHandler(&mockModerationService{}, gate)

		r := authedRequest(http.MethodGet, "/api/users/x/trust", nil, userID)
		r.SetPathValue("uid", userID.String())
		w := httptest.NewRecorder()
		handler.GetTrust(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, gate.lastAction)
	})

	t.Run("member reading another user maps to 403", func(t *testing.T) {
		gate := &mockAccessGate{authorizeErr: apperrors.ErrForbidden}
		handler := newTrustHandler(&mockModerationService{}, gate)

		r := authedRequest(http.MethodGet, "/api/users/x/trust", nil, uuid.New())
		r.SetPathValue("uid", uuid.NewString())
		w := httptest.NewRecorder()
		handler.GetTrust(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown user gets default standing", func(t *testing.T) {
		handler := newTrustHandler(&mockModerationService{}, &mockAccessGate{})

		userID := uuid.New()
		r := authedRequest(http.MethodGet, "/api/users/x/trust", nil, uuid.New())
		r.SetPathValue("uid", userID.String())
		w := httptest.NewRecorder()
		handler.GetTrust(w, r)

		require.Equal(t, http.StatusOK, w.Code)

		var trust models.UserTrust
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trust))
		assert.Equal(t, models.RoleMember, trust.Role)
		assert.False(t, trust.IsBanned)
	})
}

func TestTrustHandler_Unban(t *testing.T) {
	t.Run("moderator unbans", func(t *testing.T) {
		gate := &mockAccessGate{}
		handler := newTrustHandler(&mockModerationService{}, gate)

		r := authedRequest(http.MethodPost, "/api/users/x/unban", nil, uuid.New())
		r.SetPathValue("uid", uuid.NewString())
		w := httptest.NewRecorder()
		handler.Unban(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, services.ActionUnbanUser, gate.lastAction)
	})

	t.Run("non-moderator maps to 403", func(t *testing.T) {
		gate := &mockAccessGate{authorizeErr: apperrors.ErrForbidden}
		handler := newTrustHandler(&mockModerationService{}, gate)

		r := authedRequest(http.MethodPost, "/api/users/x/unban", nil, uuid.New())
		r.SetPathValue("uid", uuid.NewString())
		w := httptest.NewRecorder()
		handler.Unban(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("malformed subject maps to 401", func(t *testing.T) {
		handler := newTrustHandler(&mockModerationService{}, &mockAccessGate{})

		claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "not-a-uuid"}}
		r := httptest.NewRequest(http.MethodPost, "/api/users/x/unban", nil)
		r = r.WithContext(context.WithValue(r.Context(), auth.ClaimsKey, claims))
		r.SetPathValue("uid", uuid.NewString())
		w := httptest.NewRecorder()
		handler.Unban(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("user with no trust record maps to 404", func(t *testing.T) {
		moderation := &mockModerationService{unbanErr: apperrors.ErrNotFound}
		handler := newTrustHandler(moderation, &mockAccessGate{})

		r := authedRequest(http.MethodPost, "/api/users/x/unban", nil, uuid.New())
		r.SetPathValue("uid", uuid.NewString())
		w := httptest.NewRecorder()
		handler.Unban(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
