package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lemma-social/lemma-engine/pkg/apperrors"
	"github.com/lemma-social/lemma-engine/pkg/models"
	"github.com/lemma-social/lemma-engine/pkg/repositories"
)

// Actions the gate distinguishes. Graph reads are not gated; every write
// and every moderation surface goes through Authorize before it reaches a
// repository.
const (
	ActionCreateNode     = "create_node"
	ActionUpdateNode     = "update_node"
	ActionDeleteNode     = "delete_node"
	ActionCreateEdge     = "create_edge"
	ActionDeleteEdge     = "delete_edge"
	ActionCreateEvidence = "create_evidence"
	ActionSubmitFlag     = "submit_flag"
	ActionDecideFlag     = "decide_flag"
	ActionListFlags      = "list_flags"
	ActionViewTrust      = "view_trust"
	ActionUnbanUser      = "unban_user"
)

var moderatorActions = map[string]bool{
	ActionDecideFlag: true,
	ActionListFlags:  true,
	ActionViewTrust:  true,
	ActionUnbanUser:  true,
}

// AccessGate decides whether a user may perform an action, given their
// current trust standing. It holds no state of its own.
type AccessGate interface {
	Authorize(ctx context.Context, userID uuid.UUID, action string) error
	// TrustState returns the user's current standing, default member
	// standing when no record exists.
	TrustState(ctx context.Context, userID uuid.UUID) (*models.UserTrust, error)
}

type accessGate struct {
	trustRepo repositories.TrustRepository
	cache     *TrustCache
	now       func() time.Time
	logger    *zap.Logger
}

// NewAccessGate creates an AccessGate. cache may be backed by a nil Redis
// client, in which case every lookup goes to the store.
func NewAccessGate(trustRepo repositories.TrustRepository, cache *TrustCache, logger *zap.Logger) AccessGate {
	return &accessGate{
		trustRepo: trustRepo,
		cache:     cache,
		now:       time.Now,
		logger:    logger,
	}
}

var _ AccessGate = (*accessGate)(nil)

func (g *accessGate) TrustState(ctx context.Context, userID uuid.UUID) (*models.UserTrust, error) {
	if trust, ok := g.cache.Get(ctx, userID); ok {
		return trust, nil
	}

	trust, err := g.trustRepo.GetOrDefault(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trust state: %w", err)
	}

	g.cache.Set(ctx, trust)
	return trust, nil
}

func (g *accessGate) Authorize(ctx context.Context, userID uuid.UUID, action string) error {
	trust, err := g.TrustState(ctx, userID)
	if err != nil {
		return err
	}

	if trust.EffectivelyBanned(g.now()) {
		g.logger.Info("Action denied for banned user",
			zap.String("user_id", userID.String()),
			zap.String("action", action))
		return apperrors.ErrBanned
	}

	if moderatorActions[action] && !trust.IsModerator() {
		return apperrors.ErrForbidden
	}

	return nil
}
