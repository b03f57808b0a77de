package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lemma-social/lemma-engine/pkg/apperrors"
	"github.com/lemma-social/lemma-engine/pkg/models"
	"github.com/lemma-social/lemma-engine/pkg/repositories"
)

// SubmitFlagInput carries a flag submission.
type SubmitFlagInput struct {
	TargetType string    `json:"target_type"`
	TargetID   uuid.UUID `json:"target_id"`
	Reason     string    `json:"reason"`
}

// ModerationService owns the flag lifecycle: submission, the single
// decision transition, and the unban escape hatch.
type ModerationService interface {
	// SubmitFlag files a new pending flag. Banned reporters are rejected
	// with ErrBanned.
	SubmitFlag(ctx context.Context, input *SubmitFlagInput, reporterID uuid.UUID) (*models.Flag, error)
	GetFlag(ctx context.Context, id uuid.UUID) (*models.Flag, error)
	ListFlags(ctx context.Context, status string) ([]*models.Flag, error)
	// DecideFlag applies a moderator's ruling. Exactly one decision wins
	// per flag; a second attempt gets ErrFlagDecided.
	DecideFlag(ctx context.Context, flagID, moderatorID uuid.UUID, decision *models.FlagDecision) (*models.Flag, error)
	UnbanUser(ctx context.Context, userID uuid.UUID) error
}

type moderationService struct {
	flagRepo  repositories.FlagRepository
	trustRepo repositories.TrustRepository
	cache     *TrustCache
	now       func() time.Time
	logger    *zap.Logger
}

// NewModerationService creates a new ModerationService.
func NewModerationService(
	flagRepo repositories.FlagRepository,
	trustRepo repositories.TrustRepository,
	cache *TrustCache,
	logger *zap.Logger,
) ModerationService {
	return &moderationService{
		flagRepo:  flagRepo,
		trustRepo: trustRepo,
		cache:     cache,
		now:       time.Now,
		logger:    logger,
	}
}

var _ ModerationService = (*moderationService)(nil)

func (s *moderationService) SubmitFlag(ctx context.Context, input *SubmitFlagInput, reporterID uuid.UUID) (*models.Flag, error) {
	trust, err := s.trustRepo.GetOrDefault(ctx, reporterID)
	if err != nil {
		return nil, err
	}
	if trust.EffectivelyBanned(s.now()) {
		return nil, apperrors.ErrBanned
	}

	flag := &models.Flag{
		TargetType: input.TargetType,
		TargetID:   input.TargetID,
		ReporterID: reporterID,
		Reason:     input.Reason,
		Status:     models.FlagStatusPending,
	}
	if err := flag.Validate(); err != nil {
		return nil, err
	}

	if err := s.flagRepo.Create(ctx, flag); err != nil {
		return nil, err
	}

	s.logger.Info("Flag submitted",
		zap.String("flag_id", flag.ID.String()),
		zap.String("target_type", flag.TargetType),
		zap.String("target_id", flag.TargetID.String()))

	return flag, nil
}

func (s *moderationService) GetFlag(ctx context.Context, id uuid.UUID) (*models.Flag, error) {
	return s.flagRepo.GetByID(ctx, id)
}

func (s *moderationService) ListFlags(ctx context.Context, status string) ([]*models.Flag, error) {
	if status != "" && !models.IsValidFlagStatus(status) {
		return nil, apperrors.NewValidation("status", "unknown flag status")
	}
	return s.flagRepo.ListByStatus(ctx, status)
}

func (s *moderationService) DecideFlag(ctx context.Context, flagID, moderatorID uuid.UUID, decision *models.FlagDecision) (*models.Flag, error) {
	if err := decision.Validate(); err != nil {
		return nil, err
	}

	flag, affectedUser, err := s.flagRepo.ApplyDecision(ctx, flagID, moderatorID, decision)
	if err != nil {
		return nil, err
	}

	// The decision may have changed a user's standing; drop any cached
	// trust state so the gate sees it immediately.
	if affectedUser != nil {
		s.cache.Invalidate(ctx, *affectedUser)
	}

	s.logger.Info("Flag decided",
		zap.String("flag_id", flagID.String()),
		zap.String("moderator_id", moderatorID.String()),
		zap.String("outcome", flag.Status))

	return flag, nil
}

func (s *moderationService) UnbanUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.trustRepo.Unban(ctx, userID); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, userID)
	s.logger.Info("User unbanned", zap.String("user_id", userID.String()))
	return nil
}
