package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lemma-social/lemma-engine/pkg/apperrors"
	"github.com/lemma-social/lemma-engine/pkg/database"
	"github.com/lemma-social/lemma-engine/pkg/models"
)

// TrustRepository provides data access for user trust state. Tier and role
// are written elsewhere on the platform; this engine reads them and mutates
// only the ban fields and warning count (through FlagRepository.ApplyDecision
// and Unban here).
type TrustRepository interface {
	// GetByID returns the stored trust state, or ErrNotFound.
	GetByID(ctx context.Context, userID uuid.UUID) (*models.UserTrust, error)
	// GetOrDefault returns the stored trust state, or the default member
	// standing for users with no record yet.
	GetOrDefault(ctx context.Context, userID uuid.UUID) (*models.UserTrust, error)
	// Unban clears is_banned and banned_until unconditionally.
	Unban(ctx context.Context, userID uuid.UUID) error
}

type trustRepository struct{}

// NewTrustRepository creates a new TrustRepository.
func NewTrustRepository() TrustRepository {
	return &trustRepository{}
}

var _ TrustRepository = (*trustRepository)(nil)

func (r *trustRepository) GetByID(ctx context.Context, userID uuid.UUID) (*models.UserTrust, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT user_id, tier, role, is_banned, banned_until, warnings_count, created_at, updated_at
		FROM engine_user_trust
		WHERE user_id = $1`

	trust, err := scanTrust(scope.Conn.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return trust, nil
}

func (r *trustRepository) GetOrDefault(ctx context.Context, userID uuid.UUID) (*models.UserTrust, error) {
	trust, err := r.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return models.DefaultTrust(userID), nil
		}
		return nil, err
	}
	return trust, nil
}

func (r *trustRepository) Unban(ctx context.Context, userID uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		UPDATE engine_user_trust
		SET is_banned = false, banned_until = NULL, updated_at = $2
		WHERE user_id = $1`

	result, err := scope.Conn.Exec(ctx, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to unban user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func scanTrust(row pgx.Row) (*models.UserTrust, error) {
	var trust models.UserTrust

	err := row.Scan(
		&trust.UserID, &trust.Tier, &trust.Role, &trust.IsBanned,
		&trust.BannedUntil, &trust.WarningsCount, &trust.CreatedAt, &trust.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user trust: %w", err)
	}

	return &trust, nil
}
