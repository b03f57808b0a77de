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

// FlagRepository provides data access for flags. ApplyDecision is the
// single transactional transition out of the pending state.
type FlagRepository interface {
	Create(ctx context.Context, flag *models.Flag) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Flag, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Flag, error)
	// ApplyDecision moves the flag out of pending and applies the decision's
	// trust-state consequences in one transaction. The transition is
	// compare-and-swap: of two simultaneous decisions only the first commits,
	// the second gets ErrFlagDecided. The second return value names the user
	// whose trust state changed, nil when none did.
	ApplyDecision(ctx context.Context, flagID, moderatorID uuid.UUID, decision *models.FlagDecision) (*models.Flag, *uuid.UUID, error)
}

type flagRepository struct{}

// NewFlagRepository creates a new FlagRepository.
func NewFlagRepository() FlagRepository {
	return &flagRepository{}
}

var _ FlagRepository = (*flagRepository)(nil)

func (r *flagRepository) Create(ctx context.Context, flag *models.Flag) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if flag.ID == uuid.Nil {
		flag.ID = uuid.New()
	}
	flag.Status = models.FlagStatusPending
	flag.CreatedAt = time.Now()

	query := `
		INSERT INTO engine_flags (id, target_type, target_id, reporter_id, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := scope.Conn.Exec(ctx, query,
		flag.ID, flag.TargetType, flag.TargetID, flag.ReporterID,
		flag.Reason, flag.Status, flag.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create flag: %w", err)
	}

	return nil
}

func (r *flagRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Flag, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, target_type, target_id, reporter_id, reason, status, note, created_at, decided_at, decided_by
		FROM engine_flags
		WHERE id = $1`

	flag, err := scanFlag(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return flag, nil
}

func (r *flagRepository) ListByStatus(ctx context.Context, status string) ([]*models.Flag, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	// An empty status means no filter: the whole queue, oldest first.
	query := `
		SELECT id, target_type, target_id, reporter_id, reason, status, note, created_at, decided_at, decided_by
		FROM engine_flags
		ORDER BY created_at`
	args := []any{}
	if status != "" {
		query = `
		SELECT id, target_type, target_id, reporter_id, reason, status, note, created_at, decided_at, decided_by
		FROM engine_flags
		WHERE status = $1
		ORDER BY created_at`
		args = append(args, status)
	}

	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flags: %w", err)
	}
	defer rows.Close()

	var flags []*models.Flag
	for rows.Next() {
		flag, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		flags = append(flags, flag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flags: %w", err)
	}

	return flags, nil
}

func (r *flagRepository) ApplyDecision(ctx context.Context, flagID, moderatorID uuid.UUID, decision *models.FlagDecision) (*models.Flag, *uuid.UUID, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, nil, fmt.Errorf("no database scope in context")
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	decidedAt := time.Now()
	outcome := decision.Outcome()

	// CAS transition out of pending: only the first committed decision wins.
	transition := `
		UPDATE engine_flags
		SET status = $2, note = COALESCE($3, note), decided_at = $4, decided_by = $5
		WHERE id = $1 AND status = $6
		RETURNING id, target_type, target_id, reporter_id, reason, status, note, created_at, decided_at, decided_by`

	flag, err := scanFlag(tx.QueryRow(ctx, transition,
		flagID, outcome, decision.Note, decidedAt, moderatorID, models.FlagStatusPending,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, r.classifyMissedTransition(ctx, tx, flagID)
		}
		return nil, nil, err
	}

	// Escalation and rejection leave trust state untouched.
	var affectedUser *uuid.UUID
	if outcome == models.FlagStatusApproved {
		targetUserID, found, err := resolveTargetUser(ctx, tx, flag)
		if err != nil {
			return nil, nil, err
		}
		if found {
			if err := applyWarning(ctx, tx, targetUserID, decision, decidedAt); err != nil {
				return nil, nil, err
			}
			affectedUser = &targetUserID
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return flag, affectedUser, nil
}

// classifyMissedTransition distinguishes a missing flag from one that has
// already been decided.
func (r *flagRepository) classifyMissedTransition(ctx context.Context, tx pgx.Tx, flagID uuid.UUID) error {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM engine_flags WHERE id = $1`, flagID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to inspect flag state: %w", err)
	}
	return fmt.Errorf("flag is %s: %w", status, apperrors.ErrFlagDecided)
}

// resolveTargetUser maps a flag target to the user whose trust state the
// decision affects: user targets directly, node targets through the node's
// author. Other target types are owned by external systems and carry no
// trust consequence here; a vanished node likewise drops the consequence
// without failing the decision.
func resolveTargetUser(ctx context.Context, tx pgx.Tx, flag *models.Flag) (uuid.UUID, bool, error) {
	switch flag.TargetType {
	case models.FlagTargetUser:
		return flag.TargetID, true, nil
	case models.FlagTargetNode:
		var authorID uuid.UUID
		err := tx.QueryRow(ctx, `SELECT author_id FROM engine_nodes WHERE id = $1`, flag.TargetID).Scan(&authorID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return uuid.Nil, false, nil
			}
			return uuid.Nil, false, fmt.Errorf("failed to resolve node author: %w", err)
		}
		return authorID, true, nil
	default:
		return uuid.Nil, false, nil
	}
}

// applyWarning increments the target user's warning count and, when the
// decision bans, sets the ban flags. A nil ExpiresInDays means an
// indefinite ban (no expiry timestamp).
func applyWarning(ctx context.Context, tx pgx.Tx, userID uuid.UUID, decision *models.FlagDecision, now time.Time) error {
	var bannedUntil *time.Time
	if decision.Ban && decision.ExpiresInDays != nil {
		until := now.AddDate(0, 0, *decision.ExpiresInDays)
		bannedUntil = &until
	}

	query := `
		INSERT INTO engine_user_trust (user_id, tier, role, is_banned, banned_until, warnings_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			warnings_count = engine_user_trust.warnings_count + 1,
			is_banned = engine_user_trust.is_banned OR EXCLUDED.is_banned,
			banned_until = CASE WHEN EXCLUDED.is_banned THEN EXCLUDED.banned_until ELSE engine_user_trust.banned_until END,
			updated_at = EXCLUDED.updated_at`

	_, err := tx.Exec(ctx, query,
		userID, models.TierOne, models.RoleMember, decision.Ban, bannedUntil, now,
	)
	if err != nil {
		return fmt.Errorf("failed to apply warning: %w", err)
	}

	return nil
}

func scanFlag(row pgx.Row) (*models.Flag, error) {
	var flag models.Flag

	err := row.Scan(
		&flag.ID, &flag.TargetType, &flag.TargetID, &flag.ReporterID,
		&flag.Reason, &flag.Status, &flag.Note, &flag.CreatedAt,
		&flag.DecidedAt, &flag.DecidedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan flag: %w", err)
	}

	return &flag, nil
}
