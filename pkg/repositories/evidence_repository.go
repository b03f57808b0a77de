package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lemma-social/lemma-engine/pkg/apperrors"
	"github.com/lemma-social/lemma-engine/pkg/database"
	"github.com/lemma-social/lemma-engine/pkg/models"
)

// EvidenceRepository provides data access for evidence records.
type EvidenceRepository interface {
	Create(ctx context.Context, evidence *models.Evidence) error
	ListByNode(ctx context.Context, nodeID uuid.UUID) ([]*models.Evidence, error)
}

type evidenceRepository struct{}

// NewEvidenceRepository creates a new EvidenceRepository.
func NewEvidenceRepository() EvidenceRepository {
	return &evidenceRepository{}
}

var _ EvidenceRepository = (*evidenceRepository)(nil)

func (r *evidenceRepository) Create(ctx context.Context, evidence *models.Evidence) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if evidence.ID == uuid.Nil {
		evidence.ID = uuid.New()
	}
	evidence.CreatedAt = time.Now()

	return insertEvidence(ctx, scope.Conn, evidence)
}

// insertEvidence writes one evidence row. As with edges, the node_id FK
// makes the existence check and insert atomic.
func insertEvidence(ctx context.Context, conn execer, evidence *models.Evidence) error {
	query := `
		INSERT INTO engine_evidence (id, node_id, kind, uri, summary, hash, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := conn.Exec(ctx, query,
		evidence.ID, evidence.NodeID, evidence.Kind, evidence.URI,
		evidence.Summary, evidence.Hash, evidence.Confidence, evidence.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("evidence node %s: %w", evidence.NodeID, apperrors.ErrNotFound)
		}
		return fmt.Errorf("failed to create evidence: %w", err)
	}

	return nil
}

func (r *evidenceRepository) ListByNode(ctx context.Context, nodeID uuid.UUID) ([]*models.Evidence, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, node_id, kind, uri, summary, hash, confidence, created_at
		FROM engine_evidence
		WHERE node_id = $1
		ORDER BY created_at`

	rows, err := scope.Conn.Query(ctx, query, nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query evidence: %w", err)
	}
	defer rows.Close()

	var records []*models.Evidence
	for rows.Next() {
		ev, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating evidence: %w", err)
	}

	return records, nil
}

func scanEvidence(row pgx.Row) (*models.Evidence, error) {
	var ev models.Evidence

	err := row.Scan(
		&ev.ID, &ev.NodeID, &ev.Kind, &ev.URI,
		&ev.Summary, &ev.Hash, &ev.Confidence, &ev.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan evidence: %w", err)
	}

	return &ev, nil
}
