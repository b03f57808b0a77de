package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lemma-social/lemma-engine/pkg/apperrors"
	"github.com/lemma-social/lemma-engine/pkg/database"
	"github.com/lemma-social/lemma-engine/pkg/models"
)

// execer is satisfied by both database.Conn and pgx.Tx, so the insert
// helpers serve the single-record paths and the compound-create transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EdgeRepository provides data access for edges.
type EdgeRepository interface {
	Create(ctx context.Context, edge *models.Edge) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Edge, error)
	// GetTouching returns every edge with at least one endpoint in ids.
	GetTouching(ctx context.Context, ids []uuid.UUID) ([]*models.Edge, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type edgeRepository struct{}

// NewEdgeRepository creates a new EdgeRepository.
func NewEdgeRepository() EdgeRepository {
	return &edgeRepository{}
}

var _ EdgeRepository = (*edgeRepository)(nil)

func (r *edgeRepository) Create(ctx context.Context, edge *models.Edge) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if edge.ID == uuid.Nil {
		edge.ID = uuid.New()
	}
	edge.CreatedAt = time.Now()

	return insertEdge(ctx, scope.Conn, edge)
}

// insertEdge writes one edge row. The FK constraints on from_id/to_id make
// the endpoint-existence check and the insert a single atomic operation;
// a violation surfaces as ErrNotFound and nothing is persisted.
func insertEdge(ctx context.Context, conn execer, edge *models.Edge) error {
	query := `
		INSERT INTO engine_edges (id, from_id, to_id, kind, weight, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := conn.Exec(ctx, query,
		edge.ID, edge.FromID, edge.ToID, edge.Kind, edge.Weight, edge.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("edge endpoint %s or %s: %w", edge.FromID, edge.ToID, apperrors.ErrNotFound)
		}
		return fmt.Errorf("failed to create edge: %w", err)
	}

	return nil
}

func (r *edgeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Edge, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, from_id, to_id, kind, weight, created_at
		FROM engine_edges
		WHERE id = $1`

	edge, err := scanEdge(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return edge, nil
}

func (r *edgeRepository) GetTouching(ctx context.Context, ids []uuid.UUID) ([]*models.Edge, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	if len(ids) == 0 {
		return []*models.Edge{}, nil
	}

	query := `
		SELECT id, from_id, to_id, kind, weight, created_at
		FROM engine_edges
		WHERE from_id = ANY($1) OR to_id = ANY($1)
		ORDER BY created_at`

	rows, err := scope.Conn.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	var edges []*models.Edge
	for rows.Next() {
		edge, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edges: %w", err)
	}

	return edges, nil
}

func (r *edgeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `DELETE FROM engine_edges WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete edge: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func scanEdge(row pgx.Row) (*models.Edge, error) {
	var edge models.Edge

	err := row.Scan(
		&edge.ID, &edge.FromID, &edge.ToID, &edge.Kind, &edge.Weight, &edge.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan edge: %w", err)
	}

	return &edge, nil
}
