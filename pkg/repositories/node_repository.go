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

// foreignKeyViolation is the PostgreSQL error code raised when an insert
// references a missing row. Referential integrity for edges and evidence
// rides on the store's FK constraints so the existence check and the insert
// are one atomic operation.
const foreignKeyViolation = "23503"

// NodeRepository provides data access for nodes. CreateWithRelated is the
// compound creation path: the node, its dependency edges and its evidence
// records are written in a single transaction.
type NodeRepository interface {
	CreateWithRelated(ctx context.Context, node *models.Node, edges []*models.Edge, evidence []*models.Evidence) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Node, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Node, error)
	Update(ctx context.Context, node *models.Node) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*models.Node, error)
}

type nodeRepository struct{}

// NewNodeRepository creates a new NodeRepository.
func NewNodeRepository() NodeRepository {
	return &nodeRepository{}
}

var _ NodeRepository = (*nodeRepository)(nil)

func (r *nodeRepository) CreateWithRelated(ctx context.Context, node *models.Node, edges []*models.Edge, evidence []*models.Evidence) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	now := time.Now()
	if node.ID == uuid.Nil {
		node.ID = uuid.New()
	}
	node.CreatedAt = now
	node.UpdatedAt = now
	if node.Metadata == nil {
		node.Metadata = map[string]string{}
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	query := `
		INSERT INTO engine_nodes (id, title, statement, node_type, status, metadata, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = tx.Exec(ctx, query,
		node.ID, node.Title, node.Statement, node.Type, node.Status,
		node.Metadata, node.AuthorID, node.CreatedAt, node.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create node: %w", err)
	}

	for _, edge := range edges {
		if edge.ID == uuid.Nil {
			edge.ID = uuid.New()
		}
		edge.CreatedAt = now
		if err := insertEdge(ctx, tx, edge); err != nil {
			return err
		}
	}

	for _, ev := range evidence {
		if ev.ID == uuid.Nil {
			ev.ID = uuid.New()
		}
		ev.CreatedAt = now
		if err := insertEvidence(ctx, tx, ev); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *nodeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Node, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, title, statement, node_type, status, metadata, author_id, created_at, updated_at
		FROM engine_nodes
		WHERE id = $1`

	node, err := scanNode(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found; callers translate nil to their own not-found handling
		}
		return nil, err
	}

	return node, nil
}

func (r *nodeRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Node, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	if len(ids) == 0 {
		return []*models.Node{}, nil
	}

	query := `
		SELECT id, title, statement, node_type, status, metadata, author_id, created_at, updated_at
		FROM engine_nodes
		WHERE id = ANY($1)
		ORDER BY created_at`

	rows, err := scope.Conn.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*models.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}

	return nodes, nil
}

func (r *nodeRepository) Update(ctx context.Context, node *models.Node) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	node.UpdatedAt = time.Now()

	query := `
		UPDATE engine_nodes
		SET title = $2, statement = $3, node_type = $4, status = $5, metadata = $6, updated_at = $7
		WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query,
		node.ID, node.Title, node.Statement, node.Type, node.Status,
		node.Metadata, node.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update node: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Delete removes the node. Dependent edges and evidence cascade with it
// (ON DELETE CASCADE on the referencing tables).
func (r *nodeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `DELETE FROM engine_nodes WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *nodeRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*models.Node, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, title, statement, node_type, status, metadata, author_id, created_at, updated_at
		FROM engine_nodes
		WHERE author_id = $1
		ORDER BY created_at DESC`

	rows, err := scope.Conn.Query(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes by author: %w", err)
	}
	defer rows.Close()

	var nodes []*models.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}

	return nodes, nil
}

func scanNode(row pgx.Row) (*models.Node, error) {
	var node models.Node

	err := row.Scan(
		&node.ID, &node.Title, &node.Statement, &node.Type, &node.Status,
		&node.Metadata, &node.AuthorID, &node.CreatedAt, &node.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan node: %w", err)
	}

	return &node, nil
}

// isForeignKeyViolation reports whether err is a PostgreSQL FK violation,
// i.e. a referenced node does not exist.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
