package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lemma-social/lemma-engine/pkg/apperrors"
)

// Edge kind constants. An edge is a typed, weighted, directed relation
// between two claims.
const (
	EdgeKindDependsOn   = "depends_on"
	EdgeKindProves      = "proves"
	EdgeKindDisproves   = "disproves"
	EdgeKindExtends     = "extends"
	EdgeKindAnalogousTo = "analogous_to"
)

// ValidEdgeKinds contains all valid edge kind values.
var ValidEdgeKinds = []string{
	EdgeKindDependsOn, EdgeKindProves, EdgeKindDisproves,
	EdgeKindExtends, EdgeKindAnalogousTo,
}

// IsValidEdgeKind checks if the given edge kind is valid.
func IsValidEdgeKind(k string) bool {
	for _, v := range ValidEdgeKinds {
		if v == k {
			return true
		}
	}
	return false
}

// Edge represents a typed relation between two nodes. Edges are immutable
// once created; the only mutations are creation and deletion.
// Self-loops and duplicate from/to/kind triples are permitted.
// Stored in engine_edges table.
type Edge struct {
	ID        uuid.UUID `json:"id"`
	FromID    uuid.UUID `json:"from_id"`
	ToID      uuid.UUID `json:"to_id"`
	Kind      string    `json:"kind"`
	Weight    float64   `json:"weight"` // [0,1], defaults to 1 when omitted
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks field constraints on an edge. Out-of-range weights are
// rejected, never clamped.
func (e *Edge) Validate() error {
	if e.FromID == uuid.Nil {
		return apperrors.NewValidation("from_id", "is required")
	}
	if e.ToID == uuid.Nil {
		return apperrors.NewValidation("to_id", "is required")
	}
	if !IsValidEdgeKind(e.Kind) {
		return apperrors.NewValidation("kind", "unknown edge kind: "+e.Kind)
	}
	if e.Weight < 0 || e.Weight > 1 {
		return apperrors.NewValidation("weight", "must be in [0,1]")
	}
	return nil
}
