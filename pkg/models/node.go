package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lemma-social/lemma-engine/pkg/apperrors"
)

// Node type constants. A node is a single claim in the knowledge graph.
const (
	NodeTypeDefinition     = "definition"
	NodeTypeAxiom          = "axiom"
	NodeTypeTheorem        = "theorem"
	NodeTypeObservation    = "observation"
	NodeTypeCounterexample = "counterexample"
	NodeTypeApplication    = "application"
)

// Node status constants. Status tracks how well-supported a claim is.
const (
	NodeStatusHypothetical  = "hypothetical"
	NodeStatusUnderReview   = "under_review"
	NodeStatusProven        = "proven"
	NodeStatusDisproven     = "disproven"
	NodeStatusRevised       = "revised"
	NodeStatusProbabilistic = "probabilistic"
)

// ValidNodeTypes contains all valid node type values.
var ValidNodeTypes = []string{
	NodeTypeDefinition, NodeTypeAxiom, NodeTypeTheorem,
	NodeTypeObservation, NodeTypeCounterexample, NodeTypeApplication,
}

// ValidNodeStatuses contains all valid node status values.
var ValidNodeStatuses = []string{
	NodeStatusHypothetical, NodeStatusUnderReview, NodeStatusProven,
	NodeStatusDisproven, NodeStatusRevised, NodeStatusProbabilistic,
}

// IsValidNodeType checks if the given node type is valid.
func IsValidNodeType(t string) bool {
	for _, v := range ValidNodeTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsValidNodeStatus checks if the given node status is valid.
func IsValidNodeStatus(s string) bool {
	for _, v := range ValidNodeStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Node represents a claim published by a user.
// Stored in engine_nodes table.
type Node struct {
	ID        uuid.UUID         `json:"id"`
	Title     string            `json:"title"`
	Statement string            `json:"statement"`
	Type      string            `json:"type"`
	Status    string            `json:"status"`
	Metadata  map[string]string `json:"metadata"` // Opaque pass-through data, no assumed keys
	AuthorID  uuid.UUID         `json:"author_id"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Validate checks field constraints on a node before it reaches the store.
func (n *Node) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(n.Title)) < 3 {
		return apperrors.NewValidation("title", "must be at least 3 characters")
	}
	if utf8.RuneCountInString(strings.TrimSpace(n.Statement)) < 10 {
		return apperrors.NewValidation("statement", "must be at least 10 characters")
	}
	if !IsValidNodeType(n.Type) {
		return apperrors.NewValidation("type", "unknown node type: "+n.Type)
	}
	if !IsValidNodeStatus(n.Status) {
		return apperrors.NewValidation("status", "unknown node status: "+n.Status)
	}
	return nil
}

// NodePatch carries a partial node update. Nil fields are left untouched;
// the schema is closed, unknown fields are rejected at the boundary.
type NodePatch struct {
	Title     *string            `json:"title,omitempty"`
	Statement *string            `json:"statement,omitempty"`
	Type      *string            `json:"type,omitempty"`
	Status    *string            `json:"status,omitempty"`
	Metadata  *map[string]string `json:"metadata,omitempty"`
}

// Apply merges the patch over the stored node and re-validates the result.
func (p *NodePatch) Apply(n *Node) error {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Statement != nil {
		n.Statement = *p.Statement
	}
	if p.Type != nil {
		n.Type = *p.Type
	}
	if p.Status != nil {
		n.Status = *p.Status
	}
	if p.Metadata != nil {
		n.Metadata = *p.Metadata
	}
	return n.Validate()
}
