package models

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lemma-social/lemma-engine/pkg/apperrors"
)

// Evidence kind constants.
const (
	EvidenceKindFormalProof = "formal_proof"
	EvidenceKindReplication = "replication"
	EvidenceKindCitation    = "citation"
	EvidenceKindDataset     = "dataset"
)

// ValidEvidenceKinds contains all valid evidence kind values.
var ValidEvidenceKinds = []string{
	EvidenceKindFormalProof, EvidenceKindReplication,
	EvidenceKindCitation, EvidenceKindDataset,
}

// IsValidEvidenceKind checks if the given evidence kind is valid.
func IsValidEvidenceKind(k string) bool {
	for _, v := range ValidEvidenceKinds {
		if v == k {
			return true
		}
	}
	return false
}

// Evidence represents a supporting artifact attached to a node.
// Stored in engine_evidence table, owned by the node it supports.
type Evidence struct {
	ID         uuid.UUID  `json:"id"`
	NodeID     uuid.UUID  `json:"node_id"`
	Kind       string     `json:"kind"`
	URI        string     `json:"uri"`
	Summary    string     `json:"summary"`
	Hash       *string    `json:"hash,omitempty"`
	Confidence *float64   `json:"confidence,omitempty"` // [0,1] when present
	CreatedAt  time.Time  `json:"created_at"`
}

// Validate checks field constraints on an evidence record.
func (e *Evidence) Validate() error {
	if !IsValidEvidenceKind(e.Kind) {
		return apperrors.NewValidation("kind", "unknown evidence kind: "+e.Kind)
	}
	u, err := url.Parse(e.URI)
	if err != nil || u.Scheme == "" {
		return apperrors.NewValidation("uri", "must be a valid URI")
	}
	if utf8.RuneCountInString(strings.TrimSpace(e.Summary)) < 5 {
		return apperrors.NewValidation("summary", "must be at least 5 characters")
	}
	if e.Confidence != nil && (*e.Confidence < 0 || *e.Confidence > 1) {
		return apperrors.NewValidation("confidence", "must be in [0,1]")
	}
	return nil
}
