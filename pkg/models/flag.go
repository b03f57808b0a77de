package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lemma-social/lemma-engine/pkg/apperrors"
)

// Flag status values. A flag transitions exactly once out of pending.
const (
	FlagStatusPending   = "pending"
	FlagStatusApproved  = "approved"
	FlagStatusRejected  = "rejected"
	FlagStatusEscalated = "escalated"
)

// Flag target types. The set is open: new target types can be flagged
// without a schema change.
const (
	FlagTargetNode    = "node"
	FlagTargetUser    = "user"
	FlagTargetComment = "comment"
)

// ValidFlagStatuses contains all valid flag status values.
var ValidFlagStatuses = []string{
	FlagStatusPending, FlagStatusApproved, FlagStatusRejected, FlagStatusEscalated,
}

// IsValidFlagStatus checks if the given flag status is valid.
func IsValidFlagStatus(s string) bool {
	for _, v := range ValidFlagStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Flag represents a user-submitted report against a target entity.
// Stored in engine_flags table.
type Flag struct {
	ID         uuid.UUID  `json:"id"`
	TargetType string     `json:"target_type"`
	TargetID   uuid.UUID  `json:"target_id"`
	ReporterID uuid.UUID  `json:"reporter_id"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	Note       *string    `json:"note,omitempty"` // Moderator annotation
	CreatedAt  time.Time  `json:"created_at"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
	DecidedBy  *uuid.UUID `json:"decided_by,omitempty"`
}

// Validate checks field constraints on a newly submitted flag.
func (f *Flag) Validate() error {
	if strings.TrimSpace(f.TargetType) == "" {
		return apperrors.NewValidation("target_type", "is required")
	}
	if f.TargetID == uuid.Nil {
		return apperrors.NewValidation("target_id", "is required")
	}
	if f.ReporterID == uuid.Nil {
		return apperrors.NewValidation("reporter_id", "is required")
	}
	if strings.TrimSpace(f.Reason) == "" {
		return apperrors.NewValidation("reason", "is required")
	}
	return nil
}

// IsDecided reports whether the flag has left the pending state.
func (f *Flag) IsDecided() bool {
	return f.Status != FlagStatusPending
}

// FlagDecision carries a moderator's ruling on a pending flag.
// Escalate takes precedence over Approve; Ban and ExpiresInDays only apply
// when Approve is true. A nil ExpiresInDays with Ban set means an
// indefinite ban.
type FlagDecision struct {
	Approve       bool    `json:"approve"`
	Escalate      bool    `json:"escalate,omitempty"`
	Ban           bool    `json:"ban,omitempty"`
	ExpiresInDays *int    `json:"expires_in_days,omitempty"`
	Note          *string `json:"note,omitempty"`
}

// Outcome returns the flag status this decision resolves to.
func (d *FlagDecision) Outcome() string {
	switch {
	case d.Escalate:
		return FlagStatusEscalated
	case d.Approve:
		return FlagStatusApproved
	default:
		return FlagStatusRejected
	}
}

// Validate checks that the decision is internally consistent.
func (d *FlagDecision) Validate() error {
	if d.ExpiresInDays != nil && *d.ExpiresInDays <= 0 {
		return apperrors.NewValidation("expires_in_days", "must be positive")
	}
	if d.Ban && !d.Approve {
		return apperrors.NewValidation("ban", "requires approve to be true")
	}
	return nil
}
