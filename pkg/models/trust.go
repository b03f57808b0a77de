package models

import (
	"time"

	"github.com/google/uuid"
)

// Role constants for a user's standing on the platform.
const (
	RoleMember    = "member"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Trust tier constants. Tiers are a read-only input to this engine,
// assigned elsewhere.
const (
	TierOne   = "tier1"
	TierTwo   = "tier2"
	TierThree = "tier3"
	TierFour  = "tier4"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleMember, RoleModerator, RoleAdmin}

// IsValidRole checks if the given role is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// UserTrust represents a user's trust standing: tier, role, ban status and
// accumulated warnings. Mutated only by the moderation engine's decision
// transition and the explicit unban operation.
// Stored in engine_user_trust table.
type UserTrust struct {
	UserID        uuid.UUID  `json:"user_id"`
	Tier          string     `json:"tier"`
	Role          string     `json:"role"`
	IsBanned      bool       `json:"is_banned"`
	BannedUntil   *time.Time `json:"banned_until,omitempty"`
	WarningsCount int        `json:"warnings_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// EffectivelyBanned reports whether the user is banned for authorization
// purposes at the given instant. A future banned_until implies a ban even
// if the is_banned flag itself is stale.
func (t *UserTrust) EffectivelyBanned(now time.Time) bool {
	if t.BannedUntil != nil && t.BannedUntil.After(now) {
		return true
	}
	if t.IsBanned {
		// An elapsed expiry lifts the ban regardless of the stale flag.
		return t.BannedUntil == nil || t.BannedUntil.After(now)
	}
	return false
}

// IsModerator reports whether the user holds moderator privileges.
func (t *UserTrust) IsModerator() bool {
	return t.Role == RoleModerator || t.Role == RoleAdmin
}

// DefaultTrust returns the standing assumed for a user with no stored
// trust record: a tier1 member in good standing.
func DefaultTrust(userID uuid.UUID) *UserTrust {
	return &UserTrust{
		UserID: userID,
		Tier:   TierOne,
		Role:   RoleMember,
	}
}
