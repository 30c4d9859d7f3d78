package models

import (
	"time"

	"github.com/crebai/crebmatch-backend/pkg/enums"
	"github.com/google/uuid"
)

// Match is the negotiation record between a liking principal and a listing
// owner. A partial unique index (created in migrations) on
// (from_principal_id, listing_id) WHERE status <> 'rejected' guarantees at
// most one live match per pair.
type Match struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	FromPrincipalID uuid.UUID         `gorm:"column:from_principal_id;type:uuid;not null;index:matches_from_idx"`
	ToPrincipalID   uuid.UUID         `gorm:"column:to_principal_id;type:uuid;not null;index:matches_to_idx"`
	ListingID       uuid.UUID         `gorm:"column:listing_id;type:uuid;not null;index:matches_listing_idx"`
	Status          enums.MatchStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// Party reports whether the principal is on either side of the match.
func (m Match) Party(principalID uuid.UUID) bool {
	return m.FromPrincipalID == principalID || m.ToPrincipalID == principalID
}

// Counterpart returns the other side of the match relative to principalID.
func (m Match) Counterpart(principalID uuid.UUID) uuid.UUID {
	if m.FromPrincipalID == principalID {
		return m.ToPrincipalID
	}
	return m.FromPrincipalID
}
