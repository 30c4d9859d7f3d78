package matches

import (
	"time"

	"github.com/crebai/crebmatch-backend/internal/listings"
	"github.com/crebai/crebmatch-backend/pkg/db/models"
	"github.com/crebai/crebmatch-backend/pkg/enums"
	"github.com/google/uuid"
)

// MatchDTO is the ledger projection of a match.
type MatchDTO struct {
	ID              uuid.UUID         `json:"id"`
	FromPrincipalID uuid.UUID         `json:"from_principal_id"`
	ToPrincipalID   uuid.UUID         `json:"to_principal_id"`
	ListingID       uuid.UUID         `json:"listing_id"`
	Status          enums.MatchStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// MatchSummaryDTO decorates a match with the listing and counterpart profile
// for list views.
type MatchSummaryDTO struct {
	Match           MatchDTO            `json:"match"`
	Listing         listings.ListingDTO `json:"listing"`
	CounterpartID   uuid.UUID           `json:"counterpart_id"`
	CounterpartName string              `json:"counterpart_name"`
}

// MatchesPageDTO is a cursor-paginated match list.
type MatchesPageDTO struct {
	Matches    []MatchSummaryDTO `json:"matches"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func toDTO(match models.Match) MatchDTO {
	return MatchDTO{
		ID:              match.ID,
		FromPrincipalID: match.FromPrincipalID,
		ToPrincipalID:   match.ToPrincipalID,
		ListingID:       match.ListingID,
		Status:          match.Status,
		CreatedAt:       match.CreatedAt,
		UpdatedAt:       match.UpdatedAt,
	}
}
