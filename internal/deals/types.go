package deals

import (
	"github.com/crebai/crebmatch-backend/internal/documents"
	"github.com/crebai/crebmatch-backend/internal/listings"
	"github.com/crebai/crebmatch-backend/internal/matches"
	"github.com/crebai/crebmatch-backend/pkg/enums"
	"github.com/google/uuid"
)

// DealDTO is the composed read model of an accepted match: ledger row,
// listing, counterpart and document progress in one view.
type DealDTO struct {
	Match           matches.MatchDTO       `json:"match"`
	Listing         listings.ListingDTO    `json:"listing"`
	CounterpartID   uuid.UUID              `json:"counterpart_id"`
	CounterpartName string                 `json:"counterpart_name"`
	Status          enums.DealStatus       `json:"status"`
	Document        *documents.DocumentDTO `json:"document,omitempty"`
}

// DealsPageDTO is a cursor-paginated deal list.
type DealsPageDTO struct {
	Deals      []DealDTO `json:"deals"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
