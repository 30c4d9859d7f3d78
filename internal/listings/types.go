package listings

import (
	"time"

	"github.com/crebai/crebmatch-backend/pkg/db/models"
	"github.com/google/uuid"
)

// FeedFilters narrows the discovery feed. Nil bounds are unconstrained.
type FeedFilters struct {
	Location          string
	MinPriceCents     *int64
	MaxPriceCents     *int64
	MinRentPerSFCents *int64
	MaxRentPerSFCents *int64
	MinSizeSF         *int
	MaxSizeSF         *int
}

// ListingDTO is the feed/deal projection of a listing.
type ListingDTO struct {
	ID             uuid.UUID `json:"id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	Title          string    `json:"title"`
	Location       string    `json:"location"`
	Description    string    `json:"description"`
	PriceCents     int64     `json:"price_cents"`
	RentPerSFCents int64     `json:"rent_per_sf_cents"`
	SizeSF         int       `json:"size_sf"`
	ImageURL       *string   `json:"image_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// FeedDTO is the discovery feed payload. FeedReset tells the client the
// rejection set was cycled back and the page should reload.
type FeedDTO struct {
	Listings  []ListingDTO `json:"listings"`
	FeedReset bool         `json:"feed_reset"`
}

func toDTO(listing models.Listing) ListingDTO {
	return ListingDTO{
		ID:             listing.ID,
		OwnerID:        listing.OwnerID,
		Title:          listing.Title,
		Location:       listing.Location,
		Description:    listing.Description,
		PriceCents:     listing.PriceCents,
		RentPerSFCents: listing.RentPerSFCents,
		SizeSF:         listing.SizeSF,
		ImageURL:       listing.ImageURL,
		CreatedAt:      listing.CreatedAt,
	}
}
