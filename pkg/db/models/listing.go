package models

import (
	"time"

	"github.com/google/uuid"
)

// Listing is a property record owned by the external listing store. The
// engine reads id and owner_id to resolve match counterparties, plus the
// descriptive fields surfaced in feeds and lease documents.
type Listing struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID        uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index:listings_owner_id_idx"`
	Title          string    `gorm:"column:title;type:text;not null"`
	Location       string    `gorm:"column:location;type:text;not null"`
	Description    string    `gorm:"column:description;type:text"`
	PriceCents     int64     `gorm:"column:price_cents;not null;default:0"`
	RentPerSFCents int64     `gorm:"column:rent_per_sf_cents;not null;default:0"`
	SizeSF         int       `gorm:"column:size_sf;not null;default:0"`
	ImageURL       *string   `gorm:"column:image_url;type:text"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
