package listings

import (
	"context"
	"strings"

	"github.com/crebai/crebmatch-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads the listing store. Listings are written out-of-band; the
// engine only queries them for feeds, matches and lease documents.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a listing repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a single listing.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&listing).
		Error
	return listing, err
}

// FindByIDs loads multiple listings in one round trip, keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Listing, error) {
	result := make(map[uuid.UUID]models.Listing, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var rows []models.Listing
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.ID] = row
	}
	return result, nil
}

// VisibleCandidates returns the listings a principal could still like:
// not their own, and with no live (non-rejected) match from them. Rejection
// marks are applied by the service on top of this set.
func (r *Repository) VisibleCandidates(ctx context.Context, principalID uuid.UUID, filters FeedFilters) ([]models.Listing, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("owner_id <> ?", principalID).
		Where(`NOT EXISTS (
  SELECT 1 FROM matches m
  WHERE m.from_principal_id = ?
    AND m.listing_id = listings.id
    AND m.status <> 'rejected'
)`, principalID)

	if location := strings.TrimSpace(filters.Location); location != "" {
		query = query.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(location)+"%")
	}
	if filters.MinPriceCents != nil {
		query = query.Where("price_cents >= ?", *filters.MinPriceCents)
	}
	if filters.MaxPriceCents != nil {
		query = query.Where("price_cents <= ?", *filters.MaxPriceCents)
	}
	if filters.MinRentPerSFCents != nil {
		query = query.Where("rent_per_sf_cents >= ?", *filters.MinRentPerSFCents)
	}
	if filters.MaxRentPerSFCents != nil {
		query = query.Where("rent_per_sf_cents <= ?", *filters.MaxRentPerSFCents)
	}
	if filters.MinSizeSF != nil {
		query = query.Where("size_sf >= ?", *filters.MinSizeSF)
	}
	if filters.MaxSizeSF != nil {
		query = query.Where("size_sf <= ?", *filters.MaxSizeSF)
	}

	var rows []models.Listing
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).
		Error
	return rows, err
}
