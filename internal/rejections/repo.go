package rejections

import (
	"context"

	"github.com/crebai/crebmatch-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository owns the authoritative rejection_marks table.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a rejection repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert records a mark and ignores duplicates.
func (r *Repository) Insert(ctx context.Context, principalID, listingID uuid.UUID) error {
	if principalID == uuid.Nil || listingID == uuid.Nil {
		return gorm.ErrInvalidValue
	}

	mark := models.RejectionMark{
		ID:          uuid.New(),
		PrincipalID: principalID,
		ListingID:   listingID,
	}
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO rejection_marks (id, principal_id, listing_id, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP) ON CONFLICT (principal_id, listing_id) DO NOTHING`,
			mark.ID, mark.PrincipalID, mark.ListingID).
		Error
}

// Delete removes the mark if it exists.
func (r *Repository) Delete(ctx context.Context, principalID, listingID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("principal_id = ? AND listing_id = ?", principalID, listingID).
		Delete(&models.RejectionMark{}).
		Error
}

// Exists reports whether the principal has marked the listing.
func (r *Repository) Exists(ctx context.Context, principalID, listingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RejectionMark{}).
		Where("principal_id = ? AND listing_id = ?", principalID, listingID).
		Count(&count).
		Error
	return count > 0, err
}

// ListListingIDs returns every listing the principal has marked.
func (r *Repository) ListListingIDs(ctx context.Context, principalID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.RejectionMark{}).
		Where("principal_id = ?", principalID).
		Pluck("listing_id", &ids).
		Error
	return ids, err
}

// DeleteAllForPrincipal clears the principal's entire mark set.
func (r *Repository) DeleteAllForPrincipal(ctx context.Context, principalID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("principal_id = ?", principalID).
		Delete(&models.RejectionMark{}).
		Error
}
