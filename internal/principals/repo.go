package principals

import (
	"context"

	"github.com/crebai/crebmatch-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads the principal directory. Rows are provisioned by the
// identity gateway; the engine never writes them.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a principal repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a principal's display profile.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (models.Principal, error) {
	var principal models.Principal
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&principal).
		Error
	return principal, err
}

// FindByIDs loads multiple profiles in one round trip, keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Principal, error) {
	result := make(map[uuid.UUID]models.Principal, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var rows []models.Principal
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
