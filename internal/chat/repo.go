package chat

import (
	"context"

	"github.com/crebai/crebmatch-backend/pkg/db/models"
	"github.com/crebai/crebmatch-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository owns the append-only messages table.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a chat repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn inside a DB transaction on the underlying handle.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// Append inserts a message row on the provided handle (plain DB or open tx).
func (r *Repository) Append(ctx context.Context, tx *gorm.DB, msg *models.Message) error {
	if tx == nil {
		tx = r.db
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	return tx.WithContext(ctx).Create(msg).Error
}

// MaxSeq returns the highest assigned sequence for a match, zero when the
// channel is empty.
func (r *Repository) MaxSeq(ctx context.Context, matchID uuid.UUID) (int64, error) {
	var max int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("match_id = ?", matchID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&max).
		Error
	return max, err
}

// ListAfterSeq returns messages with seq > afterSeq in ascending order,
// capped at limit (0 = default page size).
func (r *Repository) ListAfterSeq(ctx context.Context, matchID uuid.UUID, afterSeq int64, limit int) ([]models.Message, error) {
	query := r.db.WithContext(ctx).
		Where("match_id = ? AND seq > ?", matchID, afterSeq).
		Order("seq ASC")
	if limit > 0 {
		query = query.Limit(pagination.NormalizeLimit(limit))
	}

	var rows []models.Message
	err := query.Find(&rows).Error
	return rows, err
}

// ListAll returns the full channel history ascending. Used for subscriber
// backlogs, which must be a complete snapshot.
func (r *Repository) ListAll(ctx context.Context, matchID uuid.UUID) ([]models.Message, error) {
	var rows []models.Message
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("seq ASC").
		Find(&rows).
		Error
	return rows, err
}
