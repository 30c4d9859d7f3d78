package documents

import (
	"context"
	"time"

	"github.com/crebai/crebmatch-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository owns the document_artifacts table. One artifact per match.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a document repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByMatchID loads the artifact for a match.
func (r *Repository) FindByMatchID(ctx context.Context, matchID uuid.UUID) (models.DocumentArtifact, error) {
	var artifact models.DocumentArtifact
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		First(&artifact).
		Error
	return artifact, err
}

// SaveTx upserts the artifact on the provided transaction handle.
func (r *Repository) SaveTx(ctx context.Context, tx *gorm.DB, artifact *models.DocumentArtifact) error {
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "match_id"}},
			UpdateAll: true,
		}).
		Create(artifact).
		Error
}

// UpdateDraftTx replaces the draft fields on the provided transaction,
// refusing to touch a signed artifact. Returns whether a row changed.
func (r *Repository) UpdateDraftTx(ctx context.Context, tx *gorm.DB, matchID uuid.UUID, leaseText, artifactURL string) (bool, error) {
	result := tx.WithContext(ctx).
		Model(&models.DocumentArtifact{}).
		Where("match_id = ? AND signature_url IS NULL", matchID).
		Updates(map[string]any{
			"lease_text":   leaseText,
			"artifact_url": artifactURL,
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetSignatureTx records the signature on the provided transaction, only if
// the artifact is still unsigned. Returns whether this caller signed it.
func (r *Repository) SetSignatureTx(ctx context.Context, tx *gorm.DB, matchID uuid.UUID, signatureURL string, signedBy uuid.UUID) (bool, error) {
	result := tx.WithContext(ctx).
		Model(&models.DocumentArtifact{}).
		Where("match_id = ? AND signature_url IS NULL", matchID).
		Updates(map[string]any{
			"signature_url": signatureURL,
			"signed_by":     signedBy,
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
