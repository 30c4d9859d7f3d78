package documents

import (
	"context"
	"time"

	"github.com/crebai/crebmatch-backend/pkg/db/models"
	"github.com/google/uuid"
)

// ObjectStore is the artifact storage boundary. The GCS client satisfies it
// in production.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// DocumentDTO is the wire projection of a lease artifact.
type DocumentDTO struct {
	MatchID      uuid.UUID  `json:"match_id"`
	LeaseText    string     `json:"lease_text"`
	ArtifactURL  string     `json:"artifact_url"`
	SignatureURL *string    `json:"signature_url,omitempty"`
	GeneratedBy  uuid.UUID  `json:"generated_by"`
	SignedBy     *uuid.UUID `json:"signed_by,omitempty"`
	Signed       bool       `json:"signed"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ToDTO projects an artifact row onto the wire shape. The deal composer
// reuses it when embedding documents in deal views.
func ToDTO(artifact models.DocumentArtifact) DocumentDTO {
	return DocumentDTO{
		MatchID:      artifact.MatchID,
		LeaseText:    artifact.LeaseText,
		ArtifactURL:  artifact.ArtifactURL,
		SignatureURL: artifact.SignatureURL,
		GeneratedBy:  artifact.GeneratedBy,
		SignedBy:     artifact.SignedBy,
		Signed:       artifact.Signed(),
		CreatedAt:    artifact.CreatedAt,
		UpdatedAt:    artifact.UpdatedAt,
	}
}
