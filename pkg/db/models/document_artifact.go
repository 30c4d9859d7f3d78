package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentArtifact is the lease document attached 1:1 to an accepted match.
// LeaseText and ArtifactURL may be regenerated while unsigned; once
// SignatureURL is set the artifact is immutable.
type DocumentArtifact struct {
	MatchID      uuid.UUID  `gorm:"column:match_id;type:uuid;primaryKey"`
	LeaseText    string     `gorm:"column:lease_text;type:text;not null"`
	ArtifactURL  string     `gorm:"column:artifact_url;type:text;not null"`
	SignatureURL *string    `gorm:"column:signature_url;type:text"`
	GeneratedBy  uuid.UUID  `gorm:"column:generated_by;type:uuid;not null"`
	SignedBy     *uuid.UUID `gorm:"column:signed_by;type:uuid"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Signed reports whether the artifact has a recorded signature.
func (d DocumentArtifact) Signed() bool {
	return d.SignatureURL != nil && *d.SignatureURL != ""
}
