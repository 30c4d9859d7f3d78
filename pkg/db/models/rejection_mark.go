package models

import (
	"time"

	"github.com/google/uuid"
)

// RejectionMark is a personal, reversible feed filter. It is distinct from a
// match's rejected status: marking a listing hides it from the principal's
// discovery feed without recording a negotiation outcome.
type RejectionMark struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	PrincipalID uuid.UUID `gorm:"column:principal_id;type:uuid;not null;index:rejection_marks_principal_idx;uniqueIndex:rejection_marks_principal_listing_key"`
	ListingID   uuid.UUID `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:rejection_marks_principal_listing_key"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
