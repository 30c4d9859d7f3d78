package models

import (
	"time"

	"github.com/google/uuid"
)

// Principal mirrors the identity issued by the external gateway. The engine
// only reads the display profile; rows are provisioned out-of-band.
type Principal struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	DisplayName string    `gorm:"column:display_name;type:text;not null"`
	Email       string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
