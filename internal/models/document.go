package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document is one opaque JSON record in the remote blob store, keyed by an
// identifier (a user handle or the fixed global-settings constant).
type Document struct {
	Identifier string         `gorm:"primaryKey;size:190"`
	Body       datatypes.JSON `gorm:"not null"`
	UpdatedAt  time.Time      `gorm:"index"`
}
