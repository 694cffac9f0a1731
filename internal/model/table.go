package model

import (
	"time"

	"github.com/google/uuid"
)

// DiningTable is a physical table with the opaque token embedded in its QR
// code. Regenerating the token invalidates previously printed codes.
type DiningTable struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TableNumber int       `gorm:"uniqueIndex;not null"`
	QRToken     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
