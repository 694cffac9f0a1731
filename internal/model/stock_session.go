package model

import (
	"time"

	"github.com/google/uuid"
)

// Stock session status values.
const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// StockSession is the daily open/close window that gates ordering.
// At most one session may be open system-wide — enforced by a partial unique
// index on status='open' (see infra.applySchemaPatches). Version backs the
// optimistic concurrency check on close, so multiple service instances stay
// consistent without an in-memory singleton. A closed session is immutable.
type StockSession struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionDate time.Time `gorm:"type:date;not null;index"`
	Status      string    `gorm:"type:varchar(10);not null;default:'open'"`
	Version     int       `gorm:"not null;default:1"`
	OpenedAt    time.Time
	ClosedAt    *time.Time

	Snapshots []StockSnapshot `gorm:"foreignKey:SessionID"`
}

// StockSnapshot records a tracked product's stock at session boundaries:
// InitialStock at open, FinalStock at close (nil while the session is open).
type StockSnapshot struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_session_product"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_session_product"`
	InitialStock int       `gorm:"not null"`
	FinalStock   *int

	Product *Product `gorm:"foreignKey:ProductID"`
}
