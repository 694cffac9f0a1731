package infra

import (
	"fmt"

	"kasirless/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that
// GORM cannot express (partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Surface unique-index violations as gorm.ErrDuplicatedKey so the
		// services can map them onto the domain conflict errors.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return nil, fmt.Errorf("pgcrypto extension: %w", err)
	}

	if err := db.AutoMigrate(
		&model.Category{},
		&model.Product{},
		&model.AddonOption{},
		&model.AddonValue{},
		&model.ProductAddon{},
		&model.DiningTable{},
		&model.Staff{},
		&model.StockSession{},
		&model.StockSnapshot{},
		&model.StockMovement{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderItemAddon{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// applySchemaPatches applies DDL that GORM struct tags cannot express.
// Every statement is idempotent so restarting the service is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one open stock session system-wide. The partial unique
		// index makes a racing second open fail at the database, whatever
		// the application instances believed.
		{"single open stock session",
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_stock_sessions_single_open
			 ON stock_sessions (status) WHERE status = 'open'`},

		// The cashier queue and the kitchen board both scan by status.
		{"order status scan index",
			`CREATE INDEX IF NOT EXISTS idx_orders_status_created
			 ON orders (order_status, payment_status, created_at)`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("%s: %w", p.descr, err)
		}
	}
	return nil
}
