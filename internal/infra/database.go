package infra

import (
	"fmt"

	"rifapos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx. With autoMigrate
// set the schema is created / updated on startup via RunMigrations.
func NewDatabase(dsn string, autoMigrate bool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
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

	if autoMigrate {
		if err := RunMigrations(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// RunMigrations creates or updates every table, then applies the DDL GORM
// tags cannot express. Safe to run repeatedly.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("enable pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.Business{},
		&model.BusinessMember{},
		&model.Client{},
		&model.Product{},
		&model.ProductVariant{},
		&model.Sale{},
		&model.SaleDetail{},
		&model.Payment{},
		&model.ReceiptToken{},
		&model.StockMovement{},
		&model.Raffle{},
		&model.RaffleTicket{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate cannot
// handle on its own (partial indexes, check constraints spanning soft delete).
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Phone is unique per business among live clients only, so a deleted
		// client's phone can be registered again.
		{"partial unique index on clients phone", `
CREATE UNIQUE INDEX IF NOT EXISTS idx_clients_business_phone
    ON clients (business_id, phone)
    WHERE deleted_at IS NULL`},
		// Draw pool lookup: un-won live tickets of one raffle.
		{"partial index on eligible raffle tickets", `
CREATE INDEX IF NOT EXISTS idx_raffle_tickets_eligible
    ON raffle_tickets (raffle_id)
    WHERE deleted_at IS NULL AND is_winner = false`},
		// One winner per place.
		{"partial unique index on raffle places", `
CREATE UNIQUE INDEX IF NOT EXISTS idx_raffle_tickets_place
    ON raffle_tickets (raffle_id, place)
    WHERE place IS NOT NULL`},
		{"receipt token most-viewed index", `
CREATE INDEX IF NOT EXISTS idx_receipt_tokens_business_views
    ON receipt_tokens (business_id, view_count DESC)`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
