package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rifapos/internal/apierror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Transactor opens a database transaction and hands it to fn. Repository
// methods suffixed with Tx must be called with the tx it provides.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTransactor struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewTransactor returns a Transactor running at READ COMMITTED. When
// lockTimeout is positive every transaction bounds its row-lock waits with
// SET LOCAL lock_timeout; an expired wait surfaces as *apierror.ConflictError.
func NewTransactor(db *gorm.DB, lockTimeout time.Duration) Transactor {
	return &gormTransactor{db: db, lockTimeout: lockTimeout}
}

func (t *gormTransactor) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", t.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(tx)
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	return translate(err)
}

// forUpdate adds SELECT ... FOR UPDATE to the query.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// ── Error translation ────────────────────────────────────────────────────────

// SQLSTATE codes mapped onto the domain taxonomy.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgLockNotAvailable     = "55P03"
	pgDeadlockDetected     = "40P01"
	pgSerializationFailure = "40001"
)

// translate maps driver errors onto apierror types. Anything it does not
// recognise is returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		field, msg := duplicateField(pgErr.ConstraintName)
		return &apierror.DuplicateError{Field: field, Message: msg}
	case pgForeignKeyViolation:
		return &apierror.ReferenceError{Message: "record is still referenced by other data"}
	case pgLockNotAvailable:
		return &apierror.ConflictError{Message: "timed out waiting for a row lock, retry the operation"}
	case pgDeadlockDetected, pgSerializationFailure:
		return &apierror.ConflictError{Message: "concurrent update detected, retry the operation"}
	case pgCheckViolation:
		return &apierror.ConflictError{Message: "concurrent update violated " + pgErr.ConstraintName}
	}
	return err
}

func duplicateField(constraint string) (string, string) {
	switch constraint {
	case "idx_clients_business_phone":
		return "phone", "phone is already registered for this business"
	case "idx_businesses_slug":
		return "slug", "slug is already taken"
	case "idx_raffle_ticket_number":
		return "number", "ticket number already issued"
	}
	return "", "duplicate record"
}

// notFound converts gorm.ErrRecordNotFound into a NotFoundError for entity.
func notFound(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NewNotFound(entity, id)
	}
	return translate(err)
}
