package repository

import (
	"context"
	"time"

	"rifapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReceiptRepository interface {
	CreateTx(tx *gorm.DB, t *model.ReceiptToken) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ReceiptToken, error)
	// RegisterView atomically bumps view_count and last_viewed_at and
	// returns the new count.
	RegisterView(ctx context.Context, id uuid.UUID, at time.Time) (int, error)
	MostViewed(ctx context.Context, businessID uuid.UUID, limit int) ([]model.ReceiptToken, error)
}

type receiptRepo struct{ db *gorm.DB }

func NewReceiptRepository(db *gorm.DB) ReceiptRepository { return &receiptRepo{db: db} }

func (r *receiptRepo) CreateTx(tx *gorm.DB, t *model.ReceiptToken) error {
	return translate(tx.Create(t).Error)
}

func (r *receiptRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ReceiptToken, error) {
	var t model.ReceiptToken
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "receipt token", id)
	}
	return &t, nil
}

func (r *receiptRepo) RegisterView(ctx context.Context, id uuid.UUID, at time.Time) (int, error) {
	var count int
	res := r.db.WithContext(ctx).Raw(`
		UPDATE receipt_tokens
		SET view_count = view_count + 1, last_viewed_at = ?
		WHERE id = ?
		RETURNING view_count`, at, id).Scan(&count)
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, notFound(gorm.ErrRecordNotFound, "receipt token", id)
	}
	return count, nil
}

func (r *receiptRepo) MostViewed(ctx context.Context, businessID uuid.UUID, limit int) ([]model.ReceiptToken, error) {
	var tokens []model.ReceiptToken
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND view_count > 0", businessID).
		Order("view_count DESC, last_viewed_at DESC").
		Limit(limit).
		Find(&tokens).Error
	return tokens, translate(err)
}
