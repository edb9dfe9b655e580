package repository

import (
	"context"

	"rifapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BusinessRepository interface {
	Create(ctx context.Context, b *model.Business) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Business, error)
}

type businessRepo struct{ db *gorm.DB }

func NewBusinessRepository(db *gorm.DB) BusinessRepository { return &businessRepo{db: db} }

func (r *businessRepo) Create(ctx context.Context, b *model.Business) error {
	return translate(r.db.WithContext(ctx).Create(b).Error)
}

func (r *businessRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Business, error) {
	var b model.Business
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "business", id)
	}
	return &b, nil
}
