package repository

import (
	"context"

	"rifapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemberRepository interface {
	// FindActive returns the active membership of userID in businessID.
	FindActive(ctx context.Context, businessID, userID uuid.UUID) (*model.BusinessMember, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.BusinessMember, error)
	Create(ctx context.Context, m *model.BusinessMember) error
}

type memberRepo struct{ db *gorm.DB }

func NewMemberRepository(db *gorm.DB) MemberRepository { return &memberRepo{db: db} }

func (r *memberRepo) FindActive(ctx context.Context, businessID, userID uuid.UUID) (*model.BusinessMember, error) {
	var m model.BusinessMember
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND user_id = ? AND status = ?", businessID, userID, model.MemberStatusActive).
		First(&m).Error
	if err != nil {
		return nil, notFound(err, "business member", userID)
	}
	return &m, nil
}

func (r *memberRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.BusinessMember, error) {
	var m model.BusinessMember
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "business member", id)
	}
	return &m, nil
}

func (r *memberRepo) Create(ctx context.Context, m *model.BusinessMember) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}
