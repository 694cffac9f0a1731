package repository

import (
	"context"

	"kasirless/internal/model"

	"gorm.io/gorm"
)

type StaffRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.Staff, error)
	Create(ctx context.Context, s *model.Staff) error
}

type staffRepo struct{ db *gorm.DB }

func NewStaffRepository(db *gorm.DB) StaffRepository { return &staffRepo{db: db} }

func (r *staffRepo) FindByUsername(ctx context.Context, username string) (*model.Staff, error) {
	var s model.Staff
	err := r.db.WithContext(ctx).Where("username = ? AND active = true", username).First(&s).Error
	return &s, err
}

func (r *staffRepo) Create(ctx context.Context, s *model.Staff) error {
	return r.db.WithContext(ctx).Create(s).Error
}
