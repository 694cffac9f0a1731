package repository

import (
	"context"

	"kasirless/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TableRepository interface {
	Create(ctx context.Context, t *model.DiningTable) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.DiningTable, error)
	// FindByToken resolves the opaque QR token customers scan.
	FindByToken(ctx context.Context, token uuid.UUID) (*model.DiningTable, error)
	List(ctx context.Context) ([]model.DiningTable, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RegenerateToken(ctx context.Context, id uuid.UUID, token uuid.UUID) error
}

type tableRepo struct{ db *gorm.DB }

func NewTableRepository(db *gorm.DB) TableRepository { return &tableRepo{db: db} }

func (r *tableRepo) Create(ctx context.Context, t *model.DiningTable) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *tableRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.DiningTable, error) {
	var t model.DiningTable
	err := r.db.WithContext(ctx).First(&t, id).Error
	return &t, err
}

func (r *tableRepo) FindByToken(ctx context.Context, token uuid.UUID) (*model.DiningTable, error) {
	var t model.DiningTable
	err := r.db.WithContext(ctx).Where("qr_token = ?", token).First(&t).Error
	return &t, err
}

func (r *tableRepo) List(ctx context.Context) ([]model.DiningTable, error) {
	var tables []model.DiningTable
	err := r.db.WithContext(ctx).Order("table_number ASC").Find(&tables).Error
	return tables, err
}

func (r *tableRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.DiningTable{}, id).Error
}

func (r *tableRepo) RegenerateToken(ctx context.Context, id uuid.UUID, token uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.DiningTable{}).Where("id = ?", id).
		Update("qr_token", token).Error
}
