package service

import (
	"context"
	"errors"

	"kasirless/internal/apperr"
	"kasirless/internal/model"
	"kasirless/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TableService manages dining tables and the opaque QR tokens printed on them.
// The token is what customers scan; regenerating it invalidates old prints
// without renumbering the table.
type TableService interface {
	CreateTable(ctx context.Context, number int) (*model.DiningTable, error)
	ResolveToken(ctx context.Context, token uuid.UUID) (*model.DiningTable, error)
	ListTables(ctx context.Context) ([]model.DiningTable, error)
	DeleteTable(ctx context.Context, id uuid.UUID) error
	RegenerateToken(ctx context.Context, id uuid.UUID) (*model.DiningTable, error)
}

type tableService struct {
	tables repository.TableRepository
}

func NewTableService(tables repository.TableRepository) TableService {
	return &tableService{tables: tables}
}

func (s *tableService) CreateTable(ctx context.Context, number int) (*model.DiningTable, error) {
	t := &model.DiningTable{
		TableNumber: number,
		QRToken:     uuid.New(),
	}
	if err := s.tables.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *tableService) ResolveToken(ctx context.Context, token uuid.UUID) (*model.DiningTable, error) {
	t, err := s.tables.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrTableNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *tableService) ListTables(ctx context.Context) ([]model.DiningTable, error) {
	return s.tables.List(ctx)
}

func (s *tableService) DeleteTable(ctx context.Context, id uuid.UUID) error {
	return s.tables.Delete(ctx, id)
}

func (s *tableService) RegenerateToken(ctx context.Context, id uuid.UUID) (*model.DiningTable, error) {
	if _, err := s.tables.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrTableNotFound
		}
		return nil, err
	}
	token := uuid.New()
	if err := s.tables.RegenerateToken(ctx, id, token); err != nil {
		return nil, err
	}
	return s.tables.FindByID(ctx, id)
}
