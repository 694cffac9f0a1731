package service

import (
	"context"
	"errors"

	"kasirless/internal/apperr"
	"kasirless/internal/dto"
	"kasirless/internal/model"
	"kasirless/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogService is the customer-facing read surface of the menu.
type CatalogService interface {
	ListProducts(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListAddonsForProduct(ctx context.Context, productID uuid.UUID) ([]model.ProductAddon, error)
	ListAddonValues(ctx context.Context, optionID uuid.UUID) ([]model.AddonValue, error)
}

type catalogService struct {
	products repository.ProductRepository
}

func NewCatalogService(products repository.ProductRepository) CatalogService {
	return &catalogService{products: products}
}

func (s *catalogService) ListProducts(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.products.List(ctx, filter)
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrProductUnavailable
		}
		return nil, err
	}
	return p, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.products.ListCategories(ctx)
}

func (s *catalogService) ListAddonsForProduct(ctx context.Context, productID uuid.UUID) ([]model.ProductAddon, error) {
	return s.products.ListAddonsForProduct(ctx, productID)
}

func (s *catalogService) ListAddonValues(ctx context.Context, optionID uuid.UUID) ([]model.AddonValue, error) {
	return s.products.ListAddonValues(ctx, optionID)
}
