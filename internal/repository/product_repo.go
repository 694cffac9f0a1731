package repository

import (
	"context"

	"kasirless/internal/dto"
	"kasirless/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository defines the data access contract for the catalog read
// surface and the stock counter. Services depend on this interface, not on
// the concrete GORM implementation, enabling unit testing via stubs.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// FindByIDs loads products with their full add-on configuration
	// (Addons → Option → Values), as needed by the cart composer.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListAddonsForProduct(ctx context.Context, productID uuid.UUID) ([]model.ProductAddon, error)
	ListAddonValues(ctx context.Context, optionID uuid.UUID) ([]model.AddonValue, error)

	// ListTracked returns products whose current_stock is not null.
	ListTracked(ctx context.Context) ([]model.Product, error)

	// SetStockTx writes an absolute stock value inside a transaction.
	SetStockTx(tx *gorm.DB, id uuid.UUID, value int) error
	// DecrementStockTx atomically takes qty units off current_stock. The
	// guard clause makes two racing orders for the last unit resolve to one
	// winner: the statement matches zero rows when stock is short, and the
	// caller turns that into a StockInsufficientError.
	DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (bool, error)
	// IncrementStockTx restores qty units (cancel-restock policy).
	IncrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (bool, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Addons.Option.Values").
		Where("id IN ?", ids).
		Find(&products).Error
	return products, err
}

func (r *productRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{})

	// Available filter: "false" = hidden, "all" = everything, default = available
	switch filter.Available {
	case "false":
		q = q.Where("is_available = false")
	case "all":
		// no filter
	default:
		q = q.Where("is_available = true")
	}
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&products).Error
	return products, total, err
}

func (r *productRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *productRepo) ListAddonsForProduct(ctx context.Context, productID uuid.UUID) ([]model.ProductAddon, error) {
	var addons []model.ProductAddon
	err := r.db.WithContext(ctx).Preload("Option").Where("product_id = ?", productID).Find(&addons).Error
	return addons, err
}

func (r *productRepo) ListAddonValues(ctx context.Context, optionID uuid.UUID) ([]model.AddonValue, error) {
	var values []model.AddonValue
	err := r.db.WithContext(ctx).Where("addon_option_id = ?", optionID).Order("price_impact ASC").Find(&values).Error
	return values, err
}

func (r *productRepo) ListTracked(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Where("current_stock IS NOT NULL").Find(&products).Error
	return products, err
}

func (r *productRepo) SetStockTx(tx *gorm.DB, id uuid.UUID, value int) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).
		Update("current_stock", value).Error
}

func (r *productRepo) DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (bool, error) {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND current_stock >= ?", id, qty).
		Update("current_stock", gorm.Expr("current_stock - ?", qty))
	return res.RowsAffected > 0, res.Error
}

func (r *productRepo) IncrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (bool, error) {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND current_stock IS NOT NULL", id).
		Update("current_stock", gorm.Expr("current_stock + ?", qty))
	return res.RowsAffected > 0, res.Error
}

func (r *productRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := tx.First(&p, id).Error
	return &p, err
}
