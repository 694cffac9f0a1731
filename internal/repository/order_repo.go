package repository

import (
	"context"
	"time"

	"kasirless/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderRepository is the single write path for orders. Every status
// transition is a guarded single-statement update: the WHERE clause encodes
// the legal source state, so a race between two writers (cashier vs webhook,
// double-clicked complete button) resolves to exactly one affected row.
type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListPendingCash(ctx context.Context) ([]model.Order, error)
	ListProcessing(ctx context.Context) ([]model.Order, error)
	// ListStalePendingDigital feeds the payment recheck sweeper.
	ListStalePendingDigital(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]model.Order, error)

	// MarkPaidProcessing performs pending→paid + waiting→processing in one
	// guarded statement. Returns false when the order was not pending.
	MarkPaidProcessing(ctx context.Context, id uuid.UUID) (bool, error)
	// MarkPaymentFailed performs pending→failed without touching order_status.
	MarkPaymentFailed(ctx context.Context, id uuid.UUID) (bool, error)
	// MarkCompleted performs processing→completed.
	MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error)
	// CancelTx performs {waiting,processing}→cancelled inside a transaction
	// (cancel may also restock, which must commit atomically with it).
	CancelTx(tx *gorm.DB, id uuid.UUID) (bool, error)

	UpdateProviderRef(ctx context.Context, id uuid.UUID, invoiceID, checkoutURL string) error

	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) DB() *gorm.DB { return r.db }

func (r *orderRepo) Create(ctx context.Context, tx *gorm.DB, o *model.Order) error {
	return tx.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("Items.Addons").First(&o, id).Error
	return &o, err
}

func (r *orderRepo) ListPendingCash(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).Preload("Items.Addons").
		Where("payment_method = ? AND payment_status = ?", model.PaymentCash, model.PaymentPending).
		Where("order_status = ?", model.OrderWaiting).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) ListProcessing(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).Preload("Items.Addons").
		Where("order_status = ?", model.OrderProcessing).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) ListStalePendingDigital(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("payment_method = ? AND payment_status = ?", model.PaymentDigital, model.PaymentPending).
		Where("provider_invoice_id IS NOT NULL").
		Where("created_at < ?", olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).Preload("Items.Addons").
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) MarkPaidProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status = ?", id, model.PaymentPending).
		Updates(map[string]interface{}{
			"payment_status": model.PaymentPaid,
			"order_status":   model.OrderProcessing,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *orderRepo) MarkPaymentFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status = ?", id, model.PaymentPending).
		Update("payment_status", model.PaymentFailed)
	return res.RowsAffected > 0, res.Error
}

func (r *orderRepo) MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND order_status = ?", id, model.OrderProcessing).
		Update("order_status", model.OrderCompleted)
	return res.RowsAffected > 0, res.Error
}

func (r *orderRepo) CancelTx(tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := tx.Model(&model.Order{}).
		Where("id = ? AND order_status IN ?", id, []string{model.OrderWaiting, model.OrderProcessing}).
		Update("order_status", model.OrderCancelled)
	return res.RowsAffected > 0, res.Error
}

func (r *orderRepo) UpdateProviderRef(ctx context.Context, id uuid.UUID, invoiceID, checkoutURL string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"provider_invoice_id": invoiceID,
			"checkout_url":        checkoutURL,
		}).Error
}
