package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kasirless/internal/apperr"
	"kasirless/internal/cart"
	"kasirless/internal/dto"
	"kasirless/internal/model"
	"kasirless/internal/realtime"
	"kasirless/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentInvoice is the provider-side view of a digital payment.
type PaymentInvoice struct {
	ID          string
	ExternalID  string
	Status      string // PENDING | PAID | EXPIRED
	CheckoutURL string
}

// PaymentGateway is the hosted-checkout contract (Xendit in production).
type PaymentGateway interface {
	CreateInvoice(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, customerName string) (*PaymentInvoice, error)
	GetInvoice(ctx context.Context, invoiceID string) (*PaymentInvoice, error)
}

type OrderService interface {
	CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListPendingCash(ctx context.Context) ([]model.Order, error)
	ListProcessing(ctx context.Context) ([]model.Order, error)

	// ConfirmCashPayment is the cashier's mark-paid action: pending→paid,
	// waiting→processing, one newOrder dispatch.
	ConfirmCashPayment(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// HandlePaymentWebhook applies a provider invoice callback. Idempotent:
	// redelivered callbacks for a settled order are acknowledged silently.
	HandlePaymentWebhook(ctx context.Context, req dto.PaymentWebhookRequest) error
	// RecheckPendingPayment queries the provider for a stale pending digital
	// order and settles it either way. Used by the sweeper worker.
	RecheckPendingPayment(ctx context.Context, id uuid.UUID) error

	CompleteOrder(ctx context.Context, id uuid.UUID) error
	CancelOrder(ctx context.Context, id uuid.UUID) error
}

type orderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	sessions  repository.SessionRepository
	tables    repository.TableRepository
	movements repository.StockMovementRepository
	publisher realtime.Publisher
	gateway   PaymentGateway
	// restockOnCancel restores decremented stock when an order is cancelled.
	restockOnCancel bool
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	sessions repository.SessionRepository,
	tables repository.TableRepository,
	movements repository.StockMovementRepository,
	publisher realtime.Publisher,
	gateway PaymentGateway,
	restockOnCancel bool,
) OrderService {
	return &orderService{
		orders:          orders,
		products:        products,
		sessions:        sessions,
		tables:          tables,
		movements:       movements,
		publisher:       publisher,
		gateway:         gateway,
		restockOnCancel: restockOnCancel,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── CreateOrder ──────────────────────────────────────────────────────────────
// Checkout pipeline:
//  1. Validate customer name, resolve the table token.
//  2. Require an open stock session (store must be open).
//  3. Resolve and price the cart against the catalog.
//  4. BEGIN TX: guarded stock decrements + movement rows + order insert.
//  5. COMMIT, then (digital only) create the hosted-checkout invoice.
//
// Step 4 fails the whole order on the first short product, so a multi-item
// cart is all-or-nothing.

func (s *orderService) CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (*model.Order, error) {
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, apperr.ErrInvalidCustomerName
	}

	token, err := uuid.Parse(req.TableToken)
	if err != nil {
		return nil, apperr.ErrTableNotFound
	}
	table, err := s.tables.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrTableNotFound
		}
		return nil, err
	}

	session, err := s.sessions.FindOpen(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrStoreClosed
		}
		return nil, err
	}

	products, err := s.loadCartProducts(ctx, req.CartItems)
	if err != nil {
		return nil, err
	}
	items, total, err := cart.Compose(products, req.CartItems)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		TableID:       table.ID,
		TableNumber:   table.TableNumber,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		Total:         total,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: model.PaymentPending,
		OrderStatus:   model.OrderWaiting,
		SessionID:     &session.ID,
	}
	for _, item := range items {
		oi := model.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			BasePrice:   item.BasePrice,
			Quantity:    item.Quantity,
			Note:        item.Note,
			Subtotal:    item.Subtotal,
		}
		for _, sel := range item.Selections {
			oi.Addons = append(oi.Addons, model.OrderItemAddon{
				AddonOptionID: sel.OptionID,
				AddonValueID:  sel.ValueID,
				OptionName:    sel.OptionName,
				ValueName:     sel.ValueName,
				PriceImpact:   sel.PriceImpact,
			})
		}
		order.Items = append(order.Items, oi)
	}

	err = runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		if err := s.orders.Create(ctx, tx, order); err != nil {
			return err
		}
		for _, item := range items {
			p := products[item.ProductID]
			if !p.Tracked() {
				continue
			}
			if err := s.takeStock(tx, p, item.Quantity, order.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.PaymentMethod == model.PaymentDigital {
		if err := s.openInvoice(ctx, order); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (s *orderService) loadCartProducts(ctx context.Context, items []dto.CartItemRequest) (map[uuid.UUID]*model.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product_id %q: %w", item.ProductID, err)
		}
		if !seen[pid] {
			seen[pid] = true
			ids = append(ids, pid)
		}
	}
	loaded, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	products := make(map[uuid.UUID]*model.Product, len(loaded))
	for i := range loaded {
		products[loaded[i].ID] = &loaded[i]
	}
	return products, nil
}

// takeStock decrements a tracked product inside the order transaction and
// appends the movement row. The guarded update matching zero rows means the
// stock ran short between pricing and commit.
func (s *orderService) takeStock(tx *gorm.DB, p *model.Product, qty int, orderID uuid.UUID) error {
	ok, err := s.products.DecrementStockTx(tx, p.ID, qty)
	if err != nil {
		return err
	}
	if !ok {
		remaining := 0
		if cur, err := s.products.FindByIDTx(tx, p.ID); err == nil && cur.CurrentStock != nil {
			remaining = *cur.CurrentStock
		}
		return &apperr.StockInsufficientError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Requested:   qty,
			Remaining:   remaining,
		}
	}
	after, err := s.products.FindByIDTx(tx, p.ID)
	if err != nil {
		return err
	}
	refID := orderID
	return s.movements.CreateTx(tx, &model.StockMovement{
		ProductID:   p.ID,
		Kind:        "order",
		Quantity:    -qty,
		StockBefore: *after.CurrentStock + qty,
		StockAfter:  *after.CurrentStock,
		RefID:       &refID,
	})
}

// openInvoice creates the hosted-checkout invoice after the order committed.
// A provider outage is retryable, not a payment verdict: the order stays
// pending so the cashier can settle it manually or an admin cancel it. Only
// the provider itself (webhook or recheck saying EXPIRED) fails a payment.
func (s *orderService) openInvoice(ctx context.Context, order *model.Order) error {
	inv, err := s.gateway.CreateInvoice(ctx, order.ID, order.Total, order.CustomerName)
	if err != nil {
		log.Error().Err(err).Str("order_id", order.ID.String()).Msg("invoice creation failed")
		return apperr.ErrPaymentProviderUnavailable
	}
	if err := s.orders.UpdateProviderRef(ctx, order.ID, inv.ID, inv.CheckoutURL); err != nil {
		return err
	}
	order.ProviderInvoiceID = &inv.ID
	order.CheckoutURL = &inv.CheckoutURL
	return nil
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) ListPendingCash(ctx context.Context) ([]model.Order, error) {
	return s.orders.ListPendingCash(ctx)
}

func (s *orderService) ListProcessing(ctx context.Context) ([]model.Order, error) {
	return s.orders.ListProcessing(ctx)
}

// ── Payment settlement ───────────────────────────────────────────────────────

func (s *orderService) ConfirmCashPayment(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != model.PaymentCash {
		return nil, apperr.ErrWrongMethod
	}

	ok, err := s.orders.MarkPaidProcessing(ctx, id)
	if err != nil {
		return nil, err
	}
	// The guarded update lost: another cashier tab settled it first.
	if !ok {
		return nil, apperr.ErrAlreadyPaid
	}

	order.PaymentStatus = model.PaymentPaid
	order.OrderStatus = model.OrderProcessing
	s.dispatchNewOrder(ctx, order)
	return order, nil
}

func (s *orderService) HandlePaymentWebhook(ctx context.Context, req dto.PaymentWebhookRequest) error {
	id, err := uuid.Parse(req.ExternalID)
	if err != nil {
		return apperr.ErrOrderNotFound
	}
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}

	switch req.Status {
	case "PAID":
		ok, err := s.orders.MarkPaidProcessing(ctx, id)
		if err != nil {
			return err
		}
		if ok {
			order.PaymentStatus = model.PaymentPaid
			order.OrderStatus = model.OrderProcessing
			s.dispatchNewOrder(ctx, order)
		}
		// Redelivery of PAID for a settled order is acknowledged without effect.
		return nil
	case "EXPIRED":
		_, err := s.orders.MarkPaymentFailed(ctx, id)
		return err
	default:
		return fmt.Errorf("unknown invoice status %q", req.Status)
	}
}

func (s *orderService) RecheckPendingPayment(ctx context.Context, id uuid.UUID) error {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.PaymentStatus != model.PaymentPending || order.ProviderInvoiceID == nil {
		return nil
	}

	inv, err := s.gateway.GetInvoice(ctx, *order.ProviderInvoiceID)
	if err != nil {
		return err
	}
	switch inv.Status {
	case "PAID":
		ok, err := s.orders.MarkPaidProcessing(ctx, id)
		if err != nil {
			return err
		}
		if ok {
			order.PaymentStatus = model.PaymentPaid
			order.OrderStatus = model.OrderProcessing
			s.dispatchNewOrder(ctx, order)
			log.Info().Str("order_id", id.String()).Msg("recheck settled pending order as paid")
		}
		return nil
	case "EXPIRED":
		if _, err := s.orders.MarkPaymentFailed(ctx, id); err != nil {
			return err
		}
		log.Info().Str("order_id", id.String()).Msg("recheck expired pending order")
		return nil
	default:
		// Still pending at the provider; the sweeper will pick it up again.
		return nil
	}
}

// ── Kitchen transitions ──────────────────────────────────────────────────────

func (s *orderService) CompleteOrder(ctx context.Context, id uuid.UUID) error {
	ok, err := s.orders.MarkCompleted(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := s.GetOrder(ctx, id); err != nil {
			return err
		}
		return apperr.ErrNotProcessing
	}
	s.dispatch(ctx, realtime.Event{Type: realtime.EventOrderCompleted, OrderID: id})
	return nil
}

func (s *orderService) CancelOrder(ctx context.Context, id uuid.UUID) error {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}

	err = runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		ok, err := s.orders.CancelTx(tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrNotCancellable
		}
		if !s.restockOnCancel {
			return nil
		}
		for _, item := range order.Items {
			ok, err := s.products.IncrementStockTx(tx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				continue // untracked product
			}
			after, err := s.products.FindByIDTx(tx, item.ProductID)
			if err != nil {
				return err
			}
			refID := id
			if err := s.movements.CreateTx(tx, &model.StockMovement{
				ProductID:   item.ProductID,
				Kind:        "restock_cancel",
				Quantity:    item.Quantity,
				StockBefore: *after.CurrentStock - item.Quantity,
				StockAfter:  *after.CurrentStock,
				RefID:       &refID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// A processing order already sits on the kitchen board; the completed
	// event clears its card without waiting for a resync.
	if order.OrderStatus == model.OrderProcessing {
		s.dispatch(ctx, realtime.Event{Type: realtime.EventOrderCompleted, OrderID: id})
	}
	return nil
}

// ── Dispatch ─────────────────────────────────────────────────────────────────

func (s *orderService) dispatchNewOrder(ctx context.Context, order *model.Order) {
	s.dispatch(ctx, realtime.Event{
		Type:    realtime.EventNewOrder,
		OrderID: order.ID,
		Order:   snapshotOrder(order),
	})
}

// dispatch publishes without failing the request: the kitchen recovers any
// missed event through its resync endpoint, the state of record is the DB.
func (s *orderService) dispatch(ctx context.Context, ev realtime.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		log.Error().Err(err).Str("type", ev.Type).Str("order_id", ev.OrderID.String()).
			Msg("kitchen dispatch failed")
	}
}

func snapshotOrder(o *model.Order) *realtime.OrderSnapshot {
	snap := &realtime.OrderSnapshot{
		OrderID:      o.ID,
		TableNumber:  o.TableNumber,
		CustomerName: o.CustomerName,
		CreatedAt:    o.CreatedAt,
	}
	for _, item := range o.Items {
		is := realtime.ItemSnapshot{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Note:        item.Note,
		}
		for _, a := range item.Addons {
			is.Addons = append(is.Addons, realtime.AddonSnapshot{
				OptionName:  a.OptionName,
				ValueName:   a.ValueName,
				PriceImpact: a.PriceImpact,
			})
		}
		snap.Items = append(snap.Items, is)
	}
	return snap
}
