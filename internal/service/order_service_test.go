package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kasirless/internal/apperr"
	"kasirless/internal/dto"
	"kasirless/internal/model"
	"kasirless/internal/realtime"
	"kasirless/internal/repository"
	"kasirless/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubOrderRepo is an in-memory OrderRepository. The guarded transitions take
// the mutex so concurrent settlement tests behave like the real SQL guards.
type stubOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (r *stubOrderRepo) Create(_ context.Context, _ *gorm.DB, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = time.Now()
	r.orders[o.ID] = o
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *stubOrderRepo) ListPendingCash(_ context.Context) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if o.PaymentMethod == model.PaymentCash && o.PaymentStatus == model.PaymentPending && o.OrderStatus == model.OrderWaiting {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *stubOrderRepo) ListProcessing(_ context.Context) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if o.OrderStatus == model.OrderProcessing {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *stubOrderRepo) ListStalePendingDigital(_ context.Context, olderThan time.Time, _ int) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if o.PaymentMethod == model.PaymentDigital && o.PaymentStatus == model.PaymentPending &&
			o.ProviderInvoiceID != nil && o.CreatedAt.Before(olderThan) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *stubOrderRepo) ListByDateRange(_ context.Context, _, _ time.Time) ([]model.Order, error) {
	return nil, nil
}

func (r *stubOrderRepo) MarkPaidProcessing(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.PaymentStatus != model.PaymentPending {
		return false, nil
	}
	o.PaymentStatus = model.PaymentPaid
	o.OrderStatus = model.OrderProcessing
	return true, nil
}

func (r *stubOrderRepo) MarkPaymentFailed(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.PaymentStatus != model.PaymentPending {
		return false, nil
	}
	o.PaymentStatus = model.PaymentFailed
	return true, nil
}

func (r *stubOrderRepo) MarkCompleted(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.OrderStatus != model.OrderProcessing {
		return false, nil
	}
	o.OrderStatus = model.OrderCompleted
	return true, nil
}

func (r *stubOrderRepo) CancelTx(_ *gorm.DB, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || (o.OrderStatus != model.OrderWaiting && o.OrderStatus != model.OrderProcessing) {
		return false, nil
	}
	o.OrderStatus = model.OrderCancelled
	return true, nil
}

func (r *stubOrderRepo) UpdateProviderRef(_ context.Context, id uuid.UUID, invoiceID, checkoutURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.ProviderInvoiceID = &invoiceID
	o.CheckoutURL = &checkoutURL
	return nil
}

func (r *stubOrderRepo) DB() *gorm.DB { return nil }

var _ repository.OrderRepository = (*stubOrderRepo)(nil)

// stubProductRepo holds products in memory. DecrementStockTx applies the same
// conditional-update semantics as the SQL guard, under a mutex.
type stubProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo(products ...*model.Product) *stubProductRepo {
	r := &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	return nil, 0, nil
}

func (r *stubProductRepo) ListCategories(_ context.Context) ([]model.Category, error) {
	return nil, nil
}

func (r *stubProductRepo) ListAddonsForProduct(_ context.Context, _ uuid.UUID) ([]model.ProductAddon, error) {
	return nil, nil
}

func (r *stubProductRepo) ListAddonValues(_ context.Context, _ uuid.UUID) ([]model.AddonValue, error) {
	return nil, nil
}

func (r *stubProductRepo) ListTracked(_ context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if p.CurrentStock != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) SetStockTx(_ *gorm.DB, id uuid.UUID, value int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.CurrentStock = &value
	return nil
}

func (r *stubProductRepo) DecrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.CurrentStock == nil || *p.CurrentStock < qty {
		return false, nil
	}
	next := *p.CurrentStock - qty
	p.CurrentStock = &next
	return true, nil
}

func (r *stubProductRepo) IncrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.CurrentStock == nil {
		return false, nil
	}
	next := *p.CurrentStock + qty
	p.CurrentStock = &next
	return true, nil
}

func (r *stubProductRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

func (r *stubProductRepo) stock(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.products[id].CurrentStock
}

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// stubSessionRepo holds at most one open session plus closed history.
// createErr lets a test stand in for the database-level session guard.
type stubSessionRepo struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*model.StockSession
	snapshots []model.StockSnapshot
	createErr error
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: make(map[uuid.UUID]*model.StockSession)}
}

func (r *stubSessionRepo) Create(_ context.Context, _ *gorm.DB, s *model.StockSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Version == 0 {
		s.Version = 1
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *stubSessionRepo) FindOpen(_ context.Context) (*model.StockSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Status == model.SessionOpen {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSessionRepo) FindLatestByDate(_ context.Context, date time.Time) (*model.StockSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.StockSession
	day := date.Format("2006-01-02")
	for _, s := range r.sessions {
		if s.SessionDate.Format("2006-01-02") != day {
			continue
		}
		if latest == nil || s.OpenedAt.After(latest.OpenedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *stubSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.StockSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSessionRepo) CloseTx(_ *gorm.DB, id uuid.UUID, version int, closedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != model.SessionOpen || s.Version != version {
		return false, nil
	}
	s.Status = model.SessionClosed
	s.ClosedAt = &closedAt
	s.Version = version + 1
	return true, nil
}

func (r *stubSessionRepo) CreateSnapshotTx(_ *gorm.DB, s *model.StockSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.snapshots = append(r.snapshots, *s)
	return nil
}

func (r *stubSessionRepo) SetFinalStockTx(_ *gorm.DB, sessionID, productID uuid.UUID, final int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.snapshots {
		if r.snapshots[i].SessionID == sessionID && r.snapshots[i].ProductID == productID {
			v := final
			r.snapshots[i].FinalStock = &v
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubSessionRepo) ListSnapshots(_ context.Context, sessionID uuid.UUID) ([]model.StockSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockSnapshot
	for _, s := range r.snapshots {
		if s.SessionID == sessionID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *stubSessionRepo) DB() *gorm.DB { return nil }

var _ repository.SessionRepository = (*stubSessionRepo)(nil)

// stubTableRepo resolves a fixed set of tables.
type stubTableRepo struct {
	tables map[uuid.UUID]*model.DiningTable // by QR token
}

func newStubTableRepo(tables ...*model.DiningTable) *stubTableRepo {
	r := &stubTableRepo{tables: make(map[uuid.UUID]*model.DiningTable)}
	for _, t := range tables {
		r.tables[t.QRToken] = t
	}
	return r
}

func (r *stubTableRepo) Create(_ context.Context, t *model.DiningTable) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.tables[t.QRToken] = t
	return nil
}

func (r *stubTableRepo) FindByID(_ context.Context, id uuid.UUID) (*model.DiningTable, error) {
	for _, t := range r.tables {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubTableRepo) FindByToken(_ context.Context, token uuid.UUID) (*model.DiningTable, error) {
	t, ok := r.tables[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *stubTableRepo) List(_ context.Context) ([]model.DiningTable, error) { return nil, nil }
func (r *stubTableRepo) Delete(_ context.Context, _ uuid.UUID) error         { return nil }
func (r *stubTableRepo) RegenerateToken(_ context.Context, _ uuid.UUID, _ uuid.UUID) error {
	return nil
}

var _ repository.TableRepository = (*stubTableRepo)(nil)

// stubMovementRepo captures ledger rows for assertion.
type stubMovementRepo struct {
	mu        sync.Mutex
	movements []model.StockMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) ListByProduct(_ context.Context, _ uuid.UUID, _ int) ([]model.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.movements, nil
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// stubPublisher records dispatched events.
type stubPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
	err    error
}

func (p *stubPublisher) Publish(_ context.Context, ev realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *stubPublisher) byType(t string) []realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []realtime.Event
	for _, ev := range p.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// stubGateway answers invoice calls with canned responses.
type stubGateway struct {
	createErr error
	status    string
	created   int
}

func (g *stubGateway) CreateInvoice(_ context.Context, orderID uuid.UUID, _ decimal.Decimal, _ string) (*service.PaymentInvoice, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created++
	return &service.PaymentInvoice{
		ID:          "inv-" + orderID.String(),
		ExternalID:  orderID.String(),
		Status:      "PENDING",
		CheckoutURL: "https://checkout.example/" + orderID.String(),
	}, nil
}

func (g *stubGateway) GetInvoice(_ context.Context, invoiceID string) (*service.PaymentInvoice, error) {
	return &service.PaymentInvoice{ID: invoiceID, Status: g.status}, nil
}

var _ service.PaymentGateway = (*stubGateway)(nil)

// ── Fixtures ─────────────────────────────────────────────────────────────────

func intPtr(v int) *int { return &v }

func newProduct(name string, price int64, stock *int) *model.Product {
	return &model.Product{
		ID:           uuid.New(),
		Name:         name,
		Price:        decimal.NewFromInt(price),
		IsAvailable:  true,
		CurrentStock: stock,
	}
}

type orderFixture struct {
	svc       service.OrderService
	orders    *stubOrderRepo
	products  *stubProductRepo
	sessions  *stubSessionRepo
	movements *stubMovementRepo
	publisher *stubPublisher
	gateway   *stubGateway
	table     *model.DiningTable
}

func buildOrderSvc(t *testing.T, restockOnCancel bool, products ...*model.Product) *orderFixture {
	t.Helper()
	f := &orderFixture{
		orders:    newStubOrderRepo(),
		products:  newStubProductRepo(products...),
		sessions:  newStubSessionRepo(),
		movements: &stubMovementRepo{},
		publisher: &stubPublisher{},
		gateway:   &stubGateway{},
		table:     &model.DiningTable{ID: uuid.New(), TableNumber: 7, QRToken: uuid.New()},
	}
	require.NoError(t, f.sessions.Create(context.Background(), nil, &model.StockSession{
		SessionDate: time.Now(),
		Status:      model.SessionOpen,
		OpenedAt:    time.Now(),
	}))
	f.svc = service.NewOrderService(
		f.orders, f.products, f.sessions, newStubTableRepo(f.table),
		f.movements, f.publisher, f.gateway, restockOnCancel,
	)
	return f
}

func (f *orderFixture) checkout(t *testing.T, method string, qty int, p *model.Product) *model.Order {
	t.Helper()
	order, err := f.svc.CreateOrder(context.Background(), dto.CreateOrderRequest{
		TableToken:    f.table.QRToken.String(),
		CustomerName:  "Budi",
		PaymentMethod: method,
		CartItems: []dto.CartItemRequest{
			{ProductID: p.ID.String(), Quantity: qty},
		},
	})
	require.NoError(t, err)
	return order
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestCreateOrderCashLifecycle(t *testing.T) {
	ctx := context.Background()
	latte := newProduct("Latte", 25000, intPtr(10))
	f := buildOrderSvc(t, false, latte)

	order := f.checkout(t, model.PaymentCash, 2, latte)

	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	assert.Equal(t, model.OrderWaiting, order.OrderStatus)
	assert.Equal(t, 7, order.TableNumber)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, 8, f.products.stock(latte.ID))

	// Cash orders do not reach the kitchen before the cashier confirms.
	assert.Empty(t, f.publisher.events)

	// Ledger row for the decrement.
	require.Len(t, f.movements.movements, 1)
	m := f.movements.movements[0]
	assert.Equal(t, "order", m.Kind)
	assert.Equal(t, -2, m.Quantity)
	assert.Equal(t, 10, m.StockBefore)
	assert.Equal(t, 8, m.StockAfter)
	require.NotNil(t, m.RefID)
	assert.Equal(t, order.ID, *m.RefID)

	// Cashier settles: paid + processing + exactly one newOrder event.
	settled, err := f.svc.ConfirmCashPayment(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, settled.PaymentStatus)
	assert.Equal(t, model.OrderProcessing, settled.OrderStatus)

	events := f.publisher.byType(realtime.EventNewOrder)
	require.Len(t, events, 1)
	assert.Equal(t, order.ID, events[0].OrderID)
	require.NotNil(t, events[0].Order)
	assert.Equal(t, "Budi", events[0].Order.CustomerName)

	// A second confirm (double-clicked button) loses the guard.
	_, err = f.svc.ConfirmCashPayment(ctx, order.ID)
	assert.ErrorIs(t, err, apperr.ErrAlreadyPaid)
	assert.Len(t, f.publisher.byType(realtime.EventNewOrder), 1)
}

func TestCreateOrderStoreClosed(t *testing.T) {
	latte := newProduct("Latte", 25000, intPtr(10))
	f := buildOrderSvc(t, false, latte)
	f.sessions.mu.Lock()
	for _, s := range f.sessions.sessions {
		s.Status = model.SessionClosed
	}
	f.sessions.mu.Unlock()

	_, err := f.svc.CreateOrder(context.Background(), dto.CreateOrderRequest{
		TableToken:    f.table.QRToken.String(),
		CustomerName:  "Budi",
		PaymentMethod: model.PaymentCash,
		CartItems:     []dto.CartItemRequest{{ProductID: latte.ID.String(), Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperr.ErrStoreClosed)
}

func TestCreateOrderUnknownTable(t *testing.T) {
	latte := newProduct("Latte", 25000, intPtr(10))
	f := buildOrderSvc(t, false, latte)

	_, err := f.svc.CreateOrder(context.Background(), dto.CreateOrderRequest{
		TableToken:    uuid.New().String(),
		CustomerName:  "Budi",
		PaymentMethod: model.PaymentCash,
		CartItems:     []dto.CartItemRequest{{ProductID: latte.ID.String(), Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperr.ErrTableNotFound)
}

func TestCreateOrderBlankCustomerName(t *testing.T) {
	latte := newProduct("Latte", 25000, intPtr(10))
	f := buildOrderSvc(t, false, latte)

	_, err := f.svc.CreateOrder(context.Background(), dto.CreateOrderRequest{
		TableToken:    f.table.QRToken.String(),
		CustomerName:  "   ",
		PaymentMethod: model.PaymentCash,
		CartItems:     []dto.CartItemRequest{{ProductID: latte.ID.String(), Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidCustomerName)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	latte := newProduct("Latte", 25000, intPtr(2))
	f := buildOrderSvc(t, false, latte)

	_, err := f.svc.CreateOrder(context.Background(), dto.CreateOrderRequest{
		TableToken:    f.table.QRToken.String(),
		CustomerName:  "Budi",
		PaymentMethod: model.PaymentCash,
		CartItems:     []dto.CartItemRequest{{ProductID: latte.ID.String(), Quantity: 3}},
	})

	var stockErr *apperr.StockInsufficientError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, latte.ID, stockErr.ProductID)
	assert.Equal(t, "Latte", stockErr.ProductName)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Remaining)
	assert.Equal(t, 2, f.products.stock(latte.ID))
}

func TestCreateOrderUntrackedProductSkipsStock(t *testing.T) {
	tea := newProduct("Iced Tea", 10000, nil)
	f := buildOrderSvc(t, false, tea)

	order := f.checkout(t, model.PaymentCash, 5, tea)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(50000)))
	assert.Empty(t, f.movements.movements)
}

// Two racing orders for the last unit: exactly one wins, stock never goes
// negative.
func TestConcurrentOrdersLastUnit(t *testing.T) {
	latte := newProduct("Latte", 25000, intPtr(1))
	f := buildOrderSvc(t, false, latte)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateOrder(context.Background(), dto.CreateOrderRequest{
				TableToken:    f.table.QRToken.String(),
				CustomerName:  "Budi",
				PaymentMethod: model.PaymentCash,
				CartItems:     []dto.CartItemRequest{{ProductID: latte.ID.String(), Quantity: 1}},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var won, lost int
	for err := range errs {
		if err == nil {
			won++
			continue
		}
		var stockErr *apperr.StockInsufficientError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, 0, stockErr.Remaining)
		lost++
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)
	assert.Equal(t, 0, f.products.stock(latte.ID))
}

func TestCreateOrderDigitalInvoice(t *testing.T) {
	latte := newProduct("Latte", 25000, intPtr(10))
	f := buildOrderSvc(t, false, latte)

	order := f.checkout(t, model.PaymentDigital, 1, latte)

	require.NotNil(t, order.CheckoutURL)
	assert.Contains(t, *order.CheckoutURL, order.ID.String())
	require.NotNil(t, order.ProviderInvoiceID)
	assert.Equal(t, 1, f.gateway.created)
	// Still pending until the webhook lands.
	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	assert.Empty(t, f.publisher.events)
}

func TestCreateOrderDigitalProviderDown(t *testing.T) {
	latte := newProduct("Latte", 25000, intPtr(10))
	f := buildOrderSvc(t, false, latte)
	f.gateway.createErr = errors.New("connection refused")

	_, err := f.svc.CreateOrder(context.Background(), dto.CreateOrderRequest{
		TableToken:    f.table.QRToken.String(),
		CustomerName:  "Budi",
		PaymentMethod: model.PaymentDigital,
		CartItems:     []dto.CartItemRequest{{ProductID: latte.ID.String(), Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperr.ErrPaymentProviderUnavailable)

	// The outage is retryable, not a payment verdict: the stored order stays
	// pending so a later invoice attempt or a manual settlement can still win.
	f.orders.mu.Lock()
	require.Len(t, f.orders.orders, 1)
	for _, o := range f.orders.orders {
		assert.Equal(t, model.PaymentPending, o.PaymentStatus)
		assert.Nil(t, o.ProviderInvoiceID)
	}
	f.orders.mu.Unlock()
}

func TestWebhookPaidIsIdempotent(t *testing.T) {
	ctx := context.Background()
	latte := newProduct("Latte", 25000, intPtr(10))
	f := buildOrderSvc(t, false, latte)
	order := f.checkout(t, model.PaymentDigital, 1, latte)

	hook := dto.PaymentWebhookRequest{ExternalID: order.ID.String(), Status: "PAID"}
	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, hook))
	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, hook)) // redelivery

	got, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, model.OrderProcessing, got.OrderStatus)
	assert.Len(t, f.publisher.byType(realtime.EventNewOrder), 1)

	// A late EXPIRED after settlement must not flip the terminal state.
	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, dto.PaymentWebhookRequest{
		ExternalID: order.ID.String(), Status: "EXPIRED",
	}))
	got, err = f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
}

func TestWebhookExpiredFailsPayment(t *testing.T) {
	ctx := context.Background()
	latte := newProduct("Latte", 25000, intPtr(10))
	f := buildOrderSvc(t, false, latte)
	order := f.checkout(t, model.PaymentDigital, 1, latte)

	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, dto.PaymentWebhookRequest{
		ExternalID: order.ID.String(), Status: "EXPIRED",
	}))
	got, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, got.PaymentStatus)
	assert.Equal(t, model.OrderWaiting, got.OrderStatus)
	assert.Empty(t, f.publisher.events)
}

func TestWebhookUnknownOrder(t *testing.T) {
	f := buildOrderSvc(t, false)
	err := f.svc.HandlePaymentWebhook(context.Background(), dto.PaymentWebhookRequest{
		ExternalID: uuid.New().String(), Status: "PAID",
	})
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)
}

func TestConfirmCashOnDigitalOrder(t *testing.T) {
	latte := newProduct("Latte", 25000, intPtr(10))
	f := buildOrderSvc(t, false, latte)
	order := f.checkout(t, model.PaymentDigital, 1, latte)

	_, err := f.svc.ConfirmCashPayment(context.Background(), order.ID)
	assert.ErrorIs(t, err, apperr.ErrWrongMethod)
}

func TestCompleteOrder(t *testing.T) {
	ctx := context.Background()
	latte := newProduct("Latte", 25000, intPtr(10))
	f := buildOrderSvc(t, false, latte)
	order := f.checkout(t, model.PaymentCash, 1, latte)

	// Not yet processing.
	err := f.svc.CompleteOrder(ctx, order.ID)
	assert.ErrorIs(t, err, apperr.ErrNotProcessing)

	_, err = f.svc.ConfirmCashPayment(ctx, order.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.CompleteOrder(ctx, order.ID))
	done := f.publisher.byType(realtime.EventOrderCompleted)
	require.Len(t, done, 1)
	assert.Equal(t, order.ID, done[0].OrderID)

	// Completing twice is a conflict, and no second event goes out.
	err = f.svc.CompleteOrder(ctx, order.ID)
	assert.ErrorIs(t, err, apperr.ErrNotProcessing)
	assert.Len(t, f.publisher.byType(realtime.EventOrderCompleted), 1)

	err = f.svc.CompleteOrder(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()
	latte := newProduct("Latte", 25000, intPtr(10))
	f := buildOrderSvc(t, false, latte)
	order := f.checkout(t, model.PaymentCash, 2, latte)

	require.NoError(t, f.svc.CancelOrder(ctx, order.ID))
	got, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, got.OrderStatus)

	// Default policy: the units stay consumed.
	assert.Equal(t, 8, f.products.stock(latte.ID))

	// A waiting order never reached the kitchen, so nothing is published.
	assert.Empty(t, f.publisher.events)

	err = f.svc.CancelOrder(ctx, order.ID)
	assert.ErrorIs(t, err, apperr.ErrNotCancellable)
}

// Cancelling an order the kitchen is already working must clear its card:
// the completed event goes out exactly as if the order had been finished.
func TestCancelProcessingOrderClearsKitchen(t *testing.T) {
	ctx := context.Background()
	latte := newProduct("Latte", 25000, intPtr(10))
	f := buildOrderSvc(t, false, latte)
	order := f.checkout(t, model.PaymentCash, 1, latte)

	_, err := f.svc.ConfirmCashPayment(ctx, order.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelOrder(ctx, order.ID))
	done := f.publisher.byType(realtime.EventOrderCompleted)
	require.Len(t, done, 1)
	assert.Equal(t, order.ID, done[0].OrderID)
}

func TestCancelCompletedOrder(t *testing.T) {
	ctx := context.Background()
	latte := newProduct("Latte", 25000, intPtr(10))
	f := buildOrderSvc(t, false, latte)
	order := f.checkout(t, model.PaymentCash, 1, latte)

	_, err := f.svc.ConfirmCashPayment(ctx, order.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.CompleteOrder(ctx, order.ID))

	err = f.svc.CancelOrder(ctx, order.ID)
	assert.ErrorIs(t, err, apperr.ErrNotCancellable)
}

func TestCancelOrderRestockPolicy(t *testing.T) {
	ctx := context.Background()
	latte := newProduct("Latte", 25000, intPtr(10))
	f := buildOrderSvc(t, true, latte)
	order := f.checkout(t, model.PaymentCash, 3, latte)
	assert.Equal(t, 7, f.products.stock(latte.ID))

	require.NoError(t, f.svc.CancelOrder(ctx, order.ID))
	assert.Equal(t, 10, f.products.stock(latte.ID))

	var restock *model.StockMovement
	for i := range f.movements.movements {
		if f.movements.movements[i].Kind == "restock_cancel" {
			restock = &f.movements.movements[i]
		}
	}
	require.NotNil(t, restock)
	assert.Equal(t, 3, restock.Quantity)
	assert.Equal(t, 7, restock.StockBefore)
	assert.Equal(t, 10, restock.StockAfter)
}

func TestRecheckPendingPayment(t *testing.T) {
	ctx := context.Background()
	latte := newProduct("Latte", 25000, intPtr(10))
	f := buildOrderSvc(t, false, latte)

	paid := f.checkout(t, model.PaymentDigital, 1, latte)
	f.gateway.status = "PAID"
	require.NoError(t, f.svc.RecheckPendingPayment(ctx, paid.ID))
	got, err := f.svc.GetOrder(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
	assert.Len(t, f.publisher.byType(realtime.EventNewOrder), 1)

	expired := f.checkout(t, model.PaymentDigital, 1, latte)
	f.gateway.status = "EXPIRED"
	require.NoError(t, f.svc.RecheckPendingPayment(ctx, expired.ID))
	got, err = f.svc.GetOrder(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, got.PaymentStatus)

	// Settled orders are skipped without a provider call.
	require.NoError(t, f.svc.RecheckPendingPayment(ctx, paid.ID))
	assert.Len(t, f.publisher.byType(realtime.EventNewOrder), 1)
}

// A publisher outage must never fail the settlement itself.
func TestDispatchFailureDoesNotFailSettlement(t *testing.T) {
	ctx := context.Background()
	latte := newProduct("Latte", 25000, intPtr(10))
	f := buildOrderSvc(t, false, latte)
	order := f.checkout(t, model.PaymentCash, 1, latte)

	f.publisher.err = errors.New("redis down")
	settled, err := f.svc.ConfirmCashPayment(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, settled.PaymentStatus)
}
