// Package apperr defines the domain error taxonomy of the order and stock
// session engine. Every failure crossing the service boundary is one of these
// values (or wraps one), so handlers can map them to HTTP statuses and clients
// receive a stable machine-readable code naming the conflicting entity.
package apperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Validation failures — rejected synchronously, never partially applied.
var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidCustomerName = errors.New("customer name is required")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
)

// State-conflict failures.
var (
	ErrStoreClosed        = errors.New("store is not accepting orders")
	ErrSessionAlreadyOpen = errors.New("a stock session is already open")
	ErrNoOpenSession      = errors.New("no stock session is open")
	ErrOrderNotFound      = errors.New("order not found")
	ErrAlreadyPaid        = errors.New("order is already paid")
	ErrWrongMethod        = errors.New("order is not a cash order")
	ErrNotProcessing      = errors.New("order is not in processing status")
	ErrNotCancellable     = errors.New("order can no longer be cancelled")
	ErrTableNotFound      = errors.New("table not found")
	ErrProductUnavailable = errors.New("product is not available")
)

// External dependency failures — retryable by the caller.
var ErrPaymentProviderUnavailable = errors.New("payment provider is unavailable")

// StockInsufficientError names the offending product and what is left.
type StockInsufficientError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Remaining   int
}

func (e *StockInsufficientError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, %d remaining", e.ProductName, e.Requested, e.Remaining)
}

// MissingAddonSelectionError names the mandatory option that was not chosen.
type MissingAddonSelectionError struct {
	ProductName string
	OptionName  string
}

func (e *MissingAddonSelectionError) Error() string {
	return fmt.Sprintf("product %s requires a selection for option %q", e.ProductName, e.OptionName)
}

// Code returns the stable machine-readable code for err, or "internal_error"
// when the error is not part of the taxonomy.
func Code(err error) string {
	var stockErr *StockInsufficientError
	var addonErr *MissingAddonSelectionError
	switch {
	case errors.As(err, &stockErr):
		return "stock_insufficient"
	case errors.As(err, &addonErr):
		return "missing_addon_selection"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrInvalidCustomerName):
		return "invalid_customer_name"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrStoreClosed):
		return "store_closed"
	case errors.Is(err, ErrSessionAlreadyOpen):
		return "session_already_open"
	case errors.Is(err, ErrNoOpenSession):
		return "no_open_session"
	case errors.Is(err, ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, ErrAlreadyPaid):
		return "already_paid"
	case errors.Is(err, ErrWrongMethod):
		return "wrong_payment_method"
	case errors.Is(err, ErrNotProcessing):
		return "order_not_processing"
	case errors.Is(err, ErrNotCancellable):
		return "order_not_cancellable"
	case errors.Is(err, ErrTableNotFound):
		return "table_not_found"
	case errors.Is(err, ErrProductUnavailable):
		return "product_unavailable"
	case errors.Is(err, ErrPaymentProviderUnavailable):
		return "payment_provider_unavailable"
	default:
		return "internal_error"
	}
}

// IsConflict reports whether err belongs to the state-conflict category
// (HTTP 409 territory as opposed to plain 400 validation).
func IsConflict(err error) bool {
	var stockErr *StockInsufficientError
	return errors.As(err, &stockErr) ||
		errors.Is(err, ErrStoreClosed) ||
		errors.Is(err, ErrSessionAlreadyOpen) ||
		errors.Is(err, ErrNoOpenSession) ||
		errors.Is(err, ErrAlreadyPaid) ||
		errors.Is(err, ErrWrongMethod) ||
		errors.Is(err, ErrNotProcessing) ||
		errors.Is(err, ErrNotCancellable)
}
