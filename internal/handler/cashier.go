package handler

import (
	"net/http"

	"kasirless/internal/apierror"
	"kasirless/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CashierHandler struct{ orders service.OrderService }

func NewCashierHandler(orders service.OrderService) *CashierHandler {
	return &CashierHandler{orders: orders}
}

// PendingCash godoc
// @Summary List unpaid cash orders, oldest first
// @Tags cashier
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.OrderResponse
// @Router /api/cashier/pending-cash [get]
func (h *CashierHandler) PendingCash(c *gin.Context) {
	orders, err := h.orders.ListPendingCash(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponses(orders))
}

// Get godoc
// @Summary Get one order for the cashier panel
// @Tags cashier
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} apierror.APIError
// @Router /api/cashier/{id} [get]
func (h *CashierHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid order id"))
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// MarkPaid godoc
// @Summary Confirm a cash payment
// @Tags cashier
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} dto.OrderResponse
// @Failure 409 {object} apierror.APIError
// @Router /api/cashier/{id}/mark-paid [post]
func (h *CashierHandler) MarkPaid(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid order id"))
		return
	}
	order, err := h.orders.ConfirmCashPayment(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// Cancel godoc
// @Summary Cancel an order that has not been completed
// @Tags cashier
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} map[string]string
// @Failure 409 {object} apierror.APIError
// @Router /api/cashier/{id}/cancel [post]
func (h *CashierHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid order id"))
		return
	}
	if err := h.orders.CancelOrder(c.Request.Context(), id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}
