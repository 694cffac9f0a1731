package handler

import (
	"net/http"
	"time"

	"kasirless/internal/apierror"
	"kasirless/internal/dto"
	"kasirless/internal/model"
	"kasirless/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderHandler struct {
	orders        service.OrderService
	callbackToken string
}

func NewOrderHandler(orders service.OrderService, callbackToken string) *OrderHandler {
	return &OrderHandler{orders: orders, callbackToken: callbackToken}
}

// Create godoc
// @Summary Place a customer order
// @Tags orders
// @Accept json
// @Produce json
// @Param body body dto.CreateOrderRequest true "Cart and table token"
// @Success 201 {object} dto.CreateOrderResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /api/orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), req)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	resp := dto.CreateOrderResponse{
		OrderID:     order.ID.String(),
		Message:     "order received",
		CheckoutURL: order.CheckoutURL,
	}
	if order.PaymentMethod == model.PaymentCash {
		resp.Message = "order received, please pay at the cashier"
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary Get one order (customer status page)
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} apierror.APIError
// @Router /api/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
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

// Webhook godoc
// @Summary Payment provider invoice callback
// @Tags payments
// @Accept json
// @Produce json
// @Param body body dto.PaymentWebhookRequest true "Invoice callback"
// @Success 200 {object} map[string]string
// @Failure 401 {object} apierror.APIError
// @Router /api/payments/webhook [post]
func (h *OrderHandler) Webhook(c *gin.Context) {
	// Xendit signs callbacks with a shared verification token.
	if h.callbackToken != "" && c.GetHeader("X-Callback-Token") != h.callbackToken {
		c.JSON(http.StatusUnauthorized, apierror.New("invalid callback token"))
		return
	}

	var req dto.PaymentWebhookRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.orders.HandlePaymentWebhook(c.Request.Context(), req); err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func toOrderResponse(o *model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		OrderID:       o.ID.String(),
		TableNumber:   o.TableNumber,
		CustomerName:  o.CustomerName,
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		OrderStatus:   o.OrderStatus,
		CheckoutURL:   o.CheckoutURL,
		CreatedAt:     o.CreatedAt.Format(time.RFC3339),
	}
	for _, item := range o.Items {
		ir := dto.OrderItemResponse{
			ProductName: item.ProductName,
			BasePrice:   item.BasePrice,
			Quantity:    item.Quantity,
			Note:        item.Note,
			Subtotal:    item.Subtotal,
		}
		for _, a := range item.Addons {
			ir.Addons = append(ir.Addons, dto.OrderItemAddonResponse{
				OptionName:  a.OptionName,
				ValueName:   a.ValueName,
				PriceImpact: a.PriceImpact,
			})
		}
		resp.Items = append(resp.Items, ir)
	}
	return resp
}

func toOrderResponses(orders []model.Order) []dto.OrderResponse {
	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	return out
}
