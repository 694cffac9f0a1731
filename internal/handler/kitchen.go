package handler

import (
	"net/http"

	"kasirless/internal/apierror"
	"kasirless/internal/realtime"
	"kasirless/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type KitchenHandler struct {
	orders service.OrderService
	hub    *realtime.Hub
}

func NewKitchenHandler(orders service.OrderService, hub *realtime.Hub) *KitchenHandler {
	return &KitchenHandler{orders: orders, hub: hub}
}

// Processing godoc
// @Summary List orders in processing (board resync after reconnect)
// @Tags kitchen
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.OrderResponse
// @Router /api/kitchen/processing [get]
func (h *KitchenHandler) Processing(c *gin.Context) {
	orders, err := h.orders.ListProcessing(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponses(orders))
}

// Complete godoc
// @Summary Mark a processing order as completed
// @Tags kitchen
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} map[string]string
// @Failure 409 {object} apierror.APIError
// @Router /api/kitchen/{id}/complete [post]
func (h *KitchenHandler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid order id"))
		return
	}
	if err := h.orders.CompleteOrder(c.Request.Context(), id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

// Stream upgrades to the websocket feed of kitchen events.
func (h *KitchenHandler) Stream(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}
