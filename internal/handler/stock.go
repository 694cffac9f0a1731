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

type StockHandler struct{ stock service.StockService }

func NewStockHandler(stock service.StockService) *StockHandler {
	return &StockHandler{stock: stock}
}

// Status godoc
// @Summary Is the shop taking orders right now
// @Tags stock
// @Produce json
// @Success 200 {object} dto.SessionStatusResponse
// @Router /api/stock/status [get]
func (h *StockHandler) Status(c *gin.Context) {
	status, err := h.stock.Status(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// OpenSession godoc
// @Summary Open the daily stock session
// @Tags stock
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenSessionRequest true "Opening stock values"
// @Success 201 {object} dto.SessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /api/stock/open-session [post]
func (h *StockHandler) OpenSession(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	session, err := h.stock.OpenSession(c.Request.Context(), req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionResponse(session, nil))
}

// CloseSession godoc
// @Summary Close the open stock session
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /api/stock/close-session [post]
func (h *StockHandler) CloseSession(c *gin.Context) {
	session, err := h.stock.CloseSession(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session, nil))
}

// DailySession godoc
// @Summary Daily session report with stock snapshots
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param date query string false "Calendar date (YYYY-MM-DD), default today"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} apierror.APIError
// @Router /api/stock/daily-session [get]
func (h *StockHandler) DailySession(c *gin.Context) {
	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid date, expected YYYY-MM-DD"))
			return
		}
		date = parsed
	}
	session, snaps, err := h.stock.DailySession(c.Request.Context(), date)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session, snaps))
}

// Adjust godoc
// @Summary Set a product's current stock (spillage, miscount)
// @Tags stock
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param body body dto.AdjustStockRequest true "Absolute stock value"
// @Success 200 {object} dto.ProductResponse
// @Router /api/stock/products/{id} [patch]
func (h *StockHandler) Adjust(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid product id"))
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	product, err := h.stock.AdjustStock(c.Request.Context(), id, req.CurrentStock, "manual adjustment")
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

// Tracked godoc
// @Summary List stock-tracked products with current counts
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ProductResponse
// @Router /api/stock/products [get]
func (h *StockHandler) Tracked(c *gin.Context) {
	products, err := h.stock.ListTracked(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Movements godoc
// @Summary Recent stock ledger rows for a product
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {array} model.StockMovement
// @Router /api/stock/products/{id}/movements [get]
func (h *StockHandler) Movements(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid product id"))
		return
	}
	movements, err := h.stock.Movements(c.Request.Context(), id, 50)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}

func toSessionResponse(s *model.StockSession, snaps []model.StockSnapshot) dto.SessionResponse {
	resp := dto.SessionResponse{
		SessionID:   s.ID.String(),
		SessionDate: s.SessionDate.Format("2006-01-02"),
		Status:      s.Status,
		OpenedAt:    s.OpenedAt.Format(time.RFC3339),
	}
	if s.ClosedAt != nil {
		closed := s.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &closed
	}
	for _, snap := range snaps {
		sr := dto.StockSnapshotResponse{
			ProductID:    snap.ProductID.String(),
			InitialStock: snap.InitialStock,
			FinalStock:   snap.FinalStock,
		}
		if snap.Product != nil {
			sr.ProductName = snap.Product.Name
		}
		resp.Snapshots = append(resp.Snapshots, sr)
	}
	return resp
}
