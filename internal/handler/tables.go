package handler

import (
	"net/http"

	"kasirless/internal/apierror"
	"kasirless/internal/dto"
	"kasirless/internal/model"
	"kasirless/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TableHandler struct{ tables service.TableService }

func NewTableHandler(tables service.TableService) *TableHandler {
	return &TableHandler{tables: tables}
}

// Resolve godoc
// @Summary Resolve a scanned QR token to its table
// @Tags tables
// @Produce json
// @Param uuid path string true "QR token"
// @Success 200 {object} dto.TableResponse
// @Failure 404 {object} apierror.APIError
// @Router /api/tables/uuid/{uuid} [get]
func (h *TableHandler) Resolve(c *gin.Context) {
	token, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid table token"))
		return
	}
	table, err := h.tables.ResolveToken(c.Request.Context(), token)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTableResponse(table))
}

// Create godoc
// @Summary Register a dining table
// @Tags tables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateTableRequest true "Table number"
// @Success 201 {object} dto.TableResponse
// @Router /api/tables [post]
func (h *TableHandler) Create(c *gin.Context) {
	var req dto.CreateTableRequest
	if !bindAndValidate(c, &req) {
		return
	}
	table, err := h.tables.CreateTable(c.Request.Context(), req.TableNumber)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTableResponse(table))
}

// List godoc
// @Summary List dining tables
// @Tags tables
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.TableResponse
// @Router /api/tables [get]
func (h *TableHandler) List(c *gin.Context) {
	tables, err := h.tables.ListTables(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]dto.TableResponse, 0, len(tables))
	for i := range tables {
		out = append(out, toTableResponse(&tables[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Delete godoc
// @Summary Remove a dining table
// @Tags tables
// @Security BearerAuth
// @Param id path string true "Table ID"
// @Success 204
// @Router /api/tables/{id} [delete]
func (h *TableHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid table id"))
		return
	}
	if err := h.tables.DeleteTable(c.Request.Context(), id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Regenerate godoc
// @Summary Rotate a table's QR token, invalidating printed codes
// @Tags tables
// @Produce json
// @Security BearerAuth
// @Param id path string true "Table ID"
// @Success 200 {object} dto.TableResponse
// @Router /api/tables/{id}/regenerate [post]
func (h *TableHandler) Regenerate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid table id"))
		return
	}
	table, err := h.tables.RegenerateToken(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTableResponse(table))
}

func toTableResponse(t *model.DiningTable) dto.TableResponse {
	return dto.TableResponse{
		ID:          t.ID.String(),
		TableNumber: t.TableNumber,
		QRToken:     t.QRToken.String(),
	}
}
