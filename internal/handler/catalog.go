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

type CatalogHandler struct{ catalog service.CatalogService }

func NewCatalogHandler(catalog service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListProducts godoc
// @Summary List menu products
// @Tags catalog
// @Produce json
// @Param category_id query string false "Filter by category"
// @Param available query string false "false = hidden only, all = everything"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.ProductListResponse
// @Router /api/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var filter dto.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query: "+err.Error()))
		return
	}
	products, total, err := h.catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	resp := dto.ProductListResponse{
		Products:   make([]dto.ProductResponse, 0, len(products)),
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}
	for i := range products {
		resp.Products = append(resp.Products, toProductResponse(&products[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetProduct godoc
// @Summary Get one product
// @Tags catalog
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} apierror.APIError
// @Router /api/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid product id"))
		return
	}
	p, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(p))
}

// ListCategories godoc
// @Summary List menu categories
// @Tags catalog
// @Produce json
// @Success 200 {array} dto.CategoryResponse
// @Router /api/categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]dto.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		out = append(out, dto.CategoryResponse{ID: cat.ID.String(), Name: cat.Name})
	}
	c.JSON(http.StatusOK, out)
}

// ProductAddons godoc
// @Summary List the add-on options attached to a product
// @Tags catalog
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {array} dto.ProductAddonResponse
// @Router /api/addons/product/{id} [get]
func (h *CatalogHandler) ProductAddons(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid product id"))
		return
	}
	addons, err := h.catalog.ListAddonsForProduct(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]dto.ProductAddonResponse, 0, len(addons))
	for _, a := range addons {
		ar := dto.ProductAddonResponse{
			AddonOptionID: a.AddonOptionID.String(),
			Required:      a.Required,
		}
		if a.Option != nil {
			ar.AddonOptionName = a.Option.Name
		}
		out = append(out, ar)
	}
	c.JSON(http.StatusOK, out)
}

// AddonValues godoc
// @Summary List the selectable values of an add-on option
// @Tags catalog
// @Produce json
// @Param id path string true "Addon option ID"
// @Success 200 {array} dto.AddonValueResponse
// @Router /api/addons/values/{id} [get]
func (h *CatalogHandler) AddonValues(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid option id"))
		return
	}
	values, err := h.catalog.ListAddonValues(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]dto.AddonValueResponse, 0, len(values))
	for _, v := range values {
		out = append(out, dto.AddonValueResponse{
			ID:          v.ID.String(),
			Value:       v.Value,
			PriceImpact: v.PriceImpact,
		})
	}
	c.JSON(http.StatusOK, out)
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	resp := dto.ProductResponse{
		ID:           p.ID.String(),
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		ImageURL:     p.ImageURL,
		IsAvailable:  p.IsAvailable,
		CurrentStock: p.CurrentStock,
	}
	if p.CategoryID != nil {
		id := p.CategoryID.String()
		resp.CategoryID = &id
	}
	return resp
}
