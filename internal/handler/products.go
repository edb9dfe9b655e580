package handler

import (
	"net/http"

	"rifapos/internal/dto"
	"rifapos/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductsHandler struct{ svc service.ProductService }

func NewProductsHandler(svc service.ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

// List godoc
// @Summary      List products of the business
// @Description  Served through a short-lived cache invalidated on every sale and product change.
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.ProductResponse
// @Router       /products [get]
func (h *ProductsHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), caller(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary      Create a product
// @Description  With variants, product stock is the sum of the variants' stock.
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.CreateProductRequest true "Product"
// @Success      201  {object} dto.ProductResponse
// @Failure      400  {object} apierror.APIError
// @Router       /products [post]
func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), caller(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Delete godoc
// @Summary      Soft-delete a product
// @Tags         products
// @Security     BearerAuth
// @Param        id path string true "Product UUID"
// @Success      204
// @Failure      403 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Router       /products/{id} [delete]
func (h *ProductsHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), caller(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetVariantStock godoc
// @Summary      Set a variant's stock
// @Description  Recomputes the product's aggregate stock in the same transaction.
// @Tags         products
// @Accept       json
// @Security     BearerAuth
// @Param        id        path string                     true "Product UUID"
// @Param        variantId path string                     true "Variant UUID"
// @Param        body      body dto.SetVariantStockRequest true "New stock"
// @Success      204
// @Failure      400 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Router       /products/{id}/variants/{variantId}/stock [put]
func (h *ProductsHandler) SetVariantStock(c *gin.Context) {
	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	variantID, ok := uuidParam(c, "variantId")
	if !ok {
		return
	}
	var req dto.SetVariantStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.SetVariantStock(c.Request.Context(), caller(c), productID, variantID, *req.Stock); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMovements godoc
// @Summary      Stock movements of a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string true  "Product UUID"
// @Param        page  query int    false "Page (default 1)"
// @Param        limit query int    false "Page size (default 100)"
// @Success      200 {object} dto.StockMovementListResponse
// @Router       /products/{id}/stock-movements [get]
func (h *ProductsHandler) ListMovements(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var filter dto.StockMovementFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), caller(c), id, filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
