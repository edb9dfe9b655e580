package handler

import (
	"net/http"

	"rifapos/internal/dto"
	"rifapos/internal/service"

	"github.com/gin-gonic/gin"
)

type SalesHandler struct {
	sales    service.SaleService
	receipts service.ReceiptService
}

func NewSalesHandler(sales service.SaleService, receipts service.ReceiptService) *SalesHandler {
	return &SalesHandler{sales: sales, receipts: receipts}
}

// Checkout godoc
// @Summary      Register a sale
// @Description  Prices the cart server-side, locks and decrements stock and persists the sale in one transaction. Receipt token, raffle tickets and cache invalidation run after commit.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CheckoutRequest true "Cart"
// @Success      201  {object} dto.CheckoutResponse
// @Failure      400  {object} apierror.APIError
// @Failure      403  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /sales [post]
func (h *SalesHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.sales.Checkout(c.Request.Context(), caller(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetSale godoc
// @Summary      Get a sale
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string true "Sale UUID"
// @Success      200  {object} dto.SaleResponse
// @Failure      403  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /sales/{id} [get]
func (h *SalesHandler) GetSale(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.sales.GetSale(c.Request.Context(), caller(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegenerateReceipt godoc
// @Summary      Issue a new receipt link for a sale
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string true "Sale UUID"
// @Success      201  {object} dto.ReceiptTokenResponse
// @Failure      403  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /sales/{id}/receipt-token [post]
func (h *SalesHandler) RegenerateReceipt(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.receipts.Regenerate(c.Request.Context(), caller(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
