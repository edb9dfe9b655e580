package handler

import (
	"bytes"
	"io"
	"net/http"

	"rifapos/internal/dto"
	"rifapos/internal/service"

	"github.com/gin-gonic/gin"
)

// ReceiptRenderer turns a resolved receipt into a printable document.
type ReceiptRenderer interface {
	Render(w io.Writer, doc *service.ReceiptDocument) error
}

type ReceiptsHandler struct {
	svc      service.ReceiptService
	renderer ReceiptRenderer
}

func NewReceiptsHandler(svc service.ReceiptService, renderer ReceiptRenderer) *ReceiptsHandler {
	return &ReceiptsHandler{svc: svc, renderer: renderer}
}

// View godoc
// @Summary      Public receipt data
// @Description  Unauthenticated. Every successful call counts one view.
// @Tags         receipts
// @Produce      json
// @Param        token path     string true "Receipt token"
// @Success      200   {object} dto.ReceiptViewResponse
// @Failure      404   {object} apierror.APIError
// @Failure      410   {object} apierror.APIError
// @Router       /sales/receipt-data/{token} [get]
func (h *ReceiptsHandler) View(c *gin.Context) {
	token, ok := uuidParam(c, "token")
	if !ok {
		return
	}
	doc, err := h.svc.View(c.Request.Context(), token)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, doc.Response())
}

// PDF godoc
// @Summary      Public receipt as PDF
// @Description  Unauthenticated. Counts as a view.
// @Tags         receipts
// @Produce      application/pdf
// @Param        token path string true "Receipt token"
// @Success      200
// @Failure      404   {object} apierror.APIError
// @Failure      410   {object} apierror.APIError
// @Router       /sales/receipt-data/{token}/pdf [get]
func (h *ReceiptsHandler) PDF(c *gin.Context) {
	token, ok := uuidParam(c, "token")
	if !ok {
		return
	}
	doc, err := h.svc.View(c.Request.Context(), token)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, doc); err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="receipt-`+doc.Sale.ID.String()+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// MostViewed godoc
// @Summary      Most viewed receipts of the business
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        limit query    int false "Max results (default 10)"
// @Success      200   {array}  dto.MostViewedReceipt
// @Router       /receipts/most-viewed [get]
func (h *ReceiptsHandler) MostViewed(c *gin.Context) {
	var filter dto.MostViewedFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.MostViewed(c.Request.Context(), caller(c), filter.Limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
