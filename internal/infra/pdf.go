package infra

// pdf.go renders public receipts with go-pdf/fpdf on a 74mm-wide page
// (thermal receipt paper). Labels and amounts are localized through an
// x/text message catalog keyed by the English strings below.

import (
	"fmt"
	"io"

	"rifapos/internal/model"
	"rifapos/internal/service"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	for key, es := range map[string]string{
		"Receipt":                      "Comprobante de compra",
		"Customer: %s":                 "Cliente: %s",
		"Seller: %s":                   "Vendedor: %s",
		"Product":                      "Producto",
		"Qty":                          "Cant",
		"Subtotal":                     "Subtotal",
		"TOTAL:":                       "TOTAL:",
		"Payment (%s):":                "Pago (%s):",
		"Thank you for your purchase!": "¡Gracias por su compra!",
		"Walk-in customer":             "Consumidor final",
	} {
		_ = message.SetString(language.Spanish, key, es)
	}
}

// ReceiptPDF renders receipts in one locale.
type ReceiptPDF struct {
	p *message.Printer
}

// NewReceiptPDF builds a renderer for a BCP 47 locale ("es", "en-US", ...).
// Unknown locales fall back to English.
func NewReceiptPDF(locale string) *ReceiptPDF {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &ReceiptPDF{p: message.NewPrinter(tag)}
}

// Amount formats a monetary value with the locale's separators.
func (r *ReceiptPDF) Amount(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return r.p.Sprintf("$%.2f", f)
}

// Render writes doc as a single-page PDF to w.
func (r *ReceiptPDF) Render(w io.Writer, doc *service.ReceiptDocument) error {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 140 + 5*float64(len(doc.Sale.Details))},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, tr(doc.Business.Name), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, tr(r.p.Sprintf("Receipt")), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// ── Sale info ─────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, doc.Sale.ID.String(), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, doc.Sale.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, tr(r.p.Sprintf("Customer: %s", r.p.Sprintf(doc.Snapshot.ClientName))), "", 1, "L", false, 0, "")
	if doc.Sale.Seller != nil && doc.Sale.Seller.DisplayName != "" {
		pdf.CellFormat(contentW, 4, tr(r.p.Sprintf("Seller: %s", doc.Sale.Seller.DisplayName)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Items ─────────────────────────────────────────────────────────────────
	col1 := contentW * 0.52
	col2 := contentW * 0.16
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, tr(r.p.Sprintf("Product")), "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, tr(r.p.Sprintf("Qty")), "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, tr(r.p.Sprintf("Subtotal")), "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, d := range doc.Sale.Details {
		pdf.CellFormat(col1, 5, tr(truncate(lineName(d.Product, d.Variant), 22)), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", d.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, r.Amount(d.Subtotal), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, tr(r.p.Sprintf("TOTAL:")), "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, r.Amount(doc.Snapshot.Total), "", 1, "R", false, 0, "")

	if pay := doc.Sale.Payment; pay != nil {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "", 7)
		pdf.CellFormat(col1+col2, 4, tr(r.p.Sprintf("Payment (%s):", pay.Method)), "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, r.Amount(pay.Amount), "", 1, "R", false, 0, "")
	}

	// ── Footer ────────────────────────────────────────────────────────────────
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr(r.p.Sprintf("Thank you for your purchase!")), "", 1, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: render receipt: %w", err)
	}
	return nil
}

func lineName(p *model.Product, v *model.ProductVariant) string {
	if p == nil {
		return ""
	}
	if v == nil {
		return p.Name
	}
	label := v.Color
	if v.Size != "" {
		if label != "" {
			label += " "
		}
		label += v.Size
	}
	if label == "" {
		return p.Name
	}
	return p.Name + " (" + label + ")"
}

// truncate shortens s to n runes, marking the cut with a period.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "."
}
