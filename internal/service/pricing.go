package service

import (
	"rifapos/internal/apierror"

	"github.com/shopspring/decimal"
)

// PriceTolerance is the largest accepted gap between the client-submitted
// total and the server-computed one.
var PriceTolerance = decimal.New(1, -2)

// QuotedLine is a reserved cart line priced at the product's stored selling price.
type QuotedLine struct {
	ReservedLine
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// Quote is the authoritative pricing of a cart.
type Quote struct {
	Lines []QuotedLine
	Total decimal.Decimal
}

// QuoteCart prices every line from the persisted product price. Client
// supplied prices never enter the computation.
func QuoteCart(lines []ReservedLine) Quote {
	q := Quote{Lines: make([]QuotedLine, 0, len(lines)), Total: decimal.Zero}
	for _, l := range lines {
		unit := l.Product.SellingPrice.Round(2)
		sub := unit.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
		q.Lines = append(q.Lines, QuotedLine{ReservedLine: l, UnitPrice: unit, Subtotal: sub})
		q.Total = q.Total.Add(sub)
	}
	q.Total = q.Total.Round(2)
	return q
}

// ValidateTotal rejects a submitted total that differs from calculated by
// more than PriceTolerance.
func ValidateTotal(submitted, calculated decimal.Decimal) error {
	if submitted.Sub(calculated).Abs().GreaterThan(PriceTolerance) {
		return &apierror.PriceMismatchError{Submitted: submitted, Calculated: calculated}
	}
	return nil
}
