package service

import (
	"fmt"

	"rifapos/internal/apierror"
	"rifapos/internal/model"
	"rifapos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartLine is one requested line of a checkout.
type CartLine struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// ReservedLine is a cart line whose rows are locked and whose availability
// has been verified inside the current transaction.
type ReservedLine struct {
	CartLine
	Product *model.Product
	Variant *model.ProductVariant
}

// InventoryLedger owns product and variant stock. Every method runs inside a
// caller-supplied transaction; row locks are held until it ends.
type InventoryLedger interface {
	// ReserveTx locks each line's product (and variant) in submission order
	// and verifies availability, counting quantities already reserved by
	// earlier lines of the same cart. It writes nothing.
	ReserveTx(tx *gorm.DB, businessID uuid.UUID, lines []CartLine) ([]ReservedLine, error)
	// DecrementTx applies reserved lines and records one stock movement per line.
	DecrementTx(tx *gorm.DB, businessID uuid.UUID, lines []ReservedLine, saleID uuid.UUID) error
	// SetVariantStockTx overwrites a variant's stock and recomputes the
	// product aggregate under the product row lock.
	SetVariantStockTx(tx *gorm.DB, businessID, productID, variantID uuid.UUID, stock int) error
}

type inventoryLedger struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
}

func NewInventoryLedger(products repository.ProductRepository, movements repository.StockMovementRepository) InventoryLedger {
	return &inventoryLedger{products: products, movements: movements}
}

// ── ReserveTx ────────────────────────────────────────────────────────────────

func (l *inventoryLedger) ReserveTx(tx *gorm.DB, businessID uuid.UUID, lines []CartLine) ([]ReservedLine, error) {
	products := make(map[uuid.UUID]*model.Product)
	variantCounts := make(map[uuid.UUID]int64)
	variants := make(map[uuid.UUID]*model.ProductVariant)
	reservedProduct := make(map[uuid.UUID]int)
	reservedVariant := make(map[uuid.UUID]int)

	out := make([]ReservedLine, 0, len(lines))
	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, apierror.NewValidation(fmt.Sprintf("items[%d].quantity", i), "quantity must be greater than zero")
		}

		p, ok := products[line.ProductID]
		if !ok {
			var err error
			p, err = l.products.LockByIDTx(tx, line.ProductID)
			if err != nil {
				return nil, err
			}
			if p.BusinessID != businessID {
				return nil, apierror.NewAccessDenied(fmt.Sprintf("product %s belongs to another business", p.ID))
			}
			if !p.IsActive() {
				return nil, apierror.NewValidation(fmt.Sprintf("items[%d].productId", i),
					fmt.Sprintf("product %s is not active", p.Name))
			}
			n, err := l.products.CountVariantsTx(tx, p.ID)
			if err != nil {
				return nil, err
			}
			products[p.ID] = p
			variantCounts[p.ID] = n
		}

		reserved := ReservedLine{CartLine: line, Product: p}
		if line.VariantID != nil {
			v, ok := variants[*line.VariantID]
			if !ok {
				var err error
				v, err = l.products.LockVariantTx(tx, p.ID, *line.VariantID)
				if err != nil {
					return nil, err
				}
				variants[v.ID] = v
			}
			available := v.Stock - reservedVariant[v.ID]
			if available < line.Quantity {
				return nil, &apierror.InsufficientStockError{
					ProductID: p.ID, VariantID: &v.ID, Requested: line.Quantity, Available: available,
				}
			}
			reservedVariant[v.ID] += line.Quantity
			reserved.Variant = v
		} else {
			if variantCounts[p.ID] > 0 {
				return nil, apierror.NewValidation(fmt.Sprintf("items[%d].variantId", i),
					fmt.Sprintf("product %s has variants, a variantId is required", p.Name))
			}
			available := p.Stock - reservedProduct[p.ID]
			if available < line.Quantity {
				return nil, &apierror.InsufficientStockError{
					ProductID: p.ID, Requested: line.Quantity, Available: available,
				}
			}
		}
		reservedProduct[p.ID] += line.Quantity
		out = append(out, reserved)
	}
	return out, nil
}

// ── DecrementTx ──────────────────────────────────────────────────────────────

func (l *inventoryLedger) DecrementTx(tx *gorm.DB, businessID uuid.UUID, lines []ReservedLine, saleID uuid.UUID) error {
	current := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if _, ok := current[line.ProductID]; !ok {
			current[line.ProductID] = line.Product.Stock
		}
	}

	for _, line := range lines {
		before := current[line.ProductID]
		after := before - line.Quantity

		if line.Variant != nil {
			ok, err := l.products.DecrementVariantStockTx(tx, line.Variant.ID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &apierror.InsufficientStockError{
					ProductID: line.ProductID, VariantID: &line.Variant.ID, Requested: line.Quantity,
				}
			}
			if after, err = l.products.SyncStockFromVariantsTx(tx, line.ProductID); err != nil {
				return err
			}
		} else {
			ok, err := l.products.DecrementStockTx(tx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &apierror.InsufficientStockError{
					ProductID: line.ProductID, Requested: line.Quantity, Available: before,
				}
			}
		}
		current[line.ProductID] = after

		ref := saleID
		mov := &model.StockMovement{
			BusinessID:  businessID,
			ProductID:   line.ProductID,
			VariantID:   line.VariantID,
			Type:        model.StockMovementSale,
			Quantity:    -line.Quantity,
			StockBefore: before,
			StockAfter:  after,
			Reason:      "sale " + saleID.String(),
			ReferenceID: &ref,
		}
		if err := l.movements.CreateTx(tx, mov); err != nil {
			return err
		}
	}
	return nil
}

// ── SetVariantStockTx ────────────────────────────────────────────────────────

func (l *inventoryLedger) SetVariantStockTx(tx *gorm.DB, businessID, productID, variantID uuid.UUID, stock int) error {
	if stock < 0 {
		return apierror.NewValidation("stock", "stock cannot be negative")
	}
	p, err := l.products.LockByIDTx(tx, productID)
	if err != nil {
		return err
	}
	if p.BusinessID != businessID {
		return apierror.NewAccessDenied(fmt.Sprintf("product %s belongs to another business", p.ID))
	}
	v, err := l.products.LockVariantTx(tx, productID, variantID)
	if err != nil {
		return err
	}
	if err := l.products.SetVariantStockTx(tx, v.ID, stock); err != nil {
		return err
	}
	after, err := l.products.SyncStockFromVariantsTx(tx, productID)
	if err != nil {
		return err
	}
	vid := v.ID
	return l.movements.CreateTx(tx, &model.StockMovement{
		BusinessID:  businessID,
		ProductID:   productID,
		VariantID:   &vid,
		Type:        model.StockMovementAdjustment,
		Quantity:    after - p.Stock,
		StockBefore: p.Stock,
		StockAfter:  after,
		Reason:      fmt.Sprintf("variant %s stock set to %d", v.ID, stock),
	})
}
