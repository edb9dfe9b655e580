package repository

import (
	"context"

	"rifapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository defines the data access contract for products and variants.
// Services depend on this interface, not on the concrete GORM implementation.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]model.Product, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// Used inside transactions; callers must pass the tx instance.
	// Lock* methods take a row lock held until the transaction ends.
	LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	LockVariantTx(tx *gorm.DB, productID, variantID uuid.UUID) (*model.ProductVariant, error)
	CountVariantsTx(tx *gorm.DB, productID uuid.UUID) (int64, error)

	// DecrementStockTx subtracts qty only while stock >= qty and reports
	// whether the row was updated.
	DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (bool, error)
	DecrementVariantStockTx(tx *gorm.DB, variantID uuid.UUID, qty int) (bool, error)
	SetVariantStockTx(tx *gorm.DB, variantID uuid.UUID, stock int) error

	// SyncStockFromVariantsTx rewrites products.stock as the sum of the
	// product's live variants and returns the new value.
	SyncStockFromVariantsTx(tx *gorm.DB, productID uuid.UUID) (int, error)
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Preload("Variants").First(&p, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	return &p, nil
}

func (r *productRepo) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("business_id = ?", businessID).
		Order("name ASC").
		Find(&products).Error
	return products, translate(err)
}

func (r *productRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "product", id)
	}
	return nil
}

func (r *productRepo) LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	if err := forUpdate(tx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "product", id)
	}
	return &p, nil
}

func (r *productRepo) LockVariantTx(tx *gorm.DB, productID, variantID uuid.UUID) (*model.ProductVariant, error) {
	var v model.ProductVariant
	err := forUpdate(tx).Where("id = ? AND product_id = ?", variantID, productID).First(&v).Error
	if err != nil {
		return nil, notFound(err, "product variant", variantID)
	}
	return &v, nil
}

func (r *productRepo) CountVariantsTx(tx *gorm.DB, productID uuid.UUID) (int64, error) {
	var n int64
	err := tx.Model(&model.ProductVariant{}).Where("product_id = ?", productID).Count(&n).Error
	return n, translate(err)
}

func (r *productRepo) DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (bool, error) {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected == 1, translate(res.Error)
}

func (r *productRepo) DecrementVariantStockTx(tx *gorm.DB, variantID uuid.UUID, qty int) (bool, error) {
	res := tx.Model(&model.ProductVariant{}).
		Where("id = ? AND stock >= ?", variantID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected == 1, translate(res.Error)
}

func (r *productRepo) SetVariantStockTx(tx *gorm.DB, variantID uuid.UUID, stock int) error {
	res := tx.Model(&model.ProductVariant{}).Where("id = ?", variantID).Update("stock", stock)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "product variant", variantID)
	}
	return nil
}

func (r *productRepo) SyncStockFromVariantsTx(tx *gorm.DB, productID uuid.UUID) (int, error) {
	var stock int
	err := tx.Raw(`
		UPDATE products SET stock = (
			SELECT COALESCE(SUM(stock), 0) FROM product_variants
			WHERE product_id = ? AND deleted_at IS NULL
		), updated_at = NOW()
		WHERE id = ?
		RETURNING stock`, productID, productID).Scan(&stock).Error
	return stock, translate(err)
}
