package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"rifapos/internal/apierror"
	"rifapos/internal/cache"
	"rifapos/internal/dto"
	"rifapos/internal/identity"
	"rifapos/internal/metrics"
	"rifapos/internal/model"
	"rifapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// ProductService defines the business logic contract for products.
type ProductService interface {
	Create(ctx context.Context, who identity.Identity, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	List(ctx context.Context, who identity.Identity) ([]dto.ProductResponse, error)
	Delete(ctx context.Context, who identity.Identity, productID uuid.UUID) error
	SetVariantStock(ctx context.Context, who identity.Identity, productID, variantID uuid.UUID, stock int) error
	ListMovements(ctx context.Context, who identity.Identity, productID uuid.UUID, filter dto.StockMovementFilter) (*dto.StockMovementListResponse, error)
	InvalidateProducts(ctx context.Context, businessID uuid.UUID) error
}

type productService struct {
	tx        repository.Transactor
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	ledger    InventoryLedger
	cache     cache.Cache
	ttl       time.Duration
	group     singleflight.Group
}

func NewProductService(
	tx repository.Transactor,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	ledger InventoryLedger,
	c cache.Cache,
	ttl time.Duration,
) ProductService {
	return &productService{
		tx:        tx,
		products:  products,
		movements: movements,
		ledger:    ledger,
		cache:     c,
		ttl:       ttl,
	}
}

func productsKey(businessID uuid.UUID) string { return "products:" + businessID.String() }

func (s *productService) Create(ctx context.Context, who identity.Identity, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if req.SellingPrice.IsNegative() || req.CostPrice.IsNegative() {
		return nil, apierror.NewValidation("sellingPrice", "prices cannot be negative")
	}

	p := model.Product{
		BusinessID:   who.BusinessID,
		Name:         req.Name,
		Description:  req.Description,
		CostPrice:    req.CostPrice.Round(2),
		SellingPrice: req.SellingPrice.Round(2),
		Stock:        req.Stock,
		Status:       model.ProductStatusActive,
	}
	if len(req.Variants) > 0 {
		p.Stock = 0
		for _, v := range req.Variants {
			p.Variants = append(p.Variants, model.ProductVariant{
				Color: v.Color,
				Size:  v.Size,
				SKU:   v.SKU,
				Stock: v.Stock,
			})
			p.Stock += v.Stock
		}
	}

	if err := s.products.Create(ctx, &p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, who.BusinessID)

	resp := productToResponse(&p)
	return &resp, nil
}

// List is served read-through from the cache. Concurrent misses for one
// business share a single database read.
func (s *productService) List(ctx context.Context, who identity.Identity) ([]dto.ProductResponse, error) {
	key := productsKey(who.BusinessID)

	if b, err := s.cache.Get(ctx, key); err == nil {
		var cached []dto.ProductResponse
		if jsonErr := json.Unmarshal(b, &cached); jsonErr == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Warn().Err(err).Str("key", key).Msg("product_service: cache read failed")
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		rows, err := s.products.ListByBusiness(ctx, who.BusinessID)
		if err != nil {
			return nil, err
		}
		out := make([]dto.ProductResponse, 0, len(rows))
		for i := range rows {
			out = append(out, productToResponse(&rows[i]))
		}
		if b, jsonErr := json.Marshal(out); jsonErr == nil {
			if setErr := s.cache.Set(context.WithoutCancel(ctx), key, b, s.ttl); setErr != nil {
				log.Warn().Err(setErr).Str("key", key).Msg("product_service: cache write failed")
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dto.ProductResponse), nil
}

func (s *productService) Delete(ctx context.Context, who identity.Identity, productID uuid.UUID) error {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if p.BusinessID != who.BusinessID {
		return apierror.NewAccessDenied("product belongs to another business")
	}
	if err := s.products.SoftDelete(ctx, productID); err != nil {
		return err
	}
	s.invalidate(ctx, who.BusinessID)
	return nil
}

func (s *productService) SetVariantStock(ctx context.Context, who identity.Identity, productID, variantID uuid.UUID, stock int) error {
	if stock < 0 {
		return apierror.NewValidation("stock", "stock cannot be negative")
	}
	err := s.tx.InTx(ctx, func(tx *gorm.DB) error {
		return s.ledger.SetVariantStockTx(tx, who.BusinessID, productID, variantID, stock)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, who.BusinessID)
	return nil
}

func (s *productService) ListMovements(ctx context.Context, who identity.Identity, productID uuid.UUID, filter dto.StockMovementFilter) (*dto.StockMovementListResponse, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.BusinessID != who.BusinessID {
		return nil, apierror.NewAccessDenied("product belongs to another business")
	}

	rows, total, err := s.movements.List(ctx, repository.StockMovementFilter{
		BusinessID: who.BusinessID,
		ProductID:  &productID,
		Page:       filter.Page,
		Limit:      filter.Limit,
	})
	if err != nil {
		return nil, err
	}

	data := make([]dto.StockMovementResponse, 0, len(rows))
	for _, m := range rows {
		data = append(data, dto.StockMovementResponse{
			ID:          m.ID.String(),
			ProductID:   m.ProductID.String(),
			VariantID:   uuidPtrString(m.VariantID),
			Type:        m.Type,
			Quantity:    m.Quantity,
			StockBefore: m.StockBefore,
			StockAfter:  m.StockAfter,
			Reason:      m.Reason,
			ReferenceID: uuidPtrString(m.ReferenceID),
			CreatedAt:   m.CreatedAt,
		})
	}
	return &dto.StockMovementListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// InvalidateProducts drops the cached product list of a business.
func (s *productService) InvalidateProducts(ctx context.Context, businessID uuid.UUID) error {
	return s.cache.Delete(ctx, productsKey(businessID))
}

func (s *productService) invalidate(ctx context.Context, businessID uuid.UUID) {
	if err := s.InvalidateProducts(ctx, businessID); err != nil {
		log.Warn().Err(err).Str("business_id", businessID.String()).Msg("product_service: cache invalidation failed")
	}
}

func productToResponse(p *model.Product) dto.ProductResponse {
	variants := make([]dto.VariantResponse, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, dto.VariantResponse{
			ID:    v.ID.String(),
			Color: v.Color,
			Size:  v.Size,
			SKU:   v.SKU,
			Stock: v.Stock,
		})
	}
	return dto.ProductResponse{
		ID:           p.ID.String(),
		BusinessID:   p.BusinessID.String(),
		Name:         p.Name,
		Description:  p.Description,
		CostPrice:    p.CostPrice,
		SellingPrice: p.SellingPrice,
		Stock:        p.Stock,
		Status:       p.Status,
		Variants:     variants,
	}
}
