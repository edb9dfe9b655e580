package service_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"rifapos/internal/apierror"
	"rifapos/internal/cache"
	"rifapos/internal/dto"
	"rifapos/internal/model"
	"rifapos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const productTTL = 5 * time.Minute

func newProductService(f *fixture, c cache.Cache) service.ProductService {
	return service.NewProductService(f.store, memProducts{f.store}, memMovements{f.store}, f.ledger, c, productTTL)
}

func TestProductService_List(t *testing.T) {
	type testCase struct {
		name      string
		setupMock func(m *cache.MockCache, key string)
		wantNames []string
	}

	cached, _ := json.Marshal([]dto.ProductResponse{{Name: "Desde cache"}})

	tests := []testCase{
		{
			name: "Hit",
			setupMock: func(m *cache.MockCache, key string) {
				m.EXPECT().Get(gomock.Any(), key).Return(cached, nil)
			},
			wantNames: []string{"Desde cache"},
		},
		{
			name: "MissPopulates",
			setupMock: func(m *cache.MockCache, key string) {
				m.EXPECT().Get(gomock.Any(), key).Return(nil, cache.ErrMiss)
				m.EXPECT().Set(gomock.Any(), key, gomock.Any(), productTTL).
					DoAndReturn(func(_ any, _ string, value []byte, _ time.Duration) error {
						var got []dto.ProductResponse
						require.NoError(t, json.Unmarshal(value, &got))
						assert.Len(t, got, 2)
						return nil
					})
			},
			wantNames: []string{"Alfajor", "Bombón"},
		},
		{
			name: "BackendDownFallsThrough",
			setupMock: func(m *cache.MockCache, key string) {
				m.EXPECT().Get(gomock.Any(), key).Return(nil, errors.New("connection refused"))
				m.EXPECT().Set(gomock.Any(), key, gomock.Any(), productTTL).Return(errors.New("connection refused"))
			},
			wantNames: []string{"Alfajor", "Bombón"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			f := newFixture(t)
			f.addProduct(f.business.ID, "Bombón", "1.00", 1)
			f.addProduct(f.business.ID, "Alfajor", "2.00", 1)
			f.addProduct(f.addBusiness("Otra").ID, "Ajeno", "2.00", 1)

			m := cache.NewMockCache(ctrl)
			tt.setupMock(m, "products:"+f.business.ID.String())

			got, err := newProductService(f, m).List(f.ctx(), f.who)
			require.NoError(t, err)

			var names []string
			for _, p := range got {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestProductService_CreateDerivesStockFromVariants(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	m := cache.NewMockCache(ctrl)
	m.EXPECT().Delete(gomock.Any(), "products:"+f.business.ID.String()).Return(nil)

	resp, err := newProductService(f, m).Create(f.ctx(), f.who, dto.CreateProductRequest{
		Name:         "Pantalón",
		SellingPrice: decimal.RequireFromString("45.999"),
		Stock:        99,
		Variants: []dto.CreateVariantRequest{
			{Size: "38", Stock: 2},
			{Size: "40", Stock: 5},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 7, resp.Stock)
	assert.Equal(t, "46.00", resp.SellingPrice.StringFixed(2))
	require.Len(t, resp.Variants, 2)
	assert.Equal(t, 7, f.stockOf(uuid.MustParse(resp.ID)))
}

func TestProductService_SetVariantStockKeepsAggregate(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	m := cache.NewMockCache(ctrl)
	m.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	svc := newProductService(f, m)

	p := f.addVariantProduct("Camisa", "30.00", 2, 3)
	require.NoError(t, svc.SetVariantStock(f.ctx(), f.who, p.ID, p.Variants[0].ID, 10))

	assert.Equal(t, 10, f.variantStockOf(p.Variants[0].ID))
	assert.Equal(t, 13, f.stockOf(p.ID))

	list, err := svc.ListMovements(f.ctx(), f.who, p.ID, dto.StockMovementFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	mv := list.Data[0]
	assert.Equal(t, model.StockMovementAdjustment, mv.Type)
	assert.Equal(t, 8, mv.Quantity)
	assert.Equal(t, 5, mv.StockBefore)
	assert.Equal(t, 13, mv.StockAfter)

	err = svc.SetVariantStock(f.ctx(), f.who, p.ID, p.Variants[0].ID, -1)
	var validation *apierror.ValidationError
	assert.ErrorAs(t, err, &validation)

	intruder := f.who
	intruder.BusinessID = uuid.New()
	err = svc.SetVariantStock(f.ctx(), intruder, p.ID, p.Variants[0].ID, 1)
	var denied *apierror.AccessDeniedError
	assert.ErrorAs(t, err, &denied)
	assert.Equal(t, 13, f.stockOf(p.ID))

	other := f.addVariantProduct("Otra", "1.00", 1)
	err = svc.SetVariantStock(f.ctx(), f.who, p.ID, other.Variants[0].ID, 1)
	var nf *apierror.NotFoundError
	assert.ErrorAs(t, err, &nf, "variant must belong to the product")
}

func TestProductService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	m := cache.NewMockCache(ctrl)
	m.EXPECT().Delete(gomock.Any(), "products:"+f.business.ID.String()).Return(nil).Times(1)
	svc := newProductService(f, m)
	p := f.addProduct(f.business.ID, "Termo", "20.00", 1)

	intruder := f.who
	intruder.BusinessID = uuid.New()
	var denied *apierror.AccessDeniedError
	assert.ErrorAs(t, svc.Delete(f.ctx(), intruder, p.ID), &denied)

	require.NoError(t, svc.Delete(f.ctx(), f.who, p.ID))

	_, err := f.sales.Checkout(f.ctx(), f.who, cart("20.00", item(p, 1)))
	var nf *apierror.NotFoundError
	assert.ErrorAs(t, err, &nf, "deleted products cannot be sold")
}

func TestProductService_InvalidateProducts(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	m := cache.NewMockCache(ctrl)
	m.EXPECT().Delete(gomock.Any(), "products:"+f.business.ID.String()).Return(assert.AnError)

	err := newProductService(f, m).InvalidateProducts(f.ctx(), f.business.ID)
	assert.ErrorIs(t, err, assert.AnError)
}
