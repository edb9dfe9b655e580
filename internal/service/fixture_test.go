package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"rifapos/internal/dto"
	"rifapos/internal/identity"
	"rifapos/internal/model"
	"rifapos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// ── Fakes for post-commit collaborators ──────────────────────────────────────

type countingInvalidator struct {
	calls atomic.Int32
	err   error
}

func (c *countingInvalidator) InvalidateProducts(context.Context, uuid.UUID) error {
	c.calls.Add(1)
	return c.err
}

type failingIssuer struct{}

func (failingIssuer) Issue(context.Context, uuid.UUID) (*dto.ReceiptTokenResponse, error) {
	return nil, errors.New("receipt store unavailable")
}

type recordingMailQueue struct {
	mu   sync.Mutex
	sent map[uuid.UUID]string
}

func (q *recordingMailQueue) EnqueueReceiptEmail(_ context.Context, token uuid.UUID, to string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.sent == nil {
		q.sent = make(map[uuid.UUID]string)
	}
	q.sent[token] = to
	return nil
}

// ── Fixture ──────────────────────────────────────────────────────────────────

type fixture struct {
	t     *testing.T
	store *memStore
	now   time.Time

	business model.Business
	member   model.BusinessMember
	who      identity.Identity

	invalidator *countingInvalidator
	mail        *recordingMailQueue

	ledger   service.InventoryLedger
	receipts service.ReceiptService
	raffles  service.RaffleService
	sales    service.SaleService
	clients  service.ClientService
}

type fixtureOption func(*fixture, *service.SaleServiceDeps)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	st := newMemStore()
	f := &fixture{
		t:           t,
		store:       st,
		now:         st.clock,
		invalidator: &countingInvalidator{},
		mail:        &recordingMailQueue{},
	}

	f.business = f.addBusiness("Tienda Centro")
	f.member = f.addMember(f.business.ID, uuid.New(), model.MemberStatusActive)
	f.who = identity.Identity{
		UserID:     f.member.UserID,
		BusinessID: f.business.ID,
		Role:       identity.RoleOwner,
	}

	clock := func() time.Time { return f.now }
	f.ledger = service.NewInventoryLedger(memProducts{st}, memMovements{st})
	f.receipts = service.NewReceiptService(st, memReceipts{st}, memSales{st}, memBusinesses{st},
		30*24*time.Hour, service.WithReceiptClock(clock))
	f.raffles = service.NewRaffleService(st, memRaffles{st}, memSales{st},
		service.WithRaffleClock(clock), service.WithRandom(func(int) int { return 0 }))
	f.clients = service.NewClientService(memClients{st})

	deps := service.SaleServiceDeps{
		Tx:           st,
		Sales:        memSales{st},
		Members:      memMembers{st},
		Clients:      memClients{st},
		Ledger:       f.ledger,
		ProductCache: f.invalidator,
		Receipts:     f.receipts,
		Raffles:      f.raffles,
		Mail:         f.mail,
	}
	for _, o := range opts {
		o(f, &deps)
	}
	f.sales = service.NewSaleService(deps)
	return f
}

func (f *fixture) ctx() context.Context { return context.Background() }

func (f *fixture) addBusiness(name string) model.Business {
	b := model.Business{Name: name, Slug: uuid.NewString()}
	require.NoError(f.t, memBusinesses{f.store}.Create(f.ctx(), &b))
	return b
}

func (f *fixture) addMember(businessID, userID uuid.UUID, status string) model.BusinessMember {
	m := model.BusinessMember{
		BusinessID:  businessID,
		UserID:      userID,
		DisplayName: "Caja 1",
		Role:        identity.RoleEmployee,
		Status:      status,
	}
	require.NoError(f.t, memMembers{f.store}.Create(f.ctx(), &m))
	return m
}

func (f *fixture) addProduct(businessID uuid.UUID, name, price string, stock int) model.Product {
	p := model.Product{
		BusinessID:   businessID,
		Name:         name,
		SellingPrice: decimal.RequireFromString(price),
		Stock:        stock,
		Status:       model.ProductStatusActive,
	}
	require.NoError(f.t, memProducts{f.store}.Create(f.ctx(), &p))
	return p
}

func (f *fixture) addVariantProduct(name, price string, stocks ...int) model.Product {
	p := model.Product{
		BusinessID:   f.business.ID,
		Name:         name,
		SellingPrice: decimal.RequireFromString(price),
		Status:       model.ProductStatusActive,
	}
	for i, s := range stocks {
		p.Variants = append(p.Variants, model.ProductVariant{Size: string(rune('S' + i)), Stock: s})
		p.Stock += s
	}
	require.NoError(f.t, memProducts{f.store}.Create(f.ctx(), &p))
	return p
}

func (f *fixture) addClient(email string) model.Client {
	c := model.Client{BusinessID: f.business.ID, FirstName: "Ana", LastName: "Pérez", Phone: uuid.NewString()[:12]}
	if email != "" {
		c.Email = &email
	}
	require.NoError(f.t, memClients{f.store}.Create(f.ctx(), &c))
	return c
}

func (f *fixture) addRaffle(businessID uuid.UUID, price string, criteria int) model.Raffle {
	r := model.Raffle{
		BusinessID:   businessID,
		Motive:       "Aniversario",
		Prize:        "Bicicleta",
		TicketPrice:  decimal.RequireFromString(price),
		DrawDate:     f.now.AddDate(0, 1, 0),
		Status:       model.RaffleStatusActive,
		DrawCriteria: criteria,
		Prizes:       datatypes.NewJSONType(map[string]string{"1": "Bicicleta", "2": "Casco"}),
	}
	require.NoError(f.t, memRaffles{f.store}.Create(f.ctx(), &r))
	return r
}

// addSale stores a committed sale directly, bypassing checkout.
func (f *fixture) addSale(total string, at time.Time, clientID *uuid.UUID) model.Sale {
	s := model.Sale{
		BusinessID:    f.business.ID,
		ClientID:      clientID,
		SellerID:      f.member.ID,
		Total:         decimal.RequireFromString(total),
		Status:        model.SaleStatusDelivered,
		PaymentMethod: "cash",
		CreatedAt:     at,
	}
	require.NoError(f.t, memSales{f.store}.CreateTx(nil, &s))
	return s
}

func (f *fixture) stockOf(id uuid.UUID) int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.products[id].Stock
}

func (f *fixture) variantStockOf(id uuid.UUID) int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.variants[id].Stock
}

func (f *fixture) saleCount() int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return len(f.store.sales)
}

func (f *fixture) ticketsOf(raffleID uuid.UUID) []model.RaffleTicket {
	tickets, err := memRaffles{f.store}.ListTickets(f.ctx(), raffleID)
	require.NoError(f.t, err)
	return tickets
}

// ── Cart helpers ─────────────────────────────────────────────────────────────

func item(p model.Product, qty int) dto.CheckoutItem {
	return dto.CheckoutItem{ProductID: p.ID.String(), Quantity: qty}
}

func variantItem(p model.Product, v model.ProductVariant, qty int) dto.CheckoutItem {
	vid := v.ID.String()
	return dto.CheckoutItem{ProductID: p.ID.String(), VariantID: &vid, Quantity: qty}
}

func cart(total string, items ...dto.CheckoutItem) dto.CheckoutRequest {
	t := decimal.RequireFromString(total)
	return dto.CheckoutRequest{Items: items, PaymentMethod: "cash", Total: &t}
}
