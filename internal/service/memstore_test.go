package service_test

// In-memory repositories shared by the service tests. Every adapter reads and
// writes one memStore; memStore.InTx serialises transactions (standing in
// for the row locks) and restores a snapshot when fn fails.

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"rifapos/internal/apierror"
	"rifapos/internal/model"
	"rifapos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	businesses map[uuid.UUID]model.Business
	members    map[uuid.UUID]model.BusinessMember
	clients    map[uuid.UUID]model.Client
	products   map[uuid.UUID]model.Product
	variants   map[uuid.UUID]model.ProductVariant
	sales      map[uuid.UUID]model.Sale
	receipts   map[uuid.UUID]model.ReceiptToken
	raffles    map[uuid.UUID]model.Raffle
	tickets    map[uuid.UUID]model.RaffleTicket
	movements  []model.StockMovement

	clock time.Time
	seq   int

	// failMovementAt makes the n-th movement insert of a transaction fail.
	failMovementAt int
	txMovements    int
}

type memSnapshot struct {
	members   map[uuid.UUID]model.BusinessMember
	clients   map[uuid.UUID]model.Client
	products  map[uuid.UUID]model.Product
	variants  map[uuid.UUID]model.ProductVariant
	sales     map[uuid.UUID]model.Sale
	receipts  map[uuid.UUID]model.ReceiptToken
	raffles   map[uuid.UUID]model.Raffle
	tickets   map[uuid.UUID]model.RaffleTicket
	movements []model.StockMovement
}

func newMemStore() *memStore {
	return &memStore{
		businesses: make(map[uuid.UUID]model.Business),
		members:    make(map[uuid.UUID]model.BusinessMember),
		clients:    make(map[uuid.UUID]model.Client),
		products:   make(map[uuid.UUID]model.Product),
		variants:   make(map[uuid.UUID]model.ProductVariant),
		sales:      make(map[uuid.UUID]model.Sale),
		receipts:   make(map[uuid.UUID]model.ReceiptToken),
		raffles:    make(map[uuid.UUID]model.Raffle),
		tickets:    make(map[uuid.UUID]model.RaffleTicket),
		clock:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so ordering by CreatedAt is stable.
func (s *memStore) tick() time.Time {
	s.seq++
	return s.clock.Add(time.Duration(s.seq) * time.Millisecond)
}

func (s *memStore) InTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := memSnapshot{
		members:   maps.Clone(s.members),
		clients:   maps.Clone(s.clients),
		products:  maps.Clone(s.products),
		variants:  maps.Clone(s.variants),
		sales:     maps.Clone(s.sales),
		receipts:  maps.Clone(s.receipts),
		raffles:   maps.Clone(s.raffles),
		tickets:   maps.Clone(s.tickets),
		movements: slices.Clone(s.movements),
	}
	s.txMovements = 0
	s.mu.Unlock()

	if err := fn(nil); err != nil {
		s.mu.Lock()
		s.members, s.clients, s.products, s.variants = snap.members, snap.clients, snap.products, snap.variants
		s.sales, s.receipts, s.raffles, s.tickets = snap.sales, snap.receipts, snap.raffles, snap.tickets
		s.movements = snap.movements
		s.mu.Unlock()
		return err
	}
	return nil
}

var _ repository.Transactor = (*memStore)(nil)

// ── Businesses / members / clients ───────────────────────────────────────────

type memBusinesses struct{ *memStore }

func (r memBusinesses) Create(_ context.Context, b *model.Business) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = r.tick()
	r.businesses[b.ID] = *b
	return nil
}

func (r memBusinesses) FindByID(_ context.Context, id uuid.UUID) (*model.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.businesses[id]
	if !ok {
		return nil, apierror.NewNotFound("business", id)
	}
	return &b, nil
}

var _ repository.BusinessRepository = memBusinesses{}

type memMembers struct{ *memStore }

func (r memMembers) FindActive(_ context.Context, businessID, userID uuid.UUID) (*model.BusinessMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.BusinessID == businessID && m.UserID == userID && m.Status == model.MemberStatusActive {
			return &m, nil
		}
	}
	return nil, apierror.NewNotFound("business member", "")
}

func (r memMembers) FindByID(_ context.Context, id uuid.UUID) (*model.BusinessMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return nil, apierror.NewNotFound("business member", id)
	}
	return &m, nil
}

func (r memMembers) Create(_ context.Context, m *model.BusinessMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = r.tick()
	r.members[m.ID] = *m
	return nil
}

var _ repository.MemberRepository = memMembers{}

type memClients struct{ *memStore }

func (r memClients) Create(_ context.Context, c *model.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.clients {
		if other.BusinessID == c.BusinessID && other.Phone == c.Phone && !other.DeletedAt.Valid {
			return &apierror.DuplicateError{Field: "phone", Message: "phone already registered"}
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = r.tick()
	r.clients[c.ID] = *c
	return nil
}

func (r memClients) FindByID(_ context.Context, id uuid.UUID) (*model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok || c.DeletedAt.Valid {
		return nil, apierror.NewNotFound("client", id)
	}
	return &c, nil
}

func (r memClients) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok || c.DeletedAt.Valid {
		return apierror.NewNotFound("client", id)
	}
	c.DeletedAt = gorm.DeletedAt{Time: r.tick(), Valid: true}
	r.clients[id] = c
	return nil
}

var _ repository.ClientRepository = memClients{}

// ── Products ─────────────────────────────────────────────────────────────────

type memProducts struct{ *memStore }

func (r memProducts) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = r.tick()
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		v.ProductID = p.ID
		v.CreatedAt = r.tick()
		r.variants[v.ID] = *v
	}
	stored := *p
	stored.Variants = nil
	r.products[p.ID] = stored
	return nil
}

func (r memProducts) withVariants(p model.Product) *model.Product {
	p.Variants = nil
	for _, v := range r.variants {
		if v.ProductID == p.ID && !v.DeletedAt.Valid {
			p.Variants = append(p.Variants, v)
		}
	}
	sort.Slice(p.Variants, func(i, j int) bool { return p.Variants[i].CreatedAt.Before(p.Variants[j].CreatedAt) })
	return &p
}

func (r memProducts) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.DeletedAt.Valid {
		return nil, apierror.NewNotFound("product", id)
	}
	return r.withVariants(p), nil
}

func (r memProducts) ListByBusiness(_ context.Context, businessID uuid.UUID) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if p.BusinessID == businessID && !p.DeletedAt.Valid {
			out = append(out, *r.withVariants(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memProducts) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.DeletedAt.Valid {
		return apierror.NewNotFound("product", id)
	}
	p.DeletedAt = gorm.DeletedAt{Time: r.tick(), Valid: true}
	r.products[id] = p
	return nil
}

func (r memProducts) LockByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.DeletedAt.Valid {
		return nil, apierror.NewNotFound("product", id)
	}
	return &p, nil
}

func (r memProducts) LockVariantTx(_ *gorm.DB, productID, variantID uuid.UUID) (*model.ProductVariant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[variantID]
	if !ok || v.ProductID != productID || v.DeletedAt.Valid {
		return nil, apierror.NewNotFound("product variant", variantID)
	}
	return &v, nil
}

func (r memProducts) CountVariantsTx(_ *gorm.DB, productID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, v := range r.variants {
		if v.ProductID == productID && !v.DeletedAt.Valid {
			n++
		}
	}
	return n, nil
}

func (r memProducts) DecrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.products[id]
	if p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	r.products[id] = p
	return true, nil
}

func (r memProducts) DecrementVariantStockTx(_ *gorm.DB, variantID uuid.UUID, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.variants[variantID]
	if v.Stock < qty {
		return false, nil
	}
	v.Stock -= qty
	r.variants[variantID] = v
	return true, nil
}

func (r memProducts) SetVariantStockTx(_ *gorm.DB, variantID uuid.UUID, stock int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[variantID]
	if !ok {
		return apierror.NewNotFound("product variant", variantID)
	}
	v.Stock = stock
	r.variants[variantID] = v
	return nil
}

func (r memProducts) SyncStockFromVariantsTx(_ *gorm.DB, productID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, v := range r.variants {
		if v.ProductID == productID && !v.DeletedAt.Valid {
			sum += v.Stock
		}
	}
	p := r.products[productID]
	p.Stock = sum
	r.products[productID] = p
	return sum, nil
}

var _ repository.ProductRepository = memProducts{}

type memMovements struct{ *memStore }

var errInjected = errors.New("injected failure")

func (r memMovements) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txMovements++
	if r.failMovementAt > 0 && r.txMovements == r.failMovementAt {
		return errInjected
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = r.tick()
	r.movements = append(r.movements, *m)
	return nil
}

func (r memMovements) List(_ context.Context, f repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []model.StockMovement
	for i := len(r.movements) - 1; i >= 0; i-- {
		m := r.movements[i]
		if m.BusinessID != f.BusinessID {
			continue
		}
		if f.ProductID != nil && m.ProductID != *f.ProductID {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		all = append(all, m)
	}
	total := int64(len(all))
	start := (f.Page - 1) * f.Limit
	if start > len(all) {
		start = len(all)
	}
	end := min(start+f.Limit, len(all))
	return all[start:end], total, nil
}

var _ repository.StockMovementRepository = memMovements{}

// ── Sales / receipts ─────────────────────────────────────────────────────────

type memSales struct{ *memStore }

func (r memSales) CreateTx(_ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = r.tick()
	}
	for i := range s.Details {
		if s.Details[i].ID == uuid.Nil {
			s.Details[i].ID = uuid.New()
		}
		s.Details[i].SaleID = s.ID
	}
	stored := *s
	stored.Details = slices.Clone(s.Details)
	if s.Payment != nil {
		p := *s.Payment
		stored.Payment = &p
	}
	r.sales[s.ID] = stored
	return nil
}

func (r memSales) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok || s.DeletedAt.Valid {
		return nil, apierror.NewNotFound("sale", id)
	}
	return r.hydrate(s), nil
}

func (r memSales) hydrate(s model.Sale) *model.Sale {
	s.Details = slices.Clone(s.Details)
	for i := range s.Details {
		d := &s.Details[i]
		if p, ok := r.products[d.ProductID]; ok {
			d.Product = &p
		}
		if d.ProductVariantID != nil {
			if v, ok := r.variants[*d.ProductVariantID]; ok {
				d.Variant = &v
			}
		}
	}
	if s.ClientID != nil {
		if c, ok := r.clients[*s.ClientID]; ok {
			s.Client = &c
		}
	}
	if m, ok := r.members[s.SellerID]; ok {
		s.Seller = &m
	}
	return &s
}

func (r memSales) SetReceiptTokenTx(_ *gorm.DB, saleID, tokenID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[saleID]
	if !ok {
		return apierror.NewNotFound("sale", saleID)
	}
	s.ReceiptTokenID = &tokenID
	r.sales[saleID] = s
	return nil
}

func (r memSales) ListInRange(_ context.Context, f repository.SaleRangeFilter) ([]model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Sale
	for _, s := range r.sales {
		if s.BusinessID != f.BusinessID || s.DeletedAt.Valid || s.Status == model.SaleStatusCancelled {
			continue
		}
		if s.CreatedAt.Before(f.From) || !s.CreatedAt.Before(f.To) {
			continue
		}
		if len(f.ClientIDs) > 0 && (s.ClientID == nil || !slices.Contains(f.ClientIDs, *s.ClientID)) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

var _ repository.SaleRepository = memSales{}

type memReceipts struct{ *memStore }

func (r memReceipts) CreateTx(_ *gorm.DB, t *model.ReceiptToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = r.tick()
	r.receipts[t.ID] = *t
	return nil
}

func (r memReceipts) FindByID(_ context.Context, id uuid.UUID) (*model.ReceiptToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.receipts[id]
	if !ok {
		return nil, apierror.NewNotFound("receipt", id)
	}
	return &t, nil
}

func (r memReceipts) RegisterView(_ context.Context, id uuid.UUID, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.receipts[id]
	if !ok {
		return 0, apierror.NewNotFound("receipt", id)
	}
	t.ViewCount++
	t.LastViewedAt = &at
	r.receipts[id] = t
	return t.ViewCount, nil
}

func (r memReceipts) MostViewed(_ context.Context, businessID uuid.UUID, limit int) ([]model.ReceiptToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ReceiptToken
	for _, t := range r.receipts {
		if t.BusinessID == businessID && t.ViewCount > 0 {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ViewCount > out[j].ViewCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ repository.ReceiptRepository = memReceipts{}

// ── Raffles ──────────────────────────────────────────────────────────────────

type memRaffles struct{ *memStore }

func (r memRaffles) Create(_ context.Context, raffle *model.Raffle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if raffle.ID == uuid.Nil {
		raffle.ID = uuid.New()
	}
	if raffle.CreatedAt.IsZero() {
		raffle.CreatedAt = r.tick()
	}
	r.raffles[raffle.ID] = *raffle
	return nil
}

func (r memRaffles) FindByID(_ context.Context, id uuid.UUID) (*model.Raffle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raffle, ok := r.raffles[id]
	if !ok || raffle.DeletedAt.Valid {
		return nil, apierror.NewNotFound("raffle", id)
	}
	return &raffle, nil
}

func (r memRaffles) active(businessID *uuid.UUID) []model.Raffle {
	var out []model.Raffle
	for _, raffle := range r.raffles {
		if raffle.Status != model.RaffleStatusActive || raffle.DeletedAt.Valid {
			continue
		}
		if businessID != nil && raffle.BusinessID != *businessID {
			continue
		}
		out = append(out, raffle)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r memRaffles) ListActive(_ context.Context, businessID uuid.UUID) ([]model.Raffle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active(&businessID), nil
}

func (r memRaffles) ListAllActive(_ context.Context) ([]model.Raffle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active(nil), nil
}

func (r memRaffles) ticketsOf(raffleID uuid.UUID, keep func(model.RaffleTicket) bool) []model.RaffleTicket {
	var out []model.RaffleTicket
	for _, t := range r.tickets {
		if t.RaffleID == raffleID && keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (r memRaffles) ListTickets(_ context.Context, raffleID uuid.UUID) ([]model.RaffleTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticketsOf(raffleID, func(t model.RaffleTicket) bool { return !t.DeletedAt.Valid }), nil
}

func (r memRaffles) LockByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Raffle, error) {
	return r.FindByID(context.Background(), id)
}

func (r memRaffles) CountTicketsForSaleTx(_ *gorm.DB, raffleID, saleID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ticketsOf(raffleID, func(t model.RaffleTicket) bool { return t.SaleID == saleID })), nil
}

func (r memRaffles) CreateTicketsTx(_ *gorm.DB, tickets []model.RaffleTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range tickets {
		t := &tickets[i]
		for _, other := range r.tickets {
			if other.RaffleID == t.RaffleID && other.Number == t.Number {
				return &apierror.DuplicateError{Field: "number", Message: "ticket number already issued"}
			}
		}
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		t.CreatedAt = r.tick()
		r.tickets[t.ID] = *t
	}
	return nil
}

func (r memRaffles) SetLastTicketNumberTx(_ *gorm.DB, raffleID uuid.UUID, n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	raffle := r.raffles[raffleID]
	raffle.LastTicketNumber = n
	r.raffles[raffleID] = raffle
	return nil
}

func (r memRaffles) EligibleTicketsTx(_ *gorm.DB, raffleID uuid.UUID) ([]model.RaffleTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticketsOf(raffleID, func(t model.RaffleTicket) bool { return !t.IsWinner && !t.DeletedAt.Valid }), nil
}

func (r memRaffles) PlaceTakenTx(_ *gorm.DB, raffleID uuid.UUID, place int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	taken := r.ticketsOf(raffleID, func(t model.RaffleTicket) bool {
		return t.IsWinner && t.Place != nil && *t.Place == place && !t.DeletedAt.Valid
	})
	return len(taken) > 0, nil
}

func (r memRaffles) MarkWinnerTx(_ *gorm.DB, ticketID uuid.UUID, place int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.tickets[ticketID]
	t.IsWinner = true
	t.Place = &place
	r.tickets[ticketID] = t
	return nil
}

func (r memRaffles) SetStatusTx(_ *gorm.DB, raffleID uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	raffle := r.raffles[raffleID]
	raffle.Status = status
	r.raffles[raffleID] = raffle
	return nil
}

var _ repository.RaffleRepository = memRaffles{}
