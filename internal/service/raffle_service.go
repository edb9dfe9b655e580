package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"time"

	"rifapos/internal/apierror"
	"rifapos/internal/dto"
	"rifapos/internal/identity"
	"rifapos/internal/metrics"
	"rifapos/internal/model"
	"rifapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RaffleService interface {
	Create(ctx context.Context, who identity.Identity, req dto.CreateRaffleRequest) (*dto.RaffleResponse, error)
	Get(ctx context.Context, who identity.Identity, raffleID uuid.UUID) (*dto.RaffleResponse, error)
	ListTickets(ctx context.Context, who identity.Identity, raffleID uuid.UUID) ([]dto.TicketResponse, error)

	// AllocateForSale tops up the sale's tickets in every active raffle of
	// its business. Idempotent: a sale never holds more than it earned.
	AllocateForSale(ctx context.Context, saleID uuid.UUID) ([]dto.AllocationDetail, error)
	// GenerateBatch backfills one raffle from the sales of a date range.
	GenerateBatch(ctx context.Context, who identity.Identity, raffleID uuid.UUID, req dto.GenerateBatchRequest) (*dto.GenerateBatchResponse, error)
	// ReconcileRecent re-runs allocation over recent sales of every active raffle.
	ReconcileRecent(ctx context.Context, window time.Duration) (int, error)

	Draw(ctx context.Context, who identity.Identity, raffleID uuid.UUID, place *int) (*dto.DrawResponse, error)
}

type RaffleOption func(*raffleService)

// WithRandom replaces the draw's source of randomness; intn must return a
// value in [0, n).
func WithRandom(intn func(n int) int) RaffleOption {
	return func(s *raffleService) { s.intn = intn }
}

// WithRaffleClock overrides time.Now for reconciliation windows.
func WithRaffleClock(now func() time.Time) RaffleOption {
	return func(s *raffleService) { s.now = now }
}

type raffleService struct {
	tx      repository.Transactor
	raffles repository.RaffleRepository
	sales   repository.SaleRepository
	intn    func(n int) int
	now     func() time.Time
}

func NewRaffleService(
	tx repository.Transactor,
	raffles repository.RaffleRepository,
	sales repository.SaleRepository,
	opts ...RaffleOption,
) RaffleService {
	s := &raffleService{
		tx:      tx,
		raffles: raffles,
		sales:   sales,
		intn:    rand.IntN,
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TicketsEarned is floor(total / ticketPrice); zero for a non-positive price.
func TicketsEarned(total, ticketPrice decimal.Decimal) int {
	if !ticketPrice.IsPositive() || !total.IsPositive() {
		return 0
	}
	q, _ := total.QuoRem(ticketPrice, 0)
	return int(q.IntPart())
}

// ── CRUD ─────────────────────────────────────────────────────────────────────

func (s *raffleService) Create(ctx context.Context, who identity.Identity, req dto.CreateRaffleRequest) (*dto.RaffleResponse, error) {
	if !req.TicketPrice.IsPositive() {
		return nil, apierror.NewValidation("ticketPrice", "ticketPrice must be greater than zero")
	}
	criteria := req.DrawCriteria
	if criteria == 0 {
		criteria = 1
	}
	prizes := req.Prizes
	if prizes == nil {
		prizes = map[string]string{}
	}
	for place := range prizes {
		if n, err := strconv.Atoi(place); err != nil || n < 1 {
			return nil, apierror.NewValidation("prizes", "prize keys must be places starting at 1")
		}
	}

	raffle := model.Raffle{
		BusinessID:   who.BusinessID,
		Motive:       req.Motive,
		Prize:        req.Prize,
		TicketPrice:  req.TicketPrice.Round(2),
		DrawDate:     req.DrawDate,
		Status:       model.RaffleStatusActive,
		DrawCriteria: criteria,
		Prizes:       datatypes.NewJSONType(prizes),
	}
	if err := s.raffles.Create(ctx, &raffle); err != nil {
		return nil, err
	}
	resp := raffleToResponse(&raffle)
	return &resp, nil
}

func (s *raffleService) Get(ctx context.Context, who identity.Identity, raffleID uuid.UUID) (*dto.RaffleResponse, error) {
	raffle, err := s.owned(ctx, who, raffleID)
	if err != nil {
		return nil, err
	}
	resp := raffleToResponse(raffle)
	return &resp, nil
}

func (s *raffleService) ListTickets(ctx context.Context, who identity.Identity, raffleID uuid.UUID) ([]dto.TicketResponse, error) {
	if _, err := s.owned(ctx, who, raffleID); err != nil {
		return nil, err
	}
	tickets, err := s.raffles.ListTickets(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, ticketToResponse(&tickets[i]))
	}
	return out, nil
}

func (s *raffleService) owned(ctx context.Context, who identity.Identity, raffleID uuid.UUID) (*model.Raffle, error) {
	raffle, err := s.raffles.FindByID(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	if raffle.BusinessID != who.BusinessID {
		return nil, apierror.NewAccessDenied("raffle belongs to another business")
	}
	return raffle, nil
}

// ── Allocation ───────────────────────────────────────────────────────────────

func (s *raffleService) AllocateForSale(ctx context.Context, saleID uuid.UUID) ([]dto.AllocationDetail, error) {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	raffles, err := s.raffles.ListActive(ctx, sale.BusinessID)
	if err != nil {
		return nil, err
	}

	var (
		details []dto.AllocationDetail
		errs    []error
	)
	for _, r := range raffles {
		d, err := s.allocate(ctx, r.ID, sale)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if d != nil {
			details = append(details, *d)
		}
	}
	return details, errors.Join(errs...)
}

// allocate issues the missing tickets of one sale in one raffle. Numbering
// is serialised by the raffle row lock. Returns nil when nothing was created.
func (s *raffleService) allocate(ctx context.Context, raffleID uuid.UUID, sale *model.Sale) (*dto.AllocationDetail, error) {
	var detail *dto.AllocationDetail
	err := s.tx.InTx(ctx, func(tx *gorm.DB) error {
		raffle, err := s.raffles.LockByIDTx(tx, raffleID)
		if err != nil {
			return err
		}
		if raffle.Status != model.RaffleStatusActive || raffle.BusinessID != sale.BusinessID {
			return nil
		}

		earned := TicketsEarned(sale.Total, raffle.TicketPrice)
		if earned == 0 {
			return nil
		}
		held, err := s.raffles.CountTicketsForSaleTx(tx, raffle.ID, sale.ID)
		if err != nil {
			return err
		}
		missing := earned - held
		if missing <= 0 {
			return nil
		}

		tickets := make([]model.RaffleTicket, missing)
		numbers := make([]int, missing)
		for i := range tickets {
			n := raffle.LastTicketNumber + i + 1
			tickets[i] = model.RaffleTicket{
				RaffleID: raffle.ID,
				Number:   n,
				SaleID:   sale.ID,
				ClientID: sale.ClientID,
			}
			numbers[i] = n
		}
		if err := s.raffles.CreateTicketsTx(tx, tickets); err != nil {
			return err
		}
		if err := s.raffles.SetLastTicketNumberTx(tx, raffle.ID, raffle.LastTicketNumber+missing); err != nil {
			return err
		}
		detail = &dto.AllocationDetail{
			SaleID:   sale.ID.String(),
			RaffleID: raffle.ID.String(),
			Tickets:  missing,
			Numbers:  numbers,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if detail != nil {
		metrics.TicketsIssued.Add(float64(detail.Tickets))
		log.Debug().
			Str("sale_id", detail.SaleID).
			Str("raffle_id", detail.RaffleID).
			Int("tickets", detail.Tickets).
			Msg("raffle_service: tickets issued")
	}
	return detail, nil
}

func (s *raffleService) GenerateBatch(ctx context.Context, who identity.Identity, raffleID uuid.UUID, req dto.GenerateBatchRequest) (*dto.GenerateBatchResponse, error) {
	raffle, err := s.owned(ctx, who, raffleID)
	if err != nil {
		return nil, err
	}
	if raffle.Status != model.RaffleStatusActive {
		return nil, apierror.NewValidation("raffleId", "raffle is finished")
	}

	from, _, err := parseBoundary(req.StartDate, "startDate")
	if err != nil {
		return nil, err
	}
	to, dateOnly, err := parseBoundary(req.EndDate, "endDate")
	if err != nil {
		return nil, err
	}
	if dateOnly {
		to = to.AddDate(0, 0, 1)
	} else {
		to = to.Add(time.Microsecond)
	}
	if !from.Before(to) {
		return nil, apierror.NewValidation("startDate", "startDate must not be after endDate")
	}

	filter := repository.SaleRangeFilter{BusinessID: who.BusinessID, From: from, To: to}
	for i, raw := range req.ClientIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apierror.NewValidation("clientIds["+strconv.Itoa(i)+"]", "invalid client id")
		}
		filter.ClientIDs = append(filter.ClientIDs, id)
	}

	sales, err := s.sales.ListInRange(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.GenerateBatchResponse{Details: []dto.AllocationDetail{}}
	for i := range sales {
		d, err := s.allocate(ctx, raffle.ID, &sales[i])
		if err != nil {
			return nil, err
		}
		if d != nil {
			resp.TotalGenerated += d.Tickets
			resp.Details = append(resp.Details, *d)
		}
	}

	log.Info().
		Str("raffle_id", raffle.ID.String()).
		Int("sales", len(sales)).
		Int("tickets", resp.TotalGenerated).
		Msg("raffle_service: batch generation finished")
	return resp, nil
}

func (s *raffleService) ReconcileRecent(ctx context.Context, window time.Duration) (int, error) {
	raffles, err := s.raffles.ListAllActive(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	total := 0
	var errs []error
	for _, r := range raffles {
		from := now.Add(-window)
		if r.CreatedAt.After(from) {
			from = r.CreatedAt
		}
		sales, err := s.sales.ListInRange(ctx, repository.SaleRangeFilter{
			BusinessID: r.BusinessID,
			From:       from,
			To:         now,
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for i := range sales {
			d, err := s.allocate(ctx, r.ID, &sales[i])
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if d != nil {
				total += d.Tickets
			}
		}
	}
	return total, errors.Join(errs...)
}

// parseBoundary accepts RFC 3339 or YYYY-MM-DD (UTC midnight).
func parseBoundary(raw, field string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), false, nil
	}
	if t, err = time.ParseInLocation(time.DateOnly, raw, time.UTC); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, apierror.NewValidation(field, field+" must be YYYY-MM-DD or RFC 3339")
}

// ── Draw ─────────────────────────────────────────────────────────────────────

func (s *raffleService) Draw(ctx context.Context, who identity.Identity, raffleID uuid.UUID, place *int) (*dto.DrawResponse, error) {
	p := 1
	if place != nil {
		p = *place
	}
	if p < 1 {
		return nil, apierror.NewValidation("place", "place must be at least 1")
	}

	var (
		raffle  *model.Raffle
		winner  model.RaffleTicket
		history []model.RaffleTicket
	)
	err := s.tx.InTx(ctx, func(tx *gorm.DB) error {
		var err error
		raffle, err = s.raffles.LockByIDTx(tx, raffleID)
		if err != nil {
			return err
		}
		if raffle.BusinessID != who.BusinessID {
			return apierror.NewAccessDenied("raffle belongs to another business")
		}
		if raffle.Status != model.RaffleStatusActive {
			return apierror.NewValidation("raffleId", "raffle is finished")
		}
		taken, err := s.raffles.PlaceTakenTx(tx, raffle.ID, p)
		if err != nil {
			return err
		}
		if taken {
			return apierror.NewValidation("place", "place "+strconv.Itoa(p)+" has already been drawn")
		}

		pool, err := s.raffles.EligibleTicketsTx(tx, raffle.ID)
		if err != nil {
			return err
		}
		if len(pool) == 0 {
			return &apierror.NoEligibleTicketsError{RaffleID: raffle.ID}
		}

		winner, history = drawRound(pool, raffle.DrawCriteria, s.intn)
		if err := s.raffles.MarkWinnerTx(tx, winner.ID, p); err != nil {
			return err
		}
		if p == 1 {
			return s.raffles.SetStatusTx(tx, raffle.ID, model.RaffleStatusFinished)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RaffleDraws.Inc()
	log.Info().
		Str("raffle_id", raffle.ID.String()).
		Int("place", p).
		Int("number", winner.Number).
		Msg("raffle_service: winner drawn")

	winner.IsWinner = true
	winner.Place = &p
	resp := &dto.DrawResponse{
		Winner:      ticketToResponse(&winner),
		DrawHistory: make([]dto.TicketResponse, 0, len(history)),
		Place:       p,
		Prize:       raffle.Prizes.Data()[strconv.Itoa(p)],
	}
	if resp.Prize == "" && p == 1 {
		resp.Prize = raffle.Prize
	}
	for i := range history {
		resp.DrawHistory = append(resp.DrawHistory, ticketToResponse(&history[i]))
	}
	return resp, nil
}

// drawRound draws criteria tickets without replacement; the last one drawn
// wins. When the pool is smaller than criteria every ticket is drawn once.
// history lists every drawn ticket in draw order, winner last.
func drawRound(pool []model.RaffleTicket, criteria int, intn func(int) int) (model.RaffleTicket, []model.RaffleTicket) {
	remaining := make([]model.RaffleTicket, len(pool))
	copy(remaining, pool)

	rounds := criteria
	if rounds < 1 {
		rounds = 1
	}
	if rounds > len(remaining) {
		rounds = len(remaining)
	}

	history := make([]model.RaffleTicket, 0, rounds)
	for i := 0; i < rounds; i++ {
		k := intn(len(remaining))
		history = append(history, remaining[k])
		remaining[k] = remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
	}
	return history[len(history)-1], history
}

// ── mapping ──────────────────────────────────────────────────────────────────

func raffleToResponse(r *model.Raffle) dto.RaffleResponse {
	prizes := r.Prizes.Data()
	if prizes == nil {
		prizes = map[string]string{}
	}
	return dto.RaffleResponse{
		ID:               r.ID.String(),
		BusinessID:       r.BusinessID.String(),
		Motive:           r.Motive,
		Prize:            r.Prize,
		TicketPrice:      r.TicketPrice,
		DrawDate:         r.DrawDate,
		Status:           r.Status,
		DrawCriteria:     r.DrawCriteria,
		Prizes:           prizes,
		LastTicketNumber: r.LastTicketNumber,
		CreatedAt:        r.CreatedAt,
	}
}

func ticketToResponse(t *model.RaffleTicket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:       t.ID.String(),
		Number:   t.Number,
		IsWinner: t.IsWinner,
		Place:    t.Place,
		SaleID:   t.SaleID.String(),
		ClientID: uuidPtrString(t.ClientID),
	}
}
