package service

import (
	"context"
	"time"

	"rifapos/internal/apierror"
	"rifapos/internal/dto"
	"rifapos/internal/identity"
	"rifapos/internal/metrics"
	"rifapos/internal/model"
	"rifapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// walkInName is printed on receipts of sales without a client.
const walkInName = "Walk-in customer"

// ReceiptDocument is everything needed to render a receipt.
type ReceiptDocument struct {
	Token     model.ReceiptToken
	Snapshot  model.ReceiptSnapshot
	Sale      *model.Sale
	Business  *model.Business
	ViewCount int
}

func (d *ReceiptDocument) Response() dto.ReceiptViewResponse {
	return dto.ReceiptViewResponse{
		ClientName: d.Snapshot.ClientName,
		Total:      d.Snapshot.Total,
		Sale:       saleToResponse(d.Sale),
		Business: dto.BusinessResponse{
			ID:   d.Business.ID.String(),
			Name: d.Business.Name,
			Slug: d.Business.Slug,
		},
		ViewCount: d.ViewCount,
		ExpiresAt: d.Token.ExpiresAt,
	}
}

type ReceiptService interface {
	// Issue creates a token for a committed sale and links it to the sale.
	Issue(ctx context.Context, saleID uuid.UUID) (*dto.ReceiptTokenResponse, error)
	// Regenerate issues a fresh token for a sale of the caller's business.
	Regenerate(ctx context.Context, who identity.Identity, saleID uuid.UUID) (*dto.ReceiptTokenResponse, error)
	// View resolves a public token and counts the view.
	View(ctx context.Context, token uuid.UUID) (*ReceiptDocument, error)
	// Peek resolves a token without counting a view.
	Peek(ctx context.Context, token uuid.UUID) (*ReceiptDocument, error)
	MostViewed(ctx context.Context, who identity.Identity, limit int) ([]dto.MostViewedReceipt, error)
}

type ReceiptOption func(*receiptService)

// WithReceiptClock overrides time.Now for issuance and expiry checks.
func WithReceiptClock(now func() time.Time) ReceiptOption {
	return func(s *receiptService) { s.now = now }
}

type receiptService struct {
	tx         repository.Transactor
	receipts   repository.ReceiptRepository
	sales      repository.SaleRepository
	businesses repository.BusinessRepository
	ttl        time.Duration
	now        func() time.Time
}

func NewReceiptService(
	tx repository.Transactor,
	receipts repository.ReceiptRepository,
	sales repository.SaleRepository,
	businesses repository.BusinessRepository,
	ttl time.Duration,
	opts ...ReceiptOption,
) ReceiptService {
	s := &receiptService{
		tx:         tx,
		receipts:   receipts,
		sales:      sales,
		businesses: businesses,
		ttl:        ttl,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *receiptService) Issue(ctx context.Context, saleID uuid.UUID) (*dto.ReceiptTokenResponse, error) {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, sale)
}

func (s *receiptService) Regenerate(ctx context.Context, who identity.Identity, saleID uuid.UUID) (*dto.ReceiptTokenResponse, error) {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.BusinessID != who.BusinessID {
		return nil, apierror.NewAccessDenied("sale belongs to another business")
	}
	return s.issue(ctx, sale)
}

func (s *receiptService) issue(ctx context.Context, sale *model.Sale) (*dto.ReceiptTokenResponse, error) {
	clientName := walkInName
	if sale.Client != nil {
		if name := sale.Client.FullName(); name != "" {
			clientName = name
		}
	}

	token := model.ReceiptToken{
		ID:         uuid.New(),
		BusinessID: sale.BusinessID,
		SaleID:     sale.ID,
		Parameters: datatypes.NewJSONType(model.ReceiptSnapshot{
			ClientName: clientName,
			Total:      sale.Total,
			SaleID:     sale.ID,
			BusinessID: sale.BusinessID,
		}),
		ExpiresAt: s.now().Add(s.ttl),
	}

	err := s.tx.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.receipts.CreateTx(tx, &token); err != nil {
			return err
		}
		return s.sales.SetReceiptTokenTx(tx, sale.ID, token.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("sale_id", sale.ID.String()).
		Str("token", token.ID.String()).
		Msg("receipt_service: token issued")

	return &dto.ReceiptTokenResponse{
		Token:     token.ID.String(),
		SaleID:    sale.ID.String(),
		ExpiresAt: token.ExpiresAt,
	}, nil
}

func (s *receiptService) View(ctx context.Context, token uuid.UUID) (*ReceiptDocument, error) {
	return s.resolve(ctx, token, true)
}

func (s *receiptService) Peek(ctx context.Context, token uuid.UUID) (*ReceiptDocument, error) {
	return s.resolve(ctx, token, false)
}

func (s *receiptService) resolve(ctx context.Context, id uuid.UUID, countView bool) (*ReceiptDocument, error) {
	token, err := s.receipts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if token.Expired(now) {
		return nil, &apierror.ExpiredError{Message: "receipt link has expired"}
	}

	sale, err := s.sales.FindByID(ctx, token.SaleID)
	if err != nil {
		return nil, err
	}
	business, err := s.businesses.FindByID(ctx, token.BusinessID)
	if err != nil {
		return nil, err
	}

	views := token.ViewCount
	if countView {
		views, err = s.receipts.RegisterView(ctx, token.ID, now)
		if err != nil {
			return nil, err
		}
		metrics.ReceiptViews.Inc()
	}

	return &ReceiptDocument{
		Token:     *token,
		Snapshot:  token.Parameters.Data(),
		Sale:      sale,
		Business:  business,
		ViewCount: views,
	}, nil
}

func (s *receiptService) MostViewed(ctx context.Context, who identity.Identity, limit int) ([]dto.MostViewedReceipt, error) {
	if limit <= 0 {
		limit = 10
	}
	tokens, err := s.receipts.MostViewed(ctx, who.BusinessID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MostViewedReceipt, 0, len(tokens))
	for _, t := range tokens {
		snap := t.Parameters.Data()
		out = append(out, dto.MostViewedReceipt{
			Token:        t.ID.String(),
			SaleID:       t.SaleID.String(),
			ClientName:   snap.ClientName,
			Total:        snap.Total,
			ViewCount:    t.ViewCount,
			LastViewedAt: t.LastViewedAt,
		})
	}
	return out, nil
}
