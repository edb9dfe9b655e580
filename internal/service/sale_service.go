package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rifapos/internal/apierror"
	"rifapos/internal/dto"
	"rifapos/internal/identity"
	"rifapos/internal/metrics"
	"rifapos/internal/model"
	"rifapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type SaleService interface {
	Checkout(ctx context.Context, who identity.Identity, req dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	GetSale(ctx context.Context, who identity.Identity, saleID uuid.UUID) (*dto.SaleResponse, error)
}

// Post-commit collaborators. Each is optional; a nil collaborator skips its step.
type (
	ProductCacheInvalidator interface {
		InvalidateProducts(ctx context.Context, businessID uuid.UUID) error
	}
	ReceiptIssuer interface {
		Issue(ctx context.Context, saleID uuid.UUID) (*dto.ReceiptTokenResponse, error)
	}
	TicketAllocator interface {
		AllocateForSale(ctx context.Context, saleID uuid.UUID) ([]dto.AllocationDetail, error)
	}
	ReceiptEmailQueue interface {
		EnqueueReceiptEmail(ctx context.Context, token uuid.UUID, to string) error
	}
)

// SaleServiceDeps groups the collaborators of NewSaleService.
type SaleServiceDeps struct {
	Tx      repository.Transactor
	Sales   repository.SaleRepository
	Members repository.MemberRepository
	Clients repository.ClientRepository
	Ledger  InventoryLedger

	ProductCache ProductCacheInvalidator
	Receipts     ReceiptIssuer
	Raffles      TicketAllocator
	Mail         ReceiptEmailQueue
}

type saleService struct {
	SaleServiceDeps
}

func NewSaleService(deps SaleServiceDeps) SaleService {
	return &saleService{SaleServiceDeps: deps}
}

// ── Checkout ─────────────────────────────────────────────────────────────────
// One READ COMMITTED transaction:
//   1. Resolve the seller (BusinessMember) and the optional client
//   2. Lock product/variant rows in submission order, verify stock
//   3. Price the cart from stored prices, compare with the submitted total
//   4. Persist sale + details + payment, decrement stock, write movements
//   5. COMMIT
//   6. Best-effort: cache invalidation, receipt token, raffle tickets, e-mail

func (s *saleService) Checkout(ctx context.Context, who identity.Identity, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	start := time.Now()
	resp, err := s.checkout(ctx, who, req)
	metrics.CheckoutDuration.Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = apierror.KindOf(err)
	}
	metrics.CheckoutTotal.WithLabelValues(outcome).Inc()
	return resp, err
}

func (s *saleService) checkout(ctx context.Context, who identity.Identity, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	lines, clientID, err := parseCart(req)
	if err != nil {
		return nil, err
	}

	sellerID, err := s.resolveSeller(ctx, who)
	if err != nil {
		return nil, err
	}

	var client *model.Client
	if clientID != nil {
		client, err = s.Clients.FindByID(ctx, *clientID)
		if err != nil {
			return nil, err
		}
		if client.BusinessID != who.BusinessID {
			return nil, apierror.NewAccessDenied("client belongs to another business")
		}
	}

	sale := model.Sale{
		ID:            uuid.New(),
		BusinessID:    who.BusinessID,
		ClientID:      clientID,
		SellerID:      sellerID,
		Status:        model.SaleStatusDelivered,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}

	txErr := s.Tx.InTx(ctx, func(tx *gorm.DB) error {
		reserved, err := s.Ledger.ReserveTx(tx, who.BusinessID, lines)
		if err != nil {
			return err
		}

		quote := QuoteCart(reserved)
		if err := ValidateTotal(*req.Total, quote.Total); err != nil {
			return err
		}

		sale.Total = quote.Total
		for _, l := range quote.Lines {
			sale.Details = append(sale.Details, model.SaleDetail{
				SaleID:           sale.ID,
				ProductID:        l.ProductID,
				ProductVariantID: l.VariantID,
				Quantity:         l.Quantity,
				UnitPrice:        l.UnitPrice,
				Subtotal:         l.Subtotal,
			})
		}
		sale.Payment = &model.Payment{
			SaleID: sale.ID,
			Amount: quote.Total,
			Method: req.PaymentMethod,
			Date:   time.Now(),
		}
		if err := s.Sales.CreateTx(tx, &sale); err != nil {
			return err
		}

		return s.Ledger.DecrementTx(tx, who.BusinessID, reserved, sale.ID)
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("sale_id", sale.ID.String()).
		Str("business_id", who.BusinessID.String()).
		Str("total", sale.Total.StringFixed(2)).
		Msg("sale_service: sale committed")

	resp := &dto.CheckoutResponse{Success: true, SaleID: sale.ID.String()}
	resp.ReceiptToken = s.enrich(context.WithoutCancel(ctx), &sale, client)
	return resp, nil
}

// enrich runs the post-commit steps. The sale is already durable, so every
// failure here is logged and swallowed. Returns the receipt token, if any.
func (s *saleService) enrich(ctx context.Context, sale *model.Sale, client *model.Client) *string {
	warn := func(step string, err error) {
		metrics.EnrichmentFailures.WithLabelValues(step).Inc()
		log.Warn().Err(err).
			Str("sale_id", sale.ID.String()).
			Str("step", step).
			Msg("sale_service: post-commit step failed")
	}

	if s.ProductCache != nil {
		if err := s.ProductCache.InvalidateProducts(ctx, sale.BusinessID); err != nil {
			warn("cache", err)
		}
	}

	var token *string
	var tokenID uuid.UUID
	if s.Receipts != nil {
		issued, err := s.Receipts.Issue(ctx, sale.ID)
		if err != nil {
			warn("receipt", err)
		} else {
			token = &issued.Token
			tokenID, _ = uuid.Parse(issued.Token)
		}
	}

	if s.Raffles != nil {
		if _, err := s.Raffles.AllocateForSale(ctx, sale.ID); err != nil {
			warn("raffle", err)
		}
	}

	if s.Mail != nil && token != nil && client != nil && client.Email != nil && *client.Email != "" {
		if err := s.Mail.EnqueueReceiptEmail(ctx, tokenID, *client.Email); err != nil {
			warn("email", err)
		}
	}
	return token
}

// resolveSeller maps the caller onto an active BusinessMember of the target
// business. A member id carried by the identity is verified, not trusted.
func (s *saleService) resolveSeller(ctx context.Context, who identity.Identity) (uuid.UUID, error) {
	var (
		member *model.BusinessMember
		err    error
	)
	if who.BusinessMemberID != nil {
		member, err = s.Members.FindByID(ctx, *who.BusinessMemberID)
	} else {
		member, err = s.Members.FindActive(ctx, who.BusinessID, who.UserID)
	}
	var nf *apierror.NotFoundError
	if errors.As(err, &nf) {
		return uuid.Nil, &apierror.SellerResolutionError{UserID: who.UserID, BusinessID: who.BusinessID}
	}
	if err != nil {
		return uuid.Nil, err
	}
	if member.BusinessID != who.BusinessID || member.UserID != who.UserID || member.Status != model.MemberStatusActive {
		return uuid.Nil, &apierror.SellerResolutionError{UserID: who.UserID, BusinessID: who.BusinessID}
	}
	return member.ID, nil
}

func parseCart(req dto.CheckoutRequest) ([]CartLine, *uuid.UUID, error) {
	if len(req.Items) == 0 {
		return nil, nil, apierror.NewValidation("items", "at least one item is required")
	}
	if req.Total == nil {
		return nil, nil, apierror.NewValidation("total", "total is required")
	}
	if req.Total.IsNegative() {
		return nil, nil, apierror.NewValidation("total", "total cannot be negative")
	}
	if req.PaymentMethod == "" {
		return nil, nil, apierror.NewValidation("paymentMethod", "paymentMethod is required")
	}

	lines := make([]CartLine, 0, len(req.Items))
	for i, item := range req.Items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, nil, apierror.NewValidation(fmt.Sprintf("items[%d].productId", i), "invalid productId")
		}
		line := CartLine{ProductID: pid, Quantity: item.Quantity}
		if item.VariantID != nil && *item.VariantID != "" {
			vid, err := uuid.Parse(*item.VariantID)
			if err != nil {
				return nil, nil, apierror.NewValidation(fmt.Sprintf("items[%d].variantId", i), "invalid variantId")
			}
			line.VariantID = &vid
		}
		if item.Quantity <= 0 {
			return nil, nil, apierror.NewValidation(fmt.Sprintf("items[%d].quantity", i), "quantity must be greater than zero")
		}
		lines = append(lines, line)
	}

	var clientID *uuid.UUID
	if req.ClientID != nil && *req.ClientID != "" {
		id, err := uuid.Parse(*req.ClientID)
		if err != nil {
			return nil, nil, apierror.NewValidation("clientId", "invalid clientId")
		}
		clientID = &id
	}
	return lines, clientID, nil
}

// ── GetSale ──────────────────────────────────────────────────────────────────

func (s *saleService) GetSale(ctx context.Context, who identity.Identity, saleID uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.Sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.BusinessID != who.BusinessID {
		return nil, apierror.NewAccessDenied("sale belongs to another business")
	}
	resp := saleToResponse(sale)
	return &resp, nil
}

func saleToResponse(s *model.Sale) dto.SaleResponse {
	details := make([]dto.SaleDetailResponse, 0, len(s.Details))
	for _, d := range s.Details {
		item := dto.SaleDetailResponse{
			ProductID: d.ProductID.String(),
			Quantity:  d.Quantity,
			UnitPrice: d.UnitPrice,
			Subtotal:  d.Subtotal,
		}
		if d.Product != nil {
			item.ProductName = d.Product.Name
		}
		if d.ProductVariantID != nil {
			vid := d.ProductVariantID.String()
			item.VariantID = &vid
		}
		if d.Variant != nil {
			item.VariantName = variantLabel(d.Variant)
		}
		details = append(details, item)
	}

	resp := dto.SaleResponse{
		ID:             s.ID.String(),
		BusinessID:     s.BusinessID.String(),
		ClientID:       uuidPtrString(s.ClientID),
		SellerID:       s.SellerID.String(),
		Total:          s.Total,
		Status:         s.Status,
		PaymentMethod:  s.PaymentMethod,
		Notes:          s.Notes,
		ReceiptTokenID: uuidPtrString(s.ReceiptTokenID),
		Details:        details,
		CreatedAt:      s.CreatedAt,
	}
	if s.Client != nil {
		resp.ClientName = s.Client.FullName()
	}
	if s.Seller != nil {
		resp.SellerName = s.Seller.DisplayName
	}
	if s.Payment != nil {
		resp.Payment = &dto.PaymentResponse{Amount: s.Payment.Amount, Method: s.Payment.Method, Date: s.Payment.Date}
	}
	return resp
}

func variantLabel(v *model.ProductVariant) string {
	switch {
	case v.Color != "" && v.Size != "":
		return v.Color + " / " + v.Size
	case v.Color != "":
		return v.Color
	default:
		return v.Size
	}
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
