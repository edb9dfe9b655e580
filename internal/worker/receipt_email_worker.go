package worker

// receipt_email_worker.go
// Processes jobs from QueueReceiptEmail: resolves the receipt without counting
// a view, renders the PDF and mails it through the SMTP circuit breaker.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"rifapos/internal/apierror"
	"rifapos/internal/infra"
	"rifapos/internal/metrics"
	"rifapos/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type receiptPeeker interface {
	Peek(ctx context.Context, token uuid.UUID) (*service.ReceiptDocument, error)
}

type receiptRenderer interface {
	Render(w io.Writer, doc *service.ReceiptDocument) error
}

type receiptMailer interface {
	SendReceipt(to, subject, body string, pdf []byte, filename string) error
}

// ReceiptEmailWorker mails receipt PDFs to customers.
type ReceiptEmailWorker struct {
	receipts receiptPeeker
	renderer receiptRenderer
	mailer   receiptMailer
	cb       *infra.CircuitBreaker
}

func NewReceiptEmailWorker(receipts receiptPeeker, renderer receiptRenderer, mailer receiptMailer, cb *infra.CircuitBreaker) *ReceiptEmailWorker {
	return &ReceiptEmailWorker{receipts: receipts, renderer: renderer, mailer: mailer, cb: cb}
}

// Handle implements Handler.
func (w *ReceiptEmailWorker) Handle(ctx context.Context, raw json.RawMessage) error {
	var payload ReceiptEmailPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_email: invalid payload")
		metrics.ReceiptEmails.WithLabelValues("discarded").Inc()
		return ErrDiscard
	}
	if payload.To == "" {
		log.Warn().Str("token", payload.Token.String()).Msg("receipt_email: empty recipient, skipping")
		metrics.ReceiptEmails.WithLabelValues("discarded").Inc()
		return ErrDiscard
	}

	doc, err := w.receipts.Peek(ctx, payload.Token)
	if err != nil {
		switch apierror.KindOf(err) {
		case apierror.KindNotFound, apierror.KindExpired:
			log.Warn().Err(err).Str("token", payload.Token.String()).Msg("receipt_email: receipt unavailable, skipping")
			metrics.ReceiptEmails.WithLabelValues("discarded").Inc()
			return ErrDiscard
		}
		return fmt.Errorf("receipt_email: load receipt: %w", err)
	}

	var pdf bytes.Buffer
	if err := w.renderer.Render(&pdf, doc); err != nil {
		return fmt.Errorf("receipt_email: render: %w", err)
	}

	subject := fmt.Sprintf("%s: your receipt", doc.Business.Name)
	body := fmt.Sprintf("Hi %s,\n\nAttached is the receipt for your purchase at %s.\n",
		doc.Snapshot.ClientName, doc.Business.Name)
	filename := "receipt-" + doc.Sale.ID.String() + ".pdf"

	err = w.cb.Execute(func() error {
		return w.mailer.SendReceipt(payload.To, subject, body, pdf.Bytes(), filename)
	})
	if err != nil {
		outcome := "failed"
		if errors.Is(err, infra.ErrCircuitOpen) {
			outcome = "circuit_open"
		}
		metrics.ReceiptEmails.WithLabelValues(outcome).Inc()
		return fmt.Errorf("receipt_email: send to %s: %w", payload.To, err)
	}

	metrics.ReceiptEmails.WithLabelValues("sent").Inc()
	log.Info().Str("to", payload.To).Str("sale_id", doc.Sale.ID.String()).Msg("receipt_email: sent")
	return nil
}
