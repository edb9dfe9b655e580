// Package metrics declares the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rifapos"

var (
	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Checkout
	CheckoutTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Checkouts by outcome (ok or the error type that aborted them)",
		},
		[]string{"outcome"},
	)
	CheckoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "Duration of the checkout transaction in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	EnrichmentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_enrichment_failures_total",
			Help:      "Post-commit steps that failed and were skipped",
		},
		[]string{"step"},
	)

	// Raffles
	TicketsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "raffle_tickets_issued_total",
		Help:      "Raffle tickets issued by live allocation, backfill or reconciliation",
	})
	RaffleDraws = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "raffle_draws_total",
		Help:      "Completed raffle draw rounds",
	})

	// Receipts
	ReceiptViews = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "receipt_views_total",
		Help:      "Successful public receipt views",
	})
	ReceiptEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipt_emails_total",
			Help:      "Receipt e-mails by outcome",
		},
		[]string{"outcome"},
	)

	// Product list cache
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_cache_lookups_total",
			Help:      "Product list cache lookups by result (hit or miss)",
		},
		[]string{"result"},
	)
)
