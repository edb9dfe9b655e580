package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	QueueReceiptEmail = "jobs:receipt_email"

	JobReceiptEmail = "receipt_email"

	// MaxJobAttempts bounds in-process retries before a job is dead-lettered.
	MaxJobAttempts = 3
)

// retryBaseDelay is the first backoff step; tests shrink it.
var retryBaseDelay = time.Second

// ErrDiscard marks a job that can never succeed (unknown receipt, expired
// link). It is dropped without retries and without a DLQ entry.
var ErrDiscard = errors.New("job discarded")

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ReceiptEmailPayload asks the worker to mail the receipt behind Token.
type ReceiptEmailPayload struct {
	Token uuid.UUID `json:"token"`
	To    string    `json:"to"`
}

// Handler processes the payload of one job type.
type Handler interface {
	Handle(ctx context.Context, payload json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb redis.UniversalClient
}

func NewDispatcher(rdb redis.UniversalClient) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReceiptEmail pushes a receipt e-mail job to Redis.
func (d *Dispatcher) EnqueueReceiptEmail(ctx context.Context, token uuid.UUID, to string) error {
	return d.enqueue(ctx, QueueReceiptEmail, JobReceiptEmail, ReceiptEmailPayload{Token: token, To: to})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	if err := d.rdb.LPush(ctx, queue, encoded).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", jobType, err)
	}
	return nil
}

// Pool consumes job queues with a fixed number of goroutines.
type Pool struct {
	rdb      redis.UniversalClient
	size     int
	queues   []string
	handlers map[string]Handler // by job type
	jobQueue map[string]string  // job type → queue, for DLQ entries
}

func NewPool(rdb redis.UniversalClient, size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{
		rdb:      rdb,
		size:     size,
		handlers: make(map[string]Handler),
		jobQueue: make(map[string]string),
	}
}

// Register routes jobType, read from queue, to h. Call before Run.
func (p *Pool) Register(queue, jobType string, h Handler) {
	p.handlers[jobType] = h
	p.jobQueue[jobType] = queue
	for _, q := range p.queues {
		if q == queue {
			return
		}
	}
	p.queues = append(p.queues, queue)
}

// Run blocks until ctx is cancelled and every worker has returned.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func (p *Pool) Run(ctx context.Context) error {
	if len(p.queues) == 0 {
		<-ctx.Done()
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.size; i++ {
		id := i
		g.Go(func() error {
			p.runWorker(gctx, id)
			return nil
		})
	}
	log.Info().Int("workers", p.size).Strs("queues", p.queues).Msg("worker pool started")
	return g.Wait()
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker: shutting down")
			return
		default:
			// Blocking pop; waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					log.Error().Err(err).Int("worker", id).Msg("worker: BRPOP failed")
					time.Sleep(time.Second)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.processJob(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("worker: failed to unmarshal job")
		quoted, _ := json.Marshal(raw)
		SendToDLQ(ctx, p.rdb, queue, "", quoted, "malformed job: "+err.Error(), 0)
		return
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		log.Error().Str("type", job.Type).Str("queue", queue).Msg("worker: no handler for job type")
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, "no handler registered", 0)
		return
	}

	attempts := 0
	err := withRetry(ctx, MaxJobAttempts, func(int) error {
		attempts++
		err := h.Handle(ctx, job.Payload)
		if errors.Is(err, ErrDiscard) {
			return nil
		}
		return err
	})
	if err != nil && ctx.Err() == nil {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), attempts)
	}
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = base, 3 = 2*base.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * retryBaseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
