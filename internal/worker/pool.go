package worker

import (
	"context"
	"encoding/json"
	"time"

	"kasirless/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueuePaymentRecheck = "jobs:payment_recheck"

	maxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// RecheckPayload asks a worker to query the provider for a pending invoice.
type RecheckPayload struct {
	OrderID string `json:"order_id"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueuePaymentRecheck pushes a recheck job for a stale pending order.
func (d *Dispatcher) EnqueuePaymentRecheck(ctx context.Context, orderID uuid.UUID) error {
	return d.enqueue(ctx, QueuePaymentRecheck, "payment_recheck", RecheckPayload{OrderID: orderID.String()}, 0)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}, attempts int) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data, Attempts: attempts})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the job queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, orders service.OrderService, numWorkers int) {
	d := NewDispatcher(rdb)
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, d, orders, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, d *Dispatcher, orders service.OrderService, id int) {
	queues := []string{QueuePaymentRecheck}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, d, orders, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, d *Dispatcher, orders service.OrderService, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	switch job.Type {
	case "payment_recheck":
		var payload RecheckPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, "bad payload: "+err.Error(), job.Attempts)
			return
		}
		orderID, err := uuid.Parse(payload.OrderID)
		if err != nil {
			SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, "bad order id", job.Attempts)
			return
		}
		if err := orders.RecheckPendingPayment(ctx, orderID); err != nil {
			retryOrBury(ctx, rdb, d, queue, job, err)
			return
		}
	default:
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("unknown job type")
	}
}

// retryOrBury re-enqueues a failed job until maxAttempts, then moves it to
// the dead letter queue.
func retryOrBury(ctx context.Context, rdb *redis.Client, d *Dispatcher, queue string, job Job, cause error) {
	attempts := job.Attempts + 1
	if attempts >= maxAttempts {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, cause.Error(), attempts)
		return
	}
	log.Warn().Err(cause).Int("attempts", attempts).Str("type", job.Type).Msg("job failed, re-enqueueing")
	encoded, err := json.Marshal(Job{Type: job.Type, Payload: job.Payload, Attempts: attempts})
	if err != nil {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, "re-marshal: "+err.Error(), attempts)
		return
	}
	if err := rdb.LPush(ctx, queue, encoded).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("re-enqueue failed")
	}
}
