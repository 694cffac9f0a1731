//go:build integration

package worker_test

import (
	"context"
	"encoding/json"
	"testing"

	"kasirless/internal/infra"
	"kasirless/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(rdURL)
	require.NoError(t, err)
	return rdb
}

func TestSendToDLQBuriesEntry(t *testing.T) {
	ctx := context.Background()
	rdb := redisClient(t)

	payload := json.RawMessage(`{"order_id":"not-a-uuid"}`)
	worker.SendToDLQ(ctx, rdb, worker.QueuePaymentRecheck, "payment_recheck", payload, "bad order id", 3)

	n, err := worker.DLQLength(ctx, rdb, worker.QueuePaymentRecheck)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	raw, err := rdb.RPop(ctx, worker.DLQPrefix+worker.QueuePaymentRecheck).Result()
	require.NoError(t, err)

	var entry worker.DLQEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entry))
	assert.Equal(t, worker.QueuePaymentRecheck, entry.OriginalQueue)
	assert.Equal(t, "payment_recheck", entry.JobType)
	assert.Equal(t, "bad order id", entry.Reason)
	assert.Equal(t, 3, entry.Attempts)
	assert.JSONEq(t, string(payload), string(entry.Payload))
	assert.NotEmpty(t, entry.FailedAt)
}

func TestDLQLengthCountsOnlyOwnQueue(t *testing.T) {
	ctx := context.Background()
	rdb := redisClient(t)

	n, err := worker.DLQLength(ctx, rdb, worker.QueuePaymentRecheck)
	require.NoError(t, err)
	assert.Zero(t, n)

	worker.SendToDLQ(ctx, rdb, worker.QueuePaymentRecheck, "payment_recheck", nil, "provider timeout", 3)
	worker.SendToDLQ(ctx, rdb, worker.QueuePaymentRecheck, "payment_recheck", nil, "provider timeout", 3)
	worker.SendToDLQ(ctx, rdb, "jobs:other", "other", nil, "x", 1)

	n, err = worker.DLQLength(ctx, rdb, worker.QueuePaymentRecheck)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
