package handler

import (
	"net/http"

	"kasirless/internal/infra"
	"kasirless/internal/realtime"
	"kasirless/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	rdb     *redis.Client
	hub     *realtime.Hub
	breaker *infra.CircuitBreaker
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client, hub *realtime.Hub, breaker *infra.CircuitBreaker) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb, hub: hub, breaker: breaker}
}

// Check godoc
// @Summary Service health with dependency status
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	status := http.StatusOK

	dbStatus := "up"
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = "down"
		status = http.StatusServiceUnavailable
	}

	redisStatus := "up"
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		redisStatus = "down"
		status = http.StatusServiceUnavailable
	}

	// Buried payment rechecks are orders stuck in payment limbo; surface the
	// count so a growing DLQ shows up on the dashboard.
	dlqDepth, err := worker.DLQLength(ctx, h.rdb, worker.QueuePaymentRecheck)
	if err != nil {
		dlqDepth = -1
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":          overall,
		"database":        dbStatus,
		"redis":           redisStatus,
		"kitchen_clients": h.hub.ClientCount(),
		"payment_breaker": h.breaker.State().String(),
		"payment_dlq":     dlqDepth,
	})
}
