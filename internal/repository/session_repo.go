package repository

import (
	"context"
	"time"

	"kasirless/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, s *model.StockSession) error
	// FindOpen returns the single open session, if any.
	FindOpen(ctx context.Context) (*model.StockSession, error)
	// FindLatestByDate returns the most recent session of a calendar date.
	FindLatestByDate(ctx context.Context, date time.Time) (*model.StockSession, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockSession, error)

	// CloseTx flips open→closed with an optimistic version check, so two
	// racing closes (or a close racing a stale replica) affect one row only.
	CloseTx(tx *gorm.DB, id uuid.UUID, version int, closedAt time.Time) (bool, error)

	CreateSnapshotTx(tx *gorm.DB, s *model.StockSnapshot) error
	SetFinalStockTx(tx *gorm.DB, sessionID, productID uuid.UUID, final int) error
	ListSnapshots(ctx context.Context, sessionID uuid.UUID) ([]model.StockSnapshot, error)

	DB() *gorm.DB
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) DB() *gorm.DB { return r.db }

func (r *sessionRepo) Create(ctx context.Context, tx *gorm.DB, s *model.StockSession) error {
	return tx.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) FindOpen(ctx context.Context) (*model.StockSession, error) {
	var s model.StockSession
	err := r.db.WithContext(ctx).Where("status = ?", model.SessionOpen).First(&s).Error
	return &s, err
}

func (r *sessionRepo) FindLatestByDate(ctx context.Context, date time.Time) (*model.StockSession, error) {
	var s model.StockSession
	err := r.db.WithContext(ctx).
		Where("session_date = ?", date.Format("2006-01-02")).
		Order("opened_at DESC").
		First(&s).Error
	return &s, err
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockSession, error) {
	var s model.StockSession
	err := r.db.WithContext(ctx).Preload("Snapshots.Product").First(&s, id).Error
	return &s, err
}

func (r *sessionRepo) CloseTx(tx *gorm.DB, id uuid.UUID, version int, closedAt time.Time) (bool, error) {
	res := tx.Model(&model.StockSession{}).
		Where("id = ? AND version = ? AND status = ?", id, version, model.SessionOpen).
		Updates(map[string]interface{}{
			"status":    model.SessionClosed,
			"closed_at": closedAt,
			"version":   version + 1,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *sessionRepo) CreateSnapshotTx(tx *gorm.DB, s *model.StockSnapshot) error {
	return tx.Create(s).Error
}

func (r *sessionRepo) SetFinalStockTx(tx *gorm.DB, sessionID, productID uuid.UUID, final int) error {
	return tx.Model(&model.StockSnapshot{}).
		Where("session_id = ? AND product_id = ?", sessionID, productID).
		Update("final_stock", final).Error
}

func (r *sessionRepo) ListSnapshots(ctx context.Context, sessionID uuid.UUID) ([]model.StockSnapshot, error) {
	var snaps []model.StockSnapshot
	err := r.db.WithContext(ctx).Preload("Product").
		Where("session_id = ?", sessionID).
		Find(&snaps).Error
	return snaps, err
}
