package service

import (
	"context"
	"errors"
	"time"

	"kasirless/internal/apperr"
	"kasirless/internal/dto"
	"kasirless/internal/model"
	"kasirless/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Daily session status values as exposed to clients.
const (
	StatusOpen           = "open"
	StatusClosed         = "closed"
	StatusNoSessionToday = "no-session-today"
)

type StockService interface {
	// Status answers the public "is the shop taking orders" probe.
	Status(ctx context.Context) (*dto.SessionStatusResponse, error)

	// OpenSession starts the day: applies opening stock values and snapshots
	// every tracked product. Fails when a session is already open.
	OpenSession(ctx context.Context, req dto.OpenSessionRequest) (*model.StockSession, error)
	// CloseSession ends the day: records final stock on every snapshot and
	// flips the session closed. The closed session is immutable afterwards.
	CloseSession(ctx context.Context) (*model.StockSession, error)
	// DailySession returns the most recent session of a calendar date with
	// its snapshots, for the end-of-day report.
	DailySession(ctx context.Context, date time.Time) (*model.StockSession, []model.StockSnapshot, error)

	// AdjustStock writes an absolute stock value mid-session (spillage,
	// miscount). The delta lands in the movement ledger.
	AdjustStock(ctx context.Context, productID uuid.UUID, value int, reason string) (*model.Product, error)
	ListTracked(ctx context.Context) ([]model.Product, error)
	// Movements returns a product's recent ledger rows, newest first.
	Movements(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error)
}

type stockService struct {
	sessions  repository.SessionRepository
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	// now is swappable for deterministic session dates in tests.
	now func() time.Time
}

func NewStockService(
	sessions repository.SessionRepository,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
) StockService {
	return &stockService{
		sessions:  sessions,
		products:  products,
		movements: movements,
		now:       time.Now,
	}
}

func (s *stockService) Status(ctx context.Context) (*dto.SessionStatusResponse, error) {
	_, err := s.sessions.FindOpen(ctx)
	if err == nil {
		return &dto.SessionStatusResponse{Status: StatusOpen}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	_, err = s.sessions.FindLatestByDate(ctx, s.now())
	if err == nil {
		return &dto.SessionStatusResponse{Status: StatusClosed}, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &dto.SessionStatusResponse{Status: StatusNoSessionToday}, nil
	}
	return nil, err
}

func (s *stockService) OpenSession(ctx context.Context, req dto.OpenSessionRequest) (*model.StockSession, error) {
	if _, err := s.sessions.FindOpen(ctx); err == nil {
		return nil, apperr.ErrSessionAlreadyOpen
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Tracked products not named in the request keep their current value and
	// are snapshotted with it.
	tracked, err := s.products.ListTracked(ctx)
	if err != nil {
		return nil, err
	}

	entries := make(map[uuid.UUID]int, len(req.InitialStocks))
	for _, e := range req.InitialStocks {
		pid, err := uuid.Parse(e.ProductID)
		if err != nil {
			return nil, apperr.ErrProductUnavailable
		}
		entries[pid] = e.InitialStock
	}

	openedAt := s.now()
	session := &model.StockSession{
		SessionDate: openedAt.Truncate(24 * time.Hour),
		Status:      model.SessionOpen,
		OpenedAt:    openedAt,
	}

	err = runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		if err := s.sessions.Create(ctx, tx, session); err != nil {
			// The partial unique index on open sessions turns a racing open
			// into a constraint violation here; the loser gets the same
			// conflict as one that saw the open session up front.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.ErrSessionAlreadyOpen
			}
			return err
		}

		snapshotted := make(map[uuid.UUID]bool, len(entries))
		sessionRef := session.ID
		for pid, value := range entries {
			before, err := s.products.FindByIDTx(tx, pid)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.ErrProductUnavailable
				}
				return err
			}
			if err := s.products.SetStockTx(tx, pid, value); err != nil {
				return err
			}
			prev := 0
			if before.CurrentStock != nil {
				prev = *before.CurrentStock
			}
			if prev != value {
				if err := s.movements.CreateTx(tx, &model.StockMovement{
					ProductID:   pid,
					Kind:        "adjustment",
					Quantity:    value - prev,
					StockBefore: prev,
					StockAfter:  value,
					Reason:      "session open",
					RefID:       &sessionRef,
				}); err != nil {
					return err
				}
			}
			if err := s.sessions.CreateSnapshotTx(tx, &model.StockSnapshot{
				SessionID:    session.ID,
				ProductID:    pid,
				InitialStock: value,
			}); err != nil {
				return err
			}
			snapshotted[pid] = true
		}

		for i := range tracked {
			p := &tracked[i]
			if snapshotted[p.ID] {
				continue
			}
			if err := s.sessions.CreateSnapshotTx(tx, &model.StockSnapshot{
				SessionID:    session.ID,
				ProductID:    p.ID,
				InitialStock: *p.CurrentStock,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *stockService) CloseSession(ctx context.Context) (*model.StockSession, error) {
	session, err := s.sessions.FindOpen(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNoOpenSession
		}
		return nil, err
	}

	closedAt := s.now()
	err = runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		snaps, err := s.sessions.ListSnapshots(ctx, session.ID)
		if err != nil {
			return err
		}
		for _, snap := range snaps {
			p, err := s.products.FindByIDTx(tx, snap.ProductID)
			if err != nil {
				return err
			}
			final := 0
			if p.CurrentStock != nil {
				final = *p.CurrentStock
			}
			if err := s.sessions.SetFinalStockTx(tx, session.ID, snap.ProductID, final); err != nil {
				return err
			}
		}

		ok, err := s.sessions.CloseTx(tx, session.ID, session.Version, closedAt)
		if err != nil {
			return err
		}
		// The version check lost: someone else already closed it.
		if !ok {
			return apperr.ErrNoOpenSession
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	session.Status = model.SessionClosed
	session.ClosedAt = &closedAt
	session.Version++
	return session, nil
}

func (s *stockService) DailySession(ctx context.Context, date time.Time) (*model.StockSession, []model.StockSnapshot, error) {
	session, err := s.sessions.FindLatestByDate(ctx, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.ErrNoOpenSession
		}
		return nil, nil, err
	}
	snaps, err := s.sessions.ListSnapshots(ctx, session.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, snaps, nil
}

func (s *stockService) AdjustStock(ctx context.Context, productID uuid.UUID, value int, reason string) (*model.Product, error) {
	var updated *model.Product
	err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		before, err := s.products.FindByIDTx(tx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrProductUnavailable
			}
			return err
		}
		if err := s.products.SetStockTx(tx, productID, value); err != nil {
			return err
		}
		prev := 0
		if before.CurrentStock != nil {
			prev = *before.CurrentStock
		}
		if err := s.movements.CreateTx(tx, &model.StockMovement{
			ProductID:   productID,
			Kind:        "adjustment",
			Quantity:    value - prev,
			StockBefore: prev,
			StockAfter:  value,
			Reason:      reason,
		}); err != nil {
			return err
		}
		before.CurrentStock = &value
		updated = before
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *stockService) ListTracked(ctx context.Context) ([]model.Product, error) {
	return s.products.ListTracked(ctx)
}

func (s *stockService) Movements(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	return s.movements.ListByProduct(ctx, productID, limit)
}
