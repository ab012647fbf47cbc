package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/promoter-dashboard/backend/internal/models"
	"go.uber.org/zap"
)

type careStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.CareBoard, error)
	Update(ctx context.Context, userID uuid.UUID, fn func(*models.CareBoard) error) (*models.CareBoard, error)
}

// CareService manages the per-user family care board.
type CareService struct {
	store careStore
	now   func() time.Time
	log   *zap.Logger
}

func NewCareService(store careStore, now func() time.Time, log *zap.Logger) *CareService {
	if now == nil {
		now = time.Now
	}
	return &CareService{store: store, now: now, log: log}
}

func (s *CareService) Board(ctx context.Context, userID uuid.UUID) (*models.CareBoard, error) {
	return s.store.Get(ctx, userID)
}

func (s *CareService) SetFamilyName(ctx context.Context, userID uuid.UUID, name string) (*models.CareBoard, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: family name is required", ErrInvalidInput)
	}
	return s.store.Update(ctx, userID, func(b *models.CareBoard) error {
		b.FamilyName = name
		b.UpdatedAt = s.now()
		return nil
	})
}

func (s *CareService) SetSenior(ctx context.Context, userID uuid.UUID, senior models.Senior) (*models.CareBoard, error) {
	senior.Name = strings.TrimSpace(senior.Name)
	if senior.Name == "" {
		return nil, fmt.Errorf("%w: senior name is required", ErrInvalidInput)
	}
	now := s.now()
	return s.store.Update(ctx, userID, func(b *models.CareBoard) error {
		if b.Senior != nil && !b.Senior.CreatedAt.IsZero() {
			senior.CreatedAt = b.Senior.CreatedAt
		} else {
			senior.CreatedAt = now
		}
		b.Senior = &senior
		b.UpdatedAt = now
		return nil
	})
}

// Push appends an item to list and returns the stored item.
func (s *CareService) Push(ctx context.Context, userID uuid.UUID, list string, raw json.RawMessage) (any, error) {
	var item any
	_, err := s.store.Update(ctx, userID, func(b *models.CareBoard) error {
		var err error
		item, err = b.Push(list, raw, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("care item added", zap.String("user_id", userID.String()), zap.String("list", list))
	return item, nil
}

func (s *CareService) Remove(ctx context.Context, userID uuid.UUID, list string, id int) (*models.CareBoard, error) {
	return s.store.Update(ctx, userID, func(b *models.CareBoard) error {
		return b.Remove(list, id, s.now())
	})
}

func (s *CareService) Replace(ctx context.Context, userID uuid.UUID, list string, raw json.RawMessage) (*models.CareBoard, error) {
	return s.store.Update(ctx, userID, func(b *models.CareBoard) error {
		return b.Replace(list, raw, s.now())
	})
}

func (s *CareService) ToggleBill(ctx context.Context, userID uuid.UUID, id int) (*models.Bill, error) {
	var bill *models.Bill
	_, err := s.store.Update(ctx, userID, func(b *models.CareBoard) error {
		var err error
		bill, err = b.ToggleBill(id, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}
