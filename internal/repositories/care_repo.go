package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/promoter-dashboard/backend/internal/models"
)

const careUpdateRetries = 5


// CareRepo stores one JSON care board per user in Redis.
type CareRepo struct {
	rdb *redis.Client
}

func NewCareRepo(rdb *redis.Client) *CareRepo {
	return &CareRepo{rdb: rdb}
}

func careBoardKey(userID uuid.UUID) string {
	return "care:board:" + userID.String()
}

// Get returns the stored board or an empty one.
func (r *CareRepo) Get(ctx context.Context, userID uuid.UUID) (*models.CareBoard, error) {
	return loadCareBoard(ctx, r.rdb, careBoardKey(userID))
}

// Update applies fn under WATCH so concurrent writers from several tabs do
// not lose each other's items.
func (r *CareRepo) Update(ctx context.Context, userID uuid.UUID, fn func(*models.CareBoard) error) (*models.CareBoard, error) {
	key := careBoardKey(userID)
	var result *models.CareBoard

	txf := func(tx *redis.Tx) error {
		board, err := loadCareBoard(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := fn(board); err != nil {
			return err
		}
		data, err := json.Marshal(board)
		if err != nil {
			return fmt.Errorf("marshal care board: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err == nil {
			result = board
		}
		return err
	}

	for i := 0; i < careUpdateRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, models.ErrCareConflict
}

func loadCareBoard(ctx context.Context, c redis.Cmdable, key string) (*models.CareBoard, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.NewCareBoard(), nil
	}
	if err != nil {
		return nil, err
	}

	board := models.NewCareBoard()
	if err := json.Unmarshal(data, board); err != nil {
		return nil, fmt.Errorf("decode care board: %w", err)
	}
	board.Normalize()
	return board, nil
}
