package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eslsoft/lvgames/internal/entity"
	"github.com/eslsoft/lvgames/internal/repository"
)

type memoryResultRepository struct {
	mu    sync.RWMutex
	items []entity.SessionResult
	clock func() time.Time
}

// NewMemoryResultRepository returns a ResultRepository kept in process memory.
func NewMemoryResultRepository() repository.ResultRepository {
	return &memoryResultRepository{clock: time.Now}
}

func (r *memoryResultRepository) Save(ctx context.Context, result *entity.SessionResult) (*entity.SessionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("save result: %w", entity.ErrInvalidItem)
	}
	copy := *result
	copy.Normalize(r.clock())
	copy.Game = normalizeGame(copy.Game)
	if copy.ID == "" {
		copy.ID = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, copy)
	return &copy, nil
}

func (r *memoryResultRepository) List(ctx context.Context, query *repository.ListResultQuery) ([]entity.SessionResult, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if query == nil {
		query = &repository.ListResultQuery{}
	}
	game := normalizeGame(query.Game)

	r.mu.RLock()
	filtered := make([]entity.SessionResult, 0, len(r.items))
	for _, item := range r.items {
		if game != "" && item.Game != game {
			continue
		}
		if !query.Since.IsZero() && item.Timestamp.Before(query.Since) {
			continue
		}
		filtered = append(filtered, item)
	}
	r.mu.RUnlock()

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Timestamp.Equal(filtered[j].Timestamp) {
			return filtered[i].ID < filtered[j].ID
		}
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})

	total := int64(len(filtered))
	if query.PageSize <= 0 {
		return filtered, total, nil
	}
	start := int(query.Offset())
	if start >= len(filtered) {
		return []entity.SessionResult{}, total, nil
	}
	end := min(start+int(query.PageSize), len(filtered))
	return filtered[start:end], total, nil
}

func (r *memoryResultRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	var removed int64
	for _, item := range r.items {
		if item.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	r.items = kept
	return removed, nil
}
