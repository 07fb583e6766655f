package repository

import (
	"context"
	"time"

	"github.com/eslsoft/lvgames/internal/entity"
)

// ListResultQuery holds parameters for listing session results.
type ListResultQuery struct {
	Pagination

	Game  string
	Since time.Time
}

// ResultRepository stores finished session results for export and review.
type ResultRepository interface {
	Save(ctx context.Context, result *entity.SessionResult) (*entity.SessionResult, error)
	List(ctx context.Context, query *ListResultQuery) ([]entity.SessionResult, int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
