package repository

import (
	"context"

	"github.com/eslsoft/lvgames/internal/entity"
)

// ItemSource loads the vocabulary items a game draws from.
type ItemSource interface {
	Name() string
	Load(ctx context.Context) ([]entity.Item, error)
}
