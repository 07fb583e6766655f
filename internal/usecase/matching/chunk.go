package matching

import (
	"context"

	"github.com/samber/lo"

	"github.com/eslsoft/lvgames/internal/entity"
	"github.com/eslsoft/lvgames/pkg/rng"
)

// Chunk is a slice of items served for one round.
type Chunk struct {
	Items []entity.Item `json:"items"`
	IDs   []string      `json:"ids"`
	Start int           `json:"start"`
}

// Empty reports whether the chunk carries no items.
func (c Chunk) Empty() bool { return len(c.IDs) == 0 }

type chunkConfig struct {
	start    int
	hasStart bool
	advance  bool
}

// ChunkOption adjusts a single GetChunk call.
type ChunkOption func(*chunkConfig)

// WithStartIndex serves from index instead of the cursor.
func WithStartIndex(index int) ChunkOption {
	return func(c *chunkConfig) {
		c.start = index
		c.hasStart = true
	}
}

// WithoutAdvance leaves the cursor in place, so the same slice can be redrawn.
func WithoutAdvance() ChunkOption {
	return func(c *chunkConfig) {
		c.advance = false
	}
}

// GetChunk returns up to count items of the locked order starting at the
// cursor, wrapping around its end. An empty locked order yields an empty chunk.
func (e *Engine) GetChunk(ctx context.Context, count int, opts ...ChunkOption) Chunk {
	cfg := chunkConfig{advance: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.locked)
	if n == 0 || count <= 0 {
		return Chunk{Items: []entity.Item{}, IDs: []string{}}
	}
	start := e.cursor
	if cfg.hasStart {
		start = wrapIndex(cfg.start, n)
	}
	if count > n {
		count = n
	}

	chunk := Chunk{
		Items: make([]entity.Item, 0, count),
		IDs:   make([]string, 0, count),
		Start: start,
	}
	for i := 0; i < count; i++ {
		id := e.locked[(start+i)%n]
		item, _ := e.itemLocked(id)
		chunk.Items = append(chunk.Items, item)
		chunk.IDs = append(chunk.IDs, id)
	}

	if cfg.advance {
		e.cursor = (start + count) % n
		e.persist(ctx, keyCursor, e.cursor)
	}
	return chunk
}

// SampleRandom draws up to count distinct items from the whole deck,
// ignoring the locked order and cursor.
func (e *Engine) SampleRandom(count int) Chunk {
	e.mu.Lock()
	defer e.mu.Unlock()

	if count <= 0 || len(e.items) == 0 {
		return Chunk{Items: []entity.Item{}, IDs: []string{}}
	}
	items := rng.Shuffled(e.rand, e.items)
	if count < len(items) {
		items = items[:count]
	}
	return Chunk{
		Items: items,
		IDs:   lo.Map(items, func(item entity.Item, _ int) string { return item.ID }),
	}
}
