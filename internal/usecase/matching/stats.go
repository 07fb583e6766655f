package matching

import (
	"context"
	"fmt"
	"strings"

	"github.com/eslsoft/lvgames/internal/entity"
)

// RecordResult updates the stats of item after an answer and persists them.
// A miss in locked mode with prioritization enabled bumps the item forward;
// a correct answer clears its priority chain. Storage failures never surface here.
func (e *Engine) RecordResult(ctx context.Context, item entity.Item, correct bool) (entity.ItemStats, error) {
	id := strings.TrimSpace(item.ID)
	if id == "" {
		return entity.ItemStats{}, fmt.Errorf("record result: %w", entity.ErrInvalidItem)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.stats[id]
	if correct {
		st.Correct++
		if _, ok := e.chain[id]; ok {
			delete(e.chain, id)
			e.persist(ctx, keyPriorityChain, e.chain)
		}
	} else {
		st.Incorrect++
		if e.config.Prioritize && e.config.Mode == entity.GameModeLocked {
			e.bumpLocked(ctx, id)
		}
	}
	st.LastSeen = e.clock()
	e.stats[id] = st
	e.persist(ctx, keyStats, e.stats)
	return st, nil
}

// Stats returns a copy of the per-item statistics.
func (e *Engine) Stats() entity.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.Clone()
}
