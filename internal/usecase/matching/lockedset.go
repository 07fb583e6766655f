package matching

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/lvgames/internal/entity"
	"github.com/eslsoft/lvgames/pkg/rng"
)

// BuildLockedSet draws up to target ids from pool in random order, preferring
// items that appear in none of the recent sets.
func BuildLockedSet(pool []entity.Item, target int, recent [][]string, rnd rng.Source) []string {
	if target <= 0 || len(pool) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{})
	for _, set := range recent {
		for _, id := range set {
			seen[id] = struct{}{}
		}
	}

	ids := lo.Uniq(lo.Map(pool, func(item entity.Item, _ int) string { return item.ID }))
	rng.Shuffle(rnd, ids)

	isFresh := func(id string, _ int) bool {
		_, used := seen[id]
		return !used
	}
	fresh := lo.Filter(ids, isFresh)
	stale := lo.Reject(ids, isFresh)
	ordered := append(fresh, stale...)
	if target > len(ordered) {
		target = len(ordered)
	}
	return ordered[:target]
}

// MixResult describes a newly generated locked set.
type MixResult struct {
	IDs []string `json:"ids"`
	// Capped is set when fewer items than requested were available.
	Capped    bool `json:"capped"`
	Requested int  `json:"requested"`
}

// NewMix replaces the locked set with a fresh one of size items (the
// configured locked size when size <= 0) and starts serving it from the top.
func (e *Engine) NewMix(ctx context.Context, size int) (MixResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.items) == 0 {
		return MixResult{}, fmt.Errorf("new mix for %s: %w", e.opts.Game, entity.ErrNoItems)
	}
	if size <= 0 {
		size = e.config.LockedSize
	}

	ids := BuildLockedSet(e.items, size, e.recent, e.rand)
	e.locked = ids
	e.cursor = 0
	e.chain = map[string]int{}

	recent := append([][]string{append([]string{}, ids...)}, e.recent...)
	if len(recent) > e.opts.RecentSetsLimit {
		recent = recent[:e.opts.RecentSetsLimit]
	}
	e.recent = recent

	e.persistSchedule(ctx)
	e.persist(ctx, keyRecentSets, e.recent)

	result := MixResult{IDs: append([]string{}, ids...), Capped: size > len(e.items), Requested: size}
	e.log.WithFields(logrus.Fields{
		"size":   len(ids),
		"capped": result.Capped,
	}).Info("new locked set")
	return result, nil
}
