// Package matching implements the round scheduler shared by the matching games:
// locked-set sampling, cursor-based chunk serving and mistake prioritization.
package matching

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/lvgames/internal/entity"
	"github.com/eslsoft/lvgames/internal/repository"
	"github.com/eslsoft/lvgames/pkg/rng"
)

// Engine holds the scheduling state of one game. All methods are safe for
// concurrent use; state changes are serialized.
type Engine struct {
	mu sync.Mutex

	opts  Options
	store repository.KVStore
	log   *logrus.Entry
	rand  rng.Source
	clock func() time.Time

	items []entity.Item
	index map[string]int

	config   entity.GameConfig
	locked   []string
	cursor   int
	chain    map[string]int
	recent   [][]string
	stats    entity.Stats
	degraded bool
}

// NewEngine creates an engine persisting into store. A nil store keeps the
// state in memory only.
func NewEngine(store repository.KVStore, logger *logrus.Logger, opts Options, options ...EngineOption) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	opts = opts.normalized()
	e := &Engine{
		opts:   opts,
		store:  store,
		log:    logger.WithField("game", opts.Game),
		rand:   rng.New(0),
		clock:  time.Now,
		index:  map[string]int{},
		config: opts.Defaults,
		chain:  map[string]int{},
		stats:  entity.Stats{},
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Game returns the name the engine namespaces its state under.
func (e *Engine) Game() string { return e.opts.Game }

// Load installs the deck and restores the persisted state, dropping anything
// that refers to items outside the deck. Unreadable state is logged and the
// engine continues with what it holds in memory.
func (e *Engine) Load(ctx context.Context, items []entity.Item) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.items = lo.UniqBy(items, func(item entity.Item) string { return item.ID })
	e.index = make(map[string]int, len(e.items))
	for i, item := range e.items {
		e.index[item.ID] = i
	}

	// Values missing from the store keep their in-memory state.
	config := e.config
	if _, err := e.readJSON(ctx, keyConfig, &config); err != nil {
		e.warnLoad(err)
		config = e.opts.Defaults
	}
	if err := config.Validate(e.opts.Defaults); err != nil {
		e.log.WithError(err).Warn("stored config invalid, using defaults")
		config = e.opts.Defaults
	}
	e.config = config

	locked := loadOr(ctx, e, keyActiveSet, e.locked)
	cursor := loadOr(ctx, e, keyCursor, e.cursor)
	chain := loadOr(ctx, e, keyPriorityChain, e.chain)
	recent := loadOr(ctx, e, keyRecentSets, e.recent)
	stats := loadOr(ctx, e, keyStats, e.stats)

	e.locked = e.sanitizeIDs(locked)
	e.cursor = wrapIndex(cursor, len(e.locked))
	e.chain = make(map[string]int, len(chain))
	for id, n := range chain {
		if n > 0 && lo.Contains(e.locked, id) {
			e.chain[id] = n
		}
	}
	e.recent = make([][]string, 0, len(recent))
	for _, set := range recent {
		if ids := e.sanitizeIDs(set); len(ids) > 0 {
			e.recent = append(e.recent, ids)
		}
	}
	if len(e.recent) > e.opts.RecentSetsLimit {
		e.recent = e.recent[:e.opts.RecentSetsLimit]
	}
	e.stats = stats.Clone()

	e.log.WithFields(logrus.Fields{
		"deck":   len(e.items),
		"locked": len(e.locked),
		"cursor": e.cursor,
	}).Debug("engine loaded")
}

func (e *Engine) warnLoad(err error) {
	e.log.WithError(err).Warn("load state failed, continuing in memory")
	e.degraded = true
}

// sanitizeIDs keeps the deck ids of ids, in order and without duplicates.
func (e *Engine) sanitizeIDs(ids []string) []string {
	out := lo.Filter(lo.Uniq(ids), func(id string, _ int) bool {
		_, ok := e.index[id]
		return ok
	})
	if out == nil {
		out = []string{}
	}
	return out
}

// Items returns a copy of the deck.
func (e *Engine) Items() []entity.Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]entity.Item(nil), e.items...)
}

// Item looks up a deck item by id.
func (e *Engine) Item(id string) (entity.Item, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.itemLocked(id)
}

func (e *Engine) itemLocked(id string) (entity.Item, bool) {
	i, ok := e.index[id]
	if !ok {
		return entity.Item{}, false
	}
	return e.items[i], true
}

// Config returns the active game config.
func (e *Engine) Config() entity.GameConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

// SetConfig validates and persists a new game config.
func (e *Engine) SetConfig(ctx context.Context, config entity.GameConfig) (entity.GameConfig, error) {
	if err := config.Validate(e.opts.Defaults); err != nil {
		return entity.GameConfig{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config = config
	e.persist(ctx, keyConfig, e.config)
	return e.config, nil
}

// Reset forgets the locked set, recent sets, priority chain and stats.
func (e *Engine) Reset(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.locked = []string{}
	e.cursor = 0
	e.chain = map[string]int{}
	e.recent = [][]string{}
	e.stats = entity.Stats{}
	for _, name := range allKeys {
		if name == keyConfig {
			continue
		}
		e.remove(ctx, name)
	}
	e.log.Info("game state reset")
}

// Snapshot returns a copy of the current scheduling state.
func (e *Engine) Snapshot() entity.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	chain := make(map[string]int, len(e.chain))
	for id, n := range e.chain {
		chain[id] = n
	}
	return entity.GameState{
		Game:          e.opts.Game,
		Config:        e.config,
		DeckSize:      len(e.items),
		LockedOrder:   append([]string{}, e.locked...),
		Cursor:        e.cursor,
		PriorityChain: chain,
		RecentSets:    lo.Map(e.recent, func(set []string, _ int) []string { return append([]string{}, set...) }),
		Stats:         e.stats.Clone(),
		Persistent:    e.store != nil && !e.degraded,
	}
}

// wrapIndex maps i into [0, n), returning 0 for an empty range.
func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
