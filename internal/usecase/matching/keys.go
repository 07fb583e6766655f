package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eslsoft/lvgames/internal/repository"
)

const (
	keyConfig        = "config"
	keyActiveSet     = "activeSet"
	keyCursor        = "cursor"
	keyRecentSets    = "recentSets"
	keyStats         = "stats"
	keyPriorityChain = "priorityChain"
)

var allKeys = []string{keyConfig, keyActiveSet, keyCursor, keyRecentSets, keyStats, keyPriorityChain}

// StorageKey returns the namespaced key under which game stores name.
func StorageKey(game, name string) string {
	return game + "_" + name
}

// KeyPrefix is the prefix shared by every key of game.
func KeyPrefix(game string) string {
	return game + "_"
}

func (e *Engine) key(name string) string {
	return StorageKey(e.opts.Game, name)
}

// readJSON decodes the value under name into dst. A missing key leaves dst untouched and returns false.
func (e *Engine) readJSON(ctx context.Context, name string, dst any) (bool, error) {
	if e.store == nil {
		return false, nil
	}
	raw, err := e.store.Get(ctx, e.key(name))
	if errors.Is(err, repository.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", e.key(name), err)
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", e.key(name), err)
	}
	return true, nil
}

// loadOr decodes the value under name into a fresh T. A missing or
// undecodable value yields current.
func loadOr[T any](ctx context.Context, e *Engine, name string, current T) T {
	var value T
	found, err := e.readJSON(ctx, name, &value)
	if err != nil {
		e.warnLoad(err)
		return current
	}
	if !found {
		return current
	}
	return value
}

// persist writes value under name. Failures are logged and mark the engine
// as non-persistent; the in-memory state remains authoritative.
func (e *Engine) persist(ctx context.Context, name string, value any) {
	if e.store == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		e.log.WithError(err).WithField("key", e.key(name)).Error("encode state")
		return
	}
	if err := e.store.Set(ctx, e.key(name), raw); err != nil {
		if !e.degraded {
			e.log.WithError(err).WithField("key", e.key(name)).Warn("persist state failed, continuing in memory")
		}
		e.degraded = true
		return
	}
	e.degraded = false
}

func (e *Engine) remove(ctx context.Context, name string) {
	if e.store == nil {
		return
	}
	if err := e.store.Delete(ctx, e.key(name)); err != nil {
		e.log.WithError(err).WithField("key", e.key(name)).Warn("delete state failed")
		e.degraded = true
	}
}

func (e *Engine) persistSchedule(ctx context.Context) {
	e.persist(ctx, keyActiveSet, e.locked)
	e.persist(ctx, keyCursor, e.cursor)
	e.persist(ctx, keyPriorityChain, e.chain)
}
