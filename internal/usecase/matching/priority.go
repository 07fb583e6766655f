package matching

import (
	"context"
	"slices"

	"github.com/sirupsen/logrus"
)

// BumpItemForPriority moves a missed item so it resurfaces
// min(queue length, lookahead turns * board size) positions after the cursor.
// The item served next stays next. It reports whether the order changed.
func (e *Engine) BumpItemForPriority(ctx context.Context, id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bumpLocked(ctx, id)
}

func (e *Engine) bumpLocked(ctx context.Context, id string) bool {
	n := len(e.locked)
	if n <= 1 {
		return false
	}
	idx := slices.Index(e.locked, id)
	if idx < 0 {
		return false
	}
	if e.chain[id] >= e.opts.MaxPriorityChain {
		return false
	}

	rest := make([]string, 0, n-1)
	rest = append(rest, e.locked[:idx]...)
	rest = append(rest, e.locked[idx+1:]...)

	cursor := e.cursor
	if idx < cursor {
		cursor--
	}
	m := len(rest)
	if cursor >= m {
		cursor = 0
	}

	offset := min(m, e.opts.LookaheadTurns*max(e.config.BoardSize, 1))
	var pos int
	if tail := m - cursor; offset <= tail {
		pos = cursor + offset
	} else {
		// wraps past the end: inserting before the cursor shifts it by one
		pos = offset - tail
		cursor++
	}

	e.locked = slices.Insert(rest, pos, id)
	e.cursor = cursor
	e.chain[id]++
	e.persistSchedule(ctx)

	e.log.WithFields(logrus.Fields{
		"item":   id,
		"offset": offset,
		"chain":  e.chain[id],
	}).Debug("bumped item for priority")
	return true
}
