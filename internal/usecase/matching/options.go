package matching

import (
	"strings"
	"time"

	"github.com/eslsoft/lvgames/internal/entity"
	"github.com/eslsoft/lvgames/pkg/rng"
)

const (
	DefaultBoardSize        = 6
	DefaultLookaheadTurns   = 2
	DefaultMaxPriorityChain = 2
	DefaultRecentSetsLimit  = 5
	DefaultLockedSize       = 20
)

// Options tunes the scheduler of one game.
type Options struct {
	Game             string
	LookaheadTurns   int
	MaxPriorityChain int
	RecentSetsLimit  int
	// Defaults seeds the game config when nothing is persisted yet.
	Defaults entity.GameConfig
}

// DefaultOptions returns the stock scheduler settings for game.
func DefaultOptions(game string) Options {
	return Options{
		Game:             game,
		LookaheadTurns:   DefaultLookaheadTurns,
		MaxPriorityChain: DefaultMaxPriorityChain,
		RecentSetsLimit:  DefaultRecentSetsLimit,
		Defaults: entity.GameConfig{
			Mode:       entity.GameModeLocked,
			Prioritize: true,
			LockedSize: DefaultLockedSize,
			BoardSize:  DefaultBoardSize,
			Lang:       entity.LanguageEnglish,
		},
	}
}

func (o Options) normalized() Options {
	o.Game = strings.TrimSpace(o.Game)
	if o.Game == "" {
		o.Game = "match"
	}
	if o.LookaheadTurns <= 0 {
		o.LookaheadTurns = DefaultLookaheadTurns
	}
	if o.MaxPriorityChain <= 0 {
		o.MaxPriorityChain = DefaultMaxPriorityChain
	}
	if o.RecentSetsLimit <= 0 {
		o.RecentSetsLimit = DefaultRecentSetsLimit
	}
	if o.Defaults.Mode == "" {
		o.Defaults.Mode = entity.GameModeLocked
	}
	if o.Defaults.LockedSize <= 0 {
		o.Defaults.LockedSize = DefaultLockedSize
	}
	if o.Defaults.BoardSize <= 0 {
		o.Defaults.BoardSize = DefaultBoardSize
	}
	o.Defaults.Lang = entity.NormalizeLanguage(o.Defaults.Lang)
	return o
}

// EngineOption customises an Engine at construction.
type EngineOption func(*Engine)

// WithRand injects the random source used for shuffling.
func WithRand(src rng.Source) EngineOption {
	return func(e *Engine) {
		if src != nil {
			e.rand = src
		}
	}
}

// WithClock injects the time source used for lastSeen stamps.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}
