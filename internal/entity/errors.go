package entity

import "errors"

// Domain errors for games, sessions and their item decks.
var (
	ErrGameNotFound            = errors.New("game not found")
	ErrNoItems                 = errors.New("no items available")
	ErrNoLockedSet             = errors.New("no locked set configured")
	ErrUnknownItem             = errors.New("item not in deck")
	ErrInvalidItem             = errors.New("invalid item")
	ErrInvalidPhase            = errors.New("operation not allowed in current session phase")
	ErrInvalidGameConfig       = errors.New("invalid game config")
	ErrInsufficientDistractors = errors.New("not enough distractors for multiple choice")
	ErrNoSourceAvailable       = errors.New("no item source available")
)
