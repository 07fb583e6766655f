package entity

import (
	"fmt"
	"strings"
)

// GameMode selects how rounds draw their items.
type GameMode string

const (
	// GameModeLocked serves items from the persisted locked order.
	GameModeLocked GameMode = "locked"
	// GameModeRandom samples each round from the whole deck.
	GameModeRandom GameMode = "random"
)

// ParseGameMode converts user input into a GameMode, defaulting to locked.
func ParseGameMode(s string) (GameMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(GameModeLocked):
		return GameModeLocked, nil
	case string(GameModeRandom):
		return GameModeRandom, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidGameConfig, s)
	}
}

// GameConfig holds the user-adjustable settings of a game, persisted per game.
type GameConfig struct {
	Mode       GameMode `json:"mode"`
	Prioritize bool     `json:"prioritize"`
	LockedSize int      `json:"lockedSize"`
	BoardSize  int      `json:"boardSize"`
	Lang       Language `json:"lang"`
}

// Validate checks the config and fills defaults for zero values.
func (c *GameConfig) Validate(defaults GameConfig) error {
	mode, err := ParseGameMode(string(c.Mode))
	if err != nil {
		return err
	}
	c.Mode = mode
	if c.LockedSize < 0 || c.BoardSize < 0 {
		return fmt.Errorf("%w: sizes must not be negative", ErrInvalidGameConfig)
	}
	if c.LockedSize == 0 {
		c.LockedSize = defaults.LockedSize
	}
	if c.BoardSize == 0 {
		c.BoardSize = defaults.BoardSize
	}
	if c.Lang == LanguageUnspecified {
		c.Lang = defaults.Lang
	}
	c.Lang = NormalizeLanguage(c.Lang)
	return nil
}

// GameState is a read-only view of an engine's scheduling state.
type GameState struct {
	Game          string         `json:"game"`
	Config        GameConfig     `json:"config"`
	DeckSize      int            `json:"deckSize"`
	LockedOrder   []string       `json:"lockedOrder"`
	Cursor        int            `json:"cursor"`
	PriorityChain map[string]int `json:"priorityChain"`
	RecentSets    [][]string     `json:"recentSets"`
	Stats         Stats          `json:"stats"`
	Persistent    bool           `json:"persistent"`
}
