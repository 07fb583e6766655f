package entity

import (
	"strings"
	"time"
)

// SessionResult summarizes one finished play session.
type SessionResult struct {
	ID        string        `json:"id"`
	Game      string        `json:"game"`
	Mode      GameMode      `json:"mode"`
	Timestamp time.Time     `json:"timestamp"`
	Correct   int           `json:"correct"`
	Total     int           `json:"total"`
	Duration  time.Duration `json:"duration"`
	Detail    string        `json:"detail"`
}

// Normalize trims text fields and fills the timestamp.
func (r *SessionResult) Normalize(now time.Time) {
	r.Game = strings.TrimSpace(r.Game)
	r.Detail = strings.TrimSpace(r.Detail)
	if r.Mode == "" {
		r.Mode = GameModeLocked
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = now
	}
	if r.Duration < 0 {
		r.Duration = 0
	}
}
