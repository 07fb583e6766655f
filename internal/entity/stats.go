package entity

import "time"

// ItemStats accumulates answer outcomes for one item.
type ItemStats struct {
	Correct   int       `json:"correct"`
	Incorrect int       `json:"incorrect"`
	LastSeen  time.Time `json:"lastSeen"`
}

// Attempts is the total number of answers recorded for the item.
func (s ItemStats) Attempts() int { return s.Correct + s.Incorrect }

// Accuracy is the share of correct answers, zero when the item was never answered.
func (s ItemStats) Accuracy() float64 {
	if s.Attempts() == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Attempts())
}

// Stats maps item ids to their answer statistics.
type Stats map[string]ItemStats

// Clone returns an independent copy of the stats map.
func (s Stats) Clone() Stats {
	out := make(Stats, len(s))
	for id, st := range s {
		out[id] = st
	}
	return out
}
