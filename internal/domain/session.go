package domain

import (
	"maps"
	"math"
	"time"
)

// PlaySession is one continuous billed occupancy of a table. Accrual fields
// change only on ticks received while Stopped is false; both are frozen the
// moment the session stops and never decrease.
type PlaySession struct {
	ID           string            `json:"id"`
	TableID      string            `json:"table_id"`
	StartTime    time.Time         `json:"start_time"`
	EndedAt      time.Time         `json:"ended_at,omitempty"`
	PlayDuration time.Duration     `json:"play_duration_ns"`
	Price        float64           `json:"price"`
	Stopped      bool              `json:"stopped"`
	Attributes   map[string]string `json:"attributes,omitempty"`
}

// RoundedPrice returns the accrued price rounded to two decimal places,
// half to even.
func (s *PlaySession) RoundedPrice() float64 {
	return math.RoundToEven(s.Price*100) / 100
}

// PlaySeconds returns whole accrued play seconds.
func (s *PlaySession) PlaySeconds() int64 {
	return int64(s.PlayDuration / time.Second)
}

// Snapshot returns a copy of the session with its own Attributes map, safe
// to read after the owner's lock is released.
func (s *PlaySession) Snapshot() *PlaySession {
	cp := *s
	cp.Attributes = maps.Clone(s.Attributes)
	return &cp
}

// SetAttribute attaches an opaque attribute (player, discount, ...) to the
// session. The billing core never interprets these.
func (s *PlaySession) SetAttribute(key, value string) {
	if s.Attributes == nil {
		s.Attributes = make(map[string]string)
	}
	s.Attributes[key] = value
}
