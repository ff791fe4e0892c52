package service

import (
	"time"

	"github.com/nvqhuy/tablebill/internal/domain"
)

type SessionSummary struct {
	ID          string            `json:"id"`
	StartedAt   time.Time         `json:"started_at"`
	EndedAt     *time.Time        `json:"ended_at,omitempty"`
	PlaySeconds int64             `json:"play_seconds"`
	Price       float64           `json:"price"`
	Stopped     bool              `json:"stopped"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

func newSessionSummary(ss *domain.PlaySession) *SessionSummary {
	if ss == nil {
		return nil
	}
	out := &SessionSummary{
		ID:          ss.ID,
		StartedAt:   ss.StartTime,
		PlaySeconds: ss.PlaySeconds(),
		Price:       ss.RoundedPrice(),
		Stopped:     ss.Stopped,
		Attributes:  ss.Attributes,
	}
	if !ss.EndedAt.IsZero() {
		ended := ss.EndedAt
		out.EndedAt = &ended
	}
	return out
}

type PlayOutput struct {
	TableID      string           `json:"table_id"`
	State        domain.TableState `json:"state"`
	Session      *SessionSummary  `json:"session"`
	TimedSeconds int              `json:"timed_seconds"`
}

type OffOutput struct {
	TableID  string            `json:"table_id"`
	State    domain.TableState `json:"state"`
	Archived *SessionSummary   `json:"archived,omitempty"`
}

type TableStatusOutput struct {
	TableID       string            `json:"table_id"`
	Name          string            `json:"name"`
	State         domain.TableState `json:"state"`
	ActiveSession *SessionSummary   `json:"active_session,omitempty"`
	History       []*SessionSummary `json:"history"`
}

type RemainingOutput struct {
	TableID          string            `json:"table_id"`
	State            domain.TableState `json:"state"`
	RemainingSeconds int64             `json:"remaining_seconds"`
}
