package kafka

import "time"

// Events published by the table billing service.

type TableOccupiedEvent struct {
	TableID      string    `json:"table_id"`
	SessionID    string    `json:"session_id"`
	TimedSeconds int       `json:"timed_seconds"`
	StartedAt    time.Time `json:"started_at"`
	Timestamp    time.Time `json:"timestamp"`
}

type SessionArchivedEvent struct {
	TableID     string    `json:"table_id"`
	SessionID   string    `json:"session_id"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	PlaySeconds int64     `json:"play_seconds"`
	Price       float64   `json:"price"`
	Timestamp   time.Time `json:"timestamp"`
}

// Topic names
const (
	TopicTableOccupied   = "TABLE_OCCUPIED"
	TopicSessionArchived = "SESSION_ARCHIVED"
)
