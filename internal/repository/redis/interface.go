package repository

import (
	"context"

	"github.com/nvqhuy/tablebill/internal/domain"
	"github.com/nvqhuy/tablebill/internal/schedule"
)

// SessionRepository durably records finished play sessions and serves them
// back for the recent-sessions read model.
type SessionRepository interface {
	Persist(ctx context.Context, ss *domain.PlaySession) error
	Get(ctx context.Context, ssID string) (*domain.PlaySession, error)
	ListByTable(ctx context.Context, tableID string, limit int) ([]*domain.PlaySession, error)
}

// ScheduleRepository resolves the rate schedule for a table. Schedules are
// written by the administrative side; this service only reads them.
type ScheduleRepository interface {
	Resolve(ctx context.Context, tableID string) (*schedule.Schedule, error)
}
