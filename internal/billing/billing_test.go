package billing

import (
	"context"
	"sync"
	"time"

	"github.com/nvqhuy/tablebill/internal/domain"
	"github.com/nvqhuy/tablebill/internal/schedule"
	"github.com/nvqhuy/tablebill/pkg/clock"
	"github.com/nvqhuy/tablebill/pkg/logger"
)

// 2024-01-01 is a Monday.
func mondayAt(hour, minute, second int) time.Time {
	return time.Date(2024, time.January, 1, hour, minute, second, 0, time.UTC)
}

// mondaySchedule: Monday 09:00-12:00 at 10.00/hr, default 5.00/hr.
func mondaySchedule() *schedule.Schedule {
	s := schedule.New(5)
	s.AddRange(time.Monday, schedule.NewDayTime(9, 0, 0), schedule.NewDayTime(12, 0, 0), 10)
	return s
}

func flatSchedule(rate float64) *schedule.Schedule {
	return schedule.New(rate)
}

type stubProvider struct {
	sched *schedule.Schedule
	err   error
}

func (p stubProvider) Resolve(_ context.Context, _ string) (*schedule.Schedule, error) {
	return p.sched, p.err
}

type memSink struct {
	mu        sync.Mutex
	persisted []*domain.PlaySession
	err       error
}

func (s *memSink) Persist(_ context.Context, ss *domain.PlaySession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.persisted = append(s.persisted, ss)
	return nil
}

func (s *memSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.persisted)
}

type tableFixture struct {
	table  *TableManager
	clk    *clock.Mock
	ticker *clock.ManualTicker
	sink   *memSink
}

func newTableFixture(sched *schedule.Schedule, grace time.Duration) *tableFixture {
	f := &tableFixture{
		clk:    clock.NewMock(mondayAt(10, 0, 0)),
		ticker: clock.NewManualTicker(),
		sink:   &memSink{},
	}
	f.table = NewTableManager(
		TableConfig{
			ID:          "table-1",
			Name:        "Table 1",
			TickStep:    time.Second,
			GracePeriod: grace,
		},
		f.clk,
		f.ticker.Factory(),
		stubProvider{sched: sched},
		f.sink,
		logger.InitializeTestZapLogger(),
	)
	return f
}
