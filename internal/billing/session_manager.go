package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nvqhuy/tablebill/internal/domain"
	"github.com/nvqhuy/tablebill/internal/schedule"
	"github.com/nvqhuy/tablebill/pkg/clock"
)

// SessionSink durably records a finished session on full archival.
type SessionSink interface {
	Persist(ctx context.Context, s *domain.PlaySession) error
}

// SessionManager drives one play session's clock: tick accrual, pause and
// resume, optional fixed-duration expiry, and finalization.
//
// It is not safe for concurrent use on its own. The owning TableManager
// serializes every entry point, including the tick handler, under the
// table's mutex, so a tick can never accrue into a session a concurrent
// command has just stopped or archived.
type SessionManager struct {
	session *domain.PlaySession
	sched   *schedule.Schedule
	clk     clock.Clock
	ticker  clock.Ticker
	sink    SessionSink

	tickStep  time.Duration
	timedSpan time.Duration // 0 means open-ended

	expired  bool
	shutdown bool
}

// NewSessionManager wires a manager to its ticker. onElapsed is the tick
// handler the ticker will drive; the owner routes it back through Tick under
// its own lock.
func NewSessionManager(
	clk clock.Clock,
	newTicker clock.TickerFactory,
	sched *schedule.Schedule,
	sink SessionSink,
	tickStep time.Duration,
	timedSpan time.Duration,
	tableID string,
	onElapsed func(),
) *SessionManager {
	return &SessionManager{
		session: &domain.PlaySession{
			TableID: tableID,
			Stopped: true,
		},
		sched:     sched,
		clk:       clk,
		ticker:    newTicker(tickStep, true, onElapsed),
		sink:      sink,
		tickStep:  tickStep,
		timedSpan: timedSpan,
	}
}

// Start assigns the session id and start timestamp from the clock and
// enables ticking. Callers must not start the same logical session twice:
// a second call resets the start timestamp.
func (m *SessionManager) Start() {
	m.ensureUsable()
	m.session.ID = uuid.NewString()
	m.session.StartTime = m.clk.Now()
	m.session.Stopped = false
	m.ticker.Start()
}

// Stop suspends accrual and disables the ticker. Repeated stops collapse to
// one semantic stop. With fullyArchive the finished session is persisted via
// the sink and the manager becomes terminal; a persistence failure is
// returned to the caller.
func (m *SessionManager) Stop(ctx context.Context, fullyArchive bool) error {
	m.ensureUsable()

	if !m.session.Stopped {
		m.session.Stopped = true
		m.ticker.Stop()
	}

	if !fullyArchive {
		return nil
	}

	m.shutdown = true
	m.session.EndedAt = m.clk.Now()
	if err := m.sinkPersist(ctx); err != nil {
		return err
	}
	return nil
}

func (m *SessionManager) sinkPersist(ctx context.Context) error {
	if m.sink == nil {
		return nil
	}
	return m.sink.Persist(ctx, m.session)
}

// Resume re-enables accrual after a stop. No time is backfilled for the
// paused interval. No-op if the session is already running.
func (m *SessionManager) Resume() {
	m.ensureUsable()
	if !m.session.Stopped {
		return
	}
	m.session.Stopped = false
	m.ticker.Start()
}

// Tick applies one elapsed pulse: play duration grows by one tick step and
// price by the schedule rate in force at this instant. The rate is
// re-evaluated on every tick, so a session crossing a rate boundary accrues
// each side at its own price. A pulse arriving after a stop is dropped.
//
// The returned flag reports that a timed session just exhausted its span;
// the session is already stopped when it is set, and the owner completes
// the table-level standby transition.
func (m *SessionManager) Tick() (expired bool) {
	if m.shutdown || m.session.Stopped {
		return false
	}

	// A resumed session whose span is already exhausted stops before it can
	// accrue past the span.
	if m.timedSpan > 0 && m.session.PlayDuration >= m.timedSpan {
		m.expired = true
		m.session.Stopped = true
		m.ticker.Stop()
		return true
	}

	m.session.PlayDuration += m.tickStep
	m.session.Price += m.sched.RateAt(m.clk.Now()) * m.tickStep.Seconds() / 3600

	if m.timedSpan > 0 && m.session.PlayDuration >= m.timedSpan {
		m.expired = true
		m.session.Stopped = true
		m.ticker.Stop()
		return true
	}
	return false
}

// PollExpiry returns the remaining span of a timed session and, as a
// deliberate side effect, enforces expiry: the first observation of an
// exhausted span stops the session and reports expired so the owner can
// demote the table. Both the tick path and external pollers funnel through
// this exactly-once detection. Open-ended sessions return ErrSessionNotTimed.
func (m *SessionManager) PollExpiry() (remaining time.Duration, expired bool, err error) {
	m.ensureUsable()
	if m.timedSpan == 0 {
		return 0, false, ErrSessionNotTimed
	}

	remaining = m.timedSpan - m.session.PlayDuration
	if remaining < 0 {
		remaining = 0
	}
	if remaining > 0 || m.expired {
		return remaining, false, nil
	}

	m.expired = true
	if !m.session.Stopped {
		m.session.Stopped = true
		m.ticker.Stop()
	}
	return 0, true, nil
}

// ElapsedPlayTime returns the accumulated play duration.
func (m *SessionManager) ElapsedPlayTime() time.Duration {
	return m.session.PlayDuration
}

// SessionPrice returns the accrued price rounded to two decimals, half to
// even.
func (m *SessionManager) SessionPrice() float64 {
	return m.session.RoundedPrice()
}

func (m *SessionManager) Session() *domain.PlaySession {
	return m.session
}

func (m *SessionManager) IsStopped() bool {
	return m.session.Stopped
}

// ensureUsable guards the documented precondition that a fully archived
// manager accepts no further operations.
func (m *SessionManager) ensureUsable() {
	if m.shutdown {
		panic("billing: session manager used after full archival")
	}
}
