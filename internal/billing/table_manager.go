package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nvqhuy/tablebill/internal/domain"
	"github.com/nvqhuy/tablebill/internal/schedule"
	"github.com/nvqhuy/tablebill/pkg/clock"
	"github.com/nvqhuy/tablebill/pkg/logger"
	"github.com/nvqhuy/tablebill/pkg/ringbuffer"
)

// historyCapacity is the number of finished sessions a table remembers.
const historyCapacity = 3

// ScheduleProvider resolves the rate schedule in force for a table when a
// session starts.
type ScheduleProvider interface {
	Resolve(ctx context.Context, tableID string) (*schedule.Schedule, error)
}

// TableConfig carries per-table wiring.
type TableConfig struct {
	ID          string
	Name        string
	TickStep    time.Duration // nominally one second
	GracePeriod time.Duration // paused stay before auto-standby
}

// TableManager is the table-level state machine: off, play, paused, standby.
// It owns the table's one active SessionManager, interprets commands into
// transitions, runs the post-off grace timer and archives finished sessions
// into a bounded history.
//
// Commands, tick pulses and grace-period callbacks all mutate the
// (state, session) pair under one mutex, so ticks cannot accrue into an
// archived session and a stale grace callback cannot demote a table that
// already moved on. Unlisted (event, state) pairs are silent no-ops.
type TableManager struct {
	cfg       TableConfig
	clk       clock.Clock
	newTicker clock.TickerFactory
	schedules ScheduleProvider
	sink      SessionSink
	l         logger.Logger

	mu       sync.Mutex
	state    domain.TableState
	sm       *SessionManager
	history  *ringbuffer.RingBuffer[*domain.PlaySession]
	graceSeq uint64
}

func NewTableManager(
	cfg TableConfig,
	clk clock.Clock,
	newTicker clock.TickerFactory,
	schedules ScheduleProvider,
	sink SessionSink,
	l logger.Logger,
) *TableManager {
	if cfg.TickStep <= 0 {
		cfg.TickStep = time.Second
	}
	return &TableManager{
		cfg:       cfg,
		clk:       clk,
		newTicker: newTicker,
		schedules: schedules,
		sink:      sink,
		l:         l,
		state:     domain.TableStateOff,
		history:   ringbuffer.New[*domain.PlaySession](historyCapacity),
	}
}

func (t *TableManager) ID() string   { return t.cfg.ID }
func (t *TableManager) Name() string { return t.cfg.Name }

// SetPlay starts or resumes play. From off a new session is created;
// timedSeconds > 0 bounds it, after which expiry auto-demotes the table to
// standby. From paused or standby the existing session resumes and
// timedSeconds is ignored. In play it is a no-op.
func (t *TableManager) SetPlay(ctx context.Context, timedSeconds int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case domain.TableStateOff:
		sched, err := t.schedules.Resolve(ctx, t.cfg.ID)
		if err != nil {
			return fmt.Errorf("failed to resolve rate schedule: %w", err)
		}

		t.sm = NewSessionManager(
			t.clk,
			t.newTicker,
			sched,
			t.sink,
			t.cfg.TickStep,
			time.Duration(timedSeconds)*time.Second,
			t.cfg.ID,
			t.handleTick,
		)
		t.sm.Start()
		t.state = domain.TableStatePlay
		t.l.Infof(ctx, "table %s: session %s started (timed=%ds)", t.cfg.ID, t.sm.Session().ID, timedSeconds)

	case domain.TableStatePaused, domain.TableStateStandby:
		t.graceSeq++ // invalidate any pending grace timer
		t.sm.Resume()
		t.state = domain.TableStatePlay
		t.l.Infof(ctx, "table %s: session %s resumed", t.cfg.ID, t.sm.Session().ID)
	}
	return nil
}

// SetStandby parks the table: play or paused stop the session and move to
// standby. Elsewhere it is a no-op.
func (t *TableManager) SetStandby(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.standbyLocked(ctx)
}

func (t *TableManager) standbyLocked(ctx context.Context) error {
	switch t.state {
	case domain.TableStatePlay, domain.TableStatePaused:
		t.graceSeq++
		if err := t.sm.Stop(ctx, false); err != nil {
			return err
		}
		t.state = domain.TableStateStandby
		t.l.Infof(ctx, "table %s: standby", t.cfg.ID)
	}
	return nil
}

// SetOff applies the off signal: in play the session stops and the table
// enters the paused grace window; in standby the session is archived and
// the table turns off. A persistence failure during archival is returned
// to the caller; the in-memory transition still completes, so the table is
// off and the session is in history even when the sink failed.
func (t *TableManager) SetOff(ctx context.Context) (*domain.PlaySession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.offLocked(ctx)
}

func (t *TableManager) offLocked(ctx context.Context) (*domain.PlaySession, error) {
	switch t.state {
	case domain.TableStatePlay:
		if err := t.sm.Stop(ctx, false); err != nil {
			return nil, err
		}
		t.state = domain.TableStatePaused
		t.armGraceTimerLocked(ctx)
		return nil, nil

	case domain.TableStateStandby:
		return t.archiveLocked(ctx)
	}
	return nil, nil
}

// SetStateBySwitch models the raw switch surface: the same transition table
// as the convenience commands, addressed by target state. Invalid targets
// are ignored.
func (t *TableManager) SetStateBySwitch(ctx context.Context, state domain.TableState) (*domain.PlaySession, error) {
	switch state {
	case domain.TableStatePlay:
		return nil, t.SetPlay(ctx, 0)
	case domain.TableStateStandby:
		return nil, t.SetStandby(ctx)
	case domain.TableStateOff:
		return t.SetOff(ctx)
	}
	return nil, nil
}

func (t *TableManager) armGraceTimerLocked(ctx context.Context) {
	t.graceSeq++
	seq := t.graceSeq
	t.clk.AfterFunc(t.cfg.GracePeriod, func() {
		t.onGraceElapsed(seq)
	})
	t.l.Debugf(ctx, "table %s: grace period of %s started", t.cfg.ID, t.cfg.GracePeriod)
}

// onGraceElapsed fires once per paused episode. It is state-checked rather
// than cancelled: unless the table is still paused and the episode is still
// the current one, the pulse is a no-op, so rapid play/off toggling never
// lets a stale timer force a spurious standby.
func (t *TableManager) onGraceElapsed(seq uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != domain.TableStatePaused || seq != t.graceSeq {
		return
	}
	t.state = domain.TableStateStandby
	t.l.Infof(context.Background(), "table %s: grace period elapsed, standby", t.cfg.ID)
}

// handleTick is the ticker subscription for the active session.
func (t *TableManager) handleTick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sm == nil {
		return
	}
	if expired := t.sm.Tick(); expired {
		t.state = domain.TableStateStandby
		t.l.Infof(context.Background(), "table %s: timed session %s exhausted, standby", t.cfg.ID, t.sm.Session().ID)
	}
}

// PollRemaining returns the remaining span of the active timed session and
// enforces lazy expiry: an exhausted session is stopped and the table
// demoted to standby on the poll that observes it.
func (t *TableManager) PollRemaining(ctx context.Context) (time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sm == nil {
		return 0, ErrNoActiveSession
	}

	remaining, expired, err := t.sm.PollExpiry()
	if err != nil {
		return 0, err
	}
	if expired && (t.state == domain.TableStatePlay || t.state == domain.TableStatePaused) {
		t.state = domain.TableStateStandby
		t.l.Infof(ctx, "table %s: timed session %s exhausted on poll, standby", t.cfg.ID, t.sm.Session().ID)
	}
	return remaining, nil
}

func (t *TableManager) archiveLocked(ctx context.Context) (*domain.PlaySession, error) {
	ss := t.sm.Session()
	t.history.Enqueue(ss)

	err := t.sm.Stop(ctx, true)
	t.sm = nil
	t.state = domain.TableStateOff

	if err != nil {
		t.l.Errorf(ctx, "billing.TableManager.archive: %v", err)
		return ss, fmt.Errorf("failed to persist session %s: %w", ss.ID, err)
	}
	t.l.Infof(ctx, "table %s: session %s archived (%.2f for %s)", t.cfg.ID, ss.ID, ss.RoundedPrice(), ss.PlayDuration)
	return ss, nil
}

// TagSession attaches an opaque attribute to the active session.
func (t *TableManager) TagSession(key, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sm == nil {
		return ErrNoActiveSession
	}
	t.sm.Session().SetAttribute(key, value)
	return nil
}

// State returns the current table state.
func (t *TableManager) State() domain.TableState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// ActiveSession returns a snapshot of the current session, or nil when the
// table is off. The copy is taken under the lock, so callers can read it
// while ticks keep accruing into the live session.
func (t *TableManager) ActiveSession() *domain.PlaySession {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sm == nil {
		return nil
	}
	return t.sm.Session().Snapshot()
}

// History returns up to the last three archived sessions, oldest first.
func (t *TableManager) History() []*domain.PlaySession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.history.Items()
}

// Close force-archives any live session so its billing record survives
// process shutdown, regardless of current state.
func (t *TableManager) Close(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.graceSeq++
	if t.sm == nil {
		t.state = domain.TableStateOff
		return nil
	}
	_, err := t.archiveLocked(ctx)
	return err
}
