package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvqhuy/tablebill/internal/billing"
	kafka "github.com/nvqhuy/tablebill/internal/delivery/kafka"
	"github.com/nvqhuy/tablebill/internal/domain"
	"github.com/nvqhuy/tablebill/internal/schedule"
	"github.com/nvqhuy/tablebill/pkg/clock"
	"github.com/nvqhuy/tablebill/pkg/logger"
)

type recordingProducer struct {
	mu       sync.Mutex
	occupied []kafka.TableOccupiedEvent
	archived []kafka.SessionArchivedEvent
}

func (p *recordingProducer) PublishTableOccupied(_ context.Context, e kafka.TableOccupiedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.occupied = append(p.occupied, e)
	return nil
}

func (p *recordingProducer) PublishSessionArchived(_ context.Context, e kafka.SessionArchivedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.archived = append(p.archived, e)
	return nil
}

func (p *recordingProducer) Close() error { return nil }

type stubProvider struct {
	sched *schedule.Schedule
}

func (p stubProvider) Resolve(_ context.Context, _ string) (*schedule.Schedule, error) {
	return p.sched, nil
}

type memSink struct {
	mu        sync.Mutex
	persisted []*domain.PlaySession
}

func (s *memSink) Persist(_ context.Context, ss *domain.PlaySession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persisted = append(s.persisted, ss)
	return nil
}

type serviceFixture struct {
	svc     TableService
	prod    *recordingProducer
	sink    *memSink
	clk     *clock.Mock
	tickers map[string]*clock.ManualTicker
}

func newServiceFixture(t *testing.T, tableIDs ...string) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		prod:    &recordingProducer{},
		sink:    &memSink{},
		clk:     clock.NewMock(time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)),
		tickers: make(map[string]*clock.ManualTicker),
	}

	l := logger.InitializeTestZapLogger()
	tables := make([]*billing.TableManager, 0, len(tableIDs))
	for _, id := range tableIDs {
		ticker := clock.NewManualTicker()
		f.tickers[id] = ticker
		tables = append(tables, billing.NewTableManager(
			billing.TableConfig{ID: id, Name: id, TickStep: time.Second, GracePeriod: 30 * time.Second},
			f.clk,
			ticker.Factory(),
			stubProvider{sched: schedule.New(6)},
			f.sink,
			l,
		))
	}

	f.svc = NewTableService(tables, f.prod, l)
	return f
}

func TestLookupUnknownTable(t *testing.T) {
	f := newServiceFixture(t, "t1")
	ctx := context.Background()

	_, err := f.svc.SetPlay(ctx, "nope", 0)
	assert.ErrorIs(t, err, ErrTableNotFound)
	_, err = f.svc.GetTable(ctx, "nope")
	assert.ErrorIs(t, err, ErrTableNotFound)
	_, err = f.svc.SetOff(ctx, "nope")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestSetPlayPublishesOccupiedEvent(t *testing.T) {
	f := newServiceFixture(t, "t1")
	ctx := context.Background()

	out, err := f.svc.SetPlay(ctx, "t1", 120)
	require.NoError(t, err)

	assert.Equal(t, domain.TableStatePlay, out.State)
	require.NotNil(t, out.Session)

	require.Len(t, f.prod.occupied, 1)
	assert.Equal(t, "t1", f.prod.occupied[0].TableID)
	assert.Equal(t, out.Session.ID, f.prod.occupied[0].SessionID)
	assert.Equal(t, 120, f.prod.occupied[0].TimedSeconds)
}

func TestOffCyclePublishesArchivedEvent(t *testing.T) {
	f := newServiceFixture(t, "t1")
	ctx := context.Background()

	out, err := f.svc.SetPlay(ctx, "t1", 0)
	require.NoError(t, err)
	f.tickers["t1"].Tick(600)

	_, err = f.svc.SetStandby(ctx, "t1")
	require.NoError(t, err)

	offOut, err := f.svc.SetOff(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TableStateOff, offOut.State)
	require.NotNil(t, offOut.Archived)
	assert.Equal(t, out.Session.ID, offOut.Archived.ID)
	assert.Equal(t, int64(600), offOut.Archived.PlaySeconds)
	assert.InDelta(t, 1.00, offOut.Archived.Price, 1e-9) // 600s at 6.00/hr

	require.Len(t, f.prod.archived, 1)
	assert.Equal(t, out.Session.ID, f.prod.archived[0].SessionID)
	assert.InDelta(t, 1.00, f.prod.archived[0].Price, 1e-9)

	require.Len(t, f.sink.persisted, 1)
}

func TestSwitchSurfaceMatchesCommands(t *testing.T) {
	f := newServiceFixture(t, "t1")
	ctx := context.Background()

	_, err := f.svc.SetStateBySwitch(ctx, "t1", domain.TableStatePlay)
	require.NoError(t, err)

	status, err := f.svc.GetTable(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TableStatePlay, status.State)

	// Off signal while playing pauses rather than archiving.
	out, err := f.svc.SetStateBySwitch(ctx, "t1", domain.TableStateOff)
	require.NoError(t, err)
	assert.Equal(t, domain.TableStatePaused, out.State)
	assert.Nil(t, out.Archived)
	assert.Empty(t, f.prod.archived)
}

func TestGetTableIncludesHistory(t *testing.T) {
	f := newServiceFixture(t, "t1")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.SetPlay(ctx, "t1", 0)
		require.NoError(t, err)
		f.tickers["t1"].Tick(10)
		_, err = f.svc.SetStandby(ctx, "t1")
		require.NoError(t, err)
		_, err = f.svc.SetOff(ctx, "t1")
		require.NoError(t, err)
	}

	status, err := f.svc.GetTable(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TableStateOff, status.State)
	assert.Nil(t, status.ActiveSession)
	assert.Len(t, status.History, 2)
}

func TestRemainingTime(t *testing.T) {
	f := newServiceFixture(t, "t1")
	ctx := context.Background()

	_, err := f.svc.SetPlay(ctx, "t1", 60)
	require.NoError(t, err)
	f.tickers["t1"].Tick(15)

	out, err := f.svc.RemainingTime(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(45), out.RemainingSeconds)
	assert.Equal(t, domain.TableStatePlay, out.State)

	f.tickers["t1"].Tick(45)
	out, err = f.svc.RemainingTime(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.RemainingSeconds)
	assert.Equal(t, domain.TableStateStandby, out.State)
}

func TestTablesAreIndependent(t *testing.T) {
	f := newServiceFixture(t, "t1", "t2")
	ctx := context.Background()

	_, err := f.svc.SetPlay(ctx, "t1", 0)
	require.NoError(t, err)
	f.tickers["t1"].Tick(30)

	s1, err := f.svc.GetTable(ctx, "t1")
	require.NoError(t, err)
	s2, err := f.svc.GetTable(ctx, "t2")
	require.NoError(t, err)

	assert.Equal(t, domain.TableStatePlay, s1.State)
	assert.Equal(t, domain.TableStateOff, s2.State)
	assert.Nil(t, s2.ActiveSession)
}

func TestTagSessionRequiresActiveSession(t *testing.T) {
	f := newServiceFixture(t, "t1")
	ctx := context.Background()

	err := f.svc.TagSession(ctx, "t1", "player", "bob")
	assert.ErrorIs(t, err, billing.ErrNoActiveSession)

	_, err = f.svc.SetPlay(ctx, "t1", 0)
	require.NoError(t, err)
	require.NoError(t, f.svc.TagSession(ctx, "t1", "player", "bob"))

	status, err := f.svc.GetTable(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "bob", status.ActiveSession.Attributes["player"])
}

func TestStatusReadsDuringTicks(t *testing.T) {
	f := newServiceFixture(t, "t1")
	ctx := context.Background()

	_, err := f.svc.SetPlay(ctx, "t1", 0)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.tickers["t1"].Tick(1000)
	}()

	// Status reads and tagging race the tick stream; summaries are built
	// from a locked snapshot, so every read sees a consistent session.
	for i := 0; i < 200; i++ {
		status, err := f.svc.GetTable(ctx, "t1")
		require.NoError(t, err)
		require.NotNil(t, status.ActiveSession)
		assert.GreaterOrEqual(t, status.ActiveSession.PlaySeconds, int64(0))
		require.NoError(t, f.svc.TagSession(ctx, "t1", "player", "bob"))
	}
	<-done

	status, err := f.svc.GetTable(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), status.ActiveSession.PlaySeconds)
	assert.Equal(t, "bob", status.ActiveSession.Attributes["player"])
}

func TestCloseDrainsAllTables(t *testing.T) {
	f := newServiceFixture(t, "t1", "t2", "t3")
	ctx := context.Background()

	_, err := f.svc.SetPlay(ctx, "t1", 0)
	require.NoError(t, err)
	_, err = f.svc.SetPlay(ctx, "t2", 0)
	require.NoError(t, err)
	f.tickers["t1"].Tick(5)

	require.NoError(t, f.svc.Close(ctx))

	f.sink.mu.Lock()
	persisted := len(f.sink.persisted)
	f.sink.mu.Unlock()
	assert.Equal(t, 2, persisted)

	for _, id := range []string{"t1", "t2", "t3"} {
		status, err := f.svc.GetTable(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.TableStateOff, status.State)
	}
}
