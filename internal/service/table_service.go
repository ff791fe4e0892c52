package service

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nvqhuy/tablebill/internal/billing"
	kafka "github.com/nvqhuy/tablebill/internal/delivery/kafka"
	"github.com/nvqhuy/tablebill/internal/delivery/kafka/producer"
	"github.com/nvqhuy/tablebill/internal/domain"
	"github.com/nvqhuy/tablebill/pkg/logger"
)

type TableService interface {
	SetPlay(ctx context.Context, tableID string, timedSeconds int) (*PlayOutput, error)
	SetStandby(ctx context.Context, tableID string) (domain.TableState, error)
	SetOff(ctx context.Context, tableID string) (*OffOutput, error)
	SetStateBySwitch(ctx context.Context, tableID string, state domain.TableState) (*OffOutput, error)
	GetTable(ctx context.Context, tableID string) (*TableStatusOutput, error)
	RemainingTime(ctx context.Context, tableID string) (*RemainingOutput, error)
	TagSession(ctx context.Context, tableID, key, value string) error
	TableIDs() []string
	Close(ctx context.Context) error
}

// tableService owns the registry of table managers. Lookups are by id
// against a map behind an RWMutex; the registry itself is fixed after
// construction, so commands for different tables run fully in parallel.
type tableService struct {
	mu     sync.RWMutex
	tables map[string]*billing.TableManager
	ids    []string

	prod producer.Producer
	l    logger.Logger
}

func NewTableService(tables []*billing.TableManager, prod producer.Producer, l logger.Logger) TableService {
	reg := make(map[string]*billing.TableManager, len(tables))
	ids := make([]string, 0, len(tables))
	for _, t := range tables {
		reg[t.ID()] = t
		ids = append(ids, t.ID())
	}
	return &tableService{
		tables: reg,
		ids:    ids,
		prod:   prod,
		l:      l,
	}
}

func (s *tableService) lookup(tableID string) (*billing.TableManager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[tableID]
	if !ok {
		return nil, ErrTableNotFound
	}
	return t, nil
}

func (s *tableService) SetPlay(ctx context.Context, tableID string, timedSeconds int) (*PlayOutput, error) {
	t, err := s.lookup(tableID)
	if err != nil {
		return nil, err
	}

	if err := t.SetPlay(ctx, timedSeconds); err != nil {
		s.l.Errorf(ctx, "service.tableService.SetPlay: %v", err)
		return nil, err
	}

	ss := t.ActiveSession()
	if ss != nil {
		if err := s.prod.PublishTableOccupied(ctx, kafka.TableOccupiedEvent{
			TableID:      tableID,
			SessionID:    ss.ID,
			TimedSeconds: timedSeconds,
			StartedAt:    ss.StartTime,
		}); err != nil {
			// Eventing is best effort; the session is already running.
			s.l.Errorf(ctx, "service.tableService.SetPlay: %v", err)
		}
	}

	return &PlayOutput{
		TableID:      tableID,
		State:        t.State(),
		Session:      newSessionSummary(ss),
		TimedSeconds: timedSeconds,
	}, nil
}

func (s *tableService) SetStandby(ctx context.Context, tableID string) (domain.TableState, error) {
	t, err := s.lookup(tableID)
	if err != nil {
		return "", err
	}

	if err := t.SetStandby(ctx); err != nil {
		s.l.Errorf(ctx, "service.tableService.SetStandby: %v", err)
		return "", err
	}
	return t.State(), nil
}

func (s *tableService) SetOff(ctx context.Context, tableID string) (*OffOutput, error) {
	t, err := s.lookup(tableID)
	if err != nil {
		return nil, err
	}

	archived, err := t.SetOff(ctx)
	if err != nil {
		// Persistence failure on archival is business-significant and is
		// surfaced to the caller. The table itself has already moved on.
		s.l.Errorf(ctx, "service.tableService.SetOff: %v", err)
		return nil, err
	}

	s.publishArchived(ctx, tableID, archived)

	return &OffOutput{
		TableID:  tableID,
		State:    t.State(),
		Archived: newSessionSummary(archived),
	}, nil
}

func (s *tableService) SetStateBySwitch(ctx context.Context, tableID string, state domain.TableState) (*OffOutput, error) {
	t, err := s.lookup(tableID)
	if err != nil {
		return nil, err
	}

	archived, err := t.SetStateBySwitch(ctx, state)
	if err != nil {
		s.l.Errorf(ctx, "service.tableService.SetStateBySwitch: %v", err)
		return nil, err
	}

	s.publishArchived(ctx, tableID, archived)

	return &OffOutput{
		TableID:  tableID,
		State:    t.State(),
		Archived: newSessionSummary(archived),
	}, nil
}

func (s *tableService) publishArchived(ctx context.Context, tableID string, ss *domain.PlaySession) {
	if ss == nil {
		return
	}
	if err := s.prod.PublishSessionArchived(ctx, kafka.SessionArchivedEvent{
		TableID:     tableID,
		SessionID:   ss.ID,
		StartedAt:   ss.StartTime,
		EndedAt:     ss.EndedAt,
		PlaySeconds: ss.PlaySeconds(),
		Price:       ss.RoundedPrice(),
	}); err != nil {
		s.l.Errorf(ctx, "service.tableService.publishArchived: %v", err)
	}
}

func (s *tableService) GetTable(ctx context.Context, tableID string) (*TableStatusOutput, error) {
	t, err := s.lookup(tableID)
	if err != nil {
		return nil, err
	}

	history := t.History()
	summaries := make([]*SessionSummary, 0, len(history))
	for _, ss := range history {
		summaries = append(summaries, newSessionSummary(ss))
	}

	return &TableStatusOutput{
		TableID:       tableID,
		Name:          t.Name(),
		State:         t.State(),
		ActiveSession: newSessionSummary(t.ActiveSession()),
		History:       summaries,
	}, nil
}

func (s *tableService) RemainingTime(ctx context.Context, tableID string) (*RemainingOutput, error) {
	t, err := s.lookup(tableID)
	if err != nil {
		return nil, err
	}

	remaining, err := t.PollRemaining(ctx)
	if err != nil {
		return nil, err
	}

	return &RemainingOutput{
		TableID:          tableID,
		State:            t.State(),
		RemainingSeconds: int64(remaining.Seconds()),
	}, nil
}

func (s *tableService) TagSession(ctx context.Context, tableID, key, value string) error {
	t, err := s.lookup(tableID)
	if err != nil {
		return err
	}
	return t.TagSession(key, value)
}

func (s *tableService) TableIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Close drains every table concurrently, force-archiving live sessions so
// no billed time is lost on shutdown. The first archival failure is
// reported; the rest are logged by the tables themselves.
func (s *tableService) Close(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, t := range s.tables {
		t := t
		g.Go(func() error {
			return t.Close(ctx)
		})
	}
	return g.Wait()
}
