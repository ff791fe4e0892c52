package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nvqhuy/tablebill/internal/domain"
	"github.com/nvqhuy/tablebill/pkg/logger"
)

var ErrSessionNotFound = fmt.Errorf("session not found")

type redisSessionRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisSessionRepository(cli *redis.Client, l logger.Logger) SessionRepository {
	return &redisSessionRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisSessionRepository) Persist(ctx context.Context, ss *domain.PlaySession) error {
	data, err := json.Marshal(ss)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Session record plus per-table recency index, atomically.
	pipe := r.cli.Pipeline()
	pipe.Set(ctx, r.sessionKey(ss.ID), data, 0)
	pipe.LPush(ctx, r.tableKey(ss.TableID), ss.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "repository.redisSessionRepository.Persist: %v", err)
		return err
	}

	r.l.Debugf(ctx, "session persisted: id=%s table=%s price=%.2f", ss.ID, ss.TableID, ss.RoundedPrice())
	return nil
}

func (r *redisSessionRepository) Get(ctx context.Context, ssID string) (*domain.PlaySession, error) {
	data, err := r.cli.Get(ctx, r.sessionKey(ssID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		r.l.Errorf(ctx, "repository.redisSessionRepository.Get: %v", err)
		return nil, err
	}

	var ss domain.PlaySession
	if err := json.Unmarshal(data, &ss); err != nil {
		r.l.Errorf(ctx, "repository.redisSessionRepository.Get: %v", err)
		return nil, err
	}

	return &ss, nil
}

func (r *redisSessionRepository) ListByTable(ctx context.Context, tableID string, limit int) ([]*domain.PlaySession, error) {
	if limit <= 0 {
		limit = 10
	}

	ids, err := r.cli.LRange(ctx, r.tableKey(tableID), 0, int64(limit-1)).Result()
	if err != nil {
		r.l.Errorf(ctx, "repository.redisSessionRepository.ListByTable: %v", err)
		return nil, err
	}

	sessions := make([]*domain.PlaySession, 0, len(ids))
	for _, id := range ids {
		ss, err := r.Get(ctx, id)
		if err != nil {
			if err == ErrSessionNotFound {
				continue
			}
			return nil, err
		}
		sessions = append(sessions, ss)
	}

	return sessions, nil
}

func (r *redisSessionRepository) sessionKey(ssID string) string {
	return fmt.Sprintf("tablebill:session:%s", ssID)
}

func (r *redisSessionRepository) tableKey(tableID string) string {
	return fmt.Sprintf("tablebill:table:%s:sessions", tableID)
}
