package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nvqhuy/tablebill/internal/schedule"
	"github.com/nvqhuy/tablebill/pkg/logger"
)

type redisScheduleRepository struct {
	cli      *redis.Client
	fallback *schedule.Schedule
	l        logger.Logger
}

// NewRedisScheduleRepository reads schedule documents the admin side stores
// per table, falling back to the venue-wide default schedule when a table
// has none.
func NewRedisScheduleRepository(cli *redis.Client, fallback *schedule.Schedule, l logger.Logger) ScheduleRepository {
	return &redisScheduleRepository{
		cli:      cli,
		fallback: fallback,
		l:        l,
	}
}

func (r *redisScheduleRepository) Resolve(ctx context.Context, tableID string) (*schedule.Schedule, error) {
	data, err := r.cli.Get(ctx, r.scheduleKey(tableID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			r.l.Debugf(ctx, "no schedule for table %s, using default rate", tableID)
			return r.fallback, nil
		}
		r.l.Errorf(ctx, "repository.redisScheduleRepository.Resolve: %v", err)
		return nil, err
	}

	s, err := schedule.Parse(data)
	if err != nil {
		r.l.Errorf(ctx, "repository.redisScheduleRepository.Resolve: %v", err)
		return nil, fmt.Errorf("failed to parse schedule for table %s: %w", tableID, err)
	}

	return s, nil
}

func (r *redisScheduleRepository) scheduleKey(tableID string) string {
	return fmt.Sprintf("tablebill:schedule:%s", tableID)
}
