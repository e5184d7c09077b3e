// Package redis implements the history store on a capped Redis list per
// game, with counters in a Redis hash.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/history/domain"
)

// HistoryRepository implements domain.Store using Redis
type HistoryRepository struct {
	rdb      *redis.Client
	capacity int64
	ttl      time.Duration
}

// NewHistoryRepository creates a new Redis history repository
func NewHistoryRepository(rdb *redis.Client) *HistoryRepository {
	return &HistoryRepository{
		rdb:      rdb,
		capacity: domain.DefaultCapacity,
		ttl:      7 * 24 * time.Hour,
	}
}

func listKey(game string) string {
	return fmt.Sprintf("history:%s", game)
}

func statsKey(game string) string {
	return fmt.Sprintf("history_stats:%s", game)
}

// Push prepends a record and trims the list to capacity
func (r *HistoryRepository) Push(ctx context.Context, game string, record interface{}) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}

	key := listKey(game)
	pipe := r.rdb.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, r.capacity-1)
	pipe.Expire(ctx, key, r.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to limit records, newest first
func (r *HistoryRepository) Recent(ctx context.Context, game string, limit int) ([]json.RawMessage, error) {
	if limit <= 0 || int64(limit) > r.capacity {
		limit = int(r.capacity)
	}

	items, err := r.rdb.LRange(ctx, listKey(game), 0, int64(limit)-1).Result()
	if err != nil {
		if err == redis.Nil {
			return []json.RawMessage{}, nil
		}
		return nil, err
	}

	records := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		records = append(records, json.RawMessage(item))
	}
	return records, nil
}

// IncrStat adds delta to a named counter
func (r *HistoryRepository) IncrStat(ctx context.Context, game, field string, delta int64) error {
	key := statsKey(game)
	pipe := r.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, field, delta)
	pipe.Expire(ctx, key, r.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Stats returns all counters for the game
func (r *HistoryRepository) Stats(ctx context.Context, game string) (map[string]int64, error) {
	values, err := r.rdb.HGetAll(ctx, statsKey(game)).Result()
	if err != nil {
		if err == redis.Nil {
			return map[string]int64{}, nil
		}
		return nil, err
	}

	stats := make(map[string]int64, len(values))
	for field, value := range values {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		stats[field] = n
	}
	return stats, nil
}
