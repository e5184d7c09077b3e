// Package memory implements the history store as an in-process ring buffer,
// used by tests and by deployments without Redis.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/history/domain"
)

// HistoryRepository implements domain.Store in memory
type HistoryRepository struct {
	mu       sync.RWMutex
	capacity int
	records  map[string][]json.RawMessage
	stats    map[string]map[string]int64
}

// NewHistoryRepository creates a new memory history repository
func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{
		capacity: domain.DefaultCapacity,
		records:  make(map[string][]json.RawMessage),
		stats:    make(map[string]map[string]int64),
	}
}

func (r *HistoryRepository) Push(ctx context.Context, game string, record interface{}) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	list := append([]json.RawMessage{data}, r.records[game]...)
	if len(list) > r.capacity {
		list = list[:r.capacity]
	}
	r.records[game] = list
	return nil
}

func (r *HistoryRepository) Recent(ctx context.Context, game string, limit int) ([]json.RawMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.records[game]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}

	out := make([]json.RawMessage, limit)
	copy(out, list[:limit])
	return out, nil
}

func (r *HistoryRepository) IncrStat(ctx context.Context, game, field string, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stats[game] == nil {
		r.stats[game] = make(map[string]int64)
	}
	r.stats[game][field] += delta
	return nil
}

func (r *HistoryRepository) Stats(ctx context.Context, game string) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int64, len(r.stats[game]))
	for field, value := range r.stats[game] {
		out[field] = value
	}
	return out, nil
}
