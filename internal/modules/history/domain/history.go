// Package domain defines the round-history contract. Engines push results
// here after settlement; the gateway reads them back for round-status
// responses. History is best effort: a failed push is logged by the caller
// and never blocks a settlement.
package domain

import (
	"context"
	"encoding/json"
)

// DefaultCapacity is how many results per game a store retains.
const DefaultCapacity = 50

// Store keeps a capped, newest-first list of round results per game plus a
// small set of counters (rounds played, per-color hits, and so on).
type Store interface {
	// Push prepends a result record, trimming the list to capacity.
	Push(ctx context.Context, game string, record interface{}) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, game string, limit int) ([]json.RawMessage, error)

	// IncrStat adds delta to a named counter for the game.
	IncrStat(ctx context.Context, game, field string, delta int64) error

	// Stats returns all counters for the game.
	Stats(ctx context.Context, game string) (map[string]int64, error)
}
