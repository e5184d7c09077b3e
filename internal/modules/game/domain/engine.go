package domain

import (
	"context"
	"time"
)

// Engine is the contract every round engine implements. The scheduler drives
// OnTick from a single goroutine per engine; that goroutine is the sole
// writer of round/phase state, so engines need no locks beyond what their
// snapshot readers require.
type Engine interface {
	// GameType identifies the engine
	GameType() GameType

	// OnWagerPlaced notifies the engine that a wager attached to its
	// current round
	OnWagerPlaced(ctx context.Context, userID int64, roundID string) error

	// OnTick advances the engine's state machine by at most one phase
	// transition. Stateless engines treat it as a no-op.
	OnTick(ctx context.Context, now time.Time)

	// Resolve force-settles any unsettled bets of a finished round. Used by
	// the reconciliation pass; settlement is idempotent so re-invocation is
	// safe.
	Resolve(ctx context.Context, roundID string) error
}
