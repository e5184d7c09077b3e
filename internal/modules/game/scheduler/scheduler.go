// Package scheduler drives the round engines. Each registered engine gets
// one recurring task at a fixed tick; the tick goroutine is the only writer
// of that engine's round state.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/game/domain"
	"github.com/ivofi20024w-art/in1bet-sub001/pkg/logger"
)

// Scheduler runs one ticking goroutine per engine.
type Scheduler struct {
	tick    time.Duration
	engines []domain.Engine
	wg      sync.WaitGroup
}

// New creates a scheduler with the given tick granularity
func New(tick time.Duration) *Scheduler {
	return &Scheduler{tick: tick}
}

// Register adds an engine. Must be called before Start.
func (s *Scheduler) Register(engine domain.Engine) {
	s.engines = append(s.engines, engine)
}

// Start launches the per-engine tick loops. They stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	for _, engine := range s.engines {
		s.wg.Add(1)
		go s.run(ctx, engine)
	}
}

// Wait blocks until all engine loops have stopped
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, engine domain.Engine) {
	defer s.wg.Done()

	logger.Info(ctx).
		Str("game", engine.GameType().String()).
		Dur("tick", s.tick).
		Msg("Engine loop started")

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx).
				Str("game", engine.GameType().String()).
				Msg("Engine loop stopped")
			return
		case now := <-ticker.C:
			s.safeTick(ctx, engine, now)
		}
	}
}

// safeTick isolates a panicking engine tick: rounds must keep advancing.
func (s *Scheduler) safeTick(ctx context.Context, engine domain.Engine, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx).
				Interface("panic", r).
				Str("game", engine.GameType().String()).
				Msg("Engine tick panicked")
		}
	}()
	engine.OnTick(ctx, now)
}
