package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ivofi20024w-art/in1bet-sub001/pkg/logger"
)

// JackpotService receives a contribution after every settled wager.
type JackpotService interface {
	Contribute(ctx context.Context, userID int64, game string, wagered decimal.Decimal) error
}

// MissionService tracks mission/XP progress on placement and wins.
type MissionService interface {
	OnWagerPlaced(ctx context.Context, userID int64, game string, wagered decimal.Decimal) error
	OnWin(ctx context.Context, userID int64, game string, winAmount decimal.Decimal) error
}

// Notifier announces large wins to the chat/notification collaborator.
type Notifier interface {
	BigWin(ctx context.Context, userID int64, game string, winAmount decimal.Decimal, multiplier float64) error
}

// Hooks fans settlement side effects out to the external collaborators.
// Every call is fire-and-forget with panic recovery: a hook failure is
// logged and must never roll back or delay a real-money settlement.
type Hooks struct {
	Jackpot         JackpotService
	Missions        MissionService
	Notifier        Notifier
	BigWinThreshold decimal.Decimal
}

// WagerPlaced notifies collaborators that a wager was placed.
func (h *Hooks) WagerPlaced(ctx context.Context, userID int64, game string, wagered decimal.Decimal) {
	if h == nil || h.Missions == nil {
		return
	}
	h.dispatch(ctx, "mission_wager_placed", func(ctx context.Context) error {
		return h.Missions.OnWagerPlaced(ctx, userID, game, wagered)
	})
}

// WagerSettled notifies collaborators that a wager settled.
func (h *Hooks) WagerSettled(ctx context.Context, userID int64, game string, wagered, winAmount decimal.Decimal, multiplier float64) {
	if h == nil {
		return
	}
	if h.Jackpot != nil {
		h.dispatch(ctx, "jackpot_contribution", func(ctx context.Context) error {
			return h.Jackpot.Contribute(ctx, userID, game, wagered)
		})
	}
	if winAmount.IsPositive() && h.Missions != nil {
		h.dispatch(ctx, "mission_win", func(ctx context.Context) error {
			return h.Missions.OnWin(ctx, userID, game, winAmount)
		})
	}
	if h.Notifier != nil && winAmount.GreaterThanOrEqual(h.BigWinThreshold) && h.BigWinThreshold.IsPositive() {
		h.dispatch(ctx, "big_win_notification", func(ctx context.Context) error {
			return h.Notifier.BigWin(ctx, userID, game, winAmount, multiplier)
		})
	}
}

func (h *Hooks) dispatch(ctx context.Context, name string, fn func(ctx context.Context) error) {
	// Detach from the request context: the caller's settlement must not
	// wait on, or be cancelled together with, a side-effect hook.
	hookCtx := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(hookCtx).Interface("panic", r).Str("hook", name).Msg("Side-effect hook panicked")
			}
		}()
		if err := fn(hookCtx); err != nil {
			logger.Warn(hookCtx).Err(err).Str("hook", name).Msg("Side-effect hook failed")
		}
	}()
}

// LogJackpot is the default jackpot collaborator: it only records the
// contribution, the live pot lives in an external service.
type LogJackpot struct{}

func (LogJackpot) Contribute(ctx context.Context, userID int64, game string, wagered decimal.Decimal) error {
	logger.Debug(ctx).
		Int64("user_id", userID).
		Str("game", game).
		Str("wagered", wagered.String()).
		Msg("Jackpot contribution")
	return nil
}

// LogMissions is the default mission collaborator.
type LogMissions struct{}

func (LogMissions) OnWagerPlaced(ctx context.Context, userID int64, game string, wagered decimal.Decimal) error {
	logger.Debug(ctx).
		Int64("user_id", userID).
		Str("game", game).
		Str("wagered", wagered.String()).
		Msg("Mission progress: wager placed")
	return nil
}

func (LogMissions) OnWin(ctx context.Context, userID int64, game string, winAmount decimal.Decimal) error {
	logger.Debug(ctx).
		Int64("user_id", userID).
		Str("game", game).
		Str("win_amount", winAmount.String()).
		Msg("Mission progress: win")
	return nil
}

// LogNotifier is the default big-win notifier.
type LogNotifier struct{}

func (LogNotifier) BigWin(ctx context.Context, userID int64, game string, winAmount decimal.Decimal, multiplier float64) error {
	logger.Info(ctx).
		Int64("user_id", userID).
		Str("game", game).
		Str("win_amount", winAmount.String()).
		Float64("multiplier", multiplier).
		Msg("Big win")
	return nil
}
