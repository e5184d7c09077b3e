// Package usecase implements the wheel game: color bets on a shared spin
// whose stop index is committed before betting opens and revealed only with
// the result.
package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	betdomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/domain"
	betusecase "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/usecase"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/fairness"
	gamedomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/game/domain"
	historydomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/history/domain"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wheel/domain"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wheel/machine"
	"github.com/ivofi20024w-art/in1bet-sub001/pkg/logger"
)

// wagerPayload is the per-bet state stored in GamePayload.
type wagerPayload struct {
	Color domain.Color `json:"color"`
}

// WheelUseCase drives the wheel rounds and settles color bets against the
// stop segment.
type WheelUseCase struct {
	machine     *machine.Machine
	bets        *betusecase.BetUseCase
	history     historydomain.Store
	broadcaster gamedomain.Broadcaster

	mu             sync.Mutex
	pendingResolve string
}

// NewWheelUseCase creates a new wheel use case
func NewWheelUseCase(m *machine.Machine, bets *betusecase.BetUseCase, history historydomain.Store, broadcaster gamedomain.Broadcaster) *WheelUseCase {
	return &WheelUseCase{
		machine:     m,
		bets:        bets,
		history:     history,
		broadcaster: broadcaster,
	}
}

// GameType identifies the engine
func (uc *WheelUseCase) GameType() gamedomain.GameType {
	return gamedomain.GameWheel
}

// OnWagerPlaced counts the wager into the current round
func (uc *WheelUseCase) OnWagerPlaced(ctx context.Context, userID int64, roundID string) error {
	uc.machine.BetPlaced(roundID)
	return nil
}

// OnTick advances the round by at most one phase transition.
func (uc *WheelUseCase) OnTick(ctx context.Context, now time.Time) {
	view := uc.machine.Snapshot()

	switch view.Phase {
	case "":
		uc.startRound(ctx, now)

	case "BETTING":
		if uc.machine.BettingExpired(now) {
			uc.spin(ctx, now)
		}

	case "SPINNING":
		if uc.machine.SpinningExpired(now) {
			uc.showResult(ctx, now)
		}

	case "SHOWING_RESULT":
		uc.retryPendingResolve(ctx)
		if uc.machine.ResultExpired(now) {
			uc.startRound(ctx, now)
		}
	}
}

// PlaceBet opens a color wager on the current BETTING round. A user may bet
// several colors in one round, but each color at most once.
func (uc *WheelUseCase) PlaceBet(ctx context.Context, userID int64, amount decimal.Decimal, color domain.Color) (*betdomain.Bet, error) {
	if !color.Valid() {
		return nil, gamedomain.ErrInvalidAmount
	}
	if !uc.machine.CanAcceptBet() {
		return nil, gamedomain.ErrNotAcceptingWagers
	}

	roundID, serverSeed, serverSeedHash, clientSeed, nonce := uc.machine.Commitment()

	existing, err := uc.bets.UserRoundBets(ctx, gamedomain.GameWheel, roundID, userID)
	if err != nil {
		return nil, err
	}
	for _, b := range existing {
		var p wagerPayload
		if err := json.Unmarshal([]byte(b.GamePayload), &p); err == nil && p.Color == color {
			return nil, gamedomain.ErrDuplicateWager
		}
	}

	payload, _ := json.Marshal(wagerPayload{Color: color})
	bet, err := uc.bets.Place(ctx, betusecase.PlaceParams{
		UserID:     userID,
		GameType:   gamedomain.GameWheel,
		RoundID:    roundID,
		Amount:     amount,
		ClientSeed: clientSeed,
		Seed:       &fairness.SeedPair{ServerSeed: serverSeed, ServerSeedHash: serverSeedHash},
		Nonce:      nonce,
		Payload:    string(payload),
	})
	if err != nil {
		return nil, err
	}

	if !uc.machine.CanAcceptBet() {
		if _, cancelErr := uc.bets.Cancel(ctx, bet.ID, userID, "betting window closed"); cancelErr != nil {
			logger.Error(ctx).Err(cancelErr).Int64("bet_id", bet.ID).Msg("Failed to void late wheel bet")
		}
		return nil, gamedomain.ErrNotAcceptingWagers
	}

	uc.machine.BetPlaced(roundID)
	return bet, nil
}

// Resolve settles every remaining ACTIVE bet of the round against the fixed
// stop segment. Safe to re-run.
func (uc *WheelUseCase) Resolve(ctx context.Context, roundID string) error {
	segment, ok := uc.machine.StopSegment()
	if !ok {
		return nil
	}

	active, err := uc.bets.ActiveByRound(ctx, gamedomain.GameWheel, roundID)
	if err != nil {
		return err
	}

	var firstErr error
	for _, b := range active {
		var p wagerPayload
		if err := json.Unmarshal([]byte(b.GamePayload), &p); err != nil {
			logger.Error(ctx).Err(err).Int64("bet_id", b.ID).Msg("Unreadable wheel wager payload")
			continue
		}

		won := p.Color == segment.Color
		multiplier := 0.0
		if won {
			multiplier = segment.Multiplier
		}
		result, _ := json.Marshal(map[string]interface{}{
			"stop_index": segment.Index,
			"color":      segment.Color,
		})
		if _, err := uc.bets.Settle(ctx, b.ID, won, multiplier, string(result)); err != nil {
			logger.Error(ctx).Err(err).Int64("bet_id", b.ID).Str("round_id", roundID).Msg("Wheel settlement failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Round returns the public round view, the wheel layout and recent results.
func (uc *WheelUseCase) Round(ctx context.Context) (machine.RoundView, []domain.Segment, []json.RawMessage) {
	view := uc.machine.Snapshot()
	recent, err := uc.history.Recent(ctx, gamedomain.GameWheel.String(), 20)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("Wheel history unavailable")
		recent = nil
	}
	return view, uc.machine.Pattern(), recent
}

// Stats returns the aggregate wheel counters (rounds and per-color hits).
func (uc *WheelUseCase) Stats(ctx context.Context) (map[string]int64, error) {
	return uc.history.Stats(ctx, gamedomain.GameWheel.String())
}

func (uc *WheelUseCase) startRound(ctx context.Context, now time.Time) {
	pair, err := fairness.GenerateSeedPair()
	if err != nil {
		logger.Error(ctx).Err(err).Msg("Failed to generate wheel seed pair")
		return
	}
	clientSeed, err := fairness.GenerateClientSeed()
	if err != nil {
		logger.Error(ctx).Err(err).Msg("Failed to generate wheel client seed")
		return
	}

	uc.mu.Lock()
	uc.pendingResolve = ""
	uc.mu.Unlock()

	view := uc.machine.StartRound(pair.ServerSeed, pair.ServerSeedHash, clientSeed, now)

	logger.Info(ctx).
		Str("round_id", view.RoundID).
		Int64("nonce", view.Nonce).
		Msg("Wheel round opened")

	uc.broadcast(gamedomain.NewEvent(gamedomain.GameWheel, gamedomain.EventRoundOpened, view.RoundID, map[string]interface{}{
		"server_seed_hash": view.ServerSeedHash,
		"client_seed":      view.ClientSeed,
		"nonce":            view.Nonce,
		"phase_end":        view.PhaseEnd.UnixMilli(),
	}))
}

func (uc *WheelUseCase) spin(ctx context.Context, now time.Time) {
	_, serverSeed, _, clientSeed, nonce := uc.machine.Commitment()
	stopIndex := fairness.WheelIndex(serverSeed, clientSeed, nonce, uc.machine.Size())
	view := uc.machine.Spin(stopIndex, now)

	logger.Info(ctx).
		Str("round_id", view.RoundID).
		Msg("Wheel spinning")

	uc.broadcast(gamedomain.NewEvent(gamedomain.GameWheel, gamedomain.EventSpinning, view.RoundID, map[string]interface{}{
		"total_bets": view.TotalBets,
		"phase_end":  view.PhaseEnd.UnixMilli(),
	}))
}

func (uc *WheelUseCase) showResult(ctx context.Context, now time.Time) {
	view := uc.machine.ShowResult(now)

	logger.Info(ctx).
		Str("round_id", view.RoundID).
		Int("stop_index", view.StopIndex).
		Str("color", string(view.Segment.Color)).
		Msg("Wheel result")

	uc.broadcast(gamedomain.NewEvent(gamedomain.GameWheel, gamedomain.EventRoundClosed, view.RoundID, map[string]interface{}{
		"stop_index":  view.StopIndex,
		"color":       view.Segment.Color,
		"multiplier":  view.Segment.Multiplier,
		"server_seed": view.ServerSeed,
		"client_seed": view.ClientSeed,
		"nonce":       view.Nonce,
	}))

	if err := uc.history.Push(ctx, gamedomain.GameWheel.String(), map[string]interface{}{
		"round_id":   view.RoundID,
		"stop_index": view.StopIndex,
		"color":      view.Segment.Color,
		"multiplier": view.Segment.Multiplier,
		"at":         time.Now().UnixMilli(),
	}); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to push wheel history")
	}
	if err := uc.history.IncrStat(ctx, gamedomain.GameWheel.String(), "rounds", 1); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to bump wheel round counter")
	}
	if err := uc.history.IncrStat(ctx, gamedomain.GameWheel.String(), "color_"+string(view.Segment.Color), 1); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to bump wheel color counter")
	}

	// Settle as soon as the result is public; the display window doubles
	// as the retry window for failed settlements.
	uc.settleRound(ctx, view.RoundID)
}

func (uc *WheelUseCase) settleRound(ctx context.Context, roundID string) {
	if err := uc.Resolve(ctx, roundID); err != nil {
		uc.mu.Lock()
		uc.pendingResolve = roundID
		uc.mu.Unlock()
	}
}

func (uc *WheelUseCase) retryPendingResolve(ctx context.Context) {
	uc.mu.Lock()
	roundID := uc.pendingResolve
	uc.mu.Unlock()
	if roundID == "" {
		return
	}
	if err := uc.Resolve(ctx, roundID); err == nil {
		uc.mu.Lock()
		uc.pendingResolve = ""
		uc.mu.Unlock()
	}
}

func (uc *WheelUseCase) broadcast(event *gamedomain.Event) {
	if uc.broadcaster != nil {
		uc.broadcaster.Broadcast(event)
	}
}
