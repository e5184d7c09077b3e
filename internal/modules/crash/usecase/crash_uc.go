// Package usecase implements the crash game: a shared round whose
// multiplier climbs until a committed crash point, with per-user cash-outs
// racing the crash.
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
	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/crash/machine"
	gamedomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/game/domain"
	historydomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/history/domain"
	"github.com/ivofi20024w-art/in1bet-sub001/pkg/logger"
)

// minAutoCashout is the lowest accepted auto-cash-out target. Anything at or
// below 1.00 would cash out before the round moves.
const minAutoCashout = 1.01

// CrashUseCase drives the crash rounds and owns every money movement they
// cause. The scheduler calls OnTick; the gateway calls PlaceBet and CashOut.
type CrashUseCase struct {
	machine     *machine.Machine
	bets        *betusecase.BetUseCase
	history     historydomain.Store
	broadcaster gamedomain.Broadcaster
	houseEdge   float64

	mu             sync.Mutex
	autoCashouts   map[int64]float64 // betID -> target multiplier
	pendingResolve string            // round with settle failures to retry
}

// NewCrashUseCase creates a new crash use case
func NewCrashUseCase(m *machine.Machine, bets *betusecase.BetUseCase, history historydomain.Store, broadcaster gamedomain.Broadcaster, houseEdge float64) *CrashUseCase {
	return &CrashUseCase{
		machine:      m,
		bets:         bets,
		history:      history,
		broadcaster:  broadcaster,
		houseEdge:    houseEdge,
		autoCashouts: make(map[int64]float64),
	}
}

// GameType identifies the engine
func (uc *CrashUseCase) GameType() gamedomain.GameType {
	return gamedomain.GameCrash
}

// OnWagerPlaced counts the wager into the current round
func (uc *CrashUseCase) OnWagerPlaced(ctx context.Context, userID int64, roundID string) error {
	uc.machine.BetPlaced(roundID)
	return nil
}

// OnTick advances the round by at most one phase transition.
func (uc *CrashUseCase) OnTick(ctx context.Context, now time.Time) {
	view := uc.machine.Snapshot()

	switch view.Phase {
	case "":
		uc.startRound(ctx, now)

	case "WAITING":
		if uc.machine.WaitingExpired(now) {
			uc.launch(ctx, now)
		}

	case "RUNNING":
		multiplier, crashed := uc.machine.Advance(now)
		uc.runAutoCashouts(ctx, multiplier)
		if crashed {
			uc.onCrash(ctx, view.RoundID)
		} else {
			uc.broadcast(gamedomain.NewEvent(gamedomain.GameCrash, gamedomain.EventTick, view.RoundID, map[string]interface{}{
				"multiplier": multiplier,
			}))
		}

	case "CRASHED":
		uc.retryPendingResolve(ctx)
		if uc.machine.CrashedExpired(now) {
			uc.startRound(ctx, now)
		}
	}
}

// PlaceBet opens a wager on the current WAITING round. One bet per user per
// round; autoCashout 0 means manual only.
func (uc *CrashUseCase) PlaceBet(ctx context.Context, userID int64, amount decimal.Decimal, autoCashout float64) (*betdomain.Bet, error) {
	if autoCashout != 0 && autoCashout < minAutoCashout {
		return nil, gamedomain.ErrInvalidAmount
	}
	if !uc.machine.CanAcceptBet() {
		return nil, gamedomain.ErrNotAcceptingWagers
	}

	roundID, serverSeed, serverSeedHash, clientSeed, nonce := uc.machine.Commitment()

	existing, err := uc.bets.UserRoundBets(ctx, gamedomain.GameCrash, roundID, userID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, gamedomain.ErrDuplicateWager
	}

	var payload string
	if autoCashout > 0 {
		payload = mustJSON(map[string]interface{}{"auto_cashout": autoCashout})
	}

	bet, err := uc.bets.Place(ctx, betusecase.PlaceParams{
		UserID:     userID,
		GameType:   gamedomain.GameCrash,
		RoundID:    roundID,
		Amount:     amount,
		ClientSeed: clientSeed,
		Seed:       &fairness.SeedPair{ServerSeed: serverSeed, ServerSeedHash: serverSeedHash},
		Nonce:      nonce,
		Payload:    payload,
	})
	if err != nil {
		return nil, err
	}

	// The window may have closed between the check and the reserve. Void
	// the bet rather than carry it into a round it never joined.
	if !uc.machine.CanAcceptBet() {
		if _, cancelErr := uc.bets.Cancel(ctx, bet.ID, userID, "betting window closed"); cancelErr != nil {
			logger.Error(ctx).Err(cancelErr).Int64("bet_id", bet.ID).Msg("Failed to void late crash bet")
		}
		return nil, gamedomain.ErrNotAcceptingWagers
	}

	if autoCashout > 0 {
		uc.mu.Lock()
		uc.autoCashouts[bet.ID] = autoCashout
		uc.mu.Unlock()
	}

	uc.machine.BetPlaced(roundID)
	return bet, nil
}

// CashOut settles the caller's active bet WON at the live multiplier.
// Rejected outside RUNNING, and once the crash point has been reached.
func (uc *CrashUseCase) CashOut(ctx context.Context, userID int64) (*betdomain.Bet, error) {
	view := uc.machine.Snapshot()
	if view.Phase != "RUNNING" {
		return nil, gamedomain.ErrNotAcceptingWagers
	}

	bets, err := uc.bets.UserRoundBets(ctx, gamedomain.GameCrash, view.RoundID, userID)
	if err != nil {
		return nil, err
	}
	var active *betdomain.Bet
	for _, b := range bets {
		if b.Status == betdomain.BetStatusActive {
			active = b
			break
		}
	}
	if active == nil {
		return nil, gamedomain.ErrBetNotFound
	}

	multiplier, ok := uc.machine.CurrentMultiplier(time.Now())
	if !ok {
		return nil, gamedomain.ErrNotAcceptingWagers
	}

	result := mustJSON(map[string]interface{}{"cashout_multiplier": multiplier})
	settled, err := uc.bets.Settle(ctx, active.ID, true, multiplier, result)
	if err != nil {
		return nil, err
	}
	uc.forgetAuto(active.ID)

	if uc.broadcaster != nil {
		uc.broadcaster.SendToUser(userID, gamedomain.NewEvent(gamedomain.GameCrash, gamedomain.EventTick, view.RoundID, map[string]interface{}{
			"cashed_out": true,
			"bet_id":     settled.ID,
			"multiplier": settled.Multiplier,
			"win_amount": settled.WinAmount,
		}))
	}
	return settled, nil
}

// Resolve settles every remaining ACTIVE bet of the round LOST. Safe to
// re-run; settlement is idempotent.
func (uc *CrashUseCase) Resolve(ctx context.Context, roundID string) error {
	active, err := uc.bets.ActiveByRound(ctx, gamedomain.GameCrash, roundID)
	if err != nil {
		return err
	}

	var firstErr error
	for _, b := range active {
		result := mustJSON(map[string]interface{}{"crashed": true})
		if _, err := uc.bets.Settle(ctx, b.ID, false, 0, result); err != nil {
			logger.Error(ctx).Err(err).Int64("bet_id", b.ID).Str("round_id", roundID).Msg("Crash loss settlement failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Round returns the public round view plus recent crash points.
func (uc *CrashUseCase) Round(ctx context.Context) (machine.RoundView, []json.RawMessage) {
	view := uc.machine.Snapshot()
	recent, err := uc.history.Recent(ctx, gamedomain.GameCrash.String(), 20)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("Crash history unavailable")
		recent = nil
	}
	return view, recent
}

func (uc *CrashUseCase) startRound(ctx context.Context, now time.Time) {
	pair, err := fairness.GenerateSeedPair()
	if err != nil {
		logger.Error(ctx).Err(err).Msg("Failed to generate crash seed pair")
		return
	}
	clientSeed, err := fairness.GenerateClientSeed()
	if err != nil {
		logger.Error(ctx).Err(err).Msg("Failed to generate crash client seed")
		return
	}

	uc.mu.Lock()
	uc.autoCashouts = make(map[int64]float64)
	uc.pendingResolve = ""
	uc.mu.Unlock()

	view := uc.machine.StartRound(pair.ServerSeed, pair.ServerSeedHash, clientSeed, now)

	logger.Info(ctx).
		Str("round_id", view.RoundID).
		Int64("nonce", view.Nonce).
		Str("server_seed_hash", view.ServerSeedHash).
		Msg("Crash round opened")

	uc.broadcast(gamedomain.NewEvent(gamedomain.GameCrash, gamedomain.EventRoundOpened, view.RoundID, map[string]interface{}{
		"server_seed_hash": view.ServerSeedHash,
		"client_seed":      view.ClientSeed,
		"nonce":            view.Nonce,
		"phase_end":        view.PhaseEnd.UnixMilli(),
	}))
}

func (uc *CrashUseCase) launch(ctx context.Context, now time.Time) {
	_, serverSeed, _, clientSeed, nonce := uc.machine.Commitment()
	crashPoint := fairness.CrashPoint(serverSeed, clientSeed, nonce, uc.houseEdge)
	view := uc.machine.Launch(crashPoint, now)

	logger.Info(ctx).
		Str("round_id", view.RoundID).
		Msg("Crash round launched")

	uc.broadcast(gamedomain.NewEvent(gamedomain.GameCrash, gamedomain.EventBettingClosed, view.RoundID, map[string]interface{}{
		"total_bets": view.TotalBets,
	}))
}

func (uc *CrashUseCase) onCrash(ctx context.Context, roundID string) {
	view := uc.machine.Snapshot()

	logger.Info(ctx).
		Str("round_id", roundID).
		Float64("crash_point", view.CrashPoint).
		Msg("Crash round crashed")

	if err := uc.Resolve(ctx, roundID); err != nil {
		uc.mu.Lock()
		uc.pendingResolve = roundID
		uc.mu.Unlock()
	}

	uc.broadcast(gamedomain.NewEvent(gamedomain.GameCrash, gamedomain.EventRoundClosed, roundID, map[string]interface{}{
		"crash_point": view.CrashPoint,
		"server_seed": view.ServerSeed,
		"client_seed": view.ClientSeed,
		"nonce":       view.Nonce,
	}))

	if err := uc.history.Push(ctx, gamedomain.GameCrash.String(), map[string]interface{}{
		"round_id":    roundID,
		"crash_point": view.CrashPoint,
		"at":          time.Now().UnixMilli(),
	}); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to push crash history")
	}
	if err := uc.history.IncrStat(ctx, gamedomain.GameCrash.String(), "rounds", 1); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to bump crash round counter")
	}
}

// runAutoCashouts settles bets whose auto target the multiplier reached.
// Runs before the crash check so a target below the crash point always pays.
func (uc *CrashUseCase) runAutoCashouts(ctx context.Context, multiplier float64) {
	uc.mu.Lock()
	var due []int64
	targets := make(map[int64]float64)
	for betID, target := range uc.autoCashouts {
		if target <= multiplier {
			due = append(due, betID)
			targets[betID] = target
			delete(uc.autoCashouts, betID)
		}
	}
	uc.mu.Unlock()

	for _, betID := range due {
		target := targets[betID]
		result := mustJSON(map[string]interface{}{"auto_cashout": target})
		if _, err := uc.bets.Settle(ctx, betID, true, target, result); err != nil {
			logger.Error(ctx).Err(err).Int64("bet_id", betID).Msg("Auto cash-out settlement failed")
		}
	}
}

func (uc *CrashUseCase) retryPendingResolve(ctx context.Context) {
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

func (uc *CrashUseCase) forgetAuto(betID int64) {
	uc.mu.Lock()
	delete(uc.autoCashouts, betID)
	uc.mu.Unlock()
}

func (uc *CrashUseCase) broadcast(event *gamedomain.Event) {
	if uc.broadcaster != nil {
		uc.broadcaster.Broadcast(event)
	}
}

func mustJSON(v map[string]interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
