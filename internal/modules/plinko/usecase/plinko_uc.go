// Package usecase implements plinko. A drop is placed and settled in one
// call: the path is fully determined by the bet's committed seeds, so there
// is nothing to wait for.
package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	betusecase "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/usecase"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/fairness"
	gamedomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/game/domain"
	historydomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/history/domain"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/plinko/domain"
	"github.com/ivofi20024w-art/in1bet-sub001/pkg/logger"
)

// DropResult is the settled outcome of one drop.
type DropResult struct {
	BetID          int64           `json:"bet_id"`
	Path           []int           `json:"path"`
	Bucket         int             `json:"bucket"`
	Multiplier     float64         `json:"multiplier"`
	WinAmount      decimal.Decimal `json:"win_amount"`
	ServerSeed     string          `json:"server_seed"`
	ServerSeedHash string          `json:"server_seed_hash"`
	ClientSeed     string          `json:"client_seed"`
	Nonce          int64           `json:"nonce"`
}

// PlinkoUseCase owns the plinko drop flow.
type PlinkoUseCase struct {
	bets    *betusecase.BetUseCase
	history historydomain.Store
}

// NewPlinkoUseCase creates a new plinko use case
func NewPlinkoUseCase(bets *betusecase.BetUseCase, history historydomain.Store) *PlinkoUseCase {
	return &PlinkoUseCase{bets: bets, history: history}
}

// GameType identifies the engine
func (uc *PlinkoUseCase) GameType() gamedomain.GameType {
	return gamedomain.GamePlinko
}

// OnWagerPlaced is a no-op: plinko has no shared round state
func (uc *PlinkoUseCase) OnWagerPlaced(ctx context.Context, userID int64, roundID string) error {
	return nil
}

// OnTick is a no-op: plinko is stateless
func (uc *PlinkoUseCase) OnTick(ctx context.Context, now time.Time) {}

// Resolve is a no-op: drops settle within the placing call
func (uc *PlinkoUseCase) Resolve(ctx context.Context, roundID string) error {
	return nil
}

// Drop places a wager, derives the path from the bet's seeds and settles it
// immediately. Every bucket pays, so the bet settles WON at the bucket
// multiplier even when that multiplier is below 1.
func (uc *PlinkoUseCase) Drop(ctx context.Context, userID int64, amount decimal.Decimal, risk domain.Risk, rows int, clientSeed string) (*DropResult, error) {
	if !risk.Valid() || !domain.SupportedRows(rows) {
		return nil, gamedomain.ErrInvalidAmount
	}
	table, ok := domain.Multipliers(risk, rows)
	if !ok {
		return nil, gamedomain.ErrInvalidAmount
	}

	payload, _ := json.Marshal(map[string]interface{}{"risk": risk, "rows": rows})
	bet, err := uc.bets.Place(ctx, betusecase.PlaceParams{
		UserID:     userID,
		GameType:   gamedomain.GamePlinko,
		Amount:     amount,
		ClientSeed: clientSeed,
		Payload:    string(payload),
	})
	if err != nil {
		return nil, err
	}

	path, bucket := fairness.DropPath(bet.ServerSeed, bet.ClientSeed, bet.Nonce, rows)
	multiplier := table[bucket]

	result, _ := json.Marshal(map[string]interface{}{
		"path":   path,
		"bucket": bucket,
	})
	settled, err := uc.bets.Settle(ctx, bet.ID, true, multiplier, string(result))
	if err != nil {
		// The reserve is durable and the outcome deterministic; the
		// unpaid-wins sweep completes the payout later.
		logger.Error(ctx).Err(err).Int64("bet_id", bet.ID).Msg("Plinko settlement failed")
		return nil, err
	}

	if err := uc.history.Push(ctx, gamedomain.GamePlinko.String(), map[string]interface{}{
		"risk":       risk,
		"rows":       rows,
		"bucket":     bucket,
		"multiplier": multiplier,
		"at":         time.Now().UnixMilli(),
	}); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to push plinko history")
	}

	return &DropResult{
		BetID:          settled.ID,
		Path:           path,
		Bucket:         bucket,
		Multiplier:     settled.Multiplier,
		WinAmount:      settled.WinAmount,
		ServerSeed:     settled.ServerSeed,
		ServerSeedHash: settled.ServerSeedHash,
		ClientSeed:     settled.ClientSeed,
		Nonce:          settled.Nonce,
	}, nil
}
