// Package usecase implements the mines game. There is no shared round: each
// bet is its own round with a per-bet seed, and the mine layout is derived
// from the seeds on demand rather than stored.
package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	betdomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/domain"
	betusecase "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/usecase"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/fairness"
	gamedomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/game/domain"
	historydomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/history/domain"
	"github.com/ivofi20024w-art/in1bet-sub001/pkg/logger"
)

// wagerPayload is the per-bet state stored in GamePayload. The layout is
// never persisted; it is recomputed from the bet's seeds.
type wagerPayload struct {
	MineCount int   `json:"mine_count"`
	Revealed  []int `json:"revealed"`
}

// RevealResult is the outcome of one reveal or cash-out.
type RevealResult struct {
	BetID          int64               `json:"bet_id"`
	Status         betdomain.BetStatus `json:"status"`
	Revealed       []int               `json:"revealed"`
	Mines          []int               `json:"mines,omitempty"` // terminal only
	Multiplier     float64             `json:"multiplier"`
	NextMultiplier float64             `json:"next_multiplier,omitempty"`
	WinAmount      decimal.Decimal     `json:"win_amount"`
}

// MinesUseCase owns the mines bet lifecycle.
type MinesUseCase struct {
	bets      *betusecase.BetUseCase
	history   historydomain.Store
	houseEdge float64
}

// NewMinesUseCase creates a new mines use case
func NewMinesUseCase(bets *betusecase.BetUseCase, history historydomain.Store, houseEdge float64) *MinesUseCase {
	return &MinesUseCase{
		bets:      bets,
		history:   history,
		houseEdge: houseEdge,
	}
}

// GameType identifies the engine
func (uc *MinesUseCase) GameType() gamedomain.GameType {
	return gamedomain.GameMines
}

// OnWagerPlaced is a no-op: mines has no shared round state
func (uc *MinesUseCase) OnWagerPlaced(ctx context.Context, userID int64, roundID string) error {
	return nil
}

// OnTick is a no-op: mines is not time-phased
func (uc *MinesUseCase) OnTick(ctx context.Context, now time.Time) {}

// Resolve is a no-op: each bet settles through Reveal or CashOut
func (uc *MinesUseCase) Resolve(ctx context.Context, roundID string) error {
	return nil
}

// Start places a mines bet with a fresh per-bet seed pair. The layout is
// fixed by the seeds at this moment but not revealed.
func (uc *MinesUseCase) Start(ctx context.Context, userID int64, amount decimal.Decimal, mineCount int, clientSeed string) (*betdomain.Bet, error) {
	if mineCount < 1 || mineCount > fairness.GridCells-1 {
		return nil, gamedomain.ErrInvalidCell
	}

	payload, _ := json.Marshal(wagerPayload{MineCount: mineCount, Revealed: []int{}})
	bet, err := uc.bets.Place(ctx, betusecase.PlaceParams{
		UserID:     userID,
		GameType:   gamedomain.GameMines,
		Amount:     amount,
		ClientSeed: clientSeed,
		Payload:    string(payload),
	})
	if err != nil {
		return nil, err
	}
	return bet, nil
}

// Reveal opens one cell. A mine ends the bet LOST and exposes the layout;
// the last safe cell auto-settles WON at the maximal multiplier; otherwise
// the reveal is persisted and the current and next multipliers returned.
func (uc *MinesUseCase) Reveal(ctx context.Context, betID, userID int64, cell int) (*RevealResult, error) {
	bet, err := uc.bets.Get(ctx, betID, userID)
	if err != nil {
		return nil, err
	}
	if bet.Status != betdomain.BetStatusActive {
		return nil, gamedomain.ErrBetAlreadySettled
	}

	var p wagerPayload
	if err := json.Unmarshal([]byte(bet.GamePayload), &p); err != nil {
		return nil, err
	}
	if cell < 0 || cell >= fairness.GridCells {
		return nil, gamedomain.ErrInvalidCell
	}
	for _, c := range p.Revealed {
		if c == cell {
			return nil, gamedomain.ErrInvalidCell
		}
	}

	mines := fairness.MinePositions(bet.ServerSeed, bet.ClientSeed, bet.Nonce, p.MineCount)
	for _, m := range mines {
		if m == cell {
			return uc.settle(ctx, bet, &p, mines, false, 0)
		}
	}

	p.Revealed = append(p.Revealed, cell)
	safeCells := fairness.GridCells - p.MineCount
	if len(p.Revealed) == safeCells {
		multiplier := fairness.StepMultiplier(len(p.Revealed), p.MineCount, uc.houseEdge)
		return uc.settle(ctx, bet, &p, mines, true, multiplier)
	}

	payload, _ := json.Marshal(p)
	if err := uc.bets.UpdatePayload(ctx, bet.ID, string(payload)); err != nil {
		return nil, err
	}

	return &RevealResult{
		BetID:          bet.ID,
		Status:         betdomain.BetStatusActive,
		Revealed:       p.Revealed,
		Multiplier:     fairness.StepMultiplier(len(p.Revealed), p.MineCount, uc.houseEdge),
		NextMultiplier: fairness.StepMultiplier(len(p.Revealed)+1, p.MineCount, uc.houseEdge),
	}, nil
}

// CashOut settles the bet WON at the multiplier earned so far. With no
// reveals yet that multiplier is 1.00, returning the stake.
func (uc *MinesUseCase) CashOut(ctx context.Context, betID, userID int64) (*RevealResult, error) {
	bet, err := uc.bets.Get(ctx, betID, userID)
	if err != nil {
		return nil, err
	}
	if bet.Status != betdomain.BetStatusActive {
		return nil, gamedomain.ErrBetAlreadySettled
	}

	var p wagerPayload
	if err := json.Unmarshal([]byte(bet.GamePayload), &p); err != nil {
		return nil, err
	}

	mines := fairness.MinePositions(bet.ServerSeed, bet.ClientSeed, bet.Nonce, p.MineCount)
	multiplier := fairness.StepMultiplier(len(p.Revealed), p.MineCount, uc.houseEdge)
	return uc.settle(ctx, bet, &p, mines, true, multiplier)
}

func (uc *MinesUseCase) settle(ctx context.Context, bet *betdomain.Bet, p *wagerPayload, mines []int, won bool, multiplier float64) (*RevealResult, error) {
	result, _ := json.Marshal(map[string]interface{}{
		"mines":    mines,
		"revealed": p.Revealed,
	})
	settled, err := uc.bets.Settle(ctx, bet.ID, won, multiplier, string(result))
	if err != nil {
		return nil, err
	}

	if err := uc.history.Push(ctx, gamedomain.GameMines.String(), map[string]interface{}{
		"mine_count": p.MineCount,
		"revealed":   len(p.Revealed),
		"won":        won,
		"multiplier": settled.Multiplier,
		"at":         time.Now().UnixMilli(),
	}); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to push mines history")
	}

	return &RevealResult{
		BetID:      settled.ID,
		Status:     settled.Status,
		Revealed:   p.Revealed,
		Mines:      mines,
		Multiplier: settled.Multiplier,
		WinAmount:  settled.WinAmount,
	}, nil
}
