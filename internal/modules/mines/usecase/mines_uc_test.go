package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	betdomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/domain"
	betmemory "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/repository/memory"
	betusecase "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/usecase"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/fairness"
	gamedomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/game/domain"
	historymemory "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/history/repository/memory"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wallet"
)

// Fixed seeds with a known layout: 5 mines on cells 4, 6, 8, 17 and 20.
var (
	zeroSeed  = strings.Repeat("0", 64)
	knownMines = []int{4, 6, 8, 17, 20}
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func newMinesFixture(t *testing.T) (*MinesUseCase, *wallet.MockLedger, *betusecase.BetUseCase) {
	t.Helper()
	ledger := wallet.NewMockLedger()
	bets := betusecase.NewBetUseCase(ledger, betmemory.NewBetRepository(), nil, dec("0.01"), dec("10000"))
	uc := NewMinesUseCase(bets, historymemory.NewHistoryRepository(), 0.01)
	return uc, ledger, bets
}

// placeWithSeeds opens a mines bet with pinned seeds so the layout is known.
func placeWithSeeds(t *testing.T, bets *betusecase.BetUseCase, userID int64, amount decimal.Decimal, mineCount int) *betdomain.Bet {
	t.Helper()
	payload, _ := json.Marshal(wagerPayload{MineCount: mineCount, Revealed: []int{}})
	bet, err := bets.Place(context.Background(), betusecase.PlaceParams{
		UserID:     userID,
		GameType:   gamedomain.GameMines,
		Amount:     amount,
		ClientSeed: "test",
		Seed:       &fairness.SeedPair{ServerSeed: zeroSeed, ServerSeedHash: fairness.HashSeed(zeroSeed)},
		Nonce:      1,
		Payload:    string(payload),
	})
	require.NoError(t, err)
	return bet
}

func TestStartValidatesMineCount(t *testing.T) {
	uc, ledger, _ := newMinesFixture(t)
	ledger.SetBalance(1, dec("100"))
	ctx := context.Background()

	for _, count := range []int{0, 25, -1} {
		_, err := uc.Start(ctx, 1, dec("10"), count, "")
		assert.ErrorIs(t, err, gamedomain.ErrInvalidCell, "mine count %d", count)
	}

	bet, err := uc.Start(ctx, 1, dec("10"), 5, "")
	require.NoError(t, err)
	assert.Equal(t, betdomain.BetStatusActive, bet.Status)
	assert.Equal(t, int64(1), bet.Nonce)
}

func TestRevealSafeCellGrowsMultiplier(t *testing.T) {
	uc, ledger, bets := newMinesFixture(t)
	ledger.SetBalance(1, dec("100"))
	ctx := context.Background()

	bet := placeWithSeeds(t, bets, 1, dec("10"), 5)

	res, err := uc.Reveal(ctx, bet.ID, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, betdomain.BetStatusActive, res.Status)
	assert.Equal(t, 1.24, res.Multiplier)
	assert.Equal(t, 1.56, res.NextMultiplier)
	assert.Empty(t, res.Mines, "layout hidden while active")

	res, err = uc.Reveal(ctx, bet.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.56, res.Multiplier)
	assert.Equal(t, 2.0, res.NextMultiplier)
}

func TestRevealMineLosesAndExposesLayout(t *testing.T) {
	uc, ledger, bets := newMinesFixture(t)
	ledger.SetBalance(1, dec("100"))
	ctx := context.Background()

	bet := placeWithSeeds(t, bets, 1, dec("10"), 5)

	res, err := uc.Reveal(ctx, bet.ID, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, betdomain.BetStatusLost, res.Status)
	assert.Equal(t, knownMines, res.Mines)
	assert.True(t, res.WinAmount.IsZero())

	w, _ := ledger.GetWallet(ctx, 1)
	assert.True(t, w.Balance.Equal(dec("90")))

	// No actions on a settled bet.
	_, err = uc.Reveal(ctx, bet.ID, 1, 0)
	assert.ErrorIs(t, err, gamedomain.ErrBetAlreadySettled)
	_, err = uc.CashOut(ctx, bet.ID, 1)
	assert.ErrorIs(t, err, gamedomain.ErrBetAlreadySettled)
}

func TestRevealRejectsBadCells(t *testing.T) {
	uc, ledger, bets := newMinesFixture(t)
	ledger.SetBalance(1, dec("100"))
	ctx := context.Background()

	bet := placeWithSeeds(t, bets, 1, dec("10"), 5)

	_, err := uc.Reveal(ctx, bet.ID, 1, 25)
	assert.ErrorIs(t, err, gamedomain.ErrInvalidCell)
	_, err = uc.Reveal(ctx, bet.ID, 1, -1)
	assert.ErrorIs(t, err, gamedomain.ErrInvalidCell)

	_, err = uc.Reveal(ctx, bet.ID, 1, 0)
	require.NoError(t, err)
	_, err = uc.Reveal(ctx, bet.ID, 1, 0)
	assert.ErrorIs(t, err, gamedomain.ErrInvalidCell, "cell already revealed")
}

func TestCashOutPaysStepMultiplier(t *testing.T) {
	uc, ledger, bets := newMinesFixture(t)
	ledger.SetBalance(1, dec("100"))
	ctx := context.Background()

	bet := placeWithSeeds(t, bets, 1, dec("10"), 5)

	// Three safe reveals: cells 0, 1 and 2 hold no mines.
	for _, cell := range []int{0, 1, 2} {
		_, err := uc.Reveal(ctx, bet.ID, 1, cell)
		require.NoError(t, err)
	}

	res, err := uc.CashOut(ctx, bet.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, betdomain.BetStatusWon, res.Status)
	assert.Equal(t, 2.0, res.Multiplier)
	assert.True(t, res.WinAmount.Equal(dec("20")))

	w, _ := ledger.GetWallet(ctx, 1)
	assert.True(t, w.Balance.Equal(dec("110")))
}

func TestCashOutWithoutRevealsReturnsStake(t *testing.T) {
	uc, ledger, bets := newMinesFixture(t)
	ledger.SetBalance(1, dec("100"))
	ctx := context.Background()

	bet := placeWithSeeds(t, bets, 1, dec("10"), 5)

	res, err := uc.CashOut(ctx, bet.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Multiplier)

	w, _ := ledger.GetWallet(ctx, 1)
	assert.True(t, w.Balance.Equal(dec("100")))
}

func TestLastSafeCellAutoWins(t *testing.T) {
	uc, ledger, bets := newMinesFixture(t)
	ledger.SetBalance(1, dec("100"))
	ctx := context.Background()

	// 24 mines leave a single safe cell; find it from the derived layout.
	bet := placeWithSeeds(t, bets, 1, dec("10"), 24)
	mines := fairness.MinePositions(zeroSeed, "test", 1, 24)
	mined := make(map[int]bool, len(mines))
	for _, m := range mines {
		mined[m] = true
	}
	safe := -1
	for cell := 0; cell < fairness.GridCells; cell++ {
		if !mined[cell] {
			safe = cell
			break
		}
	}
	require.NotEqual(t, -1, safe)

	res, err := uc.Reveal(ctx, bet.ID, 1, safe)
	require.NoError(t, err)
	assert.Equal(t, betdomain.BetStatusWon, res.Status)
	assert.Equal(t, 24.75, res.Multiplier)
	assert.True(t, res.WinAmount.Equal(dec("247.5")))
}

func TestStepMultiplierStrictlyMonotonic(t *testing.T) {
	prev := 1.0
	for revealed := 1; revealed <= 20; revealed++ {
		m := fairness.StepMultiplier(revealed, 5, 0.01)
		assert.Greater(t, m, prev, "revealed=%d", revealed)
		prev = m
	}
}
