package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	betdomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/domain"
	betmemory "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/repository/memory"
	betusecase "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/usecase"
	gamedomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/game/domain"
	historymemory "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/history/repository/memory"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wallet"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wheel/domain"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wheel/machine"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func newWheelFixture(t *testing.T) (*WheelUseCase, *machine.Machine, *wallet.MockLedger, *betusecase.BetUseCase) {
	t.Helper()
	ledger := wallet.NewMockLedger()
	bets := betusecase.NewBetUseCase(ledger, betmemory.NewBetRepository(), nil, dec("0.01"), dec("10000"))
	m := machine.NewMachine(15, 10*time.Millisecond, 10*time.Millisecond, 10*time.Millisecond)
	uc := NewWheelUseCase(m, bets, historymemory.NewHistoryRepository(), nil)
	return uc, m, ledger, bets
}

func TestSameColorTwiceRejected(t *testing.T) {
	uc, _, ledger, _ := newWheelFixture(t)
	ledger.SetBalance(1, dec("100"))
	ctx := context.Background()

	uc.OnTick(ctx, time.Now())

	_, err := uc.PlaceBet(ctx, 1, dec("10"), domain.ColorRed)
	require.NoError(t, err)

	_, err = uc.PlaceBet(ctx, 1, dec("10"), domain.ColorRed)
	assert.ErrorIs(t, err, gamedomain.ErrDuplicateWager)

	// A different color in the same round is fine.
	_, err = uc.PlaceBet(ctx, 1, dec("10"), domain.ColorBlack)
	assert.NoError(t, err)
}

func TestStopIndexWithheldUntilResult(t *testing.T) {
	uc, m, _, _ := newWheelFixture(t)
	ctx := context.Background()

	t0 := time.Now()
	uc.OnTick(ctx, t0)
	assert.Equal(t, -1, m.Snapshot().StopIndex)

	uc.OnTick(ctx, t0.Add(11*time.Millisecond)) // spin
	view := m.Snapshot()
	require.Equal(t, "SPINNING", view.Phase)
	assert.Equal(t, -1, view.StopIndex, "stop index hidden while spinning")
	assert.Empty(t, view.ServerSeed)

	spinEnd := view.PhaseEnd
	uc.OnTick(ctx, spinEnd.Add(time.Millisecond)) // show result
	view = m.Snapshot()
	require.Equal(t, "SHOWING_RESULT", view.Phase)
	assert.GreaterOrEqual(t, view.StopIndex, 0)
	assert.Less(t, view.StopIndex, 15)
	assert.NotEmpty(t, view.ServerSeed)
	require.NotNil(t, view.Segment)
}

func TestSettlementMatchesStopSegment(t *testing.T) {
	uc, m, ledger, bets := newWheelFixture(t)
	ledger.SetBalance(1, dec("100"))
	ledger.SetBalance(2, dec("100"))
	ctx := context.Background()

	t0 := time.Now()
	uc.OnTick(ctx, t0)

	redBet, err := uc.PlaceBet(ctx, 1, dec("10"), domain.ColorRed)
	require.NoError(t, err)
	blackBet, err := uc.PlaceBet(ctx, 2, dec("10"), domain.ColorBlack)
	require.NoError(t, err)

	// Fix the stop on index 13, a black 2x segment, then show the result.
	m.Spin(13, t0.Add(11*time.Millisecond))
	spinEnd := t0.Add(11 * time.Millisecond).Add(10 * time.Millisecond)
	uc.OnTick(ctx, spinEnd.Add(time.Millisecond))

	won, err := bets.Get(ctx, blackBet.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, betdomain.BetStatusWon, won.Status)
	assert.Equal(t, 2.0, won.Multiplier)
	assert.True(t, won.WinAmount.Equal(dec("20")))

	lost, err := bets.Get(ctx, redBet.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, betdomain.BetStatusLost, lost.Status)
	assert.True(t, lost.WinAmount.IsZero())

	w1, _ := ledger.GetWallet(ctx, 1)
	w2, _ := ledger.GetWallet(ctx, 2)
	assert.True(t, w1.Balance.Equal(dec("90")))
	assert.True(t, w2.Balance.Equal(dec("110")))

	// Stats recorded for the round.
	stats, err := uc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats["rounds"])
	assert.Equal(t, int64(1), stats["color_black"])
}

func TestNextRoundOpensAfterResultWindow(t *testing.T) {
	uc, m, _, _ := newWheelFixture(t)
	ctx := context.Background()

	t0 := time.Now()
	uc.OnTick(ctx, t0)
	first := m.Snapshot()

	uc.OnTick(ctx, t0.Add(11*time.Millisecond)) // spin
	resultAt := m.Snapshot().PhaseEnd.Add(time.Millisecond)
	uc.OnTick(ctx, resultAt) // show result
	uc.OnTick(ctx, m.Snapshot().PhaseEnd.Add(time.Millisecond))

	second := m.Snapshot()
	assert.Equal(t, "BETTING", second.Phase)
	assert.NotEqual(t, first.RoundID, second.RoundID)
	assert.Equal(t, first.Nonce+1, second.Nonce)
}
