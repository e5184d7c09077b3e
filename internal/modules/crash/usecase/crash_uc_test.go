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
	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/crash/machine"
	gamedomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/game/domain"
	historymemory "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/history/repository/memory"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wallet"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func newCrashFixture(t *testing.T) (*CrashUseCase, *machine.Machine, *wallet.MockLedger, *betusecase.BetUseCase) {
	t.Helper()
	ledger := wallet.NewMockLedger()
	bets := betusecase.NewBetUseCase(ledger, betmemory.NewBetRepository(), nil, dec("0.01"), dec("10000"))
	m := machine.NewMachine(10*time.Millisecond, 10*time.Millisecond, 0.06)
	uc := NewCrashUseCase(m, bets, historymemory.NewHistoryRepository(), nil, 0.01)
	return uc, m, ledger, bets
}

func TestPlaceBetOnlyDuringWaiting(t *testing.T) {
	uc, m, ledger, _ := newCrashFixture(t)
	ledger.SetBalance(1, dec("100"))
	ctx := context.Background()

	// No round yet.
	_, err := uc.PlaceBet(ctx, 1, dec("10"), 0)
	assert.ErrorIs(t, err, gamedomain.ErrNotAcceptingWagers)

	t0 := time.Now()
	uc.OnTick(ctx, t0)
	require.Equal(t, "WAITING", m.Snapshot().Phase)

	bet, err := uc.PlaceBet(ctx, 1, dec("10"), 0)
	require.NoError(t, err)
	assert.Equal(t, m.Snapshot().RoundID, bet.RoundID)
	assert.Equal(t, m.Snapshot().Nonce, bet.Nonce)
	assert.Equal(t, 1, m.Snapshot().TotalBets)

	// Same round, same user.
	_, err = uc.PlaceBet(ctx, 1, dec("10"), 0)
	assert.ErrorIs(t, err, gamedomain.ErrDuplicateWager)

	// After launch bets are closed.
	uc.OnTick(ctx, t0.Add(11*time.Millisecond))
	require.Equal(t, "RUNNING", m.Snapshot().Phase)
	_, err = uc.PlaceBet(ctx, 2, dec("10"), 0)
	assert.ErrorIs(t, err, gamedomain.ErrNotAcceptingWagers)
}

func TestCashOutWinsBeforeCrashSweepLoses(t *testing.T) {
	uc, m, ledger, bets := newCrashFixture(t)
	ledger.SetBalance(1, dec("100"))
	ledger.SetBalance(2, dec("100"))
	ctx := context.Background()

	t0 := time.Now()
	uc.OnTick(ctx, t0)
	b1, err := uc.PlaceBet(ctx, 1, dec("30"), 0)
	require.NoError(t, err)
	b2, err := uc.PlaceBet(ctx, 2, dec("30"), 0)
	require.NoError(t, err)

	// Launch with a known crash point and a launch time of "now" so the
	// live multiplier is still 1.00 when user 1 cashes out.
	m.Launch(5.0, time.Now())

	settled, err := uc.CashOut(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, betdomain.BetStatusWon, settled.Status)
	assert.GreaterOrEqual(t, settled.Multiplier, 1.0)

	// A second cash-out finds no active bet.
	_, err = uc.CashOut(ctx, 1)
	assert.ErrorIs(t, err, gamedomain.ErrBetNotFound)

	// Drive past the crash point: user 2 never cashed out and loses.
	uc.OnTick(ctx, time.Now().Add(time.Hour))
	require.Equal(t, "CRASHED", m.Snapshot().Phase)

	lost, err := bets.Get(ctx, b2.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, betdomain.BetStatusLost, lost.Status)

	won, err := bets.Get(ctx, b1.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, betdomain.BetStatusWon, won.Status, "crash sweep must not touch settled bets")

	// Seed and crash point revealed only now.
	view := m.Snapshot()
	assert.NotEmpty(t, view.ServerSeed)
	assert.Equal(t, 5.0, view.CrashPoint)
}

func TestAutoCashOutHonoredBeforeCrash(t *testing.T) {
	uc, m, ledger, bets := newCrashFixture(t)
	ledger.SetBalance(1, dec("100"))
	ctx := context.Background()

	t0 := time.Now()
	uc.OnTick(ctx, t0)
	bet, err := uc.PlaceBet(ctx, 1, dec("20"), 1.5)
	require.NoError(t, err)

	launch := time.Now()
	m.Launch(5.0, launch)

	// e^(0.06*7) = 1.52, above the 1.5 target and below the crash point.
	uc.OnTick(ctx, launch.Add(7*time.Second))

	settled, err := bets.Get(ctx, bet.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, betdomain.BetStatusWon, settled.Status)
	assert.Equal(t, 1.5, settled.Multiplier, "auto cash-out pays the target, not the tick multiplier")
	assert.True(t, settled.WinAmount.Equal(dec("30")))
}

func TestAutoCashOutTargetValidation(t *testing.T) {
	uc, _, ledger, _ := newCrashFixture(t)
	ledger.SetBalance(1, dec("100"))
	ctx := context.Background()

	uc.OnTick(ctx, time.Now())
	_, err := uc.PlaceBet(ctx, 1, dec("10"), 1.0)
	assert.ErrorIs(t, err, gamedomain.ErrInvalidAmount)
}

func TestNewRoundOpensAfterDisplayWindow(t *testing.T) {
	uc, m, _, _ := newCrashFixture(t)
	ctx := context.Background()

	t0 := time.Now()
	uc.OnTick(ctx, t0)
	first := m.Snapshot()

	m.Launch(2.0, t0)
	crashAt := t0.Add(time.Hour)
	uc.OnTick(ctx, crashAt) // multiplier caps far above 2.0
	uc.OnTick(ctx, crashAt.Add(11*time.Millisecond))

	second := m.Snapshot()
	assert.Equal(t, "WAITING", second.Phase)
	assert.NotEqual(t, first.RoundID, second.RoundID)
	assert.Equal(t, first.Nonce+1, second.Nonce)
	assert.NotEqual(t, first.ServerSeedHash, second.ServerSeedHash)
}
