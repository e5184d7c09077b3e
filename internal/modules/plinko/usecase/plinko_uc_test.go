package usecase

import (
	"context"
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
	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/plinko/domain"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wallet"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func newPlinkoFixture(t *testing.T) (*PlinkoUseCase, *wallet.MockLedger, *betusecase.BetUseCase) {
	t.Helper()
	ledger := wallet.NewMockLedger()
	bets := betusecase.NewBetUseCase(ledger, betmemory.NewBetRepository(), nil, dec("0.01"), dec("10000"))
	uc := NewPlinkoUseCase(bets, historymemory.NewHistoryRepository())
	return uc, ledger, bets
}

func TestDropSettlesImmediately(t *testing.T) {
	uc, ledger, bets := newPlinkoFixture(t)
	ledger.SetBalance(1, dec("100"))
	ctx := context.Background()

	res, err := uc.Drop(ctx, 1, dec("10"), domain.RiskHigh, 16, "test")
	require.NoError(t, err)

	assert.Len(t, res.Path, 16)
	assert.GreaterOrEqual(t, res.Bucket, 0)
	assert.LessOrEqual(t, res.Bucket, 16)
	assert.NotEmpty(t, res.ServerSeed, "seed revealed with the settled drop")

	// The outcome must replay from the revealed seeds.
	_, bucket := fairness.DropPath(res.ServerSeed, res.ClientSeed, res.Nonce, 16)
	assert.Equal(t, res.Bucket, bucket)

	table, _ := domain.Multipliers(domain.RiskHigh, 16)
	assert.Equal(t, table[res.Bucket], res.Multiplier)

	bet, err := bets.Get(ctx, res.BetID, 1)
	require.NoError(t, err)
	assert.Equal(t, betdomain.BetStatusWon, bet.Status)
	assert.True(t, bet.WinAmount.Equal(dec("10").Mul(decimal.NewFromFloat(res.Multiplier)).Round(2)))

	w, _ := ledger.GetWallet(ctx, 1)
	expected := dec("90").Add(bet.WinAmount)
	assert.True(t, w.Balance.Equal(expected), "balance = %s want %s", w.Balance, expected)
}

func TestDropValidatesRiskAndRows(t *testing.T) {
	uc, ledger, _ := newPlinkoFixture(t)
	ledger.SetBalance(1, dec("100"))
	ctx := context.Background()

	_, err := uc.Drop(ctx, 1, dec("10"), "extreme", 16, "")
	assert.ErrorIs(t, err, gamedomain.ErrInvalidAmount)

	_, err = uc.Drop(ctx, 1, dec("10"), domain.RiskLow, 10, "")
	assert.ErrorIs(t, err, gamedomain.ErrInvalidAmount)

	w, _ := ledger.GetWallet(ctx, 1)
	assert.True(t, w.Balance.Equal(dec("100")), "invalid drops must not touch the balance")
}

func TestDropNonceIncrementsPerUser(t *testing.T) {
	uc, ledger, bets := newPlinkoFixture(t)
	ledger.SetBalance(1, dec("100"))
	ctx := context.Background()

	first, err := uc.Drop(ctx, 1, dec("5"), domain.RiskLow, 8, "")
	require.NoError(t, err)
	second, err := uc.Drop(ctx, 1, dec("5"), domain.RiskLow, 8, "")
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Nonce)
	assert.Equal(t, int64(2), second.Nonce)

	recent, err := bets.ListRecent(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}
