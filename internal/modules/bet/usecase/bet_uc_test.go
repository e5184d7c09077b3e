package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/domain"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/repository/memory"
	gamedomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/game/domain"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wallet"
	walletdomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wallet/domain"
)

func newTestUseCase() (*BetUseCase, *wallet.MockLedger, *memory.BetRepository) {
	ledger := wallet.NewMockLedger()
	repo := memory.NewBetRepository()
	uc := NewBetUseCase(ledger, repo, nil, decimal.NewFromFloat(0.01), decimal.NewFromInt(10000))
	return uc, ledger, repo
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestPlaceDeductsWagerAndRecordsBetTransaction(t *testing.T) {
	uc, ledger, _ := newTestUseCase()
	ledger.SetBalance(1, dec("100"))

	bet, err := uc.Place(context.Background(), PlaceParams{
		UserID:   1,
		GameType: gamedomain.GameCrash,
		RoundID:  "round-1",
		Amount:   dec("30"),
	})
	require.NoError(t, err)
	require.NotNil(t, bet)

	assert.Equal(t, domain.BetStatusActive, bet.Status)
	assert.NotEmpty(t, bet.ServerSeedHash)
	assert.Empty(t, bet.RevealedSeed(), "server seed must stay hidden while active")

	w, err := ledger.GetWallet(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(dec("70")), "balance = %s", w.Balance)

	txs := ledger.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, walletdomain.TransactionBet, txs[0].Type)
	assert.True(t, txs[0].BalanceBefore.Equal(dec("100")))
	assert.True(t, txs[0].BalanceAfter.Equal(dec("70")))
}

func TestPlaceRejectsInvalidAmounts(t *testing.T) {
	uc, ledger, _ := newTestUseCase()
	ledger.SetBalance(1, dec("100"))

	for _, amount := range []string{"0", "-5", "10001"} {
		_, err := uc.Place(context.Background(), PlaceParams{
			UserID:   1,
			GameType: gamedomain.GameCrash,
			Amount:   dec(amount),
		})
		assert.ErrorIs(t, err, gamedomain.ErrInvalidAmount, "amount %s", amount)
	}

	w, err := ledger.GetWallet(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(dec("100")), "rejected wagers must not touch the balance")
	assert.Empty(t, ledger.Transactions())
}

func TestPlaceInsufficientFunds(t *testing.T) {
	uc, ledger, _ := newTestUseCase()
	ledger.SetBalance(1, dec("10"))

	_, err := uc.Place(context.Background(), PlaceParams{
		UserID:   1,
		GameType: gamedomain.GameWheel,
		Amount:   dec("25"),
	})
	assert.ErrorIs(t, err, walletdomain.ErrInsufficientFunds)
}

func TestSettleWinCreditsOnce(t *testing.T) {
	uc, ledger, _ := newTestUseCase()
	ledger.SetBalance(1, dec("100"))

	bet, err := uc.Place(context.Background(), PlaceParams{
		UserID:   1,
		GameType: gamedomain.GameCrash,
		RoundID:  "round-1",
		Amount:   dec("30"),
	})
	require.NoError(t, err)

	settled, err := uc.Settle(context.Background(), bet.ID, true, 2.0, `{"cashout_multiplier":2.0}`)
	require.NoError(t, err)
	assert.Equal(t, domain.BetStatusWon, settled.Status)
	assert.True(t, settled.WinAmount.Equal(dec("60")))
	assert.True(t, settled.Profit.Equal(dec("30")))
	assert.NotEmpty(t, settled.RevealedSeed(), "terminal bet reveals its server seed")

	w, err := ledger.GetWallet(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(dec("130")), "balance = %s", w.Balance)

	// Replaying the settlement must not credit again.
	again, err := uc.Settle(context.Background(), bet.ID, true, 2.0, `{"cashout_multiplier":2.0}`)
	require.NoError(t, err)
	assert.Equal(t, domain.BetStatusWon, again.Status)

	w, err = ledger.GetWallet(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(dec("130")))

	wins := 0
	for _, tx := range ledger.Transactions() {
		if tx.Type == walletdomain.TransactionWin {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "exactly one WIN entry")
}

func TestSettleLossPaysNothing(t *testing.T) {
	uc, ledger, _ := newTestUseCase()
	ledger.SetBalance(1, dec("100"))

	bet, err := uc.Place(context.Background(), PlaceParams{
		UserID:   1,
		GameType: gamedomain.GameCrash,
		RoundID:  "round-1",
		Amount:   dec("30"),
	})
	require.NoError(t, err)

	settled, err := uc.Settle(context.Background(), bet.ID, false, 0, `{"crash_point":1.42}`)
	require.NoError(t, err)
	assert.Equal(t, domain.BetStatusLost, settled.Status)
	assert.True(t, settled.WinAmount.IsZero())
	assert.True(t, settled.Profit.Equal(dec("-30")))

	w, err := ledger.GetWallet(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(dec("70")))
}

func TestSettleRaceOneWinner(t *testing.T) {
	uc, ledger, _ := newTestUseCase()
	ledger.SetBalance(1, dec("100"))

	bet, err := uc.Place(context.Background(), PlaceParams{
		UserID:   1,
		GameType: gamedomain.GameCrash,
		RoundID:  "round-1",
		Amount:   dec("30"),
	})
	require.NoError(t, err)

	// A cash-out and the losing sweep race on the same bet. Whichever flips
	// the status first wins; the other sees the terminal state.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = uc.Settle(context.Background(), bet.ID, true, 2.0, "")
	}()
	go func() {
		defer wg.Done()
		_, _ = uc.Settle(context.Background(), bet.ID, false, 0, "")
	}()
	wg.Wait()

	final, err := uc.Get(context.Background(), bet.ID, 1)
	require.NoError(t, err)
	require.True(t, final.Status.Terminal())

	w, err := ledger.GetWallet(context.Background(), 1)
	require.NoError(t, err)
	if final.Status == domain.BetStatusWon {
		assert.True(t, w.Balance.Equal(dec("130")), "balance = %s", w.Balance)
	} else {
		assert.True(t, w.Balance.Equal(dec("70")), "balance = %s", w.Balance)
	}
}

func TestConcurrentReservesCannotOverdraw(t *testing.T) {
	uc, ledger, _ := newTestUseCase()
	ledger.SetBalance(1, dec("50"))

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = uc.Place(context.Background(), PlaceParams{
				UserID:   1,
				GameType: gamedomain.GameWheel,
				RoundID:  "round-1",
				Amount:   dec("40"),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, walletdomain.ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one of two 40-unit wagers on a 50-unit balance may land")

	w, err := ledger.GetWallet(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(dec("10")), "balance = %s", w.Balance)
}

func TestCancelRestoresFundingSplit(t *testing.T) {
	uc, ledger, _ := newTestUseCase()
	ledger.SetWallet(1, walletdomain.Wallet{
		UserID:            1,
		Balance:           dec("10"),
		BonusBalance:      dec("50"),
		RolloverRemaining: dec("200"),
		RolloverTotal:     dec("200"),
	})

	bet, err := uc.Place(context.Background(), PlaceParams{
		UserID:   1,
		GameType: gamedomain.GameMines,
		Amount:   dec("30"),
	})
	require.NoError(t, err)
	assert.True(t, bet.UsedBonusBalance)
	assert.True(t, bet.FromBonus.Equal(dec("30")))

	w, err := ledger.GetWallet(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, w.BonusBalance.Equal(dec("20")))
	assert.True(t, w.RolloverRemaining.Equal(dec("170")))

	cancelled, err := uc.Cancel(context.Background(), bet.ID, 1, "round aborted")
	require.NoError(t, err)
	assert.Equal(t, domain.BetStatusCancelled, cancelled.Status)

	w, err = ledger.GetWallet(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(dec("10")))
	assert.True(t, w.BonusBalance.Equal(dec("50")))
	assert.True(t, w.RolloverRemaining.Equal(dec("200")), "cancel must restore consumed rollover")

	// Cancelling again is a no-op.
	again, err := uc.Cancel(context.Background(), bet.ID, 1, "round aborted")
	require.NoError(t, err)
	assert.Equal(t, domain.BetStatusCancelled, again.Status)
	w, _ = ledger.GetWallet(context.Background(), 1)
	assert.True(t, w.BonusBalance.Equal(dec("50")))
}

func TestCancelSettledBetRejected(t *testing.T) {
	uc, ledger, _ := newTestUseCase()
	ledger.SetBalance(1, dec("100"))

	bet, err := uc.Place(context.Background(), PlaceParams{
		UserID:   1,
		GameType: gamedomain.GameCrash,
		Amount:   dec("30"),
	})
	require.NoError(t, err)

	_, err = uc.Settle(context.Background(), bet.ID, false, 0, "")
	require.NoError(t, err)

	_, err = uc.Cancel(context.Background(), bet.ID, 1, "too late")
	assert.ErrorIs(t, err, gamedomain.ErrBetAlreadySettled)
}

func TestReconcileUnpaidWins(t *testing.T) {
	uc, ledger, repo := newTestUseCase()
	ledger.SetBalance(1, dec("100"))

	bet, err := uc.Place(context.Background(), PlaceParams{
		UserID:   1,
		GameType: gamedomain.GamePlinko,
		Amount:   dec("20"),
	})
	require.NoError(t, err)

	// Simulate the crash window: the status flipped to WON but the credit
	// never reached the ledger.
	bet.Status = domain.BetStatusWon
	bet.WinAmount = dec("40")
	bet.Multiplier = 2.0
	bet.Profit = dec("20")
	applied, err := repo.UpdateIfActive(context.Background(), bet)
	require.NoError(t, err)
	require.True(t, applied)

	repaired, err := uc.ReconcileUnpaidWins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	w, err := ledger.GetWallet(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(dec("120")), "balance = %s", w.Balance)

	// A second sweep finds nothing left to repair.
	repaired, err = uc.ReconcileUnpaidWins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)
}

func TestPerBetNonceIncrements(t *testing.T) {
	uc, ledger, _ := newTestUseCase()
	ledger.SetBalance(1, dec("100"))

	first, err := uc.Place(context.Background(), PlaceParams{
		UserID:   1,
		GameType: gamedomain.GameMines,
		Amount:   dec("10"),
	})
	require.NoError(t, err)
	second, err := uc.Place(context.Background(), PlaceParams{
		UserID:   1,
		GameType: gamedomain.GameMines,
		Amount:   dec("10"),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Nonce)
	assert.Equal(t, int64(2), second.Nonce)
	assert.NotEqual(t, first.ServerSeed, second.ServerSeed)
}
