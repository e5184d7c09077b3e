package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestSplitFundingBonusFirstUnderRollover(t *testing.T) {
	w := &Wallet{
		Balance:           dec("100"),
		BonusBalance:      dec("50"),
		RolloverRemaining: dec("200"),
	}

	fromReal, fromBonus, err := w.SplitFunding(dec("30"))
	require.NoError(t, err)
	assert.True(t, fromReal.IsZero())
	assert.True(t, fromBonus.Equal(dec("30")))
}

func TestSplitFundingRealWhenNoRollover(t *testing.T) {
	w := &Wallet{
		Balance:      dec("100"),
		BonusBalance: dec("50"),
	}

	fromReal, fromBonus, err := w.SplitFunding(dec("30"))
	require.NoError(t, err)
	assert.True(t, fromReal.Equal(dec("30")))
	assert.True(t, fromBonus.IsZero())
}

func TestSplitFundingBlended(t *testing.T) {
	w := &Wallet{
		Balance:      dec("10"),
		BonusBalance: dec("50"),
	}

	fromReal, fromBonus, err := w.SplitFunding(dec("30"))
	require.NoError(t, err)
	assert.True(t, fromReal.Equal(dec("10")))
	assert.True(t, fromBonus.Equal(dec("20")))
}

func TestSplitFundingInsufficient(t *testing.T) {
	w := &Wallet{Balance: dec("10"), BonusBalance: dec("5")}

	_, _, err := w.SplitFunding(dec("30"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestApplyAndRevertReservationRoundTrip(t *testing.T) {
	w := &Wallet{
		Balance:           dec("10"),
		BonusBalance:      dec("50"),
		RolloverRemaining: dec("100"),
		RolloverTotal:     dec("100"),
	}

	w.ApplyReservation(dec("0"), dec("30"))
	assert.True(t, w.BonusBalance.Equal(dec("20")))
	assert.True(t, w.RolloverRemaining.Equal(dec("70")))

	w.RevertReservation(dec("0"), dec("30"))
	assert.True(t, w.BonusBalance.Equal(dec("50")))
	assert.True(t, w.RolloverRemaining.Equal(dec("100")))
}

func TestRevertReservationCapsAtRolloverTotal(t *testing.T) {
	w := &Wallet{
		BonusBalance:      dec("0"),
		RolloverRemaining: dec("95"),
		RolloverTotal:     dec("100"),
	}

	w.RevertReservation(dec("0"), dec("10"))
	assert.True(t, w.RolloverRemaining.Equal(dec("100")), "rollover never exceeds the original obligation")
}

func TestApplyReservationFloorsRolloverAtZero(t *testing.T) {
	w := &Wallet{
		BonusBalance:      dec("50"),
		RolloverRemaining: dec("5"),
		RolloverTotal:     dec("100"),
	}

	w.ApplyReservation(dec("0"), dec("30"))
	assert.True(t, w.RolloverRemaining.IsZero())
}

func TestSpendable(t *testing.T) {
	w := &Wallet{Balance: dec("10"), BonusBalance: dec("5")}
	assert.True(t, w.Spendable().Equal(dec("15")))
}
