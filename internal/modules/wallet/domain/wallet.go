// Package domain defines the wallet ledger entities. The ledger is the only
// component allowed to change balances; every balance change commits together
// with its Transaction row.
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInsufficientFunds is returned when real + bonus funds cannot cover a
// requested reservation.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrWalletNotFound is returned when no wallet exists for a user.
var ErrWalletNotFound = errors.New("wallet not found")

// Wallet holds a user's funds. Balance is withdrawable real money;
// BonusBalance becomes withdrawable once RolloverRemaining reaches zero.
type Wallet struct {
	UserID            int64           `gorm:"primaryKey" json:"user_id"`
	Balance           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"balance"`
	BonusBalance      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"bonus_balance"`
	LockedBalance     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"locked_balance"`
	RolloverRemaining decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"rollover_remaining"`
	RolloverTotal     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"rollover_total"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TableName overrides the table name
func (Wallet) TableName() string {
	return "wallets"
}

// Spendable returns the total amount available for wagering.
func (w *Wallet) Spendable() decimal.Decimal {
	return w.Balance.Add(w.BonusBalance)
}

// SplitFunding selects the funding source for a reservation without mutating
// the wallet. Bonus funds are preferred while rollover is outstanding and the
// bonus balance covers the full amount; otherwise real balance; otherwise a
// blended split that drains real balance first.
func (w *Wallet) SplitFunding(amount decimal.Decimal) (fromReal, fromBonus decimal.Decimal, err error) {
	if w.RolloverRemaining.IsPositive() && w.BonusBalance.GreaterThanOrEqual(amount) {
		return decimal.Zero, amount, nil
	}
	if w.Balance.GreaterThanOrEqual(amount) {
		return amount, decimal.Zero, nil
	}
	if w.Spendable().GreaterThanOrEqual(amount) {
		return w.Balance, amount.Sub(w.Balance), nil
	}
	return decimal.Zero, decimal.Zero, ErrInsufficientFunds
}

// ApplyReservation deducts a funding split and reduces outstanding rollover
// by the wagered bonus amount.
func (w *Wallet) ApplyReservation(fromReal, fromBonus decimal.Decimal) {
	w.Balance = w.Balance.Sub(fromReal)
	w.BonusBalance = w.BonusBalance.Sub(fromBonus)
	if fromBonus.IsPositive() {
		w.RolloverRemaining = w.RolloverRemaining.Sub(fromBonus)
		if w.RolloverRemaining.IsNegative() {
			w.RolloverRemaining = decimal.Zero
		}
	}
}

// RevertReservation restores a funding split and the rollover consumed by
// its bonus part, capped at the original rollover obligation.
func (w *Wallet) RevertReservation(fromReal, fromBonus decimal.Decimal) {
	w.Balance = w.Balance.Add(fromReal)
	w.BonusBalance = w.BonusBalance.Add(fromBonus)
	if fromBonus.IsPositive() {
		w.RolloverRemaining = w.RolloverRemaining.Add(fromBonus)
		if w.RolloverRemaining.GreaterThan(w.RolloverTotal) {
			w.RolloverRemaining = w.RolloverTotal
		}
	}
}

// Reservation records how a wager was funded so a cancellation can restore
// the exact split.
type Reservation struct {
	TransactionID int64           `json:"transaction_id"`
	ReferenceID   string          `json:"reference_id"`
	Amount        decimal.Decimal `json:"amount"`
	FromReal      decimal.Decimal `json:"from_real"`
	FromBonus     decimal.Decimal `json:"from_bonus"`
}
