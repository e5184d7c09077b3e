// Package service defines the cross-module service contracts wired together
// in cmd. Modules depend on these interfaces, never on each other's concrete
// implementations.
package service

import (
	"context"

	"github.com/shopspring/decimal"

	walletdomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wallet/domain"
)

// LedgerService is the only contract through which balances change. Every
// mutation is atomic with its Transaction row; ReferenceID uniqueness guards
// against duplicate application.
type LedgerService interface {
	// GetWallet returns the current wallet snapshot.
	GetWallet(ctx context.Context, userID int64) (*walletdomain.Wallet, error)

	// Reserve deducts a wager from the wallet, choosing the funding source,
	// and records a BET transaction. Fails with ErrInsufficientFunds.
	Reserve(ctx context.Context, userID int64, amount decimal.Decimal, referenceID string, metadata map[string]interface{}) (*walletdomain.Reservation, error)

	// Credit adds funds and records a transaction of the given type. A
	// duplicate reference ID is absorbed: the existing transaction is
	// returned and no balance changes.
	Credit(ctx context.Context, userID int64, amount decimal.Decimal, txType walletdomain.TransactionType, referenceID string, metadata map[string]interface{}) (*walletdomain.Transaction, error)

	// Refund restores a reservation's exact funding split, including the
	// rollover consumed by its bonus part, and records a ROLLBACK entry.
	Refund(ctx context.Context, userID int64, res walletdomain.Reservation, referenceID, reason string) (*walletdomain.Transaction, error)

	// GrantBonus credits bonus funds and creates the rollover obligation
	// (amount * rolloverMultiplier) that gates their withdrawal.
	GrantBonus(ctx context.Context, userID int64, amount decimal.Decimal, rolloverMultiplier int64, referenceID string) (*walletdomain.Wallet, error)

	// FindByReference looks up a ledger entry by its idempotency key.
	// Returns (nil, nil) when no entry exists.
	FindByReference(ctx context.Context, referenceID string) (*walletdomain.Transaction, error)
}
