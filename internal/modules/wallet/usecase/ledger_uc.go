// Package usecase implements the wallet ledger over a relational store.
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wallet/domain"
	"github.com/ivofi20024w-art/in1bet-sub001/pkg/logger"
)

// LedgerUseCase is the production LedgerService. Every mutation runs in one
// database transaction that row-locks the wallet, appends the ledger entry
// and updates the wallet row, so concurrent reservations and settlements on
// the same user serialize while different users never contend.
type LedgerUseCase struct {
	db *gorm.DB
}

// NewLedgerUseCase creates a new ledger use case
func NewLedgerUseCase(db *gorm.DB) *LedgerUseCase {
	return &LedgerUseCase{db: db}
}

// GetWallet returns the current wallet snapshot
func (uc *LedgerUseCase) GetWallet(ctx context.Context, userID int64) (*domain.Wallet, error) {
	var w domain.Wallet
	err := uc.db.WithContext(ctx).First(&w, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return &w, nil
}

// Reserve deducts a wager, choosing bonus or real funding per the wallet
// state, and appends the BET ledger entry in the same transaction.
func (uc *LedgerUseCase) Reserve(ctx context.Context, userID int64, amount decimal.Decimal, referenceID string, metadata map[string]interface{}) (*domain.Reservation, error) {
	var res *domain.Reservation

	err := uc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := lockWallet(tx, userID)
		if err != nil {
			return err
		}

		fromReal, fromBonus, err := w.SplitFunding(amount)
		if err != nil {
			return err
		}

		before := w.Spendable()
		w.ApplyReservation(fromReal, fromBonus)

		entry := &domain.Transaction{
			UserID:        userID,
			Type:          domain.TransactionBet,
			Amount:        amount,
			BalanceBefore: before,
			BalanceAfter:  w.Spendable(),
			Status:        domain.TransactionCompleted,
			ReferenceID:   referenceID,
			Metadata:      marshalMetadata(metadata),
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}
		if err := saveWallet(tx, w); err != nil {
			return err
		}

		res = &domain.Reservation{
			TransactionID: entry.ID,
			ReferenceID:   referenceID,
			Amount:        amount,
			FromReal:      fromReal,
			FromBonus:     fromBonus,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Credit adds funds to the real balance. A duplicate reference ID returns
// the existing entry without moving money again.
func (uc *LedgerUseCase) Credit(ctx context.Context, userID int64, amount decimal.Decimal, txType domain.TransactionType, referenceID string, metadata map[string]interface{}) (*domain.Transaction, error) {
	var entry *domain.Transaction

	err := uc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findByReference(tx, referenceID)
		if err != nil {
			return err
		}
		if existing != nil {
			entry = existing
			return nil
		}

		w, err := lockWallet(tx, userID)
		if err != nil {
			return err
		}

		before := w.Spendable()
		w.Balance = w.Balance.Add(amount)

		entry = &domain.Transaction{
			UserID:        userID,
			Type:          txType,
			Amount:        amount,
			BalanceBefore: before,
			BalanceAfter:  w.Spendable(),
			Status:        domain.TransactionCompleted,
			ReferenceID:   referenceID,
			Metadata:      marshalMetadata(metadata),
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}
		return saveWallet(tx, w)
	})
	if err != nil {
		// A concurrent writer may have hit the unique reference index first;
		// that is the idempotency guard doing its job, so return its entry.
		if existing, lookupErr := uc.FindByReference(ctx, referenceID); lookupErr == nil && existing != nil {
			logger.Debug(ctx).Str("reference_id", referenceID).Msg("Duplicate credit absorbed")
			return existing, nil
		}
		return nil, err
	}
	return entry, nil
}

// Refund restores a reservation's exact funding split and rollover, and
// appends a ROLLBACK entry. Duplicate reference IDs are absorbed.
func (uc *LedgerUseCase) Refund(ctx context.Context, userID int64, res domain.Reservation, referenceID, reason string) (*domain.Transaction, error) {
	var entry *domain.Transaction

	err := uc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findByReference(tx, referenceID)
		if err != nil {
			return err
		}
		if existing != nil {
			entry = existing
			return nil
		}

		w, err := lockWallet(tx, userID)
		if err != nil {
			return err
		}

		before := w.Spendable()
		w.RevertReservation(res.FromReal, res.FromBonus)

		entry = &domain.Transaction{
			UserID:        userID,
			Type:          domain.TransactionRollback,
			Amount:        res.Amount,
			BalanceBefore: before,
			BalanceAfter:  w.Spendable(),
			Status:        domain.TransactionCompleted,
			ReferenceID:   referenceID,
			Metadata:      marshalMetadata(map[string]interface{}{"reason": reason, "reserve_transaction_id": res.TransactionID}),
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}
		return saveWallet(tx, w)
	})
	if err != nil {
		if existing, lookupErr := uc.FindByReference(ctx, referenceID); lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return entry, nil
}

// GrantBonus credits bonus funds and creates their rollover obligation.
func (uc *LedgerUseCase) GrantBonus(ctx context.Context, userID int64, amount decimal.Decimal, rolloverMultiplier int64, referenceID string) (*domain.Wallet, error) {
	var snapshot *domain.Wallet

	err := uc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findByReference(tx, referenceID)
		if err != nil {
			return err
		}
		if existing != nil {
			w, err := lockWallet(tx, userID)
			if err != nil {
				return err
			}
			snapshot = w
			return nil
		}

		w, err := lockWallet(tx, userID)
		if err != nil {
			return err
		}

		rollover := amount.Mul(decimal.NewFromInt(rolloverMultiplier))
		before := w.Spendable()
		w.BonusBalance = w.BonusBalance.Add(amount)
		w.RolloverRemaining = w.RolloverRemaining.Add(rollover)
		w.RolloverTotal = w.RolloverTotal.Add(rollover)

		entry := &domain.Transaction{
			UserID:        userID,
			Type:          domain.TransactionBonus,
			Amount:        amount,
			BalanceBefore: before,
			BalanceAfter:  w.Spendable(),
			Status:        domain.TransactionCompleted,
			ReferenceID:   referenceID,
			Metadata:      marshalMetadata(map[string]interface{}{"rollover": rollover.String()}),
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}
		if err := saveWallet(tx, w); err != nil {
			return err
		}
		snapshot = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// FindByReference looks up a ledger entry by its idempotency key
func (uc *LedgerUseCase) FindByReference(ctx context.Context, referenceID string) (*domain.Transaction, error) {
	return findByReference(uc.db.WithContext(ctx), referenceID)
}

func findByReference(tx *gorm.DB, referenceID string) (*domain.Transaction, error) {
	var entry domain.Transaction
	err := tx.First(&entry, "reference_id = ?", referenceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction by reference: %w", err)
	}
	return &entry, nil
}

func lockWallet(tx *gorm.DB, userID int64) (*domain.Wallet, error) {
	var w domain.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&w, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", err)
	}
	return &w, nil
}

func saveWallet(tx *gorm.DB, w *domain.Wallet) error {
	updates := map[string]interface{}{
		"balance":            w.Balance,
		"bonus_balance":      w.BonusBalance,
		"rollover_remaining": w.RolloverRemaining,
		"rollover_total":     w.RolloverTotal,
		"updated_at":         time.Now(),
	}
	if err := tx.Model(&domain.Wallet{}).Where("user_id = ?", w.UserID).Updates(updates).Error; err != nil {
		return fmt.Errorf("update wallet: %w", err)
	}
	return nil
}

func marshalMetadata(metadata map[string]interface{}) string {
	if len(metadata) == 0 {
		return ""
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(data)
}
