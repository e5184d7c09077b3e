// Package wallet provides an in-memory LedgerService used by engine tests
// and by local development without a database. It implements the full ledger
// semantics: funding-source selection, rollover accounting and reference-ID
// idempotency.
package wallet

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wallet/domain"
)

// MockLedger implements service.LedgerService with in-memory state. A single
// mutex stands in for the database row locks: concurrent reservations on one
// user serialize exactly as they would under SELECT ... FOR UPDATE.
type MockLedger struct {
	mu           sync.Mutex
	wallets      map[int64]*domain.Wallet
	transactions []*domain.Transaction
	byReference  map[string]*domain.Transaction
	nextTxID     int64
}

// NewMockLedger creates a new mock ledger
func NewMockLedger() *MockLedger {
	return &MockLedger{
		wallets:     make(map[int64]*domain.Wallet),
		byReference: make(map[string]*domain.Transaction),
	}
}

// SetWallet seeds a wallet (for testing)
func (m *MockLedger) SetWallet(userID int64, w domain.Wallet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.UserID = userID
	m.wallets[userID] = &w
}

// SetBalance seeds a wallet with only real funds (for testing)
func (m *MockLedger) SetBalance(userID int64, balance decimal.Decimal) {
	m.SetWallet(userID, domain.Wallet{Balance: balance})
}

// Transactions returns a copy of all recorded ledger entries (for testing)
func (m *MockLedger) Transactions() []*domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Transaction, len(m.transactions))
	copy(out, m.transactions)
	return out
}

// GetWallet returns a snapshot of the user's wallet
func (m *MockLedger) GetWallet(ctx context.Context, userID int64) (*domain.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wallets[userID]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	snapshot := *w
	return &snapshot, nil
}

// Reserve deducts a wager, preferring bonus funds while rollover is open
func (m *MockLedger) Reserve(ctx context.Context, userID int64, amount decimal.Decimal, referenceID string, metadata map[string]interface{}) (*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wallets[userID]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}

	fromReal, fromBonus, err := w.SplitFunding(amount)
	if err != nil {
		return nil, err
	}

	before := w.Spendable()
	w.ApplyReservation(fromReal, fromBonus)

	entry := m.append(userID, domain.TransactionBet, amount, before, w.Spendable(), referenceID)

	return &domain.Reservation{
		TransactionID: entry.ID,
		ReferenceID:   referenceID,
		Amount:        amount,
		FromReal:      fromReal,
		FromBonus:     fromBonus,
	}, nil
}

// Credit adds funds to the real balance, absorbing duplicate reference IDs
func (m *MockLedger) Credit(ctx context.Context, userID int64, amount decimal.Decimal, txType domain.TransactionType, referenceID string, metadata map[string]interface{}) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byReference[referenceID]; ok {
		return existing, nil
	}

	w, ok := m.wallets[userID]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}

	before := w.Spendable()
	w.Balance = w.Balance.Add(amount)

	return m.append(userID, txType, amount, before, w.Spendable(), referenceID), nil
}

// Refund restores a reservation's split and rollover
func (m *MockLedger) Refund(ctx context.Context, userID int64, res domain.Reservation, referenceID, reason string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byReference[referenceID]; ok {
		return existing, nil
	}

	w, ok := m.wallets[userID]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}

	before := w.Spendable()
	w.RevertReservation(res.FromReal, res.FromBonus)

	return m.append(userID, domain.TransactionRollback, res.Amount, before, w.Spendable(), referenceID), nil
}

// GrantBonus credits bonus funds with a rollover obligation
func (m *MockLedger) GrantBonus(ctx context.Context, userID int64, amount decimal.Decimal, rolloverMultiplier int64, referenceID string) (*domain.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wallets[userID]
	if !ok {
		w = &domain.Wallet{UserID: userID}
		m.wallets[userID] = w
	}

	if _, ok := m.byReference[referenceID]; !ok {
		rollover := amount.Mul(decimal.NewFromInt(rolloverMultiplier))
		before := w.Spendable()
		w.BonusBalance = w.BonusBalance.Add(amount)
		w.RolloverRemaining = w.RolloverRemaining.Add(rollover)
		w.RolloverTotal = w.RolloverTotal.Add(rollover)
		m.append(userID, domain.TransactionBonus, amount, before, w.Spendable(), referenceID)
	}

	snapshot := *w
	return &snapshot, nil
}

// FindByReference looks up a ledger entry by its idempotency key
func (m *MockLedger) FindByReference(ctx context.Context, referenceID string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.byReference[referenceID]; ok {
		return entry, nil
	}
	return nil, nil
}

func (m *MockLedger) append(userID int64, txType domain.TransactionType, amount, before, after decimal.Decimal, referenceID string) *domain.Transaction {
	m.nextTxID++
	entry := &domain.Transaction{
		ID:            m.nextTxID,
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Status:        domain.TransactionCompleted,
		ReferenceID:   referenceID,
	}
	m.transactions = append(m.transactions, entry)
	m.byReference[referenceID] = entry
	return entry
}
