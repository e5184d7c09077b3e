package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry
type TransactionType string

const (
	TransactionBet      TransactionType = "BET"
	TransactionWin      TransactionType = "WIN"
	TransactionRollback TransactionType = "ROLLBACK"
	TransactionBonus    TransactionType = "BONUS"
)

// TransactionStatus is the settlement status of a ledger entry
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "COMPLETED"
)

// Transaction is an immutable ledger entry. The unique ReferenceID is the
// system's sole duplicate-settlement guard: replaying the same logical event
// hits the unique index instead of moving money twice.
type Transaction struct {
	ID            int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64             `gorm:"not null;index:idx_transactions_user_id" json:"user_id"`
	Type          TransactionType   `gorm:"type:varchar(16);not null" json:"type"`
	Amount        decimal.Decimal   `gorm:"type:decimal(18,2);not null" json:"amount"`
	BalanceBefore decimal.Decimal   `gorm:"type:decimal(18,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal   `gorm:"type:decimal(18,2);not null" json:"balance_after"`
	Status        TransactionStatus `gorm:"type:varchar(16);not null" json:"status"`
	ReferenceID   string            `gorm:"type:varchar(128);not null;uniqueIndex:idx_transactions_reference_id" json:"reference_id"`
	Metadata      string            `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// TableName overrides the table name
func (Transaction) TableName() string {
	return "transactions"
}
