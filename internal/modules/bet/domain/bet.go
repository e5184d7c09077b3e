// Package domain defines the Bet entity and its persistence contract.
package domain

import (
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// BetStatus is the lifecycle state of a wager
type BetStatus string

const (
	BetStatusActive    BetStatus = "ACTIVE"
	BetStatusWon       BetStatus = "WON"
	BetStatusLost      BetStatus = "LOST"
	BetStatusCancelled BetStatus = "CANCELLED"
)

// Terminal reports whether the status is immutable
func (s BetStatus) Terminal() bool {
	return s == BetStatusWon || s == BetStatusLost || s == BetStatusCancelled
}

// Bet is one wager. It is created ACTIVE with funds already reserved and
// transitions exactly once to WON/LOST by the owning engine, or CANCELLED by
// an explicit rollback. The raw ServerSeed stays hidden until the bet is
// terminal; only its hash is published at placement.
type Bet struct {
	ID             int64           `gorm:"primaryKey" json:"id"`
	UserID         int64           `gorm:"not null;index:idx_bets_user_id" json:"user_id"`
	GameType       string          `gorm:"type:varchar(32);not null;index:idx_bets_game_type" json:"game_type"`
	RoundID        string          `gorm:"type:varchar(64);index:idx_bets_round_id" json:"round_id,omitempty"`
	BetAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"bet_amount"`
	Status         BetStatus       `gorm:"type:varchar(16);not null;index:idx_bets_status" json:"status"`
	ServerSeed     string          `gorm:"type:varchar(64);not null" json:"-"`
	ServerSeedHash string          `gorm:"type:varchar(64);not null" json:"server_seed_hash"`
	ClientSeed     string          `gorm:"type:varchar(64)" json:"client_seed"`
	Nonce          int64           `gorm:"not null" json:"nonce"`
	GamePayload    string          `gorm:"type:jsonb" json:"-"`
	GameResult     string          `gorm:"type:jsonb" json:"-"`
	WinAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"win_amount"`
	Multiplier     float64         `gorm:"not null;default:0" json:"multiplier"`
	Profit         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"profit"`

	ReserveTransactionID int64 `gorm:"not null" json:"-"`
	SettleTransactionID  int64 `gorm:"not null;default:0" json:"-"`

	FromReal         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"-"`
	FromBonus        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"-"`
	UsedBonusBalance bool            `gorm:"not null;default:false" json:"used_bonus_balance"`

	CreatedAt time.Time  `gorm:"not null;index:idx_bets_created_at" json:"created_at"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

// TableName overrides the table name
func (Bet) TableName() string {
	return "bets"
}

// RevealedSeed returns the raw server seed once the bet is terminal, empty
// otherwise. The commitment stays verifiable either way.
func (b *Bet) RevealedSeed() string {
	if b.Status.Terminal() {
		return b.ServerSeed
	}
	return ""
}

var (
	node *snowflake.Node
	once sync.Once
)

func initSnowflake() {
	var err error
	node, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// NewBetID generates a unique bet ID
func NewBetID() int64 {
	once.Do(initSnowflake)
	return node.Generate().Int64()
}
