package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/domain"
)

// BetRepository implements domain.BetRepository over gorm
type BetRepository struct {
	db *gorm.DB
}

// NewBetRepository creates a new DB bet repository
func NewBetRepository(db *gorm.DB) *BetRepository {
	return &BetRepository{db: db}
}

func (r *BetRepository) Create(ctx context.Context, bet *domain.Bet) error {
	return r.db.WithContext(ctx).Create(bet).Error
}

func (r *BetRepository) GetByID(ctx context.Context, betID int64) (*domain.Bet, error) {
	var bet domain.Bet
	err := r.db.WithContext(ctx).First(&bet, "id = ?", betID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bet, nil
}

func (r *BetRepository) FindActiveByRound(ctx context.Context, gameType, roundID string) ([]*domain.Bet, error) {
	var bets []*domain.Bet
	err := r.db.WithContext(ctx).
		Where("game_type = ? AND round_id = ? AND status = ?", gameType, roundID, domain.BetStatusActive).
		Find(&bets).Error
	return bets, err
}

func (r *BetRepository) FindUserRoundBets(ctx context.Context, gameType, roundID string, userID int64) ([]*domain.Bet, error) {
	var bets []*domain.Bet
	err := r.db.WithContext(ctx).
		Where("game_type = ? AND round_id = ? AND user_id = ?", gameType, roundID, userID).
		Find(&bets).Error
	return bets, err
}

// UpdateIfActive uses a conditional UPDATE as the status race arbiter:
// whichever transaction flips ACTIVE to a terminal state first wins, the
// other observes zero affected rows.
func (r *BetRepository) UpdateIfActive(ctx context.Context, bet *domain.Bet) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Bet{}).
		Where("id = ? AND status = ?", bet.ID, domain.BetStatusActive).
		Updates(map[string]interface{}{
			"status":      bet.Status,
			"win_amount":  bet.WinAmount,
			"multiplier":  bet.Multiplier,
			"profit":      bet.Profit,
			"game_result": bet.GameResult,
			"settled_at":  bet.SettledAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *BetRepository) UpdatePayload(ctx context.Context, betID int64, payload string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Bet{}).
		Where("id = ? AND status = ?", betID, domain.BetStatusActive).
		Update("game_payload", payload).Error
}

func (r *BetRepository) SetSettleTransaction(ctx context.Context, betID, transactionID int64) error {
	return r.db.WithContext(ctx).
		Model(&domain.Bet{}).
		Where("id = ?", betID).
		Update("settle_transaction_id", transactionID).Error
}

func (r *BetRepository) FindWonUnpaid(ctx context.Context) ([]*domain.Bet, error) {
	var bets []*domain.Bet
	err := r.db.WithContext(ctx).
		Where("status = ? AND win_amount > 0 AND settle_transaction_id = 0", domain.BetStatusWon).
		Order("settled_at asc").
		Limit(500).
		Find(&bets).Error
	return bets, err
}

func (r *BetRepository) CountByUserAndGame(ctx context.Context, userID int64, gameType string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Bet{}).
		Where("user_id = ? AND game_type = ?", userID, gameType).
		Count(&count).Error
	return count, err
}

func (r *BetRepository) ListRecentByUser(ctx context.Context, userID int64, limit int) ([]*domain.Bet, error) {
	var bets []*domain.Bet
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&bets).Error
	return bets, err
}
