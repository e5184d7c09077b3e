// Package memory provides an in-memory bet repository for tests and local
// development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/domain"
)

// BetRepository implements domain.BetRepository in memory. The mutex stands
// in for the database's row-level guarantees: UpdateIfActive is an atomic
// compare-and-swap on the stored status.
type BetRepository struct {
	mu   sync.RWMutex
	bets map[int64]*domain.Bet
}

// NewBetRepository creates a new memory bet repository
func NewBetRepository() *BetRepository {
	return &BetRepository{bets: make(map[int64]*domain.Bet)}
}

func (r *BetRepository) Create(ctx context.Context, bet *domain.Bet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *bet
	r.bets[bet.ID] = &stored
	return nil
}

func (r *BetRepository) GetByID(ctx context.Context, betID int64) (*domain.Bet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.bets[betID]
	if !ok {
		return nil, nil
	}
	snapshot := *stored
	return &snapshot, nil
}

func (r *BetRepository) FindActiveByRound(ctx context.Context, gameType, roundID string) ([]*domain.Bet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var bets []*domain.Bet
	for _, stored := range r.bets {
		if stored.GameType == gameType && stored.RoundID == roundID && stored.Status == domain.BetStatusActive {
			snapshot := *stored
			bets = append(bets, &snapshot)
		}
	}
	return bets, nil
}

func (r *BetRepository) FindUserRoundBets(ctx context.Context, gameType, roundID string, userID int64) ([]*domain.Bet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var bets []*domain.Bet
	for _, stored := range r.bets {
		if stored.GameType == gameType && stored.RoundID == roundID && stored.UserID == userID {
			snapshot := *stored
			bets = append(bets, &snapshot)
		}
	}
	return bets, nil
}

func (r *BetRepository) UpdateIfActive(ctx context.Context, bet *domain.Bet) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bets[bet.ID]
	if !ok || stored.Status != domain.BetStatusActive {
		return false, nil
	}

	stored.Status = bet.Status
	stored.WinAmount = bet.WinAmount
	stored.Multiplier = bet.Multiplier
	stored.Profit = bet.Profit
	stored.GameResult = bet.GameResult
	stored.SettledAt = bet.SettledAt
	return true, nil
}

func (r *BetRepository) UpdatePayload(ctx context.Context, betID int64, payload string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bets[betID]
	if !ok || stored.Status != domain.BetStatusActive {
		return nil
	}
	stored.GamePayload = payload
	return nil
}

func (r *BetRepository) SetSettleTransaction(ctx context.Context, betID, transactionID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.bets[betID]; ok {
		stored.SettleTransactionID = transactionID
	}
	return nil
}

func (r *BetRepository) FindWonUnpaid(ctx context.Context) ([]*domain.Bet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var bets []*domain.Bet
	for _, stored := range r.bets {
		if stored.Status == domain.BetStatusWon && stored.WinAmount.IsPositive() && stored.SettleTransactionID == 0 {
			snapshot := *stored
			bets = append(bets, &snapshot)
		}
	}
	return bets, nil
}

func (r *BetRepository) CountByUserAndGame(ctx context.Context, userID int64, gameType string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, stored := range r.bets {
		if stored.UserID == userID && stored.GameType == gameType {
			count++
		}
	}
	return count, nil
}

func (r *BetRepository) ListRecentByUser(ctx context.Context, userID int64, limit int) ([]*domain.Bet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var bets []*domain.Bet
	for _, stored := range r.bets {
		if stored.UserID == userID {
			snapshot := *stored
			bets = append(bets, &snapshot)
		}
	}
	sort.Slice(bets, func(i, j int) bool {
		return bets[i].CreatedAt.After(bets[j].CreatedAt)
	})
	if len(bets) > limit {
		bets = bets[:limit]
	}
	return bets, nil
}
