// Package usecase implements the wager lifecycle shared by every game:
// reserve funds, create the bet, settle it exactly once, pay out or refund.
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ivofi20024w-art/in1bet-sub001/internal/fairness"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/domain"
	gamedomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/game/domain"
	walletdomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wallet/domain"
	"github.com/ivofi20024w-art/in1bet-sub001/pkg/logger"
	"github.com/ivofi20024w-art/in1bet-sub001/pkg/service"
)

// BetUseCase owns the money side of every wager. Engines decide outcomes;
// this type is the only path from an outcome to the ledger.
type BetUseCase struct {
	ledger   service.LedgerService
	repo     domain.BetRepository
	hooks    *service.Hooks
	minWager decimal.Decimal
	maxWager decimal.Decimal
}

// NewBetUseCase creates a new bet use case
func NewBetUseCase(ledger service.LedgerService, repo domain.BetRepository, hooks *service.Hooks, minWager, maxWager decimal.Decimal) *BetUseCase {
	return &BetUseCase{
		ledger:   ledger,
		repo:     repo,
		hooks:    hooks,
		minWager: minWager,
		maxWager: maxWager,
	}
}

// PlaceParams carries everything needed to open a wager. Seed and Nonce are
// optional: shared-round games pass the round's committed pair and the round
// nonce, per-bet games leave them empty and get a fresh pair and a
// per-user nonce.
type PlaceParams struct {
	UserID     int64
	GameType   gamedomain.GameType
	RoundID    string
	Amount     decimal.Decimal
	ClientSeed string
	Seed       *fairness.SeedPair
	Nonce      int64
	Payload    string
}

// Place reserves the wager from the wallet and records the bet as ACTIVE.
// The reservation and the bet row share the bet ID through the BET_<id>
// reference, so a crash between the two steps is recoverable: the orphaned
// reservation names the bet that never appeared.
func (uc *BetUseCase) Place(ctx context.Context, p PlaceParams) (*domain.Bet, error) {
	if !p.GameType.Valid() {
		return nil, fmt.Errorf("unknown game type %q", p.GameType)
	}
	if p.Amount.LessThan(uc.minWager) || p.Amount.GreaterThan(uc.maxWager) {
		return nil, gamedomain.ErrInvalidAmount
	}

	seed := p.Seed
	if seed == nil {
		pair, err := fairness.GenerateSeedPair()
		if err != nil {
			return nil, err
		}
		seed = &pair
	}

	clientSeed := p.ClientSeed
	if clientSeed == "" {
		generated, err := fairness.GenerateClientSeed()
		if err != nil {
			return nil, err
		}
		clientSeed = generated
	}

	nonce := p.Nonce
	if nonce == 0 {
		count, err := uc.repo.CountByUserAndGame(ctx, p.UserID, p.GameType.String())
		if err != nil {
			return nil, fmt.Errorf("count user bets: %w", err)
		}
		nonce = count + 1
	}

	betID := domain.NewBetID()
	referenceID := fmt.Sprintf("BET_%d", betID)

	res, err := uc.ledger.Reserve(ctx, p.UserID, p.Amount, referenceID, map[string]interface{}{
		"game":     p.GameType.String(),
		"round_id": p.RoundID,
		"bet_id":   betID,
	})
	if err != nil {
		return nil, err
	}

	bet := &domain.Bet{
		ID:                   betID,
		UserID:               p.UserID,
		GameType:             p.GameType.String(),
		RoundID:              p.RoundID,
		BetAmount:            p.Amount,
		Status:               domain.BetStatusActive,
		ServerSeed:           seed.ServerSeed,
		ServerSeedHash:       seed.ServerSeedHash,
		ClientSeed:           clientSeed,
		Nonce:                nonce,
		GamePayload:          p.Payload,
		WinAmount:            decimal.Zero,
		Profit:               decimal.Zero,
		ReserveTransactionID: res.TransactionID,
		FromReal:             res.FromReal,
		FromBonus:            res.FromBonus,
		UsedBonusBalance:     res.FromBonus.IsPositive(),
		CreatedAt:            time.Now(),
	}

	if err := uc.repo.Create(ctx, bet); err != nil {
		// Hand the money back before surfacing the failure. The refund
		// key matches the cancel path, so a retry after a partial
		// failure here stays idempotent.
		refundRef := fmt.Sprintf("CANCEL_%d", betID)
		if _, refundErr := uc.ledger.Refund(ctx, p.UserID, *res, refundRef, "bet create failed"); refundErr != nil {
			logger.Error(ctx).Err(refundErr).
				Int64("bet_id", betID).
				Int64("user_id", p.UserID).
				Msg("Failed to refund reservation after bet create failure")
		}
		return nil, fmt.Errorf("create bet: %w", err)
	}

	uc.hooks.WagerPlaced(ctx, p.UserID, p.GameType.String(), p.Amount)

	logger.Info(ctx).
		Int64("bet_id", betID).
		Int64("user_id", p.UserID).
		Str("game", p.GameType.String()).
		Str("round_id", p.RoundID).
		Str("amount", p.Amount.String()).
		Msg("Wager placed")

	return bet, nil
}

// Settle moves an ACTIVE bet to WON or LOST and pays any winnings. The
// status flip is a conditional update keyed on ACTIVE, so two racing
// settlements (a cash-out against the losing sweep) resolve with exactly
// one winner and no double credit. Settling an already terminal bet is a
// no-op that returns the stored bet, except that an unpaid win resumes its
// payout.
func (uc *BetUseCase) Settle(ctx context.Context, betID int64, won bool, multiplier float64, gameResult string) (*domain.Bet, error) {
	bet, err := uc.repo.GetByID(ctx, betID)
	if err != nil {
		return nil, err
	}
	if bet == nil {
		return nil, gamedomain.ErrBetNotFound
	}
	if bet.Status.Terminal() {
		if bet.Status == domain.BetStatusWon && bet.SettleTransactionID == 0 && bet.WinAmount.IsPositive() {
			if err := uc.payout(ctx, bet); err != nil {
				return bet, err
			}
		}
		return bet, nil
	}

	now := time.Now()
	if won {
		bet.Status = domain.BetStatusWon
		bet.Multiplier = multiplier
		bet.WinAmount = bet.BetAmount.Mul(decimal.NewFromFloat(multiplier)).Round(2)
	} else {
		bet.Status = domain.BetStatusLost
		bet.Multiplier = 0
		bet.WinAmount = decimal.Zero
	}
	bet.Profit = bet.WinAmount.Sub(bet.BetAmount)
	bet.GameResult = gameResult
	bet.SettledAt = &now

	applied, err := uc.repo.UpdateIfActive(ctx, bet)
	if err != nil {
		return nil, fmt.Errorf("settle bet %d: %w", betID, err)
	}
	if !applied {
		// Someone else settled first; their outcome stands.
		current, err := uc.repo.GetByID(ctx, betID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, gamedomain.ErrBetNotFound
		}
		return current, nil
	}

	if bet.Status == domain.BetStatusWon && bet.WinAmount.IsPositive() {
		if err := uc.payout(ctx, bet); err != nil {
			// The flip is durable, the credit is not. The unpaid-wins
			// sweep retries with the same reference until it lands.
			logger.Error(ctx).Err(err).
				Int64("bet_id", bet.ID).
				Int64("user_id", bet.UserID).
				Str("win_amount", bet.WinAmount.String()).
				Msg("Win credit failed, leaving bet for reconciliation")
			return bet, err
		}
	}

	uc.hooks.WagerSettled(ctx, bet.UserID, bet.GameType, bet.BetAmount, bet.WinAmount, bet.Multiplier)

	logger.Info(ctx).
		Int64("bet_id", bet.ID).
		Int64("user_id", bet.UserID).
		Str("game", bet.GameType).
		Str("status", string(bet.Status)).
		Str("win_amount", bet.WinAmount.String()).
		Float64("multiplier", bet.Multiplier).
		Msg("Wager settled")

	return bet, nil
}

// payout credits the win under SETTLE_<id>. The ledger absorbs duplicate
// references, so replays after partial failures cannot pay twice.
func (uc *BetUseCase) payout(ctx context.Context, bet *domain.Bet) error {
	referenceID := fmt.Sprintf("SETTLE_%d", bet.ID)
	tx, err := uc.ledger.Credit(ctx, bet.UserID, bet.WinAmount, walletdomain.TransactionWin, referenceID, map[string]interface{}{
		"game":       bet.GameType,
		"round_id":   bet.RoundID,
		"bet_id":     bet.ID,
		"multiplier": bet.Multiplier,
	})
	if err != nil {
		return fmt.Errorf("credit win for bet %d: %w", bet.ID, err)
	}
	if err := uc.repo.SetSettleTransaction(ctx, bet.ID, tx.ID); err != nil {
		// The credit landed; only the back-pointer is missing. The
		// reconciliation sweep will re-run and repair it.
		logger.Warn(ctx).Err(err).Int64("bet_id", bet.ID).Msg("Failed to record settle transaction on bet")
	}
	bet.SettleTransactionID = tx.ID
	return nil
}

// Cancel voids an ACTIVE bet and restores the exact funding split of its
// reservation. Terminal bets cannot be cancelled; re-cancelling a CANCELLED
// bet is a no-op.
func (uc *BetUseCase) Cancel(ctx context.Context, betID, userID int64, reason string) (*domain.Bet, error) {
	bet, err := uc.repo.GetByID(ctx, betID)
	if err != nil {
		return nil, err
	}
	if bet == nil || bet.UserID != userID {
		return nil, gamedomain.ErrBetNotFound
	}
	if bet.Status.Terminal() {
		if bet.Status == domain.BetStatusCancelled {
			return bet, nil
		}
		return nil, gamedomain.ErrBetAlreadySettled
	}

	now := time.Now()
	bet.Status = domain.BetStatusCancelled
	bet.WinAmount = decimal.Zero
	bet.Multiplier = 0
	bet.Profit = decimal.Zero
	bet.SettledAt = &now

	applied, err := uc.repo.UpdateIfActive(ctx, bet)
	if err != nil {
		return nil, fmt.Errorf("cancel bet %d: %w", betID, err)
	}
	if !applied {
		current, err := uc.repo.GetByID(ctx, betID)
		if err != nil {
			return nil, err
		}
		if current != nil && current.Status == domain.BetStatusCancelled {
			return current, nil
		}
		return nil, gamedomain.ErrBetAlreadySettled
	}

	res := walletdomain.Reservation{
		TransactionID: bet.ReserveTransactionID,
		ReferenceID:   fmt.Sprintf("BET_%d", bet.ID),
		Amount:        bet.BetAmount,
		FromReal:      bet.FromReal,
		FromBonus:     bet.FromBonus,
	}
	refundRef := fmt.Sprintf("CANCEL_%d", bet.ID)
	if _, err := uc.ledger.Refund(ctx, bet.UserID, res, refundRef, reason); err != nil {
		return nil, fmt.Errorf("refund bet %d: %w", bet.ID, err)
	}

	logger.Info(ctx).
		Int64("bet_id", bet.ID).
		Int64("user_id", bet.UserID).
		Str("reason", reason).
		Msg("Wager cancelled")

	return bet, nil
}

// ReconcileUnpaidWins finds WON bets whose credit never landed and replays
// their payout. Safe to run any time; the SETTLE_<id> reference makes each
// replay idempotent. Returns the number of bets repaired.
func (uc *BetUseCase) ReconcileUnpaidWins(ctx context.Context) (int, error) {
	bets, err := uc.repo.FindWonUnpaid(ctx)
	if err != nil {
		return 0, fmt.Errorf("find unpaid wins: %w", err)
	}

	repaired := 0
	for _, bet := range bets {
		if err := uc.payout(ctx, bet); err != nil {
			logger.Error(ctx).Err(err).Int64("bet_id", bet.ID).Msg("Unpaid win reconciliation failed")
			continue
		}
		repaired++
	}
	if repaired > 0 {
		logger.Info(ctx).Int("repaired", repaired).Msg("Reconciled unpaid wins")
	}
	return repaired, nil
}

// Get returns a bet if it belongs to the given user.
func (uc *BetUseCase) Get(ctx context.Context, betID, userID int64) (*domain.Bet, error) {
	bet, err := uc.repo.GetByID(ctx, betID)
	if err != nil {
		return nil, err
	}
	if bet == nil || bet.UserID != userID {
		return nil, gamedomain.ErrBetNotFound
	}
	return bet, nil
}

// ActiveByRound returns the ACTIVE bets of a round, for engine sweeps.
func (uc *BetUseCase) ActiveByRound(ctx context.Context, gameType gamedomain.GameType, roundID string) ([]*domain.Bet, error) {
	return uc.repo.FindActiveByRound(ctx, gameType.String(), roundID)
}

// UserRoundBets returns every bet a user holds in a round, any status.
func (uc *BetUseCase) UserRoundBets(ctx context.Context, gameType gamedomain.GameType, roundID string, userID int64) ([]*domain.Bet, error) {
	return uc.repo.FindUserRoundBets(ctx, gameType.String(), roundID, userID)
}

// UpdatePayload persists engine-side wager state (revealed cells and the
// like) while the bet is still ACTIVE.
func (uc *BetUseCase) UpdatePayload(ctx context.Context, betID int64, payload string) error {
	return uc.repo.UpdatePayload(ctx, betID, payload)
}

// ListRecent returns a user's latest bets, newest first.
func (uc *BetUseCase) ListRecent(ctx context.Context, userID int64, limit int) ([]*domain.Bet, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return uc.repo.ListRecentByUser(ctx, userID, limit)
}
