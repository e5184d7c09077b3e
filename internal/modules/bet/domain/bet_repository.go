package domain

import "context"

// BetRepository is the persistence contract for bets. Lookup methods return
// (nil, nil) when no row matches.
type BetRepository interface {
	// Create inserts a new ACTIVE bet
	Create(ctx context.Context, bet *Bet) error

	// GetByID fetches a bet
	GetByID(ctx context.Context, betID int64) (*Bet, error)

	// FindActiveByRound lists all ACTIVE bets attached to a round
	FindActiveByRound(ctx context.Context, gameType, roundID string) ([]*Bet, error)

	// FindUserRoundBets lists a user's bets on a round
	FindUserRoundBets(ctx context.Context, gameType, roundID string, userID int64) ([]*Bet, error)

	// UpdateIfActive persists a terminal transition only when the stored
	// status is still ACTIVE, and reports whether it applied. This is the
	// status race arbiter between engine settlement and user cash-out.
	UpdateIfActive(ctx context.Context, bet *Bet) (bool, error)

	// UpdatePayload replaces the game payload of an ACTIVE bet
	UpdatePayload(ctx context.Context, betID int64, payload string) error

	// SetSettleTransaction records the WIN ledger entry backing a settled bet
	SetSettleTransaction(ctx context.Context, betID, transactionID int64) error

	// FindWonUnpaid lists WON bets whose win credit has not been recorded,
	// for the reconciliation pass
	FindWonUnpaid(ctx context.Context) ([]*Bet, error)

	// CountByUserAndGame counts a user's bets on one game; per-bet nonces
	// derive from it
	CountByUserAndGame(ctx context.Context, userID int64, gameType string) (int64, error)

	// ListRecentByUser returns a user's most recent bets, newest first
	ListRecentByUser(ctx context.Context, userID int64, limit int) ([]*Bet, error)
}
