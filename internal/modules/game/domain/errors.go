package domain

import "errors"

// Player-visible failures. Handlers map these to structured reasons; nothing
// else leaks out of an engine.
var (
	// ErrInvalidAmount means the wager is outside [min, max]
	ErrInvalidAmount = errors.New("invalid wager amount")

	// ErrNotAcceptingWagers means the round is not in a phase that permits
	// the requested action
	ErrNotAcceptingWagers = errors.New("game not accepting wagers")

	// ErrBetNotFound means no bet exists for the given ID and user
	ErrBetNotFound = errors.New("bet not found")

	// ErrBetAlreadySettled means the bet is in a terminal state and the
	// requested transition is not legal
	ErrBetAlreadySettled = errors.New("bet already settled")

	// ErrDuplicateWager means the user already wagered on the same outcome
	// in this round
	ErrDuplicateWager = errors.New("duplicate wager on same outcome")

	// ErrInvalidCell means the cell or position is out of range or already
	// revealed
	ErrInvalidCell = errors.New("invalid cell or position")
)
