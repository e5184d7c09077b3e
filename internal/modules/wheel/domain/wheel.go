// Package domain holds the wheel model: a fixed segment pattern and a
// time-phased round whose stop index stays hidden until the result shows.
package domain

import "time"

// Color is a wheel segment color, which is also what players bet on
type Color string

const (
	ColorBlack Color = "black"
	ColorRed   Color = "red"
	ColorGreen Color = "green"
	ColorGold  Color = "gold"
)

// Valid reports whether the color exists on the wheel
func (c Color) Valid() bool {
	switch c {
	case ColorBlack, ColorRed, ColorGreen, ColorGold:
		return true
	}
	return false
}

// Multipliers per tier.
const (
	MultiplierBlack = 2.0
	MultiplierRed   = 3.0
	MultiplierGreen = 5.0
	MultiplierGold  = 50.0
)

// Segment is one wheel position
type Segment struct {
	Index      int     `json:"index"`
	Color      Color   `json:"color"`
	Multiplier float64 `json:"multiplier"`
}

// BuildPattern lays out the wheel: index 0 is the single gold segment,
// size/3 and 2*size/3 are green, the rest alternate black and red.
func BuildPattern(size int) []Segment {
	pattern := make([]Segment, size)
	for i := 0; i < size; i++ {
		switch {
		case i == 0:
			pattern[i] = Segment{Index: i, Color: ColorGold, Multiplier: MultiplierGold}
		case i == size/3 || i == 2*size/3:
			pattern[i] = Segment{Index: i, Color: ColorGreen, Multiplier: MultiplierGreen}
		case i%2 == 1:
			pattern[i] = Segment{Index: i, Color: ColorBlack, Multiplier: MultiplierBlack}
		default:
			pattern[i] = Segment{Index: i, Color: ColorRed, Multiplier: MultiplierRed}
		}
	}
	return pattern
}

// Phase is the wheel round state
type Phase string

const (
	PhaseBetting       Phase = "BETTING"
	PhaseSpinning      Phase = "SPINNING"
	PhaseShowingResult Phase = "SHOWING_RESULT"
)

// Round is one wheel round. StopIndex is computed when spinning starts and
// must not be exposed before SHOWING_RESULT.
type Round struct {
	RoundID        string
	Phase          Phase
	ServerSeed     string
	ServerSeedHash string
	ClientSeed     string
	Nonce          int64
	StopIndex      int
	TotalBets      int
	StartedAt      time.Time
	PhaseEnd       time.Time
}

// NewRound opens a round in BETTING with its commitment published.
func NewRound(roundID, serverSeed, serverSeedHash, clientSeed string, nonce int64, now time.Time, betting time.Duration) *Round {
	return &Round{
		RoundID:        roundID,
		Phase:          PhaseBetting,
		ServerSeed:     serverSeed,
		ServerSeedHash: serverSeedHash,
		ClientSeed:     clientSeed,
		Nonce:          nonce,
		StopIndex:      -1,
		StartedAt:      now,
		PhaseEnd:       now.Add(betting),
	}
}

// CanAcceptBet reports whether the round still takes wagers
func (r *Round) CanAcceptBet() bool {
	return r.Phase == PhaseBetting
}

// Spin fixes the stop index and starts the spin animation window.
func (r *Round) Spin(stopIndex int, now time.Time, spinning time.Duration) {
	r.Phase = PhaseSpinning
	r.StopIndex = stopIndex
	r.PhaseEnd = now.Add(spinning)
}

// ShowResult opens the result display window.
func (r *Round) ShowResult(now time.Time, display time.Duration) {
	r.Phase = PhaseShowingResult
	r.PhaseEnd = now.Add(display)
}
