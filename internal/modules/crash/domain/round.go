// Package domain holds the crash round model: a committed seed pair, a time
// phase, and a crash point that stays hidden until the round ends.
package domain

import (
	"math"
	"time"
)

// Phase is the crash round state
type Phase string

const (
	// PhaseWaiting accepts bets; the crash point is not derived yet
	PhaseWaiting Phase = "WAITING"
	// PhaseRunning grows the multiplier; cash-outs are accepted
	PhaseRunning Phase = "RUNNING"
	// PhaseCrashed shows the outcome; no actions accepted
	PhaseCrashed Phase = "CRASHED"
)

// Round is one crash round. CrashPoint is derived when the waiting phase
// expires and must not be exposed before the round crashes.
type Round struct {
	RoundID        string
	Phase          Phase
	ServerSeed     string
	ServerSeedHash string
	ClientSeed     string
	Nonce          int64
	CrashPoint     float64
	Multiplier     float64
	TotalBets      int
	StartedAt      time.Time
	LaunchedAt     time.Time
	PhaseEnd       time.Time
}

// NewRound opens a round in WAITING with its commitment published.
func NewRound(roundID, serverSeed, serverSeedHash, clientSeed string, nonce int64, now time.Time, waiting time.Duration) *Round {
	return &Round{
		RoundID:        roundID,
		Phase:          PhaseWaiting,
		ServerSeed:     serverSeed,
		ServerSeedHash: serverSeedHash,
		ClientSeed:     clientSeed,
		Nonce:          nonce,
		Multiplier:     1.0,
		StartedAt:      now,
		PhaseEnd:       now.Add(waiting),
	}
}

// CanAcceptBet reports whether the round still takes wagers
func (r *Round) CanAcceptBet() bool {
	return r.Phase == PhaseWaiting
}

// Launch fixes the crash point and starts the multiplier climb.
func (r *Round) Launch(crashPoint float64, now time.Time) {
	r.Phase = PhaseRunning
	r.CrashPoint = crashPoint
	r.LaunchedAt = now
	r.Multiplier = 1.0
}

// Crash ends the climb and opens the display window.
func (r *Round) Crash(now time.Time, display time.Duration) {
	r.Phase = PhaseCrashed
	r.Multiplier = r.CrashPoint
	r.PhaseEnd = now.Add(display)
}

// MultiplierAt returns the multiplier at elapsed time e with growth rate k,
// floored to 2 decimals and never below 1.00.
func MultiplierAt(elapsed time.Duration, growthRate float64) float64 {
	if elapsed <= 0 {
		return 1.0
	}
	m := math.Exp(growthRate * elapsed.Seconds())
	m = math.Floor(m*100) / 100
	if m < 1.0 {
		return 1.0
	}
	return m
}
