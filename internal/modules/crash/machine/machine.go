// Package machine drives the crash round through its time phases. The
// scheduler's tick goroutine is the sole writer; all other readers go
// through Snapshot.
package machine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/crash/domain"
)

// RoundView is a read-only snapshot of the current round. CrashPoint and
// ServerSeed are zeroed until the round crashes.
type RoundView struct {
	RoundID        string    `json:"round_id"`
	Phase          string    `json:"phase"`
	ServerSeedHash string    `json:"server_seed_hash"`
	ServerSeed     string    `json:"server_seed,omitempty"`
	ClientSeed     string    `json:"client_seed"`
	Nonce          int64     `json:"nonce"`
	Multiplier     float64   `json:"multiplier"`
	CrashPoint     float64   `json:"crash_point,omitempty"`
	TotalBets      int       `json:"total_bets"`
	PhaseEnd       time.Time `json:"phase_end"`
}

// Machine owns the current crash round and the global round counter that
// feeds each round's nonce.
type Machine struct {
	mu           sync.RWMutex
	round        *domain.Round
	roundCounter int64

	WaitingDuration time.Duration
	CrashedDuration time.Duration
	GrowthRate      float64
}

// NewMachine creates a new crash machine
func NewMachine(waiting, crashed time.Duration, growthRate float64) *Machine {
	return &Machine{
		WaitingDuration: waiting,
		CrashedDuration: crashed,
		GrowthRate:      growthRate,
	}
}

// StartRound opens a fresh WAITING round with the given committed seeds and
// returns its view. The nonce is the next value of the machine's round
// counter.
func (m *Machine) StartRound(serverSeed, serverSeedHash, clientSeed string, now time.Time) RoundView {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roundCounter++
	roundID := uuid.NewString()
	m.round = domain.NewRound(roundID, serverSeed, serverSeedHash, clientSeed, m.roundCounter, now, m.WaitingDuration)
	return m.viewLocked()
}

// WaitingExpired reports whether the betting window has closed
func (m *Machine) WaitingExpired(now time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.round != nil && m.round.Phase == domain.PhaseWaiting && !now.Before(m.round.PhaseEnd)
}

// Launch fixes the crash point and moves to RUNNING.
func (m *Machine) Launch(crashPoint float64, now time.Time) RoundView {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.round.Launch(crashPoint, now)
	return m.viewLocked()
}

// Advance updates the running multiplier for the given instant and reports
// whether the crash point was reached.
func (m *Machine) Advance(now time.Time) (multiplier float64, crashed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.round == nil || m.round.Phase != domain.PhaseRunning {
		return 0, false
	}

	multiplier = domain.MultiplierAt(now.Sub(m.round.LaunchedAt), m.GrowthRate)
	if multiplier >= m.round.CrashPoint {
		m.round.Crash(now, m.CrashedDuration)
		return m.round.CrashPoint, true
	}
	m.round.Multiplier = multiplier
	return multiplier, false
}

// CrashedExpired reports whether the display window after a crash is over
func (m *Machine) CrashedExpired(now time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.round != nil && m.round.Phase == domain.PhaseCrashed && !now.Before(m.round.PhaseEnd)
}

// CurrentMultiplier recomputes the live multiplier for a cash-out at the
// given instant, capped at the crash point. The second return is false when
// the round is not RUNNING.
func (m *Machine) CurrentMultiplier(now time.Time) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.round == nil || m.round.Phase != domain.PhaseRunning {
		return 0, false
	}
	multiplier := domain.MultiplierAt(now.Sub(m.round.LaunchedAt), m.GrowthRate)
	if multiplier >= m.round.CrashPoint {
		return 0, false
	}
	return multiplier, true
}

// CanAcceptBet reports whether the current round takes wagers
func (m *Machine) CanAcceptBet() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.round != nil && m.round.CanAcceptBet()
}

// BetPlaced counts a wager into the current round
func (m *Machine) BetPlaced(roundID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.round != nil && m.round.RoundID == roundID {
		m.round.TotalBets++
	}
}

// Commitment returns the current round's identity and full seed material,
// for attaching wagers. Callers must not expose the raw server seed.
func (m *Machine) Commitment() (roundID, serverSeed, serverSeedHash, clientSeed string, nonce int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.round == nil {
		return "", "", "", "", 0
	}
	r := m.round
	return r.RoundID, r.ServerSeed, r.ServerSeedHash, r.ClientSeed, r.Nonce
}

// Snapshot returns the current round view, hiding the crash point and seed
// until the round has crashed. The zero view means no round yet.
func (m *Machine) Snapshot() RoundView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viewLocked()
}

func (m *Machine) viewLocked() RoundView {
	if m.round == nil {
		return RoundView{}
	}

	r := m.round
	view := RoundView{
		RoundID:        r.RoundID,
		Phase:          string(r.Phase),
		ServerSeedHash: r.ServerSeedHash,
		ClientSeed:     r.ClientSeed,
		Nonce:          r.Nonce,
		Multiplier:     r.Multiplier,
		TotalBets:      r.TotalBets,
		PhaseEnd:       r.PhaseEnd,
	}
	if r.Phase == domain.PhaseCrashed {
		view.ServerSeed = r.ServerSeed
		view.CrashPoint = r.CrashPoint
	}
	return view
}
