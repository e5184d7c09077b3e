// Package machine drives the wheel round through BETTING, SPINNING and
// SHOWING_RESULT. The scheduler's tick goroutine is the sole writer.
package machine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wheel/domain"
)

// RoundView is a read-only snapshot. StopIndex is -1 and the segment nil
// until the result shows; ServerSeed is empty until then as well.
type RoundView struct {
	RoundID        string          `json:"round_id"`
	Phase          string          `json:"phase"`
	ServerSeedHash string          `json:"server_seed_hash"`
	ServerSeed     string          `json:"server_seed,omitempty"`
	ClientSeed     string          `json:"client_seed"`
	Nonce          int64           `json:"nonce"`
	StopIndex      int             `json:"stop_index"`
	Segment        *domain.Segment `json:"segment,omitempty"`
	TotalBets      int             `json:"total_bets"`
	PhaseEnd       time.Time       `json:"phase_end"`
}

// Machine owns the current wheel round, its segment pattern and the round
// counter feeding each round's nonce.
type Machine struct {
	mu           sync.RWMutex
	round        *domain.Round
	roundCounter int64
	pattern      []domain.Segment

	BettingDuration  time.Duration
	SpinningDuration time.Duration
	ResultDuration   time.Duration
}

// NewMachine creates a new wheel machine with the pattern for the given size
func NewMachine(size int, betting, spinning, result time.Duration) *Machine {
	return &Machine{
		pattern:          domain.BuildPattern(size),
		BettingDuration:  betting,
		SpinningDuration: spinning,
		ResultDuration:   result,
	}
}

// Pattern returns the wheel layout
func (m *Machine) Pattern() []domain.Segment {
	return m.pattern
}

// Size returns the number of segments
func (m *Machine) Size() int {
	return len(m.pattern)
}

// StartRound opens a fresh BETTING round with the given committed seeds.
func (m *Machine) StartRound(serverSeed, serverSeedHash, clientSeed string, now time.Time) RoundView {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roundCounter++
	m.round = domain.NewRound(uuid.NewString(), serverSeed, serverSeedHash, clientSeed, m.roundCounter, now, m.BettingDuration)
	return m.viewLocked()
}

// BettingExpired reports whether the betting window has closed
func (m *Machine) BettingExpired(now time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.round != nil && m.round.Phase == domain.PhaseBetting && !now.Before(m.round.PhaseEnd)
}

// Spin fixes the stop index and opens the spin window.
func (m *Machine) Spin(stopIndex int, now time.Time) RoundView {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.round.Spin(stopIndex, now, m.SpinningDuration)
	return m.viewLocked()
}

// SpinningExpired reports whether the spin animation window is over
func (m *Machine) SpinningExpired(now time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.round != nil && m.round.Phase == domain.PhaseSpinning && !now.Before(m.round.PhaseEnd)
}

// ShowResult opens the result window and returns the now-revealed view.
func (m *Machine) ShowResult(now time.Time) RoundView {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.round.ShowResult(now, m.ResultDuration)
	return m.viewLocked()
}

// ResultExpired reports whether the result display window is over
func (m *Machine) ResultExpired(now time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.round != nil && m.round.Phase == domain.PhaseShowingResult && !now.Before(m.round.PhaseEnd)
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

// Commitment returns the current round's identity and full seed material.
// Callers must not expose the raw server seed.
func (m *Machine) Commitment() (roundID, serverSeed, serverSeedHash, clientSeed string, nonce int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.round == nil {
		return "", "", "", "", 0
	}
	r := m.round
	return r.RoundID, r.ServerSeed, r.ServerSeedHash, r.ClientSeed, r.Nonce
}

// StopSegment returns the winning segment once fixed, regardless of phase.
// For settlement use only; clients read Snapshot.
func (m *Machine) StopSegment() (domain.Segment, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.round == nil || m.round.StopIndex < 0 {
		return domain.Segment{}, false
	}
	return m.pattern[m.round.StopIndex], true
}

// Snapshot returns the current round view, hiding the stop index and seed
// until SHOWING_RESULT. The zero view means no round yet.
func (m *Machine) Snapshot() RoundView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viewLocked()
}

func (m *Machine) viewLocked() RoundView {
	if m.round == nil {
		return RoundView{StopIndex: -1}
	}

	r := m.round
	view := RoundView{
		RoundID:        r.RoundID,
		Phase:          string(r.Phase),
		ServerSeedHash: r.ServerSeedHash,
		ClientSeed:     r.ClientSeed,
		Nonce:          r.Nonce,
		StopIndex:      -1,
		TotalBets:      r.TotalBets,
		PhaseEnd:       r.PhaseEnd,
	}
	if r.Phase == domain.PhaseShowingResult {
		view.ServerSeed = r.ServerSeed
		view.StopIndex = r.StopIndex
		segment := m.pattern[r.StopIndex]
		view.Segment = &segment
	}
	return view
}
