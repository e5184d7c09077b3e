package machine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundPhaseWalk(t *testing.T) {
	m := NewMachine(10*time.Millisecond, 5*time.Millisecond, 0.06)
	t0 := time.Now()

	view := m.StartRound("seed", "hash", "client", t0)
	assert.Equal(t, "WAITING", view.Phase)
	assert.Equal(t, int64(1), view.Nonce)
	assert.NotEmpty(t, view.RoundID)
	assert.Empty(t, view.ServerSeed, "seed withheld before crash")
	assert.Zero(t, view.CrashPoint, "crash point withheld before crash")
	assert.True(t, m.CanAcceptBet())

	assert.False(t, m.WaitingExpired(t0.Add(5*time.Millisecond)))
	require.True(t, m.WaitingExpired(t0.Add(11*time.Millisecond)))

	launch := t0.Add(11 * time.Millisecond)
	view = m.Launch(2.0, launch)
	assert.Equal(t, "RUNNING", view.Phase)
	assert.False(t, m.CanAcceptBet())
	assert.Zero(t, view.CrashPoint, "crash point still hidden while running")

	mult, crashed := m.Advance(launch.Add(1 * time.Second))
	require.False(t, crashed)
	assert.InDelta(t, 1.06, mult, 0.001)

	// e^(0.06*t) reaches 2.0 around t=11.55s.
	mult, crashed = m.Advance(launch.Add(12 * time.Second))
	require.True(t, crashed)
	assert.Equal(t, 2.0, mult)

	view = m.Snapshot()
	assert.Equal(t, "CRASHED", view.Phase)
	assert.Equal(t, "seed", view.ServerSeed, "seed revealed after crash")
	assert.Equal(t, 2.0, view.CrashPoint)

	crashAt := launch.Add(12 * time.Second)
	assert.False(t, m.CrashedExpired(crashAt.Add(3*time.Millisecond)))
	assert.True(t, m.CrashedExpired(crashAt.Add(6*time.Millisecond)))

	view = m.StartRound("seed2", "hash2", "client2", crashAt.Add(6*time.Millisecond))
	assert.Equal(t, int64(2), view.Nonce, "round counter feeds the nonce")
}

func TestCurrentMultiplierCappedAtCrashPoint(t *testing.T) {
	m := NewMachine(time.Millisecond, time.Millisecond, 0.06)
	t0 := time.Now()
	m.StartRound("s", "h", "c", t0)
	m.Launch(1.5, t0)

	mult, ok := m.CurrentMultiplier(t0.Add(time.Second))
	require.True(t, ok)
	assert.InDelta(t, 1.06, mult, 0.001)

	// Past the crash point the round is effectively over.
	_, ok = m.CurrentMultiplier(t0.Add(time.Minute))
	assert.False(t, ok)
}

func TestBetPlacedCountsOnlyCurrentRound(t *testing.T) {
	m := NewMachine(time.Millisecond, time.Millisecond, 0.06)
	view := m.StartRound("s", "h", "c", time.Now())

	m.BetPlaced(view.RoundID)
	m.BetPlaced("some-other-round")

	assert.Equal(t, 1, m.Snapshot().TotalBets)
}
