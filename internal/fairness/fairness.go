// Package fairness implements the commit-reveal outcome derivation shared by
// every game engine. All functions are pure: given the same seed tuple they
// reproduce the same outcome bit for bit, which is what lets players audit
// settled rounds against the published seed hash.
package fairness

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

const (
	// DefaultHouseEdge is the fractional reduction applied to fair payouts
	DefaultHouseEdge = 0.01

	// GridCells is the tile grid size (5x5)
	GridCells = 25

	// MaxCrashMultiplier caps the derived crash point
	MaxCrashMultiplier = 100.0
)

// Roll derives a 32-bit value from the seed tuple: the first 4 bytes of
// HMAC-SHA256(key=serverSeed, msg=message) read big-endian.
func Roll(serverSeed, message string) uint32 {
	mac := hmac.New(sha256.New, []byte(serverSeed))
	mac.Write([]byte(message))
	sum := mac.Sum(nil)
	return binary.BigEndian.Uint32(sum[:4])
}

func message(clientSeed string, nonce int64) string {
	return fmt.Sprintf("%s:%d", clientSeed, nonce)
}

func stepMessage(clientSeed string, nonce int64, step int) string {
	return fmt.Sprintf("%s:%d:%d", clientSeed, nonce, step)
}

// CrashPoint derives the crash multiplier for a continuous multiplier round.
// divisor = 1 - h/2^32; crash = (1-edge)/divisor, clamped to [1.0, 100.0]
// and floored to 2 decimals.
func CrashPoint(serverSeed, clientSeed string, nonce int64, houseEdge float64) float64 {
	h := Roll(serverSeed, message(clientSeed, nonce))

	divisor := 1 - float64(h)/math.Pow(2, 32)
	if divisor <= 0 {
		return 1.0
	}

	crash := (1 - houseEdge) / divisor
	if crash < 1.0 {
		crash = 1.0
	}
	if crash > MaxCrashMultiplier {
		crash = MaxCrashMultiplier
	}

	return math.Floor(crash*100) / 100
}

// WheelIndex derives the stop index for a wheel of the given size.
func WheelIndex(serverSeed, clientSeed string, nonce int64, wheelSize int) int {
	h := Roll(serverSeed, message(clientSeed, nonce))
	return int(h % uint32(wheelSize))
}

// MinePositions derives the mine layout for a tile grid game: a Fisher-Yates
// shuffle over the 25 cells where the swap index at step i comes from a fresh
// HMAC call, taking the first mineCount shuffled positions as mines.
// The returned slice is sorted.
func MinePositions(serverSeed, clientSeed string, nonce int64, mineCount int) []int {
	cells := make([]int, GridCells)
	for i := range cells {
		cells[i] = i
	}

	for i := GridCells - 1; i >= 1; i-- {
		h := Roll(serverSeed, stepMessage(clientSeed, nonce, i))
		j := int(h % uint32(i+1))
		cells[i], cells[j] = cells[j], cells[i]
	}

	mines := make([]int, mineCount)
	copy(mines, cells[:mineCount])
	sortInts(mines)
	return mines
}

// DropPath derives the ball path for a path drop game: one left/right bit per
// row. The bucket index is the number of right bits.
func DropPath(serverSeed, clientSeed string, nonce int64, rows int) (bits []int, bucket int) {
	bits = make([]int, rows)
	for i := 0; i < rows; i++ {
		h := Roll(serverSeed, stepMessage(clientSeed, nonce, i))
		bits[i] = int(h % 2)
		bucket += bits[i]
	}
	return bits, bucket
}

// StepMultiplier returns the cash-out multiplier of a tile grid game after
// the given number of safe reveals: the inverse survival probability reduced
// by the house edge, rounded to 2 decimals. It is exactly 1 at zero reveals
// and strictly increasing in the reveal count.
func StepMultiplier(revealed, mineCount int, houseEdge float64) float64 {
	if revealed <= 0 {
		return 1.0
	}

	safe := GridCells - mineCount
	p := 1.0
	for i := 0; i < revealed; i++ {
		p *= float64(safe-i) / float64(GridCells-i)
	}

	m := (1 / p) * (1 - houseEdge)
	return math.Round(m*100) / 100
}

// HashSeed returns the hex-encoded SHA256 commitment of a server seed.
func HashSeed(serverSeed string) string {
	sum := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(sum[:])
}

func sortInts(s []int) {
	// Insertion sort; mine layouts are at most 24 entries.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
