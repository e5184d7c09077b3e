package fairness

import (
	"errors"
	"fmt"
)

// VerifyParams identifies an outcome to re-derive.
type VerifyParams struct {
	Game       string
	ServerSeed string
	ClientSeed string
	Nonce      int64

	// Game specific inputs
	WheelSize int
	MineCount int
	Rows      int

	HouseEdge float64
}

// ErrUnknownGame is returned when the game name is not recognised.
var ErrUnknownGame = errors.New("unknown game")

// Verify recomputes the outcome for a revealed seed tuple so anyone can check
// a settled round against its published commitment. The returned map always
// includes the recomputed server seed hash.
func Verify(p VerifyParams) (map[string]interface{}, error) {
	if p.ServerSeed == "" {
		return nil, errors.New("server seed is required")
	}
	edge := p.HouseEdge
	if edge == 0 {
		edge = DefaultHouseEdge
	}

	out := map[string]interface{}{
		"server_seed_hash": HashSeed(p.ServerSeed),
		"client_seed":      p.ClientSeed,
		"nonce":            p.Nonce,
	}

	switch p.Game {
	case "crash":
		out["crash_point"] = CrashPoint(p.ServerSeed, p.ClientSeed, p.Nonce, edge)

	case "wheel":
		size := p.WheelSize
		if size <= 0 {
			return nil, errors.New("wheel size is required")
		}
		out["stop_index"] = WheelIndex(p.ServerSeed, p.ClientSeed, p.Nonce, size)

	case "mines":
		if p.MineCount < 1 || p.MineCount >= GridCells {
			return nil, fmt.Errorf("mine count must be in [1, %d]", GridCells-1)
		}
		out["mines"] = MinePositions(p.ServerSeed, p.ClientSeed, p.Nonce, p.MineCount)

	case "plinko":
		if p.Rows <= 0 {
			return nil, errors.New("rows is required")
		}
		bits, bucket := DropPath(p.ServerSeed, p.ClientSeed, p.Nonce, p.Rows)
		out["path"] = bits
		out["bucket"] = bucket

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, p.Game)
	}

	return out, nil
}
