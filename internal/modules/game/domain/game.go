// Package domain defines the contract shared by all round engines: the game
// registry, the engine interface, the realtime event model and the error
// taxonomy returned to players.
package domain

// GameType identifies a game engine
type GameType string

const (
	GameCrash  GameType = "crash"
	GameWheel  GameType = "wheel"
	GameMines  GameType = "mines"
	GamePlinko GameType = "plinko"
)

// Valid reports whether the game type is known
func (g GameType) Valid() bool {
	switch g {
	case GameCrash, GameWheel, GameMines, GamePlinko:
		return true
	}
	return false
}

func (g GameType) String() string {
	return string(g)
}
