package config

import "time"

// GamesConfig holds the shared wagering limits and per-engine timing.
// Phase durations and tick granularity are configuration so tests can run
// rounds at accelerated speed.
type GamesConfig struct {
	Tick            time.Duration
	MinWager        float64
	MaxWager        float64
	HouseEdge       float64
	BigWinThreshold float64

	Crash CrashConfig
	Wheel WheelConfig
	Mines MinesConfig
}

// CrashConfig holds the continuous multiplier engine timing
type CrashConfig struct {
	WaitingDuration time.Duration // betting window before the round starts
	CrashedDuration time.Duration // display time after the crash
	GrowthRate      float64       // k in m(t) = e^(k*t)
	MaxMultiplier   float64
}

// WheelConfig holds the wheel engine timing and layout size
type WheelConfig struct {
	BettingDuration time.Duration
	SpinDuration    time.Duration
	ResultDuration  time.Duration
	Size            int
}

// MinesConfig holds the tile grid limits
type MinesConfig struct {
	MaxMines int
}

// LoadGamesConfig loads game configuration from the environment
func LoadGamesConfig() GamesConfig {
	return GamesConfig{
		Tick:            getEnvDuration("GAME_TICK", 75*time.Millisecond),
		MinWager:        getEnvFloat("GAME_MIN_WAGER", 0.01),
		MaxWager:        getEnvFloat("GAME_MAX_WAGER", 10000),
		HouseEdge:       getEnvFloat("GAME_HOUSE_EDGE", 0.01),
		BigWinThreshold: getEnvFloat("GAME_BIG_WIN_THRESHOLD", 1000),
		Crash: CrashConfig{
			WaitingDuration: getEnvDuration("CRASH_WAITING_DURATION", 6*time.Second),
			CrashedDuration: getEnvDuration("CRASH_CRASHED_DURATION", 3*time.Second),
			GrowthRate:      getEnvFloat("CRASH_GROWTH_RATE", 0.06),
			MaxMultiplier:   getEnvFloat("CRASH_MAX_MULTIPLIER", 100),
		},
		Wheel: WheelConfig{
			BettingDuration: getEnvDuration("WHEEL_BETTING_DURATION", 10*time.Second),
			SpinDuration:    getEnvDuration("WHEEL_SPIN_DURATION", 5*time.Second),
			ResultDuration:  getEnvDuration("WHEEL_RESULT_DURATION", 3*time.Second),
			Size:            getEnvInt("WHEEL_SIZE", 15),
		},
		Mines: MinesConfig{
			MaxMines: getEnvInt("MINES_MAX_MINES", 24),
		},
	}
}
