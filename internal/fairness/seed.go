package fairness

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SeedPair is a server seed together with its published commitment.
type SeedPair struct {
	ServerSeed     string
	ServerSeedHash string
}

// GenerateSeedPair produces a fresh 32-byte server seed and its SHA256
// commitment. The seed stays secret until the round (or bet) settles.
func GenerateSeedPair() (SeedPair, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return SeedPair{}, fmt.Errorf("generate server seed: %w", err)
	}

	seed := hex.EncodeToString(buf)
	return SeedPair{
		ServerSeed:     seed,
		ServerSeedHash: HashSeed(seed),
	}, nil
}

// GenerateClientSeed produces a public 8-byte hex seed, used for shared
// rounds where no single player supplies the client seed.
func GenerateClientSeed() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate client seed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
