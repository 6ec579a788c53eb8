// Package entropy provides the seeded random streams and distributions that
// drive market generation and customer behaviour.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Stream offsets keep the three sides of the market on independent sequences
// derived from one base seed.
const (
	supplyOffset  = 100
	productOffset = 200
	demandOffset  = 300
)

// Streams holds one generator per side of the market. Re-randomizing supply
// curves never shifts the sequence customers draw from, and vice versa.
type Streams struct {
	Seed    int64
	Supply  *mrand.Rand
	Product *mrand.Rand
	Demand  *mrand.Rand
}

// NewStreams derives the per-side generators from seed. A zero seed is replaced
// with one read from crypto/rand.
func NewStreams(seed int64) *Streams {
	if seed == 0 {
		seed = CryptoSeed()
	}
	return &Streams{
		Seed:    seed,
		Supply:  mrand.New(mrand.NewSource(seed + supplyOffset)),
		Product: mrand.New(mrand.NewSource(seed + productOffset)),
		Demand:  mrand.New(mrand.NewSource(seed + demandOffset)),
	}
}

// CryptoSeed returns a non-zero seed read from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen; fall back to a fixed seed.
		return 42
	}
	// Keep it positive so it reads well in logs.
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed
}
