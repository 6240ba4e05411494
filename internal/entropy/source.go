// Package entropy provides the randomness sources behind recruitment offer
// generation. The simulation core never touches a global RNG: callers inject
// a Source, so tests can seed one and assert exact generated content.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"sync"
)

// Source produces random values for offer generation.
type Source interface {
	// Float returns a uniform float64 in [0, 1).
	Float() float64
	// IntN returns a uniform int in [0, n). Panics if n <= 0.
	IntN(n int) int
	// Read fills p with random bytes. Used for ID derivation.
	Read(p []byte) (int, error)
}

// Seeded is a deterministic Source backed by math/rand. Same seed, same
// sequence. Safe for concurrent use.
type Seeded struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeeded creates a deterministic source from a seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: mrand.New(mrand.NewSource(seed))}
}

func (s *Seeded) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *Seeded) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

func (s *Seeded) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Read(p)
}

// Crypto is a non-deterministic Source backed by crypto/rand.
type Crypto struct{}

func (Crypto) Float() float64 {
	return cryptoFloat()
}

func (Crypto) IntN(n int) int {
	if n <= 0 {
		panic("entropy: IntN with non-positive n")
	}
	return int(cryptoFloat() * float64(n))
}

func (Crypto) Read(p []byte) (int, error) {
	return rand.Read(p)
}

// cryptoFloat generates a random float64 in [0, 1) using crypto/rand.
func cryptoFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}
