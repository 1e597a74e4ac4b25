// Package entropy owns the seeded random streams consumed by the AWGN
// generator and the Rayleigh fading taps. Each consumer owns its RNG
// stream with no global random source; a single channel seed expands
// into deterministic, independent streams per (seed, lane) pair.
package entropy

import "math/rand/v2"

// Stream wraps a ChaCha8-seeded generator from math/rand/v2.
type Stream struct {
	rng *rand.Rand
}

// NewStream derives a ChaCha8 stream from a 64-bit seed. The seed is
// expanded into the 32-byte ChaCha8 key by repeating and perturbing it
// with a fixed odd multiplier per 8-byte lane, which is enough to give
// distinct, non-correlated streams for distinct (seed, lane) pairs
// without pulling in an external KDF.
func NewStream(seed uint64, lane uint64) *Stream {
	var key [32]byte
	x := seed
	for i := 0; i < 4; i++ {
		x = x*0x9E3779B97F4A7C15 + lane*0xD1B54A32D192ED03 + uint64(i)
		putUint64(key[i*8:], splitmix64(&x))
	}
	src := rand.NewChaCha8(key)
	return &Stream{rng: rand.New(src)}
}

func splitmix64(x *uint64) uint64 {
	*x += 0x9E3779B97F4A7C15
	z := *x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// Float64 returns a uniform sample in [0,1).
func (s *Stream) Float64() float64 { return s.rng.Float64() }

// Uniform returns a uniform sample in [lo, hi).
func (s *Stream) Uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}
