package channel

import (
	"math"

	"github.com/n0call/hfmodem/internal/entropy"
)

// AWGN generates additive white Gaussian noise samples via Box-Muller,
// delivering one output per call and caching the paired sample for the
// next call.
type AWGN struct {
	stream *entropy.Stream
	sigma  float64

	hasCached bool
	cached    float64
}

// NewAWGN constructs a generator with noise power sigma2 (variance). The
// stream is independently derived from the channel seed; like the fading
// taps, the noise generator owns its randomness.
func NewAWGN(seed uint64, lane uint64, sigma2 float64) *AWGN {
	return &AWGN{
		stream: entropy.NewStream(seed, lane),
		sigma:  math.Sqrt(sigma2),
	}
}

// SetPower updates the noise standard deviation from a new variance,
// e.g. when the SNR target or reference power changes mid-run.
func (a *AWGN) SetPower(sigma2 float64) {
	a.sigma = math.Sqrt(sigma2)
}

// Next returns one sigma*N(0,1) sample.
func (a *AWGN) Next() float64 {
	if a.hasCached {
		a.hasCached = false
		return a.sigma * a.cached
	}

	// Clamp away u1=0 so the log never sees zero.
	u1 := math.Max(a.stream.Float64(), 1e-10)
	u2 := a.stream.Float64()

	r := math.Sqrt(-2 * math.Log(u1))
	theta := 2 * math.Pi * u2

	z0 := r * math.Cos(theta)
	z1 := r * math.Sin(theta)

	a.cached = z1
	a.hasCached = true
	return a.sigma * z0
}

// Skip advances the generator by n samples without returning them, used
// by Watterson.Advance to keep paired channels in lock-step.
func (a *AWGN) Skip(n int) {
	for i := 0; i < n; i++ {
		a.Next()
	}
}
