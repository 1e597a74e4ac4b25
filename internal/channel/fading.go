package channel

import (
	"math"

	"github.com/n0call/hfmodem/internal/entropy"
)

// oscillatorCount is the size of the oscillator bank; 64 Gaussian-
// weighted sinusoids are enough for true Rayleigh statistics.
const oscillatorCount = 64

// maxTapTime bounds the tap's elapsed-time accumulator; beyond this the
// phase arguments lose precision, so time wraps back.
const maxTapTime = 1e6

// FadingTap generates one independent Rayleigh fading coefficient
// stream: h(t) = scale * sum_n (a_n+i*b_n)*exp(i*(2*pi*f_n*t + phi_n)),
// with f_n = f_d*cos(alpha_n) giving the Jakes/Clarke Doppler spectrum.
type FadingTap struct {
	sampleRate float64
	dopplerHz  float64

	a, b  [oscillatorCount]float64 // Gaussian complex amplitudes
	freq  [oscillatorCount]float64 // per-oscillator Doppler frequency, Hz
	phase [oscillatorCount]float64 // uniform initial phase

	scale float64
	t     float64 // elapsed time, seconds

	fixed bool // true when dopplerHz == 0: output is the fixed point (1,0)
}

// NewFadingTap constructs a tap with its own RNG stream. Each tap owns
// its randomness; the (seed, lane) pair derives deterministic,
// independent streams for the two taps of one channel.
func NewFadingTap(seed uint64, lane uint64, sampleRateHz, dopplerHz float64) *FadingTap {
	tap := &FadingTap{
		sampleRate: sampleRateHz,
		dopplerHz:  dopplerHz,
		scale:      1 / math.Sqrt(2*float64(oscillatorCount)),
		fixed:      dopplerHz == 0,
	}

	if tap.fixed {
		return tap
	}

	stream := entropy.NewStream(seed, lane)
	for n := 0; n < oscillatorCount; n++ {
		tap.a[n] = gaussian(stream)
		tap.b[n] = gaussian(stream)
		alpha := stream.Uniform(-math.Pi, math.Pi)
		tap.freq[n] = dopplerHz * math.Cos(alpha)
		tap.phase[n] = stream.Uniform(0, 2*math.Pi)
	}

	return tap
}

// gaussian draws one N(0,1) sample via Box-Muller. The fading tap's RNG
// stream is entirely separate from the AWGN generator's, and unlike AWGN
// the tap keeps no Box-Muller pairing state: each call draws two uniforms
// and discards the paired sample, since tap construction only needs 2*N
// values once, not a hot-path stream.
func gaussian(stream *entropy.Stream) float64 {
	u1 := math.Max(stream.Float64(), 1e-10)
	u2 := stream.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// Next advances the tap by one sample period and returns h(t).
func (f *FadingTap) Next() complex128 {
	h := f.sample()
	f.advanceTime(1)
	return h
}

// Advance walks the tap forward n samples without returning intermediate
// values, used to keep paired channels in lock-step.
func (f *FadingTap) Advance(n int) {
	f.advanceTime(n)
}

func (f *FadingTap) advanceTime(n int) {
	f.t += float64(n) / f.sampleRate
	if f.t > maxTapTime {
		f.t -= maxTapTime
	}
}

func (f *FadingTap) sample() complex128 {
	if f.fixed {
		return complex(1, 0)
	}

	var sum complex128
	for n := 0; n < oscillatorCount; n++ {
		theta := 2*math.Pi*f.freq[n]*f.t + f.phase[n]
		amp := complex(f.a[n], f.b[n])
		sum += amp * complex(math.Cos(theta), math.Sin(theta))
	}
	return complex(f.scale, 0) * sum
}

// Phase reports the phase of the tap's current complex coefficient, for
// diagnostics and GetState snapshots.
func (f *FadingTap) Phase() float64 {
	h := f.sample()
	return math.Atan2(imag(h), real(h))
}
