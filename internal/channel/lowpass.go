package channel

import (
	"math"

	"github.com/n0call/hfmodem/internal/pulseshape"
)

// LowPass is a linear-phase windowed-sinc FIR low-pass filter, used
// exclusively inside the channel simulator where a constant group delay
// lets the carrier up-mix phase be compensated deterministically. The
// window is fixed to Hamming; the simulator has no runtime-selectable
// filter profile.
type LowPass struct {
	coeffs     []float64
	groupDelay int
	history    *pulseshape.History
}

// NewLowPass designs a windowed-sinc low-pass filter for the given cutoff
// frequency and sample rate with approximately numTaps taps. Odd tap
// counts only; an even request is incremented.
func NewLowPass(cutoffHz, sampleRateHz float64, numTaps int) *LowPass {
	if numTaps%2 == 0 {
		numTaps++
	}
	center := numTaps / 2
	fc := cutoffHz / sampleRateHz // normalized cutoff, cycles/sample

	coeffs := make([]float64, numTaps)
	for n := 0; n < numTaps; n++ {
		m := n - center
		coeffs[n] = sinc(2*fc*float64(m)) * 2 * fc * hamming(n, numTaps)
	}

	normalizeDCGain(coeffs)

	return &LowPass{
		coeffs:     coeffs,
		groupDelay: center,
		history:    pulseshape.NewHistory(numTaps),
	}
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

func hamming(n, length int) float64 {
	return 0.54 - 0.46*math.Cos(2*math.Pi*float64(n)/float64(length-1))
}

func normalizeDCGain(coeffs []float64) {
	sum := 0.0
	for _, c := range coeffs {
		sum += c
	}
	if sum == 0 {
		return
	}
	for i := range coeffs {
		coeffs[i] /= sum
	}
}

// Filter pushes x through the filter and returns the output sample.
func (l *LowPass) Filter(x float64) float64 {
	l.history.Push(x)
	return l.history.Dot(l.coeffs)
}

// GroupDelay returns (N-1)/2 samples, constant across frequency.
func (l *LowPass) GroupDelay() int { return l.groupDelay }

// Reset zeroes the filter's internal history.
func (l *LowPass) Reset() { l.history.Reset() }
