// Package pulseshape computes root-raised-cosine filter coefficients
// and provides the FIR history ring buffer shared by the modulator,
// demodulator and channel simulator. Coefficient buffers are sized at
// construction since span/sps combinations are runtime configuration.
package pulseshape

import "math"

// DefaultRolloff and DefaultSpan are the standard RRC parameters for
// this engine's waveforms: alpha=0.35, six symbols of bilateral support.
const (
	DefaultRolloff = 0.35
	DefaultSpan    = 6
)

// RRC holds the precomputed, normalized root-raised-cosine coefficients
// for a given samples-per-symbol and span. Coefficients are read-only
// after construction and may be shared freely across Modulator/
// Demodulator/Channel instances that use the same (sps, rolloff, span).
type RRC struct {
	sps     int
	rolloff float64
	span    int
	coeffs  []float64
}

// New computes the RRC coefficients for the given samples-per-symbol,
// roll-off and (bilateral) span in symbol periods. Filter length is
// 2*span*sps + 1.
func New(sps int, rolloff float64, span int) *RRC {
	length := 2*span*sps + 1
	coeffs := make([]float64, length)
	center := length / 2

	for n := 0; n < length; n++ {
		t := float64(n-center) / float64(sps) // time in symbol periods
		coeffs[n] = rrcImpulse(t, rolloff)
	}

	normalizeEnergy(coeffs)

	return &RRC{sps: sps, rolloff: rolloff, span: span, coeffs: coeffs}
}

// rrcImpulse evaluates the root-raised-cosine impulse response at time t
// (in symbol periods), with the t=0 and t=+-1/(4*alpha) singularities
// handled explicitly.
func rrcImpulse(t, alpha float64) float64 {
	if t == 0 {
		return 1 - alpha + 4*alpha/math.Pi
	}

	if alpha > 0 {
		denom := 4 * alpha * t
		if math.Abs(math.Abs(denom)-1) < 1e-6 {
			// t == +-1/(4*alpha): closed form avoids the 0/0 division.
			return (alpha / math.Sqrt2) * ((1+2/math.Pi)*math.Sin(math.Pi/(4*alpha)) + (1-2/math.Pi)*math.Cos(math.Pi/(4*alpha)))
		}
	}

	numerator := math.Sin(math.Pi*t*(1-alpha)) + 4*alpha*t*math.Cos(math.Pi*t*(1+alpha))
	denominator := math.Pi * t * (1 - math.Pow(4*alpha*t, 2))
	return numerator / denominator
}

func normalizeEnergy(coeffs []float64) {
	sum := 0.0
	for _, c := range coeffs {
		sum += c * c
	}
	scale := 1 / math.Sqrt(sum)
	for i := range coeffs {
		coeffs[i] *= scale
	}
}

// Coefficients returns the filter's coefficient vector (symmetric,
// linear-phase). Callers must not mutate the returned slice.
func (r *RRC) Coefficients() []float64 { return r.coeffs }

// Len returns the filter length L = 2*span*sps + 1.
func (r *RRC) Len() int { return len(r.coeffs) }

// SamplesPerSymbol returns the sps this filter was built for.
func (r *RRC) SamplesPerSymbol() int { return r.sps }

// Span returns the bilateral span in symbol periods.
func (r *RRC) Span() int { return r.span }
