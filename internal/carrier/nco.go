// Package carrier implements the numerically controlled oscillator used
// by the modulator's upconverter, the demodulator's PLL-steered downmix
// and the channel simulator's carrier mix/remix stages.
package carrier

import (
	"math"

	"github.com/n0call/hfmodem/internal/iq"
)

// NCO is a phase-continuous sin/cos oscillator advanced by a fixed
// phase increment per sample, its phase kept normalized to [0, 2*pi).
type NCO struct {
	phase     float64
	increment float64
}

// New constructs an NCO for the given carrier frequency and sample rate.
func New(carrierHz, sampleRateHz float64) *NCO {
	return &NCO{increment: 2 * math.Pi * carrierHz / sampleRateHz}
}

// NewWithIncrement constructs an NCO directly from a phase increment in
// radians/sample, used when the increment has already been derived
// elsewhere (e.g. the channel simulator, which keeps the same increment
// for its group-delay-compensated remix phase).
func NewWithIncrement(incrementRad float64) *NCO {
	return &NCO{increment: incrementRad}
}

// Next returns (cos(phase), sin(phase)) for the current phase and then
// advances the phase by the nominal increment, wrapping to [0, 2*pi).
func (n *NCO) Next() (cos, sin float64) {
	cos, sin = math.Cos(n.phase), math.Sin(n.phase)
	n.Advance(n.increment)
	return cos, sin
}

// Advance moves the phase forward by delta radians (which may differ
// from the nominal increment, e.g. a PLL correction term) and wraps the
// result to [0, 2*pi).
func (n *NCO) Advance(delta float64) {
	n.phase = iq.WrapPhase(n.phase + delta)
}

// Phase returns the current phase in [0, 2*pi).
func (n *NCO) Phase() float64 { return n.phase }

// SetPhase forcibly sets the phase, wrapping to [0, 2*pi).
func (n *NCO) SetPhase(phase float64) { n.phase = iq.WrapPhase(phase) }

// Increment returns the nominal per-sample phase increment.
func (n *NCO) Increment() float64 { return n.increment }

// Reset zeroes the phase, leaving the increment unchanged.
func (n *NCO) Reset() { n.phase = 0 }
