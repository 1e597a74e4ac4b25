// Package generic implements the compile-time-specialized modem
// variant: a modulator/demodulator pair generic over four small
// interfaces (Constellation, PulseShape, Carrier, SymbolTiming), kept
// for benchmarking against the runtime-reconfigurable variant in
// internal/modem. It shares the RRC coefficient computation and FIR
// history ring from internal/pulseshape with the runtime variant but
// never shares mutable state with it.
//
// The type arguments of GenericModulator[C, P, Car, T] are fixed at
// compile time. Go instantiates generics per GC shape, so value-typed
// arguments (constellation.Constellation, FixedTiming) get their own
// code, while pointer-typed arguments (*pulseshape.RRC, *carrier.NCO)
// share one shape and their method calls go through the instantiation's
// dictionary.
package generic

import (
	"math"

	"github.com/n0call/hfmodem/internal/pulseshape"
)

// Constellation is the minimal symbol<->IQ contract the generic modem
// needs; internal/constellation.Constellation satisfies it directly.
type Constellation interface {
	SymbolToIQ(sym uint8) complex128
	IQToSymbol(point complex128) uint8
}

// PulseShape is the minimal RRC contract; internal/pulseshape.RRC
// satisfies it directly.
type PulseShape interface {
	Coefficients() []float64
	Len() int
}

// Carrier is the minimal NCO contract; internal/carrier.NCO satisfies it
// directly.
type Carrier interface {
	Next() (cos, sin float64)
	Reset()
}

// SymbolTiming abstracts where, within a symbol interval, the pulse-shape
// impulse is placed and how many samples make up one symbol.
type SymbolTiming interface {
	SamplesPerSymbol() int
	CenterOffset() int
}

// FixedTiming is the only SymbolTiming implementation this engine needs:
// a fixed samples-per-symbol ratio with the impulse centered in the
// interval at sample index sps/2.
type FixedTiming struct {
	SPS int
}

func (f FixedTiming) SamplesPerSymbol() int { return f.SPS }
func (f FixedTiming) CenterOffset() int     { return f.SPS / 2 }

// GenericModulator is the compile-time-specialized symbol -> PCM-sample
// path, generic over the four interfaces above.
type GenericModulator[C Constellation, P PulseShape, Car Carrier, T SymbolTiming] struct {
	Cons        C
	Pulse       P
	Osc         Car
	Timing      T
	outputScale float64

	histI, histQ *pulseshape.History
}

// NewGenericModulator constructs a specialized modulator from already-built
// trait implementations.
func NewGenericModulator[C Constellation, P PulseShape, Car Carrier, T SymbolTiming](cons C, pulse P, osc Car, timing T, outputScale float64) *GenericModulator[C, P, Car, T] {
	return &GenericModulator[C, P, Car, T]{
		Cons:        cons,
		Pulse:       pulse,
		Osc:         osc,
		Timing:      timing,
		outputScale: outputScale,
		histI:       pulseshape.NewHistory(pulse.Len()),
		histQ:       pulseshape.NewHistory(pulse.Len()),
	}
}

// Modulate runs the same algorithm as modem.Modulator.Modulate, specialized
// at compile time for the instantiated C/P/Car/T types.
func (m *GenericModulator[C, P, Car, T]) Modulate(symbols []uint8) []int16 {
	sps := m.Timing.SamplesPerSymbol()
	center := m.Timing.CenterOffset()
	coeffs := m.Pulse.Coefficients()

	out := make([]int16, 0, len(symbols)*sps)

	for _, sym := range symbols {
		point := m.Cons.SymbolToIQ(sym)
		i, q := real(point), imag(point)

		for s := 0; s < sps; s++ {
			if s == center {
				m.histI.Push(i)
				m.histQ.Push(q)
			} else {
				m.histI.Push(0)
				m.histQ.Push(0)
			}

			iF := m.histI.Dot(coeffs)
			qF := m.histQ.Dot(coeffs)

			cos, sin := m.Osc.Next()
			sample := iF*cos - qF*sin

			out = append(out, quantize(sample, m.outputScale))
		}
	}

	return out
}

// Reset zeroes the modulator's filter histories and oscillator phase.
func (m *GenericModulator[C, P, Car, T]) Reset() {
	m.histI.Reset()
	m.histQ.Reset()
	m.Osc.Reset()
}

func quantize(sample, scale float64) int16 {
	v := math.Round(sample * scale)
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int16(v)
}
