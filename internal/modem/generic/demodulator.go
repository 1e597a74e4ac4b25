package generic

import "github.com/n0call/hfmodem/internal/pulseshape"

// GenericDemodulator is the compile-time-specialized demodulator side.
// Unlike modem.Demodulator, it assumes symbol timing and carrier phase
// are already known (fixed sps, free-running oscillator), isolating the
// matched-filter/slicer hot path for benchmarking. The
// runtime-reconfigurable modem.Demodulator remains the only variant
// that performs acquisition.
type GenericDemodulator[C Constellation, P PulseShape, Car Carrier, T SymbolTiming] struct {
	Cons   C
	Pulse  P
	Osc    Car
	Timing T

	histI, histQ *pulseshape.History
	sampleIndex  int
}

// NewGenericDemodulator constructs a specialized demodulator.
func NewGenericDemodulator[C Constellation, P PulseShape, Car Carrier, T SymbolTiming](cons C, pulse P, osc Car, timing T) *GenericDemodulator[C, P, Car, T] {
	return &GenericDemodulator[C, P, Car, T]{
		Cons:   cons,
		Pulse:  pulse,
		Osc:    osc,
		Timing: timing,
		histI:  pulseshape.NewHistory(pulse.Len()),
		histQ:  pulseshape.NewHistory(pulse.Len()),
	}
}

// Demodulate downmixes, matched-filters and slices a PCM buffer into
// hard symbol decisions, sampling at the fixed phase Timing.CenterOffset().
func (d *GenericDemodulator[C, P, Car, T]) Demodulate(samples []int16) []uint8 {
	sps := d.Timing.SamplesPerSymbol()
	phase := d.Timing.CenterOffset()
	coeffs := d.Pulse.Coefficients()

	var out []uint8

	for _, raw := range samples {
		x := float64(raw) / 32768.0
		cos, sin := d.Osc.Next()

		d.histI.Push(2 * x * cos)
		d.histQ.Push(-2 * x * sin)

		if d.sampleIndex%sps == phase {
			iF := d.histI.Dot(coeffs)
			qF := d.histQ.Dot(coeffs)
			out = append(out, d.Cons.IQToSymbol(complex(iF, qF)))
		}

		d.sampleIndex++
	}

	return out
}

// Reset zeroes the demodulator's filter histories and sample index.
func (d *GenericDemodulator[C, P, Car, T]) Reset() {
	d.histI.Reset()
	d.histQ.Reset()
	d.sampleIndex = 0
}
