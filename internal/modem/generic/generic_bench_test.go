package generic

import (
	"testing"

	"github.com/n0call/hfmodem/internal/carrier"
	"github.com/n0call/hfmodem/internal/constellation"
	"github.com/n0call/hfmodem/internal/modem"
	"github.com/n0call/hfmodem/internal/pulseshape"
)

const benchSPS = 4

func benchSymbols(n int) []uint8 {
	symbols := make([]uint8, n)
	for i := range symbols {
		symbols[i] = uint8(i % 4)
	}
	return symbols
}

// BenchmarkGenericModulate exercises the compile-time-specialized
// modulator variant, for comparison against the runtime-reconfigurable
// one below.
func BenchmarkGenericModulate(b *testing.B) {
	cons := constellation.New(constellation.QPSK)
	pulse := pulseshape.New(benchSPS, pulseshape.DefaultRolloff, pulseshape.DefaultSpan)
	osc := carrier.New(1800, 9600)
	mod := NewGenericModulator(cons, pulse, osc, FixedTiming{SPS: benchSPS}, 32768.0)
	symbols := benchSymbols(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mod.Modulate(symbols)
	}
}

// BenchmarkModemModulate benchmarks the runtime-reconfigurable modulator
// over the same workload, for direct comparison against the generic
// variant above.
func BenchmarkModemModulate(b *testing.B) {
	mod, err := modem.NewModulator(modem.ModulatorParams{
		SampleRateHz:  9600,
		SymbolRateHz:  9600 / benchSPS,
		CarrierHz:     1800,
		Constellation: constellation.QPSK,
	})
	if err != nil {
		b.Fatal(err)
	}
	symbols := benchSymbols(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mod.Modulate(symbols)
	}
}

// BenchmarkGenericDemodulate exercises the compile-time-specialized
// demodulator variant's matched-filter/slicer hot path in isolation,
// with timing and carrier phase already known (no acquisition).
func BenchmarkGenericDemodulate(b *testing.B) {
	cons := constellation.New(constellation.QPSK)
	pulse := pulseshape.New(benchSPS, pulseshape.DefaultRolloff, pulseshape.DefaultSpan)
	modOsc := carrier.New(1800, 9600)
	mod := NewGenericModulator(cons, pulse, modOsc, FixedTiming{SPS: benchSPS}, 32768.0)
	pcm := mod.Modulate(benchSymbols(1000))

	demOsc := carrier.New(1800, 9600)
	dem := NewGenericDemodulator(cons, pulse, demOsc, FixedTiming{SPS: benchSPS})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dem.Reset()
		dem.Demodulate(pcm)
	}
}

// BenchmarkModemDemodulate benchmarks the runtime-reconfigurable
// demodulator (including its timing-acquisition pass) over the same
// workload, for direct comparison.
func BenchmarkModemDemodulate(b *testing.B) {
	dem, err := modem.NewDemodulator(modem.DemodulatorParams{
		SampleRateHz:  9600,
		SymbolRateHz:  9600 / benchSPS,
		CarrierHz:     1800,
		Constellation: constellation.QPSK,
	})
	if err != nil {
		b.Fatal(err)
	}

	mod, err := modem.NewModulator(modem.ModulatorParams{
		SampleRateHz:  9600,
		SymbolRateHz:  9600 / benchSPS,
		CarrierHz:     1800,
		Constellation: constellation.QPSK,
	})
	if err != nil {
		b.Fatal(err)
	}
	pcm := mod.Modulate(benchSymbols(1000))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dem.Reset()
		dem.Demodulate(pcm)
	}
}
