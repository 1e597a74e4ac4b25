// Package modem implements the runtime-reconfigurable modulator and
// demodulator plus the decision-feedback equalizer: oscillator-driven
// per-sample emission and recovery for arbitrary constellations via RRC
// pulse shaping and carrier mixing.
package modem

import (
	"math"

	"github.com/n0call/hfmodem/internal/carrier"
	"github.com/n0call/hfmodem/internal/constellation"
	"github.com/n0call/hfmodem/internal/pulseshape"
	"github.com/n0call/hfmodem/internal/rflog"
)

// DefaultOutputScale is the modulator's default int16 scale factor.
const DefaultOutputScale = 32768

// ModulatorParams configures a Modulator at construction.
type ModulatorParams struct {
	SampleRateHz  int
	SymbolRateHz  int
	CarrierHz     float64
	Constellation constellation.ID
	OutputScale   float64 // 0 means DefaultOutputScale
}

// Modulator is the stateful symbol-to-PCM-sample transmit path.
type Modulator struct {
	params        ModulatorParams
	constellation constellation.Constellation
	sps           int
	rrc           *pulseshape.RRC
	histI, histQ  *pulseshape.History
	nco           *carrier.NCO
	outputScale   float64

	log *rflog.Logger
}

// NewModulator constructs a Modulator. Construction fails if
// sample_rate/symbol_rate is not an integer.
func NewModulator(p ModulatorParams) (*Modulator, error) {
	if p.SampleRateHz <= 0 || p.SymbolRateHz <= 0 {
		return nil, errSampleRate
	}
	if p.SampleRateHz%p.SymbolRateHz != 0 {
		return nil, errSampleRatio(p.SampleRateHz, p.SymbolRateHz)
	}
	sps := p.SampleRateHz / p.SymbolRateHz

	scale := p.OutputScale
	if scale == 0 {
		scale = DefaultOutputScale
	}

	rrc := pulseshape.New(sps, pulseshape.DefaultRolloff, pulseshape.DefaultSpan)

	m := &Modulator{
		params:        p,
		constellation: constellation.New(p.Constellation),
		sps:           sps,
		rrc:           rrc,
		histI:         pulseshape.NewHistory(rrc.Len()),
		histQ:         pulseshape.NewHistory(rrc.Len()),
		nco:           carrier.New(p.CarrierHz, float64(p.SampleRateHz)),
		outputScale:   scale,
		log:           rflog.For("modulator"),
	}

	m.log.Debug("modulator constructed", "sps", sps, "constellation", m.constellation.ID(), "carrier_hz", p.CarrierHz)

	return m, nil
}

// Modulate maps symbols through the constellation, pulse-shapes and
// upconverts them, returning sps*len(symbols) int16 PCM samples.
//
// Each symbol interval places a single impulse at the center sample
// index (sps/2); the RRC filter realizes the pulse shape on both
// transmit and (matched-filtered) receive, so the cascade yields the
// full RRC-on-RRC Nyquist response. Do not swap this for oversampled
// upsampling; the receive path assumes the impulse-train convention.
func (m *Modulator) Modulate(symbols []uint8) []int16 {
	out := make([]int16, 0, len(symbols)*m.sps)
	center := m.sps / 2

	for _, sym := range symbols {
		point := m.constellation.SymbolToIQ(sym)
		i, q := real(point), imag(point)

		for s := 0; s < m.sps; s++ {
			if s == center {
				m.histI.Push(i)
				m.histQ.Push(q)
			} else {
				m.histI.Push(0)
				m.histQ.Push(0)
			}

			iF := m.histI.Dot(m.rrc.Coefficients())
			qF := m.histQ.Dot(m.rrc.Coefficients())

			cos, sin := m.nco.Next()
			sample := iF*cos - qF*sin

			out = append(out, m.quantize(sample))
		}
	}

	return out
}

// Flush drains the pulse-shaping filter by appending 2*span zero
// symbols.
func (m *Modulator) Flush() []int16 {
	zeros := make([]uint8, 2*m.rrc.Span())
	return m.Modulate(zeros)
}

func (m *Modulator) quantize(sample float64) int16 {
	scaled := math.Round(sample * m.outputScale)
	if scaled > 32767 {
		scaled = 32767
	}
	if scaled < -32768 {
		scaled = -32768
	}
	return int16(scaled)
}

// Reset zeroes the pulse-shaping histories and carrier phase.
func (m *Modulator) Reset() {
	m.histI.Reset()
	m.histQ.Reset()
	m.nco.Reset()
}

// SetConstellation switches the constellation in force without resetting
// filter state, mirroring the DFE's mid-stream switch so the modulator
// side of a probe/data transition stays consistent.
func (m *Modulator) SetConstellation(id constellation.ID) {
	m.constellation = constellation.New(id)
}

// SamplesPerSymbol reports sample_rate/symbol_rate.
func (m *Modulator) SamplesPerSymbol() int { return m.sps }
