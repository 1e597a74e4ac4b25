package modem

import (
	"math"
	"math/cmplx"

	"github.com/n0call/hfmodem/internal/carrier"
	"github.com/n0call/hfmodem/internal/constellation"
	"github.com/n0call/hfmodem/internal/pulseshape"
	"github.com/n0call/hfmodem/internal/rflog"
)

// timingAcquisitionWindow is the number of leading samples the first
// call examines to acquire symbol timing.
const timingAcquisitionWindow = 500

// maxCarrierCorrectionHz clamps the PLL loop filter; frequency offsets
// beyond +-50 Hz are out of capture range.
const maxCarrierCorrectionHz = 50.0

// pllDampingZeta, pllLoopBandwidthHz are the second-order loop filter
// tuning constants.
const (
	pllDampingZeta     = 1.0
	pllLoopBandwidthHz = 30.0
)

// DemodulatorParams configures a Demodulator at construction.
type DemodulatorParams struct {
	SampleRateHz  int
	SymbolRateHz  int
	CarrierHz     float64
	Constellation constellation.ID
	DFE           *DFEParams // nil disables the equalizer
}

// Demodulator is the stateful sample-to-symbol receive path:
// PLL-steered downconversion, RRC matched filtering, energy-based
// symbol timing, and slicing (through the DFE when one is configured).
type Demodulator struct {
	params        DemodulatorParams
	constellation constellation.Constellation
	sps           int
	rrc           *pulseshape.RRC

	histI, histQ *pulseshape.History

	pll           *carrier.NCO
	pllFreq       float64 // current loop-filter correction, rad/sample
	pllIntegrator float64 // coefficient held at 0; proportional-only avoids drift under fading phase walk
	alphaGain     float64 // proportional loop-filter gain

	timingPhase    int
	timingAcquired bool
	scratchI       *pulseshape.History
	scratchQ       *pulseshape.History
	energyBuckets  []float64
	sampleIndex    int

	dfe *DFE

	trainingSymbols []uint8
	trainingIndex   int
	trainingMode    bool

	log *rflog.Logger
}

// NewDemodulator constructs a Demodulator. Construction fails on the same
// non-integer samples-per-symbol condition as the modulator.
func NewDemodulator(p DemodulatorParams) (*Demodulator, error) {
	if p.SampleRateHz <= 0 || p.SymbolRateHz <= 0 {
		return nil, errSampleRate
	}
	if p.SampleRateHz%p.SymbolRateHz != 0 {
		return nil, errSampleRatio(p.SampleRateHz, p.SymbolRateHz)
	}
	sps := p.SampleRateHz / p.SymbolRateHz

	rrc := pulseshape.New(sps, pulseshape.DefaultRolloff, pulseshape.DefaultSpan)

	// alpha = 2*zeta*omega_n*Ts, omega_n = 2*pi*B_L, Ts = 1/symbol_rate.
	omegaN := 2 * math.Pi * pllLoopBandwidthHz
	ts := 1 / float64(p.SymbolRateHz)
	alpha := 2 * pllDampingZeta * omegaN * ts

	d := &Demodulator{
		params:        p,
		constellation: constellation.New(p.Constellation),
		sps:           sps,
		rrc:           rrc,
		histI:         pulseshape.NewHistory(rrc.Len()),
		histQ:         pulseshape.NewHistory(rrc.Len()),
		pll:           carrier.New(p.CarrierHz, float64(p.SampleRateHz)),
		alphaGain:     alpha,
		scratchI:      pulseshape.NewHistory(rrc.Len()),
		scratchQ:      pulseshape.NewHistory(rrc.Len()),
		energyBuckets: make([]float64, sps),
		log:           rflog.For("demodulator"),
	}

	if p.DFE != nil {
		d.dfe = NewDFE(*p.DFE, d.constellation)
	}

	return d, nil
}

// DemodulateIQ consumes int16 PCM and returns soft IQ points at symbol
// rate. The first call additionally runs the timing-acquisition
// pre-scan over its leading samples; the acquired phase persists
// across calls.
func (d *Demodulator) DemodulateIQ(samples []int16) []complex128 {
	if !d.timingAcquired {
		d.acquireTiming(samples)
	}

	var out []complex128

	for _, raw := range samples {
		x := float64(raw) / 32768.0

		point, isSymbol := d.step(x)
		if isSymbol {
			out = append(out, point)
		}
	}

	return out
}

// Demodulate consumes int16 PCM and returns hard symbol decisions,
// routing through the DFE when enabled.
func (d *Demodulator) Demodulate(samples []int16) []uint8 {
	points := d.DemodulateIQ(samples)
	out := make([]uint8, 0, len(points))

	for _, p := range points {
		if d.dfe != nil {
			y := d.dfe.Equalize(p)
			out = append(out, d.constellation.IQToSymbol(y))
		} else {
			out = append(out, d.constellation.IQToSymbol(p))
		}
	}

	return out
}

// acquireTiming runs the first-call timing-acquisition pre-scan over up
// to the first 500 samples: mix down with the nominal carrier (PLL
// held), matched-filter into a scratch
// history, and accumulate energy per sps-bucket. The same samples are
// then demodulated normally by the live pass.
func (d *Demodulator) acquireTiming(samples []int16) {
	n := len(samples)
	if n > timingAcquisitionWindow {
		n = timingAcquisitionWindow
	}
	settled := 2 * d.rrc.Span() * d.sps

	for i := 0; i < n; i++ {
		x := float64(samples[i]) / 32768.0

		theta := float64(i) * d.pll.Increment() // nominal carrier, PLL held
		iMix := 2 * x * math.Cos(theta)
		qMix := -2 * x * math.Sin(theta)

		d.scratchI.Push(iMix)
		d.scratchQ.Push(qMix)

		iF := d.scratchI.Dot(d.rrc.Coefficients())
		qF := d.scratchQ.Dot(d.rrc.Coefficients())

		if i >= settled {
			d.energyBuckets[i%d.sps] += iF*iF + qF*qF
		}
	}

	best, bestEnergy := 0, -1.0
	for bucket, energy := range d.energyBuckets {
		if energy > bestEnergy {
			bestEnergy = energy
			best = bucket
		}
	}
	d.timingPhase = best
	d.timingAcquired = true
	d.log.Debug("timing acquired", "phase", d.timingPhase)
}

// step runs one sample through the live single-pass demodulation loop.
// Returns the symbol-time IQ point and whether this sample was a
// symbol-decision instant. The PLL correction applies per sample, on
// the immediately following sample; batch updates drift on long frames.
func (d *Demodulator) step(x float64) (complex128, bool) {
	theta := d.pll.Phase()

	iMix := 2 * x * math.Cos(theta)
	qMix := -2 * x * math.Sin(theta)

	d.histI.Push(iMix)
	d.histQ.Push(qMix)

	iF := d.histI.Dot(d.rrc.Coefficients())
	qF := d.histQ.Dot(d.rrc.Coefficients())

	settled := 2 * d.rrc.Span() * d.sps
	isSymbolTime := d.sampleIndex%d.sps == d.timingPhase

	// PLL updates only once the matched filter has settled; output is
	// emitted at every symbol instant so callers see one decision per
	// symbol period from the very first sample.
	if isSymbolTime && d.sampleIndex >= settled {
		energy := iF*iF + qF*qF
		if energy > 0.01 {
			e := d.phaseError(iF, qF)
			d.pllFreq = clamp(d.alphaGain*e, maxCarrierCorrectionRad(d.params.SampleRateHz))
			d.pllFreq /= float64(d.sps)
		}

		if d.trainingMode && d.trainingIndex < len(d.trainingSymbols) {
			d.trainingIndex++
		}
	}

	d.pll.Advance(d.pll.Increment() + d.pllFreq)
	d.sampleIndex++

	if isSymbolTime {
		return complex(iF, qF), true
	}
	return 0, false
}

// phaseError computes the PLL's phase-error term: decision-directed when
// a known training symbol is available, otherwise the blind eighth-power
// estimator (which carries an eight-fold phase ambiguity).
func (d *Demodulator) phaseError(iF, qF float64) float64 {
	if d.trainingMode && d.trainingIndex < len(d.trainingSymbols) {
		known := d.constellation.SymbolToIQ(d.trainingSymbols[d.trainingIndex])
		iExp, qExp := real(known), imag(known)
		return math.Atan2(iF*qExp-qF*iExp, iF*iExp+qF*qExp)
	}

	z := complex(iF, qF)
	z2 := z * z
	z4 := z2 * z2
	z8 := z4 * z4
	return cmplx.Phase(z8) / 8
}

func maxCarrierCorrectionRad(sampleRateHz int) float64 {
	return 2 * math.Pi * maxCarrierCorrectionHz / float64(sampleRateHz)
}

func clamp(v, bound float64) float64 {
	if v > bound {
		return bound
	}
	if v < -bound {
		return -bound
	}
	return v
}

// SetTraining arms the training-symbol prefix used for decision-directed
// phase-error computation during a known probe sequence.
func (d *Demodulator) SetTraining(known []uint8) {
	d.trainingSymbols = known
	d.trainingIndex = 0
	d.trainingMode = len(known) > 0
}

// StopTraining disables training-symbol phase-error computation, falling
// back to the blind eighth-power estimator.
func (d *Demodulator) StopTraining() {
	d.trainingMode = false
}

// DFEHandle exposes the embedded equalizer, or nil if none was
// configured, for callers that want direct access (e.g. to call Train).
func (d *Demodulator) DFEHandle() *DFE { return d.dfe }

// Reset zeroes RRC history, PLL phase, PLL correction, integrator,
// timing phase and acquisition state, the training pointer, and resets
// the DFE if present.
func (d *Demodulator) Reset() {
	d.histI.Reset()
	d.histQ.Reset()
	d.pll.Reset()
	d.pllFreq = 0
	d.pllIntegrator = 0
	d.timingPhase = 0
	d.timingAcquired = false
	d.scratchI.Reset()
	d.scratchQ.Reset()
	for i := range d.energyBuckets {
		d.energyBuckets[i] = 0
	}
	d.sampleIndex = 0
	d.trainingIndex = 0

	if d.dfe != nil {
		d.dfe.Reset()
	}
}

// SetConstellation switches the constellation in force, consistent with
// the DFE's own mid-stream switch.
func (d *Demodulator) SetConstellation(id constellation.ID) {
	d.constellation = constellation.New(id)
	if d.dfe != nil {
		d.dfe.SetConstellation(d.constellation)
	}
}

// TimingAcquired reports whether symbol timing has locked.
func (d *Demodulator) TimingAcquired() bool { return d.timingAcquired }
