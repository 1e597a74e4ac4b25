package modem

import (
	"math/cmplx"

	"github.com/n0call/hfmodem/internal/constellation"
	"github.com/n0call/hfmodem/internal/iq"
	"github.com/n0call/hfmodem/internal/rflog"
)

// DFEMode is the equalizer's adaptation mode.
type DFEMode int

const (
	ModeCMA DFEMode = iota
	ModeDD
)

func (m DFEMode) String() string {
	if m == ModeDD {
		return "DD"
	}
	return "CMA"
}

// DFEParams configures a DFE at construction.
type DFEParams struct {
	FFTaps           int
	FBTaps           int
	Mu               float64
	MuCMA            float64
	Leakage          float64
	UpdateThreshold  float64
	CMAToDDThreshold float64
	CMAMinSymbols    int
}

// DefaultDFEParams, HFSkywaveDFEParams, GroundWaveDFEParams and
// FastAcqDFEParams are the four recognized tuning presets.
var (
	DefaultDFEParams = DFEParams{
		FFTaps: 15, FBTaps: 7, Mu: 0.03, MuCMA: 0.005, Leakage: 0.9999,
		UpdateThreshold: 0.10, CMAToDDThreshold: 0.01, CMAMinSymbols: 64,
	}
	HFSkywaveDFEParams = DFEParams{
		FFTaps: 21, FBTaps: 10, Mu: 0.02, MuCMA: 0.003, Leakage: 0.9999,
		UpdateThreshold: 0.15, CMAToDDThreshold: 0.01, CMAMinSymbols: 64,
	}
	GroundWaveDFEParams = DFEParams{
		FFTaps: 7, FBTaps: 3, Mu: 0.05, MuCMA: 0.010, Leakage: 1.0,
		UpdateThreshold: 0.05, CMAToDDThreshold: 0.01, CMAMinSymbols: 64,
	}
	FastAcqDFEParams = DFEParams{
		FFTaps: 15, FBTaps: 7, Mu: 0.10, MuCMA: 0.020, Leakage: 0.999,
		UpdateThreshold: 0.05, CMAToDDThreshold: 0.01, CMAMinSymbols: 64,
	}
)

const ddErrorEMAAlpha = 0.99

// DFE is a decision-feedback equalizer: a feedforward complex FIR
// driven by decimated IQ plus a feedback complex FIR driven by past
// symbol *decisions* (not soft IQ), with CMA blind acquisition
// transitioning automatically to DD-LMS. Keeping the feedback history
// as symbol indices rather than IQ points is what lets a mid-stream
// constellation switch take effect immediately.
type DFE struct {
	params DFEParams
	cons   constellation.Constellation

	ffCoeffs []complex128
	ffHist   []complex128 // ring, oldest-first when read via ffAt
	ffWrite  int

	fbCoeffs []complex128
	fbHist   []uint8 // ring of past symbol decisions
	fbWrite  int

	mode DFEMode
	r2   float64

	ddErrorEMA  float64
	cmaDispEMA  float64
	symbolsSeen int

	forcedDDByTraining bool

	log *rflog.Logger
}

// NewDFE constructs a DFE for the given parameters and initial
// constellation. Mode starts CMA, the center feedforward tap is (1,0),
// every other tap (FF and FB) is zero.
func NewDFE(p DFEParams, cons constellation.Constellation) *DFE {
	d := &DFE{
		params:   p,
		cons:     cons,
		ffCoeffs: make([]complex128, p.FFTaps),
		ffHist:   make([]complex128, p.FFTaps),
		fbCoeffs: make([]complex128, p.FBTaps),
		fbHist:   make([]uint8, p.FBTaps),
		mode:     ModeCMA,
		r2:       cons.R2Target(),
		log:      rflog.For("dfe"),
	}
	d.ffCoeffs[p.FFTaps/2] = complex(1, 0)
	return d
}

// pushFF writes x into the feedforward ring, overwriting the oldest
// sample.
func (d *DFE) pushFF(x complex128) {
	d.ffHist[d.ffWrite] = x
	d.ffWrite++
	if d.ffWrite == len(d.ffHist) {
		d.ffWrite = 0
	}
}

// ffAt returns the k-th oldest feedforward sample (k=0 is the oldest).
func (d *DFE) ffAt(k int) complex128 {
	idx := d.ffWrite + k
	idx %= len(d.ffHist)
	return d.ffHist[idx]
}

// pushFB records a symbol decision into the feedback ring.
func (d *DFE) pushFB(sym uint8) {
	d.fbHist[d.fbWrite] = sym
	d.fbWrite++
	if d.fbWrite == len(d.fbHist) {
		d.fbWrite = 0
	}
}

// fbAt returns the k-th oldest feedback symbol's IQ point, looked up
// through the *current* constellation so a mid-stream constellation
// switch is reflected immediately.
func (d *DFE) fbAt(k int) complex128 {
	idx := d.fbWrite + k
	idx %= len(d.fbHist)
	return d.cons.SymbolToIQ(d.fbHist[idx])
}

// Equalize runs one sample x through the equalizer, adapts the tap
// weights (CMA or DD, per the current mode), and returns the equalized
// output y = sum(w_k*x_k) - sum(v_k*s_past_k).
func (d *DFE) Equalize(x complex128) complex128 {
	d.pushFF(x)

	y := d.output()

	if iq.Abs2(x) > d.params.UpdateThreshold {
		switch d.mode {
		case ModeCMA:
			d.updateCMA(y)
		case ModeDD:
			d.updateDD(y, 1.0)
		}
	}

	decision := d.cons.IQToSymbol(y)
	ref := d.cons.SymbolToIQ(decision)
	ddErr := cmplx.Abs(y - ref)
	d.ddErrorEMA = ddErrorEMAAlpha*d.ddErrorEMA + (1-ddErrorEMAAlpha)*ddErr

	d.pushFB(decision)
	d.symbolsSeen++

	d.maybeTransition()

	return y
}

// EqualizeBatch applies Equalize across every sample in xs, in order.
func (d *DFE) EqualizeBatch(xs []complex128) []complex128 {
	out := make([]complex128, len(xs))
	for i, x := range xs {
		out[i] = d.Equalize(x)
	}
	return out
}

func (d *DFE) output() complex128 {
	var y complex128
	for k := 0; k < len(d.ffCoeffs); k++ {
		y += d.ffCoeffs[k] * d.ffAt(k)
	}
	for k := 0; k < len(d.fbCoeffs); k++ {
		y -= d.fbCoeffs[k] * d.fbAt(k)
	}
	return y
}

// updateCMA applies the constant-modulus blind update. FB taps are not
// touched in CMA mode.
func (d *DFE) updateCMA(y complex128) {
	eCMA := iq.Abs2(y) - d.r2
	d.cmaDispEMA = ddErrorEMAAlpha*d.cmaDispEMA + (1-ddErrorEMAAlpha)*absFloat(eCMA)

	leak := complex(d.params.Leakage, 0)
	step := complex(2*d.params.MuCMA*eCMA, 0)
	for k := range d.ffCoeffs {
		d.ffCoeffs[k] = leak*d.ffCoeffs[k] - step*y*iq.Conj(d.ffAt(k))
	}
}

// updateDD applies the decision-directed LMS update to both FF and FB
// taps. muScale doubles the step size during supervised training.
func (d *DFE) updateDD(y complex128, muScale float64) {
	decision := d.cons.IQToSymbol(y)
	ref := d.cons.SymbolToIQ(decision)
	eDD := y - ref

	leak := complex(d.params.Leakage, 0)
	mu := complex(d.params.Mu*muScale, 0)

	for k := range d.ffCoeffs {
		d.ffCoeffs[k] = leak*d.ffCoeffs[k] - mu*eDD*iq.Conj(d.ffAt(k))
	}
	for k := range d.fbCoeffs {
		d.fbCoeffs[k] = leak*d.fbCoeffs[k] + mu*eDD*iq.Conj(d.fbAt(k))
	}
}

// maybeTransition moves CMA -> DD once symbols processed >=
// cma_min_symbols, the CMA dispersion EMA has fallen below
// cma_to_dd_threshold, and the DD error EMA is below 0.5.
func (d *DFE) maybeTransition() {
	if d.mode != ModeCMA {
		return
	}
	if d.symbolsSeen < d.params.CMAMinSymbols {
		return
	}
	if d.cmaDispEMA >= d.params.CMAToDDThreshold {
		return
	}
	if d.ddErrorEMA >= 0.5 {
		return
	}
	d.mode = ModeDD
	d.log.Debug("transitioned to decision-directed mode",
		"symbols", d.symbolsSeen, "cma_dispersion", d.cmaDispEMA, "dd_error", d.ddErrorEMA)
}

// Train runs one supervised sample against a known symbol, using it
// (instead of the decision) as the LMS reference with doubled step size.
// The feedback history records the known symbol rather than a decision,
// and the mode is forced to DD on the first training call.
func (d *DFE) Train(x complex128, known uint8) complex128 {
	d.pushFF(x)
	y := d.output()

	if !d.forcedDDByTraining {
		d.mode = ModeDD
		d.forcedDDByTraining = true
		d.log.Debug("training forced decision-directed mode", "symbols", d.symbolsSeen)
	}

	ref := d.cons.SymbolToIQ(known)
	eDD := y - ref

	leak := complex(d.params.Leakage, 0)
	mu := complex(d.params.Mu*2, 0)
	for k := range d.ffCoeffs {
		d.ffCoeffs[k] = leak*d.ffCoeffs[k] - mu*eDD*iq.Conj(d.ffAt(k))
	}
	for k := range d.fbCoeffs {
		d.fbCoeffs[k] = leak*d.fbCoeffs[k] + mu*eDD*iq.Conj(d.fbAt(k))
	}

	d.ddErrorEMA = ddErrorEMAAlpha*d.ddErrorEMA + (1-ddErrorEMAAlpha)*cmplx.Abs(eDD)
	d.pushFB(known)
	d.symbolsSeen++

	return y
}

// TrainBatch applies Train across parallel xs/known slices, which must
// be the same length.
func (d *DFE) TrainBatch(xs []complex128, known []uint8) []complex128 {
	n := len(xs)
	if len(known) < n {
		n = len(known)
	}
	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		out[i] = d.Train(xs[i], known[i])
	}
	return out
}

// SetConstellation replaces the constellation in force and recomputes
// R^2, leaving all tap coefficients and histories intact so 110D
// probe<->data switches keep their converged state.
func (d *DFE) SetConstellation(c constellation.Constellation) {
	d.cons = c
	d.r2 = c.R2Target()
}

// Mode reports the equalizer's current adaptation mode.
func (d *DFE) Mode() DFEMode { return d.mode }

// Reset restores the DFE to its just-constructed state: mode CMA, center
// FF tap (1,0), everything else zero.
func (d *DFE) Reset() {
	for i := range d.ffCoeffs {
		d.ffCoeffs[i] = 0
	}
	d.ffCoeffs[len(d.ffCoeffs)/2] = complex(1, 0)
	for i := range d.fbCoeffs {
		d.fbCoeffs[i] = 0
	}
	for i := range d.ffHist {
		d.ffHist[i] = 0
	}
	for i := range d.fbHist {
		d.fbHist[i] = 0
	}
	d.ffWrite, d.fbWrite = 0, 0
	d.mode = ModeCMA
	d.ddErrorEMA, d.cmaDispEMA = 0, 0
	d.symbolsSeen = 0
	d.forcedDDByTraining = false
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
