// Package channel implements the two-path Watterson HF channel
// simulator: independent Rayleigh fading taps, configurable delay
// spread, AWGN calibrated to a target SNR, and carrier mixing via
// linear-phase FIR for constant group delay. Every filter stage keeps
// its own history so the two paths stay sample-aligned.
package channel

import (
	"math"

	"github.com/n0call/hfmodem/internal/carrier"
	"github.com/n0call/hfmodem/internal/iq"
	"github.com/n0call/hfmodem/internal/rflog"
)

// referenceSignalPower is the power of a 0.5-amplitude sinusoid, the
// reference against which noise power is calibrated to a target SNR.
const referenceSignalPower = 0.125

// Params configures a Watterson channel instance.
type Params struct {
	SampleRateHz       uint32
	DelaySpreadSamples uint32
	DopplerBandwidthHz float64
	SNRDb              float64
	CarrierFreqHz      float64
}

// Watterson is the two-path Rayleigh channel simulator state.
type Watterson struct {
	params Params

	tap0, tap1 *FadingTap

	lpfI0, lpfQ0 *LowPass
	lpfI1, lpfQ1 *LowPass
	groupDelay   int

	delayI, delayQ *delayLine

	carrier          *carrier.NCO
	carrierIncrement float64

	noise *AWGN

	sampleIndex uint64
}

// New constructs a Watterson channel from params and a 64-bit seed. The
// same (params, seed) always produces bit-identical output.
func New(params Params, seed uint64) *Watterson {
	w := &Watterson{params: params}

	w.tap0 = NewFadingTap(seed, 0, float64(params.SampleRateHz), params.DopplerBandwidthHz)
	w.tap1 = NewFadingTap(seed, 1, float64(params.SampleRateHz), params.DopplerBandwidthHz)

	cutoff := cutoffForSampleRate(float64(params.SampleRateHz))
	numTaps := lpfTapsForSampleRate(float64(params.SampleRateHz))
	w.lpfI0 = NewLowPass(cutoff, float64(params.SampleRateHz), numTaps)
	w.lpfQ0 = NewLowPass(cutoff, float64(params.SampleRateHz), numTaps)
	w.lpfI1 = NewLowPass(cutoff, float64(params.SampleRateHz), numTaps)
	w.lpfQ1 = NewLowPass(cutoff, float64(params.SampleRateHz), numTaps)
	w.groupDelay = w.lpfI0.GroupDelay()

	delayLen := int(params.DelaySpreadSamples)
	if delayLen < 1 {
		delayLen = 1 // a length-1 line with delay_spread=0 is simply unused (see Process)
	}
	w.delayI = newDelayLine(delayLen)
	w.delayQ = newDelayLine(delayLen)

	w.carrierIncrement = 2 * math.Pi * params.CarrierFreqHz / float64(params.SampleRateHz)
	w.carrier = carrier.NewWithIncrement(w.carrierIncrement)

	noisePower := referenceSignalPower * math.Pow(10, -params.SNRDb/10)
	w.noise = NewAWGN(seed, 2, noisePower)

	rflog.For("channel").Debug("channel constructed",
		"sample_rate_hz", params.SampleRateHz,
		"delay_spread_samples", params.DelaySpreadSamples,
		"doppler_hz", params.DopplerBandwidthHz,
		"snr_db", params.SNRDb,
		"lpf_group_delay", w.groupDelay)

	return w
}

func cutoffForSampleRate(sampleRateHz float64) float64 {
	// Roughly the audio passband used throughout this engine's 2400/4800
	// baud waveforms; wide enough to pass 64-QAM's occupied bandwidth
	// while still attenuating 700 Hz past the cutoff.
	return math.Min(2400, sampleRateHz/4)
}

func lpfTapsForSampleRate(sampleRateHz float64) int {
	// A longer filter gives steeper stopband rolloff; scale with sample
	// rate so stopband attenuation stays below -20dB across configs.
	n := int(sampleRateHz / 200)
	if n < 31 {
		n = 31
	}
	if n%2 == 0 {
		n++
	}
	return n
}

// Process runs one input PCM-domain float sample through the channel and
// returns the corresponding output sample.
func (w *Watterson) Process(x float64) float64 {
	thetaC := w.carrier.Phase()

	// 1. Downmix to baseband.
	iRaw := 2 * x * math.Cos(thetaC)
	qRaw := -2 * x * math.Sin(thetaC)

	// 2. Low-pass both rails through tap0's and tap1's independent
	// filter pairs (four total) so group delay matches exactly.
	iBB0 := w.lpfI0.Filter(iRaw)
	qBB0 := w.lpfQ0.Filter(qRaw)
	iBB1 := w.lpfI1.Filter(iRaw)
	qBB1 := w.lpfQ1.Filter(qRaw)

	// 3. Tap-0 complex multiply (direct path).
	h0 := w.tap0.Next()
	bb0 := complex(iBB0, qBB0) * h0

	// 4. Tap-1 complex multiply using the delayed LPF output.
	var bb1 complex128
	if w.params.DelaySpreadSamples > 0 {
		delayedI := w.delayI.pushAndRead(iBB1)
		delayedQ := w.delayQ.pushAndRead(qBB1)
		h1 := w.tap1.Next()
		bb1 = complex(delayedI, delayedQ) * h1
	} else {
		w.tap1.Advance(1) // keep tap1's clock in lock-step even when unused
	}

	// 5. Combine.
	var combined complex128
	if w.params.DelaySpreadSamples == 0 {
		combined = bb0
	} else {
		const invSqrt2 = 0.70710678118654752440
		combined = complex(invSqrt2, 0) * (bb0 + bb1)
	}

	// 6. Remix to passband using a carrier phase delayed by (groupDelay+1)
	// increments to compensate for the LPF's constant group delay.
	thetaDelayed := thetaC - float64(w.groupDelay+1)*w.carrierIncrement

	// 7. y = I*cos(theta_delayed) - Q*sin(theta_delayed), plus noise.
	y := real(iq.RotatePhase(combined, thetaDelayed))
	y += w.noise.Next()

	w.carrier.Advance(w.carrierIncrement)
	w.sampleIndex++

	return y
}

// ProcessBlock runs Process over every sample in in, returning a newly
// allocated output slice of the same length.
func (w *Watterson) ProcessBlock(in []float64) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = w.Process(x)
	}
	return out
}

// Advance walks the fading taps, carrier phase and noise generator
// forward by n samples without generating output, keeping two channels
// in lock-step for multi-node simulation.
func (w *Watterson) Advance(n int) {
	for i := 0; i < n; i++ {
		w.carrier.Advance(w.carrierIncrement)
	}
	w.tap0.Advance(n)
	w.tap1.Advance(n)
	w.noise.Skip(n)
	w.sampleIndex += uint64(n)
}

// State is the snapshot returned by GetState.
type State struct {
	SampleIndex uint64
	Tap0Phase   float64
	Tap1Phase   float64
}

// GetState returns the channel's current sample index and tap phases.
func (w *Watterson) GetState() State {
	return State{
		SampleIndex: w.sampleIndex,
		Tap0Phase:   w.tap0.Phase(),
		Tap1Phase:   w.tap1.Phase(),
	}
}

// delayLine is a fixed-length ring; one line per I/Q rail feeds tap-1
// its delayed baseband samples.
type delayLine struct {
	buf   []float64
	write int
}

func newDelayLine(length int) *delayLine {
	return &delayLine{buf: make([]float64, length)}
}

// pushAndRead reads the delayed sample at the write pointer, then
// overwrites it with v and advances.
func (d *delayLine) pushAndRead(v float64) float64 {
	delayed := d.buf[d.write]
	d.buf[d.write] = v
	d.write++
	if d.write == len(d.buf) {
		d.write = 0
	}
	return delayed
}
