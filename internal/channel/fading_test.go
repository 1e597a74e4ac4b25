package channel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFadingFixedPointWhenNoDoppler checks that a zero-Doppler tap
// degenerates to the fixed coefficient (1,0).
func TestFadingFixedPointWhenNoDoppler(t *testing.T) {
	tap := NewFadingTap(1, 0, 9600, 0)
	for i := 0; i < 100; i++ {
		h := tap.Next()
		assert.Equal(t, complex(1, 0), h)
	}
}

// TestFadingMomentsAndRayleighFit checks the tap's Rayleigh statistics:
// on many independent taps, E[I]~=0, E[Q]~=0, Var[I]~=Var[Q]~=0.5,
// Corr[I,Q]~=0, |h| Rayleigh-distributed with E[|h|^2]=1 (chi-squared
// goodness of fit over 20 bins), and arg(h) uniform on [-pi,pi) (chi-
// squared over 16 bins).
func TestFadingMomentsAndRayleighFit(t *testing.T) {
	const n = 50000
	mags := make([]float64, n)
	args := make([]float64, n)

	var sumI, sumQ, sumII, sumQQ, sumIQ float64
	for i := 0; i < n; i++ {
		tap := NewFadingTap(uint64(i+1), 0, 9600, 50)
		h := tap.Next()
		re, im := real(h), imag(h)
		sumI += re
		sumQ += im
		sumII += re * re
		sumQQ += im * im
		sumIQ += re * im
		mags[i] = math.Hypot(re, im)
		args[i] = math.Atan2(im, re)
	}

	meanI, meanQ := sumI/n, sumQ/n
	varI := sumII/n - meanI*meanI
	varQ := sumQQ/n - meanQ*meanQ
	covIQ := sumIQ/n - meanI*meanQ

	assert.InDelta(t, 0.0, meanI, 0.02)
	assert.InDelta(t, 0.0, meanQ, 0.02)
	assert.InDelta(t, 0.5, varI, 0.05)
	assert.InDelta(t, 0.5, varQ, 0.05)
	assert.InDelta(t, 0.0, covIQ, 0.02)

	chi2Mag := chiSquareRayleigh(mags, 20)
	require.Less(t, chi2Mag, 50.0) // df=19

	chi2Arg := chiSquareUniform(args, -math.Pi, math.Pi, 16)
	require.Less(t, chi2Arg, 40.0) // df=15
}

// TestFadingAutocorrelationMatchesBessel checks that the tap's
// autocorrelation follows J0(2*pi*f_d*tau) by sampling a
// single tap's time series and correlating lagged copies across an
// ensemble, since a single realization's autocorrelation is itself a
// random variable that only converges with ensemble averaging.
func TestFadingAutocorrelationMatchesBessel(t *testing.T) {
	const sampleRate = 9600.0
	const dopplerHz = 20.0
	const trials = 400
	const samplesPerTrial = 200

	lags := []int{2, 10, 48} // tau*f_d ~= 0.004, 0.02, 0.1
	for _, lag := range lags {
		var sumProd, sumSq float64
		for trial := 0; trial < trials; trial++ {
			tap := NewFadingTap(uint64(trial+1000), 0, sampleRate, dopplerHz)
			series := make([]complex128, samplesPerTrial)
			for i := range series {
				series[i] = tap.Next()
			}
			for i := 0; i+lag < samplesPerTrial; i++ {
				sumProd += real(series[i] * cmplxConj(series[i+lag]))
				sumSq += real(series[i] * cmplxConj(series[i]))
			}
		}
		measured := sumProd / sumSq
		tau := float64(lag) / sampleRate
		want := besselJ0(2 * math.Pi * dopplerHz * tau)

		tol := 0.15
		if tau*dopplerHz >= 0.1 {
			tol = 0.25
		}
		assert.InDeltaf(t, want, measured, tol, "lag=%d", lag)
	}
}

// TestFadingLevelCrossingRate checks the tap's level-crossing
// statistics: the up-crossing rate of |h| at threshold rho*RMS approaches
// sqrt(2*pi)*f_d*rho*exp(-rho^2) per second, and the average fade
// duration approaches (exp(rho^2)-1)/(sqrt(2*pi)*f_d*rho). Averaged over
// an ensemble of taps since a single realization's estimate is noisy.
func TestFadingLevelCrossingRate(t *testing.T) {
	const sampleRate = 9600.0
	const dopplerHz = 50.0
	const rho = 1.0
	const trials = 8
	const secondsPerTrial = 5.0

	samplesPerTrial := int(secondsPerTrial * sampleRate)
	threshold := rho // RMS of |h| is 1 by construction

	crossings := 0
	samplesBelow := 0
	for trial := 0; trial < trials; trial++ {
		tap := NewFadingTap(uint64(trial+77), 0, sampleRate, dopplerHz)
		prevBelow := false
		for i := 0; i < samplesPerTrial; i++ {
			h := tap.Next()
			below := math.Hypot(real(h), imag(h)) < threshold
			if below {
				samplesBelow++
			}
			if prevBelow && !below {
				crossings++ // up-crossing out of a fade
			}
			prevBelow = below
		}
	}

	totalSeconds := float64(trials) * secondsPerTrial
	measuredLCR := float64(crossings) / totalSeconds
	wantLCR := math.Sqrt(2*math.Pi) * dopplerHz * rho * math.Exp(-rho*rho)
	assert.InDelta(t, wantLCR, measuredLCR, 0.25*wantLCR)

	measuredAFD := (float64(samplesBelow) / sampleRate) / float64(crossings)
	wantAFD := (math.Exp(rho*rho) - 1) / (math.Sqrt(2*math.Pi) * dopplerHz * rho)
	assert.InDelta(t, wantAFD, measuredAFD, 0.25*wantAFD)
}

func TestFadingAdvanceMatchesRepeatedNext(t *testing.T) {
	a := NewFadingTap(9, 3, 9600, 15)
	b := NewFadingTap(9, 3, 9600, 15)

	for i := 0; i < 37; i++ {
		a.Next()
	}
	b.Advance(37)

	ha, hb := a.Next(), b.Next()
	assert.InDelta(t, real(ha), real(hb), 1e-12)
	assert.InDelta(t, imag(ha), imag(hb), 1e-12)
}

func cmplxConj(z complex128) complex128 {
	return complex(real(z), -imag(z))
}

// besselJ0 evaluates the Bessel function of the first kind, order 0, via
// its convergent power series (sufficient accuracy for the small-argument
// range this test exercises).
func besselJ0(x float64) float64 {
	sum := 0.0
	term := 1.0
	halfX2 := (x / 2) * (x / 2)
	for k := 0; k < 30; k++ {
		if k > 0 {
			term *= -halfX2 / (float64(k) * float64(k))
		}
		sum += term
	}
	return sum
}

func chiSquareUniform(samples []float64, lo, hi float64, bins int) float64 {
	counts := make([]int, bins)
	width := (hi - lo) / float64(bins)
	for _, s := range samples {
		b := int((s - lo) / width)
		if b < 0 {
			b = 0
		}
		if b >= bins {
			b = bins - 1
		}
		counts[b]++
	}
	expected := float64(len(samples)) / float64(bins)
	chi2 := 0.0
	for _, c := range counts {
		d := float64(c) - expected
		chi2 += d * d / expected
	}
	return chi2
}

// chiSquareRayleigh bins |h| by its theoretical CDF quantiles (equal-
// probability bins, E[|h|^2]=1 i.e. scale sigma=1/sqrt(2)) so the
// expected count per bin is uniform regardless of bin width.
func chiSquareRayleigh(mags []float64, bins int) float64 {
	const sigma = 1 / math.Sqrt2 // E[|h|^2] = 2*sigma^2 = 1
	counts := make([]int, bins)
	for _, m := range mags {
		// Rayleigh CDF: F(r) = 1 - exp(-r^2/(2*sigma^2)).
		cdf := 1 - math.Exp(-m*m/(2*sigma*sigma))
		b := int(cdf * float64(bins))
		if b < 0 {
			b = 0
		}
		if b >= bins {
			b = bins - 1
		}
		counts[b]++
	}
	expected := float64(len(mags)) / float64(bins)
	chi2 := 0.0
	for _, c := range counts {
		d := float64(c) - expected
		chi2 += d * d / expected
	}
	return chi2
}
