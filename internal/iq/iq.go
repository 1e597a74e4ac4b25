// Package iq holds the scalar complex-number helpers shared by every DSP
// component: constellations, pulse shaping, the NCO, the DFE and the
// channel simulator all pass baseband samples around as plain
// complex128 values. This package adds only the handful of operations
// that come up at every call site and are awkward to spell out with
// math/cmplx directly.
package iq

import (
	"math"
	"math/cmplx"
)

// Sample is a baseband in-phase/quadrature pair. Go's built-in
// complex128 already is a scalar complex number; this alias exists so
// call sites read as DSP code rather than generic numerics.
type Sample = complex128

// Abs2 returns |s|^2 without the sqrt that cmplx.Abs pays for. Timing
// acquisition and the PLL's lock gate both only ever need the squared
// magnitude.
func Abs2(s Sample) float64 {
	re, im := real(s), imag(s)
	return re*re + im*im
}

// Conj is a thin re-export of cmplx.Conj kept here so DFE/LMS code does
// not need a second import alongside this package.
func Conj(s Sample) Sample {
	return cmplx.Conj(s)
}

// RotatePhase multiplies s by exp(i*theta), i.e. rotates its phase by
// theta radians without touching its magnitude.
func RotatePhase(s Sample, theta float64) Sample {
	return s * cmplx.Rect(1, theta)
}

// WrapPhase normalizes a phase angle (radians) to [0, 2*pi).
func WrapPhase(theta float64) float64 {
	const twoPi = 2 * math.Pi
	theta = math.Mod(theta, twoPi)
	if theta < 0 {
		theta += twoPi
	}
	return theta
}
