package iq

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbs2MatchesSquaredMagnitude(t *testing.T) {
	s := complex(3, 4)
	assert.Equal(t, 25.0, Abs2(s))
}

func TestConjNegatesImaginaryPart(t *testing.T) {
	s := complex(2, 5)
	assert.Equal(t, complex(2, -5), Conj(s))
}

func TestRotatePhasePreservesMagnitude(t *testing.T) {
	s := complex(1, 0)
	r := RotatePhase(s, math.Pi/2)
	assert.InDelta(t, 0, real(r), 1e-12)
	assert.InDelta(t, 1, imag(r), 1e-12)
}

func TestWrapPhaseNormalizesToUnitCircle(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{math.Pi, math.Pi},
		{2 * math.Pi, 0},
		{-math.Pi / 2, 3 * math.Pi / 2},
		{5 * math.Pi, math.Pi},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, WrapPhase(tc.in), 1e-9)
	}
}
