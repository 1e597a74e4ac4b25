package constellation

import "math"

// Square Gray-coded QAM tables (16-QAM, 64-QAM) and the 110D-style
// 32-QAM cross constellation, whose 32 indices cover 24 unique points
// with indices 24-31 replicating 0-7. Exact MIL-STD-188-110D point
// coordinates are not reproduced bit-for-bit; these tables are standard
// Gray-coded square/cross constructions normalized to unit average
// power.

var qam16Table = buildSquareGray(4)
var qam64Table = buildSquareGray(8)
var qam32Table = buildCross32()

// buildSquareGray builds a side x side Gray-coded square QAM table with
// side*side symbols, normalized so the average |point|^2 is 1.
func buildSquareGray(side int) []complex128 {
	bitsPerAxis := bitLen(side - 1)
	levels := make([]float64, side)
	for p := 0; p < side; p++ {
		g := p ^ (p >> 1) // natural position -> its Gray code label
		levels[g] = float64(-(side - 1) + 2*p)
	}

	table := make([]complex128, side*side)
	for a := 0; a < side; a++ {
		for b := 0; b < side; b++ {
			sym := (a << bitsPerAxis) | b
			table[sym] = complex(levels[a], levels[b])
		}
	}

	normalizeUnitPower(table)
	return table
}

// buildCross32 builds the 24 unique points of the 110D 32-QAM cross
// constellation (a 6x6 square grid with the 3-point L-shaped corners
// trimmed from each of its four corners, 36 - 4*3 = 24 points) and then
// appends the documented alias block: indices 24-31 replicate 0-7.
func buildCross32() []complex128 {
	const side = 6
	levels := []float64{-5, -3, -1, 1, 3, 5}

	type point struct{ i, q int } // grid coordinates, 0..side-1
	var unique []point
	for a := 0; a < side; a++ {
		for b := 0; b < side; b++ {
			if isTrimmedCorner(a, b, side) {
				continue
			}
			unique = append(unique, point{a, b})
		}
	}
	// unique now has 36 - 4*3 = 24 points.

	table := make([]complex128, 32)
	for idx, p := range unique {
		table[idx] = complex(levels[p.i], levels[p.q])
	}
	normalizeUnitPower(table[:24])
	for idx := 24; idx < 32; idx++ {
		table[idx] = table[idx-24]
	}

	return table
}

// isTrimmedCorner reports whether grid position (a,b) is one of the three
// most extreme points of whichever corner it is nearest, on a side x side
// grid. Trims an L-tromino from each corner.
func isTrimmedCorner(a, b, side int) bool {
	ai, bi := a, b
	if a >= side/2 {
		ai = side - 1 - a
	}
	if b >= side/2 {
		bi = side - 1 - b
	}
	// ai, bi are now distance-from-nearest-edge in each axis (0 = edge).
	return ai+bi <= 1 && (ai == 0 || bi == 0)
}

// normalizeUnitPower scales every point in table so the mean of |p|^2
// across all len(table) entries is 1. buildCross32 passes only its 24
// unique points, so the 32-QAM alias block is excluded from the average.
func normalizeUnitPower(table []complex128) {
	sum := 0.0
	for _, p := range table {
		sum += real(p)*real(p) + imag(p)*imag(p)
	}
	mean := sum / float64(len(table))
	scale := complex(1/math.Sqrt(mean), 0)
	for i := range table {
		table[i] *= scale
	}
}
