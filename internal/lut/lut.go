// Package lut builds the lookup table the firmware uses to turn a
// normalized ADC reading into switch travel distance.
//
// Hall-effect sensor output is not linear in travel. The table follows the
// fitted curve
//
//	d(x) = 255 * log10(1 + a*x) / log10(1 + a*n)
//
// for x in [0, n), rounded half to even, so entry 0 is 0 and the curve
// approaches 255 at x = n.
package lut

import (
	"fmt"
	"math"
)

// DefaultEntries is the table size the firmware expects unless its config
// says otherwise.
const DefaultEntries = 1024

// MaxDistance is the distance of a fully pressed switch.
const MaxDistance = 255

// Distance returns the n-entry table for curve constant a.
func Distance(a float64, n int) ([]int, error) {
	if n <= 0 {
		return nil, fmt.Errorf("table needs at least one entry, got %d", n)
	}
	if !(a > 0) || math.IsInf(a, 1) {
		return nil, fmt.Errorf("curve constant must be a positive number, got %v", a)
	}

	denom := math.Log10(1 + a*float64(n))
	table := make([]int, n)
	for x := range table {
		table[x] = int(math.RoundToEven(MaxDistance * math.Log10(1+a*float64(x)) / denom))
	}
	return table, nil
}
