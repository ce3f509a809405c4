package force

/* slice.go maps unordered subset pairs to slice indices. */

import (
	"github.com/craabreu/slicedpme/lib/errs"
)

// NumSlices returns the number of slices for a given subset count,
// numSubsets*(numSubsets+1)/2.
func NumSlices(numSubsets int) int {
	return numSubsets * (numSubsets + 1) / 2
}

// SliceIndex maps the unordered subset pair (a, b) to its slice index,
// max*(max+1)/2 + min. The mapping is symmetric in a and b and is a
// bijection between unordered pairs and [0, NumSlices(numSubsets)). An
// out-of-range subset is a Configuration error.
func SliceIndex(numSubsets, a, b int) (int, error) {
	if a < 0 || a >= numSubsets {
		return -1, errs.Configf("The subset index %d is out of range: this "+
			"system was declared with %d subsets.", a, numSubsets)
	}
	if b < 0 || b >= numSubsets {
		return -1, errs.Configf("The subset index %d is out of range: this "+
			"system was declared with %d subsets.", b, numSubsets)
	}
	if a > b {
		a, b = b, a
	}
	return b*(b+1)/2 + a, nil
}

// mustSliceIndex is SliceIndex for subset indices that have already been
// validated.
func mustSliceIndex(a, b int) int {
	if a > b {
		a, b = b, a
	}
	return b*(b+1)/2 + a
}
