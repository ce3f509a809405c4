/*package direct evaluates the short-range part of the interaction: the
truncated pair loop with the complementary-error-function Coulomb split
and Lennard-Jones under Lorentz-Berthelot combination, and the overriding
terms of exception pairs.

Energies are accumulated unweighted per slice and channel; forces carry
the slice weights. The pair loop skips excluded pairs, whose reciprocal
part is removed analytically elsewhere and whose direct part is either
absent or overridden by an exception.*/
package direct

import (
	"math"

	"github.com/craabreu/slicedpme/lib/correction"
	"github.com/craabreu/slicedpme/lib/force"
	"github.com/craabreu/slicedpme/lib/thread"
)

// System bundles the per-particle inputs of the pair loop.
type System struct {
	Pos                       [][3]float64
	Charges, Sigmas, Epsilons []float64
	Subsets                   []int
	NumSubsets                int

	// Excluded holds every pair covered by an exception, keyed with the
	// smaller index first.
	Excluded map[[2]int]bool
}

// PairsRange runs the pair loop for first particles in [lo, hi) against
// all greater-indexed partners, under minimum-image periodic boundaries.
// Unweighted energies go to coulombE and ljE by slice; weighted forces to
// forces. Disjoint first-particle ranges may only share a forces buffer
// if they run sequentially.
func PairsRange(
	sys *System, box [3]float64, cutoff, alpha float64,
	wC, wLJ []float64, forces [][3]float64, coulombE, ljE []float64,
	lo, hi int,
) {
	cutoff2 := cutoff * cutoff
	twoAlphaOverSqrtPi := 2 * alpha / math.Sqrt(math.Pi)

	for i := lo; i < hi; i++ {
		for j := i + 1; j < len(sys.Pos); j++ {
			if sys.Excluded[[2]int{i, j}] {
				continue
			}

			dx := correction.Separation(sys.Pos[i], sys.Pos[j], box, true)
			r2 := dx[0]*dx[0] + dx[1]*dx[1] + dx[2]*dx[2]
			if r2 >= cutoff2 {
				continue
			}
			r := math.Sqrt(r2)
			slice := mustSlice(sys.Subsets[i], sys.Subsets[j])

			// erfc-split Coulomb.
			k := force.CoulombConstant * sys.Charges[i] * sys.Charges[j]
			alphaR := alpha * r
			erfcAlphaR := math.Erfc(alphaR)
			coulombE[slice] += k * erfcAlphaR / r
			dEdR := -k * (twoAlphaOverSqrtPi*math.Exp(-alphaR*alphaR) +
				erfcAlphaR/r) / r
			scale := -wC[slice] * dEdR / r

			// Lennard-Jones under Lorentz-Berthelot combination.
			eps := geometricMean(sys.Epsilons[i], sys.Epsilons[j])
			if eps != 0 {
				sig := 0.5 * (sys.Sigmas[i] + sys.Sigmas[j])
				s2 := sig * sig / r2
				s6 := s2 * s2 * s2
				ljE[slice] += 4 * eps * s6 * (s6 - 1)
				ljdEdR := 4 * eps * s6 * (6 - 12*s6) / r
				scale -= wLJ[slice] * ljdEdR / r
			}

			for d := 0; d < 3; d++ {
				f := scale * dx[d]
				forces[i][d] += f
				forces[j][d] -= f
			}
		}
	}
}

// Pairs runs PairsRange for first particles in [lo, hi), splitting the
// span over the worker count. Per-worker force and energy buffers are
// reduced in worker order, so the result does not depend on scheduling.
func Pairs(
	sys *System, box [3]float64, cutoff, alpha float64,
	wC, wLJ []float64, forces [][3]float64, coulombE, ljE []float64,
	lo, hi int,
) {
	n := len(sys.Pos)
	nSlices := force.NumSlices(sys.NumSubsets)
	nWorkers := thread.N()
	if nWorkers == 1 || hi-lo < 2 {
		PairsRange(sys, box, cutoff, alpha, wC, wLJ, forces,
			coulombE, ljE, lo, hi)
		return
	}

	partForces := make([][][3]float64, nWorkers)
	partCoulomb := make([][]float64, nWorkers)
	partLJ := make([][]float64, nWorkers)
	for w := 0; w < nWorkers; w++ {
		partForces[w] = make([][3]float64, n)
		partCoulomb[w] = make([]float64, nSlices)
		partLJ[w] = make([]float64, nSlices)
	}

	thread.Split(hi-lo, func(worker, a, b int) {
		PairsRange(sys, box, cutoff, alpha, wC, wLJ, partForces[worker],
			partCoulomb[worker], partLJ[worker], lo+a, lo+b)
	})

	for w := 0; w < nWorkers; w++ {
		for i := 0; i < n; i++ {
			for d := 0; d < 3; d++ {
				forces[i][d] += partForces[w][i][d]
			}
		}
		for slice := 0; slice < nSlices; slice++ {
			coulombE[slice] += partCoulomb[w][slice]
			ljE[slice] += partLJ[w][slice]
		}
	}
}

// Exception is one pair with overriding direct-space parameters, tagged
// with its owning slice.
type Exception struct {
	P1, P2, Slice              int
	ChargeProd, Sigma, Epsilon float64
}

// Exceptions evaluates the overriding interaction of the pairs in
// [lo, hi): plain Coulomb with the overriding charge product plus
// Lennard-Jones with the overriding sigma and epsilon. No cutoff is
// applied; periodic selects minimum-image separations.
func Exceptions(
	pos [][3]float64, box [3]float64, periodic bool, excs []Exception,
	wC, wLJ []float64, forces [][3]float64, coulombE, ljE []float64,
	lo, hi int,
) {
	for p := lo; p < hi; p++ {
		exc := &excs[p]
		dx := correction.Separation(pos[exc.P1], pos[exc.P2], box, periodic)
		r2 := dx[0]*dx[0] + dx[1]*dx[1] + dx[2]*dx[2]
		r := math.Sqrt(r2)

		k := force.CoulombConstant * exc.ChargeProd
		coulombE[exc.Slice] += k / r
		scale := wC[exc.Slice] * k / (r2 * r)

		if exc.Epsilon != 0 {
			s2 := exc.Sigma * exc.Sigma / r2
			s6 := s2 * s2 * s2
			ljE[exc.Slice] += 4 * exc.Epsilon * s6 * (s6 - 1)
			ljdEdR := 4 * exc.Epsilon * s6 * (6 - 12*s6) / r
			scale -= wLJ[exc.Slice] * ljdEdR / r
		}

		for d := 0; d < 3; d++ {
			f := scale * dx[d]
			forces[exc.P1][d] += f
			forces[exc.P2][d] -= f
		}
	}
}

func mustSlice(a, b int) int {
	if a > b {
		a, b = b, a
	}
	return b*(b+1)/2 + a
}

func geometricMean(x, y float64) float64 {
	return math.Sqrt(x * y)
}
