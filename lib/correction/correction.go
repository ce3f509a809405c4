/*package correction contains the analytic counterparts of the mesh sum:
the reciprocal-space correction for excluded pairs, the per-subset
dispersion sums, and the per-slice long-range dispersion tail.

Every energy returned here is unweighted. The evaluation context applies
the slice weights when it accumulates the total, because the unweighted
values double as the derivatives with respect to the weights.*/
package correction

import (
	"math"

	"github.com/craabreu/slicedpme/lib/force"
)

// Exclusion is one pair whose reciprocal-space interaction must be
// removed, with the slice that owns it.
type Exclusion struct {
	P1, P2, Slice int
}

// Exclusions removes the mesh's contribution for the pairs in [lo, hi):
// for each pair it subtracts ke*q1*q2*erf(alpha*r)/r from the owning
// slice's entry in energies (unweighted) and applies the matching force
// scaled by the slice's Coulomb weight. periodic selects minimum-image
// separations. Disjoint pair ranges may run concurrently only if they
// also touch disjoint particles.
func Exclusions(
	pos [][3]float64, box [3]float64, periodic bool, alpha float64,
	pairs []Exclusion, charges []float64, coulombWeights []float64,
	forces [][3]float64, energies []float64, lo, hi int,
) {
	for p := lo; p < hi; p++ {
		pair := &pairs[p]
		k := force.CoulombConstant * charges[pair.P1] * charges[pair.P2]
		if k == 0 {
			continue
		}

		dx := Separation(pos[pair.P1], pos[pair.P2], box, periodic)
		r2 := dx[0]*dx[0] + dx[1]*dx[1] + dx[2]*dx[2]
		r := math.Sqrt(r2)

		if r < 1e-6 {
			// The r -> 0 limit of erf(alpha*r)/r.
			energies[pair.Slice] -= k * 2 * alpha / math.Sqrt(math.Pi)
			continue
		}

		alphaR := alpha * r
		erfAlphaR := math.Erf(alphaR)
		energies[pair.Slice] -= k * erfAlphaR / r

		// dE/dr of the subtracted term, with the slice weight applied to
		// the force only.
		dEdR := -k * (2*alpha/math.Sqrt(math.Pi)*math.Exp(-alphaR*alphaR) -
			erfAlphaR/r) / r
		scale := -coulombWeights[pair.Slice] * dEdR / r
		for d := 0; d < 3; d++ {
			f := scale * dx[d]
			forces[pair.P1][d] += f
			forces[pair.P2][d] -= f
		}
	}
}

// Separation returns the vector from p2 to p1, minimum-imaged if periodic
// is set.
func Separation(p1, p2, box [3]float64, periodic bool) [3]float64 {
	var dx [3]float64
	for d := 0; d < 3; d++ {
		dx[d] = p1[d] - p2[d]
		if periodic {
			dx[d] -= box[d] * math.Round(dx[d]/box[d])
		}
	}
	return dx
}

// C6Sums returns, per subset, the sum and the sum of squares of the
// geometric dispersion coefficients c6 = 2*sqrt(epsilon)*sigma^3.
func C6Sums(
	sigmas, epsilons []float64, subsets []int, numSubsets int,
) (c6Sum, c6Sq []float64) {
	c6Sum = make([]float64, numSubsets)
	c6Sq = make([]float64, numSubsets)
	for i := range sigmas {
		sig3 := sigmas[i] * sigmas[i] * sigmas[i]
		c6 := 2 * math.Sqrt(epsilons[i]) * sig3
		c6Sum[subsets[i]] += c6
		c6Sq[subsets[i]] += c6 * c6
	}
	return c6Sum, c6Sq
}

// DispersionTail returns the unweighted per-slice tail energy of the
// truncated dispersion interaction, indexed by slice. The geometric
// combination rule factorizes the pair sum: a cross slice contributes
// Sa*Sb and a diagonal slice (Sa*Sa - Q2a)/2, with Sa and Q2a the
// subset's c6 sum and c6 square sum.
func DispersionTail(c6Sum, c6Sq []float64, volume, cutoff float64) []float64 {
	numSubsets := len(c6Sum)
	prefactor := -2 * math.Pi /
		(3 * volume * cutoff * cutoff * cutoff)

	tail := make([]float64, force.NumSlices(numSubsets))
	for b := 0; b < numSubsets; b++ {
		for a := 0; a <= b; a++ {
			pairSum := c6Sum[a] * c6Sum[b]
			if a == b {
				pairSum = (pairSum - c6Sq[a]) / 2
			}
			tail[b*(b+1)/2+a] = prefactor * pairSum
		}
	}
	return tail
}
