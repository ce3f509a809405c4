/*package kernel contains the compute backends of the reciprocal-space
sum. An Engine covers the five mesh-Ewald capabilities: charge spreading,
the batched forward transform, the slice convolution, the batched inverse
transform with force interpolation, and the self-energy sum.

Two engines are provided. Reference runs every stage serially and is the
correctness baseline. Parallel splits each stage over the worker count
from lib/thread; it spreads by subset and reduces per-worker partial
energies in worker order, so its results are bitwise reproducible for a
fixed worker count.*/
package kernel

import (
	"github.com/craabreu/slicedpme/lib/mesh"
)

// Engine is the backend capability surface. The grid stack passed through
// the stages is owned by the caller; an evaluation runs SpreadCharges,
// Transform, ConvolveSlices, InverseTransform, and InterpolateForces in
// that order on the same stack.
type Engine interface {
	// SpreadCharges clears the stack and deposits every particle's
	// effective charge onto its subset's grid.
	SpreadCharges(g *mesh.Grid, pos [][3]float64, charges []float64,
		subsets []int, box [3]float64)

	// Transform replaces the charge grids with their forward transforms,
	// all subsets in one batched call.
	Transform(g *mesh.Grid) error

	// ConvolveSlices reads the transformed grids and returns the
	// unweighted energy of every slice, indexed by slice. If
	// buildAggregate is true it also overwrites each subset's grid with
	// the weighted convolution aggregate that the inverse transform turns
	// into that subset's potential mesh. coulombWeights is indexed by
	// slice.
	ConvolveSlices(g *mesh.Grid, box [3]float64, alpha float64,
		coulombWeights []float64, buildAggregate bool) ([]float64, error)

	// InverseTransform replaces the aggregate grids with their inverse
	// transforms, all subsets in one batched call.
	InverseTransform(g *mesh.Grid) error

	// InterpolateForces subtracts q*grad(phi) from every particle's
	// force, reading the potential mesh of the particle's subset.
	InterpolateForces(g *mesh.Grid, pos [][3]float64, charges []float64,
		subsets []int, box [3]float64, forces [][3]float64)

	// ComputeSelfEnergy returns the unweighted self energy of every
	// subset, -ke*alpha/sqrt(pi) times the subset's sum of squared
	// charges.
	ComputeSelfEnergy(charges []float64, subsets []int, numSubsets int,
		alpha float64) []float64

	// TransformCounts returns the number of batched forward and inverse
	// transforms run so far.
	TransformCounts() (forward, inverse int)
}
