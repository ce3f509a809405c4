package kernel

/* engines.go contains the serial reference engine and the data-parallel
engine. Both run the same per-cell convolution; they differ only in how
the work is partitioned and reduced. */

import (
	"github.com/craabreu/slicedpme/lib/force"
	"github.com/craabreu/slicedpme/lib/mesh"
	"github.com/craabreu/slicedpme/lib/thread"
)

// Reference evaluates every stage serially.
type Reference struct {
	core
}

// NewReference creates the serial engine for nx*ny*nz grids.
func NewReference(nx, ny, nz int) (*Reference, error) {
	c, err := newCore(nx, ny, nz)
	if err != nil { return nil, err }
	return &Reference{c}, nil
}

func (e *Reference) SpreadCharges(
	g *mesh.Grid, pos [][3]float64, charges []float64, subsets []int,
	box [3]float64,
) {
	g.Clear()
	mesh.SpreadCharges(g, pos, charges, subsets, box, nil)
}

func (e *Reference) Transform(g *mesh.Grid) error {
	return e.transform.Forward(g)
}

func (e *Reference) ConvolveSlices(
	g *mesh.Grid, box [3]float64, alpha float64, coulombWeights []float64,
	buildAggregate bool,
) ([]float64, error) {
	if err := e.checkConvolveArgs(g, coulombWeights); err != nil {
		return nil, err
	}
	nSlices := force.NumSlices(g.Subsets)
	sum, comp := make([]float64, nSlices), make([]float64, nSlices)
	e.convolveRange(g, box, alpha, coulombWeights, buildAggregate,
		0, e.nx*e.ny*e.nz, sum, comp)
	return sum, nil
}

func (e *Reference) InverseTransform(g *mesh.Grid) error {
	return e.transform.Inverse(g)
}

func (e *Reference) InterpolateForces(
	g *mesh.Grid, pos [][3]float64, charges []float64, subsets []int,
	box [3]float64, forces [][3]float64,
) {
	mesh.InterpolateForces(g, pos, charges, subsets, box, forces,
		0, len(pos))
}

func (e *Reference) ComputeSelfEnergy(
	charges []float64, subsets []int, numSubsets int, alpha float64,
) []float64 {
	return selfEnergies(charges, subsets, numSubsets, alpha)
}

func (e *Reference) TransformCounts() (forward, inverse int) {
	return e.transform.Counts()
}

// Parallel splits every stage over the lib/thread worker count. Spreading
// is partitioned by subset and the convolution keeps one partial energy
// accumulator per worker, reduced in worker order, so results do not
// depend on goroutine scheduling.
type Parallel struct {
	core
}

// NewParallel creates the data-parallel engine for nx*ny*nz grids.
func NewParallel(nx, ny, nz int) (*Parallel, error) {
	c, err := newCore(nx, ny, nz)
	if err != nil { return nil, err }
	return &Parallel{c}, nil
}

func (e *Parallel) SpreadCharges(
	g *mesh.Grid, pos [][3]float64, charges []float64, subsets []int,
	box [3]float64,
) {
	g.Clear()

	// Workers own whole subsets: two goroutines never write to the same
	// grid, and the per-subset deposit order matches the serial sweep.
	bySubset := make([][]int, g.Subsets)
	for i, s := range subsets {
		bySubset[s] = append(bySubset[s], i)
	}
	thread.Split(g.Subsets, func(worker, lo, hi int) {
		for s := lo; s < hi; s++ {
			mesh.SpreadCharges(g, pos, charges, subsets, box, bySubset[s])
		}
	})
}

func (e *Parallel) Transform(g *mesh.Grid) error {
	return e.transform.Forward(g)
}

func (e *Parallel) ConvolveSlices(
	g *mesh.Grid, box [3]float64, alpha float64, coulombWeights []float64,
	buildAggregate bool,
) ([]float64, error) {
	if err := e.checkConvolveArgs(g, coulombWeights); err != nil {
		return nil, err
	}
	nSlices := force.NumSlices(g.Subsets)

	nWorkers := thread.N()
	sums := make([][]float64, nWorkers)
	comps := make([][]float64, nWorkers)
	for w := 0; w < nWorkers; w++ {
		sums[w] = make([]float64, nSlices)
		comps[w] = make([]float64, nSlices)
	}

	thread.Split(e.nx*e.ny*e.nz, func(worker, lo, hi int) {
		e.convolveRange(g, box, alpha, coulombWeights, buildAggregate,
			lo, hi, sums[worker], comps[worker])
	})

	sum, comp := make([]float64, nSlices), make([]float64, nSlices)
	for w := 0; w < nWorkers; w++ {
		for slice := 0; slice < nSlices; slice++ {
			kahanAdd(sum, comp, slice, sums[w][slice])
		}
	}
	return sum, nil
}

func (e *Parallel) InverseTransform(g *mesh.Grid) error {
	return e.transform.Inverse(g)
}

func (e *Parallel) InterpolateForces(
	g *mesh.Grid, pos [][3]float64, charges []float64, subsets []int,
	box [3]float64, forces [][3]float64,
) {
	thread.Split(len(pos), func(worker, lo, hi int) {
		mesh.InterpolateForces(g, pos, charges, subsets, box, forces, lo, hi)
	})
}

func (e *Parallel) ComputeSelfEnergy(
	charges []float64, subsets []int, numSubsets int, alpha float64,
) []float64 {
	return selfEnergies(charges, subsets, numSubsets, alpha)
}

func (e *Parallel) TransformCounts() (forward, inverse int) {
	return e.transform.Counts()
}
