package context

/* execute.go runs one evaluation: the reciprocal pipeline (spread,
transform, convolve, inverse transform, interpolate, self energy) and the
direct pipeline (pair loop, exclusion corrections, exception terms,
dispersion tail), accumulating weighted energies, weighted forces, and
unweighted derivative contributions. */

import (
	"github.com/craabreu/slicedpme/lib/correction"
	"github.com/craabreu/slicedpme/lib/direct"
	"github.com/craabreu/slicedpme/lib/errs"
	"github.com/craabreu/slicedpme/lib/force"
)

// Execute evaluates the force at the current positions and parameter
// values. includeDirect and includeReciprocal select the two pipelines,
// so replicas can split the work and callers can isolate the
// reciprocal-space contribution. The direct pipeline also honors the
// include-direct-space setting in effect at the last Sync. The energy,
// forces, and derivatives of the call replace those of the previous one.
func (c *Context) Execute(
	includeForces, includeEnergy, includeDirect, includeReciprocal bool,
) (float64, error) {
	if c.pos == nil {
		return 0, errs.Configf("Positions have not been set on this context.")
	}
	if c.resolver.Update(c.values) {
		c.refreshResolved()
	}
	c.lambda.Update(c.values)

	for i := range c.forces {
		c.forces[i] = [3]float64{}
	}
	c.derivatives = map[string]float64{}
	for _, name := range c.lambda.Tracked() {
		c.derivatives[name] = 0
	}
	c.energy = 0

	nSlices := c.f.NumSlices()
	zeros := make([]float64, nSlices)

	if includeReciprocal {
		if err := c.runReciprocal(includeForces, zeros); err != nil {
			return 0, err
		}
	}
	if includeDirect && c.includeDirect {
		c.runDirect(zeros)
	}

	if !includeEnergy {
		return 0, nil
	}
	return c.energy, nil
}

func (c *Context) runReciprocal(includeForces bool, zeros []float64) error {
	c.engine.SpreadCharges(c.grid, c.pos, c.resolver.Charges, c.subsets,
		c.box)
	if err := c.engine.Transform(c.grid); err != nil { return err }
	energies, err := c.engine.ConvolveSlices(c.grid, c.box, c.alpha,
		c.lambda.Coulomb, includeForces)
	if err != nil { return err }
	if includeForces {
		if err := c.engine.InverseTransform(c.grid); err != nil { return err }
		c.engine.InterpolateForces(c.grid, c.pos, c.resolver.Charges,
			c.subsets, c.box, c.forces)
	}

	c.accumulate(energies, zeros)
	c.accumulate(c.selfBySlice, zeros)
	return nil
}

func (c *Context) runDirect(zeros []float64) {
	nSlices := c.f.NumSlices()
	coulombE := make([]float64, nSlices)
	ljE := make([]float64, nSlices)

	sys := &direct.System{
		Pos:        c.pos,
		Charges:    c.resolver.Charges,
		Sigmas:     c.resolver.Sigmas,
		Epsilons:   c.resolver.Epsilons,
		Subsets:    c.subsets,
		NumSubsets: c.f.NumSubsets(),
		Excluded:   c.excluded,
	}
	lo, hi := c.replicaSpan(c.numParticles)
	direct.Pairs(sys, c.box, c.cutoff, c.alpha, c.lambda.Coulomb,
		c.lambda.LJ, c.forces, coulombE, ljE, lo, hi)

	lo, hi = c.replicaSpan(len(c.exclusions))
	correction.Exclusions(c.pos, c.box, c.exceptionsUsePeriodic,
		c.alpha, c.exclusions, c.resolver.Charges, c.lambda.Coulomb,
		c.forces, coulombE, lo, hi)

	lo, hi = c.replicaSpan(len(c.directExcs))
	direct.Exceptions(c.pos, c.box, c.exceptionsUsePeriodic,
		c.directExcs, c.lambda.Coulomb, c.lambda.LJ, c.forces,
		coulombE, ljE, lo, hi)

	c.accumulate(coulombE, ljE)

	// The tail is a single whole-box term, so only the first replica
	// contributes it.
	if c.replicaIndex == 0 {
		volume := c.box[0] * c.box[1] * c.box[2]
		tail := correction.DispersionTail(c.c6Sum, c.c6Sq, volume,
			c.cutoff)
		c.accumulate(zeros, tail)
	}
}

// accumulate folds unweighted per-slice channel energies into the total
// with the current weights, and into the tracked derivatives without
// them.
func (c *Context) accumulate(coulombE, ljE []float64) {
	for slice := range coulombE {
		c.energy += c.lambda.Coulomb[slice]*coulombE[slice] +
			c.lambda.LJ[slice]*ljE[slice]
	}
	c.lambda.AddDerivatives(c.derivatives, coulombE, ljE)
}

// refreshResolved rebuilds every cache derived from the resolved
// parameter values: the per-slice self energies, the dispersion sums,
// and the overriding exception parameters.
func (c *Context) refreshResolved() {
	numSubsets := c.f.NumSubsets()

	selfBySubset := c.engine.ComputeSelfEnergy(c.resolver.Charges,
		c.subsets, numSubsets, c.alpha)
	c.selfBySlice = make([]float64, force.NumSlices(numSubsets))
	for j, e := range selfBySubset {
		c.selfBySlice[j*(j+3)/2] = e
	}

	c.c6Sum, c.c6Sq = correction.C6Sums(c.resolver.Sigmas,
		c.resolver.Epsilons, c.subsets, numSubsets)

	c.directExcs = c.directExcs[:0]
	for _, i := range c.active {
		e, _ := c.f.Exception(i)
		c.directExcs = append(c.directExcs, direct.Exception{
			P1: e.Particle1, P2: e.Particle2,
			Slice:      mustSlice(c.subsets[e.Particle1], c.subsets[e.Particle2]),
			ChargeProd: c.resolver.ExcChargeProds[i],
			Sigma:      c.resolver.ExcSigmas[i],
			Epsilon:    c.resolver.ExcEpsilons[i],
		})
	}
}
