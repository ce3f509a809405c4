/*package context owns an evaluation of a sliced force: it binds a frozen
declaration to positions, a box, and current global parameter values, and
runs the direct and reciprocal pipelines into a shared force accumulator,
a total energy, and the requested parameter derivatives.

The structural part of the declaration (particle count, subset
assignment, the set of active exceptions) is frozen when the context is
created. Numeric values may keep changing on the Force; Sync pushes them
into the context and fails with a Consistency error if the structure
drifted. Several contexts may evaluate replicas of the same declaration,
each owning a static span of the exception work.*/
package context

import (
	"github.com/craabreu/slicedpme/lib/correction"
	"github.com/craabreu/slicedpme/lib/direct"
	"github.com/craabreu/slicedpme/lib/errs"
	"github.com/craabreu/slicedpme/lib/force"
	"github.com/craabreu/slicedpme/lib/kernel"
	"github.com/craabreu/slicedpme/lib/mesh"
	"github.com/craabreu/slicedpme/lib/params"
)

// Options selects the engine and the replica span of a new context.
type Options struct {
	// Parallel selects the data-parallel engine instead of the serial
	// reference engine.
	Parallel bool
	// ReplicaIndex and ReplicaCount assign this context a static span of
	// the exception and exclusion work. The zero value means a single
	// replica owning everything.
	ReplicaIndex, ReplicaCount int
}

// Context is one bound evaluation of a Force. It is not safe for
// concurrent use.
type Context struct {
	f      *force.Force
	box    [3]float64
	pos    [][3]float64
	values params.Values

	resolver *params.Resolver
	lambda   *params.Lambda
	engine   kernel.Engine
	grid     *mesh.Grid

	alpha      float64
	nx, ny, nz int

	// PME settings frozen at creation. The splitting coefficient and the
	// grid are derived from these, so changing them on the Force needs a
	// new context; Sync rejects the drift.
	cutoff, ewaldTolerance float64
	pinAlpha               float64
	pinNx, pinNy, pinNz    int

	// Boolean settings follow the usual sync rule: Execute reads the
	// values Sync last pushed, never the live Force.
	exceptionsUsePeriodic bool
	includeDirect         bool

	// Structure frozen at creation.
	numParticles int
	subsets      []int
	active       []int
	exclusions   []correction.Exclusion
	excluded     map[[2]int]bool

	replicaIndex, replicaCount int

	// Caches recomputed when the resolved parameters change.
	selfBySlice []float64
	c6Sum, c6Sq []float64
	directExcs  []direct.Exception

	forces      [][3]float64
	derivatives map[string]float64
	energy      float64
}

// New creates a context for the given declaration and box. The splitting
// coefficient and grid dimensions are taken from the Force's pinned PME
// parameters, with zeros derived from the tolerance and box.
func New(f *force.Force, box [3]float64, opt Options) (*Context, error) {
	if f.NumParticles() == 0 {
		return nil, errs.Configf("A context needs at least one particle.")
	}
	for d := 0; d < 3; d++ {
		if box[d] < 2*f.Cutoff() {
			return nil, errs.Configf("The box length %g nm along axis %d is "+
				"smaller than twice the cutoff distance %g nm.",
				box[d], d, f.Cutoff())
		}
	}
	if opt.ReplicaCount == 0 && opt.ReplicaIndex == 0 {
		opt.ReplicaCount = 1
	}
	if opt.ReplicaCount < 1 || opt.ReplicaIndex < 0 ||
		opt.ReplicaIndex >= opt.ReplicaCount {
		return nil, errs.Configf("The replica index %d is not valid for %d "+
			"replicas.", opt.ReplicaIndex, opt.ReplicaCount)
	}

	pinAlpha, pinNx, pinNy, pinNz := f.PMEParameters()
	alpha, nx, ny, nz := pinAlpha, pinNx, pinNy, pinNz
	if alpha == 0 {
		alpha = force.EwaldAlpha(f.EwaldTolerance(), f.Cutoff())
	}
	dims := [3]int{nx, ny, nz}
	for d := 0; d < 3; d++ {
		if dims[d] == 0 {
			dims[d] = force.AutoGridDimension(alpha, box[d],
				f.EwaldTolerance())
		}
	}
	nx, ny, nz = dims[0], dims[1], dims[2]

	var engine kernel.Engine
	var err error
	if opt.Parallel {
		engine, err = kernel.NewParallel(nx, ny, nz)
	} else {
		engine, err = kernel.NewReference(nx, ny, nz)
	}
	if err != nil { return nil, err }

	c := &Context{
		f:            f,
		box:          box,
		values:       params.Values{},
		resolver:     params.NewResolver(f),
		lambda:       params.NewLambda(f),
		engine:       engine,
		grid:         mesh.NewGrid(f.NumSubsets(), nx, ny, nz),
		alpha:        alpha,
		nx:           nx, ny: ny, nz: nz,
		numParticles: f.NumParticles(),
		replicaIndex: opt.ReplicaIndex,
		replicaCount: opt.ReplicaCount,
		forces:       make([][3]float64, f.NumParticles()),
		derivatives:  map[string]float64{},
	}
	c.cutoff, c.ewaldTolerance = f.Cutoff(), f.EwaldTolerance()
	c.pinAlpha = pinAlpha
	c.pinNx, c.pinNy, c.pinNz = pinNx, pinNy, pinNz
	c.exceptionsUsePeriodic = f.ExceptionsUsePeriodic()
	c.includeDirect = f.IncludeDirectSpace()
	c.snapshotStructure()
	return c, nil
}

// snapshotStructure records the frozen structural state: subset
// assignments, the active exception set, and the exclusion list.
func (c *Context) snapshotStructure() {
	c.subsets = make([]int, c.numParticles)
	for i := 0; i < c.numParticles; i++ {
		p, _ := c.f.Particle(i)
		c.subsets[i] = p.Subset
	}

	c.active = c.f.ActiveExceptions()

	c.exclusions = c.exclusions[:0]
	c.excluded = map[[2]int]bool{}
	for i := 0; i < c.f.NumExceptions(); i++ {
		e, _ := c.f.Exception(i)
		p1, p2 := e.Particle1, e.Particle2
		slice := mustSlice(c.subsets[p1], c.subsets[p2])
		c.exclusions = append(c.exclusions,
			correction.Exclusion{P1: p1, P2: p2, Slice: slice})
		if p1 > p2 {
			p1, p2 = p2, p1
		}
		c.excluded[[2]int{p1, p2}] = true
	}
}

// SetPositions sets the particle positions, in nm.
func (c *Context) SetPositions(pos [][3]float64) error {
	if len(pos) != c.numParticles {
		return errs.Consistencyf("This context holds %d particles, but %d "+
			"positions were given.", c.numParticles, len(pos))
	}
	c.pos = pos
	return nil
}

// SetParameter sets the current value of a declared global parameter.
func (c *Context) SetParameter(name string, value float64) error {
	if _, err := c.f.GlobalParameterIndex(name); err != nil { return err }
	c.values[name] = value
	return nil
}

// Parameter returns the current value of a declared global parameter.
func (c *Context) Parameter(name string) (float64, error) {
	if _, err := c.f.GlobalParameterIndex(name); err != nil { return 0, err }
	return c.values.Get(c.f, name), nil
}

// Sync pushes the Force's current numeric values into the context. The
// structure must not have drifted: a changed particle count, subset
// assignment, or active exception set is a Consistency error. So is any
// change to the cutoff, the tolerance, or the pinned PME parameters,
// because the splitting coefficient and the grid were derived from them
// at creation.
func (c *Context) Sync() error {
	if c.f.NumParticles() != c.numParticles {
		return errs.Consistencyf("The force now declares %d particles, but "+
			"this context was created with %d. Structural changes need a "+
			"new context.", c.f.NumParticles(), c.numParticles)
	}
	for i := 0; i < c.numParticles; i++ {
		p, _ := c.f.Particle(i)
		if p.Subset != c.subsets[i] {
			return errs.Consistencyf("Particle %d moved from subset %d to "+
				"subset %d after this context was created.",
				i, c.subsets[i], p.Subset)
		}
	}
	active := c.f.ActiveExceptions()
	if len(active) != len(c.active) {
		return errs.Consistencyf("The set of active exceptions changed from "+
			"%d to %d entries after this context was created.",
			len(c.active), len(active))
	}
	for i := range active {
		if active[i] != c.active[i] {
			return errs.Consistencyf("The set of active exceptions changed "+
				"after this context was created.")
		}
	}

	if c.f.Cutoff() != c.cutoff || c.f.EwaldTolerance() != c.ewaldTolerance {
		return errs.Consistencyf("The cutoff or Ewald tolerance changed "+
			"after this context was created. The splitting coefficient and "+
			"grid were derived from them, so these settings need a new "+
			"context.")
	}
	alpha, nx, ny, nz := c.f.PMEParameters()
	if alpha != c.pinAlpha || nx != c.pinNx || ny != c.pinNy || nz != c.pinNz {
		return errs.Consistencyf("The pinned PME parameters changed after "+
			"this context was created. They are frozen into the engine, so "+
			"they need a new context.")
	}

	c.exceptionsUsePeriodic = c.f.ExceptionsUsePeriodic()
	c.includeDirect = c.f.IncludeDirectSpace()
	c.resolver.Rebase()
	return nil
}

// CheckReplicaConsistency verifies that another context evaluates the
// same frozen structure, so the two can split the exception work.
func (c *Context) CheckReplicaConsistency(other *Context) error {
	if other.numParticles != c.numParticles {
		return errs.Consistencyf("The replicas hold %d and %d particles.",
			c.numParticles, other.numParticles)
	}
	for i := range c.subsets {
		if c.subsets[i] != other.subsets[i] {
			return errs.Consistencyf("The replicas assign particle %d to "+
				"subsets %d and %d.", i, c.subsets[i], other.subsets[i])
		}
	}
	if len(c.active) != len(other.active) {
		return errs.Consistencyf("The replicas hold %d and %d active "+
			"exceptions.", len(c.active), len(other.active))
	}
	for i := range c.active {
		if c.active[i] != other.active[i] {
			return errs.Consistencyf("The replicas disagree on the active "+
				"exception set.")
		}
	}
	return nil
}

// PMEParameters returns the splitting coefficient and grid dimensions in
// effect, after automatic derivation.
func (c *Context) PMEParameters() (alpha float64, nx, ny, nz int) {
	return c.alpha, c.nx, c.ny, c.nz
}

// Forces returns a copy of the forces of the last Execute call, in
// kJ/(mol nm).
func (c *Context) Forces() [][3]float64 {
	out := make([][3]float64, len(c.forces))
	copy(out, c.forces)
	return out
}

// Derivatives returns a copy of the requested parameter derivatives of
// the last Execute call.
func (c *Context) Derivatives() map[string]float64 {
	out := map[string]float64{}
	for name, x := range c.derivatives {
		out[name] = x
	}
	return out
}

// TransformCounts returns the engine's batched transform counters.
func (c *Context) TransformCounts() (forward, inverse int) {
	return c.engine.TransformCounts()
}

// replicaSpan returns this context's static share of an n-element work
// list.
func (c *Context) replicaSpan(n int) (lo, hi int) {
	return c.replicaIndex * n / c.replicaCount,
		(c.replicaIndex + 1) * n / c.replicaCount
}

func mustSlice(a, b int) int {
	if a > b {
		a, b = b, a
	}
	return b*(b+1)/2 + a
}
