/*package force contains the declaration and update API of a sliced
nonbonded force: particle subsets, exceptions, global parameters, scaling
parameters bound to slices, linear parameter offsets, and the PME
settings. A Force is built once before simulation; after a context has
been created from it, only numeric values may change, never the counts of
its structural entities.*/
package force

import (
	"github.com/craabreu/slicedpme/lib/errs"
)

const (
	// DefaultCutoff is the cutoff distance, in nm, of a freshly created
	// Force.
	DefaultCutoff = 1.0
	// DefaultEwaldTolerance is the Ewald error tolerance of a freshly
	// created Force.
	DefaultEwaldTolerance = 5e-4
	// MaxForceGroup is the largest valid force group index.
	MaxForceGroup = 31
	// CoulombConstant is 1/(4 pi eps0) in kJ nm / (mol e^2).
	CoulombConstant = 138.935456
)

// Particle is one charged (and optionally Lennard-Jones) site. Sigma and
// Epsilon may be zero for charge-only sites.
type Particle struct {
	Charge, Sigma, Epsilon float64
	Subset                 int
}

// Exception overrides the interaction parameters of one particle pair.
// The pair is removed from the standard pairwise sums and its reciprocal
// contribution is corrected analytically; the overriding interaction is
// evaluated in direct space instead.
type Exception struct {
	Particle1, Particle2       int
	ChargeProd, Sigma, Epsilon float64
}

// GlobalParameter is a named external scalar with a default value.
type GlobalParameter struct {
	Name    string
	Default float64
}

// ScalingParameter binds a global parameter to one slice as that slice's
// interaction weight. Coulomb and LJ select which channels the parameter
// governs.
type ScalingParameter struct {
	Name             string
	Subset1, Subset2 int
	Coulomb, LJ      bool
}

// ParticleOffset adds coeff*value(Parameter) to a particle's base charge,
// sigma, and epsilon.
type ParticleOffset struct {
	Parameter                            string
	Particle                             int
	ChargeScale, SigmaScale, EpsilonScale float64
}

// ExceptionOffset adds coeff*value(Parameter) to an exception's base
// chargeProd, sigma, and epsilon.
type ExceptionOffset struct {
	Parameter                                string
	Exception                                int
	ChargeProdScale, SigmaScale, EpsilonScale float64
}

// Force is the full declaration of a sliced nonbonded interaction. The
// zero value is not usable: create one with New.
type Force struct {
	numSubsets int

	cutoff, ewaldTolerance float64
	alpha                  float64
	nx, ny, nz             int
	exceptionsUsePeriodic  bool
	recipForceGroup        int
	includeDirectSpace     bool

	particles        []Particle
	exceptions       []Exception
	exceptionMap     map[[2]int]int
	globals          []GlobalParameter
	scaling          []ScalingParameter
	particleOffsets  []ParticleOffset
	exceptionOffsets []ExceptionOffset
	derivatives      []string

	// sliceCoulomb and sliceLJ give, per slice, the index into scaling of
	// the parameter governing that channel, or -1.
	sliceCoulomb, sliceLJ []int
}

// New creates a Force with the given number of particle subsets. The
// subset count is fixed for the lifetime of the Force.
func New(numSubsets int) (*Force, error) {
	if numSubsets < 1 {
		return nil, errs.Configf("A sliced force needs at least one subset, "+
			"but %d were requested.", numSubsets)
	}

	n := NumSlices(numSubsets)
	f := &Force{
		numSubsets:         numSubsets,
		cutoff:             DefaultCutoff,
		ewaldTolerance:     DefaultEwaldTolerance,
		recipForceGroup:    -1,
		includeDirectSpace: true,
		exceptionMap:       map[[2]int]int{},
		sliceCoulomb:       make([]int, n),
		sliceLJ:            make([]int, n),
	}
	for i := 0; i < n; i++ {
		f.sliceCoulomb[i] = -1
		f.sliceLJ[i] = -1
	}
	return f, nil
}

// NumSubsets returns the subset count the Force was created with.
func (f *Force) NumSubsets() int { return f.numSubsets }

// NumSlices returns the number of subset pairs, numSubsets*(numSubsets+1)/2.
func (f *Force) NumSlices() int { return NumSlices(f.numSubsets) }

// AddParticle appends a particle and returns its index.
func (f *Force) AddParticle(charge, sigma, epsilon float64, subset int) (int, error) {
	if subset < 0 || subset >= f.numSubsets {
		return -1, errs.Configf("The subset index %d is out of range: this "+
			"system was declared with %d subsets.", subset, f.numSubsets)
	}
	if sigma < 0 || epsilon < 0 {
		return -1, errs.Configf("Particle %d was given sigma = %g and "+
			"epsilon = %g, but Lennard-Jones parameters cannot be negative.",
			len(f.particles), sigma, epsilon)
	}
	f.particles = append(f.particles, Particle{charge, sigma, epsilon, subset})
	return len(f.particles) - 1, nil
}

// NumParticles returns the number of declared particles.
func (f *Force) NumParticles() int { return len(f.particles) }

// Particle returns a copy of the particle at the given index.
func (f *Force) Particle(index int) (Particle, error) {
	if index < 0 || index >= len(f.particles) {
		return Particle{}, errs.Configf("The particle index %d is out of "+
			"range: only %d particles have been declared.",
			index, len(f.particles))
	}
	return f.particles[index], nil
}

// SetParticle updates the numeric fields of a particle. The subset
// assignment may also change, but only before a context is synced.
func (f *Force) SetParticle(index int, p Particle) error {
	if index < 0 || index >= len(f.particles) {
		return errs.Configf("The particle index %d is out of range: only "+
			"%d particles have been declared.", index, len(f.particles))
	}
	if p.Subset < 0 || p.Subset >= f.numSubsets {
		return errs.Configf("The subset index %d is out of range: this "+
			"system was declared with %d subsets.", p.Subset, f.numSubsets)
	}
	if p.Sigma < 0 || p.Epsilon < 0 {
		return errs.Configf("Particle %d was given sigma = %g and "+
			"epsilon = %g, but Lennard-Jones parameters cannot be negative.",
			index, p.Sigma, p.Epsilon)
	}
	f.particles[index] = p
	return nil
}

// AddException adds an exception for a particle pair and returns its
// index. If an exception already exists for the pair, replace selects
// between overwriting it and returning a Configuration error.
func (f *Force) AddException(
	p1, p2 int, chargeProd, sigma, epsilon float64, replace bool,
) (int, error) {
	if err := f.checkPair(p1, p2); err != nil { return -1, err }

	exc := Exception{p1, p2, chargeProd, sigma, epsilon}
	if prev, ok := f.exceptionPair(p1, p2); ok {
		if !replace {
			return -1, errs.Configf("There is already an exception for "+
				"particles %d and %d.", p1, p2)
		}
		delete(f.exceptionMap, [2]int{f.exceptions[prev].Particle1,
			f.exceptions[prev].Particle2})
		f.exceptions[prev] = exc
		f.exceptionMap[[2]int{p1, p2}] = prev
		return prev, nil
	}

	f.exceptions = append(f.exceptions, exc)
	f.exceptionMap[[2]int{p1, p2}] = len(f.exceptions) - 1
	return len(f.exceptions) - 1, nil
}

// NumExceptions returns the number of declared exceptions.
func (f *Force) NumExceptions() int { return len(f.exceptions) }

// Exception returns a copy of the exception at the given index.
func (f *Force) Exception(index int) (Exception, error) {
	if index < 0 || index >= len(f.exceptions) {
		return Exception{}, errs.Configf("The exception index %d is out of "+
			"range: only %d exceptions have been declared.",
			index, len(f.exceptions))
	}
	return f.exceptions[index], nil
}

// SetException updates the numeric fields of an exception. The particle
// pair itself cannot change.
func (f *Force) SetException(index int, chargeProd, sigma, epsilon float64) error {
	if index < 0 || index >= len(f.exceptions) {
		return errs.Configf("The exception index %d is out of range: only "+
			"%d exceptions have been declared.", index, len(f.exceptions))
	}
	f.exceptions[index].ChargeProd = chargeProd
	f.exceptions[index].Sigma = sigma
	f.exceptions[index].Epsilon = epsilon
	return nil
}

// ActiveExceptions returns the indices of exceptions that contribute an
// overriding direct-space interaction: those with non-zero chargeProd or
// epsilon, or with at least one bound offset. The active set is frozen
// once a context has been created; changing it is a Consistency error at
// sync time.
func (f *Force) ActiveExceptions() []int {
	withOffsets := map[int]bool{}
	for i := range f.exceptionOffsets {
		withOffsets[f.exceptionOffsets[i].Exception] = true
	}

	active := []int{}
	for i := range f.exceptions {
		e := &f.exceptions[i]
		if e.ChargeProd != 0 || e.Epsilon != 0 || withOffsets[i] {
			active = append(active, i)
		}
	}
	return active
}

func (f *Force) checkPair(p1, p2 int) error {
	n := len(f.particles)
	if p1 < 0 || p1 >= n || p2 < 0 || p2 >= n {
		return errs.Configf("The particle pair (%d, %d) is invalid: only "+
			"%d particles have been declared.", p1, p2, n)
	}
	if p1 == p2 {
		return errs.Configf("An exception cannot pair particle %d with "+
			"itself.", p1)
	}
	return nil
}

func (f *Force) exceptionPair(p1, p2 int) (int, bool) {
	if i, ok := f.exceptionMap[[2]int{p1, p2}]; ok {
		return i, true
	}
	i, ok := f.exceptionMap[[2]int{p2, p1}]
	return i, ok
}

// CreateExceptionsFromBonds derives the standard exclusion pattern from a
// covalent bond list: particles separated by one or two bonds are fully
// excluded (chargeProd and epsilon zero), and 1-4 pairs get an exception
// with their charge product and combined Lennard-Jones parameters scaled
// by coulomb14 and lj14.
func (f *Force) CreateExceptionsFromBonds(
	bonds [][2]int, coulomb14, lj14 float64,
) error {
	n := len(f.particles)
	for _, b := range bonds {
		if b[0] < 0 || b[1] < 0 || b[0] >= n || b[1] >= n {
			return errs.Configf("The bond (%d, %d) refers to a particle "+
				"index outside [0, %d).", b[0], b[1], n)
		}
	}

	bonded12 := make([][]int, n)
	for _, b := range bonds {
		bonded12[b[0]] = append(bonded12[b[0]], b[1])
		bonded12[b[1]] = append(bonded12[b[1]], b[0])
	}

	// exclusions[i] holds everything within three bonds of i, bonded13[i]
	// everything within two.
	exclusions := make([]map[int]bool, n)
	bonded13 := make([]map[int]bool, n)
	for i := 0; i < n; i++ {
		exclusions[i] = map[int]bool{}
		bonded13[i] = map[int]bool{}
		addNeighborsToSet(bonded12, exclusions[i], i, i, 2)
		addNeighborsToSet(bonded12, bonded13[i], i, i, 1)
	}

	for i := 0; i < n; i++ {
		for j := range exclusions[i] {
			if j >= i { continue }
			if bonded13[i][j] {
				// Fully excluded 1-2 or 1-3 pair.
				_, err := f.AddException(j, i, 0, 1, 0, true)
				if err != nil { return err }
			} else {
				// Scaled 1-4 pair.
				pi, pj := f.particles[i], f.particles[j]
				chargeProd := coulomb14 * pi.Charge * pj.Charge
				sigma := 0.5 * (pi.Sigma + pj.Sigma)
				epsilon := lj14 * geometricMean(pi.Epsilon, pj.Epsilon)
				_, err := f.AddException(j, i, chargeProd, sigma, epsilon, true)
				if err != nil { return err }
			}
		}
	}
	return nil
}

// addNeighborsToSet inserts into set every particle reachable from
// 'from' within level+1 bonds, excluding base itself.
func addNeighborsToSet(bonded12 [][]int, set map[int]bool, base, from, level int) {
	for _, i := range bonded12[from] {
		if i != base {
			set[i] = true
		}
		if level > 0 {
			addNeighborsToSet(bonded12, set, base, i, level-1)
		}
	}
}
