package force

/* settings.go contains the PME and bookkeeping settings of a Force. */

import (
	"math"

	"github.com/craabreu/slicedpme/lib/errs"
)

// SetCutoff sets the direct-space cutoff distance in nm.
func (f *Force) SetCutoff(distance float64) error {
	if distance <= 0 {
		return errs.Configf("The cutoff distance must be positive, "+
			"but %g was given.", distance)
	}
	f.cutoff = distance
	return nil
}

// Cutoff returns the direct-space cutoff distance in nm.
func (f *Force) Cutoff() float64 { return f.cutoff }

// SetEwaldTolerance sets the Ewald error tolerance used to derive the
// splitting coefficient and the automatic grid dimensions.
func (f *Force) SetEwaldTolerance(tol float64) error {
	if tol <= 0 || tol >= 1 {
		return errs.Configf("The Ewald error tolerance must lie in (0, 1), "+
			"but %g was given.", tol)
	}
	f.ewaldTolerance = tol
	return nil
}

// EwaldTolerance returns the Ewald error tolerance.
func (f *Force) EwaldTolerance() float64 { return f.ewaldTolerance }

// SetPMEParameters pins the Ewald splitting coefficient and the grid
// dimensions. Zeros mean "derive automatically from the tolerance and
// box". Explicit dimensions must have no prime factor larger than 7.
func (f *Force) SetPMEParameters(alpha float64, nx, ny, nz int) error {
	if alpha < 0 {
		return errs.Configf("The Ewald splitting coefficient cannot be "+
			"negative, but %g was given.", alpha)
	}
	for _, n := range []int{nx, ny, nz} {
		if n < 0 {
			return errs.Configf("Grid dimensions cannot be negative, but "+
				"%d was given.", n)
		}
		if n > 0 && !LegalGridDimension(n) {
			return errs.Configf("The grid dimension %d has a prime factor "+
				"larger than 7, which the transform backend does not "+
				"support.", n)
		}
	}
	f.alpha, f.nx, f.ny, f.nz = alpha, nx, ny, nz
	return nil
}

// PMEParameters returns the pinned Ewald splitting coefficient and grid
// dimensions; zeros mean automatic.
func (f *Force) PMEParameters() (alpha float64, nx, ny, nz int) {
	return f.alpha, f.nx, f.ny, f.nz
}

// SetExceptionsUsePeriodic sets whether exception and exclusion pair
// separations are computed under minimum-image periodic boundary
// conditions.
func (f *Force) SetExceptionsUsePeriodic(periodic bool) {
	f.exceptionsUsePeriodic = periodic
}

// ExceptionsUsePeriodic reports whether exception and exclusion pair
// separations use periodic boundary conditions.
func (f *Force) ExceptionsUsePeriodic() bool { return f.exceptionsUsePeriodic }

// SetReciprocalForceGroup assigns the reciprocal-space contribution to a
// force group in [0, 31], or to -1 to share the force's own group.
func (f *Force) SetReciprocalForceGroup(group int) error {
	if group < -1 || group > MaxForceGroup {
		return errs.Configf("The force group must be between -1 and %d, "+
			"but %d was given.", MaxForceGroup, group)
	}
	f.recipForceGroup = group
	return nil
}

// ReciprocalForceGroup returns the reciprocal-space force group.
func (f *Force) ReciprocalForceGroup() int { return f.recipForceGroup }

// SetIncludeDirectSpace sets whether direct-space interactions are
// evaluated at all. Disabling it leaves only the reciprocal sum, the
// analytic corrections, and the exception terms off.
func (f *Force) SetIncludeDirectSpace(include bool) {
	f.includeDirectSpace = include
}

// IncludeDirectSpace reports whether direct-space interactions are
// evaluated.
func (f *Force) IncludeDirectSpace() bool { return f.includeDirectSpace }

// LegalGridDimension returns true if n is a positive integer whose prime
// factors are all in {2, 3, 5, 7}, the sizes the transform backend
// handles at full speed.
func LegalGridDimension(n int) bool {
	if n < 1 {
		return false
	}
	for _, p := range []int{2, 3, 5, 7} {
		for n%p == 0 {
			n /= p
		}
	}
	return n == 1
}

// NextLegalGridDimension returns the smallest legal grid dimension that
// is at least n.
func NextLegalGridDimension(n int) int {
	if n < 1 {
		n = 1
	}
	for !LegalGridDimension(n) {
		n++
	}
	return n
}

// EwaldAlpha derives the Ewald splitting coefficient, in 1/nm, that makes
// the direct-space error at the cutoff match the tolerance.
func EwaldAlpha(tol, cutoff float64) float64 {
	return math.Sqrt(-math.Log(2*tol)) / cutoff
}

// AutoGridDimension derives the grid dimension along a box axis of length
// l, in nm, from the splitting coefficient and tolerance, rounded up to
// the next legal dimension.
func AutoGridDimension(alpha, l, tol float64) int {
	n := int(math.Ceil(2 * alpha * l / (3 * math.Pow(tol, 0.2))))
	return NextLegalGridDimension(n)
}
