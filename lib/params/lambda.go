package params

/* lambda.go maps scaling-parameter bindings to per-slice weight vectors
and accumulates requested energy derivatives. */

import (
	"github.com/craabreu/slicedpme/lib/force"
)

// Lambda caches the per-slice (Coulomb, LJ) weight vectors. Slices with
// no bound scaling parameter keep weight 1 on both channels. The exported
// arrays are rewritten in place by Update and must not be read
// concurrently with it.
type Lambda struct {
	f *force.Force

	// Coulomb and LJ hold the current weight of each slice's two
	// channels, indexed by slice.
	Coulomb, LJ []float64

	// names lists the distinct scaling parameter names; cached holds the
	// last observed value of each.
	names  []string
	cached []float64
	first  bool

	// sliceCoulomb and sliceLJ give, per slice, the index into names of
	// the governing parameter, or -1.
	sliceCoulomb, sliceLJ []int

	derivatives []string
}

// NewLambda creates a Lambda for a fully declared force.
func NewLambda(f *force.Force) *Lambda {
	n := f.NumSlices()
	l := &Lambda{
		f:            f,
		Coulomb:      make([]float64, n),
		LJ:           make([]float64, n),
		first:        true,
		sliceCoulomb: make([]int, n),
		sliceLJ:      make([]int, n),
		derivatives:  f.ScalingParameterDerivatives(),
	}
	for i := 0; i < n; i++ {
		l.Coulomb[i], l.LJ[i] = 1, 1
		l.sliceCoulomb[i], l.sliceLJ[i] = -1, -1
	}

	coulomb, lj := f.SliceScalingParameters()
	for slice := 0; slice < n; slice++ {
		if coulomb[slice] != -1 {
			p, _ := f.ScalingParameter(coulomb[slice])
			l.sliceCoulomb[slice] = l.nameIndex(p.Name)
		}
		if lj[slice] != -1 {
			p, _ := f.ScalingParameter(lj[slice])
			l.sliceLJ[slice] = l.nameIndex(p.Name)
		}
	}
	l.cached = make([]float64, len(l.names))
	return l
}

func (l *Lambda) nameIndex(name string) int {
	for i := range l.names {
		if l.names[i] == name {
			return i
		}
	}
	l.names = append(l.names, name)
	return len(l.names) - 1
}

// Update observes the current scaling parameter values and recomputes the
// weight vectors if any changed. It returns true if the weights were
// recomputed, which also means weight-dependent caches are stale.
func (l *Lambda) Update(v Values) bool {
	changed := l.first
	for i, name := range l.names {
		x := v.Get(l.f, name)
		if x != l.cached[i] {
			l.cached[i] = x
			changed = true
		}
	}
	if !changed {
		return false
	}
	l.first = false

	for slice := range l.Coulomb {
		if i := l.sliceCoulomb[slice]; i != -1 {
			l.Coulomb[slice] = l.cached[i]
		}
		if i := l.sliceLJ[slice]; i != -1 {
			l.LJ[slice] = l.cached[i]
		}
	}
	return true
}

// AddDerivatives adds, for every tracked scaling parameter, the sum of
// the unweighted energies of the slice channels that parameter governs:
// dE/dlambda for a linearly scaled channel is the channel's unweighted
// energy. coulombEnergies and ljEnergies are indexed by slice.
func (l *Lambda) AddDerivatives(
	dst map[string]float64, coulombEnergies, ljEnergies []float64,
) {
	for _, name := range l.derivatives {
		i := -1
		for j := range l.names {
			if l.names[j] == name {
				i = j
				break
			}
		}
		if i == -1 {
			continue
		}
		d := dst[name]
		for slice := range coulombEnergies {
			if l.sliceCoulomb[slice] == i {
				d += coulombEnergies[slice]
			}
			if l.sliceLJ[slice] == i {
				d += ljEnergies[slice]
			}
		}
		dst[name] = d
	}
}

// Tracked returns the names of the parameters with requested derivatives.
func (l *Lambda) Tracked() []string {
	out := make([]string, len(l.derivatives))
	copy(out, l.derivatives)
	return out
}
