/*package params resolves effective interaction parameters and per-slice
weights from the current values of a force's global parameters.

The two types here are caches, not owners: a Resolver turns base particle
and exception values plus linear offsets into effective values, and a
Lambda turns scaling-parameter bindings into per-slice (Coulomb, LJ)
weight vectors. Both compare observed parameter values against what they
last saw and report whether anything changed, so callers know when
dependent caches (self energies, exclusion charge products) are stale.
*/
package params

import (
	"github.com/craabreu/slicedpme/lib/force"
)

// Values holds the current external value of each global parameter,
// keyed by name. It is passed explicitly into every evaluation; there is
// no ambient global state. Parameters absent from the map take their
// declared defaults.
type Values map[string]float64

// Get returns the current value of the named parameter, falling back to
// its declared default.
func (v Values) Get(f *force.Force, name string) float64 {
	if x, ok := v[name]; ok {
		return x
	}
	i, err := f.GlobalParameterIndex(name)
	if err != nil {
		// Names reaching this point were validated at declaration time.
		panic("internal error: unvalidated parameter name '" + name + "'")
	}
	p, _ := f.GlobalParameter(i)
	return p.Default
}

// boundOffset is one offset pre-resolved to an index into the observed
// parameter list.
type boundOffset struct {
	param       int
	q, sig, eps float64
}
