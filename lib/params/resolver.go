package params

/* resolver.go computes effective per-particle and per-exception
parameters: effective = base + sum over bound offsets of
coefficient*value(parameter). */

import (
	"github.com/craabreu/slicedpme/lib/force"
)

// Resolver caches effective per-particle and per-exception parameters.
// The exported arrays are valid after the first call to Update and are
// rewritten in place on later calls; they must not be read concurrently
// with Update.
type Resolver struct {
	f *force.Force

	// Effective per-particle values, indexed by particle.
	Charges, Sigmas, Epsilons []float64
	// Effective per-exception values, indexed by exception.
	ExcChargeProds, ExcSigmas, ExcEpsilons []float64

	// names lists every parameter referenced by at least one offset;
	// cached holds the last observed value of each.
	names  []string
	cached []float64
	first  bool

	// Offsets grouped by target index, so a resolve pass is one linear
	// sweep per target.
	particleOffsets  [][]boundOffset
	exceptionOffsets [][]boundOffset
}

// NewResolver creates a Resolver for a fully declared force. Offsets are
// grouped by target here, once; Update is then O(particles + exceptions +
// offsets) per call.
func NewResolver(f *force.Force) *Resolver {
	r := &Resolver{
		f:                f,
		Charges:          make([]float64, f.NumParticles()),
		Sigmas:           make([]float64, f.NumParticles()),
		Epsilons:         make([]float64, f.NumParticles()),
		ExcChargeProds:   make([]float64, f.NumExceptions()),
		ExcSigmas:        make([]float64, f.NumExceptions()),
		ExcEpsilons:      make([]float64, f.NumExceptions()),
		first:            true,
		particleOffsets:  make([][]boundOffset, f.NumParticles()),
		exceptionOffsets: make([][]boundOffset, f.NumExceptions()),
	}

	for i := 0; i < f.NumParticleOffsets(); i++ {
		o, _ := f.ParticleOffset(i)
		r.particleOffsets[o.Particle] = append(r.particleOffsets[o.Particle],
			boundOffset{r.paramIndex(o.Parameter), o.ChargeScale,
				o.SigmaScale, o.EpsilonScale})
	}
	for i := 0; i < f.NumExceptionOffsets(); i++ {
		o, _ := f.ExceptionOffset(i)
		r.exceptionOffsets[o.Exception] = append(r.exceptionOffsets[o.Exception],
			boundOffset{r.paramIndex(o.Parameter), o.ChargeProdScale,
				o.SigmaScale, o.EpsilonScale})
	}

	r.cached = make([]float64, len(r.names))
	return r
}

// paramIndex interns a parameter name into the observed list.
func (r *Resolver) paramIndex(name string) int {
	for i := range r.names {
		if r.names[i] == name {
			return i
		}
	}
	r.names = append(r.names, name)
	return len(r.names) - 1
}

// Update observes the current parameter values and, if any bound value
// differs from the cached one (or this is the first call, or Rebase was
// called), recomputes every effective value. It returns true if the
// effective values were recomputed.
func (r *Resolver) Update(v Values) bool {
	changed := r.first
	for i, name := range r.names {
		x := v.Get(r.f, name)
		if x != r.cached[i] {
			r.cached[i] = x
			changed = true
		}
	}
	if !changed {
		return false
	}
	r.first = false

	for i := 0; i < r.f.NumParticles(); i++ {
		p, _ := r.f.Particle(i)
		q, sig, eps := p.Charge, p.Sigma, p.Epsilon
		for _, o := range r.particleOffsets[i] {
			x := r.cached[o.param]
			q += o.q * x
			sig += o.sig * x
			eps += o.eps * x
		}
		r.Charges[i], r.Sigmas[i], r.Epsilons[i] = q, sig, eps
	}

	for i := 0; i < r.f.NumExceptions(); i++ {
		e, _ := r.f.Exception(i)
		q, sig, eps := e.ChargeProd, e.Sigma, e.Epsilon
		for _, o := range r.exceptionOffsets[i] {
			x := r.cached[o.param]
			q += o.q * x
			sig += o.sig * x
			eps += o.eps * x
		}
		r.ExcChargeProds[i], r.ExcSigmas[i], r.ExcEpsilons[i] = q, sig, eps
	}

	return true
}

// Rebase forces the next Update to recompute even if no parameter value
// changed. Contexts call this after a sync pushes new base values.
func (r *Resolver) Rebase() {
	r.first = true
}
