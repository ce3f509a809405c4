/*package fft defines the transform contract of the reciprocal-space sum
and implements it on gonum's complex FFT. One Forward call transforms the
charge grids of every subset at once, and one Inverse call brings every
potential grid back, so an evaluation costs a fixed number of batched
transforms no matter how many subsets there are.

The transforms are unnormalized: Inverse(Forward(x)) multiplies x by the
number of grid cells. The convolution kernel absorbs that factor.*/
package fft

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/craabreu/slicedpme/lib/errs"
	"github.com/craabreu/slicedpme/lib/mesh"
	"github.com/craabreu/slicedpme/lib/thread"
)

// Transform is a batched 3D transform over a grid stack. Implementations
// count their batched invocations so callers can audit the transform
// budget of an evaluation.
type Transform interface {
	// Forward replaces every subset's grid with its unnormalized forward
	// transform, in place.
	Forward(g *mesh.Grid) error
	// Inverse replaces every subset's grid with its unnormalized inverse
	// transform, in place.
	Inverse(g *mesh.Grid) error
	// Counts returns the number of Forward and Inverse calls so far.
	Counts() (forward, inverse int)
}

// planSet holds the per-axis plans and scratch line of one worker. gonum's
// CmplxFFT is not safe for concurrent use, so every worker gets its own.
type planSet struct {
	x, y, z *fourier.CmplxFFT
	line    []complex128
}

type gonumTransform struct {
	nx, ny, nz       int
	plans            []*planSet
	forward, inverse int
}

// NewGonum creates a Transform for nx*ny*nz grids, backed by
// gonum.org/v1/gonum/dsp/fourier. Worker plan sets are grown on demand to
// match the current thread count.
func NewGonum(nx, ny, nz int) (Transform, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, errs.Backendf("The transform backend cannot plan a "+
			"%d x %d x %d grid.", nx, ny, nz)
	}
	t := &gonumTransform{nx: nx, ny: ny, nz: nz}
	t.ensurePlans(thread.N())
	return t, nil
}

func (t *gonumTransform) ensurePlans(n int) {
	for len(t.plans) < n {
		maxDim := t.nx
		if t.ny > maxDim {
			maxDim = t.ny
		}
		if t.nz > maxDim {
			maxDim = t.nz
		}
		t.plans = append(t.plans, &planSet{
			x:    fourier.NewCmplxFFT(t.nx),
			y:    fourier.NewCmplxFFT(t.ny),
			z:    fourier.NewCmplxFFT(t.nz),
			line: make([]complex128, maxDim),
		})
	}
}

func (t *gonumTransform) Forward(g *mesh.Grid) error {
	if err := t.check(g); err != nil { return err }
	t.transform(g, true)
	t.forward++
	return nil
}

func (t *gonumTransform) Inverse(g *mesh.Grid) error {
	if err := t.check(g); err != nil { return err }
	t.transform(g, false)
	t.inverse++
	return nil
}

func (t *gonumTransform) Counts() (forward, inverse int) {
	return t.forward, t.inverse
}

func (t *gonumTransform) check(g *mesh.Grid) error {
	if g.Nx != t.nx || g.Ny != t.ny || g.Nz != t.nz {
		return errs.Backendf("The transform was planned for a %d x %d x %d "+
			"grid, but a %d x %d x %d grid was given.",
			t.nx, t.ny, t.nz, g.Nx, g.Ny, g.Nz)
	}
	return nil
}

// transform runs the three axis passes over every subset. Lines are
// independent, so each pass parallelizes over the full stack of lines.
func (t *gonumTransform) transform(g *mesh.Grid, forward bool) {
	t.ensurePlans(thread.N())
	nx, ny, nz := t.nx, t.ny, t.nz

	// z pass: contiguous lines.
	thread.Split(g.Subsets*nx*ny, func(worker, lo, hi int) {
		p := t.plans[worker]
		for line := lo; line < hi; line++ {
			seq := g.Data[line*nz : (line+1)*nz]
			apply(p.z, seq, forward)
		}
	})

	// y pass: stride nz within an (x, z) plane of one subset.
	thread.Split(g.Subsets*nx*nz, func(worker, lo, hi int) {
		p := t.plans[worker]
		for line := lo; line < hi; line++ {
			sx, z := line/nz, line%nz
			base := sx*ny*nz + z
			gatherApplyScatter(p.y, g.Data, base, nz, ny, p.line, forward)
		}
	})

	// x pass: stride ny*nz within one subset.
	thread.Split(g.Subsets*ny*nz, func(worker, lo, hi int) {
		p := t.plans[worker]
		for line := lo; line < hi; line++ {
			s, yz := line/(ny*nz), line%(ny*nz)
			base := s*nx*ny*nz + yz
			gatherApplyScatter(p.x, g.Data, base, ny*nz, nx, p.line, forward)
		}
	})
}

func apply(p *fourier.CmplxFFT, seq []complex128, forward bool) {
	if forward {
		p.Coefficients(seq, seq)
	} else {
		p.Sequence(seq, seq)
	}
}

func gatherApplyScatter(
	p *fourier.CmplxFFT, data []complex128, base, stride, n int,
	line []complex128, forward bool,
) {
	for i := 0; i < n; i++ {
		line[i] = data[base+i*stride]
	}
	apply(p, line[:n], forward)
	for i := 0; i < n; i++ {
		data[base+i*stride] = line[i]
	}
}
