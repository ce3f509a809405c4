package kernel

/* convolve.go is the shared per-point machinery of the slice
convolution: the Ewald kernel eterm(m), the pairwise slice energies, and
the weighted aggregate grids fed to the inverse transform. */

import (
	"math"

	"github.com/craabreu/slicedpme/lib/errs"
	"github.com/craabreu/slicedpme/lib/fft"
	"github.com/craabreu/slicedpme/lib/force"
	"github.com/craabreu/slicedpme/lib/mesh"
)

// core holds what both engines share: the transform backend and the
// cached B-spline moduli of the grid dimensions.
type core struct {
	transform  fft.Transform
	nx, ny, nz int
	bx, by, bz []float64
}

func newCore(nx, ny, nz int) (core, error) {
	tr, err := fft.NewGonum(nx, ny, nz)
	if err != nil { return core{}, err }
	return core{
		transform: tr, nx: nx, ny: ny, nz: nz,
		bx: mesh.Moduli(nx), by: mesh.Moduli(ny), bz: mesh.Moduli(nz),
	}, nil
}

func (c *core) checkConvolveArgs(g *mesh.Grid, weights []float64) error {
	if g.Nx != c.nx || g.Ny != c.ny || g.Nz != c.nz {
		return errs.Backendf("The engine was built for a %d x %d x %d grid, "+
			"but a %d x %d x %d grid was given.",
			c.nx, c.ny, c.nz, g.Nx, g.Ny, g.Nz)
	}
	if len(weights) != force.NumSlices(g.Subsets) {
		return errs.Backendf("A %d-subset stack needs %d slice weights, "+
			"but %d were given.", g.Subsets,
			force.NumSlices(g.Subsets), len(weights))
	}
	return nil
}

// kahanAdd adds x to sum[i] with compensation comp[i].
func kahanAdd(sum, comp []float64, i int, x float64) {
	y := x - comp[i]
	t := sum[i] + y
	comp[i] = (t - sum[i]) - y
	sum[i] = t
}

// convolveRange processes the flattened cell range [lo, hi) of one
// subset's grid extent, accumulating the unweighted slice energies into
// (sum, comp) and, if buildAggregate, rewriting every subset's value at
// each cell. Disjoint cell ranges may run concurrently.
func (c *core) convolveRange(
	g *mesh.Grid, box [3]float64, alpha float64, weights []float64,
	buildAggregate bool, lo, hi int, sum, comp []float64,
) {
	nSubsets := g.Subsets
	cells := c.nx * c.ny * c.nz
	volume := box[0] * box[1] * box[2]
	expFactor := math.Pi * math.Pi / (alpha * alpha)
	f := make([]complex128, nSubsets)
	out := make([]complex128, nSubsets)

	for p := lo; p < hi; p++ {
		ix := p / (c.ny * c.nz)
		iy := p / c.nz % c.ny
		iz := p % c.nz
		if ix == 0 && iy == 0 && iz == 0 {
			// The k = 0 term is excluded under tinfoil boundary conditions.
			if buildAggregate {
				for s := 0; s < nSubsets; s++ {
					g.Data[s*cells] = 0
				}
			}
			continue
		}

		mx, my, mz := ix, iy, iz
		if mx > c.nx/2 {
			mx -= c.nx
		}
		if my > c.ny/2 {
			my -= c.ny
		}
		if mz > c.nz/2 {
			mz -= c.nz
		}
		mhx := float64(mx) / box[0]
		mhy := float64(my) / box[1]
		mhz := float64(mz) / box[2]
		m2 := mhx*mhx + mhy*mhy + mhz*mhz

		denom := math.Pi * volume * m2 * c.bx[ix] * c.by[iy] * c.bz[iz]
		eterm := force.CoulombConstant * math.Exp(-expFactor*m2) / denom

		for s := 0; s < nSubsets; s++ {
			f[s] = g.Data[s*cells+p]
		}

		for j := 0; j < nSubsets; j++ {
			for i := 0; i <= j; i++ {
				prod := real(f[i])*real(f[j]) + imag(f[i])*imag(f[j])
				e := eterm * prod
				if i == j {
					e *= 0.5
				}
				kahanAdd(sum, comp, j*(j+1)/2+i, e)
			}
		}

		if buildAggregate {
			for i := 0; i < nSubsets; i++ {
				acc := complex(0, 0)
				for j := 0; j < nSubsets; j++ {
					a, b := i, j
					if a > b {
						a, b = b, a
					}
					w := weights[b*(b+1)/2+a]
					acc += complex(w, 0) * f[j]
				}
				out[i] = complex(eterm, 0) * acc
			}
			for i := 0; i < nSubsets; i++ {
				g.Data[i*cells+p] = out[i]
			}
		}
	}
}

// selfEnergies returns the unweighted self energy of every subset.
func selfEnergies(
	charges []float64, subsets []int, numSubsets int, alpha float64,
) []float64 {
	factor := -force.CoulombConstant * alpha / math.Sqrt(math.Pi)
	out := make([]float64, numSubsets)
	for i, q := range charges {
		out[subsets[i]] += factor * q * q
	}
	return out
}
