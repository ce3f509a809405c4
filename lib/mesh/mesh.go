/*package mesh contains the charge-mesh machinery of the reciprocal-space
sum: stacked per-subset complex grids, cardinal B-spline weights and
derivatives, the B-spline moduli that normalize the convolution, charge
spreading, and force interpolation.

The same grid memory is used for the charge mesh, its transform, and the
inverse-transformed potential mesh, so one allocation serves the whole
reciprocal pipeline.*/
package mesh

// Grid holds one complex scalar field per particle subset, all stored in
// a single backing array. The field of subset s occupies the contiguous
// block g.Subset(s), laid out with z fastest.
type Grid struct {
	Subsets, Nx, Ny, Nz int
	Data                []complex128
}

// NewGrid allocates a cleared grid stack.
func NewGrid(subsets, nx, ny, nz int) *Grid {
	return &Grid{
		Subsets: subsets, Nx: nx, Ny: ny, Nz: nz,
		Data: make([]complex128, subsets*nx*ny*nz),
	}
}

// Index returns the backing-array index of cell (ix, iy, iz) of subset s.
func (g *Grid) Index(s, ix, iy, iz int) int {
	return ((s*g.Nx+ix)*g.Ny+iy)*g.Nz + iz
}

// Subset returns the block of cells belonging to subset s.
func (g *Grid) Subset(s int) []complex128 {
	n := g.Nx * g.Ny * g.Nz
	return g.Data[s*n : (s+1)*n]
}

// Clear zeroes every cell.
func (g *Grid) Clear() {
	for i := range g.Data {
		g.Data[i] = 0
	}
}
