package mesh

/* spread.go deposits charges onto the per-subset grids and interpolates
forces back off the inverse-transformed potential grids. */

import (
	"math"
)

// cellOf returns the base cell index and fractional offset of coordinate
// x on an n-cell axis of length l, with the coordinate wrapped into the
// primary box image.
func cellOf(x, l float64, n int) (int, float64) {
	t := (x/l - math.Floor(x/l)) * float64(n)
	ti := int(t)
	// x/l fractionally below 1.0 can round t up to exactly n.
	if ti >= n {
		ti -= n
	}
	return ti, t - float64(ti)
}

// SpreadCharges deposits charges[i] onto the grid of subsets[i] for every
// particle index i in indices, or for every particle if indices is nil.
// Concurrent calls are safe as long as they cover disjoint subsets.
func SpreadCharges(
	g *Grid, pos [][3]float64, charges []float64, subsets []int,
	box [3]float64, indices []int,
) {
	var wx, wy, wz, dw [Order]float64

	spreadOne := func(i int) {
		tx, drx := cellOf(pos[i][0], box[0], g.Nx)
		ty, dry := cellOf(pos[i][1], box[1], g.Ny)
		tz, drz := cellOf(pos[i][2], box[2], g.Nz)
		Weights(drx, &wx, &dw)
		Weights(dry, &wy, &dw)
		Weights(drz, &wz, &dw)

		q := charges[i]
		grid := g.Subset(subsets[i])
		for ix := 0; ix < Order; ix++ {
			cx := tx + ix
			if cx >= g.Nx {
				cx -= g.Nx
			}
			qx := q * wx[ix]
			for iy := 0; iy < Order; iy++ {
				cy := ty + iy
				if cy >= g.Ny {
					cy -= g.Ny
				}
				qxy := qx * wy[iy]
				base := (cx*g.Ny + cy) * g.Nz
				for iz := 0; iz < Order; iz++ {
					cz := tz + iz
					if cz >= g.Nz {
						cz -= g.Nz
					}
					grid[base+cz] += complex(qxy*wz[iz], 0)
				}
			}
		}
	}

	if indices == nil {
		for i := range pos {
			spreadOne(i)
		}
	} else {
		for _, i := range indices {
			spreadOne(i)
		}
	}
}

// InterpolateForces reads the inverse-transformed potential grids and
// subtracts q*grad(phi) from the force of every particle in [lo, hi).
// Disjoint particle ranges may run concurrently.
func InterpolateForces(
	g *Grid, pos [][3]float64, charges []float64, subsets []int,
	box [3]float64, forces [][3]float64, lo, hi int,
) {
	var wx, wy, wz, dwx, dwy, dwz [Order]float64
	scaleX := float64(g.Nx) / box[0]
	scaleY := float64(g.Ny) / box[1]
	scaleZ := float64(g.Nz) / box[2]

	for i := lo; i < hi; i++ {
		tx, drx := cellOf(pos[i][0], box[0], g.Nx)
		ty, dry := cellOf(pos[i][1], box[1], g.Ny)
		tz, drz := cellOf(pos[i][2], box[2], g.Nz)
		Weights(drx, &wx, &dwx)
		Weights(dry, &wy, &dwy)
		Weights(drz, &wz, &dwz)

		grid := g.Subset(subsets[i])
		gx, gy, gz := 0.0, 0.0, 0.0
		for ix := 0; ix < Order; ix++ {
			cx := tx + ix
			if cx >= g.Nx {
				cx -= g.Nx
			}
			for iy := 0; iy < Order; iy++ {
				cy := ty + iy
				if cy >= g.Ny {
					cy -= g.Ny
				}
				base := (cx*g.Ny + cy) * g.Nz
				for iz := 0; iz < Order; iz++ {
					cz := tz + iz
					if cz >= g.Nz {
						cz -= g.Nz
					}
					phi := real(grid[base+cz])
					gx += dwx[ix] * wy[iy] * wz[iz] * phi
					gy += wx[ix] * dwy[iy] * wz[iz] * phi
					gz += wx[ix] * wy[iy] * dwz[iz] * phi
				}
			}
		}

		q := charges[i]
		forces[i][0] -= q * gx * scaleX
		forces[i][1] -= q * gy * scaleY
		forces[i][2] -= q * gz * scaleZ
	}
}
