package mesh

/* bspline.go computes the order-5 cardinal B-spline weights that smear a
point charge over its stencil, their derivatives, and the moduli of the
spline's discrete Fourier transform. */

import (
	"math"
)

// Order is the B-spline interpolation order. Each charge is spread over
// Order cells along each axis.
const Order = 5

// Weights fills w with the B-spline values of a particle at fractional
// grid offset dr in [0, 1) and dw with their derivatives with respect to
// dr. w[k] is the weight of the cell k steps above the particle's base
// cell.
func Weights(dr float64, w, dw *[Order]float64) {
	w[Order-1] = 0
	w[1] = dr
	w[0] = 1 - dr
	for j := 3; j < Order; j++ {
		div := 1 / float64(j-1)
		w[j-1] = div * dr * w[j-2]
		for k := 1; k <= j-2; k++ {
			w[j-k-1] = div * ((dr+float64(k))*w[j-k-2] +
				(float64(j-k)-dr)*w[j-k-1])
		}
		w[0] = div * (1 - dr) * w[0]
	}

	// The derivative of an order-p spline is a difference of order-(p-1)
	// splines, so differentiate before the last recursion step.
	dw[0] = -w[0]
	for j := 1; j < Order; j++ {
		dw[j] = w[j-1] - w[j]
	}

	div := 1 / float64(Order-1)
	w[Order-1] = div * dr * w[Order-2]
	for k := 1; k <= Order-2; k++ {
		w[Order-k-1] = div * ((dr+float64(k))*w[Order-k-2] +
			(float64(Order-k)-dr)*w[Order-k-1])
	}
	w[0] = div * (1 - dr) * w[0]
}

// Moduli returns |B(k)|^2 for k = 0, ..., n-1, where B is the discrete
// Fourier transform of the spline sampled at the grid points. Values that
// underflow the spline's spectral support are replaced by the average of
// their neighbors so the convolution never divides by zero.
func Moduli(n int) []float64 {
	var w, dw [Order]float64
	Weights(0, &w, &dw)

	m := make([]float64, n)
	for k := 0; k < n; k++ {
		sumReal, sumImag := 0.0, 0.0
		for j := 0; j < Order; j++ {
			arg := 2 * math.Pi * float64(k) * float64(j) / float64(n)
			sumReal += w[j] * math.Cos(arg)
			sumImag -= w[j] * math.Sin(arg)
		}
		m[k] = sumReal*sumReal + sumImag*sumImag
	}

	for k := 0; k < n; k++ {
		if m[k] < 1e-7 {
			m[k] = (m[(k+n-1)%n] + m[(k+1)%n]) / 2
		}
	}
	return m
}
