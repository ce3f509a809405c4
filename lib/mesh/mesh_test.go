package mesh

import (
	"math"
	"testing"
)

func TestWeightsPartitionOfUnity(t *testing.T) {
	var w, dw [Order]float64
	for i := 0; i <= 20; i++ {
		dr := float64(i) / 20 * 0.9999
		Weights(dr, &w, &dw)

		sum, dsum := 0.0, 0.0
		for j := 0; j < Order; j++ {
			sum += w[j]
			dsum += dw[j]
			if w[j] < 0 {
				t.Errorf("Expected non-negative weights at dr = %g, "+
					"got w[%d] = %g.", dr, j, w[j])
			}
		}
		if math.Abs(sum-1) > 1e-14 {
			t.Errorf("Expected weights at dr = %g to sum to 1, got %g.",
				dr, sum)
		}
		if math.Abs(dsum) > 1e-14 {
			t.Errorf("Expected derivatives at dr = %g to sum to 0, got %g.",
				dr, dsum)
		}
	}
}

func TestWeightsDerivative(t *testing.T) {
	var wMinus, wPlus, w, dw, scratch [Order]float64
	h := 1e-6
	for _, dr := range []float64{0.1, 0.37, 0.5, 0.82} {
		Weights(dr, &w, &dw)
		Weights(dr-h, &wMinus, &scratch)
		Weights(dr+h, &wPlus, &scratch)
		for j := 0; j < Order; j++ {
			fd := (wPlus[j] - wMinus[j]) / (2 * h)
			if math.Abs(fd-dw[j]) > 1e-8 {
				t.Errorf("Expected dw[%d] = %g at dr = %g, got %g.",
					j, fd, dr, dw[j])
			}
		}
	}
}

func TestSpreadConservesCharge(t *testing.T) {
	g := NewGrid(2, 12, 10, 8)
	box := [3]float64{2.0, 1.5, 1.2}
	pos := [][3]float64{
		{0.1, 0.2, 0.3},
		{1.9, 1.4, 1.1},  // near the upper box faces
		{-0.3, 2.0, 0.6}, // outside the primary image
		{1.0, 0.75, 0.6},
	}
	charges := []float64{1.0, -0.5, 0.25, 2.0}
	subsets := []int{0, 1, 0, 1}

	SpreadCharges(g, pos, charges, subsets, box, nil)

	for s := 0; s < 2; s++ {
		want := 0.0
		for i := range charges {
			if subsets[i] == s {
				want += charges[i]
			}
		}
		got := 0.0
		for _, c := range g.Subset(s) {
			got += real(c)
			if imag(c) != 0 {
				t.Fatalf("Expected a purely real charge grid, got an "+
					"imaginary part of %g.", imag(c))
			}
		}
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("Expected subset %d to hold total charge %g, got %g.",
				s, want, got)
		}
	}
}

func TestSpreadIndexSubsetAgree(t *testing.T) {
	box := [3]float64{1.0, 1.0, 1.0}
	pos := [][3]float64{{0.1, 0.5, 0.9}, {0.7, 0.2, 0.4}}
	charges := []float64{1.0, -1.0}
	subsets := []int{1, 0}

	all := NewGrid(2, 8, 8, 8)
	SpreadCharges(all, pos, charges, subsets, box, nil)

	split := NewGrid(2, 8, 8, 8)
	SpreadCharges(split, pos, charges, subsets, box, []int{1})
	SpreadCharges(split, pos, charges, subsets, box, []int{0})

	for i := range all.Data {
		if all.Data[i] != split.Data[i] {
			t.Fatalf("Expected per-index spreading to match the full "+
				"sweep, but cell %d differs.", i)
		}
	}
}

func TestModuli(t *testing.T) {
	for _, n := range []int{8, 12, 15, 27} {
		m := Moduli(n)
		if math.Abs(m[0]-1) > 1e-12 {
			t.Errorf("Expected the zero-frequency modulus to be 1 for "+
				"n = %d, got %g.", n, m[0])
		}
		for k, x := range m {
			if x <= 0 {
				t.Errorf("Expected strictly positive moduli for n = %d, "+
					"got m[%d] = %g.", n, k, x)
			}
		}
	}
}

func TestInterpolateConstantPotential(t *testing.T) {
	g := NewGrid(1, 8, 8, 8)
	for i := range g.Data {
		g.Data[i] = complex(3.5, 0)
	}

	pos := [][3]float64{{0.13, 0.57, 0.91}}
	charges := []float64{2.0}
	subsets := []int{0}
	forces := [][3]float64{{0, 0, 0}}
	InterpolateForces(g, pos, charges, subsets, [3]float64{1, 1, 1},
		forces, 0, 1)

	for d := 0; d < 3; d++ {
		if math.Abs(forces[0][d]) > 1e-12 {
			t.Errorf("Expected zero force in a constant potential, got "+
				"component %d = %g.", d, forces[0][d])
		}
	}
}
