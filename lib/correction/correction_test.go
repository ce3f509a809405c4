package correction

import (
	"math"
	"testing"

	"github.com/craabreu/slicedpme/lib/eq"
	"github.com/craabreu/slicedpme/lib/force"
)

func TestSeparationMinimumImage(t *testing.T) {
	box := [3]float64{2.0, 3.0, 4.0}
	p1 := [3]float64{1.9, 0.1, 3.9}
	p2 := [3]float64{0.1, 2.9, 0.1}

	open := Separation(p1, p2, box, false)
	if !eq.Vec64sEps([][3]float64{open},
		[][3]float64{{1.8, -2.8, 3.8}}, 1e-12) {
		t.Errorf("Expected the open-boundary separation (1.8, -2.8, 3.8), "+
			"got %v.", open)
	}

	wrapped := Separation(p1, p2, box, true)
	if !eq.Vec64sEps([][3]float64{wrapped},
		[][3]float64{{-0.2, 0.2, -0.2}}, 1e-12) {
		t.Errorf("Expected the minimum-image separation (-0.2, 0.2, -0.2), "+
			"got %v.", wrapped)
	}
}

func TestExclusionEnergy(t *testing.T) {
	box := [3]float64{5, 5, 5}
	pos := [][3]float64{{1, 1, 1}, {1.6, 1, 1}}
	charges := []float64{0.8, -0.4}
	pairs := []Exclusion{{0, 1, 0}}
	weights := []float64{1.0}
	forces := make([][3]float64, 2)
	energies := make([]float64, 1)
	alpha := 2.0

	Exclusions(pos, box, false, alpha, pairs, charges, weights, forces,
		energies, 0, len(pairs))

	r := 0.6
	want := -force.CoulombConstant * 0.8 * (-0.4) * math.Erf(alpha*r) / r
	if math.Abs(energies[0]-want) > 1e-12*math.Abs(want) {
		t.Errorf("Expected the correction energy %g, got %g.",
			want, energies[0])
	}
}

func TestExclusionCoincidentLimit(t *testing.T) {
	box := [3]float64{5, 5, 5}
	pos := [][3]float64{{1, 1, 1}, {1, 1, 1}}
	charges := []float64{1.0, 1.0}
	pairs := []Exclusion{{0, 1, 0}}
	forces := make([][3]float64, 2)
	energies := make([]float64, 1)
	alpha := 3.0

	Exclusions(pos, box, false, alpha, pairs, charges, []float64{1.0},
		forces, energies, 0, len(pairs))

	want := -force.CoulombConstant * 2 * alpha / math.Sqrt(math.Pi)
	if math.Abs(energies[0]-want) > 1e-12*math.Abs(want) {
		t.Errorf("Expected the coincident-pair limit %g, got %g.",
			want, energies[0])
	}
	for i := range forces {
		if forces[i] != ([3]float64{}) {
			t.Errorf("Expected zero force on a coincident pair, got %v.",
				forces[i])
		}
	}
}

func TestExclusionForcesMatchFiniteDifference(t *testing.T) {
	box := [3]float64{5, 5, 5}
	base := [][3]float64{{1.0, 1.2, 0.9}, {1.5, 0.8, 1.3}}
	charges := []float64{0.7, -0.9}
	pairs := []Exclusion{{0, 1, 0}}
	weights := []float64{0.6}
	alpha := 2.5
	h := 1e-6

	energyAt := func(pos [][3]float64) float64 {
		energies := make([]float64, 1)
		forces := make([][3]float64, 2)
		Exclusions(pos, box, true, alpha, pairs, charges, weights, forces,
			energies, 0, 1)
		return weights[0] * energies[0]
	}

	forces := make([][3]float64, 2)
	energies := make([]float64, 1)
	Exclusions(base, box, true, alpha, pairs, charges, weights, forces,
		energies, 0, 1)

	for i := 0; i < 2; i++ {
		for d := 0; d < 3; d++ {
			plus := [][3]float64{base[0], base[1]}
			minus := [][3]float64{base[0], base[1]}
			plus[i][d] += h
			minus[i][d] -= h
			fd := -(energyAt(plus) - energyAt(minus)) / (2 * h)
			if math.Abs(fd-forces[i][d]) > 1e-6 {
				t.Errorf("Expected force[%d][%d] = %g from the energy "+
					"gradient, got %g.", i, d, fd, forces[i][d])
			}
		}
	}
}

func TestC6Sums(t *testing.T) {
	sigmas := []float64{0.3, 0.2, 0.4}
	epsilons := []float64{0.5, 1.0, 0.0}
	subsets := []int{0, 1, 1}

	c6Sum, c6Sq := C6Sums(sigmas, epsilons, subsets, 2)

	c6 := func(i int) float64 {
		s3 := sigmas[i] * sigmas[i] * sigmas[i]
		return 2 * math.Sqrt(epsilons[i]) * s3
	}
	wantSum := []float64{c6(0), c6(1) + c6(2)}
	wantSq := []float64{c6(0) * c6(0), c6(1)*c6(1) + c6(2)*c6(2)}
	if !eq.Float64sEps(c6Sum, wantSum, 1e-15) {
		t.Errorf("Expected c6 sums %v, got %v.", wantSum, c6Sum)
	}
	if !eq.Float64sEps(c6Sq, wantSq, 1e-15) {
		t.Errorf("Expected c6 square sums %v, got %v.", wantSq, c6Sq)
	}
}

func TestDispersionTailFactorization(t *testing.T) {
	// The factorized tail must reproduce the explicit pair sum.
	sigmas := []float64{0.3, 0.25, 0.35, 0.28}
	epsilons := []float64{0.5, 0.8, 0.3, 1.1}
	subsets := []int{0, 1, 0, 1}
	volume, cutoff := 27.0, 1.2

	c6Sum, c6Sq := C6Sums(sigmas, epsilons, subsets, 2)
	tail := DispersionTail(c6Sum, c6Sq, volume, cutoff)

	c6 := make([]float64, 4)
	for i := range c6 {
		s3 := sigmas[i] * sigmas[i] * sigmas[i]
		c6[i] = 2 * math.Sqrt(epsilons[i]) * s3
	}
	prefactor := -2 * math.Pi / (3 * volume * cutoff * cutoff * cutoff)
	want := make([]float64, force.NumSlices(2))
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			slice, _ := force.SliceIndex(2, subsets[i], subsets[j])
			want[slice] += prefactor * c6[i] * c6[j]
		}
	}
	if !eq.Float64sRel(tail, want, 1e-12) {
		t.Errorf("Expected tail energies %v, got %v.", want, tail)
	}
}
