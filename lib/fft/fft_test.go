package fft

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/craabreu/slicedpme/lib/errs"
	"github.com/craabreu/slicedpme/lib/mesh"
)

func TestForwardDelta(t *testing.T) {
	tr, err := NewGonum(4, 6, 8)
	if err != nil {
		t.Fatalf("NewGonum failed: %s", err.Error())
	}

	g := mesh.NewGrid(1, 4, 6, 8)
	g.Data[g.Index(0, 0, 0, 0)] = 1
	if err := tr.Forward(g); err != nil {
		t.Fatalf("Forward failed: %s", err.Error())
	}

	// The transform of a delta at the origin is 1 everywhere.
	for i, c := range g.Data {
		if cmplx.Abs(c-1) > 1e-12 {
			t.Fatalf("Expected coefficient 1 everywhere, got %v at cell %d.",
				c, i)
		}
	}
}

func TestRoundTripScaling(t *testing.T) {
	tr, _ := NewGonum(6, 5, 4)
	g := mesh.NewGrid(2, 6, 5, 4)
	rng := rand.New(rand.NewSource(42))
	orig := make([]complex128, len(g.Data))
	for i := range g.Data {
		g.Data[i] = complex(rng.NormFloat64(), rng.NormFloat64())
		orig[i] = g.Data[i]
	}

	if err := tr.Forward(g); err != nil {
		t.Fatalf("Forward failed: %s", err.Error())
	}
	if err := tr.Inverse(g); err != nil {
		t.Fatalf("Inverse failed: %s", err.Error())
	}

	cells := float64(6 * 5 * 4)
	for i := range g.Data {
		if cmplx.Abs(g.Data[i]-orig[i]*complex(cells, 0)) > 1e-9 {
			t.Fatalf("Expected the round trip to scale cell %d by %g, got "+
				"%v from %v.", i, cells, g.Data[i], orig[i])
		}
	}
}

func TestParseval(t *testing.T) {
	tr, _ := NewGonum(8, 8, 8)
	g := mesh.NewGrid(1, 8, 8, 8)
	rng := rand.New(rand.NewSource(7))
	timeNorm := 0.0
	for i := range g.Data {
		g.Data[i] = complex(rng.NormFloat64(), 0)
		timeNorm += real(g.Data[i]) * real(g.Data[i])
	}

	if err := tr.Forward(g); err != nil {
		t.Fatalf("Forward failed: %s", err.Error())
	}
	freqNorm := 0.0
	for _, c := range g.Data {
		freqNorm += real(c)*real(c) + imag(c)*imag(c)
	}

	cells := float64(8 * 8 * 8)
	if math.Abs(freqNorm-cells*timeNorm) > 1e-7*cells*timeNorm {
		t.Errorf("Expected the spectral norm to be %g, got %g.",
			cells*timeNorm, freqNorm)
	}
}

func TestCounts(t *testing.T) {
	tr, _ := NewGonum(4, 4, 4)
	g := mesh.NewGrid(3, 4, 4, 4)
	tr.Forward(g)
	tr.Forward(g)
	tr.Inverse(g)

	forward, inverse := tr.Counts()
	if forward != 2 || inverse != 1 {
		t.Errorf("Expected transform counts (2, 1), got (%d, %d).",
			forward, inverse)
	}
}

func TestDimensionMismatch(t *testing.T) {
	tr, _ := NewGonum(4, 4, 4)
	g := mesh.NewGrid(1, 4, 4, 8)
	if err := tr.Forward(g); !errs.IsBackend(err) {
		t.Errorf("Expected a Backend error for mismatched grid dimensions, "+
			"got %v.", err)
	}
}
