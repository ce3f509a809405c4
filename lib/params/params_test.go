package params

import (
	"testing"

	"github.com/craabreu/slicedpme/lib/eq"
	"github.com/craabreu/slicedpme/lib/force"
)

func twoSubsetForce(t *testing.T) *force.Force {
	f, err := force.New(2)
	if err != nil {
		t.Fatalf("force.New(2) failed: %s", err.Error())
	}
	f.AddParticle(1.0, 0.3, 0.5, 0)
	f.AddParticle(-1.0, 0.3, 0.5, 1)
	f.AddParticle(0.5, 0.0, 0.0, 1)
	return f
}

func TestResolverDefaults(t *testing.T) {
	f := twoSubsetForce(t)
	r := NewResolver(f)

	if !r.Update(Values{}) {
		t.Fatalf("Expected the first Update to report a change.")
	}
	if !eq.Float64s(r.Charges, []float64{1.0, -1.0, 0.5}) {
		t.Errorf("Expected base charges, got %v.", r.Charges)
	}
	if r.Update(Values{}) {
		t.Errorf("Expected a repeated Update with no values to be a no-op.")
	}
}

func TestResolverOffsets(t *testing.T) {
	f := twoSubsetForce(t)
	f.AddGlobalParameter("scale", 0.25)
	f.AddException(0, 1, -0.5, 0.3, 0.5, false)
	if _, err := f.AddParticleOffset(force.ParticleOffset{
		Parameter: "scale", Particle: 0, ChargeScale: 2.0, SigmaScale: 0.1, EpsilonScale: 0.0,
	}); err != nil {
		t.Fatalf("AddParticleOffset failed: %s", err.Error())
	}
	if _, err := f.AddExceptionOffset(force.ExceptionOffset{
		Parameter: "scale", Exception: 0, ChargeProdScale: -1.0, SigmaScale: 0.0, EpsilonScale: 0.0,
	}); err != nil {
		t.Fatalf("AddExceptionOffset failed: %s", err.Error())
	}

	r := NewResolver(f)
	r.Update(Values{})

	// With the default scale = 0.25.
	if !eq.Float64sEps(r.Charges, []float64{1.5, -1.0, 0.5}, 1e-15) {
		t.Errorf("Expected charges [1.5 -1 0.5] at default scale, got %v.",
			r.Charges)
	}
	if !eq.Float64sEps(r.Sigmas, []float64{0.325, 0.3, 0.0}, 1e-15) {
		t.Errorf("Expected sigmas [0.325 0.3 0] at default scale, got %v.",
			r.Sigmas)
	}
	if !eq.Float64sEps(r.ExcChargeProds, []float64{-0.75}, 1e-15) {
		t.Errorf("Expected exception chargeProd -0.75 at default scale, "+
			"got %v.", r.ExcChargeProds)
	}

	if !r.Update(Values{"scale": 1.0}) {
		t.Fatalf("Expected a changed value to trigger a recompute.")
	}
	if !eq.Float64sEps(r.Charges, []float64{3.0, -1.0, 0.5}, 1e-15) {
		t.Errorf("Expected charges [3 -1 0.5] at scale = 1, got %v.",
			r.Charges)
	}
	if !eq.Float64sEps(r.ExcChargeProds, []float64{-1.5}, 1e-15) {
		t.Errorf("Expected exception chargeProd -1.5 at scale = 1, got %v.",
			r.ExcChargeProds)
	}

	if r.Update(Values{"scale": 1.0}) {
		t.Errorf("Expected an unchanged value to be a no-op.")
	}
	r.Rebase()
	if !r.Update(Values{"scale": 1.0}) {
		t.Errorf("Expected Update after Rebase to recompute.")
	}
}

func TestLambdaWeights(t *testing.T) {
	f := twoSubsetForce(t)
	f.AddGlobalParameter("lambda", 1.0)
	f.AddScalingParameter("lambda", 0, 1, true, false)

	l := NewLambda(f)
	if !l.Update(Values{}) {
		t.Fatalf("Expected the first Update to report a change.")
	}

	cross, _ := force.SliceIndex(2, 0, 1)
	if !eq.Float64s(l.LJ, []float64{1, 1, 1}) {
		t.Errorf("Expected all LJ weights to stay 1, got %v.", l.LJ)
	}
	if l.Coulomb[cross] != 1 {
		t.Errorf("Expected the cross Coulomb weight to default to 1, got %g.",
			l.Coulomb[cross])
	}

	if !l.Update(Values{"lambda": 0.25}) {
		t.Fatalf("Expected a changed value to trigger a recompute.")
	}
	want := []float64{1, 1, 1}
	want[cross] = 0.25
	if !eq.Float64s(l.Coulomb, want) {
		t.Errorf("Expected Coulomb weights %v, got %v.", want, l.Coulomb)
	}
	if !eq.Float64s(l.LJ, []float64{1, 1, 1}) {
		t.Errorf("Expected LJ weights to be unaffected, got %v.", l.LJ)
	}

	if l.Update(Values{"lambda": 0.25}) {
		t.Errorf("Expected an unchanged value to be a no-op.")
	}
}

func TestLambdaDerivatives(t *testing.T) {
	f := twoSubsetForce(t)
	f.AddGlobalParameter("lambda", 1.0)
	f.AddScalingParameter("lambda", 0, 1, true, true)
	if err := f.AddScalingParameterDerivative("lambda"); err != nil {
		t.Fatalf("AddScalingParameterDerivative failed: %s", err.Error())
	}

	l := NewLambda(f)
	l.Update(Values{})

	// Unweighted slice energies, indexed by slice.
	coulomb := []float64{10, 20, 40}
	lj := []float64{1, 2, 4}
	cross, _ := force.SliceIndex(2, 0, 1)

	dst := map[string]float64{"lambda": 100}
	l.AddDerivatives(dst, coulomb, lj)
	want := 100 + coulomb[cross] + lj[cross]
	if dst["lambda"] != want {
		t.Errorf("Expected dE/dlambda = %g, got %g.", want, dst["lambda"])
	}

	if !eq.Strings(l.Tracked(), []string{"lambda"}) {
		t.Errorf("Expected tracked names [lambda], got %v.", l.Tracked())
	}
}
