package state

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/craabreu/slicedpme/lib/context"
	"github.com/craabreu/slicedpme/lib/eq"
	"github.com/craabreu/slicedpme/lib/errs"
	"github.com/craabreu/slicedpme/lib/force"
)

func exampleForce(t *testing.T) *force.Force {
	f, err := force.New(3)
	if err != nil {
		t.Fatalf("force.New failed: %s", err.Error())
	}
	f.SetCutoff(1.2)
	f.SetEwaldTolerance(1e-4)
	f.SetPMEParameters(2.8, 32, 36, 40)
	f.SetReciprocalForceGroup(5)
	f.SetExceptionsUsePeriodic(true)
	f.SetIncludeDirectSpace(true)

	for i := 0; i < 20; i++ {
		q := 0.1 * float64(i-10)
		f.AddParticle(q, 0.3, 0.5, i%3)
	}
	f.AddException(0, 1, 0.25, 0.3, 0.1, false)
	f.AddException(2, 3, 0.0, 1.0, 0.0, false)

	f.AddGlobalParameter("lambda", 1.0)
	f.AddGlobalParameter("scale", 0.5)
	f.AddScalingParameter("lambda", 0, 1, true, true)
	f.AddScalingParameter("scale", 1, 2, true, false)
	f.AddScalingParameterDerivative("lambda")
	f.AddParticleOffset(force.ParticleOffset{
		Parameter: "scale", Particle: 4,
		ChargeScale: 1.5, SigmaScale: 0.0, EpsilonScale: 0.25,
	})
	f.AddExceptionOffset(force.ExceptionOffset{
		Parameter: "lambda", Exception: 1,
		ChargeProdScale: -0.5, SigmaScale: 0.0, EpsilonScale: 0.0,
	})
	return f
}

func checkEqual(t *testing.T, want, got *force.Force) {
	if got.NumSubsets() != want.NumSubsets() {
		t.Errorf("Expected %d subsets, got %d.",
			want.NumSubsets(), got.NumSubsets())
	}
	if got.Cutoff() != want.Cutoff() {
		t.Errorf("Expected cutoff %g, got %g.", want.Cutoff(), got.Cutoff())
	}
	if got.EwaldTolerance() != want.EwaldTolerance() {
		t.Errorf("Expected tolerance %g, got %g.",
			want.EwaldTolerance(), got.EwaldTolerance())
	}
	wa, wx, wy, wz := want.PMEParameters()
	ga, gx, gy, gz := got.PMEParameters()
	if wa != ga || wx != gx || wy != gy || wz != gz {
		t.Errorf("Expected PME parameters (%g, %d, %d, %d), got "+
			"(%g, %d, %d, %d).", wa, wx, wy, wz, ga, gx, gy, gz)
	}
	if got.ReciprocalForceGroup() != want.ReciprocalForceGroup() {
		t.Errorf("Expected force group %d, got %d.",
			want.ReciprocalForceGroup(), got.ReciprocalForceGroup())
	}
	if got.ExceptionsUsePeriodic() != want.ExceptionsUsePeriodic() ||
		got.IncludeDirectSpace() != want.IncludeDirectSpace() {
		t.Errorf("Expected the boolean settings to round-trip.")
	}

	if got.NumParticles() != want.NumParticles() {
		t.Fatalf("Expected %d particles, got %d.",
			want.NumParticles(), got.NumParticles())
	}
	for i := 0; i < want.NumParticles(); i++ {
		wp, _ := want.Particle(i)
		gp, _ := got.Particle(i)
		if wp != gp {
			t.Errorf("Expected particle %d to be %+v, got %+v.", i, wp, gp)
			return
		}
	}

	if got.NumExceptions() != want.NumExceptions() {
		t.Fatalf("Expected %d exceptions, got %d.",
			want.NumExceptions(), got.NumExceptions())
	}
	for i := 0; i < want.NumExceptions(); i++ {
		we, _ := want.Exception(i)
		ge, _ := got.Exception(i)
		if we != ge {
			t.Errorf("Expected exception %d to be %+v, got %+v.", i, we, ge)
			return
		}
	}

	for i := 0; i < want.NumGlobalParameters(); i++ {
		wp, _ := want.GlobalParameter(i)
		gp, _ := got.GlobalParameter(i)
		if wp != gp {
			t.Errorf("Expected global parameter %d to be %+v, got %+v.",
				i, wp, gp)
		}
	}
	for i := 0; i < want.NumScalingParameters(); i++ {
		wp, _ := want.ScalingParameter(i)
		gp, _ := got.ScalingParameter(i)
		if wp != gp {
			t.Errorf("Expected scaling parameter %d to be %+v, got %+v.",
				i, wp, gp)
		}
	}

	wd := want.ScalingParameterDerivatives()
	gd := got.ScalingParameterDerivatives()
	if len(wd) != len(gd) {
		t.Fatalf("Expected %d derivative requests, got %d.",
			len(wd), len(gd))
	}
	for i := range wd {
		if wd[i] != gd[i] {
			t.Errorf("Expected derivative request %s, got %s.", wd[i], gd[i])
		}
	}

	for i := 0; i < want.NumParticleOffsets(); i++ {
		wo, _ := want.ParticleOffset(i)
		g, _ := got.ParticleOffset(i)
		if wo != g {
			t.Errorf("Expected particle offset %d to be %+v, got %+v.",
				i, wo, g)
		}
	}
	for i := 0; i < want.NumExceptionOffsets(); i++ {
		wo, _ := want.ExceptionOffset(i)
		g, _ := got.ExceptionOffset(i)
		if wo != g {
			t.Errorf("Expected exception offset %d to be %+v, got %+v.",
				i, wo, g)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	want := exampleForce(t)
	buf := &bytes.Buffer{}
	if err := Write(buf, want, binary.LittleEndian); err != nil {
		t.Fatalf("Write failed: %s", err.Error())
	}
	got, err := Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %s", err.Error())
	}
	checkEqual(t, want, got)
}

func TestRoundTripEvaluation(t *testing.T) {
	want := exampleForce(t)
	buf := &bytes.Buffer{}
	if err := Write(buf, want, binary.LittleEndian); err != nil {
		t.Fatalf("Write failed: %s", err.Error())
	}
	got, err := Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %s", err.Error())
	}

	box := [3]float64{3, 3, 3}
	pos := make([][3]float64, want.NumParticles())
	for i := range pos {
		pos[i] = [3]float64{
			0.31 * float64(i%7), 0.47 * float64(i%5), 0.59 * float64(i%4),
		}
	}

	evaluate := func(f *force.Force) (float64, [][3]float64) {
		c, err := context.New(f, box, context.Options{})
		if err != nil {
			t.Fatalf("context.New failed: %s", err.Error())
		}
		if err := c.SetPositions(pos); err != nil {
			t.Fatalf("SetPositions failed: %s", err.Error())
		}
		e, err := c.Execute(true, true, true, true)
		if err != nil {
			t.Fatalf("Execute failed: %s", err.Error())
		}
		return e, c.Forces()
	}

	// The deserialized declaration must evaluate bit-identically.
	eWant, fWant := evaluate(want)
	eGot, fGot := evaluate(got)
	if eGot != eWant {
		t.Errorf("Expected the deserialized declaration to evaluate to "+
			"exactly %g, got %g.", eWant, eGot)
	}
	if !eq.Vec64s(fGot, fWant) {
		t.Errorf("Expected bit-identical forces from the deserialized " +
			"declaration.")
	}
}

func TestRoundTripBigEndian(t *testing.T) {
	want := exampleForce(t)
	buf := &bytes.Buffer{}
	if err := Write(buf, want, binary.BigEndian); err != nil {
		t.Fatalf("Write failed: %s", err.Error())
	}
	got, err := Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %s", err.Error())
	}
	checkEqual(t, want, got)
}

func TestRoundTripFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "declaration.spme")
	want := exampleForce(t)
	if err := WriteFile(fname, want); err != nil {
		t.Fatalf("WriteFile failed: %s", err.Error())
	}
	got, err := ReadFile(fname)
	if err != nil {
		t.Fatalf("ReadFile failed: %s", err.Error())
	}
	checkEqual(t, want, got)
}

func TestRejectsForeignFile(t *testing.T) {
	buf := bytes.NewBuffer([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	if _, err := Read(buf); !errs.IsConfiguration(err) {
		t.Errorf("Expected a Configuration error for a foreign file, "+
			"got %v.", err)
	}
}

func TestRejectsNewerVersion(t *testing.T) {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, uint32(MagicNumber))
	binary.Write(buf, binary.LittleEndian, uint32(Version+1))
	if _, err := Read(buf); !errs.IsConfiguration(err) {
		t.Errorf("Expected a Configuration error for a newer file "+
			"version, got %v.", err)
	}
}
