package force

/* params.go contains the declaration of global parameters, per-slice
scaling parameters, linear parameter offsets, and derivative requests. */

import (
	"math"

	"github.com/craabreu/slicedpme/lib/errs"
)

// AddGlobalParameter declares a named external parameter with a default
// value and returns its index. Parameter names must be unique.
func (f *Force) AddGlobalParameter(name string, defaultValue float64) (int, error) {
	if name == "" {
		return -1, errs.Configf("Global parameter names cannot be empty.")
	}
	if _, err := f.GlobalParameterIndex(name); err == nil {
		return -1, errs.Configf("There is already a global parameter "+
			"called '%s'.", name)
	}
	f.globals = append(f.globals, GlobalParameter{name, defaultValue})
	return len(f.globals) - 1, nil
}

// NumGlobalParameters returns the number of declared global parameters.
func (f *Force) NumGlobalParameters() int { return len(f.globals) }

// GlobalParameter returns a copy of the global parameter at the given
// index.
func (f *Force) GlobalParameter(index int) (GlobalParameter, error) {
	if index < 0 || index >= len(f.globals) {
		return GlobalParameter{}, errs.Configf("The global parameter index "+
			"%d is out of range: only %d parameters have been declared.",
			index, len(f.globals))
	}
	return f.globals[index], nil
}

// SetGlobalParameterDefault updates the default value of a global
// parameter.
func (f *Force) SetGlobalParameterDefault(index int, value float64) error {
	if index < 0 || index >= len(f.globals) {
		return errs.Configf("The global parameter index %d is out of "+
			"range: only %d parameters have been declared.",
			index, len(f.globals))
	}
	f.globals[index].Default = value
	return nil
}

// GlobalParameterIndex returns the index of the global parameter with the
// given name. Referencing an undeclared name is a Configuration error.
func (f *Force) GlobalParameterIndex(name string) (int, error) {
	for i := range f.globals {
		if f.globals[i].Name == name {
			return i, nil
		}
	}
	return -1, errs.Configf("There is no global parameter called '%s'.", name)
}

// AddScalingParameter binds the global parameter with the given name to
// the slice of subsets (s1, s2) and returns its index. coulomb and lj
// select the channels the parameter scales; at most one parameter may
// govern each channel of a slice, and at least one channel must be
// selected.
func (f *Force) AddScalingParameter(
	name string, s1, s2 int, coulomb, lj bool,
) (int, error) {
	if _, err := f.GlobalParameterIndex(name); err != nil {
		return -1, err
	}
	slice, err := SliceIndex(f.numSubsets, s1, s2)
	if err != nil { return -1, err }
	if !coulomb && !lj {
		return -1, errs.Configf("The scaling parameter '%s' must govern at "+
			"least one of the Coulomb and Lennard-Jones channels.", name)
	}
	if coulomb && f.sliceCoulomb[slice] != -1 {
		return -1, errs.Configf("A Coulomb scaling parameter has already "+
			"been bound to the slice of subsets (%d, %d).", s1, s2)
	}
	if lj && f.sliceLJ[slice] != -1 {
		return -1, errs.Configf("A Lennard-Jones scaling parameter has "+
			"already been bound to the slice of subsets (%d, %d).", s1, s2)
	}

	f.scaling = append(f.scaling, ScalingParameter{name, s1, s2, coulomb, lj})
	index := len(f.scaling) - 1
	if coulomb {
		f.sliceCoulomb[slice] = index
	}
	if lj {
		f.sliceLJ[slice] = index
	}
	return index, nil
}

// NumScalingParameters returns the number of declared scaling parameters.
func (f *Force) NumScalingParameters() int { return len(f.scaling) }

// ScalingParameter returns a copy of the scaling parameter at the given
// index.
func (f *Force) ScalingParameter(index int) (ScalingParameter, error) {
	if index < 0 || index >= len(f.scaling) {
		return ScalingParameter{}, errs.Configf("The scaling parameter "+
			"index %d is out of range: only %d have been declared.",
			index, len(f.scaling))
	}
	return f.scaling[index], nil
}

// SliceScalingParameters returns, for each slice, the index of the
// scaling parameter governing its Coulomb channel and its Lennard-Jones
// channel, or -1 for channels with no bound parameter.
func (f *Force) SliceScalingParameters() (coulomb, lj []int) {
	coulomb = make([]int, len(f.sliceCoulomb))
	lj = make([]int, len(f.sliceLJ))
	copy(coulomb, f.sliceCoulomb)
	copy(lj, f.sliceLJ)
	return coulomb, lj
}

// AddScalingParameterDerivative requests that the energy derivative with
// respect to the named scaling parameter be accumulated during
// evaluation. Duplicate requests and names that are not scaling
// parameters are Configuration errors.
func (f *Force) AddScalingParameterDerivative(name string) error {
	found := false
	for i := range f.scaling {
		if f.scaling[i].Name == name {
			found = true
			break
		}
	}
	if !found {
		return errs.Configf("There is no scaling parameter called '%s'.", name)
	}
	for _, prev := range f.derivatives {
		if prev == name {
			return errs.Configf("The derivative with respect to '%s' was "+
				"already requested.", name)
		}
	}
	f.derivatives = append(f.derivatives, name)
	return nil
}

// ScalingParameterDerivatives returns the names of the requested
// derivatives, in request order.
func (f *Force) ScalingParameterDerivatives() []string {
	out := make([]string, len(f.derivatives))
	copy(out, f.derivatives)
	return out
}

// AddParticleOffset adds a linear offset of a particle's charge, sigma,
// and epsilon driven by a global parameter, and returns its index. The
// parameter name is validated here, at declaration time.
func (f *Force) AddParticleOffset(o ParticleOffset) (int, error) {
	if _, err := f.GlobalParameterIndex(o.Parameter); err != nil {
		return -1, err
	}
	if o.Particle < 0 || o.Particle >= len(f.particles) {
		return -1, errs.Configf("The particle offset targets particle %d, "+
			"but only %d particles have been declared.",
			o.Particle, len(f.particles))
	}
	f.particleOffsets = append(f.particleOffsets, o)
	return len(f.particleOffsets) - 1, nil
}

// NumParticleOffsets returns the number of declared particle offsets.
func (f *Force) NumParticleOffsets() int { return len(f.particleOffsets) }

// ParticleOffset returns a copy of the particle offset at the given index.
func (f *Force) ParticleOffset(index int) (ParticleOffset, error) {
	if index < 0 || index >= len(f.particleOffsets) {
		return ParticleOffset{}, errs.Configf("The particle offset index "+
			"%d is out of range: only %d have been declared.",
			index, len(f.particleOffsets))
	}
	return f.particleOffsets[index], nil
}

// AddExceptionOffset adds a linear offset of an exception's chargeProd,
// sigma, and epsilon driven by a global parameter, and returns its index.
func (f *Force) AddExceptionOffset(o ExceptionOffset) (int, error) {
	if _, err := f.GlobalParameterIndex(o.Parameter); err != nil {
		return -1, err
	}
	if o.Exception < 0 || o.Exception >= len(f.exceptions) {
		return -1, errs.Configf("The exception offset targets exception "+
			"%d, but only %d exceptions have been declared.",
			o.Exception, len(f.exceptions))
	}
	f.exceptionOffsets = append(f.exceptionOffsets, o)
	return len(f.exceptionOffsets) - 1, nil
}

// NumExceptionOffsets returns the number of declared exception offsets.
func (f *Force) NumExceptionOffsets() int { return len(f.exceptionOffsets) }

// ExceptionOffset returns a copy of the exception offset at the given
// index.
func (f *Force) ExceptionOffset(index int) (ExceptionOffset, error) {
	if index < 0 || index >= len(f.exceptionOffsets) {
		return ExceptionOffset{}, errs.Configf("The exception offset index "+
			"%d is out of range: only %d have been declared.",
			index, len(f.exceptionOffsets))
	}
	return f.exceptionOffsets[index], nil
}

func geometricMean(x, y float64) float64 {
	return math.Sqrt(x * y)
}
