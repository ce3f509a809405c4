/*package config reads run settings from INI files: the subset count,
the PME parameters, and the execution options. A settings file looks
like this:

    [slicing]
    subsets = 2

    [pme]
    cutoff = 1.2
    tolerance = 1e-4
    grid-x = 32
    grid-y = 32
    grid-z = 36

    [run]
    threads = 8
    parallel = true
    replica-index = 0
    replica-count = 1

Every key is optional; zero values mean "use the defaults".*/
package config

import (
	"gopkg.in/gcfg.v1"

	"github.com/craabreu/slicedpme/lib/errs"
	"github.com/craabreu/slicedpme/lib/force"
	"github.com/craabreu/slicedpme/lib/thread"
)

// Settings mirrors the sections of a settings file.
type Settings struct {
	Slicing struct {
		Subsets int
	}
	PME struct {
		Cutoff, Tolerance, Alpha float64
		GridX                    int  `gcfg:"grid-x"`
		GridY                    int  `gcfg:"grid-y"`
		GridZ                    int  `gcfg:"grid-z"`
		ExceptionsUsePeriodic    bool `gcfg:"exceptions-use-periodic"`
		SkipDirectSpace          bool `gcfg:"skip-direct-space"`
		ReciprocalForceGroup     int  `gcfg:"reciprocal-force-group"`
	}
	Run struct {
		Threads      int
		Parallel     bool
		ReplicaIndex int `gcfg:"replica-index"`
		ReplicaCount int `gcfg:"replica-count"`
	}
}

// Read parses a settings file.
func Read(fname string) (*Settings, error) {
	s := &Settings{}
	s.Slicing.Subsets = 1
	s.Run.Threads = -1
	s.PME.ReciprocalForceGroup = -1

	if err := gcfg.ReadFileInto(s, fname); err != nil {
		return nil, errs.Configf("The settings file %s could not be "+
			"parsed: %s", fname, err.Error())
	}
	return s, nil
}

// Force creates a Force declaration with the file's slicing and PME
// settings applied. Particles still have to be added by the caller.
func (s *Settings) Force() (*force.Force, error) {
	f, err := force.New(s.Slicing.Subsets)
	if err != nil { return nil, err }

	if s.PME.Cutoff != 0 {
		if err := f.SetCutoff(s.PME.Cutoff); err != nil { return nil, err }
	}
	if s.PME.Tolerance != 0 {
		if err := f.SetEwaldTolerance(s.PME.Tolerance); err != nil {
			return nil, err
		}
	}
	err = f.SetPMEParameters(s.PME.Alpha, s.PME.GridX, s.PME.GridY,
		s.PME.GridZ)
	if err != nil { return nil, err }
	if err := f.SetReciprocalForceGroup(s.PME.ReciprocalForceGroup); err != nil {
		return nil, err
	}
	f.SetExceptionsUsePeriodic(s.PME.ExceptionsUsePeriodic)
	f.SetIncludeDirectSpace(!s.PME.SkipDirectSpace)
	return f, nil
}

// Apply installs the execution settings that live outside the Force:
// currently just the worker count.
func (s *Settings) Apply() {
	thread.Set(s.Run.Threads)
}
