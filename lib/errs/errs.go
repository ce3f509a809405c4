/*package errs defines the error kinds raised by the slicedpme library.

Three kinds exist. Configuration errors mean a declaration call was given
something invalid and no state was mutated. Consistency errors mean a sync
was attempted after a structural change that contexts are not allowed to
absorb. Backend errors mean the transform/compute backend failed and the
context's scratch buffers may be undefined; the caller should discard the
context and rebuild it.
*/
package errs

import (
	"errors"
	"fmt"
)

// Configuration is returned when a declaration-time call receives an
// invalid argument: a subset index out of range, an unknown parameter
// name, an illegal grid dimension, and so on. The offending call performs
// no partial mutation.
type Configuration struct {
	msg string
}

func (e *Configuration) Error() string { return e.msg }

// Configf creates a Configuration error. It has the same signature as the
// standard fmt.*printf() functions.
func Configf(format string, a ...interface{}) error {
	return &Configuration{fmt.Sprintf(format, a...)}
}

// Consistency is returned at sync time when the structural shape of a
// declaration no longer matches what a context was built from: the
// particle count changed, or the set of active exceptions changed. The
// context's cached state is left as it was.
type Consistency struct {
	msg string
}

func (e *Consistency) Error() string { return e.msg }

// Consistencyf creates a Consistency error. It has the same signature as
// the standard fmt.*printf() functions.
func Consistencyf(format string, a ...interface{}) error {
	return &Consistency{fmt.Sprintf(format, a...)}
}

// Backend is returned when the compute backend fails mid-evaluation. It is
// unrecoverable: no retry is attempted and grid scratch buffers may be
// left undefined.
type Backend struct {
	msg string
}

func (e *Backend) Error() string { return e.msg }

// Backendf creates a Backend error. It has the same signature as the
// standard fmt.*printf() functions.
func Backendf(format string, a ...interface{}) error {
	return &Backend{fmt.Sprintf(format, a...)}
}

// IsConfiguration returns true if err is a Configuration error.
func IsConfiguration(err error) bool {
	var e *Configuration
	return errors.As(err, &e)
}

// IsConsistency returns true if err is a Consistency error.
func IsConsistency(err error) bool {
	var e *Consistency
	return errors.As(err, &e)
}

// IsBackend returns true if err is a Backend error.
func IsBackend(err error) bool {
	var e *Backend
	return errors.As(err, &e)
}
