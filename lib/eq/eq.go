/*package eq is a simple package for telling whether two arrays are equal
to one another, exactly or within a tolerance.*/
package eq

import (
	"math"
)

// Ints returns true if two []int arrays are the same and false otherwise.
func Ints(x, y []int) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}

// Strings returns true if two []string arrays are the same and false
// otherwise.
func Strings(x, y []string) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}

// Float64s returns true if two []float64 arrays are the same and false
// otherwise.
func Float64s(x, y []float64) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}

// Vec64s returns true if two [][3]float64 arrays are the same and false
// otherwise.
func Vec64s(x, y [][3]float64) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}

// Float64sEps returns true if the two []float64 arrays are within eps of
// one another and false otherwise.
func Float64sEps(x, y []float64, eps float64) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] + eps < y[i] || x[i] - eps > y[i] {
			return false
		}
	}
	return true
}

// Vec64sEps returns true if the two [][3]float64 arrays are within eps of
// one another component-wise and false otherwise.
func Vec64sEps(x, y [][3]float64, eps float64) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		for dim := 0; dim < 3; dim++ {
			if x[i][dim] + eps < y[i][dim] || x[i][dim] - eps > y[i][dim] {
				return false
			}
		}
	}
	return true
}

// Float64sRel returns true if every element of the two []float64 arrays
// agrees to within a relative tolerance tol (with an absolute floor of
// tol for elements near zero) and false otherwise.
func Float64sRel(x, y []float64, tol float64) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		scale := math.Max(math.Abs(x[i]), math.Abs(y[i]))
		if scale < 1 { scale = 1 }
		if math.Abs(x[i] - y[i]) > tol*scale { return false }
	}
	return true
}

// Complex128sEps returns true if the two []complex128 arrays are within
// eps of one another in both components and false otherwise.
func Complex128sEps(x, y []complex128, eps float64) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if math.Abs(real(x[i])-real(y[i])) > eps { return false }
		if math.Abs(imag(x[i])-imag(y[i])) > eps { return false }
	}
	return true
}
