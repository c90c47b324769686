package bench

import (
	"fmt"
	"math"

	"github.com/san-kum/beamsim/internal/element"
	"github.com/san-kum/beamsim/internal/optics"
)

// propagate builds the cumulative transform list. Entry i maps the beam at
// the source plane to the beam just after element i.
func propagate(elems []element.Element) []optics.Matrix {
	if len(elems) == 0 {
		return nil
	}
	if elems[0].Kind != element.Source {
		panic(fmt.Sprintf("bench: first element is %v %q, not the source", elems[0].Kind, elems[0].Name))
	}
	transforms := make([]optics.Matrix, len(elems))
	transforms[0] = elems[0].Matrix()
	for i := 1; i < len(elems); i++ {
		gap := optics.FreeSpace(elems[i].Position - elems[i-1].Position)
		transforms[i] = elems[i].Matrix().Mul(gap).Mul(transforms[i-1])
	}
	return transforms
}

// transformAt locates the rightmost element at or before point and extends
// its cumulative transform by free space up to point.
func transformAt(elems []element.Element, transforms []optics.Matrix, point float64) (optics.Matrix, error) {
	if point < 0 || math.IsNaN(point) {
		return optics.Matrix{}, fmt.Errorf("%w: %g", ErrNoBeam, point)
	}
	if len(elems) == 0 {
		return optics.Matrix{}, ErrNoBeam
	}

	index := 0
	for i, e := range elems {
		if e.Position > point {
			break
		}
		index = i
	}
	return optics.FreeSpace(point - elems[index].Position).Mul(transforms[index]), nil
}
