package bench

import (
	"github.com/san-kum/beamsim/internal/element"
	"github.com/san-kum/beamsim/internal/optics"
)

// Snapshot is a consistent, read-only view of a bench at one instant.
// The bench never mutates slices it has handed out, so a Snapshot stays
// valid after later mutations.
type Snapshot struct {
	elements   []element.Element
	transforms []optics.Matrix
	beam       Beam
}

func (s Snapshot) Beam() Beam { return s.beam }

func (s Snapshot) Len() int { return len(s.elements) }

// Elements returns a copy of the ordered elements.
func (s Snapshot) Elements() []element.Element {
	out := make([]element.Element, len(s.elements))
	for i, e := range s.elements {
		out[i] = e.Clone()
	}
	return out
}

// Transforms returns a copy of the cumulative transform list.
func (s Snapshot) Transforms() []optics.Matrix {
	out := make([]optics.Matrix, len(s.transforms))
	copy(out, s.transforms)
	return out
}

func (s Snapshot) Lookup(name string) (element.Element, bool) {
	if i := indexOf(s.elements, name); i >= 0 {
		return s.elements[i].Clone(), true
	}
	return element.Element{}, false
}

// TransformAt returns the transform from the source plane to point.
func (s Snapshot) TransformAt(point float64) (optics.Matrix, error) {
	return transformAt(s.elements, s.transforms, point)
}

// BeamParametersAt returns the radius of curvature and beam radius at point.
// The radius of curvature is ±Inf at a waist.
func (s Snapshot) BeamParametersAt(point float64) (Params, error) {
	t, err := s.TransformAt(point)
	if err != nil {
		return Params{Position: point}, err
	}
	return beamParameters(t, s.beam, point)
}

func (s Snapshot) curvatureAt(point float64) float64 {
	t, err := s.TransformAt(point)
	if err != nil {
		return nan
	}
	return curvature(t, s.beam)
}
