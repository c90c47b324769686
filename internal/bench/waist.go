package bench

import (
	"fmt"
	"math"
)

const (
	DefaultWaistSamples   = 20
	DefaultWaistTolerance = 1e-10 // mm
)

var nan = math.NaN()

type WaistOptions struct {
	Samples   int
	Tolerance float64
}

func DefaultWaistOptions() WaistOptions {
	return WaistOptions{Samples: DefaultWaistSamples, Tolerance: DefaultWaistTolerance}
}

func (o WaistOptions) normalized() WaistOptions {
	if o.Samples < 4 {
		o.Samples = DefaultWaistSamples
	}
	if !(o.Tolerance > 0) {
		o.Tolerance = DefaultWaistTolerance
	}
	return o
}

// Waist is a located beam waist. Radius is NaN when the beam radius is
// undefined there.
type Waist struct {
	Position float64
	Radius   float64
}

// FindWaist searches [start, end] for the first point where the radius of
// curvature changes sign from negative to positive.
func (s Snapshot) FindWaist(start, end float64, opts WaistOptions) (Waist, error) {
	opts = opts.normalized()
	if start > end {
		start, end = end, start
	}
	if !(end > start) {
		return Waist{}, fmt.Errorf("%w: empty interval [%g, %g]", ErrNoWaist, start, end)
	}

	samples := make([]float64, opts.Samples)
	// at least one pass runs, so an interval already below the tolerance
	// still needs a transition inside it
	for width := end - start; ; {
		step := (end - start) / float64(opts.Samples-1)
		for i := range samples {
			samples[i] = s.curvatureAt(start + float64(i)*step)
		}
		idx := risingSignChange(samples)
		if idx < 0 {
			return Waist{}, fmt.Errorf("%w in [%g, %g]", ErrNoWaist, start, end)
		}
		start += float64(idx) * step
		// one extra sample interval so a transition on the boundary survives
		end = start + 2*step
		if end-start < opts.Tolerance || end-start >= width {
			// resolved, or the interval no longer shrinks at this magnitude
			break
		}
		width = end - start
	}

	pos := start + (end-start)/2
	// a lens can flip the sign of curvature without a waist
	for _, e := range s.elements {
		if math.Abs(e.Position-pos) <= opts.Tolerance {
			return Waist{}, fmt.Errorf("%w: sign change at element %q", ErrNoWaist, e.Name)
		}
	}

	w := Waist{Position: pos, Radius: nan}
	if p, err := s.BeamParametersAt(pos); err == nil {
		w.Radius = p.Radius
	}
	return w, nil
}

// risingSignChange returns the first i with v[i] < 0 and v[i+1] > 0, or -1.
func risingSignChange(v []float64) int {
	for i := 0; i < len(v)-1; i++ {
		if v[i] < 0 && v[i+1] > 0 {
			return i
		}
	}
	return -1
}
