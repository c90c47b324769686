package analysis

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/beamsim/internal/bench"
)

var (
	// ErrSampleCount is returned when fewer than two samples are requested.
	ErrSampleCount = errors.New("analysis: need at least two samples")
	// ErrInterval is returned for non-finite or empty sampling intervals.
	ErrInterval = errors.New("analysis: invalid interval")
)

// Querier answers beam parameter queries. bench.Snapshot and *bench.Bench
// both satisfy it.
type Querier interface {
	BeamParametersAt(point float64) (bench.Params, error)
}

// Sample is the beam at one position. Radius and Curvature are NaN when
// Defined is false.
type Sample struct {
	Position  float64
	Radius    float64
	Curvature float64
	Defined   bool
}

type Profile struct {
	Start   float64
	End     float64
	Samples []Sample
}

// SampleProfile evaluates q at n evenly spaced points in [start, end] using
// the given number of workers. Points before the source or with undefined
// parameters are kept as undefined samples. Samples are ordered by position.
func SampleProfile(q Querier, start, end float64, n, workers int) (*Profile, error) {
	if n < 2 {
		return nil, ErrSampleCount
	}
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) || start == end {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrInterval, start, end)
	}
	if start > end {
		start, end = end, start
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	xs := floats.Span(make([]float64, n), start, end)
	samples := make([]Sample, n)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := offset; i < n; i += workers {
				samples[i] = sampleAt(q, xs[i])
			}
		}(w)
	}
	wg.Wait()

	return &Profile{Start: start, End: end, Samples: samples}, nil
}

func sampleAt(q Querier, x float64) Sample {
	p, err := q.BeamParametersAt(x)
	if err != nil {
		return Sample{Position: x, Radius: math.NaN(), Curvature: math.NaN()}
	}
	return Sample{Position: x, Radius: p.Radius, Curvature: p.RadiusOfCurvature, Defined: true}
}

// Positions returns the sample positions.
func (p *Profile) Positions() []float64 {
	out := make([]float64, len(p.Samples))
	for i, s := range p.Samples {
		out[i] = s.Position
	}
	return out
}

// Radii returns the sampled radii, NaN where undefined.
func (p *Profile) Radii() []float64 {
	out := make([]float64, len(p.Samples))
	for i, s := range p.Samples {
		out[i] = s.Radius
	}
	return out
}

// Defined returns only the samples with defined parameters.
func (p *Profile) Defined() []Sample {
	out := make([]Sample, 0, len(p.Samples))
	for _, s := range p.Samples {
		if s.Defined {
			out = append(out, s)
		}
	}
	return out
}

// MinRadius returns the narrowest defined sample. ok is false when no sample
// is defined.
func (p *Profile) MinRadius() (s Sample, ok bool) {
	defined := p.Defined()
	if len(defined) == 0 {
		return Sample{}, false
	}
	radii := make([]float64, len(defined))
	for i, d := range defined {
		radii[i] = d.Radius
	}
	return defined[floats.MinIdx(radii)], true
}

// MaxRadius returns the widest defined sample.
func (p *Profile) MaxRadius() (s Sample, ok bool) {
	defined := p.Defined()
	if len(defined) == 0 {
		return Sample{}, false
	}
	radii := make([]float64, len(defined))
	for i, d := range defined {
		radii[i] = d.Radius
	}
	return defined[floats.MaxIdx(radii)], true
}
