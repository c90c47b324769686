package analysis

import (
	"errors"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/beamsim/internal/bench"
	"github.com/san-kum/beamsim/internal/element"
)

// SweepPoint is the waist found for one tuning fraction. Found is false when
// no waist exists in the search window at that setting, or when the lens is
// flat there (FocalLength is +Inf).
type SweepPoint struct {
	Fraction    float64
	FocalLength float64
	Waist       bench.Waist
	Found       bool
}

// TuningSweep tunes the named lens across steps fractions from 0 to 1 and
// searches [start, end] for a waist at each setting. Every step runs on its
// own copy of snap, so the caller's bench is never touched.
func TuningSweep(snap bench.Snapshot, lens string, steps int, start, end float64, opts bench.WaistOptions) ([]SweepPoint, error) {
	if steps < 2 {
		return nil, ErrSampleCount
	}
	elems := snap.Elements()
	fractions := floats.Span(make([]float64, steps), 0, 1)
	fractions[steps-1] = 1

	results := make([]SweepPoint, steps)
	errs := make([]error, steps)

	var wg sync.WaitGroup
	for i := range fractions {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = sweepStep(snap.Beam(), elems, lens, fractions[idx], start, end, opts)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func sweepStep(beam bench.Beam, elems []element.Element, lens string, fraction, start, end float64, opts bench.WaistOptions) (SweepPoint, error) {
	b := bench.New()
	if err := b.Replace(beam, elems); err != nil {
		return SweepPoint{}, err
	}
	f, err := b.Tune(lens, fraction)
	if errors.Is(err, bench.ErrFlatTuning) {
		return SweepPoint{Fraction: fraction, FocalLength: math.Inf(1)}, nil
	}
	if err != nil {
		return SweepPoint{}, err
	}
	pt := SweepPoint{Fraction: fraction, FocalLength: f}
	w, err := b.Snapshot().FindWaist(start, end, opts)
	switch {
	case errors.Is(err, bench.ErrNoWaist):
		return pt, nil
	case err != nil:
		return SweepPoint{}, err
	}
	pt.Waist = w
	pt.Found = true
	return pt, nil
}
