package bench

import (
	"fmt"

	"github.com/san-kum/beamsim/internal/element"
)

// SetFocalLength sets the current focal length of a lens and returns the
// value applied. On a tunable lens a value outside the range is clamped to
// the violated bound; a range through infinity is rejected.
func (b *Bench) SetFocalLength(name string, focalLength float64) (float64, error) {
	if err := element.CheckFocalLength(focalLength); err != nil {
		return 0, b.reject("set focal length", name, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i, err := b.lens(name)
	if err != nil {
		return 0, b.reject("set focal length", name, err)
	}
	next := cloneAll(b.elements)
	e := &next[i]
	if e.Kind == element.TunableLens {
		var check element.RangeCheck
		focalLength, check = element.Clamp(e.Range.Min, e.Range.Max, focalLength)
		if check == element.RangeInfinityCrossing {
			return 0, b.reject("set focal length", name, ErrInfinityCrossing)
		}
	}
	e.FocalLength = focalLength
	b.commit(next)
	b.logger.Debug("focal length set", "name", name, "f", focalLength)
	return focalLength, nil
}

// SetMinFocalLength changes the focal length reached at minimum control
// input. If the current focal length falls below the new minimum power it is
// clamped to it. Returns the current focal length after the change.
func (b *Bench) SetMinFocalLength(name string, minFocalLength float64) (float64, error) {
	return b.setRange(name, "set min focal length", func(r element.FocalRange) element.FocalRange {
		r.Min = minFocalLength
		return r
	})
}

// SetMaxFocalLength is the counterpart of SetMinFocalLength for maximum
// control input.
func (b *Bench) SetMaxFocalLength(name string, maxFocalLength float64) (float64, error) {
	return b.setRange(name, "set max focal length", func(r element.FocalRange) element.FocalRange {
		r.Max = maxFocalLength
		return r
	})
}

// SetFocalRange changes both ends of a tunable lens's range in one edit, so
// only the final range has to be valid.
func (b *Bench) SetFocalRange(name string, minFocalLength, maxFocalLength float64) (float64, error) {
	return b.setRange(name, "set focal range", func(r element.FocalRange) element.FocalRange {
		r.Min, r.Max = minFocalLength, maxFocalLength
		return r
	})
}

func (b *Bench) setRange(name, op string, edit func(element.FocalRange) element.FocalRange) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, err := b.tunable(name)
	if err != nil {
		return 0, b.reject(op, name, err)
	}
	next := cloneAll(b.elements)
	e := &next[i]
	r := edit(*e.Range)
	for _, f := range []float64{r.Min, r.Max} {
		if err := element.CheckFocalLength(f); err != nil {
			return 0, b.reject(op, name, err)
		}
	}

	switch element.Classify(r.Min, r.Max, e.FocalLength) {
	case element.RangeInfinityCrossing:
		return 0, b.reject(op, name, ErrInfinityCrossing)
	case element.RangeOutsideMinPower:
		e.FocalLength = r.Min
	case element.RangeOutsideMaxPower:
		e.FocalLength = r.Max
	}
	*e.Range = r
	b.commit(next)
	b.logger.Debug("focal range set", "name", name, "min", r.Min, "max", r.Max, "f", e.FocalLength)
	return e.FocalLength, nil
}

// Tune sets a tunable lens to the focal power a fraction of the way from
// its minimum to its maximum power.
func (b *Bench) Tune(name string, fraction float64) (float64, error) {
	if !(fraction >= 0 && fraction <= 1) {
		return 0, b.reject("tune", name, fmt.Errorf("%w: %g", ErrInvalidFraction, fraction))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i, err := b.tunable(name)
	if err != nil {
		return 0, b.reject("tune", name, err)
	}
	next := cloneAll(b.elements)
	e := &next[i]
	switch fraction {
	case 0:
		e.FocalLength = e.Range.Min
	case 1:
		e.FocalLength = e.Range.Max
	default:
		minPower := element.Power(e.Range.Min)
		maxPower := element.Power(e.Range.Max)
		f := element.FocalLength(minPower + (maxPower-minPower)*fraction)
		// a range from diverging to converging passes through a flat lens
		if err := element.CheckFocalLength(f); err != nil {
			return 0, b.reject("tune", name, fmt.Errorf("%w at fraction %g: %w", ErrFlatTuning, fraction, err))
		}
		e.FocalLength = f
	}
	b.commit(next)
	b.logger.Debug("lens tuned", "name", name, "fraction", fraction, "f", e.FocalLength)
	return e.FocalLength, nil
}

// TuningFraction reports where a tunable lens sits between its minimum (0)
// and maximum (1) focal power.
func TuningFraction(e element.Element) (float64, bool) {
	if e.Kind != element.TunableLens || e.Range == nil {
		return 0, false
	}
	minPower := element.Power(e.Range.Min)
	maxPower := element.Power(e.Range.Max)
	if maxPower == minPower {
		return 0, true
	}
	return (element.Power(e.FocalLength) - minPower) / (maxPower - minPower), true
}

func (b *Bench) lens(name string) (int, error) {
	i, err := b.mutable(name)
	if err != nil {
		return -1, err
	}
	if !b.elements[i].IsLens() {
		return -1, fmt.Errorf("%w: %q is a %v", ErrNotLens, name, b.elements[i].Kind)
	}
	return i, nil
}

func (b *Bench) tunable(name string) (int, error) {
	i, err := b.mutable(name)
	if err != nil {
		return -1, err
	}
	if b.elements[i].Kind != element.TunableLens {
		return -1, fmt.Errorf("%w: %q is a %v", ErrNotTunable, name, b.elements[i].Kind)
	}
	return i, nil
}
