package element

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/beamsim/internal/optics"
)

// SourceName is the fixed name of the laser source.
const SourceName = "Source"

type Kind int

const (
	Source Kind = iota
	Lens
	TunableLens
	PointOfInterest
)

var kindNames = map[Kind]string{
	Source:          "Source",
	Lens:            "Lens",
	TunableLens:     "Tunable Lens",
	PointOfInterest: "POI",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the CLI spellings of each kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "source":
		return Source, nil
	case "lens":
		return Lens, nil
	case "tunable", "tunablelens", "tunable_lens", "tunable lens":
		return TunableLens, nil
	case "poi", "point", "pointofinterest":
		return PointOfInterest, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// FocalRange holds the focal lengths reached at the two extremes of a
// tunable lens's control input.
type FocalRange struct {
	Min float64
	Max float64
}

// Element is one optic on the bench. Range is set only for TunableLens.
type Element struct {
	Kind        Kind
	Name        string
	Position    float64
	FocalLength float64
	Range       *FocalRange
}

func NewSource(position float64) Element {
	return Element{Kind: Source, Name: SourceName, Position: position}
}

func NewLens(name string, position, focalLength float64) (Element, error) {
	if err := checkPosition(position); err != nil {
		return Element{}, err
	}
	if err := CheckFocalLength(focalLength); err != nil {
		return Element{}, err
	}
	return Element{Kind: Lens, Name: strings.TrimSpace(name), Position: position, FocalLength: focalLength}, nil
}

// NewTunableLens builds a tunable lens starting at focalLength. The current
// focal length must lie inside the range; see Classify.
func NewTunableLens(name string, position, focalLength, minFocalLength, maxFocalLength float64) (Element, error) {
	if err := checkPosition(position); err != nil {
		return Element{}, err
	}
	for _, f := range []float64{focalLength, minFocalLength, maxFocalLength} {
		if err := CheckFocalLength(f); err != nil {
			return Element{}, err
		}
	}
	if check := Classify(minFocalLength, maxFocalLength, focalLength); check != RangeOK {
		return Element{}, &RangeError{Check: check, Min: minFocalLength, Max: maxFocalLength, Focal: focalLength}
	}
	return Element{
		Kind:        TunableLens,
		Name:        strings.TrimSpace(name),
		Position:    position,
		FocalLength: focalLength,
		Range:       &FocalRange{Min: minFocalLength, Max: maxFocalLength},
	}, nil
}

func NewPointOfInterest(name string, position float64) (Element, error) {
	if err := checkPosition(position); err != nil {
		return Element{}, err
	}
	return Element{Kind: PointOfInterest, Name: strings.TrimSpace(name), Position: position}, nil
}

// IsLens reports whether the element refracts the beam.
func (e Element) IsLens() bool {
	return e.Kind == Lens || e.Kind == TunableLens
}

// Matrix returns the element's own transfer matrix.
func (e Element) Matrix() optics.Matrix {
	switch e.Kind {
	case Lens, TunableLens:
		return optics.LensMatrix(e.FocalLength)
	case Source, PointOfInterest:
		return optics.Identity()
	}
	panic(fmt.Sprintf("element: unhandled kind %v", e.Kind))
}

// Clone returns a copy that shares no memory with e.
func (e Element) Clone() Element {
	if e.Range != nil {
		r := *e.Range
		e.Range = &r
	}
	return e
}

// Validate checks the per-element invariants. Bench-level invariants
// (spacing, names) are checked by the bench.
func (e Element) Validate() error {
	if err := checkPosition(e.Position); err != nil {
		return err
	}
	switch e.Kind {
	case Source, PointOfInterest:
		if e.Range != nil {
			return fmt.Errorf("element %q: %v carries a focal range", e.Name, e.Kind)
		}
		return nil
	case Lens:
		if e.Range != nil {
			return fmt.Errorf("element %q: fixed lens carries a focal range", e.Name)
		}
		return CheckFocalLength(e.FocalLength)
	case TunableLens:
		if e.Range == nil {
			return fmt.Errorf("element %q: tunable lens without focal range", e.Name)
		}
		for _, f := range []float64{e.FocalLength, e.Range.Min, e.Range.Max} {
			if err := CheckFocalLength(f); err != nil {
				return fmt.Errorf("element %q: %w", e.Name, err)
			}
		}
		if check := Classify(e.Range.Min, e.Range.Max, e.FocalLength); check != RangeOK {
			return &RangeError{Check: check, Min: e.Range.Min, Max: e.Range.Max, Focal: e.FocalLength}
		}
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnknownKind, e.Kind)
}

func (e Element) String() string {
	switch e.Kind {
	case Lens:
		return fmt.Sprintf("%s %q @ %g f=%g", e.Kind, e.Name, e.Position, e.FocalLength)
	case TunableLens:
		return fmt.Sprintf("%s %q @ %g f=%g [%g, %g]", e.Kind, e.Name, e.Position, e.FocalLength, e.Range.Min, e.Range.Max)
	default:
		return fmt.Sprintf("%s %q @ %g", e.Kind, e.Name, e.Position)
	}
}

// CheckFocalLength rejects zero and non-finite focal lengths.
func CheckFocalLength(f float64) error {
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: got %g", ErrZeroFocalLength, f)
	}
	return nil
}

func checkPosition(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return fmt.Errorf("%w: got %g", ErrInvalidPosition, p)
	}
	return nil
}
