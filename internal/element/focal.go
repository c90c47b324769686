package element

import "fmt"

// RangeCheck classifies a tunable lens configuration.
type RangeCheck int

const (
	RangeOK RangeCheck = iota
	// RangeInfinityCrossing: the range passes through zero power. Always rejected.
	RangeInfinityCrossing
	RangeOutsideMinPower
	RangeOutsideMaxPower
)

func (c RangeCheck) String() string {
	switch c {
	case RangeOK:
		return "ok"
	case RangeInfinityCrossing:
		return "infinity crossing"
	case RangeOutsideMinPower:
		return "outside min focal power"
	case RangeOutsideMaxPower:
		return "outside max focal power"
	}
	return fmt.Sprintf("RangeCheck(%d)", int(c))
}

// Power converts a focal length in mm to focal power in diopters.
func Power(focalLength float64) float64 {
	return 1000.0 / focalLength
}

// FocalLength converts focal power in diopters back to mm.
func FocalLength(power float64) float64 {
	return 1000.0 / power
}

// Classify compares the current focal length against the range reached at
// minimum and maximum control input, in focal power.
func Classify(minFocalLength, maxFocalLength, focalLength float64) RangeCheck {
	minPower := Power(minFocalLength)
	maxPower := Power(maxFocalLength)
	power := Power(focalLength)

	switch {
	case minPower > maxPower:
		return RangeInfinityCrossing
	case power < minPower:
		return RangeOutsideMinPower
	case power > maxPower:
		return RangeOutsideMaxPower
	}
	return RangeOK
}

// Clamp moves focalLength onto the end of the range it falls outside of. The
// check is returned as well; a range through infinity is left unclamped.
func Clamp(minFocalLength, maxFocalLength, focalLength float64) (float64, RangeCheck) {
	check := Classify(minFocalLength, maxFocalLength, focalLength)
	switch check {
	case RangeOutsideMinPower:
		return minFocalLength, check
	case RangeOutsideMaxPower:
		return maxFocalLength, check
	}
	return focalLength, check
}

// RangeError reports a focal length configuration rejected by Classify.
type RangeError struct {
	Check RangeCheck
	Min   float64
	Max   float64
	Focal float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("element: focal length %g with range [%g, %g]: %s", e.Focal, e.Min, e.Max, e.Check)
}
