package bench

import "errors"

// Rejections of bench mutations.
var (
	// ErrTooClose indicates a position within MinSeparation of another element.
	ErrTooClose = errors.New("bench: too close to another element")

	// ErrNameTaken indicates a trimmed name already used by another element.
	ErrNameTaken = errors.New("bench: name already in use")

	ErrEmptyName = errors.New("bench: name is empty")

	// ErrBehindSource indicates a position at or left of the source.
	ErrBehindSource = errors.New("bench: element must sit after the source")

	// ErrSourceImmutable indicates an attempt to remove, move or rename the source.
	ErrSourceImmutable = errors.New("bench: source cannot be modified")

	// ErrSourceCount indicates an element list without exactly one source.
	ErrSourceCount = errors.New("bench: bench needs exactly one source")

	ErrNotFound = errors.New("bench: no such element")

	ErrNotLens = errors.New("bench: element is not a lens")

	ErrNotTunable = errors.New("bench: element is not a tunable lens")

	// ErrInfinityCrossing indicates a tunable range through zero focal power.
	ErrInfinityCrossing = errors.New("bench: focal range crosses infinity")

	ErrInvalidBeam = errors.New("bench: wavelength and waist must be positive and finite")

	ErrInvalidFraction = errors.New("bench: tuning fraction must be within [0, 1]")

	// ErrFlatTuning indicates a tuning fraction landing on zero focal power.
	ErrFlatTuning = errors.New("bench: tuning reaches zero focal power")
)

// Query outcomes.
var (
	// ErrNoBeam indicates a point left of the source plane.
	ErrNoBeam = errors.New("bench: no beam at this point")

	// ErrUndefined indicates the beam parameters are not defined at a point.
	ErrUndefined = errors.New("bench: beam parameters undefined at this point")

	ErrNoWaist = errors.New("bench: no waist found")
)
