package element

import "errors"

var (
	// ErrZeroFocalLength indicates a focal length of zero, NaN or ±Inf.
	ErrZeroFocalLength = errors.New("element: focal length must be finite and nonzero")

	// ErrInvalidPosition indicates a NaN or infinite position.
	ErrInvalidPosition = errors.New("element: position must be finite")

	// ErrUnknownKind indicates a kind name that is not one of the four variants.
	ErrUnknownKind = errors.New("element: unknown kind")
)
