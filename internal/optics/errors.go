package optics

import "errors"

// ErrDivideByZero is returned by divisions whose divisor is exactly zero.
var ErrDivideByZero = errors.New("optics: divide by zero")
