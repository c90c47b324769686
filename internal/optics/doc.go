// Package optics provides the algebra used to propagate Gaussian beams.
//
//   - [Complex]: immutable complex number used for the beam parameter q
//   - [Matrix]: immutable 2x2 ray-transfer (ABCD) matrix
//
// Matrices compose right to left: P.Mul(Q) applies Q to the beam first.
//
// # Example
//
//	m := optics.LensMatrix(100).Mul(optics.FreeSpace(50))
//	q, err := m.TransformQ(optics.New(0, 4027.6))
//
// Division by zero is reported as [ErrDivideByZero] rather than producing
// infinities, so callers can treat the point as undefined.
package optics
