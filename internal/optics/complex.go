package optics

import (
	"fmt"
	"math"
)

// Complex is an immutable complex number re + i·im.
type Complex struct {
	re, im float64
}

func New(re, im float64) Complex {
	return Complex{re: re, im: im}
}

// Real returns re + 0i.
func Real(re float64) Complex {
	return Complex{re: re}
}

// I returns the imaginary unit.
func I() Complex {
	return Complex{im: 1}
}

func (c Complex) Re() float64 { return c.re }
func (c Complex) Im() float64 { return c.im }

func (c Complex) Modulus() float64 {
	return math.Sqrt(c.modulusSquared())
}

func (c Complex) modulusSquared() float64 {
	return c.re*c.re + c.im*c.im
}

func (c Complex) Conjugate() Complex {
	return Complex{re: c.re, im: -c.im}
}

func (c Complex) Add(o Complex) Complex {
	return Complex{re: c.re + o.re, im: c.im + o.im}
}

func (c Complex) AddReal(v float64) Complex {
	return Complex{re: c.re + v, im: c.im}
}

func (c Complex) Sub(o Complex) Complex {
	return Complex{re: c.re - o.re, im: c.im - o.im}
}

func (c Complex) Mul(o Complex) Complex {
	return Complex{
		re: c.re*o.re - c.im*o.im,
		im: c.im*o.re + c.re*o.im,
	}
}

func (c Complex) Scale(v float64) Complex {
	return Complex{re: c.re * v, im: c.im * v}
}

// Div returns c / o, or ErrDivideByZero when o is 0+0i.
func (c Complex) Div(o Complex) (Complex, error) {
	r, err := o.Reciprocal()
	if err != nil {
		return Complex{}, err
	}
	return c.Mul(r), nil
}

// DivReal returns c / v, or ErrDivideByZero when v is zero.
func (c Complex) DivReal(v float64) (Complex, error) {
	if v == 0 {
		return Complex{}, ErrDivideByZero
	}
	return Complex{re: c.re / v, im: c.im / v}, nil
}

// Reciprocal returns 1 / c computed as conj(c) / |c|².
func (c Complex) Reciprocal() (Complex, error) {
	return c.Conjugate().DivReal(c.modulusSquared())
}

func (c Complex) IsReal() bool {
	return c.im == 0
}

func (c Complex) String() string {
	return fmt.Sprintf("%g%+gi", c.re, c.im)
}
