package optics

import "fmt"

// Matrix is a ray-transfer matrix [[A, B], [C, D]].
type Matrix struct {
	A, B, C, D float64
}

func NewMatrix(a, b, c, d float64) Matrix {
	return Matrix{A: a, B: b, C: c, D: d}
}

func Identity() Matrix {
	return Matrix{A: 1, D: 1}
}

// FreeSpace propagates over length.
func FreeSpace(length float64) Matrix {
	return Matrix{A: 1, B: length, D: 1}
}

// LensMatrix is a thin lens of the given focal length. A zero focal length
// yields an infinite C entry; callers validate focal lengths beforehand.
func LensMatrix(focalLength float64) Matrix {
	return Matrix{A: 1, C: -1 / focalLength, D: 1}
}

// Mul returns m·o. The result applies o first, then m.
func (m Matrix) Mul(o Matrix) Matrix {
	return Matrix{
		A: m.A*o.A + m.B*o.C,
		B: m.A*o.B + m.B*o.D,
		C: m.C*o.A + m.D*o.C,
		D: m.C*o.B + m.D*o.D,
	}
}

func (m Matrix) Scale(v float64) Matrix {
	return Matrix{A: m.A * v, B: m.B * v, C: m.C * v, D: m.D * v}
}

// Equal compares entries exactly.
func (m Matrix) Equal(o Matrix) bool {
	return m.A == o.A && m.B == o.B && m.C == o.C && m.D == o.D
}

func (m Matrix) Det() float64 {
	return m.A*m.D - m.B*m.C
}

// TransformQ applies the Möbius map q -> (A·q + B) / (C·q + D).
func (m Matrix) TransformQ(q Complex) (Complex, error) {
	num := q.Scale(m.A).AddReal(m.B)
	den := q.Scale(m.C).AddReal(m.D)
	out, err := num.Div(den)
	if err != nil {
		return Complex{}, fmt.Errorf("transform q=%v: %w", q, err)
	}
	return out, nil
}

func (m Matrix) String() string {
	return fmt.Sprintf("[[%g,%g][%g,%g]]", m.A, m.B, m.C, m.D)
}
