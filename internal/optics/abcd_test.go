package optics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var sampleMatrices = []Matrix{
	NewMatrix(1, 2, 3, 4),
	NewMatrix(-2, 5, 0, 1),
	NewMatrix(3, -1, 7, 2),
	FreeSpace(8),
	LensMatrix(0.5),
	Identity(),
}

func TestMatrixAssociativity(t *testing.T) {
	for _, p := range sampleMatrices {
		for _, q := range sampleMatrices {
			for _, r := range sampleMatrices {
				left := p.Mul(q).Mul(r)
				right := p.Mul(q.Mul(r))
				if !left.Equal(right) {
					t.Errorf("(%v·%v)·%v = %v, %v·(%v·%v) = %v", p, q, r, left, p, q, r, right)
				}
			}
		}
	}
}

func TestMatrixIdentity(t *testing.T) {
	for _, m := range sampleMatrices {
		require.True(t, Identity().Mul(m).Equal(m), "I·%v", m)
		require.True(t, m.Mul(Identity()).Equal(m), "%v·I", m)
	}
}

func TestMatrixNonCommutative(t *testing.T) {
	l := LensMatrix(100)
	f := FreeSpace(50)
	require.False(t, l.Mul(f).Equal(f.Mul(l)))
}

func TestFreeSpaceComposition(t *testing.T) {
	lengths := []float64{0, 1, -3.5, 0.1, 0.2, 123.456, 1e-9, -1e6}
	for _, a := range lengths {
		for _, b := range lengths {
			got := FreeSpace(a).Mul(FreeSpace(b))
			if !got.Equal(FreeSpace(a + b)) {
				t.Errorf("FreeSpace(%g)·FreeSpace(%g) = %v, want %v", a, b, got, FreeSpace(a+b))
			}
		}
	}
	require.True(t, FreeSpace(0).Equal(Identity()))
}

func TestLensDeterminant(t *testing.T) {
	for _, f := range []float64{1, -1, 50, -150, 0.3, 1e-6, 1e9} {
		require.Equal(t, 1.0, LensMatrix(f).Det(), "f=%g", f)
	}
}

func TestMatrixScale(t *testing.T) {
	require.Equal(t, NewMatrix(2, 4, 6, 8), NewMatrix(1, 2, 3, 4).Scale(2))
}

func TestTransformQIdentity(t *testing.T) {
	qs := []Complex{New(0, 1), New(-3, 2), New(100, 4027.6), New(1e-3, -7), Real(5)}
	for _, q := range qs {
		out, err := Identity().TransformQ(q)
		require.NoError(t, err)
		require.Equal(t, q.Re(), out.Re())
		require.Equal(t, q.Im(), out.Im())
	}
}

func TestTransformQFreeSpace(t *testing.T) {
	out, err := FreeSpace(25).TransformQ(New(0, 10))
	require.NoError(t, err)
	require.InDelta(t, 25.0, out.Re(), 1e-12)
	require.InDelta(t, 10.0, out.Im(), 1e-12)
}

func TestTransformQZeroDenominator(t *testing.T) {
	// C·q + D = -1·1 + 1 = 0
	_, err := NewMatrix(1, 0, -1, 1).TransformQ(Real(1))
	require.ErrorIs(t, err, ErrDivideByZero)
}

func TestLensMatrixZeroFocalLength(t *testing.T) {
	m := LensMatrix(0)
	require.True(t, m.C < -1e300, "expected -Inf entry, got %v", m.C)
}
