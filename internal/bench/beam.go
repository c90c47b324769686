package bench

import (
	"fmt"
	"math"

	"github.com/san-kum/beamsim/internal/optics"
)

const (
	DefaultWavelength = 780.0 // nm
	DefaultWaist      = 1.0   // mm

	nmToMM = 1e-6
)

// Beam describes the collimated input beam.
type Beam struct {
	Wavelength float64 // nm
	Waist      float64 // mm
}

func DefaultBeam() Beam {
	return Beam{Wavelength: DefaultWavelength, Waist: DefaultWaist}
}

func (b Beam) Validate() error {
	for _, v := range []float64{b.Wavelength, b.Waist} {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: wavelength=%g waist=%g", ErrInvalidBeam, b.Wavelength, b.Waist)
		}
	}
	return nil
}

// QIn is the beam parameter at the source, i·π·w0²/λ.
func (b Beam) QIn() optics.Complex {
	return optics.New(0, math.Pi*b.Waist*b.Waist/b.wavelengthMM())
}

// RayleighRange is the distance over which the collimated beam stays near w0.
func (b Beam) RayleighRange() float64 {
	return b.QIn().Im()
}

func (b Beam) wavelengthMM() float64 {
	return b.Wavelength * nmToMM
}

// Params are the beam parameters at one point.
type Params struct {
	Position          float64
	RadiusOfCurvature float64
	Radius            float64
}

// Divergent reports whether the wavefront is flat, i.e. the point is a waist.
func (p Params) Divergent() bool {
	return math.IsInf(p.RadiusOfCurvature, 0)
}

func outputQ(t optics.Matrix, beam Beam) (optics.Complex, error) {
	q, err := t.TransformQ(beam.QIn())
	if err != nil {
		return optics.Complex{}, err
	}
	return q.Reciprocal()
}

func beamParameters(t optics.Matrix, beam Beam, point float64) (Params, error) {
	inv, err := outputQ(t, beam)
	if err != nil {
		return Params{}, fmt.Errorf("%w at %g: %w", ErrUndefined, point, err)
	}

	p := Params{
		Position:          point,
		RadiusOfCurvature: 1.0 / inv.Re(),
	}
	if !(inv.Im() < 0) {
		return p, fmt.Errorf("%w at %g: Im(1/q)=%g", ErrUndefined, point, inv.Im())
	}
	p.Radius = math.Sqrt(-beam.wavelengthMM() / (math.Pi * inv.Im()))
	if math.IsNaN(p.Radius) || math.IsInf(p.Radius, 0) {
		return p, fmt.Errorf("%w at %g: radius=%g", ErrUndefined, point, p.Radius)
	}
	return p, nil
}

// curvature is the radius of curvature alone, NaN when it cannot be computed.
func curvature(t optics.Matrix, beam Beam) float64 {
	inv, err := outputQ(t, beam)
	if err != nil {
		return math.NaN()
	}
	return 1.0 / inv.Re()
}
