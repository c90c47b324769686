package viz

import (
	"math"
	"strings"

	"github.com/san-kum/beamsim/internal/analysis"
	"github.com/san-kum/beamsim/internal/element"
)

// SideView draws the beam seen from the side: the ±radius envelope about
// the optical axis, with a dotted column at every element inside the
// profile's range.
type SideView struct {
	canvas     *Canvas
	start, end float64
	scale      float64 // dots per mm of radius
}

// NewSideView renders prof onto a w x h cell canvas.
func NewSideView(w, h int, prof *analysis.Profile, elems []element.Element) *SideView {
	v := &SideView{canvas: NewCanvas(w, h), start: prof.Start, end: prof.End}

	peak := 0.0
	for _, s := range prof.Defined() {
		peak = math.Max(peak, s.Radius)
	}
	_, dotsY := v.canvas.Dots()
	if peak > 0 {
		v.scale = float64(dotsY/2-1) / peak
	}

	for _, e := range elems {
		if x, ok := v.column(e.Position); ok {
			gap := 3
			if e.IsLens() {
				gap = 1
			}
			v.canvas.Column(x, gap)
		}
	}
	v.drawEnvelope(prof)
	return v
}

func (v *SideView) drawEnvelope(prof *analysis.Profile) {
	_, dotsY := v.canvas.Dots()
	axis := dotsY / 2
	prevX, prevR := 0, 0
	connected := false
	for _, s := range prof.Samples {
		x, ok := v.column(s.Position)
		if !ok || !s.Defined || math.IsNaN(s.Radius) || math.IsInf(s.Radius, 0) {
			connected = false
			continue
		}
		r := int(math.Round(s.Radius * v.scale))
		if connected {
			v.canvas.Line(prevX, axis-prevR, x, axis-r)
			v.canvas.Line(prevX, axis+prevR, x, axis+r)
		} else {
			v.canvas.Set(x, axis-r)
			v.canvas.Set(x, axis+r)
		}
		prevX, prevR, connected = x, r, true
	}
}

// column maps a bench position to a dot column.
func (v *SideView) column(pos float64) (int, bool) {
	if pos < v.start || pos > v.end || v.end <= v.start {
		return 0, false
	}
	dotsX, _ := v.canvas.Dots()
	return int(math.Round((pos - v.start) / (v.end - v.start) * float64(dotsX-1))), true
}

func (v *SideView) Canvas() *Canvas { return v.canvas }

func (v *SideView) String() string { return v.canvas.String() }

// Ruler returns a one-line label strip matching the canvas width, with the
// first letter of each element name under its column.
func (v *SideView) Ruler(elems []element.Element) string {
	row := []rune(strings.Repeat(" ", v.canvas.Width))
	for _, e := range elems {
		x, ok := v.column(e.Position)
		if !ok {
			continue
		}
		name := []rune(e.Name)
		if len(name) == 0 {
			continue
		}
		row[x/2] = name[0]
	}
	return string(row)
}
