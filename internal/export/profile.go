// Package export renders beam profiles to image and document files.
package export

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/beamsim/internal/analysis"
	"github.com/san-kum/beamsim/internal/element"
)

var (
	ErrUnsupportedFormat = errors.New("export: unsupported format")
	ErrEmptyProfile      = errors.New("export: profile has no defined samples")
)

// Formats lists the accepted output formats.
var Formats = []string{"png", "svg", "pdf"}

const (
	defaultWidth  = 8 * vg.Inch
	defaultHeight = 4 * vg.Inch
)

// Options control the rendered figure. Zero values pick defaults.
type Options struct {
	Title  string
	Width  vg.Length
	Height vg.Length
}

// Profile writes the beam envelope to path. The format follows the file
// extension.
func Profile(path string, prof *analysis.Profile, elems []element.Element, opts Options) error {
	if _, err := FormatOf(path); err != nil {
		return err
	}
	p, err := build(prof, elems, opts)
	if err != nil {
		return err
	}
	w, h := opts.size()
	return p.Save(w, h, path)
}

// Render writes the figure in the given format to w.
func Render(w io.Writer, format string, prof *analysis.Profile, elems []element.Element, opts Options) error {
	format = strings.ToLower(format)
	if !supported(format) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	p, err := build(prof, elems, opts)
	if err != nil {
		return err
	}
	width, height := opts.size()
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// FormatOf returns the output format implied by path's extension.
func FormatOf(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !supported(ext) {
		return "", fmt.Errorf("%w: %q (want one of %s)", ErrUnsupportedFormat, filepath.Ext(path), strings.Join(Formats, ", "))
	}
	return ext, nil
}

func supported(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

func build(prof *analysis.Profile, elems []element.Element, opts Options) (*plot.Plot, error) {
	upper, lower := envelope(prof)
	if len(upper) == 0 {
		return nil, ErrEmptyProfile
	}

	p := plot.New()
	p.Title.Text = opts.Title
	if p.Title.Text == "" {
		p.Title.Text = "Beam profile"
	}
	p.X.Label.Text = "position (mm)"
	p.Y.Label.Text = "beam radius (mm)"
	p.Add(plotter.NewGrid())

	beamColor := plotutil.Color(0)
	for i := range upper {
		for j, seg := range []plotter.XYs{upper[i], lower[i]} {
			line, err := plotter.NewLine(seg)
			if err != nil {
				return nil, err
			}
			line.LineStyle.Color = beamColor
			line.LineStyle.Width = vg.Points(1.5)
			p.Add(line)
			if i == 0 && j == 0 {
				p.Legend.Add("±w(z)", line)
			}
		}
	}

	peak := 0.0
	for _, seg := range upper {
		for _, pt := range seg {
			peak = math.Max(peak, pt.Y)
		}
	}
	if err := addMarkers(p, elems, prof, peak); err != nil {
		return nil, err
	}
	return p, nil
}

// envelope splits the profile into runs of defined samples, since a line
// cannot cross an undefined point.
func envelope(prof *analysis.Profile) (upper, lower []plotter.XYs) {
	var up, down plotter.XYs
	flush := func() {
		if len(up) > 0 {
			upper = append(upper, up)
			lower = append(lower, down)
		}
		up, down = nil, nil
	}
	for _, s := range prof.Samples {
		if !s.Defined || math.IsNaN(s.Radius) || math.IsInf(s.Radius, 0) {
			flush()
			continue
		}
		up = append(up, plotter.XY{X: s.Position, Y: s.Radius})
		down = append(down, plotter.XY{X: s.Position, Y: -s.Radius})
	}
	flush()
	return upper, lower
}

func addMarkers(p *plot.Plot, elems []element.Element, prof *analysis.Profile, peak float64) error {
	var labels plotter.XYLabels
	for _, e := range elems {
		if e.Position < prof.Start || e.Position > prof.End {
			continue
		}
		marker, err := plotter.NewLine(plotter.XYs{{X: e.Position, Y: -peak}, {X: e.Position, Y: peak}})
		if err != nil {
			return err
		}
		marker.LineStyle.Color = markerColor(e.Kind)
		marker.LineStyle.Dashes = plotutil.Dashes(1)
		p.Add(marker)

		labels.XYs = append(labels.XYs, plotter.XY{X: e.Position, Y: peak})
		labels.Labels = append(labels.Labels, e.Name)
	}
	if len(labels.Labels) == 0 {
		return nil
	}
	l, err := plotter.NewLabels(labels)
	if err != nil {
		return err
	}
	p.Add(l)
	return nil
}

func markerColor(k element.Kind) color.Color {
	switch k {
	case element.Lens:
		return plotutil.Color(1)
	case element.TunableLens:
		return plotutil.Color(2)
	case element.PointOfInterest:
		return plotutil.Color(3)
	}
	return color.Gray{Y: 128}
}
