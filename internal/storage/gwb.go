package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/san-kum/beamsim/internal/bench"
	"github.com/san-kum/beamsim/internal/element"
)

// Extension is the file extension of saved benches.
const Extension = ".gwb"

// Record tags in a bench file.
const (
	tagSource      = "Source"
	tagPOI         = "POI"
	tagLens        = "Lens"
	tagTunableLens = "TunableLens"
)

// ErrFormat is wrapped by every ParseError.
var ErrFormat = errors.New("storage: malformed bench file")

// ParseError locates a decoding failure. Line is 1-based.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("storage: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrFormat, e.Err}
}

// Encode writes the beam settings and elements in bench file format.
func Encode(w io.Writer, beam bench.Beam, elems []element.Element) error {
	bw := bufio.NewWriter(w)
	lines := []string{formatFloat(beam.Wavelength), formatFloat(beam.Waist)}
	for _, e := range elems {
		lines = append(lines, "")
		rec, err := record(e)
		if err != nil {
			return err
		}
		lines = append(lines, rec...)
	}
	for _, l := range lines {
		if _, err := bw.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func record(e element.Element) ([]string, error) {
	switch e.Kind {
	case element.Source:
		return []string{tagSource, element.SourceName, formatFloat(e.Position)}, nil
	case element.PointOfInterest:
		return []string{tagPOI, e.Name, formatFloat(e.Position)}, nil
	case element.Lens:
		return []string{tagLens, e.Name, formatFloat(e.Position), formatFloat(e.FocalLength)}, nil
	case element.TunableLens:
		if e.Range == nil {
			return nil, fmt.Errorf("storage: tunable lens %q has no focal range", e.Name)
		}
		return []string{
			tagTunableLens, e.Name, formatFloat(e.Position), formatFloat(e.FocalLength),
			formatFloat(e.Range.Min), formatFloat(e.Range.Max),
		}, nil
	}
	return nil, fmt.Errorf("storage: %w: %v", element.ErrUnknownKind, e.Kind)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Decode reads a bench file. Element records are validated individually;
// bench-level invariants are left to bench.Replace.
func Decode(r io.Reader) (bench.Beam, []element.Element, error) {
	d := &decoder{sc: bufio.NewScanner(r)}

	var beam bench.Beam
	var err error
	if beam.Wavelength, err = d.float("wavelength"); err != nil {
		return bench.Beam{}, nil, err
	}
	if beam.Waist, err = d.float("waist"); err != nil {
		return bench.Beam{}, nil, err
	}

	var elems []element.Element
	for {
		sep, ok, err := d.next()
		if err != nil {
			return bench.Beam{}, nil, err
		}
		if !ok {
			break
		}
		if strings.TrimSpace(sep) != "" {
			return bench.Beam{}, nil, d.errorf("expected blank line, got %q", sep)
		}
		e, err := d.element()
		if err == io.EOF {
			// trailing blank line
			break
		}
		if err != nil {
			return bench.Beam{}, nil, err
		}
		elems = append(elems, e)
	}
	return beam, elems, nil
}

type decoder struct {
	sc   *bufio.Scanner
	line int
}

func (d *decoder) next() (string, bool, error) {
	if !d.sc.Scan() {
		if err := d.sc.Err(); err != nil {
			return "", false, &ParseError{Line: d.line + 1, Err: err}
		}
		return "", false, nil
	}
	d.line++
	return strings.TrimRight(d.sc.Text(), "\r"), true, nil
}

func (d *decoder) text(field string) (string, error) {
	s, ok, err := d.next()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &ParseError{Line: d.line + 1, Err: fmt.Errorf("missing %s: %w", field, io.ErrUnexpectedEOF)}
	}
	return s, nil
}

func (d *decoder) float(field string) (float64, error) {
	s, err := d.text(field)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, d.errorf("%s: %w", field, err)
	}
	return v, nil
}

func (d *decoder) errorf(format string, args ...any) error {
	return &ParseError{Line: d.line, Err: fmt.Errorf(format, args...)}
}

func (d *decoder) element() (element.Element, error) {
	tag, ok, err := d.next()
	if err != nil {
		return element.Element{}, err
	}
	if !ok {
		return element.Element{}, io.EOF
	}
	tagLine := d.line

	var e element.Element
	switch strings.TrimSpace(tag) {
	case tagSource:
		if _, err := d.text("name"); err != nil {
			return element.Element{}, err
		}
		pos, err := d.float("position")
		if err != nil {
			return element.Element{}, err
		}
		return element.NewSource(pos), nil
	case tagPOI:
		name, pos, err := d.named()
		if err != nil {
			return element.Element{}, err
		}
		e, err = element.NewPointOfInterest(name, pos)
		if err != nil {
			return element.Element{}, &ParseError{Line: tagLine, Err: err}
		}
	case tagLens:
		name, pos, err := d.named()
		if err != nil {
			return element.Element{}, err
		}
		f, err := d.float("focal length")
		if err != nil {
			return element.Element{}, err
		}
		e, err = element.NewLens(name, pos, f)
		if err != nil {
			return element.Element{}, &ParseError{Line: tagLine, Err: err}
		}
	case tagTunableLens:
		name, pos, err := d.named()
		if err != nil {
			return element.Element{}, err
		}
		var f [3]float64
		for i, field := range []string{"focal length", "minimum focal length", "maximum focal length"} {
			if f[i], err = d.float(field); err != nil {
				return element.Element{}, err
			}
		}
		e, err = element.NewTunableLens(name, pos, f[0], f[1], f[2])
		if err != nil {
			return element.Element{}, &ParseError{Line: tagLine, Err: err}
		}
	default:
		return element.Element{}, d.errorf("unknown element tag %q", tag)
	}
	return e, nil
}

func (d *decoder) named() (string, float64, error) {
	name, err := d.text("name")
	if err != nil {
		return "", 0, err
	}
	pos, err := d.float("position")
	if err != nil {
		return "", 0, err
	}
	return name, pos, nil
}

// LoadInto decodes r and replaces the contents of b. On any error b is
// left unchanged.
func LoadInto(b *bench.Bench, r io.Reader) error {
	beam, elems, err := Decode(r)
	if err != nil {
		return err
	}
	return b.Replace(beam, elems)
}

// Save encodes the current contents of b.
func Save(w io.Writer, b *bench.Bench) error {
	snap := b.Snapshot()
	return Encode(w, snap.Beam(), snap.Elements())
}
