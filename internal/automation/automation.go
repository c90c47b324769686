package automation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/beamsim/internal/bench"
	"github.com/san-kum/beamsim/internal/element"
)

var ErrUnknownOp = errors.New("automation: unknown step op")

// Scenario is a scripted sequence of bench edits and queries.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one scenario action. Which fields are read depends on Op:
//
//	add        kind, name, position, focal, min_focal, max_focal
//	remove     name
//	move       name, position
//	rename     name, new_name
//	focal      name, focal
//	min_focal  name, focal
//	max_focal  name, focal
//	tune       name, fraction
//	beam       wavelength_nm, waist_mm
//	probe      position
//	waist      start, end
type Step struct {
	Op         string  `yaml:"op"`
	Kind       string  `yaml:"kind,omitempty"`
	Name       string  `yaml:"name,omitempty"`
	NewName    string  `yaml:"new_name,omitempty"`
	Position   float64 `yaml:"position,omitempty"`
	Focal      float64 `yaml:"focal,omitempty"`
	MinFocal   float64 `yaml:"min_focal,omitempty"`
	MaxFocal   float64 `yaml:"max_focal,omitempty"`
	Fraction   float64 `yaml:"fraction,omitempty"`
	Wavelength float64 `yaml:"wavelength_nm,omitempty"`
	Waist      float64 `yaml:"waist_mm,omitempty"`
	Start      float64 `yaml:"start,omitempty"`
	End        float64 `yaml:"end,omitempty"`
}

// StepResult records what a step did. Focal is set by focal edits and tune,
// Params by probe and Waist by waist. A waist search that finds nothing is
// not an error; Found is false.
type StepResult struct {
	Index  int
	Op     string
	Focal  float64
	Params *bench.Params
	Waist  *bench.Waist
	Found  bool
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// RunScenario applies every step to b in order and stops at the first
// failure. Steps already applied stay applied.
func RunScenario(ctx context.Context, scenario *Scenario, b *bench.Bench, opts bench.WaistOptions) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := runStep(b, step, opts)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
		res.Index = i + 1
		res.Op = step.Op
		results = append(results, res)
	}

	return results, nil
}

func runStep(b *bench.Bench, step Step, opts bench.WaistOptions) (StepResult, error) {
	var res StepResult
	var err error

	switch step.Op {
	case "add":
		var e element.Element
		e, err = buildElement(step)
		if err == nil {
			err = b.Add(e)
		}
	case "remove":
		err = b.Remove(step.Name)
	case "move":
		err = b.Move(step.Name, step.Position)
	case "rename":
		err = b.Rename(step.Name, step.NewName)
	case "focal":
		res.Focal, err = b.SetFocalLength(step.Name, step.Focal)
	case "min_focal":
		res.Focal, err = b.SetMinFocalLength(step.Name, step.Focal)
	case "max_focal":
		res.Focal, err = b.SetMaxFocalLength(step.Name, step.Focal)
	case "tune":
		res.Focal, err = b.Tune(step.Name, step.Fraction)
	case "beam":
		beam := b.Beam()
		if step.Wavelength != 0 {
			beam.Wavelength = step.Wavelength
		}
		if step.Waist != 0 {
			beam.Waist = step.Waist
		}
		err = b.SetBeam(beam)
	case "probe":
		var p bench.Params
		p, err = b.BeamParametersAt(step.Position)
		if err == nil {
			res.Params = &p
		}
	case "waist":
		var w bench.Waist
		w, err = b.Snapshot().FindWaist(step.Start, step.End, opts)
		switch {
		case errors.Is(err, bench.ErrNoWaist):
			err = nil
		case err == nil:
			res.Waist = &w
			res.Found = true
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownOp, step.Op)
	}
	return res, err
}

func buildElement(step Step) (element.Element, error) {
	kind, err := element.ParseKind(step.Kind)
	if err != nil {
		return element.Element{}, err
	}
	switch kind {
	case element.Lens:
		return element.NewLens(step.Name, step.Position, step.Focal)
	case element.TunableLens:
		f, _ := element.Clamp(step.MinFocal, step.MaxFocal, step.Focal)
		return element.NewTunableLens(step.Name, step.Position, f, step.MinFocal, step.MaxFocal)
	case element.PointOfInterest:
		return element.NewPointOfInterest(step.Name, step.Position)
	}
	return element.Element{}, fmt.Errorf("cannot add a %v", kind)
}
