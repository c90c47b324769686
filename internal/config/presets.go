package config

import (
	"fmt"
	"slices"

	"github.com/san-kum/beamsim/internal/bench"
	"github.com/san-kum/beamsim/internal/element"
)

// Preset is a named starting bench. The source always sits at 0 and is
// implied; Optics lists everything after it.
type Preset struct {
	Description string        `yaml:"description"`
	Beam        *BeamConfig   `yaml:"beam,omitempty"`
	Optics      []ElementSpec `yaml:"optics"`
}

// ElementSpec is the YAML form of one element. Kind takes the same
// spellings as the CLI (lens, tunable, poi).
type ElementSpec struct {
	Kind     string  `yaml:"kind"`
	Name     string  `yaml:"name"`
	Position float64 `yaml:"position"`
	Focal    float64 `yaml:"focal,omitempty"`
	MinFocal float64 `yaml:"min_focal,omitempty"`
	MaxFocal float64 `yaml:"max_focal,omitempty"`
}

func (s ElementSpec) Element() (element.Element, error) {
	kind, err := element.ParseKind(s.Kind)
	if err != nil {
		return element.Element{}, err
	}
	switch kind {
	case element.Lens:
		return element.NewLens(s.Name, s.Position, s.Focal)
	case element.TunableLens:
		return element.NewTunableLens(s.Name, s.Position, s.Focal, s.MinFocal, s.MaxFocal)
	case element.PointOfInterest:
		return element.NewPointOfInterest(s.Name, s.Position)
	}
	return element.Element{}, fmt.Errorf("%w: presets cannot add a %v", element.ErrUnknownKind, kind)
}

// Elements returns the full element list including the source.
func (p *Preset) Elements() ([]element.Element, error) {
	elems := []element.Element{element.NewSource(0)}
	for _, spec := range p.Optics {
		e, err := spec.Element()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	return elems, nil
}

// Apply replaces the contents of b with the preset. fallback is used when
// the preset carries no beam of its own.
func (p *Preset) Apply(b *bench.Bench, fallback bench.Beam) error {
	elems, err := p.Elements()
	if err != nil {
		return err
	}
	beam := fallback
	if p.Beam != nil {
		beam = bench.Beam{Wavelength: p.Beam.Wavelength, Waist: p.Beam.Waist}
	}
	return b.Replace(beam, elems)
}

var Presets = map[string]*Preset{
	"default": {
		Description: "3x Keplerian beam expander",
		Optics: []ElementSpec{
			{Kind: "lens", Name: "L1", Position: 100, Focal: 50},
			{Kind: "lens", Name: "L2", Position: 300, Focal: 150},
		},
	},
	"refocus": {
		Description: "focus, then relay the focus 1:1",
		Optics: []ElementSpec{
			{Kind: "lens", Name: "L1", Position: 100, Focal: 100},
			{Kind: "poi", Name: "focus", Position: 200},
			{Kind: "lens", Name: "L2", Position: 300, Focal: 100},
			{Kind: "lens", Name: "L3", Position: 500, Focal: 100},
			{Kind: "poi", Name: "image", Position: 600},
		},
	},
	"telescope": {
		Description: "3x Galilean beam expander",
		Optics: []ElementSpec{
			{Kind: "lens", Name: "L1", Position: 100, Focal: -50},
			{Kind: "lens", Name: "L2", Position: 200, Focal: 150},
			{Kind: "poi", Name: "output", Position: 500},
		},
	},
	"tunable": {
		Description: "fixed lens followed by a focus-tunable lens",
		Optics: []ElementSpec{
			{Kind: "lens", Name: "L1", Position: 100, Focal: 200},
			{Kind: "tunable", Name: "T1", Position: 150, Focal: 100, MinFocal: 500, MaxFocal: 50},
			{Kind: "poi", Name: "sample", Position: 250},
		},
	},
}

// GetPreset returns a built-in preset, or nil.
func GetPreset(name string) *Preset {
	return Presets[name]
}

// ListPresets returns the built-in preset names in order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Preset looks up a preset defined in the config file first, then the
// built-in ones.
func (c *Config) Preset(name string) *Preset {
	if p, ok := c.Presets[name]; ok && p != nil {
		return p
	}
	return GetPreset(name)
}

// PresetNames lists built-in and config presets without duplicates.
func (c *Config) PresetNames() []string {
	names := ListPresets()
	for name := range c.Presets {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
