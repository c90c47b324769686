package bench

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/san-kum/beamsim/internal/element"
	"github.com/san-kum/beamsim/internal/optics"
)

const (
	// MinSeparation is the closest two elements may sit, in mm.
	MinSeparation = 0.4

	separationSlack = 1e-8
)

// Bench is the ordered collection of optics plus its derived transforms.
// It is safe for concurrent use.
type Bench struct {
	mu         sync.RWMutex
	elements   []element.Element
	transforms []optics.Matrix
	beam       Beam
	logger     *slog.Logger
}

type Option func(*Bench)

func WithLogger(l *slog.Logger) Option {
	return func(b *Bench) {
		if l != nil {
			b.logger = l
		}
	}
}

func WithBeam(beam Beam) Option {
	return func(b *Bench) { b.beam = beam }
}

// New returns a bench holding a single source at position 0.
func New(opts ...Option) *Bench {
	b := &Bench{
		beam:   DefaultBeam(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.commit([]element.Element{element.NewSource(0)})
	return b
}

// Snapshot returns a consistent view for queries.
func (b *Bench) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Snapshot{elements: b.elements, transforms: b.transforms, beam: b.beam}
}

func (b *Bench) Elements() []element.Element { return b.Snapshot().Elements() }

func (b *Bench) Len() int { return b.Snapshot().Len() }

func (b *Bench) Beam() Beam { return b.Snapshot().Beam() }

func (b *Bench) Lookup(name string) (element.Element, bool) { return b.Snapshot().Lookup(name) }

func (b *Bench) TransformAt(point float64) (optics.Matrix, error) {
	return b.Snapshot().TransformAt(point)
}

func (b *Bench) BeamParametersAt(point float64) (Params, error) {
	return b.Snapshot().BeamParametersAt(point)
}

// FindWaist runs the waist search with default options on one snapshot.
func (b *Bench) FindWaist(start, end float64) (Waist, error) {
	return b.Snapshot().FindWaist(start, end, DefaultWaistOptions())
}

// Add inserts e after checking spacing and naming against every element.
func (b *Bench) Add(e element.Element) error {
	if err := e.Validate(); err != nil {
		return b.reject("add", e.Name, err)
	}
	if e.Kind == element.Source {
		return b.reject("add", e.Name, ErrSourceCount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	e = e.Clone()
	e.Name = strings.TrimSpace(e.Name)
	if err := checkName(b.elements, e.Name, -1); err != nil {
		return b.reject("add", e.Name, err)
	}
	if err := checkPlacement(b.elements, e.Position, -1); err != nil {
		return b.reject("add", e.Name, err)
	}

	next := append(cloneAll(b.elements), e)
	b.commit(next)
	b.logger.Debug("element added", "name", e.Name, "kind", e.Kind, "position", e.Position)
	return nil
}

// Remove deletes the named element. The source cannot be removed.
func (b *Bench) Remove(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, err := b.mutable(name)
	if err != nil {
		return b.reject("remove", name, err)
	}
	next := slices.Delete(cloneAll(b.elements), i, i+1)
	b.commit(next)
	b.logger.Debug("element removed", "name", name)
	return nil
}

// Move repositions the named element, checking spacing against all others.
func (b *Bench) Move(name string, position float64) error {
	if math.IsNaN(position) || math.IsInf(position, 0) {
		return b.reject("move", name, element.ErrInvalidPosition)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i, err := b.mutable(name)
	if err != nil {
		return b.reject("move", name, err)
	}
	if err := checkPlacement(b.elements, position, i); err != nil {
		return b.reject("move", name, err)
	}
	next := cloneAll(b.elements)
	next[i].Position = position
	b.commit(next)
	b.logger.Debug("element moved", "name", name, "position", position)
	return nil
}

// Rename changes the name of an element. The element's own name does not
// count as a collision.
func (b *Bench) Rename(name, newName string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, err := b.mutable(name)
	if err != nil {
		return b.reject("rename", name, err)
	}
	newName = strings.TrimSpace(newName)
	if err := checkName(b.elements, newName, i); err != nil {
		return b.reject("rename", name, err)
	}
	next := cloneAll(b.elements)
	next[i].Name = newName
	b.commit(next)
	b.logger.Debug("element renamed", "from", name, "to", newName)
	return nil
}

// SetBeam replaces the input beam settings.
func (b *Bench) SetBeam(beam Beam) error {
	if err := beam.Validate(); err != nil {
		return b.reject("set beam", "", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.beam = beam
	b.logger.Debug("beam updated", "wavelength_nm", beam.Wavelength, "waist_mm", beam.Waist)
	return nil
}

// Replace swaps in a whole element list after validating every invariant.
// On error the bench is left as it was.
func (b *Bench) Replace(beam Beam, elems []element.Element) error {
	if err := beam.Validate(); err != nil {
		return b.reject("replace", "", err)
	}
	next := cloneAll(elems)
	sources := 0
	for i := range next {
		next[i].Name = strings.TrimSpace(next[i].Name)
		if next[i].Kind == element.Source {
			next[i].Name = element.SourceName
			sources++
		}
		if err := next[i].Validate(); err != nil {
			return b.reject("replace", next[i].Name, err)
		}
	}
	if sources != 1 {
		return b.reject("replace", "", fmt.Errorf("%w: found %d", ErrSourceCount, sources))
	}
	for i := range next {
		if err := checkName(next, next[i].Name, i); err != nil {
			return b.reject("replace", next[i].Name, err)
		}
		if next[i].Kind == element.Source {
			continue
		}
		if err := checkPlacement(next, next[i].Position, i); err != nil {
			return b.reject("replace", next[i].Name, err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.beam = beam
	b.commit(next)
	b.logger.Debug("bench replaced", "elements", len(next))
	return nil
}

// commit sorts next by position and rebuilds the transform list. Callers
// hold the write lock (or own b exclusively) and must not reuse next.
func (b *Bench) commit(next []element.Element) {
	slices.SortStableFunc(next, func(x, y element.Element) int {
		switch {
		case x.Position < y.Position:
			return -1
		case x.Position > y.Position:
			return 1
		}
		return 0
	})
	b.elements = next
	b.transforms = propagate(next)
}

// mutable finds a non-source element by name.
func (b *Bench) mutable(name string) (int, error) {
	i := indexOf(b.elements, name)
	if i < 0 {
		return -1, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if b.elements[i].Kind == element.Source {
		return -1, ErrSourceImmutable
	}
	return i, nil
}

func (b *Bench) reject(op, name string, err error) error {
	b.logger.Info("bench change rejected", "op", op, "name", name, "err", err)
	if name == "" {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s %q: %w", op, name, err)
}

func indexOf(elems []element.Element, name string) int {
	name = strings.TrimSpace(name)
	for i, e := range elems {
		if strings.TrimSpace(e.Name) == name {
			return i
		}
	}
	return -1
}

// checkName rejects empty names and names held by any element but ignore.
func checkName(elems []element.Element, name string, ignore int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	for i, e := range elems {
		if i != ignore && strings.TrimSpace(e.Name) == name {
			return fmt.Errorf("%w: %q", ErrNameTaken, name)
		}
	}
	return nil
}

// checkPlacement rejects positions at or left of the source and positions
// too close to any element but ignore.
func checkPlacement(elems []element.Element, position float64, ignore int) error {
	for _, e := range elems {
		if e.Kind == element.Source && position <= e.Position {
			return fmt.Errorf("%w: %g with source at %g", ErrBehindSource, position, e.Position)
		}
	}
	return checkSpacing(elems, position, ignore)
}

// checkSpacing rejects positions within MinSeparation of any element but ignore.
func checkSpacing(elems []element.Element, position float64, ignore int) error {
	for i, e := range elems {
		if i == ignore {
			continue
		}
		if math.Abs(position-e.Position) < MinSeparation+separationSlack {
			return fmt.Errorf("%w: %g is %g from %q", ErrTooClose, position, math.Abs(position-e.Position), e.Name)
		}
	}
	return nil
}

func cloneAll(elems []element.Element) []element.Element {
	out := make([]element.Element, len(elems), len(elems)+1)
	for i, e := range elems {
		out[i] = e.Clone()
	}
	return out
}
