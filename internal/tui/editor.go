// Package tui is the interactive bench editor.
package tui

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/beamsim/internal/analysis"
	"github.com/san-kum/beamsim/internal/bench"
	"github.com/san-kum/beamsim/internal/config"
	"github.com/san-kum/beamsim/internal/element"
	"github.com/san-kum/beamsim/internal/viz"
)

type state int

const (
	stateBrowse state = iota
	stateInput
)

// inputKind says what the text prompt edits.
type inputKind int

const (
	inputFocal inputKind = iota
	inputRename
	inputPosition
)

var inputLabels = map[inputKind]string{
	inputFocal:    "focal length (mm)",
	inputRename:   "new name",
	inputPosition: "position (mm)",
}

// SaveFunc persists the bench. It is called when the user presses s.
type SaveFunc func(*bench.Bench) error

type model struct {
	state  state
	bench  *bench.Bench
	cfg    *config.Config
	save   SaveFunc
	title  string
	cursor int

	input    inputKind
	inputBuf string

	profile *analysis.Profile
	waist   *bench.Waist
	status  string
	failed  bool
	dirty   bool
	poiSeq  int

	width  int
	height int
}

// New returns the editor model for b. save may be nil, in which case s
// reports that saving is unavailable.
func New(b *bench.Bench, cfg *config.Config, title string, save SaveFunc) tea.Model {
	m := model{
		bench:  b,
		cfg:    cfg,
		save:   save,
		title:  title,
		width:  80,
		height: 24,
	}
	m.refresh()
	return m
}

// Run starts the editor on the alternate screen and blocks until it exits.
func Run(b *bench.Bench, cfg *config.Config, title string, save SaveFunc) error {
	_, err := tea.NewProgram(New(b, cfg, title, save), tea.WithAltScreen()).Run()
	return err
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.refresh()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateInput:
		return m.inputKey(msg)
	}
	return m.browseKey(msg)
}

func (m model) browseKey(msg tea.KeyMsg) (model, tea.Cmd) {
	elems := m.bench.Elements()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(elems)-1 {
			m.cursor++
		}
	case "left", "h":
		m.moveBy(elems, -m.cfg.Editor.Step)
	case "right", "l":
		m.moveBy(elems, m.cfg.Editor.Step)
	case "shift+left", "H":
		m.moveBy(elems, -m.cfg.Editor.FineStep)
	case "shift+right", "L":
		m.moveBy(elems, m.cfg.Editor.FineStep)
	case "[":
		m.tuneBy(elems, -m.cfg.Editor.TuneStep)
	case "]":
		m.tuneBy(elems, m.cfg.Editor.TuneStep)
	case "p":
		m.addPOI(elems)
	case "x", "delete":
		name := elems[m.cursor].Name
		m.apply(m.bench.Remove(name), fmt.Sprintf("removed %s", name))
		if m.cursor >= m.bench.Len() {
			m.cursor = m.bench.Len() - 1
		}
	case "f":
		e := elems[m.cursor]
		if !e.IsLens() {
			m.fail(fmt.Errorf("%s is not a lens", e.Name))
			break
		}
		m.prompt(inputFocal, formatNum(e.FocalLength))
	case "r":
		m.prompt(inputRename, elems[m.cursor].Name)
	case "g":
		m.prompt(inputPosition, formatNum(elems[m.cursor].Position))
	case "w":
		m.findWaist()
	case "s":
		m.saveBench()
	}
	return m, nil
}

func (m model) inputKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.state = stateBrowse
		m.commitInput()
	case tea.KeyEsc:
		m.state = stateBrowse
		m.inputBuf = ""
	case tea.KeyBackspace:
		if len(m.inputBuf) > 0 {
			r := []rune(m.inputBuf)
			m.inputBuf = string(r[:len(r)-1])
		}
	case tea.KeyRunes:
		m.inputBuf += string(msg.Runes)
	case tea.KeySpace:
		m.inputBuf += " "
	}
	return m, nil
}

func (m *model) prompt(kind inputKind, initial string) {
	m.state = stateInput
	m.input = kind
	m.inputBuf = initial
}

func (m *model) commitInput() {
	name := m.bench.Elements()[m.cursor].Name
	buf := strings.TrimSpace(m.inputBuf)
	m.inputBuf = ""

	if m.input == inputRename {
		m.apply(m.bench.Rename(name, buf), fmt.Sprintf("renamed %s to %s", name, buf))
		m.follow(buf)
		return
	}

	v, err := strconv.ParseFloat(buf, 64)
	if err != nil {
		m.fail(fmt.Errorf("not a number: %q", buf))
		return
	}
	switch m.input {
	case inputFocal:
		f, err := m.bench.SetFocalLength(name, v)
		m.apply(err, fmt.Sprintf("%s focal length %s mm", name, formatNum(f)))
	case inputPosition:
		m.apply(m.bench.Move(name, v), fmt.Sprintf("moved %s to %s mm", name, formatNum(v)))
		m.follow(name)
	}
}

func (m *model) moveBy(elems []element.Element, step float64) {
	e := elems[m.cursor]
	to := e.Position + step
	m.apply(m.bench.Move(e.Name, to), fmt.Sprintf("moved %s to %s mm", e.Name, formatNum(to)))
	m.follow(e.Name)
}

func (m *model) tuneBy(elems []element.Element, step float64) {
	e := elems[m.cursor]
	frac, ok := bench.TuningFraction(e)
	if !ok {
		m.fail(fmt.Errorf("%s is not a tunable lens", e.Name))
		return
	}
	frac = math.Max(0, math.Min(1, frac+step))
	f, err := m.bench.Tune(e.Name, frac)
	m.apply(err, fmt.Sprintf("%s tuned to %.0f%% (f=%s mm)", e.Name, frac*100, formatNum(f)))
}

// addPOI drops a point of interest halfway to the next element, or one
// step past the last one.
func (m *model) addPOI(elems []element.Element) {
	cur := elems[m.cursor]
	pos := cur.Position + m.cfg.Editor.Step
	if m.cursor+1 < len(elems) {
		pos = (cur.Position + elems[m.cursor+1].Position) / 2
	}
	var name string
	for {
		m.poiSeq++
		name = fmt.Sprintf("P%d", m.poiSeq)
		if _, taken := m.bench.Lookup(name); !taken {
			break
		}
	}
	poi, err := element.NewPointOfInterest(name, pos)
	if err == nil {
		err = m.bench.Add(poi)
	}
	m.apply(err, fmt.Sprintf("added %s at %s mm", name, formatNum(pos)))
	if err == nil {
		m.follow(name)
	}
}

func (m *model) findWaist() {
	w, err := m.bench.Snapshot().FindWaist(m.profile.Start, m.profile.End, m.cfg.WaistOptions())
	if err != nil {
		m.waist = nil
		m.fail(err)
		return
	}
	m.waist = &w
	m.ok(fmt.Sprintf("waist at %s mm, radius %.4g mm", formatNum(w.Position), w.Radius))
}

func (m *model) saveBench() {
	if m.save == nil {
		m.fail(errors.New("saving is not available"))
		return
	}
	if err := m.save(m.bench); err != nil {
		m.fail(err)
		return
	}
	m.dirty = false
	m.ok("saved")
}

// apply reports the outcome of a bench mutation and resamples on success.
func (m *model) apply(err error, okMsg string) {
	if err != nil {
		m.fail(err)
		return
	}
	m.dirty = true
	m.waist = nil
	m.refresh()
	m.ok(okMsg)
}

// follow keeps the cursor on name after the bench re-sorts.
func (m *model) follow(name string) {
	for i, e := range m.bench.Elements() {
		if e.Name == name {
			m.cursor = i
			return
		}
	}
}

func (m *model) ok(s string) {
	m.status, m.failed = s, false
}

func (m *model) fail(err error) {
	m.status, m.failed = err.Error(), true
}

// window is the visible stretch of bench: the source to the last element
// plus the configured margin.
func (m *model) window() (float64, float64) {
	elems := m.bench.Elements()
	start := elems[0].Position
	end := elems[len(elems)-1].Position + m.cfg.Plot.Margin
	if end <= start {
		end = start + 1
	}
	return start, end
}

func (m *model) refresh() {
	start, end := m.window()
	prof, err := analysis.SampleProfile(m.bench.Snapshot(), start, end, m.cfg.Plot.Samples, m.cfg.Plot.Workers)
	if err != nil {
		m.fail(err)
		return
	}
	m.profile = prof
}

func (m model) View() string {
	var b strings.Builder

	title := "beamsim"
	if m.title != "" {
		title += " · " + m.title
	}
	if m.dirty {
		title += " *"
	}
	b.WriteString(viz.Header.Render(title) + "\n")

	beam := m.bench.Beam()
	b.WriteString(viz.Metric("λ", formatNum(beam.Wavelength)+" nm") + "   " +
		viz.Metric("w0", formatNum(beam.Waist)+" mm") + "   " +
		viz.Metric("window", fmt.Sprintf("%s–%s mm", formatNum(m.profile.Start), formatNum(m.profile.End))) + "\n\n")

	plotWidth := m.plotWidth()
	elems := m.bench.Elements()
	side := viz.NewSideView(plotWidth, 4, m.profile, elems)
	b.WriteString(viz.Beam.Render(side.String()) + "\n")
	b.WriteString(viz.Subtle.Render(side.Ruler(elems)) + "\n\n")

	b.WriteString(m.radiusPlot(plotWidth) + "\n\n")
	b.WriteString(m.table(elems) + "\n")

	if m.state == stateInput {
		b.WriteString(viz.Title.Render(inputLabels[m.input]+": ") + m.inputBuf + "█\n")
	} else if m.status != "" {
		style := viz.StatusOK
		if m.failed {
			style = viz.StatusError
		}
		b.WriteString(style.Render(m.status) + "\n")
	} else {
		b.WriteString("\n")
	}

	b.WriteString(viz.KeyHint.Render("↑↓ select  ←→ move (H/L fine)  [ ] tune  f focal  g goto  r rename  p add poi  x delete  w waist  s save  q quit"))
	return b.String()
}

func (m model) plotWidth() int {
	return max(20, min(m.cfg.Plot.Width, m.width-12))
}

func (m model) radiusPlot(width int) string {
	var radii []float64
	for _, s := range m.profile.Defined() {
		radii = append(radii, s.Radius)
	}
	if len(radii) < 2 {
		return viz.Subtle.Render("(no beam in window)")
	}
	return asciigraph.Plot(radii,
		asciigraph.Height(max(4, min(m.cfg.Plot.Height, m.height/3))),
		asciigraph.Width(width),
		asciigraph.Precision(3),
		asciigraph.Caption("beam radius (mm)"))
}

func (m model) table(elems []element.Element) string {
	snap := m.bench.Snapshot()
	var b strings.Builder
	b.WriteString(viz.MetricLabel.Render(fmt.Sprintf("  %-10s %-13s %10s %10s %12s", "NAME", "KIND", "POS", "F", "RADIUS")) + "\n")
	for i, e := range elems {
		focal := ""
		if e.IsLens() {
			focal = formatNum(e.FocalLength)
		}
		radius := "-"
		if p, err := snap.BeamParametersAt(e.Position); err == nil {
			radius = fmt.Sprintf("%.4g", p.Radius)
		}
		row := fmt.Sprintf("%-10s %-13s %10s %10s %12s", e.Name, e.Kind, formatNum(e.Position), focal, radius)
		if i == m.cursor {
			b.WriteString(viz.Selected.Render("▸ "+row) + "\n")
		} else {
			b.WriteString("  " + row + "\n")
		}
	}
	if m.waist != nil {
		b.WriteString(viz.Metric("  waist", fmt.Sprintf("%s mm (w=%.4g mm)", formatNum(m.waist.Position), m.waist.Radius)) + "\n")
	}
	return b.String()
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
