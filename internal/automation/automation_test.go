package automation

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/beamsim/internal/bench"
	"github.com/san-kum/beamsim/internal/element"
)

func defaultBench(t *testing.T) *bench.Bench {
	t.Helper()
	l1, _ := element.NewLens("L1", 100, 50)
	l2, _ := element.NewLens("L2", 300, 150)
	b := bench.New()
	if err := b.Replace(bench.DefaultBeam(), []element.Element{element.NewSource(0), l1, l2}); err != nil {
		t.Fatal(err)
	}
	return b
}

const script = `
name: shift
description: move the first lens and look for the new focus
steps:
  - {op: add, kind: tunable, name: T1, position: 500, focal: 100, min_focal: 500, max_focal: 50}
  - {op: move, name: L1, position: 120}
  - {op: tune, name: T1, fraction: 1}
  - {op: probe, position: 0}
  - {op: waist, start: 121, end: 299}
  - {op: waist, start: 10, end: 90}
`

func TestRunScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(script))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if sc.Name != "shift" || len(sc.Steps) != 6 {
		t.Fatalf("unexpected scenario %+v", sc)
	}

	b := defaultBench(t)
	results, err := RunScenario(context.Background(), sc, b, bench.DefaultWaistOptions())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}

	if l1, _ := b.Lookup("L1"); l1.Position != 120 {
		t.Errorf("expected L1 at 120, got %g", l1.Position)
	}
	if results[2].Focal != 50 {
		t.Errorf("expected tune to reach 50, got %g", results[2].Focal)
	}
	if p := results[3].Params; p == nil || !p.Divergent() {
		t.Errorf("expected flat wavefront at the source, got %+v", p)
	}
	if w := results[4].Waist; !results[4].Found || math.Abs(w.Position-170) > 0.1 {
		t.Errorf("expected waist near 170, got %+v", results[4])
	}
	if results[5].Found || results[5].Waist != nil {
		t.Errorf("expected no waist before the lens, got %+v", results[5])
	}
}

func TestRunScenarioStops(t *testing.T) {
	sc := &Scenario{Steps: []Step{
		{Op: "move", Name: "L2", Position: 320},
		{Op: "tune", Name: "L1", Fraction: 0.5},
		{Op: "remove", Name: "L2"},
	}}
	b := defaultBench(t)

	results, err := RunScenario(context.Background(), sc, b, bench.DefaultWaistOptions())
	if !errors.Is(err, bench.ErrNotTunable) {
		t.Fatalf("expected ErrNotTunable, got %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 completed step, got %d", len(results))
	}
	if _, ok := b.Lookup("L2"); !ok {
		t.Error("steps after the failure must not run")
	}
}

func TestRunScenarioUnknownOp(t *testing.T) {
	sc := &Scenario{Steps: []Step{{Op: "explode"}}}
	_, err := RunScenario(context.Background(), sc, defaultBench(t), bench.DefaultWaistOptions())
	if !errors.Is(err, ErrUnknownOp) {
		t.Errorf("expected ErrUnknownOp, got %v", err)
	}
}

func TestRunScenarioCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sc := &Scenario{Steps: []Step{{Op: "remove", Name: "L1"}}}
	b := defaultBench(t)

	if _, err := RunScenario(ctx, sc, b, bench.DefaultWaistOptions()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if b.Len() != 3 {
		t.Error("cancelled scenario must not edit the bench")
	}
}

func TestRunScenarioClampsNewTunableLens(t *testing.T) {
	sc := &Scenario{Steps: []Step{
		{Op: "add", Kind: "tunable", Name: "T1", Position: 500, Focal: 10, MinFocal: 500, MaxFocal: 50},
	}}
	b := defaultBench(t)

	if _, err := RunScenario(context.Background(), sc, b, bench.DefaultWaistOptions()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if e, _ := b.Lookup("T1"); e.FocalLength != 50 {
		t.Errorf("expected focal length clamped to 50, got %g", e.FocalLength)
	}
}
