package storage

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/beamsim/internal/analysis"
	"github.com/san-kum/beamsim/internal/bench"
)

func TestStoreSaveLoadBench(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	src := sampleBench(t)
	path, err := st.SaveBench("demo", src)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if filepath.Ext(path) != Extension {
		t.Errorf("expected %s file, got %s", Extension, path)
	}
	if !st.Exists("demo") {
		t.Error("expected bench to exist after save")
	}

	dst := bench.New()
	if err := st.LoadBench("demo", dst); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if dst.Len() != src.Len() {
		t.Errorf("expected %d elements, got %d", src.Len(), dst.Len())
	}
	if dst.Beam() != src.Beam() {
		t.Errorf("expected beam %+v, got %+v", src.Beam(), dst.Beam())
	}
}

func TestStoreLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	b := bench.New()
	if err := st.LoadBench("nope", b); !errors.Is(err, ErrBenchNotFound) {
		t.Errorf("expected ErrBenchNotFound, got %v", err)
	}
}

func TestStoreLoadCorrupt(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	path, _ := st.BenchPath("broken")
	if err := os.WriteFile(path, []byte("780\n1\n\nMirror\n"), 0644); err != nil {
		t.Fatal(err)
	}

	b := sampleBench(t)
	before := b.Len()
	if err := st.LoadBench("broken", b); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
	if b.Len() != before {
		t.Errorf("bench changed after failed load: %d elements", b.Len())
	}
}

func TestStoreInvalidNames(t *testing.T) {
	st := New(t.TempDir())
	for _, name := range []string{"", ".", "..", "a/b", `a\b`, " padded"} {
		if _, err := st.SaveBench(name, bench.New()); !errors.Is(err, ErrInvalidName) {
			t.Errorf("name %q: expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	entries, err := st.List()
	if err != nil {
		t.Fatalf("list on empty dir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}

	if _, err := st.SaveBench("zeta", bench.New()); err != nil {
		t.Fatal(err)
	}
	if _, err := st.SaveBench("alpha", sampleBench(t)); err != nil {
		t.Fatal(err)
	}
	// junk next to the benches is ignored
	os.WriteFile(filepath.Join(tmpDir, benchDir, "notes.txt"), []byte("hi"), 0644)
	os.WriteFile(filepath.Join(tmpDir, benchDir, "bad"+Extension), []byte("x"), 0644)

	entries, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "alpha" || entries[0].Elements != 4 {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Name != "zeta" || entries[1].Elements != 1 {
		t.Errorf("unexpected second entry %+v", entries[1])
	}
}

func TestStoreProfiles(t *testing.T) {
	st := New(t.TempDir())
	st.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	b := sampleBench(t)
	prof, err := analysis.SampleProfile(b.Snapshot(), -10, 290, 31, 4)
	if err != nil {
		t.Fatal(err)
	}

	id, err := st.SaveProfile("demo", b.Beam(), prof)
	if err != nil {
		t.Fatalf("save profile failed: %v", err)
	}
	if id == "" {
		t.Error("expected non-empty profile id")
	}

	meta, loaded, err := st.LoadProfile(id)
	if err != nil {
		t.Fatalf("load profile failed: %v", err)
	}
	if meta.Bench != "demo" || meta.Samples != 31 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.MinRadius == nil || meta.MinRadiusAt == nil {
		t.Fatal("expected minimum radius in metadata")
	}
	if len(loaded.Samples) != len(prof.Samples) {
		t.Fatalf("expected %d samples, got %d", len(prof.Samples), len(loaded.Samples))
	}

	for i, want := range prof.Samples {
		got := loaded.Samples[i]
		if got.Position != want.Position || got.Defined != want.Defined {
			t.Errorf("sample %d: expected %+v, got %+v", i, want, got)
		}
		if want.Defined && got.Radius != want.Radius {
			t.Errorf("sample %d: radius %g != %g", i, got.Radius, want.Radius)
		}
		if !want.Defined && !math.IsNaN(got.Radius) {
			t.Errorf("sample %d: expected NaN radius, got %g", i, got.Radius)
		}
	}

	list, err := st.ListProfiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != id {
		t.Errorf("expected one listed profile %s, got %+v", id, list)
	}
}
