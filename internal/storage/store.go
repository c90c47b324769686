package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/beamsim/internal/analysis"
	"github.com/san-kum/beamsim/internal/bench"
)

const (
	benchDir   = "benches"
	profileDir = "profiles"
)

var (
	// ErrInvalidName is returned for names that cannot be used as file names.
	ErrInvalidName = errors.New("storage: invalid name")
	// ErrBenchNotFound is returned when no bench file exists for a name.
	ErrBenchNotFound = errors.New("storage: bench not found")
)

// Store keeps benches and sampled profiles under one data directory:
//
//	<base>/benches/<name>.gwb
//	<base>/profiles/<id>/metadata.json
//	<base>/profiles/<id>/profile.csv
type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Dir() string { return s.baseDir }

func (s *Store) Init() error {
	for _, dir := range []string{benchDir, profileDir} {
		if err := os.MkdirAll(filepath.Join(s.baseDir, dir), 0755); err != nil {
			return err
		}
	}
	return nil
}

// Entry describes a saved bench.
type Entry struct {
	Name     string
	Modified time.Time
	Elements int
}

// BenchPath returns the file a bench name is stored in.
func (s *Store) BenchPath(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, benchDir, name+Extension), nil
}

// Exists reports whether a bench has been saved under name.
func (s *Store) Exists(name string) bool {
	path, err := s.BenchPath(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// SaveBench writes b to its file, replacing any earlier version.
func (s *Store) SaveBench(name string, b *bench.Bench) (string, error) {
	path, err := s.BenchPath(name)
	if err != nil {
		return "", err
	}
	if err := s.Init(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), name+".*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return "", err
	}
	if err := Save(tmp, b); err != nil {
		tmp.Close()
		return "", fmt.Errorf("save bench %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

// LoadBench replaces the contents of b with the saved bench. b is left
// unchanged on error.
func (s *Store) LoadBench(name string, b *bench.Bench) error {
	path, err := s.BenchPath(name)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %q", ErrBenchNotFound, name)
		}
		return err
	}
	defer f.Close()

	if err := LoadInto(b, f); err != nil {
		return fmt.Errorf("load bench %q: %w", name, err)
	}
	return nil
}

// List returns the saved benches sorted by name. Unreadable files are
// skipped.
func (s *Store) List() ([]Entry, error) {
	dir := filepath.Join(s.baseDir, benchDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}

	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != Extension {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		f, err := os.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		_, elems, err := Decode(f)
		f.Close()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			Name:     strings.TrimSuffix(entry.Name(), Extension),
			Modified: info.ModTime(),
			Elements: len(elems),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ProfileMetadata is stored next to each sampled profile.
type ProfileMetadata struct {
	ID         string    `json:"id"`
	Bench      string    `json:"bench"`
	Timestamp  time.Time `json:"timestamp"`
	Wavelength float64   `json:"wavelength_nm"`
	Waist      float64   `json:"waist_mm"`
	Start      float64   `json:"start_mm"`
	End        float64   `json:"end_mm"`
	Samples    int       `json:"samples"`
	// MinRadius and MinRadiusAt are omitted when no sample is defined.
	MinRadius   *float64 `json:"min_radius_mm,omitempty"`
	MinRadiusAt *float64 `json:"min_radius_at_mm,omitempty"`
}

// SaveProfile stores a sampled profile of the named bench and returns its id.
func (s *Store) SaveProfile(benchName string, beam bench.Beam, prof *analysis.Profile) (string, error) {
	if err := checkName(benchName); err != nil {
		return "", err
	}
	now := s.now()
	id := fmt.Sprintf("%s_%d", benchName, now.UnixMilli())
	dir := filepath.Join(s.baseDir, profileDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	meta := ProfileMetadata{
		ID:         id,
		Bench:      benchName,
		Timestamp:  now,
		Wavelength: beam.Wavelength,
		Waist:      beam.Waist,
		Start:      prof.Start,
		End:        prof.End,
		Samples:    len(prof.Samples),
	}
	if narrow, ok := prof.MinRadius(); ok {
		meta.MinRadius = &narrow.Radius
		meta.MinRadiusAt = &narrow.Position
	}

	metaFile, err := os.Create(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(dir, "profile.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write([]string{"position", "radius", "curvature"}); err != nil {
		return "", err
	}
	for _, sample := range prof.Samples {
		row := []string{formatFloat(sample.Position), formatFloat(sample.Radius), formatFloat(sample.Curvature)}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return id, nil
}

// ListProfiles returns the metadata of every stored profile, oldest first.
func (s *Store) ListProfiles() ([]ProfileMetadata, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, profileDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []ProfileMetadata{}, nil
		}
		return nil, err
	}

	out := make([]ProfileMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.loadMetadata(entry.Name())
		if err != nil {
			continue
		}
		out = append(out, *meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *Store) loadMetadata(id string) (*ProfileMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, profileDir, id, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta ProfileMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadProfile reads a stored profile back.
func (s *Store) LoadProfile(id string) (*ProfileMetadata, *analysis.Profile, error) {
	if err := checkName(id); err != nil {
		return nil, nil, err
	}
	meta, err := s.loadMetadata(id)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, profileDir, id, "profile.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 3
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	prof := &analysis.Profile{Start: meta.Start, End: meta.End}
	for i := 1; i < len(records); i++ {
		var v [3]float64
		for j, field := range records[i] {
			if v[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, nil, fmt.Errorf("profile %s row %d: %w", id, i+1, err)
			}
		}
		prof.Samples = append(prof.Samples, analysis.Sample{
			Position:  v[0],
			Radius:    v[1],
			Curvature: v[2],
			Defined:   !math.IsNaN(v[1]),
		})
	}
	return meta, prof, nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
