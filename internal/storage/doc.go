// Package storage persists benches and sampled beam profiles.
//
// Benches use a line-oriented text format: the wavelength (nm) and the
// collimated waist (mm) on the first two lines, then one record per element,
// each preceded by a blank line:
//
//	Source       / name (ignored) / position
//	POI          / name / position
//	Lens         / name / position / focal length
//	TunableLens  / name / position / focal length / min focal / max focal
//
// [Store] lays these files out under a data directory together with
// profiles written as CSV plus JSON metadata.
package storage
