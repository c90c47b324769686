// Package analysis samples beam quantities along a bench.
//
//   - [SampleProfile]: beam radius and curvature on an evenly spaced grid
//   - [TuningSweep]: waist position and radius while a tunable lens is swept
//
// Sampling runs on a fixed number of workers that read from an immutable
// bench snapshot, so a profile is always consistent with one bench state:
//
//	prof, err := analysis.SampleProfile(b.Snapshot(), 0, 500, 200, 4)
package analysis
