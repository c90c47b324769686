// Package bench holds the ordered optics bench and answers beam queries.
//
// A [Bench] owns its elements, the beam settings and the cumulative
// transform list derived from them. Every accepted mutation rebuilds the
// transform list before the write lock is released, so a query never sees a
// list that disagrees with the elements.
//
// Queries run against an immutable [Snapshot]:
//
//	b := bench.New()
//	lens, _ := element.NewLens("L1", 100, 100)
//	if err := b.Add(lens); err != nil { ... }
//	p, err := b.BeamParametersAt(150)
//	w, err := b.FindWaist(100, 300)
//
// # Invariants
//
//   - exactly one Source, which cannot be removed, moved or renamed
//   - elements are at least [MinSeparation] apart
//   - trimmed names are unique and non-empty
//
// Rejected mutations return an error wrapping one of the package sentinels
// and leave the bench unchanged.
package bench
