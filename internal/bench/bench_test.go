package bench_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/beamsim/internal/bench"
	"github.com/san-kum/beamsim/internal/element"
)

func mustLens(name string, pos, f float64) element.Element {
	e, err := element.NewLens(name, pos, f)
	Expect(err).NotTo(HaveOccurred())
	return e
}

func mustTunable(name string, pos, f, minF, maxF float64) element.Element {
	e, err := element.NewTunableLens(name, pos, f, minF, maxF)
	Expect(err).NotTo(HaveOccurred())
	return e
}

func mustPOI(name string, pos float64) element.Element {
	e, err := element.NewPointOfInterest(name, pos)
	Expect(err).NotTo(HaveOccurred())
	return e
}

func names(b *bench.Bench) []string {
	var out []string
	for _, e := range b.Elements() {
		out = append(out, e.Name)
	}
	return out
}

var _ = Describe("Bench", func() {
	var b *bench.Bench

	BeforeEach(func() {
		b = bench.New()
		Expect(b.Add(mustLens("L1", 100, 50))).To(Succeed())
		Expect(b.Add(mustLens("L2", 300, 150))).To(Succeed())
	})

	It("starts from a single source at zero", func() {
		fresh := bench.New()
		Expect(fresh.Len()).To(Equal(1))
		src, ok := fresh.Lookup(element.SourceName)
		Expect(ok).To(BeTrue())
		Expect(src.Kind).To(Equal(element.Source))
		Expect(src.Position).To(BeZero())
	})

	It("keeps elements sorted by position", func() {
		Expect(b.Add(mustPOI("P1", 200))).To(Succeed())
		Expect(b.Add(mustPOI("P0", 50))).To(Succeed())
		Expect(names(b)).To(Equal([]string{"Source", "P0", "L1", "P1", "L2"}))
	})

	Describe("Add", func() {
		It("rejects elements closer than the minimum separation", func() {
			err := b.Add(mustPOI("P1", 100.3))
			Expect(err).To(MatchError(bench.ErrTooClose))
			Expect(b.Len()).To(Equal(3))
		})

		It("accepts elements just beyond the minimum separation", func() {
			Expect(b.Add(mustPOI("P1", 100+bench.MinSeparation+1e-6))).To(Succeed())
			Expect(b.Len()).To(Equal(4))
		})

		It("rejects duplicate trimmed names", func() {
			err := b.Add(mustPOI("  L1  ", 200))
			Expect(err).To(MatchError(bench.ErrNameTaken))
			Expect(b.Len()).To(Equal(3))
		})

		It("rejects empty names", func() {
			Expect(b.Add(mustPOI("   ", 200))).To(MatchError(bench.ErrEmptyName))
		})

		It("rejects elements at or behind the source", func() {
			before := b.Snapshot().Transforms()
			Expect(b.Add(mustLens("Lneg", -50, 25))).To(MatchError(bench.ErrBehindSource))
			Expect(b.Add(mustPOI("P0", 0))).To(MatchError(bench.ErrBehindSource))
			Expect(names(b)).To(Equal([]string{"Source", "L1", "L2"}))
			Expect(b.Snapshot().Transforms()).To(Equal(before))
		})

		It("keeps the source first so the beam before the first lens is untouched", func() {
			Expect(b.Add(mustPOI("P1", 0.5))).To(Succeed())
			Expect(b.Elements()[0].Kind).To(Equal(element.Source))
			p, err := b.BeamParametersAt(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Radius).To(BeNumerically("~", 1.0, 1e-5))
		})

		It("rejects a second source", func() {
			Expect(b.Add(element.NewSource(50))).To(MatchError(bench.ErrSourceCount))
			Expect(b.Len()).To(Equal(3))
		})

		It("rejects a lens without a usable focal length", func() {
			bad := element.Element{Kind: element.Lens, Name: "L0", Position: 40}
			Expect(b.Add(bad)).To(MatchError(element.ErrZeroFocalLength))
		})
	})

	Describe("Remove", func() {
		It("removes an element and rebuilds transforms", func() {
			Expect(b.Remove("L1")).To(Succeed())
			Expect(names(b)).To(Equal([]string{"Source", "L2"}))
			Expect(b.Snapshot().Transforms()).To(HaveLen(2))
		})

		It("never removes the source", func() {
			Expect(b.Remove(element.SourceName)).To(MatchError(bench.ErrSourceImmutable))
			Expect(b.Len()).To(Equal(3))
		})

		It("reports unknown names", func() {
			Expect(b.Remove("nope")).To(MatchError(bench.ErrNotFound))
		})
	})

	Describe("Move", func() {
		It("moves and re-sorts", func() {
			Expect(b.Move("L2", 20)).To(Succeed())
			Expect(names(b)).To(Equal([]string{"Source", "L2", "L1"}))
		})

		It("ignores the moved element when checking separation", func() {
			Expect(b.Move("L1", 100.2)).To(Succeed())
			e, _ := b.Lookup("L1")
			Expect(e.Position).To(Equal(100.2))
		})

		It("rejects positions too close to another element", func() {
			Expect(b.Move("L1", 299.7)).To(MatchError(bench.ErrTooClose))
			e, _ := b.Lookup("L1")
			Expect(e.Position).To(Equal(100.0))
		})

		It("rejects positions at or behind the source", func() {
			Expect(b.Move("L1", -10)).To(MatchError(bench.ErrBehindSource))
			Expect(b.Move("L1", 0)).To(MatchError(bench.ErrBehindSource))
			e, _ := b.Lookup("L1")
			Expect(e.Position).To(Equal(100.0))
		})

		It("never moves the source", func() {
			Expect(b.Move(element.SourceName, 10)).To(MatchError(bench.ErrSourceImmutable))
		})
	})

	Describe("Rename", func() {
		It("renames an element", func() {
			Expect(b.Rename("L1", " focus ")).To(Succeed())
			_, ok := b.Lookup("focus")
			Expect(ok).To(BeTrue())
		})

		It("allows renaming to the element's own name", func() {
			Expect(b.Rename("L1", "L1")).To(Succeed())
		})

		It("rejects collisions with other elements", func() {
			Expect(b.Rename("L1", "L2")).To(MatchError(bench.ErrNameTaken))
			Expect(b.Rename("L1", "Source")).To(MatchError(bench.ErrNameTaken))
		})

		It("never renames the source", func() {
			Expect(b.Rename(element.SourceName, "laser")).To(MatchError(bench.ErrSourceImmutable))
		})
	})

	Describe("focal lengths", func() {
		BeforeEach(func() {
			Expect(b.Add(mustTunable("T1", 200, 100, 150, 50))).To(Succeed())
		})

		It("sets any nonzero focal length on a fixed lens", func() {
			f, err := b.SetFocalLength("L1", -75)
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(Equal(-75.0))
		})

		It("rejects focal lengths on non-lenses", func() {
			Expect(b.Add(mustPOI("P1", 250))).To(Succeed())
			_, err := b.SetFocalLength("P1", 10)
			Expect(err).To(MatchError(bench.ErrNotLens))
		})

		It("rejects a zero focal length", func() {
			_, err := b.SetFocalLength("L1", 0)
			Expect(err).To(MatchError(element.ErrZeroFocalLength))
		})

		DescribeTable("clamps a tunable lens into its range",
			func(requested, applied float64) {
				f, err := b.SetFocalLength("T1", requested)
				Expect(err).NotTo(HaveOccurred())
				Expect(f).To(Equal(applied))
				e, _ := b.Lookup("T1")
				Expect(e.FocalLength).To(Equal(applied))
			},
			Entry("inside", 80.0, 80.0),
			Entry("too strong", 20.0, 50.0),
			Entry("too weak", 400.0, 150.0),
		)

		It("clamps the current focal length when the minimum moves past it", func() {
			f, err := b.SetMinFocalLength("T1", 70)
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(Equal(70.0))
			e, _ := b.Lookup("T1")
			Expect(e.Range.Min).To(Equal(70.0))
		})

		It("clamps the current focal length when the maximum moves past it", func() {
			f, err := b.SetMaxFocalLength("T1", 120)
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(Equal(120.0))
		})

		It("rejects ranges through infinity and keeps the old range", func() {
			_, err := b.SetMaxFocalLength("T1", -50)
			Expect(err).To(MatchError(bench.ErrInfinityCrossing))
			e, _ := b.Lookup("T1")
			Expect(e.Range.Max).To(Equal(50.0))
			Expect(e.FocalLength).To(Equal(100.0))
		})

		It("sets both ends of a range in one edit", func() {
			// moving the minimum alone past the old maximum crosses infinity
			_, err := b.SetMinFocalLength("T1", 40)
			Expect(err).To(MatchError(bench.ErrInfinityCrossing))

			f, err := b.SetFocalRange("T1", 40, 20)
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(Equal(40.0))
			e, _ := b.Lookup("T1")
			Expect(*e.Range).To(Equal(element.FocalRange{Min: 40, Max: 20}))
			Expect(e.FocalLength).To(Equal(40.0))

			_, err = b.SetFocalRange("T1", 50, 150)
			Expect(err).To(MatchError(bench.ErrInfinityCrossing))
		})

		It("rejects tuning onto zero focal power and keeps the lens", func() {
			Expect(b.Add(mustTunable("T2", 250, 100, -100, 100))).To(Succeed())

			_, err := b.Tune("T2", 0.5)
			Expect(err).To(MatchError(bench.ErrFlatTuning))
			e, _ := b.Lookup("T2")
			Expect(e.FocalLength).To(Equal(100.0))
			Expect(e.Validate()).To(Succeed())

			f, err := b.Tune("T2", 0.25)
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(Equal(-200.0))
		})

		It("rejects range edits on fixed lenses", func() {
			_, err := b.SetMinFocalLength("L1", 200)
			Expect(err).To(MatchError(bench.ErrNotTunable))
		})

		It("tunes between the extremes in focal power", func() {
			f, err := b.Tune("T1", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(Equal(150.0))

			f, err = b.Tune("T1", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(Equal(50.0))

			f, err = b.Tune("T1", 0.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(BeNumerically("~", 75.0, 1e-9))

			e, _ := b.Lookup("T1")
			frac, ok := bench.TuningFraction(e)
			Expect(ok).To(BeTrue())
			Expect(frac).To(BeNumerically("~", 0.5, 1e-12))

			_, err = b.Tune("T1", 1.5)
			Expect(err).To(MatchError(bench.ErrInvalidFraction))
		})
	})

	Describe("Replace", func() {
		It("swaps in a valid element list", func() {
			elems := []element.Element{
				element.NewSource(0),
				mustPOI("P1", 10),
				mustTunable("T1", 20, 100, 150, 50),
			}
			beam := bench.Beam{Wavelength: 633, Waist: 0.5}
			Expect(b.Replace(beam, elems)).To(Succeed())
			Expect(names(b)).To(Equal([]string{"Source", "P1", "T1"}))
			Expect(b.Beam()).To(Equal(beam))
		})

		DescribeTable("leaves the bench untouched on invalid input",
			func(elems []element.Element, expected error) {
				before := b.Elements()
				Expect(b.Replace(bench.DefaultBeam(), elems)).To(MatchError(expected))
				Expect(b.Elements()).To(Equal(before))
			},
			Entry("no source", []element.Element{mustLens("L1", 10, 10)}, bench.ErrSourceCount),
			Entry("two sources", []element.Element{element.NewSource(0), element.NewSource(5)}, bench.ErrSourceCount),
			Entry("too close", []element.Element{element.NewSource(0), mustPOI("A", 0.1)}, bench.ErrTooClose),
			Entry("behind the source", []element.Element{element.NewSource(0), mustLens("L", -50, 25)}, bench.ErrBehindSource),
			Entry("duplicate names", []element.Element{element.NewSource(0), mustPOI("A", 10), mustPOI("A", 20)}, bench.ErrNameTaken),
		)

		It("rejects an invalid beam", func() {
			Expect(b.Replace(bench.Beam{}, b.Elements())).To(MatchError(bench.ErrInvalidBeam))
		})
	})

	It("serves queries consistently while being mutated", func() {
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for j := 0; j < 200; j++ {
					snap := b.Snapshot()
					Expect(snap.Transforms()).To(HaveLen(snap.Len()))
					_, err := snap.BeamParametersAt(float64(j))
					Expect(err).NotTo(HaveOccurred())
				}
			}()
		}
		for j := 0; j < 200; j++ {
			pos := 150 + float64(j%50)
			Expect(b.Move("L2", pos)).To(Succeed())
		}
		wg.Wait()
	})
})
