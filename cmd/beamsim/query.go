package main

import (
	"errors"
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/beamsim/internal/analysis"
	"github.com/san-kum/beamsim/internal/bench"
	"github.com/san-kum/beamsim/internal/element"
	"github.com/san-kum/beamsim/internal/export"
	"github.com/san-kum/beamsim/internal/viz"
)

func showBench(cmd *cobra.Command, args []string) error {
	b, err := openBench(args[0])
	if err != nil {
		return err
	}
	snap := b.Snapshot()
	printBeam(cmd, snap.Beam())

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tPOSITION\tFOCAL\tRANGE\tRADIUS\tCURVATURE")
	for _, e := range snap.Elements() {
		focalCol, rangeCol := "-", "-"
		if e.IsLens() {
			focalCol = fmt.Sprintf("%g", e.FocalLength)
		}
		if e.Range != nil {
			frac, _ := bench.TuningFraction(e)
			rangeCol = fmt.Sprintf("[%g, %g] %.0f%%", e.Range.Min, e.Range.Max, frac*100)
		}
		radius, curv := "-", "-"
		if p, err := snap.BeamParametersAt(e.Position); err == nil {
			radius = fmt.Sprintf("%.6g", p.Radius)
			curv = fmt.Sprintf("%.6g", p.RadiusOfCurvature)
		}
		fmt.Fprintf(w, "%s\t%s\t%g\t%s\t%s\t%s\t%s\n", e.Name, e.Kind, e.Position, focalCol, rangeCol, radius, curv)
	}
	return w.Flush()
}

func beamAt(cmd *cobra.Command, args []string) error {
	pos, err := parseFloatArg("position", args[1])
	if err != nil {
		return err
	}
	b, err := openBench(args[0])
	if err != nil {
		return err
	}
	p, err := b.BeamParametersAt(pos)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "position:            %g mm\n", p.Position)
	fmt.Fprintf(out, "beam radius:         %.6g mm\n", p.Radius)
	if p.Divergent() {
		fmt.Fprintln(out, "radius of curvature: ∞ (waist)")
	} else {
		fmt.Fprintf(out, "radius of curvature: %.6g mm\n", p.RadiusOfCurvature)
	}
	return nil
}

func findWaist(cmd *cobra.Command, args []string) error {
	b, err := openBench(args[0])
	if err != nil {
		return err
	}
	snap := b.Snapshot()
	start, end := defaultWindow(snap)
	if len(args) == 3 {
		if start, err = parseFloatArg("start", args[1]); err != nil {
			return err
		}
		if end, err = parseFloatArg("end", args[2]); err != nil {
			return err
		}
	}

	opts := cfg.WaistOptions()
	if cmd.Flags().Changed("samples") {
		opts.Samples = waistSamples
	}
	if cmd.Flags().Changed("tolerance") {
		opts.Tolerance = tolerance
	}

	wst, err := snap.FindWaist(start, end, opts)
	if errors.Is(err, bench.ErrNoWaist) {
		fmt.Fprintf(cmd.OutOrStdout(), "no waist between %g and %g mm\n", start, end)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "waist at %.9g mm, radius %.6g mm\n", wst.Position, wst.Radius)
	return nil
}

// defaultWindow spans the source to the last element plus the plot margin.
func defaultWindow(snap bench.Snapshot) (float64, float64) {
	elems := snap.Elements()
	return elems[0].Position, elems[len(elems)-1].Position + cfg.Plot.Margin
}

// sampleWindow samples the bench over the window given by --from, --to and
// --samples, falling back to the config.
func sampleWindow(cmd *cobra.Command, snap bench.Snapshot) (*analysis.Profile, error) {
	start, end := defaultWindow(snap)
	if cmd.Flags().Changed("from") {
		start = from
	}
	if cmd.Flags().Changed("to") {
		end = to
	}
	n := cfg.Plot.Samples
	if cmd.Flags().Changed("samples") {
		n = samples
	}
	return analysis.SampleProfile(snap, start, end, n, cfg.Plot.Workers)
}

func plotBench(cmd *cobra.Command, args []string) error {
	b, err := openBench(args[0])
	if err != nil {
		return err
	}
	snap := b.Snapshot()
	prof, err := sampleWindow(cmd, snap)
	if err != nil {
		return err
	}
	defined := prof.Defined()
	if len(defined) < 2 {
		return fmt.Errorf("no beam between %g and %g mm", prof.Start, prof.End)
	}
	radii := make([]float64, len(defined))
	for i, s := range defined {
		radii[i] = s.Radius
	}

	out := cmd.OutOrStdout()
	elems := snap.Elements()
	side := viz.NewSideView(cfg.Plot.Width, 4, prof, elems)
	fmt.Fprintln(out, side.String())
	fmt.Fprintln(out, side.Ruler(elems))
	fmt.Fprintln(out)

	graph := asciigraph.Plot(radii,
		asciigraph.Height(cfg.Plot.Height),
		asciigraph.Width(cfg.Plot.Width),
		asciigraph.Caption(fmt.Sprintf("beam radius (mm), %g to %g mm", prof.Start, prof.End)),
	)
	fmt.Fprintln(out, graph)

	if narrow, ok := prof.MinRadius(); ok {
		fmt.Fprintf(out, "\nnarrowest sample: %.6g mm at %g mm\n", narrow.Radius, narrow.Position)
	}
	return nil
}

func storeProfile(cmd *cobra.Command, args []string) error {
	b, err := openBench(args[0])
	if err != nil {
		return err
	}
	snap := b.Snapshot()
	prof, err := sampleWindow(cmd, snap)
	if err != nil {
		return err
	}
	id, err := st.SaveProfile(args[0], snap.Beam(), prof)
	if err != nil {
		return err
	}
	logger.Info("profile stored", "id", id, "samples", len(prof.Samples))
	fmt.Fprintf(cmd.OutOrStdout(), "profile id: %s\n", id)
	return nil
}

func listProfiles(cmd *cobra.Command, args []string) error {
	profiles, err := st.ListProfiles()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(profiles) == 0 {
		fmt.Fprintln(out, "no profiles found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBENCH\tTIME\tWINDOW\tSAMPLES\tMIN RADIUS")
	for _, p := range profiles {
		minRadius := "-"
		if p.MinRadius != nil {
			minRadius = fmt.Sprintf("%.4g mm @ %g", *p.MinRadius, *p.MinRadiusAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%g–%g\t%d\t%s\n",
			p.ID, p.Bench, p.Timestamp.Format("2006-01-02 15:04:05"), p.Start, p.End, p.Samples, minRadius)
	}
	return w.Flush()
}

func exportBench(cmd *cobra.Command, args []string) error {
	if _, err := export.FormatOf(output); err != nil {
		return err
	}
	b, err := openBench(args[0])
	if err != nil {
		return err
	}
	snap := b.Snapshot()
	prof, err := sampleWindow(cmd, snap)
	if err != nil {
		return err
	}
	t := title
	if t == "" {
		t = args[0]
	}
	if err := export.Profile(output, prof, snap.Elements(), export.Options{Title: t}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
	return nil
}

func sweepLens(cmd *cobra.Command, args []string) error {
	b, err := openBench(args[0])
	if err != nil {
		return err
	}
	snap := b.Snapshot()
	e, ok := snap.Lookup(args[1])
	if !ok {
		return fmt.Errorf("%w: %q", bench.ErrNotFound, args[1])
	}
	if e.Kind != element.TunableLens {
		return fmt.Errorf("%w: %q is a %v", bench.ErrNotTunable, e.Name, e.Kind)
	}

	start, end := defaultWindow(snap)
	if cmd.Flags().Changed("from") {
		start = from
	}
	if cmd.Flags().Changed("to") {
		end = to
	}
	points, err := analysis.TuningSweep(snap, e.Name, steps, start, end, cfg.WaistOptions())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FRACTION\tFOCAL\tWAIST AT\tWAIST RADIUS")
	for _, p := range points {
		if !p.Found {
			fmt.Fprintf(w, "%.3f\t%.6g\t-\t-\n", p.Fraction, p.FocalLength)
			continue
		}
		radius := "-"
		if !math.IsNaN(p.Waist.Radius) {
			radius = fmt.Sprintf("%.6g", p.Waist.Radius)
		}
		fmt.Fprintf(w, "%.3f\t%.6g\t%.6g\t%s\n", p.Fraction, p.FocalLength, p.Waist.Position, radius)
	}
	return w.Flush()
}
