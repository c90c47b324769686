package main

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/beamsim/internal/automation"
	"github.com/san-kum/beamsim/internal/bench"
	"github.com/san-kum/beamsim/internal/element"
	"github.com/san-kum/beamsim/internal/storage"
	"github.com/san-kum/beamsim/internal/tui"
)

// openBench loads a saved bench.
func openBench(name string) (*bench.Bench, error) {
	b := bench.New(bench.WithLogger(logger.With("bench", name)), bench.WithBeam(cfg.BeamSettings()))
	if err := st.LoadBench(name, b); err != nil {
		return nil, err
	}
	return b, nil
}

// updateBench loads a bench, applies fn and saves the result. Nothing is
// written when fn fails.
func updateBench(name string, fn func(*bench.Bench) error) (*bench.Bench, error) {
	b, err := openBench(name)
	if err != nil {
		return nil, err
	}
	if err := fn(b); err != nil {
		return nil, err
	}
	if _, err := st.SaveBench(name, b); err != nil {
		return nil, err
	}
	return b, nil
}

func parseFloatArg(what, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return v, nil
}

func newBench(cmd *cobra.Command, args []string) error {
	name := args[0]
	p := cfg.Preset(preset)
	if p == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", preset, cfg.PresetNames())
	}
	if st.Exists(name) && !force {
		return fmt.Errorf("bench %s already exists (use --force to overwrite)", name)
	}

	b := bench.New(bench.WithLogger(logger.With("bench", name)))
	if err := p.Apply(b, cfg.BeamSettings()); err != nil {
		return fmt.Errorf("preset %s: %w", preset, err)
	}
	path, err := st.SaveBench(name, b)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s from preset %s (%d elements)\n", path, preset, b.Len())
	return nil
}

func addElement(cmd *cobra.Command, args []string) error {
	name, elemName := args[0], args[2]
	kind, err := element.ParseKind(args[1])
	if err != nil {
		return err
	}
	pos, err := parseFloatArg("position", args[3])
	if err != nil {
		return err
	}

	var e element.Element
	var clamped bool
	switch kind {
	case element.Lens:
		e, err = element.NewLens(elemName, pos, focal)
	case element.TunableLens:
		if !cmd.Flags().Changed("min") || !cmd.Flags().Changed("max") {
			return fmt.Errorf("a tunable lens needs --min and --max")
		}
		// an out-of-range starting focal length snaps to the violated bound
		f, _ := element.Clamp(minFocal, maxFocal, focal)
		clamped = f != focal
		e, err = element.NewTunableLens(elemName, pos, f, minFocal, maxFocal)
	case element.PointOfInterest:
		e, err = element.NewPointOfInterest(elemName, pos)
	default:
		return fmt.Errorf("cannot add a %v", kind)
	}
	if err != nil {
		return err
	}

	if _, err := updateBench(name, func(b *bench.Bench) error { return b.Add(e) }); err != nil {
		return err
	}
	if clamped {
		fmt.Fprintf(cmd.OutOrStdout(), "clamped focal length %g to tuning range\n", focal)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added %v\n", e)
	return nil
}

func removeElement(cmd *cobra.Command, args []string) error {
	if _, err := updateBench(args[0], func(b *bench.Bench) error { return b.Remove(args[1]) }); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[1])
	return nil
}

func moveElement(cmd *cobra.Command, args []string) error {
	pos, err := parseFloatArg("position", args[2])
	if err != nil {
		return err
	}
	if _, err := updateBench(args[0], func(b *bench.Bench) error { return b.Move(args[1], pos) }); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "moved %s to %g mm\n", args[1], pos)
	return nil
}

func renameElement(cmd *cobra.Command, args []string) error {
	if _, err := updateBench(args[0], func(b *bench.Bench) error { return b.Rename(args[1], args[2]) }); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "renamed %s to %s\n", args[1], args[2])
	return nil
}

func setFocal(cmd *cobra.Command, args []string) error {
	lens := args[1]
	setMin, setMax := cmd.Flags().Changed("min"), cmd.Flags().Changed("max")
	if len(args) < 3 && !setMin && !setMax {
		return fmt.Errorf("give a focal length, --min or --max")
	}
	var f float64
	if len(args) == 3 {
		v, err := parseFloatArg("focal length", args[2])
		if err != nil {
			return err
		}
		f = v
	}

	var current float64
	b, err := updateBench(args[0], func(b *bench.Bench) error {
		var err error
		switch {
		case setMin && setMax:
			// one edit, so only the final range has to be valid
			current, err = b.SetFocalRange(lens, minFocal, maxFocal)
		case setMin:
			current, err = b.SetMinFocalLength(lens, minFocal)
		case setMax:
			current, err = b.SetMaxFocalLength(lens, maxFocal)
		}
		if err != nil {
			return err
		}
		if len(args) == 3 {
			if current, err = b.SetFocalLength(lens, f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	e, _ := b.Lookup(lens)
	if len(args) == 3 && current != f {
		fmt.Fprintf(out, "clamped to tuning range: ")
	}
	fmt.Fprintf(out, "%v\n", e)
	return nil
}

func tuneLens(cmd *cobra.Command, args []string) error {
	frac, err := parseFloatArg("fraction", args[2])
	if err != nil {
		return err
	}
	var f float64
	if _, err := updateBench(args[0], func(b *bench.Bench) error {
		var err error
		f, err = b.Tune(args[1], frac)
		return err
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s tuned to %g: f = %g mm\n", args[1], frac, f)
	return nil
}

func setBeam(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if !cmd.Flags().Changed("wavelength") && !cmd.Flags().Changed("waist") {
		b, err := openBench(args[0])
		if err != nil {
			return err
		}
		printBeam(cmd, b.Beam())
		return nil
	}

	b, err := updateBench(args[0], func(b *bench.Bench) error {
		beam := b.Beam()
		if cmd.Flags().Changed("wavelength") {
			beam.Wavelength = wavelength
		}
		if cmd.Flags().Changed("waist") {
			beam.Waist = waist
		}
		return b.SetBeam(beam)
	})
	if err != nil {
		return err
	}
	fmt.Fprint(out, "updated ")
	printBeam(cmd, b.Beam())
	return nil
}

func printBeam(cmd *cobra.Command, beam bench.Beam) {
	fmt.Fprintf(cmd.OutOrStdout(), "beam: λ = %g nm, w0 = %g mm, z_R = %.6g mm\n",
		beam.Wavelength, beam.Waist, beam.RayleighRange())
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[1])
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	var results []automation.StepResult
	apply := func(b *bench.Bench) error {
		var err error
		results, err = automation.RunScenario(cmd.Context(), sc, b, cfg.WaistOptions())
		return err
	}
	if dryRun {
		b, err := openBench(args[0])
		if err != nil {
			return err
		}
		err = apply(b)
		printSteps(cmd, results)
		return err
	}
	_, err = updateBench(args[0], apply)
	printSteps(cmd, results)
	if err != nil {
		return err
	}
	logger.Info("scenario applied", "scenario", sc.Name, "steps", len(results))
	return nil
}

func printSteps(cmd *cobra.Command, results []automation.StepResult) {
	out := cmd.OutOrStdout()
	for _, r := range results {
		switch {
		case r.Params != nil:
			curv := "∞"
			if !r.Params.Divergent() {
				curv = fmt.Sprintf("%.6g mm", r.Params.RadiusOfCurvature)
			}
			fmt.Fprintf(out, "%2d %-9s radius %.6g mm, curvature %s at %g mm\n",
				r.Index, r.Op, r.Params.Radius, curv, r.Params.Position)
		case r.Op == "waist" && !r.Found:
			fmt.Fprintf(out, "%2d %-9s none\n", r.Index, r.Op)
		case r.Waist != nil:
			radius := "undefined"
			if !math.IsNaN(r.Waist.Radius) {
				radius = fmt.Sprintf("%.6g mm", r.Waist.Radius)
			}
			fmt.Fprintf(out, "%2d %-9s at %.9g mm, radius %s\n", r.Index, r.Op, r.Waist.Position, radius)
		case r.Focal != 0:
			fmt.Fprintf(out, "%2d %-9s f = %g mm\n", r.Index, r.Op, r.Focal)
		default:
			fmt.Fprintf(out, "%2d %-9s ok\n", r.Index, r.Op)
		}
	}
}

func listBenches(cmd *cobra.Command, args []string) error {
	entries, err := st.List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "no benches found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tELEMENTS\tMODIFIED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\n", e.Name, e.Elements, e.Modified.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	names := cfg.PresetNames()
	sort.Strings(names)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tOPTICS\tDESCRIPTION")
	for _, name := range names {
		p := cfg.Preset(name)
		fmt.Fprintf(w, "%s\t%d\t%s\n", name, len(p.Optics), p.Description)
	}
	return w.Flush()
}

func editBench(cmd *cobra.Command, args []string) error {
	name := args[0]
	b, err := openBench(name)
	if err != nil {
		return err
	}
	save := func(b *bench.Bench) error {
		_, err := st.SaveBench(name, b)
		return err
	}
	return tui.Run(b, cfg, name+storage.Extension, save)
}
