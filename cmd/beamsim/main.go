package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/beamsim/internal/bench"
	"github.com/san-kum/beamsim/internal/config"
	"github.com/san-kum/beamsim/internal/logging"
	"github.com/san-kum/beamsim/internal/storage"
)

var (
	dataDir    string
	configFile string
	logLevel   string

	// set up by the root command before any subcommand runs
	cfg    *config.Config
	st     *storage.Store
	logger *slog.Logger

	// add / focal
	focal    float64
	minFocal float64
	maxFocal float64
	// new
	preset string
	force  bool
	// beam
	wavelength float64
	waist      float64
	// plot / profile / export / sweep
	from    float64
	to      float64
	samples int
	steps   int
	output  string
	title   string
	// waist
	waistSamples int
	tolerance    float64
	// run
	dryRun bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("beamsim failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "beamsim",
		Short:             "gaussian beam optics bench",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".beamsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")

	newCmd := &cobra.Command{
		Use:   "new [bench]",
		Short: "create a bench from a preset",
		Args:  cobra.ExactArgs(1),
		RunE:  newBench,
	}
	newCmd.Flags().StringVar(&preset, "preset", "default", "preset to start from")
	newCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing bench")

	showCmd := &cobra.Command{
		Use:   "show [bench]",
		Short: "list the elements of a bench",
		Args:  cobra.ExactArgs(1),
		RunE:  showBench,
	}

	addCmd := &cobra.Command{
		Use:   "add [bench] [lens|tunable|poi] [name] [position]",
		Short: "add an element",
		Args:  cobra.ExactArgs(4),
		RunE:  addElement,
	}
	addCmd.Flags().Float64Var(&focal, "f", 100, "focal length (mm)")
	addCmd.Flags().Float64Var(&minFocal, "min", 0, "focal length at minimum control input (tunable)")
	addCmd.Flags().Float64Var(&maxFocal, "max", 0, "focal length at maximum control input (tunable)")

	removeCmd := &cobra.Command{
		Use:   "remove [bench] [element]",
		Short: "remove an element",
		Args:  cobra.ExactArgs(2),
		RunE:  removeElement,
	}

	moveCmd := &cobra.Command{
		Use:   "move [bench] [element] [position]",
		Short: "move an element",
		Args:  cobra.ExactArgs(3),
		RunE:  moveElement,
	}

	renameCmd := &cobra.Command{
		Use:   "rename [bench] [element] [new-name]",
		Short: "rename an element",
		Args:  cobra.ExactArgs(3),
		RunE:  renameElement,
	}

	focalCmd := &cobra.Command{
		Use:   "focal [bench] [lens] [focal-length]",
		Short: "set a lens focal length or a tunable lens range",
		Args:  cobra.RangeArgs(2, 3),
		RunE:  setFocal,
	}
	focalCmd.Flags().Float64Var(&minFocal, "min", 0, "focal length at minimum control input")
	focalCmd.Flags().Float64Var(&maxFocal, "max", 0, "focal length at maximum control input")

	tuneCmd := &cobra.Command{
		Use:   "tune [bench] [lens] [fraction]",
		Short: "tune a lens between its minimum (0) and maximum (1) power",
		Args:  cobra.ExactArgs(3),
		RunE:  tuneLens,
	}

	beamCmd := &cobra.Command{
		Use:   "beam [bench]",
		Short: "show or change the input beam",
		Args:  cobra.ExactArgs(1),
		RunE:  setBeam,
	}
	beamCmd.Flags().Float64Var(&wavelength, "wavelength", bench.DefaultWavelength, "wavelength (nm)")
	beamCmd.Flags().Float64Var(&waist, "waist", bench.DefaultWaist, "collimated waist (mm)")

	atCmd := &cobra.Command{
		Use:   "at [bench] [position]",
		Short: "beam parameters at a position",
		Args:  cobra.ExactArgs(2),
		RunE:  beamAt,
	}

	waistCmd := &cobra.Command{
		Use:   "waist [bench] [start] [end]",
		Short: "find a beam waist",
		Args:  cobra.MatchAll(cobra.RangeArgs(1, 3), rejectTwoArgs),
		RunE:  findWaist,
	}
	waistCmd.Flags().IntVar(&waistSamples, "samples", bench.DefaultWaistSamples, "samples per search pass")
	waistCmd.Flags().Float64Var(&tolerance, "tolerance", bench.DefaultWaistTolerance, "search resolution (mm)")

	plotCmd := &cobra.Command{
		Use:   "plot [bench]",
		Short: "plot the beam radius in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotBench,
	}
	windowFlags(plotCmd)

	profileCmd := &cobra.Command{
		Use:   "profile [bench]",
		Short: "sample the beam profile and store it",
		Args:  cobra.ExactArgs(1),
		RunE:  storeProfile,
	}
	windowFlags(profileCmd)

	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "list stored profiles",
		Args:  cobra.NoArgs,
		RunE:  listProfiles,
	}

	exportCmd := &cobra.Command{
		Use:   "export [bench]",
		Short: "render the beam profile to png, svg or pdf",
		Args:  cobra.ExactArgs(1),
		RunE:  exportBench,
	}
	windowFlags(exportCmd)
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "output file (.png, .svg, .pdf)")
	exportCmd.Flags().StringVar(&title, "title", "", "figure title")
	exportCmd.MarkFlagRequired("output")

	sweepCmd := &cobra.Command{
		Use:   "sweep [bench] [tunable-lens]",
		Short: "track the waist while tuning a lens across its range",
		Args:  cobra.ExactArgs(2),
		RunE:  sweepLens,
	}
	windowFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&steps, "steps", 11, "tuning steps from 0 to 1")

	runCmd := &cobra.Command{
		Use:   "run [bench] [scenario.yaml]",
		Short: "apply a scripted scenario to a bench",
		Args:  cobra.ExactArgs(2),
		RunE:  runScenario,
	}
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "run the scenario without saving the bench")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved benches",
		Args:  cobra.NoArgs,
		RunE:  listBenches,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	editCmd := &cobra.Command{
		Use:   "edit [bench]",
		Short: "edit a bench interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  editBench,
	}

	rootCmd.AddCommand(newCmd, showCmd, addCmd, removeCmd, moveCmd, renameCmd, focalCmd, tuneCmd,
		beamCmd, atCmd, waistCmd, plotCmd, profileCmd, profilesCmd, exportCmd, sweepCmd, runCmd,
		listCmd, presetsCmd, editCmd)
	return rootCmd
}

func windowFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&from, "from", 0, "window start (mm, default source)")
	cmd.Flags().Float64Var(&to, "to", 0, "window end (mm, default last element plus margin)")
	cmd.Flags().IntVar(&samples, "samples", 0, "sample count (default from config)")
}

func rejectTwoArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 2 {
		return fmt.Errorf("give both start and end, or neither")
	}
	return nil
}

// setup loads the config, installs the logger and opens the store. Flags
// override config values only when set explicitly.
func setup(cmd *cobra.Command, args []string) error {
	cfg = config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	level := cfg.Log.Level
	if cmd.Flags().Changed("log-level") {
		level = logLevel
	}
	var err error
	logger, err = logging.Setup(cmd.ErrOrStderr(), level)
	if err != nil {
		return err
	}

	st = storage.New(dataDir)
	logger.Debug("ready", "data", dataDir, "config", configFile)
	return nil
}
