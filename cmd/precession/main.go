package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/precession/internal/analysis"
	"github.com/san-kum/precession/internal/automation"
	"github.com/san-kum/precession/internal/config"
	"github.com/san-kum/precession/internal/dynamo"
	"github.com/san-kum/precession/internal/experiment"
	"github.com/san-kum/precession/internal/export"
	"github.com/san-kum/precession/internal/logging"
	"github.com/san-kum/precession/internal/metrics"
	"github.com/san-kum/precession/internal/optim"
	"github.com/san-kum/precession/internal/storage"
	"github.com/san-kum/precession/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
)

var (
	dataDir     string
	logLevel    string
	logFile     string
	configFile  string
	preset      string
	integrator  string
	alpha       float64
	beta        float64
	capacity    int
	interval    time.Duration
	steps       int
	sampleEvery int
	noSave      bool
	svgSize     int
	svgColor    string
	outPath     string
	section     bool
	fadeFrom    string
	fadeBands   int
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepN      int
	gridValues  []float64
	target      float64
	metricName  string
)

// main registers the commands and exits with status 1 if the executed
// command returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:          "precession",
		Short:        "relativistic perihelion precession of a single orbit",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".precession", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error, none)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "animate the orbit and its trail in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addOrbitFlags(liveCmd)
	liveCmd.Flags().DurationVar(&interval, "interval", config.DefaultFrameInterval, "wall-clock delay between frames")
	liveCmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file (the terminal is used by the view)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "integrate without rendering and store the run",
		Args:  cobra.NoArgs,
		RunE:  runHeadless,
	}
	addOrbitFlags(runCmd)
	runCmd.Flags().IntVar(&steps, "steps", 10000, "number of steps")
	runCmd.Flags().IntVar(&sampleEvery, "sample-every", 10, "record the state every n steps")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "print metrics without storing the run")

	compareCmd := &cobra.Command{
		Use:   "compare [preset]...",
		Short: "run several presets concurrently and compare their precession",
		Args:  cobra.MinimumNArgs(1),
		RunE:  comparePresets,
	}
	compareCmd.Flags().IntVar(&steps, "steps", 10000, "number of steps")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every orbit listed in a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "print metrics without storing the runs")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one parameter and tabulate the precession",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addOrbitFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "alpha", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1e6, "last value")
	sweepCmd.Flags().IntVar(&sweepN, "n", 5, "number of values")
	sweepCmd.Flags().IntVar(&steps, "steps", 10000, "steps per run")

	fitCmd := &cobra.Command{
		Use:   "fit",
		Short: "pick the parameter value whose metric is closest to a target",
		Args:  cobra.NoArgs,
		RunE:  runFit,
	}
	addOrbitFlags(fitCmd)
	fitCmd.Flags().StringVar(&sweepParam, "param", "alpha", "parameter to search")
	fitCmd.Flags().Float64SliceVar(&gridValues, "values", []float64{0, 2.5e5, 5e5, 7.5e5, 1e6}, "candidate values")
	fitCmd.Flags().StringVar(&metricName, "metric", "perihelion_advance", "metric to match")
	fitCmd.Flags().Float64Var(&target, "target", -0.5, "target metric value")
	fitCmd.Flags().IntVar(&steps, "steps", 10000, "steps per run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the radius of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "show the radial phase portrait or perihelion section of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  phaseRun,
	}
	phaseCmd.Flags().BoolVar(&section, "section", false, "plot perihelion positions instead of (r, dr/dt)")

	svgCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the trail of a stored run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().IntVar(&svgSize, "size", 800, "image size in pixels")
	svgCmd.Flags().StringVar(&svgColor, "color", "#ff00ff", "trail color")
	svgCmd.Flags().StringVar(&fadeFrom, "fade-from", "", "colour of the oldest trail point; fades to --color")
	svgCmd.Flags().IntVar(&fadeBands, "bands", 32, "number of colour bands when fading")
	svgCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage configuration files",
	}

	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default configuration as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if preset != "" {
				if cfg = config.GetPreset(preset); cfg == nil {
					return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
				}
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	configInitCmd.Flags().StringVar(&preset, "preset", "", "start from a preset")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(liveCmd, runCmd, compareCmd, scenarioCmd, sweepCmd, fitCmd, listCmd, plotCmd, phaseCmd, svgCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addOrbitFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&integrator, "integrator", "symplectic", "integrator (symplectic, leapfrog)")
	cmd.Flags().Float64Var(&alpha, "alpha", config.DefaultAlpha, "strength of the speed correction term")
	cmd.Flags().Float64Var(&beta, "beta", config.DefaultBeta, "strength of the 1/r^4 correction term")
	cmd.Flags().IntVar(&capacity, "capacity", 5000, "trail capacity in points")
}

// loadConfig resolves defaults, then the preset, then the config file, then
// any flag set explicitly on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "mercury"

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		name = preset
	}

	if configFile != "" {
		loaded, err := config.LoadInto(configFile, cfg)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	if cmd.Flags().Changed("alpha") {
		cfg.Physics.Alpha = alpha
	}
	if cmd.Flags().Changed("beta") {
		cfg.Physics.Beta = beta
	}
	if cmd.Flags().Changed("capacity") {
		cfg.Trail.Capacity = capacity
	}
	if f := cmd.Flags().Lookup("interval"); f != nil && f.Changed {
		cfg.Display.FrameInterval = interval
	}
	return cfg, name, nil
}

func newLogger(w io.Writer) (log.Logger, error) {
	return logging.New(w, logLevel)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var logger log.Logger = log.NewNopLogger()
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		if logger, err = newLogger(f); err != nil {
			return err
		}
	}

	scene := viz.NewDefaultScene()
	loop, err := cfg.NewLoop(scene)
	if err != nil {
		return err
	}
	loop.SetLogger(logger)
	peri := metrics.NewPerihelion()
	loop.AddMetric(peri)

	level.Info(logger).Log("msg", "live view started", "config", name, "interval", cfg.Display.FrameInterval)

	m := viz.NewModel(name, loop, scene, peri, cfg.Display.FrameInterval)
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return err
	}
	if vm, ok := final.(viz.Model); ok && vm.Err() != nil {
		return vm.Err()
	}
	return nil
}

func runHeadless(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exp, err := experiment.New(experiment.Spec{Name: name, Config: cfg, Steps: steps, SampleEvery: sampleEvery}, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	run, runErr := exp.Run(ctx)
	elapsed := time.Since(start)

	fmt.Printf("completed %d steps in %v\n", run.Meta.Steps, elapsed)
	printMetrics(run.Meta.Metrics)

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(run)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return runErr
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %-24s %.6g\n", name, m[name])
	}
}

func comparePresets(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}

	specs := make([]experiment.Spec, len(args))
	for i, name := range args {
		cfg := config.GetPreset(name)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
		specs[i] = experiment.Spec{Name: name, Config: cfg, Steps: steps}
	}

	runs, err := experiment.RunAll(context.Background(), specs, logger)
	if ferr := printRunTable(runs); ferr != nil {
		return ferr
	}
	return err
}

func printRunTable(runs []*storage.Run) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tINTEG\tALPHA\tBETA\tADVANCE/ORBIT\tRADIUS RATIO\tENERGY DRIFT\tERROR")
	for _, run := range runs {
		if run == nil {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%.3g\t%.3g\t%+.5f\t%.4f\t%.2e\t%s\n",
			run.Meta.Name,
			run.Meta.Integrator,
			run.Meta.Params["alpha"],
			run.Meta.Params["beta"],
			run.Meta.Metrics["perihelion_advance"],
			run.Meta.Metrics["radius_ratio"],
			run.Meta.Metrics["energy_drift"],
			run.Meta.Error,
		)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if scenario.Description != "" {
		fmt.Printf("%s: %s\n\n", scenario.Name, scenario.Description)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runs, runErr := automation.RunScenario(ctx, scenario, logger)
	if err := printRunTable(runs); err != nil {
		return err
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		for _, run := range runs {
			if run == nil {
				continue
			}
			runID, err := st.Save(run)
			if err != nil {
				return err
			}
			fmt.Printf("saved %s\n", runID)
		}
	}
	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	results, err := automation.RunSweep(context.Background(), &automation.ParameterSweep{
		Base:      cfg,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepN,
		Steps:     steps,
	}, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tADVANCE/ORBIT\tRADIUS RATIO\tENERGY DRIFT\tERROR\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%+.5f\t%.4f\t%.2e\t%s\n", r.ParamValue, r.Advance, r.RadiusRatio, r.EnergyDrift, r.Error)
	}
	return w.Flush()
}

func runFit(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	g, err := optim.NewGridSearch([]string{sweepParam}, [][]float64{gridValues})
	if err != nil {
		return err
	}
	best, dist, evals, err := g.Search(context.Background(), cfg, metricName, target, steps, logger)
	if err != nil {
		return err
	}

	for _, e := range evals {
		fmt.Printf("  %s=%-10.4g %s=%+.5f %s\n", sweepParam, e.Params[sweepParam], metricName, e.Value, e.Error)
	}
	fmt.Printf("\nbest %s=%.4g (|%s - %g| = %.5f)\n", sweepParam, best[sweepParam], metricName, target, dist)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSTEPS\tDT\tINTEG\tALPHA\tBETA\tTRAIL")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.4f\t%s\t%.3g\t%.3g\t%d/%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			run.Integrator,
			run.Params["alpha"],
			run.Params["beta"],
			run.TrailCount,
			run.TrailCapacity,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	radii := make([]float64, len(samples))
	for i, smp := range samples {
		radii[i] = smp.State.Radius()
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(samples))

	graph := asciigraph.Plot(radii,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("orbital radius"),
	)
	fmt.Println(graph)
	fmt.Println()
	fmt.Printf("perihelion: %.4f\n", floats.Min(radii))
	fmt.Printf("aphelion:   %.4f\n", floats.Max(radii))
	if adv, ok := meta.Metrics["perihelion_advance"]; ok {
		fmt.Printf("advance:    %+.5f rad/orbit\n", adv)
	}
	return nil
}

func phaseRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	states := make([]dynamo.State, len(samples))
	for i, smp := range samples {
		states[i] = smp.State
	}

	portrait := analysis.RadialPortrait(states)
	if section {
		portrait = analysis.PerihelionSection(states)
	}
	if len(portrait.Points) == 0 {
		return fmt.Errorf("run %s: nothing to plot", args[0])
	}

	fmt.Printf("%s vs %s (%d points)\n\n", portrait.YLabel, portrait.XLabel, len(portrait.Points))
	fmt.Print(analysis.PhasePortraitToASCII(portrait, 72, 24))
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	points, err := st.LoadTrail(args[0])
	if err != nil {
		return err
	}

	svg := export.TrailToSVG(points, svgSize, svgColor)
	if fadeFrom != "" {
		if svg, err = export.FadedTrailToSVG(points, svgSize, fadeFrom, svgColor, fadeBands); err != nil {
			return err
		}
	}
	if svg == "" {
		return fmt.Errorf("run %s has %d trail points, need at least 2", args[0], len(points))
	}

	if outPath == "" {
		_, err = fmt.Println(svg)
		return err
	}
	return os.WriteFile(outPath, []byte(svg+"\n"), 0644)
}
