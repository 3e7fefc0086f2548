package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/pendsim/internal/analysis"
	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/experiment"
	"github.com/san-kum/pendsim/internal/export"
	"github.com/san-kum/pendsim/internal/metrics"
	"github.com/san-kum/pendsim/internal/optim"
	"github.com/san-kum/pendsim/internal/sim"
	"github.com/san-kum/pendsim/internal/storage"
	"github.com/san-kum/pendsim/internal/viz"
)

const lyapunovPerturbation = 1e-8

var (
	dataDir    string
	frames     int
	historyCap int
	configFile string
	preset     string
	strict     bool
	convention string
	sets       []string
	// Frame rate for live view
	frameRate int
	// Ensemble
	runs    int
	epsilon float64
	// Parameter sweep
	sweepParams []string
	sweepMetric string
	// Output file for exports
	outPath string
	allCols bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "pendsim",
		Short:        "pendulum simulation lab",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pendsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run simulation headlessly and store the trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "run simulation with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", viz.DefaultFPS, "frame rate")

	spreadCmd := &cobra.Command{
		Use:   "spread [model]",
		Short: "run perturbed copies in parallel and compare their final angles",
		Args:  cobra.ExactArgs(1),
		RunE:  runSpread,
	}
	addConfigFlags(spreadCmd)
	spreadCmd.Flags().IntVar(&runs, "runs", 8, "number of runs")
	spreadCmd.Flags().Float64Var(&epsilon, "epsilon", 1e-6, "initial angle offset between runs")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "grid search model parameters for the smallest metric value",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "parameter grid, name=min:max:count")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "energy_drift", "metric to minimize")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list models and their parameters",
		RunE:  listModels,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results in the terminal (latest run by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}

	pngCmd := &cobra.Command{
		Use:   "png [run_id]",
		Short: "plot run results to a PNG file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  pngRun,
	}
	pngCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <run_id>.png)")
	pngCmd.Flags().BoolVar(&allCols, "all", false, "plot every state column, not only angles")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, liveCmd, spreadCmd, sweepCmd, listCmd, modelsCmd, plotCmd, pngCmd, exportCSVCmd, exportJSONCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "frames to simulate")
	cmd.Flags().IntVar(&historyCap, "history", sim.DefaultHistoryCapacity, "trail history capacity")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().BoolVar(&strict, "strict", true, "stop on degenerate or non-finite states")
	cmd.Flags().StringVar(&convention, "convention", "hanging", "angle convention (hanging, standard)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "override a model parameter, name=value")
}

// loadConfig layers defaults, preset, config file and flags, in that order.
func loadConfig(cmd *cobra.Command, model string) (*config.Config, map[string]float64, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(model, preset)
		if cfg == nil {
			return nil, nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	cfg.Model = model
	flags := cmd.Flags()
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("history") {
		cfg.History = historyCap
	}
	if flags.Changed("convention") {
		cfg.Convention = convention
	}
	if flags.Changed("strict") {
		cfg.Strict = strict
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	params, err := parseSets(sets)
	if err != nil {
		return nil, nil, err
	}
	return cfg, params, nil
}

func parseSets(pairs []string) (map[string]float64, error) {
	params := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q, want name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", pair, err)
		}
		params[name] = v
	}
	return params, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	model := args[0]
	cfg, params, err := loadConfig(cmd, model)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg, params)
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s simulation...\n", model)
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil && result == nil {
		return err
	}
	elapsed := time.Since(start)

	runID, saveErr := st.Save(storage.RunInfo{
		Model:      model,
		Frames:     cfg.Frames,
		History:    cfg.History,
		Convention: cfg.GetConvention().String(),
		Params:     exp.Driver().Params(),
	}, result)
	if saveErr != nil {
		return saveErr
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("frames: %d/%d\n", result.StepsTaken, cfg.Frames)
	printMetrics(os.Stdout, result.Metrics)
	if env, ok := exp.Envelope(); ok {
		printEnvelope(os.Stdout, env)
	}
	for _, e := range result.Errors {
		fmt.Printf("stopped: %v\n", e)
	}

	return err
}

func printMetrics(out io.Writer, metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out, "\nmetrics:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%.6g\n", name, metrics[name])
	}
	w.Flush()
}

// printEnvelope lists the per-window peaks of the swing and whether they
// shrink monotonically.
func printEnvelope(out io.Writer, env *metrics.Envelope) {
	peaks := env.Peaks()
	if len(peaks) == 0 {
		return
	}
	parts := make([]string, len(peaks))
	for i, p := range peaks {
		parts[i] = fmt.Sprintf("%.4g", p)
	}
	fmt.Fprintf(out, "\nenvelope peaks: %s\n", strings.Join(parts, " "))
	fmt.Fprintf(out, "decaying: %t\n", env.Decaying())
}

func runLive(cmd *cobra.Command, args []string) error {
	model := args[0]
	cfg, params, err := loadConfig(cmd, model)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, params)
	if err := exp.Setup(); err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewModel(exp.Driver(), model, frameRate))
	_, err = p.Run()
	return err
}

func runSpread(cmd *cobra.Command, args []string) error {
	model := args[0]
	cfg, params, err := loadConfig(cmd, model)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, err := experiment.NewEnsemble(cfg, params, runs, epsilon).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%d runs of %s, %d frames, epsilon %g, %v\n\n", runs, model, cfg.Frames, epsilon, time.Since(start))

	div := experiment.Divergence(results, 0)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tOFFSET\tFINAL θ\t|Δθ|\tFRAMES\tSTOPPED")
	for i, r := range results {
		final := r.Final()
		stopped := ""
		if len(r.Result.Errors) > 0 {
			stopped = r.Result.Errors[0].Error()
		}
		fmt.Fprintf(w, "%d\t%.3g\t%.6f\t%.3e\t%d\t%s\n",
			r.Index, r.Offset, final[0], div[i], r.Result.StepsTaken, stopped)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	lambda, err := analysis.LyapunovExponent(experiment.New(cfg, params).Build, cfg.Frames, lyapunovPerturbation)
	if err != nil {
		fmt.Printf("\nlyapunov estimate unavailable: %v\n", err)
		return nil
	}
	fmt.Printf("\nlyapunov estimate: %.4g per frame\n", lambda)
	return nil
}

// parseGrid reads name=min:max:count.
func parseGrid(spec string) (string, []float64, error) {
	name, raw, ok := strings.Cut(spec, "=")
	parts := strings.Split(raw, ":")
	if !ok || name == "" || len(parts) != 3 {
		return "", nil, fmt.Errorf("invalid --param %q, want name=min:max:count", spec)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid --param %q: %w", spec, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid --param %q: %w", spec, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", nil, fmt.Errorf("invalid --param %q: count must be a positive integer", spec)
	}
	return strings.TrimSpace(name), optim.Linspace(lo, hi, n), nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	model := args[0]
	cfg, params, err := loadConfig(cmd, model)
	if err != nil {
		return err
	}
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}

	names := make([]string, 0, len(sweepParams))
	ranges := make([][]float64, 0, len(sweepParams))
	for _, spec := range sweepParams {
		name, values, err := parseGrid(spec)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	build := func(grid map[string]float64) (*experiment.Experiment, error) {
		merged := make(map[string]float64, len(params)+len(grid))
		for k, v := range params {
			merged[k] = v
		}
		for k, v := range grid {
			merged[k] = v
		}
		return experiment.New(cfg, merged), nil
	}

	best, bestVal, trials, err := optim.NewGridSearch(names, ranges).Search(ctx, build, sweepMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(sweepMetric))
	for _, t := range trials {
		row := make([]string, 0, len(names)+1)
		for _, name := range names {
			row = append(row, fmt.Sprintf("%.4g", t.Params[name]))
		}
		if t.Stopped != nil {
			row = append(row, "stopped: "+t.Stopped.Error())
		} else {
			row = append(row, fmt.Sprintf("%.6g", t.Value))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best == nil {
		fmt.Println("\nno run completed")
		return nil
	}
	fmt.Printf("\nbest %s = %.6g at", sweepMetric, bestVal)
	for _, name := range names {
		fmt.Printf(" %s=%.4g", name, best[name])
	}
	fmt.Println()
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
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tFRAMES\tHISTORY\tCONV\tERRORS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%d\t%s\t%d\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Frames,
			run.History,
			run.Convention,
			len(run.Errors),
		)
	}

	return w.Flush()
}

func listModels(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tPARAMETERS\tSTATE")
	for _, name := range registry.ListModels() {
		sys, err := registry.GetModel(name, config.DefaultConfig())
		if err != nil {
			return err
		}
		keys := make([]string, 0)
		for k := range sys.GetParams() {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, strings.Join(keys, ", "), strings.Join(stateNames(name, sys.StateDim()), ", "))
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	models := config.Models
	if len(args) > 0 {
		models = args[:1]
	}
	for _, model := range models {
		presets := config.ListPresets(model)
		if len(presets) == 0 {
			fmt.Printf("no presets for model: %s\n", model)
			continue
		}
		fmt.Printf("presets for %s:\n", model)
		for _, p := range presets {
			fmt.Printf("  %s\n", p)
		}
	}
	return nil
}

// stateNames labels the state columns of a model.
func stateNames(model string, dim int) []string {
	var names []string
	switch model {
	case "pendulum":
		names = []string{"theta", "omega", "alpha"}
	case "double_pendulum":
		names = []string{"theta1", "theta2", "omega1", "omega2", "alpha1", "alpha2"}
	case "driven":
		names = []string{"theta", "omega", "alpha", "frame"}
	}
	for i := len(names); i < dim; i++ {
		names = append(names, fmt.Sprintf("x%d", i))
	}
	return names[:dim]
}

// angleColumns is the number of leading state columns holding angles.
func angleColumns(model string) int {
	if model == "double_pendulum" {
		return 2
	}
	return 1
}

func resolveRun(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return st.Latest()
}

func loadRun(args []string) (*storage.RunMetadata, [][]float64, []int, error) {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return nil, nil, nil, err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	states, idx, err := st.LoadStates(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(states) == 0 {
		return nil, nil, nil, fmt.Errorf("no data in run %s", runID)
	}
	return meta, states, idx, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, states, _, err := loadRun(args)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(states))

	names := stateNames(meta.Model, len(states[0]))
	for varIdx, name := range names {
		if name == "frame" {
			continue
		}
		graph := asciigraph.Plot(export.Column(states, varIdx),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs frame"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func pngRun(cmd *cobra.Command, args []string) error {
	meta, states, idx, err := loadRun(args)
	if err != nil {
		return err
	}

	names := stateNames(meta.Model, len(states[0]))
	cols := angleColumns(meta.Model)
	if allCols {
		cols = len(names)
	}

	series := make(map[string][]float64, cols)
	for i := 0; i < cols; i++ {
		if names[i] == "frame" {
			continue
		}
		series[names[i]] = export.Column(states, i)
	}

	out := outPath
	if out == "" {
		out = meta.ID + ".png"
	}
	if err := export.SavePNG(out, meta.ID, idx, series); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func output() (io.WriteCloser, error) {
	if outPath == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(outPath)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	out, err := output()
	if err != nil {
		return err
	}
	defer out.Close()
	return st.ExportCSV(runID, out)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	out, err := output()
	if err != nil {
		return err
	}
	defer out.Close()
	return st.ExportJSON(runID, out)
}
