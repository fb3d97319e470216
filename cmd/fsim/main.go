package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fsim/internal/analysis"
	"github.com/san-kum/fsim/internal/config"
	"github.com/san-kum/fsim/internal/control"
	"github.com/san-kum/fsim/internal/experiment"
	"github.com/san-kum/fsim/internal/optim"
	"github.com/san-kum/fsim/internal/storage"
	"github.com/san-kum/fsim/internal/tui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	tf         float64
	saveStep   float64
	method     string
	controller string
	saveRun    bool
	saveSteps  bool
	stepSize   float64
	param      string
	values     string
	workers    int
	grid       []string
	metric     string
	lyapDt     float64
)

var registry = experiment.NewRegistry()

func main() {
	rootCmd := &cobra.Command{
		Use:   "fsim",
		Short: "step, solve and record dynamical systems",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				logrus.Fatalf("Invalid log level: %s", logLevel)
			}
			logrus.SetLevel(level)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "solve a model over its time span",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().BoolVar(&saveRun, "save", true, "save the run to the data directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a saved run and its metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id] [column...]",
		Short: "plot columns of a saved run",
		Args:  cobra.MinimumNArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "print a saved run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list available models",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range registry.ListModels() {
				fmt.Println(name)
			}
			return nil
		},
	}

	stepCmd := &cobra.Command{
		Use:   "step [model]",
		Short: "step a model interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  stepModel,
	}
	addRunFlags(stepCmd)
	stepCmd.Flags().Float64Var(&stepSize, "step", 0, "time advanced per key press (default: save step)")
	stepCmd.Flags().BoolVar(&saveSteps, "save", false, "save the stepped samples on exit")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "solve a model once per value of a parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepParam,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&param, "param", "", "parameter to sweep")
	sweepCmd.Flags().StringVar(&values, "values", "", "comma separated parameter values")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel solves (default: GOMAXPROCS)")
	_ = sweepCmd.MarkFlagRequired("param")
	_ = sweepCmd.MarkFlagRequired("values")

	optimizeCmd := &cobra.Command{
		Use:   "optimize [model]",
		Short: "grid search parameters minimizing a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  optimizeParams,
	}
	addRunFlags(optimizeCmd)
	optimizeCmd.Flags().StringArrayVar(&grid, "grid", nil, "parameter values as name=v1,v2,... (repeatable)")
	optimizeCmd.Flags().StringVar(&metric, "metric", "", "metric to minimize, e.g. energy_drift(energy)")
	_ = optimizeCmd.MarkFlagRequired("grid")
	_ = optimizeCmd.MarkFlagRequired("metric")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [model]",
		Short: "estimate the largest lyapunov exponent",
		Args:  cobra.MaximumNArgs(1),
		RunE:  estimateLyapunov,
	}
	addRunFlags(lyapunovCmd)
	lyapunovCmd.Flags().Float64Var(&lyapDt, "dt", analysis.DefaultLyapunovDt, "renormalization interval")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, exportJSONCmd, presetsCmd, modelsCmd, stepCmd, sweepCmd, optimizeCmd, lyapunovCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "run file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "named preset for the model")
	cmd.Flags().Float64Var(&tf, "tf", 0, "end of the time span")
	cmd.Flags().Float64Var(&saveStep, "save-step", 0, "sampling step")
	cmd.Flags().StringVar(&method, "method", "", "integration method")
	cmd.Flags().StringVar(&controller, "controller", "", "controller (none, pid, lqr)")
}

// loadConfig layers the run file, or a preset, under the command line flags.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	case preset != "":
		if len(args) == 0 {
			return nil, fmt.Errorf("--preset needs a model")
		}
		c := config.GetPreset(args[0], preset)
		if c == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(args[0]))
		}
		cfg = c
	}

	if len(args) > 0 && args[0] != cfg.Model {
		if configFile != "" || preset != "" {
			return nil, fmt.Errorf("model %s does not match %s in the run file", args[0], cfg.Model)
		}
		cfg.Model = args[0]
	}

	flags := cmd.Flags()
	if flags.Changed("tf") {
		cfg.TF = tf
	}
	if flags.Changed("save-step") {
		cfg.SaveStep = saveStep
		cfg.SaveAt = nil
	}
	if flags.Changed("method") {
		cfg.Method = method
	}
	if flags.Changed("controller") {
		cfg.Controller = controller
	}
	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	exp, err := registry.Build(cfg)
	if err != nil {
		return err
	}
	table, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	metrics := exp.Metrics(table)

	fmt.Printf("model: %s\n", cfg.Model)
	fmt.Printf("span: [%g, %g]\n", cfg.T0, cfg.TF)
	fmt.Printf("samples: %d\n", table.Len())
	printMetrics(metrics)

	if !saveRun {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, table, metrics)
	if err != nil {
		return err
	}
	fmt.Printf("\nsaved: %s\n", runID)
	return nil
}

func printMetrics(metrics map[string]float64) {
	if len(metrics) == 0 {
		return
	}
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %-24s %.6g\n", name, metrics[name])
	}
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

	fmt.Printf("%-40s %-14s %-8s %s\n", "ID", "MODEL", "ROWS", "TIMESTAMP")
	fmt.Println(strings.Repeat("-", 90))
	for _, run := range runs {
		fmt.Printf("%-40s %-14s %-8d %s\n", run.ID, run.Model, run.Rows, run.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("id: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("timestamp: %s\n", meta.Timestamp.Format("2006-01-02 15:04:05"))
	if meta.Config != nil {
		fmt.Printf("span: [%g, %g]\n", meta.Config.T0, meta.Config.TF)
		if meta.Config.Method != "" {
			fmt.Printf("method: %s\n", meta.Config.Method)
		}
		if meta.Config.Controller != "" {
			fmt.Printf("controller: %s\n", meta.Config.Controller)
		}
	}
	fmt.Printf("rows: %d\n", meta.Rows)
	fmt.Printf("columns: %s\n", strings.Join(meta.Columns, ", "))
	printMetrics(meta.Metrics)
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	cols, err := st.LoadTable(args[0])
	if err != nil {
		return err
	}
	if len(cols.Times) == 0 {
		return fmt.Errorf("run %s has no samples", args[0])
	}

	names := args[1:]
	if len(names) == 0 {
		names = cols.Names
		if maxPlots := 6; len(names) > maxPlots {
			names = names[:maxPlots]
		}
	}

	fmt.Printf("run: %s\n", args[0])
	fmt.Printf("samples: %d\n\n", len(cols.Times))

	for _, name := range names {
		data := cols.Series(name)
		if data == nil {
			return fmt.Errorf("run %s has no column %q (have %v)", args[0], name, cols.Names)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(st.TablePath(meta.ID))
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func stepModel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	log, status := tui.NewStatusLogger()
	opts := []experiment.Option{experiment.WithLogger(log)}

	var manual *control.Manual
	if cfg.Controller == "" || cfg.Controller == "none" {
		switch cfg.Model {
		case "pendulum", "spring_mass":
			manual = control.NewManual(1)
			opts = append(opts, experiment.WithInputs(map[string]control.Input{"u": manual}))
		}
	}

	exp, err := registry.Build(cfg, opts...)
	if err != nil {
		return err
	}

	step := stepSize
	if step <= 0 {
		step = exp.SaveStep()
	}
	m := tui.New(exp.Simulator(), tui.Options{
		Name:   cfg.Model,
		Step:   step,
		Manual: manual,
		Status: status,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return err
	}

	if !saveSteps || m.Table().Len() == 0 {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, m.Table(), exp.Metrics(m.Table()))
	if err != nil {
		return err
	}
	fmt.Printf("saved: %s\n", runID)
	return nil
}

func sweepParam(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	vals, err := parseValues(values)
	if err != nil {
		return err
	}

	exp, err := registry.Build(cfg)
	if err != nil {
		return err
	}

	tables, err := exp.Sweep(cmd.Context(), param, vals, workers)
	if err != nil {
		return err
	}

	fmt.Printf("model: %s\n", cfg.Model)
	fmt.Printf("param: %s\n\n", param)
	for i, table := range tables {
		fmt.Printf("%s = %g (%d samples)\n", param, vals[i], table.Len())
		printMetrics(exp.Metrics(table))
		fmt.Println()
	}
	return nil
}

func parseValues(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", f, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no values to sweep")
	}
	return out, nil
}

func optimizeParams(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(grid))
	ranges := make([][]float64, 0, len(grid))
	for _, g := range grid {
		name, vals, ok := strings.Cut(g, "=")
		if !ok {
			return fmt.Errorf("invalid grid %q, want name=v1,v2,...", g)
		}
		r, err := parseValues(vals)
		if err != nil {
			return err
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, r)
	}

	search, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	res, err := search.Search(cmd.Context(), func(params map[string]float64) (*experiment.Experiment, error) {
		c := *cfg
		c.Params = make(map[string]float64, len(cfg.Params)+len(params))
		for k, v := range cfg.Params {
			c.Params[k] = v
		}
		for k, v := range params {
			c.Params[k] = v
		}
		return registry.Build(&c)
	}, metric)
	if err != nil {
		return err
	}

	fmt.Printf("model: %s\n", cfg.Model)
	fmt.Printf("tried: %d\n", res.Tried)
	fmt.Printf("best %s: %.6g\n", metric, res.Value)
	for _, name := range names {
		fmt.Printf("  %s = %g\n", name, res.Params[name])
	}
	return nil
}

func estimateLyapunov(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := registry.Build(cfg)
	if err != nil {
		return err
	}

	lambda, err := analysis.Lyapunov(exp.SimConfig(), analysis.LyapunovOptions{Dt: lyapDt})
	if err != nil {
		return err
	}
	fmt.Printf("model: %s\n", cfg.Model)
	fmt.Printf("lyapunov exponent: %.6g\n", lambda)
	if lambda > 0 {
		fmt.Println("nearby trajectories diverge (chaotic)")
	}
	return nil
}
