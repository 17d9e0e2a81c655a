package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/plasmasim/internal/config"
	"github.com/san-kum/plasmasim/internal/plasma"
	"github.com/san-kum/plasmasim/internal/ratetable"
	"github.com/san-kum/plasmasim/internal/reactor"
	"github.com/san-kum/plasmasim/internal/storage"
	"github.com/san-kum/plasmasim/internal/sweep"
	"github.com/san-kum/plasmasim/internal/viz"
)

// loadConfig layers defaults, preset, config file and changed flags, in that
// order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		v := variant
		if v == "" {
			v = cfg.Variant
		}
		p := config.GetPreset(v, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(v))
		}
		cfg = p
	}

	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	case iniFile != "":
		c, err := config.LoadINI(iniFile, iniDataDir(iniFile))
		if err != nil {
			return nil, fmt.Errorf("failed to load ini: %w", err)
		}
		cfg = c
	}

	flags := cmd.Flags()
	if flags.Changed("rates") {
		cfg.RatesPath = ratesPath
	}
	if flags.Changed("variant") {
		cfg.Variant = variant
	}
	if flags.Changed("method") {
		cfg.Method = method
	}
	if flags.Changed("te") {
		cfg.Plasma.Te = te
	}
	if flags.Changed("tg") {
		cfg.Plasma.Tg = tg
	}
	if flags.Changed("ev") {
		cfg.Plasma.Ev = ev
	}
	if flags.Changed("power") {
		cfg.Plasma.PowerDensity = power
	}
	if flags.Changed("density") {
		cfg.Plasma.DensityModel = density
	}
	if flags.Changed("catalyst") {
		cfg.Plasma.Catalyst = catalyst
	}
	if flags.Changed("ratio") {
		cfg.Feed.Ratio = ratio
	}
	if flags.Changed("total-density") {
		cfg.Feed.TotalDensity = totalDensity
	}
	if flags.Changed("time") {
		cfg.Simulation.Duration = duration
	}
	if flags.Changed("samples") {
		cfg.Simulation.Samples = samples
	}
	if flags.Changed("te-min") {
		cfg.Sweep.TeMin = teMin
	}
	if flags.Changed("te-max") {
		cfg.Sweep.TeMax = teMax
	}
	if flags.Changed("points") {
		cfg.Sweep.Points = points
	}
	if flags.Changed("reaction") {
		cfg.Sweep.Reactions = reactions
	}
	return cfg, nil
}

// iniDataDir is the data directory that sits next to a legacy config.ini.
func iniDataDir(path string) string {
	return filepath.Join(filepath.Dir(path), "data")
}

func loadTable(cfg *config.Config) (*ratetable.Table, error) {
	if cfg.RatesPath == "" {
		return ratetable.Default()
	}
	return ratetable.LoadFile(cfg.RatesPath)
}

func newReactor(cfg *config.Config) (*reactor.Reactor, error) {
	table, err := loadTable(cfg)
	if err != nil {
		return nil, err
	}
	return reactor.New(table, log)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	r, err := newReactor(cfg)
	if err != nil {
		return err
	}

	req := cfg.Request()
	fmt.Printf("running %s kinetics (%s)...\n", req.Variant, req.Method)
	start := time.Now()

	resp, err := r.Run(context.Background(), req)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(req, resp)
	if err != nil {
		return err
	}

	fmt.Println(viz.TitleStyle.Render("plasmasim " + resp.Variant))
	fmt.Println(viz.Subtle.Render(resp.Plasma.String()))
	fmt.Println(viz.Metric("completed in", elapsed.String()))
	fmt.Println(viz.Metric("run id", runID))
	fmt.Println(viz.Metric("steps", fmt.Sprintf("%d (%d rejected)", resp.Result.StepsTaken, resp.Result.Rejected)))

	fmt.Println(viz.Separator(48))
	fmt.Println(viz.HeaderStyle.Render("final concentrations (cm^-3)"))
	final := resp.Result.Final()
	for i, name := range resp.Names() {
		fmt.Printf("  %-5s %12.4e  %s\n", name, final[i], viz.SparklineChart(resp.Series(name), 30))
	}

	fmt.Println()
	fmt.Println(viz.HeaderStyle.Render("metrics"))
	for _, name := range sortedMetricNames(resp.Result.Metrics) {
		fmt.Printf("  %s\n", viz.Metric(name, fmt.Sprintf("%.6g", resp.Result.Metrics[name])))
	}

	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rx, err := newReactor(cfg)
	if err != nil {
		return err
	}

	template := plasma.State{Tg: cfg.Plasma.Tg, Ev: cfg.Plasma.Ev}

	m, err := sweep.Run(context.Background(), rx.Rater(), cfg.SweepReactions(), cfg.SweepGrid(), template)
	if err != nil {
		return err
	}

	fmt.Println(viz.TitleStyle.Render("rate coefficients vs electron temperature"))
	fmt.Println(viz.MatrixTable(m))
	return nil
}

func listRates(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	table, err := loadTable(cfg)
	if err != nil {
		return err
	}

	rx, err := reactor.New(table, log)
	if err != nil {
		return err
	}
	rater := rx.Rater()
	s := plasma.State{Te: cfg.Plasma.Te, Tg: cfg.Plasma.Tg, Ev: cfg.Plasma.Ev}
	fmt.Println(viz.Subtle.Render(s.String()))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REACTION\tKIND\tRATE\tVALUE")
	for _, e := range table.Entries() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4e\n", e.Name, e.Kind, e.Raw, rater.Rate(e.Name, s))
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tVARIANT\tMETHOD\tTE\tTG\tCATALYST\tNH3 YIELD\tTIMESTAMP")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.0f\t%.2f\t%.3e\t%s\n",
			run.ID, run.Variant, run.Method,
			run.Plasma.Te, run.Plasma.Tg, run.Catalyst,
			run.Metrics["nh3_yield"],
			run.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, traj, result, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}

	opts := viz.DefaultPlotOptions()
	opts.Log = logScale

	fmt.Printf("run: %s (%s, %s)\n\n", meta.ID, meta.Variant, meta.Method)
	for i, name := range traj.Species {
		if species != "" && name != species {
			continue
		}
		fmt.Println(viz.PlotSpecies(name, result.Times, result.Series(i), opts))
		fmt.Println()
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	_, traj, result, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	return storage.WriteCSV(os.Stdout, traj.Species, result)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, _, result, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	return storage.WriteJSON(os.Stdout, *meta, result)
}

func runScan(cmd *cobra.Command, args []string) error {
	if len(scanParams) == 0 {
		return fmt.Errorf("at least one --param is required (one of %v)", reactor.ParamNames())
	}

	names := make([]string, 0, len(scanParams))
	ranges := make([][]float64, 0, len(scanParams))
	for _, p := range scanParams {
		name, values, err := parseScanParam(p)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	gs, err := reactor.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	r, err := newReactor(cfg)
	if err != nil {
		return err
	}

	best, visited, err := gs.Search(context.Background(), r, cfg.Request(), metric)
	if err != nil && !errors.Is(err, reactor.ErrNoRuns) {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metric))
	for _, pt := range visited {
		cells := make([]string, len(names))
		for i, n := range names {
			cells[i] = strconv.FormatFloat(pt.Params[n], 'g', 4, 64)
		}
		value := fmt.Sprintf("%.4e", pt.Value)
		if pt.Err != nil {
			value = "failed: " + pt.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(cells, "\t"), value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best.Params == nil {
		return reactor.ErrNoRuns
	}
	fmt.Println()
	fmt.Println(viz.Metric("best "+metric, fmt.Sprintf("%.4e at %v", best.Value, best.Params)))
	return nil
}

// parseScanParam reads "name=v1,v2,..." or "name=lo:hi:n".
func parseScanParam(s string) (string, []float64, error) {
	name, spec, ok := strings.Cut(s, "=")
	if !ok || name == "" || spec == "" {
		return "", nil, fmt.Errorf("invalid --param %q, want name=v1,v2 or name=lo:hi:n", s)
	}

	if parts := strings.Split(spec, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err := errors.Join(err1, err2, err3); err != nil {
			return "", nil, fmt.Errorf("invalid range for %s: %w", name, err)
		}
		return name, sweep.Linspace(lo, hi, n), nil
	}

	var values []float64
	for _, f := range strings.Split(spec, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		values = append(values, v)
	}
	return name, values, nil
}

func showTables(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		for _, p := range []string{cfg.Data.NonCatalyst, cfg.Data.Catalyst} {
			if p != "" {
				paths = append(paths, p)
			}
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("no data tables given and none configured")
	}

	for _, p := range paths {
		records, err := readRecords(p)
		if err != nil {
			return err
		}
		fmt.Println(viz.TitleStyle.Render(p))
		fmt.Println(viz.RecordsTable(records))
	}
	return nil
}

func readRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

func sortedMetricNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
