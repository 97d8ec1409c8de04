package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/n1o1-labs/nodyn/internal/analysis"
	"github.com/n1o1-labs/nodyn/internal/config"
	"github.com/n1o1-labs/nodyn/internal/optim"
	"github.com/n1o1-labs/nodyn/internal/pk"
	"github.com/n1o1-labs/nodyn/internal/sim"
	"github.com/n1o1-labs/nodyn/internal/storage"
)

var (
	dataDir string

	baseline    float64
	peak        float64
	tPeak       float64
	halfLife    float64
	tMax        float64
	points      int
	egfr        float64
	rbcCount    float64
	dose        float64
	formulation string
	extraDoses  []string
	spo2        float64
	hypoxia     float64
	csvOut      string
	noSave      bool

	timeColumn  string
	valueColumn string
	timeUnit    string
	fitParams   []string

	sweepParam  string
	sweepValues []string

	configFile string
	timeout    time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "nodyn",
		Short: "nitrite pharmacokinetics simulator",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".nodyn", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate nitrite, cGMP and vasodilation dynamics",
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&csvOut, "csv", "", "export results to CSV file")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [csv-file]",
		Short: "summarize a results or experimental CSV file",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeFile,
	}
	analyzeCmd.Flags().StringVar(&timeColumn, "time-column", sim.ColTimeHours, "time column name")
	analyzeCmd.Flags().StringVar(&valueColumn, "column", sim.ColPlasma, "target column name")

	optimizeCmd := &cobra.Command{
		Use:   "optimize [csv-file]",
		Short: "fit model parameters to experimental data",
		Args:  cobra.ExactArgs(1),
		RunE:  optimizeFile,
	}
	addParameterFlags(optimizeCmd)
	optimizeCmd.Flags().StringVar(&timeColumn, "time-column", sim.ColTimeMinutes, "time column name")
	optimizeCmd.Flags().StringVar(&valueColumn, "column", sim.ColPlasma, "target column name")
	optimizeCmd.Flags().StringVar(&timeUnit, "time-unit", "minutes", "unit of the time column (hours|minutes)")
	optimizeCmd.Flags().StringSliceVar(&fitParams, "fit", nil, "parameters to fit as name=initial (default: baseline, peak, t_peak, half_life)")

	sensitivityCmd := &cobra.Command{
		Use:   "sensitivity [parameter]",
		Short: "sweep one parameter and report peak/AUC per value",
		Args:  cobra.ExactArgs(1),
		RunE:  runSensitivity,
	}
	addParameterFlags(sensitivityCmd)
	sensitivityCmd.Flags().StringSliceVar(&sweepValues, "values", nil, "values to test (required)")

	batchCmd := &cobra.Command{
		Use:   "batch [config.yaml]",
		Short: "run a parameter grid from a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall deadline")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&valueColumn, "column", sim.ColPlasma, "column to plot")

	rootCmd.AddCommand(runCmd, analyzeCmd, optimizeCmd, sensitivityCmd, batchCmd, listCmd, plotCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addParameterFlags(cmd *cobra.Command) {
	def := pk.NewParameters()
	cmd.Flags().Float64Var(&baseline, "baseline", def.Baseline, "baseline plasma nitrite (µM)")
	cmd.Flags().Float64Var(&peak, "peak", def.Peak, "peak plasma nitrite (µM)")
	cmd.Flags().Float64Var(&tPeak, "t-peak", def.TPeak, "time to peak (hours)")
	cmd.Flags().Float64Var(&halfLife, "half-life", def.HalfLife, "elimination half-life (hours)")
	cmd.Flags().Float64Var(&tMax, "t-max", def.TMax, "simulation time (hours)")
	cmd.Flags().IntVar(&points, "points", def.Points, "number of time points")
	cmd.Flags().Float64Var(&egfr, "egfr", def.EGFR, "estimated glomerular filtration rate (mL/min)")
	cmd.Flags().Float64Var(&rbcCount, "rbc-count", def.RBCCount, "red blood cell count (cells/µL)")
	cmd.Flags().Float64Var(&dose, "dose", def.Dose, "dose of NO2- administered (mg)")
	cmd.Flags().StringVar(&formulation, "formulation", string(def.Formulation), "immediate-release or extended-release")
	cmd.Flags().StringSliceVar(&extraDoses, "extra-dose", nil, "additional dose as time=amount (repeatable)")
	cmd.Flags().Float64Var(&spo2, "spo2", def.OxygenSaturation, "oxygen saturation (0-1)")
	cmd.Flags().StringVar(&configFile, "config", "", "yaml scenario file")
}

func addRunFlags(cmd *cobra.Command) {
	addParameterFlags(cmd)
	cmd.Flags().Float64Var(&hypoxia, "hypoxia", pk.Normoxia, "rerun the scenario at this oxygen saturation (0-1)")
}

// simulateRun dispatches to the hypoxia variant when --hypoxia was
// given, leaving the scenario's own saturation untouched otherwise.
func simulateRun(cmd *cobra.Command, p pk.Parameters) (*sim.Result, error) {
	if cmd.Flags().Changed("hypoxia") {
		return sim.SimulateHypoxia(p, hypoxia)
	}
	return sim.Simulate(p)
}

func buildParameters(cmd *cobra.Command) (pk.Parameters, error) {
	p := pk.NewParameters()
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return p, fmt.Errorf("failed to load config: %w", err)
		}
		p = cfg.Parameters()
	}

	flagged := func(name string) bool { return cmd.Flags().Changed(name) }
	if flagged("baseline") {
		p.Baseline = baseline
	}
	if flagged("peak") {
		p.Peak = peak
	}
	if flagged("t-peak") {
		p.TPeak = tPeak
	}
	if flagged("half-life") {
		p.HalfLife = halfLife
	}
	if flagged("t-max") {
		p.TMax = tMax
	}
	if flagged("points") {
		p.Points = points
	}
	if flagged("egfr") {
		p.EGFR = egfr
	}
	if flagged("rbc-count") {
		p.RBCCount = rbcCount
	}
	if flagged("dose") {
		p.Dose = dose
	}
	if flagged("formulation") {
		p.Formulation = pk.Formulation(formulation)
	}
	if flagged("spo2") {
		p.OxygenSaturation = spo2
	}

	for _, spec := range extraDoses {
		parts := strings.SplitN(spec, "=", 2)
		if len(parts) != 2 {
			return p, fmt.Errorf("bad --extra-dose %q, want time=amount", spec)
		}
		t, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return p, fmt.Errorf("bad dose time %q: %w", parts[0], err)
		}
		amount, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return p, fmt.Errorf("bad dose amount %q: %w", parts[1], err)
		}
		p.AdditionalDoses = append(p.AdditionalDoses, pk.Dose{Time: t, Amount: amount})
	}

	return p, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	p, err := buildParameters(cmd)
	if err != nil {
		return err
	}

	res, err := simulateRun(cmd, p)
	if err != nil {
		return err
	}

	peakVal, tPeakVal, _ := analysis.Peak(res.Hours, res.Plasma)
	auc := analysis.AUC(res.Hours, res.Plasma)
	hl, hasHL := analysis.HalfLife(res.Hours, res.Plasma, p.Baseline)

	fmt.Printf("simulated %d points over %.1f h\n", res.Len(), p.TMax)
	fmt.Printf("  peak plasma NO2-: %.3f µM at %.2f h\n", peakVal, tPeakVal)
	fmt.Printf("  AUC: %.3f µM·h\n", auc)
	if hasHL {
		fmt.Printf("  observed half-life: %.2f h\n", hl)
	}

	if csvOut != "" {
		if err := storage.WriteCSV(csvOut, res); err != nil {
			return err
		}
		fmt.Printf("results exported to %s\n", csvOut)
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		metrics := map[string]float64{"peak": peakVal, "time_to_peak": tPeakVal, "auc": auc}
		if hasHL {
			metrics["half_life"] = hl
		}
		id, err := st.Save("run", p, res, metrics)
		if err != nil {
			return err
		}
		fmt.Printf("saved as %s\n", id)
	}

	return nil
}

func analyzeFile(cmd *cobra.Command, args []string) error {
	times, values, err := storage.ReadSeriesCSV(args[0], timeColumn, valueColumn)
	if err != nil {
		return err
	}

	peakVal, tPeakVal, _ := analysis.Peak(times, values)
	desc := analysis.Describe(values)
	lo, hi, ciErr := analysis.ConfidenceInterval(values, 0.95)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "column\t%s\n", valueColumn)
	fmt.Fprintf(w, "peak\t%.4f\n", peakVal)
	fmt.Fprintf(w, "time to peak\t%.4f\n", tPeakVal)
	fmt.Fprintf(w, "AUC\t%.4f\n", analysis.AUC(times, values))
	if hl, hasHL := analysis.HalfLife(times, values, desc.Min); hasHL {
		fmt.Fprintf(w, "half-life\t%.4f\n", hl)
	}
	fmt.Fprintf(w, "mean\t%.4f\n", desc.Mean)
	fmt.Fprintf(w, "std\t%.4f\n", desc.Std)
	fmt.Fprintf(w, "min\t%.4f\n", desc.Min)
	fmt.Fprintf(w, "max\t%.4f\n", desc.Max)
	fmt.Fprintf(w, "median\t%.4f\n", desc.Median)
	if ciErr == nil {
		fmt.Fprintf(w, "95%% CI of mean\t[%.4f, %.4f]\n", lo, hi)
	}
	return w.Flush()
}

func optimizeFile(cmd *cobra.Command, args []string) error {
	times, values, err := storage.ReadSeriesCSV(args[0], timeColumn, valueColumn)
	if err != nil {
		return err
	}

	var unit optim.TimeUnit
	switch timeUnit {
	case "hours":
		unit = optim.UnitHours
	case "minutes":
		unit = optim.UnitMinutes
	default:
		return fmt.Errorf("unknown time unit %q, want hours or minutes", timeUnit)
	}

	base, err := buildParameters(cmd)
	if err != nil {
		return err
	}

	var init map[string]float64
	if len(fitParams) > 0 {
		init = make(map[string]float64, len(fitParams))
		for _, spec := range fitParams {
			parts := strings.SplitN(spec, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("bad --fit %q, want name=initial", spec)
			}
			v, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				return fmt.Errorf("bad initial value %q: %w", parts[1], err)
			}
			init[parts[0]] = v
		}
	}

	opt := optim.New(base)
	result, err := opt.Fit(optim.Dataset{Times: times, Values: values, Unit: unit}, init, nil)
	if err != nil {
		return err
	}

	fmt.Printf("optimization %s (%s)\n", successWord(result.Success), result.Message)
	fmt.Printf("  RMSE: %.4f\n", result.RMSE)
	fmt.Printf("  iterations: %d, evaluations: %d\n", result.Iterations, result.Evaluations)
	fmt.Println("  best parameters:")
	names := make([]string, 0, len(result.BestParams))
	for name := range result.BestParams {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("    %s: %.4f\n", name, result.BestParams[name])
	}
	return nil
}

func successWord(ok bool) string {
	if ok {
		return "converged"
	}
	return "did not converge"
}

func runSensitivity(cmd *cobra.Command, args []string) error {
	if len(sweepValues) == 0 {
		return fmt.Errorf("--values is required")
	}
	values := make([]float64, 0, len(sweepValues))
	for _, s := range sweepValues {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("bad value %q: %w", s, err)
		}
		values = append(values, v)
	}

	base, err := buildParameters(cmd)
	if err != nil {
		return err
	}

	records, _, err := optim.New(base).Sensitivity(args[0], values, nil)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "parameter\tvalue\tpeak\ttime to peak\tAUC")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%g\t%.4f\t%.4f\t%.4f\n", r.Parameter, r.Value, r.Peak, r.TimeToPeak, r.AUC)
	}
	return w.Flush()
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	opts := optim.BatchOptions{
		MaxCombinations: cfg.Batch.MaxCombinations,
		Threshold:       cfg.Batch.Threshold,
		TopK:            cfg.Batch.TopK,
	}

	result, err := optim.New(cfg.Parameters()).Batch(ctx, cfg.Axes(), opts)
	if err != nil {
		return err
	}

	fmt.Printf("ran %d combinations\n\n", len(result.Combinations))
	fmt.Println("top combinations by therapeutic-window coverage:")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "coverage\tpeak\tAUC\tparameters")
	for _, c := range result.Top {
		fmt.Fprintf(w, "%.1f%%\t%.3f\t%.3f\t%s\n", 100*c.WindowCoverage, c.Peak, c.AUC, formatParams(c.Params))
	}
	return w.Flush()
}

func formatParams(params map[string]float64) string {
	parts := make([]string, 0, len(params))
	for name, v := range params {
		parts = append(parts, fmt.Sprintf("%s=%g", name, v))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs stored")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "id\ttimestamp\tdose\tpeak\tAUC")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%.3f\t%.3f\n",
			r.ID, r.Timestamp.Format(time.RFC3339), r.Params.Dose, r.Metrics["peak"], r.Metrics["auc"])
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	res, err := storage.New(dataDir).LoadResult(args[0])
	if err != nil {
		return err
	}

	series, found := res.Column(valueColumn)
	if !found {
		return fmt.Errorf("unknown column %q", valueColumn)
	}

	graph := asciigraph.Plot(series,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(valueColumn))
	fmt.Println(graph)
	return nil
}
