package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"metcompare/internal/analysis"
	"metcompare/internal/config"
	"metcompare/internal/export"
	"metcompare/internal/service"
	"metcompare/internal/store"
	"metcompare/internal/tabular"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	verbose    bool

	// pipeline overrides, applied only when the flag is set
	policy     string
	features   string
	classifier string
	regressor  string
	timezone   string
	dbPath     string
	format     string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "metcompare",
		Short: "Estimate METs from wrist sensors and compare them with ActiGraph",
		Long: `metcompare estimates per-minute metabolic equivalents (METs) from wrist
accelerometer and gyroscope recordings and from ActiGraph epoch counts, and
measures how closely the two agree.

Commands:
  wrist     Estimate METs from an accelerometer and a gyroscope file
  acti      Convert ActiGraph counts to METs with the VM3 equation
  compare   Score wrist estimates against an ActiGraph reference
  runs      List, show or delete stored runs`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ~/.metcompare/config.json)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log per-window details")
	pf.StringVar(&a.policy, "policy", "", "estimation policy: clamp or regress")
	pf.StringVar(&a.features, "features", "", "classifier features: compact or full")
	pf.StringVar(&a.classifier, "classifier", "", "classifier model (XGBoost JSON)")
	pf.StringVar(&a.regressor, "regressor", "", "regressor model (XGBoost JSON)")
	pf.StringVar(&a.timezone, "timezone", "", "IANA zone of the recordings")
	pf.StringVar(&a.dbPath, "db", "", "SQLite database for stored runs")
	pf.StringVar(&a.format, "format", "", "output format: csv or parquet")

	root.AddCommand(
		a.wristCmd(),
		a.actiCmd(),
		a.compareCmd(),
		a.runsCmd(),
	)
	return root
}

// setup builds the logger and the effective configuration.
func (a *app) setup(cmd *cobra.Command) error {
	a.logger = newLogger(a.verbose)
	slog.SetDefault(a.logger)

	cfg, err := loadConfig(a.configPath, a.logger)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("policy") {
		cfg.Pipeline.Policy = a.policy
	}
	if flags.Changed("features") {
		cfg.Pipeline.ClassifierFeatures = a.features
	}
	if flags.Changed("classifier") {
		cfg.Models.ClassifierPath = a.classifier
	}
	if flags.Changed("regressor") {
		cfg.Models.RegressorPath = a.regressor
	}
	if flags.Changed("timezone") {
		cfg.Pipeline.Timezone = a.timezone
	}
	if flags.Changed("db") {
		cfg.Output.DatabasePath = a.dbPath
	}
	if flags.Changed("format") {
		cfg.Output.Format = a.format
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg
	return nil
}

// outputFlags are the flags of commands that produce an output table.
type outputFlags struct {
	output string
	save   bool
	label  string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file, - for stdout (default <dir>/<source>_mets_<start>.<format>)")
	cmd.Flags().BoolVar(&o.save, "save", false, "store the run in the database")
	cmd.Flags().StringVar(&o.label, "label", "", "label of the stored run")
}

func (a *app) wristCmd() *cobra.Command {
	var out outputFlags
	var kinds []string

	cmd := &cobra.Command{
		Use:   "wrist <file> <file>",
		Short: "Estimate METs from an accelerometer and a gyroscope file",
		Long: `Estimate per-minute METs from one accelerometer and one gyroscope export.
Each file is recognized by its columns (Time,accX,accY,accZ or
Time,rotX,rotY,rotZ) unless --kind tags it explicitly.`,
		Args: cobra.ExactArgs(service.WristTableCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := readSensorTables(args, kinds)
			if err != nil {
				return err
			}
			svc, err := service.NewWristServiceFromConfig(a.cfg, a.logger)
			if err != nil {
				return err
			}
			res, err := svc.Process(cmd.Context(), tables)
			if err != nil {
				return err
			}
			return a.emit(cmd, res, out)
		},
	}
	out.register(cmd)
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "sensor of each file in order: acc or gyro")
	return cmd
}

func (a *app) actiCmd() *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "acti <file>",
		Short: "Convert ActiGraph counts to METs with the VM3 equation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.cfg.Location()
			if err != nil {
				return err
			}
			table, err := tabular.ReadActiGraphFile(args[0])
			if err != nil {
				return err
			}
			res, err := service.NewActiService(loc, a.logger).Process(cmd.Context(), table)
			if err != nil {
				return err
			}
			return a.emit(cmd, res, out)
		},
	}
	out.register(cmd)
	return cmd
}

func (a *app) compareCmd() *cobra.Command {
	var save bool
	var label string
	var kinds []string

	cmd := &cobra.Command{
		Use:   "compare (<wrist-run> <reference-run> | <file> <file> <actigraph-file>)",
		Short: "Score wrist estimates against an ActiGraph reference",
		Long: `With two arguments, compare two stored runs by id. With three, process the
wrist files and the ActiGraph export on the same minutes and compare them.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				return a.compareRuns(cmd, args[0], args[1])
			}
			return a.compareFiles(cmd, args, kinds, save, label)
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "store both runs in the database")
	cmd.Flags().StringVar(&label, "label", "", "label of the stored runs")
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "sensor of each wrist file in order: acc or gyro")
	return cmd
}

func (a *app) compareRuns(cmd *cobra.Command, wristID, referenceID string) error {
	db, err := openDB(a.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	agreement, err := service.NewRunService(db).Compare(wristID, referenceID)
	if err != nil {
		return err
	}
	printAgreement(cmd.OutOrStdout(), agreement)
	return nil
}

func (a *app) compareFiles(cmd *cobra.Command, args, kinds []string, save bool, label string) error {
	tables, err := readSensorTables(args[:service.WristTableCount], kinds)
	if err != nil {
		return err
	}
	actiTable, err := tabular.ReadActiGraphFile(args[service.WristTableCount])
	if err != nil {
		return err
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}

	wristSvc, err := service.NewWristServiceFromConfig(a.cfg, a.logger)
	if err != nil {
		return err
	}
	wrist, err := wristSvc.Process(cmd.Context(), tables)
	if err != nil {
		return err
	}

	minutes := make([]time.Time, len(wrist.Estimates))
	for i, e := range wrist.Estimates {
		minutes[i] = e.Timestamp
	}
	reference, err := service.NewActiService(loc, a.logger).ProcessMinutes(cmd.Context(), actiTable, minutes)
	if err != nil {
		return err
	}

	printAgreement(cmd.OutOrStdout(), analysis.CompareEstimates(wrist.Estimates, reference.Estimates))

	if !save {
		return nil
	}
	db, err := openDB(a.cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	runs := service.NewRunService(db)
	for _, res := range []*service.Result{wrist, reference} {
		run, err := runs.Save(res, label)
		if err != nil {
			return err
		}
		a.logger.Info("saved run", "id", run.ID, "source", run.Source, "estimates", run.Count)
	}
	return nil
}

func (a *app) runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List, show or delete stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listRuns(cmd)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listRuns(cmd)
		},
	}

	var output string
	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print or export the estimates of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(a.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			estimates, err := service.NewRunService(db).Estimates(args[0])
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return export.Encode(cmd.OutOrStdout(), a.cfg.Output.Format, estimates)
			}
			return export.Write(output, a.cfg.Output.Format, estimates)
		},
	}
	show.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	del := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a run and its estimates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(a.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := service.NewRunService(db).Delete(args[0]); err != nil {
				return err
			}
			a.logger.Info("deleted run", "id", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, show, del)
	return cmd
}

func (a *app) listRuns(cmd *cobra.Command) error {
	db, err := openDB(a.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := service.NewRunService(db).List()
	if err != nil {
		return err
	}
	printRuns(cmd.OutOrStdout(), runs)
	return nil
}

// emit writes the result table and optionally stores it as a run.
func (a *app) emit(cmd *cobra.Command, res *service.Result, out outputFlags) error {
	format := a.cfg.Output.Format
	switch out.output {
	case "-":
		if err := export.Encode(cmd.OutOrStdout(), format, res.Estimates); err != nil {
			return err
		}
	default:
		path := out.output
		if path == "" {
			path = defaultOutputPath(a.cfg.Output.Dir, format, res)
		}
		if err := export.Write(path, format, res.Estimates); err != nil {
			return err
		}
		a.logger.Info("wrote estimates", "path", path, "rows", len(res.Estimates))
	}

	if !out.save {
		return nil
	}
	db, err := openDB(a.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := service.NewRunService(db).Save(res, out.label)
	if err != nil {
		return err
	}
	a.logger.Info("saved run", "id", run.ID, "source", run.Source, "estimates", run.Count)
	return nil
}

func defaultOutputPath(dir, format string, res *service.Result) string {
	stamp := "empty"
	if !res.Summary.Start.IsZero() {
		stamp = res.Summary.Start.Format("20060102T1504")
	}
	return filepath.Join(dir, fmt.Sprintf("%s_mets_%s.%s", res.Source, stamp, format))
}

// readSensorTables reads the wrist files, tagging each with the matching
// --kind value when one is given.
func readSensorTables(paths, kinds []string) ([]tabular.SensorTable, error) {
	if len(kinds) != 0 && len(kinds) != len(paths) {
		return nil, fmt.Errorf("got %d --kind values for %d files", len(kinds), len(paths))
	}

	tables := make([]tabular.SensorTable, len(paths))
	for i, p := range paths {
		t, err := tabular.ReadFile(p, 0)
		if err != nil {
			return nil, err
		}
		tables[i].Table = t
		if len(kinds) > 0 {
			if tables[i].Kind, err = tabular.ParseKind(strings.ToLower(kinds[i])); err != nil {
				return nil, err
			}
		}
	}
	return tables, nil
}

func printAgreement(w io.Writer, a analysis.Agreement) {
	if a.Pairs == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no minutes with both estimates"))
		return
	}
	fmt.Fprintln(w, renderTable([]string{"METRIC", "VALUE"}, [][]string{
		{"pairs", strconv.Itoa(a.Pairs)},
		{"bias", formatOptional(a.Bias)},
		{"mae", formatOptional(a.MAE)},
		{"rmse", formatOptional(a.RMSE)},
		{"correlation", formatOptional(a.Correlation)},
	}))
}

func printRuns(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no stored runs"))
		return
	}
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID,
			r.Source,
			dash(r.Policy),
			dash(r.Label),
			strconv.Itoa(r.Count),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
		}
	}
	fmt.Fprintln(w, renderTable([]string{"ID", "SOURCE", "POLICY", "LABEL", "ESTIMATES", "CREATED"}, rows))
}

func formatOptional(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.3f", v)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
