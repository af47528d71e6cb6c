package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"proxtest/adapters/excel"
	"proxtest/app"
	"proxtest/domain/travel"
	"proxtest/internal"
	"proxtest/internal/config"
	"proxtest/internal/container"
	"proxtest/internal/testkit"
	"proxtest/ports"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "proxtest",
		Short: "Permutation test for community travel proximity",
		Long: `proxtest asks whether observed community pairs travel less than chance would
predict, by relabelling communities at random and re-joining travel costs.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newLookupCmd(),
		newSynthCmd(),
		newRunsCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig applies .env, environment and an optional TOML file, in that order
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := config.LoadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, verbose bool) *internal.Logger {
	level := internal.ParseLogLevel(cfg.LogLevel)
	if verbose && level < internal.LogLevelDebug {
		level = internal.LogLevelDebug
	}
	return internal.NewLoggerTo(os.Stderr, level)
}

func newRunCmd() *cobra.Command {
	var (
		configPath string
		lookupPath string
		observed   string
		iterations int
		seed       int64
		workers    int
		policy     string
		reportDir  string
		alpha      float64
		exclude    bool
		noAugment  bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the permutation test",
		Long: `Run the community-label permutation test.

The lookup table holds directed travel costs between community pairs; the
observed table holds the pairs under study. Both need the columns origin,
destination, curr_travel_dist_km and curr_travel_time_h (CSV or XLSX).

Example: proxtest run --lookup lookup.csv --observed observed.csv --iterations 10000 --seed 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("lookup") {
				cfg.Paths.LookupFile = lookupPath
			}
			if flags.Changed("observed") {
				cfg.Paths.ObservedFile = observed
			}
			if flags.Changed("iterations") {
				cfg.Run.Iterations = iterations
			}
			if flags.Changed("seed") {
				cfg.Run.Seed = &seed
			}
			if flags.Changed("workers") {
				cfg.Run.Workers = workers
			}
			if flags.Changed("policy") {
				cfg.Run.MissingPolicy = policy
			}
			if flags.Changed("report-dir") {
				cfg.Report.Dir = reportDir
			}
			if flags.Changed("alpha") {
				cfg.Run.Alpha = alpha
			}
			if flags.Changed("exclude-observed") {
				cfg.Run.ExcludeObserved = exclude
			}
			if noAugment {
				cfg.Run.AugmentLookup = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Paths.LookupFile == "" || cfg.Paths.ObservedFile == "" {
				return fmt.Errorf("both --lookup and --observed (or LOOKUP_FILE and OBSERVED_FILE) are required")
			}

			return runTest(cmd.Context(), cfg, newLogger(cfg, verbose))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "TOML configuration file")
	flags.StringVar(&lookupPath, "lookup", "", "Lookup table (CSV or XLSX)")
	flags.StringVar(&observed, "observed", "", "Observed pairs table (CSV or XLSX)")
	flags.IntVar(&iterations, "iterations", config.DefaultIterations, "Number of permutations")
	flags.Int64Var(&seed, "seed", 0, "Random seed (default: from the clock)")
	flags.IntVar(&workers, "workers", 0, "Parallel workers (default: GOMAXPROCS)")
	flags.StringVar(&policy, "policy", "strict", "Missing-pair policy: strict or drop")
	flags.StringVar(&reportDir, "report-dir", "", "Directory for markdown, HTML and CSV reports")
	flags.Float64Var(&alpha, "alpha", config.DefaultAlpha, "Significance level for the verdict")
	flags.BoolVar(&exclude, "exclude-observed", false, "Drop observed pairs from the lookup before running")
	flags.BoolVar(&noAugment, "no-augment", false, "Do not fill missing lookup pairs from observed costs")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	return cmd
}

func runTest(ctx context.Context, cfg *config.Config, logger *internal.Logger) error {
	c, err := container.New(cfg, logger, os.Stdout)
	if err != nil {
		return err
	}
	if err := c.InitWithDatabase(ctx); err != nil {
		return err
	}
	defer c.Close()

	_, err = c.ProximityService().Run(ctx, app.ProximityRequest{
		LookupPath:      cfg.Paths.LookupFile,
		ObservedPath:    cfg.Paths.ObservedFile,
		AugmentLookup:   cfg.Run.AugmentLookup,
		ExcludeObserved: cfg.Run.ExcludeObserved,
	})
	return err
}

func newLookupCmd() *cobra.Command {
	var fullPath, observedPath, outPath string

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Build a lookup table from a full pairwise table",
		Long: `Drop self-pairs and every observed pair from a full pairwise travel table,
writing the remainder as the lookup table for "run".

Example: proxtest lookup --full all_pairs.csv --observed observed.csv --out lookup.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := internal.NewLoggerTo(os.Stderr, internal.LogLevelInfo)
			reader := excel.NewTableReaderAdapter(excel.DefaultExcelConfig(), logger)

			pairs, err := reader.ReadObserved(cmd.Context(), observedPath)
			if err != nil {
				return err
			}
			observed, err := travel.NewObservedTable(pairs)
			if err != nil {
				return err
			}
			rows, err := reader.ReadLookup(cmd.Context(), fullPath)
			if err != nil {
				return err
			}

			lookup, build, err := travel.BuildLookupTable(rows, observed, true)
			if err != nil {
				return err
			}
			if err := excel.WriteLookup(outPath, lookup.Rows()); err != nil {
				return err
			}

			logger.Info("wrote %d pairs to %s (%d rows in, %d self-pairs and %d observed pairs dropped)",
				build.Kept, outPath, build.InputRows, build.SelfPairsDropped, build.ObservedDropped)
			return nil
		},
	}

	cmd.Flags().StringVar(&fullPath, "full", "", "Full pairwise travel table")
	cmd.Flags().StringVar(&observedPath, "observed", "", "Observed pairs table")
	cmd.Flags().StringVar(&outPath, "out", "lookup.csv", "Output file (.csv or .xlsx)")
	_ = cmd.MarkFlagRequired("full")
	_ = cmd.MarkFlagRequired("observed")

	return cmd
}

func newSynthCmd() *cobra.Command {
	synthConfig := testkit.DefaultProximityConfig()
	var outDir, format string

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Generate a synthetic study",
		Long: `Place communities at random on a plane and draw observed pairs among near
neighbours (or uniformly with --neighbours 0). Writes full.<ext> with every
directed pair including self-pairs, and observed.<ext>.

Example: proxtest synth --communities 60 --pairs 200 --out-dir data && proxtest lookup --full data/full.csv --observed data/observed.csv --out data/lookup.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "xlsx" {
				return fmt.Errorf("format must be csv or xlsx, got %q", format)
			}
			gen, err := testkit.NewProximityDataGenerator(synthConfig)
			if err != nil {
				return err
			}
			data := gen.Generate()

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			fullPath := filepath.Join(outDir, "full."+format)
			observedPath := filepath.Join(outDir, "observed."+format)
			if err := excel.WriteLookup(fullPath, data.Full); err != nil {
				return err
			}
			if err := excel.WriteObserved(observedPath, data.Observed); err != nil {
				return err
			}

			fmt.Printf("wrote %d communities: %s (%d rows), %s (%d rows)\n",
				len(data.Communities), fullPath, len(data.Full), observedPath, len(data.Observed))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&synthConfig.CommunityCount, "communities", synthConfig.CommunityCount, "Number of communities")
	flags.IntVar(&synthConfig.ObservedPairs, "pairs", synthConfig.ObservedPairs, "Number of observed pairs")
	flags.IntVar(&synthConfig.Neighbours, "neighbours", synthConfig.Neighbours, "Draw destinations among this many nearest neighbours (0: uniform)")
	flags.Float64Var(&synthConfig.ExtentKm, "extent-km", synthConfig.ExtentKm, "Side of the square study area in km")
	flags.Float64Var(&synthConfig.SpeedKmH, "speed-kmh", synthConfig.SpeedKmH, "Average travel speed")
	flags.Int64Var(&synthConfig.Seed, "seed", synthConfig.Seed, "Random seed")
	flags.StringVar(&outDir, "out-dir", ".", "Output directory")
	flags.StringVar(&format, "format", "csv", "Output format: csv or xlsx")

	return cmd
}

func newRunsCmd() *cobra.Command {
	var configPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List stored runs",
		Long: `List runs saved to the run store named by DATABASE_URL (postgres:// or sqlite://).
With a run ID, show only that run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("DATABASE_URL is not set")
			}

			c, err := container.New(cfg, newLogger(cfg, false), nil)
			if err != nil {
				return err
			}
			if err := c.InitWithDatabase(cmd.Context()); err != nil {
				return err
			}
			defer c.Close()

			if len(args) == 1 {
				run, err := c.ProximityService().FindRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printRuns(os.Stdout, []ports.RunSummary{*run})
			}

			runs, err := c.ProximityService().History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printRuns(os.Stdout, runs)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "TOML configuration file")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs")

	return cmd
}

func printRuns(w io.Writer, runs []ports.RunSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tITERATIONS\tSEED\tMEAN KM\tP(DIST)\tP(TIME)\tPOLICY\tDROPPED\tINPUTS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.3f\t%.4f\t%.4f\t%s\t%d\t%s\n",
			r.RunID, r.CreatedAt.Time().Local().Format(time.DateTime), r.Iterations, r.Seed,
			r.ObservedMeanD, r.PDistance, r.PTime, r.Policy, r.RowsDropped, r.Fingerprint.Short())
	}
	return tw.Flush()
}
