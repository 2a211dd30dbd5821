package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pfrederiksen/xc-results/internal/config"
	"github.com/pfrederiksen/xc-results/internal/filter"
	"github.com/pfrederiksen/xc-results/internal/ingest"
	"github.com/pfrederiksen/xc-results/internal/logger"
	"github.com/pfrederiksen/xc-results/internal/metrics"
	"github.com/pfrederiksen/xc-results/internal/normalize"
	"github.com/pfrederiksen/xc-results/internal/race"
	"github.com/pfrederiksen/xc-results/internal/scraper"
	"github.com/pfrederiksen/xc-results/internal/storage"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitFatal   = 2
)

var (
	flagConfig   string
	flagEnvFile  string
	flagStore    string
	flagClear    bool
	flagDryRun   bool
	flagFormat   string
	flagSort     string
	flagVerbose  bool
	flagWorkers  int
	flagMeets    []string
	flagGenders  []string
	flagClasses  []string
	flagSeasons  []string
	flagDates    string
	flagListAlgs bool
)

// ExitError carries the process exit code out of a command run.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	if race.IsFatal(err) {
		return ExitFatal
	}
	return ExitFailure
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xc-results",
		Short: "Ingest cross-country race results into a results database",
		Long: `A CLI tool that scrapes cross-country race results from meet pages and
result files, normalizes athletes and schools, and stores each finisher once.
Runs are idempotent: re-ingesting a race only adds results not stored yet.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runIngest,
	}

	// Define flags
	cmd.Flags().StringVar(&flagConfig, "config", "", "Race configuration YAML (default $XCR_CONFIG)")
	cmd.Flags().StringVar(&flagEnvFile, "env-file", ".env", "Dotenv file loaded before configuration, if present")
	cmd.Flags().StringVar(&flagStore, "store", "", "Storage DSN, overrides configuration")
	cmd.Flags().BoolVar(&flagClear, "clear", false, "Delete all stored data before ingesting")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Extract and validate without writing")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&flagSort, "sort", "", "Sort summaries: date, meet or status (default config order)")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging and detailed output")
	cmd.Flags().IntVar(&flagWorkers, "workers", 0, "Races processed concurrently, overrides configuration")
	cmd.Flags().StringSliceVar(&flagMeets, "meet", nil, "Only meets whose name contains this (repeatable)")
	cmd.Flags().StringSliceVar(&flagGenders, "gender", nil, "Only races of this gender (repeatable)")
	cmd.Flags().StringSliceVar(&flagClasses, "class", nil, "Only races of this class (repeatable)")
	cmd.Flags().StringSliceVar(&flagSeasons, "season", nil, "Only races of this season (repeatable)")
	cmd.Flags().StringVar(&flagDates, "dates", "", `Only races in a date range, e.g. "Sep 5-20" or "September"`)
	cmd.Flags().BoolVar(&flagListAlgs, "list-algorithms", false, "List extraction algorithms and exit")

	return cmd
}

// runIngest is the main command logic
func runIngest(cmd *cobra.Command, args []string) (retErr error) {
	out := cmd.OutOrStdout()

	if flagListAlgs {
		for _, alg := range scraper.NewDispatcher(scraper.Options{}).Algorithms() {
			fmt.Fprintln(out, alg)
		}
		return nil
	}

	// Validate format and sort before doing any work
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}
	order := SortOrder(strings.ToLower(flagSort))
	if !order.valid() {
		return fmt.Errorf("invalid sort: %s (must be 'date', 'meet' or 'status')", flagSort)
	}
	if flagClear && flagDryRun {
		return errors.New("--clear cannot be combined with --dry-run")
	}

	if flagEnvFile != "" {
		if err := godotenv.Load(flagEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", flagEnvFile, err)
		}
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagStore != "" {
		cfg.Store = flagStore
	}
	if flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}
	if flagVerbose {
		cfg.LogLevel = "debug"
	}
	logger.SetDefault(logger.New(logger.ParseLevel(cfg.LogLevel), cmd.ErrOrStderr()))

	f, err := buildFilter()
	if err != nil {
		return err
	}
	races := f.Apply(cfg.Races)
	if !f.IsEmpty() {
		logger.Info("filter applied", logger.Fields{"filter": f.String(), "selected": len(races), "configured": len(cfg.Races)})
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var store storage.Store
	if !flagDryRun {
		store, err = storage.Open(ctx, cfg.Store)
		if err != nil {
			return fmt.Errorf("initializing storage: %w", err)
		}
		defer closeStore(store, cfg.Store, &retErr)

		if flagClear {
			if err := store.ClearAll(ctx); err != nil {
				return fmt.Errorf("clearing storage: %w", err)
			}
			logger.Warn("cleared all stored results", logger.Fields{"store": cfg.Store})
		}
	}

	runner := &ingest.Runner{
		Store: store,
		Fetcher: scraper.NewFetcher(
			scraper.WithTimeout(cfg.FetchTimeout),
			scraper.WithUserAgent(cfg.UserAgent),
			scraper.WithBaseDir(cfg.Dir),
			scraper.WithCache(scraper.NewDocumentCache()),
		),
		Dispatcher:      scraper.NewDispatcher(scraper.Options{ReferenceYear: cfg.GradReferenceYear}),
		Normalizer:      normalize.New(cfg.SchoolAliases),
		Workers:         cfg.Workers,
		PolitenessDelay: cfg.PolitenessDelay,
		DryRun:          flagDryRun,
	}

	report, runErr := runner.Run(ctx, races)

	if path := metricsPath(cfg); path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			logger.Error("writing metrics file", logger.Fields{"path": path}, err)
		}
	}

	if report != nil {
		sortSummaries(report.Races, order)
		if err := WriteOutput(out, report, format, flagVerbose); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}

	switch {
	case race.IsFatal(runErr):
		return &ExitError{Code: ExitFatal, Err: runErr}
	case runErr != nil:
		return &ExitError{Code: ExitFailure, Err: runErr}
	case report.Count(ingest.StatusFailed) > 0:
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("%d race(s) failed", report.Count(ingest.StatusFailed))}
	}
	return nil
}

// closeStore closes the store, which for a file store writes the final
// snapshot. A close failure fails a run that otherwise succeeded.
func closeStore(store storage.Store, dsn string, retErr *error) {
	err := store.Close()
	if err == nil {
		return
	}
	logger.Error("closing storage", logger.Fields{"store": dsn}, err)
	if *retErr == nil {
		*retErr = &ExitError{Code: ExitFailure, Err: fmt.Errorf("closing storage: %w", err)}
	}
}

// metricsPath resolves a relative metrics_file against the config directory.
func metricsPath(cfg *config.Config) string {
	if cfg.MetricsFile == "" || filepath.IsAbs(cfg.MetricsFile) || cfg.Dir == "" {
		return cfg.MetricsFile
	}
	return filepath.Join(cfg.Dir, cfg.MetricsFile)
}

// buildFilter turns the selection flags into a Filter.
func buildFilter() (*filter.Filter, error) {
	f := filter.NewFilter()
	f.Meets = flagMeets
	f.Genders = flagGenders
	f.Classes = flagClasses
	f.Seasons = flagSeasons

	if flagDates != "" {
		from, to, err := filter.ParseDateRange(flagDates, time.Now().Year())
		if err != nil {
			return nil, fmt.Errorf("invalid --dates: %w", err)
		}
		f.DateFrom = from
		f.DateTo = to
	}
	return f, nil
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(ExitCode(err))
}
