// Package main provides the CLI entrypoint for tally.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/tally/internal/aggregate"
	"github.com/verte-zerg/tally/internal/config"
	"github.com/verte-zerg/tally/internal/logging"
	"github.com/verte-zerg/tally/internal/model"
	"github.com/verte-zerg/tally/internal/namelist"
	"github.com/verte-zerg/tally/internal/query"
	"github.com/verte-zerg/tally/internal/reducer"
	"github.com/verte-zerg/tally/internal/report"
	"github.com/verte-zerg/tally/internal/reportui"
	"github.com/verte-zerg/tally/internal/store"
)

const (
	defaultProgressEvery = 1000
	defaultLogLevel      = "info"
)

const examples = `  tally /home/user/visits.xml                                 stats for all days and people
  tally /home/user/visits.xml -d 22-11-2020                   stats for one day, all people
  tally /home/user/visits.xml -d 22-11-2020,29-11-2020        stats for a date range, all people
  tally /home/user/visits.xml -n i.ivanov -n i.petrov         stats for all days, selected people
  tally /home/user/visits.xml -d 22-11-2020 -n i.ivanov -s    read the cache instead of parsing`

var (
	reportDates         []string
	reportNames         []string
	reportNamesFile     string
	reportSearch        bool
	reportTable         bool
	reportTUI           bool
	reportStats         bool
	reportCacheDir      string
	reportProgressEvery int
	reportLogFile       string
	reportLogLevel      string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	rootCmd := newRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logErrln(errorMessage(err))
		os.Exit(query.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tally <path>",
		Short:         "Summarize time spent per person per day from an XML visit log",
		Example:       examples,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runReportCmd,
	}

	rootCmd.Flags().StringSliceVarP(&reportDates, "date", "d", nil, "filter by one date or a two-date range (dd-mm-yyyy); give a range as -d 22-11-2020,29-11-2020 or -d 22-11-2020 -d 29-11-2020")
	rootCmd.Flags().StringSliceVarP(&reportNames, "name", "n", nil, "filter by name (x.surname); comma separated or repeated, e.g. -n i.ivanov,i.petrov")
	rootCmd.Flags().StringVar(&reportNamesFile, "names-file", "", "file with one name per line to filter by")
	rootCmd.Flags().BoolVarP(&reportSearch, "search", "s", false, "use the cached result instead of parsing when available")
	rootCmd.Flags().BoolVar(&reportTable, "table", false, "print an aligned table instead of the plain summary")
	rootCmd.Flags().BoolVar(&reportTUI, "tui", false, "browse the report interactively")
	rootCmd.Flags().BoolVar(&reportStats, "stats", false, "print parse statistics to stderr")
	rootCmd.Flags().StringVar(&reportCacheDir, "cache-dir", "", "cache directory (default: data/ next to the executable)")
	rootCmd.Flags().IntVar(&reportProgressEvery, "progress-every", defaultProgressEvery, "report progress every N elements (0 disables)")
	rootCmd.Flags().StringVar(&reportLogFile, "log-file", "", "diagnostics log file")
	rootCmd.Flags().StringVar(&reportLogLevel, "log-level", defaultLogLevel, "diagnostics level (debug, info, warn, error)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCacheCmd())

	return rootCmd
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "progress-every", &reportProgressEvery, fileCfg.Parser.ProgressEvery)
	applyStringConfig(cmd, "cache-dir", &reportCacheDir, fileCfg.Cache.Dir)
	applyStringConfig(cmd, "log-file", &reportLogFile, fileCfg.Log.File)
	applyStringConfig(cmd, "log-level", &reportLogLevel, fileCfg.Log.Level)
	applyBoolConfig(cmd, "table", &reportTable, fileCfg.Report.Table)
	if reportCacheDir == "" {
		reportCacheDir = config.DefaultCacheDir()
	}
	if reportLogFile == "" {
		reportLogFile = config.DefaultLogPath()
	}

	level, err := logging.ParseLevel(reportLogLevel)
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.Open(reportLogFile, level)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeLog(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()

	path := args[0]
	filter, err := buildFilter(path)
	if err != nil {
		logger.Error("invalid invocation", "path", path, "dates", reportDates, "names", reportNames, "error", err)
		return err
	}

	agg, err := loadAggregate(cmd.Context(), cmd.ErrOrStderr(), logger, path)
	if err != nil {
		return err
	}

	sections := report.Project(agg, filter)
	out := cmd.OutOrStdout()
	if reportTUI {
		if isTerminal(out) {
			return runViewer(cmd.Context(), agg, filter, path)
		}
		logErrln("--tui needs a terminal; printing the report instead")
	}
	if reportTable {
		return report.RenderTable(out, sections)
	}
	return report.Render(out, sections)
}

// buildFilter validates the input path and the filters, in that order.
func buildFilter(path string) (model.Filter, error) {
	if err := query.CheckInput(path); err != nil {
		return model.Filter{}, err
	}
	dates, err := query.ParseDates(reportDates)
	if err != nil {
		return model.Filter{}, err
	}
	rawNames := append([]string(nil), reportNames...)
	if reportNamesFile != "" {
		fromFile, err := namelist.LoadNames(reportNamesFile)
		if err != nil {
			return model.Filter{}, fmt.Errorf("failed to load names file: %w", err)
		}
		rawNames = append(rawNames, fromFile...)
	}
	names, err := query.ParseNames(rawNames)
	if err != nil {
		return model.Filter{}, err
	}
	return model.Filter{Dates: dates, Names: names}, nil
}

// loadAggregate returns the cached aggregate in search mode when one exists;
// otherwise it parses path and rewrites the cache.
func loadAggregate(ctx context.Context, progressOut io.Writer, logger *slog.Logger, path string) (*aggregate.Aggregate, error) {
	cachePath := store.PathFor(reportCacheDir, path)
	if reportSearch && store.Exists(cachePath) {
		agg, err := readCache(ctx, cachePath)
		if err == nil {
			logger.Info("using cached aggregate", "cache", cachePath, "entries", agg.Len())
			return agg, nil
		}
		logger.Warn("cache unusable, parsing input", "cache", cachePath, "error", err)
		logErrf("cache %s unusable (%v), parsing %s\n", cachePath, err, path)
	}

	agg, stats, err := parseFile(ctx, progressOut, logger, path)
	if err != nil {
		return nil, err
	}
	if reportStats {
		printStats(progressOut, stats)
	}
	if err := writeCache(ctx, cachePath, path, agg, stats); err != nil {
		logger.Error("failed to write cache", "cache", cachePath, "error", err)
		logErrf("failed to write cache %s: %v\n", cachePath, err)
	}
	return agg, nil
}

func parseFile(ctx context.Context, progressOut io.Writer, logger *slog.Logger, path string) (*aggregate.Aggregate, model.ParseStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, model.ParseStats{}, fmt.Errorf("failed to open input: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.Warn("failed to close input", "path", path, "error", cerr)
		}
	}()

	fmt.Fprintln(progressOut, "*** Start parsing XML file ***")
	logger.Info("parse started", "path", path)
	agg, stats, err := reducer.Parse(ctx, f,
		reducer.WithLogger(logger),
		reducer.WithProgress(reportProgressEvery, func(n int) {
			fmt.Fprintf(progressOut, "Processed %s elements\n", humanize.Comma(int64(n)))
		}),
	)
	if err != nil {
		logger.Error("parse failed", "path", path, "error", err)
		return nil, stats, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	fmt.Fprintf(progressOut, "*** Finished parsing XML file in %s ***\n", stats.Elapsed.Round(time.Millisecond))
	return agg, stats, nil
}

func readCache(ctx context.Context, cachePath string) (*aggregate.Aggregate, error) {
	st, err := store.Open(cachePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close cache: %v\n", cerr)
		}
	}()
	return st.Load(ctx)
}

func writeCache(ctx context.Context, cachePath, source string, agg *aggregate.Aggregate, stats model.ParseStats) error {
	st, err := store.Open(cachePath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close cache: %v\n", cerr)
		}
	}()
	return st.Save(ctx, agg, store.Meta{
		Source:    source,
		Accepted:  stats.Accepted,
		Discarded: stats.Discarded(),
	})
}

func printStats(w io.Writer, stats model.ParseStats) {
	fmt.Fprintf(w, "records: %s accepted: %s discarded: %s (identity %d, timestamp %d, incomplete %d, reversed %d, unclosed %d) extra timestamps: %d elements: %s\n",
		humanize.Comma(int64(stats.Records)),
		humanize.Comma(int64(stats.Accepted)),
		humanize.Comma(int64(stats.Discarded())),
		stats.InvalidIdentity,
		stats.InvalidTime,
		stats.Incomplete,
		stats.Reversed,
		stats.Abandoned,
		stats.ExtraTimestamps,
		humanize.Comma(int64(stats.Elements)),
	)
}

func runViewer(ctx context.Context, agg *aggregate.Aggregate, filter model.Filter, path string) error {
	viewer := reportui.NewModel(agg, filter, path)
	program := tea.NewProgram(viewer, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run report viewer: %w", err)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// errorMessage renders validation failures in the banner style; everything
// else is printed as is.
func errorMessage(err error) string {
	for _, sentinel := range []error{query.ErrFileNotFound, query.ErrBadDate, query.ErrTooManyDates, query.ErrBadName} {
		if errors.Is(err, sentinel) {
			msg := err.Error()
			return fmt.Sprintf("\n*** ERROR: %s%s ***", strings.ToUpper(msg[:1]), msg[1:])
		}
	}
	return "Error: " + err.Error()
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
