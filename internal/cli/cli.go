package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pfrederiksen/cornwall-collections/internal/calendar"
	"github.com/pfrederiksen/cornwall-collections/internal/collection"
	"github.com/pfrederiksen/cornwall-collections/internal/config"
	"github.com/pfrederiksen/cornwall-collections/internal/filter"
	"github.com/pfrederiksen/cornwall-collections/internal/logger"
	"github.com/pfrederiksen/cornwall-collections/internal/scraper"
	"github.com/pfrederiksen/cornwall-collections/internal/storage"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// Fetcher returns the collections for a property
type Fetcher interface {
	Fetch(ctx context.Context, p scraper.Property) ([]*collection.Collection, error)
}

// options holds the parsed command-line flags
type options struct {
	uprn         string
	postcode     string
	house        string
	outputFile   string
	outputDir    string
	noICS        bool
	jsonFile     string
	format       string
	types        []string
	from         string
	to           string
	days         int
	sortOrder    string
	reminder     string
	reminderDays int
	calendarName string
	envFile      string
	logLevel     string
	verbose      bool
}

// app carries the dependencies of a run so tests can replace them
type app struct {
	fetcher Fetcher
	stdout  io.Writer
	stderr  io.Writer
	now     func() time.Time
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{
		fetcher: scraper.New(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		now:     time.Now,
	})
}

func newRootCmd(a *app) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "cornwall-collections",
		Short: "Fetch Cornwall Council waste collection days as a calendar",
		Long: `Fetches the upcoming waste collection days for a property from
cornwall.gov.uk, prints them and writes an iCalendar (.ics) file.

The property is identified by UPRN, or by POSTCODE plus HOUSE_NUMBER_OR_NAME.
Settings are read from the environment (and a .env file); flags override them.
Collection types can be switched off with INCLUDE_FOOD, INCLUDE_RECYCLING,
INCLUDE_RUBBISH and INCLUDE_GARDEN set to false.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return a.run(cmd, opts)
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &config.Error{Err: err}
	})

	f := cmd.Flags()
	f.StringVar(&opts.uprn, "uprn", "", "Unique Property Reference Number (overrides UPRN)")
	f.StringVar(&opts.postcode, "postcode", "", "Postcode to look up (overrides POSTCODE)")
	f.StringVar(&opts.house, "house", "", "House number or name (overrides HOUSE_NUMBER_OR_NAME)")
	f.StringVarP(&opts.outputFile, "output", "o", "", "iCalendar output file (overrides OUTPUT_FILE)")
	f.StringVar(&opts.outputDir, "output-dir", ".", "Directory for relative output paths")
	f.BoolVar(&opts.noICS, "no-ics", false, "Do not write the iCalendar file")
	f.StringVar(&opts.jsonFile, "json-file", "", "Also write the collections to this JSON file")
	f.StringVar(&opts.format, "format", "text", "Console output format: text or json")
	f.StringSliceVar(&opts.types, "type", nil, "Only include these types (food, recycling, rubbish, garden)")
	f.StringVar(&opts.from, "from", "", "Only include collections on or after this date (YYYY-MM-DD)")
	f.StringVar(&opts.to, "to", "", "Only include collections on or before this date (YYYY-MM-DD)")
	f.IntVar(&opts.days, "days", 0, "Only include collections within this many days from today")
	f.StringVar(&opts.sortOrder, "sort", "date", "Sort order: date or type")
	f.StringVar(&opts.reminder, "reminder", "", "Add a reminder alarm at this time (HH:MM)")
	f.IntVar(&opts.reminderDays, "reminder-days", 1, "Days before the collection for the reminder")
	f.StringVar(&opts.calendarName, "calendar-name", calendar.CalName, "Calendar display name")
	f.StringVar(&opts.envFile, "env-file", ".env", "Load environment variables from this file if it exists")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides LOG_LEVEL)")
	f.BoolVar(&opts.verbose, "verbose", false, "Enable verbose output and debug logging")

	return cmd
}

// run is the main command logic
func (a *app) run(cmd *cobra.Command, opts *options) error {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, opts, cfg); err != nil {
		return err
	}

	logger.SetDefault(logger.New(cfg.LogLevel, a.stderr))
	defer logger.LogMetrics()

	format := OutputFormat(strings.ToLower(opts.format))
	if format != FormatText && format != FormatJSON {
		return &config.Error{Err: fmt.Errorf("invalid format: %s (must be 'text' or 'json')", opts.format)}
	}

	sortOrder, ok := collection.ParseSortOrder(opts.sortOrder)
	if !ok {
		return &config.Error{Err: fmt.Errorf("invalid sort order: %s (must be 'date' or 'type')", opts.sortOrder)}
	}

	reminder, err := calendar.ParseReminder(opts.reminder, opts.reminderDays)
	if err != nil {
		return &config.Error{Err: err}
	}

	now := a.now()
	f, err := buildFilter(cfg, opts, now)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, w := range cfg.Warnings() {
		logger.Warn(w, nil)
	}

	store, err := storage.New(opts.outputDir)
	if err != nil {
		return &config.Error{Err: fmt.Errorf("initializing storage: %w", err)}
	}

	logger.Info("Starting Cornwall waste collection calendar generator", logger.Fields{
		"filter": f.String(),
	})

	collections, err := a.fetcher.Fetch(cmd.Context(), cfg.Property())
	if err != nil {
		return fmt.Errorf("fetching collections: %w", err)
	}

	if len(collections) == 0 {
		logger.Warn("No collections found", nil)
		return nil
	}

	tally := f.Tally(collections)
	collections, removed := f.Apply(collections)
	if tally.Include > 0 {
		logger.Info(fmt.Sprintf("Filtered out %d collection(s) based on INCLUDE_* settings", tally.Include), logger.Fields{
			"filtered": tally.Include,
		})
	}
	if tally.Other > 0 {
		logger.Info(fmt.Sprintf("Filtered out %d collection(s) based on type and date options", tally.Other), logger.Fields{
			"filtered": tally.Other,
		})
	}
	collection.Sort(collections, sortOrder)

	if len(collections) == 0 {
		logger.Warn("No collections to display", nil)
	} else {
		logger.Info("Upcoming waste collections", logger.Fields{"count": len(collections)})
	}

	result := &OutputResult{
		CheckedAt:   now.UTC(),
		UPRN:        cfg.UPRN,
		Postcode:    cfg.Postcode,
		Collections: collections,
		Count:       len(collections),
		Filtered:    removed,
	}
	if !f.IsEmpty() {
		result.Filter = f.String()
	}

	if err := WriteOutput(a.stdout, result, format, opts.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if !opts.noICS {
		path, err := store.WriteCalendar(cfg.OutputFile, collections, calendar.Options{
			Name:     opts.calendarName,
			Now:      now,
			Reminder: reminder,
		})
		if err != nil {
			return err
		}
		logger.SetGauge("collections.written", float64(len(collections)))
		logger.Info("iCalendar file written", logger.Fields{"path": path})
	}

	if opts.jsonFile != "" {
		path, err := store.WriteJSON(opts.jsonFile, result)
		if err != nil {
			return err
		}
		logger.Info("JSON file written", logger.Fields{"path": path})
	}

	logger.Info("Processing complete", nil)
	return nil
}

// applyFlags overrides environment settings with any flags that were set
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("uprn") {
		cfg.UPRN = strings.TrimSpace(opts.uprn)
	}
	if flags.Changed("postcode") {
		cfg.Postcode = strings.TrimSpace(opts.postcode)
	}
	if flags.Changed("house") {
		cfg.HouseNumberOrName = strings.TrimSpace(opts.house)
	}
	if flags.Changed("output") {
		cfg.OutputFile = opts.outputFile
	}
	if flags.Changed("log-level") {
		level, err := logger.ParseLevel(opts.logLevel)
		if err != nil {
			return &config.Error{Err: err}
		}
		cfg.LogLevel = level
	}
	if opts.verbose {
		cfg.LogLevel = logger.LevelDebug
	}

	return nil
}

// buildFilter combines INCLUDE_* settings with --type and the date window flags
func buildFilter(cfg *config.Config, opts *options, now time.Time) (*filter.Filter, error) {
	f := cfg.Filter()

	only, err := filter.ParseTypes(opts.types)
	if err != nil {
		return nil, &config.Error{Err: err}
	}
	f.Only = only

	f.DateFrom, f.DateTo, err = filter.DateWindow(now, opts.from, opts.to, opts.days)
	if err != nil {
		return nil, &config.Error{Err: err}
	}

	return f, nil
}

// classify maps a run error to the log message describing its category
func classify(err error) string {
	var (
		cfgErr     *config.Error
		notFound   *scraper.ArgumentNotFoundError
		suggestErr *scraper.ArgumentNotFoundWithSuggestionsError
		statusErr  *scraper.StatusError
		netErr     net.Error
	)

	switch {
	case errors.As(err, &cfgErr),
		errors.As(err, &notFound),
		errors.As(err, &suggestErr),
		errors.Is(err, scraper.ErrNoProperty),
		errors.Is(err, scraper.ErrBlankUPRN):
		return "Configuration or lookup error"
	case errors.As(err, &statusErr),
		errors.As(err, &netErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return "Network error while fetching data"
	default:
		return "Unexpected error"
	}
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		logger.Error(classify(err), nil, err)
		stop()
		os.Exit(ExitError)
	}
}
