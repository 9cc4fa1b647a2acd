package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harrison/pfind/internal/config"
	"github.com/harrison/pfind/internal/history"
	"github.com/harrison/pfind/internal/logger"
	"github.com/harrison/pfind/internal/perm"
	"github.com/harrison/pfind/internal/walker"
	"github.com/spf13/cobra"
)

// addSearchFlags registers the flags shared by pfind and spfind.
func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("directory", "d", "", "Root directory to search")
	cmd.Flags().StringP("permissions", "p", "", "Permission string to match, e.g. rwxr-xr-x")
	cmd.Flags().String("config", "", "Path to config file (default: .pfind/config.yaml)")
	cmd.Flags().String("log-level", "", "Diagnostic verbosity on stderr (trace, debug, info, warn, error)")
	cmd.Flags().Bool("continue-on-error", false, "Skip unreadable entries instead of aborting the search")
	cmd.Flags().Bool("record", false, "Record this run in the history database")
}

// search is a validated request: canonical root, parsed spec and the
// collaborators the walk needs.
type search struct {
	cfg    *config.Config
	log    *logger.ConsoleLogger
	root   string
	spec   perm.Spec
	walker *walker.Walker
	store  *history.Store
}

// loadConfig reads the config file named by --config, or
// .pfind/config.yaml, and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var logLevel, sortCommand *string
	var continueOnError, record *bool
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		logLevel = &v
	}
	if cmd.Flags().Changed("continue-on-error") {
		v, _ := cmd.Flags().GetBool("continue-on-error")
		continueOnError = &v
	}
	if f := cmd.Flags().Lookup("sort-command"); f != nil && f.Changed {
		v := f.Value.String()
		sortCommand = &v
	}
	if cmd.Flags().Changed("record") {
		v, _ := cmd.Flags().GetBool("record")
		record = &v
	}
	cfg.MergeWithFlags(logLevel, continueOnError, sortCommand, record)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newSearch validates the command line: both required arguments, then the
// root, then the permission string.
// Nothing is walked when it fails.
func newSearch(cmd *cobra.Command) (*search, error) {
	directory, _ := cmd.Flags().GetString("directory")
	permissions, _ := cmd.Flags().GetString("permissions")

	if !cmd.Flags().Changed("directory") {
		return nil, errors.New("Required argument -d <directory> not found.")
	}
	if !cmd.Flags().Changed("permissions") {
		return nil, errors.New("Required argument -p <permissions string> not found.")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	root, err := walker.ResolveRoot(walker.OSFS{}, directory)
	if err != nil {
		return nil, err
	}

	spec, err := perm.Parse(permissions)
	if err != nil {
		return nil, err
	}

	s := &search{
		cfg:  cfg,
		log:  log,
		root: root,
		spec: spec,
		walker: walker.New(walker.Options{
			FS:              walker.OSFS{},
			ContinueOnError: cfg.ContinueOnError,
			Logger:          log,
		}),
	}

	if cfg.History.Enabled {
		dbPath, err := cfg.HistoryDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get history database path: %w", err)
		}
		store, err := history.NewStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		s.store = store
		log.LogDebug(fmt.Sprintf("recording run in %s", dbPath))
	}

	log.LogDebug(fmt.Sprintf("searching %s for %s (%04o)", root, spec, uint32(spec.Mode())))
	return s, nil
}

func (s *search) close() {
	if s.store != nil {
		s.store.Close()
	}
}

// finish logs the walk totals and, when history is enabled, records the
// run. A recording failure is logged and never changes the run's outcome.
func (s *search) finish(ctx context.Context, started time.Time, result *walker.Result, matches []string, walkErr error) {
	if result == nil {
		result = &walker.Result{Matched: len(matches)}
	}

	s.log.LogWalkSummary(logger.WalkSummary{
		Root:     s.root,
		Spec:     s.spec.String(),
		Visited:  result.Visited,
		Matched:  result.Matched,
		Skipped:  len(result.Errors),
		Duration: time.Since(started),
	})

	if s.store == nil {
		return
	}

	run := &history.Run{
		Root:       s.root,
		Spec:       s.spec.String(),
		StartedAt:  started,
		FinishedAt: time.Now(),
		Visited:    result.Visited,
		Matched:    result.Matched,
		Status:     runStatus(walkErr),
		Matches:    matches,
	}
	if walkErr != nil {
		run.Error = walkErr.Error()
	}

	if err := s.store.RecordRun(ctx, run); err != nil {
		s.log.LogWarn(fmt.Sprintf("failed to record run: %v", err))
		return
	}
	s.log.LogInfo(fmt.Sprintf("recorded run %s", run.ID))
}

func runStatus(err error) history.Status {
	switch {
	case err == nil:
		return history.StatusSuccess
	case errors.Is(err, walker.ErrIncomplete):
		return history.StatusIncomplete
	default:
		return history.StatusFailed
	}
}

// splitCommand turns a configured command line such as "sort -r" into a
// program and its arguments.
func splitCommand(command string) (string, []string) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}
