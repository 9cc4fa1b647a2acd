package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/pfind/internal/config"
	"github.com/harrison/pfind/internal/history"
	"github.com/harrison/pfind/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the 'pfind history' command group
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List runs recorded with --record or history.enabled, most recent first.

Use 'pfind history show <run-id>' to print the paths a run matched.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runHistoryList,
	}

	cmd.PersistentFlags().String("db", "", "History database (default: $PFIND_HOME/history.db)")
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list (0 for all)")

	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryRemoveCommand())

	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a recorded run and its matches",
		Long: `Show a recorded run and the paths it matched. <run-id> may be any
unambiguous prefix of the id printed by 'pfind history'.

With --sorted the matches are printed the way spfind prints them.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         runHistoryShow,
	}

	cmd.Flags().Bool("sorted", false, "Print the matches sorted, followed by the total")
	cmd.Flags().Bool("paths-only", false, "Print only the matched paths")

	return cmd
}

func newHistoryRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "rm <run-id>",
		Short:        "Delete a recorded run",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         runHistoryRemove,
	}
}

// openHistory opens the database named by --db, the config file or the
// pfind home. It returns a nil store when no database exists yet.
func openHistory(cmd *cobra.Command) (*history.Store, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		cfg, err := config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		dbPath, err = cfg.HistoryDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get history database path: %w", err)
		}
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return store, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	if store == nil {
		fmt.Fprintln(output, "No runs recorded.")
		return nil
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(output, "No runs recorded.")
		return nil
	}

	printRunList(output, runs)
	return nil
}

// printRunList prints one line per run: short id, start time, status,
// spec, match count and root.
func printRunList(w io.Writer, runs []*history.Run) {
	bold := color.New(color.Bold)
	gray := color.New(color.FgHiBlack)

	bold.Fprintf(w, "%-8s  %-19s  %-10s  %-9s  %7s  %s\n", "ID", "STARTED", "STATUS", "SPEC", "MATCHES", "ROOT")
	for _, run := range runs {
		fmt.Fprintf(w, "%-8s  ", shortID(run.ID))
		gray.Fprintf(w, "%-19s  ", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
		statusColor(run.Status).Fprintf(w, "%-10s  ", run.Status)
		fmt.Fprintf(w, "%-9s  %7d  %s\n", run.Spec, run.Matched, run.Root)
	}
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()
	sorted, _ := cmd.Flags().GetBool("sorted")
	pathsOnly, _ := cmd.Flags().GetBool("paths-only")

	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("%w: %s", history.ErrRunNotFound, args[0])
	}
	defer store.Close()

	run, err := store.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	run.Matches, err = store.Matches(cmd.Context(), run.ID)
	if err != nil {
		return fmt.Errorf("get matches: %w", err)
	}

	if !pathsOnly {
		printRunDetail(output, run)
	}

	if sorted {
		_, err := pipeline.Run(cmd.Context(), pipeline.LinesSource(run.Matches), pipeline.MemorySorter{}, output)
		return err
	}
	for _, path := range run.Matches {
		fmt.Fprintln(output, path)
	}
	return nil
}

// printRunDetail prints the header block of 'history show'.
func printRunDetail(w io.Writer, run *history.Run) {
	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(w, "=== Run %s ===\n", run.ID)
	fmt.Fprintf(w, "  Root: %s\n", run.Root)
	fmt.Fprintf(w, "  Permissions: %s\n", run.Spec)
	fmt.Fprintf(w, "  Started: %s ", run.StartedAt.Local().Format(time.RFC3339))
	gray.Fprintf(w, "(%s)\n", run.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "  Status: ")
	statusColor(run.Status).Fprintf(w, "%s\n", run.Status)
	if run.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", run.Error)
	}
	fmt.Fprintf(w, "  Visited: %d, matched: %d\n\n", run.Visited, run.Matched)
}

func runHistoryRemove(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("%w: %s", history.ErrRunNotFound, args[0])
	}
	defer store.Close()

	run, err := store.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := store.DeleteRun(cmd.Context(), run.ID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", run.ID)
	return nil
}

func statusColor(status history.Status) *color.Color {
	switch status {
	case history.StatusSuccess:
		return color.New(color.FgGreen)
	case history.StatusIncomplete:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
