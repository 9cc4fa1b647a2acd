package cmd

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/harrison/pfind/internal/config"
	"github.com/harrison/pfind/internal/filelock"
	"github.com/harrison/pfind/internal/pipeline"
	"github.com/harrison/pfind/internal/walker"
	"github.com/spf13/cobra"
)

// NewSortedCommand creates and returns the root cobra command for spfind
func NewSortedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spfind -d <directory> -p <permissions string>",
		Short: "Find files by permission string, sorted and counted",
		Long: `spfind runs the same search as pfind, sorts the matching paths and
prints them followed by a "Total matches: N" line.

Sorting uses the external command named by --sort-command (default
"sort"). Use --sort-command builtin to sort in-process by byte order.
With --pfind-path the search itself runs as an external pfind program.

Nothing is printed when the search or the sort fails.`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSorted,
	}
	cmd.SetHelpTemplate(helpTemplate)

	addSearchFlags(cmd)
	cmd.Flags().String("sort-command", "", "Line sorter to pipe matches through (\"builtin\" sorts in-process)")
	cmd.Flags().StringP("output", "o", "", "Also write the sorted output to this file")
	cmd.Flags().String("pfind-path", "", "Run this pfind executable instead of searching in-process")

	return cmd
}

// runSorted implements the spfind command logic
func runSorted(cmd *cobra.Command, args []string) error {
	s, err := newSearch(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	outputPath, _ := cmd.Flags().GetString("output")
	pfindPath, _ := cmd.Flags().GetString("pfind-path")

	var matches []string
	var walk *pipeline.WalkSource
	var src pipeline.Source
	if pfindPath != "" {
		src = &pipeline.CommandSource{
			Path:   pfindPath,
			Args:   []string{"-d", s.root, "-p", s.spec.String()},
			Stderr: cmd.ErrOrStderr(),
		}
		s.log.LogDebug(fmt.Sprintf("searching with %s", pfindPath))
	} else {
		walk = &pipeline.WalkSource{
			Walker: s.walker,
			Root:   s.root,
			Spec:   s.spec,
		}
		if s.store != nil {
			walk.Emit = walker.Collect(&matches, nil)
		}
		src = walk
	}

	sorter := newSorter(s.cfg, cmd)

	started := time.Now()
	var buf bytes.Buffer
	summary, runErr := pipeline.Run(cmd.Context(), src, sorter, &buf)

	var result *walker.Result
	if walk != nil {
		result = walk.Result
	} else if summary != nil {
		matches = outputLines(summary.Output)
	}
	s.finish(cmd.Context(), started, result, matches, runErr)

	if runErr != nil {
		return runErr
	}

	if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if outputPath != "" {
		onWait := func() {
			s.log.LogWarn(fmt.Sprintf("waiting for another process to release %s.lock", outputPath))
		}
		if err := filelock.LockAndWrite(outputPath, buf.Bytes(), onWait); err != nil {
			return fmt.Errorf("write %s: %w", outputPath, err)
		}
		s.log.LogInfo(fmt.Sprintf("wrote %d lines to %s", summary.Lines, outputPath))
	}
	return nil
}

// newSorter builds the sorter named by the sort_command setting.
func newSorter(cfg *config.Config, cmd *cobra.Command) pipeline.Sorter {
	if strings.TrimSpace(cfg.SortCommand) == config.BuiltinSorter {
		return pipeline.MemorySorter{}
	}
	path, args := splitCommand(cfg.SortCommand)
	return &pipeline.CommandSorter{
		Path:   path,
		Args:   args,
		Stderr: cmd.ErrOrStderr(),
	}
}

func outputLines(out []byte) []string {
	text := strings.TrimSuffix(string(out), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
