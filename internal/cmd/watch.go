package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harrison/pfind/internal/walker"
	"github.com/harrison/pfind/internal/watch"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the 'pfind watch' command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch -d <directory> -p <permissions string>",
		Short: "Search, then keep reporting entries that start matching",
		Long: `watch prints the same matches as pfind and then keeps following the
tree, printing each entry that is created with, or changed to, the
requested permission bits. Entries that stop matching are logged at info
level. Stop with Ctrl-C.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runWatch,
	}

	addSearchFlags(cmd)

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := newSearch(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Watch before walking so nothing changed during the walk is missed.
	w, err := watch.New(s.root, s.spec, watch.Options{Logger: s.log})
	if err != nil {
		return err
	}
	defer w.Close()

	out := cmd.OutOrStdout()
	var matches []string
	emit, flush := walker.LineEmitter(out)

	started := time.Now()
	result, walkErr := s.walker.Walk(s.root, s.spec, walker.Collect(&matches, emit))
	if err := flush(); err != nil && walkErr == nil {
		walkErr = err
	}
	s.finish(ctx, started, result, matches, walkErr)
	if walkErr != nil {
		return walkErr
	}

	w.Seed(matches)
	s.log.LogInfo(fmt.Sprintf("watching %s for %s (%d matching)", s.root, s.spec, w.Matching()))

	return w.Run(ctx, func(e watch.Event) error {
		if !e.Matched {
			s.log.LogInfo(fmt.Sprintf("no longer matches: %s", e.Path))
			return nil
		}
		_, err := fmt.Fprintln(out, e.Path)
		return err
	})
}
