package cmd

import (
	"time"

	"github.com/harrison/pfind/internal/walker"
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// helpTemplate puts the usage banner first so the first line of help output
// always starts with "Usage:".
const helpTemplate = `{{.UsageString}}{{with .Long}}
{{. | trimTrailingWhitespaces}}
{{end}}`

// NewFindCommand creates and returns the root cobra command for pfind
func NewFindCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pfind -d <directory> -p <permissions string>",
		Short: "Find files by permission string",
		Long: `pfind walks the directory tree under <directory> and prints every entry
whose permission bits match <permissions string>, one path per line.

The permission string has nine characters, three each for owner, group
and other. Each position is either its letter (r, w or x), meaning the
bit must be set, or '-', meaning it must be clear:

  pfind -d /srv -p rw-r--r--

The root may be a symbolic link to a directory. Symbolic links below the
root are matched on their own mode and never followed.

By default the first entry that cannot be read stops the search with a
non-zero exit status. --continue-on-error reports it and keeps going.`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runFind,
	}
	cmd.SetHelpTemplate(helpTemplate)

	addSearchFlags(cmd)
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewWatchCommand())

	return cmd
}

// runFind implements the pfind command logic
func runFind(cmd *cobra.Command, args []string) error {
	s, err := newSearch(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	var matches []string
	var record walker.EmitFunc
	emit, flush := walker.LineEmitter(cmd.OutOrStdout())
	if s.store != nil {
		record = walker.Collect(&matches, emit)
	} else {
		record = emit
	}

	started := time.Now()
	result, walkErr := s.walker.Walk(s.root, s.spec, record)
	if err := flush(); err != nil && walkErr == nil {
		walkErr = err
	}

	s.finish(cmd.Context(), started, result, matches, walkErr)
	return walkErr
}
