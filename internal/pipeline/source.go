package pipeline

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/harrison/pfind/internal/perm"
	"github.com/harrison/pfind/internal/walker"
)

// WalkSource runs the walker in-process.
type WalkSource struct {
	Walker *walker.Walker
	Root   string
	Spec   perm.Spec
	// Emit, if set, also receives every matching path (used to record
	// history).
	Emit walker.EmitFunc
	// Result holds the walk totals once Run returns.
	Result *walker.Result
}

func (s *WalkSource) Run(ctx context.Context, w io.Writer) error {
	emit, flush := walker.LineEmitter(w)
	if s.Emit != nil {
		next := emit
		emit = func(path string) error {
			if err := s.Emit(path); err != nil {
				return err
			}
			return next(path)
		}
	}

	result, err := s.Walker.Walk(s.Root, s.Spec, emit)
	s.Result = result
	if flushErr := flush(); err == nil {
		err = flushErr
	}
	return err
}

// CommandSource runs an external pfind executable and streams its standard
// output. A non-zero exit status is an error.
type CommandSource struct {
	Path string
	Args []string
	// Stderr receives the program's diagnostics. Nil discards them.
	Stderr io.Writer
}

func (s *CommandSource) Run(ctx context.Context, w io.Writer) error {
	cmd := exec.CommandContext(ctx, s.Path, s.Args...)
	cmd.Stdout = w
	cmd.Stderr = s.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", s.Path, err)
	}
	return nil
}

// LinesSource writes fixed lines. It feeds the sorter in tests and when
// replaying recorded history.
type LinesSource []string

func (s LinesSource) Run(ctx context.Context, w io.Writer) error {
	for _, line := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}
