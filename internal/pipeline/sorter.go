package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"slices"
)

// CommandSorter pipes lines through an external program, "sort" by
// default.
type CommandSorter struct {
	// Path is the program to run. Empty means "sort" looked up on PATH.
	Path string
	// Args are extra arguments, e.g. "-r".
	Args []string
	// Stderr receives the program's diagnostics. Nil discards them.
	Stderr io.Writer
}

func (s *CommandSorter) Sort(ctx context.Context, r io.Reader, w io.Writer) error {
	path := s.Path
	if path == "" {
		path = "sort"
	}

	cmd := exec.CommandContext(ctx, path, s.Args...)
	cmd.Stdin = r
	cmd.Stdout = w
	cmd.Stderr = s.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// MemorySorter sorts lines in-process by byte order, the order "sort"
// produces under LC_ALL=C.
type MemorySorter struct{}

func (MemorySorter) Sort(ctx context.Context, r io.Reader, w io.Writer) error {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<24)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	slices.Sort(lines)

	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
