// Package pipeline runs the sorted finder: a source emitting matching
// paths, a line sorter, and a collector that counts the sorted lines.
//
// The three stages run as separate goroutines joined by two io.Pipe
// streams. Each stage closes the pipe ends it owns when it returns, so a
// failure anywhere unblocks the others. The collector buffers the sorted
// stream and only writes it out once every stage has finished successfully.
// A failed search prints nothing.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
)

// UsagePrefix marks output that is a usage banner rather than results.
// When the first sorted line starts with it, no total is printed.
const UsagePrefix = "Usage:"

// Source writes newline-terminated paths to w.
type Source interface {
	Run(ctx context.Context, w io.Writer) error
}

// Sorter copies the lines of r to w in sorted order.
type Sorter interface {
	Sort(ctx context.Context, r io.Reader, w io.Writer) error
}

// Summary describes the output of a completed pipeline.
type Summary struct {
	// Lines is the number of newline characters in the sorted output.
	Lines int
	// Usage reports that the output was a usage banner.
	Usage bool
	// Output is the sorted stream as written to out, without the total line.
	Output []byte
}

// Run executes src | sorter and writes the sorted lines to out followed by
// "Total matches: N". Nothing is written when any stage fails.
func Run(ctx context.Context, src Source, sorter Sorter, out io.Writer) (*Summary, error) {
	g, ctx := errgroup.WithContext(ctx)

	srcR, srcW := io.Pipe()
	sortR, sortW := io.Pipe()

	// Each stage records its failure before closing its pipes, so the error
	// recorded first is the one that started the failure and not a stage
	// that merely saw a closed pipe.
	var once sync.Once
	var cause error
	record := func(stage string, err error) error {
		if err != nil {
			once.Do(func() {
				cause = err
				if stage != "" {
					cause = fmt.Errorf("%s: %w", stage, err)
				}
			})
		}
		return err
	}

	var collected bytes.Buffer

	g.Go(func() error {
		err := record("", src.Run(ctx, srcW))
		srcW.CloseWithError(err)
		return err
	})

	g.Go(func() error {
		err := record("sort", sorter.Sort(ctx, srcR, sortW))
		srcR.CloseWithError(err)
		sortW.CloseWithError(err)
		return err
	})

	g.Go(func() error {
		_, err := io.Copy(&collected, sortR)
		err = record("collect", err)
		sortR.CloseWithError(err)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, cause
	}

	summary := &Summary{
		Lines:  bytes.Count(collected.Bytes(), []byte{'\n'}),
		Usage:  bytes.HasPrefix(collected.Bytes(), []byte(UsagePrefix)),
		Output: collected.Bytes(),
	}

	if _, err := out.Write(summary.Output); err != nil {
		return summary, fmt.Errorf("write output: %w", err)
	}
	if !summary.Usage {
		if _, err := fmt.Fprintf(out, "Total matches: %d\n", summary.Lines); err != nil {
			return summary, fmt.Errorf("write output: %w", err)
		}
	}

	return summary, nil
}

