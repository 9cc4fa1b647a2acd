package walker

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"

	"github.com/harrison/pfind/internal/logger"
	"github.com/harrison/pfind/internal/perm"
)

// Separator joins a directory path and a child name.
const Separator = "/"

// Logger is the subset of logger.ConsoleLogger the walker writes to.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogWarn(message string)
	Enabled(level string) bool
}

// EmitFunc receives each matching path in traversal order. A non-nil error
// aborts the walk and is returned from Walk unchanged.
type EmitFunc func(path string) error

// Options configures a Walker.
type Options struct {
	// FS is the filesystem to walk. Nil means OSFS.
	FS FS
	// ContinueOnError skips entries whose metadata or listing cannot be
	// read instead of aborting the walk.
	ContinueOnError bool
	// Logger receives per-entry trace output and skipped-entry warnings.
	// Nil means logger.NoOpLogger.
	Logger Logger
}

// Result holds the totals of a walk. It is returned even when the walk
// fails, describing the work done up to the failure.
type Result struct {
	// Visited counts entries whose metadata was read.
	Visited int
	// Matched counts entries passed to the EmitFunc.
	Matched int
	// Errors holds the failures skipped by a ContinueOnError walk.
	Errors []*PathError
}

// Walker walks directory trees. It holds no per-walk state and may be
// reused.
type Walker struct {
	fs              FS
	continueOnError bool
	logger          Logger
}

// New creates a Walker from opts.
func New(opts Options) *Walker {
	fsys := opts.FS
	if fsys == nil {
		fsys = OSFS{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Walker{
		fs:              fsys,
		continueOnError: opts.ContinueOnError,
		logger:          log,
	}
}

// Walk visits root and everything below it, calling emit for every entry
// whose mode matches spec.
//
// Without ContinueOnError the first failure is returned as a *PathError.
// With it, a walk that skipped entries returns an error wrapping
// ErrIncomplete.
func (w *Walker) Walk(root string, spec perm.Spec, emit EmitFunc) (*Result, error) {
	result := &Result{}

	if err := w.visit(root, true, spec, emit, result); err != nil {
		return result, err
	}

	if len(result.Errors) > 0 {
		return result, fmt.Errorf("%w: %d entries could not be read", ErrIncomplete, len(result.Errors))
	}
	return result, nil
}

func (w *Walker) visit(path string, isRoot bool, spec perm.Spec, emit EmitFunc, result *Result) error {
	var info fs.FileInfo
	var err error
	if isRoot {
		info, err = w.fs.Stat(path)
	} else {
		info, err = w.fs.Lstat(path)
	}
	if err != nil {
		return w.fail(&PathError{Op: OpStat, Path: path, Err: err}, result)
	}

	result.Visited++
	mode := info.Mode()
	if w.logger.Enabled("trace") {
		w.logger.LogTrace(fmt.Sprintf("visit %s %s", perm.Format(mode), path))
	}

	if spec.Matches(mode) {
		if err := emit(path); err != nil {
			return err
		}
		result.Matched++
		if w.logger.Enabled("debug") {
			w.logger.LogDebug(fmt.Sprintf("match %s", path))
		}
	}

	if !mode.IsDir() {
		return nil
	}

	names, err := w.fs.ReadDirNames(path)
	if err != nil {
		return w.fail(&PathError{Op: OpOpen, Path: path, Err: err}, result)
	}

	for _, name := range names {
		if name == "." || name == ".." {
			continue
		}
		if err := w.visit(Join(path, name), false, spec, emit, result); err != nil {
			return err
		}
	}
	return nil
}

// fail returns perr, or records it and returns nil when the walk continues
// past errors.
func (w *Walker) fail(perr *PathError, result *Result) error {
	if !w.continueOnError {
		return perr
	}

	result.Errors = append(result.Errors, perr)
	w.logger.LogWarn(perr.Error())
	return nil
}

// Join joins dir and name with a single separator. The filesystem
// root already ends in one.
func Join(dir, name string) string {
	if dir == Separator {
		return Separator + name
	}
	return dir + Separator + name
}

// LineEmitter returns an EmitFunc writing one path per line to out, and the
// flush function that must be called once the walk returns, whether or not
// it failed.
func LineEmitter(out io.Writer) (EmitFunc, func() error) {
	bw := bufio.NewWriter(out)
	emit := func(path string) error {
		if _, err := bw.WriteString(path); err != nil {
			return err
		}
		return bw.WriteByte('\n')
	}
	return emit, bw.Flush
}

// Collect returns an EmitFunc that appends every path to *paths before
// passing it to next. next may be nil.
func Collect(paths *[]string, next EmitFunc) EmitFunc {
	return func(path string) error {
		*paths = append(*paths, path)
		if next != nil {
			return next(path)
		}
		return nil
	}
}
