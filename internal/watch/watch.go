// Package watch follows a directory tree after the initial walk and reports
// entries whose permission bits start or stop matching a spec.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/harrison/pfind/internal/logger"
	"github.com/harrison/pfind/internal/perm"
	"github.com/harrison/pfind/internal/walker"
)

// Event is a change in whether an entry matches the spec.
type Event struct {
	Path      string
	Mode      fs.FileMode // zero for removed entries
	Matched   bool        // true when the entry started matching
	Timestamp time.Time
}

// EmitFunc receives events in the order they were observed. Returning an
// error stops Run.
type EmitFunc func(Event) error

// Options configures a Watcher.
type Options struct {
	// FS defaults to walker.OSFS.
	FS walker.FS
	// Logger defaults to logger.NoOpLogger.
	Logger walker.Logger
}

// Watcher watches root and every directory below it. Symbolic links below
// the root are evaluated as themselves and never followed, as in a walk.
type Watcher struct {
	fsw    *fsnotify.Watcher
	fs     walker.FS
	logger walker.Logger
	root   string
	spec   perm.Spec

	mu      sync.Mutex
	matched map[string]bool
	closed  bool
}

// New starts watching root, which must be canonical.
func New(root string, spec perm.Spec, opts Options) (*Watcher, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = walker.OSFS{}
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fsw:     fsw,
		fs:      fsys,
		logger:  log,
		root:    root,
		spec:    spec,
		matched: make(map[string]bool),
	}

	if err := w.fsw.Add(root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}
	if err := w.addBelow(root); err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}

// Seed marks paths as already matching, so that only later changes to them
// are reported.
func (w *Watcher) Seed(paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, p := range paths {
		w.matched[p] = true
	}
}

// Matching returns the number of entries currently known to match.
func (w *Watcher) Matching() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.matched)
}

// addBelow adds a watch for every directory under dir.
func (w *Watcher) addBelow(dir string) error {
	names, err := w.fs.ReadDirNames(dir)
	if err != nil {
		return &walker.PathError{Op: walker.OpOpen, Path: dir, Err: err}
	}

	for _, name := range names {
		if name == "." || name == ".." {
			continue
		}
		path := walker.Join(dir, name)
		info, err := w.fs.Lstat(path)
		if err != nil {
			w.warn(&walker.PathError{Op: walker.OpStat, Path: path, Err: err})
			continue
		}
		if !info.IsDir() {
			continue
		}
		if err := w.fsw.Add(path); err != nil {
			w.warn(fmt.Errorf("watch %s: %w", path, err))
			continue
		}
		if err := w.addBelow(path); err != nil {
			w.warn(err)
		}
	}
	return nil
}

// Run delivers events to emit until ctx is done, emit fails or the watcher
// is closed. Watch errors are logged and do not stop Run.
func (w *Watcher) Run(ctx context.Context, emit EmitFunc) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if err := w.handle(event, emit); err != nil {
				return err
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.warn(err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event, emit EmitFunc) error {
	path := event.Name

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return w.forget(path, emit)
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return nil
	}

	info, err := w.fs.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return w.forget(path, emit)
		}
		w.warn(&walker.PathError{Op: walker.OpStat, Path: path, Err: err})
		return nil
	}

	if err := w.evaluate(path, info.Mode(), emit); err != nil {
		return err
	}

	// A directory moved in may already hold entries.
	if event.Has(fsnotify.Create) && info.IsDir() {
		if err := w.fsw.Add(path); err != nil {
			w.warn(fmt.Errorf("watch %s: %w", path, err))
			return nil
		}
		return w.scan(path, emit)
	}
	return nil
}

// scan evaluates every entry under dir and watches its directories.
func (w *Watcher) scan(dir string, emit EmitFunc) error {
	names, err := w.fs.ReadDirNames(dir)
	if err != nil {
		w.warn(&walker.PathError{Op: walker.OpOpen, Path: dir, Err: err})
		return nil
	}

	for _, name := range names {
		if name == "." || name == ".." {
			continue
		}
		path := walker.Join(dir, name)
		info, err := w.fs.Lstat(path)
		if err != nil {
			w.warn(&walker.PathError{Op: walker.OpStat, Path: path, Err: err})
			continue
		}
		if err := w.evaluate(path, info.Mode(), emit); err != nil {
			return err
		}
		if info.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				w.warn(fmt.Errorf("watch %s: %w", path, err))
				continue
			}
			if err := w.scan(path, emit); err != nil {
				return err
			}
		}
	}
	return nil
}

// evaluate emits an event when path's match state differs from the last
// one seen.
func (w *Watcher) evaluate(path string, mode fs.FileMode, emit EmitFunc) error {
	now := w.spec.Matches(mode)

	w.mu.Lock()
	was := w.matched[path]
	if now {
		w.matched[path] = true
	} else {
		delete(w.matched, path)
	}
	w.mu.Unlock()

	if now == was {
		return nil
	}
	if w.logger.Enabled("trace") {
		w.logger.LogTrace(fmt.Sprintf("change %s %s", perm.Format(mode), path))
	}
	return emit(Event{Path: path, Mode: mode, Matched: now, Timestamp: time.Now()})
}

// forget reports path and everything below it as no longer matching.
func (w *Watcher) forget(path string, emit EmitFunc) error {
	prefix := walker.Join(path, "")

	w.mu.Lock()
	var gone []string
	for p := range w.matched {
		if p == path || (len(p) > len(prefix) && p[:len(prefix)] == prefix) {
			gone = append(gone, p)
			delete(w.matched, p)
		}
	}
	w.mu.Unlock()

	for _, p := range gone {
		if err := emit(Event{Path: p, Timestamp: time.Now()}); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) warn(err error) {
	w.logger.LogWarn(err.Error())
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}
