package walker

import (
	"io/fs"
	"sort"
	"syscall"
	"time"
)

type fakeInfo struct {
	name string
	mode fs.FileMode
}

func (i fakeInfo) Name() string       { return i.name }
func (i fakeInfo) Size() int64        { return 0 }
func (i fakeInfo) Mode() fs.FileMode  { return i.mode }
func (i fakeInfo) ModTime() time.Time { return time.Time{} }
func (i fakeInfo) IsDir() bool        { return i.mode.IsDir() }
func (i fakeInfo) Sys() any           { return nil }

// fakeFS is an in-memory FS whose failures are scripted per path. Listings
// are returned in insertion order so tests control sibling order.
type fakeFS struct {
	modes    map[string]fs.FileMode
	children map[string][]string
	statErr  map[string]error
	listErr  map[string]error

	stats  []string
	lstats []string
	lists  []string
}

func newFakeFS() *fakeFS {
	return &fakeFS{
		modes:    map[string]fs.FileMode{},
		children: map[string][]string{},
		statErr:  map[string]error{},
		listErr:  map[string]error{},
	}
}

func (f *fakeFS) dir(path string, perm fs.FileMode, names ...string) *fakeFS {
	f.modes[path] = fs.ModeDir | perm
	f.children[path] = names
	return f
}

func (f *fakeFS) file(path string, perm fs.FileMode) *fakeFS {
	f.modes[path] = perm
	return f
}

func (f *fakeFS) info(op, name string) (fs.FileInfo, error) {
	if err := f.statErr[name]; err != nil {
		return nil, &fs.PathError{Op: op, Path: name, Err: err}
	}
	mode, ok := f.modes[name]
	if !ok {
		return nil, &fs.PathError{Op: op, Path: name, Err: syscall.ENOENT}
	}
	return fakeInfo{name: name, mode: mode}, nil
}

func (f *fakeFS) Stat(name string) (fs.FileInfo, error) {
	f.stats = append(f.stats, name)
	return f.info("stat", name)
}

func (f *fakeFS) Lstat(name string) (fs.FileInfo, error) {
	f.lstats = append(f.lstats, name)
	return f.info("lstat", name)
}

func (f *fakeFS) ReadDirNames(name string) ([]string, error) {
	f.lists = append(f.lists, name)
	if err := f.listErr[name]; err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return append([]string(nil), f.children[name]...), nil
}

// visited returns every path whose metadata was queried, sorted.
func (f *fakeFS) visited() []string {
	all := append(append([]string(nil), f.stats...), f.lstats...)
	sort.Strings(all)
	return all
}

// recordingLogger captures messages by level.
type recordingLogger struct {
	level  string
	traces []string
	debugs []string
	warns  []string
}

func (l *recordingLogger) LogTrace(m string) { l.traces = append(l.traces, m) }
func (l *recordingLogger) LogDebug(m string) { l.debugs = append(l.debugs, m) }
func (l *recordingLogger) LogWarn(m string)  { l.warns = append(l.warns, m) }

func (l *recordingLogger) Enabled(level string) bool {
	order := map[string]int{"trace": 0, "debug": 1, "info": 2, "warn": 3, "error": 4}
	return order[level] >= order[l.level]
}
