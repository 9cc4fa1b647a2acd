package walker

import (
	"path/filepath"
	"syscall"
)

// ResolveRoot returns the canonical form of dir: absolute, with every
// symbolic link resolved. It fails with a *RootError when dir cannot be
// resolved or is not a directory that can be listed.
func ResolveRoot(fsys FS, dir string) (string, error) {
	// filepath.Abs would turn "" into the working directory.
	if dir == "" {
		return "", &RootError{PathError{Op: OpStat, Path: dir, Err: syscall.ENOENT}}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", &RootError{PathError{Op: OpStat, Path: dir, Err: err}}
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &RootError{PathError{Op: OpStat, Path: dir, Err: err}}
	}

	info, err := fsys.Stat(resolved)
	if err != nil {
		return "", &RootError{PathError{Op: OpStat, Path: dir, Err: err}}
	}
	if !info.IsDir() {
		return "", &RootError{PathError{Op: OpOpen, Path: resolved, Err: syscall.ENOTDIR}}
	}

	if _, err := fsys.ReadDirNames(resolved); err != nil {
		return "", &RootError{PathError{Op: OpOpen, Path: resolved, Err: err}}
	}

	return resolved, nil
}
