package walker

import (
	"io/fs"
	"os"
)

// FS is the filesystem the walker reads from.
type FS interface {
	// Stat returns metadata for name, following symbolic links.
	Stat(name string) (fs.FileInfo, error)
	// Lstat returns metadata for name without following symbolic links.
	Lstat(name string) (fs.FileInfo, error)
	// ReadDirNames lists the entries of directory name, excluding "." and
	// "..", in the order the operating system returns them.
	ReadDirNames(name string) ([]string, error)
}

// OSFS is the FS backed by the host operating system.
type OSFS struct{}

var _ FS = OSFS{}

func (OSFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (OSFS) Lstat(name string) (fs.FileInfo, error) {
	return os.Lstat(name)
}

// ReadDirNames opens the directory, reads every name and closes the handle
// before returning.
func (OSFS) ReadDirNames(name string) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.Readdirnames(-1)
}
