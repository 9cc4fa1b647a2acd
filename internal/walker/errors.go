package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Operations recorded in PathError.Op.
const (
	OpStat = "stat"
	OpOpen = "open"
)

// ErrIncomplete is returned by a ContinueOnError walk that skipped at least
// one entry. The individual failures are in Result.Errors.
var ErrIncomplete = errors.New("walk incomplete")

// PathError is a failed metadata query or directory listing.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	switch e.Op {
	case OpOpen:
		return fmt.Sprintf("Cannot open directory '%s'. %s.", e.Path, reason(e.Err))
	default:
		return fmt.Sprintf("Cannot stat '%s'. %s.", e.Path, reason(e.Err))
	}
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// RootError is a root directory that could not be canonicalized or opened.
// No traversal is attempted after one.
type RootError struct {
	PathError
}

// reason returns the bare cause of err with its first letter capitalized,
// so "lstat /x: permission denied" becomes "Permission denied".
func reason(err error) string {
	if err == nil {
		return "Unknown error"
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Err != nil {
		err = pathErr.Err
	}

	msg := err.Error()
	if msg == "" {
		return "Unknown error"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
