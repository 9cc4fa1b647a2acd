// Package perm parses 9-character POSIX permission strings such as
// "rwxr-xr--" and matches them against file modes.
package perm

import (
	"errors"
	"fmt"
	"io/fs"
)

// Permission bits in the order they appear in a permission string.
const (
	OwnerRead    fs.FileMode = 0o400
	OwnerWrite   fs.FileMode = 0o200
	OwnerExecute fs.FileMode = 0o100
	GroupRead    fs.FileMode = 0o040
	GroupWrite   fs.FileMode = 0o020
	GroupExecute fs.FileMode = 0o010
	OtherRead    fs.FileMode = 0o004
	OtherWrite   fs.FileMode = 0o002
	OtherExecute fs.FileMode = 0o001
)

// Placeholder marks a slot whose bit must be absent.
const Placeholder = '-'

// Length is the exact length of a permission string.
const Length = 9

// slot maps one position of a permission string to its mode bit.
type slot struct {
	letter byte
	bit    fs.FileMode
}

var slots = [Length]slot{
	{'r', OwnerRead},
	{'w', OwnerWrite},
	{'x', OwnerExecute},
	{'r', GroupRead},
	{'w', GroupWrite},
	{'x', GroupExecute},
	{'r', OtherRead},
	{'w', OtherWrite},
	{'x', OtherExecute},
}

// permMask covers every bit a Spec can describe.
const permMask fs.FileMode = 0o777

// ErrInvalid is matched by every error returned from Parse.
var ErrInvalid = errors.New("invalid permissions string")

// InvalidError reports a permission string that does not follow the
// grammar. Input is the string exactly as the user supplied it.
type InvalidError struct {
	Input string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("Permissions string '%s' is invalid.", e.Input)
}

// Is makes errors.Is(err, ErrInvalid) report true.
func (e *InvalidError) Is(target error) bool {
	return target == ErrInvalid
}

// Spec is a validated permission string. The zero value is not valid;
// obtain one from Parse.
type Spec struct {
	text string
	bits fs.FileMode
}

// Parse validates s and returns the matcher for it.
func Parse(s string) (Spec, error) {
	if len(s) != Length {
		return Spec{}, &InvalidError{Input: s}
	}

	var bits fs.FileMode
	for i, sl := range slots {
		switch s[i] {
		case Placeholder:
		case sl.letter:
			bits |= sl.bit
		default:
			return Spec{}, &InvalidError{Input: s}
		}
	}

	return Spec{text: s, bits: bits}, nil
}

// MustParse is like Parse but panics on an invalid string.
func MustParse(s string) Spec {
	spec, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// Matches reports whether every one of the nine permission bits of mode
// agrees with the spec. Type bits and setuid/setgid/sticky are ignored.
func (s Spec) Matches(mode fs.FileMode) bool {
	return mode&permMask == s.bits
}

// Mode returns the permission bits the spec requires to be set.
func (s Spec) Mode() fs.FileMode {
	return s.bits
}

// String returns the permission string the spec was parsed from.
func (s Spec) String() string {
	return s.text
}

// Format renders the nine permission bits of mode in the same grammar
// Parse accepts, so Parse(Format(m)) always matches m.
func Format(mode fs.FileMode) string {
	var b [Length]byte
	for i, sl := range slots {
		if mode&sl.bit != 0 {
			b[i] = sl.letter
		} else {
			b[i] = Placeholder
		}
	}
	return string(b[:])
}
