/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package accessmodel defines the uniform read interface over paths
// consulted by the compiler's world: mtime, file check, canonical path,
// and content reads, plus a clear hook for models holding derived state.
package accessmodel

import (
	"time"
)

// RealPath is the canonical-path-handle associated type. Each implementation
// picks its own representation; the local filesystem implementation uses an
// absolute, symlink-resolved path string.
type RealPath string

// FileErrorKind enumerates the kinds a read can fail with.
type FileErrorKind int

const (
	KindNotFound FileErrorKind = iota
	KindAccessDenied
	KindIO
	KindOther
)

func (k FileErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindAccessDenied:
		return "access-denied"
	case KindIO:
		return "io"
	default:
		return "other"
	}
}

// FileError is the error type every AccessModel read fails with.
type FileError struct {
	Kind FileErrorKind
	Path string
	Err  error
}

func (e *FileError) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Path + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Path
}

func (e *FileError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, accessmodel.ErrNotFound) match by kind only,
// ignoring path/wrapped-error, the way sentinel kinds are usually compared.
func (e *FileError) Is(target error) bool {
	t, ok := target.(*FileError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func NewFileError(kind FileErrorKind, path string, err error) *FileError {
	return &FileError{Kind: kind, Path: path, Err: err}
}

// Sentinel kinds for errors.Is comparisons.
var (
	ErrNotFound     = &FileError{Kind: KindNotFound}
	ErrAccessDenied = &FileError{Kind: KindAccessDenied}
	ErrIO           = &FileError{Kind: KindIO}
	ErrOther        = &FileError{Kind: KindOther}
)

// AccessModel is the capability set consulted by the compiler's world for
// every path it touches. All reads fail with a *FileError.
type AccessModel interface {
	// Clear drops all cached/derived state. A no-op for models with none.
	Clear()
	Mtime(path string) (time.Time, error)
	IsFile(path string) (bool, error)
	RealPath(path string) (RealPath, error)
	ReadAll(path string) ([]byte, error)
}
