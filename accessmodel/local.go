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
package accessmodel

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"inkwell.dev/typeset/internal/platform"
)

// LocalAccessModel implements AccessModel over a platform.FileSystem.
type LocalAccessModel struct {
	fs platform.FileSystem
}

func NewLocalAccessModel(fs platform.FileSystem) *LocalAccessModel {
	return &LocalAccessModel{fs: fs}
}

func (m *LocalAccessModel) Clear() {}

func (m *LocalAccessModel) Mtime(path string) (time.Time, error) {
	info, err := m.fs.Stat(path)
	if err != nil {
		return time.Time{}, translateErr(path, err)
	}
	return info.ModTime(), nil
}

func (m *LocalAccessModel) IsFile(path string) (bool, error) {
	info, err := m.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, translateErr(path, err)
	}
	return !info.IsDir(), nil
}

func (m *LocalAccessModel) RealPath(path string) (RealPath, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", translateErr(path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return RealPath(abs), nil
		}
		return "", translateErr(path, err)
	}
	return RealPath(resolved), nil
}

func (m *LocalAccessModel) ReadAll(path string) ([]byte, error) {
	data, err := m.fs.ReadFile(path)
	if err != nil {
		return nil, translateErr(path, err)
	}
	return data, nil
}

func translateErr(path string, err error) *FileError {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NewFileError(KindNotFound, path, err)
	case errors.Is(err, fs.ErrPermission):
		return NewFileError(KindAccessDenied, path, err)
	case errors.Is(err, os.ErrClosed):
		return NewFileError(KindIO, path, err)
	default:
		return NewFileError(KindOther, path, err)
	}
}
