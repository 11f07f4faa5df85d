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

// Package cached memoises an inner AccessModel's content reads keyed by
// path, behind an application-supplied diff/compute hook, and exposes a
// generation-based eviction hook the compile actor invokes after every
// compile.
//
// Raw and computed values are mirrored to disk via gregjones/httpcache's
// diskcache (peterbourgon/diskv underneath), so a fresh Model pointed at
// the same cache directory serves unchanged files without recomputing.
package cached

import (
	"sync"
	"time"

	"github.com/gregjones/httpcache/diskcache"
	"inkwell.dev/typeset/accessmodel"
)

// DiffComputeHook lets the caller decide whether newly read bytes are a
// meaningful change, and derive whatever cached value should be stored
// alongside them (e.g. a parsed form). Diff returning false reuses the
// previously computed value instead of calling Compute again.
type DiffComputeHook interface {
	Diff(path string, oldContent, newContent []byte) bool
	Compute(path string, content []byte) []byte
}

type entry struct {
	raw        []byte
	computed   []byte
	generation int
}

// rawKeySuffix distinguishes the mirrored raw bytes from the computed
// value under the same path; diskcache hashes keys, so any separator works.
const rawKeySuffix = "\x00raw"

// Model wraps an inner AccessModel, memoising ReadAll by path.
type Model struct {
	inner accessmodel.AccessModel
	hook  DiffComputeHook
	disk  *diskcache.Cache

	mu         sync.Mutex
	entries    map[string]*entry
	generation int
}

func Wrap(inner accessmodel.AccessModel, hook DiffComputeHook, cacheDir string) *Model {
	return &Model{
		inner:   inner,
		hook:    hook,
		disk:    diskcache.New(cacheDir),
		entries: make(map[string]*entry),
	}
}

func (m *Model) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]*entry)
	m.mu.Unlock()
	m.inner.Clear()
}

func (m *Model) Mtime(path string) (time.Time, error) {
	return m.inner.Mtime(path)
}

func (m *Model) IsFile(path string) (bool, error) {
	return m.inner.IsFile(path)
}

func (m *Model) RealPath(path string) (accessmodel.RealPath, error) {
	return m.inner.RealPath(path)
}

// ReadAll returns the memoised computed value, recomputing only when Diff
// reports the freshly-read bytes differ from the cached raw bytes. A cold
// in-memory miss consults the disk mirror before falling back to Compute.
func (m *Model) ReadAll(path string) ([]byte, error) {
	fresh, err := m.inner.ReadAll(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[path]
	if ok && !m.hook.Diff(path, e.raw, fresh) {
		e.generation = m.generation
		return e.computed, nil
	}

	if !ok {
		if computed, raw, hit := m.diskGet(path); hit && !m.hook.Diff(path, raw, fresh) {
			m.entries[path] = &entry{raw: fresh, computed: computed, generation: m.generation}
			return computed, nil
		}
	}

	computed := m.hook.Compute(path, fresh)
	m.entries[path] = &entry{raw: fresh, computed: computed, generation: m.generation}
	m.disk.Set(path, computed)
	m.disk.Set(path+rawKeySuffix, fresh)
	return computed, nil
}

// diskGet loads a path's mirrored computed and raw bytes; both must be
// present for the mirror to be usable.
func (m *Model) diskGet(path string) (computed, raw []byte, ok bool) {
	computed, ok = m.disk.Get(path)
	if !ok {
		return nil, nil, false
	}
	raw, ok = m.disk.Get(path + rawKeySuffix)
	if !ok {
		return nil, nil, false
	}
	return computed, raw, true
}

// EvictOlderThan implements actor.Evictor. The actor calls it once per
// compile, so each call advances the generation counter before dropping
// every entry more than threshold generations behind it.
func (m *Model) EvictOlderThan(threshold int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	for path, e := range m.entries {
		if m.generation-e.generation > threshold {
			delete(m.entries, path)
			m.disk.Delete(path)
			m.disk.Delete(path + rawKeySuffix)
		}
	}
}
