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

// Package trace wraps an accessmodel.AccessModel and records per-operation
// elapsed time without altering the inner model's behaviour.
package trace

import (
	"sync/atomic"
	"time"

	"inkwell.dev/typeset/accessmodel"
	"inkwell.dev/typeset/internal/logging"
	"inkwell.dev/typeset/internal/platform"
)

// Op identifies one traced operation: the five AccessModel reads plus the
// cached model's diff and compute hooks.
type Op int

const (
	OpClear Op = iota
	OpMtime
	OpIsFile
	OpRealPath
	OpReadAll
	OpDiff
	OpCompute
	numOps
)

func (o Op) String() string {
	switch o {
	case OpClear:
		return "clear"
	case OpMtime:
		return "mtime"
	case OpIsFile:
		return "is_file"
	case OpRealPath:
		return "real_path"
	case OpReadAll:
		return "read_all"
	case OpDiff:
		return "diff"
	case OpCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// Model wraps any AccessModel, accumulating summed wall-clock nanoseconds
// per operation using relaxed atomic addition. Counters are advisory, not
// serialising.
type Model struct {
	inner    accessmodel.AccessModel
	clock    platform.TimeProvider
	counters [numOps]atomic.Uint64
}

func Wrap(inner accessmodel.AccessModel) *Model {
	return WrapWithClock(inner, platform.NewRealTimeProvider())
}

// WrapWithClock is Wrap with an injectable clock, so tests can advance time
// deterministically.
func WrapWithClock(inner accessmodel.AccessModel, clock platform.TimeProvider) *Model {
	return &Model{inner: inner, clock: clock}
}

// Counters returns a snapshot of the accumulated nanosecond totals.
func (m *Model) Counters() map[Op]uint64 {
	out := make(map[Op]uint64, numOps)
	for op := Op(0); op < numOps; op++ {
		out[op] = m.counters[op].Load()
	}
	return out
}

func (m *Model) record(op Op, path string, start time.Time) {
	elapsed := m.clock.Now().Sub(start)
	m.counters[op].Add(uint64(elapsed.Nanoseconds()))
	logging.Debug("op=%s path=%s dur=%dns", op, path, elapsed.Nanoseconds())
}

func (m *Model) Clear() {
	start := m.clock.Now()
	m.inner.Clear()
	m.record(OpClear, "", start)
}

func (m *Model) Mtime(path string) (time.Time, error) {
	start := m.clock.Now()
	t, err := m.inner.Mtime(path)
	m.record(OpMtime, path, start)
	return t, err
}

func (m *Model) IsFile(path string) (bool, error) {
	start := m.clock.Now()
	ok, err := m.inner.IsFile(path)
	m.record(OpIsFile, path, start)
	return ok, err
}

func (m *Model) RealPath(path string) (accessmodel.RealPath, error) {
	start := m.clock.Now()
	rp, err := m.inner.RealPath(path)
	m.record(OpRealPath, path, start)
	return rp, err
}

func (m *Model) ReadAll(path string) ([]byte, error) {
	start := m.clock.Now()
	data, err := m.inner.ReadAll(path)
	m.record(OpReadAll, path, start)
	return data, err
}

// RecordDiff and RecordCompute let a Cached Access Model (component B)
// route its two extra operations through the same trace counters without
// this package importing the cached package (which imports trace).
func (m *Model) RecordDiff(path string, fn func() bool) bool {
	start := m.clock.Now()
	changed := fn()
	m.record(OpDiff, path, start)
	return changed
}

func (m *Model) RecordCompute(path string, fn func() []byte) []byte {
	start := m.clock.Now()
	out := fn()
	m.record(OpCompute, path, start)
	return out
}
