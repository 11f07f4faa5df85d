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

// Package watch defines the watch/notify boundary: a watcher consumes a
// dependency list and emits FilesystemEvents, including the UpstreamUpdate
// round-trip carrier that serialises memory edits against watched-path
// changes.
package watch

import "time"

// FilesystemEvent is either an ordinary change set or a tagged
// UpstreamUpdate whose Opaque round-trips a memory event through the
// watcher.
type FilesystemEvent interface {
	isFilesystemEvent()
}

// PlainFSEvent is an ordinary filesystem change set.
type PlainFSEvent struct {
	Paths []string
}

// ScanDoneEvent is the initial "scan-done" sentinel, modelled as an empty
// FS event.
type ScanDoneEvent struct{}

// UpstreamUpdateEvent carries a round-tripped memory edit back to the
// actor, tagged with the invalidated paths and the opaque TaggedMemoryEvent.
type UpstreamUpdateEvent struct {
	Payload UpstreamUpdatePayload
}

type UpstreamUpdatePayload struct {
	Invalidates []string
	Opaque      TaggedMemoryEvent
}

func (PlainFSEvent) isFilesystemEvent()        {}
func (ScanDoneEvent) isFilesystemEvent()       {}
func (UpstreamUpdateEvent) isFilesystemEvent() {}

// TaggedMemoryEvent pairs a logical tick with the memory event carried in
// Opaque above. Event is declared as `any` rather than importing the
// shadow package, keeping watch a leaf package with no dependency on the
// actor's internals; the actor performs the type assertion back on the
// round trip.
type TaggedMemoryEvent struct {
	Tick  uint64
	Event any
}

// NotifyMessage is input to the watcher: either a dependency-list sync or
// an upstream update to echo back.
type NotifyMessage interface {
	isNotifyMessage()
}

type DependencyEntry struct {
	Path    string
	ModTime time.Time
}

type SyncDependencyMsg struct {
	Deps []DependencyEntry
}

type UpstreamUpdateMsg struct {
	Payload UpstreamUpdatePayload
}

func (SyncDependencyMsg) isNotifyMessage() {}
func (UpstreamUpdateMsg) isNotifyMessage() {}

// Watcher is the external collaborator: it consumes NotifyMessages on its
// input and emits FilesystemEvents, including an initial scan-done
// sentinel.
type Watcher interface {
	Notify() chan<- NotifyMessage
	Events() <-chan FilesystemEvent
	Errors() <-chan error
	Close() error
}
