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
package actor

import (
	"inkwell.dev/typeset/shadow"
	"inkwell.dev/typeset/watch"
)

// actorEvent is the sum type process() dispatches on.
type actorEvent interface{ isActorEvent() }

type stealTask struct{ fn func(*Actor) }
type memEvent struct{ event shadow.MemoryEvent }
type fsEvent struct{ event watch.FilesystemEvent }

func (stealTask) isActorEvent() {}
func (memEvent) isActorEvent()  {}
func (fsEvent) isActorEvent()   {}

// process dispatches a single drained event, returning whether it set the
// recompile flag.
func (a *Actor) process(ev actorEvent) bool {
	switch e := ev.(type) {
	case stealTask:
		e.fn(a)
		return false
	case memEvent:
		return a.processMemoryEvent(e.event)
	case fsEvent:
		return a.processFSEvent(e.event)
	default:
		return false
	}
}

// processMemoryEvent computes the invalidation set for a shadow edit; if
// empty and no upstream update is outstanding, the edit is projected onto
// the compiler immediately, otherwise it defers via an UpstreamUpdate
// round trip. Inserts landing on watched paths join the invalidation set:
// a queued FS event for the same path must not overwrite the newer
// overlay.
func (a *Actor) processMemoryEvent(event shadow.MemoryEvent) bool {
	if upd, ok := event.(shadow.UpdateEvent); ok &&
		len(upd.Payload.Removes) == 0 && len(upd.Payload.Inserts) == 0 {
		return false
	}

	invalidates := a.shadowRegistry.Estimate(event)
	for _, path := range insertPaths(event) {
		if _, watched := a.watchedPaths[path]; watched {
			invalidates[path] = struct{}{}
		}
	}

	a.mu.Lock()
	dirty := a.dirtyShadowTick
	tick := a.logicalTick
	a.mu.Unlock()

	if len(invalidates) == 0 && dirty == 0 {
		a.shadowRegistry.Project(a.compiler, event)
		return true
	}

	a.mu.Lock()
	a.dirtyShadowTick = tick
	a.mu.Unlock()

	paths := make([]string, 0, len(invalidates))
	for p := range invalidates {
		paths = append(paths, p)
	}

	payload := watch.UpstreamUpdatePayload{
		Invalidates: paths,
		Opaque:      watch.TaggedMemoryEvent{Tick: tick, Event: event},
	}

	if a.watcher != nil {
		a.watcher.Notify() <- watch.UpstreamUpdateMsg{Payload: payload}
	}

	return false
}

func insertPaths(event shadow.MemoryEvent) []string {
	var inserts map[string][]byte
	switch e := event.(type) {
	case shadow.SyncEvent:
		inserts = e.Payload.Inserts
	case shadow.UpdateEvent:
		inserts = e.Payload.Inserts
	}
	paths := make([]string, 0, len(inserts))
	for p := range inserts {
		paths = append(paths, p)
	}
	return paths
}

// processFSEvent forwards a filesystem event to the compiler. An
// UpstreamUpdate is first unwrapped: if its tick matches the outstanding
// dirty-shadow tick, the tick is cleared; the carried memory event is
// projected either way, then the invalidated paths are forwarded as a
// plain FS change.
func (a *Actor) processFSEvent(event watch.FilesystemEvent) bool {
	switch e := event.(type) {
	case watch.UpstreamUpdateEvent:
		tagged := e.Payload.Opaque

		a.mu.Lock()
		if tagged.Tick == a.dirtyShadowTick {
			a.dirtyShadowTick = 0
		}
		a.mu.Unlock()

		// The opaque carrier only ever holds what this actor itself put
		// there; a failed assertion is a programmer error and may panic.
		memEv := tagged.Event.(shadow.MemoryEvent)
		a.shadowRegistry.Project(a.compiler, memEv)

		a.compiler.NotifyFSEvent(watch.PlainFSEvent{Paths: e.Payload.Invalidates})
		return true

	case watch.ScanDoneEvent:
		return true

	default:
		a.compiler.NotifyFSEvent(event)
		return true
	}
}
