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

// Package shadow tracks the set of in-memory overlays currently believed
// to be projected onto the compiler. It is used exclusively from inside
// the compile actor's single-threaded loop and needs no locking of its
// own.
package shadow

// MemoryEvent is either a Sync (replace the entire shadow set) or an
// Update (diff against it).
type MemoryEvent interface {
	isMemoryEvent()
}

// SyncPayload replaces the entire shadow set with Inserts.
type SyncPayload struct {
	Inserts map[string][]byte
}

// UpdatePayload diffs the shadow set: Removes first, then Inserts.
type UpdatePayload struct {
	Removes []string
	Inserts map[string][]byte
}

type SyncEvent struct{ Payload SyncPayload }
type UpdateEvent struct{ Payload UpdatePayload }

func (SyncEvent) isMemoryEvent()   {}
func (UpdateEvent) isMemoryEvent() {}

// ShadowMapper is the subset of the compiler interface the registry
// drives: reset, map, and unmap of in-memory overlays.
type ShadowMapper interface {
	ResetShadow()
	MapShadow(path string, content []byte) error
	UnmapShadow(path string) error
}

// Registry is the actor-side estimate of the compiler's shadow map.
type Registry struct {
	estimate map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{estimate: make(map[string]struct{})}
}

// Snapshot returns the current estimated shadow set (for tests/invariants).
func (r *Registry) Snapshot() map[string]struct{} {
	out := make(map[string]struct{}, len(r.estimate))
	for p := range r.estimate {
		out[p] = struct{}{}
	}
	return out
}

// Project applies a MemoryEvent to the compiler's actual shadow map.
// Map/unmap errors are ignored; consistency is restored on the next Sync.
func (r *Registry) Project(mapper ShadowMapper, event MemoryEvent) {
	switch e := event.(type) {
	case SyncEvent:
		mapper.ResetShadow()
		for path, content := range e.Payload.Inserts {
			_ = mapper.MapShadow(path, content)
		}
	case UpdateEvent:
		for _, path := range e.Payload.Removes {
			_ = mapper.UnmapShadow(path)
		}
		for path, content := range e.Payload.Inserts {
			_ = mapper.MapShadow(path, content)
		}
	}
}

// Estimate maintains the actor-side shadow set and returns the
// invalidation working set produced by reconciling the event against the
// previous estimate.
func (r *Registry) Estimate(event MemoryEvent) map[string]struct{} {
	switch e := event.(type) {
	case SyncEvent:
		invalidates := r.estimate
		r.estimate = make(map[string]struct{}, len(e.Payload.Inserts))
		for path := range e.Payload.Inserts {
			r.estimate[path] = struct{}{}
			delete(invalidates, path)
		}
		return invalidates
	case UpdateEvent:
		invalidates := make(map[string]struct{})
		for _, path := range e.Payload.Removes {
			delete(r.estimate, path)
			invalidates[path] = struct{}{}
		}
		// Inserts never invalidate on their own: the overlay supersedes the
		// on-disk content, so the compiler has nothing stale to re-read. A
		// path both removed and re-inserted in the same update cancels out.
		for path := range e.Payload.Inserts {
			r.estimate[path] = struct{}{}
			delete(invalidates, path)
		}
		return invalidates
	default:
		return nil
	}
}
