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
	"context"

	"inkwell.dev/typeset/compiler"
	"inkwell.dev/typeset/shadow"
	"inkwell.dev/typeset/watch"
)

func (a *Actor) startWatcher() (watch.Watcher, error) {
	w, err := watch.NewFSNotifyWatcher()
	if err != nil {
		return nil, err
	}
	var deps []watch.DependencyEntry
	watched := make(map[string]struct{})
	a.compiler.IterDependencies(func(path string, meta compiler.DependencyMeta) {
		deps = append(deps, watch.DependencyEntry{Path: path, ModTime: meta.ModTime})
		watched[path] = struct{}{}
	})
	a.watchedPaths = watched
	w.Notify() <- watch.SyncDependencyMsg{Deps: deps}
	return w, nil
}

// runWatched blocks on the first-available of three sources: FS events,
// memory events, or steal tasks. It then batches by draining each
// non-blockingly in fixed priority (FS, then memory, then steal) until all
// three are momentarily empty. The loop terminates when all three sources
// are closed.
func (a *Actor) runWatched(ctx context.Context) (bool, error) {
	producedAny := false
	fsEvents := a.fsEvents
	memoryCh := a.memoryCh
	stealCh := a.stealCh

	for fsEvents != nil || memoryCh != nil || stealCh != nil {
		var recompile bool

		select {
		case <-ctx.Done():
			return producedAny, ctx.Err()

		case ev, ok := <-fsEvents:
			if !ok {
				fsEvents = nil
				continue
			}
			a.warpTick()
			recompile = a.tickAndProcess(fsEvent{ev})

		case ev, ok := <-memoryCh:
			if !ok {
				memoryCh = nil
				continue
			}
			a.warpTick()
			recompile = a.tickAndProcess(memEvent{ev})

		case task, ok := <-stealCh:
			if !ok {
				stealCh = nil
				continue
			}
			a.warpTick()
			recompile = a.tickAndProcess(stealTask{task})
		}

		recompile, fsEvents, memoryCh, stealCh = a.drainBatch(recompile, fsEvents, memoryCh, stealCh)

		if recompile {
			if a.compile() {
				producedAny = true
			}
		}
	}

	return producedAny, nil
}

// drainBatch non-blockingly drains each source in priority order (FS,
// then memory, then steal) until none has anything ready.
func (a *Actor) drainBatch(
	recompile bool,
	fsEvents <-chan watch.FilesystemEvent,
	memoryCh chan shadow.MemoryEvent,
	stealCh chan func(*Actor),
) (bool, <-chan watch.FilesystemEvent, chan shadow.MemoryEvent, chan func(*Actor)) {
	for {
		drainedSomething := false

		for fsEvents != nil {
			select {
			case ev, ok := <-fsEvents:
				if !ok {
					fsEvents = nil
				} else {
					if a.tickAndProcess(fsEvent{ev}) {
						recompile = true
					}
					drainedSomething = true
				}
				continue
			default:
			}
			break
		}

		for memoryCh != nil {
			select {
			case ev, ok := <-memoryCh:
				if !ok {
					memoryCh = nil
				} else {
					if a.tickAndProcess(memEvent{ev}) {
						recompile = true
					}
					drainedSomething = true
				}
				continue
			default:
			}
			break
		}

		for stealCh != nil {
			select {
			case task, ok := <-stealCh:
				if !ok {
					stealCh = nil
				} else {
					if a.tickAndProcess(stealTask{task}) {
						recompile = true
					}
					drainedSomething = true
				}
				continue
			default:
			}
			break
		}

		if !drainedSomething {
			break
		}
	}

	return recompile, fsEvents, memoryCh, stealCh
}

// warpTick advances the logical clock for the batch itself. Together with
// the per-event advance in tickAndProcess, a batch of N events moves the
// clock by N+1, so even a lone event advances it by two.
func (a *Actor) warpTick() {
	a.mu.Lock()
	a.logicalTick++
	a.mu.Unlock()
}

func (a *Actor) tickAndProcess(ev actorEvent) bool {
	a.warpTick()
	return a.process(ev)
}
