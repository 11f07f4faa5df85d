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
package watch

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FSNotifyWatcher is the concrete Watcher. A single goroutine does three
// jobs: translate raw fsnotify events, reconcile the watch set against
// dependency-list syncs, and echo UpstreamUpdate round trips back out as
// FilesystemEvents. Processing all three on one goroutine is what
// serialises round-tripped edits against queued fsnotify events.
type FSNotifyWatcher struct {
	watcher *fsnotify.Watcher

	notify chan NotifyMessage
	events chan FilesystemEvent
	errors chan error

	mu      sync.RWMutex
	closed  bool
	watched map[string]struct{}

	done chan struct{}
	wg   sync.WaitGroup
}

func NewFSNotifyWatcher() (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	fw := &FSNotifyWatcher{
		watcher: w,
		notify:  make(chan NotifyMessage, 64),
		events:  make(chan FilesystemEvent, 256),
		errors:  make(chan error, 16),
		watched: make(map[string]struct{}),
		done:    make(chan struct{}),
	}

	fw.wg.Add(1)
	go func() {
		defer fw.wg.Done()
		fw.run()
	}()

	return fw, nil
}

func (fw *FSNotifyWatcher) Notify() chan<- NotifyMessage { return fw.notify }
func (fw *FSNotifyWatcher) Events() <-chan FilesystemEvent { return fw.events }
func (fw *FSNotifyWatcher) Errors() <-chan error           { return fw.errors }

func (fw *FSNotifyWatcher) Close() error {
	fw.mu.Lock()
	if fw.closed {
		fw.mu.Unlock()
		return nil
	}
	fw.closed = true
	close(fw.done)
	fw.mu.Unlock()

	fw.wg.Wait()

	err := fw.watcher.Close()
	close(fw.events)
	close(fw.errors)
	return err
}

func (fw *FSNotifyWatcher) run() {
	fw.emit(ScanDoneEvent{})

	notify := fw.notify
	for {
		select {
		case msg, ok := <-notify:
			if !ok {
				notify = nil
				continue
			}
			fw.handleNotify(msg)

		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.emit(PlainFSEvent{Paths: []string{ev.Name}})

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.sendErr(err)

		case <-fw.done:
			return
		}
	}
}

func (fw *FSNotifyWatcher) handleNotify(msg NotifyMessage) {
	switch m := msg.(type) {
	case SyncDependencyMsg:
		fw.reconcileWatchSet(m.Deps)
	case UpstreamUpdateMsg:
		// Serialise against this watcher's own queued fsnotify events by
		// virtue of being processed in order on this same goroutine, then
		// echo the edit back out as an UpstreamUpdateEvent for the actor
		// to pick up on its next drain.
		fw.emit(UpstreamUpdateEvent{Payload: m.Payload})
	}
}

func (fw *FSNotifyWatcher) reconcileWatchSet(deps []DependencyEntry) {
	want := make(map[string]struct{}, len(deps))
	for _, d := range deps {
		want[d.Path] = struct{}{}
		if _, already := fw.watched[d.Path]; !already {
			if err := fw.watcher.Add(d.Path); err != nil {
				fw.sendErr(fmt.Errorf("watch add %s: %w", d.Path, err))
				continue
			}
			fw.watched[d.Path] = struct{}{}
		}
	}
	for path := range fw.watched {
		if _, stillWanted := want[path]; !stillWanted {
			_ = fw.watcher.Remove(path)
			delete(fw.watched, path)
		}
	}
}

// emit and sendErr run only on the run goroutine, which Close waits for
// before closing the output channels. They must not hold fw.mu while
// blocked on a full channel, or Close could never take the lock to close
// done; waiting on done alone is enough to stop them once Close starts.
func (fw *FSNotifyWatcher) emit(ev FilesystemEvent) {
	select {
	case fw.events <- ev:
	case <-fw.done:
	}
}

func (fw *FSNotifyWatcher) sendErr(err error) {
	select {
	case fw.errors <- err:
	case <-fw.done:
	}
}
