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

// Package actor drives a typesetting compiler incrementally: it merges
// filesystem notifications and editor-originated shadow edits into a
// single invalidation stream and recompiles only when needed. The actor
// owns the compiler and all mutable state; clients hold only send-only
// channels and route every access through the steal channel, which grants
// exclusive access to the actor's state for the duration of a single
// closure.
package actor

import (
	"context"
	"sync"
	"sync/atomic"

	"inkwell.dev/typeset/compiler"
	"inkwell.dev/typeset/internal/logging"
	"inkwell.dev/typeset/shadow"
	"inkwell.dev/typeset/watch"
)

// Evictor is the cache-eviction hook the actor invokes after every
// compile, dropping memoised entries older than the configured number of
// generations.
type Evictor interface {
	EvictOlderThan(generations int)
}

// Config holds the actor's recognised options.
type Config struct {
	EnableWatch            bool
	WorkspaceRoot          string
	CacheEvictionThreshold int
}

const defaultCacheEvictionThreshold = 30

// Actor owns the compiler, merges memory/FS/steal events, schedules
// compilation, and manages the logical clock and dirty-shadow
// reconciliation.
type Actor struct {
	compiler       compiler.Compiler
	workspaceRoot  string
	enableWatch    bool
	evictThreshold int
	evictor        Evictor

	watcher watch.Watcher

	logicalTick     uint64
	dirtyShadowTick uint64
	shadowRegistry  *shadow.Registry

	// watchedPaths mirrors the dependency list last broadcast to the
	// watcher. A memory insert landing on one of these must round-trip
	// through the watcher, or a queued FS event for the same path could
	// overwrite the newer overlay.
	watchedPaths map[string]struct{}

	latestDoc atomic.Pointer[compiler.Document]

	memoryCh chan shadow.MemoryEvent
	stealCh  chan func(*Actor)
	fsEvents <-chan watch.FilesystemEvent
	fsErrors <-chan error

	mu sync.Mutex // guards dirtyShadowTick/logicalTick for steal-time reads only
}

// New constructs an actor owning the given compiler.
func New(c compiler.Compiler, cfg Config) *Actor {
	threshold := cfg.CacheEvictionThreshold
	if threshold <= 0 {
		threshold = defaultCacheEvictionThreshold
	}
	return &Actor{
		compiler:       c,
		workspaceRoot:  cfg.WorkspaceRoot,
		enableWatch:    cfg.EnableWatch,
		evictThreshold: threshold,
		shadowRegistry: shadow.NewRegistry(),
		watchedPaths:   make(map[string]struct{}),
		memoryCh:       make(chan shadow.MemoryEvent, 256),
		stealCh:        make(chan func(*Actor), 64),
	}
}

// SetEvictor wires the memoisation subsystem's eviction hook.
func (a *Actor) SetEvictor(e Evictor) { a.evictor = e }

// NewClient returns a Client holding the actor's sender halves.
func (a *Actor) NewClient() *Client {
	return &Client{memoryCh: a.memoryCh, stealCh: a.stealCh}
}

// LatestDocument returns a shared snapshot of the most recently produced
// compiled artifact, or nil if none has been produced yet.
func (a *Actor) LatestDocument() *compiler.Document {
	return a.latestDoc.Load()
}

// LogicalTick returns the current logical tick.
func (a *Actor) LogicalTick() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.logicalTick
}

// DirtyShadowTick returns the current dirty-shadow tick; zero means no
// upstream update is outstanding.
func (a *Actor) DirtyShadowTick() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dirtyShadowTick
}

// ShadowSet returns the actor's current estimate of the compiler's shadow
// map.
func (a *Actor) ShadowSet() map[string]struct{} {
	return a.shadowRegistry.Snapshot()
}

// Run invokes compile once when watching is disabled, or spawns the
// watched event loop otherwise. It returns whether a document was
// produced, and any error from the watched loop's context cancellation.
func (a *Actor) Run(ctx context.Context) (bool, error) {
	if !a.enableWatch {
		return a.compileOnce(), nil
	}

	watcher, err := a.startWatcher()
	if err != nil {
		logging.Error("compile actor: failed to start watcher: %v", err)
		return false, err
	}
	a.watcher = watcher
	a.fsEvents = watcher.Events()
	a.fsErrors = watcher.Errors()
	defer func() {
		_ = watcher.Close()
	}()

	go a.logWatcherErrors(ctx)

	return a.runWatched(ctx)
}

func (a *Actor) compileOnce() bool {
	return a.doCompile(compiler.DiagnosticStage{Name: "compiling", Level: "info"})
}

// compile invokes the compiler's compile under a diagnostic stage with
// "warn" semantics, as called from the watched event loop.
func (a *Actor) compile() bool {
	return a.doCompile(compiler.DiagnosticStage{Name: "compiling", Level: "warn"})
}

func (a *Actor) doCompile(stage compiler.DiagnosticStage) bool {
	doc, ok := a.compiler.Compile(stage)
	if ok {
		a.latestDoc.Store(doc)
	} else {
		a.latestDoc.Store(nil)
	}

	if a.evictor != nil {
		a.evictor.EvictOlderThan(a.evictThreshold)
	}

	var deps []watch.DependencyEntry
	watched := make(map[string]struct{})
	a.compiler.IterDependencies(func(path string, meta compiler.DependencyMeta) {
		deps = append(deps, watch.DependencyEntry{Path: path, ModTime: meta.ModTime})
		watched[path] = struct{}{}
	})
	a.watchedPaths = watched

	if a.watcher != nil {
		select {
		case a.watcher.Notify() <- watch.SyncDependencyMsg{Deps: deps}:
		default:
			logging.Warning("compile actor: dependency notify channel full, dropping SyncDependency broadcast")
		}
	}

	return ok
}

// logWatcherErrors drains the watcher's error channel for the lifetime of
// a watched run; watcher errors never abort the loop.
func (a *Actor) logWatcherErrors(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-a.fsErrors:
			if !ok {
				return
			}
			logging.Warning("compile actor: watcher error: %v", err)
		}
	}
}
