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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"inkwell.dev/typeset/compiler"
	"inkwell.dev/typeset/shadow"
	"inkwell.dev/typeset/watch"
)

type fakeCompiler struct {
	mu         sync.Mutex
	doc        *compiler.Document
	ok         bool
	order      *[]string
	fsNotified []watch.FilesystemEvent
	deps       []string
	shadows    map[string][]byte
	compiles   int
}

func (c *fakeCompiler) Compile(stage compiler.DiagnosticStage) (*compiler.Document, bool) {
	c.mu.Lock()
	c.compiles++
	c.mu.Unlock()
	return c.doc, c.ok
}

func (c *fakeCompiler) compileCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compiles
}
func (c *fakeCompiler) World() compiler.World { return nil }
func (c *fakeCompiler) ParsedSource(id compiler.SpanFileID) (compiler.Source, bool) {
	return nil, false
}
func (c *fakeCompiler) IterDependencies(visit func(path string, meta compiler.DependencyMeta)) {
	for _, p := range c.deps {
		visit(p, compiler.DependencyMeta{})
	}
}
func (c *fakeCompiler) NotifyFSEvent(event watch.FilesystemEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fsNotified = append(c.fsNotified, event)
	if c.order != nil {
		*c.order = append(*c.order, "fs")
	}
}
func (c *fakeCompiler) ResetShadow() {
	if c.order != nil {
		c.mu.Lock()
		*c.order = append(*c.order, "mem")
		c.mu.Unlock()
	}
}
func (c *fakeCompiler) MapShadow(path string, content []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shadows == nil {
		c.shadows = make(map[string][]byte)
	}
	c.shadows[path] = content
	return nil
}
func (c *fakeCompiler) UnmapShadow(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.shadows, path)
	return nil
}
func (c *fakeCompiler) shadowContent(path string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	content, ok := c.shadows[path]
	return content, ok
}

func TestCompileOnce_StoresLatestDocument(t *testing.T) {
	doc := &compiler.Document{Pages: []compiler.Page{{}}}
	a := New(&fakeCompiler{doc: doc, ok: true}, Config{})

	produced := a.compileOnce()

	require.True(t, produced)
	require.Same(t, doc, a.LatestDocument())
}

func TestCompileOnce_FailureClearsLatestDocument(t *testing.T) {
	a := New(&fakeCompiler{doc: &compiler.Document{}, ok: false}, Config{})

	produced := a.compileOnce()

	require.False(t, produced)
	require.Nil(t, a.LatestDocument())
}

func TestProcessMemoryEvent_CleanShadowProjectsImmediately(t *testing.T) {
	a := New(&fakeCompiler{}, Config{})

	recompile := a.processMemoryEvent(shadow.SyncEvent{Payload: shadow.SyncPayload{Inserts: map[string][]byte{}}})

	require.True(t, recompile, "an empty invalidation set with no outstanding upstream update projects immediately")
	require.Equal(t, uint64(0), a.DirtyShadowTick())
}

func TestProcessMemoryEvent_FreshInsertAppliesDirectly(t *testing.T) {
	fc := &fakeCompiler{}
	a := New(fc, Config{})

	recompile := a.processMemoryEvent(shadow.UpdateEvent{Payload: shadow.UpdatePayload{
		Inserts: map[string][]byte{"/a.typ": []byte("x")},
	}})

	require.True(t, recompile)
	require.Equal(t, uint64(0), a.DirtyShadowTick())
	require.Equal(t, map[string]struct{}{"/a.typ": {}}, a.ShadowSet())
	content, mapped := fc.shadowContent("/a.typ")
	require.True(t, mapped, "an insert on an unwatched path projects onto the compiler immediately")
	require.Equal(t, []byte("x"), content)
}

func TestProcessMemoryEvent_EmptyUpdateIsANoOp(t *testing.T) {
	fc := &fakeCompiler{}
	a := New(fc, Config{})

	recompile := a.processMemoryEvent(shadow.UpdateEvent{Payload: shadow.UpdatePayload{}})

	require.False(t, recompile, "an update carrying no removes and no inserts must not trigger a compile")
	require.Equal(t, uint64(0), a.DirtyShadowTick())
	require.Empty(t, a.ShadowSet())
}

func TestProcessMemoryEvent_InsertOnWatchedPathDefersThenRoundTrips(t *testing.T) {
	fc := &fakeCompiler{}
	a := New(fc, Config{})
	a.logicalTick = 4
	a.watchedPaths = map[string]struct{}{"/a.typ": {}}

	notifyCh := make(chan watch.NotifyMessage, 4)
	a.watcher = &fakeWatcher{notify: notifyCh}

	recompile := a.processMemoryEvent(shadow.UpdateEvent{Payload: shadow.UpdatePayload{
		Inserts: map[string][]byte{"/a.typ": []byte("y")},
	}})

	require.False(t, recompile)
	require.Equal(t, uint64(4), a.DirtyShadowTick())
	_, mapped := fc.shadowContent("/a.typ")
	require.False(t, mapped, "the overlay must not reach the compiler ahead of its round trip")

	var upd watch.UpstreamUpdateMsg
	select {
	case msg := <-notifyCh:
		var ok bool
		upd, ok = msg.(watch.UpstreamUpdateMsg)
		require.True(t, ok)
		require.Equal(t, []string{"/a.typ"}, upd.Payload.Invalidates)
	default:
		t.Fatal("expected an UpstreamUpdateMsg to be sent to the watcher")
	}

	recompile = a.processFSEvent(watch.UpstreamUpdateEvent{Payload: upd.Payload})

	require.True(t, recompile)
	require.Equal(t, uint64(0), a.DirtyShadowTick())
	content, mapped := fc.shadowContent("/a.typ")
	require.True(t, mapped)
	require.Equal(t, []byte("y"), content)
}

func TestProcessMemoryEvent_NonEmptyInvalidationDefers(t *testing.T) {
	fc := &fakeCompiler{}
	a := New(fc, Config{})
	a.logicalTick = 7

	notifyCh := make(chan watch.NotifyMessage, 4)
	a.watcher = &fakeWatcher{notify: notifyCh}

	a.shadowRegistry.Estimate(shadow.SyncEvent{Payload: shadow.SyncPayload{Inserts: map[string][]byte{"a.typ": {}}}})

	recompile := a.processMemoryEvent(shadow.UpdateEvent{Payload: shadow.UpdatePayload{Removes: []string{"a.typ"}}})

	require.False(t, recompile, "a non-empty invalidation set must defer through an UpstreamUpdate round trip rather than recompiling immediately")
	require.Equal(t, uint64(7), a.DirtyShadowTick())

	select {
	case msg := <-notifyCh:
		upd, ok := msg.(watch.UpstreamUpdateMsg)
		require.True(t, ok)
		require.Equal(t, []string{"a.typ"}, upd.Payload.Invalidates)
		require.Equal(t, uint64(7), upd.Payload.Opaque.Tick)
	default:
		t.Fatal("expected an UpstreamUpdateMsg to be sent to the watcher")
	}
}

func TestProcessFSEvent_UpstreamUpdate_ClearsMatchingTickAndProjects(t *testing.T) {
	fc := &fakeCompiler{}
	a := New(fc, Config{})
	a.dirtyShadowTick = 3

	event := watch.UpstreamUpdateEvent{Payload: watch.UpstreamUpdatePayload{
		Invalidates: []string{"a.typ"},
		Opaque: watch.TaggedMemoryEvent{
			Tick:  3,
			Event: shadow.SyncEvent{Payload: shadow.SyncPayload{Inserts: map[string][]byte{"a.typ": []byte("x")}}},
		},
	}}

	recompile := a.processFSEvent(event)

	require.True(t, recompile)
	require.Equal(t, uint64(0), a.DirtyShadowTick(), "a matching tick clears the dirty-shadow tick")
	content, mapped := fc.shadowContent("a.typ")
	require.True(t, mapped, "the round-tripped memory event is projected onto the compiler")
	require.Equal(t, []byte("x"), content)
	require.Len(t, fc.fsNotified, 1)
	plain, ok := fc.fsNotified[0].(watch.PlainFSEvent)
	require.True(t, ok)
	require.Equal(t, []string{"a.typ"}, plain.Paths)
}

func TestProcessFSEvent_UpstreamUpdate_MismatchedTickStillProjects(t *testing.T) {
	fc := &fakeCompiler{}
	a := New(fc, Config{})
	a.dirtyShadowTick = 5

	event := watch.UpstreamUpdateEvent{Payload: watch.UpstreamUpdatePayload{
		Opaque: watch.TaggedMemoryEvent{
			Tick:  3,
			Event: shadow.SyncEvent{Payload: shadow.SyncPayload{Inserts: map[string][]byte{}}},
		},
	}}

	recompile := a.processFSEvent(event)

	require.True(t, recompile, "the round-tripped payload is applied even when its tick no longer matches the current dirty-shadow tick")
	require.Equal(t, uint64(5), a.DirtyShadowTick(), "only the bookkeeping tick is gated on a matching tick, not the projection itself")
}

func TestProcessFSEvent_ScanDoneIsANoOpThatStillRecompiles(t *testing.T) {
	a := New(&fakeCompiler{}, Config{})

	recompile := a.processFSEvent(watch.ScanDoneEvent{})

	require.True(t, recompile)
}

func TestProcessFSEvent_PlainEventForwardsToCompiler(t *testing.T) {
	fc := &fakeCompiler{}
	a := New(fc, Config{})

	recompile := a.processFSEvent(watch.PlainFSEvent{Paths: []string{"b.typ"}})

	require.True(t, recompile)
	require.Len(t, fc.fsNotified, 1)
}

func TestDrainBatch_PriorityOrderIsFSThenMemoryThenSteal(t *testing.T) {
	var order []string
	fc := &fakeCompiler{order: &order}
	a := New(fc, Config{})

	fsCh := make(chan watch.FilesystemEvent, 1)
	fsCh <- watch.PlainFSEvent{Paths: []string{"x"}}
	a.fsEvents = fsCh

	a.memoryCh <- shadow.SyncEvent{Payload: shadow.SyncPayload{Inserts: map[string][]byte{}}}
	a.stealCh <- func(actor *Actor) { order = append(order, "steal") }

	_, _, _, _ = a.drainBatch(false, a.fsEvents, a.memoryCh, a.stealCh)

	require.Equal(t, []string{"fs", "mem", "steal"}, order)
}

func TestRunWatched_LoneMemoryEventAdvancesTickByAtLeastTwo(t *testing.T) {
	fc := &fakeCompiler{doc: &compiler.Document{}, ok: true}
	a := New(fc, Config{})

	fsCh := make(chan watch.FilesystemEvent)
	close(fsCh)
	a.fsEvents = fsCh

	start := a.LogicalTick()
	a.memoryCh <- shadow.UpdateEvent{Payload: shadow.UpdatePayload{
		Inserts: map[string][]byte{"/a.typ": []byte("x")},
	}}
	close(a.memoryCh)
	close(a.stealCh)

	produced, err := a.runWatched(context.Background())
	require.NoError(t, err)
	require.True(t, produced)
	require.GreaterOrEqual(t, a.LogicalTick()-start, uint64(2), "a lone event opens a batch and is processed, each advancing the clock")
	require.Equal(t, map[string]struct{}{"/a.typ": {}}, a.ShadowSet())
	content, mapped := fc.shadowContent("/a.typ")
	require.True(t, mapped)
	require.Equal(t, []byte("x"), content)
	require.Equal(t, 1, fc.compileCount())
}

func TestRunWatched_CoalescesBatchIntoOneCompile(t *testing.T) {
	fc := &fakeCompiler{doc: &compiler.Document{}, ok: true}
	a := New(fc, Config{})

	fsCh := make(chan watch.FilesystemEvent, 4)
	fsCh <- watch.PlainFSEvent{Paths: []string{"a"}}
	fsCh <- watch.PlainFSEvent{Paths: []string{"b"}}
	fsCh <- watch.PlainFSEvent{Paths: []string{"c"}}
	close(fsCh)
	a.fsEvents = fsCh

	a.memoryCh <- shadow.SyncEvent{Payload: shadow.SyncPayload{Inserts: map[string][]byte{"/a": []byte("1")}}}
	close(a.memoryCh)
	close(a.stealCh)

	produced, err := a.runWatched(context.Background())
	require.NoError(t, err)
	require.True(t, produced)
	require.Equal(t, 1, fc.compileCount(), "all queued events must coalesce into a single compile")
	require.Equal(t, map[string]struct{}{"/a": {}}, a.ShadowSet())
}

func TestRunWatched_StopsWhenAllChannelsClose(t *testing.T) {
	a := New(&fakeCompiler{}, Config{})
	fsCh := make(chan watch.FilesystemEvent)
	close(fsCh)
	a.fsEvents = fsCh
	close(a.memoryCh)
	close(a.stealCh)

	done := make(chan struct{})
	go func() {
		_, err := a.runWatched(context.Background())
		require.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runWatched did not return once all channels closed")
	}
}

func TestSteal_RunsInsideActorLoopWithEventsAppliedFirst(t *testing.T) {
	fc := &fakeCompiler{doc: &compiler.Document{}, ok: true}
	a := New(fc, Config{})

	fsCh := make(chan watch.FilesystemEvent)
	a.fsEvents = fsCh

	loopDone := make(chan struct{})
	go func() {
		_, _ = a.runWatched(context.Background())
		close(loopDone)
	}()

	client := a.NewClient()
	client.AddMemoryChanges(shadow.UpdateEvent{Payload: shadow.UpdatePayload{
		Inserts: map[string][]byte{"/a": []byte("v")},
	}})

	// The loop's opening select may pick a steal task ahead of an
	// already-queued memory event, but the batch drain always processes
	// memory before steal, so a second steal is strictly ordered after the
	// memory event.
	Steal(client, func(a *Actor) struct{} { return struct{}{} })
	shadowSet := Steal(client, func(a *Actor) map[string]struct{} {
		return a.ShadowSet()
	})
	require.Contains(t, shadowSet, "/a", "a steal task must observe the effects of memory events submitted before it")

	reply := StealAsync(context.Background(), client, func(a *Actor) uint64 {
		return a.LogicalTick()
	})
	select {
	case tick := <-reply:
		require.Greater(t, tick, uint64(0))
	case <-time.After(2 * time.Second):
		t.Fatal("StealAsync reply never arrived")
	}

	close(fsCh)
	close(a.memoryCh)
	close(a.stealCh)
	select {
	case <-loopDone:
	case <-time.After(2 * time.Second):
		t.Fatal("runWatched did not return once all channels closed")
	}
}

func TestRunWatched_StopsOnContextCancellation(t *testing.T) {
	a := New(&fakeCompiler{}, Config{})
	fsCh := make(chan watch.FilesystemEvent)
	a.fsEvents = fsCh

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := a.runWatched(ctx)
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("runWatched did not return on context cancellation")
	}
}

type fakeWatcher struct {
	notify chan watch.NotifyMessage
	events chan watch.FilesystemEvent
	errors chan error
}

func (w *fakeWatcher) Notify() chan<- watch.NotifyMessage { return w.notify }
func (w *fakeWatcher) Events() <-chan watch.FilesystemEvent {
	if w.events == nil {
		return make(chan watch.FilesystemEvent)
	}
	return w.events
}
func (w *fakeWatcher) Errors() <-chan error {
	if w.errors == nil {
		return make(chan error)
	}
	return w.errors
}
func (w *fakeWatcher) Close() error { return nil }
