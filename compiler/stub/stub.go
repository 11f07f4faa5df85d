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

// Package stub is a minimal, real (not mocked) implementation of the
// compiler package's interfaces, sufficient to drive the compile actor end
// to end: one text-file source is one page, one text run, one glyph per
// byte. It is the concrete collaborator the CLI uses in place of a real
// typesetting engine.
//
// File discovery globs the workspace root with bmatcuk/doublestar/v4.
package stub

import (
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"inkwell.dev/typeset/accessmodel"
	"inkwell.dev/typeset/compiler"
	"inkwell.dev/typeset/watch"
)

// Compiler is the stub typesetting compiler: it treats every watched
// `*.typ`-glob match as a "source" and lays each file out as one text run
// of one glyph per byte on its own page.
type Compiler struct {
	access        accessmodel.AccessModel
	workspaceRoot string
	glob          string

	mu      sync.Mutex
	ids     map[string]compiler.SpanFileID
	paths   map[compiler.SpanFileID]string
	texts   map[compiler.SpanFileID]string
	shadows map[string][]byte
	nextID  compiler.SpanFileID
	deps    map[string]compiler.DependencyMeta
}

func New(access accessmodel.AccessModel, workspaceRoot, glob string) *Compiler {
	return &Compiler{
		access:        access,
		workspaceRoot: workspaceRoot,
		glob:          glob,
		ids:           make(map[string]compiler.SpanFileID),
		paths:         make(map[compiler.SpanFileID]string),
		texts:         make(map[compiler.SpanFileID]string),
		shadows:       make(map[string][]byte),
		deps:          make(map[string]compiler.DependencyMeta),
	}
}

func (c *Compiler) idFor(path string) compiler.SpanFileID {
	if id, ok := c.ids[path]; ok {
		return id
	}
	c.nextID++
	id := c.nextID
	c.ids[path] = id
	c.paths[id] = path
	return id
}

// Compile re-reads every discovered path (shadow overlays win over disk),
// lays out one page per source file, and records each as a dependency.
func (c *Compiler) Compile(stage compiler.DiagnosticStage) (*compiler.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	matches, err := doublestar.FilepathGlob(c.glob)
	if err != nil {
		return nil, false
	}

	var pages []compiler.Page
	c.deps = make(map[string]compiler.DependencyMeta)

	for _, path := range matches {
		var content []byte
		if shadowed, ok := c.shadows[path]; ok {
			content = shadowed
		} else {
			data, err := c.access.ReadAll(path)
			if err != nil {
				continue
			}
			content = data
		}

		id := c.idFor(path)
		c.texts[id] = string(content)

		if mtime, err := c.access.Mtime(path); err == nil {
			c.deps[path] = compiler.DependencyMeta{ModTime: mtime}
		} else {
			c.deps[path] = compiler.DependencyMeta{ModTime: time.Time{}}
		}

		pages = append(pages, layoutPage(id, string(content)))
	}

	return &compiler.Document{Pages: pages}, true
}

func layoutPage(id compiler.SpanFileID, content string) compiler.Page {
	glyphs := make([]compiler.Glyph, 0, len(content))
	for i := range content {
		glyphs = append(glyphs, compiler.Glyph{
			Span:     compiler.Span{FileID: id, Number: uint64(i)},
			Advance:  1,
			TextSize: 1,
		})
	}
	return compiler.Page{
		Frame: compiler.Frame{
			Items: []compiler.Item{
				compiler.TextItem{Glyphs: glyphs},
			},
		},
	}
}

func (c *Compiler) World() compiler.World { return (*world)(c) }

func (c *Compiler) ParsedSource(id compiler.SpanFileID) (compiler.Source, bool) {
	c.mu.Lock()
	_, ok := c.texts[id]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	return &source{c: c, id: id}, true
}

func (c *Compiler) IterDependencies(visit func(path string, meta compiler.DependencyMeta)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for path, meta := range c.deps {
		visit(path, meta)
	}
}

func (c *Compiler) NotifyFSEvent(event watch.FilesystemEvent) {}

func (c *Compiler) ResetShadow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shadows = make(map[string][]byte)
}

func (c *Compiler) MapShadow(path string, content []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shadows[path] = content
	return nil
}

func (c *Compiler) UnmapShadow(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.shadows, path)
	return nil
}

type world Compiler

func (w *world) Source(id compiler.SpanFileID) (string, bool) {
	c := (*Compiler)(w)
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok := c.texts[id]
	return text, ok
}

func (w *world) PathForID(id compiler.SpanFileID) (string, bool) {
	c := (*Compiler)(w)
	c.mu.Lock()
	defer c.mu.Unlock()
	path, ok := c.paths[id]
	return path, ok
}

func (w *world) WorkspaceRoot() string {
	return (*Compiler)(w).workspaceRoot
}

// source walks a file byte-by-byte; every byte offset is its own text leaf,
// matching the one-glyph-per-byte layout above. Real parsed sources would
// have actual syntax trees; this stub only needs enough structure to
// exercise the locator.
type source struct {
	c  *Compiler
	id compiler.SpanFileID
}

func (s *source) LeafAt(byteOffset int) (compiler.Leaf, bool) {
	s.c.mu.Lock()
	text, ok := s.c.texts[s.id]
	s.c.mu.Unlock()
	if !ok || byteOffset < 0 || byteOffset >= len(text) {
		return compiler.Leaf{}, false
	}
	return compiler.Leaf{
		Span:   compiler.Span{FileID: s.id, Number: uint64(byteOffset)},
		IsText: true,
	}, true
}

func (s *source) Range(span compiler.Span) (int, int, bool) {
	s.c.mu.Lock()
	text, ok := s.c.texts[s.id]
	s.c.mu.Unlock()
	if !ok || span.FileID != s.id {
		return 0, 0, false
	}
	start := int(span.Number)
	if start < 0 || start >= len(text) {
		return 0, 0, false
	}
	return start, start + 1, true
}
