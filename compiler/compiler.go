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

// Package compiler declares the external collaborators the compile actor
// drives: the typesetting compiler proper, its World, and the document
// model the span/frame locator walks. The compiler itself lives elsewhere;
// this package carries interfaces and plain data types only, plus a small
// in-memory stub in a subpackage.
package compiler

import (
	"time"

	"inkwell.dev/typeset/watch"
)

// DiagnosticStage names the stage a compile runs under, and its severity
// policy for surfaced diagnostics.
type DiagnosticStage struct {
	Name  string
	Level string
}

// DependencyMeta is the per-path metadata iter_dependencies reports.
type DependencyMeta struct {
	ModTime time.Time
}

// World resolves file ids to source text and paths.
type World interface {
	Source(id SpanFileID) (string, bool)
	PathForID(id SpanFileID) (string, bool)
	WorkspaceRoot() string
}

// Source is a parsed source file: it locates the syntax leaf under a byte
// offset and resolves a span back to its byte range.
type Source interface {
	// LeafAt finds the syntax leaf covering a byte offset.
	LeafAt(byteOffset int) (Leaf, bool)
	// Range returns a span's byte range within its source file.
	Range(span Span) (start, end int, ok bool)
}

// Leaf is a syntax leaf; only text leaves are valid jump targets.
type Leaf struct {
	Span   Span
	IsText bool
}

// Compiler is the external collaborator the actor owns and drives.
type Compiler interface {
	Compile(stage DiagnosticStage) (*Document, bool)
	World() World
	// ParsedSource returns the parsed-source handle the locator consults
	// for leaf/range lookups, keyed by the same SpanFileID World resolves
	// paths and raw text for.
	ParsedSource(id SpanFileID) (Source, bool)
	IterDependencies(visit func(path string, meta DependencyMeta))
	NotifyFSEvent(event watch.FilesystemEvent)
	ResetShadow()
	MapShadow(path string, content []byte) error
	UnmapShadow(path string) error
}
