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
package stub

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"inkwell.dev/typeset/accessmodel"
	"inkwell.dev/typeset/compiler"
	"inkwell.dev/typeset/internal/platform"
)

func compilerStage() compiler.DiagnosticStage {
	return compiler.DiagnosticStage{Name: "compiling", Level: "info"}
}

func newWorkspace(t *testing.T) (string, accessmodel.AccessModel) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.typ"), []byte("hi"), 0o644))
	access := accessmodel.NewLocalAccessModel(platform.NewOSFileSystem())
	return dir, access
}

func TestCompiler_Compile_DiscoversGlobbedFiles(t *testing.T) {
	dir, access := newWorkspace(t)
	glob := filepath.Join(dir, "**", "*.typ")
	c := New(access, dir, glob)

	doc, ok := c.Compile(compilerStage())
	require.True(t, ok)
	require.Len(t, doc.Pages, 1)
}

func TestCompiler_Compile_ShadowOverlayWinsOverDisk(t *testing.T) {
	dir, access := newWorkspace(t)
	glob := filepath.Join(dir, "**", "*.typ")
	c := New(access, dir, glob)
	path := filepath.Join(dir, "a.typ")

	require.NoError(t, c.MapShadow(path, []byte("overlay")))
	_, ok := c.Compile(compilerStage())
	require.True(t, ok)

	id := c.idFor(path)
	src, ok := c.ParsedSource(id)
	require.True(t, ok)

	leaf, ok := src.LeafAt(0)
	require.True(t, ok)
	require.True(t, leaf.IsText)

	text, ok := c.World().Source(id)
	require.True(t, ok)
	require.Equal(t, "overlay", text, "a mapped shadow must be compiled instead of the on-disk content")
}

func TestCompiler_UnmapShadow_RevertsToDisk(t *testing.T) {
	dir, access := newWorkspace(t)
	glob := filepath.Join(dir, "**", "*.typ")
	c := New(access, dir, glob)
	path := filepath.Join(dir, "a.typ")

	require.NoError(t, c.MapShadow(path, []byte("overlay")))
	require.NoError(t, c.UnmapShadow(path))

	_, ok := c.Compile(compilerStage())
	require.True(t, ok)

	world := c.World()
	text, ok := world.Source(c.idFor(path))
	require.True(t, ok)
	require.Equal(t, "hi", text, "after unmapping the shadow, compile must fall back to disk content")
}

func TestCompiler_IterDependencies_ReportsDiscoveredPaths(t *testing.T) {
	dir, access := newWorkspace(t)
	glob := filepath.Join(dir, "**", "*.typ")
	c := New(access, dir, glob)

	_, ok := c.Compile(compilerStage())
	require.True(t, ok)

	var seen []string
	c.IterDependencies(func(path string, meta compiler.DependencyMeta) {
		seen = append(seen, path)
	})
	require.Len(t, seen, 1)
}
