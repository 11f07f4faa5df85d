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
package locator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"inkwell.dev/typeset/compiler"
)

// fakeSource maps a single file's byte offsets one-to-one onto span
// numbers, mirroring compiler/stub's layout scheme closely enough to
// exercise the locator without depending on the stub package.
type fakeSource struct {
	fileID   compiler.SpanFileID
	length   int
	nonText  map[uint64]bool
}

func (s *fakeSource) LeafAt(byteOffset int) (compiler.Leaf, bool) {
	if byteOffset < 0 || byteOffset >= s.length {
		return compiler.Leaf{}, false
	}
	n := uint64(byteOffset)
	return compiler.Leaf{
		Span:   compiler.Span{FileID: s.fileID, Number: n},
		IsText: !s.nonText[n],
	}, true
}

func (s *fakeSource) Range(span compiler.Span) (int, int, bool) {
	if span.FileID != s.fileID {
		return 0, 0, false
	}
	start := int(span.Number)
	return start, start + 1, true
}

func onePageOneRun(fileID compiler.SpanFileID, spanNumbers ...uint64) compiler.Page {
	glyphs := make([]compiler.Glyph, 0, len(spanNumbers))
	for _, n := range spanNumbers {
		glyphs = append(glyphs, compiler.Glyph{
			Span:     compiler.Span{FileID: fileID, Number: n},
			Advance:  1,
			TextSize: 1,
		})
	}
	return compiler.Page{Frame: compiler.Frame{Items: []compiler.Item{compiler.TextItem{Glyphs: glyphs}}}}
}

func TestJumpFromCursor_ExactMatchWins(t *testing.T) {
	src := &fakeSource{fileID: 1, length: 5}
	pages := []compiler.Page{onePageOneRun(1, 0, 1, 2, 3, 4)}

	jp, ok := JumpFromCursor(pages, src, 2)
	require.True(t, ok)
	require.Equal(t, 1, jp.Page)
	require.Equal(t, 2.0, jp.Point.X)
}

func TestJumpFromCursor_NearestFallbackSameFileOnly(t *testing.T) {
	src := &fakeSource{fileID: 1, length: 10}
	// The document only has glyphs at spans 0 and 8 for file 1; cursor at 5
	// should land on span 8 (distance 3) over span 0 (distance 5).
	pages := []compiler.Page{onePageOneRun(1, 0, 8)}

	jp, ok := JumpFromCursor(pages, src, 5)
	require.True(t, ok)
	require.Equal(t, 1.0, jp.Point.X, "glyph at span 8 (distance 3, second in the run, x=1) is nearer to cursor span 5 than span 0 (distance 5)")
}

func TestJumpFromCursor_IgnoresOtherFiles(t *testing.T) {
	src := &fakeSource{fileID: 1, length: 10}
	// Document has a closer glyph in a different file (id 2), which must be
	// ignored in favour of the more distant same-file glyph.
	pages := []compiler.Page{
		{Frame: compiler.Frame{Items: []compiler.Item{compiler.TextItem{Glyphs: []compiler.Glyph{
			{Span: compiler.Span{FileID: 2, Number: 5}, Advance: 1, TextSize: 1},
			{Span: compiler.Span{FileID: 1, Number: 0}, Advance: 1, TextSize: 1},
		}}}}},
	}

	jp, ok := JumpFromCursor(pages, src, 5)
	require.True(t, ok)
	require.Equal(t, 1.0, jp.Point.X, "the span-5 glyph belongs to a different file and must not be selected; the span-0 glyph (second in the run, x=1) must win instead")
}

func TestJumpFromCursor_NonTextLeafReturnsNone(t *testing.T) {
	src := &fakeSource{fileID: 1, length: 5, nonText: map[uint64]bool{2: true}}
	pages := []compiler.Page{onePageOneRun(1, 0, 1, 2, 3, 4)}

	_, ok := JumpFromCursor(pages, src, 2)
	require.False(t, ok, "a cursor on a non-text syntax leaf must never produce a jump")
}

func TestJumpFromCursor_CursorOutOfRangeReturnsNone(t *testing.T) {
	src := &fakeSource{fileID: 1, length: 5}
	pages := []compiler.Page{onePageOneRun(1, 0, 1, 2, 3, 4)}

	_, ok := JumpFromCursor(pages, src, 99)
	require.False(t, ok)
}

func TestJumpFromCursor_EmptyDocumentReturnsNone(t *testing.T) {
	src := &fakeSource{fileID: 1, length: 5}

	_, ok := JumpFromCursor(nil, src, 2)
	require.False(t, ok)
}

func TestByteOffsetToPosition_RoundTripsWithPositionToByteOffset(t *testing.T) {
	text := "line zero\nline one\nline two"

	for _, offset := range []int{0, 5, 10, 15, 20, len(text)} {
		pos := byteOffsetToPosition(text, offset)
		require.NotNil(t, pos)

		back, ok := positionToByteOffset(text, *pos)
		require.True(t, ok)
		require.Equal(t, offset, back, "position<->byte-offset must round-trip for offset %d", offset)
	}
}

func TestByteOffsetToPosition_CountsUTF16CodeUnits(t *testing.T) {
	// "é" is 2 bytes / 1 UTF-16 unit; "𝄞" is 4 bytes / 2 UTF-16 units.
	text := "é𝄞x"

	pos := byteOffsetToPosition(text, 6)
	require.Equal(t, &Position{Line: 0, Col: 3}, pos, "the byte offset of 'x' is 1+2=3 UTF-16 code units into the line")

	back, ok := positionToByteOffset(text, Position{Line: 0, Col: 3})
	require.True(t, ok)
	require.Equal(t, 6, back)

	_, ok = positionToByteOffset(text, Position{Line: 0, Col: 2})
	require.False(t, ok, "col 2 lands inside the surrogate pair of '𝄞'")
}

func TestByteOffsetToPosition_OutOfRangeReturnsNil(t *testing.T) {
	text := "abc"
	require.Nil(t, byteOffsetToPosition(text, -1))
	require.Nil(t, byteOffsetToPosition(text, len(text)+1))
}

func TestResolveSrcToDocJump_ConvertsPositionThenJumps(t *testing.T) {
	text := "ab\ncd"
	world := fakeWorld{sources: map[compiler.SpanFileID]string{1: text}, paths: map[compiler.SpanFileID]string{1: "a.typ"}}
	src := &fakeSource{fileID: 1, length: len(text)}
	pages := []compiler.Page{onePageOneRun(1, 0, 1, 2, 3, 4)}

	jp, ok := ResolveSrcToDocJump(world, src, 1, pages, 1, 1)
	require.True(t, ok)
	require.Equal(t, 4.0, jp.Point.X, "line 1 col 1 is byte offset 4 ('d') in \"ab\\ncd\"")
}

func TestResolveDocToSrcJump_UnpacksSpanAndResolvesRange(t *testing.T) {
	text := "ab\ncd"
	world := fakeWorld{sources: map[compiler.SpanFileID]string{1: text}, paths: map[compiler.SpanFileID]string{1: "a.typ"}}
	src := &fakeSource{fileID: 1, length: len(text)}

	packed := compiler.Span{FileID: 1, Number: 4}.Pack()
	info, ok := ResolveDocToSrcJump(world, src, packed)
	require.True(t, ok)
	require.Equal(t, "a.typ", info.Filepath)
	require.Equal(t, &Position{Line: 1, Col: 1}, info.Start)
}

func TestDocToSrcJumpInfo_SerialisesPositionsAsPairs(t *testing.T) {
	info := DocToSrcJumpInfo{
		Filepath: "a.typ",
		Start:    &Position{Line: 1, Col: 2},
	}

	data, err := json.Marshal(info)
	require.NoError(t, err)
	require.JSONEq(t, `{"filepath":"a.typ","start":[1,2],"end":null}`, string(data))

	var back DocToSrcJumpInfo
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, info, back)
}

type fakeWorld struct {
	sources map[compiler.SpanFileID]string
	paths   map[compiler.SpanFileID]string
}

func (w fakeWorld) Source(id compiler.SpanFileID) (string, bool) {
	s, ok := w.sources[id]
	return s, ok
}

func (w fakeWorld) PathForID(id compiler.SpanFileID) (string, bool) {
	p, ok := w.paths[id]
	return p, ok
}

func (w fakeWorld) WorkspaceRoot() string { return "/workspace" }
