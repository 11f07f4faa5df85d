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
	"unicode/utf16"
	"unicode/utf8"

	"inkwell.dev/typeset/compiler"
)

// Position is 0-based (line, column). Columns count UTF-16 code units, the
// LSP wire convention editors speak. It serialises as a [row, col] pair.
type Position struct {
	Line int
	Col  int
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.Line, p.Col})
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var v [2]int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	p.Line, p.Col = v[0], v[1]
	return nil
}

// DocToSrcJumpInfo is the client-facing, serialisable result of a
// document-to-source jump. A missing endpoint serialises as null.
type DocToSrcJumpInfo struct {
	Filepath string    `json:"filepath"`
	Start    *Position `json:"start"`
	End      *Position `json:"end"`
}

// ResolveDocToSrcJump unpacks a packed span id, resolves its source file
// via the world, finds the span's byte range, and converts both endpoints
// to (line, column). Each conversion is optional; any failure yields none.
func ResolveDocToSrcJump(world compiler.World, src compiler.Source, packedSpan uint64) (*DocToSrcJumpInfo, bool) {
	span := compiler.UnpackSpan(packedSpan)

	path, ok := world.PathForID(span.FileID)
	if !ok {
		return nil, false
	}
	text, ok := world.Source(span.FileID)
	if !ok {
		return nil, false
	}
	start, end, ok := src.Range(span)
	if !ok {
		return nil, false
	}

	return &DocToSrcJumpInfo{
		Filepath: path,
		Start:    byteOffsetToPosition(text, start),
		End:      byteOffsetToPosition(text, end),
	}, true
}

// byteOffsetToPosition counts lines by scanning for '\n' bytes and reports
// the column as the UTF-16 code-unit distance since the last newline.
func byteOffsetToPosition(text string, offset int) *Position {
	if offset < 0 || offset > len(text) {
		return nil
	}
	line := 0
	lineStart := 0
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	col := 0
	for _, r := range text[lineStart:offset] {
		col += utf16.RuneLen(r)
	}
	return &Position{Line: line, Col: col}
}

// positionToByteOffset is the inverse used by resolve_src_to_doc_jump to
// turn an editor (line, col) into a byte cursor: it walks the target line
// rune by rune, consuming col UTF-16 code units. A col landing inside a
// surrogate pair, past the end of the line, or on a missing line yields
// false.
func positionToByteOffset(text string, pos Position) (int, bool) {
	if pos.Line < 0 || pos.Col < 0 {
		return 0, false
	}
	line := 0
	i := 0
	for line < pos.Line {
		idx := indexByteFrom(text, i, '\n')
		if idx < 0 {
			return 0, false
		}
		i = idx + 1
		line++
	}
	units := 0
	for units < pos.Col {
		if i >= len(text) || text[i] == '\n' {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		units += utf16.RuneLen(r)
		i += size
	}
	if units != pos.Col {
		return 0, false
	}
	return i, true
}

func indexByteFrom(s string, from int, b byte) int {
	for i := from; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
