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

import "inkwell.dev/typeset/compiler"

// ResolveSrcToDocJump converts an editor (line, col) position to a byte
// cursor against the file's current source text, then finds the
// best-matching document position via JumpFromCursor.
func ResolveSrcToDocJump(world compiler.World, src compiler.Source, fileID compiler.SpanFileID, pages []compiler.Page, line, col int) (*JumpPoint, bool) {
	text, ok := world.Source(fileID)
	if !ok {
		return nil, false
	}
	offset, ok := positionToByteOffset(text, Position{Line: line, Col: col})
	if !ok {
		return nil, false
	}
	return JumpFromCursor(pages, src, offset)
}
