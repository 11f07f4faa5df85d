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
package compiler

// SpanFileID identifies a source file within a compilation.
type SpanFileID uint32

// Span locates a syntactic node: file id + number. Packed to a uint64 for
// the client-facing API.
type Span struct {
	FileID SpanFileID
	Number uint64
}

func (s Span) Pack() uint64 {
	return uint64(s.FileID)<<48 | (s.Number & 0x0000FFFFFFFFFFFF)
}

func UnpackSpan(v uint64) Span {
	return Span{
		FileID: SpanFileID(v >> 48),
		Number: v & 0x0000FFFFFFFFFFFF,
	}
}

// Point is a laid-out (x, y) position within a page.
type Point struct {
	X, Y float64
}

// Glyph carries the source span it was produced from and the metrics
// needed to advance a text run's running x position.
type Glyph struct {
	Span     Span
	Advance  float64
	TextSize float64
}

// Item is a frame item: either a nested group or a text run.
type Item interface {
	isItem()
}

// GroupItem recurses with its offset added to the running origin.
type GroupItem struct {
	Offset Point
	Items  []Item
}

// TextItem is a left-to-right run of glyphs.
type TextItem struct {
	Origin Point
	Glyphs []Glyph
}

func (GroupItem) isItem() {}
func (TextItem) isItem()  {}

// Frame is a laid-out page or sub-container.
type Frame struct {
	Items []Item
}

type Page struct {
	Frame Frame
}

// Document is the compiled artifact.
type Document struct {
	Pages []Page
}
