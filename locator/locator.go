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

// Package locator maps between source positions and laid-out document
// positions: given a source cursor, find the best-matching glyph in the
// compiled document, and inversely resolve a span id back to its source
// range.
package locator

import "inkwell.dev/typeset/compiler"

// JumpPoint is a source→document jump result: a 1-based page index and the
// laid-out point within it.
type JumpPoint struct {
	Page  int
	Point compiler.Point
}

// JumpFromCursor locates the syntax leaf covering cursor, requires it be
// textual, then scans pages in order for the best-matching glyph: exact
// span match wins outright; otherwise the glyph sharing the target's
// source file with the smallest |span.number - target.number|.
func JumpFromCursor(pages []compiler.Page, src compiler.Source, cursor int) (*JumpPoint, bool) {
	leaf, ok := src.LeafAt(cursor)
	if !ok || !leaf.IsText {
		return nil, false
	}
	target := leaf.Span

	var exact *JumpPoint
	var best *JumpPoint
	var bestDistance uint64

	for pageIdx := range pages {
		page := pages[pageIdx]
		walkItems(page.Frame.Items, compiler.Point{}, func(g compiler.Glyph, pt compiler.Point) {
			if exact != nil {
				return
			}
			if g.Span == target {
				jp := JumpPoint{Page: pageIdx + 1, Point: pt}
				exact = &jp
				return
			}
			if g.Span.FileID != target.FileID {
				return
			}
			d := absDiffU64(g.Span.Number, target.Number)
			if best == nil || d < bestDistance {
				jp := JumpPoint{Page: pageIdx + 1, Point: pt}
				best = &jp
				bestDistance = d
			}
		})
		if exact != nil {
			break
		}
	}

	if exact != nil {
		return exact, true
	}
	if best != nil {
		return best, true
	}
	return nil, false
}

// walkItems recurses into groups adding their offset, and for text runs
// walks glyphs left-to-right advancing a running x position by each
// glyph's advance scaled by text size.
func walkItems(items []compiler.Item, offset compiler.Point, visit func(compiler.Glyph, compiler.Point)) {
	for _, it := range items {
		switch v := it.(type) {
		case compiler.GroupItem:
			walkItems(v.Items, addPointExported(offset, v.Offset), visit)
		case compiler.TextItem:
			x := 0.0
			for _, g := range v.Glyphs {
				pt := compiler.Point{X: offset.X + v.Origin.X + x, Y: offset.Y + v.Origin.Y}
				visit(g, pt)
				x += g.Advance * g.TextSize
			}
		}
	}
}

func addPointExported(a, b compiler.Point) compiler.Point {
	return compiler.Point{X: a.X + b.X, Y: a.Y + b.Y}
}

func absDiffU64(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
