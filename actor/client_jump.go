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
	"inkwell.dev/typeset/compiler"
	"inkwell.dev/typeset/locator"
)

type srcToDocResult struct {
	point *locator.JumpPoint
	ok    bool
}

type docToSrcResult struct {
	info *locator.DocToSrcJumpInfo
	ok   bool
}

// ResolveSrcToDocJump finds the document position best matching a source
// cursor. It runs inside the actor loop under exclusive borrow, against
// the latest compiled document.
func (c *Client) ResolveSrcToDocJump(fileID compiler.SpanFileID, line, col int) (*locator.JumpPoint, bool) {
	res := Steal(c, func(a *Actor) srcToDocResult {
		doc := a.LatestDocument()
		if doc == nil {
			return srcToDocResult{}
		}
		src, ok := a.compiler.ParsedSource(fileID)
		if !ok {
			return srcToDocResult{}
		}
		pt, ok := locator.ResolveSrcToDocJump(a.compiler.World(), src, fileID, doc.Pages, line, col)
		return srcToDocResult{point: pt, ok: ok}
	})
	return res.point, res.ok
}

// ResolveDocToSrcJump is the inverse: a packed span id back to its source
// file position.
func (c *Client) ResolveDocToSrcJump(fileID compiler.SpanFileID, packedSpan uint64) (*locator.DocToSrcJumpInfo, bool) {
	res := Steal(c, func(a *Actor) docToSrcResult {
		src, ok := a.compiler.ParsedSource(fileID)
		if !ok {
			return docToSrcResult{}
		}
		info, ok := locator.ResolveDocToSrcJump(a.compiler.World(), src, packedSpan)
		return docToSrcResult{info: info, ok: ok}
	})
	return res.info, res.ok
}
