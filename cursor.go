// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"

	"github.com/sassoftware/pdf-ingest/logger"
)

// cursor wraps a byte buffer with an absolute position from the start of
// the file. xref byte offsets are file-absolute, so every sub-parser that
// might be invoked mid-file (object bodies, xref tables, object streams)
// carries one of these instead of a bare []byte.
//
// Grounded on the teacher's buffer/pos bookkeeping in read.go (newBuffer,
// b.pos) and its findLastLine/FindStartXref tail-scan pair.
type cursor struct {
	data []byte
	pos  int64 // absolute offset of data[0] in the original file
}

// newCursor wraps data, whose first byte sits at absolute offset base.
func newCursor(data []byte, base int64) *cursor {
	return &cursor{data: data, pos: base}
}

// Position returns the absolute byte offset of the next unread byte.
func (c *cursor) Position() int64 { return c.pos }

// Remaining returns the unread suffix of the buffer.
func (c *cursor) Remaining() []byte { return c.data }

// Len reports how many unread bytes remain.
func (c *cursor) Len() int { return len(c.data) }

// Advance moves the cursor forward by n bytes, returning the skipped slice.
// It does not backtrack: n must be <= c.Len().
func (c *cursor) Advance(n int) []byte {
	if n > len(c.data) {
		n = len(c.data)
	}
	skipped := c.data[:n]
	c.data = c.data[n:]
	c.pos += int64(n)
	return skipped
}

// PeekByte returns the next unread byte and whether one was available.
func (c *cursor) PeekByte() (byte, bool) {
	if len(c.data) == 0 {
		return 0, false
	}
	return c.data[0], true
}

// SeekTo repositions the cursor to an absolute offset within the original
// file, given the full file buffer it was sliced from.
func SeekTo(full []byte, offset int64) *cursor {
	if offset < 0 {
		offset = 0
	}
	if offset > int64(len(full)) {
		offset = int64(len(full))
	}
	return newCursor(full[offset:], offset)
}

// BackwardSearch scans backward from the tail of the cursor's remaining
// bytes for pattern, bounded by window bytes. On success it returns the
// bytes preceding the match and the bytes following it (the "remainder"),
// and repositions nothing — callers build a fresh cursor from either half
// when they need to keep scanning. On failure it returns
// KindBackwardSearchNotFound.
//
// Grounded on the teacher's findLastLine (read.go), generalized from a
// single hardcoded keyword search into the spec's named primitive.
func (c *cursor) BackwardSearch(pattern []byte, window int) (before, after []byte, err error) {
	data := c.data
	start := 0
	if window > 0 && len(data) > window {
		start = len(data) - window
	}
	scanned := data[start:]

	idx := bytes.LastIndex(scanned, pattern)
	if idx < 0 {
		return nil, nil, newErr(KindBackwardSearchNotFound, c.pos+int64(start),
			"pattern not found within backward search window")
	}

	matchAt := start + idx
	before = data[:matchAt]
	after = data[matchAt+len(pattern):]
	return before, after, nil
}

// isPDFWhitespace reports whether b is one of the six whitespace
// characters ISO 32000-1 §7.2.2 defines for PDF syntax (NUL, HT, LF, FF,
// CR, SP) — not Go's or Unicode's broader whitespace set.
//
// Grounded on the teacher's wsBits/isWhitespace bitset (read.go), which
// encodes exactly this same six-byte PDF-specific set.
func isPDFWhitespace(b byte) bool {
	switch b {
	case 0x00, 0x09, 0x0A, 0x0C, 0x0D, 0x20:
		return true
	default:
		return false
	}
}

// isPDFDelimiter reports whether b is one of the ten PDF structural
// delimiters. The object lexer's termination rule treats these, plus
// whitespace and end-of-input, as the only valid bytes following a token
// that does not itself end in a delimiter (bool, number, null, name).
func isPDFDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	default:
		return false
	}
}

// isRegular reports whether b may appear inside a bare name/keyword run:
// neither whitespace nor a structural delimiter.
func isRegular(b byte) bool {
	return !isPDFWhitespace(b) && !isPDFDelimiter(b)
}

// skipWhitespaceAndComments advances past PDF whitespace and %-to-EOL
// comments, which the lexer treats as inter-token noise everywhere.
func skipWhitespaceAndComments(data []byte) []byte {
	for len(data) > 0 {
		if isPDFWhitespace(data[0]) {
			data = data[1:]
			continue
		}
		if data[0] == '%' {
			i := bytes.IndexAny(data, "\r\n")
			if i < 0 {
				logger.Debug("comment runs to end of input with no terminating EOL", true)
				return nil
			}
			data = data[i:]
			continue
		}
		break
	}
	return data
}
