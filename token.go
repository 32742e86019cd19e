// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"strconv"
)

// tokenKind discriminates the lexical tokens the object grammar is built
// from. It sits one level below Object: a dictionary, for instance, is
// recognized from a tokDictStart/tokDictEnd pair plus whatever tokens fall
// between them.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokInteger
	tokFloat
	tokString    // literal string, raw content between ( and )
	tokHexString // hex string, bytes decoded from the digits between < and >
	tokName      // decoded name, leading / stripped
	tokArrayStart
	tokArrayEnd
	tokDictStart
	tokDictEnd
	tokKeyword // bare word: true, false, null, obj, endobj, stream, endstream, xref, trailer, startxref, R, n, f, and object-stream/content-stream operators
)

type token struct {
	kind  tokenKind
	int   int64
	float float64
	bytes []byte // tokString raw bytes, tokHexString/tokName decoded bytes, tokKeyword word bytes
}

func (t token) isKeyword(word string) bool {
	return t.kind == tokKeyword && string(t.bytes) == word
}

// lexer turns a byte cursor into a stream of tokens, with a two-token
// lookahead window: resolving `N G R` vs. `N G obj` (an indirect reference
// vs. the start of an indirect object) requires seeing two tokens past the
// first integer before committing.
//
// Grounded on benoitkugler-pdf's parser/tokenizer.Tokenizer (aToken/aaToken
// lookahead, "since indirect reference require to read two more tokens")
// and the teacher's buffer.readToken/unreadToken single-token pushback in
// read.go; this lexer generalizes the teacher's one-token pushback into a
// full two-token peek so the parser never needs an explicit unread call.
type lexer struct {
	cur *cursor

	have0, have1 bool
	tok0, tok1   token
	err0, err1   error
}

func newLexer(c *cursor) *lexer {
	return &lexer{cur: c}
}

// position reports the absolute offset the lexer will resume scanning
// from, i.e. the position right after the last token handed to the caller.
func (l *lexer) position() int64 { return l.cur.pos }

func (l *lexer) next() (token, error) {
	if l.have0 {
		t, err := l.tok0, l.err0
		l.tok0, l.err0 = l.tok1, l.err1
		l.have0, l.have1 = l.have1, false
		return t, err
	}
	return l.scan()
}

func (l *lexer) peek() (token, error) {
	if !l.have0 {
		l.tok0, l.err0 = l.scan()
		l.have0 = true
	}
	return l.tok0, l.err0
}

func (l *lexer) peekPeek() (token, error) {
	l.peek()
	if !l.have1 {
		l.tok1, l.err1 = l.scan()
		l.have1 = true
	}
	return l.tok1, l.err1
}

// scan reads exactly one token from the underlying cursor, ignoring any
// lookahead buffering; callers go through next/peek/peekPeek instead.
func (l *lexer) scan() (token, error) {
	data := skipWhitespaceAndComments(l.cur.Remaining())
	consumed := l.cur.Len() - len(data)
	if consumed > 0 {
		l.cur.Advance(consumed)
	}

	if l.cur.Len() == 0 {
		return token{kind: tokEOF}, nil
	}

	b, _ := l.cur.PeekByte()
	switch {
	case b == '[':
		l.cur.Advance(1)
		return token{kind: tokArrayStart}, nil
	case b == ']':
		l.cur.Advance(1)
		return token{kind: tokArrayEnd}, nil
	case b == '(':
		return l.scanLiteralString()
	case b == '/':
		return l.scanName()
	case b == '<':
		return l.scanAngle()
	case b == '>':
		return l.scanEndAngle()
	case b == '+' || b == '-' || b == '.' || (b >= '0' && b <= '9'):
		return l.scanNumber()
	default:
		return l.scanKeyword()
	}
}

func requireTermination(rest []byte, pos int64, what string) error {
	if len(rest) == 0 {
		return nil
	}
	b := rest[0]
	if isPDFWhitespace(b) || isPDFDelimiter(b) {
		return nil
	}
	return newErr(KindGeneric, pos, "unterminated "+what)
}

func (l *lexer) scanNumber() (token, error) {
	start := l.cur.pos
	data := l.cur.Remaining()
	i := 0
	if i < len(data) && (data[i] == '+' || data[i] == '-') {
		i++
	}
	isFloat := false
	for i < len(data) && data[i] >= '0' && data[i] <= '9' {
		i++
	}
	if i < len(data) && data[i] == '.' {
		isFloat = true
		i++
		for i < len(data) && data[i] >= '0' && data[i] <= '9' {
			i++
		}
	}
	raw := data[:i]
	if len(raw) == 0 || (len(raw) == 1 && (raw[0] == '+' || raw[0] == '-' || raw[0] == '.')) {
		return l.scanKeyword()
	}
	l.cur.Advance(i)
	if err := requireTermination(l.cur.Remaining(), l.cur.pos, "number"); err != nil {
		return token{}, err
	}
	if isFloat {
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return token{}, wrapErr(KindGeneric, start, "malformed float literal", err)
		}
		return token{kind: tokFloat, float: f}, nil
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return token{}, wrapErr(KindGeneric, start, "malformed integer literal", err)
	}
	return token{kind: tokInteger, int: n}, nil
}

func (l *lexer) scanKeyword() (token, error) {
	start := l.cur.pos
	data := l.cur.Remaining()
	i := 0
	for i < len(data) && isRegular(data[i]) {
		i++
	}
	if i == 0 {
		return token{}, newErr(KindGeneric, start, "unexpected byte in input")
	}
	raw := data[:i]
	l.cur.Advance(i)
	return token{kind: tokKeyword, bytes: append([]byte(nil), raw...)}, nil
}

func (l *lexer) scanName() (token, error) {
	start := l.cur.pos
	l.cur.Advance(1) // consume '/'
	data := l.cur.Remaining()
	i := 0
	for i < len(data) && isRegular(data[i]) {
		i++
	}
	raw := data[:i]
	l.cur.Advance(i)

	decoded := make([]byte, 0, len(raw))
	for j := 0; j < len(raw); j++ {
		if raw[j] == '#' {
			if j+2 >= len(raw) {
				return token{}, newErr(KindInvalidName, start, "truncated #HH escape in name")
			}
			hi, okHi := hexDigit(raw[j+1])
			lo, okLo := hexDigit(raw[j+2])
			if !okHi || !okLo {
				return token{}, newErr(KindInvalidName, start, "malformed #HH escape in name")
			}
			decoded = append(decoded, hi<<4|lo)
			j += 2
			continue
		}
		decoded = append(decoded, raw[j])
	}
	return token{kind: tokName, bytes: decoded}, nil
}

func hexDigit(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}

func (l *lexer) scanAngle() (token, error) {
	data := l.cur.Remaining()
	if len(data) >= 2 && data[1] == '<' {
		l.cur.Advance(2)
		return token{kind: tokDictStart}, nil
	}
	return l.scanHexString()
}

func (l *lexer) scanEndAngle() (token, error) {
	data := l.cur.Remaining()
	if len(data) >= 2 && data[1] == '>' {
		l.cur.Advance(2)
		return token{kind: tokDictEnd}, nil
	}
	return token{}, newErr(KindGeneric, l.cur.pos, "unexpected lone '>'")
}

func (l *lexer) scanHexString() (token, error) {
	start := l.cur.pos
	l.cur.Advance(1) // consume '<'
	data := l.cur.Remaining()

	var nibbles []byte
	i := 0
	for {
		if i >= len(data) {
			return token{}, newErr(KindGeneric, start, "unterminated hex string")
		}
		b := data[i]
		if b == '>' {
			i++
			break
		}
		if isPDFWhitespace(b) {
			i++
			continue
		}
		v, ok := hexDigit(b)
		if !ok {
			return token{}, newErr(KindGeneric, start, "invalid hex digit in hex string")
		}
		nibbles = append(nibbles, v)
		i++
	}
	l.cur.Advance(i) // advance past the hex digits and the terminating '>'

	if len(nibbles)%2 == 1 {
		nibbles = append(nibbles, 0)
	}
	decoded := make([]byte, len(nibbles)/2)
	for j := range decoded {
		decoded[j] = nibbles[2*j]<<4 | nibbles[2*j+1]
	}
	return token{kind: tokHexString, bytes: decoded}, nil
}

func (l *lexer) scanLiteralString() (token, error) {
	start := l.cur.pos
	l.cur.Advance(1) // consume '('
	data := l.cur.Remaining()

	var raw []byte
	depth := 1
	i := 0
	for {
		if i >= len(data) {
			return token{}, newErr(KindGeneric, start, "unterminated literal string")
		}
		b := data[i]
		if b == '\\' {
			if i+1 >= len(data) {
				return token{}, newErr(KindGeneric, start, "unterminated escape in literal string")
			}
			raw = append(raw, b, data[i+1])
			i += 2
			continue
		}
		if b == '(' {
			depth++
			raw = append(raw, b)
			i++
			continue
		}
		if b == ')' {
			depth--
			if depth == 0 {
				i++
				break
			}
			raw = append(raw, b)
			i++
			continue
		}
		raw = append(raw, b)
		i++
	}
	l.cur.Advance(i)
	if err := requireTermination(l.cur.Remaining(), l.cur.pos, "literal string"); err != nil {
		return token{}, err
	}
	return token{kind: tokString, bytes: raw}, nil
}
