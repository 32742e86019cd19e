// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"

	"github.com/sassoftware/pdf-ingest/logger"
)

// Parser recognizes PDF objects from a byte cursor: component 4.B of the
// ingestion pipeline. It operates on any slice — the file itself, or a
// decoded object-stream payload — since both are plain byte buffers to the
// grammar.
//
// Grounded on mikeschinkel-gxpdf's internal/parser.Parser (current/peek
// token fields, ParseObject's switch-on-current-token-type dispatch) and
// benoitkugler-pdf's reader/parser.Parser (parseNumericOrIndRef's two-token
// lookahead for N G R vs. N G obj); the lexer underneath is this module's
// own (see token.go), since neither teacher's tokenizer source file was
// present in the retrieved pack for this exact lookahead shape.
type Parser struct {
	lex *lexer
}

// NewParser builds a parser over data, whose first byte sits at absolute
// offset base within the original file.
func NewParser(data []byte, base int64) *Parser {
	return &Parser{lex: newLexer(newCursor(data, base))}
}

// Position reports the absolute offset the parser will resume from.
func (p *Parser) Position() int64 { return p.lex.position() }

// ParseObject recognizes exactly one Object starting at the parser's
// current position. Dispatch order follows spec 4.B precisely: dictionary,
// array, literal string, indirect/reference (which must precede integer
// parsing because both `0 0 R` and `0 0 obj` begin with two integers),
// number, boolean, null, hex string, name.
func (p *Parser) ParseObject() (Object, error) {
	tk, err := p.lex.peek()
	if err != nil {
		return nil, err
	}

	switch tk.kind {
	case tokDictStart:
		return p.parseDictionaryOrStream()
	case tokArrayStart:
		return p.parseArray()
	case tokString:
		_, _ = p.lex.next()
		return String(tk.bytes), nil
	case tokInteger:
		return p.parseNumberOrReference()
	case tokFloat:
		_, _ = p.lex.next()
		return Float(tk.float), nil
	case tokHexString:
		_, _ = p.lex.next()
		return HexString(tk.bytes), nil
	case tokName:
		_, _ = p.lex.next()
		return Name(tk.bytes), nil
	case tokKeyword:
		return p.parseKeyword(tk)
	case tokEOF:
		return nil, newErr(KindGeneric, p.lex.position(), "unexpected end of input while parsing object")
	default:
		return nil, newErr(KindGeneric, p.lex.position(), "unrecognized token while parsing object")
	}
}

func (p *Parser) parseKeyword(tk token) (Object, error) {
	_, _ = p.lex.next()
	switch string(tk.bytes) {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	case "null":
		return Null{}, nil
	default:
		return nil, newErr(KindGeneric, p.lex.position(), "unexpected keyword \""+string(tk.bytes)+"\"")
	}
}

// parseNumberOrReference resolves the `N G R` / plain-integer ambiguity
// with a two-token lookahead: the current token is an integer; if the next
// token is also an integer and the one after that is the bare keyword "R",
// this is a Reference, otherwise it is a plain Integer.
func (p *Parser) parseNumberOrReference() (Object, error) {
	first, _ := p.lex.next() // the integer already peeked by the caller

	second, err := p.lex.peek()
	if err != nil || second.kind != tokInteger {
		return Integer(int32(first.int)), nil
	}

	third, err := p.lex.peekPeek()
	if err != nil || !third.isKeyword("R") {
		return Integer(int32(first.int)), nil
	}

	_, _ = p.lex.next() // consume the generation integer
	_, _ = p.lex.next() // consume "R"
	return Reference{Number: int(first.int), Generation: int(second.int)}, nil
}

func (p *Parser) parseArray() (Array, error) {
	_, _ = p.lex.next() // consume '['
	arr := Array{}
	for {
		tk, err := p.lex.peek()
		if err != nil {
			return nil, err
		}
		if tk.kind == tokArrayEnd {
			_, _ = p.lex.next()
			return arr, nil
		}
		if tk.kind == tokEOF {
			return nil, newErr(KindGeneric, p.lex.position(), "unterminated array")
		}
		obj, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

// parseDictionaryOrStream parses `<< ... >>` and, if the dictionary is
// immediately followed by the `stream` keyword, continues on to read the
// stream payload per spec 4.B's Stream contract.
func (p *Parser) parseDictionaryOrStream() (Object, error) {
	dict, err := p.parseDictionary()
	if err != nil {
		return nil, err
	}

	tk, err := p.lex.peek()
	if err == nil && tk.isKeyword("stream") {
		_, _ = p.lex.next()
		return p.parseStreamBody(dict)
	}
	return dict, nil
}

func (p *Parser) parseDictionary() (Dictionary, error) {
	_, _ = p.lex.next() // consume '<<'
	dict := Dictionary{}
	for {
		tk, err := p.lex.peek()
		if err != nil {
			return nil, err
		}
		if tk.kind == tokDictEnd {
			_, _ = p.lex.next()
			return dict, nil
		}
		if tk.kind == tokEOF {
			return nil, newErr(KindGeneric, p.lex.position(), "unterminated dictionary")
		}
		if tk.kind != tokName {
			return nil, newErr(KindGeneric, p.lex.position(), "expected name as dictionary key")
		}
		key := string(tk.bytes)
		_, _ = p.lex.next()

		val, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		// "Specifying the null object as the value of a dictionary entry
		// shall be equivalent to omitting the entry entirely" (PDF 7.3.7).
		if _, isNull := val.(Null); isNull {
			continue
		}
		dict[key] = val // duplicate keys: last-wins
	}
}

// parseStreamBody reads the stream payload per spec 4.B: exactly one of
// \r\n or \n after the `stream` keyword (a lone \r is not accepted), then
// /Length bytes if /Length is present and integral, else a keyword-fallback
// scan for `endstream`.
func (p *Parser) parseStreamBody(dict Dictionary) (Object, error) {
	rest := p.lex.cur.Remaining()
	startPos := p.lex.cur.pos

	var eolLen int
	switch {
	case len(rest) >= 2 && rest[0] == '\r' && rest[1] == '\n':
		eolLen = 2
	case len(rest) >= 1 && rest[0] == '\n':
		eolLen = 1
	default:
		return nil, newErr(KindGeneric, startPos, "stream keyword not followed by CRLF or LF")
	}
	p.lex.cur.Advance(eolLen)

	var payload []byte
	if length, ok := integralLength(dict); ok {
		data := p.lex.cur.Remaining()
		if length < 0 || length > len(data) {
			logger.Debug("stream /Length exceeds available bytes, falling back to endstream scan", true)
			payload = p.scanUntilEndstream()
		} else {
			payload = append([]byte(nil), data[:length]...)
			p.lex.cur.Advance(length)
		}
	} else {
		logger.Debug("stream /Length missing or non-integer, falling back to endstream scan", true)
		payload = p.scanUntilEndstream()
	}

	// reset lookahead: the raw Advance calls above bypassed the lexer's
	// token buffer, so any previously buffered tokens are now stale.
	p.lex.have0, p.lex.have1 = false, false

	// optional EOL before endstream
	rest = p.lex.cur.Remaining()
	switch {
	case len(rest) >= 2 && rest[0] == '\r' && rest[1] == '\n':
		p.lex.cur.Advance(2)
	case len(rest) >= 1 && rest[0] == '\n':
		p.lex.cur.Advance(1)
	}

	tk, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	if !tk.isKeyword("endstream") {
		return nil, newErr(KindGeneric, p.lex.position(), "expected endstream keyword")
	}
	return Stream{Dict: dict, Bytes: payload}, nil
}

func integralLength(dict Dictionary) (int, bool) {
	v, ok := dict.Get("Length")
	if !ok {
		return 0, false
	}
	n, ok := v.(Integer)
	if !ok {
		return 0, false
	}
	return int(n), true
}

// scanUntilEndstream is the keyword-fallback path: scan forward for the
// literal "endstream" and treat everything before it as the payload, except
// a single CRLF or LF directly before the keyword, which is left for the
// caller to consume as the EOL preceding endstream.
func (p *Parser) scanUntilEndstream() []byte {
	data := p.lex.cur.Remaining()
	idx := bytes.Index(data, []byte("endstream"))
	if idx < 0 {
		p.lex.cur.Advance(len(data))
		return data
	}
	end := idx
	if end >= 2 && data[end-2] == '\r' && data[end-1] == '\n' {
		end -= 2
	} else if end >= 1 && data[end-1] == '\n' {
		end--
	}
	payload := append([]byte(nil), data[:end]...)
	p.lex.cur.Advance(end)
	return payload
}

// ParseIndirectObject parses `N G obj ... endobj`, where the body is
// either a stream object (a dictionary immediately followed by `stream`)
// or any other Object.
func (p *Parser) ParseIndirectObject() (Indirect, error) {
	numTok, err := p.lex.next()
	if err != nil {
		return Indirect{}, err
	}
	if numTok.kind != tokInteger {
		return Indirect{}, newErr(KindGeneric, p.lex.position(), "expected object number")
	}
	genTok, err := p.lex.next()
	if err != nil {
		return Indirect{}, err
	}
	if genTok.kind != tokInteger {
		return Indirect{}, newErr(KindGeneric, p.lex.position(), "expected generation number")
	}
	objTok, err := p.lex.next()
	if err != nil {
		return Indirect{}, err
	}
	if !objTok.isKeyword("obj") {
		return Indirect{}, newErr(KindGeneric, p.lex.position(), "expected \"obj\" keyword")
	}

	inner, err := p.ParseObject()
	if err != nil {
		return Indirect{}, err
	}

	endTok, err := p.lex.next()
	if err != nil {
		return Indirect{}, err
	}
	if !endTok.isKeyword("endobj") {
		return Indirect{}, newErr(KindGeneric, p.lex.position(), "expected \"endobj\" keyword")
	}

	return Indirect{Number: int(numTok.int), Generation: int(genTok.int), Inner: inner}, nil
}
