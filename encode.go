// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
)

// Encode re-serializes a document as a single-revision PDF using an
// xref-stream, per spec 4.H. This is a round-trip contract, not a producer
// of optimized/compact output (spec 1's Non-goals): no compression filter
// is applied to the xref stream or to any re-emitted object payload.
//
// Grounded on the teacher's lack of an encoder at all — the teacher is a
// read-only extraction library — so this component follows the teacher's
// object-model vocabulary (the same Dictionary/Array/Name/Stream types
// parsing produced) and benoitkugler-pdf's model.Write-style per-variant
// dispatch for the low-level byte emission shape.
func Encode(doc RawPdf) ([]byte, error) {
	if len(doc.Revisions) == 0 {
		return nil, newErr(KindGeneric, -1, "cannot encode a document with no revisions")
	}

	merged := map[int]ObjectEntry{}
	for _, rev := range doc.Revisions { // newest-first: first occurrence wins
		for num, e := range rev.Objects {
			if _, exists := merged[num]; !exists {
				merged[num] = e
			}
		}
	}

	trailer := doc.Revisions[0].Trailer // spec 3: the first (newest) revision's trailer is authoritative

	numbers := make([]int, 0, len(merged))
	for n := range merged {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%%PDF-%d.%d\n", doc.VersionMajor, doc.VersionMinor)
	buf.WriteString("%\xe2\xe3\xcf\xd3\n")

	offsets := make(map[int]int64, len(numbers))
	for _, n := range numbers {
		offsets[n] = int64(buf.Len())
		e := merged[n]
		fmt.Fprintf(&buf, "%d %d obj\n", n, e.Generation)
		encoded, err := encodeObject(e.Object)
		if err != nil {
			return nil, err
		}
		buf.Write(encoded)
		buf.WriteString("\nendobj\n")
	}

	xrefNumber := 1
	if len(numbers) > 0 {
		xrefNumber = numbers[len(numbers)-1] + 1
	}

	type xentry struct {
		number           int
		typeCode, f2, f3 int64
	}
	entries := make([]xentry, 0, len(numbers)+2)
	if _, ok := merged[0]; !ok {
		entries = append(entries, xentry{number: 0, typeCode: 0, f2: 0, f3: 65535})
	}
	for _, n := range numbers {
		e := merged[n]
		entries = append(entries, xentry{number: n, typeCode: 1, f2: offsets[n], f3: int64(e.Generation)})
	}

	xrefOffset := int64(buf.Len())
	entries = append(entries, xentry{number: xrefNumber, typeCode: 1, f2: xrefOffset, f3: 0})
	sort.Slice(entries, func(i, j int) bool { return entries[i].number < entries[j].number })

	var maxF2, maxF3 int64
	for _, e := range entries {
		if e.f2 > maxF2 {
			maxF2 = e.f2
		}
		if e.f3 > maxF3 {
			maxF3 = e.f3
		}
	}
	w1, w2, w3 := 1, widthFor(maxF2), widthFor(maxF3)

	var payload bytes.Buffer
	for _, e := range entries {
		writeBigEndian(&payload, e.typeCode, w1)
		writeBigEndian(&payload, e.f2, w2)
		writeBigEndian(&payload, e.f3, w3)
	}

	xrefDict := Dictionary{
		"Type": Name("XRef"),
		"Size": Integer(int32(xrefNumber + 1)),
		"W":    Array{Integer(int32(w1)), Integer(int32(w2)), Integer(int32(w3))},
		"Root": trailer.Root,
	}
	if trailer.Info != nil {
		xrefDict["Info"] = *trailer.Info
	}
	if trailer.ID != nil {
		xrefDict["ID"] = Array{trailer.ID[0], trailer.ID[1]}
	}

	fmt.Fprintf(&buf, "%d %d obj\n", xrefNumber, 0)
	xrefObjBytes, err := encodeObject(Stream{Dict: xrefDict, Bytes: payload.Bytes()})
	if err != nil {
		return nil, err
	}
	buf.Write(xrefObjBytes)
	buf.WriteString("\nendobj\n")

	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)

	return buf.Bytes(), nil
}

func encodeObject(o Object) ([]byte, error) {
	switch v := o.(type) {
	case Null:
		return []byte("null"), nil
	case Bool:
		if v {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case Integer:
		return []byte(strconv.Itoa(int(v))), nil
	case Float:
		return []byte(strconv.FormatFloat(float64(v), 'f', -1, 32)), nil
	case String:
		out := append([]byte{'('}, escapeLiteralString(v)...)
		return append(out, ')'), nil
	case HexString:
		return []byte("<" + hex.EncodeToString(v) + ">"), nil
	case Name:
		return encodeName(v), nil
	case Array:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			eb, err := encodeObject(elem)
			if err != nil {
				return nil, err
			}
			buf.Write(eb)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case Dictionary:
		return encodeDictionary(v)
	case Stream:
		return encodeStream(v)
	case Reference:
		return []byte(v.String()), nil
	case Indirect:
		return nil, newErr(KindGeneric, -1, "nested Indirect objects cannot be encoded inline")
	default:
		return nil, newErr(KindGeneric, -1, "unrecognized object type")
	}
}

func encodeDictionary(d Dictionary) ([]byte, error) {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Dictionary is logically unordered; sort for deterministic output

	var buf bytes.Buffer
	buf.WriteString("<<")
	for _, k := range keys {
		buf.WriteByte(' ')
		buf.Write(encodeName(Name(k)))
		buf.WriteByte(' ')
		vb, err := encodeObject(d[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteString(" >>")
	return buf.Bytes(), nil
}

// encodeStream updates /Length to the payload's actual length before
// writing, per spec 4.H.
func encodeStream(s Stream) ([]byte, error) {
	s.Dict["Length"] = Integer(int32(len(s.Bytes)))
	dictBytes, err := encodeDictionary(s.Dict)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(dictBytes)
	buf.WriteString("\nstream\n")
	buf.Write(s.Bytes)
	buf.WriteString("\nendstream")
	return buf.Bytes(), nil
}

// encodeName hex-escapes any byte that isn't a printable, non-delimiter
// ASCII byte, per spec 4.H.
func encodeName(n Name) []byte {
	var buf bytes.Buffer
	buf.WriteByte('/')
	for _, b := range []byte(n) {
		if b > 32 && b < 127 && isRegular(b) {
			buf.WriteByte(b)
		} else {
			fmt.Fprintf(&buf, "#%02X", b)
		}
	}
	return buf.Bytes()
}

// escapeLiteralString escapes exactly the parentheses that would otherwise
// unbalance the literal — both unmatched '(' and unmatched ')' — leaving
// matched pairs unescaped, per spec 4.H and the boundary property in spec 8.
//
// Grounded on the original_source ground truth at
// claybrick/src/simple_encode/object/string.rs (SimpleEncoder::write_to):
// count every structural ')' up front, then walk forward tracking how many
// opens are still unmatched (open) and how many closes remain ahead
// (remainingClose). A '(' is only safe to leave bare if a future ')' can
// still close it once every already-open '(' has taken one (remainingClose >
// open); a ')' is only safe to leave bare if some earlier '('
// is still open waiting for it. Bytes already backslash-escaped in the raw
// literal are copied verbatim and never enter either count.
func escapeLiteralString(raw []byte) []byte {
	remainingClose := 0
	for i := 0; i < len(raw); {
		if raw[i] == '\\' && i+1 < len(raw) {
			i += 2
			continue
		}
		if raw[i] == ')' {
			remainingClose++
		}
		i++
	}

	var out []byte
	open := 0
	i := 0
	for i < len(raw) {
		b := raw[i]
		if b == '\\' && i+1 < len(raw) {
			out = append(out, b, raw[i+1])
			i += 2
			continue
		}
		switch b {
		case '(':
			if remainingClose <= open {
				out = append(out, '\\', b)
			} else {
				out = append(out, b)
				open++
			}
		case ')':
			if open == 0 {
				out = append(out, '\\', b)
				remainingClose--
			} else {
				out = append(out, b)
				open--
				remainingClose--
			}
		default:
			out = append(out, b)
		}
		i++
	}
	return out
}

func widthFor(n int64) int {
	if n <= 0 {
		return 1
	}
	w := 0
	for n > 0 {
		n >>= 8
		w++
	}
	return w
}

func writeBigEndian(buf *bytes.Buffer, v int64, width int) {
	b := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		b[i] = byte(v & 0xFF)
		v >>= 8
	}
	buf.Write(b)
}
