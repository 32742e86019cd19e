// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_NoRevisionsFails(t *testing.T) {
	_, err := Encode(RawPdf{})
	require.Error(t, err)
}

func TestEncode_RoundTrip(t *testing.T) {
	doc := RawPdf{
		VersionMajor:    1,
		VersionMinor:    7,
		AnnouncedBinary: true,
		Revisions: []PdfRevision{
			{
				Objects: map[int]ObjectEntry{
					1: {Generation: 0, Object: Dictionary{"Type": Name("Catalog"), "Pages": Reference{Number: 2, Generation: 0}}},
					2: {Generation: 0, Object: Dictionary{"Type": Name("Pages"), "Kids": Array{Reference{Number: 3, Generation: 0}}, "Count": Integer(1)}},
					3: {Generation: 0, Object: Stream{Dict: Dictionary{"Length": Integer(0)}, Bytes: []byte("stream body")}},
				},
				Trailer: Trailer{Size: 4, Root: Reference{Number: 1, Generation: 0}},
			},
		},
	}

	out, err := Encode(doc)
	require.NoError(t, err)

	reparsed, err := Parse(out)
	require.NoError(t, err)
	require.Len(t, reparsed.Revisions, 1)

	catalog, ok := reparsed.Resolve(Reference{Number: 1, Generation: 0})
	require.True(t, ok)
	cdict, ok := catalog.(Dictionary)
	require.True(t, ok)
	assert.Equal(t, Name("Catalog"), cdict["Type"])

	strmObj, ok := reparsed.Resolve(Reference{Number: 3, Generation: 0})
	require.True(t, ok)
	strm, ok := strmObj.(Stream)
	require.True(t, ok)
	assert.Equal(t, []byte("stream body"), strm.Bytes)
}

func TestEscapeLiteralString_BalancedPairsUnescaped(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"balanced nested", "balanced (nested) parens", "balanced (nested) parens"},
		{"unbalanced close", "oops)", `oops\)`},
		{"unbalanced open", "(oops", `\(oops`},
		{"escaped already", `a\(b\)c`, `a\(b\)c`},
		{"many unmatched opening", "(((((((((", `\(\(\(\(\(\(\(\(\(`},
		{"many unmatched closing", ")))))))))", `\)\)\)\)\)\)\)\)\)`},
		{"many matched", "((((((()))))))", "((((((()))))))"},
		{"many unmatched mixed", ")))))(((((", `\)\)\)\)\)\(\(\(\(\(`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := escapeLiteralString([]byte(tt.in))
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestEncodeName_HexEscapesIrregularBytes(t *testing.T) {
	// '#' itself is a regular byte per the lexical grammar (not whitespace
	// or a structural delimiter), so only the space is hex-escaped.
	got := encodeName(Name("A B#C"))
	assert.Equal(t, "/A#20B#C", string(got))
}

func TestWidthFor(t *testing.T) {
	assert.Equal(t, 1, widthFor(0))
	assert.Equal(t, 1, widthFor(255))
	assert.Equal(t, 2, widthFor(256))
	assert.Equal(t, 2, widthFor(65535))
	assert.Equal(t, 3, widthFor(65536))
}

func TestEncode_WSizedToLargestOffset(t *testing.T) {
	// force a large byte offset by padding stream content, so /W[1] must
	// grow past a single byte.
	big := make([]byte, 70000)
	for i := range big {
		big[i] = 'x'
	}
	doc := RawPdf{
		VersionMajor: 1,
		VersionMinor: 7,
		Revisions: []PdfRevision{
			{
				Objects: map[int]ObjectEntry{
					1: {Generation: 0, Object: Stream{Dict: Dictionary{}, Bytes: big}},
					2: {Generation: 0, Object: Null{}},
				},
				Trailer: Trailer{Size: 3, Root: Reference{Number: 2, Generation: 0}},
			},
		},
	}
	out, err := Encode(doc)
	require.NoError(t, err)

	reparsed, err := Parse(out)
	require.NoError(t, err)
	obj, ok := reparsed.Resolve(Reference{Number: 1, Generation: 0})
	require.True(t, ok)
	strm, ok := obj.(Stream)
	require.True(t, ok)
	assert.Len(t, strm.Bytes, 70000)
}
