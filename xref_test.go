// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMinimalFile constructs spec 8 scenario 1's literal bytes, with a
// synthetic trailer dictionary appended after the subsection entries (the
// scenario's own excerpt stops at the xref entries, but decodeXrefTable
// always requires a trailer to follow, matching the PDF grammar).
func buildMinimalFile() []byte {
	return []byte("%PDF-1.7\n" +
		"%\xbf\xbf\xbf\xbf\xbf\n" +
		"1 0 obj\n" +
		"<< /Type /Catalog /Pages 2 0 R >>\n" +
		"endobj\n" +
		"2 0 obj\n" +
		"<< /Kids [3 0 R] /Type /Pages /Count 1 >>\n" +
		"endobj\n" +
		"xref\n" +
		"0 6\n" +
		"0000000003 65535 f\r\n" +
		"0000000017 00000 n\r\n" +
		"0000000081 00000 n\r\n" +
		"0000000000 00007 f\r\n" +
		"0000000331 00000 n\r\n" +
		"0000000409 00000 n\r\n" +
		"trailer\n" +
		"<< /Size 6 /Root 1 0 R >>\n" +
		"startxref\n" +
		"134\n" +
		"%%EOF")
}

// xrefOffset locates the byte offset of the "xref" keyword that starts the
// subsection, mirroring what locateStartxref would resolve in a real file.
func xrefOffset(data []byte) int64 {
	return int64(bytes.Index(data, []byte("xref\n")))
}

func TestDecodeXref_TableForm(t *testing.T) {
	data := buildMinimalFile()
	result, err := DecodeXref(data, xrefOffset(data))
	require.NoError(t, err)
	assert.Equal(t, XrefTable, result.Xref.Kind)
	require.Len(t, result.Xref.Entries, 6)

	assert.Equal(t, EntryFree, result.Xref.Entries[0].Kind)
	assert.Equal(t, 65535, result.Xref.Entries[0].Generation)
	assert.Equal(t, 3, result.Xref.Entries[0].NextFree)

	assert.Equal(t, EntryUsed, result.Xref.Entries[1].Kind)
	assert.EqualValues(t, 17, result.Xref.Entries[1].ByteOffset)

	_, ok := result.TrailerDict.Get("Root")
	assert.True(t, ok)
}

func TestDecodeXref_TableFormRequiresTrailer(t *testing.T) {
	data := []byte("xref\n0 1\n0000000000 65535 f\r\n")
	_, err := DecodeXref(data, 0)
	require.Error(t, err)
}

func TestReadWArray(t *testing.T) {
	tests := []struct {
		name      string
		dict      Dictionary
		shouldErr bool
	}{
		{"missing", Dictionary{}, true},
		{"wrong length", Dictionary{"W": Array{Integer(1), Integer(1)}}, true},
		{"negative", Dictionary{"W": Array{Integer(-1), Integer(1), Integer(1)}}, true},
		{"non-integer", Dictionary{"W": Array{Name("x"), Integer(1), Integer(1)}}, true},
		{"valid", Dictionary{"W": Array{Integer(1), Integer(2), Integer(1)}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readWArray(tt.dict, 0)
			if tt.shouldErr {
				require.Error(t, err)
				var parseErr *Error
				require.ErrorAs(t, err, &parseErr)
				assert.Equal(t, KindXrefInvalidWEntry, parseErr.Kind)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseXrefStreamEntries_HonorsIndex(t *testing.T) {
	// one subrange (start 2, count 1): a single type-1 entry for object 2.
	dict := Dictionary{
		"Size":  Integer(3),
		"W":     Array{Integer(1), Integer(2), Integer(1)},
		"Index": Array{Integer(2), Integer(1)},
	}
	data := []byte{1, 0x00, 0x10, 0}
	entries, err := parseXrefStreamEntries(dict, data, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Number)
	assert.Equal(t, EntryUsed, entries[0].Kind)
	assert.EqualValues(t, 0x10, entries[0].ByteOffset)
}

func TestParseXrefStreamEntries_UnsupportedTypeCodePreserved(t *testing.T) {
	dict := Dictionary{
		"Size": Integer(1),
		"W":    Array{Integer(1), Integer(1), Integer(1)},
	}
	data := []byte{9, 7, 3}
	entries, err := parseXrefStreamEntries(dict, data, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, EntryUnsupported, entries[0].Kind)
	assert.Equal(t, 9, entries[0].TypeCode)
	assert.EqualValues(t, 7, entries[0].W1)
	assert.EqualValues(t, 3, entries[0].W2)
}
