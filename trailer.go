// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

// Trailer is a typed projection of a revision's trailer dictionary, whether
// that dictionary arrived via the literal `trailer` keyword (table form) or
// is the xref stream's own dictionary (stream form) — spec 4.E treats both
// sources identically once DecodeXref has produced a TrailerDict.
//
// Grounded on the teacher's validateTrailerSize/resolvePrevXrefTables
// (read.go), which project the same handful of fields out of a raw
// dictionary; this module makes that projection an explicit typed step
// instead of leaving callers to re-read the Value accessors field by field.
type Trailer struct {
	Size    int
	Prev    *int64
	Root    Reference
	Encrypt *Dictionary
	Info    *Reference
	ID      *[2]HexString
	XRefStm *int64
}

// DecodeTrailer projects dict into a Trailer, enforcing spec 4.E's
// required/optional field rules. pos is the absolute offset dict was found
// at, used only for error reporting.
func DecodeTrailer(dict Dictionary, pos int64) (Trailer, error) {
	var t Trailer

	sizeObj, ok := dict.Get("Size")
	if !ok {
		return Trailer{}, newErr(KindTrailerMissingSize, pos, "trailer missing required /Size")
	}
	size, ok := sizeObj.(Integer)
	if !ok || size < 0 {
		return Trailer{}, newErr(KindTrailerInvalidSize, pos, "/Size must be a non-negative integer")
	}
	t.Size = int(size)

	rootObj, ok := dict.Get("Root")
	if !ok {
		return Trailer{}, newErr(KindTrailerMissingRoot, pos, "trailer missing required /Root")
	}
	root, ok := rootObj.(Reference)
	if !ok {
		return Trailer{}, newErr(KindTrailerInvalidRoot, pos, "/Root must be an indirect reference")
	}
	t.Root = root

	if prevObj, ok := dict.Get("Prev"); ok {
		prev, ok := prevObj.(Integer)
		if !ok || prev < 0 {
			return Trailer{}, newErr(KindTrailerInvalidPrevious, pos, "/Prev must be a non-negative integer")
		}
		v := int64(prev)
		t.Prev = &v
	}

	if encObj, ok := dict.Get("Encrypt"); ok {
		enc, ok := encObj.(Dictionary)
		if !ok {
			return Trailer{}, newErr(KindGeneric, pos, "/Encrypt must be a dictionary")
		}
		t.Encrypt = &enc
	}

	if infoObj, ok := dict.Get("Info"); ok {
		info, ok := infoObj.(Reference)
		if !ok {
			return Trailer{}, newErr(KindTrailerInvalidInfo, pos, "/Info must be an indirect reference")
		}
		t.Info = &info
	}

	if idObj, ok := dict.Get("ID"); ok {
		arr, ok := idObj.(Array)
		if !ok || len(arr) != 2 {
			return Trailer{}, newErr(KindTrailerInvalidID, pos, "/ID must be a two-element array")
		}
		first, ok1 := arr[0].(HexString)
		second, ok2 := arr[1].(HexString)
		if !ok1 || !ok2 {
			return Trailer{}, newErr(KindTrailerInvalidID, pos, "/ID elements must be hex strings")
		}
		id := [2]HexString{first, second}
		t.ID = &id
	}

	if xrefStmObj, ok := dict.Get("XRefStm"); ok {
		xrefStm, ok := xrefStmObj.(Integer)
		if !ok || xrefStm < 0 {
			return Trailer{}, newErr(KindTrailerInvalidXRefStm, pos, "/XRefStm must be a non-negative integer")
		}
		v := int64(xrefStm)
		t.XRefStm = &v
	}

	return t, nil
}
