// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTrailer(t *testing.T) {
	tests := []struct {
		name      string
		dict      Dictionary
		shouldErr bool
		wantKind  ErrorKind
	}{
		{
			name:      "missing size",
			dict:      Dictionary{"Root": Reference{1, 0}},
			shouldErr: true,
			wantKind:  KindTrailerMissingSize,
		},
		{
			name:      "invalid size",
			dict:      Dictionary{"Size": Name("x"), "Root": Reference{1, 0}},
			shouldErr: true,
			wantKind:  KindTrailerInvalidSize,
		},
		{
			name:      "missing root",
			dict:      Dictionary{"Size": Integer(6)},
			shouldErr: true,
			wantKind:  KindTrailerMissingRoot,
		},
		{
			name:      "invalid root",
			dict:      Dictionary{"Size": Integer(6), "Root": Integer(1)},
			shouldErr: true,
			wantKind:  KindTrailerInvalidRoot,
		},
		{
			name:      "invalid prev",
			dict:      Dictionary{"Size": Integer(6), "Root": Reference{1, 0}, "Prev": Bool(true)},
			shouldErr: true,
			wantKind:  KindTrailerInvalidPrevious,
		},
		{
			name:      "invalid info",
			dict:      Dictionary{"Size": Integer(6), "Root": Reference{1, 0}, "Info": Integer(2)},
			shouldErr: true,
			wantKind:  KindTrailerInvalidInfo,
		},
		{
			name: "invalid id wrong length",
			dict: Dictionary{"Size": Integer(6), "Root": Reference{1, 0},
				"ID": Array{HexString("a")}},
			shouldErr: true,
			wantKind:  KindTrailerInvalidID,
		},
		{
			name:      "invalid xrefstm",
			dict:      Dictionary{"Size": Integer(6), "Root": Reference{1, 0}, "XRefStm": Bool(false)},
			shouldErr: true,
			wantKind:  KindTrailerInvalidXRefStm,
		},
		{
			name: "fully populated valid trailer",
			dict: Dictionary{
				"Size":    Integer(6),
				"Root":    Reference{Number: 1, Generation: 0},
				"Prev":    Integer(100),
				"Info":    Reference{Number: 9, Generation: 0},
				"ID":      Array{HexString("aa"), HexString("bb")},
				"XRefStm": Integer(50),
				"Encrypt": Dictionary{"Filter": Name("Standard")},
			},
			shouldErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trailer, err := DecodeTrailer(tt.dict, 0)
			if tt.shouldErr {
				require.Error(t, err)
				var parseErr *Error
				require.ErrorAs(t, err, &parseErr)
				assert.Equal(t, tt.wantKind, parseErr.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 6, trailer.Size)
			assert.Equal(t, Reference{Number: 1, Generation: 0}, trailer.Root)
			require.NotNil(t, trailer.Prev)
			assert.EqualValues(t, 100, *trailer.Prev)
			require.NotNil(t, trailer.Info)
			require.NotNil(t, trailer.ID)
			require.NotNil(t, trailer.XRefStm)
			require.NotNil(t, trailer.Encrypt)
		})
	}
}
