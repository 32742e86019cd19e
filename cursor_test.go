// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_BackwardSearch(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		pattern    string
		window     int
		shouldErr  bool
		wantBefore string
		wantAfter  string
	}{
		{
			name:       "found within window",
			input:      "Hello World!",
			pattern:    "World",
			window:     6,
			wantBefore: "Hello ",
			wantAfter:  "!",
		},
		{
			name:      "not found when window too small",
			input:     "Hello World!",
			pattern:   "World",
			window:    5,
			shouldErr: true,
		},
		{
			name:       "unbounded window when window is zero",
			input:      "xxxxxxxxxxxxxxxxneedle",
			pattern:    "needle",
			window:     0,
			wantBefore: "xxxxxxxxxxxxxxxx",
			wantAfter:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCursor([]byte(tt.input), 0)
			before, after, err := c.BackwardSearch([]byte(tt.pattern), tt.window)
			if tt.shouldErr {
				require.Error(t, err)
				var parseErr *Error
				require.ErrorAs(t, err, &parseErr)
				assert.Equal(t, KindBackwardSearchNotFound, parseErr.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBefore, string(before))
			assert.Equal(t, tt.wantAfter, string(after))
		})
	}
}

func TestIsPDFWhitespaceAndDelimiter(t *testing.T) {
	for _, b := range []byte{0x00, 0x09, 0x0A, 0x0C, 0x0D, 0x20} {
		assert.True(t, isPDFWhitespace(b))
	}
	assert.False(t, isPDFWhitespace('A'))

	for _, b := range []byte("()<>[]{}/%") {
		assert.True(t, isPDFDelimiter(b))
	}
	assert.False(t, isPDFDelimiter('A'))
	assert.False(t, isRegular('('))
	assert.True(t, isRegular('A'))
}

func TestSkipWhitespaceAndComments(t *testing.T) {
	data := []byte("  \t% a comment\r\nrest")
	got := skipWhitespaceAndComments(data)
	assert.Equal(t, "rest", string(got))
}
