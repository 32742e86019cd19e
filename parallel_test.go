// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildUsedEntries(t *testing.T, bodies []string) ([]byte, []XrefEntry) {
	t.Helper()
	var data []byte
	var entries []XrefEntry
	for i, body := range bodies {
		entries = append(entries, XrefEntry{Number: i + 1, Kind: EntryUsed, ByteOffset: int64(len(data))})
		data = append(data, []byte(fmt.Sprintf("%d 0 obj\n%s\nendobj\n", i+1, body))...)
	}
	return data, entries
}

func TestResolveUsedObjectsConcurrently_MatchesExpected(t *testing.T) {
	data, entries := buildUsedEntries(t, []string{"true", "42", "/Foo"})
	cfg := NewDefaultConfig()
	cfg.MaxConcurrentObjects = 2

	objects, err := resolveUsedObjectsConcurrently(context.Background(), data, entries, cfg)
	require.NoError(t, err)
	require.Len(t, objects, 3)
	assert.Equal(t, Bool(true), objects[1].Object)
	assert.Equal(t, Integer(42), objects[2].Object)
	assert.Equal(t, Name("Foo"), objects[3].Object)
}

func TestResolveUsedObjectsConcurrently_StrictAbortsOnFailure(t *testing.T) {
	data, entries := buildUsedEntries(t, []string{"true"})
	entries[0].ByteOffset = int64(len(data) + 100) // out of range
	cfg := NewDefaultConfig()
	cfg.ParsingMode = Strict

	_, err := resolveUsedObjectsConcurrently(context.Background(), data, entries, cfg)
	require.Error(t, err)
}

func TestResolveUsedObjectsConcurrently_BestEffortSkipsFailure(t *testing.T) {
	data, entries := buildUsedEntries(t, []string{"true", "42"})
	entries[0].ByteOffset = int64(len(data) + 100) // out of range, should be skipped
	cfg := NewDefaultConfig()
	cfg.ParsingMode = BestEffort

	objects, err := resolveUsedObjectsConcurrently(context.Background(), data, entries, cfg)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, Integer(42), objects[2].Object)
}

func TestResolveUsedObjectsConcurrently_IgnoresNonUsedEntries(t *testing.T) {
	data, entries := buildUsedEntries(t, []string{"true"})
	entries = append(entries, XrefEntry{Number: 5, Kind: EntryFree})
	cfg := NewDefaultConfig()

	objects, err := resolveUsedObjectsConcurrently(context.Background(), data, entries, cfg)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	_, ok := objects[5]
	assert.False(t, ok)
}
