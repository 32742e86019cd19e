// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"context"
	"fmt"

	"github.com/sassoftware/pdf-ingest/logger"
	"golang.org/x/sync/semaphore"
)

// resolveUsedObjectsConcurrently parses every Used xref entry's indirect
// object in parallel, bounded by cfg.MaxConcurrentObjects. Spec 5 states
// each Used entry is independent once the xref is known and permits
// parallelizing their parse as an optimization, never part of the
// contract; ParsingMode's Strict/BestEffort split still governs whether a
// single failure aborts the whole pass.
//
// Grounded on the teacher's processor.startWorkers/feedJobs/acquireSlot
// (processor.go): the same semaphore.Weighted-bounded worker-pool shape,
// repurposed from page-level text extraction onto object-level parsing.
func resolveUsedObjectsConcurrently(ctx context.Context, data []byte, entries []XrefEntry, cfg *Config) (map[int]ObjectEntry, error) {
	sem := semaphore.NewWeighted(int64(cfg.MaxConcurrentObjects))

	type result struct {
		number int
		entry  ObjectEntry
		err    error
	}

	used := make([]XrefEntry, 0, len(entries))
	for _, e := range entries {
		if e.Kind == EntryUsed {
			used = append(used, e)
		}
	}

	results := make(chan result, len(used))
	for _, e := range used {
		e := e
		if err := sem.Acquire(ctx, 1); err != nil {
			results <- result{number: e.Number, err: err}
			continue
		}
		go func() {
			defer sem.Release(1)
			defer func() {
				if r := recover(); r != nil {
					results <- result{number: e.Number, err: fmt.Errorf("panic parsing object %d: %v", e.Number, r)}
				}
			}()

			if e.ByteOffset < 0 || e.ByteOffset > int64(len(data)) {
				results <- result{number: e.Number, err: newErr(KindGeneric, e.ByteOffset, "xref entry byte offset out of range")}
				return
			}
			p := NewParser(data[e.ByteOffset:], e.ByteOffset)
			ind, err := p.ParseIndirectObject()
			if err != nil {
				results <- result{number: e.Number, err: err}
				return
			}
			results <- result{number: e.Number, entry: ObjectEntry{Generation: ind.Generation, Object: ind.Inner}}
		}()
	}

	objects := make(map[int]ObjectEntry, len(used))
	for range used {
		r := <-results
		if r.err != nil {
			if cfg.ParsingMode == Strict {
				return nil, r.err
			}
			logger.Debug(fmt.Sprintf("best-effort recovery: skipping object %d: %v", r.number, r.err), cfg.DebugOn)
			continue
		}
		objects[r.number] = r.entry
	}

	return objects, nil
}
