// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"github.com/go-playground/validator/v10"
	"github.com/sassoftware/pdf-ingest/logger"
)

// ParsingMode controls how the document assembler reacts to a per-object
// parse failure once at least one revision has been successfully located:
// Strict surfaces the first fatal error (spec 7's default propagation
// rule), BestEffort logs the offending entry and omits it from the
// revision's object map instead of aborting the whole ingest.
type ParsingMode string

const (
	Strict     ParsingMode = "strict"
	BestEffort ParsingMode = "best-effort"
)

// Config carries the tunables of the ingestion pipeline. Grounded on the
// teacher's Config (config.go): same go-playground/validator struct-tag
// pattern, same Logger/DebugOn ambient fields, re-purposed from page-text
// extraction concurrency limits to the ingestion pipeline's own concerns —
// tail-anchor search windows, revision-chain depth, and the bound on the
// optional parallel per-object resolve pass spec 5 allows as an
// optimization.
type Config struct {
	// MaxRevisionChainDepth bounds how many revisions the document
	// assembler will assemble, so at most MaxRevisionChainDepth-1 /Prev
	// links are followed; a longer chain is an error. Spec 4.G's monotone-decreasing-offset check
	// already guarantees termination; this is a second, independent bound
	// against a chain that is merely very long rather than cyclic.
	MaxRevisionChainDepth int `validate:"min=1,max=10000"`

	// EOFSearchWindow and StartxrefSearchWindow bound the two backward
	// searches spec 4.G step 3 performs for the tail anchors.
	EOFSearchWindow       int `validate:"min=16"`
	StartxrefSearchWindow int `validate:"min=16"`

	// MaxConcurrentObjects bounds the optional parallel per-indirect-object
	// resolve pass (see parallel.go); spec 5 permits this as an
	// optimization, never part of the contract.
	MaxConcurrentObjects int `validate:"min=1,max=64"`

	// ConcurrentResolve opts into that parallel pass. Off by default: the
	// sequential path is simpler to reason about and the spec never
	// requires concurrency, only permits it.
	ConcurrentResolve bool

	ParsingMode ParsingMode `validate:"oneof=strict best-effort"`
	DebugOn     bool
	Logger      logger.LogFunc
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxRevisionChainDepth: 64,
		EOFSearchWindow:       tailEOFWindow,
		StartxrefSearchWindow: tailStartxrefWindow,
		MaxConcurrentObjects:  8,
		ParsingMode:           Strict,
		DebugOn:               false,
	}
}

func (cfg *Config) Validate() error {
	logger.Debug("validating ingestion config", cfg.DebugOn)
	validate := validator.New()
	return validate.Struct(cfg)
}
