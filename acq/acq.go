// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package acq holds the types shared by the acquisition decoding and
// verification packages: capture modes, trigger/event specifications
// and the layout of a raw capture.
package acq // import "github.com/go-lpc/acqreg/acq"

import (
	"fmt"
)

// Layout describes how a raw capture buffer is interleaved.
// It is the out-of-band metadata sent along with the captured words.
type Layout struct {
	AIChan int  `yaml:"aichan"` // number of physical analog channels
	NChan  int  `yaml:"nchan"`  // number of channels, scratchpad included
	Sites  int  `yaml:"sites"`  // number of aggregated sub-board sites
	Data32 bool `yaml:"data32"` // whether samples are 32-bit words
}

// Validate checks the layout is self-consistent.
func (lay Layout) Validate() error {
	switch {
	case lay.AIChan < 1:
		return fmt.Errorf("acq: invalid number of AI channels (%d)", lay.AIChan)
	case lay.NChan < lay.AIChan:
		return fmt.Errorf(
			"acq: invalid number of channels (nchan=%d < aichan=%d)",
			lay.NChan, lay.AIChan,
		)
	case lay.Sites < 1:
		return fmt.Errorf("acq: invalid number of sites (%d)", lay.Sites)
	case lay.AIChan%lay.Sites != 0:
		return fmt.Errorf(
			"acq: AI channels (%d) not evenly spread over %d sites",
			lay.AIChan, lay.Sites,
		)
	}
	if !lay.Data32 && (lay.AIChan%2 != 0 || lay.NChan%2 != 0) {
		return fmt.Errorf(
			"acq: 16-bit layout needs even channel counts (aichan=%d, nchan=%d)",
			lay.AIChan, lay.NChan,
		)
	}
	return nil
}

// Stride32 returns the number of 32-bit words per sample.
// Pairs of 16-bit channels collapse into one 32-bit slot.
func (lay Layout) Stride32() int {
	if lay.Data32 {
		return lay.NChan
	}
	return lay.NChan / 2
}

// AIChan32 returns the number of 32-bit words holding the analog
// channels of one sample.
func (lay Layout) AIChan32() int {
	if lay.Data32 {
		return lay.AIChan
	}
	return lay.AIChan / 2
}

// MaxValue returns the maximum representable signed sample value.
func (lay Layout) MaxValue() float64 {
	if lay.Data32 {
		return 1<<31 - 1
	}
	return 1<<15 - 1
}

// ShapeError reports a buffer or series whose length is inconsistent
// with what the operation expects.
type ShapeError struct {
	Op   string // operation that detected the problem
	Len  int    // observed length
	Want int    // expected length, or expected divisor when Mod is set
	Mod  bool
}

func (e *ShapeError) Error() string {
	if e.Mod {
		return fmt.Sprintf(
			"acq: %s: length %d is not a multiple of %d",
			e.Op, e.Len, e.Want,
		)
	}
	return fmt.Sprintf(
		"acq: %s: invalid shape (got=%d, want=%d)",
		e.Op, e.Len, e.Want,
	)
}
