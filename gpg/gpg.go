// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gpg handles the state transition lists (STL) loaded into the
// gate pulse generator of a unit, to gate or retrigger its captures.
//
// An STL script is a list of "clock,state" lines, where clock is a
// decimal count of sample clocks and state a hexadecimal output mask.
package gpg // import "github.com/go-lpc/acqreg/gpg"

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-lpc/acqreg/acq"
)

// Entry is a state transition.
type Entry struct {
	Clock uint64 // sample clocks since the start of the script
	State uint8  // output mask
}

// Script is a state transition list.
type Script []Entry

// Gate is a [Start, End) interval during which the output is high.
type Gate struct {
	Start, End uint64
}

// Len returns the length of the gate in sample clocks.
func (g Gate) Len() uint64 { return g.End - g.Start }

// Parse parses an STL script.
// Empty lines and lines starting with '#' are ignored.
func Parse(r io.Reader) (Script, error) {
	var (
		sc   = bufio.NewScanner(r)
		line int
		stl  Script
	)
	for sc.Scan() {
		line++
		txt := strings.TrimSpace(sc.Text())
		if txt == "" || strings.HasPrefix(txt, "#") {
			continue
		}
		toks := strings.Split(txt, ",")
		if len(toks) != 2 {
			return nil, fmt.Errorf("gpg: invalid STL line %d: %q", line, txt)
		}
		clk, err := strconv.ParseUint(strings.TrimSpace(toks[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("gpg: could not parse clock (line %d): %w", line, err)
		}
		state, err := strconv.ParseUint(strings.TrimSpace(toks[1]), 16, 8)
		if err != nil {
			return nil, fmt.Errorf("gpg: could not parse state (line %d): %w", line, err)
		}
		if n := len(stl); n > 0 && clk <= stl[n-1].Clock {
			return nil, fmt.Errorf(
				"gpg: non-increasing clock %d (line %d, previous=%d)",
				clk, line, stl[n-1].Clock,
			)
		}
		stl = append(stl, Entry{Clock: clk, State: uint8(state)})
	}
	err := sc.Err()
	if err != nil {
		return nil, fmt.Errorf("gpg: could not read STL script: %w", err)
	}
	return stl, nil
}

func (stl Script) String() string {
	var o strings.Builder
	for _, e := range stl {
		fmt.Fprintf(&o, "%d,%x\n", e.Clock, e.State)
	}
	return o.String()
}

// Gates returns the intervals during which the output is high.
// A trailing high state is not closed and is not reported.
func (stl Script) Gates() []Gate {
	var (
		gates []Gate
		open  = false
		start uint64
	)
	for _, e := range stl {
		switch {
		case e.State != 0 && !open:
			open = true
			start = e.Clock
		case e.State == 0 && open:
			open = false
			gates = append(gates, Gate{Start: start, End: e.Clock})
		}
	}
	return gates
}

// RTM returns the script retriggering an RTM capture every 20000 clocks.
func RTM() Script {
	const (
		n    = 30
		step = 10000
	)
	stl := make(Script, n)
	for i := range stl {
		stl[i].Clock = uint64(i * step)
		if i%2 == 0 {
			stl[i].State = 0xf
		}
	}
	return stl
}

// RGM returns the script gating an RGM capture.
func RGM() Script {
	return Script{
		{0, 0xf}, {5000, 0},
		{20000, 0xf}, {35000, 0},
		{40000, 0xf}, {45000, 0},
		{60000, 0xf}, {75000, 0},
		{80000, 0xf}, {200000, 0},
	}
}

// For returns the script a capture mode needs, if any.
func For(mode acq.Mode) (Script, bool) {
	switch mode {
	case acq.RTMGPG:
		return RTM(), true
	case acq.RGM:
		return RGM(), true
	}
	return nil, false
}
