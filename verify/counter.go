// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"fmt"
	"strings"

	"github.com/go-lpc/acqreg/acq"
	"github.com/go-lpc/acqreg/es"
	"github.com/go-lpc/acqreg/raw"
)

// prePostEdge is the first difference following the pre-trigger samples
// of a pre_post capture, which is allowed to jump.
const prePostEdge = 49999

// Discontinuity is a jump in a sample counter.
type Discontinuity struct {
	Pos   int    // index of the first difference
	Delta uint32 // counter at the next non-event sample, minus counter[Pos]
}

func (d Discontinuity) String() string {
	return fmt.Sprintf("(%d, %d)", d.Pos, d.Delta)
}

// Validate returns the discontinuities of a sample counter.
//
// A counter whose first differences are all lower than 2 is continuous.
// Otherwise, every difference other than 1 is reported, except for the
// pre/post edge of pre_post captures.
// Samples overwritten by event samples are bridged: the counter may advance
// by at most one more than the number of event slots across them.
func Validate(counter raw.Counter, mode acq.Mode) []Discontinuity {
	if len(counter) < 2 {
		return nil
	}

	cont := true
	for i := 1; i < len(counter); i++ {
		if counter[i]-counter[i-1] >= 2 {
			cont = false
			break
		}
	}
	if cont {
		return nil
	}

	var gaps []Discontinuity
	for pos := 0; pos+1 < len(counter); pos++ {
		if es.IsEvent(counter[pos]) {
			continue
		}
		next := pos + 1
		for next < len(counter) && es.IsEvent(counter[next]) {
			next++
		}
		if next == len(counter) {
			break
		}

		var (
			slots = uint32(next - pos - 1)
			delta = counter[next] - counter[pos]
		)
		switch {
		case slots > 0 && delta >= 1 && delta <= slots+1:
		case delta == 1:
		case pos == prePostEdge && mode == acq.PrePost:
		default:
			gaps = append(gaps, Discontinuity{Pos: pos, Delta: delta})
		}
		pos = next - 1
	}
	return gaps
}

// DiscontinuityError reports a discontinuous sample counter.
type DiscontinuityError struct {
	Mode acq.Mode
	Gaps []Discontinuity
}

func (e *DiscontinuityError) Error() string {
	const max = 8
	var o strings.Builder
	fmt.Fprintf(&o, "verify: %v: %d discontinuities in sample counter: [", e.Mode, len(e.Gaps))
	for i, gap := range e.Gaps {
		if i == max {
			o.WriteString(" ...")
			break
		}
		if i > 0 {
			o.WriteString(" ")
		}
		o.WriteString(gap.String())
	}
	o.WriteString("]")
	return o.String()
}

// CheckCounter validates a sample counter and returns a *DiscontinuityError
// if any discontinuity was found.
func CheckCounter(counter raw.Counter, mode acq.Mode) error {
	gaps := Validate(counter, mode)
	if len(gaps) == 0 {
		return nil
	}
	return &DiscontinuityError{Mode: mode, Gaps: gaps}
}

// Policy describes how counter discontinuities affect a verdict.
type Policy uint8

const (
	Fatal   Policy = iota // discontinuities fail the verification
	LogOnly               // discontinuities are only reported
)

func (p Policy) String() string {
	switch p {
	case Fatal:
		return "fatal"
	case LogOnly:
		return "log"
	}
	return fmt.Sprintf("Policy(%d)", uint8(p))
}

// ParsePolicy parses a counter policy name.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fatal":
		return Fatal, nil
	case "log", "log-only", "logonly":
		return LogOnly, nil
	}
	return Fatal, fmt.Errorf("verify: invalid counter policy %q", s)
}

func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
