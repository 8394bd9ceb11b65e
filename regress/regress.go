// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regress runs the verification of a capture iteration across a set
// of units under test.
package regress // import "github.com/go-lpc/acqreg/regress"

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/go-lpc/acqreg/es"
	"github.com/go-lpc/acqreg/raw"
	"github.com/go-lpc/acqreg/verify"
)

// Unit is the raw capture of a unit under test.
type Unit struct {
	Name string
	Buf  raw.Buffer
}

// Report holds the verdicts of a capture iteration.
type Report struct {
	Plan   Plan
	Units  []UnitReport
	Events error // cross-unit event samples consistency
}

// UnitReport holds the verdicts of a unit under test.
type UnitReport struct {
	Name    string
	Err     error // decoding error
	Events  es.Set
	Counter error // *verify.DiscontinuityError
	Chans   []ChanReport
}

// ChanReport holds the verdict of a channel.
type ChanReport struct {
	Chan int
	Cmp  verify.Comparison
	Err  error
}

// Available returns whether the channel was verified against an ideal wave.
func (ch ChanReport) Available() bool { return ch.Cmp.Available }

// Err returns the fatal failures of the iteration, or nil.
// Counter discontinuities are fatal only under the verify.Fatal policy.
func (r *Report) Err() error {
	var errs []error
	for _, u := range r.Units {
		if u.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", u.Name, u.Err))
			continue
		}
		if u.Counter != nil && r.Plan.Counter == verify.Fatal {
			errs = append(errs, fmt.Errorf("%s: %w", u.Name, u.Counter))
		}
		for _, ch := range u.Chans {
			if ch.Err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", u.Name, ch.Err))
			}
		}
	}
	if r.Events != nil {
		errs = append(errs, r.Events)
	}
	return errors.Join(errs...)
}

// Decoded reports whether every unit capture of the iteration was decoded,
// i.e. whether the cross-unit event samples check ran.
func (r *Report) Decoded() bool {
	for _, u := range r.Units {
		if u.Err != nil {
			return false
		}
	}
	return len(r.Units) > 0
}

// Verify verifies the captures of all units against the plan.
// Every unit and every channel is evaluated before the verdict is known.
func Verify(plan *Plan, units []Unit, msg *log.Logger) *Report {
	if msg == nil {
		msg = log.New(io.Discard, "", 0)
	}

	var (
		rep = &Report{
			Plan:  *plan,
			Units: make([]UnitReport, len(units)),
		}
		sets = make([]es.Set, 0, len(units))
	)

	for i, unit := range units {
		ur := &rep.Units[i]
		ur.Name = unit.Name
		verifyUnit(ur, plan, unit, plan.channels(i), msg)
		if ur.Err == nil {
			sets = append(sets, ur.Events)
		}
	}

	if len(sets) == len(units) && len(sets) > 0 {
		rep.Events = es.Check(sets)
		switch rep.Events {
		case nil:
			msg.Printf("event samples comparison: PASSED")
		default:
			msg.Printf("event samples comparison: FAILED: %+v", rep.Events)
		}
	}

	return rep
}

func verifyUnit(ur *UnitReport, plan *Plan, unit Unit, chans []int, msg *log.Logger) {
	fr, err := raw.Decode(unit.Buf, plan.Layout, chans...)
	if err != nil {
		ur.Err = fmt.Errorf("could not decode capture: %w", err)
		msg.Printf("%s: %+v", unit.Name, ur.Err)
		return
	}

	ur.Events, err = es.Collect(unit.Buf, plan.Layout)
	if err != nil {
		ur.Err = fmt.Errorf("could not collect event samples: %w", err)
		msg.Printf("%s: %+v", unit.Name, ur.Err)
		return
	}

	ur.Counter = verify.CheckCounter(fr.Counter, plan.Mode)
	switch ur.Counter {
	case nil:
		msg.Printf("%s: sample counter: PASSED", unit.Name)
	default:
		msg.Printf("%s: sample counter: FAILED (policy=%v): %+v", unit.Name, plan.Counter, ur.Counter)
	}

	cmps, err := verify.CompareFrame(fr, plan.Mode, plan.Params(), plan.options()...)
	ur.Chans = make([]ChanReport, len(fr.Chans))
	for j, ch := range fr.Chans {
		ur.Chans[j].Chan = ch
		if j >= len(cmps) {
			ur.Chans[j].Err = err
			msg.Printf("%s: channel %d: %+v", unit.Name, ch, err)
			continue
		}
		cmp := cmps[j]
		ur.Chans[j].Cmp = cmp
		switch {
		case !cmp.Available:
			msg.Printf("%s: channel %d: %v: not available", unit.Name, ch, plan.Mode)
		case cmp.Passed():
			msg.Printf("%s: channel %d: %v: PASSED", unit.Name, ch, plan.Mode)
		default:
			ur.Chans[j].Err = &verify.MismatchError{Chan: ch, Cmp: cmp}
			msg.Printf("%s: channel %d: %v: FAILED: %d/%d samples out of tolerance",
				unit.Name, ch, plan.Mode, cmp.Failed, cmp.Compared,
			)
		}
	}
}
