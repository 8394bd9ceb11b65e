// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resdb

import (
	"github.com/go-lpc/acqreg/regress"
	"github.com/go-lpc/acqreg/verify"
)

// Verdict kinds.
const (
	KindDecode  = "decode"
	KindCounter = "counter"
	KindWave    = "wave"
	KindEvents  = "events"
)

// Verdict statuses.
const (
	Pass   = "pass"
	Fail   = "fail"
	Warn   = "warn" // failure not affecting the run verdict
	NotAvl = "n/a"
)

// Verdict is the outcome of one check of a regression run.
type Verdict struct {
	Run     uint32
	Iter    int
	Test    string
	Mode    string
	Trigger string
	Event   string
	Unit    string // empty for cross-unit checks
	Chan    int    // 0 for unit-level checks
	Kind    string
	Status  string
	Detail  string
}

// FromReport flattens the report of an iteration into verdicts.
func FromReport(run uint32, iter int, rep *regress.Report) []Verdict {
	var (
		plan = rep.Plan
		vs   []Verdict
		mk   = func(unit string, ch int, kind, status string, err error) Verdict {
			v := Verdict{
				Run:     run,
				Iter:    iter,
				Test:    plan.Name,
				Mode:    plan.Mode.String(),
				Trigger: plan.Trigger.String(),
				Event:   plan.Event.String(),
				Unit:    unit,
				Chan:    ch,
				Kind:    kind,
				Status:  status,
			}
			if err != nil {
				v.Detail = err.Error()
			}
			return v
		}
	)

	for _, u := range rep.Units {
		if u.Err != nil {
			vs = append(vs, mk(u.Name, 0, KindDecode, Fail, u.Err))
			continue
		}

		switch {
		case u.Counter == nil:
			vs = append(vs, mk(u.Name, 0, KindCounter, Pass, nil))
		case plan.Counter == verify.Fatal:
			vs = append(vs, mk(u.Name, 0, KindCounter, Fail, u.Counter))
		default:
			vs = append(vs, mk(u.Name, 0, KindCounter, Warn, u.Counter))
		}

		for _, ch := range u.Chans {
			switch {
			case ch.Err != nil:
				vs = append(vs, mk(u.Name, ch.Chan, KindWave, Fail, ch.Err))
			case !ch.Available():
				vs = append(vs, mk(u.Name, ch.Chan, KindWave, NotAvl, nil))
			default:
				vs = append(vs, mk(u.Name, ch.Chan, KindWave, Pass, nil))
			}
		}
	}

	switch {
	case rep.Events != nil:
		vs = append(vs, mk("", 0, KindEvents, Fail, rep.Events))
	case rep.Decoded():
		vs = append(vs, mk("", 0, KindEvents, Pass, nil))
	}

	return vs
}
