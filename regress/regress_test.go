// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regress

import (
	"bytes"
	"errors"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/go-lpc/acqreg/acq"
	"github.com/go-lpc/acqreg/es"
	"github.com/go-lpc/acqreg/ideal"
	"github.com/go-lpc/acqreg/raw"
	"github.com/go-lpc/acqreg/verify"
)

const nsamples = 2*(ideal.DefaultRTMLen+ideal.DefaultESLen) + 8

func rtmPlan(t *testing.T) *Plan {
	t.Helper()
	plan := &Plan{
		Name:   "rtm",
		Mode:   acq.RTM,
		Layout: acq.Layout{AIChan: 2, NChan: 3, Data32: true},
	}
	plan.applyDefaults()
	err := plan.validate()
	if err != nil {
		t.Fatalf("invalid plan: %+v", err)
	}
	return plan
}

// rtmCapture returns a 32-bit capture of 2 analog channels and a sample
// counter, following the rtm ideal wave.
// Event samples overwrite whole samples.
func rtmCapture(t *testing.T, edit func(s int, row []int32)) raw.Buffer {
	t.Helper()
	wave, err := ideal.Synthesize(acq.RTM, ideal.Params{Len: nsamples, FullScale: math.MaxInt32})
	if err != nil {
		t.Fatalf("could not synthesize: %+v", err)
	}

	sentinel := es.Sentinel
	words := make([]int32, 3*nsamples)
	for s, v := range wave {
		row := words[3*s : 3*s+3]
		switch {
		case math.IsNaN(v):
			for i := range row {
				row[i] = int32(sentinel)
			}
		default:
			row[0] = int32(v)
			row[1] = int32(v)
			row[2] = int32(s)
		}
		if edit != nil {
			edit(s, row)
		}
	}
	return raw.From32(words)
}

func TestVerify(t *testing.T) {
	plan := rtmPlan(t)

	for _, tc := range []struct {
		name   string
		policy verify.Policy
		units  func() []Unit
		check  func(t *testing.T, rep *Report)
	}{
		{
			name: "pass",
			units: func() []Unit {
				return []Unit{
					{Name: "uut-0", Buf: rtmCapture(t, nil)},
					{Name: "uut-1", Buf: rtmCapture(t, nil)},
				}
			},
			check: func(t *testing.T, rep *Report) {
				if err := rep.Err(); err != nil {
					t.Fatalf("unexpected error: %+v", err)
				}
				for _, u := range rep.Units {
					if got, want := len(u.Chans), 2; got != want {
						t.Fatalf("invalid number of channels: got=%d, want=%d", got, want)
					}
					for _, ch := range u.Chans {
						if !ch.Available() {
							t.Fatalf("%s: channel %d should be available", u.Name, ch.Chan)
						}
					}
					if got, want := u.Events.Indices, []int{0, ideal.DefaultRTMLen + 1}; !equal(got, want) {
						t.Fatalf("invalid event indices: got=%v, want=%v", got, want)
					}
				}
			},
		},
		{
			name: "dead-channel",
			units: func() []Unit {
				return []Unit{
					{Name: "uut-0", Buf: rtmCapture(t, nil)},
					{Name: "uut-1", Buf: rtmCapture(t, func(s int, row []int32) {
						if uint32(row[0]) != es.Sentinel {
							row[1] = 0
						}
					})},
				}
			},
			check: func(t *testing.T, rep *Report) {
				err := rep.Err()
				var merr *verify.MismatchError
				if !errors.As(err, &merr) {
					t.Fatalf("invalid error type: got=%T, want=%T", err, merr)
				}
				if got, want := merr.Chan, 2; got != want {
					t.Fatalf("invalid failing channel: got=%d, want=%d", got, want)
				}
				if rep.Units[0].Chans[1].Err != nil {
					t.Fatalf("uut-0 should pass")
				}
				if !rep.Units[1].Chans[0].Cmp.Passed() {
					t.Fatalf("uut-1/ch01 should pass")
				}
				if rep.Events != nil {
					t.Fatalf("unexpected event samples error: %+v", rep.Events)
				}
			},
		},
		{
			name: "counter-gap-fatal",
			units: func() []Unit {
				return []Unit{{Name: "uut-0", Buf: rtmCapture(t, func(s int, row []int32) {
					if s == 100 {
						row[2] = 200
					}
				})}}
			},
			check: func(t *testing.T, rep *Report) {
				var derr *verify.DiscontinuityError
				if !errors.As(rep.Err(), &derr) {
					t.Fatalf("invalid error type: got=%T, want=%T", rep.Err(), derr)
				}
			},
		},
		{
			name:   "counter-gap-log",
			policy: verify.LogOnly,
			units: func() []Unit {
				return []Unit{{Name: "uut-0", Buf: rtmCapture(t, func(s int, row []int32) {
					if s == 100 {
						row[2] = 200
					}
				})}}
			},
			check: func(t *testing.T, rep *Report) {
				if err := rep.Err(); err != nil {
					t.Fatalf("unexpected error: %+v", err)
				}
				if rep.Units[0].Counter == nil {
					t.Fatalf("expected a counter discontinuity")
				}
			},
		},
		{
			name: "missing-event",
			units: func() []Unit {
				return []Unit{
					{Name: "uut-0", Buf: rtmCapture(t, nil)},
					{Name: "uut-1", Buf: rtmCapture(t, func(s int, row []int32) {
						if s == ideal.DefaultRTMLen+1 {
							row[0] = 0
							row[1] = 0
							row[2] = int32(s)
						}
					})},
				}
			},
			check: func(t *testing.T, rep *Report) {
				var eerr *es.MismatchError
				if !errors.As(rep.Err(), &eerr) {
					t.Fatalf("invalid error type: got=%T, want=%T", rep.Err(), eerr)
				}
				if got, want := eerr.Unit, 1; got != want {
					t.Fatalf("invalid unit: got=%d, want=%d", got, want)
				}
				for _, u := range rep.Units {
					if u.Counter != nil {
						t.Fatalf("%s: unexpected counter error: %+v", u.Name, u.Counter)
					}
				}
			},
		},
		{
			name: "truncated",
			units: func() []Unit {
				buf := rtmCapture(t, nil)
				words := make([]int32, buf.Len()-1)
				for i := range words {
					words[i] = buf.At(i)
				}
				return []Unit{
					{Name: "uut-0", Buf: rtmCapture(t, nil)},
					{Name: "uut-1", Buf: raw.From32(words)},
				}
			},
			check: func(t *testing.T, rep *Report) {
				var serr *acq.ShapeError
				if !errors.As(rep.Err(), &serr) {
					t.Fatalf("invalid error type: got=%T, want=%T", rep.Err(), serr)
				}
				if rep.Events != nil {
					t.Fatalf("event samples should not be compared")
				}
				if rep.Units[0].Err != nil || rep.Units[0].Chans == nil {
					t.Fatalf("uut-0 should have been verified")
				}
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			plan := *plan
			plan.Counter = tc.policy

			msg := new(bytes.Buffer)
			rep := Verify(&plan, tc.units(), log.New(msg, "", 0))
			tc.check(t, rep)
			if msg.Len() == 0 {
				t.Fatalf("no verdict was logged")
			}
		})
	}
}

func TestVerifyPrePostLength(t *testing.T) {
	plan := &Plan{
		Name:   "pre-post",
		Mode:   acq.PrePost,
		Layout: acq.Layout{AIChan: 2, NChan: 2},
	}
	plan.applyDefaults()
	err := plan.validate()
	if err != nil {
		t.Fatalf("invalid plan: %+v", err)
	}

	const n = 120000
	words := make([]int16, 2*n)
	for i := 0; i < plan.WaveLen; i++ {
		v := int16(1000 * math.Sin(2*math.Pi*float64(i)/float64(plan.WaveLen)))
		s := plan.Pre + i
		words[2*s+0] = v
		words[2*s+1] = v
	}

	rep := Verify(plan, []Unit{{Name: "uut-0", Buf: raw.From16(words)}}, nil)

	var serr *acq.ShapeError
	if !errors.As(rep.Err(), &serr) {
		t.Fatalf("invalid error type: got=%T, want=%T", rep.Err(), serr)
	}
	if got, want := serr.Len, n; got != want {
		t.Fatalf("invalid captured length: got=%d, want=%d", got, want)
	}
	if got, want := serr.Want, plan.Pre+plan.Post; got != want {
		t.Fatalf("invalid expected length: got=%d, want=%d", got, want)
	}
	for _, ch := range rep.Units[0].Chans {
		if ch.Err == nil {
			t.Fatalf("channel %d should fail", ch.Chan)
		}
	}
}

func TestReportDecoded(t *testing.T) {
	for _, tc := range []struct {
		name  string
		units []UnitReport
		want  bool
	}{
		{"empty", nil, false},
		{"ok", []UnitReport{{Name: "uut-0"}, {Name: "uut-1"}}, true},
		{"decode-error", []UnitReport{{Name: "uut-0"}, {Name: "uut-1", Err: errors.New("boom")}}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rep := Report{Units: tc.units}
			if got, want := rep.Decoded(), tc.want; got != want {
				t.Fatalf("invalid decoded state: got=%v, want=%v", got, want)
			}
		})
	}
}

func TestVerifyNotAvailable(t *testing.T) {
	plan := rtmPlan(t)
	plan.Mode = acq.RTMGPG

	rep := Verify(plan, []Unit{{Name: "uut-0", Buf: rtmCapture(t, nil)}}, nil)
	if err := rep.Err(); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	for _, ch := range rep.Units[0].Chans {
		if ch.Available() {
			t.Fatalf("channel %d should not be available", ch.Chan)
		}
	}

	out := new(bytes.Buffer)
	err := rep.WriteYODA(out)
	if err != nil {
		t.Fatalf("could not write residuals: %+v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected residuals:\n%s", out.String())
	}
}

func TestResiduals(t *testing.T) {
	wave := ideal.Wave{math.NaN(), 0, 1, 2, 3, math.NaN()}
	data := []float64{42, 0, 1, 2, 4, 0}
	cmp, err := verify.Compare(data, wave, acq.RTM)
	if err != nil {
		t.Fatalf("could not compare: %+v", err)
	}

	h := Residuals(cmp, 10)
	if h == nil {
		t.Fatalf("expected a histogram")
	}
	if got, want := h.Entries(), int64(4); got != want {
		t.Fatalf("invalid number of entries: got=%d, want=%d", got, want)
	}
	if got, want := h.XMax(), 1.0; got < want {
		t.Fatalf("invalid histogram range: got=%v, want>=%v", got, want)
	}

	if h := Residuals(verify.Comparison{}, 10); h != nil {
		t.Fatalf("expected no histogram for an unavailable comparison")
	}
}

func TestWriteYODA(t *testing.T) {
	plan := rtmPlan(t)
	rep := Verify(plan, []Unit{{Name: "uut-0", Buf: rtmCapture(t, nil)}}, nil)

	out := new(bytes.Buffer)
	err := rep.WriteYODA(out)
	if err != nil {
		t.Fatalf("could not write residuals: %+v", err)
	}

	for _, path := range []string{"/rtm/uut-0/ch01", "/rtm/uut-0/ch02"} {
		if !strings.Contains(out.String(), path) {
			t.Fatalf("missing histogram %q:\n%s", path, out.String())
		}
	}
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
