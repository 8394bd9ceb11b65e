// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"errors"
	"math"
	"testing"

	"github.com/go-lpc/acqreg/acq"
	"github.com/go-lpc/acqreg/ideal"
	"github.com/go-lpc/acqreg/raw"
)

func TestTolerance(t *testing.T) {
	for _, tc := range []struct {
		data32 bool
		want   float64
	}{
		{false, 327.67},
		{true, 21474836.47},
	} {
		got := Tolerance(tc.data32)
		if math.Abs(got-tc.want) > 1e-6 {
			t.Fatalf("invalid tolerance (data32=%v): got=%v, want=%v", tc.data32, got, tc.want)
		}
		if got, want := newConfig([]Option{WithData32(tc.data32)}).tol, tc.want; math.Abs(got-want) > 1e-6 {
			t.Fatalf("invalid default tolerance (data32=%v): got=%v, want=%v", tc.data32, got, want)
		}
	}

	if got, want := newConfig([]Option{WithTolerance(0)}).tol, 0.0; got != want {
		t.Fatalf("invalid explicit tolerance: got=%v, want=%v", got, want)
	}
}

func TestCompareUnavailable(t *testing.T) {
	cmp, err := Compare([]float64{1, 2, 3}, nil, acq.RTMGPG)
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if cmp.Available {
		t.Fatalf("comparison should not be available")
	}
	if !cmp.Passed() {
		t.Fatalf("unavailable comparison should pass")
	}
}

func TestCompareShape(t *testing.T) {
	_, err := Compare(make([]float64, 10), make(ideal.Wave, 11), acq.Post)
	var serr *acq.ShapeError
	if !errors.As(err, &serr) {
		t.Fatalf("invalid error type: got=%T, want=%T", err, serr)
	}
	if got, want := serr.Len, 10; got != want {
		t.Fatalf("invalid shape error: got=%d, want=%d", got, want)
	}
}

func TestCompareAffine(t *testing.T) {
	wave, err := ideal.Synthesize(acq.Post, ideal.Params{Trigger: acq.ExtRising, Len: 100000})
	if err != nil {
		t.Fatalf("could not synthesize: %+v", err)
	}

	for _, tc := range []struct {
		name string
		k, c float64
	}{
		{"unit", 1, 0},
		{"gain", 10000, 0},
		{"gain-offset", 10000, -123},
		{"small", 100, 4000},
		{"large-gain", 20000, 12},
	} {
		t.Run(tc.name, func(t *testing.T) {
			data := make([]float64, len(wave))
			for i, v := range wave {
				data[i] = tc.k*v + tc.c
			}
			cmp, err := Compare(data, wave, acq.Post)
			if err != nil {
				t.Fatalf("comparison failed: %+v", err)
			}
			if !cmp.Available || !cmp.Passed() {
				t.Fatalf("invalid comparison: %+v", cmp)
			}
			if got, want := cmp.Compared, len(wave); got != want {
				t.Fatalf("invalid number of compared samples: got=%d, want=%d", got, want)
			}
			if got, want := cmp.Amplitude, tc.k; math.Abs(got-want) > 1e-3*want {
				t.Fatalf("invalid amplitude: got=%v, want=%v", got, want)
			}
		})
	}
}

func TestCompareDoesNotModifyInputs(t *testing.T) {
	wave := ideal.Wave{0, 1, 0, -1}
	data := []float64{10, 20, 10, 0}
	_, err := Compare(data, wave, acq.Post)
	if err != nil {
		t.Fatalf("comparison failed: %+v", err)
	}
	if data[1] != 20 || wave[1] != 1 {
		t.Fatalf("inputs were modified: data=%v, wave=%v", data, wave)
	}
}

func TestComparePrePost(t *testing.T) {
	const (
		amp = 12000.0
		off = 250.0
	)
	rising, err := ideal.Synthesize(acq.PrePost, ideal.Params{Trigger: acq.ExtRising, Event: acq.ExtRising})
	if err != nil {
		t.Fatalf("could not synthesize: %+v", err)
	}
	falling, err := ideal.Synthesize(acq.PrePost, ideal.Params{Trigger: acq.ExtRising, Event: acq.ExtFalling})
	if err != nil {
		t.Fatalf("could not synthesize: %+v", err)
	}

	// stimulus burst fired on the rising edge of the event.
	data := make([]float64, len(rising))
	for i := range data {
		data[i] = off
		if i >= ideal.DefaultPre && i < ideal.DefaultPre+ideal.DefaultWaveLen {
			k := i - ideal.DefaultPre
			data[i] += amp * math.Sin(2*math.Pi*float64(k)/(ideal.DefaultWaveLen-1))
		}
	}

	_, err = Compare(data, rising, acq.PrePost)
	if err != nil {
		t.Fatalf("rising comparison failed: %+v", err)
	}

	cmp, err := Compare(data, falling, acq.PrePost)
	var merr *MismatchError
	if !errors.As(err, &merr) {
		t.Fatalf("invalid error type: got=%T, want=%T", err, merr)
	}
	if cmp.Passed() {
		t.Fatalf("falling comparison should fail")
	}
	if cmp.Worst < 30000 || cmp.Worst >= 70000 {
		t.Fatalf("invalid worst sample: got=%d", cmp.Worst)
	}
	if merr.Cmp.Failed != cmp.Failed {
		t.Fatalf("invalid error payload: got=%d, want=%d", merr.Cmp.Failed, cmp.Failed)
	}
}

func TestCompareMasked(t *testing.T) {
	wave, err := ideal.Synthesize(acq.RTM, ideal.Params{Len: 12000})
	if err != nil {
		t.Fatalf("could not synthesize: %+v", err)
	}

	data := make([]float64, len(wave))
	var nans int
	for i, v := range wave {
		switch {
		case math.IsNaN(v):
			nans++
			data[i] = -9999 // event sample
		default:
			data[i] = v + 10*math.Sin(float64(i))
		}
	}

	cmp, err := Compare(data, wave, acq.RTM)
	if err != nil {
		t.Fatalf("comparison failed: %+v", err)
	}
	if got, want := cmp.Compared, len(wave)-nans; got != want {
		t.Fatalf("invalid number of compared samples: got=%d, want=%d", got, want)
	}
	if got, want := cmp.Amplitude, 1.0; got != want {
		t.Fatalf("rtm waves should not be scaled: got=%v, want=%v", got, want)
	}

	_, err = Compare(data, wave, acq.RTM, WithTolerance(1))
	if err == nil {
		t.Fatalf("expected a mismatch with a tight tolerance")
	}
}

func TestCompareDeadChannel32(t *testing.T) {
	const n = 2*(ideal.DefaultRTMLen+ideal.DefaultESLen) + 8
	for _, mode := range []acq.Mode{acq.RTM, acq.RGM} {
		t.Run(mode.String(), func(t *testing.T) {
			wave, err := ideal.Synthesize(mode, ideal.Params{Len: n, FullScale: math.MaxInt32})
			if err != nil {
				t.Fatalf("could not synthesize: %+v", err)
			}

			cmp, err := Compare(make([]float64, n), wave, mode, WithData32(true))
			var merr *MismatchError
			if !errors.As(err, &merr) {
				t.Fatalf("invalid error type: got=%T, want=%T", err, merr)
			}
			if cmp.Failed == 0 || cmp.WorstDelta < 0.5*math.MaxInt32 {
				t.Fatalf("dead channel should fail: failed=%d/%d, worst=%g", cmp.Failed, cmp.Compared, cmp.WorstDelta)
			}

			live := make([]float64, n)
			for i, v := range wave {
				if !math.IsNaN(v) {
					live[i] = math.Trunc(v)
				}
			}
			_, err = Compare(live, wave, mode, WithData32(true))
			if err != nil {
				t.Fatalf("live channel should pass: %+v", err)
			}
		})
	}
}

func TestCompareFrame(t *testing.T) {
	const n = 2*(ideal.DefaultRTMLen+ideal.DefaultESLen) + 100
	wave, err := ideal.Synthesize(acq.RTM, ideal.Params{Len: n})
	if err != nil {
		t.Fatalf("could not synthesize: %+v", err)
	}

	lay := acq.Layout{AIChan: 2, NChan: 2, Sites: 1, Data32: true}
	words := make([]int32, 2*n)
	for i, v := range wave {
		if math.IsNaN(v) {
			v = 0
		}
		words[2*i+0] = int32(v)
		words[2*i+1] = 0 // dead channel
	}

	fr, err := raw.Decode(raw.From32(words), lay)
	if err != nil {
		t.Fatalf("could not decode frame: %+v", err)
	}

	cmps, err := CompareFrame(fr, acq.RTM, ideal.Params{}, WithData32(false))
	if err == nil {
		t.Fatalf("expected a mismatch")
	}
	if got, want := len(cmps), 2; got != want {
		t.Fatalf("invalid number of comparisons: got=%d, want=%d", got, want)
	}
	if !cmps[0].Passed() {
		t.Fatalf("channel 1 should pass: %+v", cmps[0].Failed)
	}
	if cmps[1].Passed() {
		t.Fatalf("channel 2 should fail")
	}

	var merr *MismatchError
	if !errors.As(err, &merr) {
		t.Fatalf("invalid error type: got=%T, want=%T", err, merr)
	}
	if got, want := merr.Chan, 2; got != want {
		t.Fatalf("invalid failing channel: got=%d, want=%d", got, want)
	}
}

func TestCompareFramePrePostLength(t *testing.T) {
	var (
		lay = acq.Layout{AIChan: 2, NChan: 2, Sites: 1}
		p   = ideal.Params{Trigger: acq.ExtRising, Event: acq.ExtRising, Pre: 50, Post: 100, WaveLen: 20}
	)

	for _, tc := range []struct {
		name string
		n    int
		fail bool
	}{
		{"short", 120, true},
		{"long", 200, true},
		{"exact", 150, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fr, err := raw.Decode(raw.From16(make([]int16, lay.NChan*tc.n)), lay)
			if err != nil {
				t.Fatalf("could not decode frame: %+v", err)
			}

			cmps, err := CompareFrame(fr, acq.PrePost, p)
			if !tc.fail {
				if err != nil {
					t.Fatalf("unexpected error: %+v", err)
				}
				if got, want := len(cmps), 2; got != want {
					t.Fatalf("invalid number of comparisons: got=%d, want=%d", got, want)
				}
				return
			}

			var serr *acq.ShapeError
			if !errors.As(err, &serr) {
				t.Fatalf("invalid error type: got=%T, want=%T", err, serr)
			}
			if got, want := serr.Len, tc.n; got != want {
				t.Fatalf("invalid captured length: got=%d, want=%d", got, want)
			}
			if got, want := serr.Want, 150; got != want {
				t.Fatalf("invalid expected length: got=%d, want=%d", got, want)
			}
			if len(cmps) != 0 {
				t.Fatalf("no channel should have been compared: got=%d", len(cmps))
			}
		})
	}
}

func TestCompareFrameUnavailable(t *testing.T) {
	lay := acq.Layout{AIChan: 2, NChan: 4, Sites: 1}
	fr, err := raw.Decode(raw.From16(make([]int16, 4*10)), lay)
	if err != nil {
		t.Fatalf("could not decode frame: %+v", err)
	}
	cmps, err := CompareFrame(fr, acq.RTMGPG, ideal.Params{})
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	for i, cmp := range cmps {
		if cmp.Available {
			t.Fatalf("comparison %d should not be available", i)
		}
	}
}
