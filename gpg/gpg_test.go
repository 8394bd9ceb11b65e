// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpg

import (
	"reflect"
	"strings"
	"testing"

	"github.com/go-lpc/acqreg/acq"
)

func TestParse(t *testing.T) {
	const stl = `# rgm schedule
0,f
 5000,0

20000, F
35000,0
`
	got, err := Parse(strings.NewReader(stl))
	if err != nil {
		t.Fatalf("could not parse script: %+v", err)
	}
	want := Script{{0, 0xf}, {5000, 0}, {20000, 0xf}, {35000, 0}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid script:\ngot= %v\nwant=%v", got, want)
	}
	if got, want := got.String(), "0,f\n5000,0\n20000,f\n35000,0\n"; got != want {
		t.Fatalf("invalid script text:\ngot= %q\nwant=%q", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		stl  string
	}{
		{"fields", "0,f,1\n"},
		{"clock", "x,f\n"},
		{"state", "0,g\n"},
		{"state-overflow", "0,1ff\n"},
		{"non-increasing", "10,f\n10,0\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.stl))
			if err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, stl := range []Script{RTM(), RGM()} {
		got, err := Parse(strings.NewReader(stl.String()))
		if err != nil {
			t.Fatalf("could not parse script: %+v", err)
		}
		if !reflect.DeepEqual(got, stl) {
			t.Fatalf("round trip failed:\ngot= %v\nwant=%v", got, stl)
		}
	}
}

func TestGates(t *testing.T) {
	rgm := RGM().Gates()
	want := []Gate{
		{0, 5000}, {20000, 35000}, {40000, 45000}, {60000, 75000}, {80000, 200000},
	}
	if !reflect.DeepEqual(rgm, want) {
		t.Fatalf("invalid rgm gates:\ngot= %v\nwant=%v", rgm, want)
	}

	rtm := RTM()
	if got, want := len(rtm), 30; got != want {
		t.Fatalf("invalid rtm script length: got=%d, want=%d", got, want)
	}
	if got, want := rtm[len(rtm)-1], (Entry{290000, 0}); got != want {
		t.Fatalf("invalid last rtm entry: got=%v, want=%v", got, want)
	}
	gates := rtm.Gates()
	if got, want := len(gates), 15; got != want {
		t.Fatalf("invalid number of rtm gates: got=%d, want=%d", got, want)
	}
	for i, g := range gates {
		if got, want := g.Len(), uint64(10000); got != want {
			t.Fatalf("invalid gate %d length: got=%d, want=%d", i, got, want)
		}
	}

	open := Script{{0, 1}, {10, 0}, {20, 1}}
	if got, want := open.Gates(), []Gate{{0, 10}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid gates: got=%v, want=%v", got, want)
	}
}

func TestFor(t *testing.T) {
	for _, tc := range []struct {
		mode acq.Mode
		want Script
	}{
		{acq.Post, nil},
		{acq.PrePost, nil},
		{acq.RTM, nil},
		{acq.RTMGPG, RTM()},
		{acq.RGM, RGM()},
	} {
		got, ok := For(tc.mode)
		if ok != (tc.want != nil) {
			t.Fatalf("%v: invalid script availability: got=%v", tc.mode, ok)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%v: invalid script:\ngot= %v\nwant=%v", tc.mode, got, tc.want)
		}
	}
}
