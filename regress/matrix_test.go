// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regress

import (
	"reflect"
	"testing"

	"github.com/go-lpc/acqreg/acq"
)

func TestMatrix(t *testing.T) {
	for _, tc := range []struct {
		mode  acq.Mode
		names []string
	}{
		{
			mode:  acq.Post,
			names: []string{"post_trg100", "post_trg101", "post_trg111"},
		},
		{
			mode: acq.PrePost,
			names: []string{
				"pre_post_trg100_evt100", "pre_post_trg100_evt101",
				"pre_post_trg101_evt100", "pre_post_trg101_evt101",
				"pre_post_trg111_evt100", "pre_post_trg111_evt101",
			},
		},
		{
			mode: acq.RGM,
			names: []string{
				"rgm_trg101_evt100", "rgm_trg101_evt101",
				"rgm_trg111_evt100", "rgm_trg111_evt101",
			},
		},
	} {
		t.Run(tc.mode.String(), func(t *testing.T) {
			var names []string
			for _, cfg := range Matrix(tc.mode) {
				if cfg.Mode != tc.mode {
					t.Fatalf("invalid mode: got=%v, want=%v", cfg.Mode, tc.mode)
				}
				names = append(names, cfg.Name())
			}
			if !reflect.DeepEqual(names, tc.names) {
				t.Fatalf("invalid matrix:\ngot= %q\nwant=%q", names, tc.names)
			}
		})
	}
}

func TestPlanWith(t *testing.T) {
	base := Plan{Mode: acq.Post, Trigger: acq.ExtRising, Loops: 3}
	cfg := Config{Mode: acq.RTM, Trigger: acq.Soft, Event: acq.ExtFalling}

	plan := base.With(cfg)
	if plan.Mode != acq.RTM || plan.Trigger != acq.Soft || plan.Event != acq.ExtFalling {
		t.Fatalf("invalid plan configuration: %+v", plan)
	}
	if got, want := plan.Name, "rtm_trg111_evt100"; got != want {
		t.Fatalf("invalid plan name: got=%q, want=%q", got, want)
	}
	if got, want := plan.Loops, 3; got != want {
		t.Fatalf("invalid loops: got=%d, want=%d", got, want)
	}
	if base.Mode != acq.Post {
		t.Fatalf("base plan was modified")
	}
	if got, want := cfg.String(), "rtm trg=1,1,1 event=1,0,0"; got != want {
		t.Fatalf("invalid config string: got=%q, want=%q", got, want)
	}
}
