// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regress

import (
	"fmt"

	"github.com/go-lpc/acqreg/acq"
)

var (
	allTriggers = []acq.Spec{acq.ExtFalling, acq.ExtRising, acq.Soft}
	allEvents   = []acq.Spec{acq.ExtFalling, acq.ExtRising} // soft events are not exercised.
)

// Config is a trigger/event configuration of a capture mode.
type Config struct {
	Mode    acq.Mode
	Trigger acq.Spec
	Event   acq.Spec // zero for modes without event
}

func (cfg Config) String() string {
	if cfg.Event == (acq.Spec{}) {
		return fmt.Sprintf("%v trg=%v", cfg.Mode, cfg.Trigger)
	}
	return fmt.Sprintf("%v trg=%v event=%v", cfg.Mode, cfg.Trigger, cfg.Event)
}

// Name returns a path-friendly name of the configuration.
func (cfg Config) Name() string {
	var (
		flags = func(s acq.Spec) string { return fmt.Sprintf("%d%d%d", s[0], s[1], s[2]) }
		name  = fmt.Sprintf("%v_trg%s", cfg.Mode, flags(cfg.Trigger))
	)
	if cfg.Event != (acq.Spec{}) {
		name += "_evt" + flags(cfg.Event)
	}
	return name
}

// Matrix returns every trigger/event configuration to exercise for a
// capture mode.
// post captures run without event; rgm skips the external falling trigger.
func Matrix(mode acq.Mode) []Config {
	var cfgs []Config
	for _, trg := range allTriggers {
		if mode == acq.RGM && trg == acq.ExtFalling {
			continue
		}
		if mode == acq.Post {
			cfgs = append(cfgs, Config{Mode: mode, Trigger: trg})
			continue
		}
		for _, evt := range allEvents {
			cfgs = append(cfgs, Config{Mode: mode, Trigger: trg, Event: evt})
		}
	}
	return cfgs
}

// With returns a copy of the plan using the provided configuration.
func (p Plan) With(cfg Config) Plan {
	p.Mode = cfg.Mode
	p.Trigger = cfg.Trigger
	p.Event = cfg.Event
	p.Name = cfg.Name()
	return p
}
