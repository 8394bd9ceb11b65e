// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regress

import (
	"fmt"
	"os"

	"github.com/go-lpc/acqreg/acq"
	"github.com/go-lpc/acqreg/ideal"
	"github.com/go-lpc/acqreg/verify"
	"gopkg.in/yaml.v3"
)

// Plan describes a regression test run.
type Plan struct {
	Name    string   `yaml:"name"`
	Mode    acq.Mode `yaml:"mode"`
	Trigger acq.Spec `yaml:"trigger"`
	Event   acq.Spec `yaml:"event"`

	Pre     int `yaml:"pre"`
	Post    int `yaml:"post"`
	WaveLen int `yaml:"wavelen"`
	RTMLen  int `yaml:"rtmlen"`
	ESLen   int `yaml:"eslen"`

	Layout   acq.Layout `yaml:"layout"`
	Channels [][]int    `yaml:"channels"` // channels to verify, one list per UUT

	Tolerance float64       `yaml:"tolerance"` // absolute tolerance, 1% of full scale if zero
	Counter   verify.Policy `yaml:"counter"`
	Loops     int           `yaml:"loops"`
}

// LoadPlan reads a YAML test plan.
func LoadPlan(fname string) (*Plan, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return nil, fmt.Errorf("regress: could not read plan: %w", err)
	}

	var plan Plan
	err = yaml.Unmarshal(raw, &plan)
	if err != nil {
		return nil, fmt.Errorf("regress: could not decode plan %q: %w", fname, err)
	}

	plan.applyDefaults()
	err = plan.validate()
	if err != nil {
		return nil, fmt.Errorf("regress: invalid plan %q: %w", fname, err)
	}

	return &plan, nil
}

func (p *Plan) applyDefaults() {
	if p.Name == "" {
		p.Name = p.Mode.String()
	}
	if p.Trigger == (acq.Spec{}) {
		p.Trigger = acq.ExtRising
	}
	if p.Event == (acq.Spec{}) && p.Mode != acq.Post {
		p.Event = acq.ExtRising
	}
	if p.Pre == 0 {
		p.Pre = ideal.DefaultPre
	}
	if p.Post == 0 {
		p.Post = ideal.DefaultPost
	}
	if p.WaveLen == 0 {
		p.WaveLen = ideal.DefaultWaveLen
	}
	if p.RTMLen == 0 {
		p.RTMLen = ideal.DefaultRTMLen
	}
	if p.ESLen == 0 {
		p.ESLen = ideal.DefaultESLen
	}
	if p.Layout.Sites == 0 {
		p.Layout.Sites = 1
	}
	if p.Layout.NChan == 0 {
		p.Layout.NChan = p.Layout.AIChan
	}
	if p.Loops == 0 {
		p.Loops = 1
	}
}

func (p *Plan) validate() error {
	if !p.Mode.Valid() {
		return fmt.Errorf("invalid mode %v", p.Mode)
	}
	err := p.Layout.Validate()
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	for i, chans := range p.Channels {
		for _, ch := range chans {
			if ch < 1 || ch > p.Layout.AIChan {
				return fmt.Errorf(
					"channels: invalid channel %d for UUT %d (want 1..%d)",
					ch, i, p.Layout.AIChan,
				)
			}
		}
	}
	if p.Tolerance < 0 {
		return fmt.Errorf("invalid tolerance %v", p.Tolerance)
	}
	if p.Loops < 0 {
		return fmt.Errorf("invalid number of loops %d", p.Loops)
	}
	return nil
}

// Params returns the ideal wave parameters of the plan.
func (p *Plan) Params() ideal.Params {
	return ideal.Params{
		Trigger: p.Trigger,
		Event:   p.Event,
		Pre:     p.Pre,
		Post:    p.Post,
		WaveLen: p.WaveLen,
		RTMLen:  p.RTMLen,
		ESLen:   p.ESLen,

		FullScale: p.Layout.MaxValue(),
	}
}

func (p *Plan) options() []verify.Option {
	opts := []verify.Option{verify.WithData32(p.Layout.Data32)}
	if p.Tolerance > 0 {
		opts = append(opts, verify.WithTolerance(p.Tolerance))
	}
	return opts
}

// channels returns the channels to verify for the i-th UUT.
// A nil slice selects all analog channels.
func (p *Plan) channels(i int) []int {
	if i < len(p.Channels) {
		return p.Channels[i]
	}
	return nil
}
