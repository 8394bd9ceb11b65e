// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ideal synthesizes the waveform a unit should capture, for a given
// capture mode, trigger and event configuration.
//
// Ideal waves are dimensionless for the transient modes (the unit gain is
// not known a priori) and full-scale for the retriggered modes. Samples
// where the hardware is expected to insert an event sample hold NaN.
package ideal // import "github.com/go-lpc/acqreg/ideal"

import (
	"fmt"
	"math"

	"github.com/go-lpc/acqreg/acq"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultWaveLen = 20000  // samples per stimulus cycle
	DefaultRTMLen  = 5000   // samples per RTM burst
	DefaultESLen   = 1      // samples per event sample gap
	DefaultPre     = 50000  // pre-trigger samples
	DefaultPost    = 100000 // post-trigger samples

	// FullScale is the default amplitude of the retriggered modes ideal
	// waves: the full scale of a 16-bit sample word.
	FullScale = math.MaxInt16
)

// Wave is an ideal waveform.
// A nil Wave means no verification is available for the capture mode.
type Wave []float64

// Params configures the synthesis of an ideal wave.
type Params struct {
	Trigger acq.Spec
	Event   acq.Spec

	Len  int       // length of the captured data
	Real []float64 // captured data, needed for soft-triggered post captures

	Pre     int // pre-trigger samples (pre_post)
	Post    int // post-trigger samples (pre_post)
	WaveLen int // samples per stimulus cycle
	RTMLen  int // samples per RTM burst
	ESLen   int // samples per expected event sample

	FullScale float64 // amplitude of the rtm and rgm waves
}

func (p Params) withDefaults() Params {
	if p.Pre == 0 {
		p.Pre = DefaultPre
	}
	if p.Post == 0 {
		p.Post = DefaultPost
	}
	if p.WaveLen == 0 {
		p.WaveLen = DefaultWaveLen
	}
	if p.RTMLen == 0 {
		p.RTMLen = DefaultRTMLen
	}
	if p.ESLen == 0 {
		p.ESLen = DefaultESLen
	}
	if p.FullScale == 0 {
		p.FullScale = FullScale
	}
	return p
}

func (p Params) validate() error {
	switch {
	case p.Len < 0:
		return fmt.Errorf("ideal: invalid data length %d", p.Len)
	case p.Pre < 0, p.Post < 0:
		return fmt.Errorf("ideal: invalid pre/post lengths (pre=%d, post=%d)", p.Pre, p.Post)
	case p.WaveLen < 0, p.RTMLen < 0, p.ESLen < 0:
		return fmt.Errorf(
			"ideal: invalid sub-window lengths (wave=%d, rtm=%d, es=%d)",
			p.WaveLen, p.RTMLen, p.ESLen,
		)
	case p.FullScale < 0:
		return fmt.Errorf("ideal: invalid full scale %v", p.FullScale)
	}
	return nil
}

type synthFunc func(p Params) (Wave, error)

// synths holds one synthesis function per capture mode.
var synths = [acq.NumModes]synthFunc{
	acq.Post:    post,
	acq.PrePost: prePost,
	acq.RTM:     rtm,
	acq.RGM:     rgm,
	acq.RTMGPG:  rtmGPG,
}

// Synthesize returns the ideal wave for the capture mode and parameters.
// The returned wave is nil when no verification is defined for mode.
func Synthesize(mode acq.Mode, p Params) (Wave, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("ideal: invalid capture mode %v", mode)
	}
	p = p.withDefaults()
	err := p.validate()
	if err != nil {
		return nil, err
	}
	return synths[mode](p)
}

func post(p Params) (Wave, error) {
	if p.Len == 0 {
		p.Len = len(p.Real)
	}

	switch p.Trigger {
	case acq.ExtFalling:
		// stimulus is over before the capture starts.
		return make(Wave, p.Len), nil

	case acq.ExtRising:
		out := make(Wave, p.Len)
		copy(out, sine(0, 2*math.Pi, p.WaveLen))
		return out, nil

	case acq.Soft:
		if len(p.Real) == 0 {
			return nil, fmt.Errorf("ideal: soft-triggered post capture needs the captured data")
		}
		return fromZeroCrossing(p.Real, p.Len, p.WaveLen), nil
	}

	return nil, fmt.Errorf("ideal: no post ideal wave for trigger %v", p.Trigger)
}

func prePost(p Params) (Wave, error) {
	if p.Len == 0 {
		p.Len = p.Pre + p.Post
	}

	beg := p.Pre - p.WaveLen
	if p.Event.Rising() {
		beg = p.Pre
	}

	out := make(Wave, p.Len)
	for i, v := range sine(0, 2*math.Pi, p.WaveLen) {
		j := beg + i
		if j < 0 || j >= len(out) {
			continue
		}
		out[j] = v
	}
	return out, nil
}

func rtm(p Params) (Wave, error) {
	var (
		n    = p.Len / p.RTMLen
		ramp = sine(0, math.Pi/2, p.RTMLen)
		out  = make(Wave, 0, n*(p.ESLen+p.RTMLen))
	)
	for i := 0; i < n; i++ {
		out = appendGap(out, p.ESLen)
		for _, v := range ramp {
			out = append(out, p.FullScale*v)
		}
	}
	return fit(out, p.Len), nil
}

// rgmBursts are the lengths of the gated bursts, in stimulus cycles.
var rgmBursts = []float64{0.25, 0.75, 0.25, 0.75, 1.0}

func rgm(p Params) (Wave, error) {
	var (
		cycle = sine(0, 2*math.Pi, p.WaveLen)
		out   = make(Wave, 0, p.Len)
	)
	for _, frac := range rgmBursts {
		out = appendGap(out, p.ESLen)
		n := int(frac * float64(p.WaveLen))
		for _, v := range cycle[:n] {
			out = append(out, p.FullScale*v)
		}
	}
	return fit(out, p.Len), nil
}

func rtmGPG(p Params) (Wave, error) {
	// no ideal wave is defined for GPG-driven events.
	return nil, nil
}

// fromZeroCrossing reconstructs the phase of a free-running stimulus from
// the first zero crossing of the captured data, and returns 5 stimulus
// cycles spanning n samples started at that phase.
// The returned wave is all zeros if the captured data never crosses zero.
func fromZeroCrossing(data []float64, n, waveLen int) Wave {
	const probe = 40 // samples inspected around the crossing

	mean := stat.Mean(data, nil)
	first := -1
	for i := 0; i+1 < len(data); i++ {
		if sign(data[i]-mean) != sign(data[i+1]-mean) {
			first = i
			break
		}
	}
	if first < 0 {
		return make(Wave, n)
	}

	var (
		lo = first - probe
		hi = first + probe
	)
	if lo < 0 {
		lo = 0
	}
	if hi >= len(data) {
		hi = len(data) - 1
	}

	crossing := math.Pi // falling edge
	if data[hi] > data[lo] {
		crossing = 0
	}
	phase := crossing - float64(first)/float64(waveLen)*2*math.Pi

	return Wave(sine(phase, phase+10*math.Pi, n))
}

// sine returns sin(x) for n points evenly spaced over [lo, hi].
func sine(lo, hi float64, n int) []float64 {
	o := make([]float64, n)
	switch n {
	case 0:
		return o
	case 1:
		o[0] = math.Sin(lo)
		return o
	}
	step := (hi - lo) / float64(n-1)
	for i := range o {
		o[i] = math.Sin(lo + float64(i)*step)
	}
	return o
}

func appendGap(o Wave, n int) Wave {
	for i := 0; i < n; i++ {
		o = append(o, math.NaN())
	}
	return o
}

// fit truncates or zero-pads o to exactly n samples.
func fit(o Wave, n int) Wave {
	if len(o) >= n {
		return o[:n:n]
	}
	return append(o, make(Wave, n-len(o))...)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return +1
	case v < 0:
		return -1
	}
	return 0
}
