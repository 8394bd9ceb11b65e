// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package verify compares captured waveforms against their ideal
// counterparts and validates the continuity of sample counters.
package verify // import "github.com/go-lpc/acqreg/verify"

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-lpc/acqreg/acq"
	"github.com/go-lpc/acqreg/ideal"
	"github.com/go-lpc/acqreg/raw"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"
)

// Option configures a comparison.
type Option func(*config)

type config struct {
	tol    float64
	data32 bool
}

func newConfig(opts []Option) config {
	cfg := config{tol: -1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.tol < 0 {
		cfg.tol = Tolerance(cfg.data32)
	}
	return cfg
}

// WithTolerance sets the absolute tolerance of a comparison.
func WithTolerance(tol float64) Option {
	return func(cfg *config) {
		cfg.tol = tol
	}
}

// WithData32 selects the default tolerance for 32-bit data.
func WithData32(v bool) Option {
	return func(cfg *config) {
		cfg.data32 = v
	}
}

// Tolerance returns the default absolute tolerance: 1% of the maximum
// signed value of the sample word.
func Tolerance(data32 bool) float64 {
	if data32 {
		return 0.01 * math.MaxInt32
	}
	return 0.01 * math.MaxInt16
}

// Comparison is the outcome of comparing a captured series against an
// ideal wave.
type Comparison struct {
	Mode      acq.Mode
	Available bool // whether an ideal wave existed for Mode

	Real  []float64 // captured data, as compared
	Ideal []float64 // ideal wave, as compared

	Amplitude float64 // scale applied to the ideal wave
	Tolerance float64

	Compared int // number of compared samples
	Failed   int // number of samples out of tolerance

	Worst      int // index of the worst sample, -1 if none
	WorstDelta float64
}

// Passed returns whether the comparison succeeded.
// Unavailable comparisons pass.
func (cmp Comparison) Passed() bool {
	return cmp.Failed == 0
}

// MismatchError reports a captured series out of tolerance.
type MismatchError struct {
	Chan int // channel number, 0 if unknown
	Cmp  Comparison
}

func (e *MismatchError) Error() string {
	var ch string
	if e.Chan > 0 {
		ch = fmt.Sprintf(" channel %d:", e.Chan)
	}
	return fmt.Sprintf(
		"verify:%s %v mismatch: %d/%d samples out of tolerance (worst=%g at sample %d, tol=%g)",
		ch, e.Cmp.Mode, e.Cmp.Failed, e.Cmp.Compared,
		e.Cmp.WorstDelta, e.Cmp.Worst, e.Cmp.Tolerance,
	)
}

// Compare compares the captured data against the ideal wave of the provided
// capture mode.
//
// A nil wave yields an unavailable comparison and no error.
// Samples where either series holds NaN are not compared.
// Except for the rtm and rgm modes, the captured data is de-meaned and the
// ideal wave scaled by the captured amplitude before comparison.
func Compare(data []float64, wave ideal.Wave, mode acq.Mode, opts ...Option) (Comparison, error) {
	cfg := newConfig(opts)
	cmp := Comparison{
		Mode:      mode,
		Tolerance: cfg.tol,
		Worst:     -1,
	}
	if wave == nil {
		return cmp, nil
	}
	if len(data) != len(wave) {
		return cmp, &acq.ShapeError{Op: "compare", Len: len(data), Want: len(wave)}
	}

	cmp.Available = true
	cmp.Amplitude = 1
	cmp.Real = make([]float64, len(data))
	cmp.Ideal = make([]float64, len(wave))
	copy(cmp.Real, data)
	copy(cmp.Ideal, wave)

	mask := make([]bool, len(data))
	vals := make([]float64, 0, len(data))
	for i := range mask {
		if math.IsNaN(data[i]) || math.IsNaN(wave[i]) {
			continue
		}
		mask[i] = true
		vals = append(vals, data[i])
	}
	cmp.Compared = len(vals)
	if cmp.Compared == 0 {
		return cmp, nil
	}

	switch mode {
	case acq.RTM, acq.RGM:
		// full-scale ideal waves.
	default:
		floats.AddConst(-stat.Mean(vals, nil), cmp.Real)
		cmp.Amplitude = 0.5 * (floats.Max(vals) - floats.Min(vals))
		floats.Scale(cmp.Amplitude, cmp.Ideal)
	}

	for i, ok := range mask {
		if !ok {
			continue
		}
		var (
			x = cmp.Real[i]
			y = cmp.Ideal[i]
		)
		if scalar.EqualWithinAbs(x, y, cfg.tol) {
			continue
		}
		cmp.Failed++
		if d := math.Abs(x - y); d > cmp.WorstDelta {
			cmp.Worst = i
			cmp.WorstDelta = d
		}
	}

	if cmp.Failed != 0 {
		return cmp, &MismatchError{Cmp: cmp}
	}
	return cmp, nil
}

// CompareFrame synthesizes and compares the ideal wave of every selected
// channel of the frame.
//
// pre_post ideal waves span exactly Pre+Post samples: a capture of any
// other length fails fast with a *acq.ShapeError.
// Otherwise, all channels are evaluated and the returned error joins every
// channel failure.
func CompareFrame(fr raw.Frame, mode acq.Mode, p ideal.Params, opts ...Option) ([]Comparison, error) {
	var (
		errs []error
		cmps = make([]Comparison, 0, len(fr.Chans))
	)
	for _, ch := range fr.Chans {
		data := fr.Channel(ch)
		pp := p
		pp.Real = data
		if mode != acq.PrePost {
			pp.Len = len(data)
		}

		wave, err := ideal.Synthesize(mode, pp)
		if err != nil {
			return cmps, fmt.Errorf("verify: could not synthesize ideal wave for channel %d: %w", ch, err)
		}

		cmp, err := Compare(data, wave, mode, opts...)
		var serr *acq.ShapeError
		if errors.As(err, &serr) {
			return cmps, fmt.Errorf("verify: channel %d: %w", ch, err)
		}
		cmps = append(cmps, cmp)
		if err != nil {
			var merr *MismatchError
			if errors.As(err, &merr) {
				merr.Chan = ch
			}
			errs = append(errs, err)
		}
	}
	return cmps, errors.Join(errs...)
}
