// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regress

import (
	"fmt"
	"io"
	"math"

	"github.com/go-lpc/acqreg/verify"
	"go-hep.org/x/hep/hbook"
)

// DefaultBins is the default number of bins of residual histograms.
const DefaultBins = 100

// Residuals returns the histogram of the real-ideal residuals of a
// comparison, or nil if no sample was compared.
func Residuals(cmp verify.Comparison, nbins int) *hbook.H1D {
	if !cmp.Available || cmp.Compared == 0 {
		return nil
	}
	if nbins <= 0 {
		nbins = DefaultBins
	}

	var (
		res = make([]float64, 0, cmp.Compared)
		lo  = math.Inf(+1)
		hi  = math.Inf(-1)
	)
	for i, x := range cmp.Real {
		y := cmp.Ideal[i]
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		v := x - y
		res = append(res, v)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	if hi <= lo {
		lo -= 0.5
		hi += 0.5
	}
	hi = math.Nextafter(hi, math.Inf(+1))

	h := hbook.NewH1D(nbins, lo, hi)
	for _, v := range res {
		h.Fill(v, 1)
	}
	return h
}

// WriteYODA writes the residual histograms of all verified channels to w.
func (r *Report) WriteYODA(w io.Writer) error {
	for _, u := range r.Units {
		for _, ch := range u.Chans {
			h := Residuals(ch.Cmp, DefaultBins)
			if h == nil {
				continue
			}
			h.Annotation()["name"] = fmt.Sprintf("%s/%s/ch%02d", r.Plan.Name, u.Name, ch.Chan)
			h.Annotation()["title"] = fmt.Sprintf("%s: channel %d residuals", u.Name, ch.Chan)

			raw, err := h.MarshalYODA()
			if err != nil {
				return fmt.Errorf("regress: could not marshal residuals of %s/ch%02d: %w", u.Name, ch.Chan, err)
			}
			_, err = w.Write(raw)
			if err != nil {
				return fmt.Errorf("regress: could not write residuals of %s/ch%02d: %w", u.Name, ch.Chan, err)
			}
		}
	}
	return nil
}
