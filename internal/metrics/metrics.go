// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metrics exposes the verdicts of a verification node as
// Prometheus metrics.
package metrics // import "github.com/go-lpc/acqreg/internal/metrics"

import (
	"strconv"
	"time"

	"github.com/go-lpc/acqreg/regress"
	"github.com/go-lpc/acqreg/verify"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors of a verification node.
type Metrics struct {
	shots    prometheus.Counter
	verdicts *prometheus.CounterVec // mode, kind, status
	gaps     prometheus.Counter
	worst    *prometheus.GaugeVec // unit, chan
	latency  prometheus.Histogram
}

// New creates and registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		shots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "acqreg_shots_total",
			Help: "Total unit captures verified.",
		}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acqreg_verdicts_total",
			Help: "Verdicts per capture mode, check kind and status.",
		}, []string{"mode", "kind", "status"}),
		gaps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "acqreg_counter_discontinuities_total",
			Help: "Sample counter discontinuities found.",
		}),
		worst: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "acqreg_worst_delta",
			Help: "Worst real-ideal absolute difference of the last capture.",
		}, []string{"unit", "chan"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "acqreg_verify_duration_seconds",
			Help:    "Time spent verifying a capture iteration.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
	reg.MustRegister(m.shots, m.verdicts, m.gaps, m.worst, m.latency)
	return m
}

// Observe records the verdicts of a verification report.
func (m *Metrics) Observe(rep *regress.Report, dt time.Duration) {
	mode := rep.Plan.Mode.String()
	m.latency.Observe(dt.Seconds())

	for _, u := range rep.Units {
		m.shots.Inc()
		if u.Err != nil {
			m.verdicts.WithLabelValues(mode, "decode", "fail").Inc()
			continue
		}

		switch u.Counter {
		case nil:
			m.verdicts.WithLabelValues(mode, "counter", "pass").Inc()
		default:
			status := "fail"
			if rep.Plan.Counter != verify.Fatal {
				status = "warn"
			}
			m.verdicts.WithLabelValues(mode, "counter", status).Inc()
			if derr, ok := u.Counter.(*verify.DiscontinuityError); ok {
				m.gaps.Add(float64(len(derr.Gaps)))
			}
		}

		for _, ch := range u.Chans {
			switch {
			case ch.Err != nil:
				m.verdicts.WithLabelValues(mode, "wave", "fail").Inc()
			case !ch.Available():
				m.verdicts.WithLabelValues(mode, "wave", "n/a").Inc()
			default:
				m.verdicts.WithLabelValues(mode, "wave", "pass").Inc()
			}
			if ch.Available() {
				m.worst.WithLabelValues(u.Name, strconv.Itoa(ch.Chan)).Set(ch.Cmp.WorstDelta)
			}
		}
	}

	switch {
	case rep.Events != nil:
		m.verdicts.WithLabelValues(mode, "events", "fail").Inc()
	case rep.Decoded():
		m.verdicts.WithLabelValues(mode, "events", "pass").Inc()
	}
}
