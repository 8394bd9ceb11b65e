// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command acq-vfy-node starts a TDAQ verification node.
//
// The node receives unit captures on its /shot input, verifies them
// against the regression test plan given as first argument, and exposes
// its verdicts as Prometheus metrics.
//
// Each /shot frame holds the unit name, the sample word size (2 or 4 bytes)
// and the raw little-endian capture.
// Once a capture has been received from every unit of the plan, the
// iteration is verified as a whole.
package main // import "github.com/go-lpc/acqreg/cmd/acq-vfy-node"

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/acqreg/internal/metrics"
	"github.com/go-lpc/acqreg/internal/notify"
	"github.com/go-lpc/acqreg/raw"
	"github.com/go-lpc/acqreg/regress"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cmd := flags.New()

	reg := prometheus.NewRegistry()
	dev := newNode(cmd.Args[0], reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		addr := getenv("ACQREG_METRICS_ADDR", ":9101")
		err := http.ListenAndServe(addr, mux)
		if err != nil {
			log.Printf("could not serve metrics on %q: %+v", addr, err)
		}
	}()

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.InputHandle("/shot", dev.shot)

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

type msgStream interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// msgWriter forwards the verification log to the node message stream.
type msgWriter struct {
	msg msgStream
}

func (w msgWriter) Write(p []byte) (int, error) {
	w.msg.Infof("%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

type node struct {
	fname string // path to the regression test plan
	mon   *metrics.Metrics

	mu    sync.Mutex
	plan  *regress.Plan
	mail  *notify.Mailer
	units []regress.Unit
	iter  int
	fails int
}

func newNode(fname string, reg prometheus.Registerer) *node {
	return &node{
		fname: fname,
		mon:   metrics.New(reg),
	}
}

func (dev *node) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	fname := dev.fname
	if len(req.Body) > 0 {
		dec := tdaq.NewDecoder(bytes.NewReader(req.Body))
		fname = dec.ReadStr()
		if err := dec.Err(); err != nil {
			return fmt.Errorf("could not decode /config request: %w", err)
		}
	}
	return dev.config(ctx.Msg, fname)
}

func (dev *node) config(msg msgStream, fname string) error {
	plan, err := regress.LoadPlan(fname)
	if err != nil {
		return fmt.Errorf("could not load test plan: %w", err)
	}

	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.fname = fname
	dev.plan = plan
	msg.Infof("test plan %q: mode=%v trg=%v event=%v units=%d", plan.Name, plan.Mode, plan.Trigger, plan.Event, nunits(plan))
	return nil
}

func (dev *node) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	mail, err := notify.FromEnv()
	if err != nil {
		ctx.Msg.Debugf("mail alerts disabled: %+v", err)
	}

	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.mail = mail
	dev.reset()
	return nil
}

func (dev *node) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.reset()
	return nil
}

func (dev *node) reset() {
	dev.units = nil
	dev.iter = 0
	dev.fails = 0
}

func (dev *node) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.plan == nil {
		return fmt.Errorf("no test plan configured")
	}
	return nil
}

func (dev *node) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	ctx.Msg.Debugf("received /stop command... -> iter=%d, fails=%d", dev.iter, dev.fails)
	if n := len(dev.units); n != 0 {
		ctx.Msg.Errorf("dropping incomplete iteration %d (%d shots)", dev.iter, n)
		dev.units = nil
	}
	return nil
}

func (dev *node) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return nil
}

func (dev *node) shot(ctx tdaq.Context, src tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		return nil
	default:
	}

	_, err := dev.process(ctx.Msg, src.Body)
	return err
}

// process accumulates a unit capture and verifies the iteration once
// every unit has been received.
// It returns the report of the verified iteration, or nil.
func (dev *node) process(msg msgStream, body []byte) (*regress.Report, error) {
	unit, err := decodeShot(body)
	if err != nil {
		return nil, err
	}

	dev.mu.Lock()
	defer dev.mu.Unlock()

	if dev.plan == nil {
		return nil, fmt.Errorf("no test plan configured")
	}
	if unit.Buf.Data32() != dev.plan.Layout.Data32 {
		return nil, fmt.Errorf(
			"invalid word size for unit %q (data32=%v, want=%v)",
			unit.Name, unit.Buf.Data32(), dev.plan.Layout.Data32,
		)
	}

	dev.units = append(dev.units, unit)
	if len(dev.units) < nunits(dev.plan) {
		return nil, nil
	}

	var (
		start = time.Now()
		rep   = regress.Verify(dev.plan, dev.units, log.New(msgWriter{msg}, "", 0))
		iter  = dev.iter
	)
	dev.mon.Observe(rep, time.Since(start))
	dev.units = nil
	dev.iter++

	if err := rep.Err(); err != nil {
		dev.fails++
		msg.Errorf("iteration %d: FAILED: %+v", iter, err)
		if dev.mail != nil {
			err = dev.mail.Alert(iter, rep)
			if err != nil {
				msg.Errorf("could not send mail alert: %+v", err)
			}
		}
		return rep, nil
	}

	msg.Infof("iteration %d: PASSED", iter)
	return rep, nil
}

// nunits returns the number of units under test of a plan.
func nunits(plan *regress.Plan) int {
	if n := len(plan.Channels); n > 0 {
		return n
	}
	return 1
}

func decodeShot(body []byte) (regress.Unit, error) {
	dec := tdaq.NewDecoder(bytes.NewReader(body))
	var (
		name = dec.ReadStr()
		size = dec.ReadU32()
		data = dec.ReadStr()
	)
	if err := dec.Err(); err != nil {
		return regress.Unit{}, fmt.Errorf("could not decode /shot frame: %w", err)
	}

	if size != 2 && size != 4 {
		return regress.Unit{}, fmt.Errorf("invalid sample word size %d for unit %q", size, name)
	}

	buf, err := raw.FromBytes([]byte(data), size == 4)
	if err != nil {
		return regress.Unit{}, fmt.Errorf("could not decode capture of unit %q: %w", name, err)
	}

	return regress.Unit{Name: name, Buf: buf}, nil
}
