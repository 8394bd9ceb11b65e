// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// acq-verify verifies saved digitizer shots against a regression test plan.
//
// Usage: acq-verify [OPTIONS] -plan PLAN.yaml SHOT1 [SHOT2 [SHOT3 ...]]
//
// Each shot file holds the raw capture of one unit under test.
//
// Example:
//
//	$> acq-verify -plan ./rtm.yaml -yoda out.yoda uut-0.dat uut-1.dat
//	acq-verify: uut-0: channel 1: PASSED
//	acq-verify: uut-0: channel 2: PASSED
//	acq-verify: uut-1: channel 1: PASSED
//	acq-verify: uut-1: channel 2: PASSED
//	acq-verify: event samples comparison: PASSED
package main // import "github.com/go-lpc/acqreg/cmd/acq-verify"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-lpc/acqreg/gpg"
	"github.com/go-lpc/acqreg/internal/notify"
	"github.com/go-lpc/acqreg/raw"
	"github.com/go-lpc/acqreg/regress"
	"github.com/go-lpc/acqreg/resdb"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.SetPrefix("acq-verify: ")
	log.SetFlags(0)

	var (
		cfg config
		msg = log.Default()
	)

	flag.StringVar(&cfg.plan, "plan", "", "path to regression test plan")
	flag.StringVar(&cfg.yoda, "yoda", "", "path to output YODA file with residual histograms")
	flag.StringVar(&cfg.db, "db", "", "name of the verdicts database")
	flag.UintVar(&cfg.run, "run", 0, "run number to record verdicts under (default: last run+1)")
	flag.IntVar(&cfg.iter, "iter", 0, "iteration number of the shots")
	flag.BoolVar(&cfg.mail, "mail", false, "send a mail alert on failure")
	flag.StringVar(&cfg.stl, "stl", "", "path to output GPG STL script for the plan mode")

	flag.Usage = func() {
		fmt.Printf(`acq-verify verifies saved digitizer shots against a regression test plan.

Usage: acq-verify [OPTIONS] -plan PLAN.yaml SHOT1 [SHOT2 [SHOT3 ...]]

Example:

 $> acq-verify -plan ./rtm.yaml -yoda out.yoda uut-0.dat uut-1.dat

Options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if cfg.plan == "" {
		flag.Usage()
		log.Fatalf("missing path to test plan")
	}

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing path to shot files")
	}

	err := process(context.Background(), msg, cfg, flag.Args())
	if err != nil {
		log.Fatalf("verification failed: %+v", err)
	}
}

type config struct {
	plan string
	yoda string
	db   string
	run  uint
	iter int
	mail bool
	stl  string
}

func process(ctx context.Context, msg *log.Logger, cfg config, fnames []string) error {
	plan, err := regress.LoadPlan(cfg.plan)
	if err != nil {
		return fmt.Errorf("could not load test plan: %w", err)
	}

	if cfg.stl != "" {
		err = writeSTL(cfg.stl, plan)
		if err != nil {
			return err
		}
	}

	units, err := load(ctx, plan, fnames)
	if err != nil {
		return fmt.Errorf("could not load shots: %w", err)
	}

	rep := regress.Verify(plan, units, msg)

	if cfg.yoda != "" {
		err = writeYODA(cfg.yoda, rep)
		if err != nil {
			return err
		}
	}

	if cfg.db != "" {
		err = record(ctx, msg, cfg, rep)
		if err != nil {
			return err
		}
	}

	if cfg.mail {
		m, err := notify.FromEnv()
		if err != nil {
			return fmt.Errorf("could not setup mail alerts: %w", err)
		}
		err = m.Alert(cfg.iter, rep)
		if err != nil {
			// a failed alert does not change the verdict.
			msg.Printf("could not send mail alert: %+v", err)
		}
	}

	return rep.Err()
}

// load reads all shot files concurrently.
func load(ctx context.Context, plan *regress.Plan, fnames []string) ([]regress.Unit, error) {
	units := make([]regress.Unit, len(fnames))
	grp, ctx := errgroup.WithContext(ctx)
	for i := range fnames {
		i := i
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fname := fnames[i]
			buf, err := raw.Open(fname, plan.Layout.Data32)
			if err != nil {
				return err
			}
			units[i] = regress.Unit{
				Name: unitName(fname),
				Buf:  buf,
			}
			return nil
		})
	}

	err := grp.Wait()
	if err != nil {
		return nil, err
	}
	return units, nil
}

func unitName(fname string) string {
	name := filepath.Base(fname)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func writeSTL(fname string, plan *regress.Plan) error {
	stl, ok := gpg.For(plan.Mode)
	if !ok {
		return fmt.Errorf("no GPG script for mode %v", plan.Mode)
	}
	err := os.WriteFile(fname, []byte(stl.String()), 0644)
	if err != nil {
		return fmt.Errorf("could not write STL script: %w", err)
	}
	return nil
}

func writeYODA(fname string, rep *regress.Report) error {
	f, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("could not create YODA file: %w", err)
	}
	defer f.Close()

	err = rep.WriteYODA(f)
	if err != nil {
		return fmt.Errorf("could not write residuals: %w", err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close YODA file: %w", err)
	}
	return nil
}

func record(ctx context.Context, msg *log.Logger, cfg config, rep *regress.Report) error {
	db, err := resdb.Open(cfg.db)
	if err != nil {
		return fmt.Errorf("could not open verdicts db: %w", err)
	}
	defer db.Close()

	run := uint32(cfg.run)
	if run == 0 {
		last, err := db.LastRun(ctx)
		if err != nil {
			return fmt.Errorf("could not retrieve last run number: %w", err)
		}
		run = last + 1
	}

	vs := resdb.FromReport(run, cfg.iter, rep)
	err = db.RecordAll(ctx, vs)
	if err != nil {
		return fmt.Errorf("could not record verdicts: %w", err)
	}
	msg.Printf("recorded %d verdicts under run %d", len(vs), run)

	return nil
}
