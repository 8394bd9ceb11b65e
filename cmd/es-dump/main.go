// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// es-dump displays the event samples of digitizer shot files side by side
// and checks they are consistent across units.
//
// Usage: es-dump [OPTIONS] SHOT1 [SHOT2 [SHOT3 ...]]
//
// Example:
//
//	$> es-dump -aichan=4 -nchan=6 -sites=2 uut-0.dat uut-1.dat
//	aa55f154 aa55f154 00000000 00000000  aa55f154 aa55f154 00000000 00000000
//	aa55f154 aa55f154 00000000 00000000  aa55f154 aa55f154 00000000 00000000
//	uut-0.dat: [0 5001]
//	uut-1.dat: [0 5001]
//	es-dump: event samples comparison: PASSED
package main // import "github.com/go-lpc/acqreg/cmd/es-dump"

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/go-lpc/acqreg/acq"
	"github.com/go-lpc/acqreg/es"
	"github.com/go-lpc/acqreg/raw"
	"github.com/go-lpc/acqreg/regress"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.SetPrefix("es-dump: ")
	log.SetFlags(0)

	var (
		lay  acq.Layout
		plan = flag.String("plan", "", "path to regression test plan (overrides layout flags)")
	)

	flag.IntVar(&lay.AIChan, "aichan", 32, "number of analog channels")
	flag.IntVar(&lay.NChan, "nchan", 0, "number of channels, scratchpad included (default: aichan)")
	flag.IntVar(&lay.Sites, "sites", 1, "number of sites")
	flag.BoolVar(&lay.Data32, "data32", false, "enable 32-bit samples")

	flag.Usage = func() {
		fmt.Printf(`es-dump displays the event samples of digitizer shot files side by side.

Usage: es-dump [OPTIONS] SHOT1 [SHOT2 [SHOT3 ...]]

Example:

 $> es-dump -aichan=4 -nchan=6 -sites=2 uut-0.dat uut-1.dat

Options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing path to shot files")
	}

	if lay.NChan == 0 {
		lay.NChan = lay.AIChan
	}

	if *plan != "" {
		p, err := regress.LoadPlan(*plan)
		if err != nil {
			log.Fatalf("could not load test plan: %+v", err)
		}
		lay = p.Layout
	}

	err := process(context.Background(), os.Stdout, lay, flag.Args())
	if err != nil {
		log.Fatalf("event samples comparison: FAILED: %+v", err)
	}
	log.Printf("event samples comparison: PASSED")
}

func process(ctx context.Context, w io.Writer, lay acq.Layout, fnames []string) error {
	err := lay.Validate()
	if err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}

	sets := make([]es.Set, len(fnames))
	grp, ctx := errgroup.WithContext(ctx)
	for i := range fnames {
		i := i
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			buf, err := raw.Open(fnames[i], lay.Data32)
			if err != nil {
				return err
			}
			sets[i], err = es.Collect(buf, lay)
			if err != nil {
				return fmt.Errorf("could not collect event samples of %q: %w", fnames[i], err)
			}
			return nil
		})
	}

	err = grp.Wait()
	if err != nil {
		return err
	}

	names := make([]string, len(fnames))
	for i, fname := range fnames {
		names[i] = filepath.Base(fname)
	}

	err = es.SideBySide(w, names, sets)
	if err != nil {
		return err
	}

	return es.Check(sets)
}
