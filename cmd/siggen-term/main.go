// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// siggen-term is an interactive SCPI terminal for the signal generator
// driving the digitizer inputs.
//
// Commands ending with '?' are queries: their reply is displayed.
// 'trig' sends a bus trigger, 'quit' (or Ctrl-D) exits.
//
// Usage: siggen-term [OPTIONS] ADDR
//
// Example:
//
//	$> siggen-term -cfg=rtm -freq=20 192.168.0.42
//	siggen-term: configuring generator for rtm (trg=1,0,1, freq=20Hz)...
//	siggen> *IDN?
//	Agilent Technologies,33622A,MY1234,A.02
//	siggen> quit
package main // import "github.com/go-lpc/acqreg/cmd/siggen-term"

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-lpc/acqreg/acq"
	"github.com/go-lpc/acqreg/siggen"
	"github.com/peterh/liner"
)

func main() {
	log.SetPrefix("siggen-term: ")
	log.SetFlags(0)

	var (
		mode acq.Mode
		trg  = acq.ExtRising
		cfg  = flag.String("cfg", "", "capture mode to configure the generator for (post, pre_post, rtm, rgm, rtm_gpg)")
		freq = flag.Float64("freq", 20, "signal frequency (Hz)")
		hist = flag.String("history", filepath.Join(os.TempDir(), ".siggen-term.history"), "path to history file")
	)
	flag.TextVar(&trg, "trg", acq.ExtRising, "trigger spec (enabled,internal,rising)")

	flag.Usage = func() {
		fmt.Printf(`siggen-term is an interactive SCPI terminal for the signal generator.

Usage: siggen-term [OPTIONS] ADDR

Example:

 $> siggen-term -cfg=rtm -freq=20 192.168.0.42

Options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("missing signal generator address")
	}

	if *cfg != "" {
		err := mode.UnmarshalText([]byte(*cfg))
		if err != nil {
			log.Fatalf("invalid capture mode %q: %+v", *cfg, err)
		}
	}

	gen, err := siggen.Dial(flag.Arg(0))
	if err != nil {
		log.Fatalf("could not connect to signal generator: %+v", err)
	}
	defer gen.Close()

	if *cfg != "" {
		log.Printf("configuring generator for %v (trg=%v, freq=%gHz)...", mode, trg, *freq)
		err = gen.Configure(mode, trg, *freq)
		if err != nil {
			log.Fatalf("could not configure signal generator: %+v", err)
		}
	}

	term := liner.NewLiner()
	defer term.Close()
	term.SetCtrlCAborts(true)

	if f, err := os.Open(*hist); err == nil {
		_, _ = term.ReadHistory(f)
		f.Close()
	}

	err = shell(os.Stdout, term, gen)
	if err != nil {
		term.Close()
		log.Fatalf("%+v", err)
	}

	if f, err := os.Create(*hist); err == nil {
		_, _ = term.WriteHistory(f)
		f.Close()
	}
}

type prompter interface {
	Prompt(p string) (string, error)
	AppendHistory(item string)
}

type generator interface {
	Send(cmd string) error
	Query(cmd string) (string, error)
	Trigger() error
}

// shell runs the read-eval-print loop until the user quits.
// Generator errors are displayed and do not end the session.
func shell(w io.Writer, term prompter, gen generator) error {
	for {
		line, err := term.Prompt("siggen> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(w)
				return nil
			}
			return fmt.Errorf("could not read command: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		term.AppendHistory(line)

		switch strings.ToLower(line) {
		case "quit", "exit", "q":
			return nil
		case "trig":
			err = gen.Trigger()
		default:
			if strings.HasSuffix(line, "?") {
				var reply string
				reply, err = gen.Query(line)
				if err == nil {
					fmt.Fprintln(w, reply)
				}
				break
			}
			err = gen.Send(line)
		}
		if err != nil {
			fmt.Fprintf(w, "error: %+v\n", err)
		}
	}
}
