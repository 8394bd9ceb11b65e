// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package acqreg holds code for the regression tests of ACQ400-class
// waveform digitizers.
//
// A regression iteration captures a known stimulus on one or more
// synchronized units (UUTs), then:
//   - decodes the raw interleaved sample stream (package raw),
//   - locates the event samples embedded by the hardware (package es),
//   - synthesizes the ideal waveform for the capture mode (package ideal),
//   - compares captured channels against it and validates the
//     scratchpad sample counter (package verify).
//
// Package regress chains these steps for a whole iteration.
package acqreg // import "github.com/go-lpc/acqreg"

import (
	"fmt"
	"runtime/debug"
)

// Version returns the version of acqreg and its checksum.
// The returned values are only valid in binaries built with module support.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return versionOf(b)
}

func versionOf(b *debug.BuildInfo) (version, sum string) {
	if b == nil {
		return "", ""
	}

	const root = "github.com/go-lpc/acqreg"
	if b.Main.Path == root {
		return b.Main.Version, b.Main.Sum
	}
	for _, m := range b.Deps {
		if m.Path != root {
			continue
		}
		if m.Replace != nil {
			switch {
			case m.Replace.Version != "" && m.Replace.Path != "":
				return fmt.Sprintf("%s %s", m.Replace.Path, m.Replace.Version), m.Replace.Sum
			case m.Replace.Version != "":
				return m.Replace.Version, m.Replace.Sum
			case m.Replace.Path != "":
				return m.Replace.Path, m.Replace.Sum
			default:
				return m.Version + "*", ""
			}
		}
		return m.Version, m.Sum
	}
	return "", ""
}
