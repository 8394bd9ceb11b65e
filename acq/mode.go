// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acq

import (
	"fmt"
)

// Mode is a capture mode of the digitizer.
type Mode uint8

const (
	Post    Mode = iota // post-trigger transient capture
	PrePost             // pre/post-trigger transient capture
	RTM                 // retriggered mode
	RGM                 // retriggered gated mode
	RTMGPG              // retriggered mode, events driven by the GPG

	NumModes = int(RTMGPG) + 1
)

var modeNames = [NumModes]string{
	Post:    "post",
	PrePost: "pre_post",
	RTM:     "rtm",
	RGM:     "rgm",
	RTMGPG:  "rtm_gpg",
}

// Modes returns all capture modes, in the order the regression suite
// runs them.
func Modes() []Mode {
	return []Mode{Post, PrePost, RTM, RTMGPG, RGM}
}

func (m Mode) String() string {
	if int(m) < NumModes {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Valid reports whether m is a known capture mode.
func (m Mode) Valid() bool { return int(m) < NumModes }

// ParseMode parses the name of a capture mode.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("acq: unknown capture mode %q (valid: %v)", s, modeNames)
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("acq: invalid capture mode %d", uint8(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(p []byte) error {
	v, err := ParseMode(string(p))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
