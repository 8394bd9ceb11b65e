// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acq

import (
	"fmt"
	"strconv"
	"strings"
)

// Spec describes how a trigger or an event is generated, as the
// (enable, internal/external, rising/falling) flags tuple.
type Spec [3]uint8

// Common trigger and event specifications.
var (
	ExtFalling = Spec{1, 0, 0}
	ExtRising  = Spec{1, 0, 1}
	Soft       = Spec{1, 1, 1}
)

// ParseSpec parses a comma separated flags tuple, e.g. "1,0,1".
func ParseSpec(s string) (Spec, error) {
	var spec Spec
	toks := strings.Split(strings.TrimSpace(s), ",")
	if len(toks) != len(spec) {
		return spec, fmt.Errorf("acq: invalid spec %q (want 3 flags)", s)
	}
	for i, tok := range toks {
		v, err := strconv.ParseUint(strings.TrimSpace(tok), 10, 8)
		if err != nil {
			return spec, fmt.Errorf("acq: could not parse spec %q: %w", s, err)
		}
		if v > 1 {
			return spec, fmt.Errorf("acq: invalid spec %q (flag %d=%d)", s, i, v)
		}
		spec[i] = uint8(v)
	}
	return spec, nil
}

func (s Spec) String() string {
	return fmt.Sprintf("%d,%d,%d", s[0], s[1], s[2])
}

func (s Spec) Enabled() bool  { return s[0] == 1 }
func (s Spec) Internal() bool { return s[1] == 1 }
func (s Spec) Rising() bool   { return s[2] == 1 }

// Slave returns the spec a slave unit uses when s drives the master:
// slaves are always triggered externally, by the master.
func (s Spec) Slave() Spec {
	s[1] = 0
	return s
}

func (s Spec) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Spec) UnmarshalText(p []byte) error {
	v, err := ParseSpec(string(p))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
