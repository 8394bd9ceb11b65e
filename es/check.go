// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package es

import (
	"fmt"
	"io"
	"strings"
)

// MismatchError reports event samples that disagree across units, or
// that could not be decoded as event samples.
type MismatchError struct {
	Unit   int // index of the offending unit
	Reason string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("es: unit %d: %s", e.Unit, e.Reason)
}

// Check verifies that all units captured the same event samples at the
// same sample positions, and that every event word carries the event
// sample pattern.
func Check(sets []Set) error {
	for i, set := range sets {
		err := checkPattern(set)
		if err != nil {
			return &MismatchError{Unit: i, Reason: err.Error()}
		}
	}

	if len(sets) < 2 {
		return nil
	}

	ref := sets[0]
	for i, set := range sets[1:] {
		switch {
		case !equalInts(set.Indices, ref.Indices):
			return &MismatchError{
				Unit: i + 1,
				Reason: fmt.Sprintf(
					"event indices differ (got=%v, want=%v)",
					set.Indices, ref.Indices,
				),
			}
		case set.Text != ref.Text:
			return &MismatchError{
				Unit:   i + 1,
				Reason: "event sample content differs from unit 0",
			}
		}
	}
	return nil
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func checkPattern(set Set) error {
	for _, m := range set.Markers {
		for j, hex := range m.Hex() {
			if !strings.HasPrefix(hex, Prefix) {
				return fmt.Errorf(
					"event at sample %d: word %d (%s) misses the %s pattern",
					m.Index, j, hex, Prefix,
				)
			}
		}
	}
	return nil
}

// SideBySide writes the event samples of all units next to each other,
// one unit per column, followed by the event indices of each unit.
func SideBySide(w io.Writer, names []string, sets []Set) error {
	var (
		cols  = make([][]string, len(sets))
		nrows = 0
		width = 0
	)
	for i, set := range sets {
		cols[i] = strings.Split(strings.TrimSuffix(set.Text, "\n"), "\n")
		if len(cols[i]) > nrows {
			nrows = len(cols[i])
		}
		for _, line := range cols[i] {
			if len(line) > width {
				width = len(line)
			}
		}
	}

	for r := 0; r < nrows; r++ {
		row := make([]string, len(cols))
		for i, col := range cols {
			if r < len(col) {
				row[i] = col[r]
			}
			row[i] = fmt.Sprintf("%-*s", width, row[i])
		}
		_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(row, "  "), " "))
		if err != nil {
			return fmt.Errorf("es: could not write event samples: %w", err)
		}
	}

	for i, set := range sets {
		name := fmt.Sprintf("unit-%d", i)
		if i < len(names) {
			name = names[i]
		}
		_, err := fmt.Fprintf(w, "%s: %v\n", name, set.Indices)
		if err != nil {
			return fmt.Errorf("es: could not write event indices: %w", err)
		}
	}
	return nil
}
