// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package es locates the event samples (ES) a digitizer embeds in its
// raw data stream, and checks they agree across synchronized units.
//
// An event sample replaces a whole sample row: every slot of the row
// carries a word starting with the 0xAA55F15 pattern, the first slot
// holding the full Sentinel.
package es // import "github.com/go-lpc/acqreg/es"

import (
	"fmt"
	"strings"

	"github.com/go-lpc/acqreg/acq"
	"github.com/go-lpc/acqreg/raw"
)

const (
	// Sentinel marks the first slot of an event sample.
	Sentinel uint32 = 0xAA55F154

	// Prefix is the hex form shared by every word of an event sample.
	Prefix = "0xAA55F15"

	prefixMask = 0xFFFFFFF0
)

// IsEvent reports whether w carries the event sample pattern.
func IsEvent(w uint32) bool {
	return w&prefixMask == Sentinel&prefixMask
}

// Marker is an event sample located in a raw capture.
type Marker struct {
	Index  int      // sample index
	Offset int      // word offset in the 32-bit view of the capture
	Words  []uint32 // one word per (32-bit) analog channel slot
}

// Hex returns the words of the marker, formatted as 0x-prefixed,
// 8-digit uppercase hexadecimal strings.
func (m Marker) Hex() []string {
	o := make([]string, len(m.Words))
	for i, w := range m.Words {
		o[i] = fmt.Sprintf("0x%08X", w)
	}
	return o
}

// Groups partitions the hex words of the marker into one group per
// aggregated site.
func (m Marker) Groups(sites int) ([][]string, error) {
	if sites < 1 || len(m.Words)%sites != 0 {
		return nil, fmt.Errorf(
			"es: could not split %d words over %d sites",
			len(m.Words), sites,
		)
	}
	var (
		hex = m.Hex()
		n   = len(hex) / sites
		o   = make([][]string, sites)
	)
	for i := range o {
		o[i] = hex[i*n : (i+1)*n]
	}
	return o, nil
}

// Scanner walks a raw capture, one sample row at a time, looking for
// event samples.
// A Scanner makes a single pass over the capture and can not be rewound.
type Scanner struct {
	words  []uint32
	stride int
	nchan  int

	pos int
	cur Marker
}

// NewScanner returns a scanner over buf, laid out as lay.
func NewScanner(buf raw.Buffer, lay acq.Layout) *Scanner {
	return &Scanner{
		words:  buf.Words32(),
		stride: lay.Stride32(),
		nchan:  lay.AIChan32(),
	}
}

// Next advances the scanner to the next event sample.
// It returns false once the end of the capture has been reached.
func (sc *Scanner) Next() bool {
	if sc.stride <= 0 {
		return false
	}
	for ; sc.pos < len(sc.words); sc.pos += sc.stride {
		if sc.words[sc.pos] != Sentinel {
			continue
		}
		end := sc.pos + sc.nchan
		if end > len(sc.words) {
			end = len(sc.words)
		}
		sc.cur = Marker{
			Index:  sc.pos / sc.stride,
			Offset: sc.pos,
			Words:  append([]uint32(nil), sc.words[sc.pos:end]...),
		}
		sc.pos += sc.stride
		return true
	}
	return false
}

// Marker returns the event sample found by the last call to Next.
func (sc *Scanner) Marker() Marker {
	return sc.cur
}

// Locate returns all the event samples of buf.
func Locate(buf raw.Buffer, lay acq.Layout) []Marker {
	var (
		sc = NewScanner(buf, lay)
		ms []Marker
	)
	for sc.Next() {
		ms = append(ms, sc.Marker())
	}
	return ms
}

// Format renders markers in the textual form compared across units:
// one line per site group of each event, words separated by a space, and
// a blank line between events.
func Format(markers []Marker, sites int) (string, error) {
	o := new(strings.Builder)
	for i, m := range markers {
		if i > 0 {
			o.WriteString("\n")
		}
		grps, err := m.Groups(sites)
		if err != nil {
			return "", fmt.Errorf("es: could not format event %d: %w", i, err)
		}
		for _, grp := range grps {
			o.WriteString(strings.Join(grp, " "))
			o.WriteString("\n")
		}
	}
	return o.String(), nil
}

// Set is the event sample content of one unit's capture.
type Set struct {
	Indices []int // sample index of each event sample, not its word offset
	Markers []Marker
	Text    string // hex words, one line per event sample
}

// Collect locates and formats the event samples of buf.
func Collect(buf raw.Buffer, lay acq.Layout) (Set, error) {
	err := lay.Validate()
	if err != nil {
		return Set{}, fmt.Errorf("es: invalid layout: %w", err)
	}

	ms := Locate(buf, lay)
	txt, err := Format(ms, lay.Sites)
	if err != nil {
		return Set{}, err
	}

	set := Set{
		Indices: make([]int, len(ms)),
		Markers: ms,
		Text:    txt,
	}
	for i, m := range ms {
		set.Indices[i] = m.Index
	}
	return set, nil
}
