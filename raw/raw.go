// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package raw decodes raw interleaved capture buffers into per-channel
// samples and the scratchpad sample counter.
package raw // import "github.com/go-lpc/acqreg/raw"

import (
	"encoding/binary"
	"fmt"

	"github.com/go-lpc/acqreg/acq"
	"gonum.org/v1/gonum/mat"
)

// Buffer is a raw capture: fixed-width words of all channels, interleaved
// round-robin, scratchpad included.
//
// A Buffer does not copy the slice it wraps: callers must not modify it
// once handed over.
type Buffer struct {
	w16    []int16
	w32    []int32
	data32 bool
}

// From16 wraps a buffer of 16-bit words.
func From16(p []int16) Buffer {
	return Buffer{w16: p}
}

// From32 wraps a buffer of 32-bit words.
func From32(p []int32) Buffer {
	return Buffer{w32: p, data32: true}
}

// FromBytes decodes a little-endian byte stream into a Buffer.
func FromBytes(p []byte, data32 bool) (Buffer, error) {
	size := 2
	if data32 {
		size = 4
	}
	if len(p)%size != 0 {
		return Buffer{}, &acq.ShapeError{Op: "raw bytes", Len: len(p), Want: size, Mod: true}
	}

	if data32 {
		ws := make([]int32, len(p)/4)
		for i := range ws {
			ws[i] = int32(binary.LittleEndian.Uint32(p[4*i:]))
		}
		return From32(ws), nil
	}

	ws := make([]int16, len(p)/2)
	for i := range ws {
		ws[i] = int16(binary.LittleEndian.Uint16(p[2*i:]))
	}
	return From16(ws), nil
}

// Len returns the number of words in the buffer.
func (b Buffer) Len() int {
	if b.data32 {
		return len(b.w32)
	}
	return len(b.w16)
}

// Data32 reports whether the buffer holds 32-bit words.
func (b Buffer) Data32() bool { return b.data32 }

// At returns the i-th word.
func (b Buffer) At(i int) int32 {
	if b.data32 {
		return b.w32[i]
	}
	return int32(b.w16[i])
}

// Words32 returns the buffer as 32-bit unsigned words.
// 16-bit buffers are reinterpreted, two consecutive words making up one
// little-endian 32-bit word; a trailing odd word is dropped.
func (b Buffer) Words32() []uint32 {
	if b.data32 {
		o := make([]uint32, len(b.w32))
		for i, v := range b.w32 {
			o[i] = uint32(v)
		}
		return o
	}

	o := make([]uint32, len(b.w16)/2)
	for i := range o {
		lo := uint32(uint16(b.w16[2*i]))
		hi := uint32(uint16(b.w16[2*i+1]))
		o[i] = lo | hi<<16
	}
	return o
}

// Bytes returns the little-endian encoding of the buffer.
func (b Buffer) Bytes() []byte {
	if b.data32 {
		o := make([]byte, 4*len(b.w32))
		for i, v := range b.w32 {
			binary.LittleEndian.PutUint32(o[4*i:], uint32(v))
		}
		return o
	}
	o := make([]byte, 2*len(b.w16))
	for i, v := range b.w16 {
		binary.LittleEndian.PutUint16(o[2*i:], uint16(v))
	}
	return o
}

// Counter is the hardware sample counter read from the scratchpad,
// one value per sample.
type Counter []uint32

// Frame holds the decoded content of a raw capture.
type Frame struct {
	Chans   []int      // selected channels, 1-indexed
	Data    *mat.Dense // samples × len(Chans); nil for an empty capture
	Counter Counter
}

// Samples returns the number of decoded samples.
func (f Frame) Samples() int {
	if f.Data == nil {
		return 0
	}
	r, _ := f.Data.Dims()
	return r
}

// Channel returns the samples of channel ch (1-indexed), or nil if ch
// was not selected at decoding time.
func (f Frame) Channel(ch int) []float64 {
	for j, v := range f.Chans {
		if v != ch {
			continue
		}
		if f.Data == nil {
			return []float64{}
		}
		return mat.Col(nil, j, f.Data)
	}
	return nil
}

// Decode de-interleaves buf into the requested channels (1-indexed; all
// analog channels when none is given) and extracts the sample counter
// from the scratchpad.
func Decode(buf Buffer, lay acq.Layout, chans ...int) (Frame, error) {
	err := lay.Validate()
	if err != nil {
		return Frame{}, fmt.Errorf("raw: invalid layout: %w", err)
	}

	if buf.Data32() != lay.Data32 {
		return Frame{}, fmt.Errorf(
			"raw: word width mismatch (buffer data32=%v, layout data32=%v)",
			buf.Data32(), lay.Data32,
		)
	}

	if buf.Len()%lay.NChan != 0 {
		return Frame{}, &acq.ShapeError{Op: "decode", Len: buf.Len(), Want: lay.NChan, Mod: true}
	}

	if len(chans) == 0 {
		chans = make([]int, lay.AIChan)
		for i := range chans {
			chans[i] = i + 1
		}
	}
	for _, ch := range chans {
		if ch < 1 || ch > lay.AIChan {
			return Frame{}, fmt.Errorf(
				"raw: invalid channel %d (want 1..%d)", ch, lay.AIChan,
			)
		}
	}

	var (
		n     = buf.Len() / lay.NChan
		frame = Frame{
			Chans:   append([]int(nil), chans...),
			Counter: counterOf(buf, lay),
		}
	)

	if n > 0 {
		vs := make([]float64, n*len(chans))
		for s := 0; s < n; s++ {
			row := vs[s*len(chans) : (s+1)*len(chans)]
			for j, ch := range chans {
				row[j] = float64(buf.At(s*lay.NChan + ch - 1))
			}
		}
		frame.Data = mat.NewDense(n, len(chans), vs)
	}

	return frame, nil
}

// counterOf extracts the sample counter, stored as a 32-bit register right
// after the analog channels, whatever the sample word width.
func counterOf(buf Buffer, lay acq.Layout) Counter {
	if lay.NChan == lay.AIChan {
		return nil
	}

	var (
		words  = buf.Words32()
		stride = lay.Stride32()
		off    = lay.AIChan32()
		cnt    = make(Counter, 0, len(words)/stride)
	)
	for i := off; i < len(words); i += stride {
		cnt = append(cnt, words[i])
	}
	return cnt
}
