// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package raw

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/go-lpc/acqreg/internal/mmap"
	"golang.org/x/xerrors"
)

const chunkSize = 1 << 16

// Decoder reads little-endian capture words from an underlying data source,
// as written by the UUT muxed-data dump.
type Decoder struct {
	r      io.Reader
	data32 bool

	buf []byte
	err error
}

// NewDecoder creates a decoder that reads 16-bit (or 32-bit, if data32 is
// set) words from r.
func NewDecoder(r io.Reader, data32 bool) *Decoder {
	return &Decoder{
		r:      r,
		data32: data32,
		buf:    make([]byte, chunkSize),
	}
}

func (dec *Decoder) wordSize() int {
	if dec.data32 {
		return 4
	}
	return 2
}

// Decode reads all the words up to the end of the stream.
func (dec *Decoder) Decode(buf *Buffer) error {
	var (
		size = dec.wordSize()
		w16  []int16
		w32  []int32
	)

loop:
	for {
		n := dec.load()
		if n%size != 0 {
			return xerrors.Errorf(
				"raw: stream ends with a partial %d-bit word: %w",
				8*size, io.ErrUnexpectedEOF,
			)
		}

		p := dec.buf[:n]
		switch {
		case dec.data32:
			for i := 0; i < n; i += 4 {
				w32 = append(w32, int32(binary.LittleEndian.Uint32(p[i:])))
			}
		default:
			for i := 0; i < n; i += 2 {
				w16 = append(w16, int16(binary.LittleEndian.Uint16(p[i:])))
			}
		}

		switch {
		case dec.err == nil:
			continue
		case xerrors.Is(dec.err, io.EOF), xerrors.Is(dec.err, io.ErrUnexpectedEOF):
			break loop
		default:
			return xerrors.Errorf("raw: could not read capture words: %w", dec.err)
		}
	}

	if dec.data32 {
		*buf = From32(w32)
	} else {
		*buf = From16(w16)
	}
	return nil
}

func (dec *Decoder) load() int {
	if dec.err != nil {
		return 0
	}
	var n int
	n, dec.err = io.ReadFull(dec.r, dec.buf)
	return n
}

// Encoder writes capture words to an output stream, little-endian.
type Encoder struct {
	w   io.Writer
	err error
}

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes all the words of buf to the stream.
func (enc *Encoder) Encode(buf Buffer) error {
	if enc.err != nil {
		return enc.err
	}
	_, enc.err = enc.w.Write(buf.Bytes())
	if enc.err != nil {
		return xerrors.Errorf("raw: could not write capture words: %w", enc.err)
	}
	return nil
}

// Open memory-maps the named shot file and decodes its words.
func Open(fname string, data32 bool) (Buffer, error) {
	h, err := mmap.Open(fname)
	if err != nil {
		return Buffer{}, xerrors.Errorf("raw: could not open shot file: %w", err)
	}
	defer h.Close()

	buf, err := FromBytes(h.Bytes(), data32)
	if err != nil {
		return Buffer{}, xerrors.Errorf("raw: could not decode shot file %q: %w", fname, err)
	}
	return buf, nil
}

// WriteFile saves buf as a shot file.
func WriteFile(fname string, buf Buffer) error {
	f, err := os.Create(fname)
	if err != nil {
		return xerrors.Errorf("raw: could not create shot file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	err = NewEncoder(w).Encode(buf)
	if err != nil {
		return xerrors.Errorf("raw: could not encode shot file %q: %w", fname, err)
	}

	err = w.Flush()
	if err != nil {
		return xerrors.Errorf("raw: could not flush shot file %q: %w", fname, err)
	}

	err = f.Close()
	if err != nil {
		return xerrors.Errorf("raw: could not close shot file %q: %w", fname, err)
	}
	return nil
}
