// go-xelc
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-xelc.
//
// go-xelc is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-xelc is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-xelc; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package transport

import (
	"encoding/binary"
	"errors"
	"io"
	"time"

	xelc "github.com/ZaparooProject/go-xelc"
)

// Reader reads protocol fields from a port whose reads may return early
// with no data (a serial port with a read timeout). An empty or short read
// is retried after RetryDelay, up to MaxRetries consecutive times.
type Reader struct {
	r          io.Reader
	port       string
	MaxRetries int
	RetryDelay time.Duration
}

// NewReader creates a Reader with the given retry bound and a 1ms delay
func NewReader(r io.Reader, port string, maxRetries int) *Reader {
	return &Reader{
		r:          r,
		port:       port,
		MaxRetries: maxRetries,
		RetryDelay: time.Millisecond,
	}
}

// ReadByte reads a single byte
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.read(1, "read byte")
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a little-endian 16-bit value
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.read(2, "read u16")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadExact reads exactly n bytes, accumulating partial reads
func (r *Reader) ReadExact(n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	return r.read(n, "read bytes")
}

// read fills a buffer of n bytes. The retry budget applies to consecutive
// reads that return nothing; any progress resets it.
func (r *Reader) read(n int, op string) ([]byte, error) {
	buf := make([]byte, n)
	got := 0

	config := RetryConfig{
		Description: op,
		Port:        r.port,
		MaxRetries:  r.MaxRetries,
		RetryDelay:  r.RetryDelay,
	}

	for got < n {
		k, err := WithRetry(config, func() (int, bool, error) {
			k, err := r.r.Read(buf[got:])
			if err != nil && !errors.Is(err, io.EOF) {
				return 0, false, xelc.NewReadError(op, r.port, err)
			}
			return k, k == 0, nil
		})
		if err != nil {
			return nil, err
		}
		got += k
	}

	return buf, nil
}

// WriteAll writes the whole buffer, propagating the first write error
func WriteAll(w io.Writer, data []byte) error {
	for len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		data = data[n:]
	}
	return nil
}
