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

package testing

import (
	"errors"
	"io"
	"sync"
	"time"

	xelc "github.com/ZaparooProject/go-xelc"
	"github.com/ZaparooProject/go-xelc/internal/frame"
)

// ErrPortClosed is returned by reads and writes after Close
var ErrPortClosed = errors.New("virtual port closed")

// VirtualReader simulates the reader module behind a serial port. Frames
// written to it are parsed and answered the way the hardware answers them;
// replies are queued for Read. A Read with nothing queued returns (0, nil),
// the same as a serial read timing out.
type VirtualReader struct {
	tag         *VirtualTag
	statuses    map[byte]byte
	silent      map[byte]bool
	received    []*frame.Frame
	tx          []byte
	rx          []byte
	chunk       int
	readTimeout time.Duration
	mu          sync.Mutex
	cardType    xelc.CardType
	closed      bool
	buzzer      byte
	uidReport   byte
}

// NewVirtualReader creates a reader emulating cardType with tag in its
// field. A nil tag means no card is present.
func NewVirtualReader(cardType xelc.CardType, tag *VirtualTag) *VirtualReader {
	return &VirtualReader{
		tag:      tag,
		cardType: cardType,
		statuses: make(map[byte]byte),
		silent:   make(map[byte]bool),
	}
}

// SetTag replaces the card in the field
func (v *VirtualReader) SetTag(tag *VirtualTag) {
	v.mu.Lock()
	v.tag = tag
	v.mu.Unlock()
}

// FailCode makes every request for code answer with status
func (v *VirtualReader) FailCode(code, status byte) {
	v.mu.Lock()
	v.statuses[code] = status
	v.mu.Unlock()
}

// SilenceCode makes requests for code go unanswered
func (v *VirtualReader) SilenceCode(code byte) {
	v.mu.Lock()
	v.silent[code] = true
	v.mu.Unlock()
}

// ClearFailures removes all injected statuses and silences
func (v *VirtualReader) ClearFailures() {
	v.mu.Lock()
	clear(v.statuses)
	clear(v.silent)
	v.mu.Unlock()
}

// Inject queues raw bytes for the host to read ahead of any reply
func (v *VirtualReader) Inject(data []byte) {
	v.mu.Lock()
	v.rx = append(v.rx, data...)
	v.mu.Unlock()
}

// SetChunkSize limits how many bytes one Read returns. Zero means no limit.
func (v *VirtualReader) SetChunkSize(n int) {
	v.mu.Lock()
	v.chunk = n
	v.mu.Unlock()
}

// Received returns every well-formed frame the host has sent
func (v *VirtualReader) Received() []*frame.Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]*frame.Frame(nil), v.received...)
}

// ReceivedCodes returns the function codes of every frame the host has sent
func (v *VirtualReader) ReceivedCodes() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	codes := make([]byte, 0, len(v.received))
	for _, f := range v.received {
		codes = append(codes, f.Code)
	}
	return codes
}

// Buzzer returns the last buzzer setting received
func (v *VirtualReader) Buzzer() byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.buzzer
}

// UIDReport returns the last UID report setting received
func (v *VirtualReader) UIDReport() byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.uidReport
}

// Read implements io.Reader
func (v *VirtualReader) Read(p []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return 0, ErrPortClosed
	}
	if len(v.rx) == 0 {
		return 0, nil
	}

	n := len(p)
	if v.chunk > 0 {
		n = min(n, v.chunk)
	}
	n = copy(p[:n], v.rx)
	v.rx = v.rx[n:]
	return n, nil
}

// Write implements io.Writer. Complete frames are answered immediately.
func (v *VirtualReader) Write(p []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return 0, ErrPortClosed
	}

	v.tx = append(v.tx, p...)
	for len(v.tx) > 0 {
		frm, consumed, err := frame.ParseOutbound(v.tx)
		if errors.Is(err, frame.ErrIncomplete) {
			v.tx = v.tx[consumed:]
			break
		}
		v.tx = v.tx[consumed:]
		if err != nil {
			continue
		}
		v.received = append(v.received, frm)
		v.rx = append(v.rx, v.respond(frm)...)
	}
	return len(p), nil
}

// Close implements io.Closer
func (v *VirtualReader) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return io.ErrClosedPipe
	}
	v.closed = true
	return nil
}

// SetReadTimeout records the timeout; reads never block
func (v *VirtualReader) SetReadTimeout(t time.Duration) error {
	v.mu.Lock()
	v.readTimeout = t
	v.mu.Unlock()
	return nil
}

// respond builds the reply for one request. Must hold v.mu.
func (v *VirtualReader) respond(req *frame.Frame) []byte {
	code := req.Code
	if v.silent[code] {
		return nil
	}
	if status, ok := v.statuses[code]; ok {
		return BuildErrorResponse(code, status)
	}

	switch code {
	case xelc.FnSetBuzzer:
		if len(req.Data) > 0 {
			v.buzzer = req.Data[0]
		}
		return BuildResponse(code, xelc.StatusSuccess, nil)
	case xelc.FnUIDReportSet:
		if len(req.Data) > 0 {
			v.uidReport = req.Data[0]
		}
		return nil
	}

	tag := v.tag
	if tag == nil || !tag.Present() {
		return BuildNoCardResponse(code)
	}

	switch code {
	case v.cardType.ReadUIDCode():
		return BuildUIDResponse(code, tag.UID)
	case v.cardType.ReadDataCode():
		if len(req.Data) < 1 {
			return BuildErrorResponse(code, xelc.StatusDataLength)
		}
		// CPU cards share one code for reads and writes
		if v.cardType.ReadDataCode() == v.cardType.WriteDataCode() && len(req.Data) > 1 {
			return v.writePage(code, tag, req.Data)
		}
		data, err := tag.ReadPage(int(req.Data[0]))
		if err != nil {
			return BuildErrorResponse(code, xelc.StatusReadWriteError)
		}
		return BuildDataResponse(code, data)
	case v.cardType.WriteDataCode():
		return v.writePage(code, tag, req.Data)
	}

	return BuildErrorResponse(code, xelc.StatusParameter)
}

func (*VirtualReader) writePage(code byte, tag *VirtualTag, data []byte) []byte {
	if len(data) < 1 {
		return BuildErrorResponse(code, xelc.StatusDataLength)
	}
	if err := tag.WritePage(int(data[0]), data[1:]); err != nil {
		return BuildErrorResponse(code, xelc.StatusReadWriteError)
	}
	return BuildResponse(code, xelc.StatusSuccess, nil)
}

// ReadTimeout returns the last timeout set through SetReadTimeout
func (v *VirtualReader) ReadTimeout() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.readTimeout
}
