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

// Package uart provides the serial transport for the reader module
package uart

import (
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"

	xelc "github.com/ZaparooProject/go-xelc"
	"github.com/ZaparooProject/go-xelc/internal/frame"
	"github.com/ZaparooProject/go-xelc/internal/transport"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

// DefaultMaxMismatches is how many frames with an unexpected function code
// SendAndWait tolerates before giving up
const DefaultMaxMismatches = 3

// Port is the subset of serial.Port the transport needs
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Option configures a Transport
type Option func(*Transport)

// WithLogger sets the logger used for frame tracing and diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithDebug enables hex dumps of every frame sent and received
func WithDebug(debug bool) Option {
	return func(t *Transport) {
		t.debug = debug
	}
}

// WithPortOptions overrides the serial line settings. Only used by New.
func WithPortOptions(opts PortOptions) Option {
	return func(t *Transport) {
		t.portOpts = opts
	}
}

// WithMaxRetries sets the per-field read retry count
func WithMaxRetries(n int) Option {
	return func(t *Transport) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithMaxMismatches sets how many unexpected frames SendAndWait discards
func WithMaxMismatches(n int) Option {
	return func(t *Transport) {
		if n >= 0 {
			t.maxMismatches = n
		}
	}
}

// Transport talks to the reader over a serial port
type Transport struct {
	port          Port
	reader        *transport.Reader
	logger        *zap.Logger
	portName      string
	portOpts      PortOptions
	maxRetries    int
	maxMismatches int
	mu            sync.Mutex
	debug         bool
}

var _ xelc.Transport = (*Transport)(nil)

func newTransport(portName string, opts []Option) *Transport {
	t := &Transport{
		portName:      portName,
		portOpts:      DefaultPortOptions(),
		logger:        zap.NewNop(),
		maxRetries:    frame.DefaultMaxRetries,
		maxMismatches: DefaultMaxMismatches,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With(zap.String("port", portName))
	return t
}

// New opens portName with the reader's line settings
func New(portName string, opts ...Option) (*Transport, error) {
	t := newTransport(portName, opts)

	portOpts, err := t.portOpts.Normalize()
	if err != nil {
		return nil, fmt.Errorf("invalid port options: %w", err)
	}
	mode, err := portOpts.SerialMode()
	if err != nil {
		return nil, fmt.Errorf("invalid port options: %w", err)
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, xelc.NewTransportError("open", portName, err, xelc.ErrorTypePermanent)
	}
	if err := port.SetReadTimeout(portOpts.ReadTimeout); err != nil {
		_ = port.Close()
		return nil, xelc.NewTransportError("set timeout", portName, err, xelc.ErrorTypePermanent)
	}

	t.portOpts = portOpts
	t.attach(port)
	t.logger.Debug("serial port opened",
		zap.Int("baud", portOpts.BaudRate),
		zap.Duration("read_timeout", portOpts.ReadTimeout))
	return t, nil
}

// NewWithPort wraps an already open port
func NewWithPort(port Port, portName string, opts ...Option) *Transport {
	t := newTransport(portName, opts)
	t.attach(port)
	return t
}

func (t *Transport) attach(port Port) {
	t.port = port
	t.reader = transport.NewReader(port, t.portName, t.maxRetries)
}

// Send writes one frame without waiting for a reply
func (t *Transport) Send(code byte, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.send(code, data)
}

func (t *Transport) send(code byte, data []byte) error {
	if t.port == nil {
		return xelc.ErrTransportClosed
	}

	buf, err := frame.Encode(code, data)
	if err != nil {
		return err
	}
	if t.debug {
		t.logger.Debug("tx", zap.String("frame", hex.EncodeToString(buf)))
	}
	if err := transport.WriteAll(t.port, buf); err != nil {
		return xelc.NewWriteError("send", t.portName, err)
	}
	return nil
}

// SendAndWait writes one frame and reads frames until one carries the same
// function code. Frames for other codes are discarded; after more than
// maxMismatches of them the exchange fails with a response timeout.
func (t *Transport) SendAndWait(code byte, data []byte) (*xelc.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.send(code, data); err != nil {
		return nil, err
	}

	mismatches := 0
	for {
		frm, err := frame.Decode(t.reader, t.portName)
		if err != nil {
			return nil, err
		}
		if t.debug {
			t.logger.Debug("rx",
				zap.Uint8("code", frm.Code),
				zap.Uint8("status", frm.Status),
				zap.String("data", hex.EncodeToString(frm.Data)))
		}

		if frm.Code == code {
			return &xelc.Response{
				Code:   frm.Code,
				Status: frm.Status,
				Data:   frm.Data,
			}, nil
		}

		mismatches++
		t.logger.Debug("discarding frame for another function",
			zap.Uint8("want", code),
			zap.Uint8("got", frm.Code),
			zap.Int("mismatches", mismatches))
		if mismatches > t.maxMismatches {
			return nil, xelc.NewResponseTimeoutError("send and wait", t.portName, code)
		}
	}
}

// Close releases the serial port
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	t.reader = nil
	if err != nil {
		return xelc.NewTransportError("close", t.portName, err, xelc.ErrorTypePermanent)
	}
	return nil
}

// SetTimeout changes the serial read timeout
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return xelc.ErrTransportClosed
	}
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return xelc.NewTransportError("set timeout", t.portName, err, xelc.ErrorTypePermanent)
	}
	t.portOpts.ReadTimeout = timeout
	return nil
}

// IsConnected reports whether the port is open
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() xelc.TransportType {
	return xelc.TransportUART
}

// PortName returns the serial device path
func (t *Transport) PortName() string {
	return t.portName
}
