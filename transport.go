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

package xelc

// Transport defines the interface for exchanging frames with a reader module.
// A Transport is owned by exactly one session dispatcher and is never used
// concurrently, so implementations need no internal locking for the
// session's sake.
type Transport interface {
	// SendAndWait sends one frame and waits for the reply carrying the same
	// function code, discarding unrelated frames
	SendAndWait(code byte, data []byte) (*Response, error)

	// Send writes one frame without waiting for a reply
	Send(code byte, data []byte) error

	// Close closes the transport connection
	Close() error

	// IsConnected returns true if the transport is connected
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// TransportFactory creates a transport for a port name
type TransportFactory func(portName string) (Transport, error)

// PortNamer is implemented by transports that know the port they are bound to
type PortNamer interface {
	PortName() string
}

// Response is one inbound frame as seen by the session
type Response struct {
	Data   []byte
	Code   byte
	Status byte
}

// Success reports whether the reader returned StatusSuccess
func (r *Response) Success() bool {
	return r != nil && r.Status == StatusSuccess
}
