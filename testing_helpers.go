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

import (
	"slices"
	"sync"
)

// MockCall records one frame handed to a MockTransport
type MockCall struct {
	Data []byte
	Code byte
	Wait bool
}

// MockTransport is a response-level transport for testing sessions without
// a byte stream. Replies are produced by ResponseFunc, or by per-code
// responses set with SetResponse; unknown codes yield an error status.
type MockTransport struct {
	ResponseFunc func(code byte, data []byte) (*Response, error)
	SendErr      error
	responses    map[byte]*Response
	calls        []MockCall
	mu           sync.Mutex
	closed       bool
	closeCount   int
}

// NewMockTransport creates a new mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[byte]*Response),
	}
}

// NewMockTransportWithFunc creates a mock transport with a response function
func NewMockTransportWithFunc(fn func(code byte, data []byte) (*Response, error)) *MockTransport {
	mock := NewMockTransport()
	mock.ResponseFunc = fn
	return mock
}

// SetResponse configures a fixed response for a function code
func (m *MockTransport) SetResponse(code, status byte, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[code] = &Response{Code: code, Status: status, Data: slices.Clone(data)}
}

// SendAndWait records the call and returns the configured response
func (m *MockTransport) SendAndWait(code byte, data []byte) (*Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Code: code, Data: slices.Clone(data), Wait: true})
	fn := m.ResponseFunc
	resp := m.responses[code]
	closed := m.closed
	m.mu.Unlock()

	if closed {
		return nil, ErrTransportClosed
	}
	if fn != nil {
		return fn(code, data)
	}
	if resp == nil {
		return &Response{Code: code, Status: StatusParameter}, nil
	}
	return &Response{Code: resp.Code, Status: resp.Status, Data: slices.Clone(resp.Data)}, nil
}

// Send records a fire-and-forget frame
func (m *MockTransport) Send(code byte, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Code: code, Data: slices.Clone(data)})
	if m.closed {
		return ErrTransportClosed
	}
	return m.SendErr
}

// Calls returns the recorded calls, optionally filtered by function code
func (m *MockTransport) Calls(codes ...byte) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MockCall
	for _, c := range m.calls {
		if len(codes) == 0 || slices.Contains(codes, c.Code) {
			out = append(out, c)
		}
	}
	return out
}

// Close marks the transport closed
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.closeCount++
	return nil
}

// CloseCount returns how many times Close was called
func (m *MockTransport) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCount
}

// IsConnected reports whether Close has not been called
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// PortName returns a fixed name for log fields
func (*MockTransport) PortName() string {
	return "mock"
}
