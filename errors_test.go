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
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "transport timeout retryable", err: ErrTransportTimeout, want: true},
		{name: "transport read retryable", err: ErrTransportRead, want: true},
		{name: "transport write retryable", err: ErrTransportWrite, want: true},
		{name: "checksum mismatch retryable", err: ErrChecksumMismatch, want: true},
		{name: "frame too large not retryable", err: ErrFrameTooLarge, want: false},
		{name: "session closed not retryable", err: ErrSessionClosed, want: false},
		{name: "invalid parameter not retryable", err: ErrInvalidParameter, want: false},
		{name: "wrapped retryable error", err: fmt.Errorf("outer: %w", ErrTransportTimeout), want: true},
		{name: "stringified retryable error", err: errors.New("outer: " + ErrTransportTimeout.Error()), want: false},
		{name: "response timeout", err: NewResponseTimeoutError("exchange", "p", 0x40), want: true},
		{name: "checksum transport error", err: NewChecksumError("decode", "p", 1, 2), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := IsRetryable(tt.err)
			if got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetErrorType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		name string
		want ErrorType
	}{
		{name: "nil error", err: nil, want: ErrorTypePermanent},
		{name: "transport timeout", err: ErrTransportTimeout, want: ErrorTypeTimeout},
		{name: "transport read", err: ErrTransportRead, want: ErrorTypeTransient},
		{name: "transport write", err: ErrTransportWrite, want: ErrorTypeTransient},
		{name: "checksum mismatch", err: ErrChecksumMismatch, want: ErrorTypeProtocol},
		{name: "frame too large", err: ErrFrameTooLarge, want: ErrorTypeProtocol},
		{name: "unknown error", err: errors.New("unknown error"), want: ErrorTypePermanent},
		{name: "timeout constructor", err: NewTimeoutError("read byte", "p"), want: ErrorTypeTimeout},
		{name: "read constructor", err: NewReadError("read byte", "p", errors.New("eio")), want: ErrorTypeTransient},
		{name: "checksum constructor", err: NewChecksumError("decode", "p", 1, 2), want: ErrorTypeProtocol},
		{
			name: "wrapped transport error",
			err:  fmt.Errorf("poll: %w", NewResponseTimeoutError("exchange", "p", 0x20)),
			want: ErrorTypeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := GetErrorType(tt.err)
			if got != tt.want {
				t.Errorf("GetErrorType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	cause := errors.New("input/output error")
	err := NewWriteError("send", "/dev/ttyUSB0", cause)

	if !errors.Is(err, ErrTransportWrite) {
		t.Error("write error does not match ErrTransportWrite")
	}
	if !errors.Is(err, cause) {
		t.Error("write error does not wrap its cause")
	}
	if !err.Retryable {
		t.Error("write error should be retryable")
	}
	if got := err.Error(); !strings.HasPrefix(got, "send on /dev/ttyUSB0: ") {
		t.Errorf("Error() = %q", got)
	}

	noPort := NewTransportError("open", "", cause, ErrorTypePermanent)
	if got, want := noPort.Error(), "open: input/output error"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if noPort.Retryable {
		t.Error("permanent error should not be retryable")
	}
}

func TestResponseTimeoutError(t *testing.T) {
	t.Parallel()

	err := NewResponseTimeoutError("send and wait", "COM3", 0x41)
	if !errors.Is(err, ErrResponseTimeout) {
		t.Error("does not match ErrResponseTimeout")
	}
	if !errors.Is(err, ErrTransportTimeout) {
		t.Error("does not match ErrTransportTimeout")
	}
	if !IsTimeout(err) {
		t.Error("IsTimeout() = false")
	}
	if !strings.Contains(err.Error(), "0x41") {
		t.Errorf("Error() = %q, want function code in message", err.Error())
	}
}

func TestErrorTypeString(t *testing.T) {
	t.Parallel()
	tests := map[ErrorType]string{
		ErrorTypePermanent: "permanent",
		ErrorTypeTransient: "transient",
		ErrorTypeTimeout:   "timeout",
		ErrorTypeProtocol:  "protocol",
		ErrorType(99):      "permanent",
	}
	for typ, want := range tests {
		if got := typ.String(); got != want {
			t.Errorf("ErrorType(%d).String() = %q, want %q", int(typ), got, want)
		}
	}
}
