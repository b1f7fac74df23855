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
)

// Transport errors
var (
	ErrTransportTimeout = errors.New("transport timeout")
	ErrTransportRead    = errors.New("transport read failed")
	ErrTransportWrite   = errors.New("transport write failed")
	ErrTransportClosed  = errors.New("transport closed")
)

// Protocol errors
var (
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrFrameTooLarge    = errors.New("frame payload too large")
	ErrResponseTimeout  = errors.New("no matching response")
)

// Session errors
var (
	ErrSessionNotOpen   = errors.New("session not open")
	ErrSessionClosed    = errors.New("session closed")
	ErrInvalidCardType  = errors.New("invalid card type")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ErrorType classifies errors for retry decisions
type ErrorType int

const (
	// ErrorTypePermanent errors will not go away by retrying
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors may succeed on a later attempt
	ErrorTypeTransient
	// ErrorTypeTimeout errors are timeouts at the byte, frame or response level
	ErrorTypeTimeout
	// ErrorTypeProtocol errors are malformed or corrupted frames
	ErrorTypeProtocol
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeProtocol:
		return "protocol"
	default:
		return "permanent"
	}
}

// TransportError wraps a low-level error with the operation and port it came from
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

func (e *TransportError) Error() string {
	if e.Port == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a transport error
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient || errType == ErrorTypeTimeout,
	}
}

// NewTimeoutError creates a byte/frame level timeout error
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewReadError wraps an I/O error returned while reading from the port
func NewReadError(op, port string, cause error) *TransportError {
	return NewTransportError(op, port, fmt.Errorf("%w: %w", ErrTransportRead, cause), ErrorTypeTransient)
}

// NewWriteError wraps an I/O error returned while writing to the port
func NewWriteError(op, port string, cause error) *TransportError {
	return NewTransportError(op, port, fmt.Errorf("%w: %w", ErrTransportWrite, cause), ErrorTypeTransient)
}

// NewChecksumError reports a CRC mismatch between the received and computed values
func NewChecksumError(op, port string, got, want uint16) *TransportError {
	return &TransportError{
		Op:   op,
		Port: port,
		Err:  fmt.Errorf("%w: received %#04x, computed %#04x", ErrChecksumMismatch, got, want),
		Type: ErrorTypeProtocol,
	}
}

// NewResponseTimeoutError reports that no frame with the requested function code arrived
func NewResponseTimeoutError(op, port string, code byte) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       fmt.Errorf("%w for function code %#02x: %w", ErrResponseTimeout, code, ErrTransportTimeout),
		Type:      ErrorTypeTimeout,
		Retryable: true,
	}
}

// IsRetryable reports whether an operation failing with err may be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrChecksumMismatch):
		return true
	default:
		return false
	}
}

// GetErrorType classifies err
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrTransportTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrChecksumMismatch), errors.Is(err, ErrFrameTooLarge):
		return ErrorTypeProtocol
	case errors.Is(err, ErrTransportRead), errors.Is(err, ErrTransportWrite):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}

// IsTimeout reports whether err is any of the protocol timeouts
func IsTimeout(err error) bool {
	return GetErrorType(err) == ErrorTypeTimeout
}
