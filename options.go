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
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultPollInterval is the UID polling period used when none is configured
const DefaultPollInterval = 300 * time.Millisecond

// SessionConfig contains configuration options for a Session
type SessionConfig struct {
	// Logger receives session and dispatcher events
	Logger *zap.Logger
	// PollInterval is the minimum time between two UID polls
	PollInterval time.Duration
	// Debug logs every non-success status returned by the reader
	Debug bool
	// Polling is the initial value of the polling flag
	Polling bool
	// portName overrides the name reported by the transport
	portName string
}

// DefaultSessionConfig returns default session configuration
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		Logger:       zap.NewNop(),
		PollInterval: DefaultPollInterval,
		Polling:      true,
	}
}

// Option is a functional option for configuring a Session
type Option func(*SessionConfig) error

// WithPollInterval sets how often the dispatcher polls for a card UID
func WithPollInterval(interval time.Duration) Option {
	return func(c *SessionConfig) error {
		if interval < 0 {
			return fmt.Errorf("%w: negative poll interval %v", ErrInvalidParameter, interval)
		}
		c.PollInterval = interval
		return nil
	}
}

// WithDebug enables verbose logging of reader status codes
func WithDebug(debug bool) Option {
	return func(c *SessionConfig) error {
		c.Debug = debug
		return nil
	}
}

// WithLogger sets the logger used by the session
func WithLogger(logger *zap.Logger) Option {
	return func(c *SessionConfig) error {
		if logger == nil {
			logger = zap.NewNop()
		}
		c.Logger = logger
		return nil
	}
}

// WithPolling sets the initial value of the polling flag
func WithPolling(enabled bool) Option {
	return func(c *SessionConfig) error {
		c.Polling = enabled
		return nil
	}
}

// withPortName records the port the transport was opened on
func withPortName(name string) Option {
	return func(c *SessionConfig) error {
		c.portName = name
		return nil
	}
}
