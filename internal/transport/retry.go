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

// Package transport provides internal transport utilities
package transport

import (
	"time"

	xelc "github.com/ZaparooProject/go-xelc"
)

// RetryOperation represents a function that can be retried
// Returns: data, shouldRetry, error
// - data: the result if successful
// - shouldRetry: true if the operation should be retried
// - error: any permanent error that should stop retries
type RetryOperation[T any] func() (T, bool, error)

// RetryConfig configures retry behavior
type RetryConfig struct {
	OnRetry     func() error
	Description string
	Port        string
	MaxRetries  int
	RetryDelay  time.Duration
}

// WithRetry executes an operation with retry logic. The operation runs at
// most MaxRetries+1 times; when every attempt asks for a retry the result
// is a timeout error named after Description.
func WithRetry[T any](config RetryConfig, operation RetryOperation[T]) (T, error) {
	var zero T

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, shouldRetry, err := operation()
		if err != nil {
			return zero, err
		}

		if !shouldRetry {
			return result, nil
		}

		if attempt >= config.MaxRetries {
			break
		}

		if config.OnRetry != nil {
			if err := config.OnRetry(); err != nil {
				return zero, err
			}
		}

		if config.RetryDelay > 0 {
			time.Sleep(config.RetryDelay)
		}
	}

	return zero, xelc.NewTimeoutError(config.Description, config.Port)
}

// TimeoutRetry executes an operation until it stops asking for a retry or
// the wall-clock timeout elapses
func TimeoutRetry[T any](timeout time.Duration, description, port string, operation RetryOperation[T]) (T, error) {
	var zero T
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		result, shouldRetry, err := operation()
		if err != nil {
			return zero, err
		}

		if !shouldRetry {
			return result, nil
		}

		// Small delay before next attempt
		time.Sleep(time.Millisecond)
	}

	return zero, xelc.NewTimeoutError(description, port)
}
