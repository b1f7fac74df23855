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

// Package frame provides frame encoding, decoding and protocol constants for
// the reader's serial protocol
package frame

import "time"

// Header is the first byte of every frame in both directions
const Header = 0x24

// Frame size limits
const (
	// OutboundOverhead is the length field value of an outbound frame with no data
	// (function code + data length + CRC)
	OutboundOverhead = 1 + 2 + 2
	// InboundOverhead adds the status byte
	InboundOverhead = 1 + 1 + 2 + 2
	// MaxPayloadLength keeps the outbound length field within 16 bits
	MaxPayloadLength = 0xFFFF - OutboundOverhead
)

// Read timing
const (
	// HeaderTimeout bounds the search for a frame header
	HeaderTimeout = 500 * time.Millisecond
	// DefaultMaxRetries is the number of retries for each field read
	DefaultMaxRetries = 3
	// RetryDelay is the pause between two field read attempts
	RetryDelay = time.Millisecond
)
