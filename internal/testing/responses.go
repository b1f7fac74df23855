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
	xelc "github.com/ZaparooProject/go-xelc"
	"github.com/ZaparooProject/go-xelc/internal/frame"
)

// BuildResponse creates a reader to host frame. It panics if data does not
// fit in a frame, which only happens with a broken test.
func BuildResponse(code, status byte, data []byte) []byte {
	buf, err := frame.EncodeInbound(code, status, data)
	if err != nil {
		panic(err)
	}
	return buf
}

// BuildUIDResponse creates a successful read-UID response
func BuildUIDResponse(code byte, uid []byte) []byte {
	return BuildResponse(code, xelc.StatusSuccess, uid)
}

// BuildNoCardResponse creates the response sent when no card is in the field
func BuildNoCardResponse(code byte) []byte {
	return BuildResponse(code, xelc.StatusCardNotFound, nil)
}

// BuildDataResponse creates a successful read-data response
func BuildDataResponse(code byte, data []byte) []byte {
	return BuildResponse(code, xelc.StatusSuccess, data)
}

// BuildErrorResponse creates a response carrying only a failure status
func BuildErrorResponse(code, status byte) []byte {
	return BuildResponse(code, status, nil)
}

// BuildCorruptResponse creates a response whose CRC does not match
func BuildCorruptResponse(code byte, data []byte) []byte {
	buf := BuildResponse(code, xelc.StatusSuccess, data)
	buf[len(buf)-1] ^= 0xFF
	return buf
}
