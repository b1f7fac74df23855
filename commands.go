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

// Fixed function codes understood by the reader regardless of card type
const (
	FnSetBuzzer    byte = 0x05
	FnUIDReportSet byte = 0x07
)

// UID report payloads for FnUIDReportSet
const (
	UIDReportDisable byte = 0xAA
	UIDReportEnable  byte = 0x55
)

// Status codes returned in inbound frames. Only StatusSuccess is acted on;
// the rest are firmware-defined and used for log messages.
const (
	StatusSuccess        byte = 0x00
	StatusDataLength     byte = 0x01
	StatusCRC            byte = 0x02
	StatusParameter      byte = 0x03
	StatusCardNotFound   byte = 0x0B
	StatusUIDFailed      byte = 0x0C
	StatusReadWriteError byte = 0x0F
)

// Command codes carried from callers to the dispatcher
const (
	CmdWriteData      byte = 0x01
	CmdReadData       byte = 0x02
	CmdSetBuzzer      byte = 0x03
	CmdCloseUIDReport byte = 0x04
	CmdOpenUIDReport  byte = 0x05
)

// Page layout of the tag user memory
const (
	PageSize  = 4
	FirstPage = 4
	LastPage  = 39
)

// StatusText returns a short description of a reader status code
func StatusText(status byte) string {
	switch status {
	case StatusSuccess:
		return "success"
	case StatusDataLength:
		return "data length error"
	case StatusCRC:
		return "crc check failed"
	case StatusParameter:
		return "parameter error"
	case StatusCardNotFound:
		return "card not found"
	case StatusUIDFailed:
		return "uid read failed"
	case StatusReadWriteError:
		return "read/write error"
	default:
		return "unknown status"
	}
}
