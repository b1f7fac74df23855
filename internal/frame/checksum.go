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

package frame

import (
	"encoding/binary"

	"github.com/sigurn/crc16"
)

var crcTable = crc16.MakeTable(crc16.CRC16_XMODEM)

// CalculateChecksum returns the CRC16/XMODEM of data
func CalculateChecksum(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// AppendChecksum appends the little-endian CRC16/XMODEM of data to data
func AppendChecksum(data []byte) []byte {
	return binary.LittleEndian.AppendUint16(data, CalculateChecksum(data))
}

// ValidateChecksum reports whether the last two bytes of frm are the
// little-endian CRC of everything before them
func ValidateChecksum(frm []byte) bool {
	if len(frm) < 2 {
		return false
	}
	body := frm[:len(frm)-2]
	return binary.LittleEndian.Uint16(frm[len(frm)-2:]) == CalculateChecksum(body)
}
