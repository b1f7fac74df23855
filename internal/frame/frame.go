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
	"errors"
	"fmt"

	xelc "github.com/ZaparooProject/go-xelc"
	"github.com/ZaparooProject/go-xelc/internal/transport"
)

// ErrIncomplete is returned by ParseOutbound when more bytes are needed
var ErrIncomplete = errors.New("incomplete frame")

// Frame is one decoded protocol message. Status is only meaningful for
// inbound frames.
type Frame struct {
	Data   []byte
	Length uint16
	CRC    uint16
	Code   byte
	Status byte
}

// FieldReader reads protocol fields with bounded retries
type FieldReader interface {
	ReadByte() (byte, error)
	ReadU16() (uint16, error)
	ReadExact(n int) ([]byte, error)
}

// Encode builds an outbound (host to reader) frame:
// header, length, function code, data length, data, CRC.
func Encode(code byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLength {
		return nil, fmt.Errorf("%w: %d bytes", xelc.ErrFrameTooLarge, len(payload))
	}

	buf := make([]byte, 0, 3+OutboundOverhead+len(payload))
	buf = append(buf, Header)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(OutboundOverhead+len(payload)))
	buf = append(buf, code)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(payload)))
	buf = append(buf, payload...)
	return AppendChecksum(buf), nil
}

// EncodeInbound builds a reader to host frame, which carries a status byte
// after the function code
func EncodeInbound(code, status byte, data []byte) ([]byte, error) {
	if len(data) > 0xFFFF-InboundOverhead {
		return nil, fmt.Errorf("%w: %d bytes", xelc.ErrFrameTooLarge, len(data))
	}

	buf := make([]byte, 0, 3+InboundOverhead+len(data))
	buf = append(buf, Header)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(InboundOverhead+len(data)))
	buf = append(buf, code, status)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(data)))
	buf = append(buf, data...)
	return AppendChecksum(buf), nil
}

// Decode reads one inbound frame from r. Bytes before the header are
// skipped for at most HeaderTimeout; every field after it is read with the
// reader's own retry bound. The CRC is checked over all preceding bytes.
func Decode(r FieldReader, port string) (*Frame, error) {
	if err := syncHeader(r, port); err != nil {
		return nil, err
	}
	buf := []byte{Header}

	length, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	buf = binary.LittleEndian.AppendUint16(buf, length)

	code, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	status, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	buf = append(buf, code, status)

	dataLen, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	buf = binary.LittleEndian.AppendUint16(buf, dataLen)

	data, err := r.ReadExact(int(dataLen))
	if err != nil {
		return nil, err
	}
	buf = append(buf, data...)

	crc, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	if want := CalculateChecksum(buf); crc != want {
		return nil, xelc.NewChecksumError("decode", port, crc, want)
	}

	return &Frame{
		Length: length,
		Code:   code,
		Status: status,
		Data:   data,
		CRC:    crc,
	}, nil
}

func syncHeader(r FieldReader, port string) error {
	_, err := transport.TimeoutRetry(HeaderTimeout, "header sync", port, func() (byte, bool, error) {
		b, err := r.ReadByte()
		if err != nil {
			return 0, false, err
		}
		return b, b != Header, nil
	})
	return err
}

// ParseOutbound parses a host to reader frame at the start of buf and
// returns it with the number of bytes consumed. Leading bytes that are not a
// header are consumed and skipped. ErrIncomplete means buf ends mid-frame.
func ParseOutbound(buf []byte) (*Frame, int, error) {
	skip := 0
	for skip < len(buf) && buf[skip] != Header {
		skip++
	}
	buf = buf[skip:]

	const fixed = 1 + 2 + 1 + 2
	if len(buf) < fixed {
		return nil, skip, ErrIncomplete
	}
	length := binary.LittleEndian.Uint16(buf[1:3])
	code := buf[3]
	dataLen := int(binary.LittleEndian.Uint16(buf[4:6]))
	total := fixed + dataLen + 2
	if len(buf) < total {
		return nil, skip, ErrIncomplete
	}

	crc := binary.LittleEndian.Uint16(buf[total-2 : total])
	if !ValidateChecksum(buf[:total]) {
		return nil, skip + total, xelc.NewChecksumError("parse", "", crc, CalculateChecksum(buf[:total-2]))
	}

	return &Frame{
		Length: length,
		Code:   code,
		Data:   append([]byte(nil), buf[fixed:fixed+dataLen]...),
		CRC:    crc,
	}, skip + total, nil
}
