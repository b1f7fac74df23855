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
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"testing"

	xelc "github.com/ZaparooProject/go-xelc"
	"github.com/ZaparooProject/go-xelc/internal/transport"
	"github.com/google/go-cmp/cmp"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestEncode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		want    string
		payload []byte
		code    byte
	}{
		{name: "no payload", code: 0x40, want: "240500400000530d"},
		{name: "buzzer setting", code: 0x05, payload: []byte{0x01}, want: "2406000501000185b9"},
		{name: "page write", code: 0x42, payload: []byte{0x04, 0x01, 0x02, 0x03, 0x04}, want: "240a00420500040102030428eb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Encode(tt.code, tt.payload)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if diff := cmp.Diff(mustHex(t, tt.want), got); diff != "" {
				t.Errorf("Encode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeTooLarge(t *testing.T) {
	t.Parallel()

	if _, err := Encode(0x41, make([]byte, MaxPayloadLength)); err != nil {
		t.Fatalf("Encode() at limit error = %v", err)
	}
	_, err := Encode(0x41, make([]byte, MaxPayloadLength+1))
	if !errors.Is(err, xelc.ErrFrameTooLarge) {
		t.Errorf("Encode() error = %v, want ErrFrameTooLarge", err)
	}
}

func TestEncodeInbound(t *testing.T) {
	t.Parallel()

	got, err := EncodeInbound(0x40, 0x00, []byte{0x01, 0x02, 0x03, 0x04})
	if err != nil {
		t.Fatalf("EncodeInbound() error = %v", err)
	}
	if diff := cmp.Diff(mustHex(t, "240a0040000400010203048e92"), got); diff != "" {
		t.Errorf("EncodeInbound() mismatch (-want +got):\n%s", diff)
	}
}

// asReply turns an outbound frame into the matching reply frame by inserting
// a status byte after the function code and recomputing length and CRC
func asReply(t *testing.T, outbound []byte, status byte) []byte {
	t.Helper()
	body := outbound[:len(outbound)-2]
	reply := make([]byte, 0, len(outbound)+1)
	reply = append(reply, body[:4]...)
	reply = append(reply, status)
	reply = append(reply, body[4:]...)
	binary.LittleEndian.PutUint16(reply[1:3], binary.LittleEndian.Uint16(body[1:3])+1)
	return AppendChecksum(reply)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		payload []byte
		code    byte
	}{
		{name: "empty", code: 0x20},
		{name: "page number", code: 0x41, payload: []byte{0x04}},
		{name: "page write", code: 0x42, payload: []byte{0x27, 0xDE, 0xAD, 0xBE, 0xEF}},
		{name: "long payload", code: 0x81, payload: bytes.Repeat([]byte{0x24, 0x00}, 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			outbound, err := Encode(tt.code, tt.payload)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			got, err := decodeBytes(asReply(t, outbound, xelc.StatusSuccess))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got.Code != tt.code {
				t.Errorf("Code = %#02x, want %#02x", got.Code, tt.code)
			}
			if got.Status != xelc.StatusSuccess {
				t.Errorf("Status = %#02x, want success", got.Status)
			}
			want := tt.payload
			if want == nil {
				want = []byte{}
			}
			if diff := cmp.Diff(want, got.Data); diff != "" {
				t.Errorf("Data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func decodeBytes(data []byte) (*Frame, error) {
	r := transport.NewReader(bytes.NewReader(data), "test", DefaultMaxRetries)
	return Decode(r, "test")
}

func TestDecode(t *testing.T) {
	t.Parallel()

	valid := "240a0040000400010203048e92"
	want := &Frame{
		Length: 10,
		Code:   0x40,
		Status: 0x00,
		Data:   []byte{0x01, 0x02, 0x03, 0x04},
		CRC:    0x928E,
	}

	tests := []struct {
		want  *Frame
		check func(error) bool
		name  string
		input string
	}{
		{name: "valid frame", input: valid, want: want},
		{name: "garbage before header", input: "00ff13" + valid, want: want},
		{
			name:  "empty data with failure status",
			input: hex.EncodeToString(encodeInbound(t, 0x40, xelc.StatusCardNotFound, nil)),
			want:  &Frame{Length: 6, Code: 0x40, Status: 0x0B, Data: []byte{}, CRC: crcOf(t, 0x40, 0x0B, nil)},
		},
		{
			name:  "corrupted crc",
			input: "240a0040000400010203048e93",
			check: func(err error) bool { return errors.Is(err, xelc.ErrChecksumMismatch) },
		},
		{
			name:  "corrupted data",
			input: "240a0040000400010203058e92",
			check: func(err error) bool { return errors.Is(err, xelc.ErrChecksumMismatch) },
		},
		{
			name:  "truncated data",
			input: "240a00400004000102",
			check: xelc.IsTimeout,
		},
		{
			name:  "no header",
			input: "000102",
			check: xelc.IsTimeout,
		},
		{
			name:  "empty input",
			input: "",
			check: xelc.IsTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := decodeBytes(mustHex(t, tt.input))
			if tt.check != nil {
				if err == nil || !tt.check(err) {
					t.Fatalf("Decode() error = %v, want matching error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// The length field is informational; a wrong value does not fail decoding
func TestDecodeIgnoresLengthField(t *testing.T) {
	t.Parallel()

	body := []byte{Header, 0x99, 0x00, 0x41, 0x00, 0x01, 0x00, 0x7F}
	got, err := decodeBytes(AppendChecksum(body))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Length != 0x99 || got.Code != 0x41 || !bytes.Equal(got.Data, []byte{0x7F}) {
		t.Errorf("Decode() = %+v", got)
	}
}

func TestParseOutbound(t *testing.T) {
	t.Parallel()

	req := mustHex(t, "240a00420500040102030428eb")

	t.Run("complete frame", func(t *testing.T) {
		t.Parallel()
		frm, n, err := ParseOutbound(append(req, 0x24))
		if err != nil {
			t.Fatalf("ParseOutbound() error = %v", err)
		}
		if n != len(req) {
			t.Errorf("consumed = %d, want %d", n, len(req))
		}
		want := &Frame{Length: 10, Code: 0x42, Data: []byte{0x04, 0x01, 0x02, 0x03, 0x04}, CRC: 0xEB28}
		if diff := cmp.Diff(want, frm); diff != "" {
			t.Errorf("ParseOutbound() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("leading garbage", func(t *testing.T) {
		t.Parallel()
		_, n, err := ParseOutbound(append([]byte{0x00, 0x01}, req...))
		if err != nil {
			t.Fatalf("ParseOutbound() error = %v", err)
		}
		if n != len(req)+2 {
			t.Errorf("consumed = %d, want %d", n, len(req)+2)
		}
	})

	t.Run("incomplete", func(t *testing.T) {
		t.Parallel()
		_, n, err := ParseOutbound(req[:7])
		if !errors.Is(err, ErrIncomplete) {
			t.Fatalf("ParseOutbound() error = %v, want ErrIncomplete", err)
		}
		if n != 0 {
			t.Errorf("consumed = %d, want 0", n)
		}
	})

	t.Run("bad checksum", func(t *testing.T) {
		t.Parallel()
		bad := append([]byte(nil), req...)
		bad[len(bad)-1] ^= 0xFF
		_, n, err := ParseOutbound(bad)
		if !errors.Is(err, xelc.ErrChecksumMismatch) {
			t.Fatalf("ParseOutbound() error = %v, want ErrChecksumMismatch", err)
		}
		if n != len(bad) {
			t.Errorf("consumed = %d, want %d", n, len(bad))
		}
	})
}

func encodeInbound(t *testing.T, code, status byte, data []byte) []byte {
	t.Helper()
	buf, err := EncodeInbound(code, status, data)
	if err != nil {
		t.Fatalf("EncodeInbound() error = %v", err)
	}
	return buf
}

func crcOf(t *testing.T, code, status byte, data []byte) uint16 {
	t.Helper()
	buf := encodeInbound(t, code, status, data)
	return uint16(buf[len(buf)-2]) | uint16(buf[len(buf)-1])<<8
}
