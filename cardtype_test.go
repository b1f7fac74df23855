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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardTypeCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		cardType  CardType
		readUID   byte
		readData  byte
		writeData byte
	}{
		{name: "Mifare", cardType: CardTypeMifare, readUID: 0x20, readData: 0x21, writeData: 0x22},
		{name: "UltraLight", cardType: CardTypeUltraLight, readUID: 0x40, readData: 0x41, writeData: 0x42},
		{name: "CPU", cardType: CardTypeCPU, readUID: 0x80, readData: 0x81, writeData: 0x81},
		{name: "ISO14443B", cardType: CardTypeISO14443B, readUID: 0x90, readData: 0x91, writeData: 0x92},
		{name: "ISO15693", cardType: CardTypeISO15693, readUID: 0x60, readData: 0x61, writeData: 0x62},
		{name: "Other", cardType: CardTypeOther, readUID: 0x00, readData: 0x01, writeData: 0x02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.readUID, tt.cardType.ReadUIDCode())
			assert.Equal(t, tt.readData, tt.cardType.ReadDataCode())
			assert.Equal(t, tt.writeData, tt.cardType.WriteDataCode())
			assert.Equal(t, tt.name, tt.cardType.String())
		})
	}
}

func TestCardTypeUnknownValue(t *testing.T) {
	t.Parallel()

	ct := CardType(42)
	assert.Equal(t, CardTypeOther.ReadUIDCode(), ct.ReadUIDCode())
	assert.Equal(t, "CardType(42)", ct.String())
}

func TestParseCardType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input   string
		want    CardType
		wantErr bool
	}{
		{input: "UltraLight", want: CardTypeUltraLight},
		{input: "ultralight", want: CardTypeUltraLight},
		{input: " MIFARE ", want: CardTypeMifare},
		{input: "cpu", want: CardTypeCPU},
		{input: "iso14443b", want: CardTypeISO14443B},
		{input: "ISO15693", want: CardTypeISO15693},
		{input: "other", want: CardTypeOther},
		{input: "ntag215", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseCardType(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidCardType))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCardTypeFromCode(t *testing.T) {
	t.Parallel()
	tests := map[int]CardType{
		2:  CardTypeMifare,
		4:  CardTypeUltraLight,
		6:  CardTypeISO15693,
		8:  CardTypeCPU,
		9:  CardTypeISO14443B,
		0:  CardTypeOther,
		-1: CardTypeOther,
		3:  CardTypeOther,
	}
	for code, want := range tests {
		assert.Equal(t, want, CardTypeFromCode(code), "code %d", code)
	}
}

func TestStatusText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "success", StatusText(StatusSuccess))
	assert.Equal(t, "card not found", StatusText(StatusCardNotFound))
	assert.Equal(t, "read/write error", StatusText(StatusReadWriteError))
	assert.Equal(t, "unknown status", StatusText(0xEE))
}
