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

package uart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestPortOptionsNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      PortOptions
		want    PortOptions
		wantErr bool
	}{
		{
			name: "zero value gets reader defaults",
			in:   PortOptions{},
			want: DefaultPortOptions(),
		},
		{
			name: "parity names are accepted",
			in:   PortOptions{Parity: " even "},
			want: PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "E", ReadTimeout: DefaultReadTimeout},
		},
		{
			name: "explicit values survive",
			in:   PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "o", ReadTimeout: time.Second},
			want: PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "O", ReadTimeout: time.Second},
		},
		{
			name:    "data bits out of range",
			in:      PortOptions{DataBits: 9},
			wantErr: true,
		},
		{
			name:    "unsupported stop bits",
			in:      PortOptions{StopBits: 3},
			wantErr: true,
		},
		{
			name:    "unknown parity",
			in:      PortOptions{Parity: "mark"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.in.Normalize()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPortOptionsSerialMode(t *testing.T) {
	t.Parallel()

	mode, err := DefaultPortOptions().SerialMode()
	require.NoError(t, err)
	assert.Equal(t, &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}, mode)

	mode, err = PortOptions{Parity: "E", StopBits: 2}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, serial.EvenParity, mode.Parity)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)

	_, err = PortOptions{Parity: "X"}.SerialMode()
	require.Error(t, err)
}
