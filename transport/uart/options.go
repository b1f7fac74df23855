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
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

// DefaultReadTimeout is the serial read timeout. A read that sees no data
// returns after this long with zero bytes.
const DefaultReadTimeout = 100 * time.Millisecond

// PortOptions describes the serial connection parameters
type PortOptions struct {
	Parity      string        `mapstructure:"parity"`
	BaudRate    int           `mapstructure:"baudRate"`
	DataBits    int           `mapstructure:"dataBits"`
	StopBits    int           `mapstructure:"stopBits"`
	ReadTimeout time.Duration `mapstructure:"readTimeout"`
}

// DefaultPortOptions returns the reader module's fixed line settings: 115200 8N1
func DefaultPortOptions() PortOptions {
	return PortOptions{
		BaudRate:    115200,
		DataBits:    8,
		StopBits:    1,
		Parity:      "N",
		ReadTimeout: DefaultReadTimeout,
	}
}

// Normalize validates the options and applies defaults for any unset values
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o
	def := DefaultPortOptions()

	if opts.BaudRate <= 0 {
		opts.BaudRate = def.BaudRate
	}
	if opts.DataBits == 0 {
		opts.DataBits = def.DataBits
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}
	if opts.StopBits == 0 {
		opts.StopBits = def.StopBits
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = def.ReadTimeout
	}

	switch strings.TrimSpace(strings.ToUpper(opts.Parity)) {
	case "", "N", "NONE":
		opts.Parity = "N"
	case "E", "EVEN":
		opts.Parity = "E"
	case "O", "ODD":
		opts.Parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", o.Parity)
	}

	return opts, nil
}

// SerialMode converts the options into the serial.Mode used to open the port
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	}
	return mode, nil
}
