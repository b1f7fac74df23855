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

// Package detection lists serial ports a reader module may be attached to
package detection

import (
	"fmt"
	"slices"
	"strings"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes one candidate serial port
type PortInfo struct {
	Name         string `json:"name"`
	VIDPID       string `json:"vidpid,omitempty"`
	Product      string `json:"product,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
	IsUSB        bool   `json:"isUsb"`
}

// Options filters the port list
type Options struct {
	Blocklist   []string
	IgnorePaths []string
	// USBOnly drops ports that are not USB serial adapters
	USBOnly bool
}

// DefaultOptions uses DefaultBlocklist and keeps non-USB ports
func DefaultOptions() Options {
	return Options{Blocklist: DefaultBlocklist()}
}

var enumeratePorts = enumerator.GetDetailedPortsList

// ListPorts returns the serial ports of this machine, filtered by opts and
// sorted by name
func ListPorts(opts Options) ([]PortInfo, error) {
	details, err := enumeratePorts()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return filterPorts(details, opts), nil
}

func filterPorts(details []*enumerator.PortDetails, opts Options) []PortInfo {
	names := make(map[string]bool, len(details))
	for _, d := range details {
		if d != nil {
			names[d.Name] = true
		}
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		if d == nil || d.Name == "" {
			continue
		}
		if opts.USBOnly && !d.IsUSB {
			continue
		}
		if strings.Contains(d.Name, "Bluetooth") {
			continue
		}
		// macOS exposes every device twice; keep the call-out device
		if strings.HasPrefix(d.Name, "/dev/tty.") &&
			names[strings.Replace(d.Name, "/dev/tty.", "/dev/cu.", 1)] {
			continue
		}
		if IsPathIgnored(d.Name, opts.IgnorePaths) {
			continue
		}

		info := PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			Product:      d.Product,
			SerialNumber: d.SerialNumber,
		}
		if d.IsUSB {
			info.VIDPID = FormatVIDPID(d.VID, d.PID)
		}
		if IsBlocked(info.VIDPID, opts.Blocklist) {
			continue
		}
		ports = append(ports, info)
	}

	slices.SortFunc(ports, func(a, b PortInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return ports
}
