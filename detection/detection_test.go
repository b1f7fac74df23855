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

package detection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

func TestIsPathIgnored(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		devicePath  string
		ignorePaths []string
		expected    bool
	}{
		{name: "empty ignore list", devicePath: "/dev/ttyUSB0", ignorePaths: []string{}, expected: false},
		{name: "empty device path", devicePath: "", ignorePaths: []string{"/dev/ttyUSB0"}, expected: false},
		{name: "exact match unix path", devicePath: "/dev/ttyUSB0", ignorePaths: []string{"/dev/ttyUSB0"}, expected: true},
		{name: "windows case insensitive", devicePath: "com3", ignorePaths: []string{"COM3"}, expected: true},
		{name: "no match", devicePath: "/dev/ttyACM1", ignorePaths: []string{"/dev/ttyACM0"}, expected: false},
		{name: "relative components", devicePath: "/dev/../dev/ttyUSB0", ignorePaths: []string{"/dev/ttyUSB0"}, expected: true},
		{name: "empty strings in ignore list", devicePath: "/dev/ttyUSB0", ignorePaths: []string{"", "/dev/ttyUSB0"}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := IsPathIgnored(tt.devicePath, tt.ignorePaths)
			if result != tt.expected {
				t.Errorf("IsPathIgnored(%q, %v) = %v, want %v",
					tt.devicePath, tt.ignorePaths, result, tt.expected)
			}
		})
	}
}

func TestIsBlocked(t *testing.T) {
	t.Parallel()

	blocklist := []string{"1a86:7523", " 0403:6001 "}
	assert.True(t, IsBlocked("1A86:7523", blocklist))
	assert.True(t, IsBlocked("0403:6001", blocklist))
	assert.False(t, IsBlocked("10C4:EA60", blocklist))
	assert.False(t, IsBlocked("", []string{""}))
}

func TestFormatVIDPID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1A86:7523", FormatVIDPID("1a86", "7523"))
	assert.Empty(t, FormatVIDPID("", "7523"))
	assert.Empty(t, FormatVIDPID("zz", "7523"))
}

func TestFilterPorts(t *testing.T) {
	t.Parallel()

	details := []*enumerator.PortDetails{
		{Name: "/dev/ttyUSB1", IsUSB: true, VID: "1a86", PID: "7523", Product: "USB Serial"},
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "10c4", PID: "ea60", SerialNumber: "0001"},
		{Name: "/dev/cu.usbserial-10", IsUSB: true, VID: "0403", PID: "6001"},
		{Name: "/dev/tty.usbserial-10", IsUSB: true, VID: "0403", PID: "6001"},
		{Name: "/dev/cu.Bluetooth-Incoming-Port"},
		nil,
	}

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		got := filterPorts(details, Options{})
		names := make([]string, 0, len(got))
		for _, p := range got {
			names = append(names, p.Name)
		}
		assert.Equal(t, []string{"/dev/cu.usbserial-10", "/dev/ttyS0", "/dev/ttyUSB0", "/dev/ttyUSB1"}, names)
		assert.Equal(t, "10C4:EA60", got[2].VIDPID)
		assert.Equal(t, "0001", got[2].SerialNumber)
		assert.Empty(t, got[1].VIDPID)
	})

	t.Run("usb only with blocklist and ignore paths", func(t *testing.T) {
		t.Parallel()
		got := filterPorts(details, Options{
			USBOnly:     true,
			Blocklist:   []string{"1A86:7523"},
			IgnorePaths: []string{"/dev/cu.usbserial-10"},
		})
		require.Len(t, got, 1)
		assert.Equal(t, PortInfo{Name: "/dev/ttyUSB0", IsUSB: true, VIDPID: "10C4:EA60", SerialNumber: "0001"}, got[0])
	})
}

func TestListPortsEnumerationError(t *testing.T) {
	// swaps a package variable
	orig := enumeratePorts
	t.Cleanup(func() { enumeratePorts = orig })

	errDenied := errors.New("permission denied")
	enumeratePorts = func() ([]*enumerator.PortDetails, error) {
		return nil, errDenied
	}

	_, err := ListPorts(DefaultOptions())
	require.ErrorIs(t, err, errDenied)
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	assert.Nil(t, opts.IgnorePaths)
	assert.False(t, opts.USBOnly)
	assert.Equal(t, DefaultBlocklist(), opts.Blocklist)
}
