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
	"path/filepath"
	"strings"
)

// DefaultBlocklist returns USB adapters that are never offered as reader
// ports. Format: VID:PID in hexadecimal (case-insensitive).
func DefaultBlocklist() []string {
	return []string{
		"1D6B:0002", // Linux root hub gadget serial
	}
}

// FormatVIDPID joins vendor and product IDs as VID:PID. It returns an empty
// string unless both are hex.
func FormatVIDPID(vid, pid string) string {
	vid = strings.ToUpper(strings.TrimSpace(vid))
	pid = strings.ToUpper(strings.TrimSpace(pid))
	if !isHex(vid) || !isHex(pid) {
		return ""
	}
	return vid + ":" + pid
}

// IsBlocked checks if a VID:PID is in the blocklist
func IsBlocked(vidpid string, blocklist []string) bool {
	vidpid = strings.ToUpper(strings.TrimSpace(vidpid))
	if vidpid == "" {
		return false
	}

	for _, blocked := range blocklist {
		if vidpid == strings.ToUpper(strings.TrimSpace(blocked)) {
			return true
		}
	}
	return false
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'A' || r > 'F') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// IsPathIgnored checks if a device path is in ignorePaths. Paths are
// compared after cleaning and case folding, so "COM3" matches "com3".
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" || len(ignorePaths) == 0 {
		return false
	}

	device := normalizedPath(devicePath)
	for _, ignorePath := range ignorePaths {
		if ignorePath == "" {
			continue
		}
		if device == normalizedPath(ignorePath) {
			return true
		}
	}
	return false
}

func normalizedPath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
