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

package testing

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
)

// PageCount is the number of 4-byte pages a VirtualTag holds
const PageCount = 48

// TestUID is the UID used when none is supplied
var TestUID = []byte{0x04, 0x5A, 0x8B, 0x12, 0xC3, 0x6E, 0x80}

// ErrTagNotPresent is returned by page access while the tag is removed
var ErrTagNotPresent = errors.New("tag not present")

// VirtualTag is a simulated page-addressed card
type VirtualTag struct {
	UID     []byte
	pages   [][]byte
	mu      sync.RWMutex
	present bool
}

// NewVirtualTag creates a present tag with zeroed memory
func NewVirtualTag(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestUID
	}

	tag := &VirtualTag{
		UID:     append([]byte(nil), uid...),
		pages:   make([][]byte, PageCount),
		present: true,
	}
	for i := range tag.pages {
		tag.pages[i] = make([]byte, 4)
	}
	return tag
}

// GetUIDString returns the UID as a hex string
func (v *VirtualTag) GetUIDString() string {
	return hex.EncodeToString(v.UID)
}

// ReadPage returns a copy of one page
func (v *VirtualTag) ReadPage(page int) ([]byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if !v.present {
		return nil, ErrTagNotPresent
	}
	if page < 0 || page >= len(v.pages) {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	return append([]byte(nil), v.pages[page]...), nil
}

// WritePage stores up to 4 bytes into a page, zero-filling the rest
func (v *VirtualTag) WritePage(page int, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.present {
		return ErrTagNotPresent
	}
	if page < 0 || page >= len(v.pages) {
		return fmt.Errorf("page %d out of range", page)
	}
	if len(data) > 4 {
		return fmt.Errorf("page data too long: %d bytes", len(data))
	}
	buf := make([]byte, 4)
	copy(buf, data)
	v.pages[page] = buf
	return nil
}

// Fill writes data into consecutive pages starting at page
func (v *VirtualTag) Fill(page int, data []byte) error {
	for len(data) > 0 {
		n := min(4, len(data))
		if err := v.WritePage(page, data[:n]); err != nil {
			return err
		}
		data = data[n:]
		page++
	}
	return nil
}

// Dump returns n bytes of memory starting at page
func (v *VirtualTag) Dump(page, n int) []byte {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]byte, 0, n)
	for p := page; p < len(v.pages) && len(out) < n; p++ {
		out = append(out, v.pages[p][:min(4, n-len(out))]...)
	}
	return out
}

// Present reports whether the tag is in the field
func (v *VirtualTag) Present() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.present
}

// Remove simulates taking the tag off the reader
func (v *VirtualTag) Remove() {
	v.mu.Lock()
	v.present = false
	v.mu.Unlock()
}

// Insert simulates placing the tag on the reader
func (v *VirtualTag) Insert() {
	v.mu.Lock()
	v.present = true
	v.mu.Unlock()
}
