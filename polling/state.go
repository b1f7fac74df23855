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

package polling

import (
	"bytes"
	"slices"
	"time"
)

// CardDetectionState is the card presence state machine
type CardDetectionState int

const (
	StateIdle CardDetectionState = iota
	StateCardPresent
	StateRemovalPending
)

// String returns the state name for logs
func (s CardDetectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCardPresent:
		return "present"
	case StateRemovalPending:
		return "removal_pending"
	default:
		return "unknown"
	}
}

// CardState tracks the card on a reader
type CardState struct {
	LastSeenTime   time.Time
	MissingSince   time.Time
	LastUID        []byte
	DetectionState CardDetectionState
	Present        bool
}

// TransitionToPresent records uid as seen at now and reports whether it
// differs from the previous card
func (cs *CardState) TransitionToPresent(uid []byte, now time.Time) bool {
	changed := !cs.Present || !bytes.Equal(cs.LastUID, uid)
	cs.DetectionState = StateCardPresent
	cs.Present = true
	cs.LastUID = slices.Clone(uid)
	cs.LastSeenTime = now
	cs.MissingSince = time.Time{}
	return changed
}

// TransitionToMissing starts the removal grace period. It keeps the first
// time the card went missing.
func (cs *CardState) TransitionToMissing(now time.Time) {
	if cs.DetectionState == StateRemovalPending {
		return
	}
	cs.DetectionState = StateRemovalPending
	cs.MissingSince = now
}

// RemovalDue reports whether the card has been missing for at least timeout
func (cs *CardState) RemovalDue(now time.Time, timeout time.Duration) bool {
	return cs.DetectionState == StateRemovalPending && now.Sub(cs.MissingSince) >= timeout
}

// TransitionToIdle resets to idle state
func (cs *CardState) TransitionToIdle() {
	*cs = CardState{}
}
