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

// Package polling watches a reader session for cards arriving, changing and
// leaving.
package polling

import (
	"context"
	"slices"
	"sync"
	"time"

	xelc "github.com/ZaparooProject/go-xelc"
)

const (
	DefaultPollInterval       = 100 * time.Millisecond
	DefaultCardRemovalTimeout = 600 * time.Millisecond
)

// Config holds the monitor timing
type Config struct {
	// PollInterval is how often the session UID is sampled
	PollInterval time.Duration
	// CardRemovalTimeout is how long a card must be missing before it is
	// reported removed
	CardRemovalTimeout time.Duration
}

// DefaultConfig returns the default monitor timing
func DefaultConfig() *Config {
	return &Config{
		PollInterval:       DefaultPollInterval,
		CardRemovalTimeout: DefaultCardRemovalTimeout,
	}
}

// UIDSource is the part of a session the monitor reads. *xelc.Session
// implements it.
type UIDSource interface {
	UID() ([]byte, bool)
	Done() <-chan struct{}
}

var _ UIDSource = (*xelc.Session)(nil)

// Monitor turns the session's polled UID into card events. Callbacks run on
// the monitor goroutine.
type Monitor struct {
	source         UIDSource
	config         *Config
	OnCardDetected func(uid []byte)
	OnCardChanged  func(uid []byte)
	OnCardRemoved  func()
	state          CardState
	mu             sync.Mutex
}

// NewMonitor creates a monitor for source
func NewMonitor(source UIDSource, config *Config) *Monitor {
	if config == nil {
		config = DefaultConfig()
	}
	return &Monitor{
		source: source,
		config: config,
	}
}

// Start samples the source until ctx ends or the session stops. It returns
// ctx.Err() or xelc.ErrSessionClosed.
func (m *Monitor) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	for {
		m.step(time.Now())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.source.Done():
			m.removeCard()
			return xelc.ErrSessionClosed
		case <-ticker.C:
		}
	}
}

// GetState returns a copy of the current card state
func (m *Monitor) GetState() CardState {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.state
	state.LastUID = slices.Clone(m.state.LastUID)
	return state
}

func (m *Monitor) step(now time.Time) {
	uid, ok := m.source.UID()

	m.mu.Lock()
	wasPresent := m.state.Present
	if ok {
		changed := m.state.TransitionToPresent(uid, now)
		m.mu.Unlock()
		switch {
		case !wasPresent:
			if m.OnCardDetected != nil {
				m.OnCardDetected(uid)
			}
		case changed:
			if m.OnCardChanged != nil {
				m.OnCardChanged(uid)
			}
		}
		return
	}

	if !wasPresent {
		m.mu.Unlock()
		return
	}
	m.state.TransitionToMissing(now)
	due := m.state.RemovalDue(now, m.config.CardRemovalTimeout)
	m.mu.Unlock()

	if due {
		m.removeCard()
	}
}

func (m *Monitor) removeCard() {
	m.mu.Lock()
	present := m.state.Present
	m.state.TransitionToIdle()
	m.mu.Unlock()

	if present && m.OnCardRemoved != nil {
		m.OnCardRemoved()
	}
}
