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

package server

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	xelc "github.com/ZaparooProject/go-xelc"
	"github.com/ZaparooProject/go-xelc/internal/metrics"
	"github.com/ZaparooProject/go-xelc/polling"
	"github.com/ZaparooProject/go-xelc/transport/uart"
	"go.uber.org/zap"
)

// DefaultCloseTimeout bounds the wait for a dispatcher to release its port
const DefaultCloseTimeout = 2 * time.Second

// Dialer opens a transport for a port
type Dialer func(portName string, debug bool) (xelc.Transport, error)

// UARTDialer opens serial transports with the given line settings
func UARTDialer(opts uart.PortOptions, logger *zap.Logger) Dialer {
	return func(portName string, debug bool) (xelc.Transport, error) {
		t, err := uart.New(portName,
			uart.WithPortOptions(opts),
			uart.WithLogger(logger),
			uart.WithDebug(debug))
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}

// OpenParams selects the port and session settings for Manager.Open
type OpenParams struct {
	Port         string
	CardType     xelc.CardType
	PollInterval time.Duration
	Debug        bool
}

// Manager holds the single active reader session
type Manager struct {
	dial         Dialer
	logger       *zap.Logger
	metrics      *metrics.AppMetrics
	session      *xelc.Session
	closeTimeout time.Duration
	// opMu serializes Open and Close, mu guards session
	opMu sync.Mutex
	mu   sync.Mutex
}

// NewManager creates a manager. metrics may be nil.
func NewManager(dial Dialer, logger *zap.Logger, m *metrics.AppMetrics) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		dial:         dial,
		logger:       logger,
		metrics:      m,
		closeTimeout: DefaultCloseTimeout,
	}
}

// Open starts a session on p.Port. A session that is already open is
// closed first, and its port released, before the new one opens.
func (m *Manager) Open(p OpenParams) error {
	if p.Port == "" {
		return fmt.Errorf("%w: port is required", xelc.ErrInvalidParameter)
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	if _, err := m.release(); err != nil {
		return err
	}

	factory := func(name string) (xelc.Transport, error) {
		return m.dial(name, p.Debug)
	}
	session, err := xelc.OpenPort(p.Port, p.CardType, factory,
		xelc.WithPollInterval(p.PollInterval),
		xelc.WithDebug(p.Debug),
		xelc.WithLogger(m.logger))
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.session = session
	m.mu.Unlock()
	if m.metrics != nil {
		m.metrics.SessionsOpened.Inc()
	}
	go m.watchCards(session, p.PollInterval)
	m.logger.Info("reader session opened",
		zap.String("port", p.Port),
		zap.Stringer("card_type", p.CardType),
		zap.Duration("poll_interval", p.PollInterval))
	return nil
}

// Close stops the active session and waits for its port to be released.
// It reports whether a session was open.
func (m *Manager) Close() bool {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	open, err := m.release()
	if err != nil {
		m.logger.Warn("session close", zap.Error(err))
	}
	return open
}

// release detaches the active session and waits for its port to be
// released. The session is unreachable through Current while it waits.
func (m *Manager) release() (bool, error) {
	m.mu.Lock()
	session := m.session
	m.session = nil
	m.mu.Unlock()

	if session == nil {
		return false, nil
	}
	open := session.IsOpen()
	session.Close()
	select {
	case <-session.Done():
		return open, nil
	case <-time.After(m.closeTimeout):
		return open, errors.New("timed out waiting for the reader to release the port")
	}
}

// IsOpen reports whether a session is open
func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil && m.session.IsOpen()
}

// Current returns the open session or nil
func (m *Manager) Current() *xelc.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil || !m.session.IsOpen() {
		return nil
	}
	return m.session
}

// Session returns the open session or ErrSessionNotOpen
func (m *Manager) Session() (*xelc.Session, error) {
	if s := m.Current(); s != nil {
		return s, nil
	}
	return nil, xelc.ErrSessionNotOpen
}

// watchCards logs card arrivals and removals until session stops
func (m *Manager) watchCards(session *xelc.Session, interval time.Duration) {
	cfg := polling.DefaultConfig()
	if interval > 0 {
		cfg.PollInterval = interval
		cfg.CardRemovalTimeout = max(cfg.CardRemovalTimeout, 2*interval)
	}
	logger := m.logger.With(zap.String("port", session.PortName()))

	monitor := polling.NewMonitor(session, cfg)
	monitor.OnCardDetected = func(uid []byte) {
		logger.Info("card detected", zap.String("uid", hex.EncodeToString(uid)))
		m.cardEvent("detected")
	}
	monitor.OnCardChanged = func(uid []byte) {
		logger.Info("card changed", zap.String("uid", hex.EncodeToString(uid)))
		m.cardEvent("changed")
	}
	monitor.OnCardRemoved = func() {
		logger.Info("card removed")
		m.cardEvent("removed")
	}
	_ = monitor.Start(context.Background())
}

func (m *Manager) cardEvent(event string) {
	if m.metrics != nil {
		m.metrics.CardEvents.WithLabelValues(event).Inc()
	}
}
