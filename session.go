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
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Result is the dispatcher's reply to one command
type Result struct {
	Data    []byte
	Command byte
	Success bool
}

type command struct {
	payload []byte
	code    byte
}

// Metrics tracks operational counters of a Session
type Metrics struct {
	PollCycles      int64         // Total number of UID polls
	PollErrors      int64         // Polls that failed at the exchange level
	CardPolls       int64         // Polls that returned a UID
	Commands        int64         // Commands executed by the dispatcher
	CommandFailures int64         // Commands that produced an unsuccessful Result
	LastPollLatency time.Duration // Duration of the last poll exchange
}

// Session is an open connection to one reader module.
//
// The transport is owned by a single dispatcher goroutine for the lifetime of
// the session. Callers talk to it through a command channel and a result
// channel; at most one request is in flight at any time, concurrent callers
// queue on an internal request lock and are served in turn.
//
// A request that is blocked when the session is closed returns
// ErrSessionClosed once the dispatcher has exited. There is no other
// cancellation; timeouts only exist inside the protocol layers.
type Session struct {
	transport Transport
	config    *SessionConfig
	logger    *zap.Logger
	commands  chan command
	results   chan Result
	done      chan struct{}
	portName  string
	uid       []byte
	uidMu     sync.RWMutex
	reqMu     sync.Mutex
	cardType  CardType

	opened  atomic.Bool
	polling atomic.Bool

	pollCycles      atomic.Int64
	pollErrors      atomic.Int64
	cardPolls       atomic.Int64
	commandsRun     atomic.Int64
	commandFailures atomic.Int64
	lastPollLatency atomic.Int64
}

// Open starts a session on an already connected transport. The session takes
// ownership of the transport and closes it when the dispatcher exits.
func Open(transport Transport, cardType CardType, opts ...Option) (*Session, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: transport cannot be nil", ErrInvalidParameter)
	}

	config := DefaultSessionConfig()
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	s := &Session{
		transport: transport,
		config:    config,
		cardType:  cardType,
		commands:  make(chan command),
		results:   make(chan Result),
		done:      make(chan struct{}),
	}
	s.portName = config.portName
	if namer, ok := transport.(PortNamer); ok && s.portName == "" {
		s.portName = namer.PortName()
	}
	s.logger = config.Logger.With(
		zap.String("port", s.portName),
		zap.Stringer("card_type", cardType),
	)
	s.opened.Store(true)
	s.polling.Store(config.Polling)

	s.logger.Info("session opened", zap.Duration("poll_interval", config.PollInterval))
	go s.run()

	return s, nil
}

// OpenPort creates a transport for portName with factory and opens a session on it
func OpenPort(portName string, cardType CardType, factory TransportFactory, opts ...Option) (*Session, error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: transport factory cannot be nil", ErrInvalidParameter)
	}

	transport, err := factory(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to open port %s: %w", portName, err)
	}

	session, err := Open(transport, cardType, append(opts[:len(opts):len(opts)], withPortName(portName))...)
	if err != nil {
		_ = transport.Close()
		return nil, err
	}
	return session, nil
}

// Close signals the dispatcher to stop. It returns false if the session had
// already been closed. Use Done to wait for the port to be released.
func (s *Session) Close() bool {
	if !s.opened.CompareAndSwap(true, false) {
		return false
	}
	s.logger.Info("session close requested")
	return true
}

// IsOpen reports whether the session has not been closed
func (s *Session) IsOpen() bool {
	return s.opened.Load()
}

// Done is closed once the dispatcher has exited and released the transport
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// UID returns the card UID seen by the most recent poll, or false when the
// last poll found no card or failed
func (s *Session) UID() ([]byte, bool) {
	s.uidMu.RLock()
	defer s.uidMu.RUnlock()
	if s.uid == nil {
		return nil, false
	}
	return slices.Clone(s.uid), true
}

func (s *Session) setUID(uid []byte) {
	s.uidMu.Lock()
	defer s.uidMu.Unlock()
	if uid == nil {
		s.uid = nil
		return
	}
	s.uid = append(make([]byte, 0, len(uid)), uid...)
}

// SetPolling sets the polling flag.
//
// The dispatcher does not consult this flag: UID polling always runs on its
// schedule. The flag is kept for callers that coordinate around it.
func (s *Session) SetPolling(enabled bool) {
	s.polling.Store(enabled)
}

// SetPollingAndWait sets the polling flag and then sleeps for d
func (s *Session) SetPollingAndWait(enabled bool, d time.Duration) {
	s.SetPolling(enabled)
	time.Sleep(d)
}

// Polling returns the polling flag
func (s *Session) Polling() bool {
	return s.polling.Load()
}

// CardType returns the card type the session was opened with
func (s *Session) CardType() CardType {
	return s.cardType
}

// PortName returns the port the transport is bound to, if known
func (s *Session) PortName() string {
	return s.portName
}

// Metrics returns a snapshot of the session counters
func (s *Session) Metrics() Metrics {
	return Metrics{
		PollCycles:      s.pollCycles.Load(),
		PollErrors:      s.pollErrors.Load(),
		CardPolls:       s.cardPolls.Load(),
		Commands:        s.commandsRun.Load(),
		CommandFailures: s.commandFailures.Load(),
		LastPollLatency: time.Duration(s.lastPollLatency.Load()),
	}
}

// Read reads length bytes of user memory starting at FirstPage
func (s *Session) Read(length byte) (*Result, error) {
	return s.submit(CmdReadData, []byte{length})
}

// Write writes data to user memory starting at FirstPage
func (s *Session) Write(data []byte) (*Result, error) {
	return s.submit(CmdWriteData, slices.Clone(data))
}

// SetBuzzer sends a buzzer setting to the reader
func (s *Session) SetBuzzer(setting byte) (*Result, error) {
	return s.submit(CmdSetBuzzer, []byte{setting})
}

// OpenUIDReport enables unsolicited UID reports. The command is queued and
// reported as successful without waiting for the reader.
func (s *Session) OpenUIDReport() (*Result, error) {
	return s.submitNoWait(CmdOpenUIDReport)
}

// CloseUIDReport disables unsolicited UID reports. Like OpenUIDReport it does
// not wait for the reader.
func (s *Session) CloseUIDReport() (*Result, error) {
	return s.submitNoWait(CmdCloseUIDReport)
}

// submit sends a command to the dispatcher and blocks for its result.
// The request lock is held for the whole round trip.
func (s *Session) submit(code byte, payload []byte) (*Result, error) {
	s.reqMu.Lock()
	defer s.reqMu.Unlock()

	if err := s.enqueue(code, payload); err != nil {
		return nil, err
	}

	select {
	case res := <-s.results:
		// pages come back tail first, restore the caller's byte order
		slices.Reverse(res.Data)
		return &res, nil
	case <-s.done:
		return nil, fmt.Errorf("waiting for result of command %#02x: %w", code, ErrSessionClosed)
	}
}

func (s *Session) submitNoWait(code byte) (*Result, error) {
	s.reqMu.Lock()
	defer s.reqMu.Unlock()

	if err := s.enqueue(code, nil); err != nil {
		return nil, err
	}
	return &Result{Command: code, Success: true}, nil
}

func (s *Session) enqueue(code byte, payload []byte) error {
	select {
	case <-s.done:
		return fmt.Errorf("sending command %#02x: %w", code, ErrSessionClosed)
	default:
	}

	select {
	case s.commands <- command{code: code, payload: payload}:
		return nil
	case <-s.done:
		return fmt.Errorf("sending command %#02x: %w", code, ErrSessionClosed)
	}
}
