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
	"context"
	"sync"
	"testing"
	"time"

	xelc "github.com/ZaparooProject/go-xelc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	done chan struct{}
	uid  []byte
	mu   sync.Mutex
}

func newFakeSource() *fakeSource {
	return &fakeSource{done: make(chan struct{})}
}

func (f *fakeSource) UID() ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uid, f.uid != nil
}

func (f *fakeSource) Done() <-chan struct{} {
	return f.done
}

func (f *fakeSource) set(uid []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uid = uid
}

type eventLog struct {
	events []string
}

func (l *eventLog) attach(m *Monitor) {
	m.OnCardDetected = func(uid []byte) { l.events = append(l.events, "detected "+string(uid)) }
	m.OnCardChanged = func(uid []byte) { l.events = append(l.events, "changed "+string(uid)) }
	m.OnCardRemoved = func() { l.events = append(l.events, "removed") }
}

func TestMonitorStep(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	m := NewMonitor(source, &Config{PollInterval: time.Millisecond, CardRemovalTimeout: 100 * time.Millisecond})
	var log eventLog
	log.attach(m)

	base := time.Unix(1000, 0)
	at := func(ms int) time.Time { return base.Add(time.Duration(ms) * time.Millisecond) }

	m.step(at(0))
	assert.Empty(t, log.events)
	assert.Equal(t, StateIdle, m.GetState().DetectionState)

	source.set([]byte("A"))
	m.step(at(10))
	m.step(at(20))
	assert.Equal(t, []string{"detected A"}, log.events)

	// a short gap is not a removal
	source.set(nil)
	m.step(at(30))
	assert.Equal(t, StateRemovalPending, m.GetState().DetectionState)
	m.step(at(100))
	source.set([]byte("A"))
	m.step(at(110))
	assert.Equal(t, []string{"detected A"}, log.events)
	assert.Equal(t, StateCardPresent, m.GetState().DetectionState)

	source.set([]byte("B"))
	m.step(at(120))
	assert.Equal(t, []string{"detected A", "changed B"}, log.events)

	source.set(nil)
	m.step(at(200))
	m.step(at(299))
	assert.Len(t, log.events, 2)
	m.step(at(300))
	assert.Equal(t, []string{"detected A", "changed B", "removed"}, log.events)

	state := m.GetState()
	assert.False(t, state.Present)
	assert.Nil(t, state.LastUID)
}

func TestMonitorGetStateCopiesUID(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	source.set([]byte{1, 2, 3})
	m := NewMonitor(source, nil)
	m.step(time.Now())

	state := m.GetState()
	state.LastUID[0] = 0xFF
	assert.Equal(t, []byte{1, 2, 3}, m.GetState().LastUID)
}

func TestMonitorStartStops(t *testing.T) {
	t.Parallel()

	t.Run("context", func(t *testing.T) {
		t.Parallel()
		m := NewMonitor(newFakeSource(), &Config{PollInterval: time.Millisecond})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.ErrorIs(t, m.Start(ctx), context.Canceled)
	})

	t.Run("session done reports removal", func(t *testing.T) {
		t.Parallel()
		source := newFakeSource()
		source.set([]byte("A"))
		m := NewMonitor(source, &Config{PollInterval: time.Millisecond, CardRemovalTimeout: time.Hour})
		removed := make(chan struct{})
		m.OnCardRemoved = func() { close(removed) }
		close(source.done)

		require.ErrorIs(t, m.Start(context.Background()), xelc.ErrSessionClosed)
		select {
		case <-removed:
		default:
			t.Error("removal not reported")
		}
	})
}

func TestMonitorWithSession(t *testing.T) {
	t.Parallel()

	mock := xelc.NewMockTransport()
	mock.SetResponse(xelc.CardTypeMifare.ReadUIDCode(), xelc.StatusSuccess, []byte{0xCA, 0xFE})
	session, err := xelc.Open(mock, xelc.CardTypeMifare, xelc.WithPollInterval(time.Millisecond))
	require.NoError(t, err)

	m := NewMonitor(session, &Config{PollInterval: time.Millisecond, CardRemovalTimeout: 5 * time.Millisecond})
	detected := make(chan []byte, 1)
	m.OnCardDetected = func(uid []byte) { detected <- uid }

	errCh := make(chan error, 1)
	go func() { errCh <- m.Start(context.Background()) }()

	select {
	case uid := <-detected:
		assert.Equal(t, []byte{0xCA, 0xFE}, uid)
	case <-time.After(2 * time.Second):
		t.Fatal("card not detected")
	}

	session.Close()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, xelc.ErrSessionClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestCardDetectionStateString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "present", StateCardPresent.String())
	assert.Equal(t, "removal_pending", StateRemovalPending.String())
	assert.Equal(t, "unknown", CardDetectionState(9).String())
}
