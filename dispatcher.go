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
	"time"

	"go.uber.org/zap"
)

// loopDelay is the pause between two dispatcher iterations
const loopDelay = time.Millisecond

// run is the dispatcher loop. It is the only code that touches the transport.
func (s *Session) run() {
	defer close(s.done)
	defer func() {
		if err := s.transport.Close(); err != nil {
			s.logger.Warn("failed to close transport", zap.Error(err))
		}
		s.logger.Info("session closed")
	}()

	lastPoll := time.Now()
	for {
		if !s.opened.Load() {
			return
		}
		if !s.transport.IsConnected() {
			s.logger.Warn("transport disconnected, closing session")
			s.opened.Store(false)
			return
		}

		if time.Since(lastPoll) >= s.config.PollInterval {
			lastPoll = time.Now()
			s.pollUID()
		}

		select {
		case cmd := <-s.commands:
			s.dispatch(cmd)
		default:
		}

		time.Sleep(loopDelay)
	}
}

// pollUID refreshes the current UID. Any failure clears it.
func (s *Session) pollUID() {
	start := time.Now()
	resp, err := s.transport.SendAndWait(s.cardType.ReadUIDCode(), nil)
	s.pollCycles.Add(1)
	s.lastPollLatency.Store(int64(time.Since(start)))

	switch {
	case err != nil:
		s.pollErrors.Add(1)
		s.setUID(nil)
		s.logger.Warn("uid poll failed", zap.Error(err))
	case !resp.Success():
		s.setUID(nil)
		if s.config.Debug {
			s.logger.Debug("no card",
				zap.Uint8("status", resp.Status),
				zap.String("reason", StatusText(resp.Status)))
		}
	default:
		s.cardPolls.Add(1)
		s.setUID(resp.Data)
		if s.config.Debug {
			s.logger.Debug("uid read", zap.Binary("uid", resp.Data))
		}
	}
}

func (s *Session) dispatch(cmd command) {
	var res Result
	switch cmd.code {
	case CmdWriteData:
		res = s.writePages(cmd.payload)
	case CmdReadData:
		res = s.readPages(cmd.payload)
	case CmdSetBuzzer:
		res = s.setBuzzer(cmd.payload)
	case CmdCloseUIDReport:
		s.setUIDReport(UIDReportDisable)
		s.commandsRun.Add(1)
		return
	case CmdOpenUIDReport:
		s.setUIDReport(UIDReportEnable)
		s.commandsRun.Add(1)
		return
	default:
		s.logger.Error("unknown command", zap.Uint8("command", cmd.code))
		res = Result{Command: cmd.code}
	}

	s.commandsRun.Add(1)
	if !res.Success {
		s.commandFailures.Add(1)
	}
	s.results <- res
}

// writePages writes the payload one page at a time starting at FirstPage.
// Bytes are taken from the tail of the payload, four per page, and the last
// page is zero filled. Writing stops at the first failure or at LastPage.
func (s *Session) writePages(data []byte) Result {
	code := s.cardType.WriteDataCode()
	end := len(data)
	page := FirstPage
	success := true

	for end > 0 {
		block := make([]byte, 1+PageSize)
		block[0] = byte(page)
		for i := 1; i <= PageSize && end > 0; i++ {
			end--
			block[i] = data[end]
		}

		resp, err := s.transport.SendAndWait(code, block)
		if err != nil {
			s.logger.Error("page write failed", zap.Int("page", page), zap.Error(err))
			success = false
			break
		}
		if !resp.Success() {
			s.logger.Error("page write rejected",
				zap.Int("page", page),
				zap.Uint8("status", resp.Status),
				zap.String("reason", StatusText(resp.Status)))
			success = false
			break
		}

		page++
		if page >= LastPage {
			if end > 0 {
				s.logger.Warn("write truncated at last page", zap.Int("unwritten", end))
			}
			break
		}
	}

	return Result{Command: CmdWriteData, Success: success}
}

// readPages reads payload[0] bytes starting at FirstPage, at most PageSize
// bytes per page. The last page is trimmed to the bytes still missing.
func (s *Session) readPages(payload []byte) Result {
	if len(payload) == 0 {
		s.logger.Error("read requested without a length")
		return Result{Command: CmdReadData}
	}

	code := s.cardType.ReadDataCode()
	total := int(payload[0])
	data := make([]byte, 0, total)
	success := true

	for page := FirstPage; len(data) < total; {
		resp, err := s.transport.SendAndWait(code, []byte{byte(page)})
		if err != nil {
			s.logger.Error("page read failed", zap.Int("page", page), zap.Error(err))
			success = false
			break
		}
		if !resp.Success() {
			s.logger.Error("page read rejected",
				zap.Int("page", page),
				zap.Uint8("status", resp.Status),
				zap.String("reason", StatusText(resp.Status)))
			success = false
			break
		}

		n := min(PageSize, len(resp.Data), total-len(data))
		data = append(data, resp.Data[:n]...)

		page++
		if page > LastPage {
			if len(data) != total {
				success = false
			}
			break
		}
	}

	return Result{Command: CmdReadData, Success: success, Data: data}
}

func (s *Session) setBuzzer(payload []byte) Result {
	res := Result{Command: FnSetBuzzer}
	if len(payload) == 0 {
		s.logger.Error("buzzer setting missing")
		return res
	}

	resp, err := s.transport.SendAndWait(FnSetBuzzer, payload[:1])
	switch {
	case err != nil:
		s.logger.Error("buzzer setting failed", zap.Error(err))
	case !resp.Success():
		s.logger.Error("buzzer setting rejected",
			zap.Uint8("status", resp.Status),
			zap.String("reason", StatusText(resp.Status)))
	default:
		res.Success = true
	}
	return res
}

// setUIDReport does not wait for a reply; the outcome is only logged
func (s *Session) setUIDReport(value byte) {
	if err := s.transport.Send(FnUIDReportSet, []byte{value}); err != nil {
		s.logger.Error("uid report setting failed", zap.Uint8("value", value), zap.Error(err))
		return
	}
	s.logger.Info("uid report setting sent", zap.Bool("enabled", value == UIDReportEnable))
}
