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
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	xelc "github.com/ZaparooProject/go-xelc"
	"github.com/ZaparooProject/go-xelc/detection"
	"github.com/ZaparooProject/go-xelc/internal/config"
	"github.com/ZaparooProject/go-xelc/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the JSON envelope of every API endpoint. Failures are
// reported with Success false and HTTP 200.
type Response struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

var errNoCard = errors.New("no card")

const helpText = `xelc-server

Arguments:
  port  listen port, default 8180
  ip    listen address, default ::

Example:
  xelc-server 8180 127.0.0.1

HTTP API:

/open?port=COM4          open the serial port
    card_type  Mifare, UltraLight, CPU, ISO14443B, ISO15693, Other
    delay      UID poll interval in milliseconds, default 300
    debug      log reader status codes and frames, default false
/close                   close the serial port
/isopen                  whether the serial port is open
/uid                     current card UID as hex
/read?len=               read len bytes, returned as base64
/write?data=             write base64 encoded data
/buzzer?value=           send a buzzer setting
/uidreport?enable=       enable or disable UID reports
/polling?enable=         set the polling flag
/ports                   list serial ports
`

// Handlers implements the HTTP API on top of a Manager
type Handlers struct {
	manager   *Manager
	metrics   *metrics.AppMetrics
	logger    *zap.Logger
	listPorts func(detection.Options) ([]detection.PortInfo, error)
	reader    config.ReaderConfig
}

// NewHandlers creates the API handlers. reader supplies the defaults for
// /open parameters and the port filters for /ports. m may be nil.
func NewHandlers(manager *Manager, reader config.ReaderConfig, m *metrics.AppMetrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		manager:   manager,
		reader:    reader,
		metrics:   m,
		logger:    logger,
		listPorts: detection.ListPorts,
	}
}

// Register adds the API routes to r
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/", h.help)
	r.GET("/open", h.open)
	r.GET("/close", h.close)
	r.GET("/isopen", h.isOpen)
	r.GET("/uid", h.uid)
	r.GET("/read", h.read)
	r.GET("/write", h.write)
	r.GET("/buzzer", h.buzzer)
	r.GET("/uidreport", h.uidReport)
	r.GET("/polling", h.polling)
	r.GET("/ports", h.ports)
}

func (h *Handlers) reply(c *gin.Context, resp Response) {
	if h.metrics != nil {
		h.metrics.Requests.WithLabelValues(c.FullPath(), metrics.Result(resp.Success)).Inc()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) ok(c *gin.Context, message string) {
	h.reply(c, Response{Success: true, Message: message})
}

func (h *Handlers) fail(c *gin.Context, err error) {
	requestLogger(c, h.logger).Warn("request failed",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	h.reply(c, Response{Message: err.Error()})
}

func (h *Handlers) observe(op string, ok bool) {
	if h.metrics != nil {
		h.metrics.Operations.WithLabelValues(op, metrics.Result(ok)).Inc()
	}
}

func (*Handlers) help(c *gin.Context) {
	c.String(http.StatusOK, helpText)
}

func (h *Handlers) open(c *gin.Context) {
	params, err := h.openParams(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.manager.Open(params); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, "OK")
}

func (h *Handlers) openParams(c *gin.Context) (OpenParams, error) {
	params := OpenParams{
		Port:         c.Query("port"),
		PollInterval: h.reader.PollInterval,
		Debug:        h.reader.Debug,
	}
	if params.Port == "" {
		return params, fmt.Errorf("%w: missing query parameter port", xelc.ErrInvalidParameter)
	}

	cardType := h.reader.CardType
	if v := c.Query("card_type"); v != "" {
		cardType = v
	}
	ct, err := xelc.ParseCardType(cardType)
	if err != nil {
		return params, err
	}
	params.CardType = ct

	if v := c.Query("delay"); v != "" {
		ms, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return params, fmt.Errorf("%w: delay %q", xelc.ErrInvalidParameter, v)
		}
		params.PollInterval = time.Duration(ms) * time.Millisecond
	}
	if v := c.Query("debug"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return params, fmt.Errorf("%w: debug %q", xelc.ErrInvalidParameter, v)
		}
		params.Debug = debug
	}
	return params, nil
}

func (h *Handlers) close(c *gin.Context) {
	h.manager.Close()
	h.ok(c, "OK")
}

func (h *Handlers) isOpen(c *gin.Context) {
	h.ok(c, strconv.FormatBool(h.manager.IsOpen()))
}

func (h *Handlers) uid(c *gin.Context) {
	session, err := h.manager.Session()
	if err != nil {
		h.fail(c, err)
		return
	}
	uid, ok := session.UID()
	if !ok {
		h.fail(c, errNoCard)
		return
	}
	h.ok(c, hex.EncodeToString(uid))
}

func (h *Handlers) read(c *gin.Context) {
	length, err := strconv.ParseUint(c.Query("len"), 10, 8)
	if err != nil {
		h.fail(c, fmt.Errorf("%w: len must be 0-255", xelc.ErrInvalidParameter))
		return
	}
	session, err := h.manager.Session()
	if err != nil {
		h.fail(c, err)
		return
	}

	res, err := session.Read(byte(length))
	if err != nil {
		h.observe("read", false)
		h.fail(c, err)
		return
	}
	h.observe("read", res.Success)
	if !res.Success {
		h.fail(c, fmt.Errorf("read failed cmd=%d", res.Command))
		return
	}
	h.ok(c, base64.StdEncoding.EncodeToString(res.Data))
}

func (h *Handlers) write(c *gin.Context) {
	data, err := base64.StdEncoding.DecodeString(c.Query("data"))
	if err != nil {
		h.fail(c, fmt.Errorf("%w: data is not base64: %w", xelc.ErrInvalidParameter, err))
		return
	}
	session, err := h.manager.Session()
	if err != nil {
		h.fail(c, err)
		return
	}

	res, err := session.Write(data)
	if err != nil {
		h.observe("write", false)
		h.fail(c, err)
		return
	}
	h.observe("write", res.Success)
	if !res.Success {
		h.fail(c, fmt.Errorf("write failed cmd=%d", res.Command))
		return
	}
	h.ok(c, fmt.Sprintf("write succeeded, length: %d", len(data)))
}

func (h *Handlers) buzzer(c *gin.Context) {
	value, err := strconv.ParseUint(c.Query("value"), 0, 8)
	if err != nil {
		h.fail(c, fmt.Errorf("%w: value must be a byte", xelc.ErrInvalidParameter))
		return
	}
	session, err := h.manager.Session()
	if err != nil {
		h.fail(c, err)
		return
	}

	res, err := session.SetBuzzer(byte(value))
	if err != nil {
		h.observe("buzzer", false)
		h.fail(c, err)
		return
	}
	h.observe("buzzer", res.Success)
	if !res.Success {
		h.fail(c, fmt.Errorf("buzzer setting failed cmd=%d", res.Command))
		return
	}
	h.ok(c, "OK")
}

func (h *Handlers) uidReport(c *gin.Context) {
	enable, err := strconv.ParseBool(c.Query("enable"))
	if err != nil {
		h.fail(c, fmt.Errorf("%w: enable must be true or false", xelc.ErrInvalidParameter))
		return
	}
	session, err := h.manager.Session()
	if err != nil {
		h.fail(c, err)
		return
	}

	if enable {
		_, err = session.OpenUIDReport()
	} else {
		_, err = session.CloseUIDReport()
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, "OK")
}

func (h *Handlers) polling(c *gin.Context) {
	session, err := h.manager.Session()
	if err != nil {
		h.fail(c, err)
		return
	}
	if v := c.Query("enable"); v != "" {
		enable, err := strconv.ParseBool(v)
		if err != nil {
			h.fail(c, fmt.Errorf("%w: enable must be true or false", xelc.ErrInvalidParameter))
			return
		}
		session.SetPolling(enable)
	}
	h.ok(c, strconv.FormatBool(session.Polling()))
}

func (h *Handlers) ports(c *gin.Context) {
	ports, err := h.listPorts(detection.Options{
		Blocklist:   append(detection.DefaultBlocklist(), h.reader.Blocklist...),
		IgnorePaths: h.reader.IgnorePaths,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.reply(c, Response{
		Success: true,
		Message: strconv.Itoa(len(ports)),
		Data:    ports,
	})
}
