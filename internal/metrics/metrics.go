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

// Package metrics exposes Prometheus metrics for the server and the reader
// session
package metrics

import (
	"net/http"

	xelc "github.com/ZaparooProject/go-xelc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "xelc"

// NewRegistry creates a registry with the Go and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler serving reg
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics are the server's own counters
type AppMetrics struct {
	Requests       *prometheus.CounterVec // labels: route, result=ok|error
	Operations     *prometheus.CounterVec // labels: op, result=ok|error
	SessionsOpened prometheus.Counter
	CardEvents     *prometheus.CounterVec // labels: event=detected|changed|removed
}

// NewAppMetrics registers and returns the server metrics
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	m := &AppMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests by route and outcome.",
		}, []string{"route", "result"}),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reader_operations_total",
			Help:      "Reader operations requested through the API.",
		}, []string{"op", "result"}),
		SessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_opened_total",
			Help:      "Reader sessions opened.",
		}),
		CardEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "card_events_total",
			Help:      "Cards detected, changed and removed.",
		}, []string{"event"}),
	}
	reg.MustRegister(m.Requests, m.Operations, m.SessionsOpened, m.CardEvents)
	return m
}

// Result maps a success flag to the result label value
func Result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// SessionSource returns the current session, or nil when none is open
type SessionSource func() *xelc.Session

// SessionCollector reports the counters of whichever session is open at
// scrape time. Counters restart from zero when a new session opens.
type SessionCollector struct {
	source      SessionSource
	open        *prometheus.Desc
	cardPresent *prometheus.Desc
	pollCycles  *prometheus.Desc
	pollErrors  *prometheus.Desc
	cardPolls   *prometheus.Desc
	commands    *prometheus.Desc
	failures    *prometheus.Desc
	pollLatency *prometheus.Desc
}

var _ prometheus.Collector = (*SessionCollector)(nil)

// NewSessionCollector creates a collector reading from source
func NewSessionCollector(source SessionSource) *SessionCollector {
	labels := []string{"port", "card_type"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "session", name), help, labels, nil)
	}
	return &SessionCollector{
		source: source,
		open: prometheus.NewDesc(prometheus.BuildFQName(namespace, "session", "open"),
			"Whether a reader session is open.", nil, nil),
		cardPresent: desc("card_present", "Whether the last poll found a card."),
		pollCycles:  desc("poll_cycles_total", "UID polls run."),
		pollErrors:  desc("poll_errors_total", "UID polls that failed at the exchange level."),
		cardPolls:   desc("card_polls_total", "UID polls that returned a UID."),
		commands:    desc("commands_total", "Commands executed by the dispatcher."),
		failures:    desc("command_failures_total", "Commands that did not succeed."),
		pollLatency: desc("last_poll_latency_seconds", "Duration of the last UID poll exchange."),
	}
}

// Describe implements prometheus.Collector
func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.open
	ch <- c.cardPresent
	ch <- c.pollCycles
	ch <- c.pollErrors
	ch <- c.cardPolls
	ch <- c.commands
	ch <- c.failures
	ch <- c.pollLatency
}

// Collect implements prometheus.Collector
func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	session := c.source()
	if session == nil || !session.IsOpen() {
		ch <- prometheus.MustNewConstMetric(c.open, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.open, prometheus.GaugeValue, 1)

	labels := []string{session.PortName(), session.CardType().String()}
	m := session.Metrics()
	_, present := session.UID()

	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v int64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	if present {
		gauge(c.cardPresent, 1)
	} else {
		gauge(c.cardPresent, 0)
	}
	counter(c.pollCycles, m.PollCycles)
	counter(c.pollErrors, m.PollErrors)
	counter(c.cardPolls, m.CardPolls)
	counter(c.commands, m.Commands)
	counter(c.failures, m.CommandFailures)
	gauge(c.pollLatency, m.LastPollLatency.Seconds())
}
