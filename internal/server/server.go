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

// Package server exposes the reader session over HTTP
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/ZaparooProject/go-xelc/internal/config"
	"github.com/ZaparooProject/go-xelc/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Server wraps the gin engine and its http.Server
type Server struct {
	srv     *http.Server
	limiter *RateLimiter
	logger  *zap.Logger
}

// New builds the HTTP server. reg may be nil, which disables the metrics
// endpoint regardless of configuration.
func New(cfg *config.Config, h *Handlers, reg *prometheus.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	if cfg.Metrics.Enable && reg != nil {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(metrics.Handler(reg)))
	}

	limiter := NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.Burst)
	api := r.Group("/", RateLimit(limiter))
	h.Register(api)

	return &Server{
		srv: &http.Server{
			Addr:         cfg.HTTP.Addr(),
			Handler:      r,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		},
		limiter: limiter,
		logger:  logger,
	}
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones to finish
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down",
		zap.Int64("requests_allowed", s.limiter.AllowedCount()),
		zap.Int64("requests_rejected", s.limiter.RejectedCount()))
	return s.srv.Shutdown(ctx)
}
