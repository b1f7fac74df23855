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
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

const loggerKey = "logger"

// RequestLogger tags each request with an ID, stores a request-scoped
// logger in the context and logs the request when it completes
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		reqLogger := logger.With(zap.String("request_id", id))
		c.Set(loggerKey, reqLogger)

		c.Next()

		reqLogger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("remote_addr", c.ClientIP()))
	}
}

func requestLogger(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return fallback
}

// RateLimiter is a token bucket shared by all clients
type RateLimiter struct {
	limiter       *rate.Limiter
	allowedCount  atomic.Int64
	rejectedCount atomic.Int64
}

// NewRateLimiter creates a limiter allowing ratePerSec requests per second
// with the given burst. Non-positive values fall back to 50/s and twice the
// rate.
func NewRateLimiter(ratePerSec float64, burst int) *RateLimiter {
	if ratePerSec <= 0 {
		ratePerSec = 50
	}
	if burst <= 0 {
		burst = int(ratePerSec * 2)
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst)}
}

// Allow reports whether a request may proceed now
func (l *RateLimiter) Allow() bool {
	if l.limiter.Allow() {
		l.allowedCount.Add(1)
		return true
	}
	l.rejectedCount.Add(1)
	return false
}

// AllowedCount returns the number of admitted requests
func (l *RateLimiter) AllowedCount() int64 {
	return l.allowedCount.Load()
}

// RejectedCount returns the number of rejected requests
func (l *RateLimiter) RejectedCount() int64 {
	return l.rejectedCount.Load()
}

// RateLimit rejects requests over the limiter's budget with 429
func RateLimit(l *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{Message: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
