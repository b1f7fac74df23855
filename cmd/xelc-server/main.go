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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ZaparooProject/go-xelc/internal/config"
	"github.com/ZaparooProject/go-xelc/internal/logging"
	"github.com/ZaparooProject/go-xelc/internal/metrics"
	"github.com/ZaparooProject/go-xelc/internal/server"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to a config file (default: xelc.yaml or $XELC_CONFIG)")
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-config file] [port] [ip]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(*configPath, flag.Args()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := applyArgs(cfg, args); err != nil {
		return err
	}

	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	reg := metrics.NewRegistry()
	appMetrics := metrics.NewAppMetrics(reg)

	manager := server.NewManager(server.UARTDialer(cfg.Reader.Serial, logger), logger, appMetrics)
	reg.MustRegister(metrics.NewSessionCollector(manager.Current))

	handlers := server.NewHandlers(manager, cfg.Reader, appMetrics, logger)
	srv := server.New(cfg, handlers, reg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		manager.Close()
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	manager.Close()
	return nil
}

// applyArgs applies the positional [port] [ip] arguments over cfg
func applyArgs(cfg *config.Config, args []string) error {
	if len(args) > 2 {
		return fmt.Errorf("too many arguments: %v", args)
	}
	if len(args) > 0 {
		port, err := strconv.Atoi(args[0])
		if err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("invalid port %q", args[0])
		}
		cfg.HTTP.Port = port
	}
	if len(args) > 1 {
		cfg.HTTP.IP = args[1]
	}
	return nil
}
