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
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	xelc "github.com/ZaparooProject/go-xelc"
	"github.com/ZaparooProject/go-xelc/detection"
	"github.com/ZaparooProject/go-xelc/transport/uart"
	"go.uber.org/zap"
)

type config struct {
	devicePath   *string
	cardType     *string
	timeout      *time.Duration
	writeText    *string
	readLength   *uint
	buzzer       *int
	debug        *bool
	pollInterval *time.Duration
}

func parseFlags() *config {
	cfg := &config{
		devicePath: flag.String("device", "",
			"Serial device path (e.g., /dev/ttyUSB0 or COM3). Leave empty for auto-detection."),
		cardType:  flag.String("card", xelc.CardTypeUltraLight.String(), "Card family: Mifare, UltraLight, CPU, ISO14443B, ISO15693, Other"),
		timeout:   flag.Duration("timeout", 30*time.Second, "Timeout for card detection (default: 30s)"),
		writeText: flag.String("write", "", "Text to write to the card (if not specified, will only read)"),
		readLength: flag.Uint("len", 16,
			"Number of data bytes to read after detection (0-255)"),
		buzzer: flag.Int("buzzer", -1, "Buzzer setting to send once a card is detected (0-255, -1 to skip)"),
		debug:  flag.Bool("debug", false, "Enable debug output"),
		pollInterval: flag.Duration("poll-interval", 100*time.Millisecond,
			"Polling interval for card detection (default: 100ms)"),
	}
	flag.Parse()
	return cfg
}

// findDevice returns path, or the first detected serial port when path is empty
func findDevice(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	ports, err := detection.ListPorts(detection.DefaultOptions())
	if err != nil {
		return "", fmt.Errorf("failed to list serial ports: %w", err)
	}
	if len(ports) == 0 {
		return "", errors.New("no serial ports found")
	}
	_, _ = fmt.Printf("Auto-detected %s (%s)\n", ports[0].Name, ports[0].Product)
	return ports[0].Name, nil
}

func openSession(cfg *config, logger *zap.Logger) (*xelc.Session, error) {
	cardType, err := xelc.ParseCardType(*cfg.cardType)
	if err != nil {
		return nil, err
	}
	path, err := findDevice(*cfg.devicePath)
	if err != nil {
		return nil, err
	}
	_, _ = fmt.Printf("Opening device: %s\n", path)

	factory := func(name string) (xelc.Transport, error) {
		t, err := uart.New(name, uart.WithLogger(logger), uart.WithDebug(*cfg.debug))
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	session, err := xelc.OpenPort(path, cardType, factory,
		xelc.WithPollInterval(*cfg.pollInterval),
		xelc.WithDebug(*cfg.debug),
		xelc.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open reader: %w", err)
	}
	return session, nil
}

// waitForCard blocks until the session reports a UID or ctx ends
func waitForCard(ctx context.Context, session *xelc.Session, interval time.Duration) ([]byte, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if uid, ok := session.UID(); ok {
			return uid, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-session.Done():
			return nil, xelc.ErrSessionClosed
		case <-ticker.C:
		}
	}
}

func handleCard(w io.Writer, session *xelc.Session, uid []byte, writeText string, readLength byte) error {
	_, _ = fmt.Fprintf(w, "\n=== Card detected ===\nType: %s\nUID:  %s\n", session.CardType(), hex.EncodeToString(uid))

	if writeText != "" {
		res, err := session.Write([]byte(writeText))
		if err != nil {
			return fmt.Errorf("failed to write: %w", err)
		}
		if !res.Success {
			return fmt.Errorf("write failed cmd=%d", res.Command)
		}
		_, _ = fmt.Fprintf(w, "Wrote %d bytes\n", len(writeText))
	}

	if readLength == 0 {
		return nil
	}
	res, err := session.Read(readLength)
	if err != nil {
		return fmt.Errorf("failed to read: %w", err)
	}
	if !res.Success {
		return fmt.Errorf("read failed cmd=%d", res.Command)
	}
	_, _ = fmt.Fprintf(w, "Data: %s\n%q\n", hex.EncodeToString(res.Data), res.Data)
	return nil
}

func newLogger(debug bool) *zap.Logger {
	if !debug {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func run(cfg *config) error {
	if *cfg.readLength > 255 {
		return fmt.Errorf("%w: -len must be 0-255", xelc.ErrInvalidParameter)
	}
	if *cfg.buzzer > 255 {
		return fmt.Errorf("%w: -buzzer must be 0-255", xelc.ErrInvalidParameter)
	}

	logger := newLogger(*cfg.debug)
	defer func() { _ = logger.Sync() }()

	session, err := openSession(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		session.Close()
		<-session.Done()
	}()

	_, _ = fmt.Printf("Waiting for card (timeout: %s, poll interval: %s)...\n", *cfg.timeout, *cfg.pollInterval)

	ctx, cancel := context.WithTimeout(context.Background(), *cfg.timeout)
	defer cancel()

	uid, err := waitForCard(ctx, session, *cfg.pollInterval)
	if errors.Is(err, context.DeadlineExceeded) {
		_, _ = fmt.Printf("timeout: no card detected within %s\n", *cfg.timeout)
		return nil
	}
	if err != nil {
		return err
	}
	if err := handleCard(os.Stdout, session, uid, *cfg.writeText, byte(*cfg.readLength)); err != nil {
		return err
	}
	if *cfg.buzzer >= 0 {
		return sendBuzzer(session, byte(*cfg.buzzer))
	}
	return nil
}

func sendBuzzer(session *xelc.Session, setting byte) error {
	res, err := session.SetBuzzer(setting)
	if err != nil {
		return fmt.Errorf("failed to set buzzer: %w", err)
	}
	if !res.Success {
		return fmt.Errorf("buzzer setting failed cmd=%d", res.Command)
	}
	return nil
}

func main() {
	if err := run(parseFlags()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
