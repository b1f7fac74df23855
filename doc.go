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

/*
Package xelc drives XELC serial NFC/RFID readers.

A reader speaks a small framed protocol over a serial port: every frame
starts with 0x24, carries a little-endian length, a function code, an
optional status byte on replies, a length-prefixed payload and a
CRC16/XMODEM checksum. The function code selects the card family
(Mifare, UltraLight, CPU, ISO14443B, ISO15693) and the operation.

A Session owns one transport. A single dispatcher goroutine polls the
card UID at a fixed interval and executes queued page reads, page writes,
buzzer settings and UID report toggles between polls, so callers never
touch the port directly.

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-xelc"
	    "github.com/ZaparooProject/go-xelc/transport/uart"
	)

	transport, err := uart.New("/dev/ttyUSB0")
	if err != nil {
	    log.Fatal(err)
	}

	session, err := xelc.Open(transport, xelc.CardTypeUltraLight,
	    xelc.WithPollInterval(300*time.Millisecond))
	if err != nil {
	    log.Fatal(err)
	}
	defer func() {
	    session.Close()
	    <-session.Done()
	}()

	if uid, ok := session.UID(); ok {
	    fmt.Printf("card %x\n", uid)
	}

	res, err := session.Read(16)
	if err == nil && res.Success {
	    fmt.Printf("data %q\n", res.Data)
	}

Data is stored four bytes per page starting at page 4. Write sends the
payload tail first, and Read returns the bytes in the order they were
written.

The cmd/xelc-server binary exposes a Session over HTTP.
*/
package xelc
