// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2026 Burrow Authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

// Package dbusutil provides helpers for D-Bus addresses and private
// bus connections.
package dbusutil

import (
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

// SocketAddressPrefix is the prefix of a D-Bus address naming a unix
// socket path.
const SocketAddressPrefix = "unix:path="

// SocketAddress returns the D-Bus address for the unix socket path.
func SocketAddress(path string) string {
	return SocketAddressPrefix + path
}

// AddressPath returns the unix socket path of the given D-Bus address
// and whether the address actually was in socket-path form.
func AddressPath(addr string) (string, bool) {
	return strings.CutPrefix(addr, SocketAddressPrefix)
}

// ConnectBusAddress dials a private connection to the bus at the given
// address, authenticates, and sends the initial Hello. The caller owns
// the returned connection and must Close it.
func ConnectBusAddress(address string) (*dbus.Conn, error) {
	conn, err := dbus.Dial(address)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to bus at %s: %v", address, err)
	}
	if err := conn.Auth(nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot authenticate to bus at %s: %v", address, err)
	}
	if err := conn.Hello(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot register on bus at %s: %v", address, err)
	}
	return conn, nil
}
