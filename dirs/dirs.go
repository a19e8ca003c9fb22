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

// Package dirs centralizes the well-known filesystem locations used by
// burrow. All paths are derived from a single root directory so that
// tests can relocate the entire surface with SetRootDir.
package dirs

import (
	"path/filepath"
	"strconv"
)

var (
	// GlobalRootDir is the root directory all other paths hang off.
	GlobalRootDir string

	// RunDir is the system runtime state directory.
	RunDir string

	// BurrowRunDir holds burrow's own runtime state.
	BurrowRunDir string

	// BurrowDBusDir holds the per-user D-Bus proxy socket directories.
	BurrowDBusDir string

	// DenyDirPlaceholder and DenyFilePlaceholder are the empty,
	// read-only mount sources used to hide directories and files.
	DenyDirPlaceholder  string
	DenyFilePlaceholder string

	// SystemBusSocket is the well-known system D-Bus socket.
	SystemBusSocket string

	// BurrowConfFile is the system-wide burrow configuration file.
	BurrowConfFile string
)

func init() {
	SetRootDir("/")
}

// SetRootDir changes the root directory and recomputes all derived
// paths. Passing "" resets to "/".
func SetRootDir(rootdir string) {
	if rootdir == "" {
		rootdir = "/"
	}
	GlobalRootDir = rootdir

	RunDir = filepath.Join(rootdir, "/run")
	BurrowRunDir = filepath.Join(RunDir, "burrow")
	BurrowDBusDir = filepath.Join(BurrowRunDir, "dbus")
	DenyDirPlaceholder = filepath.Join(BurrowRunDir, "ro.dir")
	DenyFilePlaceholder = filepath.Join(BurrowRunDir, "ro.file")
	SystemBusSocket = filepath.Join(RunDir, "dbus/system_bus_socket")
	BurrowConfFile = filepath.Join(rootdir, "/etc/burrow/burrow.conf")
}

// UserRuntimeDir returns the XDG runtime directory of the given user.
func UserRuntimeDir(uid int) string {
	return filepath.Join(RunDir, "user", strconv.Itoa(uid))
}

// UserBusSocket returns the default session bus socket of the given user.
func UserBusSocket(uid int) string {
	return filepath.Join(UserRuntimeDir(uid), "bus")
}

// DBusProxyDir returns the directory holding the D-Bus proxy sockets of
// the given user.
func DBusProxyDir(uid int) string {
	return filepath.Join(BurrowDBusDir, strconv.Itoa(uid))
}
