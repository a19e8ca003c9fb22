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

package dbus

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/burrowcore/burrow/logger"
	"github.com/burrowcore/burrow/osutil/mount"
)

var sysMount = unix.Mount

// socketOverlay hides the real bus socket by bind-mounting the proxy's
// private socket over it. The proxy path is pinned with an O_PATH
// descriptor and that descriptor is verified to be a socket before the
// mount happens, so the path cannot be swapped for a symlink or some
// other file in between. Needs to run with elevated privileges.
func socketOverlay(socketPath, proxyPath string) error {
	fd, err := unix.Open(proxyPath, unix.O_PATH|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("cannot open proxy socket %q: %v", proxyPath, err)
	}
	defer unix.Close(fd)

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return fmt.Errorf("cannot stat proxy socket %q: %v", proxyPath, err)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFSOCK {
		return fmt.Errorf("cannot mount %q on %q: not a socket", proxyPath, socketPath)
	}

	const flags = unix.MS_BIND | unix.MS_REC
	opts, _ := mount.MountFlagsToOpts(flags)
	logger.Debugf("mounting %q on %q (%s)", proxyPath, socketPath, strings.Join(opts, "|"))
	if err := sysMount(proxyPath, socketPath, "", flags, ""); err != nil {
		return fmt.Errorf("cannot mount %q on %q: %v", proxyPath, socketPath, err)
	}
	return nil
}
