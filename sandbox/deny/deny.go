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

// Package deny removes filesystem access to paths inside the sandbox's
// mount namespace by bind-mounting an empty, unreadable placeholder
// over them. The mounts live and die with the namespace; nothing
// outside the sandbox is affected.
package deny

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/burrowcore/burrow/dirs"
	"github.com/burrowcore/burrow/logger"
	"github.com/burrowcore/burrow/osutil/mount"
)

var sysMount = unix.Mount

// Init creates the empty placeholder file and directory that Access
// bind-mounts over denied paths. Must run before the first Access call,
// with enough privilege to create entries under the burrow run dir.
func Init() error {
	if err := os.MkdirAll(dirs.BurrowRunDir, 0755); err != nil {
		return fmt.Errorf("cannot create %q: %v", dirs.BurrowRunDir, err)
	}
	if err := os.Mkdir(dirs.DenyDirPlaceholder, 0000); err != nil && !os.IsExist(err) {
		return fmt.Errorf("cannot create placeholder directory: %v", err)
	}
	f, err := os.OpenFile(dirs.DenyFilePlaceholder, os.O_CREATE|os.O_WRONLY, 0000)
	if err != nil {
		return fmt.Errorf("cannot create placeholder file: %v", err)
	}
	return f.Close()
}

// Access hides the given path by bind-mounting the matching placeholder
// over it. A path that does not exist is silently left alone.
func Access(path string) error {
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot stat %q: %v", path, err)
	}
	src := dirs.DenyFilePlaceholder
	if fi.IsDir() {
		src = dirs.DenyDirPlaceholder
	}
	const flags = unix.MS_BIND | unix.MS_REC
	opts, _ := mount.MountFlagsToOpts(flags)
	logger.Debugf("denying access to %q (mount %s over it, %s)", path, src, strings.Join(opts, "|"))
	if err := sysMount(src, path, "", flags, ""); err != nil {
		return fmt.Errorf("cannot deny access to %q: %v", path, err)
	}
	return nil
}
