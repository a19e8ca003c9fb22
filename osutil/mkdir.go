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

package osutil

import (
	"fmt"
	"os"

	"github.com/burrowcore/burrow/osutil/sys"
)

// MkdirChown creates the given directory with the given mode and hands
// it over to uid:gid. An existing directory is re-owned and re-moded so
// the post-condition holds either way.
func MkdirChown(path string, mode os.FileMode, uid sys.UserID, gid sys.GroupID) error {
	if err := os.Mkdir(path, mode); err != nil && !os.IsExist(err) {
		return fmt.Errorf("cannot create directory %q: %v", path, err)
	}
	if err := os.Chown(path, int(uid), int(gid)); err != nil {
		return fmt.Errorf("cannot chown directory %q to %d:%d: %v", path, uid, gid, err)
	}
	// mkdir's mode is subject to umask, fix it up
	if err := os.Chmod(path, mode); err != nil {
		return fmt.Errorf("cannot chmod directory %q: %v", path, err)
	}
	return nil
}
