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

package osutil_test

import (
	"os"

	. "gopkg.in/check.v1"

	"github.com/burrowcore/burrow/osutil"
)

var _ = Suite(&envSuite{})

type envSuite struct{}

func (s *envSuite) TestGetenvBool(c *C) {
	key := "__BURROW_OSUTIL_TEST"
	os.Unsetenv(key)
	defer os.Unsetenv(key)

	c.Check(osutil.GetenvBool(key), Equals, false)
	c.Check(osutil.GetenvBool(key, true), Equals, true)

	for _, value := range []string{"1", "t", "TRUE", "true"} {
		os.Setenv(key, value)
		c.Check(osutil.GetenvBool(key), Equals, true, Commentf("%q", value))
	}
	for _, value := range []string{"0", "f", "FALSE", "false"} {
		os.Setenv(key, value)
		c.Check(osutil.GetenvBool(key), Equals, false, Commentf("%q", value))
		c.Check(osutil.GetenvBool(key, true), Equals, false, Commentf("%q", value))
	}

	os.Setenv(key, "gibberish")
	c.Check(osutil.GetenvBool(key), Equals, false)
	c.Check(osutil.GetenvBool(key, true), Equals, true)
}
