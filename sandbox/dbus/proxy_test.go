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

package dbus_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	. "gopkg.in/check.v1"

	"github.com/burrowcore/burrow/dbusutil"
	"github.com/burrowcore/burrow/dirs"
	"github.com/burrowcore/burrow/logger"
	"github.com/burrowcore/burrow/osutil/sys"
	"github.com/burrowcore/burrow/sandbox/dbus"
	"github.com/burrowcore/burrow/testutil"
)

var _ = Suite(&proxySuite{})

type proxySuite struct {
	testutil.BaseTest

	env *dbus.SandboxEnv
}

func (s *proxySuite) SetUpTest(c *C) {
	s.BaseTest.SetUpTest(c)

	dirs.SetRootDir(c.MkDir())
	s.AddCleanup(func() { dirs.SetRootDir("/") })

	// the tests do not run with privileges to drop
	s.AddCleanup(dbus.MockRunAsRoot(func(f func() error) error { return f() }))
	s.AddCleanup(dbus.MockGetpid(func() int { return 1234 }))

	oldAddr, hadAddr := os.LookupEnv("DBUS_SESSION_BUS_ADDRESS")
	os.Unsetenv("DBUS_SESSION_BUS_ADDRESS")
	s.AddCleanup(func() {
		if hadAddr {
			os.Setenv("DBUS_SESSION_BUS_ADDRESS", oldAddr)
		}
	})

	s.env = &dbus.SandboxEnv{
		UID:  sys.UserID(os.Getuid()),
		GID:  sys.GroupID(os.Getgid()),
		Home: c.MkDir(),
	}
}

func (s *proxySuite) TestSessionBusAddressDefault(c *C) {
	c.Check(dbus.SessionBusAddress(1000), Equals,
		dbusutil.SocketAddress(dirs.UserBusSocket(1000)))
}

func (s *proxySuite) TestSessionBusAddressFromEnv(c *C) {
	os.Setenv("DBUS_SESSION_BUS_ADDRESS", "unix:path=/somewhere/else/bus")
	c.Check(dbus.SessionBusAddress(1000), Equals, "unix:path=/somewhere/else/bus")

	// anything that is not a plain socket path is ignored
	os.Setenv("DBUS_SESSION_BUS_ADDRESS", "unix:abstract=/tmp/dbus-deadbeef")
	c.Check(dbus.SessionBusAddress(1000), Equals,
		dbusutil.SocketAddress(dirs.UserBusSocket(1000)))
}

func (s *proxySuite) TestStartProxyNothingToFilter(c *C) {
	_, err := dbus.StartProxy(s.env, dbus.PolicyAllow, dbus.PolicyBlock, nil)
	c.Check(err, ErrorMatches, "internal error: cannot start a proxy when no bus is filtered")
}

// mockProxy installs a fake xdg-dbus-proxy built around the given shell
// fragment. The fragment sees the status pipe on fd 3 and the argument
// pipe on fd 4, like the real binary.
func (s *proxySuite) mockProxy(c *C, script string) *testutil.MockCmd {
	cmd := testutil.MockCommand(c, "xdg-dbus-proxy", script)
	s.AddCleanup(cmd.Restore)
	s.AddCleanup(dbus.MockProxyBinary(cmd.Exe()))
	return cmd
}

func (s *proxySuite) TestStartProxyBothBuses(c *C) {
	argsFile := filepath.Join(c.MkDir(), "args")
	cmd := s.mockProxy(c, fmt.Sprintf(`cat <&4 > %q
printf R >&3`, argsFile))

	entries := []string{
		"dbus-user.org.freedesktop.Notifications talk",
		"dbus-system.org.freedesktop.login1 talk",
	}
	p, err := dbus.StartProxy(s.env, dbus.PolicyFilter, dbus.PolicyFilter, entries)
	c.Assert(err, IsNil)
	defer p.Stop()

	c.Check(cmd.Calls(), DeepEquals, [][]string{
		{"xdg-dbus-proxy", "--fd=3", "--args=4"},
	})

	proxyDir := dirs.DBusProxyDir(os.Getuid())
	c.Check(p.UserSocket, Equals, fmt.Sprintf("%s/1234-user", proxyDir))
	c.Check(p.SystemSocket, Equals, fmt.Sprintf("%s/1234-system", proxyDir))
	c.Check(proxyDir, testutil.FilePresent)

	raw, err := os.ReadFile(argsFile)
	c.Assert(err, IsNil)
	args := strings.Split(strings.TrimSuffix(string(raw), "\x00"), "\x00")
	c.Check(args, DeepEquals, []string{
		dbusutil.SocketAddress(dirs.UserBusSocket(os.Getuid())),
		p.UserSocket,
		"--filter",
		"--org.freedesktop.Notifications=talk",
		dbusutil.SocketAddress(dirs.SystemBusSocket),
		p.SystemSocket,
		"--filter",
		"--org.freedesktop.login1=talk",
	})
}

func (s *proxySuite) TestStartProxyUserBusOnly(c *C) {
	argsFile := filepath.Join(c.MkDir(), "args")
	s.mockProxy(c, fmt.Sprintf(`cat <&4 > %q
printf R >&3`, argsFile))

	p, err := dbus.StartProxy(s.env, dbus.PolicyFilter, dbus.PolicyBlock, nil)
	c.Assert(err, IsNil)
	defer p.Stop()

	c.Check(p.UserSocket, Not(Equals), "")
	c.Check(p.SystemSocket, Equals, "")

	raw, err := os.ReadFile(argsFile)
	c.Assert(err, IsNil)
	args := strings.Split(strings.TrimSuffix(string(raw), "\x00"), "\x00")
	c.Check(args, DeepEquals, []string{
		dbusutil.SocketAddress(dirs.UserBusSocket(os.Getuid())),
		p.UserSocket,
		"--filter",
	})
}

func (s *proxySuite) TestStartProxyExitsBeforeReady(c *C) {
	s.mockProxy(c, `cat <&4 >/dev/null
exit 1`)

	_, err := dbus.StartProxy(s.env, dbus.PolicyFilter, dbus.PolicyAllow, nil)
	c.Check(err, ErrorMatches, ".*xdg-dbus-proxy exited before signaling readiness: exit status 1")
}

func (s *proxySuite) TestStartProxyClosesStatusPipe(c *C) {
	s.mockProxy(c, `cat <&4 >/dev/null
exit 0`)

	_, err := dbus.StartProxy(s.env, dbus.PolicyFilter, dbus.PolicyAllow, nil)
	c.Check(err, ErrorMatches, ".*xdg-dbus-proxy closed the status pipe unexpectedly")
}

func (s *proxySuite) TestStopReapsAndWarns(c *C) {
	buf, restore := logger.MockLogger()
	defer restore()

	s.mockProxy(c, `cat <&4 >/dev/null
printf R >&3
sleep 0.2
exit 5`)

	p, err := dbus.StartProxy(s.env, dbus.PolicyFilter, dbus.PolicyAllow, nil)
	c.Assert(err, IsNil)

	c.Assert(p.Stop(), IsNil)
	c.Check(buf.String(), testutil.Contains, "returned 5")
	c.Check(p.UserSocket, Equals, "")
	c.Check(p.SystemSocket, Equals, "")

	// stopping twice is fine
	c.Check(p.Stop(), IsNil)
}

func (s *proxySuite) TestStopNilProxy(c *C) {
	var p *dbus.Proxy
	c.Check(p.Stop(), IsNil)
}
