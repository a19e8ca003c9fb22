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

	. "gopkg.in/check.v1"

	"github.com/burrowcore/burrow/dirs"
	"github.com/burrowcore/burrow/logger"
	"github.com/burrowcore/burrow/sandbox/dbus"
	"github.com/burrowcore/burrow/testutil"
)

var _ = Suite(&policySuite{})

type policySuite struct {
	testutil.BaseTest

	env      *dbus.SandboxEnv
	denied   []string
	overlays []string
	setenvs  map[string]string
}

func (s *policySuite) SetUpTest(c *C) {
	s.BaseTest.SetUpTest(c)

	dirs.SetRootDir(c.MkDir())
	s.AddCleanup(func() { dirs.SetRootDir("/") })

	s.denied = nil
	s.overlays = nil
	s.setenvs = make(map[string]string)

	s.AddCleanup(dbus.MockRunAsRoot(func(f func() error) error { return f() }))
	s.AddCleanup(dbus.MockDenyAccess(func(path string) error {
		s.denied = append(s.denied, path)
		return nil
	}))
	s.AddCleanup(dbus.MockOverlay(func(socketPath, proxyPath string) error {
		s.overlays = append(s.overlays, fmt.Sprintf("%s <- %s", socketPath, proxyPath))
		return nil
	}))
	s.AddCleanup(dbus.MockSetenv(func(key, value string) error {
		s.setenvs[key] = value
		return nil
	}))
	s.AddCleanup(dbus.MockDBusAvailable(func() bool { return true }))

	oldAddr, hadAddr := os.LookupEnv("DBUS_SESSION_BUS_ADDRESS")
	os.Unsetenv("DBUS_SESSION_BUS_ADDRESS")
	s.AddCleanup(func() {
		if hadAddr {
			os.Setenv("DBUS_SESSION_BUS_ADDRESS", oldAddr)
		}
	})

	s.env = &dbus.SandboxEnv{
		UID:             1000,
		GID:             1000,
		Home:            c.MkDir(),
		NetworkDisabled: true,
	}
}

func (s *policySuite) makeProxyDir(c *C) {
	c.Assert(os.MkdirAll(dirs.BurrowDBusDir, 0755), IsNil)
}

func (s *policySuite) TestBothAllowed(c *C) {
	err := dbus.ApplyPolicy(nil, s.env, dbus.PolicyAllow, dbus.PolicyAllow)
	c.Assert(err, IsNil)
	c.Check(s.denied, HasLen, 0)
	c.Check(s.overlays, HasLen, 0)
	c.Check(s.setenvs, HasLen, 0)
}

func (s *policySuite) TestBothAllowedHidesStaleProxyDir(c *C) {
	s.makeProxyDir(c)
	err := dbus.ApplyPolicy(nil, s.env, dbus.PolicyAllow, dbus.PolicyAllow)
	c.Assert(err, IsNil)
	c.Check(s.denied, DeepEquals, []string{dirs.BurrowDBusDir})
}

func (s *policySuite) TestDisabledInConfig(c *C) {
	s.AddCleanup(dbus.MockDBusAvailable(func() bool { return false }))
	s.makeProxyDir(c)
	buf, restore := logger.MockLogger()
	defer restore()

	err := dbus.ApplyPolicy(nil, s.env, dbus.PolicyFilter, dbus.PolicyBlock)
	c.Assert(err, IsNil)
	c.Check(buf.String(), testutil.Contains, "D-Bus handling is disabled")
	c.Check(s.denied, DeepEquals, []string{dirs.BurrowDBusDir})
	c.Check(s.overlays, HasLen, 0)
	c.Check(s.setenvs, HasLen, 0)
}

func (s *policySuite) TestUserFilter(c *C) {
	s.makeProxyDir(c)
	p := &dbus.Proxy{UserSocket: "/proxy/1234-user"}

	err := dbus.ApplyPolicy(p, s.env, dbus.PolicyFilter, dbus.PolicyAllow)
	c.Assert(err, IsNil)

	userSocket := dirs.UserBusSocket(1000)
	c.Check(s.overlays, DeepEquals, []string{
		userSocket + " <- /proxy/1234-user",
	})
	c.Check(s.setenvs, DeepEquals, map[string]string{
		"DBUS_SESSION_BUS_ADDRESS": "unix:path=" + userSocket,
	})
	c.Check(s.denied, DeepEquals, []string{
		filepath.Join(s.env.Home, ".dbus"),
		dirs.BurrowDBusDir,
	})
}

func (s *policySuite) TestUserFilterWithDivergedAddress(c *C) {
	s.makeProxyDir(c)
	os.Setenv("DBUS_SESSION_BUS_ADDRESS", "unix:path=/elsewhere/bus")
	p := &dbus.Proxy{UserSocket: "/proxy/1234-user"}

	err := dbus.ApplyPolicy(p, s.env, dbus.PolicyFilter, dbus.PolicyAllow)
	c.Assert(err, IsNil)

	// the socket the variable pointed at gets hidden as well
	c.Check(s.denied, DeepEquals, []string{
		"/elsewhere/bus",
		filepath.Join(s.env.Home, ".dbus"),
		dirs.BurrowDBusDir,
	})
}

func (s *policySuite) TestUserFilterWithoutProxy(c *C) {
	err := dbus.ApplyPolicy(nil, s.env, dbus.PolicyFilter, dbus.PolicyAllow)
	c.Check(err, ErrorMatches, "internal error: session bus is filtered but there is no proxy socket")
}

func (s *policySuite) TestUserBlock(c *C) {
	err := dbus.ApplyPolicy(nil, s.env, dbus.PolicyBlock, dbus.PolicyAllow)
	c.Assert(err, IsNil)

	userSocket := dirs.UserBusSocket(1000)
	c.Check(s.overlays, HasLen, 0)
	c.Check(s.denied, DeepEquals, []string{
		userSocket,
		filepath.Join(s.env.Home, ".dbus"),
	})
	// the variable points at the (now hidden) default socket
	c.Check(s.setenvs, DeepEquals, map[string]string{
		"DBUS_SESSION_BUS_ADDRESS": "unix:path=" + userSocket,
	})
}

func (s *policySuite) TestSystemFilter(c *C) {
	p := &dbus.Proxy{SystemSocket: "/proxy/1234-system"}

	err := dbus.ApplyPolicy(p, s.env, dbus.PolicyAllow, dbus.PolicyFilter)
	c.Assert(err, IsNil)

	c.Check(s.overlays, DeepEquals, []string{
		dirs.SystemBusSocket + " <- /proxy/1234-system",
	})
	c.Check(s.setenvs, HasLen, 0)
	c.Check(s.denied, HasLen, 0)
}

func (s *policySuite) TestSystemFilterWithoutProxy(c *C) {
	err := dbus.ApplyPolicy(nil, s.env, dbus.PolicyAllow, dbus.PolicyFilter)
	c.Check(err, ErrorMatches, "internal error: system bus is filtered but there is no proxy socket")
}

func (s *policySuite) TestSystemBlock(c *C) {
	err := dbus.ApplyPolicy(nil, s.env, dbus.PolicyAllow, dbus.PolicyBlock)
	c.Assert(err, IsNil)
	c.Check(s.denied, DeepEquals, []string{dirs.SystemBusSocket})
}

func (s *policySuite) TestSetenvFailureIsFatal(c *C) {
	s.AddCleanup(dbus.MockSetenv(func(key, value string) error {
		return fmt.Errorf("boom")
	}))

	err := dbus.ApplyPolicy(nil, s.env, dbus.PolicyBlock, dbus.PolicyAllow)
	c.Check(err, ErrorMatches, "cannot set DBUS_SESSION_BUS_ADDRESS: boom")
}

func (s *policySuite) TestAbstractSocketWarning(c *C) {
	for _, t := range []struct {
		env    dbus.SandboxEnv
		warned bool
	}{
		{dbus.SandboxEnv{}, true},
		{dbus.SandboxEnv{NetworkDisabled: true}, false},
		{dbus.SandboxEnv{BridgeConfigured: true}, false},
		{dbus.SandboxEnv{Protocols: []string{"inet", "inet6"}}, false},
		{dbus.SandboxEnv{Protocols: []string{"unix", "inet"}}, true},
	} {
		buf, restore := logger.MockLogger()
		env := t.env
		env.UID = 1000
		env.GID = 1000
		env.Home = c.MkDir()

		err := dbus.ApplyPolicy(nil, &env, dbus.PolicyBlock, dbus.PolicyAllow)
		c.Assert(err, IsNil)
		warned := buf.String() != ""
		c.Check(warned, Equals, t.warned, Commentf("%+v", t.env))
		if t.warned {
			c.Check(buf.String(), testutil.Contains, "abstract unix socket")
		}
		restore()
	}
}

func (s *policySuite) TestParsePolicy(c *C) {
	for _, t := range []struct {
		name   string
		policy dbus.Policy
	}{
		{"allow", dbus.PolicyAllow},
		{"filter", dbus.PolicyFilter},
		{"block", dbus.PolicyBlock},
	} {
		policy, err := dbus.ParsePolicy(t.name)
		c.Assert(err, IsNil)
		c.Check(policy, Equals, t.policy)
		c.Check(policy.String(), Equals, t.name)
	}

	_, err := dbus.ParsePolicy("maybe")
	c.Check(err, ErrorMatches, `cannot parse D-Bus policy "maybe" .*`)
}
