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

// Package dbus mediates the sandboxed process's access to the session
// and system message buses. Each bus is either fully allowed, fully
// blocked, or filtered through an external proxy; in the latter case
// the real bus socket is transparently replaced by the proxy's socket
// before the confined process starts, leaving no window in which the
// unfiltered socket is reachable.
package dbus

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/burrowcore/burrow/burrowconfig"
	"github.com/burrowcore/burrow/dbusutil"
	"github.com/burrowcore/burrow/dirs"
	"github.com/burrowcore/burrow/logger"
	"github.com/burrowcore/burrow/osutil"
	"github.com/burrowcore/burrow/osutil/sys"
	"github.com/burrowcore/burrow/sandbox/deny"
)

// Policy is the mediation stance for one bus.
type Policy int

const (
	// PolicyAllow leaves the bus fully accessible.
	PolicyAllow Policy = iota
	// PolicyFilter routes the bus through the filtering proxy.
	PolicyFilter
	// PolicyBlock removes access to the bus entirely.
	PolicyBlock
)

func (p Policy) String() string {
	switch p {
	case PolicyAllow:
		return "allow"
	case PolicyFilter:
		return "filter"
	case PolicyBlock:
		return "block"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses the user-facing name of a bus policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "allow":
		return PolicyAllow, nil
	case "filter":
		return PolicyFilter, nil
	case "block":
		return PolicyBlock, nil
	}
	return PolicyAllow, fmt.Errorf("cannot parse D-Bus policy %q (try allow, filter or block)", s)
}

// SandboxEnv carries the read-only facts about the sandbox that the
// mediation consults.
type SandboxEnv struct {
	// UID and GID identify the invoking user.
	UID sys.UserID
	GID sys.GroupID
	// Home is the invoking user's home directory.
	Home string
	// NetworkDisabled is set when the sandbox gets no network at all.
	NetworkDisabled bool
	// BridgeConfigured is set when the sandbox's traffic goes through
	// a dedicated bridge interface.
	BridgeConfigured bool
	// Protocols is the set of permitted socket protocols; empty means
	// unrestricted.
	Protocols []string
}

var (
	denyAccess    = deny.Access
	doOverlay     = socketOverlay
	osSetenv      = os.Setenv
	dbusAvailable = burrowconfig.DBusAvailable

	runAsRoot = func(f func() error) error {
		return sys.RunAsUidGid(0, 0, f)
	}
)

// ApplyPolicy enforces the per-bus policies on the mount namespace and
// the environment. It must run after StartProxy (when any bus is
// filtered) and before the confined process is launched. The whole
// sequence runs with elevated privileges.
func ApplyPolicy(p *Proxy, env *SandboxEnv, userPolicy, systemPolicy Policy) error {
	return runAsRoot(func() error {
		return applyPolicy(p, env, userPolicy, systemPolicy)
	})
}

func applyPolicy(p *Proxy, env *SandboxEnv, userPolicy, systemPolicy Policy) error {
	if userPolicy == PolicyAllow && systemPolicy == PolicyAllow {
		// nothing was ever created under the proxy socket dir
		return denySocketDir()
	}

	if !dbusAvailable() {
		logger.Noticef("D-Bus handling is disabled in the burrow configuration file")
		return denySocketDir()
	}

	newUserAddr := dbusutil.SocketAddress(dirs.UserBusSocket(int(env.UID)))
	newUserSocket, _ := dbusutil.AddressPath(newUserAddr)
	origUserSocket, _ := dbusutil.AddressPath(sessionBusAddress(env.UID))

	if userPolicy != PolicyAllow {
		switch userPolicy {
		case PolicyFilter:
			if p == nil || p.UserSocket == "" {
				return fmt.Errorf("internal error: session bus is filtered but there is no proxy socket")
			}
			if err := doOverlay(newUserSocket, p.UserSocket); err != nil {
				return err
			}
		case PolicyBlock:
			if err := denyAccess(newUserSocket); err != nil {
				return err
			}
		default:
			return fmt.Errorf("internal error: unknown session bus policy %d", userPolicy)
		}

		// the session variable may have pointed somewhere else entirely
		if origUserSocket != newUserSocket {
			if err := denyAccess(origUserSocket); err != nil {
				return err
			}
		}

		// redirect the confined process to the mediated socket
		if err := osSetenv("DBUS_SESSION_BUS_ADDRESS", newUserAddr); err != nil {
			return fmt.Errorf("cannot set DBUS_SESSION_BUS_ADDRESS: %v", err)
		}

		// the legacy dbus-launch directory offers another way in
		if err := denyAccess(filepath.Join(env.Home, ".dbus")); err != nil {
			return err
		}
	}

	switch systemPolicy {
	case PolicyAllow:
	case PolicyFilter:
		if p == nil || p.SystemSocket == "" {
			return fmt.Errorf("internal error: system bus is filtered but there is no proxy socket")
		}
		if err := doOverlay(dirs.SystemBusSocket, p.SystemSocket); err != nil {
			return err
		}
	case PolicyBlock:
		if err := denyAccess(dirs.SystemBusSocket); err != nil {
			return err
		}
	default:
		return fmt.Errorf("internal error: unknown system bus policy %d", systemPolicy)
	}

	// Only hide the proxy socket dir once the overlay mounts are in
	// place: the proxy sockets live inside it.
	if err := denySocketDir(); err != nil {
		return err
	}

	maybeWarnAbstractSocket(env)
	return nil
}

func denySocketDir() error {
	if !osutil.IsDirectory(dirs.BurrowDBusDir) {
		return nil
	}
	return denyAccess(dirs.BurrowDBusDir)
}

// maybeWarnAbstractSocket points out that an abstract unix socket for
// the session bus cannot be hidden by filesystem mediation. The warning
// is skipped when the network setup already cuts that path off.
func maybeWarnAbstractSocket(env *SandboxEnv) {
	if env.NetworkDisabled {
		return
	}
	if env.BridgeConfigured {
		return
	}
	if len(env.Protocols) > 0 {
		unixAllowed := false
		for _, proto := range env.Protocols {
			if proto == "unix" {
				unixAllowed = true
				break
			}
		}
		if !unixAllowed {
			return
		}
	}
	logger.Noticef("An abstract unix socket for the session D-Bus might still be available. Disable networking or remove unix from the protocol set.")
}
