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
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/burrowcore/burrow/dbusutil"
	"github.com/burrowcore/burrow/dirs"
	"github.com/burrowcore/burrow/logger"
	"github.com/burrowcore/burrow/osutil"
	"github.com/burrowcore/burrow/osutil/sys"
)

var (
	xdgDBusProxyBin = "/usr/bin/xdg-dbus-proxy"

	osGetpid = os.Getpid
)

// Proxy tracks a running xdg-dbus-proxy subprocess. A Proxy is obtained
// from StartProxy and stays valid until Stop; after Stop the proxy
// process is gone and the socket paths are cleared.
type Proxy struct {
	cmd *exec.Cmd
	// status is the read end of the readiness pipe. Closing it tells
	// the proxy to shut down, so it must never be touched between
	// StartProxy and Stop.
	status *os.File

	// UserSocket and SystemSocket are the private proxy socket paths.
	// Each is non-empty exactly when that bus is being filtered.
	UserSocket   string
	SystemSocket string
}

// sessionBusAddress returns the address of the user's session bus: the
// DBUS_SESSION_BUS_ADDRESS value when it is in socket-path form, the
// deterministic default otherwise.
func sessionBusAddress(uid sys.UserID) string {
	if addr := os.Getenv("DBUS_SESSION_BUS_ADDRESS"); addr != "" {
		if _, ok := dbusutil.AddressPath(addr); ok {
			return addr
		}
	}
	return dbusutil.SocketAddress(dirs.UserBusSocket(int(uid)))
}

// createProxyDir ensures the per-user directory the proxy creates its
// sockets in exists, is private, and belongs to the invoking user.
func createProxyDir(env *SandboxEnv) error {
	return runAsRoot(func() error {
		if err := os.MkdirAll(dirs.BurrowDBusDir, 0755); err != nil {
			return fmt.Errorf("cannot create %q: %v", dirs.BurrowDBusDir, err)
		}
		return osutil.MkdirChown(dirs.DBusProxyDir(int(env.UID)), 0700, env.UID, env.GID)
	})
}

// StartProxy launches the filtering proxy and blocks until it confirms
// that its sockets accept connections. At least one bus policy must be
// PolicyFilter. The filter rules are handed over on a private pipe so
// that neither bus names nor socket paths show up in the proxy's
// command line.
func StartProxy(env *SandboxEnv, userPolicy, systemPolicy Policy, entries []string) (*Proxy, error) {
	if userPolicy != PolicyFilter && systemPolicy != PolicyFilter {
		return nil, fmt.Errorf("internal error: cannot start a proxy when no bus is filtered")
	}

	if err := createProxyDir(env); err != nil {
		return nil, err
	}

	statusR, statusW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("cannot create status pipe: %v", err)
	}
	argsR, argsW, err := os.Pipe()
	if err != nil {
		statusR.Close()
		statusW.Close()
		return nil, fmt.Errorf("cannot create argument pipe: %v", err)
	}

	// The child inherits the status pipe's write end as fd 3 and the
	// argument pipe's read end as fd 4; every other descriptor except
	// the standard streams is closed across the exec.
	cmd := exec.Command(xdgDBusProxyBin, "--fd=3", "--args=4")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{statusW, argsR}
	if sys.Geteuid() == 0 {
		// the proxy must not retain burrow's privileges
		cmd.SysProcAttr = &syscall.SysProcAttr{
			Credential: &syscall.Credential{Uid: uint32(env.UID), Gid: uint32(env.GID)},
		}
	}
	logger.Debugf("starting %s", xdgDBusProxyBin)
	if err := cmd.Start(); err != nil {
		statusR.Close()
		statusW.Close()
		argsR.Close()
		argsW.Close()
		return nil, fmt.Errorf("cannot start %s: %v", xdgDBusProxyBin, err)
	}
	// the parent must not hold the child's pipe ends open
	statusW.Close()
	argsR.Close()

	p := &Proxy{cmd: cmd, status: statusR}
	pid := osGetpid()
	proxyDir := dirs.DBusProxyDir(int(env.UID))

	// Unwind a half-started proxy: closing the status pipe is the
	// shutdown request, then the child has to be reaped.
	abort := func() {
		argsW.Close()
		statusR.Close()
		cmd.Wait()
	}

	if userPolicy == PolicyFilter {
		p.UserSocket = fmt.Sprintf("%s/%d-user", proxyDir, pid)
		if err := writeBusArgs(argsW, sessionBusAddress(env.UID), p.UserSocket, entries, UserDirectivePrefix); err != nil {
			abort()
			return nil, err
		}
	}
	if systemPolicy == PolicyFilter {
		p.SystemSocket = fmt.Sprintf("%s/%d-system", proxyDir, pid)
		if err := writeBusArgs(argsW, dbusutil.SocketAddress(dirs.SystemBusSocket), p.SystemSocket, entries, SystemDirectivePrefix); err != nil {
			abort()
			return nil, err
		}
	}

	// closing the argument pipe signals "no more arguments"
	if err := argsW.Close(); err != nil {
		statusR.Close()
		cmd.Wait()
		return nil, fmt.Errorf("cannot close argument pipe: %v", err)
	}

	// Block until the proxy confirms its sockets are live. There is
	// deliberately no timeout: the sandbox must not proceed without a
	// confirmed-working mediator.
	buf := make([]byte, 1)
	n, err := p.status.Read(buf)
	if err != nil && err != io.EOF {
		abort()
		return nil, fmt.Errorf("cannot read from status pipe: %v", err)
	}
	if n == 0 {
		// The proxy exited before signaling readiness. Reap it so no
		// zombie remains and its stderr had a chance to flush.
		werr := cmd.Wait()
		p.status.Close()
		if werr != nil {
			return nil, fmt.Errorf("%s exited before signaling readiness: %v", xdgDBusProxyBin, werr)
		}
		return nil, fmt.Errorf("%s closed the status pipe unexpectedly", xdgDBusProxyBin)
	}
	logger.Debugf("%s initialized", xdgDBusProxyBin)

	if osutil.GetenvBool("BURROW_DEBUG") {
		p.probeSockets()
	}

	return p, nil
}

// writeBusArgs sends one bus's argument block: upstream address, proxy
// socket path, the filter marker, then the extracted rules in profile
// order.
func writeBusArgs(w io.Writer, upstream, socket string, entries []string, prefix string) error {
	if err := writeArg(w, upstream); err != nil {
		return err
	}
	if err := writeArg(w, socket); err != nil {
		return err
	}
	if err := writeArg(w, "--filter"); err != nil {
		return err
	}
	for _, arg := range FilterArgs(entries, prefix) {
		if err := writeArg(w, arg); err != nil {
			return err
		}
	}
	return nil
}

// writeArg sends one NUL-terminated string as a single write.
func writeArg(w io.Writer, arg string) error {
	logger.Debugf("xdg-dbus-proxy arg: %s", arg)
	if _, err := w.Write(append([]byte(arg), 0)); err != nil {
		return fmt.Errorf("cannot write proxy argument: %v", err)
	}
	return nil
}

// probeSockets double-checks that the freshly announced proxy sockets
// actually speak D-Bus. Debugging aid only; failures are not fatal.
func (p *Proxy) probeSockets() {
	for _, socket := range []string{p.UserSocket, p.SystemSocket} {
		if socket == "" {
			continue
		}
		conn, err := dbusutil.ConnectBusAddress(dbusutil.SocketAddress(socket))
		if err != nil {
			logger.Debugf("proxy socket %s probe failed: %v", socket, err)
			continue
		}
		conn.Close()
		logger.Debugf("proxy socket %s accepts connections", socket)
	}
}

// Stop asks the proxy to shut down by closing the status descriptor and
// reaps it. A proxy exiting non-zero at this point is only worth a
// warning: teardown has to finish regardless. Stopping an already
// stopped proxy is a no-op.
func (p *Proxy) Stop() error {
	if p == nil || p.cmd == nil {
		return nil
	}
	if err := p.status.Close(); err != nil {
		return fmt.Errorf("cannot close status pipe: %v", err)
	}
	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		logger.Noticef("%s returned %d", xdgDBusProxyBin, exitErr.ExitCode())
	} else if err != nil {
		return fmt.Errorf("cannot wait for %s: %v", xdgDBusProxyBin, err)
	}
	p.cmd = nil
	p.status = nil
	p.UserSocket = ""
	p.SystemSocket = ""
	return nil
}
