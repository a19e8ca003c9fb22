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

// Command burrow runs a command in a sandbox with mediated D-Bus
// access. It expects to run inside a fresh mount namespace: the bind
// mounts it installs are meant to die with the sandbox.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/jessevdk/go-flags"

	"github.com/burrowcore/burrow/logger"
	"github.com/burrowcore/burrow/osutil/sys"
	"github.com/burrowcore/burrow/profile"
	"github.com/burrowcore/burrow/sandbox/dbus"
	"github.com/burrowcore/burrow/sandbox/deny"
)

type options struct {
	Profile    string `long:"profile" value-name:"PATH" description:"load the sandbox profile at PATH"`
	DBusUser   string `long:"dbus-user" value-name:"POLICY" description:"session bus policy: allow, filter or block"`
	DBusSystem string `long:"dbus-system" value-name:"POLICY" description:"system bus policy: allow, filter or block"`
	NetNone    bool   `long:"net-none" description:"run the sandbox without network access"`

	Positional struct {
		Command []string `positional-arg-name:"<command>" required:"1"`
	} `positional-args:"yes"`
}

func main() {
	if err := logger.SimpleSetup(); err != nil {
		fmt.Fprintf(os.Stderr, "cannot set up logging: %v\n", err)
	}

	exitCode, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func run(args []string) (int, error) {
	var opts options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Usage = "[OPTIONS] <command>"
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			return 0, nil
		}
		return 1, err
	}

	prof := &profile.Profile{}
	if opts.Profile != "" {
		var err error
		if prof, err = profile.Load(opts.Profile); err != nil {
			return 1, err
		}
	}

	// command-line policies override the profile
	userPolicy := prof.UserBusPolicy
	systemPolicy := prof.SystemBusPolicy
	if opts.DBusUser != "" {
		var err error
		if userPolicy, err = dbus.ParsePolicy(opts.DBusUser); err != nil {
			return 1, err
		}
	}
	if opts.DBusSystem != "" {
		var err error
		if systemPolicy, err = dbus.ParsePolicy(opts.DBusSystem); err != nil {
			return 1, err
		}
	}

	if err := dbus.CheckDirectives(prof.Entries, userPolicy, systemPolicy); err != nil {
		return 1, err
	}

	env := &dbus.SandboxEnv{
		UID:             sys.Getuid(),
		GID:             sys.Getgid(),
		Home:            os.Getenv("HOME"),
		NetworkDisabled: opts.NetNone,
	}

	if err := deny.Init(); err != nil {
		return 1, err
	}

	var proxy *dbus.Proxy
	if userPolicy == dbus.PolicyFilter || systemPolicy == dbus.PolicyFilter {
		var err error
		if proxy, err = dbus.StartProxy(env, userPolicy, systemPolicy, prof.Entries); err != nil {
			return 1, err
		}
	}

	if err := dbus.ApplyPolicy(proxy, env, userPolicy, systemPolicy); err != nil {
		proxy.Stop()
		return 1, err
	}

	exitCode, err := runPayload(opts.Positional.Command)

	if serr := proxy.Stop(); serr != nil {
		logger.Noticef("cannot stop D-Bus proxy: %v", serr)
	}

	return exitCode, err
}

func runPayload(argv []string) (int, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return 1, fmt.Errorf("cannot run %q: %v", argv[0], err)
	}
	return 0, nil
}
