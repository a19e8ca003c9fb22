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

// Package profile parses burrow sandbox profiles. A profile is a plain
// text file with one directive per line; the directives that concern
// D-Bus mediation are validated here, everything else is carried
// through untouched for other subsystems to interpret.
package profile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/burrowcore/burrow/sandbox/dbus"
)

// Profile is the parsed form of a sandbox profile.
type Profile struct {
	// UserBusPolicy and SystemBusPolicy are the resolved mediation
	// policies for the session and system buses.
	UserBusPolicy   dbus.Policy
	SystemBusPolicy dbus.Policy

	// Entries holds all non-policy directives in file order. The order
	// is preserved because filter rule precedence follows it.
	Entries []string
}

// Parse reads a profile from r. Policies default to allow.
func Parse(r io.Reader) (*Profile, error) {
	p := &Profile{
		UserBusPolicy:   dbus.PolicyAllow,
		SystemBusPolicy: dbus.PolicyAllow,
	}

	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "dbus-user "):
			policy, err := dbus.ParsePolicy(strings.TrimPrefix(line, "dbus-user "))
			if err != nil {
				return nil, fmt.Errorf("%v (line %d)", err, lineno)
			}
			p.UserBusPolicy = policy
		case strings.HasPrefix(line, "dbus-system "):
			policy, err := dbus.ParsePolicy(strings.TrimPrefix(line, "dbus-system "))
			if err != nil {
				return nil, fmt.Errorf("%v (line %d)", err, lineno)
			}
			p.SystemBusPolicy = policy
		case strings.HasPrefix(line, dbus.UserDirectivePrefix), strings.HasPrefix(line, dbus.SystemDirectivePrefix):
			if err := checkFilterDirective(line); err != nil {
				return nil, fmt.Errorf("%v (line %d)", err, lineno)
			}
			p.Entries = append(p.Entries, line)
		default:
			p.Entries = append(p.Entries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read profile: %v", err)
	}

	// a filter rule for a bus that stays fully open makes no sense and
	// most likely means the policy line is missing
	if err := dbus.CheckDirectives(p.Entries, p.UserBusPolicy, p.SystemBusPolicy); err != nil {
		return nil, err
	}

	return p, nil
}

// checkFilterDirective validates the shape of a D-Bus filter directive:
// the prefix is followed by a bus name or pattern, a single space, and
// a non-empty rule value.
func checkFilterDirective(line string) error {
	rest := strings.TrimPrefix(line, dbus.UserDirectivePrefix)
	if rest == line {
		rest = strings.TrimPrefix(line, dbus.SystemDirectivePrefix)
	}
	name, rule, ok := strings.Cut(rest, " ")
	if !ok || rule == "" {
		return fmt.Errorf("cannot parse directive %q: missing rule value", line)
	}
	if !dbus.ValidBusName(name) {
		return fmt.Errorf("cannot parse directive %q: invalid bus name %q", line, name)
	}
	return nil
}

// Load parses the profile stored at path.
func Load(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open profile: %v", err)
	}
	defer f.Close()
	p, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %s: %v", path, err)
	}
	return p, nil
}
