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

	"github.com/burrowcore/burrow/logger"
)

const (
	// UserDirectivePrefix starts session bus filter directives.
	UserDirectivePrefix = "dbus-user."
	// SystemDirectivePrefix starts system bus filter directives.
	SystemDirectivePrefix = "dbus-system."
)

// checkBusDirectives verifies that the presence of filter directives
// with the given prefix is consistent with the bus's policy. A filter
// directive on an allowed bus is a configuration error the profile
// parser should have rejected already; on a blocked bus it is merely
// pointless and gets a warning. The first matching directive settles
// the question for the whole prefix.
func checkBusDirectives(entries []string, prefix string, policy Policy) error {
	for _, entry := range entries {
		if !strings.HasPrefix(entry, prefix) {
			continue
		}
		switch policy {
		case PolicyAllow:
			return fmt.Errorf("%s filter rule configured, but the bus is not set to filter", prefix)
		case PolicyFilter:
			// all good
		case PolicyBlock:
			logger.Noticef("%s filter rule configured, but the bus is blocked", prefix)
			logger.Noticef("ignoring %q and any other %s filter rules", entry, prefix)
		default:
			return fmt.Errorf("internal error: unknown %s policy %d", prefix, policy)
		}
		break
	}
	return nil
}

// CheckDirectives verifies both buses' filter directives against their
// policies, as checkBusDirectives does.
func CheckDirectives(entries []string, userPolicy, systemPolicy Policy) error {
	if err := checkBusDirectives(entries, "dbus-user", userPolicy); err != nil {
		return err
	}
	return checkBusDirectives(entries, "dbus-system", systemPolicy)
}

// FilterArgs extracts the proxy rule arguments from the directives
// carrying the given prefix, in their original order. The order is
// meaningful: the proxy applies later rules over earlier ones. A
// directive with no value after the name is not a rule and is skipped.
func FilterArgs(entries []string, prefix string) []string {
	var args []string
	for _, entry := range entries {
		rest, ok := strings.CutPrefix(entry, prefix)
		if !ok {
			continue
		}
		name, value, ok := strings.Cut(rest, " ")
		if !ok {
			continue
		}
		args = append(args, "--"+name+"="+value)
	}
	return args
}
