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

// Package burrowconfig reads the system-wide burrow configuration file.
// The file is a flat list of key = value lines; a missing file means
// everything is at its default.
package burrowconfig

import (
	"os"
	"strconv"

	"github.com/mvo5/goconfigparser"

	"github.com/burrowcore/burrow/dirs"
	"github.com/burrowcore/burrow/logger"
)

func parseConfigFile() *goconfigparser.ConfigParser {
	cfg := goconfigparser.New()
	cfg.AllowNoSectionHeader = true
	if err := cfg.ReadFile(dirs.BurrowConfFile); err != nil {
		if !os.IsNotExist(err) {
			logger.Noticef("cannot read %s: %v", dirs.BurrowConfFile, err)
		}
		return nil
	}
	return cfg
}

func getBool(key string, defaultValue bool) bool {
	cfg := parseConfigFile()
	if cfg == nil {
		return defaultValue
	}
	value, err := cfg.Get("", key)
	if err != nil {
		return defaultValue
	}
	switch value {
	case "yes":
		return true
	case "no":
		return false
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		logger.Noticef("cannot parse %s value %q in %s", key, value, dirs.BurrowConfFile)
		return defaultValue
	}
	return b
}

// DBusAvailable reports whether D-Bus mediation is enabled in the
// configuration file. It defaults to true.
func DBusAvailable() bool {
	return getBool("dbus", true)
}
