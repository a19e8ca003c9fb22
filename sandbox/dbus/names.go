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

const maxBusNameLength = 255

// ValidBusName reports whether name is a well-formed D-Bus name or name
// pattern (a name whose final segment is the wildcard "*"). The grammar
// here is deliberately stricter than the generic D-Bus one: only names
// that pass are safe to hand to the filtering proxy as rule arguments.
//
// A name is 1-255 characters, has at least two dot-separated segments,
// and each segment starts with an ASCII letter, "_" or "-", never a
// digit. The wildcard is only accepted as the very last character and
// only at the start of a segment.
func ValidBusName(name string) bool {
	if len(name) == 0 || len(name) > maxBusNameLength {
		return false
	}
	segments := 1
	inSegment := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		alpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		digit := c >= '0' && c <= '9'
		if inSegment {
			switch {
			case c == '.':
				segments++
				inSegment = false
			case !alpha && !digit && c != '_' && c != '-':
				return false
			}
		} else {
			if c == '*' {
				// a bare "*" is not a pattern
				return i > 0 && i == len(name)-1
			}
			if !alpha && c != '_' && c != '-' {
				return false
			}
			inSegment = true
		}
	}
	return inSegment && segments >= 2
}
