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

package testutil

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"gopkg.in/check.v1"
)

type containsChecker struct {
	*check.CheckerInfo
}

// Contains is a Checker that looks for a needle in a haystack.
// The needle can be any object. The haystack can be an array, slice or string.
var Contains check.Checker = &containsChecker{
	&check.CheckerInfo{Name: "Contains", Params: []string{"haystack", "needle"}},
}

func (c *containsChecker) Check(params []interface{}, names []string) (result bool, error string) {
	defer func() {
		if v := recover(); v != nil {
			result = false
			error = fmt.Sprint(v)
		}
	}()
	var haystack interface{} = params[0]
	var needle interface{} = params[1]
	switch haystackV := reflect.ValueOf(haystack); haystackV.Kind() {
	case reflect.Slice, reflect.Array:
		// Ensure that type of elements in haystack is compatible with needle
		if needleV := reflect.ValueOf(needle); haystackV.Type().Elem() != needleV.Type() {
			panic(fmt.Sprintf("haystack contains items of type %s but needle is a %s",
				haystackV.Type().Elem(), needleV.Type()))
		}
		for len, i := haystackV.Len(), 0; i < len; i++ {
			itemV := haystackV.Index(i)
			if itemV.Interface() == needle {
				return true, ""
			}
		}
		return false, ""
	case reflect.String:
		needleStr, ok := needle.(string)
		if !ok {
			panic("haystack is a string but needle is not")
		}
		return strings.Contains(haystackV.String(), needleStr), ""
	default:
		panic(fmt.Sprintf("unsupported haystack kind %s", haystackV.Kind()))
	}
}

type filePresentChecker struct {
	*check.CheckerInfo
}

// FilePresent verifies that the given file exists.
var FilePresent check.Checker = &filePresentChecker{
	&check.CheckerInfo{Name: "FilePresent", Params: []string{"filename"}},
}

func (c *filePresentChecker) Check(params []interface{}, names []string) (result bool, error string) {
	filename, ok := params[0].(string)
	if !ok {
		return false, "filename must be a string"
	}
	_, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false, fmt.Sprintf("file %q is absent but should exist", filename)
	}
	if err != nil {
		return false, fmt.Sprintf("cannot stat %q: %v", filename, err)
	}
	return true, ""
}

type fileAbsentChecker struct {
	*check.CheckerInfo
}

// FileAbsent verifies that the given file does not exist.
var FileAbsent check.Checker = &fileAbsentChecker{
	&check.CheckerInfo{Name: "FileAbsent", Params: []string{"filename"}},
}

func (c *fileAbsentChecker) Check(params []interface{}, names []string) (result bool, error string) {
	filename, ok := params[0].(string)
	if !ok {
		return false, "filename must be a string"
	}
	_, err := os.Stat(filename)
	if err == nil {
		return false, fmt.Sprintf("file %q is present but should not exist", filename)
	}
	if !os.IsNotExist(err) {
		return false, fmt.Sprintf("cannot stat %q: %v", filename, err)
	}
	return true, ""
}

type fileEqualsChecker struct {
	*check.CheckerInfo
}

// FileEquals verifies that the given file's content equals the string
// (or []byte) provided.
var FileEquals check.Checker = &fileEqualsChecker{
	&check.CheckerInfo{Name: "FileEquals", Params: []string{"filename", "contents"}},
}

func (c *fileEqualsChecker) Check(params []interface{}, names []string) (result bool, error string) {
	filename, ok := params[0].(string)
	if !ok {
		return false, "filename must be a string"
	}
	var expected []byte
	switch v := params[1].(type) {
	case string:
		expected = []byte(v)
	case []byte:
		expected = v
	default:
		return false, "contents must be a string or []byte"
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		return false, fmt.Sprintf("cannot read %q: %v", filename, err)
	}
	if string(content) != string(expected) {
		return false, fmt.Sprintf("file %q equals %q, not %q", filename, content, expected)
	}
	return true, ""
}
