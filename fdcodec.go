// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import "strconv"

// EncodeFD duplicates fd, marks the duplicate inheritable across exec
// and returns its number as decimal text.
//
// The duplicate stays valid after fd is closed. It is intentionally left
// open: it exists to be inherited by the next generation.
func EncodeFD(fd int) (string, error) {
	dup, err := sysDup(fd)
	if err != nil {
		return "", err
	}
	if err := SetInheritable(dup, true); err != nil {
		sysClose(dup)
		return "", err
	}
	return strconv.Itoa(dup), nil
}

// DecodeFD parses a descriptor number and duplicates it to check that it
// refers to an open descriptor.
//
// It returns ok == false when value is not a number or the descriptor is
// not open. The caller owns the returned duplicate.
func DecodeFD(value string) (fd int, ok bool) {
	orig, err := strconv.Atoi(value)
	if err != nil || orig < 0 {
		return -1, false
	}
	dup, err := sysDup(orig)
	if err != nil {
		return -1, false
	}
	return dup, true
}
