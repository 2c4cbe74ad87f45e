//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import "fmt"

const reusePortSupported = false

// setReusePort always fails: this system has no SO_REUSEPORT.
func setReusePort(fd int) error {
	return fmt.Errorf("%w: SO_REUSEPORT", ErrUnsupportedOption)
}
