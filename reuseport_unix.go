//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"os"

	"golang.org/x/sys/unix"
)

const reusePortSupported = true

// setReusePort sets SO_REUSEPORT on fd.
func setReusePort(fd int) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1))
}
