//go:build !unix

// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(
		os.Stderr,
		"handoffctl is only supported on Unix systems.\n\nHanding off sockets relies on descriptors surviving exec, which this platform does not provide.",
	)
	os.Exit(1)
}
