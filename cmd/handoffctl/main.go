//go:build unix

// SPDX-License-Identifier: GPL-3.0-or-later

// Command handoffctl binds sockets, hands them across exec to the next
// generation of a server, and inspects the collection strings carrying them.
//
// A typical supervisor chain is:
//
//	handoffctl exec -l tcp,,8080 -- ./server
//
// where ./server, when asked to upgrade, runs the same command line: the
// sockets listed in HANDOFF_RESOURCES are inherited instead of rebound.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "handoffctl: %v\n", err)
		return 1
	}
	return 0
}
