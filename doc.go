// SPDX-License-Identifier: GPL-3.0-or-later

// Package handoff passes bound sockets from one process generation to the next.
//
// A supervising process that wants to replace itself without dropping
// connections cannot simply exec a new binary and let it bind the same
// ports: the new generation would race the old one for the address. This
// package lets the old generation hand over the already-bound sockets
// instead. The new generation inherits the live file descriptors and never
// rebinds them.
//
// # Core Abstraction
//
// A [Resource] is an immutable, comparable descriptor of a socket to create:
// family, type, protocol and address. [TCPResource] and [UDPResource] are
// the concrete kinds. A [*Handle] is the live, bound socket for a resource.
//
// Resources have a compact text form, the spec string:
//
//	tcp,,8080            wildcard TCP port 8080, family chosen by the platform
//	tcp4,127.0.0.1,8080  IPv4 only
//	udp6,::1,53,single   IPv6 only, IPV6_V6ONLY set
//	tcp,,8080,dual       wildcard dual-stack IPv6 socket
//
// See [DecodeAddr], [EncodeResourceSpec] and [*Registry.DecodeResourceSpec].
//
// # Handoff Lifecycle
//
// The old generation creates its handles using [*Sockets.Create] (or
// [*Sockets.CreateCollection]), collects them into a [*Collection] and
// serializes it with [*CollectionCodec.Encode]:
//
//	3,tcp,,8080,dual;4,udp4,0.0.0.0,53,single
//
// Each entry carries a duplicated, inheritable descriptor number followed by
// the resource spec. The caller transports the string to the successor (for
// example, through an environment variable) and execs it. The successor calls
// [*CollectionCodec.Decode], which recovers every inherited socket whose type,
// family and bound address match the spec, and creates a fresh socket for any
// entry it cannot recover. An identifier without a registered [Kind] aborts
// the whole decode, since the descriptor numbers can no longer be trusted.
// To check a string without consuming it, use [ParseCollection] and
// [*Sockets.Probe].
//
// # Responsibilities
//
// This package only provides primitives. Deciding when to start a new
// generation, carrying the string across exec, handling signals and
// destroying the old generation's handles are the supervisor's job.
//
// Duplicating a descriptor and marking it inheritable is not atomic with
// the exec that follows. The supervisor must make sure no unrelated
// fork/exec happens in between, or descriptors leak into the wrong child.
//
// # Observability
//
// Operations accept an [SLogger] (compatible with [log/slog]) and emit
// *Start/*Done event pairs with the same field conventions used across
// the package: resource, localAddr, protocol, t and, on completion, t0, err
// and errClass. Error classification is configurable via [ErrClassifier].
// By default, logging is disabled.
//
// # Platform Support
//
// Socket primitives are implemented for unix systems using
// [golang.org/x/sys/unix]. On other systems the package compiles, but every
// operation touching a socket fails with [errors.ErrUnsupported].
package handoff
